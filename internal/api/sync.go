package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/oprema/internal/syncer"
)

// SyncHandler handles sheet synchronisation.
type SyncHandler struct {
	Engine *syncer.Engine
}

type directoryResponse struct {
	Employees int `json:"employees"`
}

// Sync handles POST /api/sync. Every configured sheet is fetched before
// anything is written; a failed fetch returns 502 and changes nothing.
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	result, err := h.Engine.SyncSources(r.Context(), p.Email)
	if err != nil {
		writeError(w, "sheet sync", err)
		return
	}
	slog.Info("sheet sync", "user", p.Email, "created", result.Created, "updated", result.Updated)
	jsonResponse(w, http.StatusOK, result)
}

// Directory handles POST /api/sync/directory.
func (h *SyncHandler) Directory(w http.ResponseWriter, r *http.Request) {
	dir, err := h.Engine.SyncDirectory(r.Context())
	if err != nil {
		writeError(w, "directory sync", err)
		return
	}
	slog.Info("employee directory synced", "user", GetPrincipal(r.Context()).Email, "employees", dir.Len())
	jsonResponse(w, http.StatusOK, directoryResponse{Employees: dir.Len()})
}

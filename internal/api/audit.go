package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/oprema/internal/lifecycle"
	"github.com/erazemk/oprema/internal/model"
)

// defaultAuditLimit caps GET /api/audit when no limit is given.
const defaultAuditLimit = 500

// AuditHandler handles the global audit log.
type AuditHandler struct {
	Assets *lifecycle.Service
}

type purgeRequest struct {
	Before    *time.Time `json:"before" validate:"required_without=OlderThan"`
	OlderThan string     `json:"older_than" validate:"required_without=Before"`
}

// List handles GET /api/audit. limit=0 returns everything.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := h.Assets.AuditLog(r.Context(), limit)
	if err != nil {
		writeError(w, "list audit log", err)
		return
	}
	if entries == nil {
		entries = []model.AuditLogEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

// Delete handles DELETE /api/audit/{id}.
func (h *AuditHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p := GetPrincipal(r.Context())
	if err := h.Assets.DeleteAudit(r.Context(), p, id); err != nil {
		writeError(w, "delete audit entry", err)
		return
	}
	slog.Info("audit entry deleted", "user", p.Email, "entry", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "audit entry deleted"})
}

// Purge handles POST /api/audit/purge. Either an absolute cut-off or an age
// such as "2160h" is accepted.
func (h *AuditHandler) Purge(w http.ResponseWriter, r *http.Request) {
	var req purgeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	var before time.Time
	if req.Before != nil {
		before = *req.Before
	} else {
		age, err := time.ParseDuration(req.OlderThan)
		if err != nil || age <= 0 {
			jsonError(w, http.StatusBadRequest, "older_than must be a positive duration")
			return
		}
		before = time.Now().Add(-age)
	}

	p := GetPrincipal(r.Context())
	n, err := h.Assets.PurgeAudit(r.Context(), p, before)
	if err != nil {
		writeError(w, "purge audit log", err)
		return
	}
	slog.Info("audit log purged", "user", p.Email, "before", before, "removed", n)
	jsonResponse(w, http.StatusOK, map[string]int64{"removed": n})
}

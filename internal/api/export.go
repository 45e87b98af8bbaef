package api

import (
	"bytes"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/oprema/internal/export"
	"github.com/erazemk/oprema/internal/lifecycle"
	"github.com/erazemk/oprema/internal/store"
)

// ExportHandler handles CSV downloads and the outbound sheet push.
type ExportHandler struct {
	Assets *lifecycle.Service
	DB     *sql.DB
	Pusher *export.Pusher
}

// CSV handles GET /api/export/csv. With view=1 only the caller's filtered
// view is exported, otherwise every active asset.
func (h *ExportHandler) CSV(w http.ResponseWriter, r *http.Request) {
	assets, err := h.Assets.ListActive(r.Context())
	if err != nil {
		writeError(w, "export csv", err)
		return
	}
	if r.URL.Query().Get("view") == "1" {
		if sess := GetSession(r.Context()); sess != nil {
			sess.View.Replace(assets)
			assets = sess.View.Filtered()
		}
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, assets); err != nil {
		writeError(w, "export csv", err)
		return
	}

	name := fmt.Sprintf("assets-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Write(buf.Bytes())
}

// Sheet handles POST /api/export/sheet. The push runs in the background and
// its outcome is only logged.
func (h *ExportHandler) Sheet(w http.ResponseWriter, r *http.Request) {
	url, err := store.GetSetting(r.Context(), h.DB, store.SettingExportURL)
	if err != nil {
		writeError(w, "export sheet", err)
		return
	}
	assets, err := h.Assets.ListActive(r.Context())
	if err != nil {
		writeError(w, "export sheet", err)
		return
	}

	user := GetPrincipal(r.Context()).Email
	err = h.Pusher.Push(url, assets, func(err error) {
		if err == nil {
			slog.Info("sheet export sent", "user", user, "assets", len(assets))
		}
	})
	if err != nil {
		writeError(w, "export sheet", err)
		return
	}
	jsonResponse(w, http.StatusAccepted, map[string]any{"message": "export started", "assets": len(assets)})
}

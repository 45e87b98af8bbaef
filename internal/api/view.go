package api

import (
	"net/http"

	"github.com/erazemk/oprema/internal/lifecycle"
	"github.com/erazemk/oprema/internal/query"
)

// ViewHandler exposes the caller's session view: filter criteria, current
// page and bulk selection. Every call reloads the active asset set so the
// view never shows stale rows.
type ViewHandler struct {
	Assets *lifecycle.Service
}

type pageRequest struct {
	Page int `json:"page" validate:"min=1"`
}

type selectionRequest struct {
	IDs []string `json:"ids"`
}

// view refreshes and returns the caller's view.
func (h *ViewHandler) view(w http.ResponseWriter, r *http.Request) *query.View {
	sess := GetSession(r.Context())
	if sess == nil {
		jsonError(w, http.StatusUnauthorized, "no session")
		return nil
	}
	assets, err := h.Assets.ListActive(r.Context())
	if err != nil {
		writeError(w, "load view", err)
		return nil
	}
	sess.View.Replace(assets)
	return sess.View
}

// Get handles GET /api/view.
func (h *ViewHandler) Get(w http.ResponseWriter, r *http.Request) {
	v := h.view(w, r)
	if v == nil {
		return
	}
	jsonResponse(w, http.StatusOK, v.Snapshot())
}

// SetFilter handles PUT /api/view/filter.
func (h *ViewHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var c query.Criteria
	if err := decodeJSON(r, &c); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	v := h.view(w, r)
	if v == nil {
		return
	}
	v.SetCriteria(c)
	jsonResponse(w, http.StatusOK, v.Snapshot())
}

// ClearFilter handles DELETE /api/view/filter.
func (h *ViewHandler) ClearFilter(w http.ResponseWriter, r *http.Request) {
	v := h.view(w, r)
	if v == nil {
		return
	}
	v.ClearCriteria()
	jsonResponse(w, http.StatusOK, v.Snapshot())
}

// SetPage handles PUT /api/view/page.
func (h *ViewHandler) SetPage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	v := h.view(w, r)
	if v == nil {
		return
	}
	v.SetPage(req.Page)
	jsonResponse(w, http.StatusOK, v.Snapshot())
}

// SetSelection handles PUT /api/view/selection. Ids not visible under the
// current filter are ignored.
func (h *ViewHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	v := h.view(w, r)
	if v == nil {
		return
	}
	v.Select(req.IDs)
	jsonResponse(w, http.StatusOK, v.Snapshot())
}

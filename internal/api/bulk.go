package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/oprema/internal/lifecycle"
	"github.com/erazemk/oprema/internal/model"
)

// BulkHandler handles bulk operations. When a request lists no ids, the
// caller's view selection is used.
type BulkHandler struct {
	Assets *lifecycle.Service
}

type bulkEditRequest struct {
	IDs   []string `json:"ids"`
	Field string   `json:"field" validate:"required"`
	Value string   `json:"value"`
}

type bulkStatusRequest struct {
	IDs    []string `json:"ids"`
	Status string   `json:"status" validate:"required"`
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// Edit handles POST /api/bulk/edit.
func (h *BulkHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req bulkEditRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := GetPrincipal(r.Context())
	result, err := h.Assets.BulkEdit(r.Context(), p, selected(r, req.IDs), req.Field, req.Value)
	h.respond(w, r, "bulk edit", result, err)
}

// Status handles POST /api/bulk/status.
func (h *BulkHandler) Status(w http.ResponseWriter, r *http.Request) {
	var req bulkStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := GetPrincipal(r.Context())
	result, err := h.Assets.BulkStatusChange(r.Context(), p, selected(r, req.IDs), model.Status(req.Status))
	h.respond(w, r, "bulk status change", result, err)
}

// Delete handles POST /api/bulk/delete.
func (h *BulkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := GetPrincipal(r.Context())
	result, err := h.Assets.BulkDelete(r.Context(), p, selected(r, req.IDs))
	h.respond(w, r, "bulk delete", result, err)
}

func selected(r *http.Request, ids []string) []string {
	if len(ids) > 0 {
		return ids
	}
	if sess := GetSession(r.Context()); sess != nil {
		return sess.View.Selection()
	}
	return nil
}

func (h *BulkHandler) respond(w http.ResponseWriter, r *http.Request, op string, result *lifecycle.BulkResult, err error) {
	if err != nil {
		writeError(w, op, err)
		return
	}
	// The selection referred to the old asset set.
	if sess := GetSession(r.Context()); sess != nil {
		sess.View.Select(nil)
	}
	slog.Info(op, "user", GetPrincipal(r.Context()).Email, "updated", result.Updated, "skipped", len(result.Skipped))
	jsonResponse(w, http.StatusOK, result)
}

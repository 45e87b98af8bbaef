package api

import (
	"bytes"
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/oprema/internal/config"
	"github.com/erazemk/oprema/internal/export"
	"github.com/erazemk/oprema/internal/imaging"
	"github.com/erazemk/oprema/internal/lifecycle"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/query"
	"github.com/erazemk/oprema/internal/store"
)

// AssetsHandler handles asset endpoints.
type AssetsHandler struct {
	Assets *lifecycle.Service
	DB     *sql.DB
	Config *config.Config
}

type assetRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	SerialNumber string `json:"serial_number" validate:"max=100"`
	Brand        string `json:"brand" validate:"max=100"`
	Category     string `json:"category"`
	Notes        string `json:"notes" validate:"max=4000"`
	PhoneNumber  string `json:"phone_number" validate:"max=50"`
	IsRental     bool   `json:"is_rental"`
	Status       string `json:"status"`
}

func (req assetRequest) input() lifecycle.AssetInput {
	return lifecycle.AssetInput{
		Name:         req.Name,
		SerialNumber: req.SerialNumber,
		Brand:        req.Brand,
		Category:     model.Category(req.Category),
		Notes:        req.Notes,
		PhoneNumber:  req.PhoneNumber,
		IsRental:     req.IsRental,
		Status:       model.Status(req.Status),
	}
}

type assignRequest struct {
	EmployeeCode    string `json:"employee_code" validate:"required_without=Location"`
	Location        string `json:"location" validate:"required_without=EmployeeCode"`
	ConfirmResigned bool   `json:"confirm_resigned"`
}

type returnRequest struct {
	Condition string `json:"condition"`
	Note      string `json:"note" validate:"max=1000"`
}

type employeeResponse struct {
	Employee *model.Employee `json:"employee"`
	Resigned bool            `json:"resigned"`
}

// List handles GET /api/assets. Query parameters mirror query.Criteria plus
// page and size.
func (h *AssetsHandler) List(w http.ResponseWriter, r *http.Request) {
	assets, err := h.Assets.ListActive(r.Context())
	if err != nil {
		writeError(w, "list assets", err)
		return
	}

	q := r.URL.Query()
	c := query.Criteria{
		Search:     q.Get("search"),
		Category:   q.Get("category"),
		Brand:      q.Get("brand"),
		Department: q.Get("department"),
		Position:   q.Get("position"),
		Rental:     q.Get("rental"),
		Status:     q.Get("status"),
	}
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	if size <= 0 {
		size = h.Config.PageSize
	}

	jsonResponse(w, http.StatusOK, query.Paginate(query.Filter(assets, c), page, size))
}

// Get handles GET /api/assets/{id}.
func (h *AssetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.Assets.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, "get asset", err)
		return
	}
	jsonResponse(w, http.StatusOK, a)
}

// History handles GET /api/assets/{id}/history.
func (h *AssetsHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Assets.History(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, "get asset history", err)
		return
	}
	if entries == nil {
		entries = []model.AuditLogEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

// Create handles POST /api/assets.
func (h *AssetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := GetPrincipal(r.Context())
	a, err := h.Assets.Create(r.Context(), p, req.input())
	if err != nil {
		writeError(w, "create asset", err)
		return
	}

	slog.Info("asset created", "user", p.Email, "asset", a.ID, "name", a.Name)
	jsonResponse(w, http.StatusCreated, a)
}

// Update handles PUT /api/assets/{id}.
func (h *AssetsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := GetPrincipal(r.Context())
	a, err := h.Assets.Edit(r.Context(), p, r.PathValue("id"), req.input())
	if err != nil {
		writeError(w, "update asset", err)
		return
	}

	slog.Info("asset updated", "user", p.Email, "asset", a.ID)
	jsonResponse(w, http.StatusOK, a)
}

// Delete handles DELETE /api/assets/{id}. An optional reason query parameter
// is recorded on the asset.
func (h *AssetsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p := GetPrincipal(r.Context())
	if err := h.Assets.Delete(r.Context(), p, id, r.URL.Query().Get("reason")); err != nil {
		writeError(w, "delete asset", err)
		return
	}

	slog.Info("asset deleted", "user", p.Email, "asset", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "asset deleted"})
}

// Assign handles POST /api/assets/{id}/assign.
func (h *AssetsHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := r.PathValue("id")
	p := GetPrincipal(r.Context())
	var (
		a   *model.Asset
		err error
	)
	if req.EmployeeCode != "" {
		a, err = h.Assets.AssignEmployee(r.Context(), p, id, req.EmployeeCode, req.ConfirmResigned)
	} else {
		a, err = h.Assets.AssignToCentral(r.Context(), p, id, req.Location)
	}
	if err != nil {
		writeError(w, "assign asset", err)
		return
	}

	slog.Info("asset assigned", "user", p.Email, "asset", id, "holder", a.AssignedTo)
	jsonResponse(w, http.StatusOK, a)
}

// Return handles POST /api/assets/{id}/return.
func (h *AssetsHandler) Return(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := r.PathValue("id")
	p := GetPrincipal(r.Context())
	a, err := h.Assets.Return(r.Context(), p, id, req.Condition, req.Note)
	if err != nil {
		writeError(w, "return asset", err)
		return
	}

	slog.Info("asset returned", "user", p.Email, "asset", id, "status", a.Status)
	jsonResponse(w, http.StatusOK, a)
}

// ChangeOwner handles POST /api/assets/{id}/change-owner.
func (h *AssetsHandler) ChangeOwner(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	t := lifecycle.Target{Location: req.Location}
	if req.EmployeeCode != "" {
		e, resigned, err := h.Assets.ResolveEmployee(req.EmployeeCode)
		if err != nil {
			writeError(w, "change owner", err)
			return
		}
		if resigned && !req.ConfirmResigned {
			writeError(w, "change owner", lifecycle.ErrConfirmationRequired)
			return
		}
		t = lifecycle.Target{Employee: e}
	}

	id := r.PathValue("id")
	p := GetPrincipal(r.Context())
	a, err := h.Assets.ChangeOwner(r.Context(), p, id, t)
	if err != nil {
		writeError(w, "change owner", err)
		return
	}

	slog.Info("asset owner changed", "user", p.Email, "asset", id, "holder", a.AssignedTo)
	jsonResponse(w, http.StatusOK, a)
}

// Employee handles GET /api/employees/{code}.
func (h *AssetsHandler) Employee(w http.ResponseWriter, r *http.Request) {
	e, resigned, err := h.Assets.ResolveEmployee(r.PathValue("code"))
	if err != nil {
		writeError(w, "look up employee", err)
		return
	}
	jsonResponse(w, http.StatusOK, employeeResponse{Employee: e, Resigned: resigned})
}

// UploadImage handles PUT /api/assets/{id}/image.
func (h *AssetsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)

	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.PreparePhoto(file)
	if err != nil {
		writeError(w, "upload image", err)
		return
	}

	id := r.PathValue("id")
	if err := store.SetAssetImage(r.Context(), h.DB, id, photo.Data, photo.MIME); err != nil {
		writeError(w, "upload image", err)
		return
	}

	slog.Info("asset image uploaded", "user", GetPrincipal(r.Context()).Email, "asset", id, "bytes", len(photo.Data))
	jsonResponse(w, http.StatusOK, map[string]any{"message": "image uploaded", "width": photo.Width, "height": photo.Height})
}

// GetImage handles GET /api/assets/{id}/image.
func (h *AssetsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	data, mime, err := store.GetAssetImage(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		writeError(w, "get image", err)
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}

// Handover handles GET /api/assets/{id}/handover. The authorized and witness
// query parameters name the signatories; the witness defaults to the
// configured one.
func (h *AssetsHandler) Handover(w http.ResponseWriter, r *http.Request) {
	a, err := h.Assets.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, "handover", err)
		return
	}
	if a.AssignedTo == "" {
		jsonError(w, http.StatusBadRequest, "asset has no holder")
		return
	}

	q := r.URL.Query()
	doc := export.Handover{
		Company:    h.Config.Handover.Company,
		Authorized: q.Get("authorized"),
		Witness:    q.Get("witness"),
	}
	if doc.Witness == "" {
		doc.Witness = h.Config.Handover.Witness
	}

	var buf bytes.Buffer
	if err := export.WriteHandover(&buf, a, doc); err != nil {
		writeError(w, "handover", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

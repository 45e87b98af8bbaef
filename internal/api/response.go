package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/erazemk/oprema/internal/auth"
	"github.com/erazemk/oprema/internal/export"
	"github.com/erazemk/oprema/internal/imaging"
	"github.com/erazemk/oprema/internal/lifecycle"
	"github.com/erazemk/oprema/internal/sheets"
	"github.com/erazemk/oprema/internal/store"
)

var validate = validator.New()

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into target and, for structs,
// validates its tags.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return fmt.Errorf("invalid request body")
	}
	if err := validate.Struct(target); err != nil {
		var notStruct *validator.InvalidValidationError
		if errors.As(err, &notStruct) {
			return nil
		}
		return validationError(err)
	}
	return nil
}

// validationError turns validator output into a short message naming the
// offending fields.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required", "required_without":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be an email address")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// writeError maps a domain error to its HTTP status. Unexpected errors are
// logged and reported as 500 without details.
func writeError(w http.ResponseWriter, op string, err error) {
	var partial *store.PartialError
	switch {
	case errors.As(err, &partial):
		slog.Error(op+" stopped part way", "assets_committed", partial.AssetsCommitted,
			"assets_total", partial.AssetsTotal, "writes", partial.Committed, "error", err)
		jsonResponse(w, http.StatusInternalServerError, map[string]any{
			"error":     "operation stopped part way; it is safe to run again",
			"committed": partial.AssetsCommitted,
			"total":     partial.AssetsTotal,
		})
	case errors.Is(err, lifecycle.ErrForbidden), errors.Is(err, auth.ErrDomainNotAllowed):
		jsonError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, lifecycle.ErrConfirmationRequired):
		jsonResponse(w, http.StatusConflict, map[string]string{
			"error": err.Error(),
			"code":  "confirmation_required",
		})
	case errors.Is(err, lifecycle.ErrConflict):
		jsonError(w, http.StatusConflict, lifecycle.ErrConflict.Error())
	case errors.Is(err, lifecycle.ErrNotFound), errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, lifecycle.ErrInvalid), errors.Is(err, export.ErrNoTarget):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, imaging.ErrUnsupported):
		jsonError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, imaging.ErrTooLarge):
		jsonError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, sheets.ErrFetch):
		slog.Warn(op+" failed", "error", err)
		jsonError(w, http.StatusBadGateway, err.Error())
	default:
		slog.Error(op+" failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/specialistvlad/pagegrid/internal/ctxlog"
	"github.com/specialistvlad/pagegrid/internal/editor"
	"github.com/specialistvlad/pagegrid/internal/page"
	"github.com/specialistvlad/pagegrid/internal/registry"
	"github.com/specialistvlad/pagegrid/internal/schema"
)

// Error codes of ErrorResponse.
const (
	CodeBadRequest       = "bad_request"
	CodeNotFound         = "not_found"
	CodeConflict         = "conflict"
	CodeValidationFailed = "validation_failed"
	CodeInternal         = "internal_error"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code    string             `json:"code"`
	Message string             `json:"message"`
	Fields  schema.FieldErrors `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *schema.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Code:    CodeValidationFailed,
			Message: verr.Error(),
			Fields:  verr.Fields,
		})
	case errors.Is(err, page.ErrNotFound),
		errors.Is(err, editor.ErrInstanceNotFound),
		errors.Is(err, registry.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Code: CodeNotFound, Message: err.Error()})
	case errors.Is(err, page.ErrVersionConflict):
		writeJSON(w, http.StatusConflict, ErrorResponse{Code: CodeConflict, Message: err.Error()})
	case errors.Is(err, editor.ErrInvalidPageID), errors.Is(err, errBadRequest):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Code: CodeBadRequest, Message: err.Error()})
	default:
		ctxlog.FromContext(r.Context()).Error("Request failed.", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Code: CodeInternal, Message: "internal error"})
	}
}

var errBadRequest = errors.New("bad request")

func readBody(r *http.Request, w http.ResponseWriter) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", errBadRequest, err)
	}
	return body, nil
}

func decodeBody(r *http.Request, w http.ResponseWriter, v any) error {
	body, err := readBody(r, w)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Faultbox/webray-editor/internal/actions"
	"github.com/Faultbox/webray-editor/internal/binding"
	"github.com/Faultbox/webray-editor/internal/editor"
	"github.com/Faultbox/webray-editor/internal/files"
	"github.com/Faultbox/webray-editor/internal/scene"
	"github.com/Faultbox/webray-editor/internal/storage"
	"github.com/Faultbox/webray-editor/pkg/pathx"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var (
		bindErr *binding.BindPathError
		fileErr *files.FileFormatError
		pathErr *pathx.PathError
	)
	switch {
	case errors.As(err, &bindErr):
		return http.StatusBadRequest
	case errors.Is(err, actions.ErrUnknownAction),
		errors.Is(err, scene.ErrUnknownCollection),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrNotRendered):
		return http.StatusConflict
	case errors.As(err, &fileErr),
		errors.As(err, &pathErr),
		errors.Is(err, scene.ErrNotList),
		errors.Is(err, storage.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, editor.ErrNoLibrary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

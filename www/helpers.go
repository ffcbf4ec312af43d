package www

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"workbenchd/station"
	"workbenchd/store"
)

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// detailResponse is the uniform body of outcome-only endpoints.
type detailResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func writeOK(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusOK, detailResponse{Status: "ok", Detail: detail})
}

// writeError maps domain errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var (
		notFound  *store.NotFoundError
		forbidden *station.StateForbiddenError
		precond   *station.PreconditionError
		eligible  *station.EligibilityError
	)
	code := http.StatusInternalServerError
	switch {
	case errors.As(err, &notFound):
		code = http.StatusNotFound
	case errors.As(err, &forbidden):
		code = http.StatusConflict
	case errors.As(err, &eligible):
		code = http.StatusConflict
	case errors.As(err, &precond):
		code = http.StatusBadRequest
	}
	writeJSON(w, code, detailResponse{Status: "error", Detail: err.Error()})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	pkgerrors "foodiary/pkg/errors"
)

// MaxBodyBytes bounds every JSON request body
const MaxBodyBytes = 1 << 20

// RespondJSON sends data as a JSON body
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// RespondNoContent sends an empty 204
func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// ParseJSONBody decodes the request body into v. Malformed bodies become
// validation errors.
func ParseJSONBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return pkgerrors.NewValidationError("request body is required")
		case errors.As(err, &maxErr):
			return pkgerrors.NewValidationError(fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
		default:
			return pkgerrors.NewValidationError("invalid request body").WithCause(err)
		}
	}
	return nil
}

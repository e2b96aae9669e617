package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// errorBody is the JSON shape of every API error.
type errorBody struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// RequireMethod reports whether r uses one of methods; GET admits HEAD.
// Otherwise it writes a 405 listing the allowed methods.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	allowed := slices.Clone(methods)
	if slices.Contains(methods, http.MethodGet) && !slices.Contains(methods, http.MethodHead) {
		allowed = append(allowed, http.MethodHead)
	}
	if slices.Contains(allowed, r.Method) {
		return true
	}
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// WriteJSON writes data as JSON with the given status.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes {"error": message, "code": statusCode}.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, errorBody{Error: message, Code: statusCode})
}

// QueryLimit parses the "limit" query parameter, defaulting to def and
// clamping to ceiling.
func QueryLimit(r *http.Request, def, ceiling int) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	return min(n, ceiling), nil
}

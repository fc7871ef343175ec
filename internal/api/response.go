package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// toString renders an arbitrary event-data value for the dataValue query
// filter, which always arrives as a string.
func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// envelope is the uniform response shape every endpoint returns (spec §6):
// {success, data, total?, limit?, skip?}. Grounded on the teacher's
// respondJSON/respondError pair in pkg/api/server.go, generalized with the
// paging fields the read-only surface needs.
type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Total   *int `json:"total,omitempty"`
	Limit   *int `json:"limit,omitempty"`
	Skip    *int `json:"skip,omitempty"`
}

func respondData(w http.ResponseWriter, data any) {
	respondJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

// respondList sends a paged collection alongside the total match count, so
// callers can page past the returned slice.
func respondList(w http.ResponseWriter, data any, total, limit, skip int) {
	respondJSON(w, http.StatusOK, envelope{Success: true, Data: data, Total: &total, Limit: &limit, Skip: &skip})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Success: false, Error: message})
}

func respondNotFound(w http.ResponseWriter, what string) {
	respondError(w, http.StatusNotFound, what+" not found")
}

func respondBadRequest(w http.ResponseWriter, message string) {
	respondError(w, http.StatusBadRequest, message)
}

func respondInternalError(w http.ResponseWriter, err error) {
	respondError(w, http.StatusInternalServerError, err.Error())
}

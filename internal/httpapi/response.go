package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"pokestate/internal/apperr"
	"pokestate/internal/page"
)

const maxBodyBytes = 1 << 20

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type pagedEnvelope struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
	TotalPages int    `json:"total_pages"`
}

type pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

func paginationOf[T any](res page.Result[T]) pagination {
	return pagination{Total: res.Total, Page: res.Page, PerPage: res.PerPage, TotalPages: res.TotalPages}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeOK(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

// writeAppError maps an error to its status code. Internal failures are
// logged and reported without their cause.
func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Errorf("request failed: %v", err)
		writeError(w, status, "internal storage error")
		return
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		writeError(w, status, appErr.Message)
		return
	}
	writeError(w, status, err.Error())
}

// decode reads a JSON body into dst. An empty body is an error.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.New(apperr.CodeValidation, "request body is required")
		}
		return apperr.Wrap(apperr.CodeValidation, fmt.Sprintf("invalid JSON body: %v", err), err)
	}
	return nil
}

// queryInt returns the named query parameter, or def when absent or not a
// number. Range clamping happens in the page package.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func pathIndex(r *http.Request) (int, error) {
	raw := mux.Vars(r)["index"]
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.New(apperr.CodeIndexOutOfRange, fmt.Sprintf("pokemon at index %s not found", raw))
	}
	return n, nil
}

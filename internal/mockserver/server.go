// Package mockserver implements an in-process HPKV-compatible REST server.
// Contract tests run the SDK against it, and the CLI can serve it locally for
// development without a real HPKV endpoint.
package mockserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Server handles the HPKV REST surface: POST /record, GET|DELETE
// /record/{key}, POST /record/atomic and GET /records. Writes are serialized
// on a single mutex so partial updates and atomic increments behave like the
// real service.
type Server struct {
	apiKey string
	store  Store
	log    *zap.SugaredLogger

	writeMu sync.Mutex
}

// New creates a Server validating requests against apiKey and persisting
// records in store. log may be nil.
func New(apiKey string, store Store, log *zap.SugaredLogger) *Server {
	return &Server{apiKey: apiKey, store: store, log: log}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.log != nil {
		s.log.Debugw("mock request", "method", r.Method, "path", r.URL.Path)
	}

	if r.Header.Get("x-api-key") != s.apiKey {
		writeError(w, http.StatusUnauthorized, "Invalid API key")
		return
	}

	path := r.URL.EscapedPath()
	switch {
	case path == "/record" && r.Method == http.MethodPost:
		s.handleSet(w, r)
	case path == "/record/atomic" && r.Method == http.MethodPost:
		s.handleIncrement(w, r)
	case strings.HasPrefix(path, "/record/"):
		key, err := url.PathUnescape(strings.TrimPrefix(path, "/record/"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid key encoding")
			return
		}
		switch r.Method {
		case http.MethodGet:
			s.handleGet(w, key)
		case http.MethodDelete:
			s.handleDelete(w, key)
		default:
			writeError(w, http.StatusNotFound, "Not found")
		}
	case path == "/records" && r.Method == http.MethodGet:
		s.handleQuery(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload struct {
		Key           string `json:"key"`
		Value         string `json:"value"`
		PartialUpdate bool   `json:"partialUpdate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	key, err := url.PathUnescape(payload.Key)
	if err != nil || key == "" {
		writeError(w, http.StatusBadRequest, "Invalid key")
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	value := payload.Value
	if payload.PartialUpdate {
		existing, ok, err := s.store.Get(key)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if ok {
			if merged, ok := mergeJSON(existing, payload.Value); ok {
				value = merged
			}
		}
	}

	if err := s.store.Put(key, value); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Record set successfully"})
}

func (s *Server) handleGet(w http.ResponseWriter, key string) {
	value, ok, err := s.store.Get(key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Record not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": key, "value": value})
}

func (s *Server) handleDelete(w http.ResponseWriter, key string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	ok, err := s.store.Delete(key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Record not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleIncrement(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload struct {
		Key       string `json:"key"`
		Increment int64  `json:"increment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	key, err := url.PathUnescape(payload.Key)
	if err != nil || key == "" {
		writeError(w, http.StatusBadRequest, "Invalid key")
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := int64(0)
	value, ok, err := s.store.Get(key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if ok {
		current, err = strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Record value is not a number")
			return
		}
	}

	result := current + payload.Increment
	if err := s.store.Put(key, strconv.FormatInt(result, 10)); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	// Clients percent-encode range bounds before URL encoding, so one more
	// unescape is needed after the transport-level decode.
	startKey, err := url.QueryUnescape(params.Get("startKey"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid startKey encoding")
		return
	}
	endKey, err := url.QueryUnescape(params.Get("endKey"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid endKey encoding")
		return
	}

	limit := 100
	if raw := params.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
	}

	records, truncated, err := s.store.Range(startKey, endKey, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"records":   records,
		"count":     len(records),
		"truncated": truncated,
	})
}

// mergeJSON merges patch into base when both are JSON objects, patch fields
// winning on conflict. ok is false when either side is not an object, in
// which case the caller falls back to replacement.
func mergeJSON(base, patch string) (string, bool) {
	var baseObj, patchObj map[string]any
	if err := json.Unmarshal([]byte(base), &baseObj); err != nil || baseObj == nil {
		return "", false
	}
	if err := json.Unmarshal([]byte(patch), &patchObj); err != nil || patchObj == nil {
		return "", false
	}
	for k, v := range patchObj {
		baseObj[k] = v
	}
	merged, err := json.Marshal(baseObj)
	if err != nil {
		return "", false
	}
	return string(merged), true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		fmt.Fprintf(w, `{"error":"encode response: %s"}`, err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

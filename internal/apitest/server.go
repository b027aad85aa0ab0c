// Package apitest runs an in-process fake of the HR API for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// Request is a request received by the fake API.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Server is a fake HR API served under /v1. Responses use the
// {"data": ...} envelope of the real API.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	meta         map[string]json.RawMessage
	records      map[string][]map[string]any
	settings     map[string]json.RawMessage
	userSettings json.RawMessage
	metaHits     map[string]int
	requests     []Request
	failures     map[string]int
	metaDelay    time.Duration
	nextID       int64
}

// NewServer starts a fake API and stops it when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		meta:     make(map[string]json.RawMessage),
		records:  make(map[string][]map[string]any),
		settings: make(map[string]json.RawMessage),
		metaHits: make(map[string]int),
		failures: make(map[string]int),
		nextID:   1000,
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Route("/v1", func(r chi.Router) {
		r.Route("/entities/{name}", func(r chi.Router) {
			r.Get("/meta", s.getMeta)
			r.Get("/", s.listRecords)
			r.Post("/", s.createRecord)
			r.Get("/{id}", s.getRecord)
			r.Patch("/{id}", s.updateRecord)
			r.Delete("/{id}", s.deleteRecord)
		})
		r.Get("/user/settings", s.getUserSettings)
		r.Get("/user/settings/entities/{name}", s.getEntitySettings)
		r.Post("/user/settings/entities/{name}", s.postEntitySettings)
	})
	return r
}

// AddEntity registers a metadata document. The entity name is read from
// its Name member.
func (s *Server) AddEntity(t testing.TB, metadata string) {
	t.Helper()
	var head struct{ Name string }
	if err := json.Unmarshal([]byte(metadata), &head); err != nil || head.Name == "" {
		t.Fatalf("apitest: bad metadata: %v", err)
	}
	s.mu.Lock()
	s.meta[head.Name] = json.RawMessage(metadata)
	s.mu.Unlock()
}

// AddRecord stores a record of the named entity.
func (s *Server) AddRecord(name string, rec map[string]any) {
	s.mu.Lock()
	s.records[name] = append(s.records[name], rec)
	s.mu.Unlock()
}

// SetUserSettings sets the document returned by GET /user/settings.
func (s *Server) SetUserSettings(doc string) {
	s.mu.Lock()
	s.userSettings = json.RawMessage(doc)
	s.mu.Unlock()
}

// Fail makes every request with method and path answer status.
// Path is relative to /v1.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	s.failures[method+" /v1"+path] = status
	s.mu.Unlock()
}

// SetMetaDelay delays metadata responses.
func (s *Server) SetMetaDelay(d time.Duration) {
	s.mu.Lock()
	s.metaDelay = d
	s.mu.Unlock()
}

// MetaRequests returns how many metadata requests were served for name.
func (s *Server) MetaRequests(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metaHits[name]
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent request.
func (s *Server) LastRequest() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}
	}
	return s.requests[len(s.requests)-1]
}

// Records returns the stored records of the named entity.
func (s *Server) Records(name string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.records[name]...)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		status, fail := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()

		if fail {
			writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, map[string]any{"data": v})
}

func notFound(w http.ResponseWriter, what string) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": what + " not found"})
}

func (s *Server) getMeta(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.mu.Lock()
	s.metaHits[name]++
	meta, ok := s.meta[name]
	delay := s.metaDelay
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if !ok {
		notFound(w, "entity "+name)
		return
	}
	writeData(w, meta)
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.mu.Lock()
	recs := append([]map[string]any{}, s.records[name]...)
	s.mu.Unlock()

	q := r.URL.Query()
	size := atoi(q.Get("records"))
	page := atoi(q.Get("page"))
	if size > 0 {
		if page < 1 {
			page = 1
		}
		start := (page - 1) * size
		if start > len(recs) {
			start = len(recs)
		}
		end := start + size
		if end > len(recs) {
			end = len(recs)
		}
		recs = recs[start:end]
	}
	writeData(w, recs)
}

func (s *Server) findRecord(name, id string) (int, map[string]any) {
	for i, rec := range s.records[name] {
		if fmt.Sprint(rec["Id"]) == id {
			return i, rec
		}
	}
	return -1, nil
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	name, id := chi.URLParam(r, "name"), chi.URLParam(r, "id")
	s.mu.Lock()
	_, rec := s.findRecord(name, id)
	s.mu.Unlock()
	if rec == nil {
		notFound(w, name+" "+id)
		return
	}
	writeData(w, rec)
}

func (s *Server) createRecord(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var rec map[string]any
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.mu.Lock()
	s.nextID++
	rec["Id"] = s.nextID
	rec["CreatedDate"] = "2024-01-02T03:04:05.000Z"
	s.records[name] = append(s.records[name], rec)
	s.mu.Unlock()
	writeData(w, rec)
}

func (s *Server) updateRecord(w http.ResponseWriter, r *http.Request) {
	name, id := chi.URLParam(r, "name"), chi.URLParam(r, "id")
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.mu.Lock()
	_, rec := s.findRecord(name, id)
	if rec != nil {
		for k, v := range patch {
			if k != "Id" {
				rec[k] = v
			}
		}
	}
	s.mu.Unlock()
	if rec == nil {
		notFound(w, name+" "+id)
		return
	}
	writeData(w, rec)
}

func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request) {
	name, id := chi.URLParam(r, "name"), chi.URLParam(r, "id")
	s.mu.Lock()
	i, rec := s.findRecord(name, id)
	if rec != nil {
		s.records[name] = append(s.records[name][:i], s.records[name][i+1:]...)
	}
	s.mu.Unlock()
	if rec == nil {
		notFound(w, name+" "+id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (s *Server) getUserSettings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	doc := s.userSettings
	s.mu.Unlock()
	writeData(w, doc)
}

func (s *Server) getEntitySettings(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.mu.Lock()
	doc := s.settings[name]
	s.mu.Unlock()
	writeData(w, doc)
}

func (s *Server) postEntitySettings(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	body, err := io.ReadAll(r.Body)
	if err != nil || !json.Valid(body) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid settings document"})
		return
	}
	s.mu.Lock()
	s.settings[name] = json.RawMessage(body)
	s.mu.Unlock()
	writeData(w, json.RawMessage(body))
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

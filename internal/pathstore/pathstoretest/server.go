// Package pathstoretest provides an in-memory pathstore server for tests.
package pathstoretest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Server emulates the /kv endpoints of pathstore.
type Server struct {
	*httptest.Server

	mu    sync.Mutex
	nodes map[string]json.RawMessage
}

// NewServer starts a server. Callers must Close it.
func NewServer() *Server {
	s := &Server{nodes: make(map[string]json.RawMessage)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Len returns the number of stored nodes.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodes)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	key, ok := strings.CutPrefix(r.URL.Path, "/kv/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		var body struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.nodes[key] = body.Value
		w.WriteHeader(http.StatusOK)

	case http.MethodGet:
		if prefix, ok := strings.CutSuffix(key, "/*"); ok {
			s.list(w, r, prefix+"/")
			return
		}
		v, ok := s.nodes[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"key_path": key, "value": v})

	case http.MethodDelete:
		if _, ok := s.nodes[key]; !ok {
			http.NotFound(w, r)
			return
		}
		delete(s.nodes, key)
		if r.URL.Query().Get("children") == "true" {
			for k := range s.nodes {
				if strings.HasPrefix(k, key+"/") {
					delete(s.nodes, k)
				}
			}
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) list(w http.ResponseWriter, r *http.Request, prefix string) {
	keys := make([]string, 0, len(s.nodes))
	for k := range s.nodes {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 && limit < len(keys) {
		keys = keys[:limit]
	}

	type node struct {
		Key   string          `json:"key_path"`
		Value json.RawMessage `json:"value"`
	}
	out := make([]node, 0, len(keys))
	for _, k := range keys {
		out = append(out, node{Key: k, Value: s.nodes[k]})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"nodes": out})
}

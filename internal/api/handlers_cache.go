package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/specscan/internal/cache"
	"github.com/dgallion1/specscan/internal/export"
	"github.com/dgallion1/specscan/internal/extract"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// cacheEntry loads the entry named in the URL, writing the error response
// itself when there is none.
func (s *Server) cacheEntry(w http.ResponseWriter, r *http.Request) (*cache.Entry, bool) {
	c := s.analyzer.Cache()
	if c == nil {
		jsonError(w, "document cache is disabled", http.StatusServiceUnavailable)
		return nil, false
	}
	e, err := c.Peek(r.Context(), chi.URLParam(r, "hash"))
	if errors.Is(err, cache.ErrNotFound) {
		jsonError(w, "cache entry not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		s.log.Error("cache read failed", "error", err, "request_id", requestID(r))
		jsonError(w, "failed to read cache entry", http.StatusInternalServerError)
		return nil, false
	}
	return e, true
}

func (s *Server) handleGetCacheEntry(w http.ResponseWriter, r *http.Request) {
	e, ok := s.cacheEntry(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteCacheEntry(w http.ResponseWriter, r *http.Request) {
	c := s.analyzer.Cache()
	if c == nil {
		jsonError(w, "document cache is disabled", http.StatusServiceUnavailable)
		return
	}
	hash := chi.URLParam(r, "hash")
	err := c.Delete(r.Context(), hash)
	if errors.Is(err, cache.ErrNotFound) {
		jsonError(w, "cache entry not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("cache delete failed", "error", err, "doc_hash", hash)
		jsonError(w, "failed to delete cache entry", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportCacheEntry(w http.ResponseWriter, r *http.Request) {
	e, ok := s.cacheEntry(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.DivisionMapXLSX(&buf, e.Structure); err != nil {
		s.log.Error("xlsx export failed", "error", err, "doc_hash", e.DocumentHash)
		jsonError(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename(e)))
	_, _ = w.Write(buf.Bytes())
}

func exportFilename(e *cache.Entry) string {
	base := extract.Slugify(strings.TrimSuffix(e.FileName, filepath.Ext(e.FileName)))
	if base == "" {
		base = e.DocumentHash[:min(12, len(e.DocumentHash))]
	}
	return base + "-divisions.xlsx"
}

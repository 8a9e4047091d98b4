package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/specscan/internal/cache"
	"github.com/dgallion1/specscan/internal/classify"
	"github.com/dgallion1/specscan/internal/parser"
	"github.com/dgallion1/specscan/internal/pipeline"
)

type analyzeRequest struct {
	Document   string   `json:"document"`
	Division   string   `json:"division"`
	Label      string   `json:"label"`
	Keywords   []string `json:"keywords"`
	FileName   string   `json:"file_name"`
	TotalPages int      `json:"total_pages"`
	SkipCache  bool     `json:"skip_cache"`
	Extract    bool     `json:"extract"`

	IncludeContractTerms bool `json:"include_contract_terms"`
}

type structureRequest struct {
	Document   string `json:"document"`
	FileName   string `json:"file_name"`
	TotalPages int    `json:"total_pages"`
	SkipCache  bool   `json:"skip_cache"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	res, err := s.analyzer.Analyze(r.Context(), pipeline.Request{
		Document:   req.Document,
		Division:   req.Division,
		Label:      req.Label,
		Keywords:   req.Keywords,
		FileName:   sanitizeFilename(req.FileName),
		FileSize:   int64(len(req.Document)),
		TotalPages: req.TotalPages,
		SkipCache:  req.SkipCache,
		Extract:    req.Extract,

		IncludeContractTerms: req.IncludeContractTerms,
	})
	s.writeAnalysis(w, r, res, err)
}

func (s *Server) handleAnalyzeUpload(w http.ResponseWriter, r *http.Request) {
	up, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	text, totalPages, err := parser.ParseFile(bytes.NewReader(up.data), up.filename, s.cfg.Jobs().Parser)
	if err != nil {
		jsonError(w, "could not parse file: "+err.Error(), http.StatusBadRequest)
		return
	}
	res, err := s.analyzer.Analyze(r.Context(), pipeline.Request{
		Document:   text,
		Division:   up.division,
		FileName:   up.filename,
		FileSize:   int64(len(up.data)),
		TotalPages: totalPages,
		SkipCache:  up.skipCache,
		Extract:    up.extract,

		IncludeContractTerms: up.contractTerms,
	})
	s.writeAnalysis(w, r, res, err)
}

func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	var req structureRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	res, err := s.analyzer.Structure(r.Context(), req.Document, cache.Metadata{
		FileName:   sanitizeFilename(req.FileName),
		FileSize:   int64(len(req.Document)),
		TotalPages: req.TotalPages,
	}, req.SkipCache)
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// writeAnalysis maps analysis errors to status codes. A division that was
// not found is a 404 that still carries the partial result.
func (s *Server) writeAnalysis(w http.ResponseWriter, r *http.Request, res *pipeline.Result, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, pipeline.ErrDivisionNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":  err.Error(),
			"result": res,
		})
	default:
		code := statusFor(err)
		if code >= http.StatusInternalServerError {
			s.log.Error("analysis failed", "error", err, "request_id", requestID(r))
		}
		jsonError(w, err.Error(), code)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrDivisionNotFound), errors.Is(err, cache.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, classify.ErrClassifierUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			jsonError(w, fmt.Sprintf("request exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

type upload struct {
	filename  string
	data      []byte
	division  string
	skipCache bool
	extract   bool

	contractTerms bool
}

// readUpload reads the multipart "file" field and the analysis options
// that accompany it.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (upload, bool) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return upload{}, false
	}
	defer r.MultipartForm.RemoveAll()

	division := strings.TrimSpace(r.FormValue("division"))
	if division == "" {
		jsonError(w, "division is required", http.StatusBadRequest)
		return upload{}, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return upload{}, false
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return upload{}, false
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return upload{}, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return upload{}, false
	}

	return upload{
		filename:  filename,
		data:      data,
		division:  division,
		skipCache: formBool(r, "skip_cache"),
		extract:   formBool(r, "extract"),

		contractTerms: formBool(r, "include_contract_terms"),
	}, true
}

func formBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.FormValue(key))
	return b
}

func sanitizeFilename(name string) string {
	if name == "" {
		return ""
	}
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}

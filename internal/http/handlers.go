package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"finsight/internal/core"
	"finsight/internal/log"
	"finsight/internal/services"
	"finsight/internal/store"
)

const maxUploadBytes = 32 << 20 // 32 MiB across all files in one request

// handleUpload ingests one or more CSV payloads and responds with the
// analysis over everything now in the store. Any unparseable file rejects
// the whole request.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.writeError(w, http.StatusBadRequest, "no files in upload; use the 'files' form field")
		return
	}

	uploads := make([]services.UploadFile, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("read %s: %v", h.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("read %s: %v", h.Filename, err))
			return
		}
		uploads = append(uploads, services.UploadFile{Name: h.Filename, Data: data})
	}

	result, diags, err := s.service.Upload(ctx, uploads)
	if err != nil {
		var ie *store.IngestError
		if errors.As(err, &ie) {
			s.writeError(w, http.StatusBadRequest, ie.Error())
			return
		}
		log.FromContext(ctx).ErrorContext(ctx, "Upload failed", log.FieldError, err.Error())
		s.writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}
	s.invalidateAnalyses()

	s.writeJSON(w, http.StatusOK, uploadResponseJSON{
		Analysis:    toAnalysisJSON(result),
		SkippedRows: toSkippedRowsJSON(diags),
	})
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.service.ListFiles(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "List files failed", log.FieldError, err.Error())
		s.writeError(w, http.StatusInternalServerError, "list files failed")
		return
	}

	out := make([]fileJSON, 0, len(files))
	for _, f := range files {
		out = append(out, toFileJSON(f))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filename := r.PathValue("filename")

	if err := s.service.DeleteFile(ctx, filename); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, fmt.Sprintf("file %s not found", filename))
			return
		}
		log.FromContext(ctx).ErrorContext(ctx, "Delete failed",
			log.FieldFilename, filename,
			log.FieldError, err.Error())
		s.writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	s.invalidateAnalyses()

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "filename": filename})
}

// handleAnalyze aggregates a selection of files, optionally windowed to a
// year or year-month. Identical requests between mutations are served from
// the analysis cache.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req analyzeRequestJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	window := core.Window{Year: req.Year, Month: req.Month}
	if err := window.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := s.analysisKey(req.Paths, window)
	if cached, ok := s.analysisCache.Get(key); ok {
		s.metrics.cacheHits.Add(1)
		s.writeJSON(w, http.StatusOK, toAnalysisJSON(cached))
		return
	}

	var (
		result core.AnalysisResult
		err    error
	)
	if req.Paths == nil {
		result, err = s.service.AnalyzeAll(ctx, window)
	} else {
		result, err = s.service.AnalyzeSelected(ctx, *req.Paths, window)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		log.FromContext(ctx).ErrorContext(ctx, "Analyze failed", log.FieldError, err.Error())
		s.writeError(w, http.StatusInternalServerError, "analyze failed")
		return
	}
	s.analysisCache.Set(key, result)

	s.writeJSON(w, http.StatusOK, toAnalysisJSON(result))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.startedAt).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// The store is the only dependency a request needs.
	if _, err := s.service.ListFiles(r.Context()); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"store":  err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"uptime_seconds": int64(time.Since(s.metrics.startedAt).Seconds()),
		"requests_total": s.metrics.requests.Load(),
		"errors_total":   s.metrics.errors.Load(),
		"cache_hits":     s.metrics.cacheHits.Load(),
		"cache_entries":  s.analysisCache.Len(),
	})
}

// invalidateAnalyses drops memoized analyses after a mutation. The revision
// guards against a concurrent request re-inserting a stale entry under a
// pre-mutation key.
func (s *Server) invalidateAnalyses() {
	s.revision.Add(1)
	s.analysisCache.Purge()
}

func (s *Server) analysisKey(paths *[]string, window core.Window) string {
	sel := "all"
	if paths != nil {
		sorted := append([]string(nil), *paths...)
		sort.Strings(sorted)
		sel = strings.Join(sorted, ",")
	}
	return fmt.Sprintf("r%d|%s|%s", s.revision.Load(), sel, window.Key())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", log.FieldError, err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorJSON{Error: msg})
}

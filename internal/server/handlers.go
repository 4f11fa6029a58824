package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/rag"
	"github.com/hyperjump/kotae/internal/search"
	"github.com/hyperjump/kotae/internal/storage"
)

// multipartOverhead is allowed on top of the file size ceiling for the
// multipart envelope.
const multipartOverhead = 1 << 20

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.config.Server.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("File too large. Max size is %dMB", s.config.Server.MaxUploadMB))
			return
		}
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	res, err := s.indexer.IngestUpload(r.Context(), header.Filename, file, header.Size)
	if err != nil {
		s.respondUploadError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.UploadResponse{
		Status:         "success",
		Filename:       res.Document.Filename,
		Segments:       res.Document.SegmentCount,
		ProcessingTime: fmt.Sprintf("%.2fs", res.Elapsed.Seconds()),
	})
}

func (s *Server) respondUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, indexer.ErrFileTooLarge):
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("File too large. Max size is %dMB", s.config.Server.MaxUploadMB))
	case errors.Is(err, indexer.ErrExtensionNotAllowed), errors.Is(err, extract.ErrUnsupportedFormat):
		s.respondError(w, http.StatusBadRequest, "Unsupported file type")
	case errors.Is(err, search.ErrCapacity), errors.Is(err, search.ErrSegmentCapacity):
		s.respondJSON(w, http.StatusConflict, map[string]string{"status": "rejected", "error": err.Error()})
	case errors.Is(err, search.ErrNothingToIndex):
		s.respondError(w, http.StatusUnprocessableEntity, "No text could be extracted from the document")
	default:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); ct == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		req.Question = r.FormValue("question")
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.asker.Ask(r.Context(), req.Question)
	switch {
	case errors.Is(err, rag.ErrTimeout):
		s.respondError(w, http.StatusGatewayTimeout, "Processing timeout")
	case err != nil:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	default:
		s.respondJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("search request", zap.String("query", req.Query), zap.Int("top_k", req.TopK))

	hits, err := s.engine.Search(r.Context(), req.Query, req.TopK)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if hits == nil {
		hits = []*models.Hit{}
	}
	s.respondJSON(w, http.StatusOK, models.SearchResponse{
		Query:   req.Query,
		Hits:    hits,
		Context: search.FormatContext(hits),
	})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	docs := s.engine.Documents()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
		"total":     len(docs),
	})
}

func (s *Server) handleIngestions(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		s.respondError(w, http.StatusNotImplemented, "ingestion log not enabled")
		return
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	recs, err := s.audit.ListIngestions(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list ingestions failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []*models.IngestionRecord{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"ingestions": recs,
		"offset":     offset,
		"limit":      limit,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cfg := s.config
	resp := map[string]interface{}{
		"engine": s.engine.Stats(),
		"config": map[string]interface{}{
			"chunk_size":          cfg.Retrieval.ChunkSize,
			"chunk_overlap":       cfg.Retrieval.ChunkOverlap,
			"top_k":               cfg.Retrieval.TopK,
			"embedding_provider":  cfg.Embedding.Provider,
			"generation_provider": cfg.Generation.Provider,
			"generation_model":    cfg.Generation.Model,
			"generation_timeout":  cfg.Generation.Timeout.String(),
			"max_upload_mb":       cfg.Server.MaxUploadMB,
			"allowed_extensions":  cfg.Server.AllowedExtensions,
			"upload_dir":          cfg.Server.UploadDir,
			"database_path":       cfg.Storage.DatabasePath,
		},
	}
	if s.audit != nil {
		counts, err := s.audit.CountIngestions(r.Context())
		if err != nil {
			s.logger.Error("status: count ingestions failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["ingestions"] = counts
	}
	if s.inbox != nil {
		resp["watched_directories"] = s.inbox.Directories()
	}
	if diskBytes, err := storage.DiskUsageBytes(cfg.Server.UploadDir, cfg.Storage.DatabasePath); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

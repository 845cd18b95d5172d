// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

package api

import (
	"context"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/veridect/veridect/internal/analyzer"
	"github.com/veridect/veridect/internal/config"
	"github.com/veridect/veridect/internal/media"
	"github.com/veridect/veridect/internal/validation"
)

// Analyzer is the slice of the analysis service the handlers consume.
type Analyzer interface {
	AnalyzeURL(ctx context.Context, url string) (*analyzer.Report, error)
	AnalyzeUpload(ctx context.Context, body io.Reader, ref media.Reference) (*analyzer.Report, error)
}

// Handler holds the dependencies of all HTTP handlers.
type Handler struct {
	svc     Analyzer
	cfg     *config.Config
	version string

	ffprobeOnce  sync.Once
	ffprobeFound bool
}

// NewHandler builds the handler set.
func NewHandler(svc Analyzer, cfg *config.Config, version string) *Handler {
	return &Handler{svc: svc, cfg: cfg, version: version}
}

// analyzeRequest is the JSON/form body of POST /api/v1/analyze.
type analyzeRequest struct {
	URL string `json:"url" validate:"omitempty,max=2048"`
}

// Analyze scores one video, submitted either as a multipart upload under
// the "file" field or as a remote "url". Exactly one of the two must be
// present.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	// One chunk of slack over the ceiling; the resolver enforces the exact
	// cap on the spooled stream.
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Resolver.MaxUploadBytes+(1<<20))

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		h.analyzeMultipart(w, r)
		return
	}
	h.analyzeJSON(w, r)
}

func (h *Handler) analyzeMultipart(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "unreadable multipart body", nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	url := strings.TrimSpace(r.FormValue("url"))
	file, header, ferr := r.FormFile("file")
	hasFile := ferr == nil

	switch {
	case hasFile && url != "":
		file.Close()
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST",
			"provide either a file or a url, not both", nil)
		return
	case !hasFile && url == "":
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST",
			"provide a file upload or a url", nil)
		return
	case hasFile:
		defer file.Close()
		ref := media.NewUploadReference(header.Filename, header.Size, header.Header.Get("Content-Type"))
		report, err := h.svc.AnalyzeUpload(r.Context(), file, ref)
		if err != nil {
			respondResolverError(w, r, err)
			return
		}
		respondJSON(w, r, http.StatusOK, report)
	default:
		h.analyzeURL(w, r, url)
	}
}

func (h *Handler) analyzeJSON(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "unreadable request body", nil)
		return
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "malformed JSON body", nil)
			return
		}
	}
	if req.URL == "" {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST",
			"provide a file upload or a url", nil)
		return
	}
	h.analyzeURL(w, r, req.URL)
}

func (h *Handler) analyzeURL(w http.ResponseWriter, r *http.Request, url string) {
	req := analyzeRequest{URL: url}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	report, err := h.svc.AnalyzeURL(r.Context(), url)
	if err != nil {
		respondResolverError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, report)
}

// HealthLive reports process liveness.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthReady reports whether the service can actually score media, which
// requires the ffprobe binary to be present.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.ffprobeOnce.Do(func() {
		bin := h.cfg.Signals.FFprobePath
		if bin == "" {
			bin = "ffprobe"
		}
		_, err := exec.LookPath(bin)
		h.ffprobeFound = err == nil
	})

	if !h.ffprobeFound {
		respondError(w, r, http.StatusServiceUnavailable, "NOT_READY",
			"ffprobe binary not found", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// Version reports build identity and effective tunables.
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, &VersionInfo{
		Version:   h.version,
		RealMax:   h.cfg.Decision.RealMax,
		AIMin:     h.cfg.Decision.AIMin,
		Weights:   h.cfg.Signals.Weights,
		MaxBytes:  h.cfg.Resolver.MaxBytes,
		MaxUpload: h.cfg.Resolver.MaxUploadBytes,
		BinWidth:  h.cfg.Timeline.BinWidth,
	})
}

// Package server exposes the modeling engine over HTTP: model computation
// and export from uploaded YAML definitions, plus project persistence.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/finmodeler/statement-engine/internal/cashflow"
	"github.com/finmodeler/statement-engine/internal/config"
	"github.com/finmodeler/statement-engine/internal/report"
	"github.com/finmodeler/statement-engine/internal/store"
	"github.com/finmodeler/statement-engine/pkg/constants"
	"github.com/finmodeler/statement-engine/pkg/export"
)

type handler struct {
	logger        *zap.Logger
	projects      *store.Store
	maxUploadSize int64
	version       string
}

// NewHandler constructs the HTTP handler serving the modeling API. The
// project store may be nil; project routes then respond 503.
func NewHandler(logger *zap.Logger, projects *store.Store, maxUploadSize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, projects: projects, maxUploadSize: maxUploadSize, version: trimmedVersion}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/model/compute", h.handleCompute)
		r.Post("/model/export", h.handleExport)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.handleListProjects)
			r.Post("/", h.handleSaveProject)
			r.Get("/{id}", h.handleGetProject)
			r.Put("/{id}", h.handleUpdateProject)
			r.Delete("/{id}", h.handleDeleteProject)
		})

		r.Get("/version", h.handleVersion)
	})

	return r
}

type computeResponse struct {
	Report      *report.Report            `json:"report"`
	Suggestions []cashflow.Classification `json:"suggestions,omitempty"`
	Warnings    []string                  `json:"warnings,omitempty"`
	Duration    string                    `json:"duration"`
}

type projectRequest struct {
	Name      string `json:"name"`
	ModelYAML string `json:"modelYaml"`
}

func (h *handler) handleCompute(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	op := "server.handleCompute"

	data, err := h.readModelUpload(w, r)
	if err != nil {
		h.respondError(w, uploadStatus(err), err.Error(), op)
		return
	}

	conf, err := config.ParseConfiguration(data)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	warnings := conf.Validate()

	m, projCfg, err := conf.Build()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	warnings = append(warnings, config.ValidateModel(m)...)

	classifier := cashflow.NewClassifier(h.logger)
	classifications := classifier.ClassifyStatement(m.Statement(constants.StatementBalance))
	m = classifier.Apply(m)

	suggestions := make([]cashflow.Classification, 0)
	for _, c := range classifications {
		if c.Treatment == cashflow.TreatmentSuggestReview {
			suggestions = append(suggestions, c)
		}
	}

	rep := report.Build(h.logger, m, projCfg)
	elapsed := time.Since(start)

	h.logger.Info("model computed",
		zap.String("op", op),
		zap.Int("statements", len(rep.Statements)),
		zap.Int("warnings", len(warnings)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, computeResponse{
		Report:      rep,
		Suggestions: suggestions,
		Warnings:    warnings,
		Duration:    elapsed.String(),
	})
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	op := "server.handleExport"

	data, err := h.readModelUpload(w, r)
	if err != nil {
		h.respondError(w, uploadStatus(err), err.Error(), op)
		return
	}

	conf, err := config.ParseConfiguration(data)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	m, projCfg, err := conf.Build()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	m = cashflow.NewClassifier(h.logger).Apply(m)

	rep := report.Build(h.logger, m, projCfg)

	var buf bytes.Buffer
	if err := export.Write(rep, &buf); err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error(), op)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="model.xlsx"`)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("failed to write workbook response",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	op := "server.handleListProjects"
	if h.projects == nil {
		h.respondError(w, http.StatusServiceUnavailable, "project store not configured", op)
		return
	}
	projects, err := h.projects.List(r.Context())
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"projects": projects})
}

func (h *handler) handleSaveProject(w http.ResponseWriter, r *http.Request) {
	op := "server.handleSaveProject"
	if h.projects == nil {
		h.respondError(w, http.StatusServiceUnavailable, "project store not configured", op)
		return
	}

	req, ok := h.decodeProjectRequest(w, r, op)
	if !ok {
		return
	}

	project, err := h.projects.Save(r.Context(), req.Name, req.ModelYAML)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	h.logger.Info("project saved",
		zap.String("op", op),
		zap.String("project", project.ID),
	)
	h.writeJSON(w, http.StatusCreated, project)
}

func (h *handler) handleGetProject(w http.ResponseWriter, r *http.Request) {
	op := "server.handleGetProject"
	if h.projects == nil {
		h.respondError(w, http.StatusServiceUnavailable, "project store not configured", op)
		return
	}
	project, err := h.projects.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		h.respondError(w, http.StatusNotFound, "project not found", op)
		return
	}
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, project)
}

func (h *handler) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	op := "server.handleUpdateProject"
	if h.projects == nil {
		h.respondError(w, http.StatusServiceUnavailable, "project store not configured", op)
		return
	}

	req, ok := h.decodeProjectRequest(w, r, op)
	if !ok {
		return
	}

	project, err := h.projects.Update(r.Context(), chi.URLParam(r, "id"), req.Name, req.ModelYAML)
	if errors.Is(err, store.ErrNotFound) {
		h.respondError(w, http.StatusNotFound, "project not found", op)
		return
	}
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, project)
}

func (h *handler) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	op := "server.handleDeleteProject"
	if h.projects == nil {
		h.respondError(w, http.StatusServiceUnavailable, "project store not configured", op)
		return
	}
	err := h.projects.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		h.respondError(w, http.StatusNotFound, "project not found", op)
		return
	}
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) decodeProjectRequest(w http.ResponseWriter, r *http.Request, op string) (projectRequest, bool) {
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode project: %v", err), op)
		return req, false
	}
	if strings.TrimSpace(req.Name) == "" {
		h.respondError(w, http.StatusBadRequest, "project name is required", op)
		return req, false
	}
	return req, true
}

// readModelUpload accepts the model definition either as a multipart form
// with a "file" field or as a raw YAML request body.
func (h *handler) readModelUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
			return nil, wrapUploadError(err, h.maxUploadSize)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("missing model definition file")
		}
		defer func() {
			if closeErr := file.Close(); closeErr != nil {
				h.logger.Warn("failed to close uploaded file",
					zap.String("op", "server.readModelUpload"),
					zap.Error(closeErr),
				)
			}
		}()
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, file); err != nil {
			return nil, wrapUploadError(err, h.maxUploadSize)
		}
		return buf.Bytes(), nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, wrapUploadError(err, h.maxUploadSize)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("missing model definition")
	}
	return data, nil
}

type uploadTooLargeError struct {
	limit int64
}

func (e *uploadTooLargeError) Error() string {
	return fmt.Sprintf("upload exceeds limit of %d bytes", e.limit)
}

func wrapUploadError(err error, limit int64) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return &uploadTooLargeError{limit: limit}
	}
	return fmt.Errorf("failed to read model definition: %v", err)
}

func uploadStatus(err error) int {
	var tooLarge *uploadTooLargeError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

package web

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/addrconform/internal/core"
	"github.com/JonMunkholm/addrconform/internal/logging"
	"github.com/JonMunkholm/addrconform/internal/objectstore"
	"github.com/JonMunkholm/addrconform/internal/runner"
	"github.com/JonMunkholm/addrconform/internal/store"
	"github.com/JonMunkholm/addrconform/internal/web/templates"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	// multipartMemory is how much of an upload is buffered before spilling to disk.
	multipartMemory = 32 << 20
)

// handleConform accepts a multipart form with the source definition JSON
// in "source" and the data file (or zip) in "file". The run is queued and
// 202 returned, unless wait=true asks to block until it finishes.
func (s *Server) handleConform(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Conform.MaxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			s.respondError(w, r, fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, s.cfg.Conform.MaxUploadSize))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	def, err := core.ParseSourceDefinition([]byte(r.FormValue("source")))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errNoFile)
		return
	}
	defer file.Close()

	filename := uploadName(header.Filename)
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = strings.TrimSuffix(filename, filepath.Ext(filename))
	}

	inputDir, err := os.MkdirTemp(s.runner.Workdir(), "upload-*")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("create upload dir: %w", err))
		return
	}
	path := filepath.Join(inputDir, filename)
	if err := saveUpload(file, path); err != nil {
		os.RemoveAll(inputDir)
		s.respondError(w, r, err)
		return
	}

	job := runner.Job{Name: name, Definition: def, Paths: []string{path}, InputDir: inputDir}
	log := logging.FromContext(r.Context())

	if r.URL.Query().Get("wait") == "true" {
		run, err := s.runner.Run(r.Context(), job)
		if run == nil {
			os.RemoveAll(inputDir)
			s.respondError(w, r, err)
			return
		}
		status := http.StatusOK
		if err != nil {
			status = statusFor(err)
		}
		log.Info("conform finished", "run_id", run.ID, "status", run.Status)
		writeJSON(w, status, run)
		return
	}

	run, err := s.runner.Submit(r.Context(), job)
	if err != nil {
		os.RemoveAll(inputDir)
		s.respondError(w, r, err)
		return
	}
	log.Info("conform queued", "run_id", run.ID, "source", name, "size", header.Size)
	w.Header().Set("Location", "/api/runs/"+run.ID)
	writeJSON(w, http.StatusAccepted, run)
}

// uploadName reduces a client-supplied file name to a safe base name.
func uploadName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		return "upload"
	}
	return name
}

func saveUpload(src io.Reader, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save upload: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return fmt.Errorf("save upload: %w", err)
	}
	return f.Close()
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", defaultListLimit)
	if limit > maxListLimit {
		limit = maxListLimit
	}

	runs, err := s.runs.List(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.Get(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// handleRunOutput streams the canonical CSV of a succeeded run, from the
// local workdir when it is still there, else from object storage.
func (s *Server) handleRunOutput(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.Get(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if run.Status != store.StatusSucceeded {
		s.respondError(w, r, fmt.Errorf("%w: run is %s", errNoOutput, run.Status))
		return
	}

	body, err := s.openOutput(r, run)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer body.Close()

	name := filepath.Base(run.OutputPath)
	if name == "." || name == "/" {
		name = run.ID + ".csv"
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if _, err := io.Copy(w, body); err != nil {
		logging.FromContext(r.Context()).Warn("output download interrupted", "run_id", run.ID, "error", err)
	}
}

func (s *Server) openOutput(r *http.Request, run *store.Run) (io.ReadCloser, error) {
	if run.OutputPath != "" {
		f, err := os.Open(run.OutputPath)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	if run.ObjectKey != "" && s.outputs != nil {
		body, err := s.outputs.Open(r.Context(), run.ObjectKey)
		if errors.Is(err, objectstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", errNoOutput, err)
		}
		return body, err
	}
	return nil, fmt.Errorf("%w: output file is gone", errNoOutput)
}

// HealthResponse reports liveness and run capacity.
type HealthResponse struct {
	Status string               `json:"status"`
	Runs   runner.LimiterStatus `json:"runs"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Runs:   s.runner.Limiter().Status(),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	runs, err := s.runs.List(r.Context(), defaultListLimit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	status := s.runner.Limiter().Status()
	templ.Handler(templates.Dashboard(runs, status.Active, status.MaxConcurrent)).ServeHTTP(w, r)
}

// parseIntParam reads a positive integer query parameter.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	str := r.URL.Query().Get(name)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(str)
	if err != nil || val <= 0 {
		return defaultVal
	}
	return val
}

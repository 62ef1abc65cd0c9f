package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"burnish/internal/api"
	"burnish/internal/config"
	"burnish/internal/logging"
	"burnish/internal/orchestrator"
	"burnish/internal/pipeline"
	"burnish/internal/rules"
	"burnish/internal/services"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	if cfg == nil || d == nil {
		return nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}

	mux := http.NewServeMux()
	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}

	mux.HandleFunc("/api/submissions", srv.handleSubmit)
	mux.HandleFunc("/api/results", srv.handleResults)
	mux.HandleFunc("/api/results/", srv.handleResult)
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.Handle("/metrics", promhttp.Handler())

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Writes stay open for the full evaluation, gateway retries included.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", slog.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.SubmitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<20)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := s.daemon.Orchestrator().Submit(r.Context(), req.Submission())
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, api.SubmitResponse{Result: result, Persisted: true})
	case errors.Is(err, services.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case isPersistence(err):
		// The verdict was computed but not stored. Hand it back so the
		// caller can retry without re-running enrichment.
		s.writeJSON(w, http.StatusOK, api.SubmitResponse{Result: result, Persisted: false})
	case isRuleEvaluation(err):
		s.writeError(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) handleResults(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodDelete:
		if err := s.daemon.Store().Clear(r.Context()); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, nil)
		return
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := r.URL.Query()
	verdict := pipeline.Verdict(strings.TrimSpace(query.Get("verdict")))
	limit, _ := strconv.Atoi(query.Get("limit"))

	results, err := s.daemon.Store().List(r.Context(), verdict, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ResultsListResponse{Results: results})
}

func (s *apiServer) handleResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/results/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, "result not found")
		return
	}
	result, err := s.daemon.Store().GetBySubmissionID(r.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "result not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ResultResponse{Result: result})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	verdicts := make(map[string]int, len(status.Verdicts))
	for verdict, count := range status.Verdicts {
		verdicts[string(verdict)] = count
	}
	s.writeJSON(w, http.StatusOK, api.StatusResponse{
		Running:        status.Running,
		PID:            status.PID,
		DatabasePath:   status.DatabasePath,
		LockFilePath:   status.LockFilePath,
		Inflight:       status.Inflight,
		GatewayHealthy: status.GatewayHealthy,
		Verdicts:       verdicts,
	})
}

func isPersistence(err error) bool {
	var persistErr *orchestrator.PersistenceError
	return errors.As(err, &persistErr)
}

func isRuleEvaluation(err error) bool {
	var evalErr *rules.EvaluationError
	return errors.As(err, &evalErr)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(slog.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leapstack-labs/cptcheck/internal/engine"
	"github.com/leapstack-labs/cptcheck/internal/state"
	"github.com/leapstack-labs/cptcheck/pkg/core"
	"github.com/leapstack-labs/cptcheck/pkg/lint"
)

const defaultDocumentName = "request.xml"

// ValidateResponse is the body returned by POST /v1/validate.
type ValidateResponse struct {
	Path        string            `json:"path"`
	Hash        string            `json:"hash"`
	IsCPT       bool              `json:"is_cpt"`
	Passed      bool              `json:"passed"`
	Diagnostics []lint.Diagnostic `json:"diagnostics"`
	Messages    []string          `json:"messages"`
	RunID       string            `json:"run_id,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) metricsHandler() http.Handler {
	return promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Errorf("document exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Errorf("read body: %w", err))
		return
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("empty document"))
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = defaultDocumentName
	}

	record := s.record
	if v := r.URL.Query().Get("record"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid record flag %q", v))
			return
		}
		record = b
	}
	if record && s.store == nil {
		writeError(w, http.StatusConflict, errors.New("history is not enabled"))
		return
	}

	s.metrics.inFlight.Inc()
	defer s.metrics.inFlight.Dec()

	started := time.Now()
	result := s.engine.ValidateBytes(name, body)
	elapsed := time.Since(started)
	s.metrics.Observe(result, elapsed)

	if result.Err != nil {
		writeError(w, http.StatusUnprocessableEntity, result.Err)
		return
	}

	resp := ValidateResponse{
		Path:        result.Path,
		Hash:        result.Hash,
		IsCPT:       result.IsCPT,
		Passed:      result.Passed(),
		Diagnostics: result.Diagnostics,
		Messages:    result.Messages(),
	}

	if record {
		run, err := state.RecordResults(r.Context(), s.store, state.SourceServe, started, elapsed, []*engine.Result{result})
		if err != nil {
			s.logger.Error("failed to record validation", "path", name, "error", err)
		} else {
			resp.RunID = run.ID
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRules(w http.ResponseWriter, _ *http.Request) {
	rules := s.engine.Analyzer().Rules()
	infos := make([]core.RuleInfo, 0, len(rules))
	for _, rule := range rules {
		infos = append(infos, rule.Info())
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleRule(w http.ResponseWriter, r *http.Request) {
	id := strings.ToUpper(chi.URLParam(r, "id"))
	rule, ok := lint.GetByID(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown rule %q", id))
		return
	}
	writeJSON(w, http.StatusOK, rule.Info())
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, errors.New("history is not enabled"))
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, errors.New("history is not enabled"))
		return
	}

	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, state.ErrRunNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, state.ErrAmbiguousID):
		writeError(w, http.StatusConflict, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, run)
	}
}

// handleEvents streams re-validation events as server-sent events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.notifier == nil {
		writeError(w, http.StatusNotFound, errors.New("watch mode is not enabled"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.logger.Error("failed to encode event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: validation\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/domsync/internal/errors"
	"github.com/vango-dev/domsync/pkg/events"
	"github.com/vango-dev/domsync/pkg/patch"
	"github.com/vango-dev/domsync/pkg/snapshot"
)

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Get("/ws", s.HandleWebSocket)
	r.Post("/transactions", s.handleTransactions)
	r.Get("/snapshot", s.handleSnapshot)
	if s.config.Store != nil {
		r.Post("/snapshot", s.handleStoreSnapshot)
	}
	r.Post("/dispatch", s.handleDispatch)
	r.Post("/reset", s.handleReset)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Gatherer(), promhttp.HandlerOpts{}))
	}
	return r
}

// requestLogger logs each request at debug level once it completes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.LogAttrs(r.Context(), slog.LevelDebug, "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

type healthResponse struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
	Target  Status `json:"target"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st, err := s.runner.Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := healthResponse{Status: "ok", Clients: s.hub.Len(), Target: st}
	if st.Stale != "" {
		resp.Status = "stale"
	}
	writeJSON(w, http.StatusOK, resp)
}

type applyResponse struct {
	Applied int             `json:"applied"`
	Seq     uint64          `json:"seq,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// handleTransactions applies a JSON array or stream of transactions in
// order, stopping at the first failure.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := patch.DecodeTransactions(s.body(w, r))
	if err != nil {
		writeError(w, err)
		return
	}
	if len(txs) == 0 {
		writeError(w, errors.New("DS501"))
		return
	}

	var resp applyResponse
	for _, tx := range txs {
		seq, err := s.runner.Apply(r.Context(), tx)
		if seq > 0 {
			resp.Seq = seq
		}
		if err != nil {
			resp.Error = errorBody(err)
			writeJSON(w, statusFor(err), resp)
			return
		}
		resp.Applied++
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) render(ctx context.Context, minified bool) ([]byte, error) {
	var out []byte
	err := s.runner.Do(ctx, func(t *Target) error {
		var err error
		out, err = snapshot.Render(t.Doc, t.Doc.Root(), minified)
		return err
	})
	return out, err
}

// handleSnapshot returns the root's inner HTML. ?minify=true|false
// overrides the configured default.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	minified := s.config.Minify
	if q := r.URL.Query().Get("minify"); q != "" {
		v, err := strconv.ParseBool(q)
		if err != nil {
			http.Error(w, "invalid minify value", http.StatusBadRequest)
			return
		}
		minified = v
	}

	body, err := s.render(r.Context(), minified)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (s *Server) handleStoreSnapshot(w http.ResponseWriter, r *http.Request) {
	body, err := s.render(r.Context(), s.config.Minify)
	if err != nil {
		writeError(w, err)
		return
	}
	loc, err := s.config.Store.Put(r.Context(), snapshot.Name(time.Now()), body)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("snapshot stored", "location", loc, "bytes", len(body))
	writeJSON(w, http.StatusCreated, map[string]string{"location": loc})
}

type dispatchRequest struct {
	ID     string         `json:"id"`
	Event  string         `json:"event"`
	Fields map[string]any `json:"fields"`
}

// handleDispatch fires a native event at the node registered for an id, as
// if the user had interacted with it.
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if err := json.NewDecoder(s.body(w, r)).Decode(&req); err != nil {
		writeError(w, errors.New("DS301").WithDetail("invalid dispatch request").Wrap(err))
		return
	}
	if req.ID == "" || req.Event == "" {
		writeError(w, errors.New("DS301").WithDetail("dispatch needs an id and an event"))
		return
	}

	var delivered bool
	err := s.runner.Do(r.Context(), func(t *Target) error {
		node, ok := t.Patcher.NodeFor(req.ID)
		if !ok {
			return errors.New("DS101").WithID(req.ID)
		}
		delivered = t.Doc.Dispatch(node, events.NormalizeName(req.Event), req.Fields)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"delivered": delivered})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.runner.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) body(w http.ResponseWriter, r *http.Request) io.Reader {
	if s.config.MaxMessageBytes > 0 {
		return http.MaxBytesReader(w, r.Body, s.config.MaxMessageBytes)
	}
	return r.Body
}

// statusFor maps an error to an HTTP status.
func statusFor(err error) int {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	var e *errors.Error
	if !stderrors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch {
	case e.Code == "DS106":
		return http.StatusConflict
	case e.Code == "DS101" && e.Patch == "":
		return http.StatusNotFound
	case e.Code == "DS502":
		return http.StatusBadGateway
	}
	switch e.Category {
	case errors.CategoryProtocol, errors.CategoryCLI:
		return http.StatusBadRequest
	case errors.CategoryContract, errors.CategoryNative:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) json.RawMessage {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return json.RawMessage(e.FormatJSON())
	}
	b, _ := json.Marshal(map[string]string{"message": err.Error()})
	return b
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]json.RawMessage{"error": errorBody(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

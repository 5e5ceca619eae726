// Package httpapi exposes the facility service over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/provenance-io/warehouse-facility/internal/core"
	"github.com/provenance-io/warehouse-facility/internal/platform/logging"
	"github.com/provenance-io/warehouse-facility/pkg/domain"
)

// Facility is the service surface the API drives. core.Service satisfies it.
type Facility interface {
	Instantiate(ctx context.Context, sender string, msg domain.InstantiateMsg) (domain.Response, error)
	Execute(ctx context.Context, info domain.MessageInfo, msg domain.ExecuteMsg) (domain.Response, error)
	Migrate(ctx context.Context) (domain.Response, error)

	GetContractInfo(ctx context.Context) (domain.ContractInfo, error)
	GetFacility(ctx context.Context) (domain.Facility, error)
	GetPledge(ctx context.Context, id string) (domain.Pledge, error)
	ListPledges(ctx context.Context, opts domain.ListOptions) ([]domain.Pledge, error)
	ListPledgeIDs(ctx context.Context, opts domain.ListOptions) ([]string, error)
	GetPaydown(ctx context.Context, id string) (domain.Paydown, error)
	ListPaydowns(ctx context.Context, opts domain.ListOptions) ([]domain.Paydown, error)
	ListPaydownIDs(ctx context.Context, opts domain.ListOptions) ([]string, error)
	GetAsset(ctx context.Context, id string) (domain.Asset, error)
	ListAssets(ctx context.Context, opts domain.ListOptions) ([]domain.Asset, error)
	ListAssetIDs(ctx context.Context, opts domain.ListOptions) ([]string, error)
}

var _ Facility = (*core.Service)(nil)

// Server holds the HTTP handlers.
type Server struct {
	svc     Facility
	logger  *logging.Logger
	metrics http.Handler
}

// Option customises a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler replaces the default Prometheus handler served at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		if h != nil {
			s.metrics = h
		}
	}
}

// New constructs a Server over svc.
func New(svc Facility, opts ...Option) *Server {
	s := &Server{svc: svc, metrics: promhttp.Handler()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(withRequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "ROUTE_NOT_FOUND", "no route for "+r.URL.Path, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method+" not allowed on "+r.URL.Path, nil)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	r.Handle("/metrics", s.metrics)

	r.Route("/v1", func(api chi.Router) {
		api.Post("/instantiate", s.instantiate)
		api.Post("/execute", s.execute)
		api.Post("/migrate", s.migrate)

		api.Get("/contract", s.contract)
		api.Get("/facility", s.facility)

		api.Get("/pledges", s.listPledges)
		api.Get("/pledges/{id}", s.getPledge)
		api.Get("/paydowns", s.listPaydowns)
		api.Get("/paydowns/{id}", s.getPaydown)
		api.Get("/assets", s.listAssets)
		api.Get("/assets/{id}", s.getAsset)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.logger == nil {
			next.ServeHTTP(w, r)
			return
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.WithContext(r.Context()).Debug("http request",
			"request_id", RequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(started).String(),
		)
	})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		if s.logger != nil {
			s.logger.WithContext(r.Context()).Error("request failed", "request_id", RequestID(r.Context()), "error", err.Error())
		}
		message = "internal error"
	}
	writeError(w, r, status, domain.ErrorCode(err), message, errorDetails(err))
}

func (s *Server) ok(w http.ResponseWriter, r *http.Request, key string, v any) {
	writeJSON(w, http.StatusOK, map[string]any{"request_id": RequestID(r.Context()), key: v})
}

type instantiateRequest struct {
	Sender string                `json:"sender"`
	Msg    domain.InstantiateMsg `json:"msg"`
}

type executeRequest struct {
	Sender string          `json:"sender"`
	Funds  []domain.Coin   `json:"funds,omitempty"`
	Msg    json.RawMessage `json:"msg"`
}

func (s *Server) instantiate(w http.ResponseWriter, r *http.Request) {
	var req instantiateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
		return
	}
	resp, err := s.svc.Instantiate(r.Context(), req.Sender, req.Msg)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, r, "response", resp)
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
		return
	}
	msg, err := domain.DecodeExecuteMsg(req.Msg)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp, err := s.svc.Execute(r.Context(), domain.MessageInfo{Sender: req.Sender, Funds: req.Funds}, msg)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, r, "response", resp)
}

type migrateRequest struct {
	Sender string `json:"sender"`
}

// migrate is restricted to the contract admin recorded at instantiation.
func (s *Server) migrate(w http.ResponseWriter, r *http.Request) {
	var req migrateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
		return
	}
	info, err := s.svc.GetContractInfo(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Sender == "" || req.Sender != info.Admin {
		s.fail(w, r, domain.ErrUnauthorized)
		return
	}
	resp, err := s.svc.Migrate(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, r, "response", resp)
}

func (s *Server) contract(w http.ResponseWriter, r *http.Request) {
	info, err := s.svc.GetContractInfo(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, r, "contract", info)
}

func (s *Server) facility(w http.ResponseWriter, r *http.Request) {
	f, err := s.svc.GetFacility(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, r, "facility", f)
}

func (s *Server) getPledge(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.GetPledge(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, r, "pledge", p)
}

func (s *Server) getPaydown(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.GetPaydown(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, r, "paydown", p)
}

func (s *Server) getAsset(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.GetAsset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, r, "asset", a)
}

func (s *Server) listPledges(w http.ResponseWriter, r *http.Request) {
	list[domain.Pledge](s, w, r, "pledges", s.svc.ListPledges, s.svc.ListPledgeIDs)
}

func (s *Server) listPaydowns(w http.ResponseWriter, r *http.Request) {
	list[domain.Paydown](s, w, r, "paydowns", s.svc.ListPaydowns, s.svc.ListPaydownIDs)
}

func (s *Server) listAssets(w http.ResponseWriter, r *http.Request) {
	list[domain.Asset](s, w, r, "assets", s.svc.ListAssets, s.svc.ListAssetIDs)
}

type (
	lister[T any] func(context.Context, domain.ListOptions) ([]T, error)
	idLister      func(context.Context, domain.ListOptions) ([]string, error)
)

func list[T any](s *Server, w http.ResponseWriter, r *http.Request, key string, full lister[T], ids idLister) {
	opts, idsOnly, err := parseListQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if idsOnly {
		out, err := ids(r.Context(), opts)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.ok(w, r, "ids", nonNil(out))
		return
	}
	out, err := full(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, r, key, nonNil(out))
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

// parseListQuery reads status, assets, start, end, start_exclusive,
// end_exclusive and ids_only. assets may repeat or be comma separated.
func parseListQuery(r *http.Request) (domain.ListOptions, bool, error) {
	q := r.URL.Query()
	opts := domain.ListOptions{Status: q.Get("status")}
	for _, v := range q["assets"] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				opts.Assets = append(opts.Assets, id)
			}
		}
	}
	var bad []string
	flag := func(name string) bool {
		raw := q.Get(name)
		if raw == "" {
			return false
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			bad = append(bad, name)
		}
		return v
	}
	startExclusive := flag("start_exclusive")
	endExclusive := flag("end_exclusive")
	idsOnly := flag("ids_only")
	if len(bad) > 0 {
		return domain.ListOptions{}, false, domain.InvalidFieldsError{Fields: bad}
	}
	if start := q.Get("start"); start != "" {
		opts.Start = &domain.Bound{Key: start, Exclusive: startExclusive}
	}
	if end := q.Get("end"); end != "" {
		opts.End = &domain.Bound{Key: end, Exclusive: endExclusive}
	}
	return opts, idsOnly, nil
}

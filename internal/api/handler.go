package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/punchamoorthee/hederaops/internal/auth"
	"github.com/punchamoorthee/hederaops/internal/domain"
	"github.com/punchamoorthee/hederaops/internal/models"
	"github.com/punchamoorthee/hederaops/internal/service"
	"github.com/punchamoorthee/hederaops/internal/status"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hederaops_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hederaops_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "endpoint"})
)

type Handler struct {
	accounts *service.AccountService
	orch     *service.Orchestrator
	status   *status.Cache
	log      *zap.Logger
}

func NewHandler(accounts *service.AccountService, orch *service.Orchestrator, cache *status.Cache, log *zap.Logger) *Handler {
	return &Handler{accounts: accounts, orch: orch, status: cache, log: log.Named("api")}
}

// sessionTTL bounds tokens issued by POST /api/v1/sessions. They carry no
// roles; admin tokens are issued out of band.
const sessionTTL = time.Hour

// NewRouter mounts the API. Everything under /api/v1 except account
// registration and sign-in requires a bearer token.
func NewRouter(h *Handler, verifier *auth.Verifier, limiter *RateLimiter) *mux.Router {
	r := mux.NewRouter()
	r.Use(instrument)

	r.HandleFunc("/health", h.HealthCheckHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	public := r.PathPrefix("/api/v1").Subrouter()
	public.Use(limiter.Handler)
	public.HandleFunc("/accounts", h.CreateAccountHandler).Methods(http.MethodPost)
	public.HandleFunc("/sessions", h.CreateSessionHandler(verifier, sessionTTL)).Methods(http.MethodPost)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(Authenticate(verifier, h.log), limiter.Handler)

	api.HandleFunc("/status", h.GetStatusHandler).Methods(http.MethodGet)
	api.HandleFunc("/status/live", h.GetLiveStatusHandler).Methods(http.MethodGet)
	api.HandleFunc("/status/refresh", h.RefreshStatusHandler).Methods(http.MethodPost)

	api.HandleFunc("/accounts", h.ListAccountsHandler).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}", h.GetAccountHandler).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}/profile", h.GetProfileHandler).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}/balance", h.GetBalanceHandler).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}/balances", h.GetBalancesHandler).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}/transactions", h.ListTransactionsHandler).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}/activity", h.ListActivityHandler).Methods(http.MethodGet)

	api.HandleFunc("/hbar/transfers", h.CreateHbarTransferHandler).Methods(http.MethodPost)

	api.HandleFunc("/tokens", h.CreateTokenHandler).Methods(http.MethodPost)
	api.HandleFunc("/tokens/associate", h.AssociateTokenHandler).Methods(http.MethodPost)
	api.HandleFunc("/tokens/transfers", h.CreateTokenTransferHandler).Methods(http.MethodPost)
	api.HandleFunc("/tokens/{id}/burn", h.BurnTokenHandler).Methods(http.MethodPost)

	api.HandleFunc("/topics", h.CreateTopicHandler).Methods(http.MethodPost)
	api.HandleFunc("/topics/{id}/messages", h.SendMessageHandler).Methods(http.MethodPost)

	api.HandleFunc("/files", h.CreateFileHandler).Methods(http.MethodPost)

	return r
}

// statusRecorder captures the response code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

// endpoint returns the route template so metric labels stay bounded.
func endpoint(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		ep := endpoint(r)
		httpRequestDuration.WithLabelValues(r.Method, ep).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, ep, strconv.Itoa(rec.code)).Inc()
	})
}

// statusFor maps the error taxonomy onto HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRemoteRejection):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrTransientRemote):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError hides internal details behind a 500.
func (h *Handler) respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("endpoint", endpoint(r)), zap.Error(err))
		if errors.Is(err, domain.ErrLocalPersistence) {
			respondWithError(w, code, err.Error())
			return
		}
		respondWithError(w, code, "Internal Server Error")
		return
	}
	respondWithError(w, code, err.Error())
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", domain.ErrValidation, err)
	}
	return nil
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, models.ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// Package gateway exposes the vault ledger and session registry over HTTP.
// It plays the wallet-layer role: an automated agent's reallocation request
// is validated against the session registry here, and only then forwarded
// into the ledger under the owner's authority. The ledger itself never calls
// the registry.
package gateway

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"yieldvault/crypto"
	"yieldvault/native/session"
	"yieldvault/native/vault"
	"yieldvault/observability/metrics"
)

// Server wires the HTTP surface to the vault engine and session registry.
type Server struct {
	engine   *vault.Engine
	registry *session.Registry
	owner    crypto.Address
	target   crypto.Address
	logger   *slog.Logger
	metrics  *metrics.VaultMetrics
}

// Config captures the collaborators the server needs.
type Config struct {
	Engine   *vault.Engine
	Registry *session.Registry
	// Owner is forwarded as the caller for requests that clear the session
	// registry; the grant's target must equal Target.
	Owner  crypto.Address
	Target crypto.Address
	Logger *slog.Logger
}

// New constructs the gateway server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:   cfg.Engine,
		registry: cfg.Registry,
		owner:    cfg.Owner,
		target:   cfg.Target,
		logger:   logger,
		metrics:  metrics.Vault(),
	}
}

// Handler assembles the chi router with middleware and routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/vault", func(vr chi.Router) {
		vr.Get("/", s.handleVaultStatus)
		vr.Get("/apy", s.handleCurrentAPY)
		vr.Get("/apy/{sourceID}", s.handleProtocolAPY)
		vr.Get("/yield/{address}", s.handleYieldEarned)
		vr.Get("/position/{address}", s.handlePosition)
		vr.Post("/deposit", s.handleDeposit)
		vr.Post("/withdraw", s.handleWithdraw)
		vr.Post("/reallocate", s.handleReallocate)
	})
	r.Route("/v1/session", func(sr chi.Router) {
		sr.Post("/grants", s.handleGrant)
		sr.Get("/grants/{keyID}", s.handleGetGrant)
		sr.Delete("/grants/{keyID}", s.handleRevoke)
	})
	return r
}

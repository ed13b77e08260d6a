package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/openfit/healthsync/internal/auth/service"
	"github.com/openfit/healthsync/internal/auth/store"
	"github.com/openfit/healthsync/internal/auth/ticket"
	"github.com/openfit/healthsync/pkg/httpx"
	"github.com/openfit/healthsync/pkg/jwtx"
	"github.com/openfit/healthsync/pkg/slogx"
)

const refreshPath = "/v1/auth/refresh"

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	baseURL      string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store   store.Store
	tickets ticket.Store

	LoginService         *service.LoginService
	SessionService       *service.SessionService
	PairingService       *service.PairingService
	ProviderTokenService *service.ProviderTokenService
	IntegrationService   *service.IntegrationService
	DirectoryService     *service.DirectoryService
}

func NewRouter(
	verifier jwtx.Verifier,
	baseURL, buildVersion string,
	st store.Store,
	tickets ticket.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		baseURL:      baseURL,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		tickets:      tickets,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerQR()
	r.registerIntegrations()
	r.registerInternal()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	loginHandler := &LoginHandler{LoginService: r.LoginService}

	// Login endpoints are unauthenticated and the obvious brute-force
	// target, so they take the strict profile.
	r.Mux.Handle("POST /v1/auth/google",
		httpx.Chain(http.HandlerFunc(loginHandler.HandleAssertion),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/google/code",
		httpx.Chain(http.HandlerFunc(loginHandler.HandleCode),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	refreshHandler := &RefreshHandler{Sessions: r.SessionService}
	r.Mux.Handle("POST "+refreshPath,
		httpx.Chain(refreshHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	meHandler := &MeHandler{Directory: r.DirectoryService}
	r.Mux.Handle("GET /v1/auth/me",
		httpx.Chain(meHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitBySubject(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerQR() {
	h := &QRHandler{
		Pairing:     r.PairingService,
		BaseURL:     r.baseURL,
		RefreshPath: refreshPath,
	}

	r.Mux.Handle("GET /v1/qr/pairing-code",
		httpx.Chain(http.HandlerFunc(h.HandleIssue),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitBySubject(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/qr/image",
		httpx.Chain(http.HandlerFunc(h.HandleImage),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitBySubject(httpx.ModerateLimit),
		),
	)

	// The claim endpoint is hit by a device that has no session yet, so it
	// can only be limited by IP. Strict: a pairing code is a credential.
	r.Mux.Handle("GET /v1/qr/claim",
		httpx.Chain(http.HandlerFunc(h.HandleClaim),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerIntegrations() {
	h := &IntegrationsHandler{
		Directory:    r.DirectoryService,
		Integrations: r.IntegrationService,
	}

	r.Mux.Handle("GET /v1/integrations",
		httpx.Chain(h,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitBySubject(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerInternal() {
	h := &InternalHandler{
		Directory:      r.DirectoryService,
		ProviderTokens: r.ProviderTokenService,
		Sessions:       r.SessionService,
		BaseURL:        r.baseURL,
	}

	// No authentication here: these routes must only be reachable from the
	// trusted network segment. Lenient limits keep a runaway caller from
	// hammering the provider refresh path.
	r.Mux.Handle("GET /v1/internal/users",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /v1/internal/users/provider-token",
		httpx.Chain(http.HandlerFunc(h.HandleProviderToken),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /v1/internal/users/session-token",
		httpx.Chain(http.HandlerFunc(h.HandleSessionToken),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.tickets),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

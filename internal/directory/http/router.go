package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/backdeskhq/backdesk/internal/directory/action"
	"github.com/backdeskhq/backdesk/internal/directory/domain"
	"github.com/backdeskhq/backdesk/internal/directory/service"
	"github.com/backdeskhq/backdesk/internal/directory/store"
	"github.com/backdeskhq/backdesk/pkg/httpx"
	"github.com/backdeskhq/backdesk/pkg/sessionx"
	"github.com/backdeskhq/backdesk/pkg/slogx"

	_ "github.com/backdeskhq/backdesk/api/directory" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	sessions     *sessionx.Manager
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	Dispatcher     *action.Dispatcher
	AccountService *service.AccountService
}

func NewRouter(
	sessions *sessionx.Manager,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		sessions:     sessions,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuthActions()
	r.registerProfileActions()
	r.registerAdminActions()
	r.registerDirectory()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Backdesk Directory Service API
//	@version		0.1.0
//	@description	Form action pipeline for the Backdesk auth + admin user directory.
//	@description
//	@description				Mutations are form submissions: fields go up URL-encoded and an ActionResult
//	@description				comes back carrying field errors, a business warning, or a success message key.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	SessionAuth
//	@in							header
//	@name						Cookie
//	@description				Session cookie issued by sign-in. API callers may instead send "Authorization: Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuthActions() {
	createAdmin := &CreateAdminHandler{Dispatcher: r.Dispatcher, Sessions: r.sessions}
	signIn := &SignInHandler{Dispatcher: r.Dispatcher, Sessions: r.sessions}
	signOut := &SignOutHandler{Sessions: r.sessions}
	forgot := &ForgotPasswordHandler{Dispatcher: r.Dispatcher}
	reset := &ResetPasswordHandler{Dispatcher: r.Dispatcher}
	verify := &VerifyEmailHandler{Dispatcher: r.Dispatcher}

	// Public credential endpoints - strict rate limits (brute force prevention)
	r.Mux.Handle("POST /v1/actions/create-admin",
		httpx.Chain(createAdmin,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Sign-in limited by IP + email so one address can't lock out a subnet
	r.Mux.Handle("POST /v1/actions/sign-in",
		httpx.Chain(signIn,
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "email"),
		),
	)

	r.Mux.Handle("POST /v1/actions/sign-out",
		httpx.Chain(signOut,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("POST /v1/actions/forgot-password",
		httpx.Chain(forgot,
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "email"),
		),
	)

	r.Mux.Handle("POST /v1/actions/reset-password",
		httpx.Chain(reset,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/actions/verify-email",
		httpx.Chain(verify,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerProfileActions() {
	updateProfile := &UpdateProfileHandler{Dispatcher: r.Dispatcher}
	updatePassword := &UpdatePasswordHandler{Dispatcher: r.Dispatcher}
	deleteSelf := &DeleteSelfHandler{Dispatcher: r.Dispatcher, Sessions: r.sessions}

	r.Mux.Handle("POST /v1/actions/update-profile",
		httpx.Chain(updateProfile,
			httpx.AuthnMiddleware(r.sessions),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		),
	)

	// Password change re-verifies the current password, so limit harder
	r.Mux.Handle("POST /v1/actions/update-password",
		httpx.Chain(updatePassword,
			httpx.AuthnMiddleware(r.sessions),
			httpx.RateLimitByAccount(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/actions/delete-self",
		httpx.Chain(deleteSelf,
			httpx.AuthnMiddleware(r.sessions),
			httpx.RateLimitByAccount(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerAdminActions() {
	saveAccount := &SaveAccountHandler{Dispatcher: r.Dispatcher}
	deleteUser := &DeleteUserHandler{Dispatcher: r.Dispatcher}

	securedSave := httpx.Chain(saveAccount,
		httpx.AuthnMiddleware(r.sessions),
		httpx.RequireRole(string(domain.RoleAdmin)),
		httpx.RateLimitByAccount(httpx.ModerateLimit),
	)

	securedDelete := httpx.Chain(deleteUser,
		httpx.AuthnMiddleware(r.sessions),
		httpx.RequireRole(string(domain.RoleAdmin)),
		httpx.RateLimitByAccount(httpx.ModerateLimit),
	)

	r.Mux.Handle("POST /v1/actions/save-account", securedSave)
	r.Mux.Handle("POST /v1/actions/delete-user", securedDelete)
}

func (r *Router) registerDirectory() {
	h := &AccountsHandler{AccountService: r.AccountService}

	securedList := httpx.Chain(http.HandlerFunc(h.HandleList),
		httpx.AuthnMiddleware(r.sessions),
		httpx.RequireRole(string(domain.RoleAdmin)),
		httpx.RateLimitByAccount(httpx.LenientLimit),
	)

	securedGet := httpx.Chain(http.HandlerFunc(h.HandleGet),
		httpx.AuthnMiddleware(r.sessions),
		httpx.RequireRole(string(domain.RoleAdmin)),
		httpx.RateLimitByAccount(httpx.LenientLimit),
	)

	r.Mux.Handle("GET /v1/accounts", securedList)
	r.Mux.Handle("GET /v1/accounts/{id}", securedGet)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

// callerIdentity resolves the authenticated caller from the request
// context populated by the authn middleware.
func callerIdentity(req *http.Request) action.Identity {
	role, _ := domain.ParseRole(httpx.RoleFromContext(req.Context()))
	return action.Identity{
		AccountID: httpx.AccountIDFromContext(req.Context()),
		Role:      role,
	}
}

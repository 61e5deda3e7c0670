package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/Togather-Foundation/voluntier/internal/api/handlers"
	"github.com/Togather-Foundation/voluntier/internal/api/middleware"
	"github.com/Togather-Foundation/voluntier/internal/api/problem"
	"github.com/Togather-Foundation/voluntier/internal/auth"
	"github.com/Togather-Foundation/voluntier/internal/config"
	"github.com/Togather-Foundation/voluntier/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Config       config.Config
	Logger       zerolog.Logger
	Store        handlers.Store
	Tokens       *auth.JWTManager
	Users        handlers.UserService
	Events       handlers.EventService
	Applications handlers.ApplicationService

	Version   string
	GitCommit string
	BuildDate string
}

// Router is the assembled HTTP handler. Close releases the rate limiter's
// background cleanup.
type Router struct {
	http.Handler
	limiter *middleware.RateLimiter
}

func (r *Router) Close() {
	r.limiter.Stop()
}

func NewRouter(d Deps) *Router {
	env := d.Config.Environment
	limiter := middleware.NewRateLimiter(d.Config.RateLimit, env)

	authHandler := handlers.NewAuthHandler(d.Users, env)
	eventsHandler := handlers.NewEventsHandler(d.Events, env)
	applicationsHandler := handlers.NewApplicationsHandler(d.Applications, env)
	health := handlers.NewHealthChecker(d.Store, d.Version, d.GitCommit)

	authenticate := middleware.Authenticate(d.Tokens, env)
	requireAdmin := middleware.RequireAdmin(env)

	// limited wraps h with its rate limit tier; the tier has to be in the
	// context before the limiter runs.
	limited := func(tier middleware.RateLimitTier, h http.Handler) http.Handler {
		return middleware.WithRateLimitTierHandler(tier)(limiter.Middleware(h))
	}
	public := func(h http.HandlerFunc) http.Handler {
		return limited(middleware.TierPublic, h)
	}
	user := func(h http.HandlerFunc) http.Handler {
		return limited(middleware.TierPublic, authenticate(h))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return limited(middleware.TierAdmin, authenticate(requireAdmin(h)))
	}
	login := func(h http.HandlerFunc) http.Handler {
		return limited(middleware.TierLogin, h)
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", handlers.Healthz())
	mux.Handle("/readyz", health.Readyz())
	mux.Handle("/version", VersionHandler(d.Version, d.GitCommit, d.BuildDate))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.Handle("/api/register", methodMux(env, map[string]http.Handler{
		http.MethodPost: login(authHandler.Register),
	}))
	mux.Handle("/api/login", methodMux(env, map[string]http.Handler{
		http.MethodPost: login(authHandler.Login),
	}))

	mux.Handle("/api/events", methodMux(env, map[string]http.Handler{
		http.MethodGet:  public(eventsHandler.List),
		http.MethodPost: admin(eventsHandler.Create),
	}))
	mux.Handle("/api/events/{id}", methodMux(env, map[string]http.Handler{
		http.MethodGet:    public(eventsHandler.Get),
		http.MethodDelete: admin(eventsHandler.Delete),
	}))

	mux.Handle("/api/applications", methodMux(env, map[string]http.Handler{
		http.MethodGet:  admin(applicationsHandler.ListAll),
		http.MethodPost: user(applicationsHandler.Apply),
	}))
	mux.Handle("/api/applications/my", methodMux(env, map[string]http.Handler{
		http.MethodGet: user(applicationsHandler.ListMine),
	}))
	mux.Handle("/api/applications/{id}", methodMux(env, map[string]http.Handler{
		http.MethodPut: admin(applicationsHandler.SetStatus),
	}))

	mux.Handle("/api/", notFound(env))
	if dir := d.Config.Server.StaticDir; dir != "" {
		mux.Handle("/", handlers.Static(dir))
	} else {
		mux.Handle("/", notFound(env))
	}

	var h http.Handler = mux
	h = middleware.RequestSize(middleware.DefaultMaxBodySize)(h)
	h = middleware.CORS(d.Config.CORS, d.Logger)(h)
	h = middleware.SecurityHeaders(env == config.EnvProduction)(h)
	h = metrics.HTTPMiddleware(h)
	h = middleware.RequestLogging(d.Logger)(h)
	h = middleware.Tracing(h)
	h = middleware.CorrelationID(d.Logger)(h)

	return &Router{Handler: h, limiter: limiter}
}

func notFound(env string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", nil, env,
			problem.WithDetail("no route for "+r.URL.Path))
	})
}

func methodMux(env string, handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		allow := allowedMethods(handlers)
		w.Header().Set("Allow", allow)
		problem.Write(w, r, http.StatusMethodNotAllowed, problem.TypeMethodNotAllowed, "Method not allowed", nil, env,
			problem.WithDetail(r.Method+" is not supported; allowed: "+allow))
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}

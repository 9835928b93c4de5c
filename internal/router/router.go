package router

import (
	"net/http"

	"storefront-admin/internal/flash"
	"storefront-admin/internal/handlers"
	"storefront-admin/internal/middleware"
	"storefront-admin/internal/services"
	"storefront-admin/internal/session"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Dependencies are the collaborators the HTTP surface is built from.
type Dependencies struct {
	Auth     *services.AuthService
	Sessions *session.Manager
	Login    *services.LoginService
	Products *services.ProductService
	Orders   *services.OrderService
	View     *handlers.Renderer
	Flash    *flash.Codec
	Gatherer prometheus.Gatherer

	CookieSecure   bool
	MetricsToken   string
	RateLimit      rate.Limit
	RateBurst      int
	AllowedOrigins []string
}

func SetupRouter(deps Dependencies, logger zerolog.Logger) *mux.Router {
	authHandler := handlers.NewAuthHandler(deps.Login, deps.View, deps.Flash, logger)
	productHandler := handlers.NewProductHandler(deps.Products, deps.View, deps.Flash, logger)
	orderHandler := handlers.NewOrderHandler(deps.Orders, deps.View, deps.Flash, logger)
	deps.Sessions.OnLogout(productHandler.DropDraft)

	r := mux.NewRouter()
	r.Use(middleware.ErrorHandling(logger))
	r.Use(middleware.RequestLogging(logger))

	r.Handle("/metrics", middleware.RequireBearer(deps.MetricsToken)(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		handlers.Health(w, deps.Sessions)
	}).Methods("GET")

	// Everything below runs with the browser's session resolved.
	app := r.NewRoute().Subrouter()
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.BrowserSession(deps.Auth, deps.Sessions, deps.CookieSecure, logger))

	loginLimiter := middleware.NewRateLimiter(deps.RateLimit, deps.RateBurst)

	app.HandleFunc("/login", authHandler.LoginPage).Methods("GET")
	app.Handle("/login", loginLimiter.Middleware()(http.HandlerFunc(authHandler.Login))).Methods("POST")
	app.HandleFunc("/logout", authHandler.Logout).Methods("POST")

	api := app.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.CORS(deps.AllowedOrigins))
	api.HandleFunc("/session", authHandler.Session).Methods("GET", "OPTIONS")

	pages := app.NewRoute().Subrouter()
	pages.Use(middleware.RequireAuthenticated())
	pages.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/add", http.StatusSeeOther)
	}).Methods("GET")
	pages.HandleFunc("/add", productHandler.AddPage).Methods("GET")
	pages.HandleFunc("/add", productHandler.Add).Methods("POST")
	pages.HandleFunc("/list", productHandler.List).Methods("GET")
	pages.HandleFunc("/list/{id}/remove", productHandler.Remove).Methods("POST")
	pages.HandleFunc("/orders", orderHandler.List).Methods("GET")
	pages.HandleFunc("/orders/{id}/status", orderHandler.UpdateStatus).Methods("POST")

	return r
}

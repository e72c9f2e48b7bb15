package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// RouterConfig wires handlers and access control into the router.
type RouterConfig struct {
	Auth       *AuthHandler
	Rooms      *RoomHandler
	Bookings   *BookingHandler
	Admin      *AdminHandler
	Identities IdentityResolver
	Admins     AdminAuthorizer
	Logger     *slog.Logger
	// Middleware runs outermost, in order, before authentication.
	Middleware []func(http.Handler) http.Handler
}

// NewRouter builds the HTTP API.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	responder := newResponder(logger)

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		responder.writeJSON(req.Context(), w, http.StatusNotFound, errorResponse{Message: localizedStatusMessage(http.StatusNotFound)})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		responder.writeJSON(req.Context(), w, http.StatusMethodNotAllowed, errorResponse{Message: http.StatusText(http.StatusMethodNotAllowed)})
	})

	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mux.MiddlewareFunc(mw))
		}
	}
	r.Use(mux.MiddlewareFunc(Authenticate(cfg.Identities, logger)))

	signedIn := RequireIdentity(logger)

	if cfg.Auth != nil {
		r.HandleFunc("/auth/signup", cfg.Auth.SignUp).Methods(http.MethodPost)
		r.HandleFunc("/auth/signin", cfg.Auth.SignIn).Methods(http.MethodPost)
		r.HandleFunc("/auth/signout", cfg.Auth.SignOut).Methods(http.MethodPost)
		r.HandleFunc("/auth/admin-signup", cfg.Auth.AdminSignUp).Methods(http.MethodPost)
	}

	if cfg.Rooms != nil {
		r.HandleFunc("/rooms", cfg.Rooms.List).Methods(http.MethodGet)
		r.HandleFunc("/rooms/{id}/bookings", cfg.Rooms.Bookings).Methods(http.MethodGet)
		r.HandleFunc("/availability", cfg.Rooms.Availability).Methods(http.MethodGet)
		r.HandleFunc("/slots", cfg.Rooms.Slots).Methods(http.MethodGet)
	}

	if cfg.Bookings != nil {
		r.HandleFunc("/bookings", cfg.Bookings.Create).Methods(http.MethodPost)
		r.Handle("/bookings/mine", signedIn(http.HandlerFunc(cfg.Bookings.Mine))).Methods(http.MethodGet)
		r.Handle("/bookings/{id}", signedIn(http.HandlerFunc(cfg.Bookings.Cancel))).Methods(http.MethodDelete)
	}

	if cfg.Admin != nil {
		admin := r.PathPrefix("/admin").Subrouter()
		admin.Use(mux.MiddlewareFunc(signedIn), mux.MiddlewareFunc(RequireAdmin(cfg.Admins, logger)))
		admin.HandleFunc("/bookings", cfg.Admin.List).Methods(http.MethodGet)
		admin.HandleFunc("/bookings/export", cfg.Admin.Export).Methods(http.MethodGet)
		admin.HandleFunc("/bookings/{id}/status", cfg.Admin.SetStatus).Methods(http.MethodPut)
		admin.HandleFunc("/bookings/{id}", cfg.Admin.Delete).Methods(http.MethodDelete)
	}

	return r
}

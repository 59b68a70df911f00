package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"taskhub/internal/handlers"
	"taskhub/internal/handlers/auth"
	"taskhub/internal/handlers/task"
	"taskhub/internal/handlers/user"
	"taskhub/internal/middleware"
	"taskhub/internal/policy"
	"taskhub/internal/services"
	"taskhub/internal/ws"
)

type Server struct {
	Addr           string
	DB             *sql.DB
	Accounts       *services.AccountService
	Tasks          *services.TaskService
	Hub            *ws.Hub
	Log            *logrus.Logger
	AllowedOrigins []string
}

func HandlerFunc(h http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r)
	}
}

// Routes builds the HTTP handler of the API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	// middlewares
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Tracing)
	r.Use(middleware.Logger(s.Log))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintln(w, "Welcome to taskhub API! Server is running....")
	})
	r.Get("/health", HandlerFunc(&handlers.HealthHandler{DB: s.DB}))

	authJWT := middleware.AuthJWT(s.Accounts, s.Log)
	require := func(a policy.Action) func(http.Handler) http.Handler {
		return middleware.Require(a, s.Log)
	}

	r.Route("/users", func(r chi.Router) {
		// public
		r.Post("/", HandlerFunc(&auth.SignupHandler{Accounts: s.Accounts, Log: s.Log}))
		r.Post("/login", HandlerFunc(&auth.LoginHandler{Accounts: s.Accounts, Log: s.Log}))
		r.Post("/token/refresh", HandlerFunc(&auth.RefreshHandler{Accounts: s.Accounts, Log: s.Log}))
		r.Post("/reset_password", HandlerFunc(&auth.ResetPasswordHandler{Accounts: s.Accounts, Log: s.Log}))
		r.Post("/check_token", HandlerFunc(&auth.CheckTokenHandler{Accounts: s.Accounts, Log: s.Log}))
		r.Post("/set_new_password", HandlerFunc(&auth.SetNewPasswordHandler{Accounts: s.Accounts, Log: s.Log}))
		r.Get("/validate_mail", HandlerFunc(&auth.ValidateMailHandler{Accounts: s.Accounts, Log: s.Log}))

		// self service
		r.Group(func(r chi.Router) {
			r.Use(authJWT)
			r.With(require(policy.Me)).Get("/me", HandlerFunc(&user.MeHandler{Log: s.Log}))
			r.With(require(policy.UpdateMe)).Put("/update-me", HandlerFunc(&user.UpdateMeHandler{Accounts: s.Accounts, Log: s.Log}))
			r.With(require(policy.ChangePassword)).Post("/change-password", HandlerFunc(&user.ChangePasswordHandler{Accounts: s.Accounts, Log: s.Log}))
			r.With(require(policy.ChangeEmail)).Post("/change-email", HandlerFunc(&user.ChangeEmailHandler{Accounts: s.Accounts, Log: s.Log}))
		})

		// administration
		r.Group(func(r chi.Router) {
			r.Use(authJWT)
			r.With(require(policy.ListUsers)).Get("/", HandlerFunc(&user.ListHandler{Accounts: s.Accounts, Log: s.Log}))
			r.With(require(policy.RetrieveUser)).Get("/{id}", HandlerFunc(&user.RetrieveHandler{Accounts: s.Accounts, Log: s.Log}))
			r.With(require(policy.UpdateUser)).Put("/{id}", HandlerFunc(&user.UpdateHandler{Accounts: s.Accounts, Log: s.Log}))
			r.With(require(policy.PartialUpdate)).Patch("/{id}", HandlerFunc(&user.PartialUpdateHandler{Accounts: s.Accounts, Log: s.Log}))
			r.With(require(policy.DestroyUser)).Delete("/{id}", HandlerFunc(&user.DestroyHandler{Accounts: s.Accounts, Log: s.Log}))
		})
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Use(authJWT)
		r.Get("/", HandlerFunc(&task.TaskListHandler{Tasks: s.Tasks, Log: s.Log}))
		r.Post("/", HandlerFunc(&task.CreateTaskHandler{Tasks: s.Tasks, Log: s.Log}))
		r.Get("/dashboard", HandlerFunc(&task.DashboardHandler{Tasks: s.Tasks, Log: s.Log}))
		r.Get("/{id}", HandlerFunc(&task.RetrieveTaskHandler{Tasks: s.Tasks, Log: s.Log}))
		r.Put("/{id}", HandlerFunc(&task.UpdateTaskHandler{Tasks: s.Tasks, Log: s.Log}))
		r.Patch("/{id}", HandlerFunc(&task.UpdateTaskHandler{Tasks: s.Tasks, Log: s.Log, Partial: true}))
		r.Delete("/{id}", HandlerFunc(&task.DeleteTaskHandler{Tasks: s.Tasks, Log: s.Log}))
	})

	// WebSocket endpoint, authenticated by the token query parameter
	r.Get("/ws/tasks", HandlerFunc(&handlers.TaskEventsHandler{Auth: s.Accounts, Hub: s.Hub, Log: s.Log}))

	return r
}

// Run serves until ctx is canceled and then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Log.WithField("addr", s.Addr).Info("server running")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.Log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fitih/docs" //required to register swagger docs
	"fitih/internal/assistant"
	"fitih/internal/auth"
	"fitih/internal/mailer"
	"fitih/internal/notifications"
	"fitih/internal/ratelimiter"
	"fitih/internal/sms"
	"fitih/internal/store"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         store.Storage
	logger        *zap.SugaredLogger
	cld           *cloudinary.Cloudinary
	mailer        mailer.Client
	authenticator auth.Authenticator
	smsGateway    sms.Gateway
	assistant     assistant.Client
	push          notifications.PushSender
	rateLimiter   ratelimiter.Limiter
	caseRefs      *store.CaseReferenceGenerator
}

type config struct {
	addr        string
	db          dbConfig
	env         string
	apiURL      string
	mail        mailConfig
	frontendURL string
	auth        authConfig
	sms         smsConfig
	rateLimiter ratelimiter.Config
}

type smsConfig struct {
	webhookSecret string
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	secret          string
	refreshSecret   string
	accessTokenExp  time.Duration
	refreshTokenExp time.Duration
	iss             string
	aud             string
}

type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	exp       time.Duration
	fromEmail string
	mailtrap  mailTrapConfig
}

type mailTrapConfig struct {
	apiKey string
}

type dbConfig struct {
	addr        string
	maxConns    int32
	maxIdleTime string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)

		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		// Public routes
		r.Route("/authentication", func(r chi.Router) {
			r.Use(app.RateLimiterMiddleware)
			r.Post("/user", app.registerUserHandler)
			r.Post("/token", app.createTokenHandler)
			r.Post("/refresh", app.refreshTokenHandler)
			r.Post("/web/token", app.createTokenCookieHandler)
			r.Post("/web/logout", app.logoutCookieHandler)
		})
		r.Put("/users/activate/{token}", app.activateUserHandler)

		// Gateway callback; authenticated by a shared secret, not a session.
		r.Post("/sms/delivery-report", app.smsDeliveryReportHandler)

		r.Route("/users", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/me", app.getCurrentUserHandler)
			r.Put("/", app.updateUserHandler)
			r.Post("/logout", app.logoutHandler)
			r.Post("/push-tokens", app.registerPushTokenHandler)
			r.Delete("/push-tokens", app.deletePushTokenHandler)

			r.With(app.RequireRoles(auth.RoleAdmin, auth.RoleSuperAdmin)).Get("/", app.listUsersHandler)
			r.With(app.RequireRoles(auth.RoleAdmin, auth.RoleSuperAdmin)).Patch("/{userID}/status", app.setUserStatusHandler)
		})

		r.Route("/cases", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.With(app.RequireRoles(auth.RoleClient)).Post("/", app.createCaseHandler)
			r.Get("/", app.listCasesHandler)

			r.Route("/{caseID}", func(r chi.Router) {
				r.Get("/", app.getCaseHandler)
				r.With(app.RequireRoles(auth.RoleCoordinator)).Post("/assign", app.assignCaseHandler)
				r.With(app.RequireRoles(auth.RoleLawyer, auth.RoleCoordinator)).Patch("/status", app.setCaseStatusHandler)
				r.With(app.RequireRoles(auth.RoleClient)).Post("/appeal", app.appealCaseHandler)
				r.With(app.RequireRoles(auth.RoleCoordinator, auth.RoleAdmin)).Post("/appeal/decision", app.decideAppealHandler)

				r.Post("/documents", app.uploadDocumentHandler)
				r.Get("/documents", app.listCaseDocumentsHandler)

				r.Get("/messages", app.listCaseMessagesHandler)
				r.Post("/messages", app.createCaseMessageHandler)

				r.With(app.RequireRoles(auth.RoleCoordinator)).Post("/tasks", app.createTaskHandler)
				r.Get("/tasks", app.listCaseTasksHandler)
			})
		})

		r.Route("/documents", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/{documentID}", app.getDocumentHandler)
			r.Delete("/{documentID}", app.deleteDocumentHandler)
			r.With(app.RequireRoles(auth.RoleCoordinator, auth.RoleKebeleManager)).Post("/{documentID}/verify", app.verifyDocumentHandler)
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.With(app.RequireRoles(auth.RoleLawyer, auth.RoleCoordinator)).Post("/", app.createAppointmentHandler)
			r.Get("/", app.listAppointmentsHandler)
			r.Get("/{appointmentID}", app.getAppointmentHandler)
			r.With(app.RequireRoles(auth.RoleLawyer, auth.RoleCoordinator)).Patch("/{appointmentID}/status", app.setAppointmentStatusHandler)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.With(app.RequireRoles(auth.RoleCoordinator, auth.RoleAdmin, auth.RoleSuperAdmin)).Post("/create", app.createNotificationHandler)
			r.Get("/", app.listNotificationsHandler)
			r.Get("/unread-count", app.unreadNotificationCountHandler)
			r.Patch("/{notificationID}/read", app.markNotificationReadHandler)
			r.Patch("/read-all", app.markAllNotificationsReadHandler)
		})

		r.Route("/sms", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Use(app.RequireRoles(auth.RoleCoordinator, auth.RoleAdmin, auth.RoleSuperAdmin))
			r.Post("/send", app.sendSMSHandler)
			r.Post("/{smsID}/resend", app.resendSMSHandler)
			r.Get("/", app.listSMSHandler)
		})

		r.Route("/offices", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/", app.listOfficesHandler)
			r.With(app.RequireRoles(auth.RoleAdmin, auth.RoleSuperAdmin)).Post("/", app.createOfficeHandler)
			r.With(app.RequireRoles(auth.RoleAdmin, auth.RoleSuperAdmin)).Patch("/{officeID}", app.updateOfficeHandler)
			r.With(app.RequireRoles(auth.RoleSuperAdmin)).Delete("/{officeID}", app.deleteOfficeHandler)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.With(app.RequireRoles(auth.RoleLawyer, auth.RoleCoordinator)).Get("/", app.listMyTasksHandler)
			r.With(app.RequireRoles(auth.RoleLawyer, auth.RoleCoordinator)).Patch("/{taskID}/status", app.setTaskStatusHandler)
		})

		r.Route("/audit", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.With(app.RequireRoles(auth.RoleAdmin, auth.RoleSuperAdmin)).Get("/", app.listAuditLogHandler)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.With(app.RequireRoles(auth.RoleAdmin, auth.RoleSuperAdmin)).Get("/", app.getSettingsHandler)
			r.With(app.RequireRoles(auth.RoleSuperAdmin)).Put("/", app.updateSettingsHandler)
		})

		r.Route("/assistant", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.With(app.RequireRoles(auth.RoleCoordinator)).Post("/chat", app.assistantChatHandler)
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}

package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/atriumhq/atrium-backend/api/controllers"
	"github.com/atriumhq/atrium-backend/api/middleware"
	"github.com/atriumhq/atrium-backend/internal/auth"
	"github.com/atriumhq/atrium-backend/internal/projects"
	"github.com/atriumhq/atrium-backend/internal/sessions"
	"github.com/atriumhq/atrium-backend/internal/users"
	"github.com/atriumhq/atrium-backend/pkg/config"
	"github.com/atriumhq/atrium-backend/pkg/db/models"
	"github.com/atriumhq/atrium-backend/pkg/logger"
	"github.com/atriumhq/atrium-backend/pkg/pagination"
	"github.com/atriumhq/atrium-backend/pkg/redis"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type authService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error)
	Login(ctx context.Context, req auth.LoginRequest, reqCtx sessions.RequestContext) (*auth.LoginResult, error)
	Logout(ctx context.Context, sessionToken string) (bool, error)
	HasSession(ctx context.Context, sessionToken string) (bool, error)
}

type sessionService interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.UserSession, error)
	RevokeOwned(ctx context.Context, sessionID, userID uuid.UUID) (bool, error)
	Touch(ctx context.Context, token string) (bool, error)
}

type accountLifecycle interface {
	Activate(ctx context.Context, userID uuid.UUID) (bool, error)
	Deactivate(ctx context.Context, userID uuid.UUID) (bool, error)
	Anonymize(ctx context.Context, actorID, targetID uuid.UUID) (bool, error)
	Delete(ctx context.Context, actorID, targetID uuid.UUID) (bool, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error
	UpdateAvatar(ctx context.Context, userID uuid.UUID, data []byte, contentType string) (string, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, firstName, lastName *string) (*models.User, error)
}

type userStore interface {
	List(ctx context.Context, params pagination.Params) ([]models.User, string, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type roleManager interface {
	Grant(ctx context.Context, userID uuid.UUID, roleName string) (bool, error)
	Revoke(ctx context.Context, userID uuid.UUID, roleName string) (bool, error)
}

type projectStore interface {
	Create(ctx context.Context, dto projects.CreateProjectDTO) (*models.Project, error)
	ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error)
	DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) (bool, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP pinger,
	redisClient *redis.Client,
	gcsClient pinger,
	authSvc authService,
	accountsSvc accountLifecycle,
	sessionSvc sessionService,
	usersRepo userStore,
	rolesRepo roleManager,
	projectsRepo projectStore,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginIdentityLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterIdentityLimit,
	)

	// a nil *redis.Client must not become a non-nil pinger interface
	var redisP pinger
	if redisClient != nil {
		redisP = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP, gcsClient))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authSvc, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(authSvc, logg))
		r.With(middleware.Auth(cfg.JWT, authSvc, logg)).Post("/logout", controllers.AuthLogout(authSvc, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, authSvc, logg))

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", controllers.SessionList(sessionSvc, logg))
			r.Post("/heartbeat", controllers.SessionHeartbeat(sessionSvc, logg))
			r.Delete("/{sessionId}", controllers.SessionRevoke(sessionSvc, logg))
		})

		r.Route("/users/me", func(r chi.Router) {
			r.Get("/", controllers.MeGet(usersRepo, logg))
			r.Patch("/", controllers.MeProfileUpdate(accountsSvc, logg))
			r.Post("/password", controllers.MePasswordChange(accountsSvc, logg))
			r.Post("/avatar", controllers.MeAvatarUpload(accountsSvc, logg))
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", controllers.ProjectList(projectsRepo, logg))
			r.Post("/", controllers.ProjectCreate(projectsRepo, logg))
			r.Delete("/{projectId}", controllers.ProjectDelete(projectsRepo, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, authSvc, logg))
		r.Use(middleware.RequireRole("admin", logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminUserList(usersRepo, logg))
			r.Get("/{userId}", controllers.AdminUserGet(usersRepo, logg))
			r.Post("/{userId}/activate", controllers.AdminUserActivate(accountsSvc, logg))
			r.Post("/{userId}/deactivate", controllers.AdminUserDeactivate(accountsSvc, logg))
			r.Post("/{userId}/anonymize", controllers.AdminUserAnonymize(accountsSvc, logg))
			r.Delete("/{userId}", controllers.AdminUserDelete(accountsSvc, logg))
			r.Post("/{userId}/roles", controllers.AdminRoleGrant(rolesRepo, logg))
			r.Delete("/{userId}/roles/{roleName}", controllers.AdminRoleRevoke(rolesRepo, logg))
		})
	})

	return r
}

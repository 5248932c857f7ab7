package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/painelclima/api/internal/config"
	"github.com/painelclima/api/internal/feed"
	httpmiddleware "github.com/painelclima/api/internal/http/middleware"
	"github.com/painelclima/api/internal/monitor"
	"github.com/painelclima/api/internal/service"
	"github.com/painelclima/api/internal/storage"
)

// Prefixos servidos ao navegador que exigem sessão no edge.
var protectedPrefixes = []string{"/admin", "/downloads"}

// Handler concentra as dependências das rotas.
type Handler struct {
	cfg           *config.Config
	pool          *pgxpool.Pool
	redis         *redis.Client
	authService   *service.AuthService
	userService   *service.UserService
	feed          *feed.Client
	monitor       *monitor.Service
	arquivador    storage.Arquivador
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
	devCookies    bool
}

// NewRouter devolve o roteador configurado.
func NewRouter(
	cfg *config.Config,
	pool *pgxpool.Pool,
	redisClient *redis.Client,
	authService *service.AuthService,
	userService *service.UserService,
	feedClient *feed.Client,
	monitorService *monitor.Service,
	arquivador storage.Arquivador,
) http.Handler {
	devCookies := false
	for _, origin := range cfg.AllowOrigins {
		if strings.Contains(origin, "localhost") {
			devCookies = true
			break
		}
	}

	if arquivador == nil {
		arquivador = storage.NoopArquivador{}
	}

	h := &Handler{
		cfg:           cfg,
		pool:          pool,
		redis:         redisClient,
		authService:   authService,
		userService:   userService,
		feed:          feedClient,
		monitor:       monitorService,
		arquivador:    arquivador,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
		devCookies:    devCookies,
	}

	guard := httpmiddleware.NewGuard(authService.JWT(), authService, protectedPrefixes, !devCookies)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))
	r.Use(guard.Handler)

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)

		public.Route("/api/auth", func(auth chi.Router) {
			auth.Post("/login", h.Login)
			auth.Post("/register", h.Register)
			auth.Post("/refresh", h.Refresh)
			auth.Post("/logout", h.Logout)
		})

		public.Get("/api/capacity-data", h.CapacityData)
		public.Get("/api/emission-data", h.EmissionData)
		public.Get("/api/cost-data", h.CostData)
		public.Get("/api/benefit-data", h.BenefitData)
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(authService.JWT()))
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		private.Get("/api/me", h.Me)

		private.Route("/api/users/{id}", func(u chi.Router) {
			u.Get("/", h.GetUser)
			u.Put("/", h.UpdateUser)
			u.Delete("/", h.DeleteUser)
		})

		private.Get("/api/downloads/export", h.ExportDataset)

		private.Group(func(admin chi.Router) {
			admin.Use(httpmiddleware.RequireAdmin)
			admin.Route("/api/admin/users", func(u chi.Router) {
				u.Get("/", h.ListUsers)
				u.Post("/", h.CreateUser)
				u.Put("/{id}", h.AdminUpdateUser)
				u.Delete("/{id}", h.AdminDeleteUser)
				u.Post("/{id}/approve", h.ApproveUser)
			})
			admin.Get("/api/admin/monitor", h.MonitorSummary)
		})
	})

	return r
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida conexões com Postgres e Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbErr := h.pool.Ping(ctx)
	redisErr := h.redis.Ping(ctx).Err()

	if dbErr != nil || redisErr != nil {
		WriteError(w, http.StatusServiceUnavailable, "dependências indisponíveis")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

// MonitorSummary expõe o estado dos feeds para administradores.
func (h *Handler) MonitorSummary(w http.ResponseWriter, r *http.Request) {
	if h.monitor == nil {
		WriteError(w, http.StatusServiceUnavailable, "monitor desabilitado")
		return
	}
	WriteJSON(w, http.StatusOK, h.monitor.Summary())
}

func (h *Handler) setAuthCookies(w http.ResponseWriter, accessToken, refreshToken string, refreshExpiry time.Time) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}

	http.SetCookie(w, &http.Cookie{
		Name:     httpmiddleware.AccessCookieName,
		Value:    accessToken,
		Path:     "/",
		Expires:  time.Now().Add(h.authService.JWT().AccessTTL()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
	if refreshToken != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     httpmiddleware.RefreshCookieName,
			Value:    refreshToken,
			Path:     "/",
			Expires:  refreshExpiry,
			HttpOnly: true,
			Secure:   secure,
			SameSite: sameSite,
		})
	}
}

func (h *Handler) clearAuthCookies(w http.ResponseWriter) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}

	for _, name := range []string{httpmiddleware.AccessCookieName, httpmiddleware.RefreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
			SameSite: sameSite,
		})
	}
}

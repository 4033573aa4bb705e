package router

import (
	"context"
	"time"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/config"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/handler"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/infra"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/middleware"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/repository"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/service"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the external resources the API is built on. Catalog and
// CatalogBreaker may be replaced in tests; Events may be nil.
type Deps struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Catalog        service.CatalogClient
	CatalogBreaker *infra.CircuitBreaker
	Events         service.OrderEventPublisher
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	db, rdb := deps.DB, deps.Redis

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.PublicURL))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(ctx, 1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	accountRepo := repository.NewAccountRepository(db)
	associationRepo := repository.NewAssociationRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	impersonationRepo := repository.NewImpersonationLogRepository(db)
	storeRepo := repository.NewStoreSettingsRepository(db)
	cartRepo := repository.NewCartRepository(db)
	wishlistRepo := repository.NewWishlistRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	addressRepo := repository.NewAddressRepository(db)

	// Worker dispatcher, injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	tokens := service.NewTokenService(cfg)
	auditSvc := service.NewAuditService(auditRepo)
	authSvc := service.NewAuthService(accountRepo, auditSvc, tokens, cfg)
	resetSvc := service.NewPasswordResetService(accountRepo, auditSvc, dispatcher, cfg)
	impersonationSvc := service.NewImpersonationService(accountRepo, associationRepo, impersonationRepo, tokens)
	notificationSvc := service.NewNotificationService(notificationRepo, accountRepo, associationRepo)
	accountSvc := service.NewAccountService(accountRepo, associationRepo, auditSvc)
	applicationSvc := service.NewApplicationService(applicationRepo, accountRepo, associationRepo, auditSvc, notificationSvc)

	addressSvc := service.NewAddressService(addressRepo)

	ledgerDeps := service.LedgerDeps{
		Accounts:     accountRepo,
		Associations: associationRepo,
		Carts:        cartRepo,
		Purchases:    purchaseRepo,
		Audit:        auditSvc,
		Notifier:     notificationSvc,
		Mail:         dispatcher,
		Events:       deps.Events,
	}
	ledgerSvc := service.NewLedgerService(ledgerDeps)

	storeSvc := service.NewStoreService(service.StoreDeps{
		StoreSettings: storeRepo,
		Carts:         cartRepo,
		Wishlists:     wishlistRepo,
		Purchases:     purchaseRepo,
		Associations:  associationRepo,
		Catalog:       deps.Catalog,
		Cache:         infra.NewJSONCache(rdb, "catalog:", cfg.CatalogCacheTTL),
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc, resetSvc)
	impersonationH := handler.NewImpersonationHandler(impersonationSvc)
	pointsH := handler.NewPointsHandler(ledgerSvc, auditSvc)
	accountsH := handler.NewAccountsHandler(accountSvc, auditSvc)
	applicationsH := handler.NewApplicationsHandler(applicationSvc)
	storeH := handler.NewStoreHandler(storeSvc)
	notificationsH := handler.NewNotificationsHandler(notificationSvc)
	addressesH := handler.NewAddressesHandler(addressSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, deps.CatalogBreaker))

	credentialLimit := middleware.CredentialRateLimiter(1)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", credentialLimit, authH.Login)
		auth.POST("/refresh", authH.Refresh)
		auth.POST("/register", credentialLimit, authH.Register)
		auth.POST("/password/forgot", credentialLimit, authH.ForgotPassword)
		auth.GET("/password/reset/:token", credentialLimit, authH.ValidateResetToken)
		auth.POST("/password/reset", credentialLimit, authH.ResetPassword)
	}

	// Protected routes
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), middleware.ActiveSession(authSvc))
	{
		// Any role
		v1.GET("/me", authH.Me)
		v1.PUT("/me", authH.UpdateContact)
		v1.POST("/me/password", authH.ChangePassword)
		v1.PUT("/me/notification-settings", authH.UpdateNotificationSettings)
		v1.POST("/me/totp", authH.SetupTOTP)
		v1.POST("/me/totp/enable", authH.EnableTOTP)
		v1.DELETE("/me/totp", authH.DisableTOTP)
		v1.GET("/notifications", notificationsH.List)
		v1.GET("/notifications/unread-count", notificationsH.UnreadCount)
		v1.POST("/impersonation/stop", impersonationH.Stop)

		// Sponsor, administrators pass through
		sponsorOnly := middleware.RequireRole(model.RoleSponsor)
		v1.POST("/notifications/send", sponsorOnly, notificationsH.Send)
		v1.POST("/impersonation/start", sponsorOnly, impersonationH.Start)

		sponsor := v1.Group("/sponsor", sponsorOnly)
		{
			sponsor.GET("/drivers", pointsH.SponsorDrivers)
			sponsor.POST("/drivers", accountsH.SponsorCreateDriver)
			sponsor.POST("/points/award", pointsH.Award)
			sponsor.POST("/points/remove", pointsH.Remove)
			sponsor.GET("/points/history", pointsH.SponsorHistory)
			sponsor.GET("/applications", applicationsH.Pending)
			sponsor.POST("/applications/:id/decision", applicationsH.Decide)
			sponsor.GET("/store-settings", storeH.Settings)
			sponsor.PUT("/store-settings", storeH.UpdateSettings)
			sponsor.GET("/purchases", storeH.SponsorPurchases)
		}

		// Driver
		driverOnly := middleware.RequireRole(model.RoleDriver)
		driver := v1.Group("/driver", driverOnly)
		{
			driver.GET("/sponsors", applicationsH.Sponsors)
			driver.POST("/applications", applicationsH.Apply)
			driver.GET("/applications", applicationsH.DriverApplications)
			driver.GET("/points", pointsH.DriverBalances)
			driver.GET("/points/history", pointsH.DriverHistory)
			driver.GET("/purchases", storeH.DriverPurchases)
			driver.GET("/addresses", addressesH.List)
			driver.POST("/addresses", addressesH.Create)
			driver.PUT("/addresses/:id", addressesH.Update)
			driver.DELETE("/addresses/:id", addressesH.Delete)
			driver.POST("/addresses/:id/default", addressesH.SetDefault)
		}

		// Catalog reads are open to the sponsor that owns the store
		v1.GET("/store/:sponsor/catalog", middleware.RequireRole(model.RoleDriver, model.RoleSponsor), storeH.Catalog)
		store := v1.Group("/store/:sponsor", driverOnly)
		{
			store.GET("/cart", storeH.Cart)
			store.POST("/cart", storeH.AddToCart)
			store.PUT("/cart/:item", storeH.UpdateCartItem)
			store.DELETE("/cart/:item", storeH.RemoveCartItem)
			store.POST("/checkout", pointsH.Checkout)
		}

		wishlist := v1.Group("/wishlist", driverOnly)
		{
			wishlist.GET("", storeH.Wishlist)
			wishlist.POST("", storeH.AddToWishlist)
			wishlist.DELETE("/:item", storeH.RemoveFromWishlist)
			wishlist.POST("/:item/move", storeH.MoveToCart)
		}

		// Administrator
		admin := v1.Group("/admin", middleware.RequireRoleStrict(model.RoleAdministrator))
		{
			admin.GET("/accounts", accountsH.List)
			admin.POST("/accounts", accountsH.Create)
			admin.GET("/accounts/locked", accountsH.ListLocked)
			admin.POST("/accounts/unlock-all", accountsH.UnlockAll)
			admin.PUT("/accounts/:code", accountsH.Update)
			admin.POST("/accounts/:code/disable", accountsH.Disable())
			admin.POST("/accounts/:code/enable", accountsH.Enable())
			admin.POST("/accounts/:code/unlock", accountsH.Unlock())
			admin.POST("/accounts/:code/timeout", accountsH.Timeout)
			admin.POST("/accounts/:code/clear-timeout", accountsH.ClearTimeout())
			admin.POST("/accounts/:code/reset-password", accountsH.ResetPassword)
			admin.GET("/sponsors", accountsH.ListSponsors)
			admin.POST("/sponsors/:code/review", accountsH.ReviewSponsor)
			admin.GET("/audit-logs", accountsH.AuditLogs)
		}
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/upb/tenant-access-gate/clerk"
	"github.com/upb/tenant-access-gate/config"
	"github.com/upb/tenant-access-gate/internal/observability"
	"github.com/upb/tenant-access-gate/models"
	"github.com/upb/tenant-access-gate/repositories"
	"github.com/upb/tenant-access-gate/repositories/postgres"
	"github.com/upb/tenant-access-gate/services/deliveries"
	"github.com/upb/tenant-access-gate/services/roleassign"
	"github.com/upb/tenant-access-gate/services/usersync"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	DB      *postgres.DB
	Logger  *zap.Logger
	Metrics *observability.Metrics // nil when metrics are disabled

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Repos         *repositories.Repositories
	TxManager     repositories.TransactionManager
	DefaultTenant *models.Tenant

	// Identity provider
	SessionValidator *clerk.SessionValidator // nil when no issuer is configured
	StaffWebhook     *clerk.WebhookVerifier  // nil when the secret is unset
	StudentWebhook   *clerk.WebhookVerifier

	// Services
	UserSync   *usersync.Service
	RoleAssign *roleassign.Service
	Ledger     *deliveries.Ledger // nil when REDIS_URL is unset
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps, err := NewDependenciesWithFactory(ctx, cfg, logger, factory)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesWithFactory wires the application around an existing repository factory
func NewDependenciesWithFactory(ctx context.Context, cfg *config.Config, logger *zap.Logger, factory *postgres.RepositoryFactory) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	if cfg.Observability.MetricsEnabled {
		deps.Metrics = observability.NewMetrics()
	}

	// Schema and default tenant
	tenant, err := factory.Bootstrap(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to bootstrap database: %w", err)
	}
	deps.DefaultTenant = tenant

	deps.initRepositories()

	if err := deps.initClerk(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize identity provider: %w", err)
	}

	if err := deps.initLedger(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize delivery ledger: %w", err)
	}

	deps.initServices(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	d.Repos = d.RepoFactory.NewRepositories()
	d.TxManager = d.RepoFactory.GetTransactionManager()
	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initClerk(cfg *config.Config) error {
	if cfg.Clerk.JWKSURL == "" {
		d.Logger.Warn("identity provider issuer not configured, every request is treated as signed out")
	} else {
		validator, err := clerk.NewSessionValidator(clerk.Config{
			Issuer:            cfg.Clerk.Issuer,
			JWKSURL:           cfg.Clerk.JWKSURL,
			AuthorizedParties: cfg.Clerk.AuthorizedParties,
			MetadataClaim:     cfg.Clerk.MetadataClaim,
			RefreshInterval:   cfg.Clerk.JWKSRefreshInterval,
			HTTPTimeout:       10 * time.Second,
		})
		if err != nil {
			return err
		}
		d.SessionValidator = validator
		d.Logger.Info("session validator initialized", zap.String("issuer", cfg.Clerk.Issuer))
	}

	var err error
	if d.StaffWebhook, err = d.webhookVerifier(usersync.AudienceStaff, cfg.Clerk.StaffWebhookSecret); err != nil {
		return err
	}
	if d.StudentWebhook, err = d.webhookVerifier(usersync.AudienceStudent, cfg.Clerk.StudentWebhookSecret); err != nil {
		return err
	}
	return nil
}

func (d *Dependencies) webhookVerifier(audience usersync.Audience, secret string) (*clerk.WebhookVerifier, error) {
	if secret == "" {
		d.Logger.Warn("webhook secret not configured, deliveries will be rejected",
			zap.String("audience", string(audience)))
		return nil, nil
	}
	verifier, err := clerk.NewWebhookVerifier(secret)
	if err != nil {
		return nil, fmt.Errorf("%s webhook: %w", audience, err)
	}
	return verifier, nil
}

func (d *Dependencies) initLedger(ctx context.Context, cfg *config.Config) error {
	ledger, err := deliveries.NewLedger(ctx, cfg.Redis, d.Logger)
	if err != nil {
		return err
	}
	if ledger == nil {
		d.Logger.Info("delivery ledger disabled")
	}
	d.Ledger = ledger
	return nil
}

func (d *Dependencies) initServices(cfg *config.Config) {
	d.UserSync = usersync.NewService(d.Repos, d.TxManager, usersync.ConfigFromApp(cfg), d.Logger)
	d.RoleAssign = roleassign.NewService(d.Repos, d.TxManager, cfg.Tenant.DefaultID, d.Logger)
	d.Logger.Info("services initialized",
		zap.String("staff_webhook_mode", cfg.Sync.StaffMode),
		zap.String("cross_role_policy", cfg.Gate.CrossRolePolicy))
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.SessionValidator != nil {
		d.SessionValidator.Close()
		d.SessionValidator = nil
	}

	if d.Ledger != nil {
		if err := d.Ledger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close delivery ledger: %w", err))
		}
		d.Ledger = nil
	}

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}

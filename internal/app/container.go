package app

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"butternut/internal/config"
	"butternut/internal/infrastructure/billing"
	"butternut/internal/infrastructure/cache"
	"butternut/internal/infrastructure/completion"
	"butternut/internal/infrastructure/email"
	"butternut/internal/infrastructure/persistence/postgres"
	"butternut/internal/logging"
	"butternut/internal/pkg/jwt"
	"butternut/internal/pkg/password"
	"butternut/internal/usecase"
	ucauth "butternut/internal/usecase/auth"
)

// Container wires configuration, infrastructure and use cases together once
// at startup.
type Container struct {
	Config config.Config
	Logger zerolog.Logger

	Pool  *pgxpool.Pool
	Cache *cache.Redis

	JWT jwt.Service

	Auth      usecase.AuthUsecase
	Roster    usecase.RosterUsecase
	Uploads   usecase.UploadUsecase
	Profile   usecase.ProfileUsecase
	Campaigns usecase.CampaignUsecase
	Billing   usecase.BillingUsecase
}

func NewContainer(ctx context.Context, cfg config.Config) (*Container, error) {
	logger := logging.NewLogger(cfg.App)

	pool, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Database.MigrateOnStart {
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}

	redisCache := cache.NewRedis(cfg.Redis, logger)

	emailSender, err := email.NewSESSender(ctx, cfg.Email)
	if err != nil {
		redisCache.Close()
		pool.Close()
		return nil, err
	}

	clientRepo := postgres.NewClientRepository(pool)
	uploadRepo := postgres.NewUploadRepository(pool)

	hasher := password.NewHasher(password.Params{
		Time:    cfg.Auth.HashTime,
		MemKiB:  cfg.Auth.HashMemKiB,
		Threads: cfg.Auth.HashThreads,
	})
	jwtSvc := jwt.NewHMACService(
		cfg.Auth.AccessSecret,
		cfg.Auth.RefreshSecret,
		cfg.Auth.AccessExpiresIn,
		cfg.Auth.RefreshExpiresIn,
	)

	authSvc := ucauth.NewService(clientRepo, hasher, cfg.Auth.ResetTokenTTL)
	rosterUC := usecase.NewRosterUsecase(clientRepo)

	c := &Container{
		Config:    cfg,
		Logger:    logger,
		Pool:      pool,
		Cache:     redisCache,
		JWT:       jwtSvc,
		Auth:      usecase.NewAuthUsecase(authSvc, clientRepo, jwtSvc, emailSender, logger),
		Roster:    rosterUC,
		Uploads:   usecase.NewUploadUsecase(uploadRepo, rosterUC),
		Profile:   usecase.NewProfileUsecase(clientRepo, redisCache, logger),
		Campaigns: usecase.NewCampaignUsecase(clientRepo, completion.NewOpenAICompleter(cfg.OpenAI), emailSender, redisCache, cfg.Redis.TTL, logger),
		Billing:   usecase.NewBillingUsecase(clientRepo, billing.NewStripeCheckout(cfg.Billing)),
	}
	return c, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	err := c.Cache.Close()
	if c.Pool != nil {
		c.Pool.Close()
	}
	return err
}

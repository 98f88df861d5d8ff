package container

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/warungmbahmanto/backend-api/config"
	"github.com/warungmbahmanto/backend-api/internal/application"
	"github.com/warungmbahmanto/backend-api/internal/infrastructure/postgres"
	apphttp "github.com/warungmbahmanto/backend-api/internal/interface/http"
	"github.com/warungmbahmanto/backend-api/pkg/helpers"
	"github.com/warungmbahmanto/backend-api/pkg/mailer"
)

// Container wires configuration, infrastructure clients, repositories,
// services and handlers. Everything in here is a process-wide singleton.
type Container struct {
	Cfg    *config.Config
	Logger *logrus.Logger

	Pool      *pgxpool.Pool
	Redis     *redis.Client
	GCS       *storage.Client
	ES        *elasticsearch.Client
	RabbitPub *helpers.RabbitPublisher
	JWT       *helpers.JWTManager

	Users     *postgres.UserRepository
	Blacklist *postgres.TokenBlacklist

	AuthService    *application.AuthService
	CatalogService *application.CatalogService

	AuthHandler     *apphttp.AuthHandler
	CategoryHandler *apphttp.CategoryHandler
	ProductHandler  *apphttp.ProductHandler
}

// New builds the container. Postgres and redis are required; object storage,
// the search index and the email queue are optional and simply disable their
// feature when unavailable.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	c := &Container{Cfg: cfg, Logger: logger}

	pool, err := postgres.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	c.Pool = pool

	c.Redis = helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := c.Redis.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("redis unreachable, rate limiting and blacklist cache degraded")
	}

	if cfg.GCSBucket != "" {
		gcs, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			logger.WithError(err).Warn("gcs client init failed, image upload disabled")
		} else {
			c.GCS = gcs
		}
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.ESAddrs(),
		Username:  cfg.ElasticsearchUser,
		Password:  cfg.ElasticsearchPass,
	})
	if err != nil {
		logger.WithError(err).Warn("elasticsearch client init failed, product search degraded to sql")
	} else {
		c.ES = es
	}

	pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
	if err != nil {
		logger.WithError(err).Warn("rabbitmq unreachable, otp emails cannot be queued")
	} else {
		c.RabbitPub = pub
	}

	c.JWT = helpers.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL)

	c.Users = postgres.NewUserRepository(pool)
	c.Blacklist = postgres.NewTokenBlacklist(pool)
	categories := postgres.NewCategoryRepository(pool)
	products := postgres.NewProductRepository(pool)

	var notifierPub mailer.Publisher
	if c.RabbitPub != nil {
		notifierPub = c.RabbitPub
	}
	notifier := mailer.NewQueueNotifier(notifierPub, cfg.MailSendEnabled)

	c.AuthService = application.NewAuthService(c.Users, c.Blacklist, c.JWT, notifier, c.Redis, logger, cfg.OTPTTL)
	c.CatalogService = application.NewCatalogService(categories, products, c.GCS, cfg.GCSBucket, c.ES, cfg.ESProductsIndex, c.Redis, logger)

	c.AuthHandler = apphttp.NewAuthHandler(c.AuthService)
	c.CategoryHandler = apphttp.NewCategoryHandler(c.CatalogService)
	c.ProductHandler = apphttp.NewProductHandler(c.CatalogService)

	return c, nil
}

func (c *Container) Close() {
	if c.RabbitPub != nil {
		c.RabbitPub.Close()
	}
	if c.GCS != nil {
		_ = c.GCS.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}

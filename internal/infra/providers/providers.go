package providers

import (
	"context"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/lsiproject/propertyhub/client"
	"github.com/lsiproject/propertyhub/internal/config"
	"github.com/lsiproject/propertyhub/internal/infra/database"
	"github.com/lsiproject/propertyhub/internal/infra/gateway"
	"github.com/lsiproject/propertyhub/internal/infra/ledger"
)

const userAgent = "propertyhub"

// NewDatabase opens the configured database.
func NewDatabase(conf config.Server) (*gorm.DB, error) {
	return database.Open(conf.PostgresDsn)
}

// MigrateDatabase applies migrations for the application models.
func MigrateDatabase(db *gorm.DB) error {
	return database.Migrate(db)
}

// NewMemcache returns nil when no address is configured; predictions are
// then not cached.
func NewMemcache(addr string) (*memcache.Client, error) {
	if addr == "" {
		return nil, nil
	}
	return database.NewMemcached(addr)
}

// NewRedis returns nil when no address is configured.
func NewRedis(ctx context.Context, conf config.Server) (*redis.Client, error) {
	if conf.RedisAddr == "" {
		return nil, nil
	}
	return database.NewRedis(ctx, conf.RedisAddr, conf.RedisPassword, conf.RedisDB)
}

// NewClient constructs the HTTP client used to talk to the collaborator services.
func NewClient(conf config.Services) *client.Client {
	return client.New(userAgent, conf.Timeout)
}

func NewUserProfileGateway(cl *client.Client, conf config.Services) *gateway.UserProfileGateway {
	return gateway.NewUserProfileGateway(cl, conf.UserManagementURL)
}

func NewRecommendationGateway(cl *client.Client, conf config.Services) *gateway.RecommendationGateway {
	return gateway.NewRecommendationGateway(cl, conf.RecommenderURL)
}

func NewPricePredictionGateway(cl *client.Client, mc *memcache.Client, conf config.Services) *gateway.PricePredictionGateway {
	var cache gateway.ItemCache
	if mc != nil {
		cache = mc
	}
	return gateway.NewPricePredictionGateway(cl, conf.PriceSuggestURL, cache, conf.PredictionTTL)
}

func NewHeatmapGateway(cl *client.Client, conf config.Services) *gateway.HeatmapGateway {
	return gateway.NewHeatmapGateway(cl, conf.HeatmapURL)
}

func NewObjectStorage(cl *client.Client, conf config.Storage) *gateway.ObjectStorage {
	return gateway.NewObjectStorage(cl, conf)
}

// NewLedger dials the chain. The returned function closes the connection.
func NewLedger(ctx context.Context, conf config.Ledger) (*ledger.EthLedger, func(), error) {
	return ledger.Dial(ctx, conf)
}

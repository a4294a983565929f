package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/zeebo/xxh3"

	"github.com/lsiproject/propertyhub/client"
	"github.com/lsiproject/propertyhub/internal/domain"
)

// ItemCache is the subset of the memcached client used for predictions.
type ItemCache interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
}

// PricePredictionGateway calls the price suggestion model. Identical
// requests are answered from memcached for ttl.
type PricePredictionGateway struct {
	client  *client.Client
	baseURL string
	cache   ItemCache
	ttl     time.Duration
}

func NewPricePredictionGateway(cl *client.Client, baseURL string, cache ItemCache, ttl time.Duration) *PricePredictionGateway {
	return &PricePredictionGateway{
		client:  cl,
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   cache,
		ttl:     ttl,
	}
}

func (g *PricePredictionGateway) PredictMonthly(ctx context.Context, request domain.PricePredictionRequest) (*domain.PricePrediction, error) {
	return g.predict(ctx, "monthly", request)
}

func (g *PricePredictionGateway) PredictDaily(ctx context.Context, request domain.PricePredictionRequest) (*domain.PricePrediction, error) {
	return g.predict(ctx, "daily", request)
}

func (g *PricePredictionGateway) predict(ctx context.Context, kind string, request domain.PricePredictionRequest) (*domain.PricePrediction, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}
	key := "price:" + kind + ":" + strconv.FormatUint(xxh3.Hash(body), 16)

	if cached, ok := g.lookup(ctx, key); ok {
		return cached, nil
	}

	var prediction domain.PricePrediction
	err = g.client.PostJSON(ctx, g.baseURL+"/predict/"+kind, json.RawMessage(body), &prediction)
	if err != nil {
		return nil, err
	}

	g.store(ctx, key, &prediction)
	return &prediction, nil
}

func (g *PricePredictionGateway) lookup(ctx context.Context, key string) (*domain.PricePrediction, bool) {
	if g.cache == nil {
		return nil, false
	}
	item, err := g.cache.Get(key)
	if err != nil {
		if !errors.Is(err, memcache.ErrCacheMiss) {
			slog.WarnContext(ctx, "prediction cache get failed", slog.String("error", err.Error()), slog.String("module", "gateway"))
		}
		return nil, false
	}
	var prediction domain.PricePrediction
	if err := json.Unmarshal(item.Value, &prediction); err != nil {
		return nil, false
	}
	return &prediction, true
}

func (g *PricePredictionGateway) store(ctx context.Context, key string, prediction *domain.PricePrediction) {
	if g.cache == nil {
		return
	}
	value, err := json.Marshal(prediction)
	if err != nil {
		return
	}
	err = g.cache.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: int32(g.ttl.Seconds()),
	})
	if err != nil {
		slog.WarnContext(ctx, "prediction cache set failed", slog.String("error", err.Error()), slog.String("module", "gateway"))
	}
}

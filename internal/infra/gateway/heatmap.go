package gateway

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/lsiproject/propertyhub/client"
	"github.com/lsiproject/propertyhub/internal/domain"
)

const heatmapTTL = 10 * time.Minute

type HeatmapGateway struct {
	client  *client.Client
	baseURL string
	cache   *cache.Cache
}

func NewHeatmapGateway(cl *client.Client, baseURL string) *HeatmapGateway {
	return &HeatmapGateway{
		client:  cl,
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   cache.New(heatmapTTL, 15*time.Minute),
	}
}

func (g *HeatmapGateway) Heatmap(ctx context.Context, rentalType domain.TypeOfRental) (*domain.Heatmap, error) {
	key := string(rentalType)
	if cached, found := g.cache.Get(key); found {
		heatmap := cached.(domain.Heatmap)
		return &heatmap, nil
	}

	var heatmap domain.Heatmap
	endpoint := g.baseURL + "/api/v1/market/heatmap?type=" + url.QueryEscape(string(rentalType))
	err := g.client.GetJSON(ctx, endpoint, &heatmap)
	if err != nil {
		return nil, err
	}

	g.cache.Set(key, heatmap, cache.DefaultExpiration)
	return &heatmap, nil
}

package gateway

import (
	"context"
	"strings"

	"github.com/lsiproject/propertyhub/client"
	"github.com/lsiproject/propertyhub/internal/domain"
)

type RecommendationGateway struct {
	client  *client.Client
	baseURL string
}

func NewRecommendationGateway(cl *client.Client, baseURL string) *RecommendationGateway {
	return &RecommendationGateway{
		client:  cl,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (g *RecommendationGateway) Recommend(ctx context.Context, request domain.RecommendationRequest) (*domain.RecommendationResponse, error) {
	var response domain.RecommendationResponse
	err := g.client.PostJSON(ctx, g.baseURL+"/recommend", request, &response)
	if err != nil {
		return nil, err
	}
	return &response, nil
}

package usecase

import (
	"context"

	"github.com/lsiproject/propertyhub/internal/domain"
)

// PropertyRepository defines storage operations for property records.
// Lookups by id return domain.NotFoundError when the record is absent.
type PropertyRepository interface {
	Create(ctx context.Context, property *domain.Property) error
	Save(ctx context.Context, property *domain.Property) error
	FindByID(ctx context.Context, id int64) (*domain.Property, error)
	FindAll(ctx context.Context) ([]domain.Property, error)
	FindByOwnerID(ctx context.Context, ownerID int64) ([]domain.Property, error)
	FindByIDs(ctx context.Context, ids []int64) ([]domain.Property, error)
	FindMostRecentAvailable(ctx context.Context, limit int) ([]domain.Property, error)
	Search(ctx context.Context, filter domain.PropertyFilter) ([]domain.Property, error)
}

// Ledger is the on-chain contract. Each call returns only after the
// transaction is confirmed or has failed.
type Ledger interface {
	UpdateProperty(ctx context.Context, update domain.LedgerUpdate) error
	DelistProperty(ctx context.Context, onChainID int64) error
}

// EventPublisher broadcasts committed lifecycle changes.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.PropertyEvent) error
}

// ImageStore uploads a file and returns its public URL.
type ImageStore interface {
	Upload(ctx context.Context, name, contentType string, content []byte) (string, error)
}

// UserProfileGateway looks up a user's stored preferences.
type UserProfileGateway interface {
	GetUserByID(ctx context.Context, id int64) (*domain.UserProfile, error)
}

// RecommendationGateway calls the remote ranking model.
type RecommendationGateway interface {
	Recommend(ctx context.Context, request domain.RecommendationRequest) (*domain.RecommendationResponse, error)
}

// PricePredictionGateway calls the price suggestion model.
type PricePredictionGateway interface {
	PredictMonthly(ctx context.Context, request domain.PricePredictionRequest) (*domain.PricePrediction, error)
	PredictDaily(ctx context.Context, request domain.PricePredictionRequest) (*domain.PricePrediction, error)
}

// HeatmapGateway calls the market heatmap model.
type HeatmapGateway interface {
	Heatmap(ctx context.Context, rentalType domain.TypeOfRental) (*domain.Heatmap, error)
}

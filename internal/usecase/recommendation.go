package usecase

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/lsiproject/propertyhub/internal/domain"
	"github.com/lsiproject/propertyhub/internal/telemetry"
)

// RecommendationUsecase ranks properties for a user. It is best effort: every
// failure along the way yields an empty list.
type RecommendationUsecase struct {
	profiles UserProfileGateway
	model    RecommendationGateway
	repo     PropertyRepository
	timeout  time.Duration
	metrics  *telemetry.Metrics
}

func NewRecommendationUsecase(
	profiles UserProfileGateway,
	model RecommendationGateway,
	repo PropertyRepository,
	timeout time.Duration,
	metrics *telemetry.Metrics,
) *RecommendationUsecase {
	return &RecommendationUsecase{
		profiles: profiles,
		model:    model,
		repo:     repo,
		timeout:  timeout,
		metrics:  metrics,
	}
}

// Recommend returns the properties the model ranks for principal, in the
// model's order. It never returns an error to the caller.
func (uc *RecommendationUsecase) Recommend(ctx context.Context, principal *domain.Principal) []domain.Property {
	ctx, span := tracer.Start(ctx, "Recommendation.Usecase.Recommend")
	defer span.End()

	empty := []domain.Property{}

	profile, err := uc.fetchProfile(ctx, principal.UserID())
	if err != nil {
		span.RecordError(err)
		uc.fallback(ctx, "profile", err)
		return empty
	}
	if profile == nil {
		uc.fallback(ctx, "profile", nil)
		return empty
	}

	request := domain.NewRecommendationRequest(profile)
	slog.DebugContext(
		ctx, "Requesting recommendations",
		slog.Int64("userId", principal.UserID()),
		slog.Float64("targetRent", request.TargetRent),
		slog.String("module", "recommendation"),
	)

	response, err := uc.fetchRecommendations(ctx, request)
	if err != nil {
		span.RecordError(err)
		uc.fallback(ctx, "model", err)
		return empty
	}
	if response == nil || len(response.Recommendations) == 0 {
		uc.fallback(ctx, "empty", nil)
		return empty
	}

	ids := make([]int64, 0, len(response.Recommendations))
	seen := make(map[int64]struct{}, len(response.Recommendations))
	for _, rec := range response.Recommendations {
		if _, ok := seen[rec.PropertyID]; ok {
			continue
		}
		seen[rec.PropertyID] = struct{}{}
		ids = append(ids, rec.PropertyID)
	}
	span.SetAttributes(attribute.Int("RecommendedCount", len(ids)))

	properties, err := uc.repo.FindByIDs(ctx, ids)
	if err != nil {
		span.RecordError(err)
		uc.fallback(ctx, "storage", err)
		return empty
	}

	return rankByIDs(properties, ids)
}

func (uc *RecommendationUsecase) fetchProfile(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()
	return uc.profiles.GetUserByID(ctx, userID)
}

func (uc *RecommendationUsecase) fetchRecommendations(ctx context.Context, request domain.RecommendationRequest) (*domain.RecommendationResponse, error) {
	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()
	return uc.model.Recommend(ctx, request)
}

func (uc *RecommendationUsecase) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if uc.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, uc.timeout)
}

func (uc *RecommendationUsecase) fallback(ctx context.Context, stage string, err error) {
	uc.metrics.RecommendationFallback(stage)
	attrs := []any{
		slog.String("stage", stage),
		slog.String("module", "recommendation"),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	slog.WarnContext(ctx, "Recommendation fell back to an empty result", attrs...)
}

// rankByIDs orders properties by their position in ids. Ids with no
// matching property are skipped.
func rankByIDs(properties []domain.Property, ids []int64) []domain.Property {
	byID := make(map[int64]domain.Property, len(properties))
	for _, p := range properties {
		byID[p.ID] = p
	}
	ranked := make([]domain.Property, 0, len(properties))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ranked = append(ranked, p)
		}
	}
	return ranked
}

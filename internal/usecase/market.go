package usecase

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/lsiproject/propertyhub/internal/domain"
)

// MarketUsecase exposes the price suggestion and heatmap models. Unlike
// recommendations, their failures are reported to the caller.
type MarketUsecase struct {
	prices  PricePredictionGateway
	heatmap HeatmapGateway
}

func NewMarketUsecase(prices PricePredictionGateway, heatmap HeatmapGateway) *MarketUsecase {
	return &MarketUsecase{
		prices:  prices,
		heatmap: heatmap,
	}
}

func (uc *MarketUsecase) PredictPrice(ctx context.Context, rentalType domain.TypeOfRental, request domain.PricePredictionRequest) (*domain.PricePrediction, error) {
	ctx, span := tracer.Start(ctx, "Market.Usecase.PredictPrice")
	defer span.End()

	if strings.TrimSpace(request.City) == "" || strings.TrimSpace(request.Country) == "" {
		return nil, errors.Wrap(domain.ErrInvalidInput, "city and country are required")
	}
	if request.SqM <= 0 {
		return nil, errors.Wrap(domain.ErrInvalidInput, "sqm must be positive")
	}

	var (
		prediction *domain.PricePrediction
		err        error
	)
	switch rentalType {
	case domain.RentalMonthly:
		prediction, err = uc.prices.PredictMonthly(ctx, request)
	case domain.RentalDaily:
		prediction, err = uc.prices.PredictDaily(ctx, request)
	default:
		return nil, errors.Wrapf(domain.ErrInvalidInput, "unknown rental type %q", rentalType)
	}
	if err != nil {
		span.RecordError(err)
		return nil, unavailable(err, "price prediction failed")
	}
	return prediction, nil
}

func (uc *MarketUsecase) Heatmap(ctx context.Context, rentalType domain.TypeOfRental) (*domain.Heatmap, error) {
	ctx, span := tracer.Start(ctx, "Market.Usecase.Heatmap")
	defer span.End()

	if !rentalType.Valid() {
		return nil, errors.Wrapf(domain.ErrInvalidInput, "unknown rental type %q", rentalType)
	}

	heatmap, err := uc.heatmap.Heatmap(ctx, rentalType)
	if err != nil {
		span.RecordError(err)
		return nil, unavailable(err, "heatmap failed")
	}
	return heatmap, nil
}

func unavailable(err error, msg string) error {
	if errors.Is(err, domain.ErrCollaboratorUnavailable) {
		return errors.Wrap(err, msg)
	}
	return errors.Wrap(errors.WithMessage(domain.ErrCollaboratorUnavailable, err.Error()), msg)
}

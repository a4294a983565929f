package usecase

import (
	"context"
	"log/slog"
	"math/big"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lsiproject/propertyhub/internal/domain"
	"github.com/lsiproject/propertyhub/internal/telemetry"
)

var tracer = otel.Tracer("usecase")

const mostRecentLimit = 3

// PropertyUsecase owns property lifecycle transitions. Mutations that have an
// on-chain counterpart run the ledger call first and persist only after it
// succeeds.
type PropertyUsecase struct {
	repo    PropertyRepository
	ledger  Ledger
	events  EventPublisher
	images  ImageStore
	metrics *telemetry.Metrics
	now     func() time.Time
}

func NewPropertyUsecase(
	repo PropertyRepository,
	ledger Ledger,
	events EventPublisher,
	images ImageStore,
	metrics *telemetry.Metrics,
) *PropertyUsecase {
	return &PropertyUsecase{
		repo:    repo,
		ledger:  ledger,
		events:  events,
		images:  images,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create persists a new listing owned by the principal. The on-chain listing
// transaction is submitted by the owner's wallet; only its id is recorded here.
func (uc *PropertyUsecase) Create(ctx context.Context, principal *domain.Principal, input domain.PropertyInput) (*domain.Property, error) {
	ctx, span := tracer.Start(ctx, "Property.Usecase.Create")
	defer span.End()

	if strings.TrimSpace(input.Title) == "" {
		return nil, errors.Wrap(domain.ErrInvalidInput, "title is required")
	}
	if input.TypeOfRental != "" && !input.TypeOfRental.Valid() {
		return nil, errors.Wrapf(domain.ErrInvalidInput, "unknown rental type %q", input.TypeOfRental)
	}

	now := uc.now()
	property := &domain.Property{
		OnChainID:       input.OnChainID,
		OwnerID:         principal.UserID(),
		OwnerEthAddress: principal.WalletAddress(),
		Title:           input.Title,
		Country:         input.Country,
		City:            input.City,
		Address:         input.Address,
		Description:     input.Description,
		Latitude:        input.Latitude,
		Longitude:       input.Longitude,
		SqM:             input.SqM,
		TotalRooms:      input.TotalRooms,
		TypeOfRental:    input.TypeOfRental,
		TypeOfProperty:  input.TypeOfProperty,
		RentAmount:      cloneInt(input.RentAmount),
		SecurityDeposit: cloneInt(input.SecurityDeposit),
		IsActive:        true,
		IsAvailable:     true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := uc.repo.Create(ctx, property)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to create property")
	}

	span.SetAttributes(attribute.Int64("PropertyId", property.ID))
	uc.publish(ctx, domain.EventPropertyListed, property)
	return property, nil
}

// Update applies a partial update on behalf of the owner.
func (uc *PropertyUsecase) Update(ctx context.Context, id int64, update domain.PropertyUpdate, callerWallet string) (*domain.Property, error) {
	ctx, span := tracer.Start(ctx, "Property.Usecase.Update")
	defer span.End()
	span.SetAttributes(attribute.Int64("PropertyId", id))

	property, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !isOwner(property, callerWallet) {
		return nil, domain.ErrNotAuthorized
	}

	if !property.IsActive {
		return nil, domain.ErrDelisted
	}

	if property.OnChainID == nil {
		return nil, domain.ErrNotYetListed
	}

	if update.TypeOfRental != nil && !update.TypeOfRental.Valid() {
		return nil, errors.Wrapf(domain.ErrInvalidInput, "unknown rental type %q", *update.TypeOfRental)
	}

	next := *property
	update.Apply(&next)

	err = uc.ledger.UpdateProperty(ctx, domain.LedgerUpdate{
		OnChainID:       *next.OnChainID,
		RentAmount:      next.RentAmount,
		SecurityDeposit: next.SecurityDeposit,
		IsAvailable:     next.IsAvailable,
	})
	if err != nil {
		span.RecordError(err)
		uc.metrics.LedgerFailed("update")
		return nil, errors.Wrap(errors.WithMessage(domain.ErrLedger, err.Error()), "Property.Usecase.Update")
	}

	next.UpdatedAt = uc.now()
	err = uc.repo.Save(ctx, &next)
	if err != nil {
		span.RecordError(err)
		unpersisted(ctx, "update", &next, err)
		return nil, errors.Wrap(err, "failed to save property")
	}

	uc.publish(ctx, domain.EventPropertyUpdated, &next)
	return &next, nil
}

// SetAvailability flips the availability flag. Callers are trusted to have
// authorized the request.
func (uc *PropertyUsecase) SetAvailability(ctx context.Context, id int64, available bool) error {
	ctx, span := tracer.Start(ctx, "Property.Usecase.SetAvailability")
	defer span.End()

	property, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	// a delisted property stays unavailable
	if available && !property.IsActive {
		return domain.ErrDelisted
	}

	property.IsAvailable = available
	err = uc.repo.Save(ctx, property)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to save property")
	}

	uc.publish(ctx, domain.EventPropertyAvailability, property)
	return nil
}

// Delete soft-deletes a property: it is delisted on chain first, then marked
// inactive and unavailable.
func (uc *PropertyUsecase) Delete(ctx context.Context, id int64, callerWallet string) error {
	ctx, span := tracer.Start(ctx, "Property.Usecase.Delete")
	defer span.End()
	span.SetAttributes(attribute.Int64("PropertyId", id))

	property, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if !isOwner(property, callerWallet) {
		return domain.ErrNotAuthorized
	}

	if property.OnChainID != nil {
		err = uc.ledger.DelistProperty(ctx, *property.OnChainID)
		if err != nil {
			span.RecordError(err)
			uc.metrics.LedgerFailed("delist")
			return errors.Wrap(errors.WithMessage(domain.ErrLedger, err.Error()), "Property.Usecase.Delete")
		}
	}

	property.IsActive = false
	property.IsAvailable = false
	property.UpdatedAt = uc.now()
	err = uc.repo.Save(ctx, property)
	if err != nil {
		span.RecordError(err)
		if property.OnChainID != nil {
			unpersisted(ctx, "delist", property, err)
		}
		return errors.Wrap(err, "failed to save property")
	}

	uc.publish(ctx, domain.EventPropertyDelisted, property)
	return nil
}

// AddImage uploads an image for the owner's property and records its URL.
func (uc *PropertyUsecase) AddImage(ctx context.Context, id int64, callerWallet, filename, contentType string, content []byte) (*domain.Property, error) {
	ctx, span := tracer.Start(ctx, "Property.Usecase.AddImage")
	defer span.End()

	if len(content) == 0 {
		return nil, errors.Wrap(domain.ErrInvalidInput, "empty image")
	}

	property, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !isOwner(property, callerWallet) {
		return nil, domain.ErrNotAuthorized
	}

	name := path.Join("properties", uuid.NewString()+strings.ToLower(path.Ext(filename)))
	url, err := uc.images.Upload(ctx, name, contentType, content)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(errors.WithMessage(domain.ErrCollaboratorUnavailable, err.Error()), "image upload failed")
	}

	property.Images = append(property.Images, url)
	property.UpdatedAt = uc.now()
	err = uc.repo.Save(ctx, property)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to save property")
	}
	return property, nil
}

func (uc *PropertyUsecase) Get(ctx context.Context, id int64) (*domain.Property, error) {
	return uc.repo.FindByID(ctx, id)
}

func (uc *PropertyUsecase) List(ctx context.Context) ([]domain.Property, error) {
	return uc.repo.FindAll(ctx)
}

func (uc *PropertyUsecase) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Property, error) {
	return uc.repo.FindByOwnerID(ctx, ownerID)
}

// MostRecent returns the newest active and available listings.
func (uc *PropertyUsecase) MostRecent(ctx context.Context) ([]domain.Property, error) {
	return uc.repo.FindMostRecentAvailable(ctx, mostRecentLimit)
}

func (uc *PropertyUsecase) Search(ctx context.Context, filter domain.PropertyFilter) ([]domain.Property, error) {
	if filter.MinRent != nil && filter.MaxRent != nil && filter.MinRent.Cmp(filter.MaxRent) > 0 {
		return nil, errors.Wrap(domain.ErrInvalidInput, "minRent exceeds maxRent")
	}
	return uc.repo.Search(ctx, filter)
}

func (uc *PropertyUsecase) IsAvailable(ctx context.Context, id int64) (bool, error) {
	property, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return property.IsAvailable, nil
}

func (uc *PropertyUsecase) TypeOfRental(ctx context.Context, id int64) (domain.TypeOfRental, error) {
	property, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return property.TypeOfRental, nil
}

// publish is best effort: the change is already committed.
func (uc *PropertyUsecase) publish(ctx context.Context, eventType string, property *domain.Property) {
	if uc.events == nil {
		return
	}
	err := uc.events.Publish(ctx, domain.NewPropertyEvent(eventType, property))
	if err != nil {
		slog.WarnContext(
			ctx, "Failed to publish property event",
			slog.String("type", eventType),
			slog.Int64("propertyId", property.ID),
			slog.String("error", err.Error()),
			slog.String("module", "property"),
		)
	}
}

// unpersisted reports a mined ledger transaction whose off-chain write failed.
// The chain is ahead of storage until the record is reconciled.
func unpersisted(ctx context.Context, operation string, property *domain.Property, err error) {
	slog.ErrorContext(
		ctx, "ledger transaction mined but property not persisted",
		slog.String("operation", operation),
		slog.Int64("propertyId", property.ID),
		slog.Int64("onChainId", *property.OnChainID),
		slog.String("error", err.Error()),
		slog.String("module", "property"),
	)
}

func isOwner(property *domain.Property, wallet string) bool {
	return wallet != "" && strings.EqualFold(property.OwnerEthAddress, wallet)
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/lsiproject/propertyhub/internal/domain"
	"github.com/lsiproject/propertyhub/internal/infra/database/models"
)

type PropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

func (r *PropertyRepository) Create(ctx context.Context, property *domain.Property) error {
	m := toModel(property)
	err := r.db.WithContext(ctx).Create(&m).Error
	if err != nil {
		return err
	}
	property.ID = m.ID
	property.CreatedAt = m.CreatedAt
	property.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *PropertyRepository) Save(ctx context.Context, property *domain.Property) error {
	m := toModel(property)
	err := r.db.WithContext(ctx).Save(&m).Error
	if err != nil {
		return err
	}
	property.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *PropertyRepository) FindByID(ctx context.Context, id int64) (*domain.Property, error) {
	var m models.Property
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError{Resource: "property"}
		}
		return nil, err
	}
	p := toDomain(m)
	return &p, nil
}

func (r *PropertyRepository) FindAll(ctx context.Context) ([]domain.Property, error) {
	var rows []models.Property
	err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(rows), nil
}

func (r *PropertyRepository) FindByOwnerID(ctx context.Context, ownerID int64) ([]domain.Property, error) {
	var rows []models.Property
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(rows), nil
}

// FindByIDs returns the matching properties in no particular order.
func (r *PropertyRepository) FindByIDs(ctx context.Context, ids []int64) ([]domain.Property, error) {
	if len(ids) == 0 {
		return []domain.Property{}, nil
	}
	var rows []models.Property
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(rows), nil
}

func (r *PropertyRepository) FindMostRecentAvailable(ctx context.Context, limit int) ([]domain.Property, error) {
	var rows []models.Property
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND is_available = ?", true, true).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(rows), nil
}

func (r *PropertyRepository) Search(ctx context.Context, filter domain.PropertyFilter) ([]domain.Property, error) {
	q := r.db.WithContext(ctx).Model(&models.Property{})

	if !filter.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if filter.OnlyAvailable {
		q = q.Where("is_available = ?", true)
	}
	if city := strings.TrimSpace(filter.City); city != "" {
		q = q.Where("LOWER(city) = ?", strings.ToLower(city))
	}
	if country := strings.TrimSpace(filter.Country); country != "" {
		q = q.Where("LOWER(country) = ?", strings.ToLower(country))
	}
	if filter.TypeOfRental != "" {
		q = q.Where("type_of_rental = ?", string(filter.TypeOfRental))
	}
	if filter.TypeOfProperty != "" {
		q = q.Where("type_of_property = ?", filter.TypeOfProperty)
	}
	if filter.MinRent != nil {
		q = q.Where("rent_amount >= ?", models.NewBigInt(filter.MinRent))
	}
	if filter.MaxRent != nil {
		q = q.Where("rent_amount <= ?", models.NewBigInt(filter.MaxRent))
	}
	if filter.MinRooms > 0 {
		q = q.Where("total_rooms >= ?", filter.MinRooms)
	}
	if filter.MinSqM > 0 {
		q = q.Where("sq_m >= ?", filter.MinSqM)
	}
	if filter.MaxSqM > 0 {
		q = q.Where("sq_m <= ?", filter.MaxSqM)
	}
	if b := filter.Bounds; b != nil {
		q = q.Where("latitude BETWEEN ? AND ?", b.MinLatitude, b.MaxLatitude).
			Where("longitude BETWEEN ? AND ?", b.MinLongitude, b.MaxLongitude)
	}

	var rows []models.Property
	err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(rows), nil
}

func toModel(p *domain.Property) models.Property {
	return models.Property{
		ID:              p.ID,
		OnChainID:       p.OnChainID,
		OwnerID:         p.OwnerID,
		OwnerEthAddress: p.OwnerEthAddress,
		Title:           p.Title,
		Country:         p.Country,
		City:            p.City,
		Address:         p.Address,
		Description:     p.Description,
		Latitude:        p.Latitude,
		Longitude:       p.Longitude,
		SqM:             p.SqM,
		TotalRooms:      p.TotalRooms,
		TypeOfRental:    string(p.TypeOfRental),
		TypeOfProperty:  p.TypeOfProperty,
		RentAmount:      models.NewBigInt(p.RentAmount),
		SecurityDeposit: models.NewBigInt(p.SecurityDeposit),
		IsActive:        p.IsActive,
		IsAvailable:     p.IsAvailable,
		Images:          p.Images,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toDomain(m models.Property) domain.Property {
	images := m.Images
	if images == nil {
		images = []string{}
	}
	return domain.Property{
		ID:              m.ID,
		OnChainID:       m.OnChainID,
		OwnerID:         m.OwnerID,
		OwnerEthAddress: m.OwnerEthAddress,
		Title:           m.Title,
		Country:         m.Country,
		City:            m.City,
		Address:         m.Address,
		Description:     m.Description,
		Latitude:        m.Latitude,
		Longitude:       m.Longitude,
		SqM:             m.SqM,
		TotalRooms:      m.TotalRooms,
		TypeOfRental:    domain.TypeOfRental(m.TypeOfRental),
		TypeOfProperty:  m.TypeOfProperty,
		RentAmount:      m.RentAmount.Int,
		SecurityDeposit: m.SecurityDeposit.Int,
		IsActive:        m.IsActive,
		IsAvailable:     m.IsAvailable,
		Images:          images,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toDomainList(rows []models.Property) []domain.Property {
	result := make([]domain.Property, 0, len(rows))
	for _, m := range rows {
		result = append(result, toDomain(m))
	}
	return result
}

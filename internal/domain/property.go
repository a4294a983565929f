package domain

import (
	"math/big"
	"time"
)

type TypeOfRental string

const (
	RentalMonthly TypeOfRental = "MONTHLY"
	RentalDaily   TypeOfRental = "DAILY"
)

func (t TypeOfRental) Valid() bool {
	return t == RentalMonthly || t == RentalDaily
}

// Property is the off-chain record of a listing.
type Property struct {
	ID              int64        `json:"idProperty"`
	OnChainID       *int64       `json:"onChainId"`
	OwnerID         int64        `json:"ownerId"`
	OwnerEthAddress string       `json:"ownerEthAddress"`
	Title           string       `json:"title"`
	Country         string       `json:"country"`
	City            string       `json:"city"`
	Address         string       `json:"address"`
	Description     string       `json:"description"`
	Latitude        float64      `json:"latitude"`
	Longitude       float64      `json:"longitude"`
	SqM             float64      `json:"sqM"`
	TotalRooms      int          `json:"totalRooms"`
	TypeOfRental    TypeOfRental `json:"typeOfRental"`
	TypeOfProperty  string       `json:"typeOfProperty"`
	RentAmount      *big.Int     `json:"rentAmount"`
	SecurityDeposit *big.Int     `json:"securityDeposit"`
	IsActive        bool         `json:"isActive"`
	IsAvailable     bool         `json:"isAvailable"`
	Images          []string     `json:"images"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// PropertyInput carries the fields of a new listing.
type PropertyInput struct {
	OnChainID       *int64       `json:"onChainId"`
	Title           string       `json:"title"`
	Country         string       `json:"country"`
	City            string       `json:"city"`
	Address         string       `json:"address"`
	Description     string       `json:"description"`
	Latitude        float64      `json:"latitude"`
	Longitude       float64      `json:"longitude"`
	SqM             float64      `json:"sqM"`
	TotalRooms      int          `json:"totalRooms"`
	TypeOfRental    TypeOfRental `json:"typeOfRental"`
	TypeOfProperty  string       `json:"typeOfProperty"`
	RentAmount      *big.Int     `json:"rentAmount"`
	SecurityDeposit *big.Int     `json:"securityDeposit"`
}

// PropertyUpdate is a partial update. Nil fields are left untouched.
type PropertyUpdate struct {
	Title           *string       `json:"title"`
	Country         *string       `json:"country"`
	City            *string       `json:"city"`
	Address         *string       `json:"address"`
	Description     *string       `json:"description"`
	TypeOfProperty  *string       `json:"typeOfProperty"`
	SqM             *float64      `json:"sqM"`
	TotalRooms      *int          `json:"totalRooms"`
	RentAmount      *big.Int      `json:"rentAmount"`
	SecurityDeposit *big.Int      `json:"securityDeposit"`
	TypeOfRental    *TypeOfRental `json:"typeOfRental"`
	IsAvailable     *bool         `json:"isAvailable"`
}

// Apply copies every non-nil field of u onto p.
func (u PropertyUpdate) Apply(p *Property) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Country != nil {
		p.Country = *u.Country
	}
	if u.City != nil {
		p.City = *u.City
	}
	if u.Address != nil {
		p.Address = *u.Address
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.TypeOfProperty != nil {
		p.TypeOfProperty = *u.TypeOfProperty
	}
	if u.SqM != nil {
		p.SqM = *u.SqM
	}
	if u.TotalRooms != nil {
		p.TotalRooms = *u.TotalRooms
	}
	if u.RentAmount != nil {
		p.RentAmount = new(big.Int).Set(u.RentAmount)
	}
	if u.SecurityDeposit != nil {
		p.SecurityDeposit = new(big.Int).Set(u.SecurityDeposit)
	}
	if u.TypeOfRental != nil {
		p.TypeOfRental = *u.TypeOfRental
	}
	if u.IsAvailable != nil {
		p.IsAvailable = *u.IsAvailable
	}
}

// PropertyFilter describes a search. Zero values mean "no constraint".
type PropertyFilter struct {
	City           string
	Country        string
	TypeOfRental   TypeOfRental
	TypeOfProperty string
	MinRent        *big.Int
	MaxRent        *big.Int
	MinRooms       int
	MinSqM         float64
	MaxSqM         float64
	Bounds         *GeoBounds
	OnlyAvailable  bool

	// IncludeInactive also returns delisted properties.
	IncludeInactive bool
}

type GeoBounds struct {
	MinLatitude  float64
	MaxLatitude  float64
	MinLongitude float64
	MaxLongitude float64
}

func (b GeoBounds) Contains(lat, lng float64) bool {
	return lat >= b.MinLatitude && lat <= b.MaxLatitude &&
		lng >= b.MinLongitude && lng <= b.MaxLongitude
}

// LedgerUpdate is the on-chain projection of a property update.
type LedgerUpdate struct {
	OnChainID       int64
	RentAmount      *big.Int
	SecurityDeposit *big.Int
	IsAvailable     bool
}

const (
	EventPropertyListed       = "property.listed"
	EventPropertyUpdated      = "property.updated"
	EventPropertyAvailability = "property.availability"
	EventPropertyDelisted     = "property.delisted"
)

// PropertyEvent is published after a lifecycle change is committed.
type PropertyEvent struct {
	Type        string    `json:"type"`
	PropertyID  int64     `json:"propertyId"`
	OnChainID   *int64    `json:"onChainId,omitempty"`
	Owner       string    `json:"owner"`
	IsActive    bool      `json:"isActive"`
	IsAvailable bool      `json:"isAvailable"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewPropertyEvent(eventType string, p *Property) PropertyEvent {
	return PropertyEvent{
		Type:        eventType,
		PropertyID:  p.ID,
		OnChainID:   p.OnChainID,
		Owner:       p.OwnerEthAddress,
		IsActive:    p.IsActive,
		IsAvailable: p.IsAvailable,
		Timestamp:   time.Now().UTC(),
	}
}

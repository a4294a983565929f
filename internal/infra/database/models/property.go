package models

import (
	"time"
)

type Property struct {
	ID              int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	OnChainID       *int64    `json:"onChainId" gorm:"uniqueIndex"`
	OwnerID         int64     `json:"ownerId" gorm:"not null;index"`
	OwnerEthAddress string    `json:"ownerEthAddress" gorm:"type:text;not null;index"`
	Title           string    `json:"title" gorm:"type:text;not null"`
	Country         string    `json:"country" gorm:"type:text"`
	City            string    `json:"city" gorm:"type:text;index"`
	Address         string    `json:"address" gorm:"type:text"`
	Description     string    `json:"description" gorm:"type:text"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	SqM             float64   `json:"sqM"`
	TotalRooms      int       `json:"totalRooms"`
	TypeOfRental    string    `json:"typeOfRental" gorm:"type:text;index"`
	TypeOfProperty  string    `json:"typeOfProperty" gorm:"type:text"`
	RentAmount      BigInt    `json:"rentAmount" gorm:"type:numeric(78,0)"`
	SecurityDeposit BigInt    `json:"securityDeposit" gorm:"type:numeric(78,0)"`
	IsActive        bool      `json:"isActive" gorm:"not null;index"`
	IsAvailable     bool      `json:"isAvailable" gorm:"not null"`
	Images          []string  `json:"images" gorm:"type:text;serializer:json"`
	CreatedAt       time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

package repository

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsiproject/propertyhub/internal/domain"
	"github.com/lsiproject/propertyhub/internal/infra/database"
)

func newTestRepository(t *testing.T) *PropertyRepository {
	t.Helper()
	db, err := database.NewSQLite(filepath.Join(t.TempDir(), "propertyhub_test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return NewPropertyRepository(db)
}

func seed(t *testing.T, repo *PropertyRepository, p domain.Property) domain.Property {
	t.Helper()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	p.UpdatedAt = p.CreatedAt
	if p.OwnerEthAddress == "" {
		p.OwnerEthAddress = "0xowner"
	}
	if p.TypeOfRental == "" {
		p.TypeOfRental = domain.RentalMonthly
	}
	require.NoError(t, repo.Create(context.Background(), &p))
	return p
}

func TestPropertyRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	onChain := int64(12)

	created := seed(t, repo, domain.Property{
		OnChainID:       &onChain,
		OwnerID:         3,
		Title:           "Riad",
		City:            "Marrakech",
		RentAmount:      big.NewInt(1_000_000_000),
		SecurityDeposit: big.NewInt(2_000_000_000),
		TotalRooms:      4,
		SqM:             120.5,
		IsActive:        true,
		IsAvailable:     true,
		Images:          []string{"https://cdn.example/a.jpg"},
	})
	assert.NotZero(t, created.ID)

	got, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Riad", got.Title)
	assert.Equal(t, int64(12), *got.OnChainID)
	assert.Equal(t, "1000000000", got.RentAmount.String())
	assert.Equal(t, "2000000000", got.SecurityDeposit.String())
	assert.Equal(t, []string{"https://cdn.example/a.jpg"}, got.Images)
	assert.Equal(t, 120.5, got.SqM)
	assert.True(t, got.IsActive)
	assert.True(t, got.IsAvailable)

	got.IsAvailable = false
	got.IsActive = false
	got.Title = "Riad (closed)"
	require.NoError(t, repo.Save(ctx, got))

	again, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Riad (closed)", again.Title)
	assert.False(t, again.IsAvailable)
	assert.False(t, again.IsActive)
}

func TestPropertyNilAmountsAndImages(t *testing.T) {
	repo := newTestRepository(t)

	created := seed(t, repo, domain.Property{OwnerID: 1, Title: "Studio", IsActive: true})

	got, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.RentAmount)
	assert.Nil(t, got.OnChainID)
	assert.NotNil(t, got.Images)
	assert.Empty(t, got.Images)
}

func TestPropertyFindByIDNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.FindByID(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPropertyListings(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a := seed(t, repo, domain.Property{OwnerID: 1, Title: "a", IsActive: true, IsAvailable: true, CreatedAt: base})
	b := seed(t, repo, domain.Property{OwnerID: 2, Title: "b", IsActive: true, IsAvailable: true, CreatedAt: base.Add(time.Hour)})
	c := seed(t, repo, domain.Property{OwnerID: 1, Title: "c", IsActive: true, IsAvailable: false, CreatedAt: base.Add(2 * time.Hour)})
	d := seed(t, repo, domain.Property{OwnerID: 1, Title: "d", IsActive: true, IsAvailable: true, CreatedAt: base.Add(3 * time.Hour)})
	e := seed(t, repo, domain.Property{OwnerID: 2, Title: "e", IsActive: true, IsAvailable: true, CreatedAt: base.Add(4 * time.Hour)})

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	mine, err := repo.FindByOwnerID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, c.ID, d.ID}, ids(mine))

	recent, err := repo.FindMostRecentAvailable(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{e.ID, d.ID, b.ID}, ids(recent))

	some, err := repo.FindByIDs(ctx, []int64{b.ID, 999, a.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{a.ID, b.ID}, ids(some))

	none, err := repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPropertySearch(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	rabat := seed(t, repo, domain.Property{
		OwnerID: 1, Title: "rabat", City: "Rabat", Country: "Morocco",
		RentAmount: big.NewInt(500), TotalRooms: 2, SqM: 60,
		Latitude: 34.02, Longitude: -6.83,
		IsActive: true, IsAvailable: true,
	})
	casa := seed(t, repo, domain.Property{
		OwnerID: 1, Title: "casa", City: "Casablanca", Country: "Morocco",
		RentAmount: big.NewInt(900), TotalRooms: 4, SqM: 140,
		TypeOfRental: domain.RentalDaily,
		Latitude: 33.57, Longitude: -7.59,
		IsActive: true, IsAvailable: false,
	})
	delisted := seed(t, repo, domain.Property{
		OwnerID: 1, Title: "gone", City: "Rabat", Country: "Morocco",
		RentAmount: big.NewInt(100),
		IsActive: false, IsAvailable: false,
	})

	tests := []struct {
		name   string
		filter domain.PropertyFilter
		want   []int64
	}{
		{"all active", domain.PropertyFilter{}, []int64{rabat.ID, casa.ID}},
		{"include inactive", domain.PropertyFilter{IncludeInactive: true}, []int64{rabat.ID, casa.ID, delisted.ID}},
		{"city is case insensitive", domain.PropertyFilter{City: "rabat"}, []int64{rabat.ID}},
		{"only available", domain.PropertyFilter{OnlyAvailable: true}, []int64{rabat.ID}},
		{"rental type", domain.PropertyFilter{TypeOfRental: domain.RentalDaily}, []int64{casa.ID}},
		{"rent range", domain.PropertyFilter{MinRent: big.NewInt(600), MaxRent: big.NewInt(1000)}, []int64{casa.ID}},
		{"max rent", domain.PropertyFilter{MaxRent: big.NewInt(500)}, []int64{rabat.ID}},
		{"rooms", domain.PropertyFilter{MinRooms: 3}, []int64{casa.ID}},
		{"surface", domain.PropertyFilter{MinSqM: 50, MaxSqM: 100}, []int64{rabat.ID}},
		{"bounds", domain.PropertyFilter{Bounds: &domain.GeoBounds{
			MinLatitude: 33.9, MaxLatitude: 34.1, MinLongitude: -7, MaxLongitude: -6.5,
		}}, []int64{rabat.ID}},
		{"no match", domain.PropertyFilter{Country: "France"}, []int64{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.Search(ctx, tc.filter)
			require.NoError(t, err)
			assert.ElementsMatch(t, tc.want, ids(got))
		})
	}
}

func ids(props []domain.Property) []int64 {
	out := make([]int64, 0, len(props))
	for _, p := range props {
		out = append(out, p.ID)
	}
	return out
}

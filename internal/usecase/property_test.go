package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsiproject/propertyhub/internal/domain"
)

const ownerWallet = "0xAbCdEf0000000000000000000000000000000001"

func ptr[T any](v T) *T { return &v }

func listedProperty(id int64) domain.Property {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.Property{
		ID:              id,
		OnChainID:       ptr(id + 100),
		OwnerID:         1,
		OwnerEthAddress: ownerWallet,
		Title:           "Flat",
		City:            "Rabat",
		RentAmount:      big.NewInt(500),
		SecurityDeposit: big.NewInt(1000),
		TypeOfRental:    domain.RentalMonthly,
		IsActive:        true,
		IsAvailable:     true,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
}

func newPropertyUsecase(repo *mockPropertyRepo, ledger *mockLedger, pub *mockPublisher) *PropertyUsecase {
	var events EventPublisher
	if pub != nil {
		events = pub
	}
	return NewPropertyUsecase(repo, ledger, events, &mockImageStore{}, nil)
}

func ownerPrincipal(t *testing.T) *domain.Principal {
	t.Helper()
	p, err := domain.NewPrincipal(1, ownerWallet, []string{domain.RoleOwner})
	require.NoError(t, err)
	return p
}

func TestPropertyCreate(t *testing.T) {
	repo := newMockPropertyRepo()
	pub := &mockPublisher{}
	uc := newPropertyUsecase(repo, &mockLedger{}, pub)

	p, err := uc.Create(context.Background(), ownerPrincipal(t), domain.PropertyInput{
		OnChainID:    ptr(int64(9)),
		Title:        "Loft",
		City:         "Casablanca",
		TypeOfRental: domain.RentalDaily,
		RentAmount:   big.NewInt(42),
	})
	require.NoError(t, err)

	assert.NotZero(t, p.ID)
	assert.True(t, p.IsActive)
	assert.True(t, p.IsAvailable)
	assert.Equal(t, ownerWallet, p.OwnerEthAddress)
	assert.Equal(t, int64(1), p.OwnerID)
	assert.Equal(t, int64(9), *p.OnChainID)
	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.EventPropertyListed, pub.events[0].Type)
}

func TestPropertyCreateRejectsBadInput(t *testing.T) {
	uc := newPropertyUsecase(newMockPropertyRepo(), &mockLedger{}, nil)

	_, err := uc.Create(context.Background(), ownerPrincipal(t), domain.PropertyInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(context.Background(), ownerPrincipal(t), domain.PropertyInput{Title: "x", TypeOfRental: "WEEKLY"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPropertyUpdatePartial(t *testing.T) {
	repo := newMockPropertyRepo(listedProperty(1))
	ledger := &mockLedger{}
	uc := newPropertyUsecase(repo, ledger, &mockPublisher{})

	updated, err := uc.Update(context.Background(), 1, domain.PropertyUpdate{
		Title:      ptr("Penthouse"),
		RentAmount: big.NewInt(900),
	}, ownerWallet)
	require.NoError(t, err)

	assert.Equal(t, "Penthouse", updated.Title)
	assert.Equal(t, "Rabat", updated.City)
	assert.Equal(t, int64(900), updated.RentAmount.Int64())
	assert.Equal(t, int64(1000), updated.SecurityDeposit.Int64())
	assert.True(t, updated.UpdatedAt.After(listedProperty(1).UpdatedAt))

	require.Len(t, ledger.updates, 1)
	assert.Equal(t, int64(101), ledger.updates[0].OnChainID)
	assert.Equal(t, int64(900), ledger.updates[0].RentAmount.Int64())
	assert.Equal(t, 1, repo.saves)

	stored, _ := repo.FindByID(context.Background(), 1)
	assert.Equal(t, "Penthouse", stored.Title)
}

func TestPropertyUpdateCaseInsensitiveOwner(t *testing.T) {
	repo := newMockPropertyRepo(listedProperty(1))
	uc := newPropertyUsecase(repo, &mockLedger{}, nil)

	_, err := uc.Update(context.Background(), 1, domain.PropertyUpdate{City: ptr("Fes")}, "0xabcdef0000000000000000000000000000000001")
	require.NoError(t, err)
}

func TestPropertyUpdateNotOwner(t *testing.T) {
	repo := newMockPropertyRepo(listedProperty(1))
	ledger := &mockLedger{}
	uc := newPropertyUsecase(repo, ledger, nil)

	_, err := uc.Update(context.Background(), 1, domain.PropertyUpdate{City: ptr("Fes")}, "0xSomeoneElse")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	assert.Zero(t, repo.saves)
	assert.Empty(t, ledger.updates)
}

func TestPropertyUpdateNotYetListed(t *testing.T) {
	prop := listedProperty(1)
	prop.OnChainID = nil
	repo := newMockPropertyRepo(prop)
	ledger := &mockLedger{}
	uc := newPropertyUsecase(repo, ledger, nil)

	_, err := uc.Update(context.Background(), 1, domain.PropertyUpdate{Title: ptr("Changed")}, ownerWallet)
	assert.ErrorIs(t, err, domain.ErrNotYetListed)
	assert.Zero(t, repo.saves)
	assert.Empty(t, ledger.updates)

	stored, _ := repo.FindByID(context.Background(), 1)
	assert.Equal(t, "Flat", stored.Title)
}

func TestPropertyUpdateNotFound(t *testing.T) {
	uc := newPropertyUsecase(newMockPropertyRepo(), &mockLedger{}, nil)

	_, err := uc.Update(context.Background(), 7, domain.PropertyUpdate{}, ownerWallet)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPropertyUpdateLedgerFailureDoesNotPersist(t *testing.T) {
	repo := newMockPropertyRepo(listedProperty(1))
	ledger := &mockLedger{err: errors.New("execution reverted")}
	pub := &mockPublisher{}
	uc := newPropertyUsecase(repo, ledger, pub)

	_, err := uc.Update(context.Background(), 1, domain.PropertyUpdate{Title: ptr("Changed")}, ownerWallet)
	assert.ErrorIs(t, err, domain.ErrLedger)
	assert.Contains(t, err.Error(), "execution reverted")
	assert.Zero(t, repo.saves)
	assert.Empty(t, pub.events)

	stored, _ := repo.FindByID(context.Background(), 1)
	assert.Equal(t, "Flat", stored.Title)
}

func TestPropertyUpdateDelistedRejected(t *testing.T) {
	deleted := listedProperty(1)
	deleted.IsActive = false
	deleted.IsAvailable = false
	repo := newMockPropertyRepo(deleted)
	ledger := &mockLedger{}
	uc := newPropertyUsecase(repo, ledger, nil)

	_, err := uc.Update(context.Background(), 1, domain.PropertyUpdate{IsAvailable: ptr(true)}, ownerWallet)
	assert.ErrorIs(t, err, domain.ErrDelisted)
	assert.Empty(t, ledger.updates)
	assert.Zero(t, repo.saves)

	stored, _ := repo.FindByID(context.Background(), 1)
	assert.False(t, stored.IsAvailable)
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func errorRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var rec map[string]any
		require.NoError(t, dec.Decode(&rec))
		if rec["level"] == "ERROR" {
			records = append(records, rec)
		}
	}
	return records
}

func TestPropertyUpdateSaveFailureAfterLedgerIsLogged(t *testing.T) {
	logs := captureLogs(t)
	repo := newMockPropertyRepo(listedProperty(1))
	repo.saveErr = errors.New("connection reset")
	ledger := &mockLedger{}
	uc := newPropertyUsecase(repo, ledger, nil)

	_, err := uc.Update(context.Background(), 1, domain.PropertyUpdate{Title: ptr("Changed")}, ownerWallet)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrLedger)
	require.Len(t, ledger.updates, 1)

	records := errorRecords(t, logs)
	require.Len(t, records, 1)
	assert.Equal(t, "update", records[0]["operation"])
	assert.Equal(t, float64(101), records[0]["onChainId"])
	assert.Equal(t, float64(1), records[0]["propertyId"])
}

func TestDeleteSaveFailureAfterLedgerIsLogged(t *testing.T) {
	logs := captureLogs(t)
	repo := newMockPropertyRepo(listedProperty(1))
	repo.saveErr = errors.New("connection reset")
	ledger := &mockLedger{}
	uc := newPropertyUsecase(repo, ledger, nil)

	require.Error(t, uc.Delete(context.Background(), 1, ownerWallet))
	assert.Equal(t, []int64{101}, ledger.delists)

	records := errorRecords(t, logs)
	require.Len(t, records, 1)
	assert.Equal(t, "delist", records[0]["operation"])
	assert.Equal(t, float64(101), records[0]["onChainId"])
}

func TestSetAvailabilityIdempotent(t *testing.T) {
	repo := newMockPropertyRepo(listedProperty(1))
	uc := newPropertyUsecase(repo, &mockLedger{}, nil)

	require.NoError(t, uc.SetAvailability(context.Background(), 1, false))
	require.NoError(t, uc.SetAvailability(context.Background(), 1, false))

	stored, _ := repo.FindByID(context.Background(), 1)
	assert.False(t, stored.IsAvailable)
	assert.True(t, stored.IsActive)

	require.NoError(t, uc.SetAvailability(context.Background(), 1, true))
	stored, _ = repo.FindByID(context.Background(), 1)
	assert.True(t, stored.IsAvailable)
}

func TestSetAvailabilityNotFound(t *testing.T) {
	uc := newPropertyUsecase(newMockPropertyRepo(), &mockLedger{}, nil)
	err := uc.SetAvailability(context.Background(), 3, true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetAvailabilityDelistedStaysUnavailable(t *testing.T) {
	deleted := listedProperty(1)
	deleted.IsActive = false
	deleted.IsAvailable = false
	repo := newMockPropertyRepo(deleted)
	uc := newPropertyUsecase(repo, &mockLedger{}, nil)

	err := uc.SetAvailability(context.Background(), 1, true)
	assert.ErrorIs(t, err, domain.ErrDelisted)

	require.NoError(t, uc.SetAvailability(context.Background(), 1, false))
	stored, _ := repo.FindByID(context.Background(), 1)
	assert.False(t, stored.IsActive)
	assert.False(t, stored.IsAvailable)
}

func TestDeleteClearsBothFlags(t *testing.T) {
	unlisted := listedProperty(2)
	unlisted.OnChainID = nil
	repo := newMockPropertyRepo(listedProperty(1), unlisted)
	ledger := &mockLedger{}
	pub := &mockPublisher{}
	uc := newPropertyUsecase(repo, ledger, pub)

	for _, id := range []int64{1, 2} {
		require.NoError(t, uc.Delete(context.Background(), id, ownerWallet))
		stored, _ := repo.FindByID(context.Background(), id)
		assert.False(t, stored.IsActive, id)
		assert.False(t, stored.IsAvailable, id)
	}

	assert.Equal(t, []int64{101}, ledger.delists)
	require.Len(t, pub.events, 2)
	assert.Equal(t, domain.EventPropertyDelisted, pub.events[0].Type)
}

func TestDeleteNotOwner(t *testing.T) {
	repo := newMockPropertyRepo(listedProperty(1))
	ledger := &mockLedger{}
	uc := newPropertyUsecase(repo, ledger, nil)

	err := uc.Delete(context.Background(), 1, "0xintruder")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	assert.Empty(t, ledger.delists)

	stored, _ := repo.FindByID(context.Background(), 1)
	assert.True(t, stored.IsActive)
}

func TestDeleteLedgerFailureKeepsRecord(t *testing.T) {
	repo := newMockPropertyRepo(listedProperty(1))
	uc := newPropertyUsecase(repo, &mockLedger{err: errors.New("nonce too low")}, nil)

	err := uc.Delete(context.Background(), 1, ownerWallet)
	assert.ErrorIs(t, err, domain.ErrLedger)
	assert.Zero(t, repo.saves)

	stored, _ := repo.FindByID(context.Background(), 1)
	assert.True(t, stored.IsActive)
	assert.True(t, stored.IsAvailable)
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	repo := newMockPropertyRepo(listedProperty(1))
	uc := newPropertyUsecase(repo, &mockLedger{}, &mockPublisher{err: errors.New("redis down")})

	require.NoError(t, uc.SetAvailability(context.Background(), 1, false))
}

func TestAddImage(t *testing.T) {
	repo := newMockPropertyRepo(listedProperty(1))
	images := &mockImageStore{}
	uc := NewPropertyUsecase(repo, &mockLedger{}, nil, images, nil)

	p, err := uc.AddImage(context.Background(), 1, ownerWallet, "Living.JPG", "image/jpeg", []byte{1, 2, 3})
	require.NoError(t, err)
	require.Len(t, p.Images, 1)
	assert.Contains(t, p.Images[0], "properties/")
	assert.Contains(t, p.Images[0], ".jpg")

	_, err = uc.AddImage(context.Background(), 1, "0xother", "a.png", "image/png", []byte{1})
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	_, err = uc.AddImage(context.Background(), 1, ownerWallet, "a.png", "image/png", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	images.err = errors.New("bucket missing")
	_, err = uc.AddImage(context.Background(), 1, ownerWallet, "a.png", "image/png", []byte{1})
	assert.ErrorIs(t, err, domain.ErrCollaboratorUnavailable)
}

func TestReads(t *testing.T) {
	older := listedProperty(1)
	newer := listedProperty(2)
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)
	hidden := listedProperty(3)
	hidden.IsAvailable = false
	other := listedProperty(4)
	other.OwnerID = 9

	repo := newMockPropertyRepo(older, newer, hidden, other)
	uc := newPropertyUsecase(repo, &mockLedger{}, nil)
	ctx := context.Background()

	recent, err := uc.MostRecent(ctx)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, int64(2), recent[0].ID)

	mine, err := uc.ListByOwner(ctx, 9)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(4), mine[0].ID)

	ok, err := uc.IsAvailable(ctx, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = uc.IsAvailable(ctx, 99)
	require.NoError(t, err)
	assert.False(t, ok)

	rt, err := uc.TypeOfRental(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalMonthly, rt)

	_, err = uc.TypeOfRental(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.Search(ctx, domain.PropertyFilter{MinRent: big.NewInt(10), MaxRent: big.NewInt(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

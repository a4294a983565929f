package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/lsiproject/propertyhub/internal/domain"
)

type mockPropertyRepo struct {
	mu        sync.Mutex
	nextID    int64
	items     map[int64]domain.Property
	saves     int
	saveErr   error
	byIDsErr  error
	lastIDs   []int64
}

func newMockPropertyRepo(props ...domain.Property) *mockPropertyRepo {
	m := &mockPropertyRepo{items: map[int64]domain.Property{}}
	for _, p := range props {
		m.items[p.ID] = p
		if p.ID > m.nextID {
			m.nextID = p.ID
		}
	}
	return m
}

func (m *mockPropertyRepo) Create(ctx context.Context, p *domain.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	m.items[p.ID] = *p
	return nil
}

func (m *mockPropertyRepo) Save(ctx context.Context, p *domain.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.items[p.ID] = *p
	return nil
}

func (m *mockPropertyRepo) FindByID(ctx context.Context, id int64) (*domain.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "property"}
	}
	return &p, nil
}

func (m *mockPropertyRepo) sorted() []domain.Property {
	out := make([]domain.Property, 0, len(m.items))
	for _, p := range m.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *mockPropertyRepo) FindAll(ctx context.Context) ([]domain.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(), nil
}

func (m *mockPropertyRepo) FindByOwnerID(ctx context.Context, ownerID int64) ([]domain.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Property
	for _, p := range m.sorted() {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

// FindByIDs returns matches in ascending id order, like a plain IN query.
func (m *mockPropertyRepo) FindByIDs(ctx context.Context, ids []int64) ([]domain.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastIDs = ids
	if m.byIDsErr != nil {
		return nil, m.byIDsErr
	}
	want := map[int64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []domain.Property
	for _, p := range m.sorted() {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPropertyRepo) FindMostRecentAvailable(ctx context.Context, limit int) ([]domain.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Property
	for _, p := range m.sorted() {
		if p.IsActive && p.IsAvailable {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockPropertyRepo) Search(ctx context.Context, filter domain.PropertyFilter) ([]domain.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Property
	for _, p := range m.sorted() {
		if filter.City == "" || filter.City == p.City {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockLedger struct {
	updates []domain.LedgerUpdate
	delists []int64
	err     error
}

func (m *mockLedger) UpdateProperty(ctx context.Context, update domain.LedgerUpdate) error {
	if m.err != nil {
		return m.err
	}
	m.updates = append(m.updates, update)
	return nil
}

func (m *mockLedger) DelistProperty(ctx context.Context, onChainID int64) error {
	if m.err != nil {
		return m.err
	}
	m.delists = append(m.delists, onChainID)
	return nil
}

type mockPublisher struct {
	events []domain.PropertyEvent
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, event domain.PropertyEvent) error {
	m.events = append(m.events, event)
	return m.err
}

type mockImageStore struct {
	names []string
	err   error
}

func (m *mockImageStore) Upload(ctx context.Context, name, contentType string, content []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.names = append(m.names, name)
	return "https://cdn.example/" + name, nil
}

type mockProfiles struct {
	profile *domain.UserProfile
	err     error
	block   bool
	calls   int
}

func (m *mockProfiles) GetUserByID(ctx context.Context, id int64) (*domain.UserProfile, error) {
	m.calls++
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.profile, m.err
}

type mockModel struct {
	response *domain.RecommendationResponse
	err      error
	block    bool
	requests []domain.RecommendationRequest
}

func (m *mockModel) Recommend(ctx context.Context, request domain.RecommendationRequest) (*domain.RecommendationResponse, error) {
	m.requests = append(m.requests, request)
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.response, m.err
}

type mockPrices struct {
	monthly int
	daily   int
	err     error
}

func (m *mockPrices) PredictMonthly(ctx context.Context, request domain.PricePredictionRequest) (*domain.PricePrediction, error) {
	m.monthly++
	if m.err != nil {
		return nil, m.err
	}
	return &domain.PricePrediction{Type: domain.RentalMonthly, PriceWei: 1000, PriceEth: 0.000000000000001}, nil
}

func (m *mockPrices) PredictDaily(ctx context.Context, request domain.PricePredictionRequest) (*domain.PricePrediction, error) {
	m.daily++
	if m.err != nil {
		return nil, m.err
	}
	return &domain.PricePrediction{Type: domain.RentalDaily, PriceWei: 10}, nil
}

type mockHeatmap struct {
	err error
}

func (m *mockHeatmap) Heatmap(ctx context.Context, rentalType domain.TypeOfRental) (*domain.Heatmap, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Heatmap{RentalType: rentalType, Data: []domain.HeatmapPoint{{Neighborhood: "Agdal"}}}, nil
}

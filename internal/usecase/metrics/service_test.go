package metrics

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/custodia-systems/custodia-backend/internal/domain"
)

// MockHoldingRepository is a mock implementation of HoldingRepository for testing
type MockHoldingRepository struct {
	mock.Mock
}

func (m *MockHoldingRepository) Create(ctx context.Context, holding *domain.HoldingRecord) error {
	args := m.Called(ctx, holding)
	return args.Error(0)
}

func (m *MockHoldingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.HoldingRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HoldingRecord), args.Error(1)
}

func (m *MockHoldingRepository) List(ctx context.Context, statuses ...domain.HoldingStatus) ([]*domain.HoldingRecord, error) {
	args := m.Called(ctx, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.HoldingRecord), args.Error(1)
}

func (m *MockHoldingRepository) Update(ctx context.Context, holding *domain.HoldingRecord) error {
	args := m.Called(ctx, holding)
	return args.Error(0)
}

func (m *MockHoldingRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.HoldingStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *MockHoldingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func holdingWith(qty, price, purchase int64, class string, status domain.HoldingStatus) *domain.HoldingRecord {
	return &domain.HoldingRecord{
		ID:            uuid.New(),
		SecurityID:    "US0378331005",
		SecurityName:  "Test Security",
		Quantity:      decimal.NewFromInt(qty),
		Price:         decimal.NewFromInt(price),
		PurchasePrice: decimal.NewFromInt(purchase),
		HasPurchase:   true,
		AssetClass:    class,
		Status:        status,
	}
}

func TestAggregate_GainLossScenario(t *testing.T) {
	// quantity 100, price 150, purchasePrice 140
	h := holdingWith(100, 150, 140, "Equity", domain.HoldingStatusApproved)

	snapshot := Aggregate([]*domain.HoldingRecord{h})

	assert.True(t, snapshot.TotalAUM.Equal(decimal.NewFromInt(15000)))
	assert.True(t, snapshot.TotalGainLoss.Equal(decimal.NewFromInt(1000)))
	// 1000 / 14000 * 100 = 7.142857... -> 7.14
	assert.True(t, snapshot.GainLossPercent.Equal(decimal.NewFromFloat(7.14)),
		"got %s", snapshot.GainLossPercent)
}

func TestAggregate_AssetBreakdown(t *testing.T) {
	equity := holdingWith(100, 150, 150, "Equity", domain.HoldingStatusApproved)
	bond := holdingWith(50, 100, 100, "Bond", domain.HoldingStatusApproved)

	snapshot := Aggregate([]*domain.HoldingRecord{equity, bond})

	assert.True(t, snapshot.TotalAUM.Equal(decimal.NewFromInt(20000)))
	assert.Len(t, snapshot.AssetBreakdown, 2)
	assert.True(t, snapshot.AssetBreakdown["Equity"].Equal(decimal.NewFromInt(15000)))
	assert.True(t, snapshot.AssetBreakdown["Bond"].Equal(decimal.NewFromInt(5000)))
}

func TestAggregate_UnsetAssetClassDefaultsToEquity(t *testing.T) {
	h := holdingWith(10, 100, 100, "", domain.HoldingStatusApproved)

	snapshot := Aggregate([]*domain.HoldingRecord{h})

	assert.True(t, snapshot.AssetBreakdown["Equity"].Equal(decimal.NewFromInt(1000)))
}

func TestAggregate_MissingPurchasePriceMeansZeroGainLoss(t *testing.T) {
	h := holdingWith(100, 150, 0, "Equity", domain.HoldingStatusApproved)
	h.HasPurchase = false

	snapshot := Aggregate([]*domain.HoldingRecord{h})

	assert.True(t, snapshot.TotalAUM.Equal(decimal.NewFromInt(15000)))
	assert.True(t, snapshot.TotalGainLoss.IsZero())
	assert.True(t, snapshot.GainLossPercent.IsZero())
}

func TestAggregate_EmptyHoldings(t *testing.T) {
	snapshot := Aggregate(nil)

	assert.True(t, snapshot.TotalAUM.IsZero())
	assert.True(t, snapshot.TotalGainLoss.IsZero())
	assert.True(t, snapshot.GainLossPercent.IsZero())
	assert.NotNil(t, snapshot.AssetBreakdown)
	assert.Empty(t, snapshot.AssetBreakdown)
}

func TestAggregate_ZeroPurchaseValueYieldsZeroPercent(t *testing.T) {
	// Free position: purchase price recorded as zero. The percent must be
	// defined as zero, never NaN or a division error.
	h := holdingWith(100, 150, 0, "Equity", domain.HoldingStatusApproved)

	snapshot := Aggregate([]*domain.HoldingRecord{h})

	assert.True(t, snapshot.TotalAUM.Equal(decimal.NewFromInt(15000)))
	assert.True(t, snapshot.TotalGainLoss.Equal(decimal.NewFromInt(15000)))
	assert.True(t, snapshot.GainLossPercent.IsZero())
}

func TestCompute_DefaultIncludesAllStatuses(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockHoldingRepository)
	service := NewService(mockRepo)

	holdings := []*domain.HoldingRecord{
		holdingWith(100, 150, 140, "Equity", domain.HoldingStatusApproved),
		holdingWith(10, 100, 100, "Bond", domain.HoldingStatusPending),
		holdingWith(5, 200, 200, "Bond", domain.HoldingStatusRejected),
	}

	// No filter: the repository is asked for every status
	mockRepo.On("List", ctx, []domain.HoldingStatus(nil)).Return(holdings, nil)

	snapshot, err := service.Compute(ctx)

	assert.NoError(t, err)
	// 15000 + 1000 + 1000: pending and rejected holdings count too
	assert.True(t, snapshot.TotalAUM.Equal(decimal.NewFromInt(17000)))
	mockRepo.AssertExpectations(t)
}

func TestCompute_ApprovedOnlyFilter(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockHoldingRepository)
	service := NewService(mockRepo)

	approved := []*domain.HoldingRecord{
		holdingWith(100, 150, 140, "Equity", domain.HoldingStatusApproved),
	}

	mockRepo.On("List", ctx, []domain.HoldingStatus{domain.HoldingStatusApproved}).Return(approved, nil)

	snapshot, err := service.Compute(ctx, domain.HoldingStatusApproved)

	assert.NoError(t, err)
	assert.True(t, snapshot.TotalAUM.Equal(decimal.NewFromInt(15000)))
	mockRepo.AssertExpectations(t)
}

package approval

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/custodia-systems/custodia-backend/internal/adapter/repository/memory"
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

var (
	maker   = domain.Actor{ID: "maker-1", Role: domain.RoleMaker}
	checker = domain.Actor{ID: "checker-1", Role: domain.RoleChecker}
	admin   = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
)

func validSubmitInput() SubmitInput {
	purchase := decimal.NewFromInt(140)
	return SubmitInput{
		SecurityID:    "US0378331005",
		SecurityName:  "Apple Inc.",
		Quantity:      decimal.NewFromInt(100),
		Price:         decimal.NewFromInt(150),
		PurchasePrice: &purchase,
		AssetClass:    "Equity",
	}
}

func TestSubmit_ForcesPendingStatusAndOwner(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockHoldingRepository)
	service := NewService(mockRepo)

	mockRepo.On("Create", ctx, mock.MatchedBy(func(h *domain.HoldingRecord) bool {
		return h.Status == domain.HoldingStatusPending &&
			h.OwnerID == maker.ID &&
			h.ID != uuid.Nil
	})).Return(nil)

	holding, err := service.Submit(ctx, maker, validSubmitInput())

	assert.NoError(t, err)
	assert.Equal(t, domain.HoldingStatusPending, holding.Status)
	assert.Equal(t, maker.ID, holding.OwnerID)
	assert.True(t, holding.HasPurchase)
	mockRepo.AssertExpectations(t)
}

func TestSubmit_InvalidQuantity(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockHoldingRepository)
	service := NewService(mockRepo)

	input := validSubmitInput()
	input.Quantity = decimal.Zero

	_, err := service.Submit(ctx, maker, input)

	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "quantity must be positive")
	mockRepo.AssertNotCalled(t, "Create")
}

func TestSubmit_MalformedISIN(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockHoldingRepository)
	service := NewService(mockRepo)

	input := validSubmitInput()
	input.SecurityID = "US037833100" // 11 chars

	_, err := service.Submit(ctx, maker, input)

	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestSubmit_WithoutPurchasePrice(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockHoldingRepository)
	service := NewService(mockRepo)

	input := validSubmitInput()
	input.PurchasePrice = nil

	mockRepo.On("Create", ctx, mock.MatchedBy(func(h *domain.HoldingRecord) bool {
		return !h.HasPurchase
	})).Return(nil)

	holding, err := service.Submit(ctx, maker, input)

	assert.NoError(t, err)
	assert.False(t, holding.HasPurchase)
	mockRepo.AssertExpectations(t)
}

func TestReview_ApproveSuccess(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockHoldingRepository)
	service := NewService(mockRepo)

	holdingID := uuid.New()
	approved := &domain.HoldingRecord{
		ID:     holdingID,
		Status: domain.HoldingStatusApproved,
	}

	mockRepo.On("TransitionStatus", ctx, holdingID, domain.HoldingStatusPending, domain.HoldingStatusApproved).Return(nil)
	mockRepo.On("GetByID", ctx, holdingID).Return(approved, nil)

	holding, err := service.Review(ctx, checker, holdingID, DecisionApprove)

	assert.NoError(t, err)
	assert.Equal(t, domain.HoldingStatusApproved, holding.Status)
	mockRepo.AssertExpectations(t)
}

func TestReview_MakerIsUnauthorized(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockHoldingRepository)
	service := NewService(mockRepo)

	_, err := service.Review(ctx, maker, uuid.New(), DecisionApprove)

	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	mockRepo.AssertNotCalled(t, "TransitionStatus")
}

func TestReview_SecondReviewFailsInvalidState(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockHoldingRepository)
	service := NewService(mockRepo)

	holdingID := uuid.New()
	stateErr := domain.ErrInvalidState

	// The record already reached a terminal status: the CAS refuses
	mockRepo.On("TransitionStatus", ctx, holdingID, domain.HoldingStatusPending, domain.HoldingStatusRejected).Return(stateErr)

	_, err := service.Review(ctx, admin, holdingID, DecisionReject)

	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	mockRepo.AssertNotCalled(t, "GetByID")
}

func TestReview_UnknownHolding(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockHoldingRepository)
	service := NewService(mockRepo)

	holdingID := uuid.New()
	mockRepo.On("TransitionStatus", ctx, holdingID, domain.HoldingStatusPending, domain.HoldingStatusApproved).Return(domain.ErrNotFound)

	_, err := service.Review(ctx, checker, holdingID, DecisionApprove)

	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReview_UnknownDecision(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockHoldingRepository)
	service := NewService(mockRepo)

	_, err := service.Review(ctx, checker, uuid.New(), Decision("DEFER"))

	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	mockRepo.AssertNotCalled(t, "TransitionStatus")
}

func TestEdit_OwnerCanEditPending(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockHoldingRepository)
	service := NewService(mockRepo)

	holdingID := uuid.New()
	stored := &domain.HoldingRecord{
		ID:           holdingID,
		SecurityID:   "US0378331005",
		SecurityName: "Apple Inc.",
		Quantity:     decimal.NewFromInt(100),
		Price:        decimal.NewFromInt(150),
		Status:       domain.HoldingStatusPending,
		OwnerID:      maker.ID,
	}

	mockRepo.On("GetByID", ctx, holdingID).Return(stored, nil)
	mockRepo.On("Update", ctx, mock.MatchedBy(func(h *domain.HoldingRecord) bool {
		return h.Quantity.Equal(decimal.NewFromInt(250))
	})).Return(nil)

	newQty := decimal.NewFromInt(250)
	holding, err := service.Edit(ctx, maker, holdingID, EditInput{Quantity: &newQty})

	assert.NoError(t, err)
	assert.True(t, holding.Quantity.Equal(newQty))
	mockRepo.AssertExpectations(t)
}

func TestEdit_NonOwnerMakerIsUnauthorized(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockHoldingRepository)
	service := NewService(mockRepo)

	holdingID := uuid.New()
	stored := &domain.HoldingRecord{
		ID:           holdingID,
		SecurityID:   "US0378331005",
		SecurityName: "Apple Inc.",
		Quantity:     decimal.NewFromInt(100),
		Price:        decimal.NewFromInt(150),
		Status:       domain.HoldingStatusPending,
		OwnerID:      "someone-else",
	}

	mockRepo.On("GetByID", ctx, holdingID).Return(stored, nil)

	_, err := service.Edit(ctx, maker, holdingID, EditInput{})

	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	mockRepo.AssertNotCalled(t, "Update")
}

func TestEdit_ApprovedRecordIsImmutable(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockHoldingRepository)
	service := NewService(mockRepo)

	holdingID := uuid.New()
	stored := &domain.HoldingRecord{
		ID:           holdingID,
		SecurityID:   "US0378331005",
		SecurityName: "Apple Inc.",
		Quantity:     decimal.NewFromInt(100),
		Price:        decimal.NewFromInt(150),
		Status:       domain.HoldingStatusApproved,
		OwnerID:      maker.ID,
	}

	mockRepo.On("GetByID", ctx, holdingID).Return(stored, nil)

	_, err := service.Edit(ctx, maker, holdingID, EditInput{})

	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	mockRepo.AssertNotCalled(t, "Update")
}

func TestEdit_AdminMayEditAnyPendingRecord(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockHoldingRepository)
	service := NewService(mockRepo)

	holdingID := uuid.New()
	stored := &domain.HoldingRecord{
		ID:           holdingID,
		SecurityID:   "US0378331005",
		SecurityName: "Apple Inc.",
		Quantity:     decimal.NewFromInt(100),
		Price:        decimal.NewFromInt(150),
		Status:       domain.HoldingStatusPending,
		OwnerID:      "someone-else",
	}

	mockRepo.On("GetByID", ctx, holdingID).Return(stored, nil)
	mockRepo.On("Update", ctx, mock.Anything).Return(nil)

	name := "Apple Inc. (ADR)"
	_, err := service.Edit(ctx, admin, holdingID, EditInput{SecurityName: &name})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestEdit_RejectsInvalidMergedRecord(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockHoldingRepository)
	service := NewService(mockRepo)

	holdingID := uuid.New()
	stored := &domain.HoldingRecord{
		ID:           holdingID,
		SecurityID:   "US0378331005",
		SecurityName: "Apple Inc.",
		Quantity:     decimal.NewFromInt(100),
		Price:        decimal.NewFromInt(150),
		Status:       domain.HoldingStatusPending,
		OwnerID:      maker.ID,
	}

	mockRepo.On("GetByID", ctx, holdingID).Return(stored, nil)

	badQty := decimal.NewFromInt(-10)
	_, err := service.Edit(ctx, maker, holdingID, EditInput{Quantity: &badQty})

	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	mockRepo.AssertNotCalled(t, "Update")
}

// reviewDuringEditRepository lets a review commit between an editor's
// read and its write, reproducing the edit/review interleaving.
type reviewDuringEditRepository struct {
	domain.HoldingRepository
	reviewed bool
}

func (r *reviewDuringEditRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.HoldingRecord, error) {
	holding, err := r.HoldingRepository.GetByID(ctx, id)
	if err != nil || r.reviewed {
		return holding, err
	}
	// The editor now holds a stale pending copy; a checker approves
	r.reviewed = true
	if err := r.HoldingRepository.TransitionStatus(ctx, id, domain.HoldingStatusPending, domain.HoldingStatusApproved); err != nil {
		return nil, err
	}
	return holding, nil
}

func TestEdit_LosesRaceAgainstConcurrentReview(t *testing.T) {
	ctx := context.Background()
	repo := &reviewDuringEditRepository{HoldingRepository: memory.NewHoldingRepository()}
	service := NewService(repo)

	input := validSubmitInput()
	stored, err := service.Submit(ctx, maker, input)
	assert.NoError(t, err)

	newQty := decimal.NewFromInt(999)
	_, err = service.Edit(ctx, maker, stored.ID, EditInput{Quantity: &newQty})

	// The review committed first: the edit must lose, not revert the
	// record to pending
	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	got, err := repo.HoldingRepository.GetByID(ctx, stored.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.HoldingStatusApproved, got.Status)
	assert.True(t, got.Quantity.Equal(decimal.NewFromInt(100)))
}

func TestRemove_AdminOnly(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockHoldingRepository)
	service := NewService(mockRepo)

	err := service.Remove(ctx, checker, uuid.New())

	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	mockRepo.AssertNotCalled(t, "Delete")
}

func TestRemove_AdminDeletesTerminalRecord(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockHoldingRepository)
	service := NewService(mockRepo)

	holdingID := uuid.New()
	stored := &domain.HoldingRecord{
		ID:     holdingID,
		Status: domain.HoldingStatusRejected,
	}

	mockRepo.On("GetByID", ctx, holdingID).Return(stored, nil)
	mockRepo.On("Delete", ctx, holdingID).Return(nil)

	err := service.Remove(ctx, admin, holdingID)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

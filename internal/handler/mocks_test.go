package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"it-asset-tracker/internal/lifecycle"
	"it-asset-tracker/internal/model"
	"it-asset-tracker/internal/service"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// MockAssetService is a function-field mock of AssetService. Unset
// functions return zero values.
type MockAssetService struct {
	CreateAssetFunc            func(ctx context.Context, input model.CreateAssetInput) (*model.Asset, error)
	TransitionFunc             func(ctx context.Context, id uuid.UUID, input model.TransitionInput) (*model.Asset, error)
	EditFieldsFunc             func(ctx context.Context, id uuid.UUID, input model.EditInput) (*model.Asset, error)
	SoftDeleteFunc             func(ctx context.Context, id uuid.UUID) (*model.Asset, error)
	PurgeFunc                  func(ctx context.Context, id uuid.UUID) error
	GetAssetFunc               func(ctx context.Context, id uuid.UUID) (*model.Asset, error)
	ListActiveFunc             func(ctx context.Context) ([]model.Asset, error)
	ListRemovedFunc            func(ctx context.Context) ([]model.Asset, error)
	ListByStatusFunc           func(ctx context.Context, status model.Status) ([]model.Asset, error)
	SummaryFunc                func(ctx context.Context) (model.Summary, error)
	TotalValueFunc             func(ctx context.Context) (float64, error)
	ExpiringWarrantySoonFunc   func(ctx context.Context) ([]model.Asset, error)
	GroupByAssigneeFunc        func(ctx context.Context) ([]model.AssigneeGroup, error)
	ModelGroupsFunc            func(ctx context.Context, status model.Status) ([]model.ModelGroup, error)
	CountByCategoryFunc        func(ctx context.Context, category string) (int, error)
	NextAssetIDFunc            func(ctx context.Context, category string) (string, error)
	RepairDuplicateSerialsFunc func(ctx context.Context) ([]lifecycle.SerialRename, error)
	InventoryWorkbookFunc      func(ctx context.Context) ([]byte, string, error)
	ArchiveInventoryFunc       func(ctx context.Context) (string, error)
}

func (m *MockAssetService) CreateAsset(ctx context.Context, input model.CreateAssetInput) (*model.Asset, error) {
	if m.CreateAssetFunc != nil {
		return m.CreateAssetFunc(ctx, input)
	}
	return &model.Asset{}, nil
}

func (m *MockAssetService) Transition(ctx context.Context, id uuid.UUID, input model.TransitionInput) (*model.Asset, error) {
	if m.TransitionFunc != nil {
		return m.TransitionFunc(ctx, id, input)
	}
	return &model.Asset{ID: id, Status: input.Status}, nil
}

func (m *MockAssetService) EditFields(ctx context.Context, id uuid.UUID, input model.EditInput) (*model.Asset, error) {
	if m.EditFieldsFunc != nil {
		return m.EditFieldsFunc(ctx, id, input)
	}
	return &model.Asset{ID: id}, nil
}

func (m *MockAssetService) SoftDelete(ctx context.Context, id uuid.UUID) (*model.Asset, error) {
	if m.SoftDeleteFunc != nil {
		return m.SoftDeleteFunc(ctx, id)
	}
	return &model.Asset{ID: id, IsDeleted: true}, nil
}

func (m *MockAssetService) Purge(ctx context.Context, id uuid.UUID) error {
	if m.PurgeFunc != nil {
		return m.PurgeFunc(ctx, id)
	}
	return nil
}

func (m *MockAssetService) GetAsset(ctx context.Context, id uuid.UUID) (*model.Asset, error) {
	if m.GetAssetFunc != nil {
		return m.GetAssetFunc(ctx, id)
	}
	return &model.Asset{ID: id}, nil
}

func (m *MockAssetService) ListActive(ctx context.Context) ([]model.Asset, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	return []model.Asset{}, nil
}

func (m *MockAssetService) ListRemoved(ctx context.Context) ([]model.Asset, error) {
	if m.ListRemovedFunc != nil {
		return m.ListRemovedFunc(ctx)
	}
	return []model.Asset{}, nil
}

func (m *MockAssetService) ListByStatus(ctx context.Context, status model.Status) ([]model.Asset, error) {
	if m.ListByStatusFunc != nil {
		return m.ListByStatusFunc(ctx, status)
	}
	return []model.Asset{}, nil
}

func (m *MockAssetService) Summary(ctx context.Context) (model.Summary, error) {
	if m.SummaryFunc != nil {
		return m.SummaryFunc(ctx)
	}
	return model.Summary{}, nil
}

func (m *MockAssetService) TotalValue(ctx context.Context) (float64, error) {
	if m.TotalValueFunc != nil {
		return m.TotalValueFunc(ctx)
	}
	return 0, nil
}

func (m *MockAssetService) ExpiringWarrantySoon(ctx context.Context) ([]model.Asset, error) {
	if m.ExpiringWarrantySoonFunc != nil {
		return m.ExpiringWarrantySoonFunc(ctx)
	}
	return []model.Asset{}, nil
}

func (m *MockAssetService) GroupByAssignee(ctx context.Context) ([]model.AssigneeGroup, error) {
	if m.GroupByAssigneeFunc != nil {
		return m.GroupByAssigneeFunc(ctx)
	}
	return []model.AssigneeGroup{}, nil
}

func (m *MockAssetService) ModelGroups(ctx context.Context, status model.Status) ([]model.ModelGroup, error) {
	if m.ModelGroupsFunc != nil {
		return m.ModelGroupsFunc(ctx, status)
	}
	return []model.ModelGroup{}, nil
}

func (m *MockAssetService) CountByCategory(ctx context.Context, category string) (int, error) {
	if m.CountByCategoryFunc != nil {
		return m.CountByCategoryFunc(ctx, category)
	}
	return 0, nil
}

func (m *MockAssetService) NextAssetID(ctx context.Context, category string) (string, error) {
	if m.NextAssetIDFunc != nil {
		return m.NextAssetIDFunc(ctx, category)
	}
	return "", nil
}

func (m *MockAssetService) RepairDuplicateSerials(ctx context.Context) ([]lifecycle.SerialRename, error) {
	if m.RepairDuplicateSerialsFunc != nil {
		return m.RepairDuplicateSerialsFunc(ctx)
	}
	return []lifecycle.SerialRename{}, nil
}

func (m *MockAssetService) InventoryWorkbook(ctx context.Context) ([]byte, string, error) {
	if m.InventoryWorkbookFunc != nil {
		return m.InventoryWorkbookFunc(ctx)
	}
	return nil, "", nil
}

func (m *MockAssetService) ArchiveInventory(ctx context.Context) (string, error) {
	if m.ArchiveInventoryFunc != nil {
		return m.ArchiveInventoryFunc(ctx)
	}
	return "", nil
}

// MockUserService is a function-field mock of UserService.
type MockUserService struct {
	LoginFunc          func(ctx context.Context, email, password string) (*service.LoginResult, error)
	ListUsersFunc      func(ctx context.Context) ([]model.User, error)
	CreateUserFunc     func(ctx context.Context, input model.CreateUserInput) (*model.User, error)
	UpdateUserFunc     func(ctx context.Context, id uuid.UUID, input model.UpdateUserInput) (*model.User, error)
	DeleteUserFunc     func(ctx context.Context, actor, id uuid.UUID) error
	ForgotPasswordFunc func(ctx context.Context, email string) error
	ResetPasswordFunc  func(ctx context.Context, email, token, password string) error
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (*service.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return &service.LoginResult{}, nil
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]model.User, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx)
	}
	return []model.User{}, nil
}

func (m *MockUserService) CreateUser(ctx context.Context, input model.CreateUserInput) (*model.User, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, input)
	}
	return &model.User{ID: uuid.New(), Name: input.Name, Email: input.Email, Role: input.Role}, nil
}

func (m *MockUserService) UpdateUser(ctx context.Context, id uuid.UUID, input model.UpdateUserInput) (*model.User, error) {
	if m.UpdateUserFunc != nil {
		return m.UpdateUserFunc(ctx, id, input)
	}
	return &model.User{ID: id}, nil
}

func (m *MockUserService) DeleteUser(ctx context.Context, actor, id uuid.UUID) error {
	if m.DeleteUserFunc != nil {
		return m.DeleteUserFunc(ctx, actor, id)
	}
	return nil
}

func (m *MockUserService) ForgotPassword(ctx context.Context, email string) error {
	if m.ForgotPasswordFunc != nil {
		return m.ForgotPasswordFunc(ctx, email)
	}
	return nil
}

func (m *MockUserService) ResetPassword(ctx context.Context, email, token, password string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, email, token, password)
	}
	return nil
}

// Helper functions for tests

func silentLogger() *log.Logger {
	return log.New(bytes.NewBuffer([]byte{}), "", 0)
}

func createTestAsset() model.Asset {
	return model.Asset{
		ID:           uuid.New(),
		AssetID:      "LAP-001-48211",
		SerialNumber: "SN-10001",
		Category:     model.CategoryLaptop,
		Status:       model.StatusInStock,
		Model:        "ThinkPad T14",
		Version:      1,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

func createJSONRequest(method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

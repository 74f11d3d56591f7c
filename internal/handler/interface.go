package handler

import (
	"context"
	"it-asset-tracker/internal/lifecycle"
	"it-asset-tracker/internal/model"
	"it-asset-tracker/internal/service"
	"net/http"

	"github.com/google/uuid"
)

// AssetService is the slice of the asset service the HTTP layer uses.
type AssetService interface {
	CreateAsset(ctx context.Context, input model.CreateAssetInput) (*model.Asset, error)
	Transition(ctx context.Context, id uuid.UUID, input model.TransitionInput) (*model.Asset, error)
	EditFields(ctx context.Context, id uuid.UUID, input model.EditInput) (*model.Asset, error)
	SoftDelete(ctx context.Context, id uuid.UUID) (*model.Asset, error)
	Purge(ctx context.Context, id uuid.UUID) error
	GetAsset(ctx context.Context, id uuid.UUID) (*model.Asset, error)

	ListActive(ctx context.Context) ([]model.Asset, error)
	ListRemoved(ctx context.Context) ([]model.Asset, error)
	ListByStatus(ctx context.Context, status model.Status) ([]model.Asset, error)
	Summary(ctx context.Context) (model.Summary, error)
	TotalValue(ctx context.Context) (float64, error)
	ExpiringWarrantySoon(ctx context.Context) ([]model.Asset, error)
	GroupByAssignee(ctx context.Context) ([]model.AssigneeGroup, error)
	ModelGroups(ctx context.Context, status model.Status) ([]model.ModelGroup, error)
	CountByCategory(ctx context.Context, category string) (int, error)
	NextAssetID(ctx context.Context, category string) (string, error)

	RepairDuplicateSerials(ctx context.Context) ([]lifecycle.SerialRename, error)
	InventoryWorkbook(ctx context.Context) ([]byte, string, error)
	ArchiveInventory(ctx context.Context) (string, error)
}

// UserService is the slice of the user service the HTTP layer uses.
type UserService interface {
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateUser(ctx context.Context, input model.CreateUserInput) (*model.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, input model.UpdateUserInput) (*model.User, error)
	DeleteUser(ctx context.Context, actor, id uuid.UUID) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, token, password string) error
}

var (
	_ AssetService = (*service.AssetService)(nil)
	_ UserService  = (*service.UserService)(nil)
)

// AssetHandlerInterface defines the contract for asset HTTP handlers.
type AssetHandlerInterface interface {
	// Lifecycle writes
	CreateAssetHandler(w http.ResponseWriter, r *http.Request)
	GetAssetHandler(w http.ResponseWriter, r *http.Request)
	EditAssetHandler(w http.ResponseWriter, r *http.Request)
	TransitionAssetHandler(w http.ResponseWriter, r *http.Request)
	DeleteAssetHandler(w http.ResponseWriter, r *http.Request)
	PurgeAssetHandler(w http.ResponseWriter, r *http.Request)

	// Views and aggregates
	ListAssetsHandler(w http.ResponseWriter, r *http.Request)
	ListRemovedHandler(w http.ResponseWriter, r *http.Request)
	ListByStatusHandler(w http.ResponseWriter, r *http.Request)
	GroupedByModelHandler(w http.ResponseWriter, r *http.Request)
	GroupedByEmailHandler(w http.ResponseWriter, r *http.Request)
	SummaryHandler(w http.ResponseWriter, r *http.Request)
	TotalValueHandler(w http.ResponseWriter, r *http.Request)
	ExpiringWarrantyHandler(w http.ResponseWriter, r *http.Request)
	CountByCategoryHandler(w http.ResponseWriter, r *http.Request)
	NextAssetIDHandler(w http.ResponseWriter, r *http.Request)

	// Maintenance and reports
	RepairDuplicateSerialsHandler(w http.ResponseWriter, r *http.Request)
	InventoryWorkbookHandler(w http.ResponseWriter, r *http.Request)
	ArchiveInventoryHandler(w http.ResponseWriter, r *http.Request)
}

// UserHandlerInterface defines the contract for account HTTP handlers.
type UserHandlerInterface interface {
	LoginHandler(w http.ResponseWriter, r *http.Request)
	ForgotPasswordHandler(w http.ResponseWriter, r *http.Request)
	ResetPasswordHandler(w http.ResponseWriter, r *http.Request)

	ListUsersHandler(w http.ResponseWriter, r *http.Request)
	CreateUserHandler(w http.ResponseWriter, r *http.Request)
	UpdateUserHandler(w http.ResponseWriter, r *http.Request)
	DeleteUserHandler(w http.ResponseWriter, r *http.Request)
}

// Ensure handlers implement their interfaces at compile time
var (
	_ AssetHandlerInterface = (*AssetHandler)(nil)
	_ UserHandlerInterface  = (*UserHandler)(nil)
)

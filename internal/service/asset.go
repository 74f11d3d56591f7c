package service

import (
	"context"
	"errors"
	"fmt"
	"it-asset-tracker/internal/lifecycle"
	"it-asset-tracker/internal/metrics"
	"it-asset-tracker/internal/model"
	"it-asset-tracker/internal/report"
	"it-asset-tracker/internal/repository"
	apperrors "it-asset-tracker/pkg/errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AssetService runs every asset write through the lifecycle engine and
// serves the reporting views.
type AssetService struct {
	repo     repository.AssetRepository
	notifier NotificationService
	archiver report.Archiver
	metrics  *metrics.Metrics
	logger   *log.Logger
	now      func() time.Time

	pending sync.WaitGroup
}

// NewAssetService creates a new asset service
func NewAssetService(repo repository.AssetRepository, notifier NotificationService, logger *log.Logger) *AssetService {
	if logger == nil {
		logger = log.Default()
	}
	return &AssetService{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the time source.
func (s *AssetService) WithClock(now func() time.Time) *AssetService {
	s.now = now
	return s
}

// WithMetrics attaches prometheus collectors.
func (s *AssetService) WithMetrics(m *metrics.Metrics) *AssetService {
	s.metrics = m
	return s
}

// WithArchiver enables report archiving.
func (s *AssetService) WithArchiver(a report.Archiver) *AssetService {
	s.archiver = a
	return s
}

// Wait blocks until every notification started so far has finished.
func (s *AssetService) Wait() {
	s.pending.Wait()
}

// CreateAsset validates and stores a new asset. A missing asset ID is
// generated from the category.
func (s *AssetService) CreateAsset(ctx context.Context, input model.CreateAssetInput) (*model.Asset, error) {
	status := input.Status
	if status == "" {
		status = model.StatusInStock
	}
	if status != model.StatusInStock && status != model.StatusInUse {
		return nil, apperrors.ValidationFailed("status", "new assets must be In Stock or In Use")
	}

	now := s.now()
	patch := input.AssetPatch
	if patch.AssetID == nil || trimmed(patch.AssetID) == "" {
		category := trimmed(patch.Category)
		if category != "" {
			id, err := s.nextAssetID(ctx, category, now)
			if err != nil {
				return nil, err
			}
			patch.AssetID = &id
		}
	}

	asset, err := lifecycle.Apply(model.Asset{Status: status}, status, patch)
	if err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, asset, nil); err != nil {
		return nil, err
	}

	asset.ID = uuid.New()
	asset.Version = 1
	asset.CreatedAt = now
	asset.UpdatedAt = now

	if err := s.repo.CreateAsset(ctx, asset); err != nil {
		return nil, mapAssetError(err, "failed to create asset")
	}

	s.logger.Printf("Asset created: id=%s assetId=%s status=%s", asset.ID, asset.AssetID, asset.Status)
	if asset.Status == model.StatusInUse {
		s.notifyAsync(assignedNotification(asset))
	}
	return &asset, nil
}

// Transition moves an active asset to target, applying fields on the way.
func (s *AssetService) Transition(ctx context.Context, id uuid.UUID, input model.TransitionInput) (*model.Asset, error) {
	return s.write(ctx, id, input.Status, input.Fields, input.MarkDeleted, input.ExpectedVersion)
}

// EditFields updates fields of an active asset without changing its status.
func (s *AssetService) EditFields(ctx context.Context, id uuid.UUID, input model.EditInput) (*model.Asset, error) {
	current, err := s.getActive(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.writeFrom(ctx, current, current.Status, input.AssetPatch, false, input.ExpectedVersion)
}

func (s *AssetService) write(ctx context.Context, id uuid.UUID, target model.Status, patch model.AssetPatch, markDeleted bool, expectedVersion int) (*model.Asset, error) {
	current, err := s.getActive(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.writeFrom(ctx, current, target, patch, markDeleted, expectedVersion)
}

func (s *AssetService) writeFrom(ctx context.Context, current *model.Asset, target model.Status, patch model.AssetPatch, markDeleted bool, expectedVersion int) (*model.Asset, error) {
	next, err := lifecycle.Apply(*current, target, patch)
	if err != nil {
		return nil, err
	}
	if markDeleted {
		if next.Status != model.StatusRemoved {
			return nil, apperrors.ValidationFailed("markDeleted", "only allowed when moving to Removed")
		}
		next.IsDeleted = true
	}
	if next.AssetID != current.AssetID || next.SerialNumber != current.SerialNumber {
		if err := s.checkUnique(ctx, next, &current.ID); err != nil {
			return nil, err
		}
	}
	next.UpdatedAt = s.now()

	updated, err := s.repo.UpdateAsset(ctx, next, expectedVersion)
	if err != nil {
		return nil, mapAssetError(err, "failed to update asset")
	}

	if current.Status != updated.Status {
		s.metrics.ObserveTransition(current.Status, updated.Status)
		s.logger.Printf("Asset %s moved from %s to %s", updated.AssetID, current.Status, updated.Status)
		switch updated.Status {
		case model.StatusInUse:
			s.notifyAsync(assignedNotification(*updated))
		case model.StatusDamaged:
			s.notifyAsync(damagedNotification(*updated))
		}
	}
	return updated, nil
}

// SoftDelete marks an asset as deleted while keeping its status. Deleting an
// already deleted asset returns it unchanged.
func (s *AssetService) SoftDelete(ctx context.Context, id uuid.UUID) (*model.Asset, error) {
	current, err := s.GetAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.IsDeleted {
		return current, nil
	}

	deleted, err := s.repo.SoftDeleteAsset(ctx, id, s.now())
	if err != nil {
		return nil, mapAssetError(err, "failed to delete asset")
	}
	s.logger.Printf("Asset soft-deleted: id=%s assetId=%s", deleted.ID, deleted.AssetID)
	return deleted, nil
}

// Purge permanently removes an asset from the removed view.
func (s *AssetService) Purge(ctx context.Context, id uuid.UUID) error {
	current, err := s.GetAsset(ctx, id)
	if err != nil {
		return err
	}
	if !current.InRemovedView() {
		return apperrors.ValidationFailed("status", "only removed or deleted assets can be purged")
	}

	if err := s.repo.PurgeAsset(ctx, id); err != nil {
		return mapAssetError(err, "failed to purge asset")
	}
	s.logger.Printf("Asset purged: id=%s assetId=%s", current.ID, current.AssetID)
	return nil
}

// GetAsset retrieves an asset by ID, deleted or not.
func (s *AssetService) GetAsset(ctx context.Context, id uuid.UUID) (*model.Asset, error) {
	asset, err := s.repo.GetAssetByID(ctx, id)
	if err != nil {
		return nil, mapAssetError(err, "failed to retrieve asset")
	}
	return asset, nil
}

func (s *AssetService) getActive(ctx context.Context, id uuid.UUID) (*model.Asset, error) {
	asset, err := s.GetAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	if asset.IsDeleted {
		return nil, apperrors.NotFoundError("asset")
	}
	return asset, nil
}

// ListActive returns every non-deleted asset, newest first.
func (s *AssetService) ListActive(ctx context.Context) ([]model.Asset, error) {
	assets, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to retrieve assets", err)
	}
	return assets, nil
}

// ListRemoved returns assets in status Removed or soft-deleted.
func (s *AssetService) ListRemoved(ctx context.Context) ([]model.Asset, error) {
	assets, err := s.repo.ListRemoved(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to retrieve removed assets", err)
	}
	return assets, nil
}

// ListByStatus returns non-deleted assets in one status.
func (s *AssetService) ListByStatus(ctx context.Context, status model.Status) ([]model.Asset, error) {
	if !status.Valid() {
		return nil, apperrors.ValidationFailed("status", fmt.Sprintf("unknown status %q", status))
	}
	assets, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to retrieve assets by status", err)
	}
	return assets, nil
}

// Summary counts assets per status.
func (s *AssetService) Summary(ctx context.Context) (model.Summary, error) {
	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return model.Summary{}, apperrors.DatabaseError("failed to summarize assets", err)
	}
	return summary, nil
}

// TotalValue sums the purchase price of non-deleted assets.
func (s *AssetService) TotalValue(ctx context.Context) (float64, error) {
	total, err := s.repo.TotalValue(ctx)
	if err != nil {
		return 0, apperrors.DatabaseError("failed to compute total value", err)
	}
	return total, nil
}

// ExpiringWarranty returns active assets whose warranty ends within the
// next 30 days of now, excluding E-Waste, Damaged and Removed.
func (s *AssetService) ExpiringWarranty(ctx context.Context, now time.Time) ([]model.Asset, error) {
	from, to := report.WarrantyWindow(now)
	assets, err := s.repo.ExpiringWarranty(ctx, from, to, report.WarrantyExcludedStatuses)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to retrieve expiring warranties", err)
	}
	return assets, nil
}

// ExpiringWarrantySoon is ExpiringWarranty at the service clock.
func (s *AssetService) ExpiringWarrantySoon(ctx context.Context) ([]model.Asset, error) {
	return s.ExpiringWarranty(ctx, s.now())
}

// GroupByAssignee groups In Use assets by employee email.
func (s *AssetService) GroupByAssignee(ctx context.Context) ([]model.AssigneeGroup, error) {
	assets, err := s.ListByStatus(ctx, model.StatusInUse)
	if err != nil {
		return nil, err
	}
	return report.GroupByAssignee(assets), nil
}

// GroupByModel groups the given records by model.
func (s *AssetService) GroupByModel(records []model.Asset) []model.ModelGroup {
	return report.GroupByModel(records)
}

// ModelGroups groups active assets by model, optionally within one status.
func (s *AssetService) ModelGroups(ctx context.Context, status model.Status) ([]model.ModelGroup, error) {
	var (
		records []model.Asset
		err     error
	)
	if status == "" {
		records, err = s.ListActive(ctx)
	} else {
		records, err = s.ListByStatus(ctx, status)
	}
	if err != nil {
		return nil, err
	}
	return s.GroupByModel(records), nil
}

// CountByCategory counts non-deleted assets in category.
func (s *AssetService) CountByCategory(ctx context.Context, category string) (int, error) {
	count, err := s.repo.CountByCategory(ctx, category)
	if err != nil {
		return 0, apperrors.DatabaseError("failed to count assets", err)
	}
	return count, nil
}

// NextAssetID suggests the identifier the next asset in category would get.
func (s *AssetService) NextAssetID(ctx context.Context, category string) (string, error) {
	return s.nextAssetID(ctx, category, s.now())
}

func (s *AssetService) nextAssetID(ctx context.Context, category string, now time.Time) (string, error) {
	count, err := s.CountByCategory(ctx, category)
	if err != nil {
		return "", err
	}
	return report.NextAssetID(category, count, now), nil
}

// RepairDuplicateSerials renames every serial number held by more than one
// record, keeping the oldest record's value. Running it again is a no-op.
func (s *AssetService) RepairDuplicateSerials(ctx context.Context) ([]lifecycle.SerialRename, error) {
	groups, err := s.repo.DuplicateSerialGroups(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to find duplicate serial numbers", err)
	}
	if len(groups) == 0 {
		return []lifecycle.SerialRename{}, nil
	}

	var lookupErr error
	taken := func(serial string) bool {
		if lookupErr != nil {
			return true
		}
		exists, err := s.repo.SerialNumberExists(ctx, serial)
		if err != nil {
			lookupErr = err
			return true
		}
		return exists
	}

	renames := lifecycle.PlanSerialRenames(groups, taken)
	if lookupErr != nil {
		return nil, apperrors.DatabaseError("failed to check serial numbers", lookupErr)
	}

	for i, rename := range renames {
		if err := s.repo.UpdateSerialNumber(ctx, rename.ID, rename.NewSerial); err != nil {
			s.metrics.ObserveSerialRenames(i)
			return renames[:i], mapAssetError(err, "failed to rename duplicate serial number")
		}
		s.logger.Printf("Renamed duplicate serial %q to %q on asset %s", rename.OldSerial, rename.NewSerial, rename.ID)
	}
	s.metrics.ObserveSerialRenames(len(renames))
	s.logger.Printf("Duplicate serial repair finished: %d groups, %d renames", len(groups), len(renames))
	return renames, nil
}

// InventoryWorkbook renders active assets and the summary as xlsx.
func (s *AssetService) InventoryWorkbook(ctx context.Context) ([]byte, string, error) {
	assets, err := s.ListActive(ctx)
	if err != nil {
		return nil, "", err
	}
	summary, err := s.Summary(ctx)
	if err != nil {
		return nil, "", err
	}
	total, err := s.TotalValue(ctx)
	if err != nil {
		return nil, "", err
	}

	data, err := report.BuildInventoryWorkbook(assets, summary, total)
	if err != nil {
		return nil, "", apperrors.InternalError("failed to build inventory workbook", err)
	}
	return data, report.InventoryFileName(s.now()), nil
}

// ArchiveInventory builds the inventory workbook and stores it with the
// configured archiver, returning the object key.
func (s *AssetService) ArchiveInventory(ctx context.Context) (string, error) {
	if s.archiver == nil {
		return "", apperrors.UnavailableError("report archive")
	}
	data, name, err := s.InventoryWorkbook(ctx)
	if err != nil {
		return "", err
	}
	key, err := s.archiver.Archive(ctx, name, data)
	if err != nil {
		return "", apperrors.ExternalServiceError("report archive", err)
	}
	s.logger.Printf("Inventory report archived: %s (%d bytes)", key, len(data))
	return key, nil
}

// checkUnique rejects asset IDs and serial numbers already held by another
// record, active or deleted.
func (s *AssetService) checkUnique(ctx context.Context, a model.Asset, self *uuid.UUID) error {
	owner, err := s.repo.FindByAssetID(ctx, a.AssetID)
	if err != nil && !errors.Is(err, repository.ErrAssetNotFound) {
		return apperrors.DatabaseError("failed to check asset ID", err)
	}
	if owner != nil && (self == nil || owner.ID != *self) {
		return apperrors.DuplicateKey("assetId")
	}

	if a.SerialNumber == "" {
		return nil
	}
	owner, err = s.repo.FindBySerialNumber(ctx, a.SerialNumber)
	if err != nil && !errors.Is(err, repository.ErrAssetNotFound) {
		return apperrors.DatabaseError("failed to check serial number", err)
	}
	if owner != nil && (self == nil || owner.ID != *self) {
		return apperrors.DuplicateKey("serialNumber")
	}
	return nil
}

func mapAssetError(err error, message string) error {
	switch {
	case errors.Is(err, repository.ErrAssetNotFound):
		return apperrors.NotFoundError("asset")
	case errors.Is(err, repository.ErrDuplicateAssetID):
		return apperrors.DuplicateKey("assetId")
	case errors.Is(err, repository.ErrDuplicateSerialNumber):
		return apperrors.DuplicateKey("serialNumber")
	case errors.Is(err, repository.ErrVersionConflict):
		return apperrors.ConflictError("asset")
	}
	return apperrors.DatabaseError(message, err)
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

package service

import (
	"context"
	"io"
	"it-asset-tracker/internal/lifecycle"
	"it-asset-tracker/internal/model"
	"it-asset-tracker/internal/repository"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryAssetRepository is an in-memory AssetRepository that enforces the
// same unique keys and version rules as the postgres one.
type memoryAssetRepository struct {
	mu     sync.Mutex
	assets map[uuid.UUID]model.Asset

	// failUpdate, when set, is returned by UpdateAsset and UpdateSerialNumber.
	failUpdate error
}

func newMemoryAssetRepository() *memoryAssetRepository {
	return &memoryAssetRepository{assets: make(map[uuid.UUID]model.Asset)}
}

// seed stores a record directly, bypassing the unique checks.
func (r *memoryAssetRepository) seed(a model.Asset) model.Asset {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Version == 0 {
		a.Version = 1
	}
	r.assets[a.ID] = a
	return a
}

func (r *memoryAssetRepository) get(id uuid.UUID) (model.Asset, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assets[id]
	return a, ok
}

func (r *memoryAssetRepository) conflictLocked(a model.Asset) error {
	for _, other := range r.assets {
		if other.ID == a.ID {
			continue
		}
		if other.AssetID == a.AssetID {
			return repository.ErrDuplicateAssetID
		}
		if a.SerialNumber != "" && other.SerialNumber == a.SerialNumber {
			return repository.ErrDuplicateSerialNumber
		}
	}
	return nil
}

func (r *memoryAssetRepository) CreateAsset(ctx context.Context, a model.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.conflictLocked(a); err != nil {
		return err
	}
	r.assets[a.ID] = a
	return nil
}

func (r *memoryAssetRepository) GetAssetByID(ctx context.Context, id uuid.UUID) (*model.Asset, error) {
	a, ok := r.get(id)
	if !ok {
		return nil, repository.ErrAssetNotFound
	}
	return &a, nil
}

func (r *memoryAssetRepository) findBy(match func(model.Asset) bool) (*model.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.assets {
		if match(a) {
			return &a, nil
		}
	}
	return nil, repository.ErrAssetNotFound
}

func (r *memoryAssetRepository) FindByAssetID(ctx context.Context, assetID string) (*model.Asset, error) {
	return r.findBy(func(a model.Asset) bool { return a.AssetID == assetID })
}

func (r *memoryAssetRepository) FindBySerialNumber(ctx context.Context, serial string) (*model.Asset, error) {
	return r.findBy(func(a model.Asset) bool { return serial != "" && a.SerialNumber == serial })
}

func (r *memoryAssetRepository) UpdateAsset(ctx context.Context, a model.Asset, expectedVersion int) (*model.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate != nil {
		return nil, r.failUpdate
	}
	stored, ok := r.assets[a.ID]
	if !ok {
		return nil, repository.ErrAssetNotFound
	}
	if expectedVersion > 0 && stored.Version != expectedVersion {
		return nil, repository.ErrVersionConflict
	}
	if err := r.conflictLocked(a); err != nil {
		return nil, err
	}
	a.Version = stored.Version + 1
	a.CreatedAt = stored.CreatedAt
	a.IsDeleted = a.IsDeleted || stored.IsDeleted
	r.assets[a.ID] = a
	return &a, nil
}

func (r *memoryAssetRepository) SoftDeleteAsset(ctx context.Context, id uuid.UUID, at time.Time) (*model.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assets[id]
	if !ok {
		return nil, repository.ErrAssetNotFound
	}
	a.IsDeleted = true
	a.Version++
	a.UpdatedAt = at
	r.assets[id] = a
	return &a, nil
}

func (r *memoryAssetRepository) PurgeAsset(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assets[id]; !ok {
		return repository.ErrAssetNotFound
	}
	delete(r.assets, id)
	return nil
}

func (r *memoryAssetRepository) list(match func(model.Asset) bool) []model.Asset {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Asset{}
	for _, a := range r.assets {
		if match(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memoryAssetRepository) ListActive(ctx context.Context) ([]model.Asset, error) {
	return r.list(func(a model.Asset) bool { return !a.IsDeleted }), nil
}

func (r *memoryAssetRepository) ListByStatus(ctx context.Context, status model.Status) ([]model.Asset, error) {
	return r.list(func(a model.Asset) bool { return !a.IsDeleted && a.Status == status }), nil
}

func (r *memoryAssetRepository) ListRemoved(ctx context.Context) ([]model.Asset, error) {
	return r.list(func(a model.Asset) bool { return a.InRemovedView() }), nil
}

func (r *memoryAssetRepository) Summary(ctx context.Context) (model.Summary, error) {
	var s model.Summary
	for _, a := range r.list(func(model.Asset) bool { return true }) {
		if a.Status == model.StatusRemoved || a.IsDeleted {
			s.Removed++
		}
		if a.IsDeleted {
			continue
		}
		s.TotalAssets++
		switch a.Status {
		case model.StatusInUse:
			s.InUse++
		case model.StatusInStock:
			s.InStock++
		case model.StatusDamaged:
			s.Damaged++
		case model.StatusEWaste:
			s.EWaste++
		}
	}
	return s, nil
}

func (r *memoryAssetRepository) TotalValue(ctx context.Context) (float64, error) {
	var total float64
	for _, a := range r.list(func(a model.Asset) bool { return !a.IsDeleted }) {
		total += a.PurchasePrice
	}
	return total, nil
}

func (r *memoryAssetRepository) CountByCategory(ctx context.Context, category string) (int, error) {
	return len(r.list(func(a model.Asset) bool { return !a.IsDeleted && a.Category == category })), nil
}

func (r *memoryAssetRepository) ExpiringWarranty(ctx context.Context, from, to time.Time, excluded []model.Status) ([]model.Asset, error) {
	return r.list(func(a model.Asset) bool {
		if a.IsDeleted || a.WarrantyExpiryDate == nil {
			return false
		}
		for _, s := range excluded {
			if a.Status == s {
				return false
			}
		}
		w := *a.WarrantyExpiryDate
		return !w.Before(from) && !w.After(to)
	}), nil
}

func (r *memoryAssetRepository) DuplicateSerialGroups(ctx context.Context) ([]lifecycle.SerialGroup, error) {
	all := r.list(func(a model.Asset) bool { return a.SerialNumber != "" })
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return strings.Compare(all[i].ID.String(), all[j].ID.String()) < 0
	})

	index := map[string]int{}
	var groups []lifecycle.SerialGroup
	for _, a := range all {
		i, ok := index[a.SerialNumber]
		if !ok {
			index[a.SerialNumber] = len(groups)
			groups = append(groups, lifecycle.SerialGroup{SerialNumber: a.SerialNumber})
			i = len(groups) - 1
		}
		groups[i].IDs = append(groups[i].IDs, a.ID)
	}

	out := []lifecycle.SerialGroup{}
	for _, g := range groups {
		if len(g.IDs) > 1 {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *memoryAssetRepository) SerialNumberExists(ctx context.Context, serial string) (bool, error) {
	a, _ := r.FindBySerialNumber(ctx, serial)
	return a != nil, nil
}

func (r *memoryAssetRepository) UpdateSerialNumber(ctx context.Context, id uuid.UUID, serial string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate != nil {
		return r.failUpdate
	}
	a, ok := r.assets[id]
	if !ok {
		return repository.ErrAssetNotFound
	}
	a.SerialNumber = serial
	a.Version++
	r.assets[id] = a
	return nil
}

// recordingNotifier captures notifications sent by the services.
type recordingNotifier struct {
	mu     sync.Mutex
	assets []AssetNotification
	resets []PasswordResetMessage
	err    error
}

func (n *recordingNotifier) SendAssetNotification(ctx context.Context, notification AssetNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.assets = append(n.assets, notification)
	return n.err
}

func (n *recordingNotifier) SendPasswordReset(ctx context.Context, reset PasswordResetMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resets = append(n.resets, reset)
	return n.err
}

func (n *recordingNotifier) assetNotifications() []AssetNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]AssetNotification(nil), n.assets...)
}

type fakeArchiver struct {
	name string
	data []byte
	err  error
}

func (f *fakeArchiver) Archive(ctx context.Context, name string, data []byte) (string, error) {
	f.name = name
	f.data = data
	if f.err != nil {
		return "", f.err
	}
	return "reports/" + name, nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func strPtr(s string) *string { return &s }

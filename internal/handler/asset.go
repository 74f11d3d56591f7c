package handler

import (
	"fmt"
	"it-asset-tracker/internal/model"
	apperrors "it-asset-tracker/pkg/errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Request timeouts
const (
	DefaultTimeout     = 10 * time.Second
	LongRunningTimeout = 60 * time.Second

	maxBodyBytes = 1 << 20
)

// AssetHandler handles the HTTP requests for assets.
type AssetHandler struct {
	Service AssetService
	Logger  *log.Logger

	ErrorHandler   *ErrorHandler
	ResponseHelper *ResponseHelper
}

// NewAssetHandler creates a new AssetHandler with dependencies and helpers
func NewAssetHandler(svc AssetService, logger *log.Logger) *AssetHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &AssetHandler{
		Service:        svc,
		Logger:         logger,
		ErrorHandler:   NewErrorHandler(logger),
		ResponseHelper: NewResponseHelper(),
	}
}

// serialRenameResponse is one row of the duplicate repair report.
type serialRenameResponse struct {
	ID        uuid.UUID `json:"id"`
	OldSerial string    `json:"oldSerialNumber"`
	NewSerial string    `json:"newSerialNumber"`
}

// CreateAssetHandler handles the creation of a new asset.
func (h *AssetHandler) CreateAssetHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	var input model.CreateAssetInput
	if !h.ErrorHandler.DecodeJSON(w, r, &input) {
		return
	}

	asset, err := h.Service.CreateAsset(ctx, input)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "create asset")
		return
	}
	h.ErrorHandler.SendJSONResponse(w, http.StatusCreated, asset)
}

// GetAssetHandler returns one asset, deleted or not.
func (h *AssetHandler) GetAssetHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	id, ok := h.ErrorHandler.ParseAndValidateUUID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	asset, err := h.Service.GetAsset(ctx, id)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "retrieve asset")
		return
	}
	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, asset)
}

// EditAssetHandler updates fields without changing the status.
func (h *AssetHandler) EditAssetHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	id, ok := h.ErrorHandler.ParseAndValidateUUID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	var input model.EditInput
	if !h.ErrorHandler.DecodeJSON(w, r, &input) {
		return
	}

	asset, err := h.Service.EditFields(ctx, id, input)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "update asset")
		return
	}
	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, asset)
}

// TransitionAssetHandler moves an asset to a new status.
func (h *AssetHandler) TransitionAssetHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	id, ok := h.ErrorHandler.ParseAndValidateUUID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	var input model.TransitionInput
	if !h.ErrorHandler.DecodeJSON(w, r, &input) {
		return
	}
	if input.Status == "" {
		h.ErrorHandler.HandleServiceError(w, apperrors.ValidationFailed("status", "is required"), "transition asset")
		return
	}
	if status, ok := parseStatus(string(input.Status)); ok {
		input.Status = status
	}

	asset, err := h.Service.Transition(ctx, id, input)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "transition asset")
		return
	}
	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, asset)
}

// DeleteAssetHandler soft-deletes an asset.
func (h *AssetHandler) DeleteAssetHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	id, ok := h.ErrorHandler.ParseAndValidateUUID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	asset, err := h.Service.SoftDelete(ctx, id)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "delete asset")
		return
	}
	h.ErrorHandler.SendSuccessResponse(w, http.StatusOK, "Asset deleted", asset)
}

// PurgeAssetHandler permanently removes an asset from the removed view.
func (h *AssetHandler) PurgeAssetHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	id, ok := h.ErrorHandler.ParseAndValidateUUID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	if err := h.Service.Purge(ctx, id); err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "purge asset")
		return
	}
	h.ErrorHandler.SendSuccessResponse(w, http.StatusOK, "Asset permanently deleted", map[string]string{"id": id.String()})
}

// ListAssetsHandler lists non-deleted assets, optionally paginated.
func (h *AssetHandler) ListAssetsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	assets, err := h.Service.ListActive(ctx)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "retrieve assets")
		return
	}
	h.sendAssetList(w, r, assets)
}

// ListRemovedHandler lists assets in the removed view.
func (h *AssetHandler) ListRemovedHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	assets, err := h.Service.ListRemoved(ctx)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "retrieve removed assets")
		return
	}
	h.sendAssetList(w, r, assets)
}

// ListByStatusHandler lists non-deleted assets in one status.
func (h *AssetHandler) ListByStatusHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	raw := mux.Vars(r)["status"]
	status, ok := parseStatus(raw)
	if !ok {
		h.ErrorHandler.HandleServiceError(w, apperrors.ValidationFailed("status", fmt.Sprintf("unknown status %q", raw)), "list assets by status")
		return
	}

	assets, err := h.Service.ListByStatus(ctx, status)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "retrieve assets by status")
		return
	}
	h.sendAssetList(w, r, assets)
}

// GroupedByModelHandler groups assets by model, optionally within ?status=.
func (h *AssetHandler) GroupedByModelHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	var status model.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, ok := parseStatus(raw)
		if !ok {
			h.ErrorHandler.HandleServiceError(w, apperrors.ValidationFailed("status", fmt.Sprintf("unknown status %q", raw)), "group assets by model")
			return
		}
		status = parsed
	}

	groups, err := h.Service.ModelGroups(ctx, status)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "group assets by model")
		return
	}
	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, h.ResponseHelper.CreateListResponseData(groups, len(groups), nil))
}

// GroupedByEmailHandler groups In Use assets by assignee email.
func (h *AssetHandler) GroupedByEmailHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	groups, err := h.Service.GroupByAssignee(ctx)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "group assets by assignee")
		return
	}
	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, h.ResponseHelper.CreateListResponseData(groups, len(groups), nil))
}

// SummaryHandler returns per-status counts.
func (h *AssetHandler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	summary, err := h.Service.Summary(ctx)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "summarize assets")
		return
	}
	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, summary)
}

// TotalValueHandler returns the purchase price sum of non-deleted assets.
func (h *AssetHandler) TotalValueHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	total, err := h.Service.TotalValue(ctx)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "compute total value")
		return
	}
	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, map[string]float64{"totalValue": total})
}

// ExpiringWarrantyHandler lists assets whose warranty ends within 30 days.
func (h *AssetHandler) ExpiringWarrantyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	assets, err := h.Service.ExpiringWarrantySoon(ctx)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "retrieve expiring warranties")
		return
	}
	h.sendAssetList(w, r, assets)
}

// CountByCategoryHandler counts non-deleted assets in a category.
func (h *AssetHandler) CountByCategoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	category := strings.TrimSpace(mux.Vars(r)["category"])
	count, err := h.Service.CountByCategory(ctx, category)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "count assets")
		return
	}
	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, map[string]interface{}{"category": category, "count": count})
}

// NextAssetIDHandler suggests the asset ID for the next asset in a category.
func (h *AssetHandler) NextAssetIDHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	category := strings.TrimSpace(mux.Vars(r)["category"])
	id, err := h.Service.NextAssetID(ctx, category)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "generate asset ID")
		return
	}
	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, map[string]string{"category": category, "assetId": id})
}

// RepairDuplicateSerialsHandler renames duplicated serial numbers.
func (h *AssetHandler) RepairDuplicateSerialsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, LongRunningTimeout)
	defer cancel()

	renames, err := h.Service.RepairDuplicateSerials(ctx)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "repair duplicate serial numbers")
		return
	}

	items := make([]serialRenameResponse, 0, len(renames))
	for _, rename := range renames {
		items = append(items, serialRenameResponse{ID: rename.ID, OldSerial: rename.OldSerial, NewSerial: rename.NewSerial})
	}
	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, h.ResponseHelper.CreateListResponseData(items, len(items), nil))
}

// InventoryWorkbookHandler streams the inventory as an xlsx download.
func (h *AssetHandler) InventoryWorkbookHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, LongRunningTimeout)
	defer cancel()

	data, name, err := h.Service.InventoryWorkbook(ctx)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "export inventory")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.Logger.Printf("Failed to write inventory workbook: %v", err)
	}
}

// ArchiveInventoryHandler stores the inventory workbook in object storage.
func (h *AssetHandler) ArchiveInventoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, LongRunningTimeout)
	defer cancel()

	key, err := h.Service.ArchiveInventory(ctx)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "archive inventory")
		return
	}
	h.ErrorHandler.SendSuccessResponse(w, http.StatusCreated, "Inventory archived", map[string]string{"key": key})
}

func (h *AssetHandler) sendAssetList(w http.ResponseWriter, r *http.Request, assets []model.Asset) {
	params, paginate := h.ResponseHelper.ParsePaginationParams(r)
	if !paginate {
		h.ErrorHandler.SendJSONResponse(w, http.StatusOK, h.ResponseHelper.CreateListResponseData(assets, len(assets), nil))
		return
	}

	page := pageOf(assets, params)
	meta := h.ResponseHelper.CalculatePaginationMeta(params, len(assets))
	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, h.ResponseHelper.CreateListResponseData(page, len(page), map[string]interface{}{
		"pagination": meta,
	}))
}

// parseStatus accepts the display form ("In Use") and loose forms such as
// "in-use" or "inuse".
func parseStatus(raw string) (model.Status, bool) {
	if s, err := model.ParseStatus(raw); err == nil {
		return s, true
	}
	key := statusKey(raw)
	for _, s := range model.Statuses {
		if statusKey(string(s)) == key {
			return s, true
		}
	}
	return "", false
}

func statusKey(s string) string {
	return strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s))
}

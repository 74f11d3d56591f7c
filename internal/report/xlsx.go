package report

import (
	"bytes"
	"fmt"
	"it-asset-tracker/internal/model"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	inventorySheet = "Inventory"
	summarySheet   = "Summary"
)

var inventoryHeader = []interface{}{
	"asset_id",
	"serial_number",
	"category",
	"status",
	"model",
	"location",
	"assignee_name",
	"employee_email",
	"department",
	"purchase_price",
	"purchase_date",
	"warranty_expiry_date",
	"damage_description",
	"updated_at",
}

// BuildInventoryWorkbook renders assets and the summary into an xlsx file.
func BuildInventoryWorkbook(assets []model.Asset, summary model.Summary, totalValue float64) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), inventorySheet); err != nil {
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}
	if err := f.SetSheetRow(inventorySheet, "A1", &inventoryHeader); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	for i, a := range assets {
		row := []interface{}{
			a.AssetID,
			a.SerialNumber,
			a.Category,
			string(a.Status),
			a.Model,
			a.Location,
			a.AssigneeName,
			a.EmployeeEmail,
			a.Department,
			a.PurchasePrice,
			formatDate(a.PurchaseDate),
			formatDate(a.WarrantyExpiryDate),
			a.DamageDescription,
			a.UpdatedAt.UTC().Format(time.RFC3339),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("resolving cell: %w", err)
		}
		if err := f.SetSheetRow(inventorySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("creating summary sheet: %w", err)
	}
	summaryRows := [][]interface{}{
		{"metric", "value"},
		{"total_assets", summary.TotalAssets},
		{"in_use", summary.InUse},
		{"in_stock", summary.InStock},
		{"damaged", summary.Damaged},
		{"e_waste", summary.EWaste},
		{"removed", summary.Removed},
		{"total_value", totalValue},
	}
	for i, values := range summaryRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("resolving cell: %w", err)
		}
		row := values
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("writing summary row: %w", err)
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// InventoryFileName names an export generated at now.
func InventoryFileName(now time.Time) string {
	return fmt.Sprintf("inventory_%s.xlsx", now.UTC().Format("20060102_150405"))
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

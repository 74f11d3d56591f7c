package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an asset.
type Status string

const (
	StatusInUse   Status = "In Use"
	StatusInStock Status = "In Stock"
	StatusDamaged Status = "Damaged"
	StatusEWaste  Status = "E-Waste"
	StatusRemoved Status = "Removed"
)

// Statuses lists every lifecycle state in display order.
var Statuses = []Status{StatusInUse, StatusInStock, StatusDamaged, StatusEWaste, StatusRemoved}

// Valid reports whether s is one of the five lifecycle states.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus converts a wire value into a Status.
func ParseStatus(value string) (Status, error) {
	s := Status(value)
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", value)
	}
	return s, nil
}

// Canonical equipment categories. Any non-empty category is accepted.
const (
	CategoryLaptop   = "Laptop"
	CategoryHeadset  = "Headset"
	CategoryKeyboard = "Keyboard"
	CategoryMouse    = "Mouse"
	CategoryMonitor  = "Monitor"
	CategoryOther    = "Other"
)

// Asset represents one tracked piece of equipment.
type Asset struct {
	ID                 uuid.UUID  `json:"id"`
	AssetID            string     `json:"assetId"`
	SerialNumber       string     `json:"serialNumber,omitempty"`
	Category           string     `json:"category"`
	Status             Status     `json:"status"`
	Model              string     `json:"model,omitempty"`
	Location           string     `json:"location,omitempty"`
	Comment            string     `json:"comment,omitempty"`
	PurchasePrice      float64    `json:"purchasePrice"`
	WarrantyExpiryDate *time.Time `json:"warrantyExpiryDate,omitempty"`
	PurchaseDate       *time.Time `json:"purchaseDate,omitempty"`

	// Assignee fields are only populated while Status is In Use.
	AssigneeName  string `json:"assigneeName,omitempty"`
	Position      string `json:"position,omitempty"`
	EmployeeEmail string `json:"employeeEmail,omitempty"`
	PhoneNumber   string `json:"phoneNumber,omitempty"`
	Department    string `json:"department,omitempty"`

	// DamageDescription is only populated while Status is Damaged.
	DamageDescription string `json:"damageDescription,omitempty"`

	IsDeleted bool      `json:"isDeleted"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ClearAssignee nulls every assignee field.
func (a *Asset) ClearAssignee() {
	a.AssigneeName = ""
	a.Position = ""
	a.EmployeeEmail = ""
	a.PhoneNumber = ""
	a.Department = ""
}

// HasAssignee reports whether any assignee field is populated.
func (a Asset) HasAssignee() bool {
	return a.AssigneeName != "" || a.Position != "" || a.EmployeeEmail != "" ||
		a.PhoneNumber != "" || a.Department != ""
}

// InRemovedView reports whether the asset belongs to the removed listing.
func (a Asset) InRemovedView() bool {
	return a.Status == StatusRemoved || a.IsDeleted
}

// AssetPatch carries optional field overrides. A nil field is left untouched;
// an empty string clears the field.
type AssetPatch struct {
	AssetID            *string  `json:"assetId,omitempty"`
	SerialNumber       *string  `json:"serialNumber,omitempty"`
	Category           *string  `json:"category,omitempty"`
	Model              *string  `json:"model,omitempty"`
	Location           *string  `json:"location,omitempty"`
	Comment            *string  `json:"comment,omitempty"`
	PurchasePrice      *float64 `json:"purchasePrice,omitempty"`
	WarrantyExpiryDate *string  `json:"warrantyExpiryDate,omitempty"`
	PurchaseDate       *string  `json:"purchaseDate,omitempty"`
	AssigneeName       *string  `json:"assigneeName,omitempty"`
	Position           *string  `json:"position,omitempty"`
	EmployeeEmail      *string  `json:"employeeEmail,omitempty"`
	PhoneNumber        *string  `json:"phoneNumber,omitempty"`
	Department         *string  `json:"department,omitempty"`
	DamageDescription  *string  `json:"damageDescription,omitempty"`
}

// CreateAssetInput is the request body for creating an asset. Status may be
// empty (In Stock) or In Use.
type CreateAssetInput struct {
	Status Status `json:"status,omitempty"`
	AssetPatch
}

// TransitionInput is the request body for a status transition.
type TransitionInput struct {
	Status Status     `json:"status"`
	Fields AssetPatch `json:"fields"`
	// MarkDeleted also soft-deletes the record when moving to Removed.
	MarkDeleted bool `json:"markDeleted,omitempty"`
	// ExpectedVersion, when positive, rejects the write if the stored
	// version differs.
	ExpectedVersion int `json:"expectedVersion,omitempty"`
}

// EditInput is the request body for a field-only edit.
type EditInput struct {
	AssetPatch
	ExpectedVersion int `json:"expectedVersion,omitempty"`
}

// Summary holds per-status counts over the inventory.
type Summary struct {
	TotalAssets int `json:"totalAssets"`
	InUse       int `json:"inUse"`
	InStock     int `json:"inStock"`
	Damaged     int `json:"damaged"`
	EWaste      int `json:"eWaste"`
	Removed     int `json:"removed"`
}

// AssigneeGroup is one row of the assets-by-assignee view.
type AssigneeGroup struct {
	EmployeeEmail string  `json:"employeeEmail"`
	AssigneeName  string  `json:"assigneeName,omitempty"`
	Position      string  `json:"position,omitempty"`
	PhoneNumber   string  `json:"phoneNumber,omitempty"`
	Department    string  `json:"department,omitempty"`
	Assets        []Asset `json:"assets"`
	Count         int     `json:"count"`
}

// ModelGroup is one row of the assets-by-model view.
type ModelGroup struct {
	Model    string  `json:"model"`
	Category string  `json:"category"`
	Assets   []Asset `json:"assets"`
	Count    int     `json:"count"`
}

// Package lifecycle owns the asset state machine: which status transitions
// are allowed, which fields each state requires and which fields each state
// clears. Every write path in the service goes through Apply so the rules
// live in one place.
package lifecycle

import (
	"fmt"
	"it-asset-tracker/internal/model"
	apperrors "it-asset-tracker/pkg/errors"
	"it-asset-tracker/pkg/validation"
	"strings"
	"time"
)

// transitions maps each status to the statuses it may move to. Staying in the
// same status is always allowed and treated as a field edit.
var transitions = map[model.Status][]model.Status{
	model.StatusInStock: {model.StatusInUse, model.StatusDamaged},
	model.StatusInUse:   {model.StatusInStock, model.StatusDamaged, model.StatusEWaste, model.StatusRemoved},
	model.StatusDamaged: {model.StatusInStock, model.StatusEWaste, model.StatusRemoved},
	model.StatusEWaste:  {model.StatusRemoved},
	model.StatusRemoved: {},
}

// Allowed reports whether an asset in status from may move to status to.
func Allowed(from, to model.Status) bool {
	if from == to {
		return from.Valid()
	}
	for _, target := range transitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// Targets returns the statuses reachable from status in one transition.
func Targets(from model.Status) []model.Status {
	targets := transitions[from]
	out := make([]model.Status, len(targets))
	copy(out, targets)
	return out
}

// Apply returns current with patch applied and its status moved to target.
// current is never modified; on error the returned asset equals current.
func Apply(current model.Asset, target model.Status, patch model.AssetPatch) (model.Asset, error) {
	if !target.Valid() {
		return current, apperrors.ValidationFailed("status", fmt.Sprintf("unknown status %q", target))
	}
	if !Allowed(current.Status, target) {
		return current, apperrors.ValidationFailed("status",
			fmt.Sprintf("cannot change status from %s to %s", current.Status, target))
	}

	next := current
	if err := applyPatch(&next, patch); err != nil {
		return current, err
	}
	next.Status = target
	Normalize(&next)

	// A stored serial that predates the shape rules is only checked once
	// it is rewritten.
	if err := validate(next, next.SerialNumber != current.SerialNumber); err != nil {
		return current, err
	}
	return next, nil
}

// Normalize clears the fields that the asset's status does not allow:
// assignee data outside In Use and the damage description outside Damaged.
func Normalize(a *model.Asset) {
	if a.Status != model.StatusInUse {
		a.ClearAssignee()
	}
	if a.Status != model.StatusDamaged {
		a.DamageDescription = ""
	}
}

// Validate checks field shapes and the requirements of the asset's status.
func Validate(a model.Asset) error {
	return validate(a, true)
}

func validate(a model.Asset, checkSerial bool) error {
	if err := validation.ValidateRequired(a.Category); err != nil {
		return apperrors.ValidationFailed("category", err.Error())
	}
	if err := validation.ValidateRequired(a.AssetID); err != nil {
		return apperrors.ValidationFailed("assetId", err.Error())
	}
	if checkSerial {
		if err := validation.ValidateSerialNumber(a.SerialNumber); err != nil {
			return apperrors.ValidationFailed("serialNumber", err.Error())
		}
	}
	if err := validation.ValidatePrice(a.PurchasePrice); err != nil {
		return apperrors.ValidationFailed("purchasePrice", err.Error())
	}

	if a.Status != model.StatusInUse {
		return nil
	}
	if err := validation.ValidateEmail(a.EmployeeEmail); err != nil {
		return apperrors.ValidationFailed("employeeEmail", err.Error())
	}
	if err := validation.ValidatePersonName(a.AssigneeName); err != nil {
		return apperrors.ValidationFailed("assigneeName", err.Error())
	}
	if err := validation.ValidatePhoneNumber(a.PhoneNumber); err != nil {
		return apperrors.ValidationFailed("phoneNumber", err.Error())
	}
	if err := validation.ValidateOptionalWords(a.Position); err != nil {
		return apperrors.ValidationFailed("position", err.Error())
	}
	if err := validation.ValidateOptionalWords(a.Department); err != nil {
		return apperrors.ValidationFailed("department", err.Error())
	}
	return nil
}

func applyPatch(a *model.Asset, p model.AssetPatch) error {
	setString(&a.AssetID, p.AssetID)
	setString(&a.SerialNumber, p.SerialNumber)
	setString(&a.Category, p.Category)
	setString(&a.Model, p.Model)
	setString(&a.Location, p.Location)
	setString(&a.Comment, p.Comment)
	setString(&a.AssigneeName, p.AssigneeName)
	setString(&a.Position, p.Position)
	setString(&a.EmployeeEmail, p.EmployeeEmail)
	setString(&a.PhoneNumber, p.PhoneNumber)
	setString(&a.Department, p.Department)
	setString(&a.DamageDescription, p.DamageDescription)

	if p.PurchasePrice != nil {
		a.PurchasePrice = *p.PurchasePrice
	}
	if err := setDate(&a.WarrantyExpiryDate, p.WarrantyExpiryDate, "warrantyExpiryDate"); err != nil {
		return err
	}
	if err := setDate(&a.PurchaseDate, p.PurchaseDate, "purchaseDate"); err != nil {
		return err
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setDate(dst **time.Time, src *string, field string) error {
	if src == nil {
		return nil
	}
	if strings.TrimSpace(*src) == "" {
		*dst = nil
		return nil
	}
	t, err := validation.ParseDate(*src)
	if err != nil {
		return apperrors.ValidationFailed(field, "invalid date")
	}
	*dst = &t
	return nil
}

package report

import (
	"fmt"
	"it-asset-tracker/internal/model"
	"sort"
	"strings"
	"time"
	"unicode"
)

// WarrantyWindowDays is how far ahead the expiring-warranty view looks.
const WarrantyWindowDays = 30

// WarrantyExcludedStatuses never appear in the expiring-warranty view.
var WarrantyExcludedStatuses = []model.Status{model.StatusEWaste, model.StatusDamaged, model.StatusRemoved}

// WarrantyWindow returns the inclusive [from, to] range checked for expiry.
func WarrantyWindow(now time.Time) (time.Time, time.Time) {
	return now, now.AddDate(0, 0, WarrantyWindowDays)
}

// GroupByAssignee groups In Use, non-deleted assets by employee email. Each
// group takes its assignee metadata from the first asset seen. Groups are
// sorted by email ascending.
func GroupByAssignee(assets []model.Asset) []model.AssigneeGroup {
	index := make(map[string]int)
	var groups []model.AssigneeGroup

	for _, a := range assets {
		if a.IsDeleted || a.Status != model.StatusInUse {
			continue
		}
		i, ok := index[a.EmployeeEmail]
		if !ok {
			i = len(groups)
			index[a.EmployeeEmail] = i
			groups = append(groups, model.AssigneeGroup{
				EmployeeEmail: a.EmployeeEmail,
				AssigneeName:  a.AssigneeName,
				Position:      a.Position,
				PhoneNumber:   a.PhoneNumber,
				Department:    a.Department,
			})
		}
		groups[i].Assets = append(groups[i].Assets, a)
		groups[i].Count++
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].EmployeeEmail < groups[j].EmployeeEmail
	})
	return groups
}

// GroupByModel groups any subset of assets by model. The category of each
// group is the category of its first asset. Groups are sorted by model.
func GroupByModel(assets []model.Asset) []model.ModelGroup {
	index := make(map[string]int)
	var groups []model.ModelGroup

	for _, a := range assets {
		i, ok := index[a.Model]
		if !ok {
			i = len(groups)
			index[a.Model] = i
			groups = append(groups, model.ModelGroup{Model: a.Model, Category: a.Category})
		}
		groups[i].Assets = append(groups[i].Assets, a)
		groups[i].Count++
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Model < groups[j].Model
	})
	return groups
}

// NextAssetID builds the identifier for the next asset of a category from the
// number of active assets already in it, e.g. "LAP-003-48211". The trailing
// stamp is the last five digits of the clock in milliseconds.
func NextAssetID(category string, count int, now time.Time) string {
	prefix := "OTH"
	if letters := categoryLetters(category, 3); letters != "" {
		prefix = letters
	}
	stamp := now.UnixMilli() % 100000
	return fmt.Sprintf("%s-%03d-%05d", prefix, count+1, stamp)
}

// categoryLetters returns the first n letters of category, upper-cased.
// Digits, spaces and punctuation are skipped.
func categoryLetters(category string, n int) string {
	var b strings.Builder
	for _, r := range category {
		if !unicode.IsLetter(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		n--
		if n == 0 {
			break
		}
	}
	return b.String()
}

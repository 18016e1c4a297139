// Package reconciler decides whether a computed snapshot updates an existing
// external row or creates a new one.
package reconciler

import (
	"strings"

	"FXSentinel/internal/calculator"
	"FXSentinel/internal/model"
	"FXSentinel/internal/recorder"
)

// NormalizeName is the identity used to match row names to pairs.
func NormalizeName(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// BuildIndex maps normalized row names to handles. Rows with empty names are
// skipped. When several rows share a name the last one listed wins; each such
// collision is returned so callers can report it.
func BuildIndex(rows []recorder.Row) (recorder.RowIndex, []*model.ReconciliationAmbiguityError) {
	idx := make(recorder.RowIndex, len(rows))
	seen := make(map[string][]string)
	var order []string

	for _, r := range rows {
		name := NormalizeName(r.Name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; !ok {
			order = append(order, name)
		}
		seen[name] = append(seen[name], r.Handle)
		idx[name] = r.Handle
	}

	var dups []*model.ReconciliationAmbiguityError
	for _, name := range order {
		if handles := seen[name]; len(handles) > 1 {
			dups = append(dups, &model.ReconciliationAmbiguityError{Pair: name, Handles: handles})
		}
	}
	return idx, dups
}

// Reconcile turns snap into an upsert intent against idx.
func Reconcile(snap *model.Snapshot, idx recorder.RowIndex) recorder.Intent {
	fields := FieldsFromSnapshot(snap)
	if handle, ok := idx[NormalizeName(snap.Pair.String())]; ok {
		return recorder.Intent{Kind: recorder.IntentUpdate, Handle: handle, Fields: fields}
	}
	return recorder.Intent{Kind: recorder.IntentCreate, Fields: fields}
}

// FieldsFromSnapshot builds the complete row payload. Prices are rounded to
// six decimals; absent values stay absent.
func FieldsFromSnapshot(snap *model.Snapshot) recorder.Fields {
	flags := make([]model.Flag, len(snap.Flags))
	copy(flags, snap.Flags)

	return recorder.Fields{
		Name:         snap.Pair.String(),
		CurrentPrice: calculator.Round6(snap.CurrentPrice),
		DailyHigh:    calculator.Round6Opt(snap.DailyHigh),
		DailyLow:     calculator.Round6Opt(snap.DailyLow),
		TenDayHigh:   calculator.Round6(snap.TenDayHigh),
		TenDayLow:    calculator.Round6(snap.TenDayLow),
		BBUpper:      calculator.Round6Opt(snap.BBUpper),
		BBLower:      calculator.Round6Opt(snap.BBLower),
		UpdatedAt:    snap.UpdatedAt.UTC(),
		Flags:        flags,
	}
}

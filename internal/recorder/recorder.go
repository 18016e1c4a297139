package recorder

import (
	"context"
	"time"

	"github.com/moznion/go-optional"

	"FXSentinel/internal/model"
)

// Row is one existing external row as listed from a store.
type Row struct {
	Handle string
	Name   string
}

// RowIndex maps a normalized pair name to its external row handle.
type RowIndex map[string]string

// Fields is the full tracked field set of one row. Every field is written on
// each upsert; None numerics clear the stored value.
type Fields struct {
	Name         string
	CurrentPrice float64
	DailyHigh    optional.Option[float64]
	DailyLow     optional.Option[float64]
	TenDayHigh   float64
	TenDayLow    float64
	BBUpper      optional.Option[float64]
	BBLower      optional.Option[float64]
	UpdatedAt    time.Time
	Flags        []model.Flag
}

// IntentKind says whether an upsert creates a row or updates one.
type IntentKind string

const (
	IntentCreate IntentKind = "create"
	IntentUpdate IntentKind = "update"
)

// Intent is a decided upsert: the action plus the complete payload.
type Intent struct {
	Kind   IntentKind
	Handle string // empty for IntentCreate
	Fields Fields
}

// Store is a structured record store holding the latest row per pair.
type Store interface {
	// ListRows returns every existing row, following pagination internally.
	ListRows(ctx context.Context) ([]Row, error)
	Create(ctx context.Context, f Fields) (string, error)
	Update(ctx context.Context, handle string, f Fields) error
	Name() string
	Close() error
}

// Apply executes intent against s and returns the handle of the written row.
func Apply(ctx context.Context, s Store, intent Intent) (string, error) {
	if intent.Kind == IntentUpdate {
		return intent.Handle, s.Update(ctx, intent.Handle, intent.Fields)
	}
	return s.Create(ctx, intent.Fields)
}

// ptr turns an Option into a nullable pointer for wire encoding.
func ptr(v optional.Option[float64]) *float64 {
	if v.IsNone() {
		return nil
	}
	x := v.Unwrap()
	return &x
}

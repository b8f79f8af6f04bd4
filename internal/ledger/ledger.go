package ledger

import (
	"context"
	"errors"
)

// Tab names as they appear in every backend.
const (
	TabOrders        = "Orders"
	TabDownloadLinks = "Download_Links"
)

var ErrRowNotFound = errors.New("ledger: row not found")

// Row is one record in a ledger tab. Fields are keyed by the stable internal
// field keys of a Schema, never by deployment column labels.
type Row struct {
	ID     int
	Fields map[string]string
}

func (r *Row) Get(key string) string {
	return r.Fields[key]
}

// Store is the row-oriented persistence boundary. Backends offer no cross-row
// transactions, so multi-step writes go through UpdateIf or an external
// serialization point.
type Store interface {
	Append(ctx context.Context, tab string, fields map[string]string) error
	Rows(ctx context.Context, tab string) ([]Row, error)
	// Find returns the first row whose key equals value, or ErrRowNotFound.
	Find(ctx context.Context, tab, key, value string) (*Row, error)
	Update(ctx context.Context, tab string, rowID int, key, value string) error
	// UpdateIf sets key to value only if key currently equals expect. It
	// returns false without error when the guard fails.
	UpdateIf(ctx context.Context, tab string, rowID int, key, expect, value string) (bool, error)
}

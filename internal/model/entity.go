package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a tracked balance. A calculated account derives its balance
// from a Formula instead of manual entry.
type Account struct {
	ID            int
	Name          string
	Info          string
	Balance       decimal.Decimal
	IsArchived    bool
	GroupID       *int // nil = ungrouped
	InstitutionID *int // nil = no institution
	IsCalculated  bool
	Formula       Formula
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Group is a user-defined collection of accounts. Its balance is the sum
// of its non-archived members.
type Group struct {
	ID          int
	Name        string
	Description string
	Color       string
	IsArchived  bool
}

// Institution is a bank or broker that accounts belong to. Like a Group,
// its balance aggregates its non-archived members.
type Institution struct {
	ID          int
	Name        string
	Description string
	Color       string
	IsArchived  bool
}

// BalanceRecord is one balance-history row, snapshotted whenever a balance
// changes or a scheduled recording run fires.
type BalanceRecord struct {
	ID           int
	AccountID    int
	NameSnapshot string
	Balance      decimal.Decimal
	RecordedAt   time.Time
	BatchID      string // uuid shared by all rows of one recording run, empty for single updates
}

package model

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// TargetKind identifies what a formula term points at.
type TargetKind string

const (
	KindAccount     TargetKind = "account"
	KindGroup       TargetKind = "group"
	KindInstitution TargetKind = "institution"
)

// Valid reports whether k is one of the known kinds.
func (k TargetKind) Valid() bool {
	switch k {
	case KindAccount, KindGroup, KindInstitution:
		return true
	}
	return false
}

// Term is one weighted reference in a formula.
type Term struct {
	Kind        TargetKind
	ID          int
	Coefficient decimal.Decimal
}

// Formula defines a calculated account's balance as a weighted sum of
// other entities' balances. Order is kept for display only; evaluation
// is order-independent.
type Formula []Term

// termJSON is the persisted wire form. The original storage wrote two
// shapes: account-only rows {account_id, coefficient} and extended rows
// {type, id, coefficient}. Both must round-trip; we always write the
// extended shape.
type termJSON struct {
	Type        TargetKind      `json:"type,omitempty"`
	ID          *int            `json:"id,omitempty"`
	AccountID   *int            `json:"account_id,omitempty"`
	Coefficient decimal.Decimal `json:"coefficient"`
}

// MarshalJSON writes the extended {type,id,coefficient} shape.
func (t Term) MarshalJSON() ([]byte, error) {
	id := t.ID
	return json.Marshal(termJSON{Type: t.Kind, ID: &id, Coefficient: t.Coefficient})
}

// UnmarshalJSON accepts both the extended and the legacy account-only shape.
func (t *Term) UnmarshalJSON(data []byte) error {
	var raw termJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch {
	case raw.AccountID != nil:
		t.Kind = KindAccount
		t.ID = *raw.AccountID
	case raw.ID != nil:
		kind := raw.Type
		if kind == "" {
			kind = KindAccount
		}
		if !kind.Valid() {
			return fmt.Errorf("unknown term target type %q", raw.Type)
		}
		t.Kind = kind
		t.ID = *raw.ID
	default:
		return fmt.Errorf("term has neither id nor account_id")
	}

	t.Coefficient = raw.Coefficient
	return nil
}

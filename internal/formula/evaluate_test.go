package formula_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/tally-dev/tally/internal/formula"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/snapshot"
)

// mapResolver resolves account balances from a fixed map.
type mapResolver map[int]string

func (m mapResolver) Balance(kind model.TargetKind, id int) (decimal.Decimal, bool) {
	if kind != model.KindAccount {
		return decimal.Zero, false
	}
	b, ok := m[id]
	if !ok {
		return decimal.Zero, false
	}
	return decimal.RequireFromString(b), true
}

func TestEvaluate_WeightedSum(t *testing.T) {
	f := model.Formula{
		term(model.KindAccount, 1, "2"),
		term(model.KindAccount, 2, "-1"),
	}
	got := formula.Evaluate(f, mapResolver{1: "100", 2: "30"})
	assert.True(t, got.Equal(decimal.NewFromInt(170)), "got %s", got)
}

func TestEvaluate_ZeroCoefficientNeverContributes(t *testing.T) {
	// The sentinel balance must not leak into the result through a zero
	// coefficient term.
	base := model.Formula{term(model.KindAccount, 1, "1")}
	withZero := model.Formula{
		term(model.KindAccount, 1, "1"),
		term(model.KindAccount, 2, "0"),
	}
	r := mapResolver{1: "50", 2: "123456789.99"}

	assert.True(t, formula.Evaluate(base, r).Equal(formula.Evaluate(withZero, r)))
}

func TestEvaluate_DanglingTargetContributesZero(t *testing.T) {
	f := model.Formula{
		term(model.KindAccount, 1, "1"),
		term(model.KindAccount, 404, "5"),
	}
	got := formula.Evaluate(f, mapResolver{1: "25"})
	assert.True(t, got.Equal(decimal.NewFromInt(25)), "got %s", got)
}

func TestEvaluate_EmptyFormulaIsZero(t *testing.T) {
	assert.True(t, formula.Evaluate(nil, mapResolver{}).IsZero())
}

func TestEvaluate_Idempotent(t *testing.T) {
	f := model.Formula{
		term(model.KindAccount, 1, "0.1"),
		term(model.KindAccount, 2, "3"),
	}
	r := mapResolver{1: "10.55", 2: "-2"}

	first := formula.Evaluate(f, r)
	second := formula.Evaluate(f, r)
	assert.Equal(t, first.String(), second.String())
}

func TestEvaluate_GroupAggregateViaSnapshot(t *testing.T) {
	// Members 10, 20.5 and -5; an archived member with balance 999 is
	// excluded from the aggregate.
	archived := grouped(acct(4, "Closed", "999"), 10)
	archived.IsArchived = true
	snap := snapshot.New(
		[]model.Account{
			grouped(acct(1, "Checking", "10"), 10),
			grouped(acct(2, "Savings", "20.5"), 10),
			grouped(acct(3, "Overdraft", "-5"), 10),
			archived,
		},
		[]model.Group{{ID: 10, Name: "Cash"}},
		nil,
	)

	got := formula.Evaluate(model.Formula{term(model.KindGroup, 10, "1")}, snap)
	assert.True(t, got.Equal(decimal.RequireFromString("30.5")), "got %s", got)
}

func TestEvaluate_ResolverFunc(t *testing.T) {
	f := model.Formula{term(model.KindAccount, 1, "2")}
	got := formula.Evaluate(f, formula.ResolverFunc(func(kind model.TargetKind, id int) (decimal.Decimal, bool) {
		return decimal.NewFromInt(int64(id * 10)), true
	}))
	assert.True(t, got.Equal(decimal.NewFromInt(20)))
}

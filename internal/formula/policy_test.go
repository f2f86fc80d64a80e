package formula_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/formula"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/snapshot"
)

func TestCheckFormula_EmptyTermList(t *testing.T) {
	snap := snapshot.New(nil, nil, nil)

	err := formula.CheckFormula(1, nil, snap, false)
	var invalid *formula.InvalidFormulaError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "at least one term")
}

func TestCheckFormula_SelfReference(t *testing.T) {
	snap := snapshot.New([]model.Account{acct(1, "Checking", "0")}, nil, nil)

	err := formula.CheckFormula(1, model.Formula{accountTerm(1)}, snap, false)
	var invalid *formula.InvalidFormulaError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "itself")
}

func TestCheckFormula_UnknownKind(t *testing.T) {
	snap := snapshot.New(nil, nil, nil)

	err := formula.CheckFormula(1, model.Formula{{Kind: "chart", ID: 2}}, snap, false)
	assert.Error(t, err)
}

// The dangling-reference policy is split on purpose: lenient mode accepts
// the formula at save time (the term evaluates to zero later), strict mode
// rejects it up front.
func TestCheckFormula_DanglingReferencePolicies(t *testing.T) {
	snap := snapshot.New([]model.Account{acct(1, "Checking", "0")}, nil, nil)
	f := model.Formula{accountTerm(404)}

	assert.NoError(t, formula.CheckFormula(1, f, snap, false))

	err := formula.CheckFormula(1, f, snap, true)
	var invalid *formula.InvalidFormulaError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "missing")
}

func TestCheckFormula_ValidFormula(t *testing.T) {
	snap := snapshot.New(
		[]model.Account{acct(1, "Checking", "0"), acct(2, "Savings", "0")},
		[]model.Group{{ID: 10, Name: "Cash"}},
		nil,
	)
	f := model.Formula{accountTerm(2), term(model.KindGroup, 10, "-1")}

	assert.NoError(t, formula.CheckFormula(1, f, snap, true))
}

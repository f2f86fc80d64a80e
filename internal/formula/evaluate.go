package formula

import (
	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// Resolver hands back an already-resolved balance for a formula target.
// The second return is false when the target does not exist; Evaluate
// treats such terms as contributing zero.
type Resolver interface {
	Balance(kind model.TargetKind, id int) (decimal.Decimal, bool)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(kind model.TargetKind, id int) (decimal.Decimal, bool)

func (fn ResolverFunc) Balance(kind model.TargetKind, id int) (decimal.Decimal, bool) {
	return fn(kind, id)
}

// Evaluate computes a formula's balance as the sum of coefficient times
// resolved balance over all terms. It is a pure function of the formula
// and the resolver's snapshot: no recursion into other calculated
// accounts happens here, the resolver owns that.
func Evaluate(f model.Formula, r Resolver) decimal.Decimal {
	total := decimal.Zero
	for _, t := range f {
		b, ok := r.Balance(t.Kind, t.ID)
		if !ok {
			continue
		}
		total = total.Add(t.Coefficient.Mul(b))
	}
	return total
}

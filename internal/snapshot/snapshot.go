package snapshot

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// Snapshot is an immutable read view over all entities. Calculated account
// balances are resolved once at construction, so lookups afterwards are
// plain map reads. It implements both formula.Graph and formula.Resolver.
type Snapshot struct {
	accounts     map[int]*model.Account
	order        []int
	groups       map[int]model.Group
	institutions map[int]model.Institution
	groupMembers map[int][]int
	instMembers  map[int][]int
}

// New builds a Snapshot from the full entity lists. Archived accounts stay
// addressable but are excluded from group and institution membership, so
// they contribute nothing to aggregates.
func New(accounts []model.Account, groups []model.Group, institutions []model.Institution) *Snapshot {
	s := &Snapshot{
		accounts:     make(map[int]*model.Account, len(accounts)),
		order:        make([]int, 0, len(accounts)),
		groups:       make(map[int]model.Group, len(groups)),
		institutions: make(map[int]model.Institution, len(institutions)),
		groupMembers: make(map[int][]int),
		instMembers:  make(map[int][]int),
	}

	for _, g := range groups {
		s.groups[g.ID] = g
	}
	for _, inst := range institutions {
		s.institutions[inst.ID] = inst
	}
	for i := range accounts {
		a := accounts[i] // copy, the snapshot owns its data
		s.accounts[a.ID] = &a
		s.order = append(s.order, a.ID)
		if a.IsArchived {
			continue
		}
		if a.GroupID != nil {
			s.groupMembers[*a.GroupID] = append(s.groupMembers[*a.GroupID], a.ID)
		}
		if a.InstitutionID != nil {
			s.instMembers[*a.InstitutionID] = append(s.instMembers[*a.InstitutionID], a.ID)
		}
	}

	s.resolveCalculated()
	return s
}

// resolveCalculated fills in the balance of every calculated account in
// dependency order. Acyclicity is enforced at write time; the visiting
// guard stops on corrupt data instead of recursing forever.
func (s *Snapshot) resolveCalculated() {
	resolved := make(map[int]bool)
	visiting := make(map[int]bool)
	for _, id := range s.order {
		s.resolveAccount(id, resolved, visiting)
	}
}

func (s *Snapshot) resolveAccount(id int, resolved, visiting map[int]bool) decimal.Decimal {
	a, ok := s.accounts[id]
	if !ok {
		return decimal.Zero
	}
	if !a.IsCalculated || resolved[id] || visiting[id] {
		return a.Balance
	}
	visiting[id] = true

	total := decimal.Zero
	for _, t := range a.Formula {
		total = total.Add(t.Coefficient.Mul(s.resolveTarget(t, resolved, visiting)))
	}

	delete(visiting, id)
	a.Balance = total
	resolved[id] = true
	return total
}

func (s *Snapshot) resolveTarget(t model.Term, resolved, visiting map[int]bool) decimal.Decimal {
	switch t.Kind {
	case model.KindAccount:
		if _, ok := s.accounts[t.ID]; !ok {
			return decimal.Zero // dangling reference contributes nothing
		}
		return s.resolveAccount(t.ID, resolved, visiting)
	case model.KindGroup:
		return s.sumMembers(s.groupMembers[t.ID], resolved, visiting)
	case model.KindInstitution:
		return s.sumMembers(s.instMembers[t.ID], resolved, visiting)
	}
	return decimal.Zero
}

func (s *Snapshot) sumMembers(members []int, resolved, visiting map[int]bool) decimal.Decimal {
	total := decimal.Zero
	for _, id := range members {
		total = total.Add(s.resolveAccount(id, resolved, visiting))
	}
	return total
}

// kindOps dispatches balance and membership lookups per target kind.
var kindOps = map[model.TargetKind]struct {
	balance func(s *Snapshot, id int) (decimal.Decimal, bool)
	members func(s *Snapshot, id int) []int
	exists  func(s *Snapshot, id int) bool
	label   func(s *Snapshot, id int) (string, bool)
}{
	model.KindAccount: {
		balance: func(s *Snapshot, id int) (decimal.Decimal, bool) {
			a, ok := s.accounts[id]
			if !ok {
				return decimal.Zero, false
			}
			return a.Balance, true
		},
		members: func(s *Snapshot, id int) []int { return nil },
		exists: func(s *Snapshot, id int) bool {
			_, ok := s.accounts[id]
			return ok
		},
		label: func(s *Snapshot, id int) (string, bool) {
			a, ok := s.accounts[id]
			if !ok {
				return "", false
			}
			return a.Name, true
		},
	},
	model.KindGroup: {
		balance: func(s *Snapshot, id int) (decimal.Decimal, bool) {
			if _, ok := s.groups[id]; !ok {
				return decimal.Zero, false
			}
			return s.memberSum(s.groupMembers[id]), true
		},
		members: func(s *Snapshot, id int) []int { return s.groupMembers[id] },
		exists: func(s *Snapshot, id int) bool {
			_, ok := s.groups[id]
			return ok
		},
		label: func(s *Snapshot, id int) (string, bool) {
			g, ok := s.groups[id]
			if !ok {
				return "", false
			}
			return g.Name, true
		},
	},
	model.KindInstitution: {
		balance: func(s *Snapshot, id int) (decimal.Decimal, bool) {
			if _, ok := s.institutions[id]; !ok {
				return decimal.Zero, false
			}
			return s.memberSum(s.instMembers[id]), true
		},
		members: func(s *Snapshot, id int) []int { return s.instMembers[id] },
		exists: func(s *Snapshot, id int) bool {
			_, ok := s.institutions[id]
			return ok
		},
		label: func(s *Snapshot, id int) (string, bool) {
			i, ok := s.institutions[id]
			if !ok {
				return "", false
			}
			return i.Name, true
		},
	},
}

func (s *Snapshot) memberSum(members []int) decimal.Decimal {
	total := decimal.Zero
	for _, id := range members {
		total = total.Add(s.accounts[id].Balance)
	}
	return total
}

// Balance returns the current balance of an entity. Group and institution
// balances aggregate their non-archived members. The second return is
// false for unknown targets.
func (s *Snapshot) Balance(kind model.TargetKind, id int) (decimal.Decimal, bool) {
	op, ok := kindOps[kind]
	if !ok {
		return decimal.Zero, false
	}
	return op.balance(s, id)
}

// Members returns the non-archived member account IDs of a group or
// institution. Accounts have no members.
func (s *Snapshot) Members(kind model.TargetKind, id int) []int {
	op, ok := kindOps[kind]
	if !ok {
		return nil
	}
	return op.members(s, id)
}

// Exists reports whether an entity is present in the snapshot.
func (s *Snapshot) Exists(kind model.TargetKind, id int) bool {
	op, ok := kindOps[kind]
	if !ok {
		return false
	}
	return op.exists(s, id)
}

// Label returns an entity's display name, falling back to "kind id" for
// unknown targets so cycle messages stay readable.
func (s *Snapshot) Label(kind model.TargetKind, id int) string {
	if op, ok := kindOps[kind]; ok {
		if name, found := op.label(s, id); found {
			return name
		}
	}
	return fmt.Sprintf("%s %d", kind, id)
}

// Account returns a copy of an account, with calculated balance resolved.
func (s *Snapshot) Account(id int) (model.Account, bool) {
	a, ok := s.accounts[id]
	if !ok {
		return model.Account{}, false
	}
	return *a, true
}

// Accounts returns all accounts in input order, calculated balances resolved.
func (s *Snapshot) Accounts() []model.Account {
	out := make([]model.Account, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.accounts[id])
	}
	return out
}

// Groups returns all groups keyed by ID.
func (s *Snapshot) Groups() map[int]model.Group {
	out := make(map[int]model.Group, len(s.groups))
	for id, g := range s.groups {
		out[id] = g
	}
	return out
}

// Institutions returns all institutions keyed by ID.
func (s *Snapshot) Institutions() map[int]model.Institution {
	out := make(map[int]model.Institution, len(s.institutions))
	for id, i := range s.institutions {
		out[id] = i
	}
	return out
}

// Total is the grand total across all non-archived accounts.
func (s *Snapshot) Total() decimal.Decimal {
	total := decimal.Zero
	for _, id := range s.order {
		if a := s.accounts[id]; !a.IsArchived {
			total = total.Add(a.Balance)
		}
	}
	return total
}

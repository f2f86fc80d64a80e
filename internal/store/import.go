package store

import (
	"fmt"
	"time"

	"github.com/tally-dev/tally/internal/model"
)

// ImportAll replaces the store's contents with a full entity set, original
// IDs preserved so formula and membership references stay intact. Existing
// rows (balance history included, since its account ids would otherwise
// collide with the incoming set's) are cleared in the same transaction.
// The set is validated as a whole before anything is written: a dataset
// whose calculated accounts sit on a cycle is refused outright.
func (s *Store) ImportAll(accounts []model.Account, groups []model.Group, institutions []model.Institution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := revalidateAll(accounts, groups, institutions); err != nil {
		return fmt.Errorf("import rejected: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"balance_history", "accounts", "groups", "institutions"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, g := range groups {
		if _, err := tx.Exec(`INSERT INTO groups (id, name, description, color, is_archived) VALUES (?,?,?,?,?)`,
			g.ID, g.Name, g.Description, g.Color, g.IsArchived); err != nil {
			return fmt.Errorf("import group %d: %w", g.ID, err)
		}
	}
	for _, inst := range institutions {
		if _, err := tx.Exec(`INSERT INTO institutions (id, name, description, color, is_archived) VALUES (?,?,?,?,?)`,
			inst.ID, inst.Name, inst.Description, inst.Color, inst.IsArchived); err != nil {
			return fmt.Errorf("import institution %d: %w", inst.ID, err)
		}
	}

	now := time.Now().Unix()
	for _, a := range accounts {
		formulaJSON, err := marshalFormula(a)
		if err != nil {
			return fmt.Errorf("import account %d: %w", a.ID, err)
		}
		if _, err := tx.Exec(`INSERT INTO accounts
			(id, name, info, balance, is_archived, group_id, institution_id, is_calculated, formula, created_at, updated_at)
			VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
			a.ID, a.Name, a.Info, a.Balance.String(), a.IsArchived,
			nullableInt(a.GroupID), nullableInt(a.InstitutionID),
			a.IsCalculated, formulaJSON, now, now); err != nil {
			return fmt.Errorf("import account %d: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

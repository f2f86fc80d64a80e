package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/formula"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/snapshot"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// CreateAccount inserts an account and returns it with its assigned ID.
// A calculated account's formula is policy-checked and cycle-validated
// against the graph as it will look after the insert — the new account
// already counted as a member of its group and institution — so a formula
// targeting the account's own group is rejected before anything is written.
func (s *Store) CreateAccount(a model.Account) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.IsCalculated {
		accounts, groups, institutions, err := s.loadAllLocked()
		if err != nil {
			return model.Account{}, err
		}
		candidate := a
		candidate.ID = nextAccountID(accounts)
		hypothetical := append(accounts, candidate)
		snap := snapshot.New(hypothetical, groups, institutions)
		if err := checkAndValidate(candidate.ID, a.Formula, snap, s.strict); err != nil {
			return model.Account{}, err
		}
		if err := revalidateAll(hypothetical, groups, institutions); err != nil {
			return model.Account{}, err
		}
	} else {
		a.Formula = nil
	}

	formulaJSON, err := marshalFormula(a)
	if err != nil {
		return model.Account{}, err
	}

	now := time.Now()
	res, err := s.db.Exec(`INSERT INTO accounts
		(name, info, balance, is_archived, group_id, institution_id, is_calculated, formula, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		a.Name, a.Info, a.Balance.String(), a.IsArchived,
		nullableInt(a.GroupID), nullableInt(a.InstitutionID),
		a.IsCalculated, formulaJSON, now.Unix(), now.Unix(),
	)
	if err != nil {
		return model.Account{}, fmt.Errorf("insert account: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Account{}, fmt.Errorf("account id: %w", err)
	}
	a.ID = int(id)
	a.CreatedAt = now
	a.UpdatedAt = now

	if !a.IsCalculated {
		if err := s.appendHistory(a.ID, a.Name, a.Balance, ""); err != nil {
			return model.Account{}, err
		}
	}
	return a, nil
}

// GetAccount returns one account by ID.
func (s *Store) GetAccount(id int) (model.Account, error) {
	row := s.db.QueryRow(`SELECT id, name, info, balance, is_archived, group_id, institution_id, is_calculated, formula, created_at, updated_at
		FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, fmt.Errorf("account %d: %w", id, ErrNotFound)
	}
	return a, err
}

// ListAccounts returns accounts ordered by name. Archived accounts are
// included only when asked for.
func (s *Store) ListAccounts(includeArchived bool) ([]model.Account, error) {
	query := `SELECT id, name, info, balance, is_archived, group_id, institution_id, is_calculated, formula, created_at, updated_at
		FROM accounts`
	if !includeArchived {
		query += ` WHERE is_archived = 0`
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// SetBalance updates a manually tracked account's balance and appends a
// history record in the same transaction. Calculated accounts are refused:
// their balance is derived.
func (s *Store) SetBalance(id int, balance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.GetAccount(id)
	if err != nil {
		return err
	}
	if a.IsCalculated {
		return fmt.Errorf("account %q is calculated, its balance is derived from its formula", a.Name)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE accounts SET balance = ?, updated_at = ? WHERE id = ?`,
		balance.String(), time.Now().Unix(), id); err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO balance_history (account_id, name_snapshot, balance, recorded_at, batch_id)
		VALUES (?,?,?,?,'')`,
		id, a.Name, balance.String(), time.Now().Unix()); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return tx.Commit()
}

// SetFormula makes an account calculated with the given formula. The full
// term list is checked and cycle-validated against the current snapshot,
// then persisted atomically under the writer lock.
func (s *Store) SetFormula(id int, f model.Formula) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.GetAccount(id); err != nil {
		return err
	}

	snap, err := s.snapshotLocked()
	if err != nil {
		return err
	}
	if err := checkAndValidate(id, f, snap, s.strict); err != nil {
		return err
	}

	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal formula: %w", err)
	}
	_, err = s.db.Exec(`UPDATE accounts SET is_calculated = 1, formula = ?, updated_at = ? WHERE id = ?`,
		string(data), time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("update formula: %w", err)
	}
	return nil
}

// ClearFormula toggles an account back to manual entry, dropping its formula.
func (s *Store) ClearFormula(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearFormulaLocked(id)
}

func (s *Store) clearFormulaLocked(id int) error {
	_, err := s.db.Exec(`UPDATE accounts SET is_calculated = 0, formula = NULL, updated_at = ? WHERE id = ?`,
		time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("clear formula: %w", err)
	}
	return nil
}

// SetMembership moves an account into (or out of) a group and institution.
// Membership edges feed aggregates, so every calculated formula is
// re-validated against the hypothetical graph before the move persists.
func (s *Store) SetMembership(id int, groupID, institutionID *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, groups, institutions, err := s.loadAllLocked()
	if err != nil {
		return err
	}

	found := false
	for i := range accounts {
		if accounts[i].ID == id {
			accounts[i].GroupID = groupID
			accounts[i].InstitutionID = institutionID
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("account %d: %w", id, ErrNotFound)
	}
	if err := revalidateAll(accounts, groups, institutions); err != nil {
		return err
	}

	_, err = s.db.Exec(`UPDATE accounts SET group_id = ?, institution_id = ?, updated_at = ? WHERE id = ?`,
		nullableInt(groupID), nullableInt(institutionID), time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("update membership: %w", err)
	}
	return nil
}

// SetArchived archives or restores an account. Archiving a calculated
// account drops its formula. Restoring re-validates every calculated
// formula, since the account rejoins its group's aggregate.
func (s *Store) SetArchived(id int, archived bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !archived {
		accounts, groups, institutions, err := s.loadAllLocked()
		if err != nil {
			return err
		}
		for i := range accounts {
			if accounts[i].ID == id {
				accounts[i].IsArchived = false
			}
		}
		if err := revalidateAll(accounts, groups, institutions); err != nil {
			return err
		}
	}

	res, err := s.db.Exec(`UPDATE accounts SET is_archived = ?, updated_at = ? WHERE id = ?`,
		archived, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("update archived: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("account %d: %w", id, ErrNotFound)
	}
	if archived {
		return s.clearFormulaLocked(id)
	}
	return nil
}

// DeleteAccount removes an account. History rows stay (they carry their
// own name snapshot); formulas elsewhere that referenced the account
// become dangling and evaluate to zero.
func (s *Store) DeleteAccount(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("account %d: %w", id, ErrNotFound)
	}
	return nil
}

// Snapshot loads the full entity set as an immutable view with calculated
// balances resolved.
func (s *Store) Snapshot() (*snapshot.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() (*snapshot.Snapshot, error) {
	accounts, groups, institutions, err := s.loadAllLocked()
	if err != nil {
		return nil, err
	}
	return snapshot.New(accounts, groups, institutions), nil
}

func (s *Store) loadAllLocked() ([]model.Account, []model.Group, []model.Institution, error) {
	accounts, err := s.ListAccounts(true)
	if err != nil {
		return nil, nil, nil, err
	}
	groups, err := s.ListGroups(true)
	if err != nil {
		return nil, nil, nil, err
	}
	institutions, err := s.ListInstitutions(true)
	if err != nil {
		return nil, nil, nil, err
	}
	return accounts, groups, institutions, nil
}

// checkAndValidate runs the save-time policy then the cycle walk.
func checkAndValidate(candidateID int, f model.Formula, snap *snapshot.Snapshot, strict bool) error {
	if err := formula.CheckFormula(candidateID, f, snap, strict); err != nil {
		return err
	}
	res, err := formula.Validate(candidateID, f, snap)
	if err != nil {
		return err
	}
	if res.HasCycle {
		return &formula.CycleError{Result: res}
	}
	return nil
}

// nextAccountID is the rowid sqlite will hand the next insert.
func nextAccountID(accounts []model.Account) int {
	next := 1
	for _, a := range accounts {
		if a.ID >= next {
			next = a.ID + 1
		}
	}
	return next
}

// revalidateAll rejects a graph mutation if any existing calculated
// formula would sit on a cycle afterwards.
func revalidateAll(accounts []model.Account, groups []model.Group, institutions []model.Institution) error {
	snap := snapshot.New(accounts, groups, institutions)
	for _, a := range accounts {
		if !a.IsCalculated {
			continue
		}
		res, err := formula.Validate(a.ID, a.Formula, snap)
		if err != nil {
			return err
		}
		if res.HasCycle {
			return &formula.CycleError{Result: res}
		}
	}
	return nil
}

func (s *Store) appendHistory(accountID int, name string, balance decimal.Decimal, batchID string) error {
	_, err := s.db.Exec(`INSERT INTO balance_history (account_id, name_snapshot, balance, recorded_at, batch_id)
		VALUES (?,?,?,?,?)`,
		accountID, name, balance.String(), time.Now().Unix(), batchID)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func marshalFormula(a model.Account) (any, error) {
	if !a.IsCalculated || len(a.Formula) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(a.Formula)
	if err != nil {
		return nil, fmt.Errorf("marshal formula: %w", err)
	}
	return string(data), nil
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (model.Account, error) {
	var (
		a           model.Account
		balance     string
		groupID     sql.NullInt64
		instID      sql.NullInt64
		formulaJSON sql.NullString
		created     int64
		updated     int64
	)
	err := row.Scan(&a.ID, &a.Name, &a.Info, &balance, &a.IsArchived,
		&groupID, &instID, &a.IsCalculated, &formulaJSON, &created, &updated)
	if err != nil {
		return model.Account{}, err
	}

	a.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return model.Account{}, fmt.Errorf("account %d balance %q: %w", a.ID, balance, err)
	}
	if groupID.Valid {
		id := int(groupID.Int64)
		a.GroupID = &id
	}
	if instID.Valid {
		id := int(instID.Int64)
		a.InstitutionID = &id
	}
	if formulaJSON.Valid && formulaJSON.String != "" {
		if err := json.Unmarshal([]byte(formulaJSON.String), &a.Formula); err != nil {
			return model.Account{}, fmt.Errorf("account %d formula: %w", a.ID, err)
		}
	}
	a.CreatedAt = time.Unix(created, 0)
	a.UpdatedAt = time.Unix(updated, 0)
	return a, nil
}

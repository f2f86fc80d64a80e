package store

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// History returns the newest balance records for an account, most recent
// first. limit <= 0 means no limit.
func (s *Store) History(accountID, limit int) ([]model.BalanceRecord, error) {
	query := `SELECT id, account_id, name_snapshot, balance, recorded_at, batch_id
		FROM balance_history WHERE account_id = ? ORDER BY recorded_at DESC, id DESC`
	args := []any{accountID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []model.BalanceRecord
	for rows.Next() {
		var (
			r        model.BalanceRecord
			balance  string
			recorded int64
		)
		if err := rows.Scan(&r.ID, &r.AccountID, &r.NameSnapshot, &balance, &recorded, &r.BatchID); err != nil {
			return nil, err
		}
		r.Balance, err = decimal.NewFromString(balance)
		if err != nil {
			return nil, fmt.Errorf("history %d balance %q: %w", r.ID, balance, err)
		}
		r.RecordedAt = time.Unix(recorded, 0)
		records = append(records, r)
	}
	return records, rows.Err()
}

// RecordBatch snapshots the effective balance of every non-archived
// account into the history table under one batch ID, evaluating calculated
// accounts. The cached balance column of calculated accounts is refreshed
// in the same transaction. Returns the number of rows written.
func (s *Store) RecordBatch(batchID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.snapshotLocked()
	if err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	written := 0
	for _, a := range snap.Accounts() {
		if a.IsArchived {
			continue
		}
		if _, err := tx.Exec(`INSERT INTO balance_history (account_id, name_snapshot, balance, recorded_at, batch_id)
			VALUES (?,?,?,?,?)`,
			a.ID, a.Name, a.Balance.String(), now, batchID); err != nil {
			return 0, fmt.Errorf("insert history for account %d: %w", a.ID, err)
		}
		if a.IsCalculated {
			if _, err := tx.Exec(`UPDATE accounts SET balance = ? WHERE id = ?`,
				a.Balance.String(), a.ID); err != nil {
				return 0, fmt.Errorf("refresh cached balance for account %d: %w", a.ID, err)
			}
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return written, nil
}

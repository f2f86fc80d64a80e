package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/tally-dev/tally/internal/model"
)

// CreateInstitution inserts an institution and returns it with its ID.
func (s *Store) CreateInstitution(inst model.Institution) (model.Institution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`INSERT INTO institutions (name, description, color, is_archived) VALUES (?,?,?,?)`,
		inst.Name, inst.Description, inst.Color, inst.IsArchived)
	if err != nil {
		return model.Institution{}, fmt.Errorf("insert institution: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Institution{}, fmt.Errorf("institution id: %w", err)
	}
	inst.ID = int(id)
	return inst, nil
}

// GetInstitution returns one institution by ID.
func (s *Store) GetInstitution(id int) (model.Institution, error) {
	var inst model.Institution
	err := s.db.QueryRow(`SELECT id, name, description, color, is_archived FROM institutions WHERE id = ?`, id).
		Scan(&inst.ID, &inst.Name, &inst.Description, &inst.Color, &inst.IsArchived)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Institution{}, fmt.Errorf("institution %d: %w", id, ErrNotFound)
	}
	return inst, err
}

// ListInstitutions returns institutions ordered by name.
func (s *Store) ListInstitutions(includeArchived bool) ([]model.Institution, error) {
	query := `SELECT id, name, description, color, is_archived FROM institutions`
	if !includeArchived {
		query += ` WHERE is_archived = 0`
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list institutions: %w", err)
	}
	defer rows.Close()

	var institutions []model.Institution
	for rows.Next() {
		var inst model.Institution
		if err := rows.Scan(&inst.ID, &inst.Name, &inst.Description, &inst.Color, &inst.IsArchived); err != nil {
			return nil, err
		}
		institutions = append(institutions, inst)
	}
	return institutions, rows.Err()
}

// DeleteInstitution removes an institution and detaches its accounts.
func (s *Store) DeleteInstitution(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE accounts SET institution_id = NULL WHERE institution_id = ?`, id); err != nil {
		return fmt.Errorf("detach institution members: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM institutions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete institution: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("institution %d: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

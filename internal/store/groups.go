package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/tally-dev/tally/internal/model"
)

// CreateGroup inserts a group and returns it with its assigned ID.
func (s *Store) CreateGroup(g model.Group) (model.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`INSERT INTO groups (name, description, color, is_archived) VALUES (?,?,?,?)`,
		g.Name, g.Description, g.Color, g.IsArchived)
	if err != nil {
		return model.Group{}, fmt.Errorf("insert group: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Group{}, fmt.Errorf("group id: %w", err)
	}
	g.ID = int(id)
	return g, nil
}

// GetGroup returns one group by ID.
func (s *Store) GetGroup(id int) (model.Group, error) {
	var g model.Group
	err := s.db.QueryRow(`SELECT id, name, description, color, is_archived FROM groups WHERE id = ?`, id).
		Scan(&g.ID, &g.Name, &g.Description, &g.Color, &g.IsArchived)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Group{}, fmt.Errorf("group %d: %w", id, ErrNotFound)
	}
	return g, err
}

// ListGroups returns groups ordered by name.
func (s *Store) ListGroups(includeArchived bool) ([]model.Group, error) {
	query := `SELECT id, name, description, color, is_archived FROM groups`
	if !includeArchived {
		query += ` WHERE is_archived = 0`
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []model.Group
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.Color, &g.IsArchived); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// DeleteGroup removes a group and detaches its member accounts. Formulas
// that referenced the group become dangling and evaluate to zero.
func (s *Store) DeleteGroup(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE accounts SET group_id = NULL WHERE group_id = ?`, id); err != nil {
		return fmt.Errorf("detach group members: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("group %d: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

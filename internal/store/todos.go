package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Todo is one task on the energy-aware list. Effort and impact are
// 1..5 ratings supplied by the user.
type Todo struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Effort    int       `json:"effort"`
	Impact    int       `json:"impact"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
}

// ListTodos returns all todos ordered by creation time. Ordering by
// energy fit is the caller's concern.
func (s *Store) ListTodos(ctx context.Context) ([]Todo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, effort, impact, done, created_at
		FROM todos ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("ListTodos: %w", err)
	}
	defer rows.Close()

	todos := []Todo{}
	for rows.Next() {
		var t Todo
		if err := rows.Scan(&t.ID, &t.Title, &t.Effort, &t.Impact, &t.Done, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListTodos: scan: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListTodos: rows: %w", err)
	}
	return todos, nil
}

// CreateTodo inserts a new todo and returns it with its generated id.
func (s *Store) CreateTodo(ctx context.Context, title string, effort, impact int) (*Todo, error) {
	t := Todo{
		ID:        uuid.New(),
		Title:     title,
		Effort:    effort,
		Impact:    impact,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO todos (id, title, effort, impact, done, created_at)
		VALUES ($1, $2, $3, $4, false, $5)`,
		t.ID, t.Title, t.Effort, t.Impact, t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("CreateTodo: %w", err)
	}
	return &t, nil
}

// SetTodoDone flips the done flag. Returns sql.ErrNoRows when the id
// does not exist.
func (s *Store) SetTodoDone(ctx context.Context, id uuid.UUID, done bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE todos SET done = $2 WHERE id = $1`, id, done)
	if err != nil {
		return fmt.Errorf("SetTodoDone: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("SetTodoDone: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteTodo removes a todo. Returns sql.ErrNoRows when the id does
// not exist.
func (s *Store) DeleteTodo(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteTodo: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteTodo: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

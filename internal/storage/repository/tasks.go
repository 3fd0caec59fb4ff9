package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/focus-tracker/internal/models"
)

const taskColumns = `id, user_id, title, icon, color, is_active, total_time, last_used,
	created_at, updated_at`

// CreateTask вставляет новую задачу и возвращает созданную запись.
func (s *Storage) CreateTask(ctx context.Context, task models.Task) (*models.Task, error) {
	const op = "storage.CreateTask"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO tasks (user_id, title, icon, color, is_active)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING ` + taskColumns
	row := s.db.QueryRowContext(ctx, query,
		task.UserID, task.Title, task.Icon, task.Color, task.IsActive)

	created, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetTaskByID возвращает задачу по ID при условии, что она принадлежит userID.
// Отсутствие и чужая задача неразличимы: обе дают models.ErrNotFound.
func (s *Storage) GetTaskByID(ctx context.Context, id, userID string) (*models.Task, error) {
	const op = "storage.GetTaskByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + taskColumns + `
			  FROM tasks
			  WHERE id = $1 AND user_id = $2`
	task, err := scanTask(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return task, nil
}

// ListTasksByUser возвращает задачи пользователя, упорядоченные по последнему
// использованию (nulls last), затем по дате создания. onlyActive ограничивает
// выборку активными задачами.
func (s *Storage) ListTasksByUser(ctx context.Context, userID string, onlyActive bool) ([]*models.Task, error) {
	const op = "storage.ListTasksByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + taskColumns + `
			  FROM tasks
			  WHERE user_id = $1 AND ($2 = FALSE OR is_active = TRUE)
			  ORDER BY last_used DESC NULLS LAST, created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, userID, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Task
	for rows.Next() {
		task, err := scanTaskRows(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateTask перезаписывает изменяемые поля задачи и возвращает свежую запись.
func (s *Storage) UpdateTask(ctx context.Context, task models.Task) (*models.Task, error) {
	const op = "storage.UpdateTask"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE tasks
			  SET title = $1, icon = $2, color = $3, is_active = $4, updated_at = now()
			  WHERE id = $5 AND user_id = $6
			  RETURNING ` + taskColumns
	row := s.db.QueryRowContext(ctx, query,
		task.Title, task.Icon, task.Color, task.IsActive, task.ID, task.UserID)

	updated, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// DeleteTask удаляет задачу. Ссылки на неё в сессиях обнуляются внешним ключом
// ON DELETE SET NULL, сами сессии не удаляются.
func (s *Storage) DeleteTask(ctx context.Context, id, userID string) error {
	const op = "storage.DeleteTask"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`
	result, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// IncrementTaskTotalTime атомарно прибавляет deltaSeconds к накопленному времени
// задачи и обновляет отметку последнего использования.
func (s *Storage) IncrementTaskTotalTime(ctx context.Context, id, userID string, deltaSeconds int64) error {
	const op = "storage.IncrementTaskTotalTime"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE tasks
			  SET total_time = total_time + $1, last_used = now(), updated_at = now()
			  WHERE id = $2 AND user_id = $3`
	result, err := s.db.ExecContext(ctx, query, deltaSeconds, id, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// GetTaskStats агрегирует статистику по всем задачам пользователя.
func (s *Storage) GetTaskStats(ctx context.Context, userID string) (*models.TaskStats, error) {
	const op = "storage.GetTaskStats"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT
			      COUNT(*),
			      COUNT(*) FILTER (WHERE is_active),
			      COUNT(*) FILTER (WHERE NOT is_active),
			      COALESCE(SUM(total_time), 0)
			  FROM tasks
			  WHERE user_id = $1`
	stats := &models.TaskStats{}
	row := s.db.QueryRowContext(ctx, query, userID)
	if err := row.Scan(&stats.Total, &stats.Active, &stats.Inactive, &stats.TotalTime); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}

func scanTask(row *sql.Row) (*models.Task, error) {
	t := &models.Task{}
	var icon, color sql.NullString
	var lastUsed sql.NullTime
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &icon, &color, &t.IsActive,
		&t.TotalTime, &lastUsed, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	applyTaskNullables(t, icon, color, lastUsed)
	return t, nil
}

func scanTaskRows(rows *sql.Rows) (*models.Task, error) {
	t := &models.Task{}
	var icon, color sql.NullString
	var lastUsed sql.NullTime
	if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &icon, &color, &t.IsActive,
		&t.TotalTime, &lastUsed, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	applyTaskNullables(t, icon, color, lastUsed)
	return t, nil
}

func applyTaskNullables(t *models.Task, icon, color sql.NullString, lastUsed sql.NullTime) {
	if icon.Valid {
		t.Icon = &icon.String
	}
	if color.Valid {
		t.Color = &color.String
	}
	if lastUsed.Valid {
		t.LastUsed = &lastUsed.Time
	}
}

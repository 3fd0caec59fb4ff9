package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/focus-tracker/internal/models"
)

const sessionColumns = `id, user_id, task_id, start_time, end_time, duration, pause_count,
	total_pause_time, status, face_stats_summary, created_at, updated_at`

// CreateSession вставляет новую таймерную сессию и возвращает созданную запись.
// Частичный уникальный индекс по (user_id) для статусов active/paused превращает
// гонку двух одновременных запусков в models.ErrActiveSessionExists.
func (s *Storage) CreateSession(ctx context.Context, session models.TimerSession) (*models.TimerSession, error) {
	const op = "storage.CreateSession"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO timer_sessions (user_id, task_id, start_time, status)
			  VALUES ($1, $2, $3, $4)
			  RETURNING ` + sessionColumns
	row := s.db.QueryRowContext(ctx, query,
		session.UserID, session.TaskID, session.StartTime, session.Status)

	created, err := scanSession(row.Scan)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, fmt.Errorf("%s: %w", op, models.ErrActiveSessionExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetSessionByID возвращает сессию по ID при условии, что она принадлежит userID.
// Отсутствие и чужая сессия неразличимы: обе дают models.ErrNotFound.
func (s *Storage) GetSessionByID(ctx context.Context, id, userID string) (*models.TimerSession, error) {
	const op = "storage.GetSessionByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + sessionColumns + `
			  FROM timer_sessions
			  WHERE id = $1 AND user_id = $2`
	session, err := scanSession(s.db.QueryRowContext(ctx, query, id, userID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return session, nil
}

// GetActiveSessionByUser возвращает единственную активную или приостановленную
// сессию пользователя либо nil, если таковой нет.
func (s *Storage) GetActiveSessionByUser(ctx context.Context, userID string) (*models.TimerSession, error) {
	const op = "storage.GetActiveSessionByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + sessionColumns + `
			  FROM timer_sessions
			  WHERE user_id = $1 AND status IN ('active', 'paused')`
	session, err := scanSession(s.db.QueryRowContext(ctx, query, userID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return session, nil
}

// UpdateSession перезаписывает изменяемые поля сессии.
func (s *Storage) UpdateSession(ctx context.Context, session *models.TimerSession) error {
	const op = "storage.UpdateSession"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	faceStats, err := marshalFaceStats(session.FaceStats)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	query := `UPDATE timer_sessions
			  SET end_time = $1, duration = $2, pause_count = $3, total_pause_time = $4,
			      status = $5, face_stats_summary = $6, updated_at = now()
			  WHERE id = $7 AND user_id = $8`
	result, err := s.db.ExecContext(ctx, query,
		session.EndTime, session.Duration, session.PauseCount, session.TotalPauseTime,
		session.Status, faceStats, session.ID, session.UserID)
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

// ListSessionsByUser возвращает сессии пользователя, новые первыми, не более limit.
func (s *Storage) ListSessionsByUser(ctx context.Context, userID string, limit int) ([]*models.TimerSession, error) {
	const op = "storage.ListSessionsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + sessionColumns + `
			  FROM timer_sessions
			  WHERE user_id = $1
			  ORDER BY start_time DESC
			  LIMIT $2`
	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.TimerSession
	for rows.Next() {
		session, err := scanSession(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreatePauseAndUpdateSession в одной транзакции открывает паузу и сохраняет
// новое состояние сессии (status, pause_count).
func (s *Storage) CreatePauseAndUpdateSession(ctx context.Context, pause models.SessionPause, session *models.TimerSession) (*models.SessionPause, error) {
	const op = "storage.CreatePauseAndUpdateSession"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var created *models.SessionPause
	err := s.withinTx(ctx, func(r *Storage) error {
		query := `INSERT INTO session_pauses (session_id, pause_start)
				  VALUES ($1, $2)
				  RETURNING id, session_id, pause_start, pause_end, duration, created_at`
		row := r.db.QueryRowContext(ctx, query, pause.SessionID, pause.PauseStart)
		p, err := scanPause(row.Scan)
		if err != nil {
			return err
		}
		created = p
		return r.UpdateSession(ctx, session)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// ClosePauseAndUpdateSession в одной транзакции закрывает паузу (если задана)
// и сохраняет новое состояние сессии. Используется возобновлением и остановкой.
func (s *Storage) ClosePauseAndUpdateSession(ctx context.Context, pause *models.SessionPause, session *models.TimerSession) error {
	const op = "storage.ClosePauseAndUpdateSession"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	err := s.withinTx(ctx, func(r *Storage) error {
		if pause != nil {
			query := `UPDATE session_pauses
					  SET pause_end = $1, duration = $2
					  WHERE id = $3`
			if _, err := r.db.ExecContext(ctx, query, pause.PauseEnd, pause.Duration, pause.ID); err != nil {
				return err
			}
		}
		return r.UpdateSession(ctx, session)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetOpenPause возвращает открытую паузу сессии (pause_end IS NULL) либо nil.
// Открытых пауз у сессии не бывает больше одной.
func (s *Storage) GetOpenPause(ctx context.Context, sessionID string) (*models.SessionPause, error) {
	const op = "storage.GetOpenPause"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, session_id, pause_start, pause_end, duration, created_at
			  FROM session_pauses
			  WHERE session_id = $1 AND pause_end IS NULL`
	pause, err := scanPause(s.db.QueryRowContext(ctx, query, sessionID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pause, nil
}

// ListPausesBySession возвращает паузы сессии в хронологическом порядке.
func (s *Storage) ListPausesBySession(ctx context.Context, sessionID string) ([]*models.SessionPause, error) {
	const op = "storage.ListPausesBySession"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, session_id, pause_start, pause_end, duration, created_at
			  FROM session_pauses
			  WHERE session_id = $1
			  ORDER BY pause_start ASC`
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SessionPause
	for rows.Next() {
		pause, err := scanPause(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, pause)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func scanSession(scan func(dest ...any) error) (*models.TimerSession, error) {
	sess := &models.TimerSession{}
	var taskID sql.NullString
	var endTime sql.NullTime
	var faceStats []byte
	if err := scan(&sess.ID, &sess.UserID, &taskID, &sess.StartTime, &endTime,
		&sess.Duration, &sess.PauseCount, &sess.TotalPauseTime, &sess.Status,
		&faceStats, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
		return nil, err
	}
	if taskID.Valid {
		sess.TaskID = &taskID.String
	}
	if endTime.Valid {
		sess.EndTime = &endTime.Time
	}
	if len(faceStats) > 0 {
		if err := json.Unmarshal(faceStats, &sess.FaceStats); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

func scanPause(scan func(dest ...any) error) (*models.SessionPause, error) {
	p := &models.SessionPause{}
	var pauseEnd sql.NullTime
	var duration sql.NullInt64
	if err := scan(&p.ID, &p.SessionID, &p.PauseStart, &pauseEnd, &duration, &p.CreatedAt); err != nil {
		return nil, err
	}
	if pauseEnd.Valid {
		p.PauseEnd = &pauseEnd.Time
	}
	if duration.Valid {
		p.Duration = &duration.Int64
	}
	return p, nil
}

func marshalFaceStats(stats map[string]any) ([]byte, error) {
	if stats == nil {
		return nil, nil
	}
	return json.Marshal(stats)
}

package models

import "time"

// SessionStatus описывает состояние таймерной сессии.
type SessionStatus string

const (
	// SessionStatusActive — таймер идёт.
	SessionStatusActive SessionStatus = "active"
	// SessionStatusPaused — таймер приостановлен.
	SessionStatusPaused SessionStatus = "paused"
	// SessionStatusCompleted — сессия завершена штатно. Терминальное состояние.
	SessionStatusCompleted SessionStatus = "completed"
	// SessionStatusCancelled — сессия отменена. Терминальное состояние.
	SessionStatusCancelled SessionStatus = "cancelled"
)

// TimerSession представляет один отрезок отслеживаемой работы,
// опционально привязанный к задаче. Если задача позже удалена,
// TaskID обнуляется, сама сессия сохраняется.
type TimerSession struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	TaskID         *string        `json:"task_id,omitempty"`
	StartTime      time.Time      `json:"start_time"`
	EndTime        *time.Time     `json:"end_time,omitempty"`
	Duration       int64          `json:"duration"` // полный интервал в секундах, включая паузы
	PauseCount     int            `json:"pause_count"`
	TotalPauseTime int64          `json:"total_pause_time"`
	Status         SessionStatus  `json:"status"`
	FaceStats      map[string]any `json:"face_stats_summary,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// EffectiveDuration возвращает время, засчитываемое задаче:
// полный интервал за вычетом суммарных пауз.
func (s *TimerSession) EffectiveDuration() int64 {
	return s.Duration - s.TotalPauseTime
}

// CanBePaused сообщает, допустима ли пауза в текущем состоянии.
func (s *TimerSession) CanBePaused() bool {
	return s.Status == SessionStatusActive
}

// CanBeResumed сообщает, допустимо ли возобновление в текущем состоянии.
func (s *TimerSession) CanBeResumed() bool {
	return s.Status == SessionStatusPaused
}

// SessionPause представляет один интервал паузы внутри сессии.
// PauseEnd и Duration равны nil, пока пауза не закрыта.
type SessionPause struct {
	ID         string     `json:"id"`
	SessionID  string     `json:"session_id"`
	PauseStart time.Time  `json:"pause_start"`
	PauseEnd   *time.Time `json:"pause_end,omitempty"`
	Duration   *int64     `json:"duration,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// StartTimerRequest используется для приёма данных запуска таймера.
type StartTimerRequest struct {
	TaskID *string `json:"task_id,omitempty" validate:"omitempty,uuid"`
}

// StopTimerRequest используется для приёма данных остановки таймера.
type StopTimerRequest struct {
	FaceStatsSummary map[string]any `json:"face_stats_summary,omitempty"`
}

package models

import "time"

// Task представляет задачу — именованную корзину, на которую списывается
// отслеженное время. Принадлежит ровно одному пользователю.
type Task struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Title     string     `json:"title"`
	Icon      *string    `json:"icon,omitempty"`
	Color     *string    `json:"color,omitempty"`
	IsActive  bool       `json:"is_active"`
	TotalTime int64      `json:"total_time"` // накопленное время в секундах
	LastUsed  *time.Time `json:"last_used,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CreateTaskRequest используется для приёма данных новой задачи из JSON-запроса.
type CreateTaskRequest struct {
	Title string  `json:"title" validate:"required,min=1,max=200"`
	Icon  *string `json:"icon,omitempty" validate:"omitempty,max=100"`
	Color *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// UpdateTaskRequest используется для частичного обновления задачи.
// Nil-поля не изменяются.
type UpdateTaskRequest struct {
	Title *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Icon  *string `json:"icon,omitempty" validate:"omitempty,max=100"`
	Color *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// TaskStats — агрегированная статистика по всем задачам пользователя.
type TaskStats struct {
	Total     int   `json:"total"`
	Active    int   `json:"active"`
	Inactive  int   `json:"inactive"`
	TotalTime int64 `json:"total_time"`
}

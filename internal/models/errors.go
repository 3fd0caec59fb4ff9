package models

import (
	"errors"
	"fmt"
)

// Сентинельные ошибки доменного уровня. Сервисы не перехватывают их —
// ошибки поднимаются до HTTP-слоя, где транслируются в статусы ответов.
var (
	// ErrNotFound — сущность отсутствует либо принадлежит другому пользователю.
	// Эти случаи намеренно неразличимы, чтобы не раскрывать чужие данные.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken — пользователь с таким email уже зарегистрирован.
	ErrEmailTaken = errors.New("email already taken")
	// ErrActiveSessionExists — у пользователя уже есть активная или
	// приостановленная сессия.
	ErrActiveSessionExists = errors.New("active session already exists")
	// ErrInvalidSessionState — операция недопустима в текущем состоянии сессии.
	ErrInvalidSessionState = errors.New("invalid session state")
	// ErrInvalidCredentials — неверный email или пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRefreshToken — refresh-токен не найден, истёк или отозван.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// ValidationError — ошибка валидации входных данных. Возвращается
// до любой мутации, первой нарушенной проверкой.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: field %s %s", e.Field, e.Msg)
}

// NewValidationError создает ValidationError для поля field с текстом msg.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

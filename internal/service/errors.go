package service

import "fmt"

// коды бизнес-ошибок; каждому соответствует свой HTTP-статус на границе handlers
const (
	CodeNotFound          = "NOT_FOUND"
	CodeActiveEntryExists = "ACTIVE_ENTRY_EXISTS"
	CodeAlreadyStopped    = "ALREADY_STOPPED"
	CodeEntryActive       = "ENTRY_ACTIVE"
	CodeAlreadyArchived   = "ALREADY_ARCHIVED"
	CodeNotArchived       = "NOT_ARCHIVED"
	CodeEditWindowExpired = "EDIT_WINDOW_EXPIRED"
	CodeValidation        = "VALIDATION_ERROR"
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

// NewNotFound - сущность не существует либо принадлежит другому пользователю;
// оба случая снаружи выглядят одинаково
func NewNotFound(resource string, id string) *BusinessError {
	return &BusinessError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s не найден(а)", resource, id),
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

// NewConflict - запрошенный переход нарушает инвариант состояния
func NewConflict(code string, message string, details ...Detail) *BusinessError {
	return NewBusinessError(code, message, details...)
}

// NewForbidden - запрос корректен, но запрещён временной политикой
func NewForbidden(code string, message string, details ...Detail) *BusinessError {
	return NewBusinessError(code, message, details...)
}

func NewValidationError(field, reason string) *BusinessError {
	return &BusinessError{
		Code:    CodeValidation,
		Message: fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		Details: map[string]any{
			"field":  field,
			"reason": reason,
		},
	}
}

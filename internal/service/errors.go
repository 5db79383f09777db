package service

import "fmt"

// коды бизнес-ошибок; в HTTP-статусы их переводит только слой handlers
const (
	CodeNotFound           = "NOT_FOUND"
	CodeValidation         = "VALIDATION_ERROR"
	CodeDuplicate          = "DUPLICATE"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountInactive    = "ACCOUNT_INACTIVE"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeSelfDeactivation   = "SELF_DEACTIVATION"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type BusinessError struct {
	Code    string
	Message string
	Fields  []FieldError
	Err     error
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

func NewNotFound(resource string) *BusinessError {
	return &BusinessError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s не найден(а)", resource),
	}
}

func NewValidation(fields ...FieldError) *BusinessError {
	return &BusinessError{
		Code:    CodeValidation,
		Message: "ошибка валидации",
		Fields:  fields,
	}
}

func NewDuplicate(field string) *BusinessError {
	var msg string
	switch field {
	case "email":
		msg = "email уже зарегистрирован"
	case "username":
		msg = "имя пользователя уже занято"
	default:
		msg = fmt.Sprintf("значение поля %q уже занято", field)
	}
	return &BusinessError{
		Code:    CodeDuplicate,
		Message: msg,
		Fields:  []FieldError{{Field: field, Message: msg}},
	}
}

func NewInvalidCredentials() *BusinessError {
	// единое сообщение для неизвестного email и неверного пароля,
	// чтобы не подтверждать существование аккаунта
	return &BusinessError{
		Code:    CodeInvalidCredentials,
		Message: "неверный email или пароль",
	}
}

func NewAccountInactive() *BusinessError {
	return &BusinessError{
		Code:    CodeAccountInactive,
		Message: "аккаунт деактивирован",
	}
}

func NewUnauthorized(message string) *BusinessError {
	return &BusinessError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewForbidden(message string) *BusinessError {
	return &BusinessError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewSelfDeactivation() *BusinessError {
	return &BusinessError{
		Code:    CodeSelfDeactivation,
		Message: "нельзя деактивировать собственный аккаунт",
	}
}

// errors стандартизирует ответы об ошибках HTTP-слоя content-сервиса.
// На вход — ошибка сервисного слоя (сентинелы service.Err*), на выход:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей;
//   - для ошибок валидации — детализация по полям (field/reason).
//
// Маппинг сервисных ошибок в HTTP-статусы:
//
//	ErrInvalidArgument       -> 400
//	ErrNotFound              -> 404
//	ErrConflict              -> 409
//	ErrTypeMismatch          -> 412
//	ErrUnavailable           -> 503
//	context.Canceled         -> 499 (клиент закрыл соединение)
//	context.DeadlineExceeded -> 504
//	прочее                   -> 500
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/site-content-service/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// FieldDetail — детализация ошибки валидации по одному полю.
type FieldDetail struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string        `json:"code"`
	Message   string        `json:"message"`
	RequestID string        `json:"request_id,omitempty"`
	Fields    []FieldDetail `json:"fields,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку сервисного слоя в HTTP-статус и
// унифицированный ответ для фронта.
//
// err == nil — программная ошибка вызова: возвращаем 500/internal,
// чтобы не послать "200 OK" с телом ошибки и не маскировать баг.
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return http.StatusInternalServerError, ErrorResponse{
			Error: APIError{Code: "internal", Message: "internal error"},
		}
	}

	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		resp := ErrorResponse{
			Error: APIError{Code: "invalid_argument", Message: "invalid argument"},
		}

		var ve *service.ValidationError
		if errors.As(err, &ve) {
			resp.Error.Fields = []FieldDetail{{Field: ve.Field, Reason: ve.Reason}}
		}

		return http.StatusBadRequest, resp

	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: APIError{Code: "not_found", Message: "not found"},
		}

	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, ErrorResponse{
			Error: APIError{Code: "already_exists", Message: "already exists"},
		}

	case errors.Is(err, service.ErrTypeMismatch):
		return http.StatusPreconditionFailed, ErrorResponse{
			Error: APIError{Code: "type_mismatch", Message: "content type mismatch"},
		}

	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable, ErrorResponse{
			Error: APIError{Code: "unavailable", Message: "service unavailable"},
		}

	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, ErrorResponse{
			Error: APIError{Code: "canceled", Message: "canceled"},
		}

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{
			Error: APIError{Code: "deadline_exceeded", Message: "deadline exceeded"},
		}

	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error: APIError{Code: "internal", Message: "internal error"},
		}
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	// Прокидываем request_id для фронта, чтобы он мог репортить баги с привязкой.
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

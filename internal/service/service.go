// service содержит бизнес-логику content-сервиса.
package service

import (
	"errors"
	"fmt"

	"github.com/pribylovaa/site-content-service/internal/cache"
	"github.com/pribylovaa/site-content-service/internal/config"
	"github.com/pribylovaa/site-content-service/internal/storage"
)

var (
	// ErrNotFound — сущность отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrTypeMismatch — документ существует, но его вариант не совпадает с
	// ожидаемым вызывающей стороной. Отличается от ErrNotFound: страница
	// редактирования логирует эти случаи по-разному.
	ErrTypeMismatch = errors.New("content type mismatch")
	// ErrConflict — конфликт уникальности (slug в пределах варианта).
	ErrConflict = errors.New("conflict")
	// ErrInvalidArgument — неверные входные параметры запроса к сервису.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnavailable — хранилище временно недоступно (сеть/БД/дедлайн).
	// Ретраев сервис не делает — политика повторов на вызывающей стороне.
	ErrUnavailable = errors.New("store unavailable")
	// ErrInternal — внутренняя ошибка.
	ErrInternal = errors.New("internal")
)

// ValidationError — ошибка валидации с привязкой к полю.
// Разворачивается (errors.Is) в ErrInvalidArgument; поле/причина
// доступны транспорту через errors.As.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid argument: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidArgument }

// invalidField — короткий конструктор ValidationError.
func invalidField(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Service — бизнес-логика content-service.
type Service struct {
	storage storage.Storage
	cache   cache.ContentCache // nil, если кэш выключен
	cfg     config.Config
}

// New создает новый экземпляр Service. contentCache может быть nil.
func New(storage storage.Storage, contentCache cache.ContentCache, cfg config.Config) *Service {
	return &Service{
		storage: storage,
		cache:   contentCache,
		cfg:     cfg,
	}
}

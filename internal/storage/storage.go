// storage определяет контракты доступа к хранилищу для content-сервиса.
package storage

import (
	"context"
	"errors"

	"github.com/pribylovaa/site-content-service/internal/models"
)

var (
	// ErrNotFound — сущность отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrConflict — конфликт уникальности (slug в пределах варианта).
	ErrConflict = errors.New("conflict")
)

// Storage описывает операции над сущностью models.Content.
type Storage interface {
	// CreateContent сохраняет новый материал.
	// Хранилище назначает ID, CreatedAt/UpdatedAt (UTC) и Views = 0;
	// одноимённые поля входной модели игнорируются.
	// Возможные ошибки: ErrConflict (дубль slug в пределах варианта).
	CreateContent(ctx context.Context, content models.Content) (*models.Content, error)

	// UpdateContent применяет частичное обновление и возвращает итоговый документ.
	// Смена варианта невозможна по построению: в ContentPatch нет поля Type.
	// Если запись не найдена — ErrNotFound.
	UpdateContent(ctx context.Context, id string, patch models.ContentPatch) (*models.Content, error)

	// ContentByID возвращает материал по его строковому идентификатору.
	// Если запись не найдена (включая некорректный формат id) — ErrNotFound.
	ContentByID(ctx context.Context, id string) (*models.Content, error)

	// ListContent возвращает материалы под предикатами opts, отсортированные
	// по created_at DESC с тай-брейком по _id DESC (детерминированная нарезка
	// страниц на стороне потребителя). Пустой результат — не ошибка.
	ListContent(ctx context.Context, opts models.ListOptions) ([]models.Content, error)

	// IncrementViews атомарно увеличивает счётчик просмотров на единицу
	// ($inc на стороне сервера — конкурентные вызовы не теряют обновлений).
	// Если запись не найдена — ErrNotFound.
	IncrementViews(ctx context.Context, id string) error

	// Close закрывает соединения/ресурсы хранилища.
	Close(ctx context.Context) error
}

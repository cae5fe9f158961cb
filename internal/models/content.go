// models содержит доменные сущности content-сервиса.
// Эти типы используются слоями бизнес-логики, хранилища и транспорта.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ContentType — тег варианта контента. После создания документа не меняется.
type ContentType string

const (
	TypeBlog   ContentType = "blog"
	TypeSermon ContentType = "sermon"
	TypeSong   ContentType = "song"
	TypeEvent  ContentType = "event"
)

// ParseContentType валидирует строковый тег варианта.
func ParseContentType(s string) (ContentType, error) {
	switch ContentType(s) {
	case TypeBlog, TypeSermon, TypeSong, TypeEvent:
		return ContentType(s), nil
	default:
		return "", fmt.Errorf("unknown content type %q", s)
	}
}

// Language — язык материала.
type Language string

const (
	LangRU Language = "ru"
	LangEN Language = "en"
)

// ParseLanguage валидирует код языка.
func ParseLanguage(s string) (Language, error) {
	switch Language(s) {
	case LangRU, LangEN:
		return Language(s), nil
	default:
		return "", fmt.Errorf("unknown language %q", s)
	}
}

// Status — статус публикации.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// ParseStatus валидирует статус публикации.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusDraft, StatusPublished:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

// Content — доменная сущность материала сайта.
//
// Особенности:
//   - ID — hex ObjectID MongoDB, наружу и внутрь конвертируется строкой;
//   - Type назначается при создании и неизменяем;
//   - Views меняется ТОЛЬКО атомарным инкрементом на стороне хранилища
//     (никаких read-modify-write у клиентов);
//   - событийные поля (StartAt/EndAt/Location) осмыслены только при
//     Type == TypeEvent — доступ через AsEvent();
//   - временные метки — в UTC.
type Content struct {
	ID        string      `bson:"_id,omitempty"`
	Type      ContentType `bson:"content_type"`
	Slug      string      `bson:"slug"`
	Title     string      `bson:"title"`
	Body      string      `bson:"body"`
	Tags      []string    `bson:"tags"`
	Language  Language    `bson:"language"`
	Status    Status      `bson:"status"`
	AuthorID  uuid.UUID   `bson:"author_id"`
	Views     int64       `bson:"views"`
	CreatedAt time.Time   `bson:"created_at"`
	UpdatedAt time.Time   `bson:"updated_at"`

	// Событийные поля (только для Type == TypeEvent).
	StartAt  time.Time `bson:"start_at,omitempty"`
	EndAt    time.Time `bson:"end_at,omitempty"`
	Location string    `bson:"location,omitempty"`
}

// CalendarEvent — событийная проекция Content.
type CalendarEvent struct {
	StartAt  time.Time
	EndAt    time.Time
	Location string
}

// AsEvent возвращает событийные поля после явной проверки тега варианта.
// Для любого другого варианта возвращает (nil, false) — «слепого» доступа
// к событийным полям в коде быть не должно.
func (c *Content) AsEvent() (*CalendarEvent, bool) {
	if c == nil || c.Type != TypeEvent {
		return nil, false
	}

	return &CalendarEvent{
		StartAt:  c.StartAt,
		EndAt:    c.EndAt,
		Location: c.Location,
	}, true
}

// HasTag сообщает, содержит ли набор тегов материала заданный тег.
func (c *Content) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}

	return false
}

// ListOptions — предикаты выборки списков контента.
//
// Особенности:
//   - Type обязателен: выборка никогда не смешивает варианты;
//   - Search — регистронезависимое вхождение подстроки в title/body;
//   - Tag — принадлежность тега множеству tags;
//   - Language/Status — фильтры-равенства;
//   - пустые значения означают «фильтр не активен»; активные объединяются по AND.
type ListOptions struct {
	Type     ContentType
	Search   string
	Tag      string
	Language Language
	Status   Status
}

// ContentPatch — частичное обновление материала.
// nil-поле означает «не трогать». Поля Type здесь нет намеренно:
// вариант неизменяем после создания.
type ContentPatch struct {
	Title    *string
	Body     *string
	Tags     *[]string
	Language *Language
	Status   *Status
	StartAt  *time.Time
	EndAt    *time.Time
	Location *string
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/pribylovaa/site-content-service/pkg/log"

	"github.com/pribylovaa/site-content-service/internal/models"
	"github.com/pribylovaa/site-content-service/internal/storage"
)

// Входные структуры сервисного слоя.

// ListContentInput — параметры выборки списка материалов.
// Правила:
//   - Type обязателен: выборка никогда не смешивает варианты;
//   - Search/Tag/Language/Status опциональны, активные фильтры
//     объединяются по AND;
//   - Search — регистронезависимое вхождение подстроки в title/body
//     (не полнотекстовый поиск).
type ListContentInput struct {
	Type     models.ContentType
	Search   string
	Tag      string
	Language models.Language
	Status   models.Status
}

// ContentByIDInput — чтение материала по идентификатору.
// Expect, если задан, фиксирует ожидаемый вариант: несовпадение тега —
// ErrTypeMismatch (контрактное нарушение, не «не найдено»).
type ContentByIDInput struct {
	ID     string
	Expect models.ContentType
}

// CreateContentInput — создание материала (админский путь записи).
type CreateContentInput struct {
	Type     models.ContentType
	Title    string
	Body     string
	Tags     []string
	Language models.Language
	Status   models.Status
	AuthorID uuid.UUID

	// Событийные поля — только для Type == models.TypeEvent.
	StartAt  time.Time
	EndAt    time.Time
	Location string
}

// UpdateContentInput — частичное обновление материала.
// Смена варианта невозможна: в models.ContentPatch нет поля Type.
type UpdateContentInput struct {
	ID    string
	Patch models.ContentPatch
}

// ListContent — список материалов одного варианта под активными фильтрами.
//
// Порядок: created_at DESC, тай-брейк _id DESC — страница детерминирована
// при равных временных метках. Пустой результат — валидный не-ошибочный исход.
//
// Ошибки:
//   - ErrInvalidArgument — не задан или неизвестен Type/Language/Status;
//   - ErrUnavailable — хранилище недоступно.
func (s *Service) ListContent(ctx context.Context, in ListContentInput) ([]models.Content, error) {
	const op = "service/content/ListContent"

	lg := log.From(ctx).With("op", op, "content_type", string(in.Type))

	if _, err := models.ParseContentType(string(in.Type)); err != nil {
		lg.Warn("invalid argument: content type", "err", err)
		return nil, fmt.Errorf("%s: %w", op, invalidField("type", "required, one of blog|sermon|song|event"))
	}

	if in.Language != "" {
		if _, err := models.ParseLanguage(string(in.Language)); err != nil {
			lg.Warn("invalid argument: language", "err", err)
			return nil, fmt.Errorf("%s: %w", op, invalidField("lang", "unknown language code"))
		}
	}

	if in.Status != "" {
		if _, err := models.ParseStatus(string(in.Status)); err != nil {
			lg.Warn("invalid argument: status", "err", err)
			return nil, fmt.Errorf("%s: %w", op, invalidField("status", "unknown status"))
		}
	}

	items, err := s.storage.ListContent(ctx, models.ListOptions{
		Type:     in.Type,
		Search:   strings.TrimSpace(in.Search),
		Tag:      strings.TrimSpace(in.Tag),
		Language: in.Language,
		Status:   in.Status,
	})
	if err != nil {
		lg.Error("storage error on ListContent", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
	}

	return items, nil
}

// ContentByID — материал по идентификатору с опциональной проверкой варианта.
//
// Чтение идёт через кэш (если он включён): попадание обслуживается из Redis,
// промах — из хранилища с последующей записью в кэш. Ошибки кэша деградируют
// до обычного чтения и не видны вызывающему.
//
// Ошибки:
//   - ErrInvalidArgument — пустой id;
//   - ErrNotFound — нет документа с таким id;
//   - ErrTypeMismatch — документ есть, но вариант не совпал с Expect;
//   - ErrUnavailable — хранилище недоступно.
func (s *Service) ContentByID(ctx context.Context, in ContentByIDInput) (*models.Content, error) {
	const op = "service/content/ContentByID"

	in.ID = strings.TrimSpace(in.ID)
	lg := log.From(ctx).With("op", op, "id", in.ID)

	if in.ID == "" {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, invalidField("id", "required"))
	}

	if in.Expect != "" {
		if _, err := models.ParseContentType(string(in.Expect)); err != nil {
			lg.Warn("invalid argument: expect", "err", err)
			return nil, fmt.Errorf("%s: %w", op, invalidField("expect", "unknown content type"))
		}
	}

	content, hit := s.cachedContent(ctx, in.ID)
	if !hit {
		var err error
		content, err = s.storage.ContentByID(ctx, in.ID)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrNotFound):
				lg.Warn("content not found")
				return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
			default:
				lg.Error("storage error on ContentByID", "err", err)
				return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
			}
		}

		s.cacheContent(ctx, content)
	}

	// Явная проверка тега до того, как вызывающий увидит вариантные поля.
	if in.Expect != "" && content.Type != in.Expect {
		lg.Error("content type mismatch",
			"expect", string(in.Expect),
			"actual", string(content.Type),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrTypeMismatch)
	}

	return content, nil
}

// CreateContent — бизнес-операция создания материала.
//
// Валидация:
//   - Type/Language валидны; Status валиден (пустой -> draft);
//   - Title после TrimSpace не пуст, из него выводится slug;
//   - AuthorID обязателен (uuid.Nil -> ErrInvalidArgument);
//   - теги нормализуются (TrimSpace, пустые и дубли отбрасываются);
//   - для события обязателен StartAt и инвариант EndAt >= StartAt;
//     для остальных вариантов событийные поля отбрасываются.
//
// Ошибки:
//   - ErrInvalidArgument (ValidationError с именем поля);
//   - ErrConflict — материал с таким slug уже есть в этом варианте;
//   - ErrUnavailable — хранилище недоступно.
func (s *Service) CreateContent(ctx context.Context, in CreateContentInput) (*models.Content, error) {
	const op = "service/content/CreateContent"

	lg := log.From(ctx).With(
		"op", op,
		"content_type", string(in.Type),
		"author_id", in.AuthorID.String(),
	)

	if _, err := models.ParseContentType(string(in.Type)); err != nil {
		lg.Warn("invalid argument: content type", "err", err)
		return nil, fmt.Errorf("%s: %w", op, invalidField("type", "required, one of blog|sermon|song|event"))
	}

	if _, err := models.ParseLanguage(string(in.Language)); err != nil {
		lg.Warn("invalid argument: language", "err", err)
		return nil, fmt.Errorf("%s: %w", op, invalidField("language", "required, one of ru|en"))
	}

	if in.Status == "" {
		in.Status = models.StatusDraft
	}
	if _, err := models.ParseStatus(string(in.Status)); err != nil {
		lg.Warn("invalid argument: status", "err", err)
		return nil, fmt.Errorf("%s: %w", op, invalidField("status", "one of draft|published"))
	}

	if in.AuthorID == uuid.Nil {
		lg.Warn("invalid argument: empty author_id")
		return nil, fmt.Errorf("%s: %w", op, invalidField("author_id", "required"))
	}

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		lg.Warn("invalid argument: empty title")
		return nil, fmt.Errorf("%s: %w", op, invalidField("title", "required"))
	}

	slug := slugify(in.Title)
	if slug == "" {
		lg.Warn("invalid argument: title yields empty slug")
		return nil, fmt.Errorf("%s: %w", op, invalidField("title", "must contain letters or digits"))
	}

	content := models.Content{
		Type:     in.Type,
		Slug:     slug,
		Title:    in.Title,
		Body:     strings.TrimSpace(in.Body),
		Tags:     normalizeTags(in.Tags),
		Language: in.Language,
		Status:   in.Status,
		AuthorID: in.AuthorID,
	}

	if in.Type == models.TypeEvent {
		if in.StartAt.IsZero() {
			lg.Warn("invalid argument: empty start_at for event")
			return nil, fmt.Errorf("%s: %w", op, invalidField("start_at", "required for events"))
		}

		if in.EndAt.IsZero() {
			in.EndAt = in.StartAt
		}

		if in.EndAt.Before(in.StartAt) {
			lg.Warn("invalid argument: end_at before start_at")
			return nil, fmt.Errorf("%s: %w", op, invalidField("end_at", "must not be before start_at"))
		}

		content.StartAt = in.StartAt.UTC()
		content.EndAt = in.EndAt.UTC()
		content.Location = strings.TrimSpace(in.Location)
	}

	result, err := s.storage.CreateContent(ctx, content)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			lg.Warn("slug conflict", "slug", slug)
			return nil, fmt.Errorf("%s: %w", op, ErrConflict)
		default:
			lg.Error("storage error on CreateContent", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
		}
	}

	return result, nil
}

// UpdateContent — частичное обновление материала (админский путь записи).
//
// Текущий документ читается до записи: ранний ErrNotFound, запрет событийных
// полей для не-событий и проверка инварианта EndAt >= StartAt по слитым
// значениям. Политика конкурентных правок — last write wins, без merge.
// После успешной записи документ выбрасывается из кэша.
//
// Ошибки:
//   - ErrInvalidArgument (ValidationError с именем поля);
//   - ErrNotFound — нет документа с таким id;
//   - ErrUnavailable — хранилище недоступно.
func (s *Service) UpdateContent(ctx context.Context, in UpdateContentInput) (*models.Content, error) {
	const op = "service/content/UpdateContent"

	in.ID = strings.TrimSpace(in.ID)
	lg := log.From(ctx).With("op", op, "id", in.ID)

	if in.ID == "" {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, invalidField("id", "required"))
	}

	if in.Patch.Title != nil {
		t := strings.TrimSpace(*in.Patch.Title)
		if t == "" {
			lg.Warn("invalid argument: empty title")
			return nil, fmt.Errorf("%s: %w", op, invalidField("title", "must not be empty"))
		}
		in.Patch.Title = &t
	}

	if in.Patch.Language != nil {
		if _, err := models.ParseLanguage(string(*in.Patch.Language)); err != nil {
			lg.Warn("invalid argument: language", "err", err)
			return nil, fmt.Errorf("%s: %w", op, invalidField("language", "one of ru|en"))
		}
	}

	if in.Patch.Status != nil {
		if _, err := models.ParseStatus(string(*in.Patch.Status)); err != nil {
			lg.Warn("invalid argument: status", "err", err)
			return nil, fmt.Errorf("%s: %w", op, invalidField("status", "one of draft|published"))
		}
	}

	if in.Patch.Tags != nil {
		normalized := normalizeTags(*in.Patch.Tags)
		in.Patch.Tags = &normalized
	}

	current, err := s.storage.ContentByID(ctx, in.ID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("content not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		default:
			lg.Error("storage error on ContentByID", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
		}
	}

	touchesEvent := in.Patch.StartAt != nil || in.Patch.EndAt != nil || in.Patch.Location != nil
	if touchesEvent && current.Type != models.TypeEvent {
		lg.Warn("invalid argument: event fields on non-event", "content_type", string(current.Type))
		return nil, fmt.Errorf("%s: %w", op, invalidField("start_at", "event fields are only valid for events"))
	}

	if current.Type == models.TypeEvent {
		startAt, endAt := current.StartAt, current.EndAt
		if in.Patch.StartAt != nil {
			startAt = *in.Patch.StartAt
		}
		if in.Patch.EndAt != nil {
			endAt = *in.Patch.EndAt
		}

		if endAt.Before(startAt) {
			lg.Warn("invalid argument: end_at before start_at")
			return nil, fmt.Errorf("%s: %w", op, invalidField("end_at", "must not be before start_at"))
		}
	}

	result, err := s.storage.UpdateContent(ctx, in.ID, in.Patch)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("content not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		default:
			lg.Error("storage error on UpdateContent", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
		}
	}

	s.invalidateContent(ctx, in.ID)

	return result, nil
}

// cachedContent — чтение из кэша; ошибки кэша деградируют до промаха.
func (s *Service) cachedContent(ctx context.Context, id string) (*models.Content, bool) {
	if s.cache == nil {
		return nil, false
	}

	content, ok, err := s.cache.Get(ctx, id)
	if err != nil {
		log.From(ctx).Warn("cache get failed", "id", id, "err", err)
		return nil, false
	}

	return content, ok && content != nil
}

// cacheContent — best-effort запись в кэш.
func (s *Service) cacheContent(ctx context.Context, content *models.Content) {
	if s.cache == nil || content == nil {
		return
	}

	if err := s.cache.Set(ctx, content); err != nil {
		log.From(ctx).Warn("cache set failed", "id", content.ID, "err", err)
	}
}

// invalidateContent — best-effort инвалидация после правки.
func (s *Service) invalidateContent(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Invalidate(ctx, id); err != nil {
		log.From(ctx).Warn("cache invalidate failed", "id", id, "err", err)
	}
}

// normalizeTags — TrimSpace, отбрасывание пустых и дублей с сохранением порядка.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))

	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}

		if _, ok := seen[t]; ok {
			continue
		}

		seen[t] = struct{}{}
		out = append(out, t)
	}

	return out
}

// slugify выводит URL-дружественный slug из заголовка: нижний регистр,
// последовательности не-букв/не-цифр сворачиваются в один дефис.
// Юникодные буквы (кириллица) сохраняются.
func slugify(title string) string {
	var b strings.Builder
	prevDash := false

	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash && b.Len() > 0 {
				b.WriteRune('-')
				prevDash = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}

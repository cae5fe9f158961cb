package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pribylovaa/site-content-service/internal/models"
	"github.com/pribylovaa/site-content-service/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// toMS приводит время к миллисекундам UTC: MongoDB DateTime хранит миллисекунды.
func toMS(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }

// normalize приводит временные поля прочитанного документа к UTC.
func normalize(c *models.Content) {
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()

	if !c.StartAt.IsZero() {
		c.StartAt = c.StartAt.UTC()
	}
	if !c.EndAt.IsZero() {
		c.EndAt = c.EndAt.UTC()
	}
}

// CreateContent сохраняет новый материал.
//   - ID назначает драйвер (ObjectID);
//   - CreatedAt/UpdatedAt — текущее время UTC (ms), Views = 0;
//   - дубль slug в пределах варианта — storage.ErrConflict (unique-индекс).
func (m *Mongo) CreateContent(ctx context.Context, content models.Content) (*models.Content, error) {
	const op = "storage/mongo/CreateContent"

	now := toMS(time.Now())

	// Серверные поля: входные значения игнорируются.
	content.ID = ""
	content.CreatedAt = now
	content.UpdatedAt = now
	content.Views = 0

	if !content.StartAt.IsZero() {
		content.StartAt = toMS(content.StartAt)
	}
	if !content.EndAt.IsZero() {
		content.EndAt = toMS(content.EndAt)
	}

	res, err := m.content.InsertOne(ctx, content)
	if err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrConflict)
		}

		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		// Mongo всегда возвращает ObjectID.
		return nil, fmt.Errorf("%s: inserted id type", op)
	}

	content.ID = oid.Hex()
	return &content, nil
}

// UpdateContent применяет частичное обновление и возвращает итоговый документ.
// Поля Type в ContentPatch нет — вариант неизменяем по построению.
// При отсутствии записи — storage.ErrNotFound.
func (m *Mongo) UpdateContent(ctx context.Context, id string, patch models.ContentPatch) (*models.Content, error) {
	const op = "storage/mongo/UpdateContent"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	set := bson.D{{Key: "updated_at", Value: toMS(time.Now())}}

	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *patch.Title})
	}
	if patch.Body != nil {
		set = append(set, bson.E{Key: "body", Value: *patch.Body})
	}
	if patch.Tags != nil {
		set = append(set, bson.E{Key: "tags", Value: *patch.Tags})
	}
	if patch.Language != nil {
		set = append(set, bson.E{Key: "language", Value: *patch.Language})
	}
	if patch.Status != nil {
		set = append(set, bson.E{Key: "status", Value: *patch.Status})
	}
	if patch.StartAt != nil {
		set = append(set, bson.E{Key: "start_at", Value: toMS(*patch.StartAt)})
	}
	if patch.EndAt != nil {
		set = append(set, bson.E{Key: "end_at", Value: toMS(*patch.EndAt)})
	}
	if patch.Location != nil {
		set = append(set, bson.E{Key: "location", Value: *patch.Location})
	}

	after := options.After
	var out models.Content
	err = m.content.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(after),
	).Decode(&out)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	normalize(&out)
	return &out, nil
}

// ContentByID возвращает материал по идентификатору.
// Если запись не найдена — storage.ErrNotFound.
// Некорректный формат id трактуется как «нет такой записи».
func (m *Mongo) ContentByID(ctx context.Context, id string) (*models.Content, error) {
	const op = "storage/mongo/ContentByID"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	var out models.Content
	if err := m.content.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&out); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	normalize(&out)
	return &out, nil
}

// ListContent возвращает материалы под предикатами opts.
// Сортировка: created_at DESC, _id DESC — стабильный тай-брейк гарантирует
// детерминированную нарезку «окна» на стороне клиента.
func (m *Mongo) ListContent(ctx context.Context, opts models.ListOptions) ([]models.Content, error) {
	const op = "storage/mongo/ListContent"

	// Вариант — обязательный фильтр-равенство: выборка не смешивает варианты.
	filter := bson.D{
		{Key: "content_type", Value: opts.Type},
	}

	if tag := strings.TrimSpace(opts.Tag); tag != "" {
		// Для поля-массива равенство в Mongo означает принадлежность множеству.
		filter = append(filter, bson.E{Key: "tags", Value: tag})
	}

	if opts.Language != "" {
		filter = append(filter, bson.E{Key: "language", Value: opts.Language})
	}

	if opts.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: opts.Status})
	}

	if q := strings.TrimSpace(opts.Search); q != "" {
		// Регистронезависимое вхождение подстроки в title/body.
		// QuoteMeta: пользовательский ввод — не регулярное выражение.
		re := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: re}},
			bson.D{{Key: "body", Value: re}},
		}})
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(m.cfg.Limits.MaxList)

	cur, err := m.content.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	var items []models.Content
	for cur.Next(ctx) {
		var c models.Content
		if err := cur.Decode(&c); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		normalize(&c)
		items = append(items, c)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return items, nil
}

// IncrementViews атомарно увеличивает счётчик просмотров на единицу.
// Инкремент выполняется на стороне сервера ($inc): конкурентные вызовы
// независимых клиентов не теряют обновлений. updated_at намеренно не
// трогаем — просмотр не является правкой материала.
// При отсутствии записи — storage.ErrNotFound.
func (m *Mongo) IncrementViews(ctx context.Context, id string) error {
	const op = "storage/mongo/IncrementViews"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	res, err := m.content.UpdateByID(ctx, oid, bson.D{
		{Key: "$inc", Value: bson.D{{Key: "views", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

package mongo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/site-content-service/internal/config"
	"github.com/pribylovaa/site-content-service/internal/models"
	"github.com/pribylovaa/site-content-service/internal/storage"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// testTimeout — общий дедлайн на операции с БД в тестах.
const testTimeout = 10 * time.Second

// TestMain запускает MongoDB в контейнере один раз на весь пакет тестов.
// Адрес контейнера прокидывается в ENV DATABASE_URL, а каждая спецификация
// создаёт свою БД с уникальным именем (см. newTestConfig).
func TestMain(m *testing.M) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7.0",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(90 * time.Second),
	}

	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})

	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start mongo testcontainer: %v\n", err)
		os.Exit(1)
	}

	// Получаем host:port и формируем URI без имени БД.
	host, err := mongoC.Host(ctx)
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}

	port, err := mongoC.MappedPort(ctx, "27017/tcp")
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get mapped port: %v\n", err)
		os.Exit(1)
	}

	uri := fmt.Sprintf("mongodb://%s:%s", host, port.Port())
	_ = os.Setenv("DATABASE_URL", uri)

	// Запускаем тесты пакета.
	code := m.Run()

	// Гасим контейнер *после* выполнения пакета тестов.
	_ = mongoC.Terminate(context.Background())
	os.Exit(code)
}

// newTestConfig создаёт конфиг с отдельной тестовой БД.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	baseURL := os.Getenv("DATABASE_URL")
	if baseURL == "" {
		baseURL = "mongodb://localhost:27017"
	}

	dbName := "content_test_" + uuid.New().String()
	if baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL + dbName
	} else {
		baseURL = baseURL + "/" + dbName
	}

	return &config.Config{
		DB: config.DBConfig{
			URL: baseURL,
		},
		Limits: config.LimitsConfig{
			PageSize: 2,
			MaxList:  100,
		},
	}
}

// mustNewMongo создаёт подключение к созданной Test DB и регистрирует очистку по завершении теста.
func mustNewMongo(t *testing.T, cfg *config.Config) *Mongo {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	m, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("cannot connect to MongoDB in container: %v (DATABASE_URL=%s)", err, cfg.DB.URL)
	}

	// При завершении теста — подчистить БД и соединение.
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		_ = m.db.Drop(ctx)
		_ = m.Close(ctx)
	})

	return m
}

// sampleContent — минимально валидный материал для вставки.
func sampleContent(contentType models.ContentType, slug string) models.Content {
	return models.Content{
		Type:     contentType,
		Slug:     slug,
		Title:    "title " + slug,
		Body:     "body " + slug,
		Tags:     []string{"youth"},
		Language: models.LangRU,
		Status:   models.StatusPublished,
		AuthorID: uuid.New(),
	}
}

// TestCreateContent_SetsServerFields — серверные поля назначаются при вставке.
func TestCreateContent_SetsServerFields(t *testing.T) {
	cfg := newTestConfig(t)
	m := mustNewMongo(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	in := sampleContent(models.TypeBlog, "first-post")
	// Входные значения серверных полей игнорируются.
	in.ID = "000000000000000000000000"
	in.Views = 99
	before := time.Now().UTC().Add(-time.Second)

	out, err := m.CreateContent(ctx, in)
	if err != nil {
		t.Fatalf("CreateContent error: %v", err)
	}

	if out.ID == "" || out.ID == "000000000000000000000000" {
		t.Fatalf("expected generated ID, got %q", out.ID)
	}

	if out.Views != 0 {
		t.Fatalf("Views = %d, want 0", out.Views)
	}

	if !out.CreatedAt.After(before) {
		t.Fatalf("CreatedAt not set: %v", out.CreatedAt)
	}

	if !out.CreatedAt.Equal(out.UpdatedAt) {
		t.Fatalf("CreatedAt != UpdatedAt on insert: %v vs %v", out.CreatedAt, out.UpdatedAt)
	}

	got, err := m.ContentByID(ctx, out.ID)
	if err != nil {
		t.Fatalf("ContentByID error: %v", err)
	}

	if got.Slug != "first-post" || got.Type != models.TypeBlog {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

// TestCreateContent_SlugConflict — дубль slug в пределах варианта отклоняется,
// тот же slug в другом варианте — допустим.
func TestCreateContent_SlugConflict(t *testing.T) {
	cfg := newTestConfig(t)
	m := mustNewMongo(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	if _, err := m.CreateContent(ctx, sampleContent(models.TypeBlog, "dup")); err != nil {
		t.Fatalf("CreateContent(first) error: %v", err)
	}

	_, err := m.CreateContent(ctx, sampleContent(models.TypeBlog, "dup"))
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("want ErrConflict on duplicate slug, got %v", err)
	}

	// Уникальность составная (content_type, slug).
	if _, err := m.CreateContent(ctx, sampleContent(models.TypeSong, "dup")); err != nil {
		t.Fatalf("CreateContent(other variant) error: %v", err)
	}
}

// TestContentByID_NotFound — отсутствующий и невалидный id дают ErrNotFound.
func TestContentByID_NotFound(t *testing.T) {
	cfg := newTestConfig(t)
	m := mustNewMongo(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	// Валидный hex ObjectID, но документа нет.
	if _, err := m.ContentByID(ctx, "65e0a0c9fd2f000000000000"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound for absent id, got %v", err)
	}

	// Невалидный формат id трактуем как отсутствие записи.
	if _, err := m.ContentByID(ctx, "deadbeef"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound for bad id format, got %v", err)
	}
}

// TestUpdateContent_PartialPatch — обновляются только заданные поля,
// updated_at сдвигается, created_at неизменен.
func TestUpdateContent_PartialPatch(t *testing.T) {
	cfg := newTestConfig(t)
	m := mustNewMongo(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	created, err := m.CreateContent(ctx, sampleContent(models.TypeBlog, "patch-me"))
	if err != nil {
		t.Fatalf("CreateContent error: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	title := "new title"
	status := models.StatusDraft
	out, err := m.UpdateContent(ctx, created.ID, models.ContentPatch{
		Title:  &title,
		Status: &status,
	})
	if err != nil {
		t.Fatalf("UpdateContent error: %v", err)
	}

	if out.Title != title || out.Status != status {
		t.Fatalf("patch not applied: %+v", out)
	}

	// Незатронутые поля сохранены.
	if out.Body != created.Body || out.Slug != created.Slug || out.Language != created.Language {
		t.Fatalf("untouched fields changed: %+v", out)
	}

	if !out.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("CreatedAt changed on update: %v vs %v", out.CreatedAt, created.CreatedAt)
	}

	if !out.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("UpdatedAt not bumped: %v vs %v", out.UpdatedAt, created.UpdatedAt)
	}
}

// TestUpdateContent_NotFound — обновление отсутствующего документа.
func TestUpdateContent_NotFound(t *testing.T) {
	cfg := newTestConfig(t)
	m := mustNewMongo(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	title := "x"
	_, err := m.UpdateContent(ctx, "65e0a0c9fd2f000000000000", models.ContentPatch{Title: &title})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

// TestListContent_FiltersAndOrder — AND-комбинация фильтров и порядок DESC.
func TestListContent_FiltersAndOrder(t *testing.T) {
	cfg := newTestConfig(t)
	m := mustNewMongo(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	mk := func(slug, title string, tags []string, lang models.Language) string {
		c := sampleContent(models.TypeBlog, slug)
		c.Title = title
		c.Tags = tags
		c.Language = lang
		out, err := m.CreateContent(ctx, c)
		if err != nil {
			t.Fatalf("CreateContent(%s) error: %v", slug, err)
		}

		time.Sleep(10 * time.Millisecond)
		return out.ID
	}

	mk("p1", "Рождественский концерт", []string{"youth", "music"}, models.LangRU)
	mk("p2", "Летний лагерь", []string{"youth"}, models.LangRU)
	mk("p3", "Summer camp recap", []string{"camp"}, models.LangEN)

	// Чужой вариант не попадает в выборку.
	other := sampleContent(models.TypeSong, "p1")
	if _, err := m.CreateContent(ctx, other); err != nil {
		t.Fatalf("CreateContent(song) error: %v", err)
	}

	// Без фильтров: все три блога, DESC по created_at.
	all, err := m.ListContent(ctx, models.ListOptions{Type: models.TypeBlog})
	if err != nil {
		t.Fatalf("ListContent error: %v", err)
	}

	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}

	if all[0].Slug != "p3" || all[1].Slug != "p2" || all[2].Slug != "p1" {
		t.Fatalf("order mismatch: %s, %s, %s", all[0].Slug, all[1].Slug, all[2].Slug)
	}

	// Тег: принадлежность множеству tags.
	tagged, err := m.ListContent(ctx, models.ListOptions{Type: models.TypeBlog, Tag: "youth"})
	if err != nil {
		t.Fatalf("ListContent(tag) error: %v", err)
	}

	if len(tagged) != 2 {
		t.Fatalf("tag filter: len = %d, want 2", len(tagged))
	}

	// Язык.
	en, err := m.ListContent(ctx, models.ListOptions{Type: models.TypeBlog, Language: models.LangEN})
	if err != nil {
		t.Fatalf("ListContent(lang) error: %v", err)
	}

	if len(en) != 1 || en[0].Slug != "p3" {
		t.Fatalf("lang filter mismatch: %+v", en)
	}

	// Поиск: регистронезависимое вхождение подстроки в title.
	found, err := m.ListContent(ctx, models.ListOptions{Type: models.TypeBlog, Search: "рождественский"})
	if err != nil {
		t.Fatalf("ListContent(search) error: %v", err)
	}

	if len(found) != 1 || found[0].Slug != "p1" {
		t.Fatalf("search mismatch: %+v", found)
	}

	// Комбинация AND: тег + поиск, пересечение пусто.
	none, err := m.ListContent(ctx, models.ListOptions{Type: models.TypeBlog, Tag: "camp", Search: "рождественский"})
	if err != nil {
		t.Fatalf("ListContent(tag+search) error: %v", err)
	}

	if len(none) != 0 {
		t.Fatalf("AND combination: len = %d, want 0", len(none))
	}
}

// TestListContent_SearchIsNotRegex — метасимволы в поисковой строке экранируются.
func TestListContent_SearchIsNotRegex(t *testing.T) {
	cfg := newTestConfig(t)
	m := mustNewMongo(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	c := sampleContent(models.TypeBlog, "qa")
	c.Title = "Вопросы и ответы (Q&A)"
	if _, err := m.CreateContent(ctx, c); err != nil {
		t.Fatalf("CreateContent error: %v", err)
	}

	// ".*" как литерал ничему не соответствует.
	got, err := m.ListContent(ctx, models.ListOptions{Type: models.TypeBlog, Search: ".*"})
	if err != nil {
		t.Fatalf("ListContent error: %v", err)
	}

	if len(got) != 0 {
		t.Fatalf("regex metacharacters must be literal: len = %d, want 0", len(got))
	}

	// Скобки как литерал находятся.
	got, err = m.ListContent(ctx, models.ListOptions{Type: models.TypeBlog, Search: "(q&a)"})
	if err != nil {
		t.Fatalf("ListContent error: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("literal match failed: len = %d, want 1", len(got))
	}
}

// TestIncrementViews_Concurrent — k конкурентных инкрементов дают ровно +k:
// $inc выполняется на стороне сервера, потерянных обновлений нет.
func TestIncrementViews_Concurrent(t *testing.T) {
	cfg := newTestConfig(t)
	m := mustNewMongo(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	created, err := m.CreateContent(ctx, sampleContent(models.TypeSermon, "viewed"))
	if err != nil {
		t.Fatalf("CreateContent error: %v", err)
	}

	const k = 16
	var wg sync.WaitGroup
	errs := make(chan error, k)

	for i := 0; i < k; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- m.IncrementViews(ctx, created.ID)
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("IncrementViews error: %v", err)
		}
	}

	got, err := m.ContentByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("ContentByID error: %v", err)
	}

	if got.Views != k {
		t.Fatalf("Views = %d, want %d", got.Views, k)
	}

	// Просмотр не является правкой: updated_at не сдвинут.
	if !got.UpdatedAt.Equal(created.UpdatedAt) {
		t.Fatalf("UpdatedAt changed by IncrementViews: %v vs %v", got.UpdatedAt, created.UpdatedAt)
	}
}

// TestIncrementViews_NotFound — инкремент по отсутствующему id.
func TestIncrementViews_NotFound(t *testing.T) {
	cfg := newTestConfig(t)
	m := mustNewMongo(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	if err := m.IncrementViews(ctx, "65e0a0c9fd2f000000000000"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	if err := m.IncrementViews(ctx, "deadbeef"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound for bad id format, got %v", err)
	}
}

// TestEventFields_RoundTrip — событийные поля сохраняются в ms UTC.
func TestEventFields_RoundTrip(t *testing.T) {
	cfg := newTestConfig(t)
	m := mustNewMongo(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	start := time.Date(2026, 12, 25, 18, 0, 0, 123456789, time.UTC)
	end := start.Add(2 * time.Hour)

	c := sampleContent(models.TypeEvent, "christmas-concert")
	c.StartAt = start
	c.EndAt = end
	c.Location = "main hall"

	created, err := m.CreateContent(ctx, c)
	if err != nil {
		t.Fatalf("CreateContent error: %v", err)
	}

	got, err := m.ContentByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("ContentByID error: %v", err)
	}

	// DateTime в Mongo — миллисекунды: наносекунды отбрасываются.
	if !got.StartAt.Equal(start.Truncate(time.Millisecond)) {
		t.Fatalf("StartAt = %v, want %v", got.StartAt, start.Truncate(time.Millisecond))
	}

	if !got.EndAt.Equal(end.Truncate(time.Millisecond)) {
		t.Fatalf("EndAt = %v, want %v", got.EndAt, end.Truncate(time.Millisecond))
	}

	if got.Location != "main hall" {
		t.Fatalf("Location = %q", got.Location)
	}

	ev, ok := got.AsEvent()
	if !ok || ev == nil {
		t.Fatalf("AsEvent() failed for event document")
	}
}

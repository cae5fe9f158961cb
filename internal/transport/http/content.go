package http

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/pribylovaa/site-content-service/internal/errors"
	"github.com/pribylovaa/site-content-service/internal/models"
	"github.com/pribylovaa/site-content-service/internal/service"
	"github.com/pribylovaa/site-content-service/pkg/browse"
	"github.com/pribylovaa/site-content-service/pkg/log"
)

// eventPayload — событийные поля в JSON-представлении.
type eventPayload struct {
	StartAt  time.Time `json:"start_at"`
	EndAt    time.Time `json:"end_at"`
	Location string    `json:"location,omitempty"`
}

// contentResponse — JSON-представление материала.
// Событийные поля отдаются вложенным объектом event и только после
// проверки тега варианта (models.Content.AsEvent).
type contentResponse struct {
	ID        string        `json:"id"`
	Type      string        `json:"type"`
	Slug      string        `json:"slug"`
	Title     string        `json:"title"`
	Body      string        `json:"body"`
	Tags      []string      `json:"tags"`
	Language  string        `json:"language"`
	Status    string        `json:"status"`
	AuthorID  string        `json:"author_id"`
	Views     int64         `json:"views"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Event     *eventPayload `json:"event,omitempty"`
}

func toContentResponse(c models.Content) contentResponse {
	out := contentResponse{
		ID:        c.ID,
		Type:      string(c.Type),
		Slug:      c.Slug,
		Title:     c.Title,
		Body:      c.Body,
		Tags:      c.Tags,
		Language:  string(c.Language),
		Status:    string(c.Status),
		AuthorID:  c.AuthorID.String(),
		Views:     c.Views,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}

	if ev, ok := c.AsEvent(); ok {
		out.Event = &eventPayload{
			StartAt:  ev.StartAt,
			EndAt:    ev.EndAt,
			Location: ev.Location,
		}
	}

	return out
}

// listContentResponse — ответ списка.
// CanonicalQuery — каноническая query-строка активного фильтра: фронт
// использует её для replace-навигации и шарящихся ссылок.
type listContentResponse struct {
	Items          []contentResponse `json:"items"`
	PageSize       int               `json:"page_size"`
	CanonicalQuery string            `json:"canonical_query"`
}

// ListContent — GET /content?type=...&q=&tag=&lang=&status=.
// type обязателен; q/tag/lang — протокол фильтра (pkg/browse);
// status по умолчанию published (черновики запрашивает только админка).
func (h *Handlers) ListContent(w http.ResponseWriter, r *http.Request) {
	contentType := r.URL.Query().Get("type")
	filter := browse.DecodeFilter(r.URL.Query())

	status := models.StatusPublished
	if v := r.URL.Query().Get("status"); v != "" {
		status = models.Status(v)
	}

	items, err := h.Service.ListContent(r.Context(), service.ListContentInput{
		Type:     models.ContentType(contentType),
		Search:   filter.Search,
		Tag:      filter.Tag,
		Language: models.Language(filter.Language),
		Status:   status,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	resp := listContentResponse{
		Items:          make([]contentResponse, 0, len(items)),
		PageSize:       h.PageSize,
		CanonicalQuery: filter.Query(),
	}
	for _, c := range items {
		resp.Items = append(resp.Items, toContentResponse(c))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetContent — GET /content/{id}?expect=.
// expect фиксирует ожидаемый вариант (страница деталей/редактирования).
// Для таких вызовов NotFound и TypeMismatch не блокируют пользователя:
// ответ — 303 See Other на владеющий список (/content?type=...), причём
// логируются эти два случая по-разному.
func (h *Handlers) GetContent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	expect := r.URL.Query().Get("expect")

	content, err := h.Service.ContentByID(r.Context(), service.ContentByIDInput{
		ID:     id,
		Expect: models.ContentType(expect),
	})
	if err != nil {
		if expect != "" {
			switch {
			case errors.Is(err, service.ErrTypeMismatch):
				log.From(r.Context()).Error("detail view: content type mismatch",
					"id", id, "expect", expect)
				redirectToList(w, r, expect)
				return
			case errors.Is(err, service.ErrNotFound):
				log.From(r.Context()).Warn("detail view: content not found",
					"id", id, "expect", expect)
				redirectToList(w, r, expect)
				return
			}
		}

		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toContentResponse(*content))
}

// redirectToList — откат на владеющий список варианта.
func redirectToList(w http.ResponseWriter, r *http.Request, contentType string) {
	http.Redirect(w, r, "/content?type="+url.QueryEscape(contentType), http.StatusSeeOther)
}

// createContentRequest — тело POST /content (админский путь записи).
type createContentRequest struct {
	Type     string     `json:"type"`
	Title    string     `json:"title"`
	Body     string     `json:"body"`
	Tags     []string   `json:"tags"`
	Language string     `json:"language"`
	Status   string     `json:"status"`
	AuthorID string     `json:"author_id"`
	StartAt  *time.Time `json:"start_at,omitempty"`
	EndAt    *time.Time `json:"end_at,omitempty"`
	Location string     `json:"location,omitempty"`
}

// CreateContent — POST /content.
func (h *Handlers) CreateContent(w http.ResponseWriter, r *http.Request) {
	var req createContentRequest
	if err := decodeStrict(r, &req); err != nil {
		apierrors.WriteError(w, r, errBadBody())
		return
	}

	authorID, err := uuid.Parse(req.AuthorID)
	if err != nil {
		apierrors.WriteError(w, r, &service.ValidationError{Field: "author_id", Reason: "must be a UUID"})
		return
	}

	in := service.CreateContentInput{
		Type:     models.ContentType(req.Type),
		Title:    req.Title,
		Body:     req.Body,
		Tags:     req.Tags,
		Language: models.Language(req.Language),
		Status:   models.Status(req.Status),
		AuthorID: authorID,
		Location: req.Location,
	}
	if req.StartAt != nil {
		in.StartAt = *req.StartAt
	}
	if req.EndAt != nil {
		in.EndAt = *req.EndAt
	}

	content, err := h.Service.CreateContent(r.Context(), in)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toContentResponse(*content))
}

// updateContentRequest — тело PATCH /content/{id}.
// nil-поле означает «не трогать». Поля type нет: вариант неизменяем.
type updateContentRequest struct {
	Title    *string    `json:"title,omitempty"`
	Body     *string    `json:"body,omitempty"`
	Tags     *[]string  `json:"tags,omitempty"`
	Language *string    `json:"language,omitempty"`
	Status   *string    `json:"status,omitempty"`
	StartAt  *time.Time `json:"start_at,omitempty"`
	EndAt    *time.Time `json:"end_at,omitempty"`
	Location *string    `json:"location,omitempty"`
}

// UpdateContent — PATCH /content/{id}.
func (h *Handlers) UpdateContent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateContentRequest
	if err := decodeStrict(r, &req); err != nil {
		apierrors.WriteError(w, r, errBadBody())
		return
	}

	patch := models.ContentPatch{
		Title:    req.Title,
		Body:     req.Body,
		Tags:     req.Tags,
		StartAt:  req.StartAt,
		EndAt:    req.EndAt,
		Location: req.Location,
	}
	if req.Language != nil {
		lang := models.Language(*req.Language)
		patch.Language = &lang
	}
	if req.Status != nil {
		st := models.Status(*req.Status)
		patch.Status = &st
	}

	content, err := h.Service.UpdateContent(r.Context(), service.UpdateContentInput{
		ID:    id,
		Patch: patch,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toContentResponse(*content))
}

// RegisterView — POST /content/{id}/views.
// Принимает одну регистрацию просмотра (клиентский ViewCounter шлёт её
// не более одного раза на показ). Успех — 204 без тела.
func (h *Handlers) RegisterView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Service.RegisterView(r.Context(), id); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

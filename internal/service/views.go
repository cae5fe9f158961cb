package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pribylovaa/site-content-service/internal/storage"
	"github.com/pribylovaa/site-content-service/pkg/log"
)

// viewsRegistered — счётчик принятых регистраций просмотров.
var viewsRegistered = promauto.NewCounter(prometheus.CounterOpts{
	Name: "content_views_registered_total",
	Help: "Number of successfully registered content views.",
})

// RegisterView — регистрация одного просмотра материала.
//
// Счётчик меняется ТОЛЬКО атомарным инкрементом на стороне хранилища:
// никакого read-modify-write, конкурентные регистрации независимых клиентов
// не теряют обновлений. Кэш документа намеренно не инвалидируется —
// дрейф закэшированного значения views допустим и устраняется по TTL.
//
// Ошибки:
//   - ErrInvalidArgument — пустой id;
//   - ErrNotFound — нет документа с таким id;
//   - ErrUnavailable — хранилище недоступно.
func (s *Service) RegisterView(ctx context.Context, id string) error {
	const op = "service/views/RegisterView"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "id", id)

	if id == "" {
		lg.Warn("invalid argument: empty id")
		return fmt.Errorf("%s: %w", op, invalidField("id", "required"))
	}

	if err := s.storage.IncrementViews(ctx, id); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("content not found")
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		default:
			lg.Error("storage error on IncrementViews", "err", err)
			return fmt.Errorf("%s: %w", op, ErrUnavailable)
		}
	}

	viewsRegistered.Inc()

	return nil
}

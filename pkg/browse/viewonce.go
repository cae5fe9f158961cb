package browse

import (
	"context"
	"log/slog"
	"sync"
)

// ViewService — то, что умеет зарегистрировать просмотр материала
// (обычно HTTP-клиент content-сервиса поверх POST /content/{id}/views).
type ViewService interface {
	RegisterView(ctx context.Context, id string) error
}

// ViewCounter — одноразовый счётчик просмотра для одного показа материала.
//
// Протокол:
//   - Register срабатывает не более одного раза на время жизни счётчика,
//     сколько бы раз его ни вызвала перерисовка; guard выставляется
//     СИНХРОННО до асинхронной отправки, поэтому конкурентный повторный
//     вызов не проскочит мимо него;
//   - локальное значение инкрементируется оптимистично, не дожидаясь сети;
//   - сетевая ошибка проглатывается (логируется, пользователю не видна):
//     локальный счётчик может временно опережать персистентный — дрейф
//     допустим и устраняется следующей свежей загрузкой документа;
//   - новый показ того же материала — новый ViewCounter и новая регистрация:
//     views считает показы, а не уникальных посетителей.
type ViewCounter struct {
	mu    sync.Mutex
	fired bool
	views int64

	svc ViewService
	id  string
	lg  *slog.Logger
}

// NewViewCounter создаёт счётчик для одного показа материала id.
// persisted — авторитетное значение views из свежезагруженного документа.
// Nil-логгер заменяется slog.Default().
func NewViewCounter(svc ViewService, id string, persisted int64, lg *slog.Logger) *ViewCounter {
	if lg == nil {
		lg = slog.Default()
	}

	return &ViewCounter{
		views: persisted,
		svc:   svc,
		id:    id,
		lg:    lg,
	}
}

// Register регистрирует просмотр и возвращает локальное значение счётчика
// для отображения. Повторные вызовы возвращают то же значение и ничего
// не отправляют.
func (v *ViewCounter) Register(ctx context.Context) int64 {
	v.mu.Lock()
	if v.fired {
		n := v.views
		v.mu.Unlock()

		return n
	}

	// Guard выставляется до асинхронной отправки.
	v.fired = true
	v.views++
	n := v.views
	v.mu.Unlock()

	// Fire-and-forget: отправка не блокирует отрисовку и переживает
	// отмену контекста показа (уход со страницы).
	go func(ctx context.Context) {
		if err := v.svc.RegisterView(ctx, v.id); err != nil {
			v.lg.Warn("view registration failed", "id", v.id, "err", err)
		}
	}(context.WithoutCancel(ctx))

	return n
}

// Views возвращает текущее локальное значение счётчика.
func (v *ViewCounter) Views() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.views
}

// log — небольшие помощники для прокидывания request-scoped *slog.Logger
// через context.Context. Используется HTTP-мидлварами и сервисным слоем.
package log

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// Into кладёт логгер в контекст. Nil-логгер игнорируется.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	if l == nil {
		return ctx
	}

	return context.WithValue(ctx, ctxKey{}, l)
}

// From возвращает логгер из контекста либо slog.Default(), если его там нет.
// Никогда не возвращает nil — вызывать можно без проверок.
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}

	return slog.Default()
}

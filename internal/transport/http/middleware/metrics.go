package middleware

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// httpRequests — счётчик обработанных HTTP-запросов.
// Лейблим методом и статусом; путь не лейблим, чтобы не раздувать кардинальность.
var httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Number of processed HTTP requests.",
}, []string{"method", "status"})

// Metrics инкрементирует счётчик запросов по завершении обработки.
func Metrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			status := sw.status
			if status == 0 {
				status = http.StatusOK
			}

			httpRequests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
		})
	}
}

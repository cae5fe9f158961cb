package http

import (
	"encoding/json"
	"net/http"

	"github.com/pribylovaa/site-content-service/internal/service"
)

// Handlers агрегирует зависимости HTTP-слоя.
// PageSize отдаётся фронту в ответе списка: это стартовый размер «окна»
// клиентской пагинации и шаг «показать ещё».
type Handlers struct {
	Service  *service.Service
	PageSize int
}

func NewHandlers(svc *service.Service, pageSize int) *Handlers {
	return &Handlers{Service: svc, PageSize: pageSize}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// errBadBody — локальная ошибка разбора тела -> сервисный InvalidArgument.
func errBadBody() error {
	return &service.ValidationError{Field: "body", Reason: "malformed json"}
}

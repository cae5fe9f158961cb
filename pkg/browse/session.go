package browse

import (
	"net/url"
	"sync"
)

// DefaultPageSize — размер «окна» по умолчанию: стартовое количество
// раскрытых элементов и шаг LoadMore.
const DefaultPageSize = 6

// Session — состояние одной сессии просмотра списка: активный фильтр
// плюс «окно» раскрытых элементов поверх уже полученной, уже
// отсортированной выборки.
//
// Инварианты:
//   - loaded стартует с pageSize и растёт только шагами pageSize (LoadMore);
//   - смена ЛЮБОГО поля фильтра сбрасывает loaded обратно к pageSize —
//     и только она; повторная установка того же значения — no-op;
//   - сброс выполняется синхронно внутри перехода состояния (под мьютексом),
//     поэтому «застрявший» LoadMore, пришедший после смены фильтра,
//     не может воскресить старое окно.
//
// Окно — чисто клиентский счётчик раскрытия, не серверный курсор: выборка
// перезапрашивается целиком на каждую смену фильтра.
type Session struct {
	mu       sync.Mutex
	pageSize int
	loaded   int
	filter   Filter
}

// NewSession создаёт сессию с чистым фильтром.
// pageSize <= 0 заменяется на DefaultPageSize.
func NewSession(pageSize int) *Session {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &Session{
		pageSize: pageSize,
		loaded:   pageSize,
	}
}

// RestoreSession создаёт сессию из query-строки URL (свежая загрузка
// страницы, переход назад/вперёд). Окно всегда стартует заново.
func RestoreSession(pageSize int, rawQuery string) *Session {
	s := NewSession(pageSize)
	s.filter = decodeRawQuery(rawQuery)

	return s
}

// Filter возвращает текущий фильтр (каноническая форма).
func (s *Session) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filter
}

// Loaded возвращает текущий размер окна.
func (s *Session) Loaded() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loaded
}

// LoadMore раскрывает ещё pageSize элементов и возвращает новый размер окна.
// Окно никогда не уменьшается и внутренне не ограничено: к длине выборки
// его прижимает потребитель через Window.
func (s *Session) LoadMore() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded += s.pageSize

	return s.loaded
}

// Window прижимает размер окна к длине отфильтрованной выборки:
// столько элементов потребитель реально отрисовывает.
func (s *Session) Window(total int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if total < 0 {
		total = 0
	}

	if s.loaded > total {
		return total
	}

	return s.loaded
}

// SetFilter заменяет фильтр целиком. Возвращает true, если фильтр
// фактически изменился (и окно было сброшено).
func (s *Session) SetFilter(f Filter) bool {
	return s.apply(f.Canonical())
}

// SetSearch меняет только строку поиска.
func (s *Session) SetSearch(q string) bool {
	s.mu.Lock()
	next := s.filter
	s.mu.Unlock()

	next.Search = q

	return s.apply(next.Canonical())
}

// SetTag меняет только тег.
func (s *Session) SetTag(tag string) bool {
	s.mu.Lock()
	next := s.filter
	s.mu.Unlock()

	next.Tag = tag

	return s.apply(next.Canonical())
}

// SetLanguage меняет только язык.
func (s *Session) SetLanguage(lang string) bool {
	s.mu.Lock()
	next := s.filter
	s.mu.Unlock()

	next.Language = lang

	return s.apply(next.Canonical())
}

// ClearFilters сбрасывает все фильтры одной операцией: URL возвращается
// к голому пути (Query() == "").
func (s *Session) ClearFilters() bool {
	return s.apply(Filter{})
}

// Query — каноническая query-строка текущего фильтра для replace-навигации
// (без новой записи истории и без прокрутки — забота слоя отрисовки).
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filter.Query()
}

// apply — единственный переход состояния фильтра.
// Сброс окна вычисляется синхронно под тем же мьютексом, что и сравнение:
// между «фильтр изменился» и «окно сброшено» нет ни одной точки переключения.
func (s *Session) apply(next Filter) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if next == s.filter {
		// Повторная установка того же значения — no-op для пагинации.
		return false
	}

	s.filter = next
	s.loaded = s.pageSize

	return true
}

// decodeRawQuery — терпимый разбор query-строки: битая строка означает
// «фильтров нет», а не ошибку (URL набирают руками).
func decodeRawQuery(rawQuery string) Filter {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return Filter{}
	}

	return DecodeFilter(values)
}

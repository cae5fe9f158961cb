// browse — клиентская библиотека сессии просмотра списков контента.
//
// Слой отрисовки (внешний потребитель) держит по одной Session на страницу
// списка и по одному ViewCounter на показанный материал. Пакет отвечает за
// три протокола ядра:
//   - детерминированную двустороннюю синхронизацию фильтра с query-строкой URL
//     (Filter / DecodeFilter / Encode / Query);
//   - «окно» инкрементальной подгрузки поверх уже полученного списка
//     (Session / LoadMore / Window);
//   - идемпотентную регистрацию просмотра с оптимистичным локальным счётчиком
//     (ViewCounter).
//
// Единственный источник истины для фильтра — URL: состояние в памяти всегда
// восстановимо декодированием query-строки, ничего не персистится отдельно.
package browse

import (
	"net/url"
	"strings"
)

// Имена query-параметров фильтра. Других параметров пакет не резервирует.
const (
	ParamSearch   = "q"
	ParamTag      = "tag"
	ParamLanguage = "lang"
)

// knownLanguages — коды языков, принимаемые фильтром.
// Незнакомый код при декодировании означает «фильтр по языку не активен».
var knownLanguages = map[string]struct{}{
	"ru": {},
	"en": {},
}

// Filter — состояние фильтров списка: поиск, тег, язык.
// Каноническая форма: пустая строка == «фильтр не активен»; в закодированном
// виде пустые поля опускаются, поэтому URL канонаичен и шарится ссылкой.
type Filter struct {
	Search   string
	Tag      string
	Language string
}

// Canonical возвращает каноническую форму фильтра: поля обрезаны по пробелам,
// незнакомый код языка сброшен. Две канонические формы сравнимы оператором ==.
func (f Filter) Canonical() Filter {
	f.Search = strings.TrimSpace(f.Search)
	f.Tag = strings.TrimSpace(f.Tag)
	f.Language = strings.TrimSpace(f.Language)

	if _, ok := knownLanguages[f.Language]; !ok {
		f.Language = ""
	}

	return f
}

// IsZero сообщает, что ни один фильтр не активен.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// DecodeFilter — чистая функция URL -> фильтр; выполняется на каждой навигации.
// Неизвестные параметры игнорируются; два разных клиента на одном URL
// детерминированно получают одинаковое состояние.
func DecodeFilter(values url.Values) Filter {
	return Filter{
		Search:   values.Get(ParamSearch),
		Tag:      values.Get(ParamTag),
		Language: values.Get(ParamLanguage),
	}.Canonical()
}

// Encode — фильтр -> query-параметры. Пустые/дефолтные поля опускаются,
// а не кодируются пустыми значениями.
func (f Filter) Encode() url.Values {
	f = f.Canonical()
	values := url.Values{}

	if f.Search != "" {
		values.Set(ParamSearch, f.Search)
	}
	if f.Tag != "" {
		values.Set(ParamTag, f.Tag)
	}
	if f.Language != "" {
		values.Set(ParamLanguage, f.Language)
	}

	return values
}

// Query — каноническая query-строка фильтра с фиксированным порядком
// параметров (q, tag, lang). Пустой фильтр кодируется пустой строкой:
// URL остаётся голым путём.
func (f Filter) Query() string {
	f = f.Canonical()

	var parts []string
	if f.Search != "" {
		parts = append(parts, ParamSearch+"="+url.QueryEscape(f.Search))
	}
	if f.Tag != "" {
		parts = append(parts, ParamTag+"="+url.QueryEscape(f.Tag))
	}
	if f.Language != "" {
		parts = append(parts, ParamLanguage+"="+url.QueryEscape(f.Language))
	}

	return strings.Join(parts, "&")
}

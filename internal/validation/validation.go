// Package validation содержит функции валидации входных данных.
package validation

import (
	"fmt"
	"math"
	"strconv"
	"unicode"

	"github.com/mmeshcher/agrosurplus/internal/model"
)

const (
	// DefaultPageLimit — размер страницы, если limit не передан.
	DefaultPageLimit = 50
	// MaxPageLimit — верхняя граница размера страницы.
	MaxPageLimit = 200
)

// IsISODate проверяет, что строка имеет вид YYYY-MM-DD и является существующей датой.
func IsISODate(s string) bool {
	if len(s) != len(model.DateLayout) {
		return false
	}

	for i, ch := range s {
		if i == 4 || i == 7 {
			if ch != '-' {
				return false
			}
			continue
		}
		if !unicode.IsDigit(ch) {
			return false
		}
	}

	_, err := model.ParseDate(s)
	return err == nil
}

// ParseISODate разбирает дату в строгом формате YYYY-MM-DD. Пустая строка тоже ErrInvalidFormat.
func ParseISODate(s string) (model.Date, error) {
	if !IsISODate(s) {
		return model.Date{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", model.ErrInvalidFormat, s)
	}
	return model.ParseDate(s)
}

// ParseID разбирает положительный идентификатор из пути запроса.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q must be a positive integer", model.ErrInvalidFormat, raw)
	}
	return id, nil
}

// ParsePage разбирает параметры page и limit. Пустые значения заменяются
// значениями по умолчанию, limit ограничивается MaxPageLimit.
func ParsePage(rawPage, rawLimit string) (model.Page, error) {
	page, limit := 1, DefaultPageLimit

	if rawPage != "" {
		v, err := strconv.Atoi(rawPage)
		if err != nil || v < 1 {
			return model.Page{}, fmt.Errorf("%w: page must be a positive integer", model.ErrInvalidFormat)
		}
		page = v
	}

	if rawLimit != "" {
		v, err := strconv.Atoi(rawLimit)
		if err != nil || v < 1 {
			return model.Page{}, fmt.Errorf("%w: limit must be a positive integer", model.ErrInvalidFormat)
		}
		limit = min(v, MaxPageLimit)
	}

	if page-1 > math.MaxInt32/limit {
		return model.Page{}, fmt.Errorf("%w: page %d is out of range", model.ErrInvalidFormat, page)
	}

	return model.Page{Page: page, Limit: limit, Offset: (page - 1) * limit}, nil
}

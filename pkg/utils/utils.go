package utils

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Round2 округляет число до 2 знаков после запятой
func Round2(value float64) float64 {
	return RoundTo(value, 2)
}

// RoundTo округляет число до заданного количества знаков (половина - от нуля).
// Нечисловые значения возвращаются как есть.
func RoundTo(value float64, places int32) float64 {
	if !IsFinite(value) {
		return value
	}
	return decimal.NewFromFloat(value).Round(places).InexactFloat64()
}

// IsFinite проверяет, является ли число конечным
func IsFinite(value float64) bool {
	return !math.IsInf(value, 0) && !math.IsNaN(value)
}

// ApproxEqual сравнивает числа с относительной погрешностью tol
func ApproxEqual(a, b, tol float64) bool {
	diff := math.Abs(a - b)
	if diff <= tol {
		return true
	}
	return diff <= tol*math.Max(math.Abs(a), math.Abs(b))
}

// ParseNumber разбирает введенное пользователем число.
// Разделители тысяч и пробелы удаляются; пустая или некорректная строка дает NaN.
func ParseNumber(raw string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', '_', '\u00a0':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	if cleaned == "" {
		return math.NaN()
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return math.NaN()
	}
	return value
}

// FormatNumber печатает число в кратчайшем виде без экспоненты
func FormatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// Package format превращает числовые результаты в строки для отображения
// с корейскими разделителями разрядов.
package format

import (
	"math"
	"math/big"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/cloud-ru/moneycalc-go/pkg/utils"
)

// Placeholder показывается вместо результата, если значение не является числом
const Placeholder = "값을 다시 입력해 주세요."

const (
	maxFractionDigits  = 2
	// подписи оси мельче 만 - до 3 знаков после запятой
	axisFractionDigits = 3

	hundredMillion = 1e8
	tenThousand    = 1e4
)

var printer = message.NewPrinter(language.Korean)

// Currency форматирует сумму с разделителями разрядов и не более чем двумя
// знаками после запятой. Для NaN возвращается Placeholder.
func Currency(value float64) string {
	switch {
	case math.IsNaN(value):
		return Placeholder
	case math.IsInf(value, 1):
		return "∞"
	case math.IsInf(value, -1):
		return "-∞"
	}
	return grouped(utils.Round2(value), maxFractionDigits)
}

// grouped печатает уже округленное число с разделителями разрядов
func grouped(rounded float64, digits int) string {
	if rounded == 0 {
		rounded = 0 // без "-0"
	}
	return printer.Sprintf("%v", number.Decimal(rounded, number.MaxFractionDigits(digits)))
}

// AxisLabel форматирует подпись оси графика: от 1억 - в 억 с одним знаком,
// от 1만 - в 만 без дробной части, иначе полная сумма в 원 с точностью до
// трех знаков.
func AxisLabel(value float64) string {
	switch {
	case math.IsNaN(value):
		return Placeholder
	case value >= hundredMillion:
		return toFixed(value/hundredMillion, 1) + "억"
	case value >= tenThousand:
		return toFixed(value/tenThousand, 0) + "만"
	case math.IsInf(value, -1):
		return Currency(value) + "원"
	}
	return grouped(utils.RoundTo(value, axisFractionDigits), axisFractionDigits) + "원"
}

// Won добавляет к сумме знак 원
func Won(value float64) string {
	return Currency(value) + "원"
}

// toFixed округляет положительное число до digits знаков. Точную половину
// strconv округляет к четному, здесь она всегда округляется вверх.
func toFixed(value float64, digits int) string {
	const prec = 256
	scaled := new(big.Float).SetPrec(prec).SetFloat64(value)
	scaled.Mul(scaled, new(big.Float).SetPrec(prec).SetFloat64(math.Pow10(digits)))
	whole, _ := scaled.Int(nil)
	frac := new(big.Float).SetPrec(prec).Sub(scaled, new(big.Float).SetPrec(prec).SetInt(whole))
	if frac.Cmp(big.NewFloat(0.5)) == 0 {
		value = math.Nextafter(value, math.Inf(1))
	}
	return strconv.FormatFloat(value, 'f', digits, 64)
}

// Package units приводит значения полей калькуляторов к каноническим единицам:
// годовая ставка в долях и сумма в полных вонах.
package units

import (
	"errors"
	"fmt"
	"math"

	"github.com/cloud-ru/moneycalc-go/pkg/utils"
)

// RateUnit - единица, в которой пользователь вводит процентную ставку
type RateUnit string

const (
	RateAnnual  RateUnit = "annual"
	RateMonthly RateUnit = "monthly"
)

// AmountUnit - единица, в которой пользователь вводит денежные суммы
type AmountUnit string

const (
	AmountFull     AmountUnit = "krw"
	AmountThousand AmountUnit = "thousand"
)

const (
	monthsPerYear  = 12.0
	thousandFactor = 1000.0
	percentBase    = 100.0

	ratePlaces       int32 = 2
	thousandPlaces   int32 = 1
	fullAmountPlaces int32 = 0
)

// ErrUnknownUnit возвращается при разборе неизвестного обозначения единицы
var ErrUnknownUnit = errors.New("неизвестная единица измерения")

// Preference - текущие единицы отображения. Хранится снаружи, движок только читает.
type Preference struct {
	RateUnit   RateUnit   `json:"rateUnit"`
	AmountUnit AmountUnit `json:"amountUnit"`
}

// DefaultPreference возвращает настройки по умолчанию: годовая ставка, суммы в вонах
func DefaultPreference() Preference {
	return Preference{RateUnit: RateAnnual, AmountUnit: AmountFull}
}

// ParseRateUnit разбирает обозначение единицы ставки; пустая строка дает значение по умолчанию
func ParseRateUnit(raw string) (RateUnit, error) {
	switch RateUnit(raw) {
	case "":
		return RateAnnual, nil
	case RateAnnual, RateMonthly:
		return RateUnit(raw), nil
	}
	return "", fmt.Errorf("rateUnit %q: %w", raw, ErrUnknownUnit)
}

// ParseAmountUnit разбирает обозначение единицы суммы; пустая строка дает значение по умолчанию
func ParseAmountUnit(raw string) (AmountUnit, error) {
	switch AmountUnit(raw) {
	case "":
		return AmountFull, nil
	case AmountFull, AmountThousand:
		return AmountUnit(raw), nil
	}
	return "", fmt.Errorf("amountUnit %q: %w", raw, ErrUnknownUnit)
}

// ParsePreference собирает Preference из строковых значений хранилища или URL
func ParsePreference(rateUnit, amountUnit string) (Preference, error) {
	r, err := ParseRateUnit(rateUnit)
	if err != nil {
		return Preference{}, err
	}
	a, err := ParseAmountUnit(amountUnit)
	if err != nil {
		return Preference{}, err
	}
	return Preference{RateUnit: r, AmountUnit: a}, nil
}

// FieldRole описывает смысл числового поля для пересчета единиц
type FieldRole int

const (
	// RolePlain - срок, процент, частота и прочие поля без пересчета
	RolePlain FieldRole = iota
	// RoleMoney - денежная сумма
	RoleMoney
	// RoleRate - процентная ставка
	RoleRate
)

func (r FieldRole) String() string {
	switch r {
	case RoleMoney:
		return "money"
	case RoleRate:
		return "rate"
	default:
		return "plain"
	}
}

// NormalizeAmount переводит введенное значение в полные воны.
// Поля, не являющиеся денежными, возвращаются без изменений.
func NormalizeAmount(raw float64, role FieldRole, unit AmountUnit) float64 {
	if role != RoleMoney {
		return raw
	}
	if unit == AmountThousand {
		return raw * thousandFactor
	}
	return raw
}

// NormalizeRate переводит введенный процент в годовую ставку в долях
func NormalizeRate(raw float64, unit RateUnit) float64 {
	if unit == RateMonthly {
		return raw * monthsPerYear / percentBase
	}
	return raw / percentBase
}

// Normalize приводит значение поля к канонической единице согласно его роли
func Normalize(raw float64, role FieldRole, pref Preference) float64 {
	switch role {
	case RoleMoney:
		return NormalizeAmount(raw, role, pref.AmountUnit)
	case RoleRate:
		return NormalizeRate(raw, pref.RateUnit)
	default:
		return raw
	}
}

// ConvertStored пересчитывает сохраненное значение поля при смене настроек так,
// чтобы его реальный смысл не изменился. Результат округляется до фиксированной
// точности: 2 знака для ставки, 1 знак для тысяч, 0 знаков для полных сумм.
// При from == to значение не меняется. NaN возвращается как NaN: вызывающий
// код должен оставить такое поле нетронутым.
func ConvertStored(raw float64, role FieldRole, from, to Preference) float64 {
	if math.IsNaN(raw) {
		return raw
	}
	switch role {
	case RoleRate:
		return convertRate(raw, from.RateUnit, to.RateUnit)
	case RoleMoney:
		return convertAmount(raw, from.AmountUnit, to.AmountUnit)
	default:
		return raw
	}
}

func convertRate(raw float64, from, to RateUnit) float64 {
	if from == to {
		return raw
	}
	if to == RateMonthly {
		return utils.RoundTo(raw/monthsPerYear, ratePlaces)
	}
	return utils.RoundTo(raw*monthsPerYear, ratePlaces)
}

func convertAmount(raw float64, from, to AmountUnit) float64 {
	if from == to {
		return raw
	}
	if to == AmountThousand {
		return utils.RoundTo(raw/thousandFactor, thousandPlaces)
	}
	return utils.RoundTo(raw*thousandFactor, fullAmountPlaces)
}

package calculations

import (
	"errors"
	"math"
)

const (
	monthsPerYear = 12.0

	// scheduleTolerance - допустимая погрешность сумм графика в вонах
	scheduleTolerance = 1e-6
)

// ErrInvalidRate возвращается при нулевом курсе обмена
var ErrInvalidRate = errors.New("курс обмена должен быть больше 0")

// SimpleInterest рассчитывает простые проценты за months месяцев
func SimpleInterest(principal, annualRate, months float64) InterestResult {
	interest := principal * annualRate * (months / monthsPerYear)
	return InterestResult{
		Interest: interest,
		Total:    principal + interest,
	}
}

// InstallmentPayment рассчитывает аннуитетный ежемесячный платеж
func InstallmentPayment(principal, monthlyRate, months float64) float64 {
	if monthlyRate == 0 {
		return principal / months
	}
	growth := math.Pow(1+monthlyRate, months)
	return principal * (monthlyRate * growth) / (growth - 1)
}

// SavingsFutureValue рассчитывает сумму накопительного вклада к концу срока.
// Взнос вносится в начале месяца и получает проценты за этот месяц.
func SavingsFutureValue(contribution, monthlyRate, months float64) float64 {
	if monthlyRate == 0 {
		return contribution * months
	}
	return contribution * ((math.Pow(1+monthlyRate, months) - 1) / monthlyRate) * (1 + monthlyRate)
}

// PercentOf возвращает percent процентов от base
func PercentOf(base, percent float64) float64 {
	return base * (percent / 100)
}

// ConvertCurrency конвертирует сумму по курсу rate
func ConvertCurrency(amount, rate float64, direction Direction) (float64, error) {
	if rate == 0 {
		return 0, ErrInvalidRate
	}
	if direction == ToLocal {
		return amount * rate, nil
	}
	return amount / rate, nil
}

// EffectiveMonthlyRate переводит годовую ставку с капитализацией frequency раз
// в год в эквивалентную месячную ставку
func EffectiveMonthlyRate(annualRate, frequency float64) float64 {
	return math.Pow(1+annualRate/frequency, frequency/monthsPerYear) - 1
}

// CompoundGrowth рассчитывает стоимость капитала с регулярными взносами
func CompoundGrowth(principal, contribution, annualRate, years, frequency float64) float64 {
	months := years * monthsPerYear
	if annualRate == 0 {
		return principal + contribution*months
	}
	r := EffectiveMonthlyRate(annualRate, frequency)
	growth := math.Pow(1+r, months)
	return principal*growth + contribution*((growth-1)/r)*(1+r)
}

package validators

import (
	"errors"
	"fmt"
	"math"

	"github.com/cloud-ru/moneycalc-go/internal/calculator"
	"github.com/cloud-ru/moneycalc-go/internal/config"
	"github.com/cloud-ru/moneycalc-go/internal/units"
	"github.com/cloud-ru/moneycalc-go/pkg/utils"
)

// ErrInvalidInput - нечисловое, пустое или вне допустимого диапазона значение
var ErrInvalidInput = errors.New("неверные параметры")

// ValidatePositiveNumber проверяет, что число конечное и в допустимом диапазоне
func ValidatePositiveNumber(name string, value float64, minInclusive, maxInclusive float64) error {
	if !utils.IsFinite(value) {
		return fmt.Errorf("%w: %s: значение не является конечным числом", ErrInvalidInput, name)
	}
	if value < minInclusive {
		return fmt.Errorf("%w: %s: значение должно быть ≥ %g", ErrInvalidInput, name, minInclusive)
	}
	if value > maxInclusive {
		return fmt.Errorf("%w: %s: значение слишком велико (>%g)", ErrInvalidInput, name, maxInclusive)
	}
	return nil
}

// ValidateIntRange проверяет, что значение целое и в допустимом диапазоне
func ValidateIntRange(name string, value float64, minInclusive, maxInclusive int) error {
	if !utils.IsFinite(value) || value != math.Trunc(value) {
		return fmt.Errorf("%w: %s: ожидается целое число", ErrInvalidInput, name)
	}
	if value < float64(minInclusive) || value > float64(maxInclusive) {
		return fmt.Errorf("%w: %s: значение должно быть в диапазоне [%d; %d]", ErrInvalidInput, name, minInclusive, maxInclusive)
	}
	return nil
}

// CheckPrincipal проверяет сумму кредита (в вонах)
func CheckPrincipal(cfg *config.Config, principal float64) error {
	return ValidatePositiveNumber("principal", principal, 1e-9, cfg.MaxPrincipal)
}

// CheckAmount проверяет неотрицательную сумму (в вонах)
func CheckAmount(cfg *config.Config, name string, amount float64) error {
	return ValidatePositiveNumber(name, amount, 0.0, cfg.MaxPrincipal)
}

// CheckRate проверяет годовую ставку в процентах
func CheckRate(cfg *config.Config, ratePercent float64) error {
	return ValidatePositiveNumber("rate", ratePercent, 0.0, cfg.MaxRate)
}

// CheckMonths проверяет срок в месяцах
func CheckMonths(cfg *config.Config, months float64) error {
	return ValidateIntRange("months", months, 1, cfg.MaxMonths)
}

// CheckContribution проверяет ежемесячный взнос (в вонах)
func CheckContribution(cfg *config.Config, contribution float64) error {
	return ValidatePositiveNumber("contribution", contribution, 0.0, cfg.MaxContribution)
}

// CheckInput проверяет ввод калькулятора. Суммы и ставки сравниваются с
// лимитами после приведения к вонам и годовому проценту.
func CheckInput(cfg *config.Config, in calculator.Input, pref units.Preference) error {
	money := func(v float64) float64 { return units.Normalize(v, units.RoleMoney, pref) }
	ratePercent := func(v float64) float64 { return units.Normalize(v, units.RoleRate, pref) * 100 }

	var errs []error
	check := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	switch v := in.(type) {
	case calculator.InterestInput:
		check(CheckAmount(cfg, "principal", money(v.Principal)))
		check(CheckRate(cfg, ratePercent(v.Rate)))
		check(CheckMonths(cfg, v.Months))
	case calculator.LoanInput:
		check(CheckPrincipal(cfg, money(v.Principal)))
		check(CheckRate(cfg, ratePercent(v.Rate)))
		check(CheckMonths(cfg, v.Months))
	case calculator.SavingsInput:
		check(CheckContribution(cfg, money(v.Monthly)))
		check(CheckRate(cfg, ratePercent(v.Rate)))
		check(CheckMonths(cfg, v.Months))
	case calculator.PercentInput:
		check(ValidatePositiveNumber("base", money(v.Base), -cfg.MaxPrincipal, cfg.MaxPrincipal))
		check(ValidatePositiveNumber("percent", v.Percent, -math.MaxFloat64, math.MaxFloat64))
	case calculator.ExchangeInput:
		check(CheckAmount(cfg, "amount", money(v.Amount)))
		// Нулевой курс допустим: калькулятор сам покажет сообщение
		check(ValidatePositiveNumber("exchangeRate", v.Rate, 0.0, math.MaxFloat64))
	case calculator.CompoundInput:
		check(CheckAmount(cfg, "principal", money(v.Principal)))
		check(CheckContribution(cfg, money(v.Contribution)))
		check(CheckRate(cfg, ratePercent(v.Rate)))
		check(ValidateIntRange("years", v.Years, 1, cfg.MaxYears))
		check(ValidateIntRange("frequency", v.Frequency, 1, cfg.MaxFrequency))
	case calculator.LoanScheduleInput:
		check(CheckAmount(cfg, "principal", money(v.Principal)))
		check(CheckRate(cfg, ratePercent(v.Rate)))
		check(CheckMonths(cfg, v.Months))
	default:
		return fmt.Errorf("%w: неизвестный ввод %T", ErrInvalidInput, in)
	}

	return errors.Join(errs...)
}

// Package calculator связывает ввод пользователя с формулами: разбирает поля
// каждого калькулятора, приводит единицы и формирует результат для отображения.
package calculator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cloud-ru/moneycalc-go/internal/calculations"
	"github.com/cloud-ru/moneycalc-go/internal/units"
	"github.com/cloud-ru/moneycalc-go/pkg/utils"
)

// Kind - тип калькулятора
type Kind string

const (
	KindInterest     Kind = "interest"
	KindLoan         Kind = "loan"
	KindSavings      Kind = "savings"
	KindPercent      Kind = "percent"
	KindExchange     Kind = "exchange"
	KindCompound     Kind = "compound"
	KindLoanSchedule Kind = "loanSchedule"
)

var (
	// ErrUnknownKind - неизвестный тип калькулятора
	ErrUnknownKind = errors.New("неизвестный калькулятор")
	// ErrMissingField - обязательное поле отсутствует
	ErrMissingField = errors.New("поле не заполнено")
	// ErrInvalidChoice - недопустимое значение поля выбора
	ErrInvalidChoice = errors.New("недопустимое значение")
)

// Field описывает поле ввода калькулятора
type Field struct {
	Name string
	Role units.FieldRole
	// Choice - поле выбора (направление, способ), не число
	Choice bool
}

// Input - типизированный ввод одного калькулятора. Значения хранятся в
// единицах отображения, приведение выполняет Calculate.
type Input interface {
	Kind() Kind
}

// InterestInput - простые проценты
type InterestInput struct {
	Principal float64
	Rate      float64
	Months    float64
}

// LoanInput - аннуитетный платеж
type LoanInput struct {
	Principal float64
	Rate      float64
	Months    float64
}

// SavingsInput - накопительный вклад
type SavingsInput struct {
	Monthly float64
	Rate    float64
	Months  float64
}

// PercentInput - процент от числа
type PercentInput struct {
	Base    float64
	Percent float64
}

// ExchangeInput - конвертация валюты
type ExchangeInput struct {
	Amount    float64
	Rate      float64
	Direction calculations.Direction
}

// CompoundInput - сложные проценты с регулярными взносами
type CompoundInput struct {
	Principal    float64
	Contribution float64
	Rate         float64
	Years        float64
	Frequency    float64
}

// LoanScheduleInput - график погашения
type LoanScheduleInput struct {
	Principal float64
	Rate      float64
	Months    float64
	Method    calculations.Method
}

func (InterestInput) Kind() Kind     { return KindInterest }
func (LoanInput) Kind() Kind         { return KindLoan }
func (SavingsInput) Kind() Kind      { return KindSavings }
func (PercentInput) Kind() Kind      { return KindPercent }
func (ExchangeInput) Kind() Kind     { return KindExchange }
func (CompoundInput) Kind() Kind     { return KindCompound }
func (LoanScheduleInput) Kind() Kind { return KindLoanSchedule }

var schemas = map[Kind][]Field{
	KindInterest: {
		{Name: "principal", Role: units.RoleMoney},
		{Name: "rate", Role: units.RoleRate},
		{Name: "months"},
	},
	KindLoan: {
		{Name: "loanPrincipal", Role: units.RoleMoney},
		{Name: "loanRate", Role: units.RoleRate},
		{Name: "loanMonths"},
	},
	KindSavings: {
		{Name: "monthly", Role: units.RoleMoney},
		{Name: "savingsRate", Role: units.RoleRate},
		{Name: "savingsMonths"},
	},
	KindPercent: {
		{Name: "base", Role: units.RoleMoney},
		{Name: "percent"},
	},
	KindExchange: {
		{Name: "amount", Role: units.RoleMoney},
		{Name: "rate"},
		{Name: "direction", Choice: true},
	},
	KindCompound: {
		{Name: "principal", Role: units.RoleMoney},
		{Name: "contribution", Role: units.RoleMoney},
		{Name: "rate", Role: units.RoleRate},
		{Name: "years"},
		{Name: "frequency"},
	},
	KindLoanSchedule: {
		{Name: "principal", Role: units.RoleMoney},
		{Name: "rate", Role: units.RoleRate},
		{Name: "months"},
		{Name: "method", Choice: true},
	},
}

// Kinds возвращает все типы калькуляторов в алфавитном порядке
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(schemas))
	for k := range schemas {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// ParseKind проверяет название калькулятора
func ParseKind(raw string) (Kind, error) {
	k := Kind(raw)
	if _, ok := schemas[k]; !ok {
		return "", fmt.Errorf("%q: %w", raw, ErrUnknownKind)
	}
	return k, nil
}

// Schema возвращает поля калькулятора
func Schema(kind Kind) ([]Field, error) {
	fields, ok := schemas[kind]
	if !ok {
		return nil, fmt.Errorf("%q: %w", kind, ErrUnknownKind)
	}
	out := make([]Field, len(fields))
	copy(out, fields)
	return out, nil
}

type rawFields map[string]string

func (r rawFields) number(name string) (float64, error) {
	v, ok := r[name]
	if !ok {
		return 0, fmt.Errorf("%s: %w", name, ErrMissingField)
	}
	return utils.ParseNumber(v), nil
}

// Parse строит типизированный ввод из сырых значений полей.
// Некорректный текст дает NaN; проверка диапазонов - задача validators.
func Parse(kind Kind, raw map[string]string) (Input, error) {
	f := rawFields(raw)
	var errs []error
	num := func(name string) float64 {
		v, err := f.number(name)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	var in Input
	switch kind {
	case KindInterest:
		in = InterestInput{Principal: num("principal"), Rate: num("rate"), Months: num("months")}
	case KindLoan:
		in = LoanInput{Principal: num("loanPrincipal"), Rate: num("loanRate"), Months: num("loanMonths")}
	case KindSavings:
		in = SavingsInput{Monthly: num("monthly"), Rate: num("savingsRate"), Months: num("savingsMonths")}
	case KindPercent:
		in = PercentInput{Base: num("base"), Percent: num("percent")}
	case KindExchange:
		direction, err := parseDirection(raw["direction"])
		if err != nil {
			errs = append(errs, err)
		}
		in = ExchangeInput{Amount: num("amount"), Rate: num("rate"), Direction: direction}
	case KindCompound:
		in = CompoundInput{
			Principal:    num("principal"),
			Contribution: num("contribution"),
			Rate:         num("rate"),
			Years:        num("years"),
			Frequency:    num("frequency"),
		}
	case KindLoanSchedule:
		method, err := parseMethod(raw["method"])
		if err != nil {
			errs = append(errs, err)
		}
		in = LoanScheduleInput{Principal: num("principal"), Rate: num("rate"), Months: num("months"), Method: method}
	default:
		return nil, fmt.Errorf("%q: %w", kind, ErrUnknownKind)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	return in, nil
}

func parseDirection(raw string) (calculations.Direction, error) {
	switch calculations.Direction(raw) {
	case "", calculations.ToLocal:
		return calculations.ToLocal, nil
	case calculations.ToForeign:
		return calculations.ToForeign, nil
	}
	return "", fmt.Errorf("direction %q: %w", raw, ErrInvalidChoice)
}

func parseMethod(raw string) (calculations.Method, error) {
	switch calculations.Method(raw) {
	case "", calculations.EqualPayment:
		return calculations.EqualPayment, nil
	case calculations.EqualPrincipal:
		return calculations.EqualPrincipal, nil
	}
	return "", fmt.Errorf("method %q: %w", raw, ErrInvalidChoice)
}

// Fields возвращает ввод в виде сырых значений полей, пригодных для Parse
func Fields(in Input) map[string]string {
	n := utils.FormatNumber
	switch v := in.(type) {
	case InterestInput:
		return map[string]string{"principal": n(v.Principal), "rate": n(v.Rate), "months": n(v.Months)}
	case LoanInput:
		return map[string]string{"loanPrincipal": n(v.Principal), "loanRate": n(v.Rate), "loanMonths": n(v.Months)}
	case SavingsInput:
		return map[string]string{"monthly": n(v.Monthly), "savingsRate": n(v.Rate), "savingsMonths": n(v.Months)}
	case PercentInput:
		return map[string]string{"base": n(v.Base), "percent": n(v.Percent)}
	case ExchangeInput:
		return map[string]string{"amount": n(v.Amount), "rate": n(v.Rate), "direction": string(v.Direction)}
	case CompoundInput:
		return map[string]string{
			"principal":    n(v.Principal),
			"contribution": n(v.Contribution),
			"rate":         n(v.Rate),
			"years":        n(v.Years),
			"frequency":    n(v.Frequency),
		}
	case LoanScheduleInput:
		return map[string]string{"principal": n(v.Principal), "rate": n(v.Rate), "months": n(v.Months), "method": string(v.Method)}
	}
	return nil
}

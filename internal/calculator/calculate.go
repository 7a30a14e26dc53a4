package calculator

import (
	"errors"
	"fmt"

	"github.com/cloud-ru/moneycalc-go/internal/calculations"
	"github.com/cloud-ru/moneycalc-go/internal/format"
	"github.com/cloud-ru/moneycalc-go/internal/units"
	"github.com/cloud-ru/moneycalc-go/pkg/utils"
)

// InvalidRateMessage показывается вместо результата при нулевом курсе
const InvalidRateMessage = "환율은 0보다 커야 합니다."

// Result - результат расчета: либо сообщение, либо сообщение с графиком платежей
type Result struct {
	Kind     Kind             `json:"kind"`
	Message  string           `json:"message"`
	Schedule *ScheduleOutcome `json:"schedule,omitempty"`
}

// IsSchedule сообщает, содержит ли результат график платежей
func (r Result) IsSchedule() bool {
	return r.Schedule != nil
}

// TableRow - строка таблицы графика с отформатированными суммами
type TableRow struct {
	Month     int    `json:"month"`
	Payment   string `json:"payment"`
	Principal string `json:"principal"`
	Interest  string `json:"interest"`
	Balance   string `json:"balance"`
}

// Chart - подписи и ряды для графика
type Chart struct {
	Labels    []string  `json:"labels"`
	Balance   []float64 `json:"balance"`
	Principal []float64 `json:"principal"`
	Interest  []float64 `json:"interest"`
}

// ScheduleOutcome - график платежей, готовый для таблицы и графика
type ScheduleOutcome struct {
	Method calculations.Method         `json:"method"`
	Rows   []calculations.ScheduleRow  `json:"rows"`
	Table  []TableRow                  `json:"table"`
	Chart  Chart                       `json:"chart"`
	Totals calculations.ScheduleTotals `json:"totals"`
}

// Calculate приводит ввод к каноническим единицам и выполняет расчет.
// Каждый вызов создает новый результат; общего состояния нет.
func Calculate(in Input, pref units.Preference) (Result, error) {
	money := func(v float64) float64 { return units.Normalize(v, units.RoleMoney, pref) }
	rate := func(v float64) float64 { return units.Normalize(v, units.RoleRate, pref) }

	switch v := in.(type) {
	case InterestInput:
		res := calculations.SimpleInterest(money(v.Principal), rate(v.Rate), v.Months)
		return message(KindInterest, "예상 이자: %s원 · 만기 금액: %s원", format.Currency(res.Interest), format.Currency(res.Total)), nil

	case LoanInput:
		payment := calculations.InstallmentPayment(money(v.Principal), rate(v.Rate)/12, v.Months)
		return message(KindLoan, "월 상환액: %s원", format.Currency(payment)), nil

	case SavingsInput:
		value := calculations.SavingsFutureValue(money(v.Monthly), rate(v.Rate)/12, v.Months)
		return message(KindSavings, "예상 만기 금액: %s원", format.Currency(value)), nil

	case PercentInput:
		base := money(v.Base)
		value := calculations.PercentOf(base, v.Percent)
		return message(KindPercent, "%s의 %s%%는 %s입니다.", utils.FormatNumber(base), utils.FormatNumber(v.Percent), format.Currency(value)), nil

	case ExchangeInput:
		value, err := calculations.ConvertCurrency(money(v.Amount), v.Rate, v.Direction)
		if errors.Is(err, calculations.ErrInvalidRate) {
			return Result{Kind: KindExchange, Message: InvalidRateMessage}, nil
		}
		suffix := "외화"
		if v.Direction == calculations.ToLocal {
			suffix = "원"
		}
		return message(KindExchange, "환산 금액: %s%s", format.Currency(value), suffix), nil

	case CompoundInput:
		value := calculations.CompoundGrowth(money(v.Principal), money(v.Contribution), rate(v.Rate), v.Years, v.Frequency)
		return message(KindCompound, "예상 자산: %s원", format.Currency(value)), nil

	case LoanScheduleInput:
		months := int(v.Months)
		schedule := calculations.GenerateSchedule(money(v.Principal), rate(v.Rate), months, v.Method)
		return Result{
			Kind:     KindLoanSchedule,
			Message:  fmt.Sprintf("총 %d개월 상환 스케줄이 생성되었습니다.", months),
			Schedule: outcome(schedule),
		}, nil
	}

	return Result{}, fmt.Errorf("%T: %w", in, ErrUnknownKind)
}

// Breakdown строит помесячную разбивку накоплений для вклада и сложных процентов
func Breakdown(cfg calculations.ConfigInterface, in Input, pref units.Preference) (*calculations.GrowthResult, error) {
	money := func(v float64) float64 { return units.Normalize(v, units.RoleMoney, pref) }
	rate := func(v float64) float64 { return units.Normalize(v, units.RoleRate, pref) }

	switch v := in.(type) {
	case SavingsInput:
		return calculations.GrowthSchedule(cfg, 0, money(v.Monthly), rate(v.Rate)/12, int(v.Months))
	case CompoundInput:
		r := 0.0
		if annual := rate(v.Rate); annual != 0 {
			r = calculations.EffectiveMonthlyRate(annual, v.Frequency)
		}
		return calculations.GrowthSchedule(cfg, money(v.Principal), money(v.Contribution), r, int(v.Years*12))
	}
	return nil, fmt.Errorf("разбивка недоступна для %s: %w", in.Kind(), ErrUnknownKind)
}

func message(kind Kind, layout string, args ...any) Result {
	return Result{Kind: kind, Message: fmt.Sprintf(layout, args...)}
}

func outcome(schedule calculations.ScheduleResult) *ScheduleOutcome {
	n := len(schedule.Rows)
	out := &ScheduleOutcome{
		Method: schedule.Method,
		Rows:   schedule.Rows,
		Table:  make([]TableRow, 0, n),
		Chart: Chart{
			Labels:    make([]string, 0, n),
			Balance:   schedule.Chart.Balance,
			Principal: schedule.Chart.Principal,
			Interest:  schedule.Chart.Interest,
		},
		Totals: schedule.Totals,
	}
	for _, row := range schedule.Rows {
		out.Table = append(out.Table, TableRow{
			Month:     row.Month,
			Payment:   format.Currency(row.Payment),
			Principal: format.Currency(row.Principal),
			Interest:  format.Currency(row.Interest),
			Balance:   format.Currency(row.Balance),
		})
		out.Chart.Labels = append(out.Chart.Labels, fmt.Sprintf("%d회차", row.Month))
	}
	return out
}

package calculations

import "github.com/cloud-ru/moneycalc-go/pkg/utils"

// CompareMethods строит оба графика погашения и определяет более выгодный способ
func CompareMethods(principal, annualRate float64, months int) Comparison {
	payment := GenerateSchedule(principal, annualRate, months, EqualPayment)
	principalFirst := GenerateSchedule(principal, annualRate, months, EqualPrincipal)

	diff := payment.Totals.TotalInterest - principalFirst.Totals.TotalInterest

	// При нулевой ставке оба способа равны
	var cheaper Method
	switch {
	case utils.ApproxEqual(payment.Totals.TotalInterest, principalFirst.Totals.TotalInterest, scheduleTolerance):
	case diff > 0:
		cheaper = EqualPrincipal
	default:
		cheaper = EqualPayment
	}

	return Comparison{
		EqualPayment:   payment,
		EqualPrincipal: principalFirst,
		InterestDiff:   diff,
		Cheaper:        cheaper,
	}
}

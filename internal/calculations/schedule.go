package calculations

import "math"

// GenerateSchedule строит график погашения кредита.
// Входные данные должны быть проверены заранее: months >= 1, principal >= 0.
func GenerateSchedule(principal, annualRate float64, months int, method Method) ScheduleResult {
	n := months
	r := annualRate / monthsPerYear

	var monthlyPayment float64
	if r == 0 {
		monthlyPayment = principal / float64(n)
	} else if method != EqualPrincipal {
		monthlyPayment = InstallmentPayment(principal, r, float64(n))
	}

	result := ScheduleResult{
		Method: method,
		Rows:   make([]ScheduleRow, 0, n),
		Chart: ChartSeries{
			Balance:   make([]float64, 0, n),
			Principal: make([]float64, 0, n),
			Interest:  make([]float64, 0, n),
		},
	}

	balance := principal
	for m := 1; m <= n; m++ {
		interest := 0.0
		if r != 0 {
			interest = balance * r
		}

		var principalPart, payment float64
		if method == EqualPrincipal {
			principalPart = principal / float64(n)
			payment = principalPart + interest
		} else {
			// Платеж постоянный и при нулевой ставке
			payment = monthlyPayment
			principalPart = payment - interest
		}

		balance = math.Max(0, balance-principalPart)

		row := ScheduleRow{
			Month:     m,
			Payment:   payment,
			Principal: principalPart,
			Interest:  interest,
			Balance:   balance,
		}
		result.Rows = append(result.Rows, row)

		result.Totals.TotalPayment += payment
		result.Totals.TotalPrincipal += principalPart
		result.Totals.TotalInterest += interest

		result.Chart.Balance = append(result.Chart.Balance, balance)
		result.Chart.Principal = append(result.Chart.Principal, principalPart)
		result.Chart.Interest = append(result.Chart.Interest, interest)
	}

	return result
}

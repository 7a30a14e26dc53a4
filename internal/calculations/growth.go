package calculations

import (
	"fmt"
)

// ConfigInterface определяет интерфейс для получения конфигурации
type ConfigInterface interface {
	BalanceCap() float64
}

// GrowthSchedule строит помесячную разбивку накоплений: взнос вносится в начале
// месяца, затем начисляются проценты по ставке monthlyRate.
// При principal = 0 итог совпадает с SavingsFutureValue, иначе с CompoundGrowth.
func GrowthSchedule(cfg ConfigInterface, principal, contribution, monthlyRate float64, months int) (*GrowthResult, error) {
	balance := principal
	n := months

	rows := make([]GrowthRow, 0, n)
	cumI := 0.0
	cumC := 0.0

	limit := cfg.BalanceCap()

	for m := 1; m <= n; m++ {
		starting := balance

		balance += contribution
		cumC += contribution

		interest := balance * monthlyRate
		balance += interest
		cumI += interest

		if balance > limit {
			return nil, fmt.Errorf("итоговый баланс превысил верхнюю границу %.0f (проверьте ставку/срок/взносы)", limit)
		}

		rows = append(rows, GrowthRow{
			Month:                   m,
			StartingBalance:         starting,
			Contribution:            contribution,
			InterestEarned:          interest,
			EndingBalance:           balance,
			CumulativeContributions: cumC,
			CumulativeInterest:      cumI,
		})
	}

	return &GrowthResult{
		Rows:               rows,
		FinalBalance:       balance,
		TotalContributions: cumC,
		TotalInterest:      cumI,
	}, nil
}

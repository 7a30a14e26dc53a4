package calculations

// Method - способ погашения кредита
type Method string

const (
	// EqualPayment - аннуитет: одинаковый платеж каждый месяц
	EqualPayment Method = "equalPayment"
	// EqualPrincipal - дифференцированный: одинаковая часть основного долга
	EqualPrincipal Method = "equalPrincipal"
)

// Direction - направление конвертации валюты
type Direction string

const (
	// ToLocal - из иностранной валюты в воны (умножение на курс)
	ToLocal Direction = "toKrw"
	// ToForeign - из вон в иностранную валюту (деление на курс)
	ToForeign Direction = "toForeign"
)

// InterestResult - итог простых процентов
type InterestResult struct {
	Interest float64 `json:"interest"`
	Total    float64 `json:"total"`
}

// ScheduleRow представляет один период в графике платежей
type ScheduleRow struct {
	Month     int     `json:"month"`
	Payment   float64 `json:"payment"`
	Principal float64 `json:"principal"`
	Interest  float64 `json:"interest"`
	Balance   float64 `json:"balance"`
}

// ScheduleTotals - суммы по столбцам графика
type ScheduleTotals struct {
	TotalPayment   float64 `json:"totalPayment"`
	TotalPrincipal float64 `json:"totalPrincipal"`
	TotalInterest  float64 `json:"totalInterest"`
}

// ChartSeries - ряды для графика, выровненные по номеру периода
type ChartSeries struct {
	Balance   []float64 `json:"balance"`
	Principal []float64 `json:"principal"`
	Interest  []float64 `json:"interest"`
}

// ScheduleResult представляет результат генерации графика
type ScheduleResult struct {
	Method Method         `json:"method"`
	Rows   []ScheduleRow  `json:"rows"`
	Totals ScheduleTotals `json:"totals"`
	Chart  ChartSeries    `json:"chart"`
}

// GrowthRow - один месяц накопления
type GrowthRow struct {
	Month                   int     `json:"month"`
	StartingBalance         float64 `json:"startingBalance"`
	Contribution            float64 `json:"contribution"`
	InterestEarned          float64 `json:"interestEarned"`
	EndingBalance           float64 `json:"endingBalance"`
	CumulativeContributions float64 `json:"cumulativeContributions"`
	CumulativeInterest      float64 `json:"cumulativeInterest"`
}

// GrowthResult - помесячная разбивка накоплений
type GrowthResult struct {
	Rows               []GrowthRow `json:"rows"`
	FinalBalance       float64     `json:"finalBalance"`
	TotalContributions float64     `json:"totalContributions"`
	TotalInterest      float64     `json:"totalInterest"`
}

// Comparison представляет сравнение двух способов погашения
type Comparison struct {
	EqualPayment   ScheduleResult `json:"equalPayment"`
	EqualPrincipal ScheduleResult `json:"equalPrincipal"`
	InterestDiff   float64        `json:"interestDiff"`
	Cheaper        Method         `json:"cheaper,omitempty"`
}

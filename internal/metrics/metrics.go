package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Calculations счетчик расчетов по калькуляторам
	Calculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calculations_total",
			Help: "Общее количество расчетов",
		},
		[]string{"calculator", "status"},
	)

	// CalculationErrors счетчик ошибок расчетов
	CalculationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calculation_errors_total",
			Help: "Количество ошибок расчетов",
		},
		[]string{"calculator", "error_type"},
	)

	// APICalls счетчик вызовов API
	APICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_calls_total",
			Help: "Вызовы API калькуляторов",
		},
		[]string{"service", "endpoint", "status"},
	)

	// PreferenceSwitches счетчик смены настроек единиц
	PreferenceSwitches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preference_switches_total",
			Help: "Количество смен единиц ставки и суммы",
		},
		[]string{"rate_unit", "amount_unit"},
	)

	// ScheduleLength распределение длины графиков платежей в месяцах
	ScheduleLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "schedule_length_months",
			Help:    "Длина сгенерированных графиков платежей",
			Buckets: []float64{12, 24, 36, 60, 120, 240, 360, 600},
		},
	)
)

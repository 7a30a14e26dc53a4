package tools

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/cloud-ru/moneycalc-go/internal/calculations"
	"github.com/cloud-ru/moneycalc-go/internal/calculator"
	"github.com/cloud-ru/moneycalc-go/internal/config"
	"github.com/cloud-ru/moneycalc-go/internal/prefs"
	"github.com/cloud-ru/moneycalc-go/internal/units"
	"github.com/cloud-ru/moneycalc-go/internal/validators"
)

func newDeps(t *testing.T) Deps {
	t.Helper()
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	return Deps{
		Config: cfg,
		Tracer: noop.NewTracerProvider().Tracer("test"),
		Logger: zap.NewNop(),
		Store:  prefs.NewMemoryStore(),
	}
}

func TestCalculatorHandler(t *testing.T) {
	d := newDeps(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		kind      calculator.Kind
		params    map[string]interface{}
		wantError bool
		check     func(*testing.T, CalculationResponse)
	}{
		{
			name: "loan with numeric fields",
			kind: calculator.KindLoan,
			params: map[string]interface{}{
				"fields": map[string]interface{}{"loanPrincipal": 12_000_000.0, "loanRate": 0.0, "loanMonths": 12.0},
			},
			check: func(t *testing.T, resp CalculationResponse) {
				assert.Equal(t, "월 상환액: 1,000,000원", resp.Result.Message)
				assert.Equal(t, units.DefaultPreference(), resp.Preference)
				values, err := url.ParseQuery(resp.ShareQuery)
				require.NoError(t, err)
				assert.Equal(t, "12000000", values.Get("loan_loanPrincipal"))
			},
		},
		{
			name: "schedule in thousands",
			kind: calculator.KindLoanSchedule,
			params: map[string]interface{}{
				"fields":     map[string]interface{}{"principal": "12,000", "rate": "12", "months": "12", "method": "equalPrincipal"},
				"rateUnit":   "annual",
				"amountUnit": "thousand",
			},
			check: func(t *testing.T, resp CalculationResponse) {
				require.True(t, resp.Result.IsSchedule())
				assert.Equal(t, "1,120,000", resp.Result.Schedule.Table[0].Payment)
			},
		},
		{
			name: "savings breakdown",
			kind: calculator.KindSavings,
			params: map[string]interface{}{
				"fields":    map[string]interface{}{"monthly": "100000", "savingsRate": "12", "savingsMonths": "12"},
				"breakdown": true,
			},
			check: func(t *testing.T, resp CalculationResponse) {
				require.NotNil(t, resp.Breakdown)
				assert.Len(t, resp.Breakdown.Rows, 12)
				assert.InEpsilon(t, calculations.SavingsFutureValue(100_000, 0.01, 12), resp.Breakdown.FinalBalance, 1e-9)
			},
		},
		{
			name: "zero exchange rate is a message",
			kind: calculator.KindExchange,
			params: map[string]interface{}{
				"fields": map[string]interface{}{"amount": "100", "rate": "0", "direction": "toKrw"},
			},
			check: func(t *testing.T, resp CalculationResponse) {
				assert.Equal(t, calculator.InvalidRateMessage, resp.Result.Message)
			},
		},
		{
			name:      "missing fields",
			kind:      calculator.KindLoan,
			params:    map[string]interface{}{},
			wantError: true,
		},
		{
			name: "out of range months",
			kind: calculator.KindLoan,
			params: map[string]interface{}{
				"fields": map[string]interface{}{"loanPrincipal": "1000", "loanRate": "5", "loanMonths": "0"},
			},
			wantError: true,
		},
		{
			name: "unknown unit",
			kind: calculator.KindLoan,
			params: map[string]interface{}{
				"fields":   map[string]interface{}{"loanPrincipal": "1000", "loanRate": "5", "loanMonths": "10"},
				"rateUnit": "daily",
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := CalculatorHandler(d, tt.kind)(ctx, tt.params)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, out.(CalculationResponse))
		})
	}
}

func TestCalculatorHandlerValidationError(t *testing.T) {
	d := newDeps(t)
	_, err := CalculatorHandler(d, calculator.KindLoan)(context.Background(), map[string]interface{}{
		"fields": map[string]interface{}{"loanPrincipal": "-5", "loanRate": "5", "loanMonths": "10"},
	})
	assert.ErrorIs(t, err, validators.ErrInvalidInput)
}

func TestCalculatorHandlerUsesStoredPreference(t *testing.T) {
	d := newDeps(t)
	ctx := context.Background()
	thousand := units.Preference{RateUnit: units.RateAnnual, AmountUnit: units.AmountThousand}
	require.NoError(t, prefs.Save(ctx, d.Store, thousand))

	out, err := CalculatorHandler(d, calculator.KindPercent)(ctx, map[string]interface{}{
		"fields": map[string]interface{}{"base": "2", "percent": "10"},
	})
	require.NoError(t, err)
	assert.Equal(t, "2000의 10%는 200입니다.", out.(CalculationResponse).Result.Message)

	stored, err := prefs.LoadFields(ctx, d.Store, calculator.KindPercent, thousand)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"base": "2", "percent": "10"}, stored)
}

func TestRestoreHandler(t *testing.T) {
	d := newDeps(t)
	ctx := context.Background()

	first, err := CalculatorHandler(d, calculator.KindCompound)(ctx, map[string]interface{}{
		"fields": map[string]interface{}{"principal": "1000", "contribution": "100", "rate": "0.4", "years": "1", "frequency": "12"},
		"rateUnit":   "monthly",
		"amountUnit": "thousand",
	})
	require.NoError(t, err)
	resp := first.(CalculationResponse)

	restored, err := RestoreHandler(d, calculator.KindCompound)(ctx, map[string]interface{}{"query": resp.ShareQuery})
	require.NoError(t, err)
	assert.Equal(t, resp.Result, restored.(CalculationResponse).Result)
	assert.Equal(t, resp.Preference, restored.(CalculationResponse).Preference)

	_, err = RestoreHandler(d, calculator.KindCompound)(ctx, map[string]interface{}{})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestCompareHandler(t *testing.T) {
	d := newDeps(t)
	out, err := CompareHandler(d)(context.Background(), map[string]interface{}{
		"fields": map[string]interface{}{"principal": "100,000,000", "rate": "5", "months": "120"},
	})
	require.NoError(t, err)

	comparison := out.(calculations.Comparison)
	assert.Equal(t, calculations.EqualPrincipal, comparison.Cheaper)
	assert.Len(t, comparison.EqualPayment.Rows, 120)
}

func TestPreferenceHandler(t *testing.T) {
	d := newDeps(t)
	ctx := context.Background()
	handler := PreferenceHandler(d)

	out, err := handler(ctx, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, units.DefaultPreference(), out.(PreferenceResponse).Preference)

	require.NoError(t, prefs.SaveFields(ctx, d.Store, calculator.KindInterest, map[string]string{
		"principal": "5000000", "rate": "3.6", "months": "12",
	}, units.DefaultPreference()))

	out, err = handler(ctx, map[string]interface{}{"rateUnit": "monthly"})
	require.NoError(t, err)
	assert.Equal(t, units.Preference{RateUnit: units.RateMonthly, AmountUnit: units.AmountFull}, out.(PreferenceResponse).Preference)

	monthly := units.Preference{RateUnit: units.RateMonthly, AmountUnit: units.AmountFull}
	stored, err := prefs.LoadFields(ctx, d.Store, calculator.KindInterest, monthly)
	require.NoError(t, err)
	assert.Equal(t, "0.3", stored["rate"])
	assert.Equal(t, "5000000", stored["principal"])

	_, err = handler(ctx, map[string]interface{}{"amountUnit": "usd"})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestRegistry(t *testing.T) {
	handlers := Registry(newDeps(t))
	for _, kind := range calculator.Kinds() {
		assert.Contains(t, handlers, string(kind))
		assert.Contains(t, handlers, string(kind)+"_restore")
	}
	assert.Contains(t, handlers, "compare")
	assert.Contains(t, handlers, "preference")
	assert.Contains(t, handlers, "share")
}

func TestRequestUnitsDifferFromStored(t *testing.T) {
	d := newDeps(t)
	ctx := context.Background()

	// Сохранены воны, запрос пришел в тысячах: 12000천원 = 12,000,000원
	out, err := CalculatorHandler(d, calculator.KindLoan)(ctx, map[string]interface{}{
		"fields":     map[string]interface{}{"loanPrincipal": "12000", "loanRate": "6", "loanMonths": "24"},
		"rateUnit":   "annual",
		"amountUnit": "thousand",
	})
	require.NoError(t, err)
	assert.Equal(t, units.AmountThousand, out.(CalculationResponse).Preference.AmountUnit)

	inKrw, err := prefs.LoadFields(ctx, d.Store, calculator.KindLoan, units.DefaultPreference())
	require.NoError(t, err)
	assert.Equal(t, "12000000", inKrw["loanPrincipal"])

	thousand := units.Preference{RateUnit: units.RateAnnual, AmountUnit: units.AmountThousand}
	_, err = PreferenceHandler(d)(ctx, map[string]interface{}{"amountUnit": "thousand"})
	require.NoError(t, err)

	inThousand, err := prefs.LoadFields(ctx, d.Store, calculator.KindLoan, thousand)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"loanPrincipal": "12000", "loanRate": "6", "loanMonths": "24"}, inThousand)
}

func TestRestoreHandlerValidatesLink(t *testing.T) {
	d := newDeps(t)
	_, err := RestoreHandler(d, calculator.KindLoan)(context.Background(), map[string]interface{}{
		"query": "loan_loanPrincipal=1000&loan_loanRate=5&loan_loanMonths=0",
	})
	assert.ErrorIs(t, err, validators.ErrInvalidInput)

	_, err = RestoreHandler(d, calculator.KindLoan)(context.Background(), map[string]interface{}{
		"query": "loan_loanPrincipal=1000&rateUnit=daily",
	})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestShareHandler(t *testing.T) {
	d := newDeps(t)
	ctx := context.Background()

	out, err := ShareHandler(d)(ctx, map[string]interface{}{
		"query": "percent_base=200&percent_percent=10&savings_monthly=1000&savings_savingsRate=0&savings_savingsMonths=10",
	})
	require.NoError(t, err)

	results := out.(ShareResponse).Results
	require.Len(t, results, 2)
	assert.Equal(t, "200의 10%는 20입니다.", results[calculator.KindPercent].Result.Message)
	assert.Equal(t, "예상 만기 금액: 10,000원", results[calculator.KindSavings].Result.Message)

	stored, err := prefs.LoadFields(ctx, d.Store, calculator.KindSavings, units.DefaultPreference())
	require.NoError(t, err)
	assert.Equal(t, "1000", stored["monthly"])

	_, err = ShareHandler(d)(ctx, map[string]interface{}{"query": "rateUnit=annual"})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

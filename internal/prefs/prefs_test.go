package prefs

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cloud-ru/moneycalc-go/internal/calculator"
	"github.com/cloud-ru/moneycalc-go/internal/units"
)

func TestLoadDefaults(t *testing.T) {
	pref, err := Load(context.Background(), NewMemoryStore())
	require.NoError(t, err)
	assert.Equal(t, units.DefaultPreference(), pref)
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	want := units.Preference{RateUnit: units.RateMonthly, AmountUnit: units.AmountThousand}

	require.NoError(t, Save(ctx, store, want))
	got, err := Load(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	raw, ok, err := store.Get(ctx, "amountUnit")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "thousand", raw)
}

func TestLoadRejectsCorruptValue(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, RateUnitKey, "fortnightly"))

	_, err := Load(ctx, store)
	assert.ErrorIs(t, err, units.ErrUnknownUnit)
}

func TestSwitchRewritesStoredFields(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, SaveFields(ctx, store, calculator.KindLoan, map[string]string{
		"loanPrincipal": "12,000,000",
		"loanRate":      "6",
		"loanMonths":    "24",
	}, units.DefaultPreference()))
	require.NoError(t, SaveFields(ctx, store, calculator.KindExchange, map[string]string{
		"amount":    "abc",
		"rate":      "1350",
		"direction": "toKrw",
	}, units.DefaultPreference()))

	next := units.Preference{RateUnit: units.RateMonthly, AmountUnit: units.AmountThousand}
	got, err := Switch(ctx, zap.NewNop(), store, next)
	require.NoError(t, err)
	assert.Equal(t, next, got)

	loan, err := LoadFields(ctx, store, calculator.KindLoan, next)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"loanPrincipal": "12000", "loanRate": "0.5", "loanMonths": "24"}, loan)

	stored, _, err := store.Get(ctx, "loan_loanPrincipal")
	require.NoError(t, err)
	assert.Equal(t, "thousand|12000", stored)

	exchange, err := LoadFields(ctx, store, calculator.KindExchange, next)
	require.NoError(t, err)
	assert.Equal(t, "abc", exchange["amount"])
	assert.Equal(t, "1350", exchange["rate"])

	// Повторное переключение на те же настройки ничего не меняет
	_, err = Switch(ctx, nil, store, next)
	require.NoError(t, err)
	again, err := LoadFields(ctx, store, calculator.KindLoan, next)
	require.NoError(t, err)
	assert.Equal(t, loan, again)

	// Обратное переключение возвращает исходный смысл
	_, err = Switch(ctx, nil, store, units.DefaultPreference())
	require.NoError(t, err)
	back, err := LoadFields(ctx, store, calculator.KindLoan, units.DefaultPreference())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"loanPrincipal": "12000000", "loanRate": "6", "loanMonths": "24"}, back)
}

type failingStore struct{ *MemoryStore }

func (f *failingStore) Set(context.Context, string, string) error {
	return errors.New("store unavailable")
}

func TestSwitchPropagatesStoreErrors(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore()}
	_, err := Switch(context.Background(), nil, store, units.Preference{RateUnit: units.RateMonthly, AmountUnit: units.AmountFull})
	assert.Error(t, err)
}

// barrierStore задерживает первые n чтений настроек, пока их не сделают все
// участники, чтобы переключения гарантированно пересеклись
type barrierStore struct {
	*MemoryStore
	reads atomic.Int32
	n     int32
	wg    sync.WaitGroup
}

func newBarrierStore(n int) *barrierStore {
	b := &barrierStore{MemoryStore: NewMemoryStore(), n: int32(n)}
	b.wg.Add(n)
	return b
}

func (b *barrierStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := b.MemoryStore.Get(ctx, key)
	if key == AmountUnitKey && b.reads.Add(1) <= b.n {
		b.wg.Done()
		b.wg.Wait()
	}
	return v, ok, err
}

func TestSwitchConcurrentCallsConvertOnce(t *testing.T) {
	ctx := context.Background()
	store := newBarrierStore(2)
	require.NoError(t, SaveFields(ctx, store, calculator.KindLoan, map[string]string{
		"loanPrincipal": "12000000",
		"loanRate":      "6",
		"loanMonths":    "24",
	}, units.DefaultPreference()))

	next := units.Preference{RateUnit: units.RateMonthly, AmountUnit: units.AmountThousand}
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := Switch(ctx, nil, store, next)
			errs <- err
		}()
	}
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)

	loan, err := LoadFields(ctx, store, calculator.KindLoan, next)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"loanPrincipal": "12000", "loanRate": "0.5", "loanMonths": "24"}, loan)
}

// flakyStore отказывает в записи ключей с префиксом, пока down = true
type flakyStore struct {
	*MemoryStore
	prefix string
	down   bool
}

func (f *flakyStore) Set(ctx context.Context, key, value string) error {
	if f.down && strings.HasPrefix(key, f.prefix) {
		return errors.New("down")
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func TestSwitchRetryAfterPartialFailure(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{MemoryStore: NewMemoryStore(), prefix: "loanSchedule_"}
	require.NoError(t, SaveFields(ctx, store, calculator.KindLoan, map[string]string{
		"loanPrincipal": "12000000",
		"loanRate":      "6",
		"loanMonths":    "24",
	}, units.DefaultPreference()))
	require.NoError(t, SaveFields(ctx, store, calculator.KindLoanSchedule, map[string]string{
		"principal": "50000000",
		"rate":      "4.8",
		"months":    "36",
		"method":    "equalPrincipal",
	}, units.DefaultPreference()))

	next := units.Preference{RateUnit: units.RateMonthly, AmountUnit: units.AmountThousand}
	store.down = true
	_, err := Switch(ctx, nil, store, next)
	require.Error(t, err)

	pref, err := Load(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, units.DefaultPreference(), pref)

	store.down = false
	_, err = Switch(ctx, nil, store, next)
	require.NoError(t, err)

	loan, err := LoadFields(ctx, store, calculator.KindLoan, next)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"loanPrincipal": "12000", "loanRate": "0.5", "loanMonths": "24"}, loan)

	schedule, err := LoadFields(ctx, store, calculator.KindLoanSchedule, next)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"principal": "50000", "rate": "0.4", "months": "36", "method": "equalPrincipal"}, schedule)
}

func TestLoadFieldsConvertsFromSavedUnits(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	// Поля записаны в тысячах, хотя сохраненные настройки - воны
	thousand := units.Preference{RateUnit: units.RateAnnual, AmountUnit: units.AmountThousand}
	require.NoError(t, SaveFields(ctx, store, calculator.KindLoan, map[string]string{
		"loanPrincipal": "12000", "loanRate": "6", "loanMonths": "24",
	}, thousand))

	loan, err := LoadFields(ctx, store, calculator.KindLoan, units.DefaultPreference())
	require.NoError(t, err)
	assert.Equal(t, "12000000", loan["loanPrincipal"])

	_, err = Switch(ctx, nil, store, thousand)
	require.NoError(t, err)
	loan, err = LoadFields(ctx, store, calculator.KindLoan, thousand)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"loanPrincipal": "12000", "loanRate": "6", "loanMonths": "24"}, loan)
}

func TestLoadFieldsUntaggedValue(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, Save(ctx, store, units.Preference{RateUnit: units.RateAnnual, AmountUnit: units.AmountThousand}))
	require.NoError(t, store.Set(ctx, "percent_base", "7"))

	raw, err := LoadFields(ctx, store, calculator.KindPercent, units.DefaultPreference())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"base": "7000"}, raw)
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", "v1"))
	require.NoError(t, store.Set(ctx, "k", "v2"))
	v, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", v)

	pref := units.Preference{RateUnit: units.RateMonthly, AmountUnit: units.AmountFull}
	require.NoError(t, Save(ctx, store, pref))
	loaded, err := Load(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, pref, loaded)
}

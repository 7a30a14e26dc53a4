package prefs

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cloud-ru/moneycalc-go/internal/calculator"
	"github.com/cloud-ru/moneycalc-go/internal/sharestate"
	"github.com/cloud-ru/moneycalc-go/internal/units"
)

const (
	RateUnitKey   = "rateUnit"
	AmountUnitKey = "amountUnit"
)

// Load читает настройки единиц; отсутствующие ключи дают значения по умолчанию
func Load(ctx context.Context, store Store) (units.Preference, error) {
	rate, _, err := store.Get(ctx, RateUnitKey)
	if err != nil {
		return units.Preference{}, err
	}
	amount, _, err := store.Get(ctx, AmountUnitKey)
	if err != nil {
		return units.Preference{}, err
	}
	return units.ParsePreference(rate, amount)
}

// Save записывает настройки единиц
func Save(ctx context.Context, store Store, pref units.Preference) error {
	if err := store.Set(ctx, RateUnitKey, string(pref.RateUnit)); err != nil {
		return err
	}
	return store.Set(ctx, AmountUnitKey, string(pref.AmountUnit))
}

// unitSep отделяет единицу от значения в сохраненном поле: "thousand|12000"
const unitSep = "|"

// fieldUnit возвращает единицу, в которой задано поле при настройках pref.
// У полей без пересчета единицы нет.
func fieldUnit(f calculator.Field, pref units.Preference) string {
	if f.Choice {
		return ""
	}
	switch f.Role {
	case units.RoleMoney:
		return string(pref.AmountUnit)
	case units.RoleRate:
		return string(pref.RateUnit)
	}
	return ""
}

func encodeField(f calculator.Field, value string, pref units.Preference) string {
	if unit := fieldUnit(f, pref); unit != "" {
		return unit + unitSep + value
	}
	return value
}

// decodeField отделяет значение от единицы. Значение без единицы считается
// введенным при настройках fallback.
func decodeField(f calculator.Field, stored string, fallback units.Preference) (string, units.Preference) {
	unit, value, ok := strings.Cut(stored, unitSep)
	if !ok || unit == "" || fieldUnit(f, fallback) == "" {
		return stored, fallback
	}
	from := fallback
	switch f.Role {
	case units.RoleMoney:
		u, err := units.ParseAmountUnit(unit)
		if err != nil {
			return stored, fallback
		}
		from.AmountUnit = u
	case units.RoleRate:
		u, err := units.ParseRateUnit(unit)
		if err != nil {
			return stored, fallback
		}
		from.RateUnit = u
	}
	return value, from
}

func convertField(kind calculator.Kind, f calculator.Field, value string, from, to units.Preference) (string, error) {
	out, err := calculator.ConvertFields(kind, map[string]string{f.Name: value}, from, to)
	if err != nil {
		return "", err
	}
	return out[f.Name], nil
}

// LoadFields читает сохраненные поля калькулятора и выражает их в единицах pref.
// Каждое поле хранится вместе со своей единицей, поэтому результат не зависит
// от того, при каких настройках поле было записано.
func LoadFields(ctx context.Context, store Store, kind calculator.Kind, pref units.Preference) (map[string]string, error) {
	fields, err := calculator.Schema(kind)
	if err != nil {
		return nil, err
	}
	current, err := Load(ctx, store)
	if err != nil {
		return nil, err
	}
	raw := make(map[string]string, len(fields))
	for _, f := range fields {
		stored, ok, err := store.Get(ctx, sharestate.Key(kind, f.Name))
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		value, from := decodeField(f, stored, current)
		if raw[f.Name], err = convertField(kind, f, value, from, pref); err != nil {
			return nil, err
		}
	}
	return raw, nil
}

// SaveFields сохраняет поля калькулятора, введенные при настройках pref
func SaveFields(ctx context.Context, store Store, kind calculator.Kind, raw map[string]string, pref units.Preference) error {
	fields, err := calculator.Schema(kind)
	if err != nil {
		return err
	}
	for _, f := range fields {
		v, ok := raw[f.Name]
		if !ok {
			continue
		}
		if err := store.Set(ctx, sharestate.Key(kind, f.Name), encodeField(f, v, pref)); err != nil {
			return err
		}
	}
	return nil
}

// Switch меняет настройки единиц и переписывает сохраненные поля всех
// калькуляторов так, чтобы их смысл не изменился. Поле пересчитывается из той
// единицы, с которой оно записано, поэтому повтор после сбоя и одновременные
// переключения не пересчитывают его дважды.
func Switch(ctx context.Context, logger *zap.Logger, store Store, next units.Preference) (units.Preference, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	current, err := Load(ctx, store)
	if err != nil {
		return units.Preference{}, fmt.Errorf("failed to load preference: %w", err)
	}
	if current == next {
		return current, nil
	}

	for _, kind := range calculator.Kinds() {
		converted, err := switchFields(ctx, store, kind, current, next)
		if err != nil {
			return units.Preference{}, fmt.Errorf("failed to convert %s fields: %w", kind, err)
		}
		if converted > 0 {
			logger.Debug("converted stored fields",
				zap.String("calculator", string(kind)),
				zap.Int("fields", converted))
		}
	}

	if err := Save(ctx, store, next); err != nil {
		return units.Preference{}, fmt.Errorf("failed to save preference: %w", err)
	}
	logger.Info("unit preference switched",
		zap.String("from_rate_unit", string(current.RateUnit)),
		zap.String("from_amount_unit", string(current.AmountUnit)),
		zap.String("rate_unit", string(next.RateUnit)),
		zap.String("amount_unit", string(next.AmountUnit)))
	return next, nil
}

// switchFields переводит поля калькулятора kind в единицы next и возвращает
// число переписанных полей. Поля, уже записанные в next, не трогаются.
func switchFields(ctx context.Context, store Store, kind calculator.Kind, current, next units.Preference) (int, error) {
	fields, err := calculator.Schema(kind)
	if err != nil {
		return 0, err
	}
	converted := 0
	for _, f := range fields {
		key := sharestate.Key(kind, f.Name)
		stored, ok, err := store.Get(ctx, key)
		if err != nil {
			return converted, err
		}
		if !ok {
			continue
		}
		value, from := decodeField(f, stored, current)
		if fieldUnit(f, from) == fieldUnit(f, next) {
			continue
		}
		value, err = convertField(kind, f, value, from, next)
		if err != nil {
			return converted, err
		}
		if err := store.Set(ctx, key, encodeField(f, value, next)); err != nil {
			return converted, err
		}
		converted++
	}
	return converted, nil
}

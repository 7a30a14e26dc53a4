// Package sharestate сохраняет ввод калькулятора и настройки единиц в параметрах
// URL и восстанавливает из них тот же результат.
package sharestate

import (
	"fmt"
	"net/url"

	"github.com/cloud-ru/moneycalc-go/internal/calculator"
	"github.com/cloud-ru/moneycalc-go/internal/units"
)

const (
	rateUnitKey   = "rateUnit"
	amountUnitKey = "amountUnit"
)

// Key возвращает имя параметра для поля калькулятора: {kind}_{field}
func Key(kind calculator.Kind, field string) string {
	return string(kind) + "_" + field
}

// Encode добавляет поля калькулятора и настройки единиц в values.
// Если values = nil, создается новый набор параметров.
func Encode(values url.Values, kind calculator.Kind, raw map[string]string, pref units.Preference) (url.Values, error) {
	fields, err := calculator.Schema(kind)
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = url.Values{}
	}
	for _, f := range fields {
		if v, ok := raw[f.Name]; ok {
			values.Set(Key(kind, f.Name), v)
		}
	}
	values.Set(rateUnitKey, string(pref.RateUnit))
	values.Set(amountUnitKey, string(pref.AmountUnit))
	return values, nil
}

// Decode извлекает поля калькулятора и настройки единиц из параметров URL
func Decode(values url.Values, kind calculator.Kind) (map[string]string, units.Preference, error) {
	fields, err := calculator.Schema(kind)
	if err != nil {
		return nil, units.Preference{}, err
	}
	pref, err := units.ParsePreference(values.Get(rateUnitKey), values.Get(amountUnitKey))
	if err != nil {
		return nil, units.Preference{}, fmt.Errorf("параметры ссылки: %w", err)
	}

	raw := make(map[string]string, len(fields))
	for _, f := range fields {
		key := Key(kind, f.Name)
		if values.Has(key) {
			raw[f.Name] = values.Get(key)
		}
	}
	return raw, pref, nil
}

// Check проверяет ввод перед расчетом
type Check func(in calculator.Input, pref units.Preference) error

// Restored - расчет, восстановленный из параметров URL
type Restored struct {
	Kind       calculator.Kind
	Raw        map[string]string
	Preference units.Preference
	Result     calculator.Result
}

// Restore восстанавливает расчет из параметров URL. check вызывается перед
// расчетом, если задан.
func Restore(values url.Values, kind calculator.Kind, check Check) (Restored, error) {
	raw, pref, err := Decode(values, kind)
	if err != nil {
		return Restored{}, err
	}
	in, err := calculator.Parse(kind, raw)
	if err != nil {
		return Restored{}, err
	}
	if check != nil {
		if err := check(in, pref); err != nil {
			return Restored{}, err
		}
	}
	result, err := calculator.Calculate(in, pref)
	if err != nil {
		return Restored{}, err
	}
	return Restored{Kind: kind, Raw: raw, Preference: pref, Result: result}, nil
}

// Kinds возвращает калькуляторы, поля которых присутствуют в параметрах
func Kinds(values url.Values) []calculator.Kind {
	var found []calculator.Kind
	for _, kind := range calculator.Kinds() {
		fields, _ := calculator.Schema(kind)
		for _, f := range fields {
			if values.Has(Key(kind, f.Name)) {
				found = append(found, kind)
				break
			}
		}
	}
	return found
}

package calculator

import (
	"math"

	"github.com/cloud-ru/moneycalc-go/internal/units"
	"github.com/cloud-ru/moneycalc-go/pkg/utils"
)

// ConvertFields переписывает сохраненные значения полей при смене настроек
// единиц. Поля, которые не удалось разобрать, остаются как были.
func ConvertFields(kind Kind, raw map[string]string, from, to units.Preference) (map[string]string, error) {
	fields, err := Schema(kind)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	if from == to {
		return out, nil
	}

	for _, field := range fields {
		if field.Choice || field.Role == units.RolePlain {
			continue
		}
		text, ok := raw[field.Name]
		if !ok {
			continue
		}
		converted := units.ConvertStored(utils.ParseNumber(text), field.Role, from, to)
		if math.IsNaN(converted) {
			continue
		}
		out[field.Name] = utils.FormatNumber(converted)
	}
	return out, nil
}

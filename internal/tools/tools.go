package tools

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cloud-ru/moneycalc-go/internal/calculations"
	"github.com/cloud-ru/moneycalc-go/internal/calculator"
	"github.com/cloud-ru/moneycalc-go/internal/config"
	"github.com/cloud-ru/moneycalc-go/internal/metrics"
	"github.com/cloud-ru/moneycalc-go/internal/prefs"
	"github.com/cloud-ru/moneycalc-go/internal/sharestate"
	"github.com/cloud-ru/moneycalc-go/internal/units"
	"github.com/cloud-ru/moneycalc-go/internal/validators"
	"github.com/cloud-ru/moneycalc-go/pkg/utils"
)

// ToolHandler обрабатывает вызов инструмента
type ToolHandler func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// ErrInvalidParams - параметры вызова имеют неверный тип или значение
var ErrInvalidParams = errors.New("invalid parameter")

// Deps - зависимости обработчиков
type Deps struct {
	Config *config.Config
	Tracer trace.Tracer
	Logger *zap.Logger
	Store  prefs.Store
}

// CalculationResponse - ответ калькулятора
type CalculationResponse struct {
	Result     calculator.Result          `json:"result"`
	Preference units.Preference           `json:"preference"`
	ShareQuery string                     `json:"shareQuery"`
	Breakdown  *calculations.GrowthResult `json:"breakdown,omitempty"`
}

// PreferenceResponse - текущие настройки единиц
type PreferenceResponse struct {
	Preference units.Preference `json:"preference"`
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// fail отмечает ошибку в спане, метриках и логе
func (d Deps) fail(span trace.Span, toolName, errorType string, err error) error {
	span.SetAttributes(attribute.String("error", errorType))
	metrics.Calculations.WithLabelValues(toolName, errorType).Inc()
	metrics.CalculationErrors.WithLabelValues(toolName, errorType).Inc()
	metrics.APICalls.WithLabelValues("api", toolName, "error").Inc()
	d.logger().Warn("tool call failed",
		zap.String("tool", toolName),
		zap.String("error_type", errorType),
		zap.Error(err))
	return err
}

func (d Deps) succeed(span trace.Span, toolName string) {
	span.SetAttributes(attribute.Bool("success", true))
	metrics.Calculations.WithLabelValues(toolName, "success").Inc()
	metrics.APICalls.WithLabelValues("api", toolName, "success").Inc()
}

// preference берет единицы из параметров или, если их нет, из хранилища
func (d Deps) preference(ctx context.Context, params map[string]interface{}) (units.Preference, error) {
	rate, hasRate := params["rateUnit"].(string)
	amount, hasAmount := params["amountUnit"].(string)
	if !hasRate && !hasAmount && d.Store != nil {
		return prefs.Load(ctx, d.Store)
	}
	return units.ParsePreference(rate, amount)
}

// rawFields приводит значения полей к строкам, как они были бы введены в форму
func rawFields(params map[string]interface{}) (map[string]string, error) {
	fields, ok := params["fields"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: fields", ErrInvalidParams)
	}
	raw := make(map[string]string, len(fields))
	for name, value := range fields {
		switch v := value.(type) {
		case string:
			raw[name] = v
		case float64:
			raw[name] = utils.FormatNumber(v)
		case int:
			raw[name] = utils.FormatNumber(float64(v))
		default:
			return nil, fmt.Errorf("%w: fields.%s", ErrInvalidParams, name)
		}
	}
	return raw, nil
}

// CalculatorHandler обрабатывает запрос к калькулятору kind
func CalculatorHandler(d Deps, kind calculator.Kind) ToolHandler {
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		toolName := string(kind)

		ctx, span := d.Tracer.Start(ctx, toolName)
		defer span.End()

		metrics.APICalls.WithLabelValues("api", toolName, "started").Inc()

		raw, err := rawFields(params)
		if err != nil {
			return nil, d.fail(span, toolName, "validation_error", err)
		}
		pref, err := d.preference(ctx, params)
		if err != nil {
			return nil, d.fail(span, toolName, "validation_error", fmt.Errorf("%w: %w", ErrInvalidParams, err))
		}

		span.SetAttributes(
			attribute.String("rate_unit", string(pref.RateUnit)),
			attribute.String("amount_unit", string(pref.AmountUnit)),
		)
		for name, value := range raw {
			span.SetAttributes(attribute.String("field."+name, value))
		}

		in, err := calculator.Parse(kind, raw)
		if err != nil {
			return nil, d.fail(span, toolName, "validation_error", fmt.Errorf("%w: %w", ErrInvalidParams, err))
		}
		if err := d.check(in, pref); err != nil {
			return nil, d.fail(span, toolName, "validation_error", err)
		}

		result, err := calculator.Calculate(in, pref)
		if err != nil {
			return nil, d.fail(span, toolName, "calculation_error", fmt.Errorf("ошибка при выполнении расчета: %w", err))
		}

		var growth *calculations.GrowthResult
		if breakdown, _ := params["breakdown"].(bool); breakdown {
			growth, err = calculator.Breakdown(d.Config, in, pref)
			if err != nil {
				return nil, d.fail(span, toolName, "calculation_error", fmt.Errorf("ошибка при выполнении расчета: %w", err))
			}
		}

		resp, err := d.respond(ctx, span, kind, raw, pref, result)
		if err != nil {
			return nil, d.fail(span, toolName, "calculation_error", err)
		}
		resp.Breakdown = growth

		d.succeed(span, toolName)
		d.logger().Debug("calculation done", zap.String("calculator", toolName), zap.String("message", result.Message))
		return resp, nil
	}
}

// respond собирает ответ: ссылку, сохраненный ввод и метрики графика
func (d Deps) respond(ctx context.Context, span trace.Span, kind calculator.Kind, raw map[string]string, pref units.Preference, result calculator.Result) (CalculationResponse, error) {
	values, err := sharestate.Encode(nil, kind, raw, pref)
	if err != nil {
		return CalculationResponse{}, err
	}
	resp := CalculationResponse{Result: result, Preference: pref, ShareQuery: values.Encode()}

	if d.Store != nil {
		// Поля сохраняются в тех единицах, в которых введены
		if err := prefs.SaveFields(ctx, d.Store, kind, raw, pref); err != nil {
			// Ввод не сохранился, но результат уже готов
			d.logger().Warn("failed to persist fields", zap.String("calculator", string(kind)), zap.Error(err))
		}
	}

	if result.IsSchedule() {
		metrics.ScheduleLength.Observe(float64(len(result.Schedule.Rows)))
		span.SetAttributes(
			attribute.Int("schedule_rows", len(result.Schedule.Rows)),
			attribute.Float64("total_interest", result.Schedule.Totals.TotalInterest),
		)
	}
	return resp, nil
}

func (d Deps) check(in calculator.Input, pref units.Preference) error {
	return validators.CheckInput(d.Config, in, pref)
}

// restoreError отличает неверный ввод по ссылке от испорченной ссылки
func restoreError(err error) error {
	if errors.Is(err, validators.ErrInvalidInput) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInvalidParams, err)
}

func parseQuery(params map[string]interface{}) (url.Values, error) {
	query, ok := params["query"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: query", ErrInvalidParams)
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", ErrInvalidParams, err)
	}
	return values, nil
}

// RestoreHandler восстанавливает расчет из строки запроса ссылки
func RestoreHandler(d Deps, kind calculator.Kind) ToolHandler {
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		toolName := string(kind) + "_restore"

		ctx, span := d.Tracer.Start(ctx, toolName)
		defer span.End()

		metrics.APICalls.WithLabelValues("api", toolName, "started").Inc()

		values, err := parseQuery(params)
		if err != nil {
			return nil, d.fail(span, toolName, "validation_error", err)
		}
		restored, err := sharestate.Restore(values, kind, d.check)
		if err != nil {
			return nil, d.fail(span, toolName, "validation_error", restoreError(err))
		}

		resp, err := d.respond(ctx, span, kind, restored.Raw, restored.Preference, restored.Result)
		if err != nil {
			return nil, d.fail(span, toolName, "restore_error", err)
		}

		d.succeed(span, toolName)
		return resp, nil
	}
}

// ShareResponse - все расчеты, найденные в ссылке
type ShareResponse struct {
	Results map[calculator.Kind]CalculationResponse `json:"results"`
}

// ShareHandler восстанавливает все калькуляторы, поля которых есть в ссылке
func ShareHandler(d Deps) ToolHandler {
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		toolName := "share_restore"

		ctx, span := d.Tracer.Start(ctx, toolName)
		defer span.End()

		metrics.APICalls.WithLabelValues("api", toolName, "started").Inc()

		values, err := parseQuery(params)
		if err != nil {
			return nil, d.fail(span, toolName, "validation_error", err)
		}
		kinds := sharestate.Kinds(values)
		if len(kinds) == 0 {
			return nil, d.fail(span, toolName, "validation_error", fmt.Errorf("%w: в ссылке нет полей калькуляторов", ErrInvalidParams))
		}

		out := ShareResponse{Results: make(map[calculator.Kind]CalculationResponse, len(kinds))}
		for _, kind := range kinds {
			restored, err := sharestate.Restore(values, kind, d.check)
			if err != nil {
				return nil, d.fail(span, toolName, "validation_error", fmt.Errorf("%s: %w", kind, restoreError(err)))
			}
			resp, err := d.respond(ctx, span, kind, restored.Raw, restored.Preference, restored.Result)
			if err != nil {
				return nil, d.fail(span, toolName, "restore_error", err)
			}
			out.Results[kind] = resp
		}
		span.SetAttributes(attribute.Int("calculators", len(kinds)))

		d.succeed(span, toolName)
		return out, nil
	}
}

// CompareHandler сравнивает аннуитетный и дифференцированный графики
func CompareHandler(d Deps) ToolHandler {
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		toolName := "compare_methods"

		ctx, span := d.Tracer.Start(ctx, toolName)
		defer span.End()

		metrics.APICalls.WithLabelValues("api", toolName, "started").Inc()

		raw, err := rawFields(params)
		if err != nil {
			return nil, d.fail(span, toolName, "validation_error", err)
		}
		pref, err := d.preference(ctx, params)
		if err != nil {
			return nil, d.fail(span, toolName, "validation_error", fmt.Errorf("%w: %w", ErrInvalidParams, err))
		}
		in, err := calculator.Parse(calculator.KindLoanSchedule, raw)
		if err != nil {
			return nil, d.fail(span, toolName, "validation_error", fmt.Errorf("%w: %w", ErrInvalidParams, err))
		}
		if err := validators.CheckInput(d.Config, in, pref); err != nil {
			return nil, d.fail(span, toolName, "validation_error", err)
		}

		v := in.(calculator.LoanScheduleInput)
		principal := units.Normalize(v.Principal, units.RoleMoney, pref)
		rate := units.Normalize(v.Rate, units.RoleRate, pref)

		span.SetAttributes(
			attribute.Float64("principal", principal),
			attribute.Float64("annual_rate", rate),
			attribute.Int("months", int(v.Months)),
		)

		comparison := calculations.CompareMethods(principal, rate, int(v.Months))

		d.succeed(span, toolName)
		return comparison, nil
	}
}

// PreferenceHandler меняет настройки единиц и пересчитывает сохраненные поля.
// Без параметров возвращает текущие настройки.
func PreferenceHandler(d Deps) ToolHandler {
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		toolName := "preference"

		ctx, span := d.Tracer.Start(ctx, toolName)
		defer span.End()

		metrics.APICalls.WithLabelValues("api", toolName, "started").Inc()

		if d.Store == nil {
			return nil, d.fail(span, toolName, "store_error", errors.New("хранилище настроек не настроено"))
		}

		_, hasRate := params["rateUnit"]
		_, hasAmount := params["amountUnit"]
		if !hasRate && !hasAmount {
			pref, err := prefs.Load(ctx, d.Store)
			if err != nil {
				return nil, d.fail(span, toolName, "store_error", err)
			}
			d.succeed(span, toolName)
			return PreferenceResponse{Preference: pref}, nil
		}

		current, err := prefs.Load(ctx, d.Store)
		if err != nil {
			return nil, d.fail(span, toolName, "store_error", err)
		}
		rate, _ := params["rateUnit"].(string)
		amount, _ := params["amountUnit"].(string)
		if rate == "" {
			rate = string(current.RateUnit)
		}
		if amount == "" {
			amount = string(current.AmountUnit)
		}
		next, err := units.ParsePreference(rate, amount)
		if err != nil {
			return nil, d.fail(span, toolName, "validation_error", fmt.Errorf("%w: %w", ErrInvalidParams, err))
		}

		span.SetAttributes(
			attribute.String("rate_unit", string(next.RateUnit)),
			attribute.String("amount_unit", string(next.AmountUnit)),
		)

		pref, err := prefs.Switch(ctx, d.logger(), d.Store, next)
		if err != nil {
			return nil, d.fail(span, toolName, "store_error", err)
		}
		if pref != current {
			metrics.PreferenceSwitches.WithLabelValues(string(pref.RateUnit), string(pref.AmountUnit)).Inc()
		}

		d.succeed(span, toolName)
		return PreferenceResponse{Preference: pref}, nil
	}
}

// Registry возвращает обработчики всех инструментов по именам
func Registry(d Deps) map[string]ToolHandler {
	handlers := map[string]ToolHandler{
		"compare":    CompareHandler(d),
		"preference": PreferenceHandler(d),
		"share":      ShareHandler(d),
	}
	for _, kind := range calculator.Kinds() {
		handlers[string(kind)] = CalculatorHandler(d, kind)
		handlers[string(kind)+"_restore"] = RestoreHandler(d, kind)
	}
	return handlers
}

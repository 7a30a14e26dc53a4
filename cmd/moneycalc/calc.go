package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/cloud-ru/moneycalc-go/internal/calculations"
	"github.com/cloud-ru/moneycalc-go/internal/calculator"
	"github.com/cloud-ru/moneycalc-go/internal/format"
	"github.com/cloud-ru/moneycalc-go/internal/tools"
)

// newDeps собирает зависимости инструментов для одной команды CLI
func newDeps(ctx context.Context) (tools.Deps, func() error, error) {
	store, closeStore, err := openStore(ctx)
	if err != nil {
		return tools.Deps{}, nil, fmt.Errorf("failed to open preference store: %w", err)
	}
	return tools.Deps{
		Config: cfg,
		Tracer: noop.NewTracerProvider().Tracer("moneycalc-cli"),
		Logger: logger,
		Store:  store,
	}, closeStore, nil
}

// parseFieldFlags разбирает значения вида name=value
func parseFieldFlags(pairs []string) (map[string]interface{}, error) {
	fields := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("field %q: expected name=value", pair)
		}
		fields[name] = value
	}
	return fields, nil
}

func unitParams(cmd *cobra.Command, params map[string]interface{}) {
	if v, _ := cmd.Flags().GetString("rate-unit"); v != "" {
		params["rateUnit"] = v
	}
	if v, _ := cmd.Flags().GetString("amount-unit"); v != "" {
		params["amountUnit"] = v
	}
}

func addUnitFlags(cmd *cobra.Command) {
	cmd.Flags().String("rate-unit", "", "единица ставки (annual, monthly)")
	cmd.Flags().String("amount-unit", "", "единица суммы (krw, thousand)")
}

func calcCmd() *cobra.Command {
	var (
		fieldFlags []string
		breakdown  bool
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:       "calc <kind>",
		Short:     "Выполняет расчет одного калькулятора",
		Example:   "  moneycalc calc loanSchedule -f principal=12000000 -f rate=12 -f months=12 -f method=equalPrincipal",
		Args:      cobra.ExactArgs(1),
		ValidArgs: kindNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := calculator.ParseKind(args[0])
			if err != nil {
				return err
			}
			fields, err := parseFieldFlags(fieldFlags)
			if err != nil {
				return err
			}
			params := map[string]interface{}{"fields": fields, "breakdown": breakdown}
			unitParams(cmd, params)

			deps, closeStore, err := newDeps(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			out, err := tools.CalculatorHandler(deps, kind)(cmd.Context(), params)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), out)
			}
			printCalculation(cmd.OutOrStdout(), out.(tools.CalculationResponse))
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&fieldFlags, "field", "f", nil, "значение поля name=value (можно повторять)")
	cmd.Flags().BoolVar(&breakdown, "breakdown", false, "помесячная разбивка накоплений")
	cmd.Flags().BoolVar(&asJSON, "json", false, "вывод в JSON")
	addUnitFlags(cmd)
	return cmd
}

func restoreCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "restore [kind] <query>",
		Short: "Пересчитывает результат по строке запроса из ссылки",
		Long:  "Без kind пересчитываются все калькуляторы, поля которых есть в ссылке.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			handler := tools.ShareHandler
			if len(args) == 2 {
				kind, err := calculator.ParseKind(args[0])
				if err != nil {
					return err
				}
				handler = func(d tools.Deps) tools.ToolHandler { return tools.RestoreHandler(d, kind) }
			}

			deps, closeStore, err := newDeps(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			query := strings.TrimPrefix(args[len(args)-1], "?")
			out, err := handler(deps)(cmd.Context(), map[string]interface{}{"query": query})
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), out)
			}
			switch resp := out.(type) {
			case tools.CalculationResponse:
				printCalculation(cmd.OutOrStdout(), resp)
			case tools.ShareResponse:
				for _, kind := range calculator.Kinds() {
					if r, ok := resp.Results[kind]; ok {
						fmt.Fprintf(cmd.OutOrStdout(), "[%s]\n", kind)
						printCalculation(cmd.OutOrStdout(), r)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "вывод в JSON")
	return cmd
}

func compareCmd() *cobra.Command {
	var fieldFlags []string
	cmd := &cobra.Command{
		Use:     "compare",
		Short:   "Сравнивает аннуитетное и дифференцированное погашение",
		Example: "  moneycalc compare -f principal=100000000 -f rate=5 -f months=120",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fields, err := parseFieldFlags(fieldFlags)
			if err != nil {
				return err
			}
			params := map[string]interface{}{"fields": fields}
			unitParams(cmd, params)

			deps, closeStore, err := newDeps(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			out, err := tools.CompareHandler(deps)(cmd.Context(), params)
			if err != nil {
				return err
			}
			c := out.(calculations.Comparison)
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "원리금균등상환 총 이자: %s\n", format.Won(c.EqualPayment.Totals.TotalInterest))
			fmt.Fprintf(w, "원금균등상환 총 이자: %s\n", format.Won(c.EqualPrincipal.Totals.TotalInterest))
			fmt.Fprintf(w, "이자 차이: %s\n", format.Won(c.InterestDiff))
			if c.Cheaper != "" {
				fmt.Fprintf(w, "cheaper: %s\n", c.Cheaper)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&fieldFlags, "field", "f", nil, "значение поля name=value (можно повторять)")
	addUnitFlags(cmd)
	return cmd
}

func prefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Показывает или меняет единицы ставки и суммы",
		Example: "  moneycalc prefs\n" +
			"  moneycalc prefs --store sqlite --rate-unit monthly --amount-unit thousand",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := map[string]interface{}{}
			unitParams(cmd, params)

			deps, closeStore, err := newDeps(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			out, err := tools.PreferenceHandler(deps)(cmd.Context(), params)
			if err != nil {
				return err
			}
			pref := out.(tools.PreferenceResponse).Preference
			fmt.Fprintf(cmd.OutOrStdout(), "rateUnit=%s amountUnit=%s\n", pref.RateUnit, pref.AmountUnit)
			return nil
		},
	}
	addUnitFlags(cmd)
	return cmd
}

func kindNames() []string {
	kinds := calculator.Kinds()
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, string(k))
	}
	return names
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printCalculation(w io.Writer, resp tools.CalculationResponse) {
	fmt.Fprintln(w, resp.Result.Message)

	if resp.Result.IsSchedule() {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "회차\t상환액\t원금\t이자\t잔액\t")
		for _, row := range resp.Result.Schedule.Table {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n", row.Month, row.Payment, row.Principal, row.Interest, row.Balance)
		}
		_ = tw.Flush()
	}

	if resp.Breakdown != nil {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "month\tcontribution\tinterest\tbalance\t")
		for _, row := range resp.Breakdown.Rows {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t\n", row.Month,
				format.Currency(row.Contribution), format.Currency(row.InterestEarned), format.Currency(row.EndingBalance))
		}
		_ = tw.Flush()
	}

	fmt.Fprintf(w, "share: ?%s\n", resp.ShareQuery)
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ledgerdesk/ledgerdesk/internal/store"
	"github.com/ledgerdesk/ledgerdesk/pkg/ledger"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Display one or many records",
	Long: `Display records from the ledgerdesk server.

Resource types:
  currencies, currency
  cash-registers, cash-register
  items, income-expense-items
  employees, employee
  rates, currency-rates
  advances, advance-payments
  incomes, income-documents

Examples:
  # List all currencies
  ledgerctl get currencies

  # Get one advance payment
  ledgerctl get advances 17

  # Open advances for one employee, newest first
  ledgerctl get advances --filter employee=4 --filter is_closed=false --sort -date

  # Second page of income documents
  ledgerctl get incomes --page 2

  # Free-text search across employees
  ledgerctl get employees --search petrov`,
	RunE: runGet,
}

var (
	getPage    int
	getFilters []string
	getSort    string
	getSearch  string
)

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().IntVarP(&getPage, "page", "p", 1, "Page number")
	getCmd.Flags().StringArrayVar(&getFilters, "filter", nil, "Filter in name=value form (repeatable; empty values are dropped)")
	getCmd.Flags().StringVar(&getSort, "sort", "", "Sort field; prefix with '-' for descending")
	getCmd.Flags().StringVar(&getSearch, "search", "", "Free-text search term")
}

func runGet(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("resource type is required")
	}

	info, err := ledger.ResolveResource(strings.ToLower(args[0]))
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := commandContext()
	defer cancel()

	if len(args) > 1 {
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[1])
		}
		return getOne(ctx, a, info, id)
	}
	return listMany(ctx, a, info)
}

// parseQuery builds the listing query from the command flags.
func parseQuery() (store.Query, error) {
	query := store.Query{Page: getPage, Search: getSearch}
	if len(getFilters) > 0 {
		query.Filters = make(map[string]string, len(getFilters))
		for _, raw := range getFilters {
			name, value, ok := strings.Cut(raw, "=")
			if !ok || name == "" {
				return store.Query{}, fmt.Errorf("invalid filter %q (want name=value)", raw)
			}
			query.Filters[name] = value
		}
	}
	if getSort != "" {
		query.Sort = parseSort(getSort)
	}
	return query, nil
}

// parseSort reads the "-field" descending convention.
func parseSort(raw string) store.Sort {
	if field, ok := strings.CutPrefix(raw, "-"); ok {
		return store.Sort{Field: field, Descending: true}
	}
	return store.Sort{Field: raw}
}

func getOne(ctx context.Context, a *app, info ledger.ResourceInfo, id int64) error {
	format := GetOutputFormat()
	switch info.Kind {
	case ledger.KindCurrency:
		return fetchAndPrint(ctx, a.client.Currencies(), id, format)
	case ledger.KindCashRegister:
		return fetchAndPrint(ctx, a.client.CashRegisters(), id, format)
	case ledger.KindIncomeExpenseItem:
		return fetchAndPrint(ctx, a.client.Items(), id, format)
	case ledger.KindEmployee:
		return fetchAndPrint(ctx, a.client.Employees(), id, format)
	case ledger.KindCurrencyRate:
		return fetchAndPrint(ctx, a.client.CurrencyRates(), id, format)
	case ledger.KindAdvancePayment:
		return fetchAndPrint(ctx, a.client.AdvancePayments(), id, format)
	case ledger.KindIncomeDocument:
		return fetchAndPrint(ctx, a.client.IncomeDocuments(), id, format)
	default:
		return fmt.Errorf("unsupported resource kind: %s", info.Kind)
	}
}

func fetchAndPrint[T any](ctx context.Context, st *store.Store[T], id int64, format OutputFormat) error {
	record, err := st.Get(ctx, id)
	if err != nil {
		return err
	}
	return PrintResource(os.Stdout, record, format)
}

func listMany(ctx context.Context, a *app, info ledger.ResourceInfo) error {
	query, err := parseQuery()
	if err != nil {
		return err
	}
	format := GetOutputFormat()

	switch info.Kind {
	case ledger.KindCurrency:
		return listAndPrint(ctx, a.client.Currencies(), query, format, printCurrencyTable)
	case ledger.KindCashRegister:
		return listAndPrint(ctx, a.client.CashRegisters(), query, format, printCashRegisterTable)
	case ledger.KindIncomeExpenseItem:
		return listAndPrint(ctx, a.client.Items(), query, format, printItemTable)
	case ledger.KindEmployee:
		return listAndPrint(ctx, a.client.Employees(), query, format, printEmployeeTable)
	case ledger.KindCurrencyRate:
		return listAndPrint(ctx, a.client.CurrencyRates(), query, format, printRateTable)
	case ledger.KindAdvancePayment:
		return listAndPrint(ctx, a.client.AdvancePayments(), query, format, printAdvanceTable)
	case ledger.KindIncomeDocument:
		return listAndPrint(ctx, a.client.IncomeDocuments(), query, format, printIncomeTable)
	default:
		return fmt.Errorf("unsupported resource kind: %s", info.Kind)
	}
}

func listAndPrint[T any](ctx context.Context, st *store.Store[T], query store.Query, format OutputFormat, table func(io.Writer, []T)) error {
	if err := st.Seed(query); err != nil {
		return err
	}
	page, err := st.List(ctx)
	if err != nil {
		return err
	}

	switch format {
	case OutputFormatJSON, OutputFormatYAML:
		return PrintResource(os.Stdout, page.Items, format)
	case OutputFormatName:
		for _, item := range page.Items {
			fmt.Println(displayName(item))
		}
		return nil
	default:
		if len(page.Items) == 0 {
			fmt.Println("No records found.")
			return nil
		}
		table(os.Stdout, page.Items)
		pageFooter(os.Stdout, st.Query().Page, page.PageCount, page.TotalCount)
		return nil
	}
}

// displayName picks the most recognizable field of a record for -o name.
func displayName(item any) string {
	switch v := item.(type) {
	case ledger.Currency:
		return v.Code
	case ledger.CashRegister:
		return v.Name
	case ledger.IncomeExpenseItem:
		return v.Name
	case ledger.Employee:
		if v.FullName != "" {
			return v.FullName
		}
		return strings.TrimSpace(v.LastName + " " + v.FirstName)
	case ledger.CurrencyRate:
		return fmt.Sprintf("%s/%s@%s", v.FromCurrencyCode, v.ToCurrencyCode, v.Date)
	case ledger.AdvancePayment:
		return v.Number
	case ledger.IncomeDocument:
		return v.Number
	default:
		return fmt.Sprintf("%v", item)
	}
}

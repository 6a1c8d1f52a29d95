package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var refdataCmd = &cobra.Command{
	Use:   "refdata",
	Short: "Show or invalidate the cached reference data",
	Long: `Show the active reference data (currencies, cash registers,
employees, income/expense items) that document forms are built from.

Reference data is cached, in memory and optionally on disk when
--cache-dir is set, so repeated form rendering does not refetch it.
Use --invalidate to drop the caches and force a refetch.

Examples:
  ledgerctl refdata
  ledgerctl refdata --invalidate
  ledgerctl --cache-dir ~/.ledgerctl/cache refdata`,
	RunE: runRefdata,
}

var refdataInvalidate bool

func init() {
	rootCmd.AddCommand(refdataCmd)
	refdataCmd.Flags().BoolVar(&refdataInvalidate, "invalidate", false, "Drop the caches before fetching")
}

func runRefdata(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := commandContext()
	defer cancel()

	if refdataInvalidate {
		a.client.InvalidateRefdata()
		cmd.Println("Reference data caches invalidated.")
	}

	currencies, err := a.client.CurrencyCache().Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load currencies: %w", err)
	}
	registers, err := a.client.RegisterCache().Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cash registers: %w", err)
	}
	employees, err := a.client.EmployeeCache().Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load employees: %w", err)
	}
	items, err := a.client.ItemCache().Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load income/expense items: %w", err)
	}

	format := GetOutputFormat()
	if format == OutputFormatJSON || format == OutputFormatYAML {
		return PrintResource(os.Stdout, map[string]any{
			"currencies":     currencies,
			"cash_registers": registers,
			"employees":      employees,
			"items":          items,
		}, format)
	}

	fmt.Println("CURRENCIES")
	printCurrencyTable(os.Stdout, currencies)
	fmt.Println("\nCASH REGISTERS")
	printCashRegisterTable(os.Stdout, registers)
	fmt.Println("\nEMPLOYEES")
	printEmployeeTable(os.Stdout, employees)
	fmt.Println("\nINCOME/EXPENSE ITEMS")
	printItemTable(os.Stdout, items)

	if at, ok := a.client.CurrencyCache().FetchedAt(); ok {
		fmt.Printf("\nFetched %s\n", at.Format(time.RFC3339))
	}
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ledgerdesk/ledgerdesk/internal/store"
	"github.com/ledgerdesk/ledgerdesk/pkg/ledger"
	"github.com/ledgerdesk/ledgerdesk/pkg/manifest"
)

var updateCmd = &cobra.Command{
	Use:   "update ID -f FILENAME",
	Short: "Update a record from a manifest file",
	Long: `Update an existing record from a YAML or JSON manifest.

The manifest has the same shape as for create; the record to change is
named by its id on the command line. The full payload is sent, so the
manifest must carry every writable field, not just the changed ones.

Examples:
  ledgerctl update 17 -f advance.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

var updateFile string

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().StringVarP(&updateFile, "filename", "f", "", "Manifest file (required)")
	updateCmd.MarkFlagRequired("filename")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", args[0])
	}

	m, err := manifest.ParseFile(updateFile)
	if err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := commandContext()
	defer cancel()

	switch m.Kind {
	case ledger.KindCurrency:
		return updateAndPrint(ctx, a.client.Currencies(), id, m.Spec)
	case ledger.KindCashRegister:
		return updateAndPrint(ctx, a.client.CashRegisters(), id, m.Spec)
	case ledger.KindIncomeExpenseItem:
		return updateAndPrint(ctx, a.client.Items(), id, m.Spec)
	case ledger.KindEmployee:
		return updateAndPrint(ctx, a.client.Employees(), id, m.Spec)
	case ledger.KindCurrencyRate:
		return updateAndPrint(ctx, a.client.CurrencyRates(), id, m.Spec)
	case ledger.KindAdvancePayment:
		return updateAndPrint(ctx, a.client.AdvancePayments(), id, m.Spec)
	case ledger.KindIncomeDocument:
		return updateAndPrint(ctx, a.client.IncomeDocuments(), id, m.Spec)
	default:
		return fmt.Errorf("unsupported resource kind: %s", m.Kind)
	}
}

func updateAndPrint[T any](ctx context.Context, st *store.Store[T], id int64, payload map[string]any) error {
	record, err := st.Update(ctx, id, payload)
	if err != nil {
		return err
	}
	return PrintResource(os.Stdout, record, GetOutputFormat())
}

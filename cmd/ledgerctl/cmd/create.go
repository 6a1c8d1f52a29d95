package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ledgerdesk/ledgerdesk/internal/store"
	"github.com/ledgerdesk/ledgerdesk/pkg/ledger"
	"github.com/ledgerdesk/ledgerdesk/pkg/manifest"
)

var createCmd = &cobra.Command{
	Use:   "create -f FILENAME",
	Short: "Create a record from a manifest file",
	Long: `Create a record from a YAML or JSON manifest.

The manifest names the resource kind and carries the record payload:

  kind: advance-payment
  spec:
    number: AP-0042
    date: "2026-08-20"
    employee: 4
    cash_register: 1
    amount: "1500.00"

The payload is validated locally before anything is sent, and the
server's listing is refreshed after a successful create.

Examples:
  ledgerctl create -f advance.yaml
  ledgerctl create -f currency.json -o json`,
	RunE: runCreate,
}

var createFile string

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringVarP(&createFile, "filename", "f", "", "Manifest file (required)")
	createCmd.MarkFlagRequired("filename")
}

func runCreate(cmd *cobra.Command, args []string) error {
	m, err := manifest.ParseFile(createFile)
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
		return createAndPrint(ctx, a.client.Currencies(), m.Spec)
	case ledger.KindCashRegister:
		return createAndPrint(ctx, a.client.CashRegisters(), m.Spec)
	case ledger.KindIncomeExpenseItem:
		return createAndPrint(ctx, a.client.Items(), m.Spec)
	case ledger.KindEmployee:
		return createAndPrint(ctx, a.client.Employees(), m.Spec)
	case ledger.KindCurrencyRate:
		return createAndPrint(ctx, a.client.CurrencyRates(), m.Spec)
	case ledger.KindAdvancePayment:
		return createAndPrint(ctx, a.client.AdvancePayments(), m.Spec)
	case ledger.KindIncomeDocument:
		return createAndPrint(ctx, a.client.IncomeDocuments(), m.Spec)
	default:
		return fmt.Errorf("unsupported resource kind: %s", m.Kind)
	}
}

func createAndPrint[T any](ctx context.Context, st *store.Store[T], payload map[string]any) error {
	record, err := st.Create(ctx, payload)
	if err != nil {
		return err
	}
	return PrintResource(os.Stdout, record, GetOutputFormat())
}

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ledgerdesk/ledgerdesk/pkg/ledger"
)

// OutputFormat represents the output format type.
type OutputFormat string

const (
	OutputFormatYAML  OutputFormat = "yaml"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatName  OutputFormat = "name"
	OutputFormatTable OutputFormat = "table" // Default
)

// GetOutputFormat returns the output format from viper config or flag.
func GetOutputFormat() OutputFormat {
	format := strings.ToLower(viper.GetString("output"))
	switch format {
	case "yaml", "y":
		return OutputFormatYAML
	case "json", "j":
		return OutputFormatJSON
	case "name", "n":
		return OutputFormatName
	case "table", "t", "":
		return OutputFormatTable
	default:
		return OutputFormatTable
	}
}

// PrintResource prints a single resource in the specified format.
func PrintResource(w io.Writer, resource any, format OutputFormat) error {
	switch format {
	case OutputFormatYAML:
		return printYAML(w, resource)
	default:
		return printJSON(w, resource)
	}
}

func printYAML(w io.Writer, v any) error {
	// Round-trip through JSON so yaml output honors the json field
	// names instead of Go struct names.
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(generic)
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// NewTabWriter creates a new tabwriter for table output.
func NewTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
}

// PrintError prints an error message to stderr.
func PrintError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

// pageFooter renders the pagination line under a table.
func pageFooter(w io.Writer, page, pageCount, total int) {
	fmt.Fprintf(w, "\nPage %d of %d (%d total)\n", page, pageCount, total)
}

// activeMark renders the is_active flag the way the admin UI does.
func activeMark(active bool) string {
	if active {
		return "yes"
	}
	return "no"
}

// orDash substitutes a dash for empty display values.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Table renderers, one per resource type.

func printCurrencyTable(w io.Writer, items []ledger.Currency) {
	tw := NewTabWriter(w)
	defer tw.Flush()
	fmt.Fprintln(tw, "ID\tCODE\tNAME\tSYMBOL\tACTIVE")
	for _, c := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.Code, c.Name, c.Symbol, activeMark(c.IsActive))
	}
}

func printCashRegisterTable(w io.Writer, items []ledger.CashRegister) {
	tw := NewTabWriter(w)
	defer tw.Flush()
	fmt.Fprintln(tw, "ID\tNAME\tCODE\tBALANCES\tACTIVE")
	for _, r := range items {
		var balances []string
		for code, amount := range r.Balances {
			balances = append(balances, fmt.Sprintf("%s %s", amount, code))
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			r.ID, r.Name, orDash(r.Code), orDash(strings.Join(balances, ", ")), activeMark(r.IsActive))
	}
}

func printItemTable(w io.Writer, items []ledger.IncomeExpenseItem) {
	tw := NewTabWriter(w)
	defer tw.Flush()
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tCODE\tACTIVE")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", it.ID, it.Name, it.Type, orDash(it.Code), activeMark(it.IsActive))
	}
}

func printEmployeeTable(w io.Writer, items []ledger.Employee) {
	tw := NewTabWriter(w)
	defer tw.Flush()
	fmt.Fprintln(tw, "ID\tNAME\tPOSITION\tACTIVE")
	for _, e := range items {
		name := e.FullName
		if name == "" {
			name = strings.TrimSpace(e.LastName + " " + e.FirstName)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, name, orDash(e.Position), activeMark(e.IsActive))
	}
}

func printRateTable(w io.Writer, items []ledger.CurrencyRate) {
	tw := NewTabWriter(w)
	defer tw.Flush()
	fmt.Fprintln(tw, "ID\tDATE\tFROM\tTO\tRATE\tACTIVE")
	for _, r := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Date, r.FromCurrencyCode, r.ToCurrencyCode, r.Rate, activeMark(r.IsActive))
	}
}

func printAdvanceTable(w io.Writer, items []ledger.AdvancePayment) {
	tw := NewTabWriter(w)
	defer tw.Flush()
	fmt.Fprintln(tw, "ID\tNUMBER\tDATE\tEMPLOYEE\tAMOUNT\tUNREPORTED\tCLOSED\tPOSTED")
	for _, a := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s %s\t%s\t%s\t%s\n",
			a.ID, a.Number, a.Date, a.EmployeeName, a.Amount, a.CurrencyCode,
			a.UnreportedBalance, activeMark(a.IsClosed), activeMark(a.IsPosted))
	}
}

func printIncomeTable(w io.Writer, items []ledger.IncomeDocument) {
	tw := NewTabWriter(w)
	defer tw.Flush()
	fmt.Fprintln(tw, "ID\tNUMBER\tDATE\tCASH REGISTER\tAMOUNT\tITEM\tPOSTED")
	for _, d := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s %s\t%s\t%s\n",
			d.ID, d.Number, d.Date, d.CashRegisterName, d.Amount, d.CurrencyCode,
			d.ItemName, activeMark(d.IsPosted))
	}
}

package ledger

import "fmt"

// Kind identifies a resource type exposed by the backend.
type Kind string

const (
	KindCurrency          Kind = "Currency"
	KindCashRegister      Kind = "CashRegister"
	KindIncomeExpenseItem Kind = "IncomeExpenseItem"
	KindEmployee          Kind = "Employee"
	KindCurrencyRate      Kind = "CurrencyRate"
	KindAdvancePayment    Kind = "AdvancePayment"
	KindIncomeDocument    Kind = "IncomeDocument"
)

// ResourceInfo describes one remote collection.
type ResourceInfo struct {
	Kind Kind
	// Path is the collection path relative to the API base,
	// with leading and trailing slash (DRF router convention).
	Path string
	// DefaultSort is the server's default ordering, kept here so the
	// CLI can show it in help text.
	DefaultSort string
}

var resourceTable = []ResourceInfo{
	{Kind: KindCurrency, Path: "/currencies/", DefaultSort: "code"},
	{Kind: KindCashRegister, Path: "/cash-registers/", DefaultSort: "name"},
	{Kind: KindIncomeExpenseItem, Path: "/income-expense-items/", DefaultSort: "type"},
	{Kind: KindEmployee, Path: "/employees/", DefaultSort: "last_name"},
	{Kind: KindCurrencyRate, Path: "/currency-rates/", DefaultSort: "-date"},
	{Kind: KindAdvancePayment, Path: "/advance-payments/", DefaultSort: "-date"},
	{Kind: KindIncomeDocument, Path: "/income-documents/", DefaultSort: "-date"},
}

// aliases maps CLI spellings (singular, plural, hyphenated) to kinds.
var aliases = map[string]Kind{
	"currency":             KindCurrency,
	"currencies":           KindCurrency,
	"cash-register":        KindCashRegister,
	"cash-registers":       KindCashRegister,
	"income-expense-item":  KindIncomeExpenseItem,
	"income-expense-items": KindIncomeExpenseItem,
	"item":                 KindIncomeExpenseItem,
	"items":                KindIncomeExpenseItem,
	"employee":             KindEmployee,
	"employees":            KindEmployee,
	"currency-rate":        KindCurrencyRate,
	"currency-rates":       KindCurrencyRate,
	"rate":                 KindCurrencyRate,
	"rates":                KindCurrencyRate,
	"advance-payment":      KindAdvancePayment,
	"advance-payments":     KindAdvancePayment,
	"advance":              KindAdvancePayment,
	"advances":             KindAdvancePayment,
	"income-document":      KindIncomeDocument,
	"income-documents":     KindIncomeDocument,
	"income":               KindIncomeDocument,
	"incomes":              KindIncomeDocument,
}

// Resources returns all known resource descriptors.
func Resources() []ResourceInfo {
	out := make([]ResourceInfo, len(resourceTable))
	copy(out, resourceTable)
	return out
}

// ResourceByKind looks up a resource descriptor by kind.
func ResourceByKind(kind Kind) (ResourceInfo, error) {
	for _, info := range resourceTable {
		if info.Kind == kind {
			return info, nil
		}
	}
	return ResourceInfo{}, fmt.Errorf("unknown resource kind: %s", kind)
}

// ResolveResource maps a CLI resource name to its descriptor.
func ResolveResource(name string) (ResourceInfo, error) {
	kind, ok := aliases[name]
	if !ok {
		return ResourceInfo{}, fmt.Errorf("unknown resource type: %s", name)
	}
	return ResourceByKind(kind)
}

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerdesk/ledgerdesk/internal/store"
	"github.com/ledgerdesk/ledgerdesk/pkg/ledger"
)

func TestParseSort(t *testing.T) {
	assert.Equal(t, store.Sort{Field: "date"}, parseSort("date"))
	assert.Equal(t, store.Sort{Field: "date", Descending: true}, parseSort("-date"))
}

func TestParseQuery(t *testing.T) {
	getPage = 2
	getFilters = []string{"employee=4", "is_closed=false"}
	getSort = "-date"
	getSearch = "petrov"
	t.Cleanup(resetGetFlags)

	query, err := parseQuery()
	require.NoError(t, err)

	assert.Equal(t, 2, query.Page)
	assert.Equal(t, "4", query.Filters["employee"])
	assert.Equal(t, "false", query.Filters["is_closed"])
	assert.Equal(t, store.Sort{Field: "date", Descending: true}, query.Sort)
	assert.Equal(t, "petrov", query.Search)
}

func TestParseQueryRejectsMalformedFilter(t *testing.T) {
	getPage = 1
	getFilters = []string{"employee"}
	t.Cleanup(resetGetFlags)

	_, err := parseQuery()
	require.Error(t, err)

	getFilters = []string{"=4"}
	_, err = parseQuery()
	require.Error(t, err)
}

func TestParseQueryAllowsEmptyFilterValue(t *testing.T) {
	getPage = 1
	getFilters = []string{"number="}
	t.Cleanup(resetGetFlags)

	query, err := parseQuery()
	require.NoError(t, err)
	assert.Equal(t, "", query.Filters["number"])
}

func resetGetFlags() {
	getPage = 1
	getFilters = nil
	getSort = ""
	getSearch = ""
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		item any
		want string
	}{
		{"currency", ledger.Currency{Code: "USD"}, "USD"},
		{"cash register", ledger.CashRegister{Name: "Main"}, "Main"},
		{"item", ledger.IncomeExpenseItem{Name: "Travel"}, "Travel"},
		{"employee full name", ledger.Employee{FullName: "Petrova Anna"}, "Petrova Anna"},
		{"employee parts", ledger.Employee{FirstName: "Anna", LastName: "Petrova"}, "Petrova Anna"},
		{"rate", ledger.CurrencyRate{FromCurrencyCode: "USD", ToCurrencyCode: "KZT", Date: "2026-08-25"}, "USD/KZT@2026-08-25"},
		{"advance", ledger.AdvancePayment{Number: "AP-0017"}, "AP-0017"},
		{"income", ledger.IncomeDocument{Number: "IN-0001"}, "IN-0001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, displayName(tt.item))
		})
	}
}

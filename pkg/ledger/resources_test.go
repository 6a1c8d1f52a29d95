package ledger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourcesCoverEveryKind(t *testing.T) {
	kinds := map[Kind]bool{}
	for _, info := range Resources() {
		kinds[info.Kind] = true
		assert.True(t, strings.HasPrefix(info.Path, "/"), info.Path)
		assert.True(t, strings.HasSuffix(info.Path, "/"), info.Path)
	}
	for _, kind := range []Kind{
		KindCurrency, KindCashRegister, KindIncomeExpenseItem,
		KindEmployee, KindCurrencyRate, KindAdvancePayment, KindIncomeDocument,
	} {
		assert.True(t, kinds[kind], "missing %s", kind)
	}
}

func TestResourceByKind(t *testing.T) {
	info, err := ResourceByKind(KindAdvancePayment)
	require.NoError(t, err)
	assert.Equal(t, "/advance-payments/", info.Path)

	_, err = ResourceByKind(Kind("Widget"))
	require.Error(t, err)
}

func TestResolveResource(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"currencies", KindCurrency},
		{"currency", KindCurrency},
		{"cash-registers", KindCashRegister},
		{"items", KindIncomeExpenseItem},
		{"income-expense-items", KindIncomeExpenseItem},
		{"employees", KindEmployee},
		{"rates", KindCurrencyRate},
		{"advances", KindAdvancePayment},
		{"advance-payments", KindAdvancePayment},
		{"incomes", KindIncomeDocument},
	}
	for _, tt := range tests {
		info, err := ResolveResource(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, info.Kind, tt.name)
	}

	_, err := ResolveResource("widgets")
	require.Error(t, err)
}

func TestResourcesReturnsCopy(t *testing.T) {
	first := Resources()
	first[0].Path = "/mangled/"

	assert.Equal(t, "/currencies/", Resources()[0].Path)
}

package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerdesk/ledgerdesk/pkg/ledger"
)

func TestParseYAML(t *testing.T) {
	m, err := Parse([]byte(`
kind: Currency
spec:
  code: USD
  name: US Dollar
  symbol: $
`))
	require.NoError(t, err)
	assert.Equal(t, ledger.KindCurrency, m.Kind)
	assert.Equal(t, "USD", m.Spec["code"])
}

func TestParseJSON(t *testing.T) {
	m, err := Parse([]byte(`{"kind": "Employee", "spec": {"first_name": "Anna", "last_name": "Petrova"}}`))
	require.NoError(t, err)
	assert.Equal(t, ledger.KindEmployee, m.Kind)
}

func TestParseAcceptsCLISpellings(t *testing.T) {
	tests := []struct {
		spelled string
		want    ledger.Kind
	}{
		{"advance-payment", ledger.KindAdvancePayment},
		{"advances", ledger.KindAdvancePayment},
		{"cash-register", ledger.KindCashRegister},
		{"items", ledger.KindIncomeExpenseItem},
	}
	for _, tt := range tests {
		m, err := Parse([]byte("kind: " + tt.spelled + "\nspec:\n  name: x\n"))
		require.NoError(t, err, tt.spelled)
		assert.Equal(t, tt.want, m.Kind, tt.spelled)
	}
}

func TestParseRejectsMissingKind(t *testing.T) {
	_, err := Parse([]byte("spec:\n  name: x\n"))
	require.Error(t, err)
}

func TestParseRejectsUnknownKind(t *testing.T) {
	_, err := Parse([]byte("kind: Widget\nspec:\n  name: x\n"))
	require.Error(t, err)
}

func TestParseRejectsEmptySpec(t *testing.T) {
	_, err := Parse([]byte("kind: Currency\n"))
	require.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte("{{{not yaml or json"))
	require.Error(t, err)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "currency.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
kind: Currency
spec:
  code: EUR
  name: Euro
  symbol: "€"
`), 0o600))

	m, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, ledger.KindCurrency, m.Kind)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid, err := Parse([]byte(`
kind: Currency
spec:
  code: USD
  name: US Dollar
  symbol: $
`))
	require.NoError(t, err)
	require.NoError(t, valid.Validate())

	invalid, err := Parse([]byte(`
kind: Currency
spec:
  code: us dollar
`))
	require.NoError(t, err)

	verr := invalid.Validate()
	var ve *ledger.ValidationError
	require.ErrorAs(t, verr, &ve)
	assert.NotEmpty(t, ve.Causes)
}

func TestResource(t *testing.T) {
	m, err := Parse([]byte("kind: IncomeDocument\nspec:\n  number: IN-1\n"))
	require.NoError(t, err)

	info, err := m.Resource()
	require.NoError(t, err)
	assert.Equal(t, "/income-documents/", info.Path)
}

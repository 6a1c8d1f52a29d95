// Package validate checks create/update payloads against per-resource
// JSON schemas before a request is issued. Validation failures stay at
// the form boundary; they never reach the resource store.
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ledgerdesk/ledgerdesk/pkg/ledger"
)

const (
	decimalPattern = `^-?[0-9]+(\\.[0-9]{1,4})?$`
	datePattern    = `^[0-9]{4}-[0-9]{2}-[0-9]{2}$`
)

// schemaSources holds the write-payload schema per resource kind.
// Read-only fields (names, computed balances, timestamps) are not
// listed; the backend ignores them on write anyway.
var schemaSources = map[ledger.Kind]string{
	ledger.KindCurrency: `{
		"type": "object",
		"required": ["code", "name", "symbol"],
		"properties": {
			"code": {"type": "string", "pattern": "^[A-Z]{3}$"},
			"name": {"type": "string", "minLength": 1},
			"symbol": {"type": "string", "minLength": 1},
			"is_active": {"type": "boolean"}
		}
	}`,
	ledger.KindCashRegister: `{
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"code": {"type": "string"},
			"description": {"type": "string"},
			"is_active": {"type": "boolean"}
		}
	}`,
	ledger.KindIncomeExpenseItem: `{
		"type": "object",
		"required": ["name", "type"],
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"code": {"type": "string"},
			"type": {"enum": ["income", "expense"]},
			"parent": {"type": ["integer", "null"]},
			"description": {"type": "string"},
			"is_active": {"type": "boolean"}
		}
	}`,
	ledger.KindEmployee: `{
		"type": "object",
		"required": ["first_name", "last_name"],
		"properties": {
			"first_name": {"type": "string", "minLength": 1},
			"last_name": {"type": "string", "minLength": 1},
			"middle_name": {"type": "string"},
			"position": {"type": "string"},
			"code": {"type": "string"},
			"description": {"type": "string"},
			"is_active": {"type": "boolean"}
		}
	}`,
	ledger.KindCurrencyRate: `{
		"type": "object",
		"required": ["from_currency", "to_currency", "rate", "date"],
		"properties": {
			"from_currency": {"type": "integer"},
			"to_currency": {"type": "integer"},
			"rate": {"type": "string", "pattern": "` + decimalPattern + `"},
			"date": {"type": "string", "pattern": "` + datePattern + `"},
			"name": {"type": "string"},
			"is_active": {"type": "boolean"}
		}
	}`,
	ledger.KindAdvancePayment: `{
		"type": "object",
		"required": ["number", "date", "employee", "cash_register", "currency", "amount", "expense_item"],
		"properties": {
			"number": {"type": "string", "minLength": 1},
			"date": {"type": "string", "pattern": "` + datePattern + `"},
			"employee": {"type": "integer"},
			"cash_register": {"type": "integer"},
			"currency": {"type": "integer"},
			"amount": {"type": "string", "pattern": "` + decimalPattern + `"},
			"expense_item": {"type": "integer"},
			"purpose": {"type": "string"},
			"is_closed": {"type": "boolean"},
			"is_posted": {"type": "boolean"},
			"is_deleted": {"type": "boolean"}
		}
	}`,
	ledger.KindIncomeDocument: `{
		"type": "object",
		"required": ["number", "date", "cash_register", "currency", "amount", "item"],
		"properties": {
			"number": {"type": "string", "minLength": 1},
			"date": {"type": "string", "pattern": "` + datePattern + `"},
			"cash_register": {"type": "integer"},
			"currency": {"type": "integer"},
			"amount": {"type": "string", "pattern": "` + decimalPattern + `"},
			"item": {"type": "integer"},
			"description": {"type": "string"},
			"is_posted": {"type": "boolean"},
			"is_deleted": {"type": "boolean"}
		}
	}`,
}

var (
	compileOnce sync.Once
	compiled    map[ledger.Kind]*jsonschema.Schema
	compileErr  error
)

func schemas() (map[ledger.Kind]*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled = make(map[ledger.Kind]*jsonschema.Schema, len(schemaSources))
		for kind, source := range schemaSources {
			compiler := jsonschema.NewCompiler()
			id := fmt.Sprintf("%s.json", strings.ToLower(string(kind)))
			if err := compiler.AddResource(id, bytes.NewReader([]byte(source))); err != nil {
				compileErr = fmt.Errorf("failed to add schema for %s: %w", kind, err)
				return
			}
			schema, err := compiler.Compile(id)
			if err != nil {
				compileErr = fmt.Errorf("failed to compile schema for %s: %w", kind, err)
				return
			}
			compiled[kind] = schema
		}
	})
	return compiled, compileErr
}

// Payload validates a write payload for the given resource kind.
// Returns *ledger.ValidationError listing every violation.
func Payload(kind ledger.Kind, payload map[string]any) error {
	all, err := schemas()
	if err != nil {
		return err
	}
	schema, ok := all[kind]
	if !ok {
		return fmt.Errorf("no schema for resource kind %s", kind)
	}

	// Round-trip through JSON so numbers and nested values take the
	// representation the validator expects.
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	var doc any
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if ok := asValidationError(err, &ve); ok {
			return &ledger.ValidationError{Kind: string(kind), Causes: flatten(ve)}
		}
		return err
	}
	return nil
}

func asValidationError(err error, target **jsonschema.ValidationError) bool {
	ve, ok := err.(*jsonschema.ValidationError)
	if ok {
		*target = ve
	}
	return ok
}

// flatten collects the leaf causes of a validation error as
// "location: message" strings, sorted for stable output.
func flatten(ve *jsonschema.ValidationError) []string {
	var causes []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			location := e.InstanceLocation
			if location == "" {
				location = "/"
			}
			causes = append(causes, fmt.Sprintf("%s: %s", location, e.Message))
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(ve)
	sort.Strings(causes)
	return causes
}

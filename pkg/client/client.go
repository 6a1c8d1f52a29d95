// Package client assembles the ledgerdesk pieces — transport, session
// gate, per-resource stores, reference-data caches — into one facade
// for consumers like ledgerctl.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ledgerdesk/ledgerdesk/internal/metrics"
	"github.com/ledgerdesk/ledgerdesk/internal/refdata"
	"github.com/ledgerdesk/ledgerdesk/internal/session"
	"github.com/ledgerdesk/ledgerdesk/internal/store"
	"github.com/ledgerdesk/ledgerdesk/internal/transport"
	"github.com/ledgerdesk/ledgerdesk/pkg/ledger"
)

// refdataPageSize bounds reference-list fetches. Reference books are
// small; one page covers them.
const refdataPageSize = 500

// Config configures a Client.
type Config struct {
	// BaseURL is the API root, e.g. "https://ledger.example.com/api/v1".
	BaseURL string
	// PageSize applies to every document store; the server's page size
	// is configuration, not a universal 50.
	PageSize int
	// HTTPClient should carry the session cookie jar.
	HTTPClient *http.Client
	Logger     *zap.Logger
	Metrics    *metrics.Collector
	Tracer     trace.Tracer
	// RefdataTTL bounds reference-data snapshot age.
	RefdataTTL time.Duration
	// RefdataBackend optionally persists reference snapshots between
	// processes. The caller keeps ownership and closes it.
	RefdataBackend refdata.Backend
}

// Client is the assembled ledgerdesk client.
type Client struct {
	api    *transport.Client
	gate   *session.Gate
	auth   *session.Manager
	logger *zap.Logger

	currencies    *store.Store[ledger.Currency]
	cashRegisters *store.Store[ledger.CashRegister]
	items         *store.Store[ledger.IncomeExpenseItem]
	employees     *store.Store[ledger.Employee]
	rates         *store.Store[ledger.CurrencyRate]
	advances      *store.Store[ledger.AdvancePayment]
	incomes       *store.Store[ledger.IncomeDocument]

	currencyCache *refdata.Cache[ledger.Currency]
	registerCache *refdata.Cache[ledger.CashRegister]
	employeeCache *refdata.Cache[ledger.Employee]
	itemCache     *refdata.Cache[ledger.IncomeExpenseItem]
}

// New builds a client: gate first, transport wired to it, stores and
// caches on top.
func New(cfg Config) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	gate := session.NewGate(logger)
	api, err := transport.New(transport.Config{
		BaseURL:    cfg.BaseURL,
		Sink:       gate,
		HTTPClient: cfg.HTTPClient,
		Logger:     logger,
		Metrics:    cfg.Metrics,
		Tracer:     cfg.Tracer,
	})
	if err != nil {
		return nil, err
	}

	c := &Client{
		api:    api,
		gate:   gate,
		auth:   session.NewManager(api, gate, logger),
		logger: logger,
	}

	storeOpts := []store.Option{store.WithLogger(logger), store.WithMetrics(cfg.Metrics)}

	if c.currencies, err = newDocStore[ledger.Currency](api, ledger.KindCurrency, cfg.PageSize, storeOpts); err != nil {
		return nil, err
	}
	if c.cashRegisters, err = newDocStore[ledger.CashRegister](api, ledger.KindCashRegister, cfg.PageSize, storeOpts); err != nil {
		return nil, err
	}
	if c.items, err = newDocStore[ledger.IncomeExpenseItem](api, ledger.KindIncomeExpenseItem, cfg.PageSize, storeOpts); err != nil {
		return nil, err
	}
	if c.employees, err = newDocStore[ledger.Employee](api, ledger.KindEmployee, cfg.PageSize, storeOpts); err != nil {
		return nil, err
	}
	if c.rates, err = newDocStore[ledger.CurrencyRate](api, ledger.KindCurrencyRate, cfg.PageSize, storeOpts); err != nil {
		return nil, err
	}
	if c.advances, err = newDocStore[ledger.AdvancePayment](api, ledger.KindAdvancePayment, cfg.PageSize, storeOpts); err != nil {
		return nil, err
	}
	if c.incomes, err = newDocStore[ledger.IncomeDocument](api, ledger.KindIncomeDocument, cfg.PageSize, storeOpts); err != nil {
		return nil, err
	}

	cacheOpts := []refdata.Option{
		refdata.WithLogger(logger),
		refdata.WithMetrics(cfg.Metrics),
	}
	if cfg.RefdataBackend != nil {
		cacheOpts = append(cacheOpts, refdata.WithBackend(cfg.RefdataBackend))
	}

	if c.currencyCache, err = refdata.New("currencies", cfg.RefdataTTL,
		listLoader[ledger.Currency](api, "/currencies/"), cacheOpts...); err != nil {
		return nil, err
	}
	if c.registerCache, err = refdata.New("cash-registers", cfg.RefdataTTL,
		listLoader[ledger.CashRegister](api, "/cash-registers/"), cacheOpts...); err != nil {
		return nil, err
	}
	if c.employeeCache, err = refdata.New("employees", cfg.RefdataTTL,
		listLoader[ledger.Employee](api, "/employees/"), cacheOpts...); err != nil {
		return nil, err
	}
	if c.itemCache, err = refdata.New("income-expense-items", cfg.RefdataTTL,
		listLoader[ledger.IncomeExpenseItem](api, "/income-expense-items/"), cacheOpts...); err != nil {
		return nil, err
	}

	return c, nil
}

// newDocStore builds the store for one resource kind.
func newDocStore[T any](api *transport.Client, kind ledger.Kind, pageSize int, opts []store.Option) (*store.Store[T], error) {
	info, err := ledger.ResourceByKind(kind)
	if err != nil {
		return nil, err
	}
	return store.New[T](api, store.Descriptor{Path: info.Path, PageSize: pageSize}, opts...)
}

// listLoader fetches one full reference list, active entries only.
func listLoader[T any](api *transport.Client, path string) refdata.Loader[T] {
	return func(ctx context.Context) ([]T, error) {
		params := url.Values{}
		params.Set("page", "1")
		params.Set("page_size", fmt.Sprintf("%d", refdataPageSize))
		params.Set("is_active", "true")
		var raw json.RawMessage
		if err := api.Get(ctx, path, params, &raw); err != nil {
			return nil, err
		}
		items, _, err := store.DecodeItems[T](raw)
		return items, err
	}
}

// API returns the underlying transport client.
func (c *Client) API() *transport.Client { return c.api }

// Gate returns the session gate; register the expired-session handler
// there.
func (c *Client) Gate() *session.Gate { return c.gate }

// Auth returns the auth manager (login/logout/current-user).
func (c *Client) Auth() *session.Manager { return c.auth }

// Document and reference stores, one per remote collection.
func (c *Client) Currencies() *store.Store[ledger.Currency] { return c.currencies }

func (c *Client) CashRegisters() *store.Store[ledger.CashRegister] { return c.cashRegisters }

func (c *Client) Items() *store.Store[ledger.IncomeExpenseItem] { return c.items }

func (c *Client) Employees() *store.Store[ledger.Employee] { return c.employees }

func (c *Client) CurrencyRates() *store.Store[ledger.CurrencyRate] { return c.rates }

func (c *Client) AdvancePayments() *store.Store[ledger.AdvancePayment] { return c.advances }

func (c *Client) IncomeDocuments() *store.Store[ledger.IncomeDocument] { return c.incomes }

// Reference-data caches with independent lifetimes.
func (c *Client) CurrencyCache() *refdata.Cache[ledger.Currency] { return c.currencyCache }

func (c *Client) RegisterCache() *refdata.Cache[ledger.CashRegister] { return c.registerCache }

func (c *Client) EmployeeCache() *refdata.Cache[ledger.Employee] { return c.employeeCache }

func (c *Client) ItemCache() *refdata.Cache[ledger.IncomeExpenseItem] { return c.itemCache }

// InvalidateRefdata drops every reference-data snapshot.
func (c *Client) InvalidateRefdata() {
	c.currencyCache.Invalidate()
	c.registerCache.Invalidate()
	c.employeeCache.Invalidate()
	c.itemCache.Invalidate()
}

// UnreportedBalance calls the advance-payment action endpoint and
// returns the not-yet-reported remainder as a decimal string.
func (c *Client) UnreportedBalance(ctx context.Context, id int64) (string, error) {
	var resp struct {
		UnreportedBalance string `json:"unreported_balance"`
	}
	path := fmt.Sprintf("/advance-payments/%d/unreported_balance/", id)
	if err := c.api.Get(ctx, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.UnreportedBalance, nil
}

// Close tears down every store. In-flight requests resolve as no-ops.
func (c *Client) Close() {
	c.currencies.Close()
	c.cashRegisters.Close()
	c.items.Close()
	c.employees.Close()
	c.rates.Close()
	c.advances.Close()
	c.incomes.Close()
}

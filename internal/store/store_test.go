package store_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerdesk/ledgerdesk/internal/store"
	"github.com/ledgerdesk/ledgerdesk/internal/transport"
	"github.com/ledgerdesk/ledgerdesk/pkg/ledger"
)

func newCurrencyStore(t *testing.T, handler http.Handler) *store.Store[ledger.Currency] {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	api, err := transport.New(transport.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	st, err := store.New[ledger.Currency](api, store.Descriptor{Path: "/currencies/"})
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return st
}

func writeEnvelope(w http.ResponseWriter, count int, items []ledger.Currency) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"count": count, "results": items})
}

func TestListCommitsPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/currencies/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("page_size"))
		writeEnvelope(w, 2, []ledger.Currency{{ID: 1, Code: "USD"}, {ID: 2, Code: "EUR"}})
	})
	st := newCurrencyStore(t, mux)

	require.Equal(t, store.PhaseIdle, st.Phase())

	page, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.TotalCount)
	assert.Equal(t, 1, page.PageCount)
	assert.Equal(t, store.PhaseReady, st.Phase())

	current, ok := st.Current()
	require.True(t, ok)
	assert.Equal(t, page, current)
}

func TestListErrorKeepsNothing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/currencies/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error": "database unavailable"}`)
	})
	st := newCurrencyStore(t, mux)

	_, err := st.List(context.Background())
	require.Error(t, err)

	var fetchErr *ledger.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusInternalServerError, fetchErr.StatusCode)
	assert.Equal(t, "database unavailable", fetchErr.Message)

	assert.Equal(t, store.PhaseError, st.Phase())
	assert.Error(t, st.Err())
	_, ok := st.Current()
	assert.False(t, ok)
}

func TestSetFilterResetsPage(t *testing.T) {
	var lastPage atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("/currencies/", func(w http.ResponseWriter, r *http.Request) {
		lastPage.Store(r.URL.Query().Get("page"))
		writeEnvelope(w, 0, nil)
	})
	st := newCurrencyStore(t, mux)

	_, err := st.SetPage(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, "3", lastPage.Load())

	_, err = st.SetFilter(context.Background(), "is_active", "true")
	require.NoError(t, err)
	assert.Equal(t, "1", lastPage.Load())
	assert.Equal(t, 1, st.Query().Page)
	assert.Equal(t, "true", st.Query().Filters["is_active"])
}

func TestSetFilterEmptyValueRemovesFilter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/currencies/", func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["is_active"]
		assert.False(t, present, "removed filter must not be sent")
		writeEnvelope(w, 0, nil)
	})
	st := newCurrencyStore(t, mux)

	require.NoError(t, st.Seed(store.Query{Page: 1, Filters: map[string]string{"is_active": "true"}}))

	_, err := st.SetFilter(context.Background(), "is_active", "")
	require.NoError(t, err)
	_, present := st.Query().Filters["is_active"]
	assert.False(t, present)
}

func TestSetSortAndSearchResetPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/currencies/", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 0, nil)
	})
	st := newCurrencyStore(t, mux)

	_, err := st.SetPage(context.Background(), 4)
	require.NoError(t, err)

	_, err = st.SetSort(context.Background(), store.Sort{Field: "code", Descending: true})
	require.NoError(t, err)
	assert.Equal(t, 1, st.Query().Page)

	_, err = st.SetPage(context.Background(), 4)
	require.NoError(t, err)

	_, err = st.SetSearch(context.Background(), "dollar")
	require.NoError(t, err)
	assert.Equal(t, 1, st.Query().Page)
}

func TestSetPageRejectsBelowOne(t *testing.T) {
	st := newCurrencyStore(t, http.NewServeMux())

	_, err := st.SetPage(context.Background(), 0)
	require.Error(t, err)
}

// A listing that resolves after a newer one was issued must be
// discarded: the newer response stays committed no matter the arrival
// order.
func TestStaleListingResponseDiscarded(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/currencies/", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			<-release
			writeEnvelope(w, 1, []ledger.Currency{{ID: 1, Code: "STALE"}})
			return
		}
		writeEnvelope(w, 1, []ledger.Currency{{ID: 2, Code: "FRESH"}})
	})
	st := newCurrencyStore(t, mux)

	firstErr := make(chan error, 1)
	go func() {
		_, err := st.List(context.Background())
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, time.Millisecond)

	page, err := st.SetFilter(context.Background(), "is_active", "true")
	require.NoError(t, err)
	require.Equal(t, "FRESH", page.Items[0].Code)

	close(release)
	require.ErrorIs(t, <-firstErr, ledger.ErrStaleQuery)

	current, ok := st.Current()
	require.True(t, ok)
	assert.Equal(t, "FRESH", current.Items[0].Code)
	assert.Equal(t, store.PhaseReady, st.Phase())
}

// A stale response must not flip the store into an error state either.
func TestStaleListingErrorDiscarded(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/currencies/", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			<-release
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeEnvelope(w, 1, []ledger.Currency{{ID: 2, Code: "FRESH"}})
	})
	st := newCurrencyStore(t, mux)

	firstErr := make(chan error, 1)
	go func() {
		_, err := st.List(context.Background())
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, time.Millisecond)

	_, err := st.SetPage(context.Background(), 1)
	require.NoError(t, err)

	close(release)
	require.ErrorIs(t, <-firstErr, ledger.ErrStaleQuery)
	assert.Equal(t, store.PhaseReady, st.Phase())
	assert.NoError(t, st.Err())
}

func TestCreateRefreshesListing(t *testing.T) {
	var created atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/currencies/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			created.Store(true)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(ledger.Currency{ID: 3, Code: "GBP"})
			return
		}
		if created.Load() {
			writeEnvelope(w, 3, []ledger.Currency{{ID: 1, Code: "USD"}, {ID: 2, Code: "EUR"}, {ID: 3, Code: "GBP"}})
			return
		}
		writeEnvelope(w, 2, []ledger.Currency{{ID: 1, Code: "USD"}, {ID: 2, Code: "EUR"}})
	})
	st := newCurrencyStore(t, mux)

	_, err := st.List(context.Background())
	require.NoError(t, err)

	record, err := st.Create(context.Background(), map[string]any{"code": "GBP", "name": "Pound"})
	require.NoError(t, err)
	assert.Equal(t, "GBP", record.Code)

	// The cached page was refreshed and now includes the new record.
	current, ok := st.Current()
	require.True(t, ok)
	require.Len(t, current.Items, 3)
	assert.Equal(t, "GBP", current.Items[2].Code)
}

func TestFailedUpdateKeepsCachedPage(t *testing.T) {
	var listCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/currencies/", func(w http.ResponseWriter, r *http.Request) {
		listCalls.Add(1)
		writeEnvelope(w, 1, []ledger.Currency{{ID: 1, Code: "USD"}})
	})
	mux.HandleFunc("/currencies/1/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"code": ["This field must be unique."]}`)
	})
	st := newCurrencyStore(t, mux)

	_, err := st.List(context.Background())
	require.NoError(t, err)
	before := listCalls.Load()

	_, err = st.Update(context.Background(), 1, map[string]any{"code": "EUR"})
	require.Error(t, err)

	var fetchErr *ledger.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusBadRequest, fetchErr.StatusCode)
	assert.Contains(t, fetchErr.Message, "code")
	assert.Contains(t, fetchErr.Message, "unique")

	// No refresh on failure: the page the user was looking at survives.
	assert.Equal(t, before, listCalls.Load())
	current, ok := st.Current()
	require.True(t, ok)
	assert.Equal(t, "USD", current.Items[0].Code)
}

func TestConcurrentMutationRejected(t *testing.T) {
	inFlight := make(chan struct{})
	release := make(chan struct{})
	var posts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/currencies/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if posts.Add(1) == 1 {
				close(inFlight)
				<-release
			}
			json.NewEncoder(w).Encode(ledger.Currency{ID: 1, Code: "USD"})
			return
		}
		writeEnvelope(w, 1, []ledger.Currency{{ID: 1, Code: "USD"}})
	})
	st := newCurrencyStore(t, mux)

	firstDone := make(chan error, 1)
	go func() {
		_, err := st.Create(context.Background(), map[string]any{"code": "USD"})
		firstDone <- err
	}()
	<-inFlight

	_, err := st.Create(context.Background(), map[string]any{"code": "EUR"})
	require.ErrorIs(t, err, ledger.ErrConcurrentMutation)

	err = st.Delete(context.Background(), 1)
	require.ErrorIs(t, err, ledger.ErrConcurrentMutation)

	close(release)
	require.NoError(t, <-firstDone)

	// After the first mutation settles, the store accepts new ones.
	_, err = st.Create(context.Background(), map[string]any{"code": "EUR"})
	require.NoError(t, err)
}

func TestDeleteRefreshesListing(t *testing.T) {
	var deleted atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/currencies/", func(w http.ResponseWriter, r *http.Request) {
		if deleted.Load() {
			writeEnvelope(w, 0, nil)
			return
		}
		writeEnvelope(w, 1, []ledger.Currency{{ID: 1, Code: "USD"}})
	})
	mux.HandleFunc("/currencies/1/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		deleted.Store(true)
		w.WriteHeader(http.StatusNoContent)
	})
	st := newCurrencyStore(t, mux)

	_, err := st.List(context.Background())
	require.NoError(t, err)

	require.NoError(t, st.Delete(context.Background(), 1))

	current, ok := st.Current()
	require.True(t, ok)
	assert.Empty(t, current.Items)
}

func TestGetFetchesSingleRecord(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/currencies/7/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ledger.Currency{ID: 7, Code: "JPY"})
	})
	st := newCurrencyStore(t, mux)

	record, err := st.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "JPY", record.Code)
}

func TestSeedClampsPage(t *testing.T) {
	st := newCurrencyStore(t, http.NewServeMux())

	require.NoError(t, st.Seed(store.Query{Page: -3}))
	assert.Equal(t, 1, st.Query().Page)
}

func TestClosedStoreRefusesEverything(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/currencies/", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 0, nil)
	})
	st := newCurrencyStore(t, mux)

	_, err := st.List(context.Background())
	require.NoError(t, err)

	st.Close()
	st.Close() // idempotent

	_, ok := st.Current()
	assert.False(t, ok)
	assert.Equal(t, store.PhaseIdle, st.Phase())

	_, err = st.List(context.Background())
	require.ErrorIs(t, err, ledger.ErrStoreClosed)
	_, err = st.Create(context.Background(), map[string]any{})
	require.ErrorIs(t, err, ledger.ErrStoreClosed)
	_, err = st.Update(context.Background(), 1, map[string]any{})
	require.ErrorIs(t, err, ledger.ErrStoreClosed)
	err = st.Delete(context.Background(), 1)
	require.ErrorIs(t, err, ledger.ErrStoreClosed)
	_, err = st.Get(context.Background(), 1)
	require.ErrorIs(t, err, ledger.ErrStoreClosed)
	err = st.Seed(store.Query{Page: 1})
	require.ErrorIs(t, err, ledger.ErrStoreClosed)
}

func TestCloseCancelsInFlightListing(t *testing.T) {
	started := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/currencies/", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	})
	st := newCurrencyStore(t, mux)

	done := make(chan error, 1)
	go func() {
		_, err := st.List(context.Background())
		done <- err
	}()
	<-started

	st.Close()
	require.ErrorIs(t, <-done, ledger.ErrStoreClosed)
}

func TestNewNormalizesPath(t *testing.T) {
	api, err := transport.New(transport.Config{BaseURL: "http://example.test/api/v1"})
	require.NoError(t, err)

	st, err := store.New[ledger.Currency](api, store.Descriptor{Path: "currencies"})
	require.NoError(t, err)
	defer st.Close()

	assert.Equal(t, "/currencies/", st.Descriptor().Path)
	assert.Equal(t, store.DefaultPageSize, st.Descriptor().PageSize)
}

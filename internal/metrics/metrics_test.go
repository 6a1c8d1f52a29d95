package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector

	c.ObserveList("currencies", OutcomeOK, time.Millisecond)
	c.ObserveMutation("currencies", MutationCreate, OutcomeOK)
	c.ObserveUnauthorized()
	c.ObserveRefdataLookup("currencies", true)

	families, err := c.Gather()
	require.NoError(t, err)
	assert.Nil(t, families)
	assert.NotNil(t, c.Handler())
}

func TestObservationsAreRecorded(t *testing.T) {
	c := NewCollector()

	c.ObserveList("currencies", OutcomeOK, 10*time.Millisecond)
	c.ObserveList("currencies", OutcomeStale, time.Millisecond)
	c.ObserveMutation("advance-payments", MutationUpdate, OutcomeError)
	c.ObserveUnauthorized()
	c.ObserveRefdataLookup("employees", false)

	families, err := c.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["ledgerdesk_list_total"])
	assert.True(t, names["ledgerdesk_list_duration_seconds"])
	assert.True(t, names["ledgerdesk_stale_listings_discarded_total"])
	assert.True(t, names["ledgerdesk_mutation_total"])
	assert.True(t, names["ledgerdesk_unauthorized_total"])
	assert.True(t, names["ledgerdesk_refdata_lookups_total"])
}

func TestHandlerServesMetrics(t *testing.T) {
	c := NewCollector()
	c.ObserveList("currencies", OutcomeOK, time.Millisecond)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "ledgerdesk_list_total")
}

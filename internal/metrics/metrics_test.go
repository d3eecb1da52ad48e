package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStatusClass(t *testing.T) {
	cases := map[int]string{
		0:   "network",
		101: "1xx",
		200: "2xx",
		204: "2xx",
		304: "3xx",
		401: "4xx",
		503: "5xx",
	}
	for status, want := range cases {
		assert.Equal(t, want, StatusClass(status), "status %d", status)
	}
}

func TestObserveRequest(t *testing.T) {
	counter := RequestsTotal.WithLabelValues("metrics-test", "POST", "4xx")
	before := testutil.ToFloat64(counter)

	ObserveRequest("metrics-test", "POST", 404, 15*time.Millisecond)
	ObserveRequest("metrics-test", "POST", 409, 20*time.Millisecond)

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestCacheHit(t *testing.T) {
	hits := testutil.ToFloat64(CacheLookupsTotal.WithLabelValues("hit"))
	misses := testutil.ToFloat64(CacheLookupsTotal.WithLabelValues("miss"))

	CacheHit(true)
	CacheHit(false)
	CacheHit(false)

	assert.Equal(t, hits+1, testutil.ToFloat64(CacheLookupsTotal.WithLabelValues("hit")))
	assert.Equal(t, misses+2, testutil.ToFloat64(CacheLookupsTotal.WithLabelValues("miss")))
}

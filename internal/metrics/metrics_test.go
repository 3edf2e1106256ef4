package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAwardCounters(t *testing.T) {
	before := testutil.ToFloat64(awards.WithLabelValues("POST_PR", "capped"))
	beforeSum := testutil.ToFloat64(credited.WithLabelValues("POST_PR"))

	Award("POST_PR", "capped", 5)
	Award("POST_PR", "capped", 0)

	assert.Equal(t, before+2, testutil.ToFloat64(awards.WithLabelValues("POST_PR", "capped")))
	assert.Equal(t, beforeSum+5, testutil.ToFloat64(credited.WithLabelValues("POST_PR")))
}

func TestStoreAndCacheCounters(t *testing.T) {
	ok := testutil.ToFloat64(storeCalls.WithLabelValues("read_pool_row", "ok"))
	bad := testutil.ToFloat64(storeCalls.WithLabelValues("read_pool_row", "error"))
	ObserveStoreCall("read_pool_row", time.Millisecond, nil)
	ObserveStoreCall("read_pool_row", time.Millisecond, errors.New("x"))
	assert.Equal(t, ok+1, testutil.ToFloat64(storeCalls.WithLabelValues("read_pool_row", "ok")))
	assert.Equal(t, bad+1, testutil.ToFloat64(storeCalls.WithLabelValues("read_pool_row", "error")))

	hits := testutil.ToFloat64(cacheLookups.WithLabelValues("accounts", "hit"))
	CacheLookup("accounts", true)
	assert.Equal(t, hits+1, testutil.ToFloat64(cacheLookups.WithLabelValues("accounts", "hit")))
}

func TestHandlerExposesPoolGauges(t *testing.T) {
	Pool(0.25, 1075)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "award_pool_multiplier 0.25"))
	assert.True(t, strings.Contains(body, "award_pool_hour_awarding_so_far 1075"))
}

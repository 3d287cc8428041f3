package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveQuery(t *testing.T) {
	before := testutil.CollectAndCount(StoreQueryDuration)
	ObserveQuery("metrics_test_probe", time.Now(), "ok")
	assert.Equal(t, before+1, testutil.CollectAndCount(StoreQueryDuration))
}

func TestSearchesTotal(t *testing.T) {
	c := SearchesTotal.WithLabelValues("test", "matched")
	before := testutil.ToFloat64(c)
	c.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

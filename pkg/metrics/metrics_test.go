package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counts(t *testing.T) {
	c := NewCollector()
	c.ObserveCase("Small", "exact")
	c.ObserveCase("Small", "exact")
	c.ObserveCase("Small", "approximate")
	c.ObserveProcess("solver", 15*time.Millisecond)
	c.SetAccuracy("Small", 0.667)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.CasesTotal.WithLabelValues("Small", "exact")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CasesTotal.WithLabelValues("Small", "approximate")))
	assert.Equal(t, 0.667, testutil.ToFloat64(c.GroupAccuracy.WithLabelValues("Small")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.ProcessDuration))
}

func TestCollector_Encode(t *testing.T) {
	c := NewCollector()
	c.ObserveCase("Dense", "exact")
	c.SetAccuracy("Dense", 1)

	var sb strings.Builder
	require.NoError(t, c.Encode(&sb))
	text := sb.String()
	assert.Contains(t, text, "# TYPE mdstval_cases_total counter")
	assert.Contains(t, text, `mdstval_cases_total{group="Dense",verdict="exact"} 1`)
	assert.Contains(t, text, `mdstval_group_accuracy{group="Dense"} 1`)
}

func TestCollector_Nil(t *testing.T) {
	var c *Collector
	c.ObserveCase("g", "exact")
	c.ObserveProcess("solver", time.Second)
	c.SetAccuracy("g", 1)

	var sb strings.Builder
	assert.NoError(t, c.Encode(&sb))
	assert.Empty(t, sb.String())
}

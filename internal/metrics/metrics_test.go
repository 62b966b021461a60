package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome("", nil))
	assert.Equal(t, "error", Outcome("", errors.New("boom")))
	assert.Equal(t, "safety_blocked", Outcome("safety_blocked", errors.New("blocked")))
}

func TestProviderCallsTotal(t *testing.T) {
	c := ProviderCallsTotal.WithLabelValues(OpTranslate, "ok")
	before := testutil.ToFloat64(c)

	c.Inc()

	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

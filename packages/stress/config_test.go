package stress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate(), "url is required")

	cfg.URL = "http://forum/api/v1/threads"
	assert.NoError(t, cfg.Validate())

	bad := *cfg
	bad.Count = 0
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Rate = -1
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Concurrency = 0
	assert.Error(t, bad.Validate())
}

func TestParseThresholds(t *testing.T) {
	th, err := ParseThresholds("p95<200ms, p99<1s, errors<1.5%")
	require.NoError(t, err)

	assert.Equal(t, 200*time.Millisecond, th.P95)
	assert.Equal(t, time.Second, th.P99)
	assert.InDelta(t, 0.015, th.ErrorRate, 1e-9)
	assert.True(t, th.HasThresholds())
}

func TestParseThresholds_Empty(t *testing.T) {
	th, err := ParseThresholds("")
	require.NoError(t, err)
	assert.False(t, th.HasThresholds())
}

func TestParseThresholds_Invalid(t *testing.T) {
	for _, s := range []string{"p95=200ms", "p95<fast", "errors<lots", "p42<1s"} {
		_, err := ParseThresholds(s)
		assert.Error(t, err, s)
	}
}

func TestParseThresholds_FractionalErrorRate(t *testing.T) {
	th, err := ParseThresholds("error_rate<0.05")
	require.NoError(t, err)
	assert.InDelta(t, 0.05, th.ErrorRate, 1e-9)
}

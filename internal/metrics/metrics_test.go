package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementStarted()
	m.IncrementCallback("presentation_verified")
	m.IncrementCallerCallback("failed")
	m.ObserveNotification("callback_completed", nil)
	m.ObserveNotification("callback_completed", errors.New("x"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PresentationsStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CallbacksReceived.WithLabelValues("presentation_verified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CallerCallbacks.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("callback_completed", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("callback_completed", "failed")))
}

func TestTrackRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.TrackRequests(func() int { return 7 })

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "vid_verifier_tracked_requests" {
			found = true
			assert.Equal(t, 7.0, f.GetMetric()[0].GetGauge().GetValue())
		}
	}
	assert.True(t, found)
}

package radio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoScanReturnsWiFiOnly(t *testing.T) {
	d := NewDemo(7, nil)
	obs, err := d.Scan(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, obs)
	for _, o := range obs {
		assert.Equal(t, MediumWiFi, o.Medium)
		require.NotNil(t, o.WiFi)
		assert.NotZero(t, o.WiFi.Channel)
	}
}

func TestDemoStreamIncludesTarget(t *testing.T) {
	target := MustParseAddress("DE:AD:BE:EF:00:01")
	d := NewDemo(7, &target)
	assert.Contains(t, d.Devices(), target)
	assert.Len(t, d.Devices(), len(demoTemplates)+1)

	seen := make(chan Observation, 64)
	require.NoError(t, d.Start(func(o Observation) {
		select {
		case seen <- o:
		default:
		}
	}))
	defer d.Stop()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case o := <-seen:
			assert.Equal(t, MediumBLE, o.Medium)
			assert.True(t, o.HasPayload())
			if o.Address == target {
				return
			}
		case <-deadline:
			t.Fatal("target never advertised")
		}
	}
}

func TestDemoScanHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDemo(1, nil).Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

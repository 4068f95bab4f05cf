package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestRealClockNow(t *testing.T) {
	before := time.Now()
	now := Real{}.Now()
	assert.False(t, now.Before(before))
}

func TestMockAdvanceFiresAfter(t *testing.T) {
	c := NewMock(epoch)
	ch := c.After(time.Second)

	c.Advance(500 * time.Millisecond)
	select {
	case <-ch:
		t.Fatal("fired early")
	default:
	}

	c.Advance(500 * time.Millisecond)
	select {
	case got := <-ch:
		assert.Equal(t, epoch.Add(time.Second), got)
	default:
		t.Fatal("did not fire at deadline")
	}
}

func TestMockTicker(t *testing.T) {
	c := NewMock(epoch)
	tk := c.NewTicker(100 * time.Millisecond)

	c.Advance(100 * time.Millisecond)
	<-tk.C()

	tk.Stop()
	c.Advance(time.Second)
	select {
	case <-tk.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestMockSleepAdvances(t *testing.T) {
	c := NewMock(epoch)
	c.Sleep(200 * time.Millisecond)
	c.Sleep(150 * time.Millisecond)

	assert.Equal(t, []time.Duration{200 * time.Millisecond, 150 * time.Millisecond}, c.Sleeps())
	assert.Equal(t, 350*time.Millisecond, c.Since(epoch))
}

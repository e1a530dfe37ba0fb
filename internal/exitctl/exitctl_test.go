package exitctl

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArm_IsMonotonic(t *testing.T) {
	c := New()
	assert.Equal(t, Running, c.State())

	assert.True(t, c.Arm())
	assert.False(t, c.Arm())
	assert.True(t, c.Armed())
	assert.Equal(t, ExitArmed, c.State())
	assert.False(t, c.Terminated())
}

func TestScheduleExit_TerminatesAfterDelay(t *testing.T) {
	c := New()
	start := time.Now()

	require.True(t, c.ScheduleExit(30*time.Millisecond))
	assert.True(t, c.Armed())
	assert.False(t, c.Terminated())

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("scheduled exit never fired")
	}
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, 0, c.Code())
}

func TestScheduleExit_Idempotent(t *testing.T) {
	c := New()
	require.True(t, c.ScheduleExit(20*time.Millisecond))
	assert.False(t, c.ScheduleExit(time.Hour))

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("second ScheduleExit replaced the first timer")
	}
}

func TestTerminate_FiresOnceFirstCodeWins(t *testing.T) {
	c := New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Terminate(3)
		}()
	}
	wg.Wait()
	c.Terminate(9)

	assert.True(t, c.Terminated())
	assert.True(t, c.Armed())
	assert.Equal(t, 3, c.Code())
}

func TestTerminate_CancelsScheduledExit(t *testing.T) {
	c := New()
	c.ScheduleExit(10 * time.Millisecond)
	c.Terminate(2)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 2, c.Code())
}

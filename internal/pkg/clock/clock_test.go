package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeAdvanceFiresDueTimers(t *testing.T) {
	start := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	fake := NewFake(start)

	soon := fake.After(10 * time.Second)
	later := fake.After(time.Minute)

	fake.Advance(10 * time.Second)
	select {
	case at := <-soon:
		assert.Equal(t, start.Add(10*time.Second), at)
	default:
		t.Fatal("timer due at the new time did not fire")
	}
	select {
	case <-later:
		t.Fatal("timer not yet due fired early")
	default:
	}

	fake.Advance(time.Minute)
	select {
	case at := <-later:
		require.Equal(t, start.Add(70*time.Second), at)
	default:
		t.Fatal("later timer should fire after second advance")
	}

	assert.Equal(t, start.Add(70*time.Second), fake.Now())
}

func TestFakeAfterNonPositive(t *testing.T) {
	fake := NewFake(time.Now())
	select {
	case <-fake.After(0):
	default:
		t.Fatal("zero-duration timer should fire immediately")
	}
}

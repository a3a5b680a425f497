package backoff

import (
	"testing"
	"time"
)

func TestDurationStaysBelowMaximum(t *testing.T) {
	for i := 0; i < 20; i++ {
		d := Duration(int64(i), 1*time.Microsecond, 1*time.Second)
		if d > 1*time.Second {
			t.Errorf("retries %d: backoff %s exceeds maximum", i, d)
		}
	}
}

func TestDurationZeroForNonPositiveInput(t *testing.T) {
	if d := Duration(0, time.Millisecond, time.Second); d != 0 {
		t.Errorf("expected zero backoff for zero retries, got %s", d)
	}
	if d := Duration(3, 0, time.Second); d != 0 {
		t.Errorf("expected zero backoff for zero slot time, got %s", d)
	}
}

func TestDurationConverges(t *testing.T) {
	var testTimes = []time.Duration{
		time.Millisecond,
		time.Microsecond,
		time.Nanosecond,
	}
	for _, testTime := range testTimes {
		var i = int64(0)
		for {
			d := Duration(i, testTime, 1*time.Second)
			i += 1
			if d >= 1*time.Second {
				t.Logf("%s slot converged after %d iterations", testTime, i)
				break
			}
			if i > 128 {
				t.Fatalf("%s slot did not converge", testTime)
			}
		}
	}
}

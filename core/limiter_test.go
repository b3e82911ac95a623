package core

import (
	"errors"
	"sync"
	"testing"
)

func TestModelLimiter(t *testing.T) {
	ml := NewModelLimiter(2)
	if err := ml.Increment(); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := ml.Increment(); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if err := ml.Increment(); !errors.Is(err, ErrCallLimitExceeded) {
		t.Fatalf("expected ErrCallLimitExceeded, got %v", err)
	}
	if ml.Count() != 2 || ml.Remaining() != 0 {
		t.Fatalf("count=%d remaining=%d", ml.Count(), ml.Remaining())
	}
}

func TestModelLimiter_Unlimited(t *testing.T) {
	ml := NewModelLimiter(0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ml.Increment()
		}()
	}
	wg.Wait()

	if ml.Count() != 50 || ml.Remaining() != -1 {
		t.Fatalf("count=%d remaining=%d", ml.Count(), ml.Remaining())
	}
}

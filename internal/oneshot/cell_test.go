package oneshot

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCellFirstOutcomeWins(t *testing.T) {
	tests := []struct {
		name      string
		complete  func(c *Cell[int])
		wantValue int
		wantErr   bool
	}{
		{
			name: "value then value",
			complete: func(c *Cell[int]) {
				c.Resolve(1)
				c.Resolve(2)
			},
			wantValue: 1,
		},
		{
			name: "value then error",
			complete: func(c *Cell[int]) {
				c.Resolve(7)
				c.Reject(errors.New("late failure"))
			},
			wantValue: 7,
		},
		{
			name: "error then value",
			complete: func(c *Cell[int]) {
				c.Reject(errors.New("boom"))
				c.Resolve(3)
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New[int]()
			tt.complete(c)
			got, err := c.Wait(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Wait() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.wantValue {
				t.Fatalf("Wait() = %d, want %d", got, tt.wantValue)
			}
		})
	}
}

func TestCellReportsWinner(t *testing.T) {
	c := New[string]()
	if !c.Resolve("first") {
		t.Fatalf("expected first resolve to complete the cell")
	}
	if c.Resolve("second") {
		t.Fatalf("expected second resolve to be dropped")
	}
	if c.Reject(errors.New("third")) {
		t.Fatalf("expected reject after completion to be dropped")
	}
	if !c.Completed() {
		t.Fatalf("expected cell to be completed")
	}
}

func TestCellConcurrentCompletions(t *testing.T) {
	c := New[int]()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				if c.Resolve(i) {
					wins.Add(1)
				}
				return
			}
			if c.Reject(errors.New("odd")) {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins.Load())
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := c.Wait(ctx); errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the winning outcome to be readable")
	}
}

func TestCellWaitHonoursContext(t *testing.T) {
	c := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := c.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	// A completion after the waiter left must not block.
	if !c.Resolve(1) {
		t.Fatalf("expected resolve to complete the cell")
	}
}

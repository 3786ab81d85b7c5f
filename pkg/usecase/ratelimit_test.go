package usecase_test

import (
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/crewpulse/pkg/usecase"
)

func TestManualLimiter_Remaining(t *testing.T) {
	clk := quartz.NewMock(t)
	limiter := usecase.NewManualLimiter(3, clk)

	gt.Number(t, limiter.Remaining()).Equal(3)

	gt.Bool(t, limiter.TryAcquire()).True()
	gt.Number(t, limiter.Remaining()).Equal(2)

	gt.Bool(t, limiter.TryAcquire()).True()
	gt.Bool(t, limiter.TryAcquire()).True()
	gt.Number(t, limiter.Remaining()).Equal(0)

	// A spent window rejects without going negative
	gt.Bool(t, limiter.TryAcquire()).False()
	gt.Number(t, limiter.Remaining()).Equal(0)
}

func TestManualLimiter_WindowSlides(t *testing.T) {
	clk := quartz.NewMock(t)
	limiter := usecase.NewManualLimiter(2, clk)

	gt.Bool(t, limiter.TryAcquire()).True()
	clk.Advance(30 * time.Minute)
	gt.Bool(t, limiter.TryAcquire()).True()
	gt.Number(t, limiter.Remaining()).Equal(0)

	// First call leaves the window after one hour
	clk.Advance(31 * time.Minute)
	gt.Number(t, limiter.Remaining()).Equal(1)

	clk.Advance(30 * time.Minute)
	gt.Number(t, limiter.Remaining()).Equal(2)
}

func TestManualLimiter_ResetIn(t *testing.T) {
	clk := quartz.NewMock(t)
	limiter := usecase.NewManualLimiter(5, clk)

	// Empty log means no reset pending
	gt.Value(t, limiter.ResetIn()).Equal(time.Duration(0))

	gt.Bool(t, limiter.TryAcquire()).True()
	gt.Value(t, limiter.ResetIn()).Equal(time.Hour)

	clk.Advance(20 * time.Minute)
	gt.Value(t, limiter.ResetIn()).Equal(40 * time.Minute)

	// Oldest surviving entry governs the reset
	gt.Bool(t, limiter.TryAcquire()).True()
	gt.Value(t, limiter.ResetIn()).Equal(40 * time.Minute)

	clk.Advance(41 * time.Minute)
	gt.Value(t, limiter.ResetIn()).Equal(19 * time.Minute)

	clk.Advance(40 * time.Minute)
	gt.Value(t, limiter.ResetIn()).Equal(time.Duration(0))
}

func TestManualLimiter_QuotaInvariant(t *testing.T) {
	clk := quartz.NewMock(t)
	const max = 4
	limiter := usecase.NewManualLimiter(max, clk)

	acquired := 0
	for i := 0; i < 6; i++ {
		if limiter.TryAcquire() {
			acquired++
		}
		// remaining + in-window calls == max, always
		gt.Number(t, limiter.Remaining()+acquired).Equal(max)
		clk.Advance(time.Minute)
	}
	gt.Number(t, acquired).Equal(max)
}

func TestManualLimiter_ConcurrentAcquire(t *testing.T) {
	clk := quartz.NewMock(t)
	const max = 3
	const callers = 10
	limiter := usecase.NewManualLimiter(max, clk)

	start := make(chan struct{})
	results := make(chan bool, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results <- limiter.TryAcquire()
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	acquired := 0
	for ok := range results {
		if ok {
			acquired++
		}
	}
	gt.Number(t, acquired).Equal(max)
	gt.Number(t, limiter.Remaining()).Equal(0)
}

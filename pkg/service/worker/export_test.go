package worker

import "time"

// Export internals for testing

func (w *StatusRefreshWorker) NextDelay(current time.Duration, err error) time.Duration {
	return w.nextDelay(current, err)
}

const MaxBackoff = maxBackoff

package utils

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"go.viam.com/eeprom93cx6/logging"
)

// SlowLogger starts a goroutine that warns every few seconds until the returned func is called or
// the context is done. The first warning comes after 2s, the next after 3s, then every 5s.
func SlowLogger(
	ctx context.Context,
	clk clock.Clock,
	msg string,
	logger logging.Logger,
	keysAndValues ...interface{},
) func() {
	slowTicker := clk.Ticker(2 * time.Second)
	firstTick := true

	ctxWithCancel, cancel := context.WithCancel(ctx)
	startTime := clk.Now()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-slowTicker.C:
				elapsed := clk.Since(startTime).Round(time.Second).String()
				if firstTick {
					slowTicker.Reset(3 * time.Second)
					firstTick = false
				} else {
					slowTicker.Reset(5 * time.Second)
				}
				logger.Warnw(msg, append(keysAndValues, "time_elapsed", elapsed)...)
			case <-ctxWithCancel.Done():
				return
			}
		}
	}()
	return func() {
		slowTicker.Stop()
		cancel()
		<-done
	}
}

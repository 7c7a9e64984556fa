package interrupt

import (
	"context"
	"os"
	"os/signal"
)

// Returns a context that is cancelled as soon as any of signals arrives.
// Calling the returned CancelFunc stops listening for them.
func WithAnySignal(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, signals...)
	go func() {
		select {
		case <-sigs:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigs)
		cancel()
	}
}

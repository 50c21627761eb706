//go:build !windows

package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SIGUSR1 sends the display to the background, SIGUSR2 brings it back.
var signalStates = map[os.Signal]AppState{
	syscall.SIGUSR1: StateBackground,
	syscall.SIGUSR2: StateActive,
}

// WatchSignals publishes host signals to hub until ctx ends or stop is called.
func WatchSignals(ctx context.Context, hub *Hub) (stop func()) {
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, syscall.SIGUSR1, syscall.SIGUSR2)

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-ch:
				if state, ok := signalState(sig); ok {
					hub.Publish(state)
				}
			}
		}
	}()
	return cancel
}

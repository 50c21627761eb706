//go:build windows

package lifecycle

import (
	"context"
	"os"
)

var signalStates = map[os.Signal]AppState{}

// WatchSignals is a no-op on Windows, which has no user signals.
func WatchSignals(_ context.Context, _ *Hub) (stop func()) {
	return func() {}
}

package filewatcher

import (
	"context"
	"time"

	"github.com/0xcro3dile/islandguide/internal/domain/ports"
)

// Debounce calls fn once the event stream has been quiet for quiet, so a
// burst of saves produces one call. It returns when ctx is done or events
// is closed; a pending call is dropped.
func Debounce(ctx context.Context, events <-chan ports.FileEvent, quiet time.Duration, fn func(ctx context.Context)) {
	var (
		timer *time.Timer
		fire  <-chan time.Time // nil while nothing is pending
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			if timer == nil {
				timer = time.NewTimer(quiet)
			} else {
				timer.Reset(quiet)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			fn(ctx)
		}
	}
}

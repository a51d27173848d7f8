// Package retry provides bounded retries for operations subject to GCP
// eventual consistency, such as service-account materialization and
// freshly enabled APIs. All other failures are terminal for the caller.
package retry

import (
	"context"
	"time"

	"github.com/googleapis/gax-go/v2"
)

// Policy bounds a retry loop.
type Policy struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// Propagation is the default policy for provider-side propagation delays.
var Propagation = Policy{
	Attempts:     8,
	InitialDelay: 5 * time.Second,
	MaxDelay:     15 * time.Second,
}

// Do runs fn up to p.Attempts times, sleeping with gax backoff between
// attempts. The last error is returned when every attempt fails. Context
// cancellation stops the loop early.
func Do(ctx context.Context, p Policy, fn func() error) error {
	bo := gax.Backoff{
		Initial:    p.InitialDelay,
		Max:        p.MaxDelay,
		Multiplier: 1.5,
	}

	var err error
	for attempt := 0; attempt < p.Attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == p.Attempts-1 {
			break
		}
		if sleepErr := gax.Sleep(ctx, bo.Pause()); sleepErr != nil {
			return sleepErr
		}
	}
	return err
}

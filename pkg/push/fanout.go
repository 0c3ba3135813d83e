package push

import (
	"context"
	"errors"
	"fmt"
)

// Fanout delivers each message through every configured dispatcher.
// It fails if any underlying send fails, so callers treat the message
// as undelivered and retry on the next run.
type Fanout struct {
	dispatchers []Dispatcher
}

// NewFanout combines dispatchers into one. At least one is required.
func NewFanout(dispatchers ...Dispatcher) (*Fanout, error) {
	if len(dispatchers) == 0 {
		return nil, errors.New("fanout requires at least one dispatcher")
	}
	return &Fanout{dispatchers: dispatchers}, nil
}

func (f *Fanout) Name() string { return "fanout" }

func (f *Fanout) Send(ctx context.Context, token string, msg Message) error {
	var errs []error
	for _, d := range f.dispatchers {
		if err := d.Send(ctx, token, msg); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.Name(), err))
		}
	}
	return errors.Join(errs...)
}

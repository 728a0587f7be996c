package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllStrategiesFailed is returned by FirstSuccess when no strategy produced
// an acceptable result.
var ErrAllStrategiesFailed = errors.New("all strategies failed")

// Strategy is one capability-equivalent way of producing a T.
type Strategy[T any] struct {
	Name    string
	Attempt func(ctx context.Context) (T, error)
}

// FirstSuccess runs strategies in order and returns the first result that
// accept approves, along with the winning strategy's name. Failures and
// rejected results are logged and the next strategy is tried. accept may be nil.
func FirstSuccess[T any](ctx context.Context, op string, strategies []Strategy[T], accept func(T) error) (T, string, error) {
	var zero T
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}

		out, err := s.Attempt(ctx)
		if err == nil && accept != nil {
			err = accept(out)
		}
		if err == nil {
			slog.Debug("strategy succeeded", slog.String("op", op), slog.String("strategy", s.Name))
			return out, s.Name, nil
		}
		slog.Warn("strategy failed, trying next",
			slog.String("op", op), slog.String("strategy", s.Name), slog.Any("error", err))
	}
	return zero, "", fmt.Errorf("%s: %w", op, ErrAllStrategiesFailed)
}

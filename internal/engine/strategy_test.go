package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstSuccess(t *testing.T) {
	var called []string
	mk := func(name, out string, err error) Strategy[string] {
		return Strategy[string]{Name: name, Attempt: func(context.Context) (string, error) {
			called = append(called, name)
			return out, err
		}}
	}
	minLen := func(s string) error {
		if len(s) < 5 {
			return errors.New("too short")
		}
		return nil
	}

	t.Run("first acceptable wins and later ones are skipped", func(t *testing.T) {
		called = nil
		out, name, err := FirstSuccess(context.Background(), "test", []Strategy[string]{
			mk("a", "", errors.New("down")),
			mk("b", "abc", nil),
			mk("c", "abcdef", nil),
			mk("d", "never", nil),
		}, minLen)
		require.NoError(t, err)
		assert.Equal(t, "abcdef", out)
		assert.Equal(t, "c", name)
		assert.Equal(t, []string{"a", "b", "c"}, called)
	})

	t.Run("all fail", func(t *testing.T) {
		called = nil
		_, _, err := FirstSuccess(context.Background(), "test", []Strategy[string]{
			mk("a", "", errors.New("down")),
		}, nil)
		assert.ErrorIs(t, err, ErrAllStrategiesFailed)
	})

	t.Run("canceled context stops the chain", func(t *testing.T) {
		called = nil
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := FirstSuccess(ctx, "test", []Strategy[string]{mk("a", "abcdef", nil)}, nil)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, called)
	})
}

func TestCollapseSpaces(t *testing.T) {
	assert.Equal(t, "a b c", CollapseSpaces("  a\n\tb   c "))
}

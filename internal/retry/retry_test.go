package retry

import (
	"errors"
	"testing"

	"github.com/avast/retry-go/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Do(t *testing.T) {
	errTemporary := errors.New("temporary")
	errPermanent := errors.New("permanent")

	fast := func(check func(error) bool) Config[int] {
		return Config[int]{
			If:      check,
			Options: []retry.Option{retry.Attempts(3), retry.Delay(0), retry.LastErrorOnly(true)},
		}
	}

	t.Run("should retry until success", func(t *testing.T) {
		calls := 0
		v, err := fast(nil).Do(func() (int, error) {
			calls++
			if calls < 3 {
				return 0, errTemporary
			}
			return 42, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 42, v)
		assert.Equal(t, 3, calls)
	})

	t.Run("should stop when the error is not retryable", func(t *testing.T) {
		calls := 0
		_, err := fast(func(err error) bool { return !errors.Is(err, errPermanent) }).Do(func() (int, error) {
			calls++
			return 0, errPermanent
		})

		require.ErrorIs(t, err, errPermanent)
		assert.Equal(t, 1, calls)
	})
}

func TestOnErrorConfig(t *testing.T) {
	t.Run("should carry attempts and default options", func(t *testing.T) {
		cfg := OnErrorConfig[string](5, nil)
		assert.Len(t, cfg.Options, 1+len(DefaultOptions))
	})
}

package rag_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/catalogqa"
	"github.com/fwojciec/catalogqa/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	t.Parallel()

	t.Run("returns first success", func(t *testing.T) {
		t.Parallel()

		calls := 0
		v, err := rag.WithRetry(context.Background(), func(context.Context) (string, error) {
			calls++
			return "ok", nil
		}, rag.Retryable, []time.Duration{0, 0}, nil)

		require.NoError(t, err)
		assert.Equal(t, "ok", v)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries retryable errors until success", func(t *testing.T) {
		t.Parallel()

		calls := 0
		var logged []string
		v, err := rag.WithRetry(context.Background(), func(context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, catalogqa.Errorf(catalogqa.ETIMEOUT, "slow")
			}
			return 42, nil
		}, rag.Retryable, []time.Duration{0, 0, 0}, func(format string, args ...any) {
			logged = append(logged, format)
		})

		require.NoError(t, err)
		assert.Equal(t, 42, v)
		assert.Equal(t, 3, calls)
		assert.Len(t, logged, 2)
	})

	t.Run("returns last error after exhausting delays", func(t *testing.T) {
		t.Parallel()

		calls := 0
		_, err := rag.WithRetry(context.Background(), func(context.Context) (int, error) {
			calls++
			return 0, catalogqa.Errorf(catalogqa.EFETCH, "attempt %d", calls)
		}, rag.Retryable, rag.RetryOnce(), nil)

		require.Error(t, err)
		assert.Equal(t, 2, calls)
		assert.Equal(t, "attempt 2", catalogqa.ErrorMessage(err))
	})

	t.Run("stops on permanent errors", func(t *testing.T) {
		t.Parallel()

		calls := 0
		_, err := rag.WithRetry(context.Background(), func(context.Context) (int, error) {
			calls++
			return 0, errors.New("permanent")
		}, rag.Retryable, []time.Duration{0, 0}, nil)

		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops when context is canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, err := rag.WithRetry(ctx, func(context.Context) (int, error) {
			calls++
			cancel()
			return 0, catalogqa.Errorf(catalogqa.ETIMEOUT, "slow")
		}, rag.Retryable, []time.Duration{time.Hour}, nil)

		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	assert.True(t, rag.Retryable(catalogqa.Errorf(catalogqa.ETIMEOUT, "x")))
	assert.True(t, rag.Retryable(catalogqa.Errorf(catalogqa.EFETCH, "x")))
	assert.True(t, rag.Retryable(context.DeadlineExceeded))
	assert.False(t, rag.Retryable(catalogqa.Errorf(catalogqa.EEXTRACT, "x")))
	assert.False(t, rag.Retryable(errors.New("x")))
}

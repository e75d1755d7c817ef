package main_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	main "github.com/fwojciec/catalogqa/cmd/catalogqa"
	"github.com/fwojciec/catalogqa/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurgeCmd_Run(t *testing.T) {
	t.Parallel()

	// seed writes one key at an old time and one now, so only the first
	// has expired.
	seed := func(t *testing.T) *sqlite.Cache {
		t.Helper()

		db := sqlite.NewDB(":memory:")
		require.NoError(t, db.Open())
		t.Cleanup(func() { db.Close() })

		now := time.Now()
		old := sqlite.NewCache(db, sqlite.WithTTL(time.Hour), sqlite.WithClock(func() time.Time {
			return now.Add(-2 * time.Hour)
		}))
		ctx := context.Background()
		require.NoError(t, old.Set(ctx, "page:https://a.edu/old", "content", []byte("old")))

		cache := sqlite.NewCache(db, sqlite.WithTTL(time.Hour))
		require.NoError(t, cache.Set(ctx, "page:https://a.edu/new", "content", []byte("new")))
		return cache
	}

	t.Run("deletes expired entries", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: stdout,
			Stderr: &bytes.Buffer{},
			Cache:  seed(t),
		}

		err := (&main.PurgeCmd{}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "Deleted 1 cache entries, 1 remain (1 fields)\n", stdout.String())
	})

	t.Run("deletes everything with --all", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: stdout,
			Stderr: &bytes.Buffer{},
			Cache:  seed(t),
		}

		err := (&main.PurgeCmd{All: true}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "Deleted 2 cache entries, 0 remain (0 fields)\n", stdout.String())
	})
}

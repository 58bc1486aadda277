package auth

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionVersions(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	impls := map[string]SessionVersions{
		"redis":  NewRedisSessionVersions(client),
		"memory": NewMemorySessionVersions(),
	}

	for name, sessions := range impls {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			version, err := sessions.Current(ctx, "user-1")
			require.NoError(t, err)
			assert.Equal(t, int64(0), version)

			bumped, err := sessions.Bump(ctx, "user-1")
			require.NoError(t, err)
			assert.Equal(t, int64(1), bumped)

			version, err = sessions.Current(ctx, "user-1")
			require.NoError(t, err)
			assert.Equal(t, int64(1), version)

			// Other accounts are unaffected.
			version, err = sessions.Current(ctx, "user-2")
			require.NoError(t, err)
			assert.Equal(t, int64(0), version)
		})
	}
}

package signclient

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStoreSession(topic string) *Session {
	return &Session{
		Topic:        topic,
		Acknowledged: true,
		SymKey:       "aa",
		Namespaces: map[string]SessionNamespace{
			"solana": {
				Accounts: []string{testChain + ":9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"},
				Methods:  []string{"solana_signTransaction", "solana_signMessage"},
			},
		},
	}
}

func runSessionStoreSuite(t *testing.T, store SessionStore) {
	ctx := context.Background()

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	require.NoError(t, store.Put(ctx, testStoreSession("first")))
	require.NoError(t, store.Put(ctx, testStoreSession("second")))
	require.NoError(t, store.Put(ctx, testStoreSession("third")))

	sessions, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	// Insertion order is the resume tie-break order; it must hold.
	assert.Equal(t, "first", sessions[0].Topic)
	assert.Equal(t, "third", sessions[2].Topic)

	require.NoError(t, store.Delete(ctx, "second"))
	sessions, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "first", sessions[0].Topic)
	assert.Equal(t, "third", sessions[1].Topic)

	// Replacing an existing topic must not duplicate it.
	updated := testStoreSession("third")
	updated.Acknowledged = false
	require.NoError(t, store.Put(ctx, updated))
	sessions, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	require.NoError(t, store.Delete(ctx, "missing"))
}

func TestMemoryStore(t *testing.T) {
	runSessionStoreSuite(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer rdb.Close()
	runSessionStoreSuite(t, NewRedisStore(rdb))
}

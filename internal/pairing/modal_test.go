package pairing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRModalLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qr.png")
	modal := NewQRModal("test-project", []string{"solana:4sGjMW1sUnHzSxGspuhpqLDx6wiyjNtZ"}, path)

	var states []ModalState
	unsubscribe := modal.SubscribeModal(func(state ModalState) {
		states = append(states, state)
	})

	require.NoError(t, modal.OpenModal(context.Background(), "wc:topic@2?relay-protocol=irn&symKey=00"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	modal.CloseModal()
	require.Len(t, states, 2)
	assert.True(t, states[0].Open)
	assert.False(t, states[1].Open)

	// Closing an already closed modal must not renotify.
	modal.CloseModal()
	assert.Len(t, states, 2)

	unsubscribe()
	require.NoError(t, modal.OpenModal(context.Background(), "wc:topic@2?relay-protocol=irn&symKey=00"))
	assert.Len(t, states, 2)
}

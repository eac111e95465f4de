package signclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptJSONRpcRoundTrip(t *testing.T) {
	symKey, err := generateRandomBytes(256 / 8)
	require.NoError(t, err)

	payload, err := encryptJSONRpc(`{"id":1,"jsonrpc":"2.0","method":"wc_sessionPropose"}`, symKey)
	require.NoError(t, err)
	require.NotEmpty(t, payload.Data)
	require.NotEmpty(t, payload.IV)
	require.NotEmpty(t, payload.Hmac)

	plain, err := decryptJSONRpc(payload, symKey)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"jsonrpc":"2.0","method":"wc_sessionPropose"}`, plain)
}

func TestDecryptRejectsTamperedHmac(t *testing.T) {
	symKey, err := generateRandomBytes(256 / 8)
	require.NoError(t, err)
	payload, err := encryptJSONRpc(`{"id":2}`, symKey)
	require.NoError(t, err)

	payload.Hmac = "00" + payload.Hmac[2:]
	_, err = decryptJSONRpc(payload, symKey)
	assert.Error(t, err)
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	symKey, err := generateRandomBytes(256 / 8)
	require.NoError(t, err)
	otherKey, err := generateRandomBytes(256 / 8)
	require.NoError(t, err)
	payload, err := encryptJSONRpc(`{"id":3}`, symKey)
	require.NoError(t, err)

	_, err = decryptJSONRpc(payload, otherKey)
	assert.Error(t, err)
}

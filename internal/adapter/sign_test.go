package adapter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"solwc.io/wallet-adapter/internal/signclient"
	"solwc.io/wallet-adapter/pkg/errors"
	"solwc.io/wallet-adapter/pkg/soltx"
)

var (
	testProgramID = soltx.PublicKey{9, 9, 9}
	testBlockhash = soltx.Hash{7, 7, 7}
	testSignature = soltx.Signature{42, 42, 42}
)

func testMessage() soltx.Message {
	return soltx.Message{
		Header: soltx.MessageHeader{
			NumRequiredSignatures:       1,
			NumReadonlyUnsignedAccounts: 1,
		},
		AccountKeys:     []soltx.PublicKey{testPubkey, testProgramID},
		RecentBlockhash: testBlockhash,
		Instructions: []soltx.CompiledInstruction{
			{ProgramIDIndex: 1, Accounts: []uint8{0}, Data: []byte{1, 2, 3}},
		},
	}
}

func connectedAdapter(t *testing.T, client *fakeClient) *Adapter {
	t.Helper()
	client.sessions = []*signclient.Session{testSession("signing-topic")}
	wallet := newTestAdapter(client, newFakeModal())
	_, err := wallet.Connect(context.Background())
	require.NoError(t, err)
	return wallet
}

func signResponse(sig soltx.Signature) json.RawMessage {
	return json.RawMessage(`{"signature":"` + sig.String() + `"}`)
}

func requestParamsJSON(t *testing.T, args signclient.RequestArgs) gjson.Result {
	t.Helper()
	data, err := json.Marshal(args.Request.Params)
	require.NoError(t, err)
	return gjson.ParseBytes(data)
}

func TestSignLegacyTransactionSpreadsCompatFields(t *testing.T) {
	client := &fakeClient{response: signResponse(testSignature)}
	wallet := connectedAdapter(t, client)

	tx := &soltx.Transaction{Message: testMessage()}
	signed, err := wallet.SignTransaction(context.Background(), tx)
	require.NoError(t, err)
	assert.Same(t, tx, signed)
	assert.Equal(t, testSignature, tx.Signatures[0])

	require.Len(t, client.requests, 1)
	args := client.requests[0]
	assert.Equal(t, "signing-topic", args.Topic)
	assert.Equal(t, Mainnet.ChainID(), args.ChainID)
	assert.Equal(t, methodSignTransaction, args.Request.Method)

	params := requestParamsJSON(t, args)
	assert.Equal(t, testPubkey.String(), params.Get("feePayer").String())
	assert.Equal(t, testBlockhash.String(), params.Get("recentBlockhash").String())
	require.Equal(t, int64(1), params.Get("instructions.#").Int())
	assert.Equal(t, testProgramID.String(), params.Get("instructions.0.programId").String())
	assert.Equal(t, base58.Encode([]byte{1, 2, 3}), params.Get("instructions.0.data").String())
	assert.True(t, params.Get("instructions.0.keys.0.isSigner").Bool())
	assert.True(t, params.Get("instructions.0.keys.0.isWritable").Bool())

	// Unsigned serialization must be accepted by the wire encoding.
	expected, err := tx.Serialize(soltx.SerializeConfig{})
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(params.Get("transaction").String())
	require.NoError(t, err)
	// The attached signature is the only difference after signing.
	decoded, err := soltx.TransactionFromBytes(raw)
	require.NoError(t, err)
	assert.True(t, decoded.Signatures[0].IsZero())
	assert.Equal(t, len(expected), len(raw))
}

func TestSignVersionedLegacyTransactionKeepsCompatFields(t *testing.T) {
	client := &fakeClient{response: signResponse(testSignature)}
	wallet := connectedAdapter(t, client)

	tx := &soltx.VersionedTransaction{
		Message: soltx.VersionedMessage{
			Version:         soltx.VersionLegacy,
			Header:          testMessage().Header,
			AccountKeys:     testMessage().AccountKeys,
			RecentBlockhash: testBlockhash,
			Instructions:    testMessage().Instructions,
		},
	}
	signed, err := wallet.SignTransaction(context.Background(), tx)
	require.NoError(t, err)
	assert.Same(t, tx, signed)
	assert.Equal(t, testSignature, tx.Signatures[0])

	params := requestParamsJSON(t, client.requests[0])
	assert.True(t, params.Get("transaction").Exists())
	assert.Equal(t, testPubkey.String(), params.Get("feePayer").String())
	assert.Equal(t, testBlockhash.String(), params.Get("recentBlockhash").String())
}

func TestSignVersionedV0TransactionOmitsCompatFields(t *testing.T) {
	client := &fakeClient{response: signResponse(testSignature)}
	wallet := connectedAdapter(t, client)

	tx := &soltx.VersionedTransaction{
		Message: soltx.VersionedMessage{
			Version:         soltx.Version0,
			Header:          testMessage().Header,
			AccountKeys:     testMessage().AccountKeys,
			RecentBlockhash: testBlockhash,
			Instructions:    testMessage().Instructions,
		},
	}
	_, err := wallet.SignTransaction(context.Background(), tx)
	require.NoError(t, err)

	params := requestParamsJSON(t, client.requests[0])
	assert.True(t, params.Get("transaction").Exists())
	assert.False(t, params.Get("feePayer").Exists())
	assert.False(t, params.Get("recentBlockhash").Exists())
	assert.False(t, params.Get("instructions").Exists())
}

func TestSignTransactionRequiresSession(t *testing.T) {
	wallet := newTestAdapter(&fakeClient{}, newFakeModal())
	_, err := wallet.SignTransaction(context.Background(), &soltx.Transaction{Message: testMessage()})
	assert.True(t, errors.Is(err, ErrNotInitialized))
	_, err = wallet.SignMessage(context.Background(), []byte("x"))
	assert.True(t, errors.Is(err, ErrNotInitialized))
}

func TestSignTransactionPropagatesRequestFailure(t *testing.T) {
	client := &fakeClient{requestErr: errors.New("user rejected request")}
	wallet := connectedAdapter(t, client)

	tx := &soltx.Transaction{Message: testMessage()}
	_, err := wallet.SignTransaction(context.Background(), tx)
	require.EqualError(t, err, "user rejected request")
	assert.True(t, tx.Signatures == nil || tx.Signatures[0].IsZero())
}

func TestSignMessageRoundTrip(t *testing.T) {
	response := soltx.Signature{5, 6, 7, 8}
	client := &fakeClient{response: signResponse(response)}
	wallet := connectedAdapter(t, client)

	sig, err := wallet.SignMessage(context.Background(), []byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, response[:], sig)

	params := requestParamsJSON(t, client.requests[0])
	assert.Equal(t, "StV1DL6CwTryKyV", params.Get("message").String())
	assert.Equal(t, testPubkey.String(), params.Get("pubkey").String())
	assert.Equal(t, methodSignMessage, client.requests[0].Request.Method)
	assert.Equal(t, Mainnet.ChainID(), client.requests[0].ChainID)
}

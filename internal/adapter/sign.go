package adapter

import (
	"context"
	"encoding/base64"

	"github.com/mr-tron/base58"
	"github.com/tidwall/gjson"
	"solwc.io/wallet-adapter/internal/signclient"
	"solwc.io/wallet-adapter/pkg/errors"
	"solwc.io/wallet-adapter/pkg/soltx"
)

// txEnvelope is the one-time resolution of a caller transaction into
// its wire form. legacy is non-nil whenever the deprecated
// backward-compatible fields must accompany the request.
type txEnvelope struct {
	raw    []byte
	legacy *soltx.Transaction
}

func resolveTransaction(tx soltx.SignableTransaction) (*txEnvelope, error) {
	switch t := tx.(type) {
	case *soltx.VersionedTransaction:
		raw, err := t.Serialize()
		if err != nil {
			return nil, errors.Wrap(err, "serialize versioned transaction")
		}
		env := &txEnvelope{raw: raw}
		if t.Version() == soltx.VersionLegacy {
			// Legacy-encoded versioned bytes decode as a plain legacy
			// transaction; rebuild one for the compatibility fields.
			legacy, err := soltx.TransactionFromBytes(raw)
			if err != nil {
				return nil, errors.Wrap(err, "rebuild legacy transaction")
			}
			env.legacy = legacy
		}
		return env, nil
	case *soltx.Transaction:
		// Remote signers accept partially signed payloads and add the
		// missing signature themselves.
		raw, err := t.Serialize(soltx.SerializeConfig{
			RequireAllSignatures: false,
			VerifySignatures:     false,
		})
		if err != nil {
			return nil, errors.Wrap(err, "serialize transaction")
		}
		return &txEnvelope{raw: raw, legacy: t}, nil
	default:
		return nil, errors.Errorf("unsupported transaction type %T", tx)
	}
}

// SignTransaction submits the transaction to the remote signer and
// attaches the returned signature in place. The caller's object is
// returned, now signature-bearing.
func (a *Adapter) SignTransaction(ctx context.Context, tx soltx.SignableTransaction) (soltx.SignableTransaction, error) {
	client, session, err := a.active()
	if err != nil {
		return nil, err
	}
	env, err := resolveTransaction(tx)
	if err != nil {
		return nil, err
	}
	params := make(map[string]interface{})
	if env.legacy != nil {
		for field, value := range env.legacy.LegacyParams() {
			params[field] = value
		}
	}
	// Written after the legacy spread so it wins with signers that
	// read both.
	params["transaction"] = base64.StdEncoding.EncodeToString(env.raw)

	result, err := client.Request(ctx, signclient.RequestArgs{
		Topic:   session.Topic,
		ChainID: a.network.ChainID(),
		Request: signclient.RequestPayload{
			Method: methodSignTransaction,
			Params: params,
		},
	})
	if err != nil {
		return nil, err
	}
	sig, err := soltx.SignatureFromBase58(gjson.GetBytes(result, "signature").String())
	if err != nil {
		return nil, err
	}
	pubkey, err := a.PublicKey()
	if err != nil {
		return nil, err
	}
	if err := tx.AddSignature(pubkey, sig); err != nil {
		return nil, err
	}
	return tx, nil
}

type signMessageParams struct {
	Pubkey  string `json:"pubkey"`
	Message string `json:"message"`
}

// SignMessage asks the remote signer for a signature over raw bytes.
// The chain id rides along for protocol shape only.
func (a *Adapter) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	client, session, err := a.active()
	if err != nil {
		return nil, err
	}
	pubkey, err := a.PublicKey()
	if err != nil {
		return nil, err
	}
	result, err := client.Request(ctx, signclient.RequestArgs{
		Topic:   session.Topic,
		ChainID: a.network.ChainID(),
		Request: signclient.RequestPayload{
			Method: methodSignMessage,
			Params: signMessageParams{
				Pubkey:  pubkey.String(),
				Message: base58.Encode(message),
			},
		},
	})
	if err != nil {
		return nil, err
	}
	sig, err := base58.Decode(gjson.GetBytes(result, "signature").String())
	if err != nil {
		return nil, errors.Wrap(err, "decode base58 signature")
	}
	return sig, nil
}

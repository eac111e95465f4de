package soltx

import (
	"bytes"
	"crypto/ed25519"
	"io"

	"solwc.io/wallet-adapter/pkg/errors"
)

// SignableTransaction is implemented by both transaction encodings. The
// signature is attached in place; callers keep ownership of the object.
type SignableTransaction interface {
	AddSignature(pubkey PublicKey, sig Signature) error
}

// Transaction is the legacy (version-less) transaction encoding.
type Transaction struct {
	Message    Message
	Signatures []Signature
}

// SerializeConfig relaxes the default serialization checks. The zero
// value performs no checks; remote signers accept partially signed or
// unsigned payloads and fill in the missing signature themselves.
type SerializeConfig struct {
	RequireAllSignatures bool
	VerifySignatures     bool
}

func (tx *Transaction) Serialize(cfg SerializeConfig) ([]byte, error) {
	msg := tx.Message.Serialize()
	sigs := tx.Signatures
	if len(sigs) == 0 {
		sigs = make([]Signature, tx.Message.Header.NumRequiredSignatures)
	}
	if len(sigs) != int(tx.Message.Header.NumRequiredSignatures) {
		return nil, errors.Errorf("expected %v signatures, have %v",
			tx.Message.Header.NumRequiredSignatures, len(sigs))
	}
	for i, sig := range sigs {
		if sig.IsZero() {
			if cfg.RequireAllSignatures {
				return nil, errors.Errorf("missing signature for signer %v", tx.Message.AccountKeys[i])
			}
			continue
		}
		if cfg.VerifySignatures {
			key := ed25519.PublicKey(tx.Message.AccountKeys[i][:])
			if !ed25519.Verify(key, msg, sig[:]) {
				return nil, errors.Errorf("invalid signature for signer %v", tx.Message.AccountKeys[i])
			}
		}
	}
	var buf bytes.Buffer
	encodeLength(&buf, len(sigs))
	for _, sig := range sigs {
		buf.Write(sig[:])
	}
	buf.Write(msg)
	return buf.Bytes(), nil
}

// TransactionFromBytes decodes the legacy wire format. The bytes of a
// VersionedTransaction whose message is legacy-encoded decode
// identically, which is what the signing compatibility shim relies on.
func TransactionFromBytes(data []byte) (*Transaction, error) {
	r := bytes.NewReader(data)
	numSigs, err := decodeLength(r)
	if err != nil {
		return nil, err
	}
	tx := &Transaction{Signatures: make([]Signature, numSigs)}
	for i := 0; i < numSigs; i++ {
		if _, err := io.ReadFull(r, tx.Signatures[i][:]); err != nil {
			return nil, errors.Wrap(err, "read signature")
		}
	}
	prefix, err := r.ReadByte()
	if err != nil {
		return nil, errors.Wrap(err, "read message header")
	}
	if prefix&versionPrefixMask != 0 {
		return nil, errors.New("versioned message passed to legacy decoder")
	}
	if err := r.UnreadByte(); err != nil {
		return nil, errors.Wrap(err, "unread message header")
	}
	msg, err := deserializeMessageBody(r)
	if err != nil {
		return nil, err
	}
	tx.Message = *msg
	return tx, nil
}

// AddSignature slots sig at the signer index of pubkey.
func (tx *Transaction) AddSignature(pubkey PublicKey, sig Signature) error {
	index := signerIndex(tx.Message.AccountKeys, tx.Message.Header, pubkey)
	if index < 0 {
		return errors.Errorf("unknown signer %v", pubkey)
	}
	if len(tx.Signatures) < int(tx.Message.Header.NumRequiredSignatures) {
		grown := make([]Signature, tx.Message.Header.NumRequiredSignatures)
		copy(grown, tx.Signatures)
		tx.Signatures = grown
	}
	tx.Signatures[index] = sig
	return nil
}

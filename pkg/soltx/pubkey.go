package soltx

import (
	"github.com/mr-tron/base58"
	"solwc.io/wallet-adapter/pkg/errors"
)

const (
	// PublicKeyLength is the byte length of an ed25519 public key.
	PublicKeyLength = 32
	// SignatureLength is the byte length of an ed25519 signature.
	SignatureLength = 64
)

type PublicKey [PublicKeyLength]byte

func PublicKeyFromBase58(in string) (PublicKey, error) {
	var pk PublicKey
	decoded, err := base58.Decode(in)
	if err != nil {
		return pk, errors.Wrap(err, "decode base58 public key")
	}
	if len(decoded) != PublicKeyLength {
		return pk, errors.Errorf("invalid public key length %v", len(decoded))
	}
	copy(pk[:], decoded)
	return pk, nil
}

func (p PublicKey) String() string {
	return base58.Encode(p[:])
}

func (p PublicKey) Bytes() []byte {
	return p[:]
}

func (p PublicKey) IsZero() bool {
	return p == PublicKey{}
}

func (p PublicKey) Equals(other PublicKey) bool {
	return p == other
}

type Signature [SignatureLength]byte

func SignatureFromBase58(in string) (Signature, error) {
	var sig Signature
	decoded, err := base58.Decode(in)
	if err != nil {
		return sig, errors.Wrap(err, "decode base58 signature")
	}
	if len(decoded) != SignatureLength {
		return sig, errors.Errorf("invalid signature length %v", len(decoded))
	}
	copy(sig[:], decoded)
	return sig, nil
}

func (s Signature) String() string {
	return base58.Encode(s[:])
}

func (s Signature) IsZero() bool {
	return s == Signature{}
}

// Hash is a recent blockhash.
type Hash [32]byte

func HashFromBase58(in string) (Hash, error) {
	var h Hash
	decoded, err := base58.Decode(in)
	if err != nil {
		return h, errors.Wrap(err, "decode base58 hash")
	}
	if len(decoded) != 32 {
		return h, errors.Errorf("invalid hash length %v", len(decoded))
	}
	copy(h[:], decoded)
	return h, nil
}

func (h Hash) String() string {
	return base58.Encode(h[:])
}

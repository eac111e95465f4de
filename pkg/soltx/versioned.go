package soltx

import (
	"bytes"
	"io"

	"solwc.io/wallet-adapter/pkg/errors"
)

// High bit of the first message byte marks a versioned message; legacy
// messages start with the signer count, which never sets it.
const versionPrefixMask = 0x80

// TransactionVersion discriminates the two message encodings. Legacy is
// kept as a distinct tag because a VersionedTransaction may carry a
// legacy-encoded message for backward compatibility.
type TransactionVersion int8

const (
	VersionLegacy TransactionVersion = -1
	Version0      TransactionVersion = 0
)

func (v TransactionVersion) String() string {
	if v == VersionLegacy {
		return "legacy"
	}
	return "0"
}

// MessageAddressTableLookup loads extra accounts from an on-chain
// address lookup table (v0 messages only).
type MessageAddressTableLookup struct {
	AccountKey      PublicKey
	WritableIndexes []uint8
	ReadonlyIndexes []uint8
}

// VersionedMessage is either a legacy message or a v0 message with
// address table lookups, discriminated by Version.
type VersionedMessage struct {
	Version             TransactionVersion
	Header              MessageHeader
	AccountKeys         []PublicKey
	RecentBlockhash     Hash
	Instructions        []CompiledInstruction
	AddressTableLookups []MessageAddressTableLookup
}

func (m *VersionedMessage) Serialize() ([]byte, error) {
	legacy := Message{
		Header:          m.Header,
		AccountKeys:     m.AccountKeys,
		RecentBlockhash: m.RecentBlockhash,
		Instructions:    m.Instructions,
	}
	if m.Version == VersionLegacy {
		if len(m.AddressTableLookups) > 0 {
			return nil, errors.New("legacy message cannot carry address table lookups")
		}
		return legacy.Serialize(), nil
	}
	if m.Version != Version0 {
		return nil, errors.Errorf("unsupported message version %v", m.Version)
	}
	var buf bytes.Buffer
	buf.WriteByte(versionPrefixMask | byte(m.Version))
	buf.Write(legacy.Serialize())
	encodeLength(&buf, len(m.AddressTableLookups))
	for _, lookup := range m.AddressTableLookups {
		buf.Write(lookup.AccountKey[:])
		encodeLength(&buf, len(lookup.WritableIndexes))
		buf.Write(lookup.WritableIndexes)
		encodeLength(&buf, len(lookup.ReadonlyIndexes))
		buf.Write(lookup.ReadonlyIndexes)
	}
	return buf.Bytes(), nil
}

func deserializeVersionedMessage(r *bytes.Reader) (*VersionedMessage, error) {
	prefix, err := r.ReadByte()
	if err != nil {
		return nil, errors.Wrap(err, "read message prefix")
	}
	version := VersionLegacy
	if prefix&versionPrefixMask != 0 {
		version = TransactionVersion(prefix & ^byte(versionPrefixMask))
	} else {
		// Legacy message: the byte already read is part of the header.
		if err := r.UnreadByte(); err != nil {
			return nil, errors.Wrap(err, "unread message prefix")
		}
	}
	body, err := deserializeMessageBody(r)
	if err != nil {
		return nil, err
	}
	msg := &VersionedMessage{
		Version:         version,
		Header:          body.Header,
		AccountKeys:     body.AccountKeys,
		RecentBlockhash: body.RecentBlockhash,
		Instructions:    body.Instructions,
	}
	if version == VersionLegacy {
		return msg, nil
	}
	if version != Version0 {
		return nil, errors.Errorf("unsupported message version %v", version)
	}
	numLookups, err := decodeLength(r)
	if err != nil {
		return nil, err
	}
	msg.AddressTableLookups = make([]MessageAddressTableLookup, numLookups)
	for i := 0; i < numLookups; i++ {
		var lookup MessageAddressTableLookup
		if _, err := io.ReadFull(r, lookup.AccountKey[:]); err != nil {
			return nil, errors.Wrap(err, "read lookup table key")
		}
		n, err := decodeLength(r)
		if err != nil {
			return nil, err
		}
		lookup.WritableIndexes = make([]uint8, n)
		if _, err := io.ReadFull(r, lookup.WritableIndexes); err != nil {
			return nil, errors.Wrap(err, "read writable indexes")
		}
		n, err = decodeLength(r)
		if err != nil {
			return nil, err
		}
		lookup.ReadonlyIndexes = make([]uint8, n)
		if _, err := io.ReadFull(r, lookup.ReadonlyIndexes); err != nil {
			return nil, errors.Wrap(err, "read readonly indexes")
		}
		msg.AddressTableLookups[i] = lookup
	}
	return msg, nil
}

// VersionedTransaction wraps a versioned message with its signatures.
type VersionedTransaction struct {
	Message    VersionedMessage
	Signatures []Signature
}

func (tx *VersionedTransaction) Version() TransactionVersion {
	return tx.Message.Version
}

func (tx *VersionedTransaction) Serialize() ([]byte, error) {
	msg, err := tx.Message.Serialize()
	if err != nil {
		return nil, err
	}
	sigs := tx.Signatures
	if len(sigs) == 0 {
		sigs = make([]Signature, tx.Message.Header.NumRequiredSignatures)
	}
	var buf bytes.Buffer
	encodeLength(&buf, len(sigs))
	for _, sig := range sigs {
		buf.Write(sig[:])
	}
	buf.Write(msg)
	return buf.Bytes(), nil
}

func VersionedTransactionFromBytes(data []byte) (*VersionedTransaction, error) {
	r := bytes.NewReader(data)
	numSigs, err := decodeLength(r)
	if err != nil {
		return nil, err
	}
	tx := &VersionedTransaction{Signatures: make([]Signature, numSigs)}
	for i := 0; i < numSigs; i++ {
		if _, err := io.ReadFull(r, tx.Signatures[i][:]); err != nil {
			return nil, errors.Wrap(err, "read signature")
		}
	}
	msg, err := deserializeVersionedMessage(r)
	if err != nil {
		return nil, err
	}
	tx.Message = *msg
	return tx, nil
}

// AddSignature slots sig at the signer index of pubkey.
func (tx *VersionedTransaction) AddSignature(pubkey PublicKey, sig Signature) error {
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

func signerIndex(keys []PublicKey, header MessageHeader, pubkey PublicKey) int {
	for i := 0; i < int(header.NumRequiredSignatures) && i < len(keys); i++ {
		if keys[i] == pubkey {
			return i
		}
	}
	return -1
}

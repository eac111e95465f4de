package soltx

import (
	"bytes"
	"io"

	"solwc.io/wallet-adapter/pkg/errors"
)

type MessageHeader struct {
	NumRequiredSignatures       uint8
	NumReadonlySignedAccounts   uint8
	NumReadonlyUnsignedAccounts uint8
}

// CompiledInstruction references its program and accounts by index into
// the message account key list.
type CompiledInstruction struct {
	ProgramIDIndex uint8
	Accounts       []uint8
	Data           []byte
}

// Message is the legacy (version-less) transaction message encoding.
type Message struct {
	Header          MessageHeader
	AccountKeys     []PublicKey
	RecentBlockhash Hash
	Instructions    []CompiledInstruction
}

func (m *Message) Serialize() []byte {
	var buf bytes.Buffer
	buf.WriteByte(m.Header.NumRequiredSignatures)
	buf.WriteByte(m.Header.NumReadonlySignedAccounts)
	buf.WriteByte(m.Header.NumReadonlyUnsignedAccounts)
	encodeLength(&buf, len(m.AccountKeys))
	for _, key := range m.AccountKeys {
		buf.Write(key[:])
	}
	buf.Write(m.RecentBlockhash[:])
	encodeLength(&buf, len(m.Instructions))
	for _, ix := range m.Instructions {
		buf.WriteByte(ix.ProgramIDIndex)
		encodeLength(&buf, len(ix.Accounts))
		buf.Write(ix.Accounts)
		encodeLength(&buf, len(ix.Data))
		buf.Write(ix.Data)
	}
	return buf.Bytes()
}

func deserializeMessageBody(r *bytes.Reader) (*Message, error) {
	var msg Message
	header := make([]byte, 3)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, errors.Wrap(err, "read message header")
	}
	msg.Header = MessageHeader{
		NumRequiredSignatures:       header[0],
		NumReadonlySignedAccounts:   header[1],
		NumReadonlyUnsignedAccounts: header[2],
	}
	numKeys, err := decodeLength(r)
	if err != nil {
		return nil, err
	}
	msg.AccountKeys = make([]PublicKey, numKeys)
	for i := 0; i < numKeys; i++ {
		if _, err := io.ReadFull(r, msg.AccountKeys[i][:]); err != nil {
			return nil, errors.Wrap(err, "read account key")
		}
	}
	if _, err := io.ReadFull(r, msg.RecentBlockhash[:]); err != nil {
		return nil, errors.Wrap(err, "read recent blockhash")
	}
	numInstructions, err := decodeLength(r)
	if err != nil {
		return nil, err
	}
	msg.Instructions = make([]CompiledInstruction, numInstructions)
	for i := 0; i < numInstructions; i++ {
		ix, err := deserializeInstruction(r)
		if err != nil {
			return nil, err
		}
		msg.Instructions[i] = *ix
	}
	return &msg, nil
}

func deserializeInstruction(r *bytes.Reader) (*CompiledInstruction, error) {
	var ix CompiledInstruction
	programIDIndex, err := r.ReadByte()
	if err != nil {
		return nil, errors.Wrap(err, "read program id index")
	}
	ix.ProgramIDIndex = programIDIndex
	numAccounts, err := decodeLength(r)
	if err != nil {
		return nil, err
	}
	ix.Accounts = make([]uint8, numAccounts)
	if _, err := io.ReadFull(r, ix.Accounts); err != nil {
		return nil, errors.Wrap(err, "read instruction accounts")
	}
	dataLen, err := decodeLength(r)
	if err != nil {
		return nil, err
	}
	ix.Data = make([]byte, dataLen)
	if _, err := io.ReadFull(r, ix.Data); err != nil {
		return nil, errors.Wrap(err, "read instruction data")
	}
	return &ix, nil
}

func MessageFromBytes(data []byte) (*Message, error) {
	r := bytes.NewReader(data)
	if len(data) > 0 && data[0]&versionPrefixMask != 0 {
		return nil, errors.New("versioned message passed to legacy decoder")
	}
	return deserializeMessageBody(r)
}

// FeePayer is the first account key, by convention the transaction fee payer.
func (m *Message) FeePayer() PublicKey {
	if len(m.AccountKeys) == 0 {
		return PublicKey{}
	}
	return m.AccountKeys[0]
}

func (m *Message) IsAccountSigner(index int) bool {
	return index < int(m.Header.NumRequiredSignatures)
}

func (m *Message) IsAccountWritable(index int) bool {
	numRequired := int(m.Header.NumRequiredSignatures)
	if index < numRequired {
		return index < numRequired-int(m.Header.NumReadonlySignedAccounts)
	}
	return index < len(m.AccountKeys)-int(m.Header.NumReadonlyUnsignedAccounts)
}

package soltx

import (
	"github.com/mr-tron/base58"
)

type AccountMetaParam struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

type InstructionParam struct {
	ProgramID string             `json:"programId"`
	Data      string             `json:"data"`
	Keys      []AccountMetaParam `json:"keys"`
}

type PartialSignatureParam struct {
	Pubkey    string `json:"pubkey"`
	Signature string `json:"signature"`
}

// LegacyParams flattens the transaction into the field shape older
// remote signers expect at the top level of signing request params.
// Deprecated in the protocol but still sent unconditionally alongside
// the serialized `transaction` field.
func (tx *Transaction) LegacyParams() map[string]interface{} {
	msg := &tx.Message
	instructions := make([]InstructionParam, 0, len(msg.Instructions))
	for _, ix := range msg.Instructions {
		keys := make([]AccountMetaParam, 0, len(ix.Accounts))
		for _, accountIndex := range ix.Accounts {
			i := int(accountIndex)
			if i >= len(msg.AccountKeys) {
				continue
			}
			keys = append(keys, AccountMetaParam{
				Pubkey:     msg.AccountKeys[i].String(),
				IsSigner:   msg.IsAccountSigner(i),
				IsWritable: msg.IsAccountWritable(i),
			})
		}
		programID := ""
		if int(ix.ProgramIDIndex) < len(msg.AccountKeys) {
			programID = msg.AccountKeys[ix.ProgramIDIndex].String()
		}
		instructions = append(instructions, InstructionParam{
			ProgramID: programID,
			Data:      base58.Encode(ix.Data),
			Keys:      keys,
		})
	}
	partials := make([]PartialSignatureParam, 0)
	for i, sig := range tx.Signatures {
		if sig.IsZero() || i >= len(msg.AccountKeys) {
			continue
		}
		partials = append(partials, PartialSignatureParam{
			Pubkey:    msg.AccountKeys[i].String(),
			Signature: sig.String(),
		})
	}
	return map[string]interface{}{
		"feePayer":          msg.FeePayer().String(),
		"recentBlockhash":   msg.RecentBlockhash.String(),
		"instructions":      instructions,
		"partialSignatures": partials,
	}
}

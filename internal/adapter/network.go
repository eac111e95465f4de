package adapter

import (
	"solwc.io/wallet-adapter/internal/signclient"
)

// Network selects the target cluster. The CAIP-2 chain id derived from
// it rides on every signing request and in connection negotiation.
type Network string

const (
	Mainnet Network = "mainnet-beta"
	Devnet  Network = "devnet"
	Testnet Network = "testnet"
)

const namespaceSolana = "solana"

const (
	methodSignTransaction = "solana_signTransaction"
	methodSignMessage     = "solana_signMessage"
)

// Chain references are the truncated genesis hashes registered for the
// solana namespace.
func (n Network) ChainID() string {
	switch n {
	case Devnet:
		return "solana:8E9rvCKLFQia2Y35HXjjpWzj8weVo44K"
	case Testnet:
		return "solana:4uhcVJyU9pJkvQyS88uRDiswHXSCkY3z"
	default:
		return "solana:4sGjMW1sUnHzSxGspuhpqLDx6wiyjNtZ"
	}
}

func (n Network) requiredNamespaces() signclient.RequiredNamespaces {
	return signclient.RequiredNamespaces{
		namespaceSolana: {
			Chains:  []string{n.ChainID()},
			Methods: []string{methodSignTransaction, methodSignMessage},
			Events:  []string{},
		},
	}
}

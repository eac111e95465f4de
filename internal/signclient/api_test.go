package signclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const testChain = "solana:4sGjMW1sUnHzSxGspuhpqLDx6wiyjNtZ"

func testFilter() RequiredNamespaces {
	return RequiredNamespaces{
		"solana": {
			Chains:  []string{testChain},
			Methods: []string{"solana_signTransaction", "solana_signMessage"},
			Events:  []string{},
		},
	}
}

func TestSessionSatisfiesFilter(t *testing.T) {
	session := &Session{
		Topic: "t",
		Namespaces: map[string]SessionNamespace{
			"solana": {
				Accounts: []string{testChain + ":9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"},
				Methods:  []string{"solana_signTransaction", "solana_signMessage"},
			},
		},
	}
	assert.True(t, session.Satisfies(testFilter()))
}

func TestSessionMissingMethodFailsFilter(t *testing.T) {
	session := &Session{
		Namespaces: map[string]SessionNamespace{
			"solana": {
				Accounts: []string{testChain + ":9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"},
				Methods:  []string{"solana_signTransaction"},
			},
		},
	}
	assert.False(t, session.Satisfies(testFilter()))
}

func TestSessionWrongChainFailsFilter(t *testing.T) {
	session := &Session{
		Namespaces: map[string]SessionNamespace{
			"solana": {
				Accounts: []string{"solana:8E9rvCKLFQia2Y35HXjjpWzj8weVo44K:9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"},
				Methods:  []string{"solana_signTransaction", "solana_signMessage"},
			},
		},
	}
	assert.False(t, session.Satisfies(testFilter()))
}

func TestParseAccount(t *testing.T) {
	chainID, address, ok := ParseAccount(testChain + ":9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin")
	assert.True(t, ok)
	assert.Equal(t, testChain, chainID)
	assert.Equal(t, "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin", address)

	_, _, ok = ParseAccount("malformed")
	assert.False(t, ok)
}

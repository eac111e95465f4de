package signclient

import (
	"context"
	"encoding/json"
	"strings"
)

// ProposalNamespace declares the chains, methods and events an
// application requires from a session, keyed by chain family.
type ProposalNamespace struct {
	Chains  []string `json:"chains"`
	Methods []string `json:"methods"`
	Events  []string `json:"events"`
}

type RequiredNamespaces map[string]ProposalNamespace

// SessionNamespace is the set of accounts, methods and events the
// remote signer actually authorized for one chain family.
type SessionNamespace struct {
	Accounts []string `json:"accounts"`
	Methods  []string `json:"methods"`
	Events   []string `json:"events"`
}

// Session is an authorized, resumable pairing with a remote signer.
type Session struct {
	Topic        string                      `json:"topic"`
	Namespaces   map[string]SessionNamespace `json:"namespaces"`
	Acknowledged bool                        `json:"acknowledged"`
	Expiry       int64                       `json:"expiry"`

	// SymKey encrypts payloads on the session topic, hex encoded.
	SymKey string `json:"symKey"`
}

// Satisfies reports whether the session covers every chain and method
// the filter requires.
func (s *Session) Satisfies(filter RequiredNamespaces) bool {
	for family, required := range filter {
		ns, ok := s.Namespaces[family]
		if !ok {
			return false
		}
		for _, method := range required.Methods {
			if !containsString(ns.Methods, method) {
				return false
			}
		}
		for _, chain := range required.Chains {
			if !namespaceCoversChain(ns, chain) {
				return false
			}
		}
	}
	return true
}

func namespaceCoversChain(ns SessionNamespace, chainID string) bool {
	for _, account := range ns.Accounts {
		if strings.HasPrefix(account, chainID+":") {
			return true
		}
	}
	return false
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

// ParseAccount splits a composite account identifier
// ("family:reference:address") into its chain id and address.
func ParseAccount(account string) (chainID, address string, ok bool) {
	i := strings.LastIndex(account, ":")
	if i < 0 {
		return "", "", false
	}
	return account[:i], account[i+1:], true
}

// Connection is the ephemeral product of a fresh pairing attempt: a
// URI for out-of-band display and a blocking approval future.
type Connection struct {
	URI      string
	Approval func(ctx context.Context) (*Session, error)
}

type RequestPayload struct {
	Method string      `json:"method"`
	Params interface{} `json:"params"`
}

type RequestArgs struct {
	Topic   string
	ChainID string
	Request RequestPayload
}

type Reason struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type DisconnectArgs struct {
	Topic  string
	Reason Reason
}

// Session lifecycle events dispatched to registered listeners.
const (
	EventSessionUpdate = "session_update"
	EventSessionDelete = "session_delete"
)

type EventHandler func(topic string, data json.RawMessage)

// Client is the relay/session transport the adapter drives. The
// listener-removal primitive is named RemoveListener here; adapters
// wrap it rather than exposing the name to their own callers.
type Client interface {
	Find(ctx context.Context, filter RequiredNamespaces) ([]*Session, error)
	Connect(ctx context.Context, filter RequiredNamespaces) (*Connection, error)
	Request(ctx context.Context, args RequestArgs) (json.RawMessage, error)
	Disconnect(ctx context.Context, args DisconnectArgs) error
	On(event string, handler EventHandler)
	RemoveListener(event string, handler EventHandler)
	Close() error
}

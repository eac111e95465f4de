package signclient

import (
	"encoding/json"
	"time"

	"go.uber.org/atomic"
	"solwc.io/wallet-adapter/pkg/errors"
	"solwc.io/wallet-adapter/pkg/log"
)

// relayMessage is the envelope exchanged with the relay. Type is one
// of pub, sub, ack; Payload carries the encrypted JSON-RPC body.
type relayMessage struct {
	Topic   string `json:"topic"`
	Type    string `json:"type"`
	Payload string `json:"payload"`
	Silent  bool   `json:"silent"`
}

func newRelayMessageFromBytes(data []byte) (*relayMessage, error) {
	var msg relayMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, errors.WrapAndReport(err, "unmarshal relay message")
	}
	return &msg, nil
}

func (msg *relayMessage) Marshal() []byte {
	data, _ := json.Marshal(msg)
	return data
}

// encryptedPayload frames an AES-256-CBC ciphertext with its IV and
// HMAC-SHA256 tag, all hex encoded.
type encryptedPayload struct {
	Data string `json:"data"`
	Hmac string `json:"hmac"`
	IV   string `json:"iv"`
}

func newEncryptedPayloadFromBytes(data []byte) (*encryptedPayload, error) {
	var payload encryptedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, errors.WrapAndReport(err, "unmarshal encrypted payload")
	}
	return &payload, nil
}

func (e *encryptedPayload) Marshal() string {
	s, err := json.Marshal(e)
	if err != nil {
		log.Errorf("marshal:%v", err)
	}
	return string(s)
}

type jsonRpcRequest struct {
	ID      int64       `json:"id"`
	JSONRpc string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

func newJSONRpcRequest(method string, params interface{}) *jsonRpcRequest {
	return &jsonRpcRequest{
		ID:      nextPayloadID(),
		JSONRpc: "2.0",
		Method:  method,
		Params:  params,
	}
}

func (e *jsonRpcRequest) Marshal() string {
	s, err := json.Marshal(e)
	if err != nil {
		log.Errorf("marshal:%v", err)
	}
	return string(s)
}

type jsonRpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *jsonRpcError) Error() string { return e.Message }

type jsonRpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *jsonRpcError   `json:"error,omitempty"`
}

var payloadCounter = atomic.NewInt64(time.Now().UnixNano() / 1000)

func nextPayloadID() int64 {
	return payloadCounter.Inc()
}

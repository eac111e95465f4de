package signclient

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
	"go.uber.org/atomic"
	"go.uber.org/ratelimit"
	"solwc.io/wallet-adapter/pkg/errors"
	"solwc.io/wallet-adapter/pkg/log"
)

// Relay methods exchanged between application and remote signer.
const (
	methodSessionPropose = "wc_sessionPropose"
	methodSessionSettle  = "wc_sessionSettle"
	methodSessionReject  = "wc_sessionReject"
	methodSessionUpdate  = "wc_sessionUpdate"
	methodSessionDelete  = "wc_sessionDelete"
	methodSessionRequest = "wc_sessionRequest"
)

// Writes to the relay are paced; bursts beyond this rate queue up.
const relayWritesPerSecond = 10

type Metadata struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Icons       []string `json:"icons"`
}

type Options struct {
	ProjectID string
	RelayURL  string
	Metadata  Metadata

	// Store defaults to an in-process store when nil.
	Store SessionStore
}

type client struct {
	opts  Options
	store SessionStore

	conn    *websocket.Conn
	writeMu sync.Mutex
	limiter ratelimit.Limiter
	closed  *atomic.Bool

	mu        sync.Mutex
	symKeys   map[string][]byte
	pending   map[int64]chan *jsonRpcResponse
	approvals map[string]chan approvalResult
	listeners map[string][]EventHandler
}

type approvalResult struct {
	session *Session
	err     error
}

// Init dials the relay and resumes subscriptions for every stored
// session. Call it once; the returned client is shared.
func Init(ctx context.Context, opts Options) (Client, error) {
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	c := &client{
		opts:      opts,
		store:     opts.Store,
		limiter:   ratelimit.New(relayWritesPerSecond),
		closed:    atomic.NewBool(false),
		symKeys:   make(map[string][]byte),
		pending:   make(map[int64]chan *jsonRpcResponse),
		approvals: make(map[string]chan approvalResult),
		listeners: make(map[string][]EventHandler),
	}
	if err := c.dial(ctx); err != nil {
		return nil, err
	}
	go c.readLoop()
	sessions, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, session := range sessions {
		if err := c.trackSession(session); err != nil {
			log.Warnf("sign client - drop untrackable session %v: %v", session.Topic, err)
			continue
		}
		if err := c.subscribe(session.Topic); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *client) dial(ctx context.Context) error {
	wsURL := relayWebSocketURL(c.opts.RelayURL, c.opts.ProjectID)
	dialer := websocket.Dialer{}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return errors.WrapAndReport(err, "dial to relay url")
	}
	c.conn = conn
	return nil
}

func relayWebSocketURL(relayURL, projectID string) string {
	if strings.HasPrefix(relayURL, "https") {
		relayURL = strings.Replace(relayURL, "https", "wss", 1)
	}
	return relayURL + "?protocol=wc&version=2&projectId=" + projectID
}

func (c *client) Close() error {
	c.closed.Store(true)
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *client) send(msg *relayMessage) error {
	c.limiter.Take()
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, msg.Marshal()); err != nil {
		return errors.WrapAndReport(err, "write relay message")
	}
	return nil
}

func (c *client) subscribe(topic string) error {
	return c.send(&relayMessage{Topic: topic, Type: "sub", Silent: true})
}

func (c *client) publish(topic string, rpc *jsonRpcRequest) error {
	symKey := c.symKeyFor(topic)
	if symKey == nil {
		return errors.Errorf("no key tracked for topic %v", topic)
	}
	payload, err := encryptJSONRpc(rpc.Marshal(), symKey)
	if err != nil {
		return err
	}
	return c.send(&relayMessage{Topic: topic, Type: "pub", Payload: payload.Marshal(), Silent: true})
}

func (c *client) symKeyFor(topic string) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.symKeys[topic]
}

func (c *client) trackSession(session *Session) error {
	symKey, err := hex.DecodeString(session.SymKey)
	if err != nil {
		return errors.Wrap(err, "decode session key hex")
	}
	c.mu.Lock()
	c.symKeys[session.Topic] = symKey
	c.mu.Unlock()
	return nil
}

func (c *client) readLoop() {
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if !c.closed.Load() {
				log.Errorf("sign client - read relay message: %v", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		msg, err := newRelayMessageFromBytes(data)
		if err != nil {
			continue
		}
		if msg.Type != "pub" || msg.Payload == "" {
			continue
		}
		if err := c.send(&relayMessage{Topic: msg.Topic, Type: "ack", Silent: true}); err != nil {
			log.Warnf("sign client - ack relay message: %v", err)
		}
		c.handleMessage(msg)
	}
}

func (c *client) handleMessage(msg *relayMessage) {
	symKey := c.symKeyFor(msg.Topic)
	if symKey == nil {
		log.Warnf("sign client - message on unknown topic %v", msg.Topic)
		return
	}
	payload, err := newEncryptedPayloadFromBytes([]byte(msg.Payload))
	if err != nil {
		return
	}
	jsonRpc, err := decryptJSONRpc(payload, symKey)
	if err != nil {
		log.Errorf("sign client - decrypt payload on %v: %v", msg.Topic, err)
		return
	}
	log.Debugf("sign client - receive on %v: %v", msg.Topic, jsonRpc)
	method := gjson.Get(jsonRpc, "method").String()
	if method == "" {
		c.dispatchResponse(jsonRpc)
		return
	}
	params := gjson.Get(jsonRpc, "params")
	switch method {
	case methodSessionSettle:
		c.handleSettle(msg.Topic, params)
	case methodSessionReject:
		c.handleReject(msg.Topic, params)
	case methodSessionUpdate:
		c.handleUpdate(msg.Topic, params)
	case methodSessionDelete:
		c.handleDelete(msg.Topic, params)
	default:
		log.Warnf("sign client - unsupported method %v", method)
	}
}

func (c *client) dispatchResponse(jsonRpc string) {
	var resp jsonRpcResponse
	if err := json.Unmarshal([]byte(jsonRpc), &resp); err != nil {
		log.Errorf("sign client - unmarshal response: %v", err)
		return
	}
	c.mu.Lock()
	ch := c.pending[resp.ID]
	delete(c.pending, resp.ID)
	c.mu.Unlock()
	if ch == nil {
		log.Warnf("sign client - response for unknown request %v", resp.ID)
		return
	}
	ch <- &resp
}

func (c *client) handleSettle(pairingTopic string, params gjson.Result) {
	var session Session
	if err := json.Unmarshal([]byte(params.Raw), &session); err != nil {
		c.settleApproval(pairingTopic, approvalResult{err: errors.WrapAndReport(err, "unmarshal settled session")})
		return
	}
	session.Acknowledged = true
	if err := c.trackSession(&session); err != nil {
		c.settleApproval(pairingTopic, approvalResult{err: err})
		return
	}
	if err := c.subscribe(session.Topic); err != nil {
		c.settleApproval(pairingTopic, approvalResult{err: err})
		return
	}
	if err := c.store.Put(context.Background(), &session); err != nil {
		log.Errorf("sign client - persist session %v: %v", session.Topic, err)
	}
	c.settleApproval(pairingTopic, approvalResult{session: &session})
}

func (c *client) handleReject(pairingTopic string, params gjson.Result) {
	message := params.Get("message").String()
	if message == "" {
		message = "session proposal rejected"
	}
	c.settleApproval(pairingTopic, approvalResult{err: errors.New(message)})
}

func (c *client) settleApproval(pairingTopic string, result approvalResult) {
	c.mu.Lock()
	ch := c.approvals[pairingTopic]
	delete(c.approvals, pairingTopic)
	c.mu.Unlock()
	if ch == nil {
		log.Warnf("sign client - settlement for unknown pairing %v", pairingTopic)
		return
	}
	ch <- result
}

func (c *client) handleUpdate(topic string, params gjson.Result) {
	sessions, err := c.store.List(context.Background())
	if err != nil {
		log.Errorf("sign client - list sessions: %v", err)
		return
	}
	for _, session := range sessions {
		if session.Topic != topic {
			continue
		}
		var namespaces map[string]SessionNamespace
		if err := json.Unmarshal([]byte(params.Get("namespaces").Raw), &namespaces); err == nil {
			session.Namespaces = namespaces
			if err := c.store.Put(context.Background(), session); err != nil {
				log.Errorf("sign client - persist updated session: %v", err)
			}
		}
	}
	c.emit(EventSessionUpdate, topic, json.RawMessage(params.Raw))
}

func (c *client) handleDelete(topic string, params gjson.Result) {
	if err := c.store.Delete(context.Background(), topic); err != nil {
		log.Errorf("sign client - delete session %v: %v", topic, err)
	}
	c.mu.Lock()
	delete(c.symKeys, topic)
	c.mu.Unlock()
	c.emit(EventSessionDelete, topic, json.RawMessage(params.Raw))
}

func (c *client) Find(ctx context.Context, filter RequiredNamespaces) ([]*Session, error) {
	sessions, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]*Session, 0, len(sessions))
	for _, session := range sessions {
		if session.Satisfies(filter) {
			matched = append(matched, session)
		}
	}
	return matched, nil
}

type proposeParams struct {
	RequiredNamespaces RequiredNamespaces `json:"requiredNamespaces"`
	Proposer           Metadata           `json:"proposer"`
}

func (c *client) Connect(ctx context.Context, filter RequiredNamespaces) (*Connection, error) {
	pairingTopic := uuid.NewString()
	symKey, err := generateRandomBytes(256 / 8)
	if err != nil {
		return nil, errors.WrapAndReport(err, "generate pairing key")
	}
	approvalCh := make(chan approvalResult, 1)
	c.mu.Lock()
	c.symKeys[pairingTopic] = symKey
	c.approvals[pairingTopic] = approvalCh
	c.mu.Unlock()
	if err := c.subscribe(pairingTopic); err != nil {
		return nil, err
	}
	rpc := newJSONRpcRequest(methodSessionPropose, proposeParams{
		RequiredNamespaces: filter,
		Proposer:           c.opts.Metadata,
	})
	if err := c.publish(pairingTopic, rpc); err != nil {
		return nil, err
	}
	uri := fmt.Sprintf("wc:%v@2?relay-protocol=irn&symKey=%v", pairingTopic, hex.EncodeToString(symKey))
	log.Debugf("sign client - generated uri:%v", uri)
	return &Connection{
		URI: uri,
		Approval: func(ctx context.Context) (*Session, error) {
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), "await session approval")
			case result := <-approvalCh:
				return result.session, result.err
			}
		},
	}, nil
}

type sessionRequestParams struct {
	ChainID string         `json:"chainId"`
	Request RequestPayload `json:"request"`
}

func (c *client) Request(ctx context.Context, args RequestArgs) (json.RawMessage, error) {
	rpc := newJSONRpcRequest(methodSessionRequest, sessionRequestParams{
		ChainID: args.ChainID,
		Request: args.Request,
	})
	respCh := make(chan *jsonRpcResponse, 1)
	c.mu.Lock()
	c.pending[rpc.ID] = respCh
	c.mu.Unlock()
	if err := c.publish(args.Topic, rpc); err != nil {
		c.mu.Lock()
		delete(c.pending, rpc.ID)
		c.mu.Unlock()
		return nil, err
	}
	select {
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, rpc.ID)
		c.mu.Unlock()
		return nil, errors.Wrap(ctx.Err(), "await request response")
	case resp := <-respCh:
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	}
}

func (c *client) Disconnect(ctx context.Context, args DisconnectArgs) error {
	rpc := newJSONRpcRequest(methodSessionDelete, args.Reason)
	if err := c.publish(args.Topic, rpc); err != nil {
		return err
	}
	if err := c.store.Delete(ctx, args.Topic); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.symKeys, args.Topic)
	c.mu.Unlock()
	return nil
}

func (c *client) On(event string, handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners[event] = append(c.listeners[event], handler)
}

// RemoveListener drops a previously registered handler, matched by
// function identity.
func (c *client) RemoveListener(event string, handler EventHandler) {
	target := reflect.ValueOf(handler).Pointer()
	c.mu.Lock()
	defer c.mu.Unlock()
	handlers := c.listeners[event]
	for i, h := range handlers {
		if reflect.ValueOf(h).Pointer() == target {
			c.listeners[event] = append(handlers[:i], handlers[i+1:]...)
			return
		}
	}
}

func (c *client) emit(event, topic string, data json.RawMessage) {
	c.mu.Lock()
	handlers := make([]EventHandler, len(c.listeners[event]))
	copy(handlers, c.listeners[event])
	c.mu.Unlock()
	for _, handler := range handlers {
		handler(topic, data)
	}
}

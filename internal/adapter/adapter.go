package adapter

import (
	"context"
	"sync"

	"go.uber.org/atomic"
	"solwc.io/wallet-adapter/internal/pairing"
	"solwc.io/wallet-adapter/internal/signclient"
	"solwc.io/wallet-adapter/pkg/errors"
	"solwc.io/wallet-adapter/pkg/log"
	"solwc.io/wallet-adapter/pkg/soltx"
)

// Options fixes network and relay configuration at construction; the
// adapter never renegotiates them.
type Options struct {
	Network   Network
	ProjectID string
	RelayURL  string
	Metadata  signclient.Metadata

	// Modal defaults to a QR modal when nil.
	Modal pairing.Modal
	// Store backs the transport client's session persistence.
	Store signclient.SessionStore
	// QRCodePath is where the default modal writes the pairing code.
	QRCodePath string

	// InitClient overrides transport construction.
	InitClient func(ctx context.Context) (signclient.Client, error)
}

// Adapter coordinates the connection/session lifecycle with a remote
// signer and adapts signing requests onto the established session.
// The client and session fields move from both-absent to both-present
// together; accessors never observe a half-connected adapter.
type Adapter struct {
	opts    Options
	network Network
	modal   pairing.Modal
	initFn  func(ctx context.Context) (signclient.Client, error)

	// initMu makes lazy transport initialization at-most-once even
	// under concurrent Connect calls. The initialized client is held
	// here and only published to the accessor-visible field together
	// with a settled session.
	initMu      sync.Mutex
	initialized signclient.Client

	mu      sync.Mutex
	client  signclient.Client
	session *signclient.Session
}

func New(opts Options) *Adapter {
	a := &Adapter{
		opts:    opts,
		network: opts.Network,
		modal:   opts.Modal,
	}
	if a.modal == nil {
		a.modal = pairing.NewQRModal(opts.ProjectID, []string{opts.Network.ChainID()}, opts.QRCodePath)
	}
	a.initFn = opts.InitClient
	if a.initFn == nil {
		a.initFn = func(ctx context.Context) (signclient.Client, error) {
			return signclient.Init(ctx, signclient.Options{
				ProjectID: opts.ProjectID,
				RelayURL:  opts.RelayURL,
				Metadata:  opts.Metadata,
				Store:     opts.Store,
			})
		}
	}
	return a
}

type connectOutcome struct {
	session *signclient.Session
	err     error
}

// Connect establishes a session, resuming an acknowledged one when the
// transport already holds a compatible pairing and falling back to a
// fresh pairing through the modal otherwise. It returns the public key
// the remote signer authorized.
func (a *Adapter) Connect(ctx context.Context) (soltx.PublicKey, error) {
	client, err := a.ensureClient(ctx)
	if err != nil {
		return soltx.PublicKey{}, err
	}
	filter := a.network.requiredNamespaces()
	sessions, err := client.Find(ctx, filter)
	if err != nil {
		return soltx.PublicKey{}, err
	}
	var acknowledged []*signclient.Session
	for _, session := range sessions {
		if session.Acknowledged {
			acknowledged = append(acknowledged, session)
		}
	}
	if len(acknowledged) > 0 {
		// Last returned session wins.
		a.setActive(client, acknowledged[len(acknowledged)-1])
		log.Debugf("wallet adapter - resumed session %v", acknowledged[len(acknowledged)-1].Topic)
		return a.PublicKey()
	}
	connection, err := client.Connect(ctx, filter)
	if err != nil {
		return soltx.PublicKey{}, err
	}

	// Modal close and remote approval race; exactly one settles.
	settled := atomic.NewBool(false)
	outcome := make(chan connectOutcome, 1)
	settle := func(o connectOutcome) {
		if settled.CAS(false, true) {
			outcome <- o
		}
	}
	unsubscribe := a.modal.SubscribeModal(func(state pairing.ModalState) {
		if !state.Open && !a.hasSession() {
			settle(connectOutcome{err: ErrConnectionReset})
		}
	})
	defer unsubscribe()
	defer a.modal.CloseModal()
	if err := a.modal.OpenModal(ctx, connection.URI); err != nil {
		return soltx.PublicKey{}, &QRCodeModalError{Cause: err}
	}
	go func() {
		session, err := connection.Approval(ctx)
		settle(connectOutcome{session: session, err: err})
	}()
	o := <-outcome
	if o.err != nil {
		return soltx.PublicKey{}, o.err
	}
	a.setActive(client, o.session)
	log.Debugf("wallet adapter - settled session %v", o.session.Topic)
	return a.PublicKey()
}

// Disconnect tears the active session down with a user-initiated
// reason. The transport client is retained for later reconnects.
func (a *Adapter) Disconnect(ctx context.Context) error {
	client, session, err := a.active()
	if err != nil {
		return err
	}
	err = client.Disconnect(ctx, signclient.DisconnectArgs{
		Topic: session.Topic,
		Reason: signclient.Reason{
			Code:    6000,
			Message: "USER_DISCONNECTED",
		},
	})
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.session = nil
	a.mu.Unlock()
	return nil
}

// Client exposes the live transport for event subscription.
func (a *Adapter) Client() (*ClientView, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client == nil {
		return nil, ErrNotInitialized
	}
	return &ClientView{client: a.client}, nil
}

// PublicKey parses the authorized public key from the first account of
// the session's solana namespace.
func (a *Adapter) PublicKey() (soltx.PublicKey, error) {
	_, session, err := a.active()
	if err != nil {
		return soltx.PublicKey{}, err
	}
	ns, ok := session.Namespaces[namespaceSolana]
	if !ok || len(ns.Accounts) == 0 {
		return soltx.PublicKey{}, errors.New("no authorized accounts in session")
	}
	_, address, ok := signclient.ParseAccount(ns.Accounts[0])
	if !ok {
		return soltx.PublicKey{}, errors.Errorf("malformed account identifier %v", ns.Accounts[0])
	}
	return soltx.PublicKeyFromBase58(address)
}

func (a *Adapter) ensureClient(ctx context.Context) (signclient.Client, error) {
	a.initMu.Lock()
	defer a.initMu.Unlock()
	if a.initialized != nil {
		return a.initialized, nil
	}
	client, err := a.initFn(ctx)
	if err != nil {
		return nil, err
	}
	a.initialized = client
	return client, nil
}

// setActive publishes client and session together, only after success
// is certain.
func (a *Adapter) setActive(client signclient.Client, session *signclient.Session) {
	a.mu.Lock()
	a.client = client
	a.session = session
	a.mu.Unlock()
}

func (a *Adapter) hasSession() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session != nil
}

func (a *Adapter) active() (signclient.Client, *signclient.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client == nil || a.session == nil {
		return nil, nil, ErrNotInitialized
	}
	return a.client, a.session, nil
}

// ClientView is the subscription surface handed to applications. The
// transport names its removal primitive RemoveListener; the mismatch
// stays shimmed behind Unsubscribe.
type ClientView struct {
	client signclient.Client
}

func (v *ClientView) Subscribe(event string, handler signclient.EventHandler) {
	v.client.On(event, handler)
}

func (v *ClientView) Unsubscribe(event string, handler signclient.EventHandler) {
	v.client.RemoveListener(event, handler)
}

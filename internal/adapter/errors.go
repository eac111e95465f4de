package adapter

import (
	"solwc.io/wallet-adapter/pkg/errors"
)

var (
	// ErrNotInitialized is returned by every accessor and signing
	// operation invoked before a session is established.
	ErrNotInitialized = errors.New("sign client not initialized")

	// ErrConnectionReset is returned by Connect when the pairing
	// modal is closed before the remote signer approved the session.
	ErrConnectionReset = errors.New("connection reset")
)

// QRCodeModalError reports a failure to present the pairing URI.
type QRCodeModalError struct {
	Cause error
}

func (e *QRCodeModalError) Error() string {
	return "qr code modal error: " + e.Cause.Error()
}

func (e *QRCodeModalError) Unwrap() error { return e.Cause }

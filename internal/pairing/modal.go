package pairing

import (
	"context"
	"sync"

	"github.com/skip2/go-qrcode"
	"solwc.io/wallet-adapter/pkg/errors"
	"solwc.io/wallet-adapter/pkg/log"
)

type ModalState struct {
	Open bool
}

// Modal renders a pairing URI out of band and reports its own
// open/closed lifecycle to subscribers.
type Modal interface {
	OpenModal(ctx context.Context, uri string) error
	CloseModal()
	SubscribeModal(callback func(ModalState)) (unsubscribe func())
}

// QRModal renders the pairing URI as a scannable PNG written to disk.
type QRModal struct {
	projectID  string
	chains     []string
	outputPath string

	mu          sync.Mutex
	open        bool
	nextID      int
	subscribers map[int]func(ModalState)
}

func NewQRModal(projectID string, chains []string, outputPath string) *QRModal {
	if outputPath == "" {
		outputPath = "wallet_connect_qr.png"
	}
	return &QRModal{
		projectID:   projectID,
		chains:      chains,
		outputPath:  outputPath,
		subscribers: make(map[int]func(ModalState)),
	}
}

func (m *QRModal) OpenModal(_ context.Context, uri string) error {
	log.Debugf("pairing modal - uri:%v", uri)
	if err := qrcode.WriteFile(uri, qrcode.Medium, 256, m.outputPath); err != nil {
		return errors.WrapAndReport(err, "encode pairing qr code")
	}
	log.Infof("pairing modal - scan %v to approve connection (project %v, chains %v)",
		m.outputPath, m.projectID, m.chains)
	m.setOpen(true)
	return nil
}

func (m *QRModal) CloseModal() {
	m.setOpen(false)
}

func (m *QRModal) setOpen(open bool) {
	m.mu.Lock()
	if m.open == open {
		m.mu.Unlock()
		return
	}
	m.open = open
	subscribers := make([]func(ModalState), 0, len(m.subscribers))
	for _, cb := range m.subscribers {
		subscribers = append(subscribers, cb)
	}
	m.mu.Unlock()
	state := ModalState{Open: open}
	for _, cb := range subscribers {
		cb(state)
	}
}

func (m *QRModal) SubscribeModal(callback func(ModalState)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subscribers[id] = callback
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}

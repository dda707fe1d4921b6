package status

import (
	"sync"

	"github.com/scpi-protocol/scpi-go/pkg/wire"
)

// Model is the status reporting state of one instrument.
type Model struct {
	mu    sync.Mutex
	queue *Queue
	esr   uint8
	ese   uint8
	sre   uint8
	mav   bool
}

// NewModel creates a status model with a DefaultQueueCapacity error queue
// and the power-on bit set.
func NewModel() *Model {
	return NewModelWithQueue(NewQueue(DefaultQueueCapacity))
}

// NewModelWithQueue creates a status model around an existing queue.
func NewModelWithQueue(q *Queue) *Model {
	return &Model{queue: q, esr: ESRPowerOn}
}

// Queue returns the error/event queue.
func (m *Model) Queue() *Queue {
	return m.queue
}

// Push queues a protocol error and sets its event bit.
func (m *Model) Push(err *wire.Error) {
	if err == nil {
		return
	}
	m.queue.Push(err)
	m.SetEvent(ESRBitForCode(err.Code))
}

// SetEvent sets bits in the Standard Event Status Register.
func (m *Model) SetEvent(bits uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.esr |= bits
}

// ReadESR returns and clears the Standard Event Status Register.
func (m *Model) ReadESR() uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.esr
	m.esr = 0
	return v
}

// ESE returns the event status enable mask.
func (m *Model) ESE() uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ese
}

// SetESE sets the event status enable mask.
func (m *Model) SetESE(v uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ese = v
}

// SRE returns the service request enable mask.
func (m *Model) SRE() uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sre
}

// SetSRE sets the service request enable mask. Bit 6 is ignored.
func (m *Model) SetSRE(v uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sre = v &^ STBMasterSummary
}

// SetMessageAvailable sets the MAV summary bit. The dispatcher sets it
// while a program message has queued response text (so "*IDN?;*STB?"
// reports MAV) and clears it when the response leaves the line.
func (m *Model) SetMessageAvailable(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mav = v
}

// STB computes the Status Byte.
func (m *Model) STB() uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stb uint8
	if m.queue.Count() > 0 {
		stb |= STBErrorAvailable
	}
	if m.mav {
		stb |= STBMessageAvailable
	}
	if m.esr&m.ese != 0 {
		stb |= STBEventSummary
	}
	if stb&m.sre != 0 {
		stb |= STBMasterSummary
	}
	return stb
}

// Clear implements *CLS: it empties the error queue and the event
// register. Enable masks are kept.
func (m *Model) Clear() {
	m.queue.Clear()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.esr = 0
}

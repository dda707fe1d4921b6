package commands

import (
	"github.com/scpi-protocol/scpi-go/pkg/status"
)

// BusTriggerer is a device that accepts a bus trigger (*TRG, GET).
type BusTriggerer interface {
	BusTrigger() error
}

// Resetter is a device that can return to its reset state (*RST).
type Resetter interface {
	Reset() error
}

// Identity is the *IDN? response.
type Identity struct {
	Manufacturer string
	Model        string
	Serial       string
	Firmware     string
}

// Identifier is a device that reports its identity (*IDN?).
type Identifier interface {
	Identity() Identity
}

// SelfTester is a device that runs an internal self-test (*TST?). A zero
// result means the test passed.
type SelfTester interface {
	SelfTest() (int, error)
}

// StatusHolder is a device that owns an IEEE488.2 status model.
type StatusHolder interface {
	Status() *status.Model
}

// OperationWaiter is a device with overlapped operations. WaitComplete
// blocks until every pending operation has finished.
type OperationWaiter interface {
	WaitComplete() error
}

// Instrument is a device implementing every capability needed by Common.
type Instrument interface {
	BusTriggerer
	Resetter
	Identifier
	SelfTester
	StatusHolder
	OperationWaiter
}

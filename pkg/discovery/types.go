package discovery

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceTypeSCPIRaw is the DNS-SD service type of a raw SCPI socket.
	ServiceTypeSCPIRaw = "_scpi-raw._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// DefaultPort is the IANA port for raw SCPI sockets.
	DefaultPort = 5025
)

// TXT record keys, as used by LXI instruments.
const (
	TXTKeyManufacturer    = "Manufacturer"
	TXTKeyModel           = "Model"
	TXTKeySerialNumber    = "SerialNumber"
	TXTKeyFirmwareVersion = "FirmwareVersion"
	TXTKeyVersion         = "txtvers"
)

// TXTVersion is the value of the txtvers key.
const TXTVersion = "1"

// Timing constants.
const (
	// BrowseTimeout is the default timeout for mDNS browsing.
	BrowseTimeout = 5 * time.Second

	// DefaultTTL is the default DNS record TTL.
	DefaultTTL = 120 * time.Second
)

// Limits.
const (
	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63

	// MaxTXTValueLen keeps each key=value string inside one TXT segment.
	MaxTXTValueLen = 200
)

// Errors.
var (
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 bytes")
	ErrMissingRequired     = errors.New("missing required TXT field")
	ErrTXTValueTooLong     = errors.New("TXT value too long")
	ErrNotAdvertising      = errors.New("not advertising")
	ErrNotFound            = errors.New("instrument not found")
	ErrInvalidPort         = errors.New("invalid port")
)

// InstrumentInfo describes an instrument to advertise.
type InstrumentInfo struct {
	// InstanceName is the DNS-SD instance label. Empty derives one from
	// the identity fields.
	InstanceName string

	Manufacturer    string
	Model           string
	SerialNumber    string
	FirmwareVersion string

	// Port is the SCPI socket port (0 means DefaultPort).
	Port uint16
}

// Instance returns the instance label, derived as
// "<Manufacturer> <Model> <SerialNumber>" when InstanceName is empty and
// clipped to MaxInstanceNameLen.
func (i *InstrumentInfo) Instance() string {
	name := i.InstanceName
	if name == "" {
		var parts []string
		for _, p := range []string{i.Manufacturer, i.Model, i.SerialNumber} {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		name = strings.Join(parts, " ")
	}
	if name == "" {
		name = "SCPI Instrument"
	}
	if len(name) > MaxInstanceNameLen {
		name = strings.TrimSpace(name[:MaxInstanceNameLen])
	}
	return name
}

// Validate checks the info can be advertised.
func (i *InstrumentInfo) Validate() error {
	if err := ValidateInstanceName(i.Instance()); err != nil {
		return err
	}
	if i.Manufacturer == "" {
		return fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyManufacturer)
	}
	if i.Model == "" {
		return fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyModel)
	}
	return nil
}

// InstrumentService is an instrument found by browsing.
type InstrumentService struct {
	InstanceName string
	ServiceType  string
	Host         string
	Port         uint16
	Addresses    []string

	Manufacturer    string
	Model           string
	SerialNumber    string
	FirmwareVersion string
}

// Address returns "host:port" for dialing, preferring the first resolved
// address over the host name.
func (s *InstrumentService) Address() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	host = strings.TrimSuffix(host, ".")
	port := s.Port
	if port == 0 {
		port = DefaultPort
	}
	if strings.Contains(host, ":") {
		return fmt.Sprintf("[%s]:%d", host, port)
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// String renders the service for listings.
func (s *InstrumentService) String() string {
	return fmt.Sprintf("%s (%s %s, SN %s) at %s",
		s.InstanceName, s.Manufacturer, s.Model, s.SerialNumber, s.Address())
}

package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// Registration is a live DNS-SD registration.
// Implemented by *zeroconf.Server.
type Registration interface {
	// SetText replaces the advertised TXT records.
	SetText(txt []string)

	// Shutdown withdraws the registration.
	Shutdown()
}

// Registrar registers DNS-SD services. The default is ZeroconfRegistrar.
type Registrar interface {
	Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface, ttl time.Duration) (Registration, error)
}

// ZeroconfRegistrar registers services with the zeroconf mDNS responder.
type ZeroconfRegistrar struct{}

// Register implements Registrar.
func (ZeroconfRegistrar) Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface, ttl time.Duration) (Registration, error) {
	var opts []zeroconf.ServerOption
	if ttl > 0 {
		opts = append(opts, zeroconf.TTL(uint32(ttl.Seconds())))
	}
	server, err := zeroconf.Register(instance, service, domain, port, txt, ifaces, opts...)
	if err != nil {
		return nil, err
	}
	return server, nil
}

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL.
	// Default: 120 seconds.
	TTL time.Duration

	// Registrar performs the registration (default: ZeroconfRegistrar).
	Registrar Registrar
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{
		Interface: "",
		TTL:       DefaultTTL,
		Registrar: ZeroconfRegistrar{},
	}
}

// Advertiser announces one instrument's SCPI socket on the local network.
type Advertiser struct {
	config AdvertiserConfig

	mu   sync.Mutex
	reg  Registration
	info InstrumentInfo
}

// NewAdvertiser creates a new advertiser.
func NewAdvertiser(config AdvertiserConfig) *Advertiser {
	if config.Registrar == nil {
		config.Registrar = ZeroconfRegistrar{}
	}
	return &Advertiser{config: config}
}

// getInterfaces returns the network interfaces to use for advertising.
// Returns nil to use all interfaces.
func (a *Advertiser) getInterfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}

	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// Advertise starts advertising the instrument, replacing any previous
// advertisement.
func (a *Advertiser) Advertise(ctx context.Context, info *InstrumentInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := info.Validate(); err != nil {
		return err
	}
	txt, err := EncodeInstrumentTXT(info)
	if err != nil {
		return err
	}

	port := int(info.Port)
	if port == 0 {
		port = DefaultPort
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.reg != nil {
		a.reg.Shutdown()
		a.reg = nil
	}

	reg, err := a.config.Registrar.Register(
		info.Instance(),
		ServiceTypeSCPIRaw,
		Domain,
		port,
		TXTRecordsToStrings(txt),
		a.getInterfaces(),
		a.config.TTL,
	)
	if err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceTypeSCPIRaw, err)
	}

	a.reg = reg
	a.info = *info
	return nil
}

// Update replaces the TXT records of the running advertisement. A change
// of instance name or port requires Advertise.
func (a *Advertiser) Update(info *InstrumentInfo) error {
	if err := info.Validate(); err != nil {
		return err
	}
	txt, err := EncodeInstrumentTXT(info)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.reg == nil {
		return ErrNotAdvertising
	}
	a.reg.SetText(TXTRecordsToStrings(txt))
	a.info.Manufacturer = info.Manufacturer
	a.info.Model = info.Model
	a.info.SerialNumber = info.SerialNumber
	a.info.FirmwareVersion = info.FirmwareVersion
	return nil
}

// Stop withdraws the advertisement. Stopping twice is a no-op.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.reg != nil {
		a.reg.Shutdown()
		a.reg = nil
	}
}

// IsAdvertising reports whether an advertisement is active.
func (a *Advertiser) IsAdvertising() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reg != nil
}

// Info returns the advertised instrument info.
func (a *Advertiser) Info() (InstrumentInfo, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.info, a.reg != nil
}

var _ Registration = (*zeroconf.Server)(nil)

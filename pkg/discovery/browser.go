package discovery

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// BrowseTimeout bounds FindAll and Find when the context has no
	// deadline. Default: 5 seconds.
	BrowseTimeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		BrowseTimeout: BrowseTimeout,
		Interface:     "",
	}
}

// FilterFunc selects browse results.
type FilterFunc func(*InstrumentService) bool

// FilterByModel matches instruments of the given model, case-insensitively.
func FilterByModel(model string) FilterFunc {
	return func(svc *InstrumentService) bool {
		return strings.EqualFold(svc.Model, model)
	}
}

// FilterBySerial matches the instrument with the given serial number.
func FilterBySerial(serial string) FilterFunc {
	return func(svc *InstrumentService) bool {
		return svc.SerialNumber == serial
	}
}

// FilterByInstance matches the instrument with the given instance name.
func FilterByInstance(name string) FilterFunc {
	return func(svc *InstrumentService) bool {
		return svc.InstanceName == name
	}
}

// FilterBrowseResults filters a channel of instrument services.
func FilterBrowseResults(in <-chan *InstrumentService, filter FilterFunc) <-chan *InstrumentService {
	out := make(chan *InstrumentService)
	go func() {
		defer close(out)
		for svc := range in {
			if filter(svc) {
				out <- svc
			}
		}
	}()
	return out
}

// ServiceEntry is a resolved DNS-SD entry, independent of the mDNS library.
type ServiceEntry struct {
	Instance string
	Service  string
	Domain   string
	Host     string
	Port     uint16
	Text     []string
	Addrs    []string
}

func entryFromZeroconf(entry *zeroconf.ServiceEntry) *ServiceEntry {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	return &ServiceEntry{
		Instance: entry.Instance,
		Service:  entry.Service,
		Domain:   entry.Domain,
		Host:     entry.HostName,
		Port:     uint16(entry.Port),
		Text:     entry.Text,
		Addrs:    addrs,
	}
}

// ToInstrumentService converts a ServiceEntry to InstrumentService.
func (e *ServiceEntry) ToInstrumentService() (*InstrumentService, error) {
	info, err := DecodeInstrumentTXT(StringsToTXTRecords(e.Text))
	if err != nil {
		return nil, err
	}
	if e.Port == 0 {
		return nil, ErrInvalidPort
	}
	return &InstrumentService{
		InstanceName:    e.Instance,
		ServiceType:     e.Service,
		Host:            e.Host,
		Port:            e.Port,
		Addresses:       append([]string(nil), e.Addrs...),
		Manufacturer:    info.Manufacturer,
		Model:           info.Model,
		SerialNumber:    info.SerialNumber,
		FirmwareVersion: info.FirmwareVersion,
	}, nil
}

// aggregator merges per-interface announcements of the same instance.
type aggregator struct {
	services map[string]*InstrumentService
}

func newAggregator() *aggregator {
	return &aggregator{services: make(map[string]*InstrumentService)}
}

// add records an entry and returns the service when it is new.
func (a *aggregator) add(entry *ServiceEntry) *InstrumentService {
	svc, err := entry.ToInstrumentService()
	if err != nil {
		return nil
	}
	if existing, found := a.services[svc.InstanceName]; found {
		existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
		return nil
	}
	a.services[svc.InstanceName] = svc
	return svc
}

// remove drops the entry's addresses and forgets the instance when none
// remain. It reports whether the instance was forgotten.
func (a *aggregator) remove(entry *ServiceEntry) bool {
	existing, found := a.services[entry.Instance]
	if !found {
		return false
	}
	existing.Addresses = removeAddresses(existing.Addresses, entry.Addrs)
	if len(existing.Addresses) == 0 {
		delete(a.services, entry.Instance)
		return true
	}
	return false
}

// Browser finds SCPI instruments on the local network.
type Browser struct {
	config BrowserConfig

	mu      sync.Mutex
	cancels []context.CancelFunc
}

// NewBrowser creates a new mDNS browser.
func NewBrowser(config BrowserConfig) *Browser {
	if config.BrowseTimeout == 0 {
		config.BrowseTimeout = BrowseTimeout
	}
	return &Browser{config: config}
}

// Browse searches for instruments until ctx is cancelled or Stop is
// called. Services are aggregated by instance name: addresses from
// multiple interfaces are combined into a single entry, emitted once.
func (b *Browser) Browse(ctx context.Context) (<-chan *InstrumentService, error) {
	ctx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancels = append(b.cancels, cancel)
	b.mu.Unlock()

	out := make(chan *InstrumentService)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		defer close(out)
		agg := newAggregator()

		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				svc := agg.add(entryFromZeroconf(entry))
				if svc == nil {
					continue
				}
				select {
				case out <- svc:
				case <-ctx.Done():
					return
				}

			case entry, ok := <-removed:
				if !ok {
					removed = nil
					continue
				}
				agg.remove(entryFromZeroconf(entry))

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, ServiceTypeSCPIRaw, Domain, entries, removed, b.browserOptions()...)
	}()

	return out, nil
}

// FindAll collects instruments until the browse timeout (or the ctx
// deadline) expires.
func (b *Browser) FindAll(ctx context.Context) ([]*InstrumentService, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	found, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}
	var result []*InstrumentService
	for svc := range found {
		result = append(result, svc)
	}
	return result, nil
}

// Find returns the first instrument matching filter.
func (b *Browser) Find(ctx context.Context, filter FilterFunc) (*InstrumentService, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	found, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}
	for svc := range found {
		if filter(svc) {
			return svc, nil
		}
	}
	return nil, ErrNotFound
}

// Stop stops all active browsing operations.
func (b *Browser) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, cancel := range b.cancels {
		cancel()
	}
	b.cancels = nil
}

func (b *Browser) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.config.BrowseTimeout)
}

// browserOptions returns zeroconf client options based on config.
func (b *Browser) browserOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption

	// Select specific interface if configured
	if b.config.Interface != "" {
		iface, err := net.InterfaceByName(b.config.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}

	return opts
}

// mergeAddresses adds new addresses to existing, skipping duplicates.
func mergeAddresses(existing, add []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}

	for _, addr := range add {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses filters drop out of addresses.
func removeAddresses(addresses, drop []string) []string {
	toRemove := make(map[string]bool, len(drop))
	for _, addr := range drop {
		toRemove[addr] = true
	}

	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !toRemove[addr] {
			result = append(result, addr)
		}
	}
	return result
}

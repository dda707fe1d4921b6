// Package discovery implements mDNS/DNS-SD discovery for SCPI instruments.
//
// # Advertising
//
// An instrument serving raw SCPI sockets registers one _scpi-raw._tcp
// instance. The instance name defaults to "<Manufacturer> <Model> <Serial>".
// TXT records follow the LXI convention:
//
//	txtvers=1
//	Manufacturer=<vendor>
//	Model=<model>
//	SerialNumber=<serial>        (optional)
//	FirmwareVersion=<firmware>   (optional)
//
// Registration goes through a Registrar; ZeroconfRegistrar is the default
// and tests substitute their own.
//
// # Browsing
//
// Browser queries _scpi-raw._tcp. Announcements of one instance on several
// interfaces are merged into a single InstrumentService carrying all
// addresses. Entries without Manufacturer and Model are ignored.
package discovery

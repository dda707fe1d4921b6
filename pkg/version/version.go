// Package version provides SCPI version parsing and the embedded
// conformance manifests listing the commands each version requires.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Current is the SCPI version reported by SYSTem:VERSion?.
const Current = "1999.0"

// SCPIVersion represents a parsed "YYYY.V" SCPI version.
type SCPIVersion struct {
	Year     uint16
	Revision uint16
}

// Parse parses a "YYYY.V" version string.
func Parse(s string) (SCPIVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return SCPIVersion{}, fmt.Errorf("invalid version %q: expected YYYY.V", s)
	}

	year, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil || len(parts[0]) != 4 {
		return SCPIVersion{}, fmt.Errorf("invalid version %q: bad year component", s)
	}

	rev, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil || parts[1] == "" {
		return SCPIVersion{}, fmt.Errorf("invalid version %q: bad revision component", s)
	}

	return SCPIVersion{Year: uint16(year), Revision: uint16(rev)}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) SCPIVersion {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version as "YYYY.V".
func (v SCPIVersion) String() string {
	return fmt.Sprintf("%04d.%d", v.Year, v.Revision)
}

// Less reports whether v predates other.
func (v SCPIVersion) Less(other SCPIVersion) bool {
	if v.Year != other.Year {
		return v.Year < other.Year
	}
	return v.Revision < other.Revision
}

// Supports reports whether an instrument conforming to v also conforms
// to a controller expecting other. SCPI versions are backward compatible.
func (v SCPIVersion) Supports(other SCPIVersion) bool {
	return !v.Less(other)
}

package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/scpi-protocol/scpi-go/pkg/wire"
)

// SuffixMarker declares that a mnemonic accepts a numeric suffix.
const SuffixMarker = '#'

// DefaultSuffix is the suffix value used when none is given.
const DefaultSuffix = 1

// Mnemonic is a declared node name.
type Mnemonic struct {
	wire.Keyword

	// Suffixed is set when the mnemonic accepts a numeric suffix.
	Suffixed bool
}

// ParseMnemonic parses a declared name such as "MEASure", "OUTPut#" or "*TRG".
func ParseMnemonic(decl string) (Mnemonic, error) {
	suffixed := false
	if strings.HasSuffix(decl, string(SuffixMarker)) {
		suffixed = true
		decl = decl[:len(decl)-1]
	}

	k, err := wire.ParseKeyword(decl)
	if err != nil {
		return Mnemonic{}, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	if suffixed && k.Short[0] == wire.CommonPrefix {
		return Mnemonic{}, fmt.Errorf("%w: common command %q cannot take a suffix", ErrInvalidMnemonic, decl)
	}
	if suffixed && isDigit(k.Long[len(k.Long)-1]) {
		return Mnemonic{}, fmt.Errorf("%w: %q ends in a digit", ErrInvalidMnemonic, decl)
	}
	return Mnemonic{Keyword: k, Suffixed: suffixed}, nil
}

// IsCommon reports whether this is an asterisk-prefixed common command.
func (m Mnemonic) IsCommon() bool {
	return m.Short[0] == wire.CommonPrefix
}

// Match reports whether a received program mnemonic selects this node
// and returns its numeric suffix. Unsuffixed mnemonics report
// DefaultSuffix. A suffixed mnemonic given suffix 0 still matches; range
// checking is left to the caller.
func (m Mnemonic) Match(input string) (int, bool) {
	if !m.Suffixed {
		return DefaultSuffix, m.Keyword.Matches(input)
	}

	end := len(input)
	for end > 0 && isDigit(input[end-1]) {
		end--
	}
	if !m.Keyword.Matches(input[:end]) {
		return 0, false
	}
	if end == len(input) {
		return DefaultSuffix, true
	}
	n, err := strconv.Atoi(input[end:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Overlaps reports whether some input would select both mnemonics. A
// suffixed mnemonic also claims inputs ending in digits, so "CHANnel#"
// overlaps "CHAN1".
func (m Mnemonic) Overlaps(other Mnemonic) bool {
	if m.Keyword.Overlaps(other.Keyword) {
		return true
	}
	return m.acceptsInputOf(other) || other.acceptsInputOf(m)
}

// acceptsInputOf reports whether a suffixed m matches some input that
// selects other.
func (m Mnemonic) acceptsInputOf(other Mnemonic) bool {
	if !m.Suffixed {
		return false
	}
	for l := len(other.Short); l <= len(other.Long); l++ {
		if _, ok := m.Match(other.Long[:l]); ok {
			return true
		}
	}
	return false
}

// Notation returns the declared form, e.g. "OUTPut#".
func (m Mnemonic) Notation() string {
	if m.Suffixed {
		return m.Keyword.Notation() + string(SuffixMarker)
	}
	return m.Keyword.Notation()
}

func (m Mnemonic) String() string {
	return m.Notation()
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

package wire

import (
	"errors"
	"fmt"
	"strings"
)

// Keyword errors.
var (
	ErrKeywordEmpty   = errors.New("keyword is empty")
	ErrKeywordInvalid = errors.New("keyword is not a valid SCPI mnemonic")
)

// Keyword is a SCPI mnemonic with its short and long forms, both stored
// in upper case. "MEASure" has short form MEAS and long form MEASURE.
type Keyword struct {
	Short string
	Long  string
}

// ParseKeyword parses a declared mnemonic in SCPI notation. The leading
// run of upper-case letters (and digits following it) is the mandatory
// short form; the remainder, in lower case, completes the long form.
// Common command names ("*TRG") and all-upper-case names have equal short
// and long forms.
func ParseKeyword(decl string) (Keyword, error) {
	if decl == "" {
		return Keyword{}, ErrKeywordEmpty
	}

	if decl[0] == '*' {
		if len(decl) < 2 {
			return Keyword{}, fmt.Errorf("%w: %q", ErrKeywordInvalid, decl)
		}
		for i := 1; i < len(decl); i++ {
			if !isLetter(decl[i]) {
				return Keyword{}, fmt.Errorf("%w: %q", ErrKeywordInvalid, decl)
			}
		}
		up := strings.ToUpper(decl)
		return Keyword{Short: up, Long: up}, nil
	}

	if !isUpper(decl[0]) {
		return Keyword{}, fmt.Errorf("%w: %q must start with an upper-case letter", ErrKeywordInvalid, decl)
	}

	short := 0
	for short < len(decl) && (isUpper(decl[short]) || isDigit(decl[short]) || decl[short] == '_') {
		short++
	}
	for i := short; i < len(decl); i++ {
		c := decl[i]
		if !isLower(c) && !isDigit(c) && c != '_' {
			return Keyword{}, fmt.Errorf("%w: %q mixes case after the short form", ErrKeywordInvalid, decl)
		}
	}

	return Keyword{
		Short: decl[:short],
		Long:  strings.ToUpper(decl),
	}, nil
}

// MustKeyword is like ParseKeyword but panics on error. Intended for
// package-level keyword tables.
func MustKeyword(decl string) Keyword {
	k, err := ParseKeyword(decl)
	if err != nil {
		panic(err)
	}
	return k
}

// Matches reports whether input selects this keyword: case-insensitive,
// and input must be a prefix of the long form at least as long as the
// short form.
func (k Keyword) Matches(input string) bool {
	if len(input) < len(k.Short) || len(input) > len(k.Long) {
		return false
	}
	return strings.EqualFold(input, k.Long[:len(input)])
}

// Overlaps reports whether some input would match both keywords.
func (k Keyword) Overlaps(other Keyword) bool {
	common := 0
	for common < len(k.Long) && common < len(other.Long) && k.Long[common] == other.Long[common] {
		common++
	}
	return common >= max(len(k.Short), len(other.Short))
}

// Notation returns the keyword in SCPI notation, e.g. "MEASure".
func (k Keyword) Notation() string {
	if k.Short == k.Long {
		return k.Long
	}
	return k.Short + strings.ToLower(k.Long[len(k.Short):])
}

func (k Keyword) String() string {
	return k.Notation()
}

func isLetter(c byte) bool { return isUpper(c) || isLower(c) }
func isUpper(c byte) bool  { return c >= 'A' && c <= 'Z' }
func isLower(c byte) bool  { return c >= 'a' && c <= 'z' }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }

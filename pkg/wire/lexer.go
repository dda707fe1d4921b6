package wire

import (
	"strings"
)

// Wire delimiters.
const (
	// UnitSeparator separates command units within a program message.
	UnitSeparator = ';'

	// PathSeparator separates mnemonics within a header.
	PathSeparator = ':'

	// ParamSeparator separates parameters.
	ParamSeparator = ','

	// QueryMarker terminates a query header.
	QueryMarker = '?'

	// CommonPrefix starts an IEEE488.2 common command header.
	CommonPrefix = '*'

	// ResponseSeparator separates response units of a compound query.
	ResponseSeparator = ";"
)

// Unit is one command unit of a program message.
type Unit struct {
	// Index is the zero-based position of the unit within its line.
	Index int

	// Raw is the unit text as received (trimmed).
	Raw string

	// Header is the header as received, without the query marker.
	Header string

	// Segments are the mnemonics of the header, without separators.
	Segments []string

	// Absolute is set when the header starts with a path separator.
	Absolute bool

	// Common is set for asterisk-prefixed common commands.
	Common bool

	// Query is set when the header ends in a query marker.
	Query bool

	// Params are the raw parameter tokens, trimmed, quotes preserved.
	Params []string
}

// String returns the header including its query marker.
func (u *Unit) String() string {
	if u.Query {
		return u.Header + string(QueryMarker)
	}
	return u.Header
}

// SplitMessage splits a program message into its unit texts. Separators
// inside quoted strings are ignored, surrounding whitespace and line
// terminators are trimmed and empty units are dropped.
func SplitMessage(line string) []string {
	line = strings.TrimRight(line, "\r\n")

	var units []string
	var quote byte
	start := 0
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == UnitSeparator:
			if u := strings.TrimSpace(line[start:i]); u != "" {
				units = append(units, u)
			}
			start = i + 1
		}
	}
	if u := strings.TrimSpace(line[start:]); u != "" {
		units = append(units, u)
	}
	return units
}

// ParseUnit splits a unit into header and parameters. Header syntax
// problems are reported as KindUndefinedHeader errors, parameter syntax
// problems as KindParameterError.
func ParseUnit(raw string) (*Unit, error) {
	text := strings.TrimSpace(raw)
	u := &Unit{Raw: text}

	header, tail := text, ""
	if i := strings.IndexAny(text, " \t"); i >= 0 {
		header, tail = text[:i], strings.TrimSpace(text[i+1:])
	}

	if n := len(header); n > 0 && header[n-1] == QueryMarker {
		u.Query = true
		header = header[:n-1]
	}
	u.Header = header

	if header == "" {
		return u, NewError(KindUndefinedHeader, CodeSyntaxError, "empty header")
	}

	if header[0] == CommonPrefix {
		if err := checkCommon(header); err != nil {
			return u, err
		}
		u.Common = true
		u.Segments = []string{header}
	} else {
		path := header
		if path[0] == PathSeparator {
			u.Absolute = true
			path = path[1:]
		}
		segments := strings.Split(path, string(PathSeparator))
		for _, s := range segments {
			if err := checkSegment(s, header); err != nil {
				return u, err
			}
		}
		u.Segments = segments
	}

	params, err := splitParams(tail)
	if err != nil {
		return u, err
	}
	u.Params = params
	return u, nil
}

// checkCommon validates "*XXX".
func checkCommon(header string) *Error {
	if len(header) < 2 {
		return NewError(KindUndefinedHeader, CodeSyntaxError, header)
	}
	for i := 1; i < len(header); i++ {
		if !isLetter(header[i]) {
			return NewError(KindUndefinedHeader, CodeInvalidCharacter, header)
		}
	}
	return nil
}

// checkSegment validates one program mnemonic: a letter followed by
// letters, digits or underscores.
func checkSegment(s, header string) *Error {
	if s == "" {
		return NewError(KindUndefinedHeader, CodeSyntaxError, header)
	}
	if !isLetter(s[0]) {
		return NewError(KindUndefinedHeader, CodeInvalidCharacter, header)
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !isLetter(c) && !isDigit(c) && c != '_' {
			return NewError(KindUndefinedHeader, CodeInvalidCharacter, header)
		}
	}
	return nil
}

// splitParams splits a parameter tail on commas that are outside quoted
// strings and parentheses.
func splitParams(tail string) ([]string, error) {
	if tail == "" {
		return nil, nil
	}

	var params []string
	var quote byte
	depth := 0
	start := 0

	emit := func(end int) error {
		p := strings.TrimSpace(tail[start:end])
		if p == "" {
			return ParameterErrorf(CodeSyntaxError, "empty parameter")
		}
		params = append(params, p)
		return nil
	}

	for i := 0; i < len(tail); i++ {
		c := tail[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			if depth == 0 {
				return nil, ParameterErrorf(CodeSyntaxError, "unbalanced parenthesis")
			}
			depth--
		case c == ParamSeparator && depth == 0:
			if err := emit(i); err != nil {
				return nil, err
			}
			start = i + 1
		}
	}

	if quote != 0 {
		return nil, ParameterErrorf(CodeStringDataError, "unterminated string")
	}
	if depth != 0 {
		return nil, ParameterErrorf(CodeSyntaxError, "unbalanced parenthesis")
	}
	if err := emit(len(tail)); err != nil {
		return nil, err
	}
	return params, nil
}

package wire

import (
	"math"
	"strconv"
	"strings"
)

// Numeric keywords accepted in place of a value by Parameters.Numeric.
var (
	kwMinimum = MustKeyword("MINimum")
	kwMaximum = MustKeyword("MAXimum")
	kwDefault = MustKeyword("DEFault")
	kwOn      = MustKeyword("ON")
	kwOff     = MustKeyword("OFF")
)

// Parameters is a forward-only view over the parameter tokens of one
// handler invocation. Every extraction consumes one token; a failed
// extraction still consumes it. Errors are *Error values of
// KindParameterError.
type Parameters struct {
	tokens []string
	pos    int
}

// NewParameters creates a parameter view over raw tokens.
func NewParameters(tokens []string) *Parameters {
	return &Parameters{tokens: tokens}
}

// Len returns the total number of parameters.
func (p *Parameters) Len() int {
	return len(p.tokens)
}

// Remaining returns the number of parameters not yet consumed.
func (p *Parameters) Remaining() int {
	return len(p.tokens) - p.pos
}

// HasNext reports whether another parameter is available.
func (p *Parameters) HasNext() bool {
	return p.pos < len(p.tokens)
}

// Next consumes and returns the next raw token.
func (p *Parameters) Next() (string, error) {
	if p.pos >= len(p.tokens) {
		return "", ParameterErrorf(CodeMissingParameter, "parameter %d", p.pos+1)
	}
	tok := p.tokens[p.pos]
	p.pos++
	return tok, nil
}

// Done reports an error if parameters remain unconsumed.
func (p *Parameters) Done() error {
	if p.pos < len(p.tokens) {
		return ParameterErrorf(CodeParameterNotAllowed, "%d unexpected parameter(s)", len(p.tokens)-p.pos)
	}
	return nil
}

// Int consumes an integer. Decimal values (NR1, or NR2/NR3 with an
// integral value) and the non-decimal forms #H, #Q and #B are accepted.
func (p *Parameters) Int() (int64, error) {
	tok, err := p.Next()
	if err != nil {
		return 0, err
	}
	return parseInt(tok)
}

// IntRange consumes an integer and checks it lies within [min, max].
func (p *Parameters) IntRange(min, max int64) (int64, error) {
	v, err := p.Int()
	if err != nil {
		return 0, err
	}
	if v < min || v > max {
		return 0, ParameterErrorf(CodeDataOutOfRange, "%d not in [%d,%d]", v, min, max)
	}
	return v, nil
}

// Float consumes a decimal numeric value (NR1, NR2 or NR3).
func (p *Parameters) Float() (float64, error) {
	tok, err := p.Next()
	if err != nil {
		return 0, err
	}
	return parseFloat(tok)
}

// Numeric consumes a decimal value or one of MINimum, MAXimum, DEFault,
// resolving the keywords to min, max and def. Values outside [min, max]
// are rejected with -222.
func (p *Parameters) Numeric(min, max, def float64) (float64, error) {
	tok, err := p.Next()
	if err != nil {
		return 0, err
	}
	switch {
	case kwMinimum.Matches(tok):
		return min, nil
	case kwMaximum.Matches(tok):
		return max, nil
	case kwDefault.Matches(tok):
		return def, nil
	}
	v, err := parseFloat(tok)
	if err != nil {
		return 0, err
	}
	if v < min || v > max {
		return 0, ParameterErrorf(CodeDataOutOfRange, "%s not in [%g,%g]", tok, min, max)
	}
	return v, nil
}

// Bool consumes a boolean: ON, OFF or a number (non-zero after rounding
// is true).
func (p *Parameters) Bool() (bool, error) {
	tok, err := p.Next()
	if err != nil {
		return false, err
	}
	switch {
	case kwOn.Matches(tok):
		return true, nil
	case kwOff.Matches(tok):
		return false, nil
	}
	v, err := parseFloat(tok)
	if err != nil {
		return false, ParameterErrorf(CodeDataTypeError, "%q is not a boolean", tok)
	}
	return math.Round(v) != 0, nil
}

// Text consumes a quoted string and returns its unquoted content.
func (p *Parameters) Text() (string, error) {
	tok, err := p.Next()
	if err != nil {
		return "", err
	}
	return UnquoteString(tok)
}

// Choice consumes a character-data keyword and returns the index of the
// matching choice. Choices are given in SCPI notation ("IMMediate").
func (p *Parameters) Choice(choices ...string) (int, error) {
	tok, err := p.Next()
	if err != nil {
		return -1, err
	}
	for i, c := range choices {
		if MustKeyword(c).Matches(tok) {
			return i, nil
		}
	}
	return -1, ParameterErrorf(CodeIllegalParameterValue, "%q", tok)
}

// parseInt parses NR1 and #H/#Q/#B forms.
func parseInt(tok string) (int64, error) {
	if len(tok) > 2 && tok[0] == '#' {
		base := 0
		switch tok[1] {
		case 'H', 'h':
			base = 16
		case 'Q', 'q':
			base = 8
		case 'B', 'b':
			base = 2
		}
		if base != 0 {
			v, err := strconv.ParseUint(tok[2:], base, 64)
			if err != nil {
				return 0, ParameterErrorf(CodeDataTypeError, "%q", tok)
			}
			if v > math.MaxInt64 {
				return 0, ParameterErrorf(CodeDataOutOfRange, "%s exceeds the integer range", tok)
			}
			return int64(v), nil
		}
	}

	if v, err := strconv.ParseInt(strings.TrimPrefix(tok, "+"), 10, 64); err == nil {
		return v, nil
	}

	f, err := parseFloat(tok)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, ParameterErrorf(CodeDataTypeError, "%q is not an integer", tok)
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, ParameterErrorf(CodeDataOutOfRange, "%s exceeds the integer range", tok)
	}
	return int64(f), nil
}

// parseFloat parses NR1/NR2/NR3. Go spellings such as "Inf" or "0x1p3"
// are not SCPI numeric data and are rejected.
func parseFloat(tok string) (float64, error) {
	if tok == "" || !isNumericStart(tok[0]) {
		return 0, ParameterErrorf(CodeDataTypeError, "%q is not numeric", tok)
	}
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		if !isDigit(c) && c != '.' && c != '+' && c != '-' && c != 'e' && c != 'E' {
			return 0, ParameterErrorf(CodeDataTypeError, "%q is not numeric", tok)
		}
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, ParameterErrorf(CodeDataTypeError, "%q is not numeric", tok)
	}
	return v, nil
}

func isNumericStart(c byte) bool {
	return isDigit(c) || c == '+' || c == '-' || c == '.'
}

// UnquoteString removes the surrounding quotes of SCPI string data and
// collapses doubled quotes.
func UnquoteString(tok string) (string, error) {
	if len(tok) < 2 {
		return "", ParameterErrorf(CodeDataTypeError, "%q is not a string", tok)
	}
	q := tok[0]
	if (q != '"' && q != '\'') || tok[len(tok)-1] != q {
		return "", ParameterErrorf(CodeDataTypeError, "%q is not a string", tok)
	}
	body := tok[1 : len(tok)-1]
	doubled := string([]byte{q, q})
	if strings.Contains(strings.ReplaceAll(body, doubled, ""), string(q)) {
		return "", ParameterErrorf(CodeStringDataError, "%q", tok)
	}
	return strings.ReplaceAll(body, doubled, string(q)), nil
}

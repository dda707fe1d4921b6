package wire

import (
	"math"
	"strconv"
	"strings"
)

// SCPI representations of non-finite reals.
const (
	NaNValue    = "9.91E+37"
	PosInfValue = "9.9E+37"
	NegInfValue = "-9.9E+37"
)

// Response accumulates the values written by one query handler. Values
// are rendered in write order and joined by commas.
type Response struct {
	values []string
}

// NewResponse creates an empty response.
func NewResponse() *Response {
	return &Response{}
}

// Int appends an NR1 integer.
func (r *Response) Int(v int64) {
	r.values = append(r.values, strconv.FormatInt(v, 10))
}

// Uint appends an unsigned NR1 integer.
func (r *Response) Uint(v uint64) {
	r.values = append(r.values, strconv.FormatUint(v, 10))
}

// Float appends an NR3 real. NaN and infinities use the SCPI sentinels.
func (r *Response) Float(v float64) {
	r.values = append(r.values, FormatFloat(v))
}

// Bool appends 1 or 0.
func (r *Response) Bool(v bool) {
	if v {
		r.values = append(r.values, "1")
		return
	}
	r.values = append(r.values, "0")
}

// String appends quoted string data.
func (r *Response) String(v string) {
	r.values = append(r.values, QuoteString(v))
}

// Keyword appends character response data, e.g. "BUS".
func (r *Response) Keyword(v string) {
	r.values = append(r.values, strings.ToUpper(v))
}

// Raw appends arbitrary ASCII response data verbatim.
func (r *Response) Raw(v string) {
	r.values = append(r.values, v)
}

// Len returns the number of values written.
func (r *Response) Len() int {
	return len(r.values)
}

// Values returns the rendered values.
func (r *Response) Values() []string {
	return r.values
}

// Bytes renders the response unit.
func (r *Response) Bytes() []byte {
	return []byte(strings.Join(r.values, string(ParamSeparator)))
}

// FormatFloat renders a real in NR3 form, e.g. 1.5E+00.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return NaNValue
	case math.IsInf(v, 1):
		return PosInfValue
	case math.IsInf(v, -1):
		return NegInfValue
	}
	return strconv.FormatFloat(v, 'E', -1, 64)
}

// QuoteString renders string data with double quotes, doubling any
// embedded double quotes.
func QuoteString(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// SplitValues splits one response unit into its comma-separated values,
// honoring quoted strings. It is the controller-side inverse of Bytes.
func SplitValues(text string) ([]string, error) {
	return splitParams(strings.TrimSpace(text))
}

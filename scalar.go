package bridge

import "strconv"

// ScalarKind discriminates the variants of a Scalar.
type ScalarKind uint8

const (
	// KindAbsent marks the sentinel returned for missing properties and
	// missing record fields. It is the zero value of Scalar.
	KindAbsent ScalarKind = iota
	KindNull
	KindString
	KindNumber
	KindBool
)

func (k ScalarKind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	}
	return "unknown"
}

// Scalar is a tagged scalar value crossing the runtime boundary: a string,
// number, boolean, or null, plus an explicit absent sentinel. The zero
// value is Absent.
type Scalar struct {
	str  string
	num  float64
	kind ScalarKind
	b    bool
}

// Absent is the sentinel for "no value". It is distinct from Null, which is
// a value the host deliberately set.
var Absent = Scalar{}

// String constructs a string scalar.
func String(s string) Scalar { return Scalar{kind: KindString, str: s} }

// Number constructs a number scalar.
func Number(f float64) Scalar { return Scalar{kind: KindNumber, num: f} }

// Bool constructs a boolean scalar.
func Bool(b bool) Scalar { return Scalar{kind: KindBool, b: b} }

// Null constructs a null scalar.
func Null() Scalar { return Scalar{kind: KindNull} }

// Kind returns the variant tag.
func (s Scalar) Kind() ScalarKind { return s.kind }

// IsAbsent reports whether s is the absent sentinel.
func (s Scalar) IsAbsent() bool { return s.kind == KindAbsent }

// IsNull reports whether s is a null value.
func (s Scalar) IsNull() bool { return s.kind == KindNull }

// AsString returns the string payload if s is a string.
func (s Scalar) AsString() (string, bool) { return s.str, s.kind == KindString }

// AsNumber returns the numeric payload if s is a number.
func (s Scalar) AsNumber() (float64, bool) { return s.num, s.kind == KindNumber }

// AsBool returns the boolean payload if s is a bool.
func (s Scalar) AsBool() (bool, bool) { return s.b, s.kind == KindBool }

// Render flattens the scalar to its string form, the representation handed
// to host handlers. Numbers drop trailing zeros, booleans render as
// "true"/"false", null and absent render empty.
func (s Scalar) Render() string {
	switch s.kind {
	case KindString:
		return s.str
	case KindNumber:
		return strconv.FormatFloat(s.num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(s.b)
	}
	return ""
}

// Equal reports whether two scalars hold the same kind and payload.
func (s Scalar) Equal(o Scalar) bool {
	if s.kind != o.kind {
		return false
	}
	switch s.kind {
	case KindString:
		return s.str == o.str
	case KindNumber:
		return s.num == o.num
	case KindBool:
		return s.b == o.b
	}
	return true
}

// RenderAll flattens a scalar argument list to strings.
func RenderAll(args []Scalar) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = a.Render()
	}
	return out
}

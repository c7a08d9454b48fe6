// Package dataset holds the in-memory table that flows through the
// preparation pipeline.
//
// A Table is column-oriented: every Column carries one Value per row and all
// columns share the same length. Row i of a table always describes the same
// admission, from the loader through every transform to the exporter; no
// operation in this package adds or removes rows once a table is built.
//
// Missing is a distinct state. The zero Value is Missing and never compares
// equal to a zero number, an empty string or false.
package dataset

import (
	"math"
	"strconv"
)

// Kind tags the dynamic type held by a Value.
type Kind uint8

const (
	// KindMissing marks an absent cell.
	KindMissing Kind = iota
	// KindNumber is a float64 cell.
	KindNumber
	// KindText is a string cell.
	KindText
	// KindBool is a two-valued cell (yes/no fields after normalization).
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a single cell.
type Value struct {
	kind Kind
	num  float64
	text string
	flag bool
}

// Missing is the absent value. It is also the zero Value.
var Missing = Value{}

// Number returns a numeric value. NaN is stored as Missing.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Missing
	}
	return Value{kind: KindNumber, num: f}
}

// Text returns a string value. The empty string is a present value; loaders
// decide which raw tokens mean missing.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// Kind reports the dynamic type of v.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether v is absent.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Float returns the numeric reading of v. Booleans read as 1/0; text that
// parses as a float is accepted as well, since loaders may keep numeric
// looking strings when a column was declared textual.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindBool:
		if v.flag {
			return 1, true
		}
		return 0, true
	case KindText:
		f, err := strconv.ParseFloat(v.text, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Bool returns the boolean held by v. Only KindBool values report ok.
func (v Value) Bool() (b, ok bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.flag, true
}

// Str returns the text held by v. Only KindText values report ok.
func (v Value) Str() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.text, true
}

// String renders v the way exporters write it: numbers in their shortest
// round-tripping form, booleans as 1/0 and missing as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.text
	case KindBool:
		if v.flag {
			return "1"
		}
		return "0"
	default:
		return ""
	}
}

// Any converts v to a driver friendly value: nil, float64, string or bool.
func (v Value) Any() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindText:
		return v.text
	case KindBool:
		return v.flag
	default:
		return nil
	}
}

// Equal reports whether v and o hold the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindText:
		return v.text == o.text
	case KindBool:
		return v.flag == o.flag
	default:
		return true
	}
}

// Less orders values for deterministic tie-breaks: missing < numbers < text
// < bool. Numbers compare numerically, text byte-wise, false < true.
func Less(a, b Value) bool {
	if a.kind != b.kind {
		return rank(a.kind) < rank(b.kind)
	}
	switch a.kind {
	case KindNumber:
		return a.num < b.num
	case KindText:
		return a.text < b.text
	case KindBool:
		return !a.flag && b.flag
	default:
		return false
	}
}

func rank(k Kind) int {
	switch k {
	case KindMissing:
		return 0
	case KindNumber:
		return 1
	case KindText:
		return 2
	default:
		return 3
	}
}

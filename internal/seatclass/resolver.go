// Package seatclass maps seat labels to pricing classes.  A seat
// label encodes its class as a literal prefix before the dash
// separator, e.g. "SC-A1" is a sofa seat and "G-12" a gold seat.
package seatclass

// Class labels used throughout the box office.  MIXED and SELECTED
// are sentinels: MIXED marks a booking whose seats span more than one
// class, SELECTED tags ephemeral selections for which no real class
// is tracked.
const (
	Sofa     = "SOFA"
	Platinum = "PLATINUM"
	Premium  = "PREMIUM"
	Gold     = "GOLD"
	Silver   = "SILVER"
	Mixed    = "MIXED"
	Selected = "SELECTED"
)

// Default is the class assumed for seat labels with an unknown
// prefix.  Resolution is deliberately lenient; callers needing strict
// validation must check prefixes themselves.
const Default = Silver

// prefixes is checked in order.  Multi-character codes must come
// before any single-character code they start with ("SC" before "S",
// "PL" before "P"), otherwise the shorter code would shadow them.
var prefixes = []struct {
	code  string
	class string
}{
	{"SC", Sofa},
	{"PL", Platinum},
	{"P", Premium},
	{"G", Gold},
	{"S", Silver},
}

// Of returns the class encoded in the seat label's prefix.  Unknown
// prefixes fall back to Default rather than failing.
func Of(seatLabel string) string {
	for _, p := range prefixes {
		if hasCodePrefix(seatLabel, p.code) {
			return p.class
		}
	}
	return Default
}

// hasCodePrefix reports whether the label starts with the class code.
// The code must be the entire segment before the separator, so "SCX-1"
// does not match "SC".
func hasCodePrefix(label, code string) bool {
	if len(label) <= len(code) {
		return false
	}
	if label[:len(code)] != code {
		return false
	}
	return label[len(code)] == '-'
}

// OfAll resolves every label in the list.  It is a convenience for
// the projector, which needs per-seat classes rather than a booking's
// single stored label.
func OfAll(seatLabels []string) map[string]string {
	out := make(map[string]string, len(seatLabels))
	for _, l := range seatLabels {
		out[l] = Of(l)
	}
	return out
}

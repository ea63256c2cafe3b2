package model

import (
	"errors"
	"strings"
)

// Show identifies one of the fixed daily screening slots.  The box
// office schedules at most one screening per slot per day, so a
// (date, show) pair fully identifies a screening.
type Show string

const (
	ShowMorning Show = "MORNING"
	ShowMatinee Show = "MATINEE"
	ShowEvening Show = "EVENING"
	ShowNight   Show = "NIGHT"
)

// ErrInvalidShow is returned by ParseShow for values outside the
// fixed slot enumeration.
var ErrInvalidShow = errors.New("invalid show slot")

// Shows lists every slot in screening order.
var Shows = []Show{ShowMorning, ShowMatinee, ShowEvening, ShowNight}

// ParseShow normalizes and validates a show slot received from a
// client.  Matching is case-insensitive.
func ParseShow(s string) (Show, error) {
	v := Show(strings.ToUpper(strings.TrimSpace(s)))
	for _, sh := range Shows {
		if v == sh {
			return sh, nil
		}
	}
	return "", ErrInvalidShow
}

// String implements fmt.Stringer.
func (s Show) String() string { return string(s) }

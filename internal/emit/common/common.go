// Package common holds helpers shared by the firmware renderers.
package common

import (
	"strings"
	"unicode/utf8"
)

// Version is set via ldflags at build time: -ldflags "-X github.com/kforge/keyforge/internal/emit/common.Version=x.y.z"
var Version = ""

// GetVersion returns the version stamped into generated files, or
// "0.0.1-dev" for development builds.
func GetVersion() string {
	if Version == "" {
		return "0.0.1-dev"
	}
	return strings.TrimPrefix(Version, "v")
}

// Banner is the first line of every generated file.
func Banner() string {
	return "AUTO-GENERATED by keyforge " + GetVersion() + " - DO NOT EDIT"
}

// Align pads every column of rows to its widest cell and joins the cells
// with sep. Rows of different lengths share column widths by index.
// The last cell of a row is never padded.
func Align(rows [][]string, sep string) []string {
	var widths []int
	for _, r := range rows {
		for j, c := range r {
			if j >= len(widths) {
				widths = append(widths, 0)
			}
			widths[j] = max(widths[j], utf8.RuneCountInString(c))
		}
	}
	out := make([]string, len(rows))
	for i, r := range rows {
		var b strings.Builder
		for j, c := range r {
			if j > 0 {
				b.WriteString(sep)
			}
			b.WriteString(c)
			if j < len(r)-1 {
				b.WriteString(strings.Repeat(" ", widths[j]-utf8.RuneCountInString(c)))
			}
		}
		out[i] = b.String()
	}
	return out
}

// Ident turns a free-form name into a lower-case identifier usable in C and
// devicetree: every run of other characters becomes one underscore.
func Ident(s string) string {
	var b strings.Builder
	under := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			under = false
			continue
		}
		if !under && b.Len() > 0 {
			b.WriteByte('_')
			under = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

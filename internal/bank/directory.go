// Package bank resolves sender codes to human-readable bank names.
package bank

import (
	"sort"
	"strings"
)

// DefaultNames maps well-known sender codes to bank names.
var DefaultNames = map[string]string{
	"HDFCBK": "HDFC Bank",
	"HDFCBN": "HDFC Bank",
	"ICICIB": "ICICI Bank",
	"ICICIT": "ICICI Bank",
	"SBIINB": "State Bank of India",
	"SBIPSG": "State Bank of India",
	"ATMSBI": "State Bank of India",
	"AXISBK": "Axis Bank",
	"KOTAKB": "Kotak Mahindra Bank",
	"PNBSMS": "Punjab National Bank",
	"BOIIND": "Bank of India",
	"CANBNK": "Canara Bank",
	"IDFCFB": "IDFC FIRST Bank",
	"YESBNK": "Yes Bank",
	"INDUSB": "IndusInd Bank",
}

// Directory is an immutable sender-code to bank-name lookup.
type Directory struct {
	names map[string]string
}

// NewDirectory builds a directory from the defaults overlaid with overrides.
// Codes are matched case-insensitively; blank codes or names are ignored.
func NewDirectory(overrides map[string]string) *Directory {
	d := &Directory{names: make(map[string]string, len(DefaultNames)+len(overrides))}
	for code, name := range DefaultNames {
		d.set(code, name)
	}
	for code, name := range overrides {
		d.set(code, name)
	}
	return d
}

func (d *Directory) set(code, name string) {
	code = strings.ToUpper(strings.TrimSpace(code))
	name = strings.TrimSpace(name)
	if code == "" || name == "" {
		return
	}
	d.names[code] = name
}

// Lookup returns the bank name for a normalized sender code.
func (d *Directory) Lookup(code string) (string, bool) {
	if d == nil {
		return "", false
	}
	name, ok := d.names[strings.ToUpper(strings.TrimSpace(code))]
	return name, ok
}

// Resolve returns the bank name for code, falling back to the first non-empty
// fallback value when the code is unknown.
func (d *Directory) Resolve(code string, fallbacks ...string) string {
	if name, ok := d.Lookup(code); ok {
		return name
	}
	for _, f := range fallbacks {
		if f = strings.TrimSpace(f); f != "" {
			return f
		}
	}
	return ""
}

// Codes returns the known sender codes in sorted order.
func (d *Directory) Codes() []string {
	codes := make([]string, 0, len(d.names))
	for code := range d.names {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

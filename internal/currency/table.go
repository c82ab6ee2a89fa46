// Package currency resolves the visitor's active currency and keeps every
// open consumer of the same visitor in sync when it changes.
package currency

import (
	"slices"
	"strings"
)

// DefaultCurrency is used when neither the timezone table nor the network
// lookup yields a supported code.
const DefaultCurrency = "USD"

// DefaultSupported lists the currencies the catalog can be priced in.
var DefaultSupported = []string{"USD", "EUR", "MXN", "COP", "CLP", "PEN"}

// timezoneTable maps IANA timezone prefixes to ISO 4217 codes. The longest
// matching prefix wins, so exact zones override their region.
var timezoneTable = map[string]string{
	"America/Lima":         "PEN",
	"America/Bogota":       "COP",
	"America/Santiago":     "CLP",
	"America/Punta_Arenas": "CLP",
	"Pacific/Easter":       "CLP",

	"America/Mexico_City":    "MXN",
	"America/Cancun":         "MXN",
	"America/Merida":         "MXN",
	"America/Monterrey":      "MXN",
	"America/Matamoros":      "MXN",
	"America/Chihuahua":      "MXN",
	"America/Ciudad_Juarez":  "MXN",
	"America/Ojinaga":        "MXN",
	"America/Mazatlan":       "MXN",
	"America/Bahia_Banderas": "MXN",
	"America/Hermosillo":     "MXN",
	"America/Tijuana":        "MXN",

	"Europe/":          "EUR",
	"Atlantic/Canary":  "EUR",
	"Atlantic/Madeira": "EUR",
	"Atlantic/Azores":  "EUR",

	// European zones outside the euro area.
	"Europe/London":      DefaultCurrency,
	"Europe/Zurich":      DefaultCurrency,
	"Europe/Oslo":        DefaultCurrency,
	"Europe/Stockholm":   DefaultCurrency,
	"Europe/Copenhagen":  DefaultCurrency,
	"Europe/Warsaw":      DefaultCurrency,
	"Europe/Prague":      DefaultCurrency,
	"Europe/Budapest":    DefaultCurrency,
	"Europe/Bucharest":   DefaultCurrency,
	"Europe/Belgrade":    DefaultCurrency,
	"Europe/Istanbul":    DefaultCurrency,
	"Europe/Moscow":      DefaultCurrency,
	"Europe/Kyiv":        DefaultCurrency,
	"Europe/Kiev":        DefaultCurrency,
	"Europe/Minsk":       DefaultCurrency,
	"Europe/Chisinau":    DefaultCurrency,
	"Europe/Tirane":      DefaultCurrency,
	"Europe/Sarajevo":    DefaultCurrency,
	"Europe/Skopje":      DefaultCurrency,
	"Europe/Gibraltar":   DefaultCurrency,
	"Europe/Isle_of_Man": DefaultCurrency,
	"Europe/Jersey":      DefaultCurrency,
	"Europe/Guernsey":    DefaultCurrency,
}

// lookupTimezone returns the table entry with the longest prefix of tz.
func lookupTimezone(tz string) (string, bool) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return "", false
	}
	best, code := -1, ""
	for prefix, c := range timezoneTable {
		if strings.HasPrefix(tz, prefix) && len(prefix) > best {
			best, code = len(prefix), c
		}
	}
	return code, best >= 0
}

// Normalize upper-cases and trims a currency code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// isCode reports whether s is three ASCII letters.
func isCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i] | 0x20
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}

func contains(list []string, code string) bool {
	return slices.Contains(list, code)
}

package utils

import "strings"

// NormalizePlate upper-cases a recognised plate and keeps only ASCII A-Z and 0-9.
func NormalizePlate(raw string) string {
	upper := strings.ToUpper(raw)
	var b strings.Builder
	b.Grow(len(upper))
	for i := 0; i < len(upper); i++ {
		ch := upper[i]
		if (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			b.WriteByte(ch)
		}
	}
	return b.String()
}

package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseUint safely converts a decimal string to uint with a default value.
func ParseUint(s string, defaultVal uint) uint {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || uint64(uint(v)) != v {
		return defaultVal
	}
	return uint(v)
}

// FormatNumber adds comma separators to a number.
func FormatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	var result strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(c)
	}
	if neg {
		return "-" + result.String()
	}
	return result.String()
}

// FormatVND renders an amount in whole dong, e.g. "300,000 VND".
func FormatVND(n int64) string {
	return FormatNumber(n) + " VND"
}

// Age returns a short human-readable duration such as "3d 4h" or "25m".
func Age(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		days := int(d.Hours()) / 24
		return fmt.Sprintf("%dd %dh", days, int(d.Hours())%24)
	}
}

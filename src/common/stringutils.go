package common

import (
	"strings"
)

func JoinSlice(separator string, indent bool, lines ...string) string {
	result := ""
	for i, line := range lines {
		if indent {
			result += "\t"
		}
		result += line
		if i < len(lines)-1 {
			result += separator
		}
	}
	return result
}

func MaskIPString(ip string) string {
	parts := strings.Split(ip, ".")
	result := ""
	for i, part := range parts {
		if i > 0 {
			result += "."
		}
		if i < 2 {
			result += part
		} else {
			result += "***"
		}
	}
	return result
}

// MaskKeyString keeps the first four characters of a key so log lines can
// still tell keys apart.
func MaskKeyString(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-4)
}

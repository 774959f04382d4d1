package utils

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// IntString formats an optional integer, returning "" for nil.
func IntString(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// FormatThousands formats n with comma thousands separators and at most two decimals.
func FormatThousands(n float64) string {
	if n == float64(int64(n)) {
		return printer.Sprintf("%d", int64(n))
	}
	return strings.TrimRight(strings.TrimRight(printer.Sprintf("%.2f", n), "0"), ".")
}

// JoinNonEmpty joins the non-blank values with sep.
func JoinNonEmpty(values []string, sep string) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, sep)
}

// ContainsAnyFold reports whether s contains any of terms, ignoring case.
func ContainsAnyFold(s string, terms ...string) bool {
	lower := strings.ToLower(s)
	for _, t := range terms {
		if t != "" && strings.Contains(lower, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

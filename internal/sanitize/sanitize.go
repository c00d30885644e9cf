// Package sanitize provides output-encoding and input-validation helpers for
// values that end up in HTML, attributes, CSS, or script contexts, plus a few
// payment-specific checks.
package sanitize

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	digitRe = regexp.MustCompile(`^\d+$`)
)

// EscapeHTML encodes the five characters that break out of HTML text nodes.
func EscapeHTML(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#x27;",
	)
	return r.Replace(s)
}

// EscapeAttribute hex-encodes everything outside [a-zA-Z0-9] for use inside
// HTML attribute values, including unquoted ones.
func EscapeAttribute(s string) string {
	var b strings.Builder
	for _, c := range s {
		if isAlphanumeric(c) {
			b.WriteRune(c)
		} else {
			b.WriteString(fmt.Sprintf("&#x%02X;", c))
		}
	}
	return b.String()
}

// EscapeCSS backslash-escapes everything outside [a-zA-Z0-9] for use inside
// CSS values.
func EscapeCSS(s string) string {
	var b strings.Builder
	for _, c := range s {
		if isAlphanumeric(c) {
			b.WriteRune(c)
		} else {
			b.WriteString(fmt.Sprintf(`\%02X `, c))
		}
	}
	return b.String()
}

// EscapeJS unicode-escapes everything outside [a-zA-Z0-9] for safe embedding
// in a JavaScript string literal.
func EscapeJS(s string) string {
	var b strings.Builder
	for _, c := range s {
		if isAlphanumeric(c) {
			b.WriteRune(c)
		} else {
			b.WriteString(fmt.Sprintf(`\u%04X`, c))
		}
	}
	return b.String()
}

func isAlphanumeric(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// ValidRedirectURL accepts only absolute http/https URLs, rejecting
// javascript:, data:, and scheme-relative values.
func ValidRedirectURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ValidLuhn reports whether cardNumber passes the Luhn checksum. Spaces and
// dashes are ignored.
func ValidLuhn(cardNumber string) bool {
	cardNumber = strings.ReplaceAll(cardNumber, " ", "")
	cardNumber = strings.ReplaceAll(cardNumber, "-", "")

	if !digitRe.MatchString(cardNumber) {
		return false
	}

	sum := 0
	double := false
	for i := len(cardNumber) - 1; i >= 0; i-- {
		digit := int(cardNumber[i] - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}
	return sum%10 == 0
}

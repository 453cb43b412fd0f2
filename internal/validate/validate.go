// Package validate holds the pure field validators used by the booking
// flow: CPF checksum, email shape, phone normalization and birthdate
// normalization. All functions are deterministic and side-effect free.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	nonDigits    = regexp.MustCompile(`\D`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)
)

// IsValidCPF verifies the two check digits of a Brazilian CPF. Accepts
// punctuation (dots, dash); rejects sequences of a single repeated digit.
func IsValidCPF(raw string) bool {
	digits := nonDigits.ReplaceAllString(raw, "")
	if len(digits) != 11 {
		return false
	}

	allEqual := true
	for i := 1; i < 11; i++ {
		if digits[i] != digits[0] {
			allEqual = false
			break
		}
	}
	if allEqual {
		return false
	}

	check := func(n int) int {
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(digits[i]-'0') * (n + 1 - i)
		}
		rest := (sum * 10) % 11
		if rest == 10 {
			rest = 0
		}
		return rest
	}

	return check(9) == int(digits[9]-'0') && check(10) == int(digits[10]-'0')
}

// IsValidEmail checks basic address shape; deliverability is not our problem.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// NormalizePhone reduces a phone number to international-dialing digits,
// prefixing defaultDialCode when the number looks national (Brazilian
// mobile/landline lengths of 10 or 11 digits including area code).
func NormalizePhone(raw, defaultDialCode string) string {
	digits := nonDigits.ReplaceAllString(raw, "")
	digits = strings.TrimLeft(digits, "0")

	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, defaultDialCode) && len(digits) >= len(defaultDialCode)+10 {
		return digits
	}
	if len(digits) == 10 || len(digits) == 11 {
		return defaultDialCode + digits
	}
	return digits
}

// IsValidPhone accepts normalized dialing digits of plausible length.
func IsValidPhone(digits string) bool {
	if nonDigits.MatchString(digits) {
		return false
	}
	return len(digits) >= 10 && len(digits) <= 15
}

var birthdateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2/1/2006",
}

// NormalizeBirthdate turns free-text birthdates into YYYY-MM-DD. Returns
// "" when the text does not parse, is in the future, or implies an age
// beyond anything plausible.
func NormalizeBirthdate(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}

	for _, layout := range birthdateLayouts {
		t, err := time.Parse(layout, trimmed)
		if err != nil {
			continue
		}
		now := time.Now().UTC()
		if t.After(now) || t.Year() < now.Year()-130 {
			return ""
		}
		return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
	}
	return ""
}

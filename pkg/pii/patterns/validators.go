package patterns

import (
	"strings"
)

// Validator reports whether matched text is a structurally valid identifier.
type Validator func(match string) bool

// validators maps pack validator names to implementations.
var validators = map[string]Validator{
	"luhn":  validLuhn,
	"mod97": validIBAN,
	"aba":   validABARouting,
	"npi":   validNPI,
	"mod11": validNHS,
}

// LookupValidator returns the validator registered under name.
func LookupValidator(name string) (Validator, bool) {
	v, ok := validators[name]
	return v, ok
}

// validLuhn checks the digits of s against the Luhn algorithm (ISO/IEC 7812).
func validLuhn(s string) bool {
	return luhn(stripNonDigits(s))
}

func luhn(number string) bool {
	n := len(number)
	if n < 2 {
		return false
	}
	sum := 0
	alt := false
	for i := n - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if alt {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		alt = !alt
	}
	return sum%10 == 0
}

// validIBAN verifies the ISO 13616 MOD-97 check digits. The first four
// characters move to the end, letters expand to two digits (A=10 .. Z=35),
// and the remainder of the resulting number must be 1.
func validIBAN(s string) bool {
	iban := strings.ToUpper(strings.ReplaceAll(s, " ", ""))
	if len(iban) < 15 || len(iban) > 34 {
		return false
	}
	rearranged := iban[4:] + iban[:4]
	rem := 0
	for i := 0; i < len(rearranged); i++ {
		ch := rearranged[i]
		switch {
		case ch >= '0' && ch <= '9':
			rem = (rem*10 + int(ch-'0')) % 97
		case ch >= 'A' && ch <= 'Z':
			v := int(ch-'A') + 10
			rem = (rem*100 + v) % 97
		default:
			return false
		}
	}
	return rem == 1
}

// validABARouting checks a nine-digit ABA routing number with the 3-7-1
// weighted checksum.
func validABARouting(s string) bool {
	digits := stripNonDigits(s)
	if len(digits) != 9 {
		return false
	}
	weights := [3]int{3, 7, 1}
	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(digits[i]-'0') * weights[i%3]
	}
	return sum != 0 && sum%10 == 0
}

// validNPI checks a ten-digit National Provider Identifier. The Luhn check
// runs over the number prefixed with the 80840 health-industry issuer code.
func validNPI(s string) bool {
	digits := stripNonDigits(s)
	if len(digits) != 10 {
		return false
	}
	return luhn("80840" + digits)
}

// validNHS checks a ten-digit NHS number with the modulus 11 algorithm.
func validNHS(s string) bool {
	digits := stripNonDigits(s)
	if len(digits) != 10 {
		return false
	}
	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(digits[i]-'0') * (10 - i)
	}
	check := 11 - sum%11
	switch check {
	case 11:
		check = 0
	case 10:
		return false
	}
	return check == int(digits[9]-'0')
}

// stripNonDigits removes all non-digit characters from s.
func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if ch := s[i]; ch >= '0' && ch <= '9' {
			b.WriteByte(ch)
		}
	}
	return b.String()
}

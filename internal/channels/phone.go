package channels

import "strings"

// NormalizePhone reduces a phone number to digits and fixes the Brazilian
// mobile format. Webhooks deliver numbers without the ninth digit
// (55 + DDD + 8 digits) while the send API requires it
// (55 + DDD + 9 + 8 digits), so 12-digit numbers starting with 55 gain a
// 9 after the area code.
func NormalizePhone(phone string) string {
	phone = strings.TrimPrefix(phone, "whatsapp:")

	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if len(digits) == 12 && strings.HasPrefix(digits, "55") {
		return digits[:4] + "9" + digits[4:]
	}
	return digits
}

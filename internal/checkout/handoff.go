package checkout

import "strings"

const handoffBase = "https://wa.me/"

func HandoffMessage(orderID string) string {
	return "Hello! I would like to confirm my order #" + orderID
}

// HandoffLink builds the chat deep link that carries the order id to the
// merchant.
func HandoffLink(merchantNumber, orderID string) string {
	return handoffBase + merchantNumber + "?text=" + encodeComponent(HandoffMessage(orderID))
}

// encodeComponent percent-encodes everything except the URI component
// unreserved set A-Z a-z 0-9 - _ . ! ~ * ' ( ).
func encodeComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isComponentSafe(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isComponentSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}

package unit

import (
	"crypto/rand"
	"math/big"
)

// NewInternalID generates a fresh EAN-13 internal id: twelve random digits
// plus the standard check digit. The id doubles as the unit's barcode.
func NewInternalID() string {
	digits := make([]byte, 13)
	for i := 0; i < 12; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			n = big.NewInt(0)
		}
		digits[i] = byte('0' + n.Int64())
	}
	digits[12] = '0' + checkDigit(digits[:12])
	return string(digits)
}

// IsValidInternalID reports whether the string can be an internal unit id:
// exactly thirteen digits. Scanner input that fails this is not a unit
// barcode at all, so the check digit is deliberately not enforced here.
func IsValidInternalID(s string) bool {
	if len(s) != 13 {
		return false
	}
	for i := 0; i < 13; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// checkDigit computes the EAN-13 check digit for twelve payload digits.
func checkDigit(payload []byte) byte {
	sum := 0
	for i, d := range payload {
		v := int(d - '0')
		if i%2 == 1 {
			v *= 3
		}
		sum += v
	}
	return byte((10 - sum%10) % 10)
}

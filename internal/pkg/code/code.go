package code

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

var spaces = strings.NewReplacer(" ", "", "\t", "")

// New generates a numeric validation code of the given width using
// crypto/rand. Each digit is drawn independently so the code is not
// derivable from the user id or a timestamp.
func New(width int) (string, error) {
	if width < 1 {
		return "", fmt.Errorf("code width must be positive, got %d", width)
	}
	var b strings.Builder
	for i := 0; i < width; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate code digit: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// Normalize fixes incorrectly submitted codes: "183", "000183" or "0 183"
// all become "0183" at width 4. Whitespace is stripped, leading zeros are
// dropped, and the result is left-padded back to the expected width.
func Normalize(submitted string, width int) string {
	s := spaces.Replace(strings.TrimSpace(submitted))
	s = strings.TrimLeft(s, "0")
	for len(s) < width {
		s = "0" + s
	}
	return s
}

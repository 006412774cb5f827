package appointment

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strconv"
)

const (
	otpMin = 100000
	otpMax = 999999
)

var otpPattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)

var otpSpan = big.NewInt(otpMax - otpMin + 1)

// GenerateOTP draws uniformly from [100000, 999999] and renders the value as
// six decimal digits.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpan)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

func ValidOTP(code string) bool {
	return otpPattern.MatchString(code)
}

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"math/big"
)

// AccessCodeAlphabet holds the 68 symbols an access code is drawn from.
const AccessCodeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#&"

// AccessCodeLength is the number of symbols in an access code.
const AccessCodeLength = 6

var alphabetSize = big.NewInt(int64(len(AccessCodeAlphabet)))

// GenerateAccessCode draws AccessCodeLength symbols uniformly, with
// replacement, from AccessCodeAlphabet using crypto/rand.
func GenerateAccessCode() (string, error) {
	code := make([]byte, AccessCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		code[i] = AccessCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// RotateAccessCode returns a fresh code guaranteed to differ from current.
func RotateAccessCode(current string) (string, error) {
	for {
		next, err := GenerateAccessCode()
		if err != nil {
			return "", err
		}
		if next != current {
			return next, nil
		}
	}
}

// AccessCodeMatches compares codes in constant time.
func AccessCodeMatches(stored, supplied string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}

package crypto

import (
	"crypto/rand"
	"math/big"
)

const inviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateNumericCode returns a random decimal code of n digits
func GenerateNumericCode(n int) (string, error) {
	return randomString(n, "0123456789")
}

// GenerateInviteCode returns an n character code without look-alike characters
func GenerateInviteCode(n int) (string, error) {
	return randomString(n, inviteAlphabet)
}

func randomString(n int, alphabet string) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}

package ws

import (
	"crypto/rand"
	"math/big"
)

// palette is the fixed set of member colors, assigned round-robin by
// join order within a room. Reuse past seven members is accepted.
var palette = []string{
	"#ff6b6b", "#4ecdc4", "#45b7d1", "#f39c12", "#e74c3c", "#9b59b6", "#2ecc71",
}

const sessionIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// newSessionID returns a random 9-char base36 token (~46 bits).
func newSessionID() string {
	b := make([]byte, 9)
	max := big.NewInt(int64(len(sessionIDAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err) // crypto/rand failure is unrecoverable
		}
		b[i] = sessionIDAlphabet[n.Int64()]
	}
	return string(b)
}

package game

import "math/rand"

// codeAlphabet omits characters that read ambiguously on a projector
// (0/O, 1/I).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	codeLength      = 6
	maxCodeAttempts = 100
)

func randomCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// newAccessCode returns a code not present in taken. Retries are
// bounded; if a length somehow exhausts its attempts the length grows
// by one and the counter resets, so termination is guaranteed.
func newAccessCode(taken func(code string) bool) string {
	n := codeLength
	for {
		for attempt := 0; attempt < maxCodeAttempts; attempt++ {
			code := randomCode(n)
			if !taken(code) {
				return code
			}
		}
		n++
	}
}

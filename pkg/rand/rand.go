package rand

// Credit to https://www.calhoun.io/creating-random-strings-in-go/

import (
	"math/rand"
	"time"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Upper bound for generated incident IDs; keeps them readable in test output
const maxID = 1 << 20

var seededRand *rand.Rand = rand.New(
	rand.NewSource(time.Now().UnixNano()))

func StringWithCharset(length int, charset string) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[seededRand.Intn(len(charset))]
	}
	return string(b)
}

func String(length int) string {
	return StringWithCharset(length, charset)
}

// Between returns a random int in [min, max]
func Between(min, max int) int {
	return min + seededRand.Intn(max-min+1)
}

// ID returns a random positive incident ID
func ID() int64 {
	return seededRand.Int63n(maxID) + 1
}

package service

import (
	"crypto/rand"
	"fmt"
)

// crockford is Crockford base32: no I, L, O or U, so codes survive being
// read aloud or retyped.
const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// roomCodeLength gives ~1e9 distinct codes.
const roomCodeLength = 6

// NewRoomCode generates a random 6-character room code.
func NewRoomCode() (string, error) {
	buf := make([]byte, roomCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("room code: %w", err)
	}
	for i, b := range buf {
		buf[i] = crockford[int(b)%len(crockford)]
	}
	return string(buf), nil
}

package util

import (
	"io"

	"github.com/google/uuid"
)

// NewUUID builds a version 4 UUID from 16 bytes of r and returns its
// canonical 8-4-4-4-12 lowercase hex form. Byte 6 gets the 0100 version
// nibble and byte 8 the 10 variant bits.
//
// r is normally crypto/rand.Reader; tests pass a fixed reader.
func NewUUID(r io.Reader) (string, error) {
	id, err := uuid.NewRandomFromReader(r)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

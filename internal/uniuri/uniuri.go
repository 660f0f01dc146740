// Package uniuri generates random strings for initial passwords and tokens.
package uniuri

import (
	"crypto/rand"
	"errors"
)

// StdLen gives about 95 bits of entropy with StdChars.
const StdLen = 16

// StdChars are the characters used by New.
var StdChars = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789") //nolint:gochecknoglobals

// ErrCharset is returned for a character set shorter than 2 or longer than 256.
var ErrCharset = errors.New("uniuri: charset must hold between 2 and 256 characters")

// New returns a random string of StdLen standard characters.
func New() (string, error) {
	return NewLenChars(StdLen, StdChars)
}

// NewLenChars returns a random string of length characters taken from chars.
// Random bytes above the largest multiple of len(chars) are rejected so every character is equally likely.
func NewLenChars(length int, chars []byte) (string, error) {
	n := len(chars)
	if n < 2 || n > 256 {
		return "", ErrCharset
	}

	limit := 256 - 256%n
	out := make([]byte, 0, length)
	buf := make([]byte, length+length/2+1)

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err //nolint:wrapcheck
		}

		for _, b := range buf {
			if int(b) >= limit {
				continue
			}

			out = append(out, chars[int(b)%n])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}

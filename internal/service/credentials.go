package service

import (
	"errors"
	"fmt"
	"io"
)

const (
	usernameLength = 16
	passwordLength = 16

	// WHM usernames must be lowercase
	usernameAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	maxUsernameRolls = 64
)

var errTooManyRolls = errors.New("could not generate a username starting with a letter")

// randomString draws n characters from alphabet using rejection sampling so
// every character is equally likely.
func randomString(r io.Reader, alphabet string, n int) (string, error) {
	limit := 256 - 256%len(alphabet)
	out := make([]byte, 0, n)
	buf := make([]byte, n)

	for len(out) < n {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// generateUsername returns a random WHM username. Candidates starting with a
// digit are discarded and rolled again.
func generateUsername(r io.Reader) (string, error) {
	for i := 0; i < maxUsernameRolls; i++ {
		username, err := randomString(r, usernameAlphabet, usernameLength)
		if err != nil {
			return "", err
		}
		if username[0] < '0' || username[0] > '9' {
			return username, nil
		}
	}
	return "", errTooManyRolls
}

// resolvePassword returns supplied when set, otherwise a random password.
func resolvePassword(r io.Reader, supplied string) (string, error) {
	if supplied != "" {
		return supplied, nil
	}
	return randomString(r, passwordAlphabet, passwordLength)
}

// Package idgen generates short, URL-safe edge identifiers backed by nanoid.
//
// Node ids are sequential numbers owned by the graph; edge ids carry no
// meaning and only need to be unique within one flow.
package idgen

import (
	"errors"
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// DefaultPrefix is prepended to every generated edge id.
var DefaultPrefix = "e-"

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 8

// maxAttempts bounds collision retries in GenerateUnique.
const maxAttempts = 16

// ErrExhausted is returned when GenerateUnique keeps colliding.
var ErrExhausted = errors.New("idgen: could not generate an unused id")

// Generate returns a new ID using the default prefix.
func Generate() (string, error) {
	return GenerateWithPrefix(DefaultPrefix)
}

// GenerateWithPrefix returns a new ID with the given prefix.
func GenerateWithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}

// GenerateUnique returns an id with the default prefix for which taken
// reports false, regenerating on collision.
func GenerateUnique(taken func(string) bool) (string, error) {
	for range maxAttempts {
		id, err := Generate()
		if err != nil {
			return "", err
		}
		if taken == nil || !taken(id) {
			return id, nil
		}
	}
	return "", ErrExhausted
}

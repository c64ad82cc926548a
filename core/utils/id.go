package utils

import (
	"crypto/rand"
	"encoding/base64"
	"strings"

	"github.com/gosimple/slug"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

func GenerateID() string {
	id, err := gonanoid.Generate(idAlphabet, 7)
	if err != nil {
		return ""
	}
	return id
}

// GenerateRandomString generates a cryptographically secure random string
func GenerateRandomString(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to nanoid if crypto/rand fails
		id, _ := gonanoid.Generate(idAlphabet, length)
		return id
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length]
}

// GenerateFileName builds a storage name for an uploaded file: a random
// nanoid prefix, a slugged fragment of the original base name, and the
// lower-cased extension. The random prefix makes names unguessable.
func GenerateFileName(original, ext string) string {
	id, err := gonanoid.Generate(idAlphabet, 16)
	if err != nil {
		id = GenerateRandomString(16)
	}
	base := slug.Make(strings.TrimSuffix(original, "."+ext))
	if len(base) > 32 {
		base = base[:32]
	}
	if base == "" {
		return id + "." + strings.ToLower(ext)
	}
	return id + "-" + base + "." + strings.ToLower(ext)
}

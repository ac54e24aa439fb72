package util

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/go-playground/validator/v10"
	"github.com/makkenzo/apikey-validator/internal/domain/apikey"
)

var (
	validate  = newValidator()
	secretTag = fmt.Sprintf("required,utf16max=%d", apikey.MaxSecretLength)
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("utf16max", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return utf16Len(fl.Field().String()) <= limit
	})
	return v
}

// utf16Len counts UTF-16 code units, the unit browsers and JSON clients measure strings in.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// isTrimSpace matches the characters ECMAScript String.prototype.trim removes.
func isTrimSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\u2028', '\u2029', '\uFEFF':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func generateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func generateRandomString(length int) (string, error) {
	var sb strings.Builder
	for sb.Len() < length {
		b, err := generateRandomBytes((length*3 + 3) / 4)
		if err != nil {
			return "", err
		}

		str := base64.URLEncoding.EncodeToString(b)
		str = strings.ReplaceAll(str, "-", "")
		str = strings.ReplaceAll(str, "_", "")
		str = strings.TrimRight(str, "=")
		sb.WriteString(str)
	}

	return sb.String()[:length], nil
}

// GenerateSecret builds a new bearer secret for a key of the given type.
func GenerateSecret(keyType string) (string, error) {
	if !slices.Contains(apikey.Types, keyType) {
		return "", fmt.Errorf("unknown api key type %q", keyType)
	}

	random, err := generateRandomString(apikey.SecretRandomLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}

	return fmt.Sprintf(apikey.SecretFormat, keyType, random), nil
}

// SanitizeSecret trims the presented value and reports whether it has an acceptable length.
func SanitizeSecret(raw string) (string, bool) {
	s := strings.TrimFunc(raw, isTrimSpace)
	if err := validate.Var(s, secretTag); err != nil {
		return s, false
	}
	return s, true
}

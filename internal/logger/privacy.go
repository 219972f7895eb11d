package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// MinHashSaltLength is the shortest salt SetHashSalt accepts.
const MinHashSaltLength = 32

var hashSalt string

func init() {
	hashSalt = os.Getenv("LOG_HASH_SALT")
	if hashSalt == "" {
		hashSalt = "default-salt-change-in-production"
	}
}

// SetHashSalt replaces the salt used by the Hash helpers.
func SetHashSalt(salt string) error {
	if len(salt) < MinHashSaltLength {
		return fmt.Errorf("hash salt must be at least %d characters", MinHashSaltLength)
	}
	hashSalt = salt
	return nil
}

func hashID(id int64) string {
	data := fmt.Sprintf("%d:%s", id, hashSalt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:8]
}

// HashUserID creates a privacy-preserving hash of a Telegram user ID.
func HashUserID(userID int64) string {
	return hashID(userID)
}

// HashChatID creates a privacy-preserving hash of a chat ID.
func HashChatID(chatID int64) string {
	return hashID(chatID)
}

// SanitizeDescription redacts a payment description but keeps its shape.
func SanitizeDescription(desc string) string {
	if desc == "" {
		return "<empty>"
	}
	return fmt.Sprintf("<redacted: %d words, %d chars>", len(strings.Fields(desc)), len(desc))
}

// SanitizeText is a general-purpose sanitizer for any user-provided text.
func SanitizeText(text string) string {
	if text == "" {
		return "<empty>"
	}

	if len(text) <= 10 {
		return fmt.Sprintf("<%d chars>", len(text))
	}

	return fmt.Sprintf("%s...<%d chars>", text[:3], len(text))
}

// MaskEmail keeps the first character of the local part and the domain,
// e.g. "jane@acme.io" becomes "j***@acme.io".
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "<invalid email>"
	}
	return email[:1] + "***" + email[at:]
}

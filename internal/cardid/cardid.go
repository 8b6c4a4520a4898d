// Package cardid derives stable card identifiers from card content.
package cardid

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/conorfennell/recall/internal/domain"
)

// Normalize joins the identifying fields of a card after cleaning each one.
// Only front and back identify a card, so editing the example or the audio
// reference keeps its schedule and history.
func Normalize(card domain.Card) string {
	clean := func(part string) string {
		p := strings.ReplaceAll(part, "\r\n", "\n")
		return strings.ToLower(strings.TrimSpace(p))
	}
	// The newline keeps "ab"+"c" and "a"+"bc" apart.
	return clean(card.Front) + "\n" + clean(card.Back)
}

// ID returns the hex SHA-256 of the normalized card.
func ID(card domain.Card) string {
	sum := sha256.Sum256([]byte(Normalize(card)))
	return hex.EncodeToString(sum[:])
}

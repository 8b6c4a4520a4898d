package cardid

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/conorfennell/recall/internal/domain"
)

func TestNormalize(t *testing.T) {
	card := domain.Card{
		Front:   "  ¿Qué HORA es? \r\n",
		Back:    "What time is it?",
		Example: "ignored",
	}
	expected := "¿qué hora es?\nwhat time is it?"
	if got := Normalize(card); got != expected {
		t.Errorf("Expected normalized string to be '%s', but got '%s'", expected, got)
	}
}

func TestID(t *testing.T) {
	t.Run("is the hash of the normalized content", func(t *testing.T) {
		sum := sha256.Sum256([]byte("q\na"))
		expected := hex.EncodeToString(sum[:])
		if got := ID(domain.Card{Front: "Q", Back: "A"}); got != expected {
			t.Errorf("Expected id '%s', but got '%s'", expected, got)
		}
	})

	t.Run("ignores example and audio", func(t *testing.T) {
		a := domain.Card{Front: "gato", Back: "cat", Example: "El gato duerme."}
		b := domain.Card{Front: "gato", Back: "cat", Audio: "gato.mp3"}
		if ID(a) != ID(b) {
			t.Error("Expected presentation-only fields not to change the id")
		}
	})

	t.Run("normalization produces same id", func(t *testing.T) {
		a := domain.Card{Front: "  buenos días ", Back: "good morning"}
		b := domain.Card{Front: "Buenos Días", Back: "Good Morning"}
		if ID(a) != ID(b) {
			t.Error("Expected ids to be the same after normalization")
		}
	})

	t.Run("field boundary matters", func(t *testing.T) {
		a := domain.Card{Front: "ab", Back: "c"}
		b := domain.Card{Front: "a", Back: "bc"}
		if ID(a) == ID(b) {
			t.Error("Expected different splits of the same text to differ")
		}
	})
}

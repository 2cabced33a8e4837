package confirmation

import (
	"strings"
	"unicode"
)

type Intent string

const (
	IntentConfirm Intent = "confirm"
	IntentCancel  Intent = "cancel"
	IntentUnknown Intent = "unknown"
)

var (
	confirmPhrases = phrases("confirmar", "confirmo", "si", "sí", "ok", "dale", "listo", "voy", "asisto", "confirmar turno", "1")
	cancelPhrases  = phrases("cancelar", "cancelo", "no", "no puedo", "no voy", "anular", "2")
)

func phrases(ps ...string) [][]string {
	out := make([][]string, len(ps))
	for i, p := range ps {
		out[i] = strings.Fields(p)
	}
	return out
}

// ParseIntent classifies a patient's reply. Keywords match whole words, so
// "asistir" does not count as "si". When both lists match, the longer
// phrase wins ("no voy" beats "voy"); an exact tie resolves to confirm.
func ParseIntent(text string) Intent {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return IntentUnknown
	}

	confirm := longestMatch(words, confirmPhrases)
	cancel := longestMatch(words, cancelPhrases)
	switch {
	case confirm == 0 && cancel == 0:
		return IntentUnknown
	case cancel > confirm:
		return IntentCancel
	default:
		return IntentConfirm
	}
}

// longestMatch returns the word count of the longest phrase found as a
// contiguous run in words, or 0.
func longestMatch(words []string, list [][]string) int {
	best := 0
	for _, p := range list {
		if len(p) > best && containsRun(words, p) {
			best = len(p)
		}
	}
	return best
}

func containsRun(words, run []string) bool {
	for i := 0; i+len(run) <= len(words); i++ {
		match := true
		for j := range run {
			if words[i+j] != run[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

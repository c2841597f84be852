package command

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Keyword groups, in normalized form (lowercase, no diacritics).
var (
	emergencyPhrases = []string{"emergencia", "ayuda urgente"}
	helpPhrases      = []string{"ayuda", "ayudame", "como funciona", "que puedo decir"}
	cancelPhrases    = []string{"cancelar", "cancela", "cancelalo", "detener", "detene", "detenete", "detente", "parar", "frenar", "frena"}
	openPhrases      = []string{"abrir", "abri", "abre", "abra", "abran", "abrime"}
	closePhrases     = []string{"cerrar", "cerra", "cierra", "cierre", "cierren"}
	upPhrases        = []string{"subir", "subi", "sube", "suba", "subime", "arriba"}
	downPhrases      = []string{"bajar", "baja", "baje", "bajame", "abajo"}
	floorPhrases     = []string{"al piso", "piso", "llevame a", "llevame al", "lleva a", "llevar a", "llevame"}
)

// Normalize lowercases s, strips diacritics and punctuation and collapses
// whitespace. "¿Cómo funciona?" becomes "como funciona".
func Normalize(s string) string {
	// transform.Chain is stateful, build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	lowered := strings.ToLower(s)
	out, _, err := transform.String(t, lowered)
	if err != nil {
		out = lowered
	}
	fields := strings.FieldsFunc(out, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	text := strings.Join(fields, " ")
	// "planta baja" is a floor, not a "down" verb.
	return replacePhrase(text, "planta baja", "pb")
}

// Interpret maps a free-text utterance to exactly one Intent. Rules are
// evaluated in a fixed order and the first match wins, so "cancelar piso 5"
// is a Cancel. Extracted floors are clamped into [0, maxFloor].
// Interpret는 발화를 하나의 Intent로 변환합니다. 먼저 일치하는 규칙이 우선합니다.
func Interpret(utterance string, maxFloor int) Intent {
	text := Normalize(utterance)
	if text == "" {
		return Intent{Type: IntentUnrecognized}
	}

	switch {
	case containsAny(text, emergencyPhrases):
		return Intent{Type: IntentEmergency}
	case containsAny(text, helpPhrases):
		return Intent{Type: IntentHelp}
	case containsAny(text, cancelPhrases):
		return Intent{Type: IntentCancel}
	case containsAny(text, openPhrases):
		return Intent{Type: IntentOpenDoors}
	case containsAny(text, closePhrases):
		return Intent{Type: IntentCloseDoors}
	case containsAny(text, upPhrases):
		return Intent{Type: IntentStepUp}
	case containsAny(text, downPhrases):
		return Intent{Type: IntentStepDown}
	}

	if rest, ok := afterFirstPhrase(text, floorPhrases); ok {
		if f, found := extractFloor(rest, maxFloor); found {
			return MoveTo(Clamp(f, 0, maxFloor))
		}
	}
	if f, found := extractFloor(text, maxFloor); found {
		return MoveTo(Clamp(f, 0, maxFloor))
	}
	return Intent{Type: IntentUnrecognized}
}

// ParseNumberWord looks up a spelled-out number between 0 and 30.
func ParseNumberWord(word string) (int, bool) {
	w := strings.ToLower(strings.TrimSpace(word))
	if n, ok := numberWords[w]; ok {
		return n, true
	}
	n, ok := numberWords[Normalize(w)]
	return n, ok
}

// Clamp saturates v into [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// extractFloor prefers a digit token, then a number word, then a named floor.
func extractFloor(text string, maxFloor int) (int, bool) {
	tokens := strings.Fields(text)
	for _, tok := range tokens {
		if n, ok := parseDigitToken(tok); ok {
			return n, true
		}
	}
	for _, tok := range tokens {
		if n, ok := numberWords[tok]; ok {
			return n, true
		}
	}
	for _, nf := range namedFloors {
		if containsPhrase(text, nf.phrase) {
			if nf.floor == topFloor {
				return maxFloor, true
			}
			return nf.floor, true
		}
	}
	return 0, false
}

func parseDigitToken(tok string) (int, bool) {
	end := 0
	for end < len(tok) && tok[end] >= '0' && tok[end] <= '9' {
		end++
	}
	if end == 0 || !ordinalSuffixes[tok[end:]] {
		return 0, false
	}
	n, err := strconv.Atoi(tok[:end])
	if err != nil || n > maxDigitFloor {
		return 0, false
	}
	return n, true
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if containsPhrase(text, p) {
			return true
		}
	}
	return false
}

func containsPhrase(text, phrase string) bool {
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}

// afterFirstPhrase returns the text following the earliest matching phrase.
func afterFirstPhrase(text string, phrases []string) (string, bool) {
	padded := " " + text + " "
	best, bestEnd := -1, 0
	for _, p := range phrases {
		idx := strings.Index(padded, " "+p+" ")
		if idx < 0 {
			continue
		}
		end := idx + len(p) + 1
		if best < 0 || idx < best || (idx == best && end > bestEnd) {
			best, bestEnd = idx, end
		}
	}
	if best < 0 {
		return "", false
	}
	return strings.TrimSpace(padded[bestEnd:]), true
}

func replacePhrase(text, phrase, with string) string {
	padded := strings.ReplaceAll(" "+text+" ", " "+phrase+" ", " "+with+" ")
	return strings.TrimSpace(padded)
}

package kepub

import "strings"

// Character classes consumed by the segmenter state machine.
type segInput int

const (
	inputPunctStandard segInput = iota // . ! ?
	inputPunctExtra                    // closing quotes, apostrophe, ellipsis
	inputWhitespace                    // space, tab, CR, LF
	inputOther
	inputEndOfText
)

// Segmenter states.
type segState int

const (
	stateDefault segState = iota
	stateAfterPunct
	stateAfterPunctExtra
	stateAfterSpace
	stateFinished
)

// classifyRune maps a rune to its segmenter input class.
func classifyRune(r rune) segInput {
	switch {
	case strings.ContainsRune(".!?", r):
		return inputPunctStandard
	case strings.ContainsRune(`'"”’“…`, r):
		return inputPunctExtra
	case r == ' ' || r == '\t' || r == '\r' || r == '\n':
		return inputWhitespace
	}
	return inputOther
}

// splitSentences splits text into an ordered list of sentence substrings
// for kobospan wrapping. A boundary is cut at the first non-whitespace rune
// following sentence-ending punctuation (optionally trailed by closing
// quotes) plus whitespace; the trailing whitespace run stays with the
// preceding sentence. Concatenating the result reproduces the input, with
// two exceptions: input that never produces a boundary is returned whole
// as a single sentence (even if empty or all whitespace), and exactly one
// rune remaining after the last boundary is silently dropped. The latter
// is a quirk kept for compatibility with previously generated output;
// likely a truncation bug in the source of this behavior.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)

	segBegin := 0
	i := 0
	state := stateDefault
	for state != stateFinished {
		input := inputEndOfText
		if i < len(runes) {
			input = classifyRune(runes[i])
		}

		cut := false
		switch state {
		case stateDefault:
			switch input {
			case inputPunctStandard:
				state = stateAfterPunct
			case inputEndOfText:
				state = stateFinished
			}
		case stateAfterPunct:
			switch input {
			case inputPunctStandard:
				// stay
			case inputPunctExtra:
				state = stateAfterPunctExtra
			case inputWhitespace:
				state = stateAfterSpace
			case inputOther:
				state = stateDefault
			case inputEndOfText:
				state = stateFinished
			}
		case stateAfterPunctExtra:
			switch input {
			case inputPunctStandard:
				state = stateAfterPunct
			case inputPunctExtra, inputOther:
				state = stateDefault
			case inputWhitespace:
				state = stateAfterSpace
			case inputEndOfText:
				state = stateFinished
			}
		case stateAfterSpace:
			switch input {
			case inputPunctStandard:
				cut = true
				state = stateAfterPunct
			case inputPunctExtra, inputOther:
				cut = true
				state = stateDefault
			case inputWhitespace:
				// stay
			case inputEndOfText:
				state = stateFinished
			}
		}

		if state == stateFinished {
			// End of input: emit the remainder. If no boundary was ever
			// cut, the whole input is one sentence; otherwise a remainder
			// of a single rune is dropped (see doc comment).
			if len(sentences) == 0 {
				sentences = append(sentences, text)
			} else if i > segBegin+1 {
				sentences = append(sentences, string(runes[segBegin:]))
			}
			break
		}

		if cut {
			sentences = append(sentences, string(runes[segBegin:i]))
			segBegin = i
		}
		i++
	}

	return sentences
}

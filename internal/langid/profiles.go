package langid

import "golang.org/x/text/language"

func builtinProfiles() []profile {
	return []profile{
		{tag: language.English, words: []string{
			"the", "and", "of", "to", "in", "is", "you", "that", "it", "for",
			"with", "are", "on", "this", "your", "be", "at", "by", "from", "or",
			"have", "an", "was", "we", "will", "can", "our", "all", "more", "not",
			"a",
		}},
		{tag: language.Spanish, words: []string{
			"el", "la", "de", "que", "y", "en", "los", "las", "del", "se",
			"por", "un", "una", "para", "con", "no", "es", "al", "lo", "como",
			"más", "pero", "sus", "su", "este", "esta", "está", "son", "nuestro", "también",
		}},
		{tag: language.French, words: []string{
			"le", "la", "les", "de", "des", "et", "un", "une", "du", "en",
			"est", "que", "qui", "pour", "dans", "pas", "sur", "au", "avec", "vous",
			"nous", "ce", "cette", "sont", "plus", "votre", "aux", "par", "mais", "été",
		}},
		{tag: language.German, words: []string{
			"der", "die", "das", "und", "ist", "nicht", "ein", "eine", "zu", "den",
			"mit", "von", "für", "auf", "sie", "es", "dem", "sich", "auch", "wir",
			"ihr", "oder", "werden", "bei", "nach", "wie", "aus", "noch", "über", "sind",
		}},
		{tag: language.Italian, words: []string{
			"il", "di", "che", "e", "la", "per", "un", "una", "non", "sono",
			"gli", "della", "del", "le", "con", "si", "questo", "alla", "anche", "nel",
			"come", "più", "ma", "dei", "delle", "al", "è", "ci", "tutti", "molto",
		}},
		{tag: language.Portuguese, words: []string{
			"o", "a", "os", "as", "de", "que", "e", "do", "da", "em",
			"um", "uma", "para", "com", "não", "no", "na", "por", "mais", "se",
			"dos", "das", "você", "seu", "sua", "ao", "pelo", "pela", "também", "são",
		}},
		{tag: language.Dutch, words: []string{
			"de", "het", "een", "en", "van", "is", "dat", "op", "te", "niet",
			"zijn", "voor", "met", "die", "er", "ook", "aan", "bij", "maar", "wij",
			"uw", "je", "naar", "worden", "deze", "dit", "heeft", "kan", "om", "nog",
		}},
	}
}

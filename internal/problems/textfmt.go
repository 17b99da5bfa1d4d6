package problems

import (
	"regexp"
	"strings"
)

// Descriptions come from scraped HTML, which collapses superscripts and
// subscripts into plain digits and letters ("10^5" or "105" for 10⁵,
// "arrivali" for arrivalᵢ). These fixups restore the intended notation
// before a problem is broadcast to players.

var supDigits = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴',
	'5': '⁵', '6': '⁶', '7': '⁷', '8': '⁸', '9': '⁹',
}

var subLetters = map[rune]rune{
	'i': 'ᵢ',
	'j': 'ⱼ',
}

func toSup(s string) string {
	return strings.Map(func(r rune) rune {
		if sup, ok := supDigits[r]; ok {
			return sup
		}
		return r
	}, s)
}

func toSub(s string) string {
	return strings.Map(func(r rune) rune {
		if sub, ok := subLetters[r]; ok {
			return sub
		}
		return r
	}, s)
}

// replaceGroups applies re to text, computing each replacement from the
// match's submatch groups.
func replaceGroups(re *regexp.Regexp, text string, repl func(groups []string) string) string {
	return re.ReplaceAllStringFunc(text, func(m string) string {
		return repl(re.FindStringSubmatch(m))
	})
}

var (
	reCaret      = regexp.MustCompile(`(\d+)\^(\d+)`)
	rePow10After = regexp.MustCompile(`([<>=] )(-?)10([4-9])\b`)
	rePow10Ahead = regexp.MustCompile(`\b(-?)10([4-9])( [<>=])`)
	rePow2After  = regexp.MustCompile(`([<>=] )(-?)2(3[12])\b`)
	rePow2Ahead  = regexp.MustCompile(`\b(-?)2(3[12])( [<>=])`)
)

// FixExponents fixes exponent display in problem descriptions.
//
// Handles two forms:
//   - Explicit caret: '10^5' → '10⁵', '2^31' → '2³¹'
//   - Collapsed (from HTML scraping) in constraint contexts:
//     '<= 105' → '<= 10⁵', '<= 231' → '<= 2³¹'
//
// Collapsed forms are only rewritten next to a comparison operator; lower
// collapsed digits (100..103) are likely real numbers and are left alone.
func FixExponents(text string) string {
	text = replaceGroups(reCaret, text, func(g []string) string {
		return g[1] + toSup(g[2])
	})
	text = replaceGroups(rePow10After, text, func(g []string) string {
		return g[1] + g[2] + "10" + toSup(g[3])
	})
	text = replaceGroups(rePow10Ahead, text, func(g []string) string {
		return g[1] + "10" + toSup(g[2]) + g[3]
	})
	text = replaceGroups(rePow2After, text, func(g []string) string {
		return g[1] + g[2] + "2" + toSup(g[3])
	})
	text = replaceGroups(rePow2Ahead, text, func(g []string) string {
		return g[1] + "2" + toSup(g[2]) + g[3]
	})
	return text
}

// Words that legitimately end in 'i' and must not grow a subscript.
var subscriptStopWords = map[string]bool{
	"mini": true, "maxi": true, "taxi": true, "semi": true, "anti": true,
	"multi": true, "ascii": true, "wiki": true, "khaki": true, "alibi": true,
	"alumni": true, "bikini": true, "chili": true, "safari": true, "sushi": true,
}

var (
	reBracketDef  = regexp.MustCompile(`\[([a-zA-Z]+[ij](?:,\s*[a-zA-Z]+[ij])*)\]`)
	reBracketWord = regexp.MustCompile(`\b([a-zA-Z]+?)([ij])\b`)
	reMultiWord   = regexp.MustCompile(`\b([a-zA-Z]{3,})([ij])\b`)
	reQuoted      = regexp.MustCompile(`"(?:[^"\\]|\\.)*"`)
	reSubLeAfter  = regexp.MustCompile(`(<=\s)([a-zA-Z])([ij])\b`)
	reSubLeAhead  = regexp.MustCompile(`\b([a-zA-Z])([ij])(\s*<=)`)
	reSubNeAhead  = regexp.MustCompile(`\b([a-zA-Z])([ij])(\s*!=)`)
	reSubNeAfter  = regexp.MustCompile(`(!=\s)([a-zA-Z])([ij])\b`)
)

// FixSubscripts restores collapsed subscripts from scraped HTML.
//
// When HTML like a<sub>i</sub> is scraped to plain text, subscript indices
// collapse into the variable name (ai). Patterns handled:
//   - Bracket definitions:  [arrivali, timei] → [arrivalᵢ, timeᵢ]
//   - Multi-letter (4+ chars) standalone: arrivali → arrivalᵢ
//   - Two-char (ai, bj) in math/constraint contexts
func FixSubscripts(text string) string {
	// Pass 1: bracket definitions [wordi, wordj, ...]
	text = replaceGroups(reBracketDef, text, func(g []string) string {
		fixed := replaceGroups(reBracketWord, g[1], func(w []string) string {
			return w[1] + toSub(w[2])
		})
		return "[" + fixed + "]"
	})

	// Pass 2: multi-letter collapsed subscripts, skipping quoted strings so
	// string literals are not mangled.
	var out strings.Builder
	last := 0
	for _, loc := range reQuoted.FindAllStringIndex(text, -1) {
		out.WriteString(fixMultiLetter(text[last:loc[0]]))
		out.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	out.WriteString(fixMultiLetter(text[last:]))
	text = out.String()

	// Pass 3: two-char subscripts adjacent to comparison operators
	text = replaceGroups(reSubLeAfter, text, func(g []string) string {
		return g[1] + g[2] + toSub(g[3])
	})
	text = replaceGroups(reSubLeAhead, text, func(g []string) string {
		return g[1] + toSub(g[2]) + g[3]
	})
	text = replaceGroups(reSubNeAhead, text, func(g []string) string {
		return g[1] + toSub(g[2]) + g[3]
	})
	text = replaceGroups(reSubNeAfter, text, func(g []string) string {
		return g[1] + g[2] + toSub(g[3])
	})

	return text
}

func fixMultiLetter(text string) string {
	return replaceGroups(reMultiWord, text, func(g []string) string {
		if subscriptStopWords[strings.ToLower(g[0])] {
			return g[0]
		}
		return g[1] + toSub(g[2])
	})
}

// CleanDescription applies all display fixups to a problem description
func CleanDescription(text string) string {
	return FixSubscripts(FixExponents(text))
}

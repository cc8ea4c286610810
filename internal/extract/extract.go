// Package extract produces top-level function and class symbols with line
// ranges from raw file content. It is a pure, best-effort text scanner: no
// AST, no history, and unparseable input yields zero symbols rather than an
// error so a single bad file never aborts ingestion.
package extract

import (
	"regexp"
	"strings"
)

// Symbol kinds. These match the values stored in the symbols table.
const (
	KindFunction = "function"
	KindClass    = "class"
)

// Symbol is one top-level definition with a 1-indexed, inclusive line range.
type Symbol struct {
	Kind      string
	Name      string
	StartLine int
	EndLine   int
}

type language int

const (
	langUnknown language = iota
	langPython
	langBrace
)

var (
	rePyDef   = regexp.MustCompile(`^(?:async\s+)?def\s+([A-Za-z_]\w*)`)
	rePyClass = regexp.MustCompile(`^class\s+([A-Za-z_]\w*)`)

	reGoFunc  = regexp.MustCompile(`^func\s+(?:\([^)]*\)\s+)?([A-Za-z_]\w*)`)
	reGoType  = regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\s+(?:struct|interface)\b`)
	reJSFunc  = regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)`)
	reClass   = regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:public\s+|final\s+|abstract\s+)*class\s+([A-Za-z_$][\w$]*)`)
	reCFunc   = regexp.MustCompile(`^[A-Za-z_][\w*\s]*[\s*]([A-Za-z_]\w*)\s*\(`)
	reControl = regexp.MustCompile(`^(?:if|for|while|switch|return|else|do|case)\b`)
)

// Symbols extracts top-level function and class definitions from content.
// langHint may be a language name ("python", "go"), an extension (".py"), or
// a file path ("pkg/utils.py"). Unknown or malformed content returns an empty
// slice. Results are in source order (ascending StartLine).
func Symbols(content string, langHint string) []Symbol {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")

	switch detectLanguage(langHint) {
	case langPython:
		return pythonSymbols(lines)
	case langBrace:
		return braceSymbols(lines, langHint)
	default:
		return nil
	}
}

// detectLanguage maps a hint string onto one of the two scanning strategies.
func detectLanguage(hint string) language {
	h := strings.ToLower(strings.TrimSpace(hint))
	// Reduce a path or extension hint to its final extension.
	if idx := strings.LastIndex(h, "."); idx >= 0 {
		h = h[idx+1:]
	}
	switch h {
	case "py", "pyi", "python":
		return langPython
	case "go", "golang",
		"js", "jsx", "javascript", "ts", "tsx", "typescript",
		"java", "c", "h", "cc", "cpp", "cxx", "hpp":
		return langBrace
	default:
		return langUnknown
	}
}

// pythonSymbols scans for column-0 def/class statements. A block ends at the
// last non-blank line indented deeper than column 0; column-0 decorators
// immediately above a definition extend its span upward.
func pythonSymbols(lines []string) []Symbol {
	var symbols []Symbol
	decoratorStart := 0 // 1-indexed line of the first pending decorator, 0 if none

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if line == "" || isIndented(line) {
			continue
		}

		if strings.HasPrefix(line, "@") {
			if decoratorStart == 0 {
				decoratorStart = i + 1
			}
			continue
		}

		kind, name := pythonDefinition(line)
		if name == "" {
			decoratorStart = 0
			continue
		}

		start := i + 1
		if decoratorStart != 0 {
			start = decoratorStart
			decoratorStart = 0
		}

		end := i + 1
		for j := i + 1; j < len(lines); j++ {
			next := lines[j]
			if next == "" {
				continue
			}
			if !isIndented(next) {
				break
			}
			end = j + 1
		}

		symbols = append(symbols, Symbol{Kind: kind, Name: name, StartLine: start, EndLine: end})
	}
	return symbols
}

func pythonDefinition(line string) (kind, name string) {
	if m := rePyDef.FindStringSubmatch(line); m != nil {
		return KindFunction, m[1]
	}
	if m := rePyClass.FindStringSubmatch(line); m != nil {
		return KindClass, m[1]
	}
	return "", ""
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

// braceSymbols scans for definitions at brace depth 0 and closes each one
// where the depth returns to 0. Brace counting is textual; string literals
// containing braces can skew ranges, which is acceptable for a best-effort
// line-level extractor.
func braceSymbols(lines []string, langHint string) []Symbol {
	var symbols []Symbol
	depth := 0

	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], " \t")
		trimmed := strings.TrimLeft(line, " \t")

		if depth == 0 && !isCommentLine(trimmed) {
			if kind, name := braceDefinition(trimmed, langHint); name != "" {
				if end, ok := definitionEnd(lines, i); ok {
					symbols = append(symbols, Symbol{Kind: kind, Name: name, StartLine: i + 1, EndLine: end + 1})
					// Skip past the body; depth is back to 0 there.
					i = end
					continue
				}
			}
		}

		depth += braceDelta(line)
		if depth < 0 {
			depth = 0
		}
	}
	return symbols
}

func braceDefinition(line, langHint string) (kind, name string) {
	if m := reGoFunc.FindStringSubmatch(line); m != nil {
		return KindFunction, m[1]
	}
	if m := reGoType.FindStringSubmatch(line); m != nil {
		return KindClass, m[1]
	}
	if m := reJSFunc.FindStringSubmatch(line); m != nil {
		return KindFunction, m[1]
	}
	if m := reClass.FindStringSubmatch(line); m != nil {
		return KindClass, m[1]
	}
	// C-style "returntype name(" definitions, excluding control flow and
	// assignments that happen to contain a call.
	if isCFamily(langHint) && !reControl.MatchString(line) && !strings.Contains(strings.SplitN(line, "(", 2)[0], "=") {
		if m := reCFunc.FindStringSubmatch(line); m != nil {
			return KindFunction, m[1]
		}
	}
	return "", ""
}

// definitionEnd finds the line index where a definition starting at start
// closes: the line on which brace depth returns to zero after the opening
// brace. A ';' before any '{' marks a bodiless declaration, which is not a
// definition; !ok is returned for those and for unterminated bodies.
func definitionEnd(lines []string, start int) (int, bool) {
	depth := 0
	opened := false
	for i := start; i < len(lines); i++ {
		for _, r := range lines[i] {
			switch r {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
				if opened && depth <= 0 {
					return i, true
				}
			case ';':
				if !opened {
					return 0, false
				}
			}
		}
	}
	return 0, false
}

func braceDelta(line string) int {
	delta := 0
	for _, r := range line {
		switch r {
		case '{':
			delta++
		case '}':
			delta--
		}
	}
	return delta
}

func isCFamily(hint string) bool {
	h := strings.ToLower(strings.TrimSpace(hint))
	if idx := strings.LastIndex(h, "."); idx >= 0 {
		h = h[idx+1:]
	}
	switch h {
	case "c", "h", "cc", "cpp", "cxx", "hpp", "java":
		return true
	default:
		return false
	}
}

func isCommentLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "//") ||
		strings.HasPrefix(trimmed, "#") ||
		strings.HasPrefix(trimmed, "/*") ||
		strings.HasPrefix(trimmed, "*")
}

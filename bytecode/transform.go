package bytecode

import (
	"github.com/voltbuild/volt/textedit"
)

// ConvertArrowFunctions rewrites arrow functions in source to equivalent
// ordinary function expressions. Certain engine builds mishandle cached
// bytecode for some arrow forms, so code destined for compilation is
// normalized first. The transform is conservative: an arrow it cannot
// parse is left untouched, and on any rewrite conflict the original source
// is returned unchanged.
func ConvertArrowFunctions(source string) string {
	code := codeMask(source)
	script := textedit.New(source)

	for i := 0; i+1 < len(source); i++ {
		if source[i] != '=' || source[i+1] != '>' || !code[i] || !code[i+1] {
			continue
		}
		rewriteArrow(script, source, code, i)
	}

	out, err := script.Render()
	if err != nil {
		return source
	}
	return out
}

// rewriteArrow records the edits for the arrow token at position arrow.
// Block bodies keep their braces; expression bodies are wrapped in a
// return statement. Edits never cover the body interior, so nested arrows
// are rewritten independently.
func rewriteArrow(script *textedit.Script, source string, code []bool, arrow int) {
	paramsStart, params, ok := scanParamsBackward(source, code, arrow)
	if !ok {
		return
	}

	prefix := ""
	if word, wordStart := wordBefore(source, code, paramsStart); word == "async" {
		prefix = "async "
		paramsStart = wordStart
	}

	bodyStart := skipSpace(source, arrow+2)
	if bodyStart >= len(source) {
		return
	}

	head := prefix + "function " + params + " "
	if source[bodyStart] == '{' {
		// Block body: replace "params =>" and keep the braces.
		_ = script.Overwrite(paramsStart, bodyStart, head)
		return
	}

	bodyEnd, ok := scanExpressionEnd(source, code, bodyStart)
	if !ok {
		return
	}
	_ = script.Overwrite(paramsStart, bodyStart, head+"{ return ")
	_ = script.Overwrite(bodyEnd, bodyEnd, " }")
}

// scanParamsBackward finds the parameter list ending just before the arrow
// token and returns its start offset and parenthesized form.
func scanParamsBackward(source string, code []bool, arrow int) (int, string, bool) {
	i := arrow - 1
	for i >= 0 && isSpace(source[i]) {
		i--
	}
	if i < 0 {
		return 0, "", false
	}

	if source[i] == ')' {
		depth := 0
		for j := i; j >= 0; j-- {
			if !code[j] {
				continue
			}
			switch source[j] {
			case ')':
				depth++
			case '(':
				depth--
				if depth == 0 {
					return j, source[j : i+1], true
				}
			}
		}
		return 0, "", false
	}

	if !isIdentChar(source[i]) {
		return 0, "", false
	}
	end := i + 1
	for i >= 0 && isIdentChar(source[i]) {
		i--
	}
	start := i + 1
	ident := source[start:end]
	if ident == "" || (ident[0] >= '0' && ident[0] <= '9') {
		return 0, "", false
	}
	return start, "(" + ident + ")", true
}

// scanExpressionEnd finds the end of an expression body: the first
// top-level ',', ';', ')', ']' or '}' after start, or end of input.
func scanExpressionEnd(source string, code []bool, start int) (int, bool) {
	depth := 0
	for i := start; i < len(source); i++ {
		if !code[i] {
			continue
		}
		switch source[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth == 0 {
				return trimSpaceEnd(source, start, i), true
			}
			depth--
		case ',', ';':
			if depth == 0 {
				return trimSpaceEnd(source, start, i), true
			}
		}
	}
	return trimSpaceEnd(source, start, len(source)), true
}

// wordBefore returns the identifier immediately preceding offset, skipping
// whitespace, together with its start position.
func wordBefore(source string, code []bool, offset int) (string, int) {
	i := offset - 1
	for i >= 0 && isSpace(source[i]) {
		i--
	}
	if i < 0 || !code[i] || !isIdentChar(source[i]) {
		return "", 0
	}
	end := i + 1
	for i >= 0 && isIdentChar(source[i]) {
		i--
	}
	return source[i+1 : end], i + 1
}

// codeMask marks which bytes of source are executable code as opposed to
// the interior of a string literal, template literal, or comment. Template
// substitutions (${...}) count as code.
func codeMask(source string) []bool {
	mask := make([]bool, len(source))
	// templateDepth tracks nesting of ${...} inside template literals.
	var templates []int
	braceDepth := 0

	for i := 0; i < len(source); i++ {
		c := source[i]
		switch c {
		case '\'', '"':
			mask[i] = true // delimiters are code for delimiter matching
			quote := c
			for i++; i < len(source); i++ {
				if source[i] == '\\' {
					i++
					continue
				}
				if source[i] == quote || source[i] == '\n' {
					mask[i] = true
					break
				}
			}
		case '`':
			mask[i] = true
			for i++; i < len(source); i++ {
				if source[i] == '\\' {
					i++
					continue
				}
				if source[i] == '$' && i+1 < len(source) && source[i+1] == '{' {
					templates = append(templates, braceDepth)
					braceDepth++
					mask[i] = true
					mask[i+1] = true
					i++
					break
				}
				if source[i] == '`' {
					mask[i] = true
					break
				}
			}
		case '/':
			if i+1 < len(source) && source[i+1] == '/' {
				for i < len(source) && source[i] != '\n' {
					i++
				}
				if i < len(source) {
					mask[i] = true
				}
				continue
			}
			if i+1 < len(source) && source[i+1] == '*' {
				i += 2
				for i+1 < len(source) && !(source[i] == '*' && source[i+1] == '/') {
					i++
				}
				i++
				continue
			}
			mask[i] = true
		case '{':
			braceDepth++
			mask[i] = true
		case '}':
			braceDepth--
			mask[i] = true
			// Closing a template substitution resumes the literal text.
			if n := len(templates); n > 0 && templates[n-1] == braceDepth {
				templates = templates[:n-1]
				for i++; i < len(source); i++ {
					if source[i] == '\\' {
						i++
						continue
					}
					if source[i] == '$' && i+1 < len(source) && source[i+1] == '{' {
						templates = append(templates, braceDepth)
						braceDepth++
						mask[i] = true
						mask[i+1] = true
						i++
						break
					}
					if source[i] == '`' {
						mask[i] = true
						break
					}
				}
			}
		default:
			mask[i] = true
		}
	}
	return mask
}

func skipSpace(source string, i int) int {
	for i < len(source) && isSpace(source[i]) {
		i++
	}
	return i
}

func trimSpaceEnd(source string, start, end int) int {
	for end > start && isSpace(source[end-1]) {
		end--
	}
	return end
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

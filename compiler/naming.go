package compiler

import (
	"strings"
	"unicode"
)

// ToSnakeCase converts PascalCase to snake_case. Handles acronym runs
// (e.g. "HTTPServer" → "http_server") and digit boundaries.
func ToSnakeCase(s string) string {
	var result []rune
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				if unicode.IsLower(prev) || unicode.IsDigit(prev) {
					result = append(result, '_')
				} else if unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
					result = append(result, '_')
				}
			}
			result = append(result, unicode.ToLower(r))
		} else {
			result = append(result, r)
		}
	}
	out := strings.Trim(string(result), "_")
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return out
}

var goKeywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true,
	"continue": true, "default": true, "defer": true, "else": true,
	"fallthrough": true, "for": true, "func": true, "go": true,
	"goto": true, "if": true, "import": true, "interface": true,
	"map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true,
	"var": true,
}

// EscapeIdent makes a name usable as a Go identifier, suffixing keywords
// with an underscore.
func EscapeIdent(name string) string {
	if goKeywords[name] {
		return name + "_"
	}
	return name
}

// ModuleIdent derives a Go-safe module name from a host package name.
// This is the deterministic fallback when no explicit mapping exists.
func ModuleIdent(pkg string) string {
	return EscapeIdent(ToSnakeCase(pkg))
}

// ParamIdent converts a schema parameter name to a Go parameter name.
func ParamIdent(name string) string {
	if name == "" {
		return "arg"
	}
	snake := ToSnakeCase(name)
	// lowerCamel reads better in signatures; keep snake for multiword
	// only when the first segment would collide with a keyword.
	parts := strings.Split(snake, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return EscapeIdent(strings.Join(parts, ""))
}

// ConveniencePrefix is the host convention for script-facing wrappers of
// native functions. A prefixed name is dropped when the unprefixed
// counterpart exists on the same class.
const ConveniencePrefix = "K2_"

// StripConveniencePrefix returns the unprefixed name and whether the
// prefix was present.
func StripConveniencePrefix(name string) (string, bool) {
	if rest, ok := strings.CutPrefix(name, ConveniencePrefix); ok {
		return rest, true
	}
	return name, false
}

package project

import "strings"

// stripJSONC removes "//" and "/* */" comments and trailing commas from a
// JSONC byte sequence so it can be decoded with encoding/json. This is used
// only to pull the top-level "references" and "include" arrays out of a
// tsconfig.json —
// everything else about the config is parsed by the real tsgo parser via
// shim/tsoptions, which already understands the full JSONC grammar.
func stripJSONC(src []byte) []byte {
	var out []byte
	inString := false
	escaped := false
	i := 0
	for i < len(src) {
		c := src[i]
		if inString {
			out = append(out, c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			i++
			continue
		}
		switch {
		case c == '"':
			inString = true
			out = append(out, c)
			i++
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			i += 2
			for i+1 < len(src) && !(src[i] == '*' && src[i+1] == '/') {
				i++
			}
			i += 2
		default:
			out = append(out, c)
			i++
		}
	}
	return stripTrailingCommas(out)
}

// stripTrailingCommas removes commas that appear right before a closing
// ] or } (ignoring whitespace), which standard encoding/json rejects but
// JSONC/tsconfig files commonly contain.
func stripTrailingCommas(src []byte) []byte {
	var out []byte
	for i := 0; i < len(src); i++ {
		c := src[i]
		if c == ',' {
			j := i + 1
			for j < len(src) && isJSONSpace(src[j]) {
				j++
			}
			if j < len(src) && (src[j] == ']' || src[j] == '}') {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

func isJSONSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// trimJSON is a tiny convenience used by callers that want to check whether
// sanitized content is empty/whitespace-only before decoding.
func trimJSON(src []byte) string {
	return strings.TrimSpace(string(src))
}

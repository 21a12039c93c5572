package gen

// Beautify reformats generator output with newlines and indentation
// tracking brace depth. It is not a pretty printer of record: it exists
// so the source text pipeline.Pipeline.Run returns is readable, not to
// produce output a human would hand-format.
func Beautify(src string) string {
	var b []byte
	depth := 0
	inString := byte(0)
	newLine := func() {
		b = append(b, '\n')
		for i := 0; i < depth; i++ {
			b = append(b, ' ', ' ')
		}
	}
	for i := 0; i < len(src); i++ {
		c := src[i]
		if inString != 0 {
			b = append(b, c)
			if c == '\\' && i+1 < len(src) {
				i++
				b = append(b, src[i])
				continue
			}
			if c == inString {
				inString = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			inString = c
			b = append(b, c)
		case '{':
			b = append(b, c)
			depth++
			newLine()
		case '}':
			depth--
			if depth < 0 {
				depth = 0
			}
			b = trimTrailingBlankLine(b)
			newLine()
			b = append(b, c)
		case ';':
			b = append(b, c)
			if i+1 < len(src) && src[i+1] != '}' {
				newLine()
			}
		default:
			b = append(b, c)
		}
	}
	return string(b)
}

// trimTrailingBlankLine drops a newline-plus-indentation run just written
// by newLine, so an empty "{\n  }" block collapses to "{\n}" instead of
// leaving a dangling blank line before the closing brace.
func trimTrailingBlankLine(b []byte) []byte {
	i := len(b)
	for i > 0 && b[i-1] == ' ' {
		i--
	}
	if i > 0 && b[i-1] == '\n' {
		return b[:i-1]
	}
	return b
}

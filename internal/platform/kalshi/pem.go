package kalshi

import "strings"

// NormalizePEM repairs a PEM private key that was mangled in transit through
// an environment variable: literal "\n" sequences, carriage returns, and
// collapsed line breaks. Keys that are already well-formed pass through
// unchanged apart from whitespace trimming.
func NormalizePEM(raw string) string {
	p := strings.TrimSpace(raw)
	p = strings.ReplaceAll(p, `\n`, "\n")
	p = strings.ReplaceAll(p, "\r", "")

	for _, label := range []string{"RSA PRIVATE KEY", "PRIVATE KEY"} {
		if block, ok := extractPEMBlock(p, label); ok {
			return rebuildPEMBlock(block, label)
		}
	}
	return p
}

// extractPEMBlock pulls the BEGIN..END block for label out of raw, restoring
// line breaks around the armor if they were stripped.
func extractPEMBlock(raw, label string) (string, bool) {
	begin := "-----BEGIN " + label + "-----"
	end := "-----END " + label + "-----"

	start := strings.Index(raw, begin)
	if start < 0 {
		return "", false
	}
	stop := strings.Index(raw, end)
	if stop < start {
		return "", false
	}

	block := raw[start : stop+len(end)]
	if !strings.Contains(block, "\n") {
		block = strings.Replace(block, begin, begin+"\n", 1)
		block = strings.Replace(block, end, "\n"+end, 1)
	}
	return block, true
}

// rebuildPEMBlock re-wraps the base64 body at 64 columns, dropping any
// stray characters that crept into it.
func rebuildPEMBlock(block, label string) string {
	begin := "-----BEGIN " + label + "-----"
	end := "-----END " + label + "-----"

	var body strings.Builder
	inBody := false
	for _, line := range strings.Split(block, "\n") {
		switch {
		case strings.Contains(line, begin):
			inBody = true
		case strings.Contains(line, end):
			inBody = false
		case inBody:
			for _, ch := range line {
				if isBase64Char(ch) {
					body.WriteRune(ch)
				}
			}
		}
	}

	var out strings.Builder
	out.WriteString(begin)
	out.WriteByte('\n')
	data := body.String()
	for len(data) > 0 {
		n := 64
		if len(data) < n {
			n = len(data)
		}
		out.WriteString(data[:n])
		out.WriteByte('\n')
		data = data[n:]
	}
	out.WriteString(end)
	return out.String()
}

func isBase64Char(ch rune) bool {
	switch {
	case ch >= 'A' && ch <= 'Z', ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9':
		return true
	case ch == '+' || ch == '/' || ch == '=':
		return true
	}
	return false
}

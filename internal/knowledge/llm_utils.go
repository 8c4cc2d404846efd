package knowledge

import "strings"

// stripFence removes a code fence wrapped around a whole reply, whatever its
// info string. Fences inside the reply are kept.
func stripFence(reply string) string {
	reply = strings.TrimSpace(reply)
	if !strings.HasPrefix(reply, "```") {
		return reply
	}
	body, ok := strings.CutSuffix(reply, "```")
	if !ok || len(body) < 3 {
		return reply
	}
	firstLine, rest, found := strings.Cut(body[3:], "\n")
	if !found {
		return strings.TrimSpace(firstLine)
	}
	if strings.ContainsAny(strings.TrimSpace(firstLine), " \t") {
		// Not an info string, the reply starts on the fence line.
		rest = firstLine + "\n" + rest
	}
	return strings.TrimSpace(rest)
}

// TruncateRunes cuts s to at most n characters without splitting a UTF-8 sequence.
func TruncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}


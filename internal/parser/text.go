package parser

import "strings"

var textMarkers = []struct {
	prefix string
	role   string
}{
	{"human:", RoleUser},
	{"user:", RoleUser},
	{"assistant:", RoleAssistant},
	{"claude:", RoleAssistant},
}

// ParseText extracts messages from a free-form transcript using
// "Human:", "User:", "Assistant:" and "Claude:" line markers.
// Text before the first marker is dropped. Transcripts without
// markers yield no messages.
func ParseText(text string, src Source) (Result, error) {
	res := Result{
		Format:    FormatText,
		SessionID: src.Stem(),
		Metadata:  map[string]any{"source": string(FormatText)},
	}

	var (
		role string
		buf  []string
	)
	flush := func() {
		if role == "" {
			return
		}
		res.Messages = append(res.Messages, Message{
			Sequence:    len(res.Messages),
			Role:        role,
			Content:     strings.TrimSpace(strings.Join(buf, "\n")),
			ContentType: "text",
		})
	}

	for _, line := range strings.Split(text, "\n") {
		if r, ok := markerRole(line); ok {
			flush()
			role = r
			_, rest, _ := strings.Cut(line, ":")
			buf = []string{rest}
			continue
		}
		buf = append(buf, line)
	}
	flush()
	return res, nil
}

func markerRole(line string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(line))
	for _, m := range textMarkers {
		if strings.HasPrefix(lower, m.prefix) {
			return m.role, true
		}
	}
	return "", false
}

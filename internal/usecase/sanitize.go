package usecase

import (
	"encoding/json"
	"strings"
)

// SanitizeAnswer normalizes raw model output into the `{"answer": ...}` JSON
// envelope the provider expects. When the model already returned a JSON object
// with an "answer" key it is passed through re-encoded; otherwise the text is
// flattened: newlines and bullet markers removed, '-' turned into a space, the
// rupee symbol spelled out, and whitespace collapsed.
func SanitizeAnswer(raw string) string {
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		if _, ok := parsed["answer"]; ok {
			if b, err := json.Marshal(parsed); err == nil {
				return string(b)
			}
		}
	}

	ans := raw
	ans = strings.ReplaceAll(ans, "\n", " ")
	ans = strings.ReplaceAll(ans, "\r", " ")
	ans = strings.ReplaceAll(ans, "*", "")
	ans = strings.ReplaceAll(ans, "•", "")
	ans = strings.ReplaceAll(ans, "-", " ")
	ans = strings.ReplaceAll(ans, "₹", " ruppees")
	ans = strings.Join(strings.Fields(ans), " ")

	b, _ := json.Marshal(map[string]string{"answer": ans})
	return string(b)
}

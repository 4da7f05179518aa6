package dispatch

import "regexp"

const maxSanitizedLength = 300

var (
	userinfoURL   = regexp.MustCompile(`(?i)(https?://)[^/\s@]+@`)
	bearerToken   = regexp.MustCompile(`(?i)(bearer|basic)\s+[a-z0-9._\-=/+]+`)
	keyValueToken = regexp.MustCompile(`(?i)\b(api[_-]?key|token|secret|password|authorization)\b\s*[:=]\s*\S+`)
)

// sanitize produces a bounded error message with credentials, tokens and
// userinfo-carrying URLs redacted, safe to surface in logs and
// notification payloads.
func sanitize(msg string) string {
	msg = userinfoURL.ReplaceAllString(msg, "${1}[redacted]@")
	msg = bearerToken.ReplaceAllString(msg, "${1} [redacted]")
	msg = keyValueToken.ReplaceAllString(msg, "${1}=[redacted]")

	if len(msg) > maxSanitizedLength {
		msg = msg[:maxSanitizedLength] + "...[truncated]"
	}
	return msg
}

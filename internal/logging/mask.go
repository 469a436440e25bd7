package logging

import (
	"net/url"
	"strings"
)

// sensitiveParams are query parameters whose values never reach the logs.
var sensitiveParams = []string{"token", "key", "secret", "signature", "sig", "auth"}

// MaskURL hides the credential-bearing parts of a webhook URL: userinfo,
// sensitive query values and every path segment after the second. Slack and
// Discord embed their secrets in the path.
func MaskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		if len(raw) > 12 {
			return raw[:12] + "***"
		}
		return raw
	}
	if u.User != nil {
		u.User = url.User("***")
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 2; i < len(segments); i++ {
		segments[i] = "***"
	}
	if u.Path != "" {
		u.Path = "/" + strings.Join(segments, "/")
	}

	q := u.Query()
	for name := range q {
		if isSensitiveParam(name) {
			q.Set(name, "***")
		}
	}
	u.RawQuery = q.Encode()

	// url.URL escapes '*' in paths; keep the mask readable.
	return strings.ReplaceAll(u.String(), "%2A", "*")
}

func isSensitiveParam(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range sensitiveParams {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

package dom

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	markupPolicyOnce sync.Once
	markupPolicy     *bluemonday.Policy
)

// SanitizeHTML strips scripts, event handlers, and unsafe URLs from markup
// destined for Options.HTML.
func SanitizeHTML(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(markupSanitizer().Sanitize(trimmed))
}

func markupSanitizer() *bluemonday.Policy {
	markupPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowElements("picture", "source", "button", "span")
		policy.AllowAttrs("class").Globally()
		policy.AllowAttrs("type", "aria-controls", "aria-label", "aria-expanded").OnElements("button")
		policy.AllowAttrs("srcset", "media", "type").OnElements("source")
		policy.AllowAttrs("loading").OnElements("img")
		markupPolicy = policy
	})
	return markupPolicy
}

// Package content loads the JSON sheets and markup fragments that blocks
// decorate themselves from. Every fetch is bounded by a timeout and fails with
// a typed *FetchError so callers can tell timeouts, transport failures, bad
// statuses, and malformed payloads apart.
package content

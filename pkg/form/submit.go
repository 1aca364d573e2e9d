package form

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-blocks/pkg/content"
	"github.com/goliatone/go-blocks/pkg/dom"
)

// TimestampLayout matches JavaScript's Date.prototype.toJSON output.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Payload is the submitted field snapshot, including the timestamp.
type Payload map[string]string

// Submitter delivers a payload to the form action.
type Submitter interface {
	Submit(ctx context.Context, action string, payload Payload) error
}

// SubmitterFunc adapts a function into a Submitter.
type SubmitterFunc func(ctx context.Context, action string, payload Payload) error

// Submit delegates to the underlying function.
func (fn SubmitterFunc) Submit(ctx context.Context, action string, payload Payload) error {
	return fn(ctx, action, payload)
}

// Navigator follows the redirect configured on the submit button.
type Navigator interface {
	Navigate(ctx context.Context, target string) error
}

// Result describes a completed submission.
type Result struct {
	Action   string
	Payload  Payload
	Redirect string
}

// HTTPSubmitter POSTs payloads as {"data": payload} JSON.
type HTTPSubmitter struct {
	client  *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewHTTPSubmitter builds an HTTP submitter. A nil client uses
// http.DefaultClient; a zero timeout disables the deadline.
func NewHTTPSubmitter(client *http.Client, timeout time.Duration, logger *zap.Logger) *HTTPSubmitter {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPSubmitter{client: client, timeout: timeout, logger: logger}
}

// Submit sends the payload. The response body is drained and discarded; a
// non-2xx status is logged but not treated as a failure.
func (s *HTTPSubmitter) Submit(ctx context.Context, action string, payload Payload) error {
	body, err := json.Marshal(struct {
		Data Payload `json:"data"`
	}{Data: payload})
	if err != nil {
		return fmt.Errorf("form: encode payload: %w", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, action, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("form: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.client.Do(req)
	if err != nil {
		return content.Classify(action, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return content.Classify(action, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("form submission rejected",
			zap.String("action", action),
			zap.Int("status", resp.StatusCode),
		)
	}
	return nil
}

// Submit validates the form and, when valid, disables the submit button and
// posts the snapshot with a timestamp to the action. An invalid form returns
// a *ValidationError without any network call. Once the button is disabled
// further calls return ErrSubmitted; a failed delivery enables it again.
func (f *Form) Submit(ctx context.Context) (Result, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return Result{}, ErrClosed
	}
	submit := f.submitField()
	if submit == nil {
		f.mu.Unlock()
		return Result{}, ErrNoSubmit
	}
	if dom.HasAttr(submit.control, "disabled") {
		f.mu.Unlock()
		return Result{}, ErrSubmitted
	}
	if override := submit.spec.Placeholder; override != "" {
		dom.SetAttr(f.node, "data-action", override)
	}
	if err := f.validate(); err != nil {
		f.mu.Unlock()
		return Result{}, err
	}
	dom.SetAttr(submit.control, "disabled", "")

	payload := Payload(f.snapshot())
	payload["timestamp"] = f.cfg.now().UTC().Format(TimestampLayout)
	action := dom.AttrOr(f.node, "data-action", "")
	redirect := submit.spec.Extra
	f.mu.Unlock()

	target, err := resolveAction(f.cfg.pageURL, action)
	if err != nil {
		f.enable(submit)
		return Result{}, err
	}
	if err := f.cfg.submitter.Submit(ctx, target, payload); err != nil {
		f.cfg.logger.Warn("form submission failed", zap.String("action", target), zap.Error(err))
		f.enable(submit)
		return Result{}, err
	}

	result := Result{Action: target, Payload: payload, Redirect: redirect}
	if f.cfg.navigator != nil {
		if err := f.cfg.navigator.Navigate(ctx, redirect); err != nil {
			return result, fmt.Errorf("form: navigate to %q: %w", redirect, err)
		}
	}
	return result, nil
}

func (f *Form) enable(submit *field) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dom.RemoveAttr(submit.control, "disabled")
}

func resolveAction(pageURL *url.URL, action string) (string, error) {
	ref, err := url.Parse(action)
	if err != nil {
		return "", fmt.Errorf("form: parse action %q: %w", action, err)
	}
	if pageURL != nil {
		ref = pageURL.ResolveReference(ref)
	}
	if !ref.IsAbs() {
		return "", fmt.Errorf("form: action %q is not absolute and no page URL is set", action)
	}
	return ref.String(), nil
}

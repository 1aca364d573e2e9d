package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds every fetch when no explicit timeout is configured.
const DefaultTimeout = 10 * time.Second

const maxBodyBytes = 8 << 20

// Fetcher is the read contract blocks depend on.
type Fetcher interface {
	Load(ctx context.Context, src Source) ([]byte, error)
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient injects the client used for URL sources.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		if client != nil {
			l.http = client
		}
	}
}

// WithTimeout overrides the per-fetch deadline. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(l *Loader) {
		l.timeout = timeout
	}
}

// WithFileSystem enables SourceKindFS lookups.
func WithFileSystem(files fs.FS) Option {
	return func(l *Loader) {
		l.fs = files
	}
}

// WithLogger attaches a logger for fetch diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Loader reads content documents from files, an fs.FS, or HTTP.
type Loader struct {
	fs      fs.FS
	http    *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

var _ Fetcher = (*Loader)(nil)

// NewLoader constructs a Loader with a default HTTP client and timeout.
func NewLoader(options ...Option) *Loader {
	l := &Loader{
		http:    http.DefaultClient,
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(l)
	}
	return l
}

// Timeout reports the configured per-fetch deadline.
func (l *Loader) Timeout() time.Duration {
	return l.timeout
}

// HTTPClient returns the client used for URL sources.
func (l *Loader) HTTPClient() *http.Client {
	return l.http
}

// Load fetches the raw bytes behind src. Failures are *FetchError values.
func (l *Loader) Load(ctx context.Context, src Source) ([]byte, error) {
	if src == nil {
		return nil, errors.New("content: source is nil")
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind() {
	case SourceKindFile:
		data, err = loadFile(ctx, src.Location())
	case SourceKindFS:
		data, err = loadFromFS(ctx, l.fs, src.Location())
	case SourceKindURL:
		data, err = l.loadHTTP(ctx, src.Location())
	default:
		err = fmt.Errorf("content: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		fetchErr := Classify(src.Location(), err)
		l.logger.Debug("content fetch failed",
			zap.String("location", src.Location()),
			zap.String("kind", string(fetchErr.Kind)),
			zap.Error(err))
		return nil, fetchErr
	}
	return data, nil
}

func (l *Loader) loadHTTP(ctx context.Context, url string) ([]byte, error) {
	if l.http == nil {
		return nil, errors.New("content: http client is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := l.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Kind: KindStatus, Location: url, StatusCode: resp.StatusCode}
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

func loadFile(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("content: file path is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}

func loadFromFS(ctx context.Context, files fs.FS, name string) ([]byte, error) {
	if name == "" {
		return nil, errors.New("content: fs path is required")
	}
	if files == nil {
		return nil, errors.New("content: fs is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fs.ReadFile(files, name)
}

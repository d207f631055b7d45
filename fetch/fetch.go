package fetch

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/wippyai/wasm-playhost/config"
	"github.com/wippyai/wasm-playhost/errors"
)

// maxBody caps a single HTTP response.
const maxBody = 256 << 20

// Fetcher resolves module fetch requests. Absolute http(s) URLs go to the
// network when allowed; every other location is a path inside the asset
// filesystem.
type Fetcher struct {
	assets    fs.FS
	client    *http.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[[]byte]
	logger    *zap.Logger
	allowHTTP bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTP enables network fetches through client. A nil client uses
// http.DefaultClient.
func WithHTTP(client *http.Client) Option {
	return func(f *Fetcher) {
		if client == nil {
			client = http.DefaultClient
		}
		f.client = client
		f.allowHTTP = true
	}
}

// WithRateLimit limits network fetches to rps requests per second with
// the given burst. A zero rps disables the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(f *Fetcher) {
		if rps <= 0 {
			f.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithBreaker opens a circuit after failures consecutive network errors;
// while open, network fetches fail immediately until timeout passes.
// Not-found responses do not count as failures.
func WithBreaker(failures uint32, timeout time.Duration) Option {
	return func(f *Fetcher) {
		if failures == 0 {
			f.breaker = nil
			return
		}
		f.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        "fetch",
			MaxRequests: 1,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				f.logger.Warn("circuit breaker state change",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.ReasonOf(err) == errors.ReasonNotFound
			},
		})
	}
}

// WithLogger overrides the package logger for one fetcher.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// New creates a fetcher reading local paths from assets.
func New(assets fs.FS, opts ...Option) *Fetcher {
	f := &Fetcher{
		assets: assets,
		logger: Logger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FromConfig builds a fetcher over the configured asset directory.
func FromConfig(cfg config.AssetsConfig) *Fetcher {
	opts := []Option{
		WithRateLimit(cfg.RequestsPerSecond, cfg.Burst),
		WithBreaker(cfg.BreakerFailures, cfg.BreakerTimeout),
	}
	if cfg.AllowHTTP {
		opts = append(opts, WithHTTP(&http.Client{Timeout: cfg.HTTPTimeout}))
	}
	return New(os.DirFS(cfg.Root), opts...)
}

// Fetch returns the bytes at location. Missing assets and HTTP 404 fail
// with a not-found reason; every other failure is unknown.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if u, err := url.Parse(location); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return f.fetchHTTP(ctx, u.String())
	}
	return f.fetchAsset(ctx, location)
}

func (f *Fetcher) fetchAsset(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.assets == nil {
		return nil, errors.NotFound(errors.PhaseFetch, "asset", location)
	}
	name := strings.TrimPrefix(path.Clean("/"+location), "/")
	if name == "" || !fs.ValidPath(name) {
		return nil, errors.InvalidInput(errors.PhaseFetch, fmt.Sprintf("invalid asset path %q", location))
	}
	data, err := fs.ReadFile(f.assets, name)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.NotFound(errors.PhaseFetch, "asset", location)
	}
	if err != nil {
		return nil, errors.OperationFailed(errors.PhaseFetch, errors.ReasonUnknown, err)
	}
	return data, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, location string) ([]byte, error) {
	if !f.allowHTTP {
		return nil, errors.Unsupported(errors.PhaseFetch, "network fetch disabled: "+location)
	}
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, errors.OperationFailed(errors.PhaseFetch, errors.ReasonUnknown, err)
		}
	}
	if f.breaker == nil {
		return f.get(ctx, location)
	}
	data, err := f.breaker.Execute(func() ([]byte, error) {
		return f.get(ctx, location)
	})
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errors.OperationFailed(errors.PhaseFetch, errors.ReasonUnknown, err)
	}
	return data, err
}

func (f *Fetcher) get(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, errors.InvalidInput(errors.PhaseFetch, err.Error())
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.OperationFailed(errors.PhaseFetch, errors.ReasonUnknown, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := errors.ReasonUnknown
		if resp.StatusCode == http.StatusNotFound {
			reason = errors.ReasonNotFound
		}
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, errors.New(errors.PhaseFetch, errors.KindOperationFailed).
			Reason(reason).
			Value(resp.StatusCode).
			Detail("GET %s: %s", location, resp.Status).
			Build()
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, errors.OperationFailed(errors.PhaseFetch, errors.ReasonUnknown, err)
	}
	if len(data) > maxBody {
		return nil, errors.New(errors.PhaseFetch, errors.KindOperationFailed).
			Reason(errors.ReasonUnknown).
			Detail("response from %s exceeds %d bytes", location, maxBody).
			Build()
	}
	f.logger.Debug("fetched", zap.String("url", location), zap.Int("bytes", len(data)))
	return data, nil
}

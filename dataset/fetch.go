package dataset

import (
	"archive/zip"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/YuminosukeSato/termdeposit/pkg/errors"
	"github.com/YuminosukeSato/termdeposit/pkg/log"
)

// ErrMemberNotFound is wrapped in a FetchError when the archive lacks the CSV.
var ErrMemberNotFound = errors.New("archive member not found")

// Fetcher downloads the dataset archive and extracts one member.
type Fetcher struct {
	client *http.Client
	logger log.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client: http.DefaultClient,
		logger: log.GetLoggerWithName("dataset"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads url into a temporary file under dir, extracts member next
// to it and returns the extracted path. The temporary archive is removed
// before returning. A non-2xx status or a missing member is a FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url, member, dir string) (string, error) {
	start := time.Now()
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create %s", dir)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.NewFetchError(url, 0, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", errors.NewFetchError(url, 0, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.NewFetchError(url, resp.StatusCode, errors.Newf("unexpected status %s", resp.Status))
	}

	tmp, err := os.CreateTemp(dir, "bank-*.zip")
	if err != nil {
		return "", errors.Wrap(err, "create temp archive")
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", errors.NewFetchError(url, resp.StatusCode, err)
	}

	out, err := extract(tmp.Name(), member, dir)
	if err != nil {
		return "", errors.NewFetchError(url, resp.StatusCode, err)
	}

	f.logger.Info("dataset fetched",
		log.OperationKey, log.OperationFetch,
		log.URLKey, url,
		log.BytesKey, n,
		log.PathKey, out,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return out, nil
}

func extract(archive, member, dir string) (string, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return "", errors.Wrap(err, "open zip")
	}
	defer zr.Close()

	for _, zf := range zr.File {
		if zf.Name != member {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return "", errors.Wrapf(err, "open member %s", member)
		}
		defer rc.Close()

		path := filepath.Join(dir, filepath.Base(member))
		dst, err := os.Create(path)
		if err != nil {
			return "", errors.Wrapf(err, "create %s", path)
		}
		if _, err := io.Copy(dst, rc); err != nil {
			dst.Close()
			return "", errors.Wrapf(err, "extract %s", member)
		}
		return path, dst.Close()
	}
	return "", errors.Wrapf(ErrMemberNotFound, "%s", member)
}

// Fetch downloads with a default Fetcher.
func Fetch(ctx context.Context, url, member, dir string) (string, error) {
	return NewFetcher().Fetch(ctx, url, member, dir)
}

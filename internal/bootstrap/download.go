// Package bootstrap makes sure the registry database file is present before
// the bot starts, downloading it when missing.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/schollz/progressbar/v3"

	"github.com/dan1650/plates-bot/internal/observability"
)

// ErrNoSource is returned when the file is missing and no URL is configured.
var ErrNoSource = errors.New("registry file is missing and no download URL is configured")

// Options configures EnsureFile.
type Options struct {
	URL        string
	Timeout    time.Duration
	Progress   io.Writer // defaults to os.Stderr
	HTTPClient *http.Client
}

// EnsureFile returns immediately when path exists. Otherwise it downloads
// opts.URL to path+".part" and renames it into place once complete, so a
// partial download is never mistaken for the database. It reports whether a
// download happened.
func EnsureFile(ctx context.Context, path string, opts Options, logger *observability.Logger) (bool, error) {
	if logger == nil {
		logger = observability.Nop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, errors.Wrap(err, "create database directory")
	}

	if info, err := os.Stat(path); err == nil {
		logger.Info().
			Str("path", path).
			Float64("size_mb", megabytes(info.Size())).
			Msg("Registry database found")
		return false, nil
	}

	if opts.URL == "" {
		return false, ErrNoSource
	}

	logger.Info().Str("path", path).Msg("Registry database not found, downloading")

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	tmp := path + ".part"
	if err := download(ctx, opts, tmp); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.Warn().Err(rmErr).Str("path", tmp).Msg("Failed to remove partial download")
		}
		return false, err
	}

	if err := os.Rename(tmp, path); err != nil {
		return false, errors.Wrap(err, "move downloaded database into place")
	}

	if info, err := os.Stat(path); err == nil {
		logger.Info().
			Str("path", path).
			Float64("size_mb", megabytes(info.Size())).
			Msg("Registry database downloaded")
	}
	return true, nil
}

func download(ctx context.Context, opts Options, dest string) error {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	progress := opts.Progress
	if progress == nil {
		progress = os.Stderr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
	if err != nil {
		return errors.Wrap(err, "build download request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "download database")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Newf("download database: unexpected status %s", resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return errors.Wrap(err, "create partial file")
	}

	bar := progressbar.NewOptions64(resp.ContentLength,
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("Downloading DB"),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(progress)
		}),
	)

	if _, err := io.Copy(io.MultiWriter(f, bar), resp.Body); err != nil {
		f.Close()
		return errors.Wrap(err, "write database")
	}
	_ = bar.Finish()

	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close partial file")
	}
	return nil
}

func megabytes(n int64) float64 {
	return float64(n) / (1024 * 1024)
}

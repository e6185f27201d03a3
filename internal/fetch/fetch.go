// Package fetch downloads model artifacts over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ErrNetwork marks failures of the transport or the remote side, as
// opposed to local filesystem errors.
var ErrNetwork = errors.New("network failure")

// DefaultClient is used when Download is given a nil client. Model
// artifacts are small (a few MB), so a generous fixed timeout covers
// slow links without hanging forever.
var DefaultClient = &http.Client{Timeout: 2 * time.Minute}

// Download performs a blocking GET of url and writes the response body
// verbatim to dest, overwriting any existing file. There is no resume,
// no checksum and no cleanup of partial output on failure.
func Download(ctx context.Context, client *http.Client, url, dest string) error {
	if client == nil {
		client = DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("fetch: build request for %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w: %v", url, ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("fetch %s: %w: unexpected status %s", url, ErrNetwork, resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("fetch: create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("fetch %s into %s: %w: %v", url, dest, ErrNetwork, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("fetch: flush %s: %w", dest, err)
	}
	return nil
}

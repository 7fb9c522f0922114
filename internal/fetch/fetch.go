// Package fetch retrieves sponsor prospect lists from local files, HTTP, and
// FTP sources and parses CSV/XLSX content.
package fetch

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// Fetcher downloads remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// Open returns a reader for a local path or an http(s)/ftp URL.
func Open(ctx context.Context, source string) (io.ReadCloser, error) {
	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" {
		f, err := os.Open(source)
		if err != nil {
			return nil, eris.Wrapf(err, "fetch: open %s", source)
		}
		return f, nil
	}

	switch u.Scheme {
	case "http", "https":
		return NewHTTPFetcher(HTTPOptions{}).Download(ctx, source)
	case "ftp":
		return NewFTPFetcher(FTPOptions{}).Download(ctx, source)
	case "file":
		f, err := os.Open(u.Path)
		if err != nil {
			return nil, eris.Wrapf(err, "fetch: open %s", u.Path)
		}
		return f, nil
	default:
		return nil, eris.Errorf("fetch: unsupported scheme %q", u.Scheme)
	}
}

// IsXLSX reports whether the source looks like a spreadsheet rather than CSV.
func IsXLSX(source string) bool {
	s := source
	if u, err := url.Parse(source); err == nil && u.Path != "" {
		s = u.Path
	}
	return strings.HasSuffix(strings.ToLower(s), ".xlsx")
}

// Package loader fetches model assets from a directory or an HTTP server and
// turns them into scene graph nodes.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrNotFound is wrapped by fetch errors for missing assets.
var ErrNotFound = errors.New("asset not found")

// Fetcher retrieves named assets. size is -1 when the length is unknown.
type Fetcher interface {
	Fetch(ctx context.Context, name string) (rc io.ReadCloser, size int64, err error)
}

// FileFetcher reads assets from a directory. An empty Dir means the
// working directory.
type FileFetcher struct {
	Dir string
}

// Fetch opens Dir/name.
func (f FileFetcher) Fetch(ctx context.Context, name string) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	p := filepath.Join(f.Dir, filepath.FromSlash(name))
	file, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, fmt.Errorf("%s: %w", p, ErrNotFound)
		}
		return nil, 0, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, err
	}
	if info.IsDir() {
		file.Close()
		return nil, 0, fmt.Errorf("%s is a directory: %w", p, ErrNotFound)
	}
	return file, info.Size(), nil
}

// HTTPFetcher downloads assets relative to Base.
type HTTPFetcher struct {
	Base   string
	Client *http.Client
}

// Fetch issues a GET for Base/name. Non-2xx responses are errors; 404 and
// 410 wrap ErrNotFound.
func (f HTTPFetcher) Fetch(ctx context.Context, name string) (io.ReadCloser, int64, error) {
	u, err := url.JoinPath(f.Base, name)
	if err != nil {
		return nil, 0, fmt.Errorf("resolve %q: %w", name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, err
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("get %s: %w", u, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		err := fmt.Errorf("get %s: %s", u, resp.Status)
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
			err = fmt.Errorf("get %s: %s: %w", u, resp.Status, ErrNotFound)
		}
		return nil, 0, err
	}
	return resp.Body, resp.ContentLength, nil
}

// NewFetcher returns an HTTPFetcher for http(s) URLs and a FileFetcher for
// anything else. client may be nil.
func NewFetcher(base string, client *http.Client) Fetcher {
	if strings.HasPrefix(base, "http://") || strings.HasPrefix(base, "https://") {
		return HTTPFetcher{Base: base, Client: client}
	}
	return FileFetcher{Dir: base}
}

// joinPath prefixes name with a loader path. Both use forward slashes.
func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// Package fetcher downloads remote pages and reads tabular input files.
package fetcher

import (
	"context"
	"io"
)

// Fetcher defines the interface for downloading remote pages.
type Fetcher interface {
	// DownloadPage fetches an HTML page and returns its body decoded to
	// UTF-8 according to the response charset.
	DownloadPage(ctx context.Context, url string) (io.ReadCloser, error)
}

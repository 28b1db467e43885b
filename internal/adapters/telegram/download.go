package telegram

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	perr "ocrjobs/internal/platform/errors"
)

// Download stores the file behind fileID as a new file in dir and returns its path.
// name only contributes its extension.
func (c *Client) Download(ctx context.Context, fileID, dir, name string) (string, error) {
	url, err := c.api.GetFileDirectURL(fileID)
	if err != nil {
		return "", perr.WithOp(perr.Wrap(err, perr.ErrorCodeDownload, "telegram: resolve file"), "fetch")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", perr.WithOp(perr.Wrap(err, perr.ErrorCodeDownload, "telegram: build request"), "fetch")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", perr.WithOp(perr.Wrap(err, perr.ErrorCodeDownload, "telegram: get file"), "fetch")
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", perr.WithOp(perr.Downloadf("telegram: get file: status %d", resp.StatusCode), "fetch")
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", perr.Wrap(err, perr.ErrorCodeDownload, "telegram: spool dir")
		}
	}
	f, err := os.CreateTemp(dir, "tg-*"+filepath.Ext(name))
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeDownload, "telegram: spool file")
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", perr.WithOp(perr.Wrap(err, perr.ErrorCodeDownload, "telegram: read file"), "fetch")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", perr.Wrap(err, perr.ErrorCodeDownload, "telegram: spool file")
	}
	return f.Name(), nil
}

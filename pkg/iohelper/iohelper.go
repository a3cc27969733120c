// Package iohelper provides helpers for safely reading HTTP response
// bodies with limits, so a malicious or misconfigured target cannot
// exhaust memory during an audit.
package iohelper

import (
	"io"
	"log/slog"
)

// Body size limits for different probe classes.
const (
	// SmallMaxBodySize is for header-only probes and error pages (8KB).
	SmallMaxBodySize int64 = 8 * 1024

	// DefaultMaxBodySize is for page content reads (1MB).
	DefaultMaxBodySize int64 = 1024 * 1024
)

// drainLimit caps how much residual data DrainAndClose consumes (64KB).
const drainLimit int64 = 64 * 1024

// ReadBody reads from r with a size limit. A nil reader returns an
// empty slice and no error.
func ReadBody(r io.Reader, maxSize int64) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// ReadBodySmall reads with the 8KB limit, suitable for probes that only
// need the start of a response.
func ReadBodySmall(r io.Reader) ([]byte, error) {
	return ReadBody(r, SmallMaxBodySize)
}

// ReadBodyOrLog reads with the default limit and logs failures instead
// of returning them. Returns nil on error.
func ReadBodyOrLog(r io.Reader, logger *slog.Logger) []byte {
	data, err := ReadBody(r, DefaultMaxBodySize)
	if err != nil && logger != nil {
		logger.Warn("body read failed", slog.String("error", err.Error()))
	}
	return data
}

// DrainAndClose reads any remaining data from r and closes it if it is
// a ReadCloser, so the connection can be reused for keep-alive.
// Always returns nil to allow use in defer.
func DrainAndClose(r io.Reader) error {
	if r == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(r, drainLimit))
	if c, ok := r.(io.Closer); ok {
		_ = c.Close()
	}
	return nil
}

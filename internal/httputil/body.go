// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// SmallBodyLimit caps bodies read by ReadSmallBody.
const SmallBodyLimit = 1 << 20

// ErrBodyTooLarge is returned by ReadLimited when the body exceeds the limit.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// ReadLimited reads all of r, failing with ErrBodyTooLarge once more than
// limit bytes arrive. A limit <= 0 reads without bound.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}

// ReadSmallBody reads and closes a response body expected to be small:
// status documents, ids, and error messages.
func ReadSmallBody(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	data, err := ReadLimited(resp.Body, SmallBodyLimit)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}
	return string(data), nil
}

// StatusError reports an unexpected HTTP status from a service.
type StatusError struct {
	// Op describes what the caller was doing, e.g. "checking job status".
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected response while %s: %d\n%s", e.Op, e.StatusCode, e.Body)
}

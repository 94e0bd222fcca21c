// package testing contains shared testing utilities and an in-process fake of the HitNote backend
package testing

import (
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/goccy/go-json"
)

var (
	ErrWriteFailed = errors.New("write failed")
	ErrReadFailed  = errors.New("read failed")
)

// FailingWriter rejects every write, like a closed terminal.
type FailingWriter struct{}

func (FailingWriter) Write([]byte) (int, error) { return 0, ErrWriteFailed }

// CountingWriter accepts a fixed number of writes into target and rejects the rest.
type CountingWriter struct {
	remaining int
	target    io.Writer
}

func NewCountingWriter(writes int, target io.Writer) *CountingWriter {
	return &CountingWriter{remaining: writes, target: target}
}

func (w *CountingWriter) Write(p []byte) (int, error) {
	if w.remaining <= 0 {
		return 0, ErrWriteFailed
	}
	w.remaining--
	return w.target.Write(p)
}

// RoundTripFunc adapts a function to [http.RoundTripper] so an [http.Client] can be pointed at canned transport
// behaviour instead of a server.
type RoundTripFunc func(*http.Request) (*http.Response, error)

func (f RoundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Unreachable fails every request with err before any response exists.
func Unreachable(err error) *http.Client {
	return &http.Client{Transport: RoundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, err
	})}
}

// TruncatedBody answers every request with status and a JSON content type, then fails reading the body.
func TruncatedBody(status int) *http.Client {
	return &http.Client{Transport: RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       brokenBody{},
			Request:    r,
		}, nil
	})}
}

type brokenBody struct{}

func (brokenBody) Read([]byte) (int, error) { return 0, ErrReadFailed }
func (brokenBody) Close() error             { return nil }

func AssertFileExists(tb testing.TB, path string) {
	tb.Helper()
	info, err := os.Stat(path)
	if err != nil {
		tb.Errorf("expected file %s: %v", path, err)
		return
	}
	if info.IsDir() {
		tb.Errorf("expected file, found directory: %s", path)
	}
}

func MustReadFile(tb testing.TB, path string) string {
	tb.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("failed to read %s: %v", path, err)
	}
	return string(content)
}

// MustReadJSON decodes the file at path into a T, such as an exported list's metadata.
func MustReadJSON[T any](tb testing.TB, path string) T {
	tb.Helper()
	var v T
	if err := json.Unmarshal([]byte(MustReadFile(tb, path)), &v); err != nil {
		tb.Fatalf("failed to decode %s: %v", path, err)
	}
	return v
}

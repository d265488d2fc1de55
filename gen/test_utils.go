package gen

import (
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestCtx is a noop closer, which wraps an io.Writer
// and only meant to be used for tests.
type TestCtx struct {
	io.Writer
}

// Open returns the underlying io.Writer.
func (ctx TestCtx) Open(filename string) (io.WriteCloser, error) { return ctx, nil }

// Close always returns nil.
func (ctx TestCtx) Close() error { return nil }

// CompareBytes reports a line diff between the expected and actual output.
func CompareBytes(t testing.TB, ex, out []byte) {
	t.Helper()

	if diff := cmp.Diff(string(ex), string(out)); diff != "" {
		t.Errorf("generated output mismatch (-want +got):\n%s", diff)
	}
}

package app

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/specialistvlad/markbuild/internal/typereg"
)

// SafeBuffer is a thread-safe buffer for capturing output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest creates a new app instance for tests. The process environment
// is not imported.
func SetupAppTest(t *testing.T, cfg *Config, modules ...typereg.Module) (*App, *SafeBuffer) {
	t.Helper()

	out := &SafeBuffer{}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "error"
	}
	if cfg.Environ == nil {
		cfg.Environ = []string{}
	}
	testApp := NewApp(out, cfg, modules...)

	t.Cleanup(func() {
		if os.Getenv("MARKBUILD_TEST_LOGS") == "true" {
			t.Logf("--- Full Output for %s ---\n%s", t.Name(), out.String())
		}
	})

	return testApp, out
}

// Package guard switches binaries into test mode when imported by their tests,
// so calling main skips network listeners and Redis connections.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("DASHBOARD_TEST_MODE") == "" {
			_ = os.Setenv("DASHBOARD_TEST_MODE", "1")
		}
	})
}

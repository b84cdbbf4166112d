// Package guard forces test mode when blank-imported from a test file,
// so binaries accidentally started under `go test` refuse to boot.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("CARTHAGE_TEST_MODE") == "" {
			_ = os.Setenv("CARTHAGE_TEST_MODE", "1")
		}
	})
}

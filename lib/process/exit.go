// Copyright 2026 The Diskfish Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"os"
)

// Fatal writes "diskfish: error: err" to stderr and exits with code 1.
// Use it in main() for errors from run() where no better reporting
// path exists yet.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "diskfish: error: %v\n", err)
	os.Exit(1)
}

// Command preserve evaluates whether program minimizations keep the defect
// they were asked to preserve.
package main

import (
	"errors"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		if !errors.Is(err, errNotPreserved) {
			fatal(err)
		}
		os.Exit(1)
	}
}

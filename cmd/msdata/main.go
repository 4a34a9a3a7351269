// msdata - mass spectrometry scan conversion and inspection tool
package main

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/msdata/cmd/msdata/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

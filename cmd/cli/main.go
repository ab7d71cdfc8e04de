// yawlog filters yaw tracking logs by track ID, removes duplicate lines and
// plots the extracted yaw series.
package main

import (
	"os"

	"github.com/ccollicutt/yawlog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

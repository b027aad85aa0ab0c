// Command hrctl is the command-line client for the HR entity API.
package main

import "github.com/mesh-intelligence/hrentities/internal/cli"

func main() {
	cli.Execute()
}

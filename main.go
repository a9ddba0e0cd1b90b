// ABOUTME: Entry point for the podium proposal CLI, TUI wizard, and MCP server
// ABOUTME: Hands arguments to the cobra command tree and maps failures to exit codes
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/harperreed/podium/cli"
)

const version = "0.1.0"

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := cli.Execute(version, os.Args[1:], os.Stdout); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

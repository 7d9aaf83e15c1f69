package main

import (
	"fmt"
	"os"

	"textwire/client"
	"textwire/server"
)

const usage = `Usage: textwire <server|client> [options]

Run 'textwire server --help' or 'textwire client --help' for the
options of each mode.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "missing mode argument")
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	mode := os.Args[1]
	args := os.Args[2:]

	switch mode {
	case "server":
		os.Exit(server.Run(args, os.Stdout, os.Stderr))
	case "client":
		os.Exit(client.Run(args, os.Stdout, os.Stderr))
	case "help", "-h", "--help":
		fmt.Fprint(os.Stdout, usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", mode)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

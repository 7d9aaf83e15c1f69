package client

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"time"

	"github.com/pkg/errors"

	"textwire/common"
)

const (
	// DefaultPort is used when --port is not given. It matches the
	// server's default so the pair works out of the box.
	DefaultPort = 8080

	// serverHost is where the client connects. The protocol has no host
	// option; client and server run on the same machine.
	serverHost = "127.0.0.1"

	dialTimeout     = 5 * time.Second
	exchangeTimeout = 30 * time.Second
)

const usage = `Usage: textwire client [options] <action> <text>

Send one transformation request to a textwire server and print the
transformed text on standard output.

Actions:
  reverse      reverse the order of the characters
  uppercase    map every letter to upper case
  lowercase    map every letter to lower case
  title-case   capitalize each whitespace-delimited word

Options:
  -p, --port <port>  server TCP port (default 8080)
  --verbose          log the exchange on standard error
  --help             print this help and exit
`

// Options hold the parsed command-line flags for one invocation.
type Options struct {
	Port    int
	Verbose bool
}

// Run is the entry point for client mode. It parses args, performs one
// request/response exchange, and returns the process exit code. The
// transformed text is the only thing ever written to stdout; errors and
// verbose logging go to stderr.
func Run(args []string, stdout, stderr io.Writer) int {
	opts, action, text, err := parseArgs(args)
	if err != nil {
		if err == flag.ErrHelp {
			fmt.Fprint(stdout, usage)
			return 0
		}
		fmt.Fprintln(stderr, err)
		fmt.Fprint(stderr, usage)
		return 1
	}

	logger := log.New(io.Discard, "", log.LstdFlags)
	if opts.Verbose {
		logger = log.New(stderr, "", log.LstdFlags)
	}

	reply, err := Exchange(opts.Port, action, text, logger)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	fmt.Fprintln(stdout, reply)
	return 0
}

// parseArgs validates the command line in a fixed order: empty
// invocation, unknown options and unparsable values, port range, the
// action/text pair, then the action name and text size. The first
// violation wins, and nothing touches the network until every check has
// passed. flag.ErrHelp passes through for --help.
func parseArgs(args []string) (Options, string, string, error) {
	if len(args) == 0 {
		return Options{}, "", "", errors.New("missing action and text arguments")
	}

	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard) // Run owns all error and usage output

	var opts Options
	fs.IntVar(&opts.Port, "port", DefaultPort, "server TCP port")
	fs.IntVar(&opts.Port, "p", DefaultPort, "server TCP port (shorthand)")
	fs.BoolVar(&opts.Verbose, "verbose", false, "log the exchange on standard error")

	if err := fs.Parse(args); err != nil {
		return Options{}, "", "", err
	}
	if !common.ValidPort(opts.Port) {
		return Options{}, "", "", errors.Errorf("port %d out of range 1-65535", opts.Port)
	}

	rest := fs.Args()
	switch {
	case len(rest) == 0:
		return Options{}, "", "", errors.New("missing action and text arguments")
	case len(rest) == 1:
		return Options{}, "", "", errors.Errorf("missing text argument after action %q", rest[0])
	case len(rest) > 2:
		return Options{}, "", "", errors.Errorf("unexpected extra arguments: %s", strings.Join(rest[2:], " "))
	}

	action, text := rest[0], rest[1]
	if _, ok := common.Transforms[action]; !ok {
		return Options{}, "", "", errors.Errorf("unknown action %q (choose from: %s)", action, strings.Join(common.ActionNames(), ", "))
	}
	if len(text) > common.MaxTextLen {
		return Options{}, "", "", errors.Errorf("text is %d bytes, the limit is %d", len(text), common.MaxTextLen)
	}
	return opts, action, text, nil
}

// Exchange dials the server, sends one encoded request, and blocks
// until the full response frame arrives. The connection is closed
// before returning; there is nothing to reuse, the protocol is one
// exchange per connection.
func Exchange(port int, action, text string, logger *log.Logger) (string, error) {
	frame, err := common.EncodeRequest(action, []byte(text))
	if err != nil {
		return "", err
	}

	addr := fmt.Sprintf("%s:%d", serverHost, port)
	logger.Printf("connecting to %s", addr)
	start := time.Now()

	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return "", errors.Wrapf(err, "cannot connect to %s", addr)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(exchangeTimeout))

	if _, err := conn.Write(frame); err != nil {
		return "", errors.Wrap(err, "sending request")
	}
	logger.Printf("sent %s request, %d bytes", action, len(frame))

	reply, err := common.DecodeResponse(conn)
	if err != nil {
		return "", errors.Wrap(err, "reading response")
	}
	logger.Printf("received %d bytes in %s", len(reply), time.Since(start).Round(time.Millisecond))

	return string(reply), nil
}

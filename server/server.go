package server

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"textwire/common"
)

const (
	// DefaultPort matches the client's default so the pair works out of
	// the box.
	DefaultPort = 8080

	// requestReadTimeout bounds the read of the single request frame so
	// a silent connection cannot pin its handler goroutine forever.
	requestReadTimeout = 10 * time.Second
)

const usage = `Usage: textwire server [options]

Listen for textwire transformation requests and answer each connection
with exactly one response.

Options:
  --port <port>     TCP port to listen on (default 8080)
  --same-output     echo the received text back untransformed
  --ws-port <port>  also serve the WebSocket gateway on this HTTP port
  --help            print this help and exit
`

// Options configure a server instance.
type Options struct {
	Port       int
	SameOutput bool
	WSPort     int
}

// Server accepts connections and services exactly one request on each.
// Handlers share nothing but the counters, so concurrent connections
// only ever contend on the stats mutex.
type Server struct {
	opts    Options
	started time.Time

	mu      sync.Mutex
	served  uint64
	dropped uint64
	actions map[string]uint64
}

// Stats is a snapshot of the server's counters, served as JSON by the
// gateway's status endpoint.
type Stats struct {
	UptimeSeconds int64             `json:"uptime_seconds"`
	Served        uint64            `json:"served"`
	Dropped       uint64            `json:"dropped"`
	Actions       map[string]uint64 `json:"actions"`
	SameOutput    bool              `json:"same_output"`
}

// New creates a server with the given options.
func New(opts Options) *Server {
	return &Server{
		opts:    opts,
		started: time.Now(),
		actions: make(map[string]uint64),
	}
}

// Run is the entry point for server mode. It binds the listeners,
// installs the signal handler, and serves until interrupted. The return
// value is the process exit code: 0 after a clean shutdown, 1 when the
// command line or startup fails.
func Run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args)
	if err != nil {
		if err == flag.ErrHelp {
			fmt.Fprint(stdout, usage)
			return 0
		}
		fmt.Fprintln(stderr, err)
		fmt.Fprint(stderr, usage)
		return 1
	}

	srv := New(opts)

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", opts.Port))
	if err != nil {
		fmt.Fprintf(stderr, "cannot listen on port %d: %v\n", opts.Port, err)
		return 1
	}

	var gateway *Gateway
	if opts.WSPort > 0 {
		gwLn, err := net.Listen("tcp", fmt.Sprintf(":%d", opts.WSPort))
		if err != nil {
			ln.Close()
			fmt.Fprintf(stderr, "cannot listen on gateway port %d: %v\n", opts.WSPort, err)
			return 1
		}
		gateway = NewGateway(srv)
		go func() {
			if err := gateway.Serve(gwLn); err != http.ErrServerClosed {
				log.Printf("gateway stopped: %v", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		sig := <-sigCh
		log.Printf("received %v, shutting down", sig)
		ln.Close()
		if gateway != nil {
			gateway.Close()
		}
	}()

	log.Printf("listening on port %d (same-output=%v)", opts.Port, opts.SameOutput)
	srv.Serve(ln)
	return 0
}

// parseArgs parses the server command line. flag.ErrHelp passes through
// for --help.
func parseArgs(args []string) (Options, error) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard) // Run owns all error and usage output

	var opts Options
	fs.IntVar(&opts.Port, "port", DefaultPort, "TCP port to listen on")
	fs.BoolVar(&opts.SameOutput, "same-output", false, "echo the received text back untransformed")
	fs.IntVar(&opts.WSPort, "ws-port", 0, "HTTP port for the WebSocket gateway (0 disables it)")

	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}
	if !common.ValidPort(opts.Port) {
		return Options{}, errors.Errorf("port %d out of range 1-65535", opts.Port)
	}
	if opts.WSPort != 0 && !common.ValidPort(opts.WSPort) {
		return Options{}, errors.Errorf("gateway port %d out of range 1-65535", opts.WSPort)
	}
	if fs.NArg() > 0 {
		return Options{}, errors.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return opts, nil
}

// Serve accepts connections on ln until the listener is closed, one
// handler goroutine per connection.
func (s *Server) Serve(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

// handleConn services one connection: read one framed request, dispatch
// it, write one framed response, close. Malformed frames and unknown
// actions drop the connection without a response; the close is all the
// client gets to see.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	id := uuid.New().String()
	log.Printf("[%s] accepted %s", id, conn.RemoteAddr())

	conn.SetReadDeadline(time.Now().Add(requestReadTimeout))
	action, text, err := common.DecodeRequest(conn)
	if err != nil {
		s.drop()
		log.Printf("[%s] dropping connection: %v", id, err)
		return
	}
	conn.SetReadDeadline(time.Time{})

	reply, err := s.dispatch(action, text)
	if err != nil {
		s.drop()
		log.Printf("[%s] dropping connection: %v", id, err)
		return
	}

	frame, err := common.EncodeResponse(reply)
	if err != nil {
		s.drop()
		log.Printf("[%s] dropping connection: %v", id, err)
		return
	}
	if _, err := conn.Write(frame); err != nil {
		s.drop()
		log.Printf("[%s] writing response: %v", id, err)
		return
	}

	s.count(action)
	log.Printf("[%s] %s done, %d bytes in, %d bytes out", id, action, len(text), len(reply))
}

// dispatch applies the requested transformation, or echoes the text
// verbatim in same-output mode. The action must be in the transform
// table either way; the client validates before sending, so an unknown
// name here means the peer is not speaking the protocol.
func (s *Server) dispatch(action string, text []byte) ([]byte, error) {
	if _, ok := common.Transforms[action]; !ok {
		return nil, errors.Wrapf(common.ErrUnknownAction, "action %q", action)
	}
	if s.opts.SameOutput {
		return text, nil
	}
	out, err := common.Apply(action, string(text))
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func (s *Server) count(action string) {
	s.mu.Lock()
	s.served++
	s.actions[action]++
	s.mu.Unlock()
}

func (s *Server) drop() {
	s.mu.Lock()
	s.dropped++
	s.mu.Unlock()
}

// Snapshot returns a copy of the counters.
func (s *Server) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	actions := make(map[string]uint64, len(s.actions))
	for name, n := range s.actions {
		actions[name] = n
	}
	return Stats{
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Served:        s.served,
		Dropped:       s.dropped,
		Actions:       actions,
		SameOutput:    s.opts.SameOutput,
	}
}

package singleinstance

// Single-instance ownership over a loopback TCP port. The first process to
// bind a port in the configured range becomes the resident and answers PING;
// later starts detect it and refuse to run.

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	residentHost = "127.0.0.1"
	pingRequest  = "PING\n"
	pongResponse = "PONG\n"

	defaultPortStart = 49500
	defaultPortEnd   = 49550
)

// ErrAlreadyRunning is returned by Acquire when a resident instance answered
// the ping handshake.
var ErrAlreadyRunning = errors.New("another instance is already running")

// Guard holds the lock port for the lifetime of the process.
type Guard struct {
	ln   net.Listener
	port int
	done chan struct{}
}

// Acquire claims single-instance ownership. It first scans the port range for
// a resident; if one answers, ErrAlreadyRunning is returned with its port.
// Otherwise the first free port is bound and a responder goroutine starts.
func Acquire(ctx context.Context) (*Guard, error) {
	if port, ok := DetectResidentPort(ctx); ok {
		return nil, fmt.Errorf("%w (port %d)", ErrAlreadyRunning, port)
	}

	start, end := portRange()
	for port := start; port <= end; port++ {
		ln, err := net.Listen("tcp", lockAddr(port))
		if err != nil {
			continue
		}
		g := &Guard{ln: ln, port: port, done: make(chan struct{})}
		go g.serve()
		log.Printf("singleinstance: resident on port %d", port)
		return g, nil
	}
	return nil, fmt.Errorf("no free port in range %d-%d", start, end)
}

// Port returns the bound TCP port.
func (g *Guard) Port() int { return g.port }

// Close releases ownership. Safe to call once.
func (g *Guard) Close() error {
	close(g.done)
	return g.ln.Close()
}

func (g *Guard) serve() {
	for {
		conn, err := g.ln.Accept()
		if err != nil {
			select {
			case <-g.done:
				return
			default:
				log.Printf("singleinstance: accept failed: %v", err)
				return
			}
		}
		go answerPing(conn)
	}
}

func answerPing(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(time.Second))
	req, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil || req != pingRequest {
		return
	}
	_, _ = io.WriteString(conn, pongResponse)
}

// DetectResidentPort scans the configured range and returns the port of a
// resident that completed the ping handshake.
func DetectResidentPort(ctx context.Context) (int, bool) {
	timeout := 300 * time.Millisecond
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			timeout = d
		}
	}
	start, end := portRange()
	for port := start; port <= end; port++ {
		if residentAt(port, timeout) {
			return port, true
		}
	}
	return 0, false
}

// residentAt dials the lock port and runs the handshake. Any failure, from
// refused connection to a garbled response, counts as no resident.
func residentAt(port int, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", lockAddr(port), timeout)
	if err != nil {
		return false
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))
	if _, err := io.WriteString(conn, pingRequest); err != nil {
		return false
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	return err == nil && resp == pongResponse
}

func lockAddr(port int) string {
	return net.JoinHostPort(residentHost, strconv.Itoa(port))
}

// portRange returns the inclusive scan range. Like the rest of the
// configuration, QUICKCAP_PORT_START and QUICKCAP_PORT_END override the
// defaults; malformed or out-of-range values fall back with a logged
// diagnostic.
func portRange() (start, end int) {
	start = portFromEnv("QUICKCAP_PORT_START", defaultPortStart)
	end = portFromEnv("QUICKCAP_PORT_END", defaultPortEnd)
	if end < start {
		start, end = end, start
	}
	return start, end
}

func portFromEnv(name string, fallback int) int {
	value := os.Getenv(name)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1024 || n > 65535 {
		log.Printf("singleinstance: invalid %s %q, using %d", name, value, fallback)
		return fallback
	}
	return n
}

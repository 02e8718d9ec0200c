// Package transport moves one encoded DNS message to a server and returns
// the raw reply, over UDP, TCP, DNS over TLS, or DNS over HTTPS (RFC 1035,
// RFC 7858, RFC 8484). Connections live for exactly one exchange; there is no
// pooling and no shared state between queries.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"time"

	"github.com/deep-soft/toluol/internal/dns/common/log"
)

// Kind selects how the message bytes reach the server. The set is closed;
// the exchanger pattern-matches on it rather than dispatching dynamically.
type Kind int

const (
	KindUDP      Kind = iota // plain DNS over UDP
	KindTCP                  // plain DNS over TCP, two-octet length prefix
	KindDoT                  // TCP framing inside TLS
	KindDoHHTTPS             // HTTPS POST of the raw message
	KindDoHHTTP              // the same POST without TLS; debugging aid
)

// String returns the scheme name used in server specifiers and logs.
func (k Kind) String() string {
	switch k {
	case KindUDP:
		return "udp"
	case KindTCP:
		return "tcp"
	case KindDoT:
		return "dot"
	case KindDoHHTTPS:
		return "doh-https"
	case KindDoHHTTP:
		return "doh-http"
	default:
		return fmt.Sprintf("transport(%d)", int(k))
	}
}

// DefaultPort returns the well-known port for the transport.
func (k Kind) DefaultPort() uint16 {
	switch k {
	case KindDoT:
		return 853
	case KindDoHHTTPS:
		return 443
	case KindDoHHTTP:
		return 80
	default:
		return 53
	}
}

// Server describes where and how to send one query.
type Server struct {
	Host string
	Port uint16 // zero means the transport's default port
	Kind Kind
	// ServerName overrides the TLS SNI / certificate name for DoT and DoH.
	// Empty means Host.
	ServerName string
	// Path is the DoH URL path. Empty means "/dns-query".
	Path string
}

// Address returns the host:port dial target.
func (s Server) Address() string {
	port := s.Port
	if port == 0 {
		port = s.Kind.DefaultPort()
	}
	return net.JoinHostPort(s.Host, fmt.Sprintf("%d", port))
}

// String renders the server the way the CLI echoes it back to the user.
func (s Server) String() string {
	return fmt.Sprintf("%s (%s)", s.Address(), s.Kind)
}

// serverName returns the TLS verification name.
func (s Server) serverName() string {
	if s.ServerName != "" {
		return s.ServerName
	}
	return s.Host
}

// Failure kinds surfaced by every transport.
var (
	ErrConnect      = errors.New("connect failed")
	ErrTLSHandshake = errors.New("tls handshake failed")
	ErrTimeout      = errors.New("timeout")
	ErrShortRead    = errors.New("short read")
	ErrHTTPStatus   = errors.New("unexpected http status")
	ErrClosedEarly  = errors.New("connection closed early")
)

// maxMessageSize bounds replies on stream and HTTP transports.
const maxMessageSize = 0xFFFF

// DefaultTimeout applies when the caller does not pick one.
const DefaultTimeout = 5 * time.Second

// DialFunc creates network connections; injected by tests.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Options configures an Exchanger.
type Options struct {
	// Timeout bounds one complete send-and-receive. Zero means DefaultTimeout.
	Timeout time.Duration
	// PayloadSize is the UDP receive buffer size, normally the advertised
	// EDNS payload size. Values below 512 are raised to 512.
	PayloadSize uint16
	// Dial overrides the connection factory; nil means net.Dialer.
	Dial DialFunc
	// TLSConfigure, when non-nil, may adjust the TLS client configuration
	// before DoT and DoH handshakes. Tests use it to trust fixture
	// certificates.
	TLSConfigure func(*tls.Config)
	// Logger receives per-exchange debug and warning events; nil means the
	// global logger.
	Logger log.Logger
}

// Result is a raw reply plus the measured round-trip time.
type Result struct {
	Reply []byte
	RTT   time.Duration
}

// Exchanger sends single queries. It holds configuration only; each call to
// Exchange opens and closes its own connection.
type Exchanger struct {
	timeout      time.Duration
	payloadSize  uint16
	dial         DialFunc
	tlsConfigure func(*tls.Config)
	logger       log.Logger
}

// New creates an Exchanger from options, applying defaults.
func New(opts Options) *Exchanger {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.PayloadSize < 512 {
		opts.PayloadSize = 512
	}
	if opts.Dial == nil {
		opts.Dial = (&net.Dialer{}).DialContext
	}
	if opts.Logger == nil {
		opts.Logger = log.GetLogger()
	}
	return &Exchanger{
		timeout:      opts.Timeout,
		payloadSize:  opts.PayloadSize,
		dial:         opts.Dial,
		tlsConfigure: opts.TLSConfigure,
		logger:       opts.Logger,
	}
}

// Exchange sends query to server and returns the raw reply bytes with the
// measured round-trip time. The context and the configured timeout both
// bound the exchange; whichever expires first wins.
func (e *Exchanger) Exchange(ctx context.Context, server Server, query []byte) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	e.logger.Debug(map[string]any{
		"server":    server.Address(),
		"transport": server.Kind.String(),
		"size":      len(query),
	}, "Sending DNS query")

	var res Result
	var err error
	switch server.Kind {
	case KindUDP:
		res, err = e.exchangeUDP(ctx, server, query)
	case KindTCP:
		res, err = e.exchangeTCP(ctx, server, query)
	case KindDoT:
		res, err = e.exchangeDoT(ctx, server, query)
	case KindDoHHTTPS, KindDoHHTTP:
		res, err = e.exchangeDoH(ctx, server, query)
	default:
		return Result{}, fmt.Errorf("unknown transport %d", server.Kind)
	}
	if err != nil {
		e.logger.Warn(map[string]any{
			"server":    server.Address(),
			"transport": server.Kind.String(),
			"error":     err.Error(),
		}, "DNS exchange failed")
		return Result{}, err
	}

	e.logger.Debug(map[string]any{
		"server":    server.Address(),
		"transport": server.Kind.String(),
		"size":      len(res.Reply),
		"rtt_ms":    res.RTT.Milliseconds(),
	}, "Received DNS reply")
	return res, nil
}

// classify maps deadline expiry onto ErrTimeout, otherwise wraps err under
// the given failure kind.
func classify(kind error, err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", kind, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

// bindNetwork matches the UDP socket family to the server address family so
// that dual-stack hosts with partial connectivity do not pick the wrong one.
func bindNetwork(host string) string {
	if addr, err := netip.ParseAddr(host); err == nil && addr.Is6() {
		return "udp6"
	}
	return "udp"
}

// Package query coordinates one DNS query: it builds the message with a
// random ID, picks a transport, correlates the reply, and retries once over
// TCP when a UDP reply comes back truncated.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deep-soft/toluol/internal/dns/common/ident"
	"github.com/deep-soft/toluol/internal/dns/common/log"
	"github.com/deep-soft/toluol/internal/dns/domain"
	"github.com/deep-soft/toluol/internal/dns/gateways/transport"
	"github.com/deep-soft/toluol/internal/dns/gateways/wire"
)

var (
	// ErrUnsupportedQType is returned for query types the client refuses to
	// send, currently only AXFR.
	ErrUnsupportedQType = errors.New("unsupported query type")
	// ErrIDMismatch is returned when the reply carries a different message ID
	// than the query.
	ErrIDMismatch = errors.New("reply id does not match query")
	// ErrNotResponse is returned when the reply has QR clear.
	ErrNotResponse = errors.New("reply is not a response")
	// ErrQuestionMismatch is returned when the reply does not echo the
	// question that was asked.
	ErrQuestionMismatch = errors.New("reply does not echo the question")
)

// ServerFailure reports a reply whose opcode or rcode signals failure. The
// decoded message is still returned alongside it, so callers can render what
// the server actually said.
type ServerFailure struct {
	Opcode domain.Opcode
	RCode  domain.RCode
}

func (e *ServerFailure) Error() string {
	if e.Opcode != domain.OpcodeQuery {
		return fmt.Sprintf("server replied with opcode %s", e.Opcode)
	}
	return fmt.Sprintf("server replied with rcode %s", e.RCode)
}

// Exchanger is the transport seam; *transport.Exchanger satisfies it and
// tests substitute fakes.
type Exchanger interface {
	Exchange(ctx context.Context, server transport.Server, query []byte) (transport.Result, error)
}

// Response is a decoded reply plus where it came from and how long it took.
type Response struct {
	Message *domain.Message
	Server  transport.Server
	RTT     time.Duration
}

// Options configures a Client.
type Options struct {
	// Exchanger sends the encoded bytes; required.
	Exchanger Exchanger
	// IDs generates message IDs; nil means the crypto/rand source.
	IDs ident.Source
	// Logger is used for retry and correlation events; nil means the global
	// logger.
	Logger log.Logger
}

// Client issues single-shot DNS queries. It is safe for concurrent use; the
// ID source is the only shared state.
type Client struct {
	exchanger Exchanger
	ids       ident.Source
	logger    log.Logger
}

// NewClient builds a Client, applying defaults for the ID source and logger.
func NewClient(opts Options) (*Client, error) {
	if opts.Exchanger == nil {
		return nil, errors.New("an exchanger is required")
	}
	if opts.IDs == nil {
		opts.IDs = ident.CryptoSource{}
	}
	if opts.Logger == nil {
		opts.Logger = log.GetLogger()
	}
	return &Client{
		exchanger: opts.Exchanger,
		ids:       opts.IDs,
		logger:    opts.Logger,
	}, nil
}

// MakeQuery builds a query message for qname/qtype in class IN with a fresh
// random ID. When edns is non-nil an OPT record is attached with the given
// payload size, DO bit, and optional client cookie. AXFR is refused.
func (c *Client) MakeQuery(qname domain.Name, qtype domain.RRType, edns *domain.EDNSConfig) (*domain.Message, error) {
	if qtype == domain.RRTypeAXFR {
		return nil, fmt.Errorf("%w: AXFR", ErrUnsupportedQType)
	}
	id, err := c.ids.MessageID()
	if err != nil {
		return nil, err
	}
	m := &domain.Message{
		Header: domain.Header{
			ID:     id,
			Opcode: domain.OpcodeQuery,
			Flags:  domain.HeaderFlags{RD: true, AD: true},
		},
		Questions: []domain.Question{{
			Name:  qname,
			Type:  qtype,
			Class: domain.RRClassIN,
		}},
	}
	if edns != nil {
		m.EDNS = domain.NewEDNS(*edns)
	}
	return m, nil
}

// Query encodes msg, sends it to server, and returns the decoded, correlated
// reply. A truncated UDP reply is retried exactly once over TCP to the same
// host and port. When the server answers with a non-QUERY opcode or a
// non-NOERROR rcode, both the response and a *ServerFailure are returned.
func (c *Client) Query(ctx context.Context, msg *domain.Message, server transport.Server) (*Response, error) {
	encoded, err := wire.EncodeMessage(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}

	res, err := c.exchanger.Exchange(ctx, server, encoded)
	if err != nil {
		return nil, err
	}

	header, err := wire.DecodeHeader(res.Reply)
	if err != nil {
		return nil, err
	}
	if server.Kind == transport.KindUDP && header.QR && header.Flags.TC {
		c.logger.Debug(map[string]any{
			"server": server.Address(),
			"id":     msg.Header.ID,
		}, "Reply truncated, retrying over TCP")
		server.Kind = transport.KindTCP
		res, err = c.exchanger.Exchange(ctx, server, encoded)
		if err != nil {
			return nil, err
		}
		header, err = wire.DecodeHeader(res.Reply)
		if err != nil {
			return nil, err
		}
	}

	if header.ID != msg.Header.ID {
		return nil, fmt.Errorf("%w: sent %d, got %d", ErrIDMismatch, msg.Header.ID, header.ID)
	}
	if !header.QR {
		return nil, ErrNotResponse
	}

	reply, err := wire.DecodeMessage(res.Reply)
	if err != nil {
		return nil, err
	}
	if !reply.QuestionEchoed(msg.Questions[0]) {
		return nil, ErrQuestionMismatch
	}

	response := &Response{Message: reply, Server: server, RTT: res.RTT}
	if reply.Header.Opcode != domain.OpcodeQuery || reply.Header.RCode != domain.RCodeNoError {
		return response, &ServerFailure{Opcode: reply.Header.Opcode, RCode: reply.Header.RCode}
	}
	return response, nil
}

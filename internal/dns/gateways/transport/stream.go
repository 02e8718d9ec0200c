package transport

import (
	"context"
	"crypto/tls"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"time"
)

// exchangeTCP frames the query with a two-octet length prefix (RFC 1035,
// Section 4.2.2), sends it, and reads one framed reply. One query per
// connection; the connection closes when the reply has been read.
func (e *Exchanger) exchangeTCP(ctx context.Context, server Server, query []byte) (Result, error) {
	conn, err := e.dial(ctx, "tcp", server.Address())
	if err != nil {
		return Result{}, classify(ErrConnect, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	return exchangeStream(conn, query)
}

// exchangeDoT is exchangeTCP with the stream wrapped in TLS 1.2+; the server
// certificate is verified against the trusted roots and the caller-supplied
// server name (RFC 7858).
func (e *Exchanger) exchangeDoT(ctx context.Context, server Server, query []byte) (Result, error) {
	raw, err := e.dial(ctx, "tcp", server.Address())
	if err != nil {
		return Result{}, classify(ErrConnect, err)
	}

	cfg := &tls.Config{
		ServerName: server.serverName(),
		MinVersion: tls.VersionTLS12,
	}
	if e.tlsConfigure != nil {
		e.tlsConfigure(cfg)
	}

	conn := tls.Client(raw, cfg)
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if err := conn.HandshakeContext(ctx); err != nil {
		return Result{}, classify(ErrTLSHandshake, err)
	}
	return exchangeStream(conn, query)
}

// exchangeStream performs the length-prefixed exchange over an established
// stream connection.
func exchangeStream(conn net.Conn, query []byte) (Result, error) {
	framed := make([]byte, 2+len(query))
	binary.BigEndian.PutUint16(framed, uint16(len(query)))
	copy(framed[2:], query)

	start := time.Now()
	if _, err := conn.Write(framed); err != nil {
		return Result{}, classify(ErrClosedEarly, err)
	}

	var lengthPrefix [2]byte
	if _, err := io.ReadFull(conn, lengthPrefix[:]); err != nil {
		return Result{}, classifyStreamRead(err)
	}
	length := int(binary.BigEndian.Uint16(lengthPrefix[:]))

	reply := make([]byte, length)
	if _, err := io.ReadFull(conn, reply); err != nil {
		return Result{}, classifyStreamRead(err)
	}
	return Result{Reply: reply, RTT: time.Since(start)}, nil
}

func classifyStreamRead(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return classify(ErrClosedEarly, err)
	}
	return classify(ErrShortRead, err)
}

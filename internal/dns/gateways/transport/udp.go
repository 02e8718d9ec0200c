package transport

import (
	"context"
	"time"
)

// exchangeUDP sends one unframed datagram and reads one back. The receive
// buffer matches the advertised EDNS payload size; a reply the server had to
// truncate arrives with TC set and the caller retries over TCP.
func (e *Exchanger) exchangeUDP(ctx context.Context, server Server, query []byte) (Result, error) {
	conn, err := e.dial(ctx, bindNetwork(server.Host), server.Address())
	if err != nil {
		return Result{}, classify(ErrConnect, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	start := time.Now()
	if _, err := conn.Write(query); err != nil {
		return Result{}, classify(ErrConnect, err)
	}

	buf := make([]byte, e.payloadSize)
	n, err := conn.Read(buf)
	if err != nil {
		return Result{}, classify(ErrShortRead, err)
	}
	return Result{Reply: buf[:n], RTT: time.Since(start)}, nil
}

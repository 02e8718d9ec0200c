package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http2"
)

// dohContentType is the media type of RFC 8484 POST bodies and replies.
const dohContentType = "application/dns-message"

// dohDefaultPath is the conventional resolver endpoint path.
const dohDefaultPath = "/dns-query"

// exchangeDoH POSTs the raw message to the server's /dns-query endpoint and
// reads the raw reply from the response body (RFC 8484). The plain-HTTP kind
// is identical minus TLS and exists as a debugging aid.
func (e *Exchanger) exchangeDoH(ctx context.Context, server Server, query []byte) (Result, error) {
	endpoint := url.URL{
		Scheme: "https",
		Host:   server.Address(),
		Path:   dohDefaultPath,
	}
	if server.Kind == KindDoHHTTP {
		endpoint.Scheme = "http"
	}
	if server.Path != "" {
		endpoint.Path = server.Path
	}

	client, err := e.dohClient(server)
	if err != nil {
		return Result{}, err
	}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(query))
	if err != nil {
		return Result{}, classify(ErrConnect, err)
	}
	req.Header.Set("Content-Type", dohContentType)
	req.Header.Set("Accept", dohContentType)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return Result{}, classify(ErrConnect, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: %s", ErrHTTPStatus, resp.Status)
	}

	reply, err := io.ReadAll(io.LimitReader(resp.Body, maxMessageSize+1))
	rtt := time.Since(start)
	if err != nil {
		return Result{}, classify(ErrShortRead, err)
	}
	if len(reply) > maxMessageSize {
		return Result{}, fmt.Errorf("%w: reply exceeds %d octets", ErrShortRead, maxMessageSize)
	}
	return Result{Reply: reply, RTT: rtt}, nil
}

// dohClient builds a single-use HTTP client. Keep-alives are off so the
// connection is released when the exchange finishes, matching the
// one-connection-per-query discipline of the other transports.
func (e *Exchanger) dohClient(server Server) (*http.Client, error) {
	tlsConfig := &tls.Config{
		ServerName: server.serverName(),
		MinVersion: tls.VersionTLS12,
	}
	if e.tlsConfigure != nil {
		e.tlsConfigure(tlsConfig)
	}

	tr := &http.Transport{
		DialContext:       e.dial,
		TLSClientConfig:   tlsConfig,
		DisableKeepAlives: true,
	}
	if server.Kind == KindDoHHTTPS {
		if err := http2.ConfigureTransport(tr); err != nil {
			return nil, classify(ErrConnect, err)
		}
	}
	return &http.Client{Transport: tr}, nil
}

// Command toluol is a terse dig replacement: it sends one DNS query over
// UDP, TCP, DoT, or DoH and prints the reply.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/deep-soft/toluol/internal/dns/common/log"
	"github.com/deep-soft/toluol/internal/dns/config"
	"github.com/deep-soft/toluol/internal/dns/domain"
	"github.com/deep-soft/toluol/internal/dns/gateways/transport"
	"github.com/deep-soft/toluol/internal/dns/services/query"
)

// Exit codes: 0 success, 1 transport failure, 2 protocol failure, 3
// non-NOERROR rcode, 4 usage error.
const (
	exitOK        = 0
	exitTransport = 1
	exitProtocol  = 2
	exitRCode     = 3
	exitUsage     = 4
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	args, err := parseArgs(argv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "toluol: %v\n%s", err, usageText)
		return exitUsage
	}
	if args.showUsage {
		fmt.Print(usageText)
		return exitOK
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "toluol: %v\n", err)
		return exitUsage
	}
	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "toluol: %v\n", err)
		return exitUsage
	}

	server, err := pickServer(args, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "toluol: %v\n", err)
		return exitUsage
	}

	exchanger := transport.New(transport.Options{
		Timeout:     time.Duration(cfg.TimeoutMS) * time.Millisecond,
		PayloadSize: uint16(cfg.EDNSSize),
	})
	client, err := query.NewClient(query.Options{Exchanger: exchanger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "toluol: %v\n", err)
		return exitProtocol
	}

	var edns *domain.EDNSConfig
	if args.do {
		edns = &domain.EDNSConfig{Do: true, PayloadSize: uint16(cfg.EDNSSize)}
	}
	msg, err := client.MakeQuery(args.qname, args.qtype, edns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "toluol: %v\n", err)
		return exitUsage
	}
	msg.Header.Flags.CD = args.cd

	resp, err := client.Query(context.Background(), msg, server)
	exit := exitOK
	if err != nil {
		var failure *query.ServerFailure
		switch {
		case errors.As(err, &failure):
			// The reply still decoded; render it below and report the rcode.
			fmt.Fprintf(os.Stderr, "toluol: %v\n", err)
			exit = exitRCode
		case errors.Is(err, transport.ErrConnect),
			errors.Is(err, transport.ErrTLSHandshake),
			errors.Is(err, transport.ErrTimeout),
			errors.Is(err, transport.ErrShortRead),
			errors.Is(err, transport.ErrHTTPStatus),
			errors.Is(err, transport.ErrClosedEarly):
			fmt.Fprintf(os.Stderr, "toluol: %v\n", err)
			return exitTransport
		default:
			fmt.Fprintf(os.Stderr, "toluol: %v\n", err)
			return exitProtocol
		}
	}

	switch {
	case args.json:
		out, err := renderJSON(resp)
		if err != nil {
			fmt.Fprintf(os.Stderr, "toluol: %v\n", err)
			return exitProtocol
		}
		fmt.Print(out)
	case args.short:
		fmt.Print(renderShort(resp.Message))
	default:
		fmt.Print(renderFull(resp))
	}
	return exit
}

// pickServer combines the command line with the configured defaults into a
// transport server specifier.
func pickServer(args cliArgs, cfg *config.AppConfig) (transport.Server, error) {
	kind := args.kind
	if !args.kindSet {
		var err error
		kind, err = transportKind(cfg.Transport)
		if err != nil {
			return transport.Server{}, err
		}
	}
	host := args.server
	if host == "" {
		host = cfg.Server
	}
	port := args.port
	if port == 0 && cfg.Port != 0 {
		port = uint16(cfg.Port)
	}
	return transport.Server{Host: host, Port: port, Kind: kind}, nil
}

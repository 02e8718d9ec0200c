package main

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/deep-soft/toluol/internal/dns/domain"
	"github.com/deep-soft/toluol/internal/dns/gateways/transport"
)

// cliArgs is the parsed command line: what to ask, whom to ask, and how to
// print the answer.
type cliArgs struct {
	qname     domain.Name
	qtype     domain.RRType
	server    string // empty means the configured default
	port      uint16
	kind      transport.Kind
	kindSet   bool
	do        bool
	cd        bool
	short     bool
	json      bool
	showUsage bool
}

const usageText = `usage: toluol [@server] [type] name [+flags]
       toluol -x addr [@server] [+flags]

  +tcp +tls +https +http   transport selection (default udp)
  +do                      request DNSSEC records (sets the OPT DO bit)
  +cd                      set the checking-disabled flag
  +short                   print answer RDATA only
  +json                    print the whole message as JSON
  -p port                  server port
  -x addr                  reverse lookup for an IPv4/IPv6 address
`

// parseArgs interprets dig-style arguments: an optional @server, an optional
// type mnemonic, the query name, and +flags in any order.
func parseArgs(args []string) (cliArgs, error) {
	out := cliArgs{qtype: domain.RRTypeA}
	var words []string
	var reverse string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-h" || arg == "--help":
			out.showUsage = true
			return out, nil
		case strings.HasPrefix(arg, "@"):
			out.server = strings.TrimPrefix(arg, "@")
		case arg == "-p":
			i++
			if i >= len(args) {
				return out, fmt.Errorf("-p needs a port")
			}
			port, err := strconv.ParseUint(args[i], 10, 16)
			if err != nil {
				return out, fmt.Errorf("invalid port %q", args[i])
			}
			out.port = uint16(port)
		case arg == "-x":
			i++
			if i >= len(args) {
				return out, fmt.Errorf("-x needs an address")
			}
			reverse = args[i]
		case strings.HasPrefix(arg, "+"):
			if err := out.applyFlag(strings.TrimPrefix(arg, "+")); err != nil {
				return out, err
			}
		default:
			words = append(words, arg)
		}
	}

	if reverse != "" {
		if len(words) > 0 {
			return out, fmt.Errorf("-x takes no name argument")
		}
		addr, err := netip.ParseAddr(reverse)
		if err != nil {
			return out, fmt.Errorf("invalid address %q", reverse)
		}
		name, err := domain.ReverseName(addr)
		if err != nil {
			return out, err
		}
		out.qname = name
		out.qtype = domain.RRTypePTR
		return out, nil
	}

	switch len(words) {
	case 0:
		return out, fmt.Errorf("no query name given")
	case 1:
		name, err := domain.ParseName(words[0])
		if err != nil {
			return out, err
		}
		out.qname = name
	case 2:
		qtype, err := domain.RRTypeFromString(words[0])
		if err != nil {
			return out, err
		}
		name, err := domain.ParseName(words[1])
		if err != nil {
			return out, err
		}
		out.qtype = qtype
		out.qname = name
	default:
		return out, fmt.Errorf("too many arguments")
	}
	return out, nil
}

func (a *cliArgs) applyFlag(flag string) error {
	switch flag {
	case "udp":
		a.kind, a.kindSet = transport.KindUDP, true
	case "tcp":
		a.kind, a.kindSet = transport.KindTCP, true
	case "tls", "dot":
		a.kind, a.kindSet = transport.KindDoT, true
	case "https", "doh":
		a.kind, a.kindSet = transport.KindDoHHTTPS, true
	case "http":
		a.kind, a.kindSet = transport.KindDoHHTTP, true
	case "do", "dnssec":
		a.do = true
	case "cd":
		a.cd = true
	case "short":
		a.short = true
	case "json":
		a.json = true
	default:
		return fmt.Errorf("unknown flag +%s", flag)
	}
	return nil
}

// transportKind maps the configured transport name to its kind.
func transportKind(name string) (transport.Kind, error) {
	switch name {
	case "udp":
		return transport.KindUDP, nil
	case "tcp":
		return transport.KindTCP, nil
	case "dot":
		return transport.KindDoT, nil
	case "doh-https":
		return transport.KindDoHHTTPS, nil
	case "doh-http":
		return transport.KindDoHHTTP, nil
	default:
		return 0, fmt.Errorf("unknown transport %q", name)
	}
}

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// dnsquery asks a nameserver for a zone's SOA and prints the serial,
// which is how operators check that a pool target has caught up with
// the control plane.
func main() {
	var (
		server  = flag.String("server", "127.0.0.1:53", "Nameserver HOST:PORT")
		name    = flag.String("name", "", "Zone name to query")
		qtype   = flag.String("qtype", "SOA", "Query type (SOA, A, AAAA, NS, ...)")
		timeout = flag.Duration("timeout", 2*time.Second, "Per-query timeout")
		tcp     = flag.Bool("tcp", false, "Query over TCP instead of UDP")
		quiet   = flag.Bool("quiet", false, "Suppress output (exit status indicates success)")
	)
	flag.Parse()

	if *name == "" {
		fmt.Fprintln(os.Stderr, "dnsquery: -name is required")
		os.Exit(2)
	}

	qt, ok := dns.StringToType[strings.ToUpper(*qtype)]
	if !ok {
		fmt.Fprintf(os.Stderr, "dnsquery: unknown query type %q\n", *qtype)
		os.Exit(2)
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(*name), qt)

	client := &dns.Client{Timeout: *timeout}
	if *tcp {
		client.Net = "tcp"
	}

	resp, rtt, err := client.Exchange(msg, *server)
	if err != nil {
		if !*quiet {
			fmt.Fprintf(os.Stderr, "dnsquery error: %v\n", err)
		}
		os.Exit(1)
	}
	if *quiet {
		if resp.Rcode != dns.RcodeSuccess {
			os.Exit(1)
		}
		return
	}

	fmt.Printf("rcode=%s rtt=%s answers=%d\n", dns.RcodeToString[resp.Rcode], rtt, len(resp.Answer))
	for _, rr := range resp.Answer {
		fmt.Println(rr.String())
		if soa, ok := rr.(*dns.SOA); ok {
			fmt.Printf("serial=%d\n", soa.Serial)
		}
	}
	if resp.Rcode != dns.RcodeSuccess {
		os.Exit(1)
	}
}

package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/openstack/designate-sub004/internal/zonefile"
)

// print-zone parses a master-file and prints what the importer would
// create from it, which makes import failures reproducible offline.
func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: print-zone path/to/zonefile\n")
		os.Exit(2)
	}

	raw, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read zonefile: %v\n", err)
		os.Exit(1)
	}

	parsed, err := zonefile.Parse(string(raw))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse zone: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("ORIGIN: %s\n", parsed.Name)
	fmt.Printf("EMAIL: %s\n", parsed.Email)
	fmt.Printf("DEFAULT_TTL: %d\n", parsed.TTL)
	fmt.Println("RECORDSETS:")

	sets := append([]zonefile.ParsedRecordSet(nil), parsed.Sets...)
	sort.Slice(sets, func(i, j int) bool {
		a, b := sets[i], sets[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Type < b.Type
	})

	for _, rs := range sets {
		for _, data := range rs.Records {
			fmt.Printf("  %s %d IN %s %s\n", rs.Name, rs.TTL, rs.Type, data)
		}
	}
}

// csv-preview parses a bank CSV export and prints the records it finds.
// Debugging aid for checking an export before uploading it.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mkret/firefly-enricher/internal/adapters/bankcsv"
)

func main() {
	pretty := flag.Bool("pretty", false, "print every field of each record")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: csv-preview [-pretty] <file.csv>")
		os.Exit(2)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()

	records, err := bankcsv.Parse(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	for i, record := range records {
		if *pretty {
			fmt.Printf("--- record %d ---\n%s\n", i+1, record.PrettyPrint())
			continue
		}
		fmt.Printf("%s  %10s  %s\n", record.Date.Format("2006-01-02"), record.Amount, record.Details)
	}
	fmt.Fprintf(os.Stderr, "%d records\n", len(records))
}

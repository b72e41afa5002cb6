// Command reports serves, aggregates, validates and exports epidemiological
// report archives.
//
// Usage:
//
//	reports serve
//	reports dates --data-dir ./data
//	reports aggregate --country Russia --column Confirmed_Change --weekly
//	reports validate
//	reports publish --column Confirmed_Change --per 1000 --per-country Russia
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/epi-report-service/internal/cli"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"os"

	ingest "tarediiran-industries.com/transit-dashboard/internal/ingest/gtfs_static"
)

func main() {
	os.Exit(ingest.Main(os.Args[0], os.Args[1:], os.Stdout, os.Stderr))
}

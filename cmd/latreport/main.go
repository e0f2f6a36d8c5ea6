package main

import (
	"flag"
	"log"
	"os"

	"ticksim-go/internal/latency"
	"ticksim-go/internal/record"
)

func main() {
	file := flag.String("file", "data/latency_histogram.csv", "histogram CSV written by a simulation run")
	flag.Parse()

	buckets, err := record.ReadHistogramCSV(*file)
	if err != nil {
		log.Fatalf("read histogram: %v", err)
	}
	hist, err := latency.FromBuckets(buckets)
	if err != nil {
		log.Fatalf("rebuild histogram: %v", err)
	}
	hist.Fprint(os.Stdout)
}

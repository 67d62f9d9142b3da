package main

import (
	"flag"
	"fmt"
	"github.com/dasnellings/diphic/align"
	"github.com/vertgenlab/gonomics/exception"
	"strings"
)

func indexUsage(indexFlags *flag.FlagSet) {
	fmt.Print(
		"index - write the .bai index that lets run scan chromosomes of a sorted bam in parallel\n\n" +
			"Usage:\n" +
			"  diphic index sorted.bam [sorted2.bam ...]\n\n" +
			"Options:\n")
	indexFlags.PrintDefaults()
}

func runIndex(args []string) {
	var err error
	indexFlags := flag.NewFlagSet("index", flag.ExitOnError)
	err = indexFlags.Parse(args)
	exception.PanicOnErr(err)
	indexFlags.Usage = func() { indexUsage(indexFlags) }

	if indexFlags.NArg() == 0 {
		indexFlags.Usage()
		errExit("\nERROR: must input at least one bam file")
	}
	for _, path := range indexFlags.Args() {
		if !strings.HasSuffix(path, ".bam") {
			errExit("ERROR: " + path + " is not a bam file")
		}
		if err = align.WriteIndex(path); err != nil {
			errExit("ERROR: " + err.Error())
		}
	}
}

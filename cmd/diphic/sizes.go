package main

import (
	"flag"
	"fmt"
	"github.com/dasnellings/diphic/chromsizes"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/sam"
	"strings"
)

func sizesUsage(sizesFlags *flag.FlagSet) {
	fmt.Print(
		"sizes - write the chromosome sizes listing matching diphic outputs\n\n" +
			"Usage:\n" +
			"  diphic sizes [options] -i input.bam > diploid.chrom.sizes\n" +
			"  diphic sizes [options] -sizes genome.chrom.sizes > diploid.chrom.sizes\n\n" +
			"Options:\n")
	sizesFlags.PrintDefaults()
}

func runSizes(args []string) {
	var err error
	sizesFlags := flag.NewFlagSet("sizes", flag.ExitOnError)

	var chroms inputFiles
	input := sizesFlags.String("i", "", "Bam file whose header lists the chromosomes.")
	sizesFile := sizesFlags.String("sizes", "", "Chromosome sizes (name, size) or a fasta index.")
	output := sizesFlags.String("o", "stdout", "Output listing.")
	merge := sizesFlags.Bool("merge", false, "List each chromosome once at twice its size, matching run -merge.")
	sizesFlags.Var(&chroms, "chrom", "List only this chromosome. May be declared more than once.")

	err = sizesFlags.Parse(args)
	exception.PanicOnErr(err)
	sizesFlags.Usage = func() { sizesUsage(sizesFlags) }

	if (*input == "") == (*sizesFile == "") {
		sizesFlags.Usage()
		errExit("\nERROR: must input exactly one of -i or -sizes")
	}

	var s chromsizes.Sizes
	if *sizesFile != "" {
		s, err = chromsizes.Read(*sizesFile)
	} else {
		if !strings.HasSuffix(*input, ".bam") {
			errExit("ERROR: -i must be a bam file")
		}
		br, header := sam.OpenBam(*input)
		err = br.Close()
		exception.PanicOnErr(err)
		s, err = chromsizes.FromHeader(header.Chroms)
	}
	if err != nil {
		errExit("ERROR: " + err.Error())
	}
	if len(chroms) > 0 {
		s = s.Restrict(chroms)
	}
	chromsizes.Write(*output, s.Diploid(*merge))
}

package main

import (
	"flag"
	"fmt"
	"github.com/dasnellings/diphic/phase"
	"github.com/vertgenlab/gonomics/exception"
	"log"
)

func phasesetUsage(phasesetFlags *flag.FlagSet) {
	fmt.Print(
		"phaseset - convert the phased heterozygous SNVs of a vcf sample to a phase set table\n\n" +
			"Usage:\n" +
			"  diphic phaseset [options] -vcf phased.vcf -o phase.tsv\n\n" +
			"Options:\n")
	phasesetFlags.PrintDefaults()
}

func runPhaseset(args []string) {
	var err error
	phasesetFlags := flag.NewFlagSet("phaseset", flag.ExitOnError)
	vcfFile := phasesetFlags.String("vcf", "", "Phased vcf file.")
	sample := phasesetFlags.String("sample", "", "Sample to read phase from. Required when the vcf has more than one sample.")
	output := phasesetFlags.String("o", "stdout", "Output phase set table.")

	err = phasesetFlags.Parse(args)
	exception.PanicOnErr(err)
	phasesetFlags.Usage = func() { phasesetUsage(phasesetFlags) }

	if *vcfFile == "" {
		phasesetFlags.Usage()
		errExit("\nERROR: must input a vcf file with -vcf")
	}

	idx, err := phase.FromVcf(*vcfFile, *sample)
	if err != nil {
		errExit("ERROR: " + err.Error())
	}
	phase.WritePhaseSet(*output, idx)
	log.Printf("Wrote %d phased loci on %d chromosomes", idx.Len(), len(idx.Chroms()))
}

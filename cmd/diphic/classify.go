package main

import (
	"context"
	"flag"
	"fmt"
	"github.com/dasnellings/diphic/align"
	"github.com/dasnellings/diphic/classify"
	"github.com/dasnellings/diphic/phase"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"log"
)

func classifyUsage(classifyFlags *flag.FlagSet) {
	fmt.Print(
		"classify - assign reads to the reference-phase or alternate-phase homolog and write the assignment table\n\n" +
			"Usage:\n" +
			"  diphic classify [options] -i input.bam -vcf phased.vcf > assignments.tsv\n\n" +
			"Options:\n")
	classifyFlags.PrintDefaults()
}

func runClassify(args []string) {
	var err error
	classifyFlags := flag.NewFlagSet("classify", flag.ExitOnError)

	var chroms inputFiles
	input := classifyFlags.String("i", "", "Input sam or bam file.")
	output := classifyFlags.String("o", "stdout", "Output assignment table.")
	vcfFile := classifyFlags.String("vcf", "", "Phased vcf.")
	sample := classifyFlags.String("sample", "", "Sample to read from -vcf.")
	phaseSet := classifyFlags.String("phase", "", "Phase set table. Alternative to -vcf.")
	classifyFlags.Var(&chroms, "chrom", "Classify only this chromosome. May be declared more than once.")

	err = classifyFlags.Parse(args)
	exception.PanicOnErr(err)
	classifyFlags.Usage = func() { classifyUsage(classifyFlags) }

	if *input == "" || (*vcfFile == "") == (*phaseSet == "") {
		classifyFlags.Usage()
		errExit("\nERROR: must input an alignment file with -i and exactly one of -vcf or -phase")
	}

	var idx *phase.Index
	if *vcfFile != "" {
		idx, err = phase.FromVcf(*vcfFile, *sample)
	} else {
		idx, err = phase.FromPhaseSet(*phaseSet)
	}
	if err != nil {
		errExit("ERROR: " + err.Error())
	}
	src, err := align.Open(*input, align.DefaultTags)
	if err != nil {
		errExit("ERROR: " + err.Error())
	}
	if len(chroms) == 0 {
		chroms = idx.Chroms()
	}

	out := fileio.EasyCreate(*output)
	var table *classify.Table
	var stats classify.Stats
	for _, chrom := range chroms {
		table, stats, err = classify.Classify(context.Background(), src, idx, chrom)
		if err != nil {
			log.Fatalf("ERROR: classifying %s: %v", chrom, err)
		}
		err = table.Write(out, chrom)
		exception.PanicOnErr(err)
		log.Printf("%s: %d alignments, %d with evidence, %d reference-phase, %d alternate-phase, %d conflicted",
			chrom, stats.Alignments, stats.WithEvidence, stats.Reference, stats.Alternate, stats.Conflicted)
	}
	err = out.Close()
	exception.PanicOnErr(err)
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"github.com/dasnellings/diphic/align"
	"github.com/dasnellings/diphic/driver"
	"github.com/dasnellings/diphic/report"
	"github.com/pkg/profile"
	"github.com/vertgenlab/gonomics/exception"
	"log"
	"os"
	"os/signal"
	"strings"
)

func runUsage(runFlags *flag.FlagSet) {
	fmt.Print(
		"run - classify reads by homolog, then write diploid contacts and raw and corrected accessibility tracks\n\n" +
			"Usage:\n" +
			"  diphic run [options] -i input.bam -vcf phased.vcf -o outdir\n\n" +
			"Outputs in outdir:\n" +
			"  assignments.tsv, contacts.txt, raw.bedGraph, corrected.bedGraph,\n" +
			"  diploid.chrom.sizes, summary.tsv, joblog.tsv\n\n" +
			"Options:\n")
	runFlags.PrintDefaults()
}

// startProfile starts cpu or memory profiling into dir. The returned function
// stops it.
func startProfile(cpuDir, memDir string) func() {
	switch {
	case cpuDir != "" && memDir != "":
		errExit("ERROR: -cpuprofile and -memprofile cannot be used together")
	case cpuDir != "":
		return profile.Start(profile.CPUProfile, profile.ProfilePath(cpuDir), profile.Quiet).Stop
	case memDir != "":
		return profile.Start(profile.MemProfile, profile.ProfilePath(memDir), profile.Quiet).Stop
	}
	return func() {}
}

func runRun(args []string) {
	var err error
	runFlags := flag.NewFlagSet("run", flag.ExitOnError)
	opts := driver.DefaultOptions()

	var chroms inputFiles
	cpuprofile := runFlags.String("cpuprofile", "", "Write a cpu profile to this directory.")
	memprofile := runFlags.String("memprofile", "", "Write a memory profile to this directory.")
	input := runFlags.String("i", "", "Input sam or bam file of deduplicated paired alignments. A bam with a .bai index is read region by region.")
	vcfFile := runFlags.String("vcf", "", "Phased vcf. Heterozygous phased SNVs of the sample are used, a|b giving the reference-phase allele a and the alternate-phase allele b.")
	sample := runFlags.String("sample", "", "Sample to read from -vcf. May be omitted for single sample files.")
	phaseSet := runFlags.String("phase", "", "Phase set table: chrom, pos, reference-phase allele, alternate-phase allele. Alternative to -vcf.")
	table := runFlags.String("table", "", "Read assignment table from a previous run (name, chrom, label). Skips classification.")
	sizes := runFlags.String("sizes", "", "Chromosome sizes (name, size). Taken from the bam header when omitted.")
	runFlags.Var(&chroms, "chrom", "Process only this chromosome. May be declared more than once.")
	outDir := runFlags.String("o", opts.OutDir, "Output directory.")
	platform := runFlags.String("platform", opts.Platform, "Sequencing platform selecting the admitted junction types: ILLUMINA, BGISEQ, or MGISEQ.")
	threads := runFlags.Int("threads", opts.Threads, "Maximum number of chromosomes processed at once.")
	memGb := runFlags.Float64("mem", 0, "Memory budget per worker in GB. Defaults to total memory / 12.")
	merge := runFlags.Bool("merge", false, "Write both homologs under the untagged chromosome name, offsetting alternate-phase coordinates by the chromosome size.")
	from := runFlags.String("from", opts.From.String(), "First stage to run: hic or dhs.")
	to := runFlags.String("to", opts.To.String(), "Last stage to run: hic or dhs.")
	ipTag := runFlags.String("ipTag", opts.Tags.InsertionPoint, "Alignment tag holding the insertion point.")
	jtTag := runFlags.String("jtTag", opts.Tags.JunctionType, "Alignment tag holding the junction type.")
	plot := runFlags.Bool("plot", false, "Write junction_bias.png with classified alignments per junction type.")
	keepWork := runFlags.Bool("keepWork", false, "Keep the per-chromosome partial outputs.")
	verbose := runFlags.Bool("verbose", false, "Log per-chromosome progress and print a chart of the allelic balance.")

	err = runFlags.Parse(args)
	exception.PanicOnErr(err)
	runFlags.Usage = func() { runUsage(runFlags) }

	if *input == "" {
		runFlags.Usage()
		errExit("\nERROR: must input an alignment file with -i")
	}

	opts.Alignments = *input
	opts.PhaseVcf = *vcfFile
	opts.Sample = *sample
	opts.PhaseSet = *phaseSet
	opts.ReadTable = *table
	opts.ChromSizes = *sizes
	opts.Chroms = chroms
	opts.OutDir = *outDir
	opts.Platform = *platform
	opts.Threads = *threads
	opts.MemPerWorker = uint64(*memGb * (1 << 30))
	opts.MergeHomologs = *merge
	opts.Tags = align.TagNames{InsertionPoint: *ipTag, JunctionType: *jtTag}
	opts.Plot = *plot
	opts.KeepWork = *keepWork
	opts.Verbose = *verbose
	opts.From, err = driver.ParseStage(*from)
	if err != nil {
		errExit("ERROR: " + err.Error())
	}
	opts.To, err = driver.ParseStage(*to)
	if err != nil {
		errExit("ERROR: " + err.Error())
	}

	stop := startProfile(*cpuprofile, *memprofile)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	summary, err := driver.Run(ctx, opts)
	cancel()
	stop()
	if err != nil {
		var taskErr *driver.TaskError
		switch {
		case errors.As(err, &taskErr):
			log.Fatalf("ERROR: chromosome %s failed in the %s stage: %v", taskErr.Chrom, taskErr.Stage, taskErr.Err)
		case errors.Is(err, driver.ErrConfig), errors.Is(err, driver.ErrUpstream):
			errExit("ERROR: " + err.Error())
		default:
			log.Fatal("ERROR: ", err)
		}
	}

	total := summary.Total()
	log.Printf("Assigned %d reads to the reference-phase and %d to the alternate-phase homolog (%d conflicted)",
		total.Classify.Reference, total.Classify.Alternate, total.Classify.Conflicted)
	if opts.Runs(driver.Hic) {
		log.Printf("Wrote %d contacts", total.Contacts.Records)
	}
	if opts.Runs(driver.Dhs) {
		log.Printf("Counted %d raw and %d corrected insertions, corrected reference fraction %.3f (p = %.3g)",
			total.Access.Raw, total.Access.Corrected, report.RefFraction(total.CorrRef, total.CorrAlt), report.BinomialP(total.CorrRef, total.CorrAlt))
		if opts.Verbose {
			fmt.Fprintln(os.Stderr, report.Chart(summary))
		}
	}
	if opts.Verbose && len(summary.Digests) > 0 {
		log.Printf("Output digests: %s", digestList(summary.Digests))
	}
}

func digestList(digests []report.Digest) string {
	parts := make([]string, len(digests))
	for i, d := range digests {
		parts[i] = fmt.Sprintf("%s=%016x", d.File, d.Sum)
	}
	return strings.Join(parts, " ")
}

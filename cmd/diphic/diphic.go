package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
)

const version string = "0.1.0"
const gonomicsVersion string = "1.0.1-0.20240426183757-e6c6ab634c20"

type subcommand struct {
	name     string
	function func(args []string)
	blurb    string
}

// SubCommands contains all valid subcommands.
var SubCommands = []*subcommand{
	{"run", runRun, "classify reads by homolog and write diploid contacts and accessibility tracks"},
	{"classify", runClassify, "write the read to homolog assignment table only"},
	{"sizes", runSizes, "write the chromosome sizes listing matching diphic outputs"},
	{"checklog", runChecklog, "fail if a job log records a failed task"},
	{"phaseset", runPhaseset, "convert a phased vcf sample to a phase set table"},
	{"index", runIndex, "write the .bai index of a coordinate-sorted bam"},
}

func usage() {
	s := new(strings.Builder)
	s.WriteString(
		"Program: diphic (diploid Hi-C contacts and accessibility tracks)\n" +
			"Version: " + version + " (gonomics " + gonomicsVersion + ")\n" +
			"\nUsage:\tdiphic <command> [options]\n\n" +
			"Commands:\n")

	// add subcommand text via tabwriter so the columns align
	w := tabwriter.NewWriter(s, 0, 8, 5, '\t', tabwriter.AlignRight)
	for i := range SubCommands {
		fmt.Fprintf(w, "\t%s\t%s\n", SubCommands[i].name, SubCommands[i].blurb)
	}
	w.Flush()
	fmt.Print(s.String())
}

// commandMap builds a map of possible subcommands keyed on the name of the subcommand
func commandMap() map[string]func(args []string) {
	m := make(map[string]func(args []string))
	for i := range SubCommands {
		m[SubCommands[i].name] = SubCommands[i].function
	}
	return m
}

func main() {
	flag.Usage = usage
	flag.Parse()

	command := commandMap()[flag.Arg(0)]
	if command == nil {
		flag.Usage()
		return
	}
	command(flag.Args()[1:])
}

func errExit(err string) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

// inputFiles is a custom type that gets filled by flag.Parse()
type inputFiles []string

// String to satisfy flag.Value interface
func (i *inputFiles) String() string {
	return strings.Join(*i, " ")
}

// Set to satisfy flag.Value interface
func (i *inputFiles) Set(value string) error {
	*i = append(*i, value)
	return nil
}

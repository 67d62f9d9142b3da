package main

import (
	"flag"
	"fmt"
	"github.com/dasnellings/diphic/driver"
	"github.com/vertgenlab/gonomics/exception"
	"log"
)

func checklogUsage(checklogFlags *flag.FlagSet) {
	fmt.Print(
		"checklog - exit non-zero if a job log records a task with a non-zero exit value\n\n" +
			"Usage:\n" +
			"  diphic checklog joblog.tsv [joblog2.tsv ...]\n\n" +
			"Options:\n")
	checklogFlags.PrintDefaults()
}

func runChecklog(args []string) {
	var err error
	checklogFlags := flag.NewFlagSet("checklog", flag.ExitOnError)
	quiet := checklogFlags.Bool("q", false, "Do not log passing job logs.")

	err = checklogFlags.Parse(args)
	exception.PanicOnErr(err)
	checklogFlags.Usage = func() { checklogUsage(checklogFlags) }

	if checklogFlags.NArg() == 0 {
		checklogFlags.Usage()
		errExit("\nERROR: must input at least one job log")
	}

	var failed bool
	for _, path := range checklogFlags.Args() {
		if err = driver.CheckJobLogFile(path); err != nil {
			log.Printf("ERROR: %s: %v", path, err)
			failed = true
			continue
		}
		if !*quiet {
			log.Printf("%s: all tasks succeeded", path)
		}
	}
	if failed {
		errExit("ERROR: failed tasks found")
	}
}

// Package driver runs the per-chromosome tasks of a diphic run on a bounded
// worker pool and merges their outputs.
package driver

import (
	"errors"
	"fmt"
	"github.com/dasnellings/diphic/access"
	"github.com/dasnellings/diphic/align"
	"strings"
)

var (
	// ErrConfig wraps every error found before processing begins.
	ErrConfig = errors.New("configuration error")
	// ErrUpstream wraps missing or empty inputs expected from an earlier step.
	ErrUpstream = errors.New("missing upstream input")
)

// TaskError reports the failure of one chromosome task.
type TaskError struct {
	Chrom string
	Stage Stage
	Err   error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s failed in %s stage: %v", e.Chrom, e.Stage, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

func configError(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, a...))
}

func upstreamError(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUpstream, fmt.Sprintf(format, a...))
}

// Stage is one step of the pipeline. Classification belongs to the hic stage.
type Stage int

const (
	Hic Stage = iota
	Dhs
)

func (s Stage) String() string {
	switch s {
	case Hic:
		return "hic"
	case Dhs:
		return "dhs"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// ParseStage accepts "hic" and "dhs", case insensitive.
func ParseStage(s string) (Stage, error) {
	switch strings.ToLower(s) {
	case "hic":
		return Hic, nil
	case "dhs":
		return Dhs, nil
	}
	return Hic, configError("unknown stage %q, expected hic or dhs", s)
}

// Options configure a run.
type Options struct {
	Alignments string       // SAM or BAM; an index beside a BAM enables region seeks
	Source     align.Source // used instead of Alignments when set

	PhaseVcf  string // phased VCF
	Sample    string // VCF sample; may be empty for single-sample files
	PhaseSet  string // chrom, pos, reference-phase allele, alternate-phase allele
	ReadTable string // precomputed read assignments; skips classification

	ChromSizes string   // name and size listing; taken from the BAM header when empty
	Chroms     []string // restricts the processed chromosomes when set

	OutDir        string
	Platform      string
	Threads       int
	MemPerWorker  uint64 // bytes; 0 derives it from system memory
	MergeHomologs bool
	From, To      Stage
	Tags          align.TagNames
	Plot          bool // writes junction_bias.png
	KeepWork      bool // keeps the spill directory
	Verbose       bool
}

// DefaultOptions returns the options used by the command line before flags
// are applied.
func DefaultOptions() Options {
	return Options{
		OutDir:   ".",
		Platform: "ILLUMINA",
		Threads:  1,
		From:     Hic,
		To:       Dhs,
		Tags:     align.DefaultTags,
	}
}

// Runs reports whether s lies in the stage range.
func (o Options) Runs(s Stage) bool {
	return o.From <= s && s <= o.To
}

// Validate checks the options that can be checked without reading inputs.
func (o Options) Validate() error {
	if o.Threads < 1 {
		return configError("threads must be positive, got %d", o.Threads)
	}
	if o.From > o.To {
		return configError("stage range %s to %s is empty", o.From, o.To)
	}
	if o.OutDir == "" {
		return configError("an output directory is required")
	}
	if o.Alignments == "" && o.Source == nil {
		return configError("an alignment file is required")
	}
	if err := o.Tags.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if o.Runs(Dhs) {
		junctions, err := access.PlatformJunctions(o.Platform)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConfig, err)
		}
		if !junctions.Closed() {
			return configError("junction set %s of %s is not closed under Partner", junctions, o.Platform)
		}
	}
	var phaseInputs int
	for _, p := range []string{o.PhaseVcf, o.PhaseSet, o.ReadTable} {
		if p != "" {
			phaseInputs++
		}
	}
	if phaseInputs > 1 {
		return configError("give only one of a phased vcf, a phase set, or a read table")
	}
	if phaseInputs == 0 && o.From == Hic {
		return configError("a phased vcf, a phase set, or a read table is required")
	}
	return nil
}

package driver

import (
	"context"
	"fmt"
	"github.com/dasnellings/diphic/access"
	"github.com/dasnellings/diphic/align"
	"github.com/dasnellings/diphic/chromsizes"
	"github.com/dasnellings/diphic/classify"
	"github.com/dasnellings/diphic/contact"
	"github.com/dasnellings/diphic/homolog"
	"github.com/dasnellings/diphic/phase"
	"github.com/dasnellings/diphic/report"
	"github.com/exascience/pargo/parallel"
	"github.com/google/uuid"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Output file names, relative to Options.OutDir.
const (
	AssignmentsFile = "assignments.tsv"
	ContactsFile    = "contacts.txt"
	RawFile         = "raw.bedGraph"
	CorrectedFile   = "corrected.bedGraph"
	SizesFile       = "diploid.chrom.sizes"
	SummaryFile     = "summary.tsv"
	JobLogFile      = "joblog.tsv"
	PlotFile        = "junction_bias.png"
)

// spill kinds
const (
	spillAssign   = "assign"
	spillContacts = "contacts"
	spillAccess   = "access"
)

// Driver holds the loaded inputs of a run. Everything it holds is read-only
// once New returns, so tasks share it without locking.
type Driver struct {
	opts     Options
	src      align.Source
	idx      *phase.Index
	tables   *classify.Tables
	sizes    chromsizes.Sizes
	admitted access.JunctionSet
	layout   homolog.Layout
	workDir  string
}

// Run loads the inputs described by opts and runs every chromosome.
func Run(ctx context.Context, opts Options) (report.Summary, error) {
	d, err := New(opts)
	if err != nil {
		return report.Summary{}, err
	}
	return d.Run(ctx)
}

// New validates opts and loads the phasing input, the alignment source, and
// the chromosome sizes. Every error it returns wraps ErrConfig or
// ErrUpstream.
func New(opts Options) (*Driver, error) {
	var err error
	if err = opts.Validate(); err != nil {
		return nil, err
	}
	d := &Driver{opts: opts, src: opts.Source}

	if d.src == nil {
		if err = nonEmpty(opts.Alignments); err != nil {
			return nil, upstreamError("alignments: %v", err)
		}
		d.src, err = align.Open(opts.Alignments, opts.Tags)
		if err != nil {
			return nil, upstreamError("alignments: %v", err)
		}
	}

	if err = d.loadSizes(); err != nil {
		return nil, err
	}
	if err = d.loadPhasing(); err != nil {
		return nil, err
	}
	if opts.Runs(Dhs) {
		d.admitted, _ = access.PlatformJunctions(opts.Platform)
	}
	d.layout = homolog.Layout{Merge: opts.MergeHomologs, Sizes: d.sizes.Map()}
	return d, nil
}

func nonEmpty(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s is empty", path)
	}
	return nil
}

func (d *Driver) loadSizes() error {
	var err error
	switch {
	case d.opts.ChromSizes != "":
		d.sizes, err = chromsizes.Read(d.opts.ChromSizes)
		if err != nil {
			return configError("chromosome sizes: %v", err)
		}
	default:
		bam, ok := d.src.(*align.IndexedBam)
		if !ok {
			return configError("chromosome sizes are required unless alignments are an indexed bam")
		}
		d.sizes, err = chromsizes.FromHeader(bam.Chroms)
		if err != nil {
			return configError("bam header: %v", err)
		}
	}
	if len(d.opts.Chroms) > 0 {
		d.sizes = d.sizes.Restrict(d.opts.Chroms)
	}
	if d.sizes.Len() == 0 {
		return configError("no chromosomes left to process")
	}
	for _, name := range d.sizes.Names() {
		if homolog.IsTagged(name) {
			return configError("chromosome %s already carries a homolog suffix", name)
		}
	}
	return nil
}

func (d *Driver) loadPhasing() error {
	var err error
	switch {
	case d.opts.ReadTable != "":
		d.tables, err = classify.ReadTables(d.opts.ReadTable)
		if err != nil {
			return configError("read table: %v", err)
		}
	case d.opts.From == Dhs:
		path := filepath.Join(d.opts.OutDir, AssignmentsFile)
		if err = nonEmpty(path); err != nil {
			return upstreamError("a dhs-only run needs the assignments of a previous hic run: %v", err)
		}
		d.tables, err = classify.ReadTables(path)
		if err != nil {
			return upstreamError("%v", err)
		}
	case d.opts.PhaseVcf != "":
		d.idx, err = phase.FromVcf(d.opts.PhaseVcf, d.opts.Sample)
		if err != nil {
			return configError("phased vcf: %v", err)
		}
	default:
		d.idx, err = phase.FromPhaseSet(d.opts.PhaseSet)
		if err != nil {
			return configError("phase set: %v", err)
		}
	}
	return nil
}

// Chroms returns the chromosomes the run processes, in sizes order.
func (d *Driver) Chroms() []string {
	return d.sizes.Names()
}

func (d *Driver) spillPath(chrom, kind string) string {
	return filepath.Join(d.workDir, chrom+"."+kind+".zst")
}

// Run runs one task per chromosome and merges their outputs. The first failed
// task cancels the others and its TaskError is returned; nothing is merged in
// that case.
func (d *Driver) Run(ctx context.Context) (report.Summary, error) {
	var summary report.Summary
	var err error
	chroms := d.Chroms()
	if err = os.MkdirAll(d.opts.OutDir, 0755); err != nil {
		return summary, err
	}
	d.workDir = filepath.Join(d.opts.OutDir, ".diphic-"+uuid.New().String())
	if err = os.Mkdir(d.workDir, 0755); err != nil {
		return summary, err
	}
	if !d.opts.KeepWork {
		defer os.RemoveAll(d.workDir)
	}

	perWorker, available := MemoryBudget()
	if d.opts.MemPerWorker > 0 {
		perWorker = d.opts.MemPerWorker
	}
	workers := PlanWorkers(d.opts.Threads, len(chroms), perWorker, available)
	log.Printf("Processing %d chromosomes with %d workers, stages %s to %s", len(chroms), workers, d.opts.From, d.opts.To)

	jobLogPath := filepath.Join(d.opts.OutDir, JobLogFile)
	jobLogOut := fileio.EasyCreate(jobLogPath)
	jl := NewJobLog(jobLogOut)
	summary.Chroms, err = d.runTasks(ctx, chroms, workers, jl)
	exception.PanicOnErr(jobLogOut.Close())
	if d.tables != nil {
		summary.Shared = d.tables.SharedStats()
	}
	if err != nil {
		return summary, err
	}
	if err = jl.Err(); err != nil {
		return summary, err
	}
	if err = CheckJobLogFile(jobLogPath); err != nil {
		return summary, err
	}

	outputs, err := d.merge(chroms)
	if err != nil {
		return summary, err
	}
	var digest report.Digest
	for _, path := range outputs {
		digest, err = report.FileDigest(path)
		if err != nil {
			return summary, err
		}
		summary.Digests = append(summary.Digests, digest)
	}

	out := fileio.EasyCreate(filepath.Join(d.opts.OutDir, SummaryFile))
	err = report.Write(out, summary)
	exception.PanicOnErr(out.Close())
	if err != nil {
		return summary, err
	}

	if d.opts.Plot {
		junctions := summary.Total().Access.Junctions
		if len(junctions) == 0 {
			log.Println("WARNING: no junction counts, skipping junction bias plot")
		} else if err = report.PlotJunctionBias(filepath.Join(d.opts.OutDir, PlotFile), junctions); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// runTasks runs the chromosome tasks on a pool of workers. Results are kept
// in chromosome order.
func (d *Driver) runTasks(ctx context.Context, chroms []string, workers int, jl *JobLog) ([]report.Chrom, error) {
	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]report.Chrom, len(chroms))
	tasks := make(chan int, len(chroms))
	for i := range chroms {
		tasks <- i
	}
	close(tasks)

	var firstErr error
	var once sync.Once
	var done int
	var mu sync.Mutex
	wg := new(sync.WaitGroup)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range tasks {
				if ctx.Err() != nil {
					return
				}
				start := time.Now()
				res, err := d.task(ctx, chroms[i])
				jl.Record("diphic task "+chroms[i], start, time.Since(start), err)
				if err != nil {
					once.Do(func() {
						firstErr = err
						cancel()
					})
					return
				}
				results[i] = res
				mu.Lock()
				done++
				if d.opts.Verbose {
					log.Printf("Finished %s (%d/%d)", chroms[i], done, len(chroms))
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	if err := parent.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// task classifies one chromosome, then builds its contacts and counts its
// insertion points concurrently. Partial outputs are spilled to the work
// directory.
func (d *Driver) task(ctx context.Context, chrom string) (report.Chrom, error) {
	var err error
	res := report.Chrom{Name: chrom}
	var table *classify.Table
	if d.tables != nil {
		table = d.tables.For(chrom)
		if d.tables.Owns(chrom) {
			res.Classify.Reference, res.Classify.Alternate = table.Counts()
			res.Classify.Conflicted = table.Conflicts()
		}
	} else {
		table, res.Classify, err = classify.Classify(ctx, d.src, d.idx, chrom)
		if err != nil {
			return res, &TaskError{Chrom: chrom, Stage: Hic, Err: err}
		}
		if err = d.spillTable(chrom, table); err != nil {
			return res, &TaskError{Chrom: chrom, Stage: Hic, Err: err}
		}
	}
	if table.Len() == 0 {
		if d.opts.Verbose {
			log.Printf("WARNING: no reads assigned on %s", chrom)
		}
		return res, nil
	}

	var hicErr, dhsErr error
	parallel.Do(
		func() {
			if d.opts.Runs(Hic) {
				res.Contacts, hicErr = d.contacts(ctx, chrom, table)
			}
		},
		func() {
			if d.opts.Runs(Dhs) {
				var events []access.Event
				events, res.Access, dhsErr = d.accessibility(ctx, chrom, table)
				res.AddEvents(events)
			}
		},
	)
	if hicErr != nil {
		return res, &TaskError{Chrom: chrom, Stage: Hic, Err: hicErr}
	}
	if dhsErr != nil {
		return res, &TaskError{Chrom: chrom, Stage: Dhs, Err: dhsErr}
	}
	return res, nil
}

func (d *Driver) spillTable(chrom string, table *classify.Table) error {
	if table.Len() == 0 {
		return nil
	}
	out, err := createSpill(d.spillPath(chrom, spillAssign))
	if err != nil {
		return err
	}
	if err = table.Write(out, chrom); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (d *Driver) contacts(ctx context.Context, chrom string, table *classify.Table) (contact.Stats, error) {
	records, stats, err := contact.Build(ctx, d.src, table, chrom, d.opts.Tags)
	if err != nil {
		return stats, err
	}
	for i := range records {
		records[i], err = records[i].Place(d.layout)
		if err != nil {
			return stats, err
		}
	}
	contact.Sort(records)
	out, err := createSpill(d.spillPath(chrom, spillContacts))
	if err != nil {
		return stats, err
	}
	for i := range records {
		if err = contact.Encode(out, records[i]); err != nil {
			out.Close()
			return stats, err
		}
	}
	return stats, out.Close()
}

// accessibility returns the tagged events of chrom and spills their placed
// form.
func (d *Driver) accessibility(ctx context.Context, chrom string, table *classify.Table) ([]access.Event, access.Stats, error) {
	events, stats, err := access.Aggregate(ctx, d.src, table, chrom, d.admitted, d.opts.Tags)
	if err != nil {
		return nil, stats, err
	}
	placed := make([]access.Event, len(events))
	for i := range events {
		placed[i], err = events[i].Place(d.layout)
		if err != nil {
			return nil, stats, err
		}
	}
	access.Sort(placed)
	out, err := createSpill(d.spillPath(chrom, spillAccess))
	if err != nil {
		return nil, stats, err
	}
	for i := range placed {
		if err = access.Encode(out, placed[i]); err != nil {
			out.Close()
			return nil, stats, err
		}
	}
	return events, stats, out.Close()
}

// readSpills reads the spills of one kind in chromosome order. Tasks that
// wrote nothing leave no file.
func (d *Driver) readSpills(chroms []string, kind string, fn func(line string) error) error {
	var err error
	var path string
	for _, chrom := range chroms {
		path = d.spillPath(chrom, kind)
		if _, err = os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err = readSpill(path, fn); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// merge concatenates and globally sorts the spills into the final outputs,
// returning the paths written.
func (d *Driver) merge(chroms []string) ([]string, error) {
	var err error
	var outputs []string
	dir := d.opts.OutDir

	if d.tables == nil {
		path := filepath.Join(dir, AssignmentsFile)
		out := fileio.EasyCreate(path)
		err = d.readSpills(chroms, spillAssign, func(line string) error {
			_, err := fmt.Fprintln(out, line)
			return err
		})
		exception.PanicOnErr(out.Close())
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, path)
	}

	if d.opts.Runs(Hic) {
		var records []contact.Record
		err = d.readSpills(chroms, spillContacts, func(line string) error {
			r, err := contact.Decode(line)
			records = append(records, r)
			return err
		})
		if err != nil {
			return nil, err
		}
		contact.ParallelSort(records)
		path := filepath.Join(dir, ContactsFile)
		out := fileio.EasyCreate(path)
		err = contact.Write(out, records)
		exception.PanicOnErr(out.Close())
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, path)
	}

	if d.opts.Runs(Dhs) {
		var events []access.Event
		err = d.readSpills(chroms, spillAccess, func(line string) error {
			e, err := access.Decode(line)
			events = append(events, e)
			return err
		})
		if err != nil {
			return nil, err
		}
		access.ParallelSort(events)
		for _, s := range []access.Signal{access.Raw, access.Corrected} {
			path := filepath.Join(dir, RawFile)
			if s == access.Corrected {
				path = filepath.Join(dir, CorrectedFile)
			}
			out := fileio.EasyCreate(path)
			access.WriteBedGraph(out, events, s)
			exception.PanicOnErr(out.Close())
			outputs = append(outputs, path)
		}
	}

	path := filepath.Join(dir, SizesFile)
	chromsizes.Write(path, d.sizes.Diploid(d.opts.MergeHomologs))
	outputs = append(outputs, path)
	return outputs, nil
}

package driver

import (
	"errors"
	"fmt"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ErrJobFailed is returned when a job log records a non-zero exit value.
var ErrJobFailed = errors.New("job log records failed tasks")

const jobLogHeader = "Seq\tHost\tStarttime\tJobRuntime\tSend\tReceive\tExitval\tSignal\tCommand"

// JobLog records one line per task in the layout of a parallel job log, the
// seventh field being the exit value. It is safe for concurrent use.
type JobLog struct {
	mu   sync.Mutex
	w    io.Writer
	host string
	seq  int
	err  error
}

// NewJobLog writes the header to w.
func NewJobLog(w io.Writer) *JobLog {
	host, err := os.Hostname()
	if err != nil {
		host = ":"
	}
	_, err = fmt.Fprintln(w, jobLogHeader)
	return &JobLog{w: w, host: host, err: err}
}

// Record appends the line of a finished task. The first write error is kept
// and returned by Err.
func (j *JobLog) Record(command string, start time.Time, runtime time.Duration, taskErr error) {
	var exit int
	if taskErr != nil {
		exit = 1
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.seq++
	if j.err != nil {
		return
	}
	_, j.err = fmt.Fprintf(j.w, "%d\t%s\t%.3f\t%.3f\t0\t0\t%d\t0\t%s\n",
		j.seq, j.host, float64(start.UnixNano())/1e9, runtime.Seconds(), exit, command)
}

// Err returns the first write error.
func (j *JobLog) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// CheckJobLog reads a job log and fails with ErrJobFailed naming every
// command whose exit value is not zero. Lines starting with "Seq" are
// headers.
func CheckJobLog(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	var failed []string
	var col []string
	for i, line := range strings.Split(string(data), "\n") {
		if line == "" || strings.HasPrefix(line, "Seq") {
			continue
		}
		col = strings.Split(line, "\t")
		if len(col) < 7 {
			return fmt.Errorf("malformed job log line %d: %q", i+1, line)
		}
		if strings.TrimSpace(col[6]) == "0" {
			continue
		}
		if len(col) > 8 {
			failed = append(failed, strings.Join(col[8:], "\t"))
		} else {
			failed = append(failed, "seq "+col[0])
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: %s", ErrJobFailed, strings.Join(failed, "; "))
	}
	return nil
}

// CheckJobLogFile runs CheckJobLog on a file.
func CheckJobLogFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return upstreamError("job log %s: %v", path, err)
	}
	file := fileio.EasyOpen(path)
	defer func() {
		exception.PanicOnErr(file.Close())
	}()
	return CheckJobLog(file)
}

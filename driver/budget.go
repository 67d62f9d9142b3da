package driver

import (
	"github.com/vertgenlab/gonomics/numbers"
	"log"
)

// memoryShare is the fraction of total memory given to one worker: half the
// machine split six ways.
const memoryShare = 2 * 6

// MemoryBudget returns the default per-worker budget and the memory currently
// available. Both are 0 when system memory cannot be read.
func MemoryBudget() (perWorker, available uint64) {
	total, free, err := systemMemory()
	if err != nil {
		log.Printf("WARNING: could not read system memory, worker count is not memory bound: %v", err)
		return 0, 0
	}
	return total / memoryShare, free
}

// PlanWorkers returns min(threads, chroms, available / perWorker), at least 1.
// A zero perWorker or available leaves memory out of the bound.
func PlanWorkers(threads, chroms int, perWorker, available uint64) int {
	n := numbers.Min(threads, chroms)
	if perWorker > 0 && available > 0 {
		n = numbers.Min(n, numbers.Max(1, int(available/perWorker)))
	}
	return numbers.Max(1, n)
}

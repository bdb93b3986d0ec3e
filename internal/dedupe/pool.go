package dedupe

import (
	"runtime"
	"sync"

	"fjacquet/txn-recon/internal/logging"
	"fjacquet/txn-recon/internal/models"
)

// bucketPool groups independent amount buckets on a fixed number of workers.
// Results are returned in bucket order so the output does not depend on
// scheduling.
type bucketPool struct {
	logger      logging.Logger
	workerCount int
}

func newBucketPool(logger logging.Logger) *bucketPool {
	return &bucketPool{
		logger:      logger,
		workerCount: runtime.NumCPU(),
	}
}

type bucketJob struct {
	index  int
	bucket []entry
}

type bucketResult struct {
	index  int
	groups []models.DuplicateGroup
}

func (p *bucketPool) run(buckets [][]entry, process func([]entry) []models.DuplicateGroup) [][]models.DuplicateGroup {
	workers := p.workerCount
	if workers > len(buckets) {
		workers = len(buckets)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan bucketJob, workers)
	results := make(chan bucketResult, len(buckets))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- bucketResult{index: job.index, groups: process(job.bucket)}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, b := range buckets {
			jobs <- bucketJob{index: i, bucket: b}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([][]models.DuplicateGroup, len(buckets))
	for r := range results {
		ordered[r.index] = r.groups
	}

	p.logger.Debug("Concurrent grouping completed",
		logging.F(logging.FieldBuckets, len(buckets)),
		logging.F(logging.FieldWorkers, workers))

	return ordered
}

package reconcile

import (
	"context"
	"fmt"
	"time"

	"fjacquet/txn-recon/internal/logging"
	"fjacquet/txn-recon/internal/models"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// JobStatus is the lifecycle state of a bulk reconciliation job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobError      JobStatus = "error"
)

// DefaultBulkWorkers bounds the number of jobs reconciled at once.
const DefaultBulkWorkers = 4

// JobRequest is one client's pair of ledgers.
type JobRequest struct {
	ClientID         string               `json:"client_id" yaml:"client_id"`
	ClientName       string               `json:"client_name" yaml:"client_name"`
	BankTransactions []models.Transaction `json:"bank_transactions" yaml:"bank_transactions"`
	BookTransactions []models.Transaction `json:"book_transactions" yaml:"book_transactions"`
}

// Job is the outcome of reconciling one JobRequest.
type Job struct {
	ID         string                       `json:"id" yaml:"id"`
	ClientID   string                       `json:"client_id" yaml:"client_id"`
	ClientName string                       `json:"client_name" yaml:"client_name"`
	Status     JobStatus                    `json:"status" yaml:"status"`
	Progress   int                          `json:"progress" yaml:"progress"`
	Result     *models.ReconciliationResult `json:"result,omitempty" yaml:"result,omitempty"`
	Summary    Summary                      `json:"summary" yaml:"summary"`
	Errors     []string                     `json:"errors,omitempty" yaml:"errors,omitempty"`
	StartTime  *time.Time                   `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	EndTime    *time.Time                   `json:"end_time,omitempty" yaml:"end_time,omitempty"`
}

// BulkResult aggregates a bulk run.
type BulkResult struct {
	TotalJobs      int           `json:"total_jobs" yaml:"total_jobs"`
	CompletedJobs  int           `json:"completed_jobs" yaml:"completed_jobs"`
	TotalMatches   int           `json:"total_matches" yaml:"total_matches"`
	TotalUnmatched int           `json:"total_unmatched" yaml:"total_unmatched"`
	ProcessingTime time.Duration `json:"processing_time" yaml:"processing_time"`
	Jobs           []*Job        `json:"jobs" yaml:"jobs"`
}

// BulkEngine reconciles many clients concurrently with a shared Matcher.
type BulkEngine struct {
	matcher *Matcher
	workers int
	logger  logging.Logger
	now     func() time.Time
}

// NewBulkEngine returns a BulkEngine running at most workers jobs at a time.
func NewBulkEngine(matcher *Matcher, workers int, logger logging.Logger) *BulkEngine {
	if workers < 1 {
		workers = DefaultBulkWorkers
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &BulkEngine{
		matcher: matcher,
		workers: workers,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Process reconciles every request. A job that fails is marked as such and
// does not stop the others. Jobs keep the order of requests. The returned
// error is non-nil only when ctx is cancelled; the partial result is still
// returned.
func (e *BulkEngine) Process(ctx context.Context, requests []JobRequest) (*BulkResult, error) {
	start := time.Now()

	jobs := make([]*Job, len(requests))
	for i, req := range requests {
		jobs[i] = &Job{
			ID:         "job-" + uuid.NewString(),
			ClientID:   req.ClientID,
			ClientName: req.ClientName,
			Status:     JobPending,
		}
	}

	e.logger.Info("Starting bulk reconciliation",
		logging.F(logging.FieldCount, len(jobs)),
		logging.F(logging.FieldWorkers, e.workers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range requests {
		req, job := requests[i], jobs[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				job.Status = JobError
				job.Errors = append(job.Errors, err.Error())
				return err
			}
			e.processJob(job, req)
			return nil
		})
	}
	waitErr := g.Wait()

	result := &BulkResult{
		TotalJobs:      len(jobs),
		ProcessingTime: time.Since(start),
		Jobs:           jobs,
	}
	for _, job := range jobs {
		if job.Status != JobCompleted {
			continue
		}
		result.CompletedJobs++
		result.TotalMatches += job.Summary.Exact + job.Summary.Fuzzy
		result.TotalUnmatched += job.Summary.UnmatchedBank + job.Summary.UnmatchedBook
	}

	e.logger.Info("Bulk reconciliation completed",
		logging.F("completed", result.CompletedJobs),
		logging.F(logging.FieldCount, result.TotalJobs),
		logging.F("matches", result.TotalMatches),
		logging.F(logging.FieldDuration, result.ProcessingTime.Milliseconds()))

	if waitErr != nil {
		return result, fmt.Errorf("bulk reconciliation interrupted: %w", waitErr)
	}
	return result, nil
}

func (e *BulkEngine) processJob(job *Job, req JobRequest) {
	log := e.logger.WithFields(
		logging.F(logging.FieldJobID, job.ID),
		logging.F(logging.FieldClient, job.ClientName))

	started := e.now()
	job.StartTime = &started
	job.Status = JobProcessing

	res, err := e.matcher.Reconcile(req.BankTransactions, req.BookTransactions)
	ended := e.now()
	job.EndTime = &ended
	if err != nil {
		job.Status = JobError
		job.Errors = append(job.Errors, err.Error())
		log.WithError(err).Warn("Reconciliation failed for client")
		return
	}

	job.Result = res
	job.Summary = Summarize(res)
	job.Status = JobCompleted
	job.Progress = 100
	log.Debug("Reconciled client",
		logging.F("bank", len(req.BankTransactions)),
		logging.F("book", len(req.BookTransactions)),
		logging.F("unmatched_bank", job.Summary.UnmatchedBank))
}

package workers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cinevault/cinevault/internal/database"
	"github.com/cinevault/cinevault/internal/queue"
	"go.uber.org/zap"
)

// SearchCountRecorder consumes search count jobs and folds them into the
// search_terms table.
type SearchCountRecorder struct {
	terms    database.SearchTermStore
	jobQueue queue.JobQueue // For re-enqueueing jobs with delays
	logger   *zap.Logger
}

// NewSearchCountRecorder creates a new search count recorder
func NewSearchCountRecorder(terms database.SearchTermStore, jobQueue queue.JobQueue, logger *zap.Logger) *SearchCountRecorder {
	return &SearchCountRecorder{
		terms:    terms,
		jobQueue: jobQueue,
		logger:   logger,
	}
}

// ProcessSearchCountJob records one search for the job's term
func (r *SearchCountRecorder) ProcessSearchCountJob(ctx context.Context, job *queue.Job) error {
	term := strings.TrimSpace(job.Term)
	if term == "" {
		return fmt.Errorf("term is required for search count job")
	}

	if err := r.terms.Record(ctx, term, job.MovieID, job.PosterURL); err != nil {
		return fmt.Errorf("failed to record search term: %w", err)
	}

	r.logger.Debug("search_count_recorded",
		zap.String("term", term),
		zap.Int64("movie_id", job.MovieID),
	)
	return nil
}

// ProcessJob processes a job based on its type
func (r *SearchCountRecorder) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	// Not due yet: ack and let the delayed re-enqueue below bring it back.
	if !job.ShouldProcess() {
		if job.IsExpired() {
			if ackErr := msg.Ack(); ackErr != nil {
				r.logger.Warn("failed_to_ack_expired_job", zap.Error(ackErr))
			}
			return nil
		}
		if nackErr := msg.Nack(true); nackErr != nil {
			r.logger.Warn("failed_to_requeue_early_job", zap.Error(nackErr))
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeSearchCount:
		if err := r.ProcessSearchCountJob(ctx, job); err != nil {
			return r.handleJobError(ctx, msg, job, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	default:
		// Unknown job type, send to DLQ
		if nackErr := msg.Nack(false); nackErr != nil {
			r.logger.Warn("failed_to_nack_unknown_job", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError retries failed jobs with a delay, sending them to the DLQ
// once retries are exhausted.
func (r *SearchCountRecorder) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	if job.CanRetry() && r.jobQueue != nil {
		retryDelay := retryBackoff(job.RetryCount)
		notBefore := time.Now().Add(retryDelay)

		delayedJob := &queue.Job{
			ID:         job.ID,
			Type:       job.Type,
			Term:       job.Term,
			MovieID:    job.MovieID,
			PosterURL:  job.PosterURL,
			NotBefore:  &notBefore,
			NotAfter:   job.NotAfter,
			Metadata:   job.Metadata,
			CreatedAt:  job.CreatedAt,
			RetryCount: job.RetryCount + 1,
			MaxRetries: job.MaxRetries,
		}

		if ackErr := msg.Ack(); ackErr != nil {
			r.logger.Warn("failed_to_ack_before_reenqueue", zap.Error(ackErr))
		}

		if enqueueErr := r.jobQueue.Enqueue(ctx, delayedJob); enqueueErr != nil {
			return fmt.Errorf("failed to re-enqueue job: %w", enqueueErr)
		}

		r.logger.Info("search_count_job_retry_scheduled",
			zap.String("job_id", job.ID.String()),
			zap.Int("attempt", delayedJob.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.Duration("delay", retryDelay),
			zap.Error(err),
		)
		return nil
	}

	if job.CanRetry() {
		// No queue handle for delayed retry, requeue immediately
		job.IncrementRetry()
		if nackErr := msg.Nack(true); nackErr != nil {
			r.logger.Warn("failed_to_nack_job", zap.Error(nackErr))
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	// Max retries exceeded, send to DLQ
	r.logger.Error("search_count_job_failed",
		zap.String("job_id", job.ID.String()),
		zap.Int("max_retries", job.MaxRetries),
		zap.Error(err),
	)
	if nackErr := msg.Nack(false); nackErr != nil {
		r.logger.Warn("failed_to_nack_job_to_dlq", zap.Error(nackErr))
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}

// retryBackoff returns the delay before the next attempt: 30s, 60s, 120s, ...
func retryBackoff(retryCount int) time.Duration {
	delay := 30 * time.Second
	for i := 0; i < retryCount; i++ {
		delay *= 2
	}
	if delay > 10*time.Minute {
		delay = 10 * time.Minute
	}
	return delay
}

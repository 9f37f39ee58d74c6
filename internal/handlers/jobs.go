package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/translation-sim/internal/jobs"
	"github.com/serroba/translation-sim/internal/middleware"
	"go.uber.org/zap"
)

// StatusReader evaluates the current status of a job.
type StatusReader interface {
	Status(ctx context.Context, jobID string) (jobs.Status, error)
}

// IDGenerator generates unique job identifiers.
type IDGenerator func() string

// JobHandler serves job status operations.
type JobHandler struct {
	tracker StatusReader
	newID   IDGenerator
	logger  *zap.Logger
}

// NewJobHandler creates a new job handler.
func NewJobHandler(tracker StatusReader, newID IDGenerator, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		tracker: tracker,
		newID:   newID,
		logger:  logger,
	}
}

// GetStatus returns the current status of the requested job.
func (h *JobHandler) GetStatus(ctx context.Context, req *StatusRequest) (*StatusResponse, error) {
	jobID := req.JobID
	if jobID == "" {
		jobID = DefaultJobID
	}

	status, err := h.status(ctx, jobID)
	if err != nil {
		return nil, err
	}

	resp := &StatusResponse{}
	resp.Body.Result = status

	return resp, nil
}

// SubmitJob creates a job with a fresh identifier and returns its first status.
func (h *JobHandler) SubmitJob(ctx context.Context, _ *struct{}) (*SubmitJobResponse, error) {
	jobID := h.newID()

	status, err := h.status(ctx, jobID)
	if err != nil {
		return nil, err
	}

	resp := &SubmitJobResponse{Status: http.StatusCreated}
	resp.Body.JobID = jobID
	resp.Body.Result = status

	return resp, nil
}

func (h *JobHandler) status(ctx context.Context, jobID string) (jobs.Status, error) {
	status, err := h.tracker.Status(ctx, jobID)
	if err != nil {
		h.logger.Error("failed to evaluate job status",
			zap.String("job_id", jobID),
			zap.String("request_id", middleware.RequestIDFromContext(ctx)),
			zap.Error(err),
		)

		return jobs.StatusUnknown, huma.Error500InternalServerError("failed to read job status")
	}

	return status, nil
}

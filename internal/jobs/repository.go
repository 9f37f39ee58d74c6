package jobs

import "context"

// Repository stores job records.
//
// Implementations never overwrite a terminal status: Transition returns the
// status actually stored after the call, which is the existing terminal
// status when one is present.
type Repository interface {
	// Status returns the stored status, or StatusUnknown when none exists.
	Status(ctx context.Context, jobID string) (Status, error)

	// Transition stores status unless the job is already terminal.
	Transition(ctx context.Context, jobID string, status Status) (Status, error)

	// Timeline returns the stored timeline. ok is false when either the
	// start time or the duration is missing.
	Timeline(ctx context.Context, jobID string) (timeline Timeline, ok bool, err error)

	// Initialize stores timeline and a pending status if the job has no
	// timeline yet. It returns the timeline that ends up stored and whether
	// this call created it.
	Initialize(ctx context.Context, jobID string, timeline Timeline) (stored Timeline, created bool, err error)
}

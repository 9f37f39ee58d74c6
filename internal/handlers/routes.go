package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the root and job routes.
func RegisterRoutes(api huma.API, jobHandler *JobHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-root",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "Greeting",
		Tags:        []string{"Service"},
	}, Root)

	// GET /status - Poll a simulated job
	huma.Register(api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/status",
		Summary:     "Get job status",
		Description: "Returns pending, completed or error. Unknown jobs are created on first poll.",
		Tags:        []string{"Jobs"},
	}, jobHandler.GetStatus)

	// POST /jobs - Start a job under a generated identifier
	huma.Register(api, huma.Operation{
		OperationID:   "submit-job",
		Method:        http.MethodPost,
		Path:          "/jobs",
		Summary:       "Submit job",
		Description:   "Generates a job identifier and performs the first status evaluation.",
		Tags:          []string{"Jobs"},
		DefaultStatus: http.StatusCreated,
	}, jobHandler.SubmitJob)
}

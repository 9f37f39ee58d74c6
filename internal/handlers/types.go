package handlers

import "github.com/serroba/translation-sim/internal/jobs"

// DefaultJobID is used when a status request omits job_id.
const DefaultJobID = "job123"

// Greeting is returned by the root endpoint.
const Greeting = "Hello from the Video Translation Simulator!"

// RootResponse is the response for the root endpoint.
type RootResponse struct {
	Body struct {
		Message string `doc:"Greeting" example:"Hello from the Video Translation Simulator!" json:"message"`
	}
}

// StatusRequest is the request for polling a job.
type StatusRequest struct {
	JobID string `default:"job123" doc:"The job identifier" example:"job123" query:"job_id"`
}

// StatusResponse is the response for polling a job.
type StatusResponse struct {
	Body struct {
		Result jobs.Status `doc:"Current job status" enum:"pending,completed,error" example:"pending" json:"result"`
	}
}

// SubmitJobResponse is the response for submitting a new job.
type SubmitJobResponse struct {
	Status int
	Body   struct {
		JobID  string      `doc:"The generated job identifier" example:"V1StGXR8_Z5jdHi6B-myT" json:"job_id"`
		Result jobs.Status `doc:"Status after the first poll"  enum:"pending,completed,error"  json:"result"`
	}
}

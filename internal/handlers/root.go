package handlers

import "context"

// Root returns the service greeting.
func Root(_ context.Context, _ *struct{}) (*RootResponse, error) {
	resp := &RootResponse{}
	resp.Body.Message = Greeting

	return resp, nil
}

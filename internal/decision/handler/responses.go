package handler

import "paycustom/internal/decision"

// RunResponse mirrors the host output contract.
type RunResponse struct {
	Operations []OperationResponse `json:"operations"`
}

// OperationResponse is a single checkout change.
type OperationResponse struct {
	Hide *HideResponse `json:"hide,omitempty"`
}

// HideResponse hides one payment method.
type HideResponse struct {
	PaymentMethodID string `json:"paymentMethodId"`
}

// FromResult converts a domain RunResult to the HTTP response.
func FromResult(result decision.RunResult) *RunResponse {
	resp := &RunResponse{Operations: make([]OperationResponse, 0, len(result.Operations))}
	for _, op := range result.Operations {
		if op.Hide == nil {
			continue
		}
		resp.Operations = append(resp.Operations, OperationResponse{
			Hide: &HideResponse{PaymentMethodID: op.Hide.PaymentMethodID},
		})
	}
	return resp
}

// Package transport defines request DTOs for the verification endpoints.
package transport

// StartVerificationRequest picks the delivery channel for the code.
type StartVerificationRequest struct {
	Channel string `json:"channel" validate:"required,oneof=email sms"`
}

// ConfirmVerificationRequest carries the submitted code.
type ConfirmVerificationRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

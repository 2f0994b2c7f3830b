package transport

import (
	"testing"

	"quotescan_backend/platform/validator"
)

func TestFunnelAnswerValidations(t *testing.T) {
	val := validator.New()
	if err := RegisterValidations(val); err != nil {
		t.Fatalf("register validations: %v", err)
	}

	tests := []struct {
		name    string
		req     CaptureLeadRequest
		wantErr bool
	}{
		{
			name: "valid answers",
			req:  CaptureLeadRequest{FirstName: "Ana", ProjectSize: "entire_home", Urgency: "asap"},
		},
		{
			name: "answers optional",
			req:  CaptureLeadRequest{FirstName: "Ana"},
		},
		{
			name:    "unknown project size",
			req:     CaptureLeadRequest{FirstName: "Ana", ProjectSize: "mansion"},
			wantErr: true,
		},
		{
			name:    "unknown urgency",
			req:     CaptureLeadRequest{FirstName: "Ana", Urgency: "yesterday"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := val.Struct(tt.req)
			if tt.wantErr && err == nil {
				t.Errorf("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected valid request, got %v", err)
			}
		})
	}
}

func TestFunnelAnswerValidationsOnQualification(t *testing.T) {
	val := validator.New()
	if err := RegisterValidations(val); err != nil {
		t.Fatalf("register validations: %v", err)
	}

	bad := "huge"
	if err := val.Struct(QualificationRequest{ProjectSize: &bad}); err == nil {
		t.Error("expected validation error for unknown pointer project size")
	}

	good := "small"
	soon := "soon"
	if err := val.Struct(QualificationRequest{ProjectSize: &good, Urgency: &soon}); err != nil {
		t.Errorf("expected valid qualification, got %v", err)
	}
}

package scans

import (
	"testing"

	"quotescan_backend/internal/events"
	"quotescan_backend/platform/logger"
	"quotescan_backend/platform/validator"
)

type moduleTestConfig struct {
	moonshotAPIKey string
}

func (c moduleTestConfig) GetMinIOEndpoint() string             { return "localhost:9000" }
func (c moduleTestConfig) GetMinIOAccessKey() string            { return "minioadmin" }
func (c moduleTestConfig) GetMinIOSecretKey() string            { return "minioadmin" }
func (c moduleTestConfig) GetMinIOUseSSL() bool                 { return false }
func (c moduleTestConfig) GetMinIOMaxFileSize() int64           { return 20 << 20 }
func (c moduleTestConfig) GetMinioBucketQuoteDocuments() string { return "quote-documents" }
func (c moduleTestConfig) IsMinIOEnabled() bool                 { return true }
func (c moduleTestConfig) GetMoonshotAPIKey() string            { return c.moonshotAPIKey }
func (c moduleTestConfig) IsAgentEnabled() bool                 { return c.moonshotAPIKey != "" }
func (c moduleTestConfig) GetAppBaseURL() string                { return "https://app.example.com" }

func TestNewModuleWithExtractionAgent(t *testing.T) {
	log := logger.New("development")
	m := NewModule(nil, nil, nil, nil, events.NewInMemoryBus(log), validator.New(), log, moduleTestConfig{moonshotAPIKey: "sk-test"})

	if m == nil {
		t.Fatal("expected module with agent configured")
	}
	if m.svc == nil {
		t.Fatal("expected service to be wired")
	}
	if m.Name() != "scans" {
		t.Errorf("expected module name scans, got %s", m.Name())
	}
}

func TestNewModuleWithoutExtractionAgent(t *testing.T) {
	log := logger.New("development")
	m := NewModule(nil, nil, nil, nil, events.NewInMemoryBus(log), validator.New(), log, moduleTestConfig{})

	if m == nil || m.svc == nil {
		t.Fatal("expected module to construct without an extraction provider")
	}
}

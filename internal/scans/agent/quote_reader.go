// Package agent reads uploaded quote documents with a multimodal LLM and
// extracts the grading signals the scoring engine consumes. The model never
// grades anything itself; it only reports what the document says.
package agent

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"quotescan_backend/internal/scans/scoring"
	"quotescan_backend/platform/ai/moonshot"
)

// QuoteReaderDeps holds the accumulator the SaveQuoteSignals tool writes
// into. The runner invokes tools from its own goroutines, so access is
// mutex-guarded.
type QuoteReaderDeps struct {
	mu     sync.RWMutex
	scanID *uuid.UUID
	// Result storage - set by the SaveQuoteSignals tool
	result *scoring.Signals
}

func (d *QuoteReaderDeps) SetScanID(id uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scanID = &id
}

func (d *QuoteReaderDeps) GetScanID() (uuid.UUID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.scanID == nil {
		return uuid.UUID{}, false
	}
	return *d.scanID, true
}

func (d *QuoteReaderDeps) SetResult(sig *scoring.Signals) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.result = sig
}

func (d *QuoteReaderDeps) GetResult() *scoring.Signals {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.result
}

func (d *QuoteReaderDeps) ResetAccumulators() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.result = nil
}

// QuoteReader wraps an ADK agent that reads quote documents page by page
// and reports extraction signals through a mandatory tool call.
type QuoteReader struct {
	agent          agent.Agent
	runner         *runner.Runner
	sessionService session.Service
	appName        string
	deps           *QuoteReaderDeps
	runMu          sync.Mutex
}

// NewQuoteReader creates the document reader agent.
func NewQuoteReader(apiKey string) (*QuoteReader, error) {
	// kimi-k2.5 with thinking disabled handles multimodal documents well
	kimi := moonshot.NewModel(moonshot.Config{
		APIKey:          apiKey,
		Model:           "kimi-k2.5",
		DisableThinking: true,
	})

	deps := &QuoteReaderDeps{}

	reader := &QuoteReader{
		appName: "quote_reader",
		deps:    deps,
	}

	tools, err := buildQuoteReaderTools(deps)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote reader tools: %w", err)
	}

	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        "QuoteReader",
		Model:       kimi,
		Description: "Expert document reader for window and door replacement quotes",
		Instruction: getQuoteReaderPrompt(),
		Tools:       tools,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create quote reader agent: %w", err)
	}

	sessionService := session.InMemoryService()

	r, err := runner.New(runner.Config{
		AppName:        reader.appName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create quote reader runner: %w", err)
	}

	reader.agent = adkAgent
	reader.runner = r
	reader.sessionService = sessionService

	return reader, nil
}

// QuoteReadRequest contains the document pages to read. Pages are raw
// image or PDF bytes with their MIME types.
type QuoteReadRequest struct {
	ScanID      uuid.UUID
	Documents   []DocumentData
	ContextNote string
}

// DocumentData is one uploaded page or file.
type DocumentData struct {
	MIMEType string // e.g. "image/jpeg", "application/pdf"
	Data     []byte
	Filename string
}

// ReadQuote runs the extraction for a single scan and returns the signals
// reported through the SaveQuoteSignals tool.
func (qr *QuoteReader) ReadQuote(ctx context.Context, req QuoteReadRequest) (*scoring.Signals, error) {
	qr.runMu.Lock()
	defer qr.runMu.Unlock()

	if len(req.Documents) == 0 {
		return nil, fmt.Errorf("no documents provided")
	}

	qr.deps.SetScanID(req.ScanID)
	qr.deps.ResetAccumulators()

	userContent := buildUserContent(req)
	userID, sessionID, err := qr.createSession(ctx, req.ScanID)
	if err != nil {
		return nil, err
	}
	defer qr.cleanupSession(ctx, userID, sessionID)

	output, err := qr.runExtraction(ctx, userID, sessionID, userContent)
	if err != nil {
		return nil, err
	}
	log.Printf("Quote extraction completed for scan %s. Output: %s", req.ScanID, output)

	return qr.getOrRetryResult(ctx, userID, sessionID, output)
}

func buildUserContent(req QuoteReadRequest) *genai.Content {
	parts := make([]*genai.Part, 0, len(req.Documents)+1)
	for _, doc := range req.Documents {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: doc.MIMEType,
				Data:     doc.Data,
			},
		})
	}

	prompt := buildQuoteReadPrompt(req.ScanID, len(req.Documents), req.ContextNote)
	parts = append(parts, genai.NewPartFromText(prompt))

	return &genai.Content{
		Role:  "user",
		Parts: parts,
	}
}

func (qr *QuoteReader) createSession(ctx context.Context, scanID uuid.UUID) (string, string, error) {
	userID := fmt.Sprintf("quote-reader-%s", scanID)
	sessionID := uuid.New().String()

	_, err := qr.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   qr.appName,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to create session: %w", err)
	}

	return userID, sessionID, nil
}

func (qr *QuoteReader) cleanupSession(ctx context.Context, userID, sessionID string) {
	if deleteErr := qr.sessionService.Delete(ctx, &session.DeleteRequest{
		AppName:   qr.appName,
		UserID:    userID,
		SessionID: sessionID,
	}); deleteErr != nil {
		log.Printf("warning: failed to delete session: %v", deleteErr)
	}
}

func (qr *QuoteReader) runExtraction(ctx context.Context, userID, sessionID string, userContent *genai.Content) (string, error) {
	var output string
	runConfig := agent.RunConfig{
		StreamingMode: agent.StreamingModeNone,
	}

	for event, err := range qr.runner.Run(ctx, userID, sessionID, userContent, runConfig) {
		if err != nil {
			return "", fmt.Errorf("quote extraction failed: %w", err)
		}
		output += collectContentText(event.Content)
	}

	return output, nil
}

func (qr *QuoteReader) getOrRetryResult(ctx context.Context, userID, sessionID string, output string) (*scoring.Signals, error) {
	result := qr.deps.GetResult()
	if result != nil {
		return result, nil
	}

	retryOutput, err := qr.retryForResult(ctx, userID, sessionID, output)
	if err != nil {
		return nil, err
	}
	_ = retryOutput

	result = qr.deps.GetResult()
	if result == nil {
		return nil, fmt.Errorf("AI did not save quote signals")
	}

	return result, nil
}

func (qr *QuoteReader) retryForResult(ctx context.Context, userID, sessionID string, output string) (string, error) {
	retryContent := &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			genai.NewPartFromText("请选择一个工具（tool）来处理当前的问题。You MUST call the SaveQuoteSignals tool now with everything you read from the document."),
		},
	}

	runConfig := agent.RunConfig{
		StreamingMode: agent.StreamingModeNone,
	}

	for event, err := range qr.runner.Run(ctx, userID, sessionID, retryContent, runConfig) {
		if err != nil {
			return output, fmt.Errorf("quote extraction retry failed: %w", err)
		}
		output += collectContentText(event.Content)
	}

	return output, nil
}

func collectContentText(content *genai.Content) string {
	if content == nil {
		return ""
	}

	var output string
	for _, part := range content.Parts {
		output += part.Text
	}

	return output
}

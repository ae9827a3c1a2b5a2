package integration

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-lexdesk-server/internal/app"
	"github.com/sha1n/mcp-lexdesk-server/internal/config"
	"github.com/sha1n/mcp-lexdesk-server/internal/library"
	"github.com/sha1n/mcp-lexdesk-server/internal/tour"
	"github.com/sha1n/mcp-lexdesk-server/tests/integration/testkit"
)

// ========================================
// Service Lifecycle Tests
// ========================================

func TestServiceLifecycle_ConcurrentInitializationSeedsOnce(t *testing.T) {
	settings := library.TestSettings(t)

	var wg sync.WaitGroup
	services := make([]*library.Service, 3)
	errs := make([]error, 3)

	for i := range services {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfg := *settings
			svc, err := library.NewService(&cfg)
			if err != nil {
				errs[idx] = err
				return
			}
			services[idx] = svc
			errs[idx] = svc.Initialize(context.Background())
		}(i)
	}
	wg.Wait()

	for i, svc := range services {
		if errs[i] != nil {
			t.Fatalf("Service %d failed: %v", i, errs[i])
		}
		defer closeService(t, svc)

		docs, err := svc.List(library.Filter{})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(docs) != 6 {
			t.Errorf("Service %d sees %d documents, want 6", i, len(docs))
		}
	}
}

func TestServiceLifecycle_WritesVisibleAfterRestart(t *testing.T) {
	settings := library.TestSettings(t)

	first := newService(t, settings)
	added, err := first.Add(context.Background(), library.NewDocument{
		Name:    "Board Resolution.txt",
		Type:    "Compliance",
		Content: "1. APPOINTMENT OF DIRECTORS\nThe board appoints ...",
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := first.Delete(context.Background(), "doc_6"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	closeService(t, first)

	second := newService(t, settings)
	defer closeService(t, second)

	if _, err := second.Get(added.ID); err != nil {
		t.Errorf("Expected the added document after restart: %v", err)
	}
	if _, err := second.Get("doc_6"); err == nil {
		t.Error("Expected the deleted document to stay deleted after restart")
	}

	matches, _, err := second.FullText("directors", "", 0)
	if err != nil {
		t.Fatalf("FullText failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Document.ID != added.ID {
		t.Errorf("Expected the rebuilt index to hold the added document, got %d matches", len(matches))
	}
}

func TestServiceLifecycle_SeedFileFromFlags(t *testing.T) {
	seedFile := filepath.Join(t.TempDir(), "seed.yaml")
	seed := `documents:
  - id: lease_1
    name: Warehouse Lease.pdf
    type: Contract
    summary: Five year warehouse lease with renewal option.
    tags: [lease, real-estate]
    uploaded_at: 2024-03-01
  - id: policy_1
    name: Data Retention Policy.docx
    type: Compliance
    status: Reviewed
    content: |
      Section 1. Scope
      This policy applies to all records.
      Section 2. Retention Periods
      Records are kept for seven years.
`
	if err := os.WriteFile(seedFile, []byte(seed), 0644); err != nil {
		t.Fatalf("Failed to write seed file: %v", err)
	}

	settings := loadSettings(t, &testkit.FlagOptions{Transport: "stdio", SeedFile: seedFile})
	server, cleanup := createServer(t, settings)
	defer cleanup()
	session := connect(t, server)

	text := callTool(t, session, library.ToolListDocuments, map[string]any{})
	if !strings.Contains(text, "2 documents:") || strings.Contains(text, "doc_1") {
		t.Errorf("Expected only the seeded documents:\n%s", text)
	}

	text = callTool(t, session, library.ToolGetDocument, map[string]any{"id": "policy_1"})
	for _, s := range []string{"**Status**: Reviewed", "- Scope", "- Retention Periods", "**Clauses**: 2"} {
		if !strings.Contains(text, s) {
			t.Errorf("Expected %q in:\n%s", s, text)
		}
	}
}

// ========================================
// MCP Tool Tests (in-memory transport)
// ========================================

func TestMCPServer_LibraryWorkflow(t *testing.T) {
	settings := loadSettings(t, &testkit.FlagOptions{Transport: "stdio"})
	server, cleanup := createServer(t, settings)
	defer cleanup()
	session := connect(t, server)

	text := callTool(t, session, library.ToolSearchDocuments, map[string]any{"query": "employment"})
	if !strings.Contains(text, "Found 3 documents") || !strings.Contains(text, "### 1. Employment Contract Template.pdf") {
		t.Errorf("Unexpected search output:\n%s", text)
	}

	text = callTool(t, session, library.ToolFindSources, map[string]any{"question": "liability"})
	if !strings.Contains(text, "id: doc_2") || !strings.Contains(text, "id: doc_6") {
		t.Errorf("Unexpected sources output:\n%s", text)
	}

	text = callTool(t, session, library.ToolAddDocument, map[string]any{
		"name":    "Arbitration Clause Library.txt",
		"type":    "Template",
		"content": "1. BINDING ARBITRATION\nDisputes are settled by arbitration.\n2. GOVERNING LAW\nDelaware.",
		"tags":    []string{"arbitration"},
	})
	if !strings.Contains(text, "**Clauses detected**: 2") {
		t.Errorf("Unexpected add output:\n%s", text)
	}

	text = callTool(t, session, library.ToolFullTextSearch, map[string]any{"query": "arbitration"})
	if !strings.Contains(text, "Arbitration Clause Library.txt") {
		t.Errorf("Expected the added document in full-text results:\n%s", text)
	}

	text = callTool(t, session, library.ToolLibraryAnalytics, map[string]any{})
	if !strings.Contains(text, "**Total documents**: 7") {
		t.Errorf("Unexpected analytics output:\n%s", text)
	}

	text = callTool(t, session, library.ToolDeleteDocument, map[string]any{"id": "doc_4"})
	if text != "Deleted document doc_4" {
		t.Errorf("Unexpected delete output: %s", text)
	}

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      library.ToolGetDocument,
		Arguments: map[string]any{"id": "doc_4"},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if !res.IsError || extractTextContent(res) != "Document not found: doc_4" {
		t.Errorf("Expected not found after delete, got %q", extractTextContent(res))
	}
}

func TestMCPServer_FoldersAndChatWorkflow(t *testing.T) {
	settings := loadSettings(t, &testkit.FlagOptions{Transport: "stdio"})
	server, cleanup := createServer(t, settings)
	defer cleanup()
	session := connect(t, server)

	text := callTool(t, session, library.ToolListFolders, map[string]any{})
	if !strings.Contains(text, "5 folders:") || !strings.Contains(text, "| folder_contracts | Contracts | - | 2 |") {
		t.Errorf("Unexpected folders output:\n%s", text)
	}

	text = callTool(t, session, library.ToolSaveFolder, map[string]any{"id": "folder_review", "name": "Under Review"})
	if !strings.Contains(text, "Created folder **Under Review**") {
		t.Errorf("Unexpected save folder output:\n%s", text)
	}

	text = callTool(t, session, library.ToolUpdateDocument, map[string]any{"id": "doc_1", "folder_id": "folder_review", "status": "reviewed"})
	if !strings.Contains(text, "**Folder**: folder_review") {
		t.Errorf("Unexpected update output:\n%s", text)
	}

	text = callTool(t, session, library.ToolListFolders, map[string]any{"folder_id": "folder_review"})
	if !strings.Contains(text, "1 documents:") || !strings.Contains(text, "doc_1") {
		t.Errorf("Unexpected folder contents:\n%s", text)
	}

	text = callTool(t, session, library.ToolDeleteFolder, map[string]any{"id": "folder_review"})
	if text != "Deleted folder folder_review; 1 documents moved to the library root" {
		t.Errorf("Unexpected delete folder output: %s", text)
	}

	callTool(t, session, library.ToolFindSources, map[string]any{"question": "liability", "record": true, "session_id": "s1"})
	text = callTool(t, session, library.ToolListChat, map[string]any{"session_id": "s1"})
	if !strings.Contains(text, "2 messages:") || !strings.Contains(text, "(doc_2)") {
		t.Errorf("Unexpected chat output:\n%s", text)
	}

	text = callTool(t, session, library.ToolClearChat, map[string]any{})
	if text != "Cleared chat history (3 messages removed)" {
		t.Errorf("Unexpected clear output: %s", text)
	}
}

func TestMCPServer_LibraryDisabled(t *testing.T) {
	flags := testkit.NewTestFlags(t, &testkit.FlagOptions{Transport: "stdio"})
	_ = flags.Set("library-enabled", "false")

	settings, err := config.LoadSettingsWithFlags(flags)
	if err != nil {
		t.Fatalf("LoadSettingsWithFlags failed: %v", err)
	}
	server, cleanup := createServer(t, settings)
	defer cleanup()
	session := connect(t, server)

	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}
	for _, tool := range res.Tools {
		if tool.Name != tour.ToolPlaceTooltip && tool.Name != tour.ToolListTourSteps {
			t.Errorf("Unexpected tool %s with the library disabled", tool.Name)
		}
	}
}

func TestMCPServer_TourPlacement(t *testing.T) {
	settings := loadSettings(t, &testkit.FlagOptions{Transport: "stdio"})
	server, cleanup := createServer(t, settings)
	defer cleanup()
	session := connect(t, server)

	text := callTool(t, session, tour.ToolPlaceTooltip, map[string]any{
		"step_id":  "chat",
		"target":   map[string]any{"left": 0, "top": 200, "width": 256, "height": 40},
		"viewport": map[string]any{"width": 1440, "height": 900},
	})

	var got tour.PlaceResult
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("Failed to decode placement %q: %v", text, err)
	}
	if got.X != 276 || got.Y != 20 || got.Side != "right" || got.StepID != "chat" {
		t.Errorf("Unexpected placement %+v", got)
	}

	text = callTool(t, session, tour.ToolListTourSteps, map[string]any{"step_id": "chat"})
	if !strings.Contains(text, "**Previous**: upload | **Next**: documents") {
		t.Errorf("Unexpected step output:\n%s", text)
	}
}

// ========================================
// SSE Transport Tests
// ========================================

// sseService serves the SSE HTTP handler on a local test server
type sseService struct {
	server *mcp.Server
	ts     *httptest.Server
}

func (s *sseService) Start() (map[string]any, error) {
	srv := app.NewSSEServer(s.server, &config.Settings{Host: "localhost", Port: 0})
	s.ts = httptest.NewServer(srv.Handler)
	return map[string]any{"url": s.ts.URL}, nil
}

func (s *sseService) Stop() error {
	if s.ts != nil {
		s.ts.Close()
	}
	return nil
}

func (s *sseService) GetName() string {
	return "sse"
}

func TestSSE_EndToEnd(t *testing.T) {
	settings := loadSettings(t, nil)
	server, cleanup := createServer(t, settings)
	defer cleanup()

	env := testkit.NewTestEnv(&sseService{server: server})
	if _, err := env.Start(); err != nil {
		t.Fatalf("Failed to start environment: %v", err)
	}
	defer func() { _ = env.Stop() }()

	baseURL, ok := env.GetContext().GetProperty("url")
	if !ok {
		t.Fatal("Expected the SSE server url")
	}

	ctx := context.Background()
	client := mcp.NewClient(&mcp.Implementation{Name: "integration", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &mcp.SSEClientTransport{Endpoint: baseURL.(string) + "/sse"}, nil)
	if err != nil {
		t.Fatalf("Failed to connect over SSE: %v", err)
	}
	defer func() { _ = session.Close() }()

	text := callTool(t, session, library.ToolSearchDocuments, map[string]any{"query": "nda"})
	if !strings.Contains(text, "doc_4") {
		t.Errorf("Expected doc_4 over SSE:\n%s", text)
	}
}

// ========================================
// Helper Functions
// ========================================

func loadSettings(t *testing.T, opts *testkit.FlagOptions) *config.Settings {
	t.Helper()
	settings, err := config.LoadSettingsWithFlags(testkit.NewTestFlags(t, opts))
	if err != nil {
		t.Fatalf("LoadSettingsWithFlags failed: %v", err)
	}
	if err := config.ValidateSettings(settings); err != nil {
		t.Fatalf("ValidateSettings failed: %v", err)
	}
	return settings
}

func createServer(t *testing.T, settings *config.Settings) (*mcp.Server, func()) {
	t.Helper()
	server, cleanup, err := app.CreateMCPServer(settings)
	if err != nil {
		t.Fatalf("CreateMCPServer failed: %v", err)
	}
	if cleanup == nil {
		cleanup = func() {}
	}
	return server, cleanup
}

func newService(t *testing.T, settings *config.LibrarySettings) *library.Service {
	t.Helper()
	svc, err := library.NewService(settings)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return svc
}

func connect(t *testing.T, server *mcp.Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("Server connect failed: %v", err)
	}
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "integration", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("Client connect failed: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) string {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool %s failed: %v", name, err)
	}
	text := extractTextContent(res)
	if res.IsError {
		t.Fatalf("Tool %s returned an error: %s", name, text)
	}
	return text
}

// closeService closes the service and reports any errors
func closeService(t *testing.T, svc *library.Service) {
	t.Helper()
	if err := svc.Close(); err != nil {
		t.Errorf("Failed to close service: %v", err)
	}
}

// extractTextContent extracts text from MCP result
func extractTextContent(result *mcp.CallToolResult) string {
	var sb strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

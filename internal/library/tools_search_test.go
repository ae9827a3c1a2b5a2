package library

import (
	"context"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("Expected non-nil result")
	}
	var sb strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

func notReadyService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(TestSettings(t))
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	t.Cleanup(func() {
		if err := svc.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return svc
}

func TestSearchHandler_NotReady(t *testing.T) {
	handler := NewSearchHandler(notReadyService(t))

	result, _, err := handler.Handle(context.Background(), &mcp.CallToolRequest{}, SearchArgument{Query: "nda"})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if !result.IsError {
		t.Error("Expected error result when service not ready")
	}
	if text := resultText(t, result); text != notReadyMessage {
		t.Errorf("Unexpected message %q", text)
	}
}

func TestSearchHandler(t *testing.T) {
	svc := NewTestService(t, SampleDocuments(), testNow)
	handler := NewSearchHandler(svc)

	tests := []struct {
		name      string
		args      SearchArgument
		wantError bool
		contains  []string
		excludes  []string
	}{
		{
			name:     "ranked results",
			args:     SearchArgument{Query: "employment"},
			contains: []string{"Found 3 documents for 'employment':", "### 1. Employment Contract Template.pdf", "**Relevance**: 80", "**Relevance**: 70", "**Relevance**: 65"},
		},
		{
			name:     "limit",
			args:     SearchArgument{Query: "employment", Limit: 1},
			contains: []string{"Found 1 documents"},
			excludes: []string{"doc_5"},
		},
		{
			name:     "type filter",
			args:     SearchArgument{Query: "employment", Type: "employment"},
			contains: []string{"Found 1 documents", "doc_5"},
		},
		{
			name:     "date filter includes the whole end day",
			args:     SearchArgument{Query: "employment", UploadedAfter: "2024-01-12", UploadedBefore: "2024-01-13"},
			contains: []string{"Found 1 documents", "doc_3"},
		},
		{
			name:     "no match",
			args:     SearchArgument{Query: "arbitration"},
			contains: []string{"No documents found for query: arbitration"},
		},
		{
			name:      "empty query",
			args:      SearchArgument{Query: "   "},
			wantError: true,
			contains:  []string{"Query cannot be empty"},
		},
		{
			name:      "invalid filter",
			args:      SearchArgument{Query: "nda", Status: "Lost"},
			wantError: true,
			contains:  []string{"Invalid filter"},
		},
		{
			name:      "invalid date",
			args:      SearchArgument{Query: "nda", UploadedAfter: "last week"},
			wantError: true,
			contains:  []string{"Invalid filter"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, _, err := handler.Handle(context.Background(), &mcp.CallToolRequest{}, tt.args)
			if err != nil {
				t.Fatalf("Handle returned error: %v", err)
			}
			if result.IsError != tt.wantError {
				t.Fatalf("IsError = %v, want %v: %s", result.IsError, tt.wantError, resultText(t, result))
			}
			text := resultText(t, result)
			for _, s := range tt.contains {
				if !strings.Contains(text, s) {
					t.Errorf("Expected %q in output:\n%s", s, text)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(text, s) {
					t.Errorf("Did not expect %q in output:\n%s", s, text)
				}
			}
		})
	}
}

func TestSourcesHandler(t *testing.T) {
	svc := NewTestService(t, SampleDocuments(), testNow)
	handler := NewSourcesHandler(svc)

	result, _, err := handler.Handle(context.Background(), &mcp.CallToolRequest{}, SourcesArgument{Question: "liability"})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("Unexpected error result: %s", resultText(t, result))
	}

	text := resultText(t, result)
	for _, s := range []string{
		"Sources for 'liability':",
		"1. **Corporate Merger Agreement.docx** (M&A, id: doc_2) relevance 50%",
		"2. **Software License Agreement.pdf** (Contract, id: doc_6) relevance 50%",
		"> ",
	} {
		if !strings.Contains(text, s) {
			t.Errorf("Expected %q in output:\n%s", s, text)
		}
	}
}

func TestSourcesHandler_Errors(t *testing.T) {
	svc := NewTestService(t, SampleDocuments(), testNow)
	handler := NewSourcesHandler(svc)

	result, _, err := handler.Handle(context.Background(), &mcp.CallToolRequest{}, SourcesArgument{Question: ""})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if !result.IsError || resultText(t, result) != "Question cannot be empty" {
		t.Errorf("Expected empty question error, got %q", resultText(t, result))
	}

	result, _, err = handler.Handle(context.Background(), &mcp.CallToolRequest{}, SourcesArgument{Question: "patent"})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if result.IsError || !strings.Contains(resultText(t, result), "No supporting documents found for: patent") {
		t.Errorf("Expected no sources message, got %q", resultText(t, result))
	}
}

func TestFullTextHandler(t *testing.T) {
	svc := NewTestService(t, SampleDocuments(), testNow)
	handler := NewFullTextHandler(svc)

	tests := []struct {
		name      string
		args      FullTextArgument
		wantError bool
		contains  []string
	}{
		{
			name:     "single hit",
			args:     FullTextArgument{Query: "indemnification"},
			contains: []string{"Found 1 results for 'indemnification':", "**ID**: doc_2"},
		},
		{
			name:     "content fragments",
			args:     FullTextArgument{Query: "salary"},
			contains: []string{"doc_1", "```"},
		},
		{
			name:     "more results than limit",
			args:     FullTextArgument{Query: "compensation", Limit: 1},
			contains: []string{"Found 2 results", "... and 1 more results"},
		},
		{
			name:     "no results",
			args:     FullTextArgument{Query: "arbitration"},
			contains: []string{"No results found for query: arbitration"},
		},
		{
			name:      "empty query",
			args:      FullTextArgument{Query: ""},
			wantError: true,
			contains:  []string{"Query cannot be empty"},
		},
		{
			name:      "unknown type",
			args:      FullTextArgument{Query: "agreement", Type: "Poem"},
			wantError: true,
			contains:  []string{"Search failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, _, err := handler.Handle(context.Background(), &mcp.CallToolRequest{}, tt.args)
			if err != nil {
				t.Fatalf("Handle returned error: %v", err)
			}
			if result.IsError != tt.wantError {
				t.Fatalf("IsError = %v, want %v: %s", result.IsError, tt.wantError, resultText(t, result))
			}
			text := resultText(t, result)
			for _, s := range tt.contains {
				if !strings.Contains(text, s) {
					t.Errorf("Expected %q in output:\n%s", s, text)
				}
			}
		})
	}
}

func TestToolDefinitions(t *testing.T) {
	svc := notReadyService(t)

	tools := map[string]*mcp.Tool{
		ToolSearchDocuments:  NewSearchHandler(svc).GetToolDefinition(),
		ToolFindSources:      NewSourcesHandler(svc).GetToolDefinition(),
		ToolFullTextSearch:   NewFullTextHandler(svc).GetToolDefinition(),
		ToolGetDocument:      NewGetHandler(svc).GetToolDefinition(),
		ToolListDocuments:    NewListHandler(svc).GetToolDefinition(),
		ToolAddDocument:      NewAddHandler(svc).GetToolDefinition(),
		ToolDeleteDocument:   NewDeleteHandler(svc).GetToolDefinition(),
		ToolLibraryAnalytics: NewAnalyticsHandler(svc).GetToolDefinition(),
		ToolUpdateDocument:   NewUpdateHandler(svc).GetToolDefinition(),
		ToolListFolders:      NewFoldersHandler(svc).GetToolDefinition(),
		ToolSaveFolder:       NewSaveFolderHandler(svc).GetToolDefinition(),
		ToolDeleteFolder:     NewDeleteFolderHandler(svc).GetToolDefinition(),
		ToolListChat:         NewChatHandler(svc).GetToolDefinition(),
		ToolSaveChat:         NewSaveChatHandler(svc).GetToolDefinition(),
		ToolClearChat:        NewClearChatHandler(svc).GetToolDefinition(),
	}

	for name, tool := range tools {
		if tool.Name != name {
			t.Errorf("Expected tool name %s, got %s", name, tool.Name)
		}
		if tool.Description == "" {
			t.Errorf("Tool %s has no description", name)
		}
	}
}

func TestSourcesHandler_RecordsExchange(t *testing.T) {
	svc := NewTestService(t, SampleDocuments(), testNow)
	handler := NewSourcesHandler(svc)

	result, _, err := handler.Handle(context.Background(), &mcp.CallToolRequest{}, SourcesArgument{
		Question:  "liability",
		Record:    true,
		SessionID: "review",
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("Unexpected error result: %s", resultText(t, result))
	}

	msgs, err := svc.Messages("review", 0)
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("Expected question and answer recorded, got %d messages", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[0].Content != "liability" {
		t.Errorf("Unexpected question message %+v", msgs[0])
	}
	answer := msgs[1]
	if answer.Role != "assistant" || len(answer.Sources) != 2 {
		t.Fatalf("Expected an answer citing 2 sources, got %+v", answer)
	}
	if answer.Sources[0].DocumentID != "doc_2" || answer.Sources[0].Relevance != 50 {
		t.Errorf("Unexpected first source %+v", answer.Sources[0])
	}
	if !strings.Contains(answer.Content, "Found 2 supporting documents") {
		t.Errorf("Unexpected answer %q", answer.Content)
	}
}

func TestSourcesHandler_DoesNotRecordByDefault(t *testing.T) {
	svc := NewTestService(t, SampleDocuments(), testNow)
	if _, _, err := NewSourcesHandler(svc).Handle(context.Background(), &mcp.CallToolRequest{}, SourcesArgument{Question: "liability"}); err != nil {
		t.Fatal(err)
	}
	if msgs, _ := svc.Messages("", 0); len(msgs) != 0 {
		t.Errorf("Expected no recorded messages, got %d", len(msgs))
	}
}

package library

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sha1n/mcp-lexdesk-server/internal/domain"
	"gopkg.in/yaml.v3"
)

const sampleEmploymentAgreement = `EMPLOYMENT AGREEMENT

This Employment Agreement ("Agreement") is entered into on January 1, 2024, between Smith Corporation, a Delaware corporation ("Company"), and John Johnson ("Employee").

1. EMPLOYMENT TERMS
Company hereby employs Employee, and Employee accepts employment with Company, subject to the terms and conditions set forth in this Agreement.

2. DUTIES AND RESPONSIBILITIES
Employee shall serve as Senior Software Engineer and shall perform such duties as may be assigned by the Company's management.

3. COMPENSATION
Employee shall receive a base salary of $120,000 per year, payable in accordance with Company's standard payroll practices.

4. CONFIDENTIALITY
Employee acknowledges that during employment, Employee may have access to confidential information and trade secrets of the Company.

5. NON-COMPETE
Employee agrees not to engage in any competing business for a period of two (2) years following termination of employment.

6. TERMINATION
Either party may terminate this agreement with thirty (30) days written notice to the other party.`

// SampleDocuments returns the built-in demo library.
func SampleDocuments() []domain.Document {
	return []domain.Document{
		{
			ID:         "doc_1",
			Name:       "Smith vs. Johnson Contract.pdf",
			Type:       domain.TypeContract,
			Status:     domain.StatusAnalyzed,
			UploadedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
			Size:       "2.4 MB",
			Clauses:    12,
			Risks:      2,
			Summary:    "Employment contract with standard terms and conditions. Contains non-compete and confidentiality clauses.",
			Content:    sampleEmploymentAgreement,
			FolderID:   "folder_contracts",
			Tags:       []string{"employment", "non-compete", "confidentiality"},
		},
		{
			ID:         "doc_2",
			Name:       "Corporate Merger Agreement.docx",
			Type:       domain.TypeMA,
			Status:     domain.StatusProcessing,
			UploadedAt: time.Date(2024, 1, 14, 14, 20, 0, 0, time.UTC),
			Size:       "5.8 MB",
			Clauses:    28,
			Risks:      5,
			Summary:    "Complex merger agreement requiring detailed review of liability and indemnification terms.",
			FolderID:   "folder_ma",
			Tags:       []string{"merger", "liability", "indemnification"},
		},
		{
			ID:         "doc_3",
			Name:       "Employment Contract Template.pdf",
			Type:       domain.TypeTemplate,
			Status:     domain.StatusReviewed,
			UploadedAt: time.Date(2024, 1, 13, 9, 15, 0, 0, time.UTC),
			Size:       "1.2 MB",
			Clauses:    8,
			Risks:      0,
			Summary:    "Standard employment contract template with all necessary legal provisions.",
			FolderID:   "folder_templates",
			Tags:       []string{"template", "employment", "standard"},
		},
		{
			ID:         "doc_4",
			Name:       "NDA - Tech Partnership.pdf",
			Type:       domain.TypeNDA,
			Status:     domain.StatusAnalyzed,
			UploadedAt: time.Date(2024, 1, 12, 16, 45, 0, 0, time.UTC),
			Size:       "890 KB",
			Clauses:    6,
			Risks:      1,
			Summary:    "Non-disclosure agreement for technology partnership with mutual confidentiality terms.",
			FolderID:   "folder_ndas",
			Tags:       []string{"nda", "technology", "partnership"},
		},
		{
			ID:         "doc_5",
			Name:       "Executive Employment Agreement.pdf",
			Type:       domain.TypeEmployment,
			Status:     domain.StatusAnalyzed,
			UploadedAt: time.Date(2024, 1, 11, 11, 30, 0, 0, time.UTC),
			Size:       "3.2 MB",
			Clauses:    15,
			Risks:      3,
			Summary:    "Executive-level employment agreement with equity compensation and severance terms.",
			FolderID:   "folder_employment",
			Tags:       []string{"executive", "equity", "severance"},
		},
		{
			ID:         "doc_6",
			Name:       "Software License Agreement.pdf",
			Type:       domain.TypeContract,
			Status:     domain.StatusReviewed,
			UploadedAt: time.Date(2024, 1, 10, 13, 20, 0, 0, time.UTC),
			Size:       "1.8 MB",
			Clauses:    10,
			Risks:      1,
			Summary:    "Software licensing agreement with usage restrictions and liability limitations.",
			FolderID:   "folder_contracts",
			Tags:       []string{"software", "license", "liability"},
		},
	}
}

// WelcomeMessage is the assistant greeting that opens every chat history.
const WelcomeMessage = "Hello! I'm your legal assistant. I can help you find documents, cite sources and track the contracts in your library. What would you like to know?"

// SampleFolders returns the folders of the built-in demo library.
func SampleFolders() []domain.Folder {
	created := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	return []domain.Folder{
		{ID: "folder_contracts", Name: "Contracts", CreatedAt: created},
		{ID: "folder_templates", Name: "Templates", CreatedAt: created},
		{ID: "folder_ma", Name: "M&A Documents", CreatedAt: created},
		{ID: "folder_employment", Name: "Employment", CreatedAt: created},
		{ID: "folder_ndas", Name: "NDAs", CreatedAt: created},
	}
}

// InitialMessages returns the chat history of a freshly seeded or cleared library.
func InitialMessages(at time.Time) []domain.ChatMessage {
	return []domain.ChatMessage{
		{ID: "msg_1", Role: domain.RoleAssistant, Content: WelcomeMessage, Timestamp: at},
	}
}

// Seed is the content loaded from a seed file.
type Seed struct {
	Documents []domain.Document
	Folders   []domain.Folder
}

// seedFile is the YAML layout of library.seed_file.
//
//	folders:
//	  - id: folder_leases
//	    name: Leases
//	documents:
//	  - name: Lease.pdf
//	    type: Contract
//	    uploaded_at: 2024-03-01
//	    summary: Office lease
//	    folder_id: folder_leases
type seedFile struct {
	Folders   []seedFolder   `yaml:"folders"`
	Documents []seedDocument `yaml:"documents"`
}

type seedFolder struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	ParentID    string `yaml:"parent_id"`
	Color       string `yaml:"color"`
	Description string `yaml:"description"`
}

type seedDocument struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	Status     string   `yaml:"status"`
	UploadedAt string   `yaml:"uploaded_at"`
	Size       string   `yaml:"size"`
	Clauses    int      `yaml:"clauses"`
	Risks      int      `yaml:"risks"`
	Summary    string   `yaml:"summary"`
	Content    string   `yaml:"content"`
	FolderID   string   `yaml:"folder_id"`
	Tags       []string `yaml:"tags"`
	Confidence float64  `yaml:"confidence"`
	Priority   string   `yaml:"priority"`
}

// LoadSeedFile reads seed folders and documents from a YAML file.
// Missing IDs are generated, missing clause counts are derived from the content
// and a missing upload time defaults to now. Folder references must resolve
// to folders declared in the same file.
func LoadSeedFile(path string, now time.Time) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("failed to read seed file: %w", err)
	}

	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return Seed{}, fmt.Errorf("failed to parse seed file: %w", err)
	}

	folders := make([]domain.Folder, 0, len(sf.Folders))
	folderIDs := make(map[string]bool, len(sf.Folders))
	for i, fd := range sf.Folders {
		f, err := fd.toFolder(now)
		if err != nil {
			return Seed{}, fmt.Errorf("seed folder %d: %w", i+1, err)
		}
		if folderIDs[f.ID] {
			return Seed{}, fmt.Errorf("seed folder %d: duplicate id %q", i+1, f.ID)
		}
		folderIDs[f.ID] = true
		folders = append(folders, f)
	}
	for i, f := range folders {
		if f.ParentID != "" && !folderIDs[f.ParentID] {
			return Seed{}, fmt.Errorf("seed folder %d: %w: unknown parent %q", i+1, ErrInvalidFolder, f.ParentID)
		}
	}

	docs := make([]domain.Document, 0, len(sf.Documents))
	seen := make(map[string]bool, len(sf.Documents))
	for i, sd := range sf.Documents {
		doc, err := sd.toDocument(now)
		if err != nil {
			return Seed{}, fmt.Errorf("seed document %d: %w", i+1, err)
		}
		if seen[doc.ID] {
			return Seed{}, fmt.Errorf("seed document %d: duplicate id %q", i+1, doc.ID)
		}
		if doc.FolderID != "" && !folderIDs[doc.FolderID] {
			return Seed{}, fmt.Errorf("seed document %d: %w: unknown folder %q", i+1, ErrInvalidDocument, doc.FolderID)
		}
		seen[doc.ID] = true
		docs = append(docs, doc)
	}
	return Seed{Documents: docs, Folders: folders}, nil
}

func (sf seedFolder) toFolder(now time.Time) (domain.Folder, error) {
	name := strings.TrimSpace(sf.Name)
	if name == "" {
		return domain.Folder{}, fmt.Errorf("%w: name is required", ErrInvalidFolder)
	}
	id := strings.TrimSpace(sf.ID)
	if id == "" {
		id = NewFolderID()
	}
	if id == RootFolderID {
		return domain.Folder{}, fmt.Errorf("%w: %q is reserved", ErrInvalidFolder, RootFolderID)
	}
	return domain.Folder{
		ID:          id,
		Name:        name,
		ParentID:    strings.TrimSpace(sf.ParentID),
		CreatedAt:   now,
		Color:       sf.Color,
		Description: sf.Description,
	}, nil
}

func (sd seedDocument) toDocument(now time.Time) (domain.Document, error) {
	if strings.TrimSpace(sd.Name) == "" {
		return domain.Document{}, fmt.Errorf("%w: name is required", ErrInvalidDocument)
	}

	docType := domain.TypeOther
	if sd.Type != "" {
		if docType = domain.NormalizeType(sd.Type); docType == "" {
			return domain.Document{}, fmt.Errorf("%w: unknown type %q", ErrInvalidDocument, sd.Type)
		}
	}

	status := domain.StatusAnalyzed
	if sd.Status != "" {
		if status = domain.NormalizeStatus(sd.Status); status == "" {
			return domain.Document{}, fmt.Errorf("%w: unknown status %q", ErrInvalidDocument, sd.Status)
		}
	}

	priority := ""
	if sd.Priority != "" {
		if priority = domain.NormalizePriority(sd.Priority); priority == "" {
			return domain.Document{}, fmt.Errorf("%w: unknown priority %q", ErrInvalidDocument, sd.Priority)
		}
	}

	uploadedAt := now
	if sd.UploadedAt != "" {
		t, err := ParseDate(sd.UploadedAt)
		if err != nil {
			return domain.Document{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		uploadedAt = t
	}

	id := strings.TrimSpace(sd.ID)
	if id == "" {
		id = NewDocumentID()
	}

	clauses := sd.Clauses
	if clauses == 0 && sd.Content != "" {
		clauses = len(ExtractClauses(sd.Content))
	}

	size := sd.Size
	if size == "" && sd.Content != "" {
		size = FormatSize(len(sd.Content))
	}

	return domain.Document{
		ID:         id,
		Name:       strings.TrimSpace(sd.Name),
		Type:       docType,
		Status:     status,
		UploadedAt: uploadedAt,
		Size:       size,
		Clauses:    clauses,
		Risks:      sd.Risks,
		Summary:    sd.Summary,
		Content:    sd.Content,
		FolderID:   sd.FolderID,
		Tags:       sd.Tags,
		Confidence: sd.Confidence,
		Priority:   priority,
	}, nil
}

// NewDocumentID returns a fresh document identifier.
func NewDocumentID() string {
	return "doc_" + uuid.NewString()
}

// NewFolderID returns a fresh folder identifier.
func NewFolderID() string {
	return "folder_" + uuid.NewString()
}

// NewMessageID returns a fresh chat message identifier.
func NewMessageID() string {
	return "msg_" + uuid.NewString()
}

// FormatSize renders a byte count the way the library labels document sizes.
func FormatSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%d KB", n/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// Package chunk defines the immutable data model shared by every stage of
// the indexing pipeline: Chunk, File, EmbedChunk, and EmbeddingData.
package chunk

import (
	"strings"
	"time"
	"unicode"

	"github.com/castindex/indexer/internal/errs"
)

// Type enumerates the kind of content a chunk carries.
type Type string

const (
	TypeFunction      Type = "function"
	TypeClass         Type = "class"
	TypeInterface     Type = "interface"
	TypeStruct        Type = "struct"
	TypeEnum          Type = "enum"
	TypeModule        Type = "module"
	TypeImport        Type = "import"
	TypeDocumentation Type = "documentation"
	TypeParagraph     Type = "paragraph"
	TypeUnknown       Type = "unknown"
)

// ParseType maps a serialized string (including legacy aliases) to a Type,
// defaulting to TypeUnknown for anything unrecognized.
func ParseType(s string) Type {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "function", "func":
		return TypeFunction
	case "class":
		return TypeClass
	case "interface":
		return TypeInterface
	case "struct":
		return TypeStruct
	case "enum":
		return TypeEnum
	case "module":
		return TypeModule
	case "import":
		return TypeImport
	case "documentation", "doc", "comment":
		return TypeDocumentation
	case "paragraph":
		return TypeParagraph
	default:
		return TypeUnknown
	}
}

// Chunk is an immutable semantic unit of code or documentation. Construct
// one with New, which enforces the invariants in spec §3.
type Chunk struct {
	Symbol       string
	StartLine    int
	EndLine      int
	Code         string
	ChunkType    Type
	FileID       string
	Language     string
	ID           string
	FilePath     string
	ParentHeader string
	StartByte    *int
	EndByte      *int
	CreatedAt    *time.Time
	UpdatedAt    *time.Time
	Metadata     map[string]any
}

// New validates and constructs a Chunk, returning a Validation error on any
// invariant violation.
func New(c Chunk) (Chunk, error) {
	if c.Symbol != "" && strings.TrimSpace(c.Symbol) == "" {
		return Chunk{}, errs.Newf(errs.Validation, "chunk.New", "symbol is whitespace-only")
	}
	if c.StartLine < 1 {
		return Chunk{}, errs.Newf(errs.Validation, "chunk.New", "startLine must be >= 1, got %d", c.StartLine)
	}
	if c.EndLine < c.StartLine {
		return Chunk{}, errs.Newf(errs.Validation, "chunk.New", "endLine %d < startLine %d", c.EndLine, c.StartLine)
	}
	if c.Code == "" {
		return Chunk{}, errs.Newf(errs.Validation, "chunk.New", "code must be non-empty")
	}
	if c.StartByte != nil || c.EndByte != nil {
		if c.StartByte == nil || c.EndByte == nil {
			return Chunk{}, errs.Newf(errs.Validation, "chunk.New", "startByte and endByte must both be set or both unset")
		}
		if *c.StartByte < 0 || *c.EndByte < 0 {
			return Chunk{}, errs.Newf(errs.Validation, "chunk.New", "byte offsets must be non-negative")
		}
		if *c.StartByte > *c.EndByte {
			return Chunk{}, errs.Newf(errs.Validation, "chunk.New", "startByte %d > endByte %d", *c.StartByte, *c.EndByte)
		}
	}
	if c.ChunkType == "" {
		c.ChunkType = TypeUnknown
	}
	return c, nil
}

// LineCount returns endLine - startLine + 1, always positive for a valid chunk.
func (c Chunk) LineCount() int { return c.EndLine - c.StartLine + 1 }

// CharCount returns the number of runes in Code.
func (c Chunk) CharCount() int { return len([]rune(c.Code)) }

// ByteCount returns the byte span width, or nil if no byte range is set.
func (c Chunk) ByteCount() *int {
	if c.StartByte == nil || c.EndByte == nil {
		return nil
	}
	n := *c.EndByte - *c.StartByte
	return &n
}

// DisplayName returns the symbol if it looks like an identifier, else a
// collapsed 50-character preview of the code.
func (c Chunk) DisplayName() string {
	if c.Symbol != "" && looksLikeIdentifier(c.Symbol) {
		return c.Symbol
	}
	collapsed := strings.Join(strings.Fields(c.Code), " ")
	if len([]rune(collapsed)) <= 50 {
		return collapsed
	}
	r := []rune(collapsed)
	return string(r[:50])
}

func looksLikeIdentifier(s string) bool {
	for _, r := range s {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.' || r == ':' || r == '-') {
			return false
		}
	}
	return true
}

// File is an immutable descriptor of an indexed source file.
type File struct {
	ID          string
	Path        string // relative, forward-slash separated
	ModTime     int64  // unix seconds
	Language    string
	SizeBytes   int64
	ContentHash string
	CreatedAt   *time.Time
	UpdatedAt   *time.Time
}

// NewFile validates and constructs a File.
func NewFile(f File) (File, error) {
	if strings.TrimSpace(f.Path) == "" {
		return File{}, errs.Newf(errs.Validation, "chunk.NewFile", "path must be non-empty")
	}
	if strings.Contains(f.Path, "\\") {
		f.Path = strings.ReplaceAll(f.Path, "\\", "/")
	}
	if f.ModTime < 0 {
		return File{}, errs.Newf(errs.Validation, "chunk.NewFile", "modTime must be non-negative")
	}
	if f.SizeBytes < 0 {
		return File{}, errs.Newf(errs.Validation, "chunk.NewFile", "sizeBytes must be non-negative")
	}
	return f, nil
}

// EmbedChunk pairs a Chunk with the embedding vector produced for it and
// the provider/model that produced it.
type EmbedChunk struct {
	Chunk     Chunk
	Embedding []float32
	Provider  string
	Model     string
}

// EmbeddingStatus is the persisted outcome of an embedding attempt.
type EmbeddingStatus string

const (
	StatusSuccess          EmbeddingStatus = "success"
	StatusFailed           EmbeddingStatus = "failed"
	StatusPermanentFailure EmbeddingStatus = "permanent_failure"
)

// EmbeddingData is the row persisted per (chunk, provider, model).
type EmbeddingData struct {
	ChunkID   string
	Provider  string
	Model     string
	Dimension int
	Vector    []float32
	Status    EmbeddingStatus
}

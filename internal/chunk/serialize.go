package chunk

import (
	"encoding/json"
	"time"
)

// wireChunk is the JSON interchange shape from spec §6 "Serialized chunk
// form". It tolerates the legacy key names a handful of external tools
// still emit.
type wireChunk struct {
	Symbol       string         `json:"symbol"`
	StartLine    int            `json:"start_line"`
	EndLine      int            `json:"end_line"`
	Code         string         `json:"code"`
	ChunkType    string         `json:"chunk_type,omitempty"`
	LegacyType   string         `json:"type,omitempty"`
	FileID       string         `json:"file_id"`
	Language     string         `json:"language,omitempty"`
	LegacyLang   string         `json:"language_info,omitempty"`
	ID           string         `json:"id,omitempty"`
	FilePath     string         `json:"file_path,omitempty"`
	LegacyPath   string         `json:"path,omitempty"`
	ParentHeader string         `json:"parent_header,omitempty"`
	StartByte    *int           `json:"start_byte,omitempty"`
	EndByte      *int           `json:"end_byte,omitempty"`
	CreatedAt    *time.Time     `json:"created_at,omitempty"`
	UpdatedAt    *time.Time     `json:"updated_at,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// MarshalJSON encodes a Chunk in the wire form.
func (c Chunk) MarshalJSON() ([]byte, error) {
	w := wireChunk{
		Symbol:       c.Symbol,
		StartLine:    c.StartLine,
		EndLine:      c.EndLine,
		Code:         c.Code,
		ChunkType:    string(c.ChunkType),
		FileID:       c.FileID,
		Language:     c.Language,
		ID:           c.ID,
		FilePath:     c.FilePath,
		ParentHeader: c.ParentHeader,
		StartByte:    c.StartByte,
		EndByte:      c.EndByte,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		Metadata:     c.Metadata,
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the wire form, accepting legacy key aliases and
// mapping unknown chunk_type strings to TypeUnknown.
func (c *Chunk) UnmarshalJSON(data []byte) error {
	var w wireChunk
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	typ := w.ChunkType
	if typ == "" {
		typ = w.LegacyType
	}
	language := w.Language
	if language == "" {
		language = w.LegacyLang
	}
	path := w.FilePath
	if path == "" {
		path = w.LegacyPath
	}

	*c = Chunk{
		Symbol:       w.Symbol,
		StartLine:    w.StartLine,
		EndLine:      w.EndLine,
		Code:         w.Code,
		ChunkType:    ParseType(typ),
		FileID:       w.FileID,
		Language:     language,
		ID:           w.ID,
		FilePath:     path,
		ParentHeader: w.ParentHeader,
		StartByte:    w.StartByte,
		EndByte:      w.EndByte,
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
		Metadata:     w.Metadata,
	}
	return nil
}

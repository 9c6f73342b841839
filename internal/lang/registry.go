// Package lang maps a language tag to its canonical name, file extension,
// and the chunking parameters (§4.3 of the design) that the split engine
// and the fallback chunker use to size output chunks per language.
package lang

import "strings"

// Config holds the per-language chunking parameters and the symbol tables
// the fallback chunker (internal/parse) uses to recognize chunk boundaries.
type Config struct {
	Name            string
	Extension       string
	MaxChunkSize    int // non-whitespace characters
	MinChunkSize    int
	SafeTokenLimit  int
	StartKeywords   map[string]bool            // line-starting keywords that begin a new chunk
	PatternTypes    map[string]string          // pattern -> ChunkType name, matched against a line prefix
	SymbolPrefixes  map[string]string          // pattern -> prefix stripped to recover a symbol name
}

// fallback is returned for languages not present in the registry.
var fallback = Config{
	Name:           "unknown",
	MaxChunkSize:   1200,
	MinChunkSize:   50,
	SafeTokenLimit: 6000,
	StartKeywords:  map[string]bool{},
	PatternTypes:   map[string]string{},
	SymbolPrefixes: map[string]string{},
}

var registry = map[string]Config{
	"go": {
		Name: "go", Extension: ".go",
		MaxChunkSize: 1800, MinChunkSize: 80, SafeTokenLimit: 6000,
		StartKeywords: kw("func", "type", "const", "var", "package", "import"),
		PatternTypes: map[string]string{
			"func ": "function", "type ": "struct", "const ": "module", "var ": "module", "import ": "import",
		},
		SymbolPrefixes: map[string]string{"func ": "func ", "type ": "type "},
	},
	"python": {
		Name: "python", Extension: ".py",
		MaxChunkSize: 1500, MinChunkSize: 60, SafeTokenLimit: 6000,
		StartKeywords: kw("def", "class", "import", "from", "async def"),
		PatternTypes: map[string]string{
			"def ": "function", "async def ": "function", "class ": "class", "import ": "import", "from ": "import",
		},
		SymbolPrefixes: map[string]string{"def ": "def ", "async def ": "async def ", "class ": "class "},
	},
	"javascript": {
		Name: "javascript", Extension: ".js",
		MaxChunkSize: 1500, MinChunkSize: 60, SafeTokenLimit: 6000,
		StartKeywords: kw("function", "class", "const", "let", "var", "import", "export"),
		PatternTypes: map[string]string{
			"function ": "function", "class ": "class", "import ": "import", "export ": "module",
		},
		SymbolPrefixes: map[string]string{"function ": "function ", "class ": "class "},
	},
	"typescript": {
		Name: "typescript", Extension: ".ts",
		MaxChunkSize: 1500, MinChunkSize: 60, SafeTokenLimit: 6000,
		StartKeywords: kw("function", "class", "interface", "type", "const", "import", "export", "enum"),
		PatternTypes: map[string]string{
			"function ": "function", "class ": "class", "interface ": "interface",
			"type ": "struct", "enum ": "enum", "import ": "import",
		},
		SymbolPrefixes: map[string]string{
			"function ": "function ", "class ": "class ", "interface ": "interface ", "enum ": "enum ",
		},
	},
	"java": {
		Name: "java", Extension: ".java",
		MaxChunkSize: 1800, MinChunkSize: 80, SafeTokenLimit: 6000,
		StartKeywords: kw("public", "private", "protected", "class", "interface", "import", "enum"),
		PatternTypes: map[string]string{
			"class ": "class", "interface ": "interface", "enum ": "enum", "import ": "import",
		},
		SymbolPrefixes: map[string]string{"class ": "class ", "interface ": "interface ", "enum ": "enum "},
	},
	"cpp": {
		Name: "cpp", Extension: ".cpp",
		MaxChunkSize: 1800, MinChunkSize: 80, SafeTokenLimit: 6000,
		StartKeywords: kw("class", "struct", "namespace", "#include", "void", "int", "enum"),
		PatternTypes: map[string]string{
			"class ": "class", "struct ": "struct", "enum ": "enum", "#include": "import",
		},
		SymbolPrefixes: map[string]string{"class ": "class ", "struct ": "struct "},
	},
	"c": {
		Name: "c", Extension: ".c",
		MaxChunkSize: 1800, MinChunkSize: 80, SafeTokenLimit: 6000,
		StartKeywords: kw("struct", "#include", "void", "int", "enum", "typedef"),
		PatternTypes: map[string]string{
			"struct ": "struct", "enum ": "enum", "#include": "import",
		},
		SymbolPrefixes: map[string]string{"struct ": "struct "},
	},
	"rust": {
		Name: "rust", Extension: ".rs",
		MaxChunkSize: 1500, MinChunkSize: 60, SafeTokenLimit: 6000,
		StartKeywords: kw("fn", "struct", "enum", "trait", "impl", "mod", "use", "pub fn", "pub struct"),
		PatternTypes: map[string]string{
			"fn ": "function", "pub fn ": "function", "struct ": "struct", "pub struct ": "struct",
			"enum ": "enum", "trait ": "interface", "impl ": "class", "use ": "import", "mod ": "module",
		},
		SymbolPrefixes: map[string]string{
			"fn ": "fn ", "pub fn ": "pub fn ", "struct ": "struct ", "pub struct ": "pub struct ",
			"enum ": "enum ", "trait ": "trait ", "impl ": "impl ",
		},
	},
	"php": {
		Name: "php", Extension: ".php",
		MaxChunkSize: 1500, MinChunkSize: 60, SafeTokenLimit: 6000,
		StartKeywords: kw("function", "class", "interface", "trait", "use", "namespace"),
		PatternTypes: map[string]string{
			"function ": "function", "class ": "class", "interface ": "interface", "trait ": "interface",
			"use ": "import", "namespace ": "module",
		},
		SymbolPrefixes: map[string]string{
			"function ": "function ", "class ": "class ", "interface ": "interface ", "trait ": "trait ",
		},
	},
	"ruby": {
		Name: "ruby", Extension: ".rb",
		MaxChunkSize: 1500, MinChunkSize: 60, SafeTokenLimit: 6000,
		StartKeywords: kw("def", "class", "module", "require"),
		PatternTypes: map[string]string{
			"def ": "function", "class ": "class", "module ": "module", "require ": "import", "require_relative ": "import",
		},
		SymbolPrefixes: map[string]string{"def ": "def ", "class ": "class ", "module ": "module "},
	},
	"csharp": {
		Name: "csharp", Extension: ".cs",
		MaxChunkSize: 1800, MinChunkSize: 80, SafeTokenLimit: 6000,
		StartKeywords: kw("public", "private", "protected", "class", "interface", "using", "enum", "struct"),
		PatternTypes: map[string]string{
			"class ": "class", "interface ": "interface", "enum ": "enum", "struct ": "struct", "using ": "import",
		},
		SymbolPrefixes: map[string]string{"class ": "class ", "interface ": "interface ", "struct ": "struct "},
	},
	"markdown": {
		Name: "markdown", Extension: ".md",
		MaxChunkSize: 1200, MinChunkSize: 50, SafeTokenLimit: 6000,
		StartKeywords: map[string]bool{"#": true},
		PatternTypes:  map[string]string{"#": "documentation"},
	},
}

// extAliases maps a file extension to its canonical language name,
// including the extensions the registry's Config.Extension already
// carries, plus the secondary extensions a language is commonly written
// with.
var extAliases = map[string]string{
	".py": "python", ".js": "javascript", ".jsx": "javascript",
	".ts": "typescript", ".tsx": "typescript",
	".java": "java", ".cpp": "cpp", ".cc": "cpp", ".cxx": "cpp", ".hpp": "cpp",
	".c": "c", ".h": "c",
	".go": "go", ".rs": "rust", ".php": "php", ".rb": "ruby", ".cs": "csharp",
	".md": "markdown", ".markdown": "markdown",
}

func kw(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// Get looks up the Config for a language tag, case-insensitively. Unknown
// tags return the fallback configuration (spec §4.3).
func Get(tag string) Config {
	name := strings.ToLower(strings.TrimSpace(tag))
	if cfg, ok := registry[name]; ok {
		return cfg
	}
	return fallback
}

// ForExtension resolves a file extension (with leading dot, any case) to
// its canonical language tag. Returns "" if unrecognized.
func ForExtension(ext string) string {
	return extAliases[strings.ToLower(ext)]
}

// Canonical returns the lowercase canonical name for a language tag.
func Canonical(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

package treesitter

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/castindex/indexer/internal/chunk"
	"github.com/castindex/indexer/internal/parse"
)

// NewPython returns the Python tree-sitter parser.
func NewPython() *Parser {
	return New(sitter.NewLanguage(python.Language()), "python", NodeKinds{
		"function_definition": chunk.TypeFunction,
		"class_definition":    chunk.TypeClass,
		"import_statement":    chunk.TypeImport,
		"import_from_statement": chunk.TypeImport,
	})
}

// NewRust returns the Rust tree-sitter parser.
func NewRust() *Parser {
	return New(sitter.NewLanguage(rust.Language()), "rust", NodeKinds{
		"function_item":  chunk.TypeFunction,
		"struct_item":    chunk.TypeStruct,
		"enum_item":      chunk.TypeEnum,
		"trait_item":     chunk.TypeInterface,
		"impl_item":      chunk.TypeClass,
		"mod_item":       chunk.TypeModule,
		"use_declaration": chunk.TypeImport,
	}, "mod_item")
}

// NewJava returns the Java tree-sitter parser.
func NewJava() *Parser {
	return New(sitter.NewLanguage(java.Language()), "java", NodeKinds{
		"class_declaration":     chunk.TypeClass,
		"interface_declaration": chunk.TypeInterface,
		"enum_declaration":      chunk.TypeEnum,
		"import_declaration":    chunk.TypeImport,
	})
}

// NewC returns the C tree-sitter parser.
func NewC() *Parser {
	return New(sitter.NewLanguage(c.Language()), "c", NodeKinds{
		"function_definition": chunk.TypeFunction,
		"struct_specifier":    chunk.TypeStruct,
		"enum_specifier":      chunk.TypeEnum,
		"preproc_include":     chunk.TypeImport,
	})
}

// NewPHP returns the PHP tree-sitter parser.
func NewPHP() *Parser {
	return New(sitter.NewLanguage(php.LanguagePHP()), "php", NodeKinds{
		"function_definition":  chunk.TypeFunction,
		"method_declaration":   chunk.TypeFunction,
		"class_declaration":    chunk.TypeClass,
		"interface_declaration": chunk.TypeInterface,
		"trait_declaration":    chunk.TypeInterface,
		"namespace_use_declaration": chunk.TypeImport,
	}, "namespace_definition")
}

// NewRuby returns the Ruby tree-sitter parser.
func NewRuby() *Parser {
	return New(sitter.NewLanguage(ruby.Language()), "ruby", NodeKinds{
		"method":  chunk.TypeFunction,
		"class":   chunk.TypeClass,
		"module":  chunk.TypeModule,
	}, "module")
}

// NewTypeScript returns the TypeScript tree-sitter parser.
func NewTypeScript() *Parser {
	return New(sitter.NewLanguage(typescript.LanguageTypescript()), "typescript", NodeKinds{
		"function_declaration":  chunk.TypeFunction,
		"class_declaration":     chunk.TypeClass,
		"interface_declaration": chunk.TypeInterface,
		"enum_declaration":      chunk.TypeEnum,
		"import_statement":      chunk.TypeImport,
	})
}

// RegisterDefaults registers every concrete parser this package ships
// against its canonical language tag.
func RegisterDefaults(reg *parse.Registry) {
	reg.Register("python", NewPython())
	reg.Register("rust", NewRust())
	reg.Register("java", NewJava())
	reg.Register("c", NewC())
	reg.Register("php", NewPHP())
	reg.Register("ruby", NewRuby())
	reg.Register("typescript", NewTypeScript())
}

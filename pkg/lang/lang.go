// Package lang selects a language variant and loads its programs.
package lang

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/eplic/eplic/pkg/lexer"
	"github.com/eplic/eplic/pkg/parser"
	"github.com/eplic/eplic/pkg/types"
)

// Language is a supported language variant.
type Language int

const (
	Unknown Language = iota
	Brainfuck
	Sus
)

func (l Language) String() string {
	switch l {
	case Brainfuck:
		return "brainfuck"
	case Sus:
		return "sus"
	}
	return "unknown"
}

var extensions = map[string]Language{
	".b":   Brainfuck,
	".bf":  Brainfuck,
	".sus": Sus,
}

var names = map[string]Language{
	"bf":        Brainfuck,
	"brainfuck": Brainfuck,
	"sus":       Sus,
}

// Detect picks the language from the file extension.
func Detect(filename string) (Language, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if l, ok := extensions[ext]; ok {
		return l, nil
	}
	return Unknown, &types.Error{
		Code: types.ErrUnknownLanguage,
		Err:  fmt.Errorf("no language for extension %q of %s", ext, filename),
	}
}

// Lookup resolves a language by name. "auto" and "" fall back to Detect
// on filename.
func Lookup(name, filename string) (Language, error) {
	name = strings.ToLower(name)
	if name == "" || name == "auto" {
		return Detect(filename)
	}
	if l, ok := names[name]; ok {
		return l, nil
	}
	return Unknown, &types.Error{
		Code: types.ErrUnknownLanguage,
		Err:  fmt.Errorf("no language named %q", name),
	}
}

// Load turns source into an instruction tree. Brainfuck goes through the
// structural parser; sus has no loops and maps tokens straight to commands.
func Load(l Language, filename string, src []byte) ([]types.Instruction, error) {
	switch l {
	case Brainfuck:
		return parser.ParseSource(filename, src)
	case Sus:
		return parser.Flatten(lexer.LexSus(filename, src)), nil
	}
	return nil, &types.Error{
		Code: types.ErrUnknownLanguage,
		Err:  fmt.Errorf("cannot load %s", filename),
	}
}

// Format renders prog in the syntax of l.
func Format(l Language, prog []types.Instruction) string {
	src := types.Format(prog)
	if l == Sus {
		return strings.ReplaceAll(src, ".", "|")
	}
	return src
}

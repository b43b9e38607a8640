// Package lexer turns program source into instruction tokens.
// Token rules are participle lexer definitions; anything that is not an
// instruction symbol falls into an elided comment rule, so lexing never fails.
package lexer

import (
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/eplic/eplic/pkg/types"
)

// Dialect is a lexer definition plus the op each of its symbols maps to.
type Dialect struct {
	Name string
	def  *lexer.StatefulDefinition
	ops  map[lexer.TokenType]types.Op
}

// Lowercase rule names are elided by participle.
var brainfuckRules = []lexer.SimpleRule{
	{Name: "IncCursor", Pattern: `>`},
	{Name: "DecCursor", Pattern: `<`},
	{Name: "IncCell", Pattern: `\+`},
	{Name: "DecCell", Pattern: `-`},
	{Name: "Output", Pattern: `\.`},
	{Name: "Input", Pattern: `,`},
	{Name: "LoopBegin", Pattern: `\[`},
	{Name: "LoopEnd", Pattern: `\]`},
	{Name: "comment", Pattern: `[^><+\-.,\[\]]+`},
}

var susRules = []lexer.SimpleRule{
	{Name: "IncCursor", Pattern: `>`},
	{Name: "DecCursor", Pattern: `<`},
	{Name: "IncCell", Pattern: `\+`},
	{Name: "DecCell", Pattern: `-`},
	{Name: "Output", Pattern: `\|`},
	{Name: "comment", Pattern: `[^><+\-|]+`},
}

var ruleOps = map[string]types.Op{
	"IncCursor": types.IncCursor,
	"DecCursor": types.DecCursor,
	"IncCell":   types.IncCell,
	"DecCell":   types.DecCell,
	"Output":    types.Output,
	"Input":     types.Input,
	"LoopBegin": types.LoopBegin,
	"LoopEnd":   types.LoopEnd,
}

// Brainfuck lexes the eight-symbol alphabet `> < + - . , [ ]`.
var Brainfuck = mustDialect("brainfuck", brainfuckRules)

// Sus lexes the loop-free alphabet `> < + - |` where `|` outputs the cell.
var Sus = mustDialect("sus", susRules)

func mustDialect(name string, rules []lexer.SimpleRule) *Dialect {
	def := lexer.MustSimple(rules)
	ops := make(map[lexer.TokenType]types.Op)
	for sym, typ := range def.Symbols() {
		if op, ok := ruleOps[sym]; ok {
			ops[typ] = op
		}
	}
	return &Dialect{Name: name, def: def, ops: ops}
}

// Lex scans src and returns its instruction tokens in source order.
func (d *Dialect) Lex(filename string, src []byte) []types.Token {
	var tokens []types.Token
	lex, err := d.def.LexString(filename, string(src))
	if err != nil {
		return tokens
	}
	for {
		tok, err := lex.Next()
		// The comment rule matches every non-symbol byte, so Next can only
		// stop at EOF.
		if err != nil || tok.EOF() {
			return tokens
		}
		if op, ok := d.ops[tok.Type]; ok {
			tokens = append(tokens, types.Token{Op: op, Pos: tok.Pos})
		}
	}
}

// Lex scans Brainfuck source.
func Lex(src []byte) []types.Token {
	return Brainfuck.Lex("", src)
}

// LexFile scans Brainfuck source, recording filename in token positions.
func LexFile(filename string, src []byte) []types.Token {
	return Brainfuck.Lex(filename, src)
}

// LexSus scans sus source.
func LexSus(filename string, src []byte) []types.Token {
	return Sus.Lex(filename, src)
}

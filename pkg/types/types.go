// Package types defines the tokens and instruction tree shared by the
// lexer, parser and interpreter.
package types

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Op is the operation of a token or command.
type Op uint8

// Operations. LoopBegin and LoopEnd only exist as tokens; the parser
// consumes them into Loop nodes.
const (
	Illegal   Op = iota
	IncCursor    // >
	DecCursor    // <
	IncCell      // +
	DecCell      // -
	Output       // .
	Input        // ,
	LoopBegin    // [
	LoopEnd      // ]
)

func (op Op) String() string {
	switch op {
	case IncCursor:
		return "inccursor"
	case DecCursor:
		return "deccursor"
	case IncCell:
		return "inccell"
	case DecCell:
		return "deccell"
	case Output:
		return "output"
	case Input:
		return "input"
	case LoopBegin:
		return "loopbegin"
	case LoopEnd:
		return "loopend"
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// Symbol returns the source character of the operation, or 0 for Illegal.
func (op Op) Symbol() byte {
	switch op {
	case IncCursor:
		return '>'
	case DecCursor:
		return '<'
	case IncCell:
		return '+'
	case DecCell:
		return '-'
	case Output:
		return '.'
	case Input:
		return ','
	case LoopBegin:
		return '['
	case LoopEnd:
		return ']'
	}
	return 0
}

// IsMarker reports whether op is a loop boundary.
func (op Op) IsMarker() bool {
	return op == LoopBegin || op == LoopEnd
}

// Token is a lexical token with its source position.
type Token struct {
	Op  Op
	Pos lexer.Position
}

func (t Token) String() string {
	return fmt.Sprintf("%s@%s", t.Op, t.Pos)
}

// Instruction is a node of a parsed program. The set of implementations is
// closed: Command and *Loop.
type Instruction interface {
	// String returns the instruction in source syntax
	String() string
	// Type returns the instruction name for diagnostics
	Type() string
	// Equal compares instructions structurally, ignoring positions
	Equal(other Instruction) bool

	instruction()
}

// Command is a single non-loop instruction.
type Command struct {
	Op  Op
	Pos lexer.Position
}

func (c Command) String() string { return string(c.Op.Symbol()) }
func (c Command) Type() string   { return c.Op.String() }
func (Command) instruction()     {}

func (c Command) Equal(other Instruction) bool {
	if o, ok := other.(Command); ok {
		return c.Op == o.Op
	}
	return false
}

// Loop repeats Body while the current cell is nonzero.
type Loop struct {
	Body []Instruction
	Pos  lexer.Position
}

func (l *Loop) String() string { return "[" + Format(l.Body) + "]" }
func (l *Loop) Type() string   { return "loop" }
func (*Loop) instruction()     {}

func (l *Loop) Equal(other Instruction) bool {
	if o, ok := other.(*Loop); ok {
		return Equal(l.Body, o.Body)
	}
	return false
}

// Format renders a program as canonical source containing only the eight
// instruction symbols.
func Format(prog []Instruction) string {
	var b strings.Builder
	for _, in := range prog {
		b.WriteString(in.String())
	}
	return b.String()
}

// Equal compares two instruction sequences structurally.
func Equal(a, b []Instruction) bool {
	if len(a) != len(b) {
		return false
	}
	for i, in := range a {
		if !in.Equal(b[i]) {
			return false
		}
	}
	return true
}

// Stats counts the commands and loops of a program, and its deepest loop
// nesting.
type Stats struct {
	Commands int
	Loops    int
	Depth    int
}

// Count walks prog and returns its Stats.
func Count(prog []Instruction) Stats {
	var s Stats
	count(prog, 0, &s)
	return s
}

func count(prog []Instruction, depth int, s *Stats) {
	if depth > s.Depth {
		s.Depth = depth
	}
	for _, in := range prog {
		switch in := in.(type) {
		case Command:
			s.Commands++
		case *Loop:
			s.Loops++
			count(in.Body, depth+1, s)
		}
	}
}

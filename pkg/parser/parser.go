// Package parser builds the nested instruction tree from a flat token
// sequence by matching loop markers.
package parser

import (
	"github.com/eplic/eplic/pkg/lexer"
	"github.com/eplic/eplic/pkg/types"
)

// Parse converts tokens into an instruction tree. A loop end at depth zero
// fails immediately with ErrUnmatchedLoopEnd; an opener still unclosed at
// the end of input fails with ErrUnterminatedLoop.
func Parse(tokens []types.Token) ([]types.Instruction, error) {
	prog := []types.Instruction{}
	depth := 0
	begin := 0

	for i, tok := range tokens {
		if depth == 0 {
			switch tok.Op {
			case types.LoopBegin:
				begin = i
				depth++
			case types.LoopEnd:
				return nil, &types.Error{Code: types.ErrUnmatchedLoopEnd, Pos: tok.Pos}
			default:
				prog = append(prog, types.Command{Op: tok.Op, Pos: tok.Pos})
			}
			continue
		}

		switch tok.Op {
		case types.LoopBegin:
			depth++
		case types.LoopEnd:
			depth--
			if depth == 0 {
				body, err := Parse(tokens[begin+1 : i])
				if err != nil {
					return nil, err
				}
				prog = append(prog, &types.Loop{Body: body, Pos: tokens[begin].Pos})
			}
		}
	}

	if depth != 0 {
		return nil, &types.Error{Code: types.ErrUnterminatedLoop, Pos: tokens[begin].Pos}
	}
	return prog, nil
}

// ParseSource lexes and parses Brainfuck source. filename is only used in
// error positions and may be empty.
func ParseSource(filename string, src []byte) ([]types.Instruction, error) {
	return Parse(lexer.LexFile(filename, src))
}

// Flatten converts tokens of a loop-free dialect directly into commands,
// without structural parsing. Marker tokens are dropped.
func Flatten(tokens []types.Token) []types.Instruction {
	prog := make([]types.Instruction, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Op.IsMarker() {
			continue
		}
		prog = append(prog, types.Command{Op: tok.Op, Pos: tok.Pos})
	}
	return prog
}

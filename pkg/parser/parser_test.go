package parser

import (
	"errors"
	"testing"

	"github.com/eplic/eplic/pkg/lexer"
	"github.com/eplic/eplic/pkg/types"
)

func parse(t *testing.T, src string) []types.Instruction {
	t.Helper()
	prog, err := ParseSource("", []byte(src))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return prog
}

func cmd(op types.Op) types.Command { return types.Command{Op: op} }

func loop(body ...types.Instruction) *types.Loop {
	if body == nil {
		body = []types.Instruction{}
	}
	return &types.Loop{Body: body}
}

func TestParseEmpty(t *testing.T) {
	prog := parse(t, "")
	if prog == nil || len(prog) != 0 {
		t.Errorf("Expected empty program, got %v", prog)
	}
}

func TestParseEmptyLoop(t *testing.T) {
	prog := parse(t, "[]")
	if len(prog) != 1 {
		t.Fatalf("Expected 1 instruction, got %d", len(prog))
	}
	l, ok := prog[0].(*types.Loop)
	if !ok {
		t.Fatalf("Expected loop, got %s", prog[0].Type())
	}
	if len(l.Body) != 0 {
		t.Errorf("Expected empty body, got %v", l.Body)
	}
}

func TestParseTree(t *testing.T) {
	tests := []struct {
		src  string
		want []types.Instruction
	}{
		{"+-", []types.Instruction{cmd(types.IncCell), cmd(types.DecCell)}},
		{"[-]", []types.Instruction{loop(cmd(types.DecCell))}},
		{"><[.,]", []types.Instruction{
			cmd(types.IncCursor), cmd(types.DecCursor),
			loop(cmd(types.Output), cmd(types.Input)),
		}},
		{"[[]]", []types.Instruction{loop(loop())}},
		{"[][]", []types.Instruction{loop(), loop()}},
		{"+[>[-]<-]+", []types.Instruction{
			cmd(types.IncCell),
			loop(cmd(types.IncCursor), loop(cmd(types.DecCell)), cmd(types.DecCursor), cmd(types.DecCell)),
			cmd(types.IncCell),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got := parse(t, tt.src)
			if !types.Equal(got, tt.want) {
				t.Errorf("Expected %s, got %s", types.Format(tt.want), types.Format(got))
			}
		})
	}
}

// Formatting a parsed program gives back its instruction symbols, and loop
// nodes match bracket pairs one to one.
func TestParseRoundTrip(t *testing.T) {
	sources := []string{
		"++++++++[>++++[>++>+++>+++>+<<<<-]>+>+>->>+[<]<-]>>.",
		"[[[[]]]]",
		"a [ b [ c ] d ] e",
		",[.,]",
	}

	for _, src := range sources {
		prog := parse(t, src)
		var want []byte
		pairs := 0
		for _, tok := range lexer.Lex([]byte(src)) {
			want = append(want, tok.Op.Symbol())
			if tok.Op == types.LoopBegin {
				pairs++
			}
		}
		if got := types.Format(prog); got != string(want) {
			t.Errorf("Expected %q, got %q", want, got)
		}
		if got := types.Count(prog).Loops; got != pairs {
			t.Errorf("%q: expected %d loops, got %d", src, pairs, got)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		src    string
		code   types.ErrorCode
		column int
	}{
		{"]", types.ErrUnmatchedLoopEnd, 1},
		{"+]", types.ErrUnmatchedLoopEnd, 2},
		{"[]]", types.ErrUnmatchedLoopEnd, 3},
		{"][", types.ErrUnmatchedLoopEnd, 1},
		{"[", types.ErrUnterminatedLoop, 1},
		{"+[", types.ErrUnterminatedLoop, 2},
		{"[[]", types.ErrUnterminatedLoop, 1},
		{"[]+[[-]", types.ErrUnterminatedLoop, 4},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			prog, err := ParseSource("", []byte(tt.src))
			if err == nil {
				t.Fatalf("Expected error, got program %s", types.Format(prog))
			}
			if prog != nil {
				t.Errorf("Expected no program on error, got %v", prog)
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("Expected %v, got %v", tt.code, err)
			}
			var perr *types.Error
			if !errors.As(err, &perr) {
				t.Fatalf("Expected *types.Error, got %T", err)
			}
			if perr.Pos.Column != tt.column {
				t.Errorf("Expected column %d, got %d", tt.column, perr.Pos.Column)
			}
			if perr.Code.Kind() != types.KindParse {
				t.Errorf("Expected parse kind, got %s", perr.Code.Kind())
			}
		})
	}
}

func TestParseKeepsPositions(t *testing.T) {
	prog, err := ParseSource("x.bf", []byte("+\n [-]"))
	if err != nil {
		t.Fatal(err)
	}
	l := prog[1].(*types.Loop)
	if l.Pos.Filename != "x.bf" || l.Pos.Line != 2 || l.Pos.Column != 2 {
		t.Errorf("Unexpected loop position %s", l.Pos)
	}
}

func TestFlatten(t *testing.T) {
	prog := Flatten(lexer.LexSus("", []byte("+>|")))
	want := []types.Instruction{cmd(types.IncCell), cmd(types.IncCursor), cmd(types.Output)}
	if !types.Equal(prog, want) {
		t.Errorf("Expected %s, got %s", types.Format(want), types.Format(prog))
	}

	// markers never become commands
	prog = Flatten(lexer.Lex([]byte("[+]")))
	if !types.Equal(prog, []types.Instruction{cmd(types.IncCell)}) {
		t.Errorf("Expected markers dropped, got %s", types.Format(prog))
	}
}

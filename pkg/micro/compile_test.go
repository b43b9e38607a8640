package micro

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/eplic/eplic/pkg/parser"
	"github.com/eplic/eplic/pkg/tape"
	"github.com/eplic/eplic/pkg/types"
)

func compile(t *testing.T, src string) []byte {
	t.Helper()
	prog, err := parser.ParseSource("", []byte(src))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return Compile(prog)
}

func TestCompileOneBytePerCommand(t *testing.T) {
	code := compile(t, "+++>.,")
	want := []byte{OpInc, OpInc, OpInc, OpRight, OpOut, OpIn, OpHalt}
	if !bytes.Equal(code, want) {
		t.Errorf("Expected % X, got % X", want, code)
	}
}

func TestCompileLongRepeat(t *testing.T) {
	code := compile(t, strings.Repeat("-", 300))
	want := append(bytes.Repeat([]byte{OpDec}, 300), OpHalt)
	if !bytes.Equal(code, want) {
		t.Errorf("Expected %d dec opcodes and halt, got % X", 300, code)
	}
}

func TestCompileLoops(t *testing.T) {
	code := compile(t, "[-[]]")
	want := []byte{
		OpJumpZ, 0, 0, 0, 0x15,
		OpDec,
		OpJumpZ, 0, 0, 0, 0x10,
		OpJumpNZ, 0, 0, 0, 0x0B,
		OpJumpNZ, 0, 0, 0, 0x05,
		OpHalt,
	}
	if !bytes.Equal(code, want) {
		t.Errorf("Expected % X, got % X", want, code)
	}
	if err := Verify(code); err != nil {
		t.Errorf("Compiled code should verify: %v", err)
	}
}

func TestCompileEmpty(t *testing.T) {
	if code := Compile(nil); !bytes.Equal(code, []byte{OpHalt}) {
		t.Errorf("Expected lone halt, got % X", code)
	}
}

func TestDisassemble(t *testing.T) {
	got := Disassemble(compile(t, "++[>.<-]"))
	want := "0000: inc\n" +
		"0001: inc\n" +
		"0002: jz 0010\n" +
		"0007: right\n" +
		"0008: out\n" +
		"0009: left\n" +
		"000A: dec\n" +
		"000B: jnz 0007\n" +
		"0010: halt\n"
	if got != want {
		t.Errorf("Expected:\n%s\ngot:\n%s", want, got)
	}
	if got := Disassemble([]byte{OpJumpZ, 0}); !strings.Contains(got, "truncated") {
		t.Errorf("Expected truncation marker, got %q", got)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name string
		code []byte
	}{
		{"unknown", []byte{0x42}},
		{"unknown high", []byte{0x83, 2}},
		{"unknown jump", []byte{0xC2, 0, 0, 0, 0}},
		{"truncated jump", []byte{OpJumpZ, 0, 0}},
		{"jump outside", []byte{OpJumpNZ, 0, 0, 0, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.code)
			if !errors.Is(err, types.ErrInvalidBytecode) {
				t.Errorf("Expected invalid bytecode, got %v", err)
			}
		})
	}
}

func TestStepRejectsBadCode(t *testing.T) {
	vm := New(tape.NewSized(8, tape.ByteMax))
	vm.Load([]byte{OpInc, 0x42})
	err := vm.Run()
	if !errors.Is(err, types.ErrInvalidBytecode) {
		t.Fatalf("Expected invalid bytecode, got %v", err)
	}
	if vm.Tape.ReadCell() != 1 {
		t.Errorf("Expected first instruction to run, got cell %d", vm.Tape.ReadCell())
	}
	if !vm.Halted {
		t.Error("VM should halt on bad code")
	}
}

func TestVMGasRefill(t *testing.T) {
	vm := New(tape.New())
	vm.MaxGas = 5
	vm.Load(compile(t, "+++"))
	if err := vm.Run(); err != nil {
		t.Fatal(err)
	}
	if vm.Gas != 2 {
		t.Errorf("Expected 2 gas left, got %d", vm.Gas)
	}
	vm.Reset()
	if vm.Gas != 5 || vm.PC != 0 || vm.Tape.ReadCell() != 0 {
		t.Errorf("Unexpected state after reset: %s", vm.StateString())
	}
	if err := vm.Run(); err != nil {
		t.Fatal(err)
	}
	if got := vm.StateString(); got != "pc=0003 cursor=1024 cell=3 gas=2/5" {
		t.Errorf("Unexpected state %q", got)
	}
}

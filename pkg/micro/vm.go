package micro

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"

	"github.com/eplic/eplic/pkg/tape"
	"github.com/eplic/eplic/pkg/types"
)

// VM runs compiled bytecode against a tape. It observes the same checked
// tape semantics and gas accounting as the tree-walking interpreter: one
// unit per executed command and one per loop pass.
type VM struct {
	// Tape is the memory the program runs against
	Tape *tape.Tape

	// Program
	Code []byte
	PC   int // Program counter

	// Execution limits (MaxGas 0 = unlimited)
	Gas    int
	MaxGas int

	// Trace logs every executed command at debug level
	Trace  bool
	Logger *slog.Logger

	// Halted
	Halted bool
}

// New creates a VM over t with unlimited gas
func New(t *tape.Tape) *VM {
	return &VM{
		Tape:   t,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Reset clears the tape and rewinds the program
func (vm *VM) Reset() {
	vm.Tape.Reset()
	vm.PC = 0
	vm.Halted = false
	vm.Gas = vm.MaxGas
}

// Load loads bytecode into the VM and refills gas
func (vm *VM) Load(code []byte) {
	vm.Code = code
	vm.PC = 0
	vm.Halted = false
	vm.Gas = vm.MaxGas
}

// ConsumeGas decrements gas and returns false once the budget is spent
func (vm *VM) ConsumeGas(amount int) bool {
	if vm.MaxGas == 0 {
		return true
	}
	vm.Gas -= amount
	return vm.Gas >= 0
}

// Step executes one encoded instruction.
func (vm *VM) Step() error {
	if vm.Halted {
		return nil
	}

	if vm.PC >= len(vm.Code) {
		vm.Halted = true
		return nil
	}

	start := vm.PC
	op := vm.Code[vm.PC]
	if vm.PC+Len(op) > len(vm.Code) {
		vm.Halted = true
		return invalid(start, "truncated %s", OpName(op))
	}

	switch {
	case op == OpHalt:
		vm.Halted = true

	case op == OpNop:
		vm.PC++

	case op >= OpRight && op <= OpIn:
		vm.PC++
		return vm.command(start, op)

	case op == OpJumpZ || op == OpJumpNZ:
		addr := int(binary.BigEndian.Uint32(vm.Code[vm.PC+1:]))
		vm.PC += 1 + AddrSize
		zero := vm.Tape.ReadCell() == 0
		if op == OpJumpZ && zero {
			vm.PC = addr
			return nil
		}
		if op == OpJumpNZ && zero {
			return nil
		}
		// Entering the body is one loop pass
		if !vm.ConsumeGas(1) {
			return fmt.Errorf("loop at %04X: %w", start, types.ErrGasExhausted)
		}
		if op == OpJumpNZ {
			vm.PC = addr
		}

	default:
		vm.Halted = true
		return invalid(start, "unknown opcode %02X", op)
	}

	return nil
}

func (vm *VM) command(pc int, op byte) error {
	if !vm.ConsumeGas(1) {
		return fmt.Errorf("%s at %04X: %w", OpName(op), pc, types.ErrGasExhausted)
	}
	if vm.Trace {
		vm.Logger.LogAttrs(context.Background(), slog.LevelDebug, "step",
			slog.String("op", OpName(op)),
			slog.Int("pc", pc),
			slog.Int("cursor", vm.Tape.Cursor()),
			slog.Any("cell", vm.Tape.ReadCell()),
		)
	}
	if err := vm.exec(op); err != nil {
		return fmt.Errorf("%s at %04X: %w", OpName(op), pc, err)
	}
	return nil
}

func (vm *VM) exec(op byte) error {
	switch op {
	case OpRight:
		return vm.Tape.IncrementCursor()
	case OpLeft:
		return vm.Tape.DecrementCursor()
	case OpInc:
		return vm.Tape.IncrementCell()
	case OpDec:
		return vm.Tape.DecrementCell()
	case OpOut:
		return vm.Tape.OutputCell()
	case OpIn:
		return vm.Tape.InputCell()
	}
	return fmt.Errorf("unexpected opcode %02X", op)
}

// Run executes until halt or the first error
func (vm *VM) Run() error {
	vm.Logger.Debug("vm start", "bytes", len(vm.Code), "cursor", vm.Tape.Cursor())
	for !vm.Halted {
		if err := vm.Step(); err != nil {
			vm.Halted = true
			vm.Logger.Debug("vm failed", "error", err, "pc", vm.PC, "cursor", vm.Tape.Cursor())
			return err
		}
	}
	vm.Logger.Debug("vm finished", "cursor", vm.Tape.Cursor(), "cell", vm.Tape.ReadCell())
	return nil
}

// Execute compiles prog and runs it against t with a fresh, unlimited VM.
func Execute(prog []types.Instruction, t *tape.Tape) error {
	vm := New(t)
	vm.Load(Compile(prog))
	return vm.Run()
}

// StateString returns a short description of the machine state
func (vm *VM) StateString() string {
	return fmt.Sprintf("pc=%04X cursor=%d cell=%d gas=%d/%d",
		vm.PC, vm.Tape.Cursor(), vm.Tape.ReadCell(), vm.Gas, vm.MaxGas)
}

// Package interpreter provides the tree-walking execution engine.
// All mutable state lives in the Tape; the interpreter only carries the
// optional gas budget and logging.
package interpreter

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/eplic/eplic/pkg/tape"
	"github.com/eplic/eplic/pkg/types"
)

// Interpreter runs instruction trees against a tape.
type Interpreter struct {
	// Tape is the memory the program runs against
	Tape *tape.Tape

	// Gas is the remaining step budget (0 = unlimited)
	Gas int
	// MaxGas is the starting gas amount
	MaxGas int

	// Trace logs every instruction at debug level
	Trace bool

	// Logger receives run diagnostics (default: discard)
	Logger *slog.Logger
}

// New creates an Interpreter over t with unlimited gas.
func New(t *tape.Tape) *Interpreter {
	return &Interpreter{
		Tape:   t,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Execute runs prog against t with a fresh, unlimited interpreter.
func Execute(prog []types.Instruction, t *tape.Tape) error {
	return New(t).Run(prog)
}

// Reset clears the tape and refills gas.
func (i *Interpreter) Reset() {
	i.Tape.Reset()
	i.Gas = i.MaxGas
}

// ConsumeGas decrements gas and returns false once the budget is spent
func (i *Interpreter) ConsumeGas(amount int) bool {
	if i.MaxGas == 0 {
		return true // unlimited
	}
	i.Gas -= amount
	return i.Gas >= 0
}

// Run executes a whole program, refilling gas first.
func (i *Interpreter) Run(prog []types.Instruction) error {
	i.Gas = i.MaxGas
	i.Logger.Debug("run start", "instructions", len(prog), "cursor", i.Tape.Cursor())
	err := i.ExecuteBlock(prog)
	if err != nil {
		i.Logger.Debug("run failed", "error", err, "cursor", i.Tape.Cursor())
		return err
	}
	i.Logger.Debug("run finished", "cursor", i.Tape.Cursor(), "cell", i.Tape.ReadCell())
	return nil
}

// ExecuteBlock executes instructions in order, stopping at the first error.
func (i *Interpreter) ExecuteBlock(block []types.Instruction) error {
	for _, in := range block {
		if err := i.Execute(in); err != nil {
			return err
		}
	}
	return nil
}

// Execute executes a single instruction. A loop re-checks the current cell
// only after each full pass through its body.
func (i *Interpreter) Execute(in types.Instruction) error {
	switch in := in.(type) {
	case types.Command:
		if !i.ConsumeGas(1) {
			return fmt.Errorf("%s at %s: %w", in.Op, in.Pos, types.ErrGasExhausted)
		}
		if i.Trace {
			i.Logger.LogAttrs(context.Background(), slog.LevelDebug, "step",
				slog.String("op", in.Op.String()),
				slog.String("pos", in.Pos.String()),
				slog.Int("cursor", i.Tape.Cursor()),
				slog.Any("cell", i.Tape.ReadCell()),
			)
		}
		if err := i.dispatch(in.Op); err != nil {
			return fmt.Errorf("%s at %s: %w", in.Op, in.Pos, err)
		}

	case *types.Loop:
		for i.Tape.ReadCell() != 0 {
			if !i.ConsumeGas(1) {
				return fmt.Errorf("loop at %s: %w", in.Pos, types.ErrGasExhausted)
			}
			if err := i.ExecuteBlock(in.Body); err != nil {
				return err
			}
		}

	default:
		return fmt.Errorf("unexpected instruction %T", in)
	}
	return nil
}

func (i *Interpreter) dispatch(op types.Op) error {
	switch op {
	case types.IncCursor:
		return i.Tape.IncrementCursor()
	case types.DecCursor:
		return i.Tape.DecrementCursor()
	case types.IncCell:
		return i.Tape.IncrementCell()
	case types.DecCell:
		return i.Tape.DecrementCell()
	case types.Output:
		return i.Tape.OutputCell()
	case types.Input:
		return i.Tape.InputCell()
	}
	return fmt.Errorf("unexpected op %s", op)
}

// StateString returns a short description of the tape position
func (i *Interpreter) StateString() string {
	return fmt.Sprintf("cursor=%d cell=%d gas=%d/%d",
		i.Tape.Cursor(), i.Tape.ReadCell(), i.Gas, i.MaxGas)
}

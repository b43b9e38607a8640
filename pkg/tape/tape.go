// Package tape implements the bounded memory a program runs against: a
// fixed number of cells and a single cursor. Cell arithmetic and cursor
// movement are checked and fail instead of wrapping.
package tape

import (
	"errors"
	"io"
	"math"
	"os"

	"github.com/eplic/eplic/pkg/types"
)

const (
	// DefaultSize is the number of cells of a tape from New.
	DefaultSize = 2048

	// ByteMax is the largest value of a byte-width cell.
	ByteMax = math.MaxUint8
	// WordMax is the largest value of a word-width cell.
	WordMax = math.MaxUint32
)

// Tape is the mutable state of a single run.
type Tape struct {
	cells  []uint32
	cursor int
	max    uint32

	// Output receives one byte per output instruction (default: os.Stdout)
	Output io.Writer
	// Input supplies one byte per input instruction (default: os.Stdin)
	Input io.Reader
}

// New creates a DefaultSize tape of word-width cells.
func New() *Tape {
	return NewSized(DefaultSize, WordMax)
}

// NewSized creates a tape of size cells, each holding values in [0, max].
// The cursor starts at the middle cell.
func NewSized(size int, max uint32) *Tape {
	if size < 0 {
		size = 0
	}
	return &Tape{
		cells:  make([]uint32, size),
		cursor: size / 2,
		max:    max,
		Output: os.Stdout,
		Input:  os.Stdin,
	}
}

// Reset zeroes every cell and moves the cursor back to the middle.
func (t *Tape) Reset() {
	clear(t.cells)
	t.cursor = len(t.cells) / 2
}

// Len returns the number of cells.
func (t *Tape) Len() int { return len(t.cells) }

// Max returns the largest value a cell can hold.
func (t *Tape) Max() uint32 { return t.max }

// Cursor returns the current cell address. It may be past the end of the
// tape; cell access there is a no-op.
func (t *Tape) Cursor() int { return t.cursor }

func (t *Tape) inBounds() bool {
	return t.cursor < len(t.cells)
}

func (t *Tape) fail(code types.ErrorCode, err error) error {
	return &types.Error{Code: code, Cursor: t.cursor, Err: err}
}

// IncrementCell adds one to the current cell.
func (t *Tape) IncrementCell() error {
	if !t.inBounds() {
		return nil
	}
	if t.cells[t.cursor] >= t.max {
		return t.fail(types.ErrCellOverflow, nil)
	}
	t.cells[t.cursor]++
	return nil
}

// DecrementCell subtracts one from the current cell.
func (t *Tape) DecrementCell() error {
	if !t.inBounds() {
		return nil
	}
	if t.cells[t.cursor] == 0 {
		return t.fail(types.ErrCellUnderflow, nil)
	}
	t.cells[t.cursor]--
	return nil
}

// IncrementCursor moves the cursor one cell right. Moving past the end of
// the tape is allowed.
func (t *Tape) IncrementCursor() error {
	if t.cursor == math.MaxInt {
		return t.fail(types.ErrCursorOverflow, nil)
	}
	t.cursor++
	return nil
}

// DecrementCursor moves the cursor one cell left.
func (t *Tape) DecrementCursor() error {
	if t.cursor == 0 {
		return t.fail(types.ErrCursorUnderflow, nil)
	}
	t.cursor--
	return nil
}

// ReadCell returns the current cell, or 0 when the cursor is past the end.
func (t *Tape) ReadCell() uint32 {
	if !t.inBounds() {
		return 0
	}
	return t.cells[t.cursor]
}

// OutputCell writes the current cell as a single byte. Values above 255
// are not representable and produce no output.
func (t *Tape) OutputCell() error {
	v := t.ReadCell()
	if !t.inBounds() || v > math.MaxUint8 {
		return nil
	}
	if _, err := t.Output.Write([]byte{byte(v)}); err != nil {
		return t.fail(types.ErrOutputFailed, err)
	}
	return nil
}

// InputCell blocks until one byte is read and stores it in the current
// cell. Past the end of the tape the byte is consumed and dropped.
func (t *Tape) InputCell() error {
	var buf [1]byte
	if _, err := io.ReadFull(t.Input, buf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return t.fail(types.ErrInputExhausted, err)
		}
		return t.fail(types.ErrInputFailed, err)
	}
	if !t.inBounds() {
		return nil
	}
	if uint32(buf[0]) > t.max {
		return t.fail(types.ErrCellOverflow, nil)
	}
	t.cells[t.cursor] = uint32(buf[0])
	return nil
}

// Cells returns a copy of the cell contents.
func (t *Tape) Cells() []uint32 {
	return append([]uint32(nil), t.cells...)
}

package micro

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/eplic/eplic/pkg/types"
)

// Compiler converts instruction trees to bytecode
type Compiler struct {
	code []byte
}

// NewCompiler creates a new compiler
func NewCompiler() *Compiler {
	return &Compiler{code: make([]byte, 0, 256)}
}

// Compile converts prog to bytecode ending in OpHalt.
func Compile(prog []types.Instruction) []byte {
	return NewCompiler().Compile(prog)
}

// Compile converts prog to bytecode. Every command becomes one opcode and
// every loop becomes a jz/jnz pair.
func (c *Compiler) Compile(prog []types.Instruction) []byte {
	c.code = c.code[:0]
	c.block(prog)
	c.code = append(c.code, OpHalt)
	return c.code
}

var commandOps = map[types.Op]byte{
	types.IncCursor: OpRight,
	types.DecCursor: OpLeft,
	types.IncCell:   OpInc,
	types.DecCell:   OpDec,
	types.Output:    OpOut,
	types.Input:     OpIn,
}

func (c *Compiler) block(prog []types.Instruction) {
	for _, in := range prog {
		switch in := in.(type) {
		case types.Command:
			c.code = append(c.code, commandOps[in.Op])
		case *types.Loop:
			c.loop(in)
		}
	}
}

func (c *Compiler) loop(l *types.Loop) {
	entry := len(c.code)
	c.emitJump(OpJumpZ, 0)
	body := len(c.code)
	c.block(l.Body)
	c.emitJump(OpJumpNZ, body)
	// Patch the entry jump now that the loop end is known
	binary.BigEndian.PutUint32(c.code[entry+1:], uint32(len(c.code)))
}

func (c *Compiler) emitJump(op byte, addr int) {
	c.code = append(c.code, op)
	c.code = binary.BigEndian.AppendUint32(c.code, uint32(addr))
}

// Verify checks that code decodes cleanly: no truncated or unknown
// opcodes and jump targets inside the code.
func Verify(code []byte) error {
	for pc := 0; pc < len(code); {
		op := code[pc]
		size := Len(op)
		if pc+size > len(code) {
			return invalid(pc, "truncated %s", OpName(op))
		}
		switch {
		case op == OpHalt, op <= OpIn:
		case op == OpJumpZ, op == OpJumpNZ:
			addr := binary.BigEndian.Uint32(code[pc+1:])
			if uint64(addr) > uint64(len(code)) {
				return invalid(pc, "jump to %04X outside code", addr)
			}
		default:
			return invalid(pc, "unknown opcode %02X", op)
		}
		pc += size
	}
	return nil
}

func invalid(pc int, format string, args ...any) error {
	return &types.Error{
		Code: types.ErrInvalidBytecode,
		Err:  fmt.Errorf("%04X: "+format, append([]any{pc}, args...)...),
	}
}

// Disassemble converts bytecode back to text
func Disassemble(code []byte) string {
	var sb strings.Builder
	pc := 0

	for pc < len(code) {
		op := code[pc]
		sb.WriteString(fmt.Sprintf("%04X: ", pc))

		size := Len(op)
		if pc+size > len(code) {
			sb.WriteString("?? (truncated)\n")
			break
		}

		switch {
		case IsJumpOp(op):
			sb.WriteString(fmt.Sprintf("%s %04X", OpName(op), binary.BigEndian.Uint32(code[pc+1:])))
		case OpName(op) == "?":
			sb.WriteString(fmt.Sprintf("?%02X", op))
		default:
			sb.WriteString(OpName(op))
		}
		pc += size

		sb.WriteString("\n")
	}

	return sb.String()
}

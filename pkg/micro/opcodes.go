// Package micro implements a compact bytecode form of a parsed program and
// a small VM that runs it against a tape.
package micro

// Bytecode encoding:
//
// 0x00-0x1F: 1 byte, single commands
//
// 0xC0-0xDF: 5 bytes [op][addr:u32 big-endian], conditional jumps
//
// 0xF0-0xFF: Special/control

// === 1-byte opcodes (0x00-0x1F) ===
const (
	OpNop   = 0x00 // no operation
	OpRight = 0x01 // move cursor right
	OpLeft  = 0x02 // move cursor left
	OpInc   = 0x03 // increment cell
	OpDec   = 0x04 // decrement cell
	OpOut   = 0x05 // write cell
	OpIn    = 0x06 // read into cell
)

// === 5-byte opcodes (0xC0-0xDF) [op][addr...] ===
const (
	OpJumpZ  = 0xC0 // [addr] loop entry: jump to addr if cell is zero
	OpJumpNZ = 0xC1 // [addr] loop back-edge: jump to addr if cell is nonzero
)

// AddrSize is the width of a jump address.
const AddrSize = 4

// IsJumpOp returns true if opcode carries an address
func IsJumpOp(op byte) bool {
	return op >= 0xC0 && op <= 0xDF
}

// === Special opcodes (0xF0-0xFF) ===
const (
	OpHalt = 0xF0 // halt execution
)

// OpName returns the name of an opcode for debugging
func OpName(op byte) string {
	switch op {
	case OpNop:
		return "nop"
	case OpRight:
		return "right"
	case OpLeft:
		return "left"
	case OpInc:
		return "inc"
	case OpDec:
		return "dec"
	case OpOut:
		return "out"
	case OpIn:
		return "in"
	case OpJumpZ:
		return "jz"
	case OpJumpNZ:
		return "jnz"
	case OpHalt:
		return "halt"
	default:
		return "?"
	}
}

// Len returns the encoded size of an instruction starting with op.
func Len(op byte) int {
	if IsJumpOp(op) {
		return 1 + AddrSize
	}
	return 1
}

// eplic - interpreter for tape languages (Brainfuck and the loop-free sus
// variant) with checked cell arithmetic and a bounded tape.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"

	"github.com/eplic/eplic/pkg/interpreter"
	"github.com/eplic/eplic/pkg/lang"
	"github.com/eplic/eplic/pkg/logs"
	"github.com/eplic/eplic/pkg/micro"
	"github.com/eplic/eplic/pkg/tape"
	"github.com/eplic/eplic/pkg/types"
)

// CLI is the command line of eplic.
type CLI struct {
	Config   kong.ConfigFlag `help:"Load defaults from a YAML configuration file."`
	LogLevel string          `help:"Log level (${enum})." enum:"debug,info,warn,error" default:"warn" env:"EPLIC_LOG_LEVEL"`
	LogFile  string          `help:"Also append JSON logs to this file." type:"path" env:"EPLIC_LOG_FILE"`

	Run     runCmd     `cmd:"" default:"withargs" help:"Run a program file."`
	Check   checkCmd   `cmd:"" help:"Parse a program and report its shape."`
	Fmt     fmtCmd     `cmd:"" help:"Print the canonical form of a program."`
	Compile compileCmd `cmd:"" help:"Compile a program to bytecode."`
	Repl    replCmd    `cmd:"" help:"Start an interactive session."`

	closers []io.Closer
}

// tapeFlags configure the tape and interpreter of a run.
type tapeFlags struct {
	Cells int    `help:"Number of tape cells." default:"2048" env:"EPLIC_CELLS"`
	Width string `help:"Cell width (${enum})." enum:"byte,word" default:"word" env:"EPLIC_WIDTH"`
	Gas   int    `help:"Step budget (0 = unlimited)." default:"0" env:"EPLIC_GAS"`
	Trace bool   `help:"Log every executed instruction at debug level."`
}

func (f *tapeFlags) newInterpreter(log logs.Logger) *interpreter.Interpreter {
	cellMax := uint32(tape.WordMax)
	if f.Width == "byte" {
		cellMax = tape.ByteMax
	}
	interp := interpreter.New(tape.NewSized(f.Cells, cellMax))
	interp.MaxGas = f.Gas
	interp.Gas = f.Gas
	interp.Trace = f.Trace
	interp.Logger = log
	return interp
}

func (f *tapeFlags) newVM(log logs.Logger) *micro.VM {
	interp := f.newInterpreter(log)
	vm := micro.New(interp.Tape)
	vm.MaxGas = interp.MaxGas
	vm.Gas = interp.Gas
	vm.Trace = interp.Trace
	vm.Logger = log
	return vm
}

type runCmd struct {
	Tape tapeFlags `embed:""`

	File   string `arg:"" type:"existingfile" help:"Program file (.b, .bf, .sus or compiled .bfc)."`
	Lang   string `help:"Language (auto picks by extension)." enum:"auto,bf,brainfuck,sus" default:"auto"`
	Engine string `help:"Execution engine (${enum}); .bfc files always use vm." enum:"tree,vm" default:"tree" env:"EPLIC_ENGINE"`
	Dump   bool   `help:"Write a YAML tape snapshot to stderr after the run."`
}

func (c *runCmd) Run(log logs.Logger) error {
	var (
		t   *tape.Tape
		err error
	)
	if c.Engine == "vm" || isBytecode(c.File) {
		vm := c.Tape.newVM(log)
		t = vm.Tape
		err = runCompiled(vm, c.File, c.Lang)
	} else {
		interp := c.Tape.newInterpreter(log)
		t = interp.Tape
		err = runFile(interp, c.File, c.Lang)
	}
	if c.Dump {
		if derr := dumpTape(os.Stderr, t); derr != nil {
			return errors.Join(err, derr)
		}
	}
	return err
}

type checkCmd struct {
	File string `arg:"" type:"existingfile" help:"Program file."`
	Lang string `help:"Language (auto picks by extension)." enum:"auto,bf,brainfuck,sus" default:"auto"`
}

func (c *checkCmd) Run() error {
	prog, _, err := loadFile(c.File, c.Lang)
	if err != nil {
		return err
	}
	s := types.Count(prog)
	fmt.Printf("%s: ok, %s commands, %s loops, depth %d\n", c.File,
		humanize.Comma(int64(s.Commands)), humanize.Comma(int64(s.Loops)), s.Depth)
	return nil
}

type fmtCmd struct {
	File string `arg:"" type:"existingfile" help:"Program file."`
	Lang string `help:"Language (auto picks by extension)." enum:"auto,bf,brainfuck,sus" default:"auto"`
}

func (c *fmtCmd) Run() error {
	prog, l, err := loadFile(c.File, c.Lang)
	if err != nil {
		return err
	}
	fmt.Println(lang.Format(l, prog))
	return nil
}

type compileCmd struct {
	File   string `arg:"" type:"existingfile" help:"Program file."`
	Lang   string `help:"Language (auto picks by extension)." enum:"auto,bf,brainfuck,sus" default:"auto"`
	Output string `short:"o" type:"path" help:"Output file (default: input with .bfc extension)."`
	Disasm bool   `help:"Print the disassembly instead of writing a file."`
}

func (c *compileCmd) Run(log logs.Logger) error {
	code, err := loadBytecode(c.File, c.Lang)
	if err != nil {
		return err
	}
	if c.Disasm {
		fmt.Print(micro.Disassemble(code))
		return nil
	}
	out := c.Output
	if out == "" {
		out = strings.TrimSuffix(c.File, filepath.Ext(c.File)) + bytecodeExt
	}
	if err := os.WriteFile(out, code, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Printf("%s: %s -> %s\n", c.File, humanize.Bytes(uint64(len(code))), out)
	log.Info("compiled", "file", c.File, "output", out, "bytes", len(code))
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("eplic"),
		kong.Description("Interpreter for Brainfuck-family tape languages."),
		kong.UsageOnError(),
		kong.Configuration(yamlConfig, "~/.config/eplic/config.yaml", "eplic.yaml"),
	)

	log, err := cli.logger()
	ctx.FatalIfErrorf(err)
	defer cli.close()

	err = ctx.Run(log)
	if err != nil {
		log.Error("failed", "command", ctx.Command(), "error", err, "kind", errorKind(err))
		cli.close()
	}
	ctx.FatalIfErrorf(err)
}

func (cli *CLI) logger() (logs.Logger, error) {
	level, err := logs.ParseLevel(cli.LogLevel)
	if err != nil {
		return nil, err
	}
	var extra []slog.Handler
	if cli.LogFile != "" {
		h, f, err := logs.OpenFile(cli.LogFile, level)
		if err != nil {
			return nil, err
		}
		cli.closers = append(cli.closers, f)
		extra = append(extra, h)
	}
	return logs.WithRun(logs.New(os.Stderr, level, extra...)), nil
}

func (cli *CLI) close() {
	for _, c := range cli.closers {
		c.Close()
	}
	cli.closers = nil
}

func loadFile(filename, name string) ([]types.Instruction, lang.Language, error) {
	l, err := lang.Lookup(name, filename)
	if err != nil {
		return nil, lang.Unknown, err
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, l, fmt.Errorf("reading %s: %w", filename, err)
	}
	prog, err := lang.Load(l, filename, data)
	if err != nil {
		return nil, l, fmt.Errorf("parse error in %s: %w", filename, err)
	}
	return prog, l, nil
}

func runFile(interp *interpreter.Interpreter, filename, name string) error {
	prog, l, err := loadFile(filename, name)
	if err != nil {
		return err
	}
	interp.Logger.Debug("loaded", "file", filename, "lang", l.String(), "instructions", len(prog))
	if err := interp.Run(prog); err != nil {
		return fmt.Errorf("runtime error in %s: %w", filename, err)
	}
	return nil
}

// bytecodeExt marks files holding compiled bytecode.
const bytecodeExt = ".bfc"

func isBytecode(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), bytecodeExt)
}

// loadBytecode reads a compiled file as is, or compiles a source file.
func loadBytecode(filename, name string) ([]byte, error) {
	if !isBytecode(filename) {
		prog, _, err := loadFile(filename, name)
		if err != nil {
			return nil, err
		}
		return micro.Compile(prog), nil
	}
	code, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	if err := micro.Verify(code); err != nil {
		return nil, fmt.Errorf("loading %s: %w", filename, err)
	}
	return code, nil
}

func runCompiled(vm *micro.VM, filename, name string) error {
	code, err := loadBytecode(filename, name)
	if err != nil {
		return err
	}
	vm.Logger.Debug("loaded", "file", filename, "engine", "vm", "bytes", len(code))
	vm.Load(code)
	if err := vm.Run(); err != nil {
		return fmt.Errorf("runtime error in %s: %w", filename, err)
	}
	return nil
}

func dumpTape(w io.Writer, t *tape.Tape) error {
	out, err := t.Snapshot().YAML()
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func errorKind(err error) string {
	var e *types.Error
	if errors.As(err, &e) {
		return e.Code.Kind().String()
	}
	var code types.ErrorCode
	if errors.As(err, &code) {
		return code.Kind().String()
	}
	return "other"
}

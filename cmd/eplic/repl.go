package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mattn/go-isatty"

	"github.com/eplic/eplic/pkg/interpreter"
	"github.com/eplic/eplic/pkg/logs"
	"github.com/eplic/eplic/pkg/parser"
)

type replCmd struct {
	Tape    tapeFlags `embed:""`
	Quiet   bool      `help:"Quiet mode (no banner)."`
	History string    `help:"History file for interactive sessions." type:"path" env:"EPLIC_HISTORY"`
}

func (c *replCmd) Run(log logs.Logger) error {
	interp := c.Tape.newInterpreter(log)
	r := &repl{
		interp: interp,
		out:    os.Stdout,
		quiet:  c.Quiet,
	}

	fd := os.Stdin.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		r.lines = &bufferedLines{r: bufio.NewReader(os.Stdin), out: os.Stdout}
		return r.run()
	}

	historyFile := c.History
	if historyFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			historyFile = filepath.Join(home, ".eplic_history")
		}
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "BF> ",
		HistoryFile: historyFile,
	})
	if err != nil {
		return err
	}
	defer rl.Close()
	log.Debug("repl", "history", historyFile)
	r.lines = &editedLines{rl: rl}
	r.out = rl.Stdout()
	return r.run()
}

// lineSource yields one line of input per call, without its line ending.
type lineSource interface {
	ReadLine(prompt string) (string, error)
}

// bufferedLines reads lines from a plain stream such as a pipe.
type bufferedLines struct {
	r   *bufio.Reader
	out io.Writer
}

func (b *bufferedLines) ReadLine(prompt string) (string, error) {
	fmt.Fprint(b.out, prompt)
	line, err := b.r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// editedLines reads lines from a terminal with history and line editing.
type editedLines struct {
	rl *readline.Instance
}

func (e *editedLines) ReadLine(prompt string) (string, error) {
	e.rl.SetPrompt(prompt)
	return e.rl.Readline()
}

// programInput feeds a program's input instructions from the session's
// lines, one line (plus newline) at a time.
type programInput struct {
	lines lineSource
	buf   []byte
}

func (p *programInput) Read(b []byte) (int, error) {
	if len(p.buf) == 0 {
		line, err := p.lines.ReadLine("")
		if err != nil {
			return 0, err
		}
		p.buf = []byte(line + "\n")
	}
	n := copy(b, p.buf)
	p.buf = p.buf[n:]
	return n, nil
}

// repl is an interactive session. The tape persists across inputs and
// the program's own input instructions read from the same lines as the
// prompt.
type repl struct {
	interp *interpreter.Interpreter
	lines  lineSource
	out    io.Writer
	quiet  bool
	debug  bool
}

func (r *repl) run() error {
	r.interp.Tape.Input = &programInput{lines: r.lines}
	r.interp.Tape.Output = r.out

	if !r.quiet {
		r.printBanner()
	}

	multiLineBuffer := ""
	bracketDepth := 0

	for {
		prompt := "BF> "
		if multiLineBuffer != "" {
			prompt = "..> "
		}

		line, err := r.lines.ReadLine(prompt)
		if err != nil {
			// EOF or interrupt ends the session
			fmt.Fprintln(r.out)
			return nil
		}

		if multiLineBuffer == "" {
			handled, quit := r.handleCommand(line)
			if quit {
				return nil
			}
			if handled {
				continue
			}
		}

		// Track bracket depth for multi-line input
		for _, ch := range line {
			if ch == '[' {
				bracketDepth++
			} else if ch == ']' {
				bracketDepth--
			}
		}

		multiLineBuffer += line + "\n"

		// A negative depth is an unmatched ']' which the parser reports
		if bracketDepth <= 0 {
			r.execute(multiLineBuffer)
			multiLineBuffer = ""
			bracketDepth = 0
		}
	}
}

func (r *repl) handleCommand(line string) (handled, quit bool) {
	trimmed := strings.TrimSpace(line)

	switch {
	case trimmed == "":
		return true, false

	case trimmed == ":help" || trimmed == ":h" || trimmed == ":?":
		r.printHelp()
		return true, false

	case trimmed == ":quit" || trimmed == ":q" || trimmed == ":exit":
		fmt.Fprintln(r.out, "Goodbye!")
		return true, true

	case trimmed == ":tape" || trimmed == ":t":
		if err := dumpTape(r.out, r.interp.Tape); err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
		}
		return true, false

	case trimmed == ":reset" || trimmed == ":r":
		r.interp.Reset()
		fmt.Fprintln(r.out, "Tape cleared.")
		return true, false

	case trimmed == ":debug" || trimmed == ":d":
		r.debug = !r.debug
		fmt.Fprintf(r.out, "Debug mode: %v\n", r.debug)
		return true, false

	case trimmed == ":load" || trimmed == ":l" || strings.HasPrefix(trimmed, ":load ") || strings.HasPrefix(trimmed, ":l "):
		parts := strings.Fields(trimmed)
		if len(parts) < 2 {
			fmt.Fprintln(r.out, "Usage: :load <filename>")
			return true, false
		}
		if err := runFile(r.interp, parts[1], "auto"); err != nil {
			fmt.Fprintf(r.out, "\nError: %v\n", err)
		}
		return true, false

	case trimmed == ":gas" || strings.HasPrefix(trimmed, ":gas "):
		parts := strings.Fields(trimmed)
		if len(parts) < 2 {
			fmt.Fprintf(r.out, "Gas limit: %d\n", r.interp.MaxGas)
			return true, false
		}
		gas, err := strconv.Atoi(parts[1])
		if err != nil || gas < 0 {
			fmt.Fprintf(r.out, "Invalid gas limit %q\n", parts[1])
			return true, false
		}
		r.interp.MaxGas = gas
		r.interp.Gas = gas
		fmt.Fprintf(r.out, "Gas limit set to %d\n", gas)
		return true, false
	}

	return false, false
}

func (r *repl) execute(source string) {
	prog, err := parser.ParseSource("<repl>", []byte(source))
	if err != nil {
		fmt.Fprintf(r.out, "Parse error: %v\n", err)
		return
	}

	if err := r.interp.Run(prog); err != nil {
		fmt.Fprintf(r.out, "\nError: %v\n", err)
	}

	if r.debug {
		fmt.Fprintf(r.out, "\n  %s\n", r.interp.StateString())
	}
}

func (r *repl) printBanner() {
	fmt.Fprint(r.out, `
eplic - Brainfuck tape interpreter
Type :help for commands, :quit to exit
`)
}

func (r *repl) printHelp() {
	fmt.Fprint(r.out, `
Commands:
  :help, :h, :?    Show this help
  :quit, :q        Exit
  :tape, :t        Show the tape as YAML
  :reset, :r       Clear the tape and refill gas
  :debug, :d       Toggle showing the cursor after each input
  :load <file>     Load and run a file on the current tape
  :gas <n>         Set gas limit (0 = unlimited)

Instructions:
  > <              Move the cursor right / left
  + -              Increment / decrement the current cell
  . ,              Output / input the current cell
  [ ... ]          Loop while the current cell is nonzero
Anything else is a comment. Input spanning lines runs once brackets balance.
`)
}

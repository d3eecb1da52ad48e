package shell

import (
	"bufio"
	"io"
	"strings"

	"github.com/peterh/liner"
)

// Reader reads shell commands one line at a time from a terminal or from
// piped input
type Reader struct {
	prompt prompter
}

type prompter interface {
	Close()
	Prompt(p string) (string, error)
	AppendHistory(line string)
}

// Close frees any resources acquired by this reader
func (r *Reader) Close() {
	r.prompt.Close()
}

// ReadLine returns the next non-blank line with surrounding whitespace
// removed. It returns io.EOF when there is no more input.
func (r *Reader) ReadLine(p string) (string, error) {
	for {
		line, err := r.prompt.Prompt(p)
		line = strings.TrimSpace(line)
		if line != "" {
			r.prompt.AppendHistory(line)
			return line, nil
		}
		if err != nil {
			return "", err
		}
	}
}

// noninteractive prompter just reads lines from its input
type noninteractive struct {
	input *bufio.Reader
}

// NewNonInteractive returns a Reader over in. Useful when commands are
// piped from a file or another program.
func NewNonInteractive(in io.Reader) *Reader {
	return &Reader{prompt: &noninteractive{bufio.NewReader(in)}}
}

func (i *noninteractive) Close() {
}

func (i *noninteractive) Prompt(string) (string, error) {
	return i.input.ReadString('\n')
}

func (i *noninteractive) AppendHistory(string) {
}

// interactive prompter provides line editing, history and completion
type interactive struct {
	line *liner.State
}

// NewInteractive returns a Reader prompting on the terminal
func NewInteractive() *Reader {
	i := &interactive{
		line: liner.NewLiner(),
	}
	i.line.SetCtrlCAborts(true)
	i.line.SetCompleter(complete)
	return &Reader{prompt: i}
}

func (i *interactive) Close() {
	i.line.Close()
}

func (i *interactive) Prompt(p string) (string, error) {
	return i.line.Prompt(p)
}

func (i *interactive) AppendHistory(line string) {
	i.line.AppendHistory(line)
}

func complete(line string) []string {
	var out []string
	for _, c := range commands {
		if strings.HasPrefix("."+c.name, line) {
			out = append(out, "."+c.name+" ")
		}
	}
	return out
}

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompter reads answers for flags that were left empty
type prompter struct {
	in     io.Reader
	out    io.Writer
	reader *bufio.Reader
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: in, out: out, reader: bufio.NewReader(in)}
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	s, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || s == "") {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// password reads without echo when stdin is a terminal
func (p *prompter) password(label string) (string, error) {
	f, ok := p.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p.line(label)
	}
	fmt.Fprintf(p.out, "%s: ", label)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// fill prompts for every empty value in order
func (p *prompter) fill(fields ...promptField) error {
	for _, f := range fields {
		if *f.value != "" {
			continue
		}
		var (
			v   string
			err error
		)
		if f.secret {
			v, err = p.password(f.label)
		} else {
			v, err = p.line(f.label)
		}
		if err != nil {
			return err
		}
		*f.value = v
	}
	return nil
}

type promptField struct {
	label  string
	value  *string
	secret bool
}

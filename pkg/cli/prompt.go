package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/friendsofgo/errors"
)

// prompter reads missing form fields line by line.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// fill returns value if set, otherwise asks for it. Only the line ending is stripped.
func (p *prompter) fill(value string, label string) (string, error) {
	if value != "" {
		return value, nil
	}

	fmt.Fprintf(p.out, "%s: ", label)

	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.Wrapf(err, "failed to read %s", label)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

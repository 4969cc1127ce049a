package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var errPasswordMismatch = errors.New("passwords do not match")

// readPassword reads one line without echo on a terminal and as plain text
// otherwise, so the command also works with piped input.
func readPassword(stdin *os.File, prompt io.Writer, label string) (string, error) {
	if stdin == nil {
		return "", errors.New("stdin unavailable")
	}
	fmt.Fprint(prompt, label)

	fd := int(stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func readNewPassword(stdin *os.File, prompt io.Writer) (string, error) {
	password, err := readPassword(stdin, prompt, "Password: ")
	if err != nil {
		return "", err
	}
	if !term.IsTerminal(int(stdin.Fd())) {
		return password, nil
	}
	confirmation, err := readPassword(stdin, prompt, "Confirm password: ")
	if err != nil {
		return "", err
	}
	if password != confirmation {
		return "", errPasswordMismatch
	}
	return password, nil
}

package console

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Ask prints prompt and returns the trimmed answer.
func (c *Console) Ask(prompt string) (string, error) {
	c.prompt(prompt)
	answer, err := c.br.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && answer != "") {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// Password prompts without echo when in is a terminal.
func (c *Console) Password(prompt string) (string, error) {
	f, ok := c.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return c.Ask(prompt)
	}

	c.prompt(prompt)
	secret, err := term.ReadPassword(int(f.Fd()))
	c.Blank()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(secret), nil
}

// Confirm asks a yes/no question. An empty answer takes the default.
func (c *Console) Confirm(prompt string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	answer, err := c.Ask(prompt + " " + hint)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (c *Console) prompt(prompt string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s %s ", c.cyan.Sprint("?"), prompt)
}

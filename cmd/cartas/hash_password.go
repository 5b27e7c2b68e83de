package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

func hashPasswordCmd() *cli.Command {
	return &cli.Command{
		Name:  "hash-password",
		Usage: "Print the bcrypt hash to use as USER_1_PASSWORD_HASH or USER_2_PASSWORD_HASH",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "cost",
				Usage: "bcrypt cost",
				Value: bcrypt.DefaultCost,
			},
		},
		Action: func(c *cli.Context) error {
			cost := c.Int("cost")
			if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
				return fmt.Errorf("cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
			}

			password, err := readSecret(c.App.Reader, int(os.Stdin.Fd()), c.App.ErrWriter)
			if err != nil {
				return err
			}

			hash, err := bcrypt.GenerateFromPassword(password, cost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			_, err = fmt.Fprintln(c.App.Writer, string(hash))
			return err
		},
	}
}

// readSecret prompts without echo when fd is a terminal and otherwise reads
// the first line of r, so the command also works in pipelines.
func readSecret(r io.Reader, fd int, prompt io.Writer) ([]byte, error) {
	var password []byte
	if isTerminal(fd) {
		fmt.Fprint(prompt, "Password: ")
		pw, err := readPassword(fd)
		fmt.Fprintln(prompt)
		if err != nil {
			return nil, fmt.Errorf("read password: %w", err)
		}
		password = pw
	} else {
		line, err := bufio.NewReader(r).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read password: %w", err)
		}
		password = []byte(strings.TrimRight(line, "\r\n"))
	}

	if len(password) == 0 {
		return nil, errors.New("password is required")
	}
	return password, nil
}

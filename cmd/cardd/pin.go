package main

import (
	"errors"
	"fmt"
	"syscall"

	"golang.org/x/term"
	"golang.org/x/text/unicode/norm"
)

const pinMax = 127

// promptPIN reads a PIN from the interactive terminal without echo. The
// input is NFKD normalized so a PIN typed on different keyboards verifies
// the same way.
func promptPIN(prompt string) ([]byte, error) {
	fmt.Printf("\U0001F513 %s: ", prompt)
	p, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return nil, err
	}

	p = norm.NFKD.Bytes(p)
	if len(p) == 0 {
		return nil, errors.New("empty PIN")
	}
	if len(p) > pinMax {
		return nil, fmt.Errorf("PIN longer than %d characters", pinMax)
	}

	return p, nil
}

package main

import (
	"fmt"
	"os"

	"intentforge/internal/canon"
)

// printCanonical writes v to stdout as canonical JSON plus a trailing
// newline, the wire format every subcommand's result uses.
func printCanonical(v any) error {
	data, err := canon.CanonicalizeFile(v)
	if err != nil {
		return fmt.Errorf("cannot canonicalize result: %w", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}

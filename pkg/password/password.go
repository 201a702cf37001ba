// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package password acquires ATA Security passwords from a file, the
// controlling terminal or standard input.
package password

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/open-source-firmware/go-ata-security/pkg/ata"
	"github.com/open-source-firmware/go-ata-security/pkg/drive"
	"github.com/open-source-firmware/go-ata-security/pkg/hash"
	"golang.org/x/term"
)

var (
	ErrEmpty    = errors.New("zero bytes read")
	ErrTooLong  = errors.New("password too long")
	ErrMismatch = errors.New("passwords don't match")
)

// InputError reports a failure to acquire a password.
type InputError struct {
	Source string
	Err    error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("error trying to read password from %s: %v", e.Source, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Source yields the raw bytes of a password. If confirm is set, interactive
// sources ask for the password twice.
type Source interface {
	ReadPassword(confirm bool) ([]byte, error)
}

// Select picks the source once: the file at path if set, the terminal if
// standard input is one, standard input otherwise. maxLen bounds the
// accepted length; longer input is rejected, never truncated.
func Select(path string, maxLen int) Source {
	if path != "" {
		return &FileSource{Path: path, MaxLen: maxLen}
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return &TerminalSource{Fd: int(os.Stdin.Fd()), Out: os.Stderr, MaxLen: maxLen}
	}
	return &ReaderSource{Name: "standard input", R: os.Stdin, MaxLen: maxLen}
}

// FileSource reads the password verbatim from a file.
type FileSource struct {
	Path   string
	MaxLen int
}

func (s *FileSource) ReadPassword(confirm bool) ([]byte, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, &InputError{Source: s.Path, Err: err}
	}
	defer f.Close()
	b, err := readLimited(f, s.MaxLen)
	if err != nil {
		return nil, &InputError{Source: s.Path, Err: err}
	}
	return b, nil
}

// ReaderSource reads the password verbatim from a non-interactive stream.
type ReaderSource struct {
	Name   string
	R      io.Reader
	MaxLen int
}

func (s *ReaderSource) ReadPassword(confirm bool) ([]byte, error) {
	b, err := readLimited(s.R, s.MaxLen)
	if err != nil {
		return nil, &InputError{Source: s.Name, Err: err}
	}
	return b, nil
}

func readLimited(r io.Reader, maxLen int) ([]byte, error) {
	if maxLen > 0 {
		r = io.LimitReader(r, int64(maxLen)+1)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, ErrEmpty
	}
	if maxLen > 0 && len(b) > maxLen {
		return nil, ErrTooLong
	}
	return b, nil
}

// TerminalSource prompts on the controlling terminal without echo. Empty,
// overlong and mismatching entries are reported and asked for again.
type TerminalSource struct {
	Fd     int
	Out    io.Writer
	MaxLen int

	// read defaults to term.ReadPassword.
	read func(fd int) ([]byte, error)
}

func (s *TerminalSource) prompt(msg string) ([]byte, error) {
	read := s.read
	if read == nil {
		read = term.ReadPassword
	}
	fmt.Fprint(s.Out, msg)
	b, err := read(s.Fd)
	fmt.Fprint(s.Out, "\n")
	if err != nil {
		return nil, &InputError{Source: "terminal", Err: err}
	}
	return b, nil
}

func (s *TerminalSource) ReadPassword(confirm bool) ([]byte, error) {
	for {
		pw, err := s.prompt("Please enter password: ")
		if err != nil {
			return nil, err
		}
		if len(pw) == 0 {
			continue
		}
		if s.MaxLen > 0 && len(pw) > s.MaxLen {
			fmt.Fprintf(s.Out, "Password too long! (at most %d bytes)\n", s.MaxLen)
			continue
		}
		if confirm {
			pw2, err := s.prompt("Enter password again: ")
			if err != nil {
				return nil, err
			}
			if !bytes.Equal(pw, pw2) {
				fmt.Fprintln(s.Out, "Passwords don't match!")
				continue
			}
		}
		return pw, nil
	}
}

// Credential turns a Source into ATA passwords, optionally hashing the
// entered passphrase with the drive serial number as salt.
type Credential struct {
	Source Source
	Hash   hash.Method
}

func (c *Credential) Password(id *drive.Identity, confirm bool) (ata.Password, error) {
	raw, err := c.Source.ReadPassword(confirm)
	if err != nil {
		return ata.Password{}, err
	}
	defer wipe(raw)
	pw, err := hash.Derive(c.Hash, raw, id.SerialNumber)
	if err != nil {
		return ata.Password{}, &InputError{Source: "password", Err: err}
	}
	return pw, nil
}

// MaxLen is the longest passphrase accepted for the given method.
func MaxLen(m hash.Method) int {
	if m == hash.MethodNone || m == "" {
		return ata.PasswordSize
	}
	return 1024
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

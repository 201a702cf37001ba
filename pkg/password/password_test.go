// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package password

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/open-source-firmware/go-ata-security/pkg/drive"
	"github.com/open-source-firmware/go-ata-security/pkg/hash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scripted(entries ...string) func(int) ([]byte, error) {
	return func(int) ([]byte, error) {
		if len(entries) == 0 {
			return nil, io.EOF
		}
		e := entries[0]
		entries = entries[1:]
		return []byte(e), nil
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, b []byte) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, b, 0o600))
		return p
	}

	s := &FileSource{Path: write("ok", []byte("secret\n")), MaxLen: 32}
	got, err := s.ReadPassword(true)
	require.NoError(t, err)
	assert.Equal(t, []byte("secret\n"), got, "file content is used verbatim")

	s = &FileSource{Path: write("exact", bytes.Repeat([]byte{1}, 32)), MaxLen: 32}
	got, err = s.ReadPassword(false)
	require.NoError(t, err)
	assert.Len(t, got, 32)

	s = &FileSource{Path: write("long", bytes.Repeat([]byte{1}, 33)), MaxLen: 32}
	_, err = s.ReadPassword(false)
	assert.ErrorIs(t, err, ErrTooLong)

	s = &FileSource{Path: write("empty", nil), MaxLen: 32}
	_, err = s.ReadPassword(false)
	assert.ErrorIs(t, err, ErrEmpty)

	s = &FileSource{Path: filepath.Join(dir, "missing"), MaxLen: 32}
	_, err = s.ReadPassword(false)
	var ie *InputError
	assert.ErrorAs(t, err, &ie)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReaderSource(t *testing.T) {
	s := &ReaderSource{Name: "stdin", R: strings.NewReader("pw"), MaxLen: 32}
	got, err := s.ReadPassword(false)
	require.NoError(t, err)
	assert.Equal(t, []byte("pw"), got)

	s = &ReaderSource{Name: "stdin", R: strings.NewReader(strings.Repeat("x", 100)), MaxLen: 1024}
	got, err = s.ReadPassword(false)
	require.NoError(t, err)
	assert.Len(t, got, 100)

	s = &ReaderSource{Name: "stdin", R: strings.NewReader(""), MaxLen: 32}
	_, err = s.ReadPassword(false)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestTerminalSourceRetries(t *testing.T) {
	var out bytes.Buffer
	s := &TerminalSource{
		Out:    &out,
		MaxLen: 8,
		read:   scripted("", "waytoolongpassword", "abc", "abd", "abc", "abc"),
	}
	got, err := s.ReadPassword(true)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
	assert.Contains(t, out.String(), "Password too long!")
	assert.Contains(t, out.String(), "Passwords don't match!")
}

func TestTerminalSourceWithoutConfirmation(t *testing.T) {
	s := &TerminalSource{Out: io.Discard, MaxLen: 32, read: scripted("abc")}
	got, err := s.ReadPassword(false)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestTerminalSourceReadError(t *testing.T) {
	s := &TerminalSource{Out: io.Discard, MaxLen: 32, read: scripted()}
	_, err := s.ReadPassword(false)
	assert.ErrorIs(t, err, io.EOF)
}

type fixedSource struct {
	b   []byte
	err error
}

func (f *fixedSource) ReadPassword(confirm bool) ([]byte, error) {
	return f.b, f.err
}

func TestCredential(t *testing.T) {
	id := &drive.Identity{SerialNumber: "S2RBNB0HA12200B"}

	c := &Credential{Source: &fixedSource{b: []byte("dummy")}, Hash: hash.MethodNone}
	pw, err := c.Password(id, false)
	require.NoError(t, err)
	assert.Equal(t, append([]byte("dummy"), make([]byte, 27)...), pw[:])

	c = &Credential{Source: &fixedSource{b: []byte("dummy")}, Hash: hash.MethodDTA}
	pw, err = c.Password(id, false)
	require.NoError(t, err)
	assert.Equal(t, hash.HashSedutilDTA([]byte("dummy"), id.SerialNumber), pw[:])

	srcErr := errors.New("boom")
	c = &Credential{Source: &fixedSource{err: srcErr}}
	_, err = c.Password(id, false)
	assert.ErrorIs(t, err, srcErr)
}

func TestMaxLen(t *testing.T) {
	assert.Equal(t, 32, MaxLen(hash.MethodNone))
	assert.Equal(t, 32, MaxLen(""))
	assert.Greater(t, MaxLen(hash.MethodSHA512), 32)
}

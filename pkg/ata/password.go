// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ata

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	PasswordSize = 32
	PayloadSize  = 36
)

var (
	ErrEmptyPassword   = errors.New("password is empty")
	ErrPasswordTooLong = fmt.Errorf("password is longer than %d bytes", PasswordSize)
)

// Role selects which of the two ATA Security passwords a command refers to.
type Role int

const (
	RoleUser Role = iota
	RoleMaster
)

func (r Role) String() string {
	if r == RoleMaster {
		return "master"
	}
	return "user"
}

// Level is the security level configured together with the user password.
type Level int

const (
	LevelHigh Level = iota
	LevelMaximum
)

func (l Level) String() string {
	if l == LevelMaximum {
		return "maximum"
	}
	return "high"
}

// Password is an ATA Security password. It never prints its content.
type Password [PasswordSize]byte

// NewPassword zero-pads b to PasswordSize bytes. Empty input and input longer
// than PasswordSize are rejected rather than truncated.
func NewPassword(b []byte) (Password, error) {
	var p Password
	if len(b) == 0 {
		return p, ErrEmptyPassword
	}
	if len(b) > PasswordSize {
		return p, ErrPasswordTooLong
	}
	copy(p[:], b)
	return p, nil
}

func (p Password) String() string {
	return "[REDACTED]"
}

func (p Password) GoString() string {
	return "ata.Password{[REDACTED]}"
}

// Wipe zeroes the password in place.
func (p *Password) Wipe() {
	*p = Password{}
}

// Payload is the parameter block of SET PASSWORD, UNLOCK, ERASE UNIT and
// DISABLE PASSWORD.
//
//	bytes 0-1   control word (LE): bit 0 role, bit 8 level / enhanced erase
//	bytes 2-33  password
//	bytes 34-35 master password identifier (LE), SET PASSWORD master only
type Payload [PayloadSize]byte

const (
	controlMaster   uint16 = 1 << 0
	controlMaximum  uint16 = 1 << 8
	controlEnhanced uint16 = 1 << 8
)

func (p Payload) String() string {
	return fmt.Sprintf("ata.Payload{control: 0x%04x, password: [REDACTED], identifier: 0x%04x}",
		p.Control(), p.Identifier())
}

func (p Payload) GoString() string {
	return p.String()
}

// Control returns the control word.
func (p *Payload) Control() uint16 {
	return binary.LittleEndian.Uint16(p[0:2])
}

// Identifier returns the master password identifier field.
func (p *Payload) Identifier() uint16 {
	return binary.LittleEndian.Uint16(p[34:36])
}

// Wipe zeroes the payload in place.
func (p *Payload) Wipe() {
	*p = Payload{}
}

func encode(pw *Password, control uint16, id uint16) Payload {
	var p Payload
	binary.LittleEndian.PutUint16(p[0:2], control)
	copy(p[2:34], pw[:])
	binary.LittleEndian.PutUint16(p[34:36], id)
	return p
}

// EncodeUserPassword builds the SET PASSWORD payload for the user password.
func EncodeUserPassword(pw *Password, level Level) Payload {
	var control uint16
	if level == LevelMaximum {
		control |= controlMaximum
	}
	return encode(pw, control, 0)
}

// EncodeMasterPassword builds the SET PASSWORD payload for the master
// password, including its revision identifier.
func EncodeMasterPassword(pw *Password, id uint16) Payload {
	return encode(pw, controlMaster, id)
}

// EncodeCredential builds the UNLOCK and DISABLE PASSWORD payload.
func EncodeCredential(pw *Password, role Role) Payload {
	var control uint16
	if role == RoleMaster {
		control |= controlMaster
	}
	return encode(pw, control, 0)
}

// EncodeErase builds the ERASE UNIT payload.
func EncodeErase(pw *Password, role Role, enhanced bool) Payload {
	var control uint16
	if role == RoleMaster {
		control |= controlMaster
	}
	if enhanced {
		control |= controlEnhanced
	}
	return encode(pw, control, 0)
}

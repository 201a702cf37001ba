// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hash

import (
	"crypto/sha1"
	"crypto/sha512"
	"fmt"

	"github.com/open-source-firmware/go-ata-security/pkg/ata"
	"golang.org/x/crypto/pbkdf2"
)

// Method selects how an entered passphrase becomes the 32 byte ATA password.
type Method string

const (
	// MethodNone uses the passphrase bytes as they are (zero-padded).
	MethodNone Method = "none"
	// MethodDTA matches https://github.com/Drive-Trust-Alliance/sedutil/
	MethodDTA Method = "dta"
	// MethodSHA512 matches https://github.com/ChubbyAnt/sedutil/
	MethodSHA512 Method = "sha512"
)

func sedutilSalt(serial string) []byte {
	salt := fmt.Sprintf("%-20s", serial)
	return []byte(salt[:20])
}

func HashSedutilDTA(password []byte, serial string) []byte {
	return pbkdf2.Key(password, sedutilSalt(serial), 75000, ata.PasswordSize, sha1.New)
}

func HashSedutil512(password []byte, serial string) []byte {
	return pbkdf2.Key(password, sedutilSalt(serial), 500000, ata.PasswordSize, sha512.New)
}

// Derive turns passphrase into an ATA password. serial is the drive serial
// number used as salt by the PBKDF2 methods.
func Derive(m Method, passphrase []byte, serial string) (ata.Password, error) {
	switch m {
	case MethodNone, "":
		return ata.NewPassword(passphrase)
	case MethodDTA, "sha1", "sedutil-dta":
		if len(passphrase) == 0 {
			return ata.Password{}, ata.ErrEmptyPassword
		}
		return ata.NewPassword(HashSedutilDTA(passphrase, serial))
	case MethodSHA512, "sedutil-sha512":
		if len(passphrase) == 0 {
			return ata.Password{}, ata.ErrEmptyPassword
		}
		return ata.NewPassword(HashSedutil512(passphrase, serial))
	}
	return ata.Password{}, fmt.Errorf("unknown hash method %q", m)
}

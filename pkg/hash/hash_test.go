package hash

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/open-source-firmware/go-ata-security/pkg/ata"
)

func TestSedutilHashCompatibility(t *testing.T) {
	got := HashSedutilDTA([]byte("dummy"), "S2RBNB0HA12200B")
	want := []byte{
		0x4f, 0x2a, 0xcc, 0xfd, 0x1a, 0x17, 0x64, 0xdc, 0x5b, 0x5b, 0xb3, 0x8f, 0x40, 0xf9, 0x06, 0x8d,
		0x2d, 0x1a, 0x1f, 0x6d, 0xd5, 0x39, 0x27, 0x07, 0xde, 0xa1, 0x4c, 0x3b, 0xb7, 0xde, 0xea, 0xcc,
	}
	if !bytes.Equal(want, got) {
		t.Errorf("Unexpected PBKDF2 hash, got %s want %s", hex.EncodeToString(got), hex.EncodeToString(want))
	}
}

func TestSedutilSha512(t *testing.T) {
	got := HashSedutil512([]byte("dummy"), "S2RBNB0HA12200B")
	want := []byte{
		85, 196, 70, 116, 162, 150, 160, 93, 174, 31, 202, 3, 60, 245, 89, 141, 90, 6,
		213, 174, 233, 186, 186, 106, 59, 233, 12, 222, 253, 226, 174, 42,
	}
	if !bytes.Equal(want, got) {
		t.Errorf("Unexpected PBKDF2 hash, got %s want %s", hex.EncodeToString(got), hex.EncodeToString(want))
	}
}

func TestDerive(t *testing.T) {
	pw, err := Derive(MethodNone, []byte("abc"), "ignored")
	if err != nil {
		t.Fatalf("Derive(none) failed: %v", err)
	}
	if want := append([]byte("abc"), make([]byte, 29)...); !bytes.Equal(pw[:], want) {
		t.Errorf("Derive(none) = %x; want %x", pw[:], want)
	}

	pw, err = Derive(MethodDTA, []byte("dummy"), "S2RBNB0HA12200B")
	if err != nil {
		t.Fatalf("Derive(dta) failed: %v", err)
	}
	if want := HashSedutilDTA([]byte("dummy"), "S2RBNB0HA12200B"); !bytes.Equal(pw[:], want) {
		t.Errorf("Derive(dta) = %x; want %x", pw[:], want)
	}

	// Long passphrases are fine once hashed.
	if _, err := Derive(MethodDTA, bytes.Repeat([]byte("x"), 64), "SN"); err != nil {
		t.Errorf("Derive(dta, 64 bytes) failed: %v", err)
	}
	if _, err := Derive(MethodNone, bytes.Repeat([]byte("x"), 64), "SN"); err != ata.ErrPasswordTooLong {
		t.Errorf("Derive(none, 64 bytes) error = %v; want %v", err, ata.ErrPasswordTooLong)
	}
	if _, err := Derive(MethodDTA, nil, "SN"); err != ata.ErrEmptyPassword {
		t.Errorf("Derive(dta, empty) error = %v; want %v", err, ata.ErrEmptyPassword)
	}
	if _, err := Derive("md5", []byte("x"), "SN"); err == nil {
		t.Error("Derive(md5) succeeded; want error")
	}
}

package cmdutil

import (
	"github.com/open-source-firmware/go-ata-security/pkg/hash"
	"github.com/open-source-firmware/go-ata-security/pkg/password"
)

// PasswordEmbed holds the password acquisition flags shared by the
// commands that need a password.
type PasswordEmbed struct {
	PasswordFile string `optional:"" short:"i" type:"existingfile" placeholder:"FILE" help:"Read the password from FILE instead of the terminal or stdin"`
	Hash         string `optional:"" env:"HASH" default:"none" enum:"none,dta,sha512,sedutil-dta,sedutil-sha512,sha1" help:"Derive the password from the entered passphrase with PBKDF2 salted by the drive serial (sedutil compatible). 'none' uses the passphrase as is."`
}

// Credential selects the password source once and returns the credential
// the security operations consume.
func (t *PasswordEmbed) Credential() *password.Credential {
	m := hash.Method(t.Hash)
	return &password.Credential{
		Source: password.Select(t.PasswordFile, password.MaxLen(m)),
		Hash:   m,
	}
}

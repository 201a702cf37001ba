package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/open-source-firmware/go-ata-security/pkg/ata"
	"github.com/open-source-firmware/go-ata-security/pkg/cmdutil"
	"github.com/open-source-firmware/go-ata-security/pkg/drive"
	"github.com/open-source-firmware/go-ata-security/pkg/security"
)

// context is the context struct required by kong command line parser
type context struct {
	log zerolog.Logger

	// open defaults to drive.Open
	open func(device string) (drive.DriveIntf, error)
	out  io.Writer
}

func (c *context) openDrive(device string) (drive.DriveIntf, error) {
	open := c.open
	if open == nil {
		open = drive.Open
	}
	d, err := open(device)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", device, err)
	}
	return d, nil
}

func (c *context) stdout() io.Writer {
	if c.out == nil {
		return os.Stdout
	}
	return c.out
}

type deviceArg struct {
	Device string `arg:"" required:"" type:"existingfile" help:"Path to NVMe controller (e.g. /dev/nvme0)"`
}

type roleFlags struct {
	User   bool `short:"u" xor:"role" required:"" help:"Specify the user password"`
	Master bool `short:"m" xor:"role" required:"" help:"Specify the master password"`
}

func (r roleFlags) role() ata.Role {
	if r.Master {
		return ata.RoleMaster
	}
	return ata.RoleUser
}

type queryCmd struct {
	Output string `optional:"" short:"o" default:"text" enum:"text,json" help:"Output format; one of [text, json]"`
	Dump   bool   `optional:"" help:"Dump the decoded structures"`
	deviceArg
}

type setPasswordCmd struct {
	User   bool `short:"u" xor:"role" required:"" help:"Set the user password"`
	Master bool `short:"m" xor:"role" required:"" help:"Set the master password"`
	High   bool `xor:"level" help:"Configure high security (user password only)"`
	Max    bool `xor:"level" help:"Configure maximum security (user password only)"`
	ID     int  `name:"id" default:"-1" help:"Master password identifier (master password only)"`
	cmdutil.PasswordEmbed
	deviceArg
}

type unlockCmd struct {
	roleFlags
	cmdutil.PasswordEmbed
	deviceArg
}

type disablePasswordCmd struct {
	roleFlags
	cmdutil.PasswordEmbed
	deviceArg
}

type eraseCmd struct {
	roleFlags
	Enhanced bool `help:"Perform an enhanced security erase"`
	cmdutil.PasswordEmbed
	deviceArg
}

type freezeCmd struct {
	deviceArg
}

// cli is the main command line interface struct required by kong command line parser
var cli struct {
	cmdutil.LogLevelEmbed
	Config kong.ConfigFlag `optional:"" help:"Load flag defaults from a YAML file"`

	Query           queryCmd           `cmd:"" help:"Show identity, security protocols and ATA security state"`
	SetPassword     setPasswordCmd     `cmd:"" help:"Set the user or master password"`
	Unlock          unlockCmd          `cmd:"" help:"Unlock the drive and reset the controller"`
	DisablePassword disablePasswordCmd `cmd:"" help:"Remove the user password"`
	Erase           eraseCmd           `cmd:"" help:"Erase the drive with SECURITY ERASE UNIT"`
	Freeze          freezeCmd          `cmd:"" help:"Freeze the security configuration until the next power cycle"`
}

// Validate enforces the combinations kong tags cannot express.
func (s *setPasswordCmd) Validate() error {
	if s.User {
		if !s.High && !s.Max {
			return fmt.Errorf("--user requires one of --high or --max")
		}
		if s.ID != -1 {
			return fmt.Errorf("--id is only valid with --master")
		}
	}
	if s.Master {
		if s.High || s.Max {
			return fmt.Errorf("--high and --max are only valid with --user")
		}
		if s.ID < 0 || s.ID > 0xffff {
			return fmt.Errorf("--master requires --id in the range 0-65535")
		}
	}
	return nil
}

// perform runs one mutating operation and reports its outcome.
func perform(ctx *context, device string, what ata.Operation, op func(d drive.DriveIntf) error) error {
	d, err := ctx.openDrive(device)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx.log.Info().Str("device", device).Msgf("Performing %s...", what)
	if err := op(d); err != nil {
		var ue *security.UnsupportedError
		if errors.As(err, &ue) {
			ctx.log.Warn().Str("device", device).Msg(ue.Error())
			return fmt.Errorf("%s not performed: %w", what, err)
		}
		return fmt.Errorf("there was an error executing the command: %w", err)
	}
	ctx.log.Debug().Str("device", device).Msgf("%s completed", what)
	color.New(color.FgGreen).Fprintln(os.Stderr, "Success!")
	return nil
}

func (q *queryCmd) Run(ctx *context) error {
	d, err := ctx.openDrive(q.Device)
	if err != nil {
		return err
	}
	defer d.Close()

	st, qerr := security.Query(d)
	var ue *security.UnsupportedError
	if qerr != nil && !errors.As(qerr, &ue) {
		return fmt.Errorf("query failed: %w", qerr)
	}

	out := ctx.stdout()
	switch {
	case q.Dump:
		spew.Fdump(out, st)
	case q.Output == "json":
		if err := writeJSON(out, q.Device, st, ue); err != nil {
			return err
		}
	default:
		writeText(out, st)
	}

	if ue != nil {
		ctx.log.Warn().Str("device", q.Device).Msg(ue.Error())
	} else if !st.Supported() {
		ctx.log.Warn().Str("device", q.Device).Msg(security.StageATASecurityFeature.String())
	}
	return nil
}

func writeText(w io.Writer, st *security.State) {
	if id := st.Identity; id != nil {
		fmt.Fprintf(w, "vid:ssvid: %04x:%04x\n", id.VendorID, id.SubsystemVendorID)
		fmt.Fprintf(w, "model:     %s\n", id.Model)
		fmt.Fprintf(w, "serial:    %s\n", id.SerialNumber)
		fmt.Fprintf(w, "firmware:  %s\n", id.Firmware)
		fmt.Fprintf(w, "oacs:      %s\n", id.OACS)
	}
	if st.Protocols != nil {
		names := make([]string, 0, len(st.Protocols))
		for _, p := range st.Protocols {
			names = append(names, p.String())
		}
		fmt.Fprintf(w, "protocols: [%s]\n", strings.Join(names, ", "))
	}
	if s := st.Status; s != nil {
		fmt.Fprintf(w, "ata security: erase time: %s, enhanced erase time: %s, master pwd id: %04x, maxset: %v\n",
			s.EraseTime, s.EnhancedEraseTime, s.MasterPasswordID, s.Flags.MaximumLevel())
		fmt.Fprintf(w, "  supported: %v enabled: %v locked: %v frozen: %v attempts exceeded: %v enhanced erase: %v\n",
			s.Flags.Supported(), s.Flags.Enabled(), s.Flags.Locked(), s.Flags.Frozen(),
			s.Flags.AttemptsExceeded(), s.Flags.EnhancedEraseSupported())
	}
}

type jsonStatus struct {
	Supported              bool   `json:"supported"`
	Enabled                bool   `json:"enabled"`
	Locked                 bool   `json:"locked"`
	Frozen                 bool   `json:"frozen"`
	AttemptsExceeded       bool   `json:"attempts_exceeded"`
	EnhancedEraseSupported bool   `json:"enhanced_erase_supported"`
	MaximumLevel           bool   `json:"maximum_level"`
	EraseTime              string `json:"erase_time"`
	EnhancedEraseTime      string `json:"enhanced_erase_time"`
	MasterPasswordID       uint16 `json:"master_password_id"`
}

type jsonState struct {
	Device      string          `json:"device"`
	Identity    *drive.Identity `json:"identity,omitempty"`
	Protocols   []string        `json:"protocols,omitempty"`
	Status      *jsonStatus     `json:"ata_security,omitempty"`
	Unsupported string          `json:"unsupported,omitempty"`
}

func writeJSON(w io.Writer, device string, st *security.State, ue *security.UnsupportedError) error {
	js := jsonState{Device: device, Identity: st.Identity}
	for _, p := range st.Protocols {
		js.Protocols = append(js.Protocols, p.String())
	}
	if s := st.Status; s != nil {
		js.Status = &jsonStatus{
			Supported:              s.Flags.Supported(),
			Enabled:                s.Flags.Enabled(),
			Locked:                 s.Flags.Locked(),
			Frozen:                 s.Flags.Frozen(),
			AttemptsExceeded:       s.Flags.AttemptsExceeded(),
			EnhancedEraseSupported: s.Flags.EnhancedEraseSupported(),
			MaximumLevel:           s.Flags.MaximumLevel(),
			EraseTime:              s.EraseTime.String(),
			EnhancedEraseTime:      s.EnhancedEraseTime.String(),
			MasterPasswordID:       s.MasterPasswordID,
		}
	}
	if ue != nil {
		js.Unsupported = ue.Error()
	}
	b, err := json.MarshalIndent(js, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %v", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func (s *setPasswordCmd) Run(ctx *context) error {
	return perform(ctx, s.Device, ata.OperationSetPassword, func(d drive.DriveIntf) error {
		if s.Master {
			return security.SetMasterPassword(d, s.Credential(), uint16(s.ID))
		}
		level := ata.LevelHigh
		if s.Max {
			level = ata.LevelMaximum
		}
		return security.SetUserPassword(d, s.Credential(), level)
	})
}

func (u *unlockCmd) Run(ctx *context) error {
	return perform(ctx, u.Device, ata.OperationUnlock, func(d drive.DriveIntf) error {
		return security.Unlock(d, u.Credential(), u.role())
	})
}

func (p *disablePasswordCmd) Run(ctx *context) error {
	return perform(ctx, p.Device, ata.OperationDisablePassword, func(d drive.DriveIntf) error {
		return security.DisablePassword(d, p.Credential(), p.role())
	})
}

func (e *eraseCmd) Run(ctx *context) error {
	return perform(ctx, e.Device, ata.OperationEraseUnit, func(d drive.DriveIntf) error {
		return security.Erase(d, e.Credential(), e.role(), e.Enhanced)
	})
}

func (f *freezeCmd) Run(ctx *context) error {
	return perform(ctx, f.Device, ata.OperationFreezeLock, func(d drive.DriveIntf) error {
		return security.FreezeLock(d)
	})
}

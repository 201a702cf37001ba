// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package security implements the user-facing ATA Security operations on top
// of the Security Send/Receive tunnel.
//
// Every operation re-reads identity, protocol list and ATA Security status
// from the device; nothing is cached between calls. Callers must serialize
// operations on a drive. No command is ever retried: repeating a command
// with a wrong password counts against the device's attempt limit.
package security

import (
	"errors"

	"github.com/open-source-firmware/go-ata-security/pkg/ata"
	"github.com/open-source-firmware/go-ata-security/pkg/drive"
)

// Drive is the device command primitive the operations are built on.
type Drive interface {
	drive.SendReceive
	drive.Identify
	drive.Resetter
}

// Credential supplies the password of a mutating operation. It is consulted
// after the drive was confirmed to support ATA Security and before the first
// mutating command.
type Credential interface {
	Password(id *drive.Identity, confirm bool) (ata.Password, error)
}

// State is the result of the read-only probe. Fields are filled in probe
// order and stay nil past the first unsupported stage.
type State struct {
	Identity  *drive.Identity
	Protocols []drive.SecurityProtocol
	Status    *ata.Status
}

// Supported reports whether the ATA Security feature set is usable.
func (s *State) Supported() bool {
	return s.Status != nil && s.Status.Flags.Supported()
}

func probe(d Drive) (*State, error) {
	st := &State{}

	raw, err := d.ReadIdentity()
	if err != nil {
		return st, &StepError{Step: StepIdentify, Err: err}
	}
	st.Identity = drive.DecodeIdentity(raw)

	st.Protocols, err = drive.SecurityProtocols(d, st.Identity)
	if errors.Is(err, drive.ErrNotSupported) {
		return st, &UnsupportedError{Stage: StageSecurityCommands}
	} else if err != nil {
		return st, &StepError{Step: StepProtocols, Err: err}
	}

	st.Status, err = ata.ReadStatus(d, st.Protocols)
	if errors.Is(err, drive.ErrNotSupported) {
		return st, &UnsupportedError{Stage: StageATASecurityProtocol}
	} else if err != nil {
		return st, &StepError{Step: StepStatus, Err: err}
	}
	return st, nil
}

// Query performs the read-only probe. It never issues a Security Send.
//
// If a stage finds ATA Security missing, the partial state is returned
// together with an *UnsupportedError. A device that implements the protocol
// but reports the feature set as unsupported is not an error here; check
// State.Supported.
func Query(d Drive) (*State, error) {
	return probe(d)
}

func checkSupport(d Drive) (*State, error) {
	st, err := probe(d)
	if err != nil {
		return st, err
	}
	if !st.Status.Flags.Supported() {
		return st, &UnsupportedError{Stage: StageATASecurityFeature}
	}
	return st, nil
}

func readPassword(c Credential, st *State, confirm bool) (ata.Password, error) {
	pw, err := c.Password(st.Identity, confirm)
	if err != nil {
		return ata.Password{}, &StepError{Step: StepPassword, Err: err}
	}
	return pw, nil
}

func send(d Drive, op ata.Operation, p *ata.Payload) error {
	if p == nil {
		return d.IFSend(drive.SecurityProtocolATASecurity, uint16(op), nil)
	}
	return d.IFSend(drive.SecurityProtocolATASecurity, uint16(op), p[:])
}

// SetUserPassword sets the user password and the security level.
func SetUserPassword(d Drive, c Credential, level ata.Level) error {
	st, err := checkSupport(d)
	if err != nil {
		return err
	}
	pw, err := readPassword(c, st, true)
	if err != nil {
		return err
	}
	defer pw.Wipe()

	p := ata.EncodeUserPassword(&pw, level)
	defer p.Wipe()
	if err := send(d, ata.OperationSetPassword, &p); err != nil {
		return &StepError{Step: StepSetPassword, Err: err}
	}
	return nil
}

// SetMasterPassword sets the master password and its identifier.
func SetMasterPassword(d Drive, c Credential, id uint16) error {
	st, err := checkSupport(d)
	if err != nil {
		return err
	}
	pw, err := readPassword(c, st, true)
	if err != nil {
		return err
	}
	defer pw.Wipe()

	p := ata.EncodeMasterPassword(&pw, id)
	defer p.Wipe()
	if err := send(d, ata.OperationSetPassword, &p); err != nil {
		return &StepError{Step: StepSetPassword, Err: err}
	}
	return nil
}

// Unlock unlocks the drive and then resets the controller. The unlock only
// takes effect once the controller has been re-initialized.
func Unlock(d Drive, c Credential, role ata.Role) error {
	st, err := checkSupport(d)
	if err != nil {
		return err
	}
	pw, err := readPassword(c, st, false)
	if err != nil {
		return err
	}
	defer pw.Wipe()

	p := ata.EncodeCredential(&pw, role)
	defer p.Wipe()
	if err := send(d, ata.OperationUnlock, &p); err != nil {
		return &StepError{Step: StepUnlock, Err: err}
	}
	if err := d.ResetController(); err != nil {
		return &StepError{Step: StepReset, Err: err}
	}
	return nil
}

// DisablePassword removes the user password, disabling ATA Security.
func DisablePassword(d Drive, c Credential, role ata.Role) error {
	st, err := checkSupport(d)
	if err != nil {
		return err
	}
	pw, err := readPassword(c, st, false)
	if err != nil {
		return err
	}
	defer pw.Wipe()

	p := ata.EncodeCredential(&pw, role)
	defer p.Wipe()
	if err := send(d, ata.OperationDisablePassword, &p); err != nil {
		return &StepError{Step: StepDisablePassword, Err: err}
	}
	return nil
}

// Erase runs ERASE PREPARE immediately followed by ERASE UNIT. Any other
// security command in between would cancel the prepared state, so the
// password is acquired before ERASE PREPARE.
func Erase(d Drive, c Credential, role ata.Role, enhanced bool) error {
	st, err := checkSupport(d)
	if err != nil {
		return err
	}
	pw, err := readPassword(c, st, true)
	if err != nil {
		return err
	}
	defer pw.Wipe()

	p := ata.EncodeErase(&pw, role, enhanced)
	defer p.Wipe()
	if err := send(d, ata.OperationErasePrepare, nil); err != nil {
		return &StepError{Step: StepErasePrepare, Err: err}
	}
	if err := send(d, ata.OperationEraseUnit, &p); err != nil {
		return &StepError{Step: StepEraseUnit, Err: err}
	}
	return nil
}

// FreezeLock freezes the security configuration until the next power cycle.
func FreezeLock(d Drive) error {
	if _, err := checkSupport(d); err != nil {
		return err
	}
	if err := send(d, ata.OperationFreezeLock, nil); err != nil {
		return &StepError{Step: StepFreezeLock, Err: err}
	}
	return nil
}

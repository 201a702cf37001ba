// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ata

import (
	"encoding/binary"
	"fmt"

	"github.com/open-source-firmware/go-ata-security/pkg/drive"
)

// StatusSize is the length of the ATA Security status response.
const StatusSize = 16

// SecurityFlags is word 0 of the ATA Security status response. The bit
// positions follow IDENTIFY DEVICE word 128 of the ATA command set.
type SecurityFlags uint16

const (
	FlagSupported              SecurityFlags = 1 << 0
	FlagEnabled                SecurityFlags = 1 << 1
	FlagLocked                 SecurityFlags = 1 << 2
	FlagFrozen                 SecurityFlags = 1 << 3
	FlagAttemptsExceeded       SecurityFlags = 1 << 4
	FlagEnhancedEraseSupported SecurityFlags = 1 << 5
	FlagMaximumLevel           SecurityFlags = 1 << 8
)

func (f SecurityFlags) Supported() bool              { return f&FlagSupported != 0 }
func (f SecurityFlags) Enabled() bool                { return f&FlagEnabled != 0 }
func (f SecurityFlags) Locked() bool                 { return f&FlagLocked != 0 }
func (f SecurityFlags) Frozen() bool                 { return f&FlagFrozen != 0 }
func (f SecurityFlags) AttemptsExceeded() bool       { return f&FlagAttemptsExceeded != 0 }
func (f SecurityFlags) EnhancedEraseSupported() bool { return f&FlagEnhancedEraseSupported != 0 }

// MaximumLevel reports whether the security level is Maximum (as opposed to High).
func (f SecurityFlags) MaximumLevel() bool { return f&FlagMaximumLevel != 0 }

// EraseTime is an erase time estimate as reported by the device.
type EraseTime uint16

// EraseTimeMax is the value meaning "508 minutes or more".
const EraseTimeMax EraseTime = 255

// Minutes returns the estimate in minutes. ok is false if the device did not
// specify a time. For EraseTimeMax the lower bound of 508 is returned.
func (e EraseTime) Minutes() (minutes int, ok bool) {
	switch {
	case e == 0:
		return 0, false
	case e >= EraseTimeMax:
		return 508, true
	}
	return int(e) * 2, true
}

func (e EraseTime) String() string {
	m, ok := e.Minutes()
	switch {
	case !ok:
		return "not specified"
	case e >= EraseTimeMax:
		return fmt.Sprintf(">= %d min", m)
	}
	return fmt.Sprintf("%d min", m)
}

// Status is the decoded ATA Security status.
type Status struct {
	Flags             SecurityFlags
	EraseTime         EraseTime
	EnhancedEraseTime EraseTime
	MasterPasswordID  uint16
}

// DecodeStatus decodes the 16 byte ATA Security status response. Words are
// little-endian; bytes 8 to 15 are reserved.
func DecodeStatus(raw *[StatusSize]byte) *Status {
	return &Status{
		Flags:             SecurityFlags(binary.LittleEndian.Uint16(raw[0:2])),
		EraseTime:         EraseTime(binary.LittleEndian.Uint16(raw[2:4])),
		EnhancedEraseTime: EraseTime(binary.LittleEndian.Uint16(raw[4:6])),
		MasterPasswordID:  binary.LittleEndian.Uint16(raw[6:8]),
	}
}

// ReadStatus reads and decodes the ATA Security status. If ATA Security is
// not in protocols, drive.ErrNotSupported is returned and no command is issued.
func ReadStatus(d drive.SendReceive, protocols []drive.SecurityProtocol) (*Status, error) {
	if !drive.HasProtocol(protocols, drive.SecurityProtocolATASecurity) {
		return nil, drive.ErrNotSupported
	}
	raw := make([]byte, StatusSize)
	if err := d.IFRecv(drive.SecurityProtocolATASecurity, uint16(OperationInformation), &raw); err != nil {
		return nil, fmt.Errorf("failed to read ATA security status: %w", err)
	}
	if len(raw) < StatusSize {
		return nil, fmt.Errorf("short ATA security status response (%d bytes)", len(raw))
	}
	return DecodeStatus((*[StatusSize]byte)(raw)), nil
}

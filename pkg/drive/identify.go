// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package drive

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// IdentifyControllerSize is the size of the NVMe Identify Controller data structure (CNS 01h).
const IdentifyControllerSize = 4096

// IdentifyData is the raw Identify Controller data structure.
type IdentifyData [IdentifyControllerSize]byte

// Byte offsets into the Identify Controller data structure.
const (
	offVendorID          = 0
	offSubsystemVendorID = 2
	offSerialNumber      = 4
	offModelNumber       = 24
	offFirmware          = 64
	offOACS              = 256

	lenSerialNumber = 20
	lenModelNumber  = 40
	lenFirmware     = 8
)

// AdminCommandSupport is the Optional Admin Command Support (OACS) field.
type AdminCommandSupport uint16

const (
	OACSSecurity             AdminCommandSupport = 1 << 0
	OACSFormatNVM            AdminCommandSupport = 1 << 1
	OACSFirmware             AdminCommandSupport = 1 << 2
	OACSNamespaceManagement  AdminCommandSupport = 1 << 3
	OACSDeviceSelfTest       AdminCommandSupport = 1 << 4
	OACSDirectives           AdminCommandSupport = 1 << 5
	OACSNVMeMI               AdminCommandSupport = 1 << 6
	OACSVirtualization       AdminCommandSupport = 1 << 7
	OACSDoorbellBufferConfig AdminCommandSupport = 1 << 8
	OACSGetLBAStatus         AdminCommandSupport = 1 << 9
)

var oacsNames = []struct {
	bit  AdminCommandSupport
	name string
}{
	{OACSSecurity, "SECURITY"},
	{OACSFormatNVM, "FORMAT"},
	{OACSFirmware, "FIRMWARE"},
	{OACSNamespaceManagement, "NS_MGMT"},
	{OACSDeviceSelfTest, "SELF_TEST"},
	{OACSDirectives, "DIRECTIVES"},
	{OACSNVMeMI, "NVME_MI"},
	{OACSVirtualization, "VIRT_MGMT"},
	{OACSDoorbellBufferConfig, "DBBUF_CFG"},
	{OACSGetLBAStatus, "GET_LBA_STATUS"},
}

// Security reports whether Security Send and Security Receive are implemented.
func (o AdminCommandSupport) Security() bool {
	return o&OACSSecurity != 0
}

func (o AdminCommandSupport) String() string {
	var names []string
	rest := o
	for _, n := range oacsNames {
		if o&n.bit != 0 {
			names = append(names, n.name)
			rest &^= n.bit
		}
	}
	if rest != 0 {
		names = append(names, fmt.Sprintf("0x%04x", uint16(rest)))
	}
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, " | ")
}

// Identity is the decoded subset of the Identify Controller data structure.
type Identity struct {
	Protocol          string
	VendorID          uint16
	SubsystemVendorID uint16
	SerialNumber      string
	Model             string
	Firmware          string
	OACS              AdminCommandSupport
}

func (i *Identity) String() string {
	return fmt.Sprintf("Protocol=%s, VID:SSVID=%04x:%04x, Model=%s, Serial=%s, Firmware=%s",
		i.Protocol, i.VendorID, i.SubsystemVendorID, i.Model, i.SerialNumber, i.Firmware)
}

// DecodeIdentity extracts the identity fields from an Identify Controller buffer.
func DecodeIdentity(raw *IdentifyData) *Identity {
	return &Identity{
		Protocol:          "NVMe",
		VendorID:          binary.LittleEndian.Uint16(raw[offVendorID:]),
		SubsystemVendorID: binary.LittleEndian.Uint16(raw[offSubsystemVendorID:]),
		SerialNumber:      asciiField(raw[offSerialNumber : offSerialNumber+lenSerialNumber]),
		Model:             asciiField(raw[offModelNumber : offModelNumber+lenModelNumber]),
		Firmware:          asciiField(raw[offFirmware : offFirmware+lenFirmware]),
		OACS:              AdminCommandSupport(binary.LittleEndian.Uint16(raw[offOACS:])),
	}
}

// asciiField trims the space (and occasionally NUL) padding of fixed-width identify strings.
func asciiField(b []byte) string {
	return strings.TrimRight(string(b), " \x00")
}

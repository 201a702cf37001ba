// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package drive

import (
	"errors"
	"fmt"
)

var (
	ErrNotSupported       = errors.New("operation is not supported")
	ErrDeviceNotSupported = errors.New("device is not supported")
)

// SecurityProtocol is the SECP field of Security Send / Security Receive.
type SecurityProtocol uint8

const (
	SecurityProtocolInformation   SecurityProtocol = 0x00
	SecurityProtocolTCGManagement SecurityProtocol = 0x01
	SecurityProtocolTCGTPer       SecurityProtocol = 0x02
	SecurityProtocolNVMe          SecurityProtocol = 0xEA
	SecurityProtocolJEDECUFS      SecurityProtocol = 0xEC
	SecurityProtocolSDCard        SecurityProtocol = 0xED
	SecurityProtocolIEEE1667      SecurityProtocol = 0xEE
	SecurityProtocolATASecurity   SecurityProtocol = 0xEF
)

var protocolNames = map[SecurityProtocol]string{
	SecurityProtocolInformation:   "Security Protocol Information",
	SecurityProtocolTCGManagement: "TCG Management",
	SecurityProtocolTCGTPer:       "TCG TPer",
	SecurityProtocolNVMe:          "NVMe",
	SecurityProtocolJEDECUFS:      "JEDEC UFS",
	SecurityProtocolSDCard:        "SDcard TrustedFlash",
	SecurityProtocolIEEE1667:      "IEEE 1667",
	SecurityProtocolATASecurity:   "ATA Security",
}

func (p SecurityProtocol) String() string {
	if n, ok := protocolNames[p]; ok {
		return fmt.Sprintf("%s (0x%02x)", n, uint8(p))
	}
	return fmt.Sprintf("Other (0x%02x)", uint8(p))
}

type DriveIntf interface {
	SendReceive
	Identify
	Resetter
	Closer
}

// SendReceive tunnels security protocol payloads. A nil data slice on
// IFSend issues the command without a data transfer.
type SendReceive interface {
	IFRecv(proto SecurityProtocol, sps uint16, data *[]byte) error
	IFSend(proto SecurityProtocol, sps uint16, data []byte) error
}

type Identify interface {
	ReadIdentity() (*IdentifyData, error)
}

type Resetter interface {
	ResetController() error
}

type Closer interface {
	Close() error
}

// HasProtocol reports whether p is present in the list.
func HasProtocol(list []SecurityProtocol, p SecurityProtocol) bool {
	for _, e := range list {
		if e == p {
			return true
		}
	}
	return false
}

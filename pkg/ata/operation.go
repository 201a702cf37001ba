// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Implements the ATA Device Server Password Security protocol (security
// protocol 0xEF) as tunneled through Security Send / Security Receive.

package ata

import "fmt"

// Operation is the Security Protocol Specific field selecting the ATA
// Security command carried by a Security Send.
type Operation uint16

const (
	// Security Receive only: read the ATA Security status.
	OperationInformation Operation = 0x0000

	OperationSetPassword     Operation = 0x0001
	OperationUnlock          Operation = 0x0002
	OperationErasePrepare    Operation = 0x0003
	OperationEraseUnit       Operation = 0x0004
	OperationFreezeLock      Operation = 0x0005
	OperationDisablePassword Operation = 0x0006
)

func (o Operation) String() string {
	switch o {
	case OperationInformation:
		return "SECURITY INFORMATION"
	case OperationSetPassword:
		return "SECURITY SET PASSWORD"
	case OperationUnlock:
		return "SECURITY UNLOCK"
	case OperationErasePrepare:
		return "SECURITY ERASE PREPARE"
	case OperationEraseUnit:
		return "SECURITY ERASE UNIT"
	case OperationFreezeLock:
		return "SECURITY FREEZE LOCK"
	case OperationDisablePassword:
		return "SECURITY DISABLE PASSWORD"
	}
	return fmt.Sprintf("Operation(0x%04x)", uint16(o))
}

// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package security

import (
	"errors"
	"fmt"
)

// ErrUnsupported matches every *UnsupportedError.
var ErrUnsupported = errors.New("ATA security is not supported")

// Stage is a step of the read-only probe that precedes every operation.
type Stage int

const (
	// The controller does not implement Security Send/Receive.
	StageSecurityCommands Stage = iota
	// Security Send/Receive work but do not carry the ATA Security protocol.
	StageATASecurityProtocol
	// The ATA Security protocol reports the feature set as not supported.
	StageATASecurityFeature
)

func (s Stage) String() string {
	switch s {
	case StageSecurityCommands:
		return "This drive does not support NVMe security commands."
	case StageATASecurityProtocol:
		return "This drive does not support ATA security commands."
	case StageATASecurityFeature:
		return "This drive does not support ATA security."
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// UnsupportedError names the first probe stage that found ATA Security missing.
type UnsupportedError struct {
	Stage Stage
}

func (e *UnsupportedError) Error() string {
	return e.Stage.String()
}

func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported
}

// Step names a device interaction, for error reporting.
type Step string

const (
	StepIdentify        Step = "identify controller"
	StepProtocols       Step = "enumerate security protocols"
	StepStatus          Step = "read ATA security status"
	StepPassword        Step = "read password"
	StepSetPassword     Step = "SECURITY SET PASSWORD"
	StepUnlock          Step = "SECURITY UNLOCK"
	StepReset           Step = "controller reset"
	StepErasePrepare    Step = "SECURITY ERASE PREPARE"
	StepEraseUnit       Step = "SECURITY ERASE UNIT"
	StepFreezeLock      Step = "SECURITY FREEZE LOCK"
	StepDisablePassword Step = "SECURITY DISABLE PASSWORD"
)

// StepError is a failure of one step of an operation. Steps after it were
// not attempted.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

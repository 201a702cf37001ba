// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package drive

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/dswarbrick/smart/ioctl"
	"golang.org/x/sys/unix"
)

const (
	NVME_ADMIN_IDENTIFY = 0x06
	NVME_SECURITY_SEND  = 0x81
	NVME_SECURITY_RECV  = 0x82

	// _IO('N', 0x44)
	NVME_IOCTL_RESET = 0x4e44

	nvmeIdentifyCNSController = 0x01
)

var NVME_IOCTL_ADMIN_CMD = ioctl.Iowr('N', 0x41, unsafe.Sizeof(nvmePassthruCommand{}))

// ErrNotController is returned by ResetController when the handle refers to
// a namespace block device instead of the controller character device.
var ErrNotController = errors.New("controller reset requires the NVMe controller character device (e.g. /dev/nvme0)")

// CommandError carries a non-zero NVMe completion status.
type CommandError struct {
	Opcode uint8
	Status uint16
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("NVMe admin command 0x%02x failed: status code type 0x%x, status code 0x%02x (raw 0x%04x)",
		e.Opcode, (e.Status>>8)&0x7, e.Status&0xff, e.Status)
}

// Defined in <linux/nvme_ioctl.h>
type nvmePassthruCommand struct {
	opcode       uint8
	flags        uint8  //nolint:structcheck,unused
	rsvd1        uint16 //nolint:structcheck,unused
	nsid         uint32
	cdw2         uint32 //nolint:structcheck,unused
	cdw3         uint32 //nolint:structcheck,unused
	metadata     uint64 //nolint:structcheck,unused
	addr         uint64
	metadata_len uint32 //nolint:structcheck,unused
	data_len     uint32
	cdw10        uint32
	cdw11        uint32
	cdw12        uint32 //nolint:structcheck,unused
	cdw13        uint32 //nolint:structcheck,unused
	cdw14        uint32 //nolint:structcheck,unused
	cdw15        uint32 //nolint:structcheck,unused
	timeout_ms   uint32 //nolint:structcheck,unused
	result       uint32 //nolint:structcheck,unused
}

type nvmeAdminCommand nvmePassthruCommand

type nvmeDrive struct {
	fd      FdIntf
	isCtrlr bool
}

// adminCommand submits cmd and maps a positive ioctl return value, which is
// the NVMe status field, to a CommandError.
func adminCommand(fd FdIntf, cmd *nvmeAdminCommand) error {
	r1, _, errno := unix.Syscall(unix.SYS_IOCTL, fd.Fd(), NVME_IOCTL_ADMIN_CMD, uintptr(unsafe.Pointer(cmd)))
	runtime.KeepAlive(fd)
	if errno != 0 {
		return errno
	}
	if r1 != 0 {
		return &CommandError{Opcode: cmd.opcode, Status: uint16(r1)}
	}
	return nil
}

func securityCDW10(proto SecurityProtocol, sps uint16) uint32 {
	return uint32(proto)<<24 | uint32(sps)<<8
}

func (d *nvmeDrive) IFRecv(proto SecurityProtocol, sps uint16, data *[]byte) error {
	if len(*data) == 0 {
		return fmt.Errorf("security receive requires a non-empty buffer")
	}
	cmd := nvmeAdminCommand{
		opcode:   NVME_SECURITY_RECV,
		nsid:     0,
		addr:     uint64(uintptr(unsafe.Pointer(&(*data)[0]))),
		data_len: uint32(len(*data)),
		cdw10:    securityCDW10(proto, sps),
		cdw11:    uint32(len(*data)),
	}
	err := adminCommand(d.fd, &cmd)
	runtime.KeepAlive(data)
	return err
}

func (d *nvmeDrive) IFSend(proto SecurityProtocol, sps uint16, data []byte) error {
	cmd := nvmeAdminCommand{
		opcode: NVME_SECURITY_SEND,
		nsid:   0,
		cdw10:  securityCDW10(proto, sps),
	}
	if len(data) > 0 {
		cmd.addr = uint64(uintptr(unsafe.Pointer(&data[0])))
		cmd.data_len = uint32(len(data))
		cmd.cdw11 = uint32(len(data))
	}
	err := adminCommand(d.fd, &cmd)
	runtime.KeepAlive(data)
	return err
}

func (d *nvmeDrive) ReadIdentity() (*IdentifyData, error) {
	return identifyNvme(d.fd)
}

// ResetController asks the kernel to reset the NVMe controller. The driver
// re-initializes the controller, which makes it re-evaluate its lock state.
func (d *nvmeDrive) ResetController() error {
	if !d.isCtrlr {
		return ErrNotController
	}
	err := ioctl.Ioctl(d.fd.Fd(), NVME_IOCTL_RESET, 0)
	runtime.KeepAlive(d.fd)
	return err
}

func (d *nvmeDrive) Close() error {
	return d.fd.Close()
}

func NVMEDrive(fd FdIntf) *nvmeDrive {
	// Save the full object reference to avoid the underlying File-like object
	// to be GC'd
	return &nvmeDrive{fd: fd, isCtrlr: isCharDevice(fd)}
}

func identifyNvme(fd FdIntf) (*IdentifyData, error) {
	raw := new(IdentifyData)

	cmd := nvmeAdminCommand{
		opcode:   NVME_ADMIN_IDENTIFY,
		nsid:     0, // Namespace 0, since we are identifying the controller
		addr:     uint64(uintptr(unsafe.Pointer(&raw[0]))),
		data_len: uint32(len(raw)),
		cdw10:    nvmeIdentifyCNSController,
	}
	if err := adminCommand(fd, &cmd); err != nil {
		return nil, err
	}
	runtime.KeepAlive(raw)
	return raw, nil
}

func isCharDevice(fd FdIntf) bool {
	var st unix.Stat_t
	if err := unix.Fstat(int(fd.Fd()), &st); err != nil {
		return false
	}
	return st.Mode&unix.S_IFMT == unix.S_IFCHR
}

func isNVME(f FdIntf) bool {
	i, err := identifyNvme(f)
	return err == nil && i != nil
}

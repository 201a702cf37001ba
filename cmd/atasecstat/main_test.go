package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-source-firmware/go-ata-security/pkg/ata"
	"github.com/open-source-firmware/go-ata-security/pkg/drive"
)

type fakeDrive struct {
	security  bool
	protocols []byte
	status    [ata.StatusSize]byte
	sends     int
	closed    bool
}

func (d *fakeDrive) ReadIdentity() (*drive.IdentifyData, error) {
	raw := new(drive.IdentifyData)
	copy(raw[4:24], "S123                ")
	copy(raw[24:64], "Test NVMe")
	copy(raw[64:72], "1.0")
	if d.security {
		binary.LittleEndian.PutUint16(raw[256:], uint16(drive.OACSSecurity))
	}
	return raw, nil
}

func (d *fakeDrive) IFRecv(proto drive.SecurityProtocol, sps uint16, data *[]byte) error {
	buf := *data
	for i := range buf {
		buf[i] = 0
	}
	switch proto {
	case drive.SecurityProtocolInformation:
		binary.BigEndian.PutUint16(buf[6:], uint16(len(d.protocols)))
		copy(buf[8:], d.protocols)
	case drive.SecurityProtocolATASecurity:
		copy(buf, d.status[:])
	}
	return nil
}

func (d *fakeDrive) IFSend(proto drive.SecurityProtocol, sps uint16, data []byte) error {
	d.sends++
	return nil
}

func (d *fakeDrive) ResetController() error { return nil }

func (d *fakeDrive) Close() error {
	d.closed = true
	return nil
}

func lockedDrive() *fakeDrive {
	d := &fakeDrive{security: true, protocols: []byte{0x00, 0xef}}
	binary.LittleEndian.PutUint16(d.status[0:], uint16(ata.FlagSupported|ata.FlagEnabled|ata.FlagLocked))
	binary.LittleEndian.PutUint16(d.status[2:], 30)
	return d
}

func opener(d *fakeDrive) openFunc {
	return func(string) (drive.DriveIntf, error) { return d, nil }
}

var nopLog = zerolog.New(io.Discard)

func TestStateFlags(t *testing.T) {
	tests := []struct {
		flags ata.SecurityFlags
		want  string
	}{
		{0, "-"},
		{ata.FlagSupported, "s"},
		{ata.FlagSupported | ata.FlagEnabled, "S"},
		{ata.FlagSupported | ata.FlagEnabled | ata.FlagLocked, "SL"},
		{ata.FlagSupported | ata.FlagFrozen | ata.FlagEnhancedEraseSupported, "sFE"},
		{ata.FlagSupported | ata.FlagEnabled | ata.FlagAttemptsExceeded | ata.FlagMaximumLevel, "SXM"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stateFlags(&ata.Status{Flags: tt.flags}), "flags 0x%04x", uint16(tt.flags))
	}
	assert.Equal(t, "-", stateFlags(nil))
}

func TestProbeDevice(t *testing.T) {
	d := lockedDrive()
	s, ok := probeDevice(nopLog, "/dev/nvme0", opener(d))
	require.True(t, ok)
	assert.Equal(t, "/dev/nvme0", s.Device)
	assert.Equal(t, "Test NVMe", s.Identity.Model)
	assert.Equal(t, []drive.SecurityProtocol{0x00, 0xef}, s.Protocols)
	require.NotNil(t, s.Status)
	assert.True(t, s.Status.Flags.Locked())
	assert.Empty(t, s.Unsupported)
	assert.Zero(t, d.sends)
	assert.True(t, d.closed)
}

func TestProbeDeviceUnsupported(t *testing.T) {
	d := &fakeDrive{}
	s, ok := probeDevice(nopLog, "/dev/nvme1", opener(d))
	require.True(t, ok)
	assert.Nil(t, s.Status)
	assert.Equal(t, "This drive does not support NVMe security commands.", s.Unsupported)
	assert.Zero(t, d.sends)
}

func TestProbeDeviceOpenFailure(t *testing.T) {
	_, ok := probeDevice(nopLog, "/dev/nvme2", func(string) (drive.DriveIntf, error) {
		return nil, errors.New("permission denied")
	})
	assert.False(t, ok)
}

func TestCollectMissingNodes(t *testing.T) {
	dir := t.TempDir()
	assert.Nil(t, collect(nopLog, dir+"/missing", opener(lockedDrive())))
}

func TestOutputTable(t *testing.T) {
	s, ok := probeDevice(nopLog, "/dev/nvme0", opener(lockedDrive()))
	require.True(t, ok)

	var buf bytes.Buffer
	outputTable(&buf, Devices{s}, true)
	out := buf.String()
	assert.Contains(t, out, "DEVICE")
	assert.Contains(t, out, "Test NVMe")
	assert.Contains(t, out, "00,ef")
	assert.Contains(t, out, "60 min")
	assert.Contains(t, out, "SL")

	buf.Reset()
	outputTable(&buf, Devices{s}, false)
	assert.NotContains(t, buf.String(), "DEVICE")
}

func TestOutputMetrics(t *testing.T) {
	locked, ok := probeDevice(nopLog, "/dev/nvme0", opener(lockedDrive()))
	require.True(t, ok)
	plain, ok := probeDevice(nopLog, "/dev/nvme1", opener(&fakeDrive{}))
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, outputMetrics(&buf, Devices{locked, plain}))
	out := buf.String()
	assert.Contains(t, out, `ata_security_supported{device="/dev/nvme0"} 1`)
	assert.Contains(t, out, `ata_security_supported{device="/dev/nvme1"} 0`)
	assert.Contains(t, out, `ata_security_state{device="/dev/nvme0",flag="locked"} 1`)
	assert.Contains(t, out, `ata_security_state{device="/dev/nvme0",flag="frozen"} 0`)
	assert.Contains(t, out, `ata_security_erase_time_minutes{device="/dev/nvme0",mode="normal"} 60`)
	assert.NotContains(t, out, `mode="enhanced"`)
	assert.NotContains(t, out, `ata_security_state{device="/dev/nvme1"`)
}

func TestOutputJSON(t *testing.T) {
	s, ok := probeDevice(nopLog, "/dev/nvme0", opener(lockedDrive()))
	require.True(t, ok)
	var buf bytes.Buffer
	require.NoError(t, outputJSON(&buf, Devices{s}))
	assert.Contains(t, buf.String(), `"Device": "/dev/nvme0"`)
	assert.NotContains(t, buf.String(), `"Unsupported"`)
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/open-source-firmware/go-ata-security/pkg/ata"
	"github.com/open-source-firmware/go-ata-security/pkg/cmdutil"
	"github.com/open-source-firmware/go-ata-security/pkg/drive"
	"github.com/open-source-firmware/go-ata-security/pkg/security"
)

const sysClassNVMe = "/sys/class/nvme"

const stateHelp = `The following state flags might be shown:
  S/s - ATA security is supported and a password is set (S) or not (s)
  L   - The drive is locked
  F   - The security configuration is frozen
  X   - The password attempt limit was exceeded
  E   - Enhanced erase is supported
  M   - The user password was set with maximum security
`

var cli struct {
	cmdutil.LogLevelEmbed
	Output   string `optional:"" short:"o" default:"table" enum:"table,json,openmetrics" help:"Output format; one of [table, json, openmetrics]"`
	NoHeader bool   `optional:"" help:"Supress the header in table format output"`
}

type DeviceState struct {
	Device      string
	Identity    *drive.Identity
	Protocols   []drive.SecurityProtocol
	Status      *ata.Status
	Unsupported string `json:",omitempty"`
}

type Devices []DeviceState

func main() {
	kong.Parse(&cli,
		kong.Name("atasecstat"),
		kong.Description("List the ATA security state of all NVMe controllers.\n\n"+stateHelp),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}))
	log := cmdutil.NewLogger(cli.LogLevel)

	state := collect(log, sysClassNVMe, drive.Open)

	var err error
	switch cli.Output {
	case "json":
		err = outputJSON(os.Stdout, state)
	case "openmetrics":
		err = outputMetrics(os.Stdout, state)
	default:
		outputTable(os.Stdout, state, !cli.NoHeader)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to write output")
	}
}

type openFunc func(device string) (drive.DriveIntf, error)

// collect probes every controller listed under sysdir. Devices that cannot
// be opened or identified are logged and skipped.
func collect(log zerolog.Logger, sysdir string, open openFunc) Devices {
	entries, err := os.ReadDir(sysdir)
	if err != nil {
		log.Error().Err(err).Msg("Failed to enumerate NVMe controllers")
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var state Devices
	for _, name := range names {
		devpath := filepath.Join("/dev", name)
		if _, err := os.Stat(devpath); os.IsNotExist(err) {
			log.Warn().Str("device", devpath).Msg("Failed to find device node")
			continue
		}
		s, ok := probeDevice(log, devpath, open)
		if ok {
			state = append(state, s)
		}
	}
	return state
}

func probeDevice(log zerolog.Logger, devpath string, open openFunc) (DeviceState, bool) {
	d, err := open(devpath)
	if err != nil {
		log.Warn().Err(err).Str("device", devpath).Msg("drive.Open failed")
		return DeviceState{}, false
	}
	defer d.Close()

	st, err := security.Query(d)
	var ue *security.UnsupportedError
	if errors.As(err, &ue) {
		log.Debug().Str("device", devpath).Msg(ue.Error())
		return DeviceState{
			Device:      devpath,
			Identity:    st.Identity,
			Protocols:   st.Protocols,
			Unsupported: ue.Error(),
		}, true
	} else if err != nil {
		log.Warn().Err(err).Str("device", devpath).Msg("security.Query failed")
		return DeviceState{}, false
	}
	return DeviceState{
		Device:    devpath,
		Identity:  st.Identity,
		Protocols: st.Protocols,
		Status:    st.Status,
	}, true
}

func outputJSON(w io.Writer, state Devices) error {
	b, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = w.Write(b)
	return err
}

// stateFlags renders the ATA security flags as the single letter codes
// listed in stateHelp.
func stateFlags(s *ata.Status) string {
	if s == nil || !s.Flags.Supported() {
		return "-"
	}
	f := s.Flags
	state := "s"
	if f.Enabled() {
		state = "S"
	}
	if f.Locked() {
		state += "L"
	}
	if f.Frozen() {
		state += "F"
	}
	if f.AttemptsExceeded() {
		state += "X"
	}
	if f.EnhancedEraseSupported() {
		state += "E"
	}
	if f.MaximumLevel() {
		state += "M"
	}
	return state
}

func protocolList(ps []drive.SecurityProtocol) string {
	if len(ps) == 0 {
		return "-"
	}
	ids := make([]string, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, fmt.Sprintf("%02x", uint8(p)))
	}
	return strings.Join(ids, ",")
}

func outputTable(out io.Writer, state Devices, header bool) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	if header {
		fmt.Fprintf(w, "DEVICE\tMODEL\tSERIAL\tFIRMWARE\tPROTOCOLS\tERASE\tSTATE\n")
	}
	for _, s := range state {
		erase := "-"
		if s.Status != nil {
			erase = s.Status.EraseTime.String()
		}
		fmt.Fprint(w,
			s.Device, "\t",
			s.Identity.Model, "\t",
			s.Identity.SerialNumber, "\t",
			s.Identity.Firmware, "\t",
			protocolList(s.Protocols), "\t",
			erase, "\t",
			stateFlags(s.Status), "\t",
			"\n")
	}
	w.Flush()
}

package main

import (
	"github.com/alecthomas/kong"

	"github.com/open-source-firmware/go-ata-security/pkg/cmdutil"
)

const (
	programName = "nvme-ata-security"
	programDesc = "Configure ATA security on NVMe drives"
)

func main() {
	// Parse kong flags and sub-commands
	ctx := kong.Parse(&cli,
		kong.Name(programName),
		kong.Description(programDesc),
		kong.UsageOnError(),
		kong.Configuration(cmdutil.YAMLLoader, cmdutil.ConfigPaths...),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	// Run the command
	err := ctx.Run(&context{log: cmdutil.NewLogger(cli.LogLevel)})
	ctx.FatalIfErrorf(err)
}

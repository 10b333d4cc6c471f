// Package cli contains the eeprom command line tool.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	flagConfig  = "config"
	flagDebug   = "debug"
	flagLogFile = "log-file"
	flagAddress = "address"
	flagValue   = "value"
	flagStart   = "start"
	flagCount   = "count"
	flagPattern = "pattern"
)

var addressFlag = &cli.UintFlag{
	Name:     flagAddress,
	Aliases:  []string{"a"},
	Usage:    "unit address; masked to the chip's address width",
	Required: true,
}

var rangeFlags = []cli.Flag{
	&cli.IntFlag{
		Name:  flagStart,
		Usage: "first address",
	},
	&cli.IntFlag{
		Name:        flagCount,
		Usage:       "number of units",
		DefaultText: "up to the end of the chip",
		Value:       -1,
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "eeprom93cx6",
		Usage:           "read and program 93C46/56/66/76/86 serial EEPROMs",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagConfig,
				Aliases:  []string{"c"},
				Usage:    "load configuration from `FILE`",
				EnvVars:  []string{"EEPROM93CX6_CONFIG"},
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging, including every frame sent to the chip",
			},
			&cli.PathFlag{
				Name:  flagLogFile,
				Usage: "also write logs to `FILE`, rotated every 10MB",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "schema",
				Usage:  "print the JSON schema of the config file",
				Action: SchemaAction,
			},
			{
				Name:   "info",
				Usage:  "print the chip geometry and the board it is wired to",
				Action: InfoAction,
			},
			{
				Name:   "read",
				Usage:  "read one unit",
				Flags:  []cli.Flag{addressFlag},
				Action: ReadAction,
			},
			{
				Name:   "dump",
				Usage:  "read a range of units and print them as a table",
				Flags:  rangeFlags,
				Action: DumpAction,
			},
			{
				Name:  "write",
				Usage: "write one unit",
				Flags: []cli.Flag{
					addressFlag,
					&cli.UintFlag{
						Name:     flagValue,
						Usage:    "value to store; bits above the word width are dropped",
						Required: true,
					},
				},
				Action: WriteAction,
			},
			{
				Name:  "write-all",
				Usage: "store one value in every unit",
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:     flagValue,
						Usage:    "value to store; bits above the word width are dropped",
						Required: true,
					},
				},
				Action: WriteAllAction,
			},
			{
				Name:   "erase",
				Usage:  "erase one unit to all ones",
				Flags:  []cli.Flag{addressFlag},
				Action: EraseAction,
			},
			{
				Name:   "erase-all",
				Usage:  "erase every unit to all ones",
				Action: EraseAllAction,
			},
			{
				Name:  "fill",
				Usage: "write a test pattern over a range and print what reads back",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  flagPattern,
						Usage: "one of " + patternNames(),
						Value: string(patternAscending),
					},
				}, rangeFlags...),
				Action: FillAction,
			},
		},
	}
}

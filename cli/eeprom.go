package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/eeprom93cx6/components/board"
	"go.viam.com/eeprom93cx6/components/eeprom"
	"go.viam.com/eeprom93cx6/config"
	"go.viam.com/eeprom93cx6/logging"
	"go.viam.com/eeprom93cx6/utils"

	// register the board models.
	_ "go.viam.com/eeprom93cx6/components/board/register"
)

// eepromClient holds one opened chip for the duration of a command.
type eepromClient struct {
	c      *cli.Context
	conf   *config.Config
	board  board.Board
	device *eeprom.Device
	logger logging.Logger
	// logFile is nil unless --log-file was given.
	logFile *logging.FileAppender
}

// newLogger builds the command logger. Without --debug nothing reaches stdout; warnings and errors
// still go to the log file, if any.
func newLogger(c *cli.Context) (logging.Logger, *logging.FileAppender) {
	logger := logging.NewBlankLogger("eeprom93cx6")
	logger.SetLevel(logging.WARN)
	if c.Bool(flagDebug) {
		logger = logging.NewDebugLogger("eeprom93cx6")
		c.Context = logging.EnableDebugMode(c.Context, c.Command.Name)
	}
	var logFile *logging.FileAppender
	if path := c.Path(flagLogFile); path != "" {
		logFile = logging.NewFileAppender(path, 10)
		logger.AddAppender(logFile)
	}
	return logger, logFile
}

func newEEPROMClient(c *cli.Context) (*eepromClient, error) {
	path := c.String(flagConfig)
	if path == "" {
		return nil, errors.New("a config file is required, pass --config or set EEPROM93CX6_CONFIG")
	}
	logger, logFile := newLogger(c)
	closeLog := func(err error) error {
		if logFile == nil {
			return err
		}
		return multierr.Combine(err, logFile.Close())
	}

	conf, err := config.Read(c.Context, path, logger)
	if err != nil {
		return nil, closeLog(err)
	}
	b, err := board.NewBoard(c.Context, conf.Board, logger)
	if err != nil {
		return nil, closeLog(err)
	}
	device, err := eeprom.Open(c.Context, b, &conf.EEPROM, logger.Sublogger("eeprom"))
	if err != nil {
		return nil, closeLog(multierr.Combine(err, b.Close(c.Context)))
	}
	return &eepromClient{
		c:       c,
		conf:    conf,
		board:   b,
		device:  device,
		logger:  logger,
		logFile: logFile,
	}, nil
}

func (ec *eepromClient) close() error {
	err := multierr.Combine(ec.board.Close(ec.c.Context), ec.logger.Sync())
	if ec.logFile != nil {
		err = multierr.Combine(err, ec.logFile.Close())
	}
	return err
}

// withClient opens the chip named by the config, runs fn and closes the board again.
func withClient(c *cli.Context, fn func(ec *eepromClient) error) (err error) {
	ec, err := newEEPROMClient(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, ec.close())
	}()
	return fn(ec)
}

// writeEnabled brackets fn with EWEN and EWDS. The chip is disabled again even if fn fails.
func (ec *eepromClient) writeEnabled(ctx context.Context, fn func() error) (err error) {
	if err := ec.device.Enable(ctx); err != nil {
		return errors.Wrap(err, "cannot enable writes")
	}
	defer utils.SlowLogger(ctx, clock.New(), "chip is still being programmed", ec.logger,
		"command", ec.c.Command.Name, "model", ec.device.Profile().Model.String())()
	defer func() {
		err = multierr.Combine(err, ec.device.Disable(ctx))
	}()
	return fn()
}

// rangeArgs resolves --start and --count against the chip capacity.
func (ec *eepromClient) rangeArgs() (int, int, error) {
	start := ec.c.Int(flagStart)
	count := ec.c.Int(flagCount)
	if count < 0 {
		count = ec.device.Capacity() - start
	}
	if start < 0 || start >= ec.device.Capacity() {
		return 0, 0, errors.Errorf("start %d is outside of the %d unit array", start, ec.device.Capacity())
	}
	return start, count, nil
}

func (ec *eepromClient) value() (uint16, error) {
	value := ec.c.Uint(flagValue)
	if value > uint(ec.device.Profile().WordMask()) {
		ec.logger.Warnw("value is wider than the chip's word, upper bits are dropped",
			"value", value, "word_bits", ec.device.Profile().WordBits())
	}
	if value > 0xFFFF {
		return 0, errors.Errorf("value %#x does not fit in 16 bits", value)
	}
	return uint16(value), nil
}

// SchemaAction prints the JSON schema of the config file. It needs no config.
func SchemaAction(c *cli.Context) error {
	schema, err := config.Schema()
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", schema)
	return nil
}

// InfoAction prints the resolved chip profile.
func InfoAction(c *cli.Context) error {
	return withClient(c, func(ec *eepromClient) error {
		printf(c.App.Writer, "%s", formatInfo(ec.conf, ec.device.Profile()))
		return nil
	})
}

// ReadAction reads one unit.
func ReadAction(c *cli.Context) error {
	return withClient(c, func(ec *eepromClient) error {
		address := uint16(c.Uint(flagAddress))
		value, err := ec.device.Read(c.Context, address)
		if err != nil {
			return err
		}
		p := ec.device.Profile()
		printf(c.App.Writer, "%s: %s", formatAddress(int(address&p.AddressMask)), formatWord(p, value))
		return nil
	})
}

// DumpAction prints a range of units.
func DumpAction(c *cli.Context) error {
	return withClient(c, func(ec *eepromClient) error {
		return ec.dump(c.Context, c.App.Writer)
	})
}

func (ec *eepromClient) dump(ctx context.Context, w io.Writer) error {
	start, count, err := ec.rangeArgs()
	if err != nil {
		return err
	}
	values, err := ec.device.ReadBlock(ctx, start, count)
	if err != nil {
		return err
	}
	printf(w, "%s", formatDump(ec.device.Profile(), start, values))
	return nil
}

// WriteAction writes one unit.
func WriteAction(c *cli.Context) error {
	return withClient(c, func(ec *eepromClient) error {
		value, err := ec.value()
		if err != nil {
			return err
		}
		address := uint16(c.Uint(flagAddress))
		return ec.writeEnabled(c.Context, func() error {
			return ec.device.Write(c.Context, address, value)
		})
	})
}

// WriteAllAction stores one value in every unit.
func WriteAllAction(c *cli.Context) error {
	return withClient(c, func(ec *eepromClient) error {
		value, err := ec.value()
		if err != nil {
			return err
		}
		return ec.writeEnabled(c.Context, func() error {
			return ec.device.WriteAll(c.Context, value)
		})
	})
}

// EraseAction erases one unit.
func EraseAction(c *cli.Context) error {
	return withClient(c, func(ec *eepromClient) error {
		address := uint16(c.Uint(flagAddress))
		return ec.writeEnabled(c.Context, func() error {
			return ec.device.Erase(c.Context, address)
		})
	})
}

// EraseAllAction erases the whole chip.
func EraseAllAction(c *cli.Context) error {
	return withClient(c, func(ec *eepromClient) error {
		return ec.writeEnabled(c.Context, func() error {
			return ec.device.EraseAll(c.Context)
		})
	})
}

type pattern string

const (
	patternZero       pattern = "zero"
	patternAscending  pattern = "ascending"
	patternDescending pattern = "descending"
)

var patterns = []pattern{patternZero, patternAscending, patternDescending}

func patternNames() string {
	return strings.Join(lo.Map(patterns, func(p pattern, _ int) string { return string(p) }), ", ")
}

// patternValues returns the words a pattern stores in count units starting at start. Ascending
// counts up from the first unit, descending counts down from the capacity; 16-bit chips get the
// same sequences offset into the high byte.
func patternValues(p pattern, profile eeprom.Profile, start, count int) ([]uint16, error) {
	if !lo.Contains(patterns, p) {
		return nil, errors.Errorf("unknown pattern %q, expected one of %s", p, patternNames())
	}
	values := make([]uint16, count)
	for i := range values {
		address := start + i
		switch p {
		case patternZero:
		case patternAscending:
			if profile.Organization == eeprom.Organization16Bit {
				values[i] = uint16(0xFF00 + address)
			} else {
				values[i] = uint16(address) & profile.WordMask()
			}
		case patternDescending:
			if profile.Organization == eeprom.Organization16Bit {
				values[i] = uint16(0xFFFF - address)
			} else {
				values[i] = uint16(profile.Capacity-address) & profile.WordMask()
			}
		}
	}
	return values, nil
}

// FillAction writes a pattern and dumps what reads back. The zero pattern over the whole chip
// erases it and uses a single WRAL.
func FillAction(c *cli.Context) error {
	return withClient(c, func(ec *eepromClient) error {
		start, count, err := ec.rangeArgs()
		if err != nil {
			return err
		}
		p := pattern(c.String(flagPattern))
		values, err := patternValues(p, ec.device.Profile(), start, count)
		if err != nil {
			return err
		}

		err = ec.writeEnabled(c.Context, func() error {
			if p == patternZero && start == 0 && count == ec.device.Capacity() {
				if err := ec.device.EraseAll(c.Context); err != nil {
					return err
				}
				return ec.device.WriteAll(c.Context, 0)
			}
			return ec.device.WriteBlock(c.Context, start, values)
		})
		if err != nil {
			return err
		}
		return ec.dump(c.Context, c.App.Writer)
	})
}

func printf(w io.Writer, format string, a ...interface{}) {
	if w == nil {
		return
	}
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

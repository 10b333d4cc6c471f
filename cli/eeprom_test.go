package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/eeprom93cx6/components/eeprom"
)

func writeConfig(t *testing.T, model string, organization int) string {
	t.Helper()
	contents := fmt.Sprintf(`{
	"board": {
		"model": "fake",
		"attributes": {
			"chip": {
				"model": %[1]q, "organization": %[2]d, "busy_polls": 2,
				"chip_select": "10", "clock": "14", "data_in": "12", "data_out": "13"
			}
		}
	},
	"eeprom": {
		"model": %[1]q,
		"organization": %[2]d,
		"pins": {"chip_select": "10", "clock": "14", "data_in": "12", "data_out": "13"},
		"timing": {"settle_us": 0, "read_us": 0, "poll_interval_us": 0}
	}
}`, model, organization)
	path := filepath.Join(t.TempDir(), "eeprom.json")
	test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	err := NewApp(out, errOut).Run(append([]string{"eeprom93cx6"}, args...))
	return out.String(), err
}

func TestInfoAction(t *testing.T) {
	out, err := run(t, "--config", writeConfig(t, "93C56", 16), "info")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "93C56")
	test.That(t, out, test.ShouldContainSubstring, "16-bit")
	test.That(t, out, test.ShouldContainSubstring, "128 units (256B)")
	test.That(t, out, test.ShouldContainSubstring, "0xff")
	test.That(t, out, test.ShouldContainSubstring, "cs=10 sk=14 di=12 do=13")
}

func TestReadAction(t *testing.T) {
	out, err := run(t, "-c", writeConfig(t, "93C46", 8), "read", "--address", "130")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, "00002: ff\n")

	_, err = run(t, "-c", writeConfig(t, "93C46", 8), "read")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "address")
}

func TestDebugFlag(t *testing.T) {
	out, err := run(t, "--debug", "-c", writeConfig(t, "93C66", 16), "read", "--address", "1")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, "00001: ffff\n")
}

func TestWriteActions(t *testing.T) {
	conf := writeConfig(t, "93C46", 8)
	for _, args := range [][]string{
		{"write", "--address", "3", "--value", "0x42"},
		{"write-all", "--value", "0"},
		{"erase", "--address", "3"},
		{"erase-all"},
	} {
		_, err := run(t, append([]string{"-c", conf}, args...)...)
		test.That(t, err, test.ShouldBeNil)
	}

	_, err := run(t, "-c", conf, "write", "--address", "3", "--value", "0x10000")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "16 bits")
}

func TestFillAndDump(t *testing.T) {
	conf := writeConfig(t, "93C46", 8)

	out, err := run(t, "-c", conf, "fill", "--pattern", "ascending")
	test.That(t, err, test.ShouldBeNil)
	for row := 0; row < 128; row += 16 {
		test.That(t, out, test.ShouldContainSubstring, formatAddress(row))
	}
	test.That(t, out, test.ShouldNotContainSubstring, formatAddress(128))
	test.That(t, out, test.ShouldContainSubstring, "7f")

	out, err = run(t, "-c", conf, "fill", "--pattern", "zero")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldNotContainSubstring, "ff")

	out, err = run(t, "-c", conf, "dump", "--start", "120")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "8 units from 00078")

	_, err = run(t, "-c", conf, "dump", "--start", "128")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = run(t, "-c", conf, "dump", "--start", "120", "--count", "9")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = run(t, "-c", conf, "dump", "--start", "1", "--count", "9223372036854775807")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "outside")
	_, err = run(t, "-c", conf, "fill", "--pattern", "checkerboard")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "zero, ascending, descending")
}

func TestMissingConfig(t *testing.T) {
	_, err := run(t, "-c", filepath.Join(t.TempDir(), "nope.json"), "info")
	test.That(t, err, test.ShouldNotBeNil)

	t.Setenv("EEPROM93CX6_CONFIG", "")
	_, err = run(t, "info")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "--config")
}

func TestSchemaAction(t *testing.T) {
	out, err := run(t, "schema")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, `"poll_interval_us"`)
}

func TestLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "eeprom.log")
	conf := writeConfig(t, "93C46", 8)
	_, err := run(t, "-c", conf, "--log-file", logPath, "write", "--address", "1", "--value", "0x1ff")
	test.That(t, err, test.ShouldBeNil)

	contents, err := os.ReadFile(logPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(contents), test.ShouldContainSubstring, "upper bits are dropped")
	test.That(t, string(contents), test.ShouldNotContainSubstring, "DEBUG")
}

func TestPatternValues(t *testing.T) {
	p8, err := eeprom.ResolveProfile(eeprom.C46, eeprom.Organization8Bit)
	test.That(t, err, test.ShouldBeNil)
	p16, err := eeprom.ResolveProfile(eeprom.C46, eeprom.Organization16Bit)
	test.That(t, err, test.ShouldBeNil)

	values, err := patternValues(patternAscending, p8, 126, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, values, test.ShouldResemble, []uint16{126, 127})

	values, err = patternValues(patternDescending, p8, 0, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, values, test.ShouldResemble, []uint16{0x80, 0x7F})

	values, err = patternValues(patternAscending, p16, 0, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, values, test.ShouldResemble, []uint16{0xFF00, 0xFF01})

	values, err = patternValues(patternDescending, p16, 62, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, values, test.ShouldResemble, []uint16{0xFFC1, 0xFFC0})

	values, err = patternValues(patternZero, p16, 0, 3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, values, test.ShouldResemble, []uint16{0, 0, 0})
}

func TestFormatDump(t *testing.T) {
	p16, err := eeprom.ResolveProfile(eeprom.C46, eeprom.Organization16Bit)
	test.That(t, err, test.ShouldBeNil)

	values := make([]uint16, 10)
	for i := range values {
		values[i] = uint16(0xAB00 + i)
	}
	out := formatDump(p16, 4, values)
	test.That(t, out, test.ShouldContainSubstring, "00004")
	test.That(t, out, test.ShouldContainSubstring, "0000c")
	test.That(t, out, test.ShouldContainSubstring, "ab09")
	test.That(t, strings.Count(out, "ab0"), test.ShouldEqual, 10)
	test.That(t, dumpColumns(p16), test.ShouldEqual, 8)
}

package cli

import (
	"fmt"

	"github.com/docker/go-units"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"go.viam.com/eeprom93cx6/components/eeprom"
	"go.viam.com/eeprom93cx6/config"
)

func formatAddress(address int) string {
	return fmt.Sprintf("%05x", address)
}

func formatWord(p eeprom.Profile, value uint16) string {
	if p.WordBits() == 16 {
		return fmt.Sprintf("%04x", value)
	}
	return fmt.Sprintf("%02x", value)
}

// dumpColumns is 16 units per row for 8-bit chips and 8 for 16-bit chips, 16 bytes either way.
func dumpColumns(p eeprom.Profile) int {
	if p.WordBits() == 16 {
		return 8
	}
	return 16
}

// formatDump renders values read from start as rows labeled with the address of their first unit.
func formatDump(p eeprom.Profile, start int, values []uint16) string {
	columns := dumpColumns(p)

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	header := table.Row{"address"}
	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		header = append(header, fmt.Sprintf("%x", i))
		configs = append(configs, table.ColumnConfig{Number: i + 2, Align: text.AlignRight})
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	for offset := 0; offset < len(values); offset += columns {
		row := table.Row{formatAddress(start + offset)}
		for i := offset; i < offset+columns && i < len(values); i++ {
			row = append(row, formatWord(p, values[i]))
		}
		t.AppendRow(row)
	}
	t.SetCaption("%s, %d units from %s", p, len(values), formatAddress(start))
	return t.Render()
}

func formatInfo(conf *config.Config, p eeprom.Profile) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendRows([]table.Row{
		{"model", p.Model.String()},
		{"organization", p.Organization.String()},
		{"capacity", fmt.Sprintf("%d units (%s)", p.Capacity, units.BytesSize(float64(p.Capacity*p.WordBits()/8)))},
		{"address bits", p.AddressBits},
		{"address mask", fmt.Sprintf("%#x", p.AddressMask)},
		{"board", conf.Board.Model},
		{"pins", fmt.Sprintf("cs=%s sk=%s di=%s do=%s",
			conf.EEPROM.Pins.ChipSelect, conf.EEPROM.Pins.Clock, conf.EEPROM.Pins.DataIn, conf.EEPROM.Pins.DataOut)},
	})
	return t.Render()
}

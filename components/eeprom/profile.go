package eeprom

import (
	"fmt"
	"strconv"
	"strings"
)

// Organization is the native word size of the chip, selected by its ORG pin.
type Organization int

const (
	// Organization8Bit addresses the array in bytes.
	Organization8Bit Organization = 8
	// Organization16Bit addresses the array in 16-bit words.
	Organization16Bit Organization = 16
)

func (org Organization) String() string {
	switch org {
	case Organization8Bit, Organization16Bit:
		return fmt.Sprintf("%d-bit", int(org))
	}
	return fmt.Sprintf("Organization(%d)", int(org))
}

// ParseOrganization accepts the word width (8 or 16). The legacy mode codes 1 (8-bit) and
// 2 (16-bit) are accepted as well.
func ParseOrganization(bits int) (Organization, error) {
	switch bits {
	case 8, 1:
		return Organization8Bit, nil
	case 16, 2:
		return Organization16Bit, nil
	}
	return 0, &ConfigError{Field: "organization", Value: strconv.Itoa(bits)}
}

// Model is a member of the 93Cx6 family.
type Model int

// The supported chip models. The value is the part number suffix.
const (
	C46 Model = 46
	C56 Model = 56
	C66 Model = 66
	C76 Model = 76
	C86 Model = 86
)

// Models lists every supported model, smallest first.
var Models = []Model{C46, C56, C66, C76, C86}

func (m Model) String() string {
	return fmt.Sprintf("93C%02d", int(m))
}

// ParseModel accepts "93C46", "93c46", "C46" or "46" style names.
func ParseModel(name string) (Model, error) {
	digits := strings.ToUpper(strings.TrimSpace(name))
	digits = strings.TrimPrefix(digits, "93")
	digits = strings.TrimPrefix(digits, "C")
	n, err := strconv.Atoi(digits)
	if err == nil {
		for _, m := range Models {
			if int(m) == n {
				return m, nil
			}
		}
	}
	return 0, &ConfigError{Field: "model", Value: name}
}

// Profile is the addressing geometry of one (model, organization) pair.
type Profile struct {
	Model        Model
	Organization Organization
	// Capacity is the number of addressable 8-bit or 16-bit units.
	Capacity    int
	AddressBits int
	AddressMask uint16
}

// WordBits is the width of one addressable unit.
func (p Profile) WordBits() int {
	if p.Organization == Organization16Bit {
		return 16
	}
	return 8
}

// WordMask has WordBits low bits set.
func (p Profile) WordMask() uint16 {
	if p.Organization == Organization16Bit {
		return 0xFFFF
	}
	return 0xFF
}

func (p Profile) String() string {
	return fmt.Sprintf("%s %s (%d units, %d address bits)", p.Model, p.Organization, p.Capacity, p.AddressBits)
}

// ResolveProfile derives capacity, address width and address mask for a chip. The mask is built
// by extending the organization's base mask with the model tier's low bits, which always yields
// (1<<AddressBits)-1.
func ResolveProfile(model Model, org Organization) (Profile, error) {
	p := Profile{Model: model, Organization: org}
	switch org {
	case Organization8Bit:
		p.Capacity, p.AddressBits, p.AddressMask = 128, 7, 0x7F
	case Organization16Bit:
		p.Capacity, p.AddressBits, p.AddressMask = 64, 6, 0x3F
	default:
		return Profile{}, &ConfigError{Field: "organization", Value: strconv.Itoa(int(org))}
	}

	switch model {
	case C46:
	case C56:
		p.Capacity *= 2
		p.AddressBits += 2
		p.AddressMask = p.AddressMask<<2 | 0x3
	case C66:
		p.Capacity *= 4
		p.AddressBits += 2
		p.AddressMask = p.AddressMask<<2 | 0x3
	case C76:
		p.Capacity *= 8
		p.AddressBits += 4
		p.AddressMask = p.AddressMask<<4 | 0xF
	case C86:
		p.Capacity *= 16
		p.AddressBits += 4
		p.AddressMask = p.AddressMask<<4 | 0xF
	default:
		return Profile{}, &ConfigError{Field: "model", Value: strconv.Itoa(int(model))}
	}
	return p, nil
}

// Package register registers all relevant Boards.
package register

import (
	// for boards.
	_ "go.viam.com/eeprom93cx6/components/board/commonsysfs"
	_ "go.viam.com/eeprom93cx6/components/board/fake"
	_ "go.viam.com/eeprom93cx6/components/board/genericlinux"
)

package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
)

const machineIDLen = 12

// MachineID retrieves an ID identifying the machine. The raw machine ID
// isn't exposed, it's hashed with the application name. The hostname is
// used when the machine ID is unavailable.
func MachineID() string {
	id, err := machineid.ProtectedID("dino")
	if err == nil && len(id) >= machineIDLen {
		return id[:machineIDLen]
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "dino"
}

// Package env provides the flag and environment setup shared by
// controllers and clients.
package env

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// MachineID retrieves the unique ID identifying the machine. The ID is
// hashed with the application name so the raw machine ID isn't exposed.
// An empty string is returned when the machine ID is unavailable.
func MachineID() string {
	id, err := machineid.ProtectedID("sixstep")
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		return ""
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}

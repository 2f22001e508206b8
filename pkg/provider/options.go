package provider

import (
	"strconv"
	"time"

	"github.com/ctacke/DataNav/pkg/dbcapabilities"
	"github.com/ctacke/DataNav/pkg/model"
)

// Option keys recognized by the built-in providers.
const (
	// OptionTimeout is the dial timeout in milliseconds, a positive integer.
	OptionTimeout = "Timeout"

	// OptionIncludeSystemObjects opts database listings in to backend
	// system catalogs. Defaults to false.
	OptionIncludeSystemObjects = "IncludeSystemObjects"
)

// DialTimeout reads the Timeout option. Absent means the fallback; a present
// value must parse as a positive integer millisecond count or the result is a
// ConfigurationError.
func DialTimeout(info model.ConnectionInfo, dbType dbcapabilities.DatabaseID, fallback time.Duration) (time.Duration, error) {
	raw, ok := info.Option(OptionTimeout)
	if !ok {
		return fallback, nil
	}

	ms, err := strconv.Atoi(raw)
	if err != nil {
		return 0, NewConfigurationError(dbType, OptionTimeout, "must be an integer millisecond count")
	}
	if ms <= 0 {
		return 0, NewConfigurationError(dbType, OptionTimeout, "must be positive")
	}

	return time.Duration(ms) * time.Millisecond, nil
}

// IncludeSystemObjects reads the IncludeSystemObjects option. Absent or
// malformed values mean false.
func IncludeSystemObjects(info model.ConnectionInfo) bool {
	raw, ok := info.Option(OptionIncludeSystemObjects)
	if !ok {
		return false
	}

	include, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return include
}

package provider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctacke/DataNav/pkg/dbcapabilities"
	"github.com/ctacke/DataNav/pkg/model"
)

func TestDialTimeoutDefaults(t *testing.T) {
	info := model.ConnectionInfo{Name: "c1"}

	d, err := DialTimeout(info, dbcapabilities.Cassandra, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, d)
}

func TestDialTimeoutParsesMilliseconds(t *testing.T) {
	info := model.ConnectionInfo{
		Name:    "c1",
		Options: map[string]string{OptionTimeout: "2500"},
	}

	d, err := DialTimeout(info, dbcapabilities.Cassandra, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2500*time.Millisecond, d)
}

func TestDialTimeoutRejectsMalformedValues(t *testing.T) {
	for _, raw := range []string{"abc", "2.5", "-100", "0", ""} {
		info := model.ConnectionInfo{
			Name:    "c1",
			Options: map[string]string{OptionTimeout: raw},
		}

		_, err := DialTimeout(info, dbcapabilities.Cassandra, time.Second)
		assert.ErrorIs(t, err, ErrInvalidArgument, "raw value %q", raw)
	}
}

func TestIncludeSystemObjects(t *testing.T) {
	tests := []struct {
		name     string
		options  map[string]string
		expected bool
	}{
		{name: "unset defaults to false", options: nil, expected: false},
		{name: "true", options: map[string]string{OptionIncludeSystemObjects: "true"}, expected: true},
		{name: "numeric true", options: map[string]string{OptionIncludeSystemObjects: "1"}, expected: true},
		{name: "false", options: map[string]string{OptionIncludeSystemObjects: "false"}, expected: false},
		{name: "malformed falls back to false", options: map[string]string{OptionIncludeSystemObjects: "yep"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := model.ConnectionInfo{Name: "c1", Options: tt.options}
			assert.Equal(t, tt.expected, IncludeSystemObjects(info))
		})
	}
}

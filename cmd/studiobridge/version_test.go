package main

import (
	"bytes"
	"encoding/json"
	"runtime"
	"strings"
	"testing"

	"github.com/aretw0/studiobridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runVersion(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	t.Cleanup(func() {
		versionCmd.SetOut(nil)
		versionCmd.Flags().Set("short", "false")
		versionCmd.Flags().Set("json", "false")
	})
	require.NoError(t, versionCmd.ParseFlags(args))
	require.NoError(t, versionCmd.RunE(versionCmd, nil))
	return out.String()
}

func TestVersion_Text(t *testing.T) {
	out := runVersion(t)
	assert.True(t, strings.HasPrefix(out, "studiobridge "+studiobridge.Version+"\n"), out)
	assert.Contains(t, out, "api:      0.2.0")
	assert.Contains(t, out, runtime.Version())
}

func TestVersion_Short(t *testing.T) {
	assert.Equal(t, studiobridge.Version+"\n", runVersion(t, "--short"))
}

func TestVersion_JSON(t *testing.T) {
	var info versionInfo
	require.NoError(t, json.Unmarshal([]byte(runVersion(t, "--json")), &info))
	assert.Equal(t, "0.2.0", info.APIVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

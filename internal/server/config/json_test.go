package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args []string) {
	t.Helper()
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })
	os.Args = args
}

func TestParseJson_NoFileFlag(t *testing.T) {
	withArgs(t, []string{"cmd"})

	c := &Config{}
	c.LoadDefaults()
	before := *c

	parseJson(c)
	assert.Equal(t, before, *c, "config must be unchanged without -c/-config")
}

func TestParseJson_OverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.json")
	data := `{
		"endpoint_addr_http": ":9999",
		"database_dsn": "postgres://json",
		"secret_key": "json-secret",
		"access_token_validity_duration": "15m",
		"s3_root_user": "ju",
		"s3_root_password": "jp",
		"s3_bucket": "jb",
		"s3_region": "jr",
		"s3_base_endpoint": "http://json:9000/"
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	withArgs(t, []string{"cmd", "-c", path})

	c := &Config{}
	c.LoadDefaults()
	parseJson(c)

	assert.Equal(t, ":9999", c.EndpointAddrHTTP)
	assert.Equal(t, "postgres://json", c.DatabaseDSN)
	assert.Equal(t, "json-secret", c.SecretKey)
	assert.Equal(t, 15*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, "ju", c.S3RootUser)
	assert.Equal(t, "http://json:9000/", c.S3BaseEndpoint)
}

func TestParseJson_InvalidFilePanics(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	withArgs(t, []string{"cmd", "-c", path})

	c := &Config{}
	c.LoadDefaults()
	require.Panics(t, func() { parseJson(c) })
}

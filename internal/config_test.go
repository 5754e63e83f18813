package pductl

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OpenCHAMI/pductl/pkg/secrets"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
hwsku: Apc
snmp:
  version: 2c
  rocommunity: public
  rwcommunity: '{{ secret "lab-rw" }}'
  timeout: 3s
  retries: 2
pdus:
  - host: pdu-rack3
    hwsku: Sentry
    psu_peer_type: Pdu
    cabinet: 3000
  - host: pdu-rack4
    hwsku: Raritan
    snmp_rocommunity: rack4-ro
    timeout: 10s
`

func loadTestConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))
	require.NoError(t, LoadConfig(path))
}

func TestLoadConfigMissing(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	assert.Error(t, LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestLoadPDUConfigsAll(t *testing.T) {
	loadTestConfig(t)

	configs, err := LoadPDUConfigs(nil)
	require.NoError(t, err)
	require.Len(t, configs, 2)

	rack3 := configs[0]
	assert.Equal(t, "pdu-rack3", rack3.Host)
	assert.Equal(t, "Sentry", rack3.HWSKU)
	assert.Equal(t, "Pdu", rack3.PeerType)
	assert.Equal(t, "public", rack3.ReadCommunity)
	assert.Equal(t, 3*time.Second, rack3.Timeout)
	assert.Equal(t, 2, rack3.Retries)
	require.NotNil(t, rack3.Cabinet)
	assert.Equal(t, 3000, *rack3.Cabinet)
	assert.Nil(t, rack3.Controller)

	rack4 := configs[1]
	assert.Equal(t, "rack4-ro", rack4.ReadCommunity)
	assert.Equal(t, 10*time.Second, rack4.Timeout)
}

func TestLoadPDUConfigsUnknownHostUsesGlobals(t *testing.T) {
	loadTestConfig(t)

	configs, err := LoadPDUConfigs([]string{"pdu-rack9", "pdu-rack4"})
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, "pdu-rack9", configs[0].Host)
	assert.Equal(t, "Apc", configs[0].HWSKU)
	assert.Nil(t, configs[0].Cabinet)
	assert.Equal(t, "Raritan", configs[1].HWSKU)
}

func TestLoadPDUConfigsNothingConfigured(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	_, err := LoadPDUConfigs(nil)
	assert.Error(t, err)
}

func TestPDUConfigSNMPRendersCommunities(t *testing.T) {
	loadTestConfig(t)
	configs, err := LoadPDUConfigs([]string{"pdu-rack3"})
	require.NoError(t, err)

	_, err = configs[0].SNMP(nil)
	assert.Error(t, err)

	store := secrets.NewStaticStore(map[string]string{"lab-rw": "private"})
	cfg, err := configs[0].SNMP(store)
	require.NoError(t, err)
	assert.Equal(t, "public", cfg.ReadCommunity)
	assert.Equal(t, "private", cfg.WriteCommunity)
	assert.Equal(t, "2c", cfg.Version)
}

package pductl

import (
	"errors"
	"fmt"
	"time"

	"github.com/OpenCHAMI/pductl/internal/util"
	"github.com/OpenCHAMI/pductl/pkg/pdu"
	"github.com/OpenCHAMI/pductl/pkg/secrets"
	"github.com/OpenCHAMI/pductl/pkg/snmp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// PDUConfig is one entry of the `pdus` list in the config file. Fields left
// empty fall back to the global `snmp.*`, `hwsku` and `psu-peer-type`
// settings.
type PDUConfig struct {
	Host           string        `json:"host" yaml:"host" mapstructure:"host"`
	HWSKU          string        `json:"hwsku" yaml:"hwsku" mapstructure:"hwsku"`
	PeerType       string        `json:"psu_peer_type" yaml:"psu_peer_type" mapstructure:"psu_peer_type"`
	Port           uint16        `json:"port" yaml:"port" mapstructure:"port"`
	Version        string        `json:"version" yaml:"version" mapstructure:"version"`
	ReadCommunity  string        `json:"snmp_rocommunity" yaml:"snmp_rocommunity" mapstructure:"snmp_rocommunity"`
	WriteCommunity string        `json:"snmp_rwcommunity" yaml:"snmp_rwcommunity" mapstructure:"snmp_rwcommunity"`
	Timeout        time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	Retries        int           `json:"retries" yaml:"retries" mapstructure:"retries"`

	// Cabinet and Controller place the PDU for xname export.
	Cabinet    *int `json:"cabinet,omitempty" yaml:"cabinet,omitempty" mapstructure:"cabinet"`
	Controller *int `json:"controller,omitempty" yaml:"controller,omitempty" mapstructure:"controller"`
}

// LoadConfig() will load a YAML config file at the specified path. There
// are intentionally no search paths set, so the path has to be explicit,
// and nothing is ever written back to the file. CLI flags and environment
// variables always take precedence over values set in the config.
func LoadConfig(path string) error {
	dir, filename, ext := util.SplitPathForViper(path)
	viper.AddConfigPath(dir)
	viper.SetConfigName(filename)
	viper.SetConfigType(ext)
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return fmt.Errorf("config file not found: %w", err)
		}
		return fmt.Errorf("failed to load config file: %w", err)
	}
	return nil
}

// LoadPDUConfigs returns the configs of the requested hosts. Hosts missing
// from the `pdus` list get a config built from the global settings alone.
// With no hosts given every configured PDU is returned.
func LoadPDUConfigs(hosts []string) ([]PDUConfig, error) {
	configured := []PDUConfig{}
	if viper.IsSet("pdus") {
		if err := viper.UnmarshalKey("pdus", &configured); err != nil {
			return nil, fmt.Errorf("failed to decode pdus: %w", err)
		}
	}

	byHost := make(map[string]PDUConfig, len(configured))
	for _, cfg := range configured {
		if cfg.Host == "" {
			log.Warn().Msg("ignoring PDU entry without a host")
			continue
		}
		byHost[cfg.Host] = cfg
	}

	if len(hosts) == 0 {
		if len(byHost) == 0 {
			return nil, fmt.Errorf("no PDUs given and none configured")
		}
		configs := make([]PDUConfig, 0, len(configured))
		for _, cfg := range configured {
			if cfg.Host != "" {
				configs = append(configs, withDefaults(cfg))
			}
		}
		return configs, nil
	}

	configs := make([]PDUConfig, 0, len(hosts))
	for _, host := range hosts {
		cfg, found := byHost[host]
		if !found {
			log.Debug().Str("pdu", host).Msg("PDU not in config, using global settings")
			cfg = PDUConfig{Host: host}
		}
		configs = append(configs, withDefaults(cfg))
	}
	return configs, nil
}

func withDefaults(cfg PDUConfig) PDUConfig {
	if cfg.HWSKU == "" {
		cfg.HWSKU = viper.GetString("hwsku")
	}
	if cfg.PeerType == "" {
		cfg.PeerType = viper.GetString("psu-peer-type")
	}
	if cfg.Port == 0 {
		cfg.Port = uint16(viper.GetUint("snmp.port"))
	}
	if cfg.Version == "" {
		cfg.Version = viper.GetString("snmp.version")
	}
	if cfg.ReadCommunity == "" {
		cfg.ReadCommunity = viper.GetString("snmp.rocommunity")
	}
	if cfg.WriteCommunity == "" {
		cfg.WriteCommunity = viper.GetString("snmp.rwcommunity")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = viper.GetDuration("snmp.timeout")
	}
	if cfg.Retries <= 0 {
		cfg.Retries = viper.GetInt("snmp.retries")
	}
	return cfg
}

func (c PDUConfig) PDU() pdu.Config {
	return pdu.Config{Host: c.Host, HWSKU: c.HWSKU, PeerType: c.PeerType}
}

// SNMP builds the transport config, resolving communities that reference
// the secret store.
func (c PDUConfig) SNMP(store secrets.SecretStore) (snmp.Config, error) {
	ro, err := secrets.RenderCommunity(c.ReadCommunity, store)
	if err != nil {
		return snmp.Config{}, fmt.Errorf("read community of %s: %w", c.Host, err)
	}
	rw, err := secrets.RenderCommunity(c.WriteCommunity, store)
	if err != nil {
		return snmp.Config{}, fmt.Errorf("write community of %s: %w", c.Host, err)
	}
	return snmp.Config{
		Host:           c.Host,
		Port:           c.Port,
		Version:        c.Version,
		ReadCommunity:  ro,
		WriteCommunity: rw,
		Timeout:        c.Timeout,
		Retries:        c.Retries,
	}, nil
}

// Connect opens the SNMP transport of the PDU and builds its controller.
// As with pdu.New, a PDU of unknown family returns a usable controller
// together with pdu.ErrUnknownFamily.
func Connect(cfg PDUConfig, store secrets.SecretStore) (*pdu.Controller, error) {
	snmpConfig, err := cfg.SNMP(store)
	if err != nil {
		return nil, err
	}
	client, err := snmp.NewClient(snmpConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create SNMP client for %s: %w", cfg.Host, err)
	}
	return pdu.New(cfg.PDU(), client)
}

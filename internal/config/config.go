// Package config loads the gateway's runtime configuration from an
// optional YAML file, layered over in-process defaults, and can watch
// the implement-profile and route files for on-disk changes.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config mirrors the gateway's recognised options. Default supplies the
// values the gateway needs, and Load overlays a file onto them, so a file
// that sets only a handful of fields still yields a usable Config. A
// zero-value Config is not usable (for example SampleRateHz is 0), and the
// optional string fields (ServiceUUID, paths, GNSS port) default to empty.
type Config struct {
	TCPHost string `yaml:"tcp_host"`
	TCPPort int    `yaml:"tcp_port"`

	BluetoothEnabled bool   `yaml:"bluetooth_enabled"`
	BluetoothChannel int    `yaml:"bluetooth_channel"`
	ServiceName      string `yaml:"service_name"`
	ServiceUUID      string `yaml:"service_uuid"`

	ImplementProfilePath string `yaml:"implement_profile_path"`

	SimulatorEnabled bool    `yaml:"simulator_enabled"`
	FieldLengthM     float64 `yaml:"simulator_field_length_m"`
	HeadlandLengthM  float64 `yaml:"simulator_headland_length_m"`
	SpeedMps         float64 `yaml:"simulator_speed_mps"`
	SampleRateHz     float64 `yaml:"simulator_sample_rate_hz"`
	PassesPerCycle   int     `yaml:"simulator_passes_per_cycle"`
	AccuracyM        float64 `yaml:"simulator_accuracy_m"`
	LoopForever      bool    `yaml:"simulator_loop_forever"`

	BaseLat   float64 `yaml:"base_lat"`
	BaseLon   float64 `yaml:"base_lon"`
	AltitudeM float64 `yaml:"altitude_m"`

	RouteFile   string `yaml:"route_file,omitempty"`
	RouteFormat string `yaml:"route_format,omitempty"`

	GnssSerialPort string `yaml:"gnss_serial_port,omitempty"`
	GnssBaudRate   int    `yaml:"gnss_baud_rate,omitempty"`

	MetricsAddr string `yaml:"metrics_addr,omitempty"`
}

// Default returns the configuration used when no file or override is
// supplied.
func Default() Config {
	return Config{
		TCPHost: "0.0.0.0",
		TCPPort: 7777,

		BluetoothEnabled: true,
		BluetoothChannel: 1,
		ServiceName:      "MAGateway",

		SimulatorEnabled: true,
		FieldLengthM:     300,
		HeadlandLengthM:  20,
		SpeedMps:         2.5,
		SampleRateHz:     2,
		PassesPerCycle:   8,
		AccuracyM:        0.02,
		LoopForever:      true,

		BaseLat:   -22.0,
		BaseLon:   -47.0,
		AltitudeM: 550,

		GnssBaudRate: 115200,
		MetricsAddr:  ":9273",
	}
}

// Load reads path as YAML and overlays it onto Default(). A missing path
// is not an error: the defaults are returned unchanged, mirroring the
// teacher's "absent file means use defaults" posture for optional config.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

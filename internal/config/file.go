package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the on-disk deployment configuration.
type File struct {
	Logger   LoggerConfig   `yaml:"logger"`
	Radio    RadioConfig    `yaml:"radio"`
	Storage  StorageConfig  `yaml:"storage"`
	Actuator ActuatorConfig `yaml:"actuator"`
	Baseline BaselineConfig `yaml:"baseline"`
}

// LoggerConfig selects slog level, format and destination.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	Output string `yaml:"output"` // stdout, stderr, or a file path
}

// RadioConfig selects the scan sources.
type RadioConfig struct {
	Adapter       string        `yaml:"adapter"`
	WiFiInterface string        `yaml:"wifi_interface"` // empty = auto-detect
	Demo          bool          `yaml:"demo"`
	WiFiScanPause time.Duration `yaml:"wifi_scan_pause"`
}

// StorageConfig locates the filter persistence database.
type StorageConfig struct {
	Path      string `yaml:"path"`      // SQLite file; ":memory:" keeps nothing across runs
	Namespace string `yaml:"namespace"`
}

// ActuatorConfig selects how buzzer and LED are driven.
type ActuatorConfig struct {
	Kind        string `yaml:"kind"` // none, terminal, gpio, serial
	BuzzerPin   int    `yaml:"buzzer_pin"`
	LEDPin      int    `yaml:"led_pin"`
	LEDInverted bool   `yaml:"led_inverted"`
	SerialPort  string `yaml:"serial_port"`
	BaudRate    int    `yaml:"baud_rate"`
	Frequency   int    `yaml:"frequency"`
	Duty        int    `yaml:"duty"`
}

// BaselineConfig holds defaults for a baseline survey started without arguments.
type BaselineConfig struct {
	Medium          string        `yaml:"medium"` // wifi, ble, both
	Duration        time.Duration `yaml:"duration"`
	RSSIFloor       int           `yaml:"rssi_floor"`
	CapturePayloads bool          `yaml:"capture_payloads"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() *File {
	return &File{
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Radio: RadioConfig{
			Adapter:       "hci0",
			WiFiScanPause: WiFiScanPause,
		},
		Storage: StorageConfig{
			Path:      "oui-spy.db",
			Namespace: FilterNamespace,
		},
		Actuator: ActuatorConfig{
			Kind:        "terminal",
			BuzzerPin:   3,
			LEDPin:      21,
			LEDInverted: true,
			BaudRate:    115200,
			Frequency:   BuzzerFrequency,
			Duty:        BuzzerDuty,
		},
		Baseline: BaselineConfig{
			Medium:    "wifi",
			Duration:  BaselineDefaultDuration,
			RSSIFloor: RSSIFloorMin,
		},
	}
}

// Load reads a YAML config file and applies env var overrides.
// A missing file yields the defaults.
func Load(path string) (*File, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides maps OUISPY_* env vars to config fields.
func ApplyEnvOverrides(cfg *File) {
	if v := os.Getenv("OUISPY_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("OUISPY_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("OUISPY_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("OUISPY_RADIO_ADAPTER"); v != "" {
		cfg.Radio.Adapter = v
	}
	if v := os.Getenv("OUISPY_RADIO_DEMO"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Radio.Demo = b
		}
	}
	if v := os.Getenv("OUISPY_ACTUATOR_KIND"); v != "" {
		cfg.Actuator.Kind = strings.ToLower(v)
	}
	if v := os.Getenv("OUISPY_ACTUATOR_SERIAL_PORT"); v != "" {
		cfg.Actuator.SerialPort = v
	}
}

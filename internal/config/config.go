// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// DefaultPath is the config file used when no -config flag is given.
const DefaultPath = "./gait_config.txt"

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDGPS      string
	MQTTClientIDServer   string
	MQTTClientIDConsole  string
	MQTTClientIDDisplay  string

	// Topics
	TopicAccel string // raw accelerometer samples
	TopicGPS   string // GPS fixes
	TopicGait  string // detected gait sessions

	// IMU Hardware
	IMUSPIDevice string
	IMUCSPin     string
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte
	IMUAxis       string // "x", "y" or "z": the thigh's longitudinal axis
	IMUSampleRate int    // Hz
	IMUMock       bool   // synthesize a walking signal instead of reading SPI

	// GPS
	GPSSerialPort string
	GPSBaudRate   int

	// Gait detection
	GaitMinStride      float64 // seconds
	GaitWindowSeconds  int     // length of each analysed recording
	GaitFilterOrder    int
	GaitSegmentLength  int
	GaitFFTLength      int
	GaitMinStrideFreq  float64 // Hz
	GaitHighPassCutoff float64 // Hz
	GaitStepPeakHeight float64 // g
	GaitStepPeakDist   int     // samples
	GaitICThreshold    float64 // g
	GaitICMinDelay     int     // samples

	// Posture gate
	OrientationMaxTilt float64 // degrees from vertical

	// Storage
	StorePath string // badger directory; empty keeps sessions in memory

	// Timing
	ConsoleLogInterval int // milliseconds

	// Web Server
	WebServerPort int

	// Display (SSD1306 at the default I2C address 0x3C)
	DisplayUpdateInterval int // milliseconds
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal and Get.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Defaults returns a Config with every optional value filled in.
func Defaults() *Config {
	return &Config{
		MQTTClientIDProducer: "gait-imu-producer",
		MQTTClientIDGPS:      "gait-gps-producer",
		MQTTClientIDServer:   "gait-server",
		MQTTClientIDConsole:  "gait-console",
		MQTTClientIDDisplay:  "gait-display",

		TopicAccel: "gait/accel",
		TopicGPS:   "gait/gps",
		TopicGait:  "gait/session",

		IMUAccelRange: 1, // ±4g; heel strikes exceed 2g
		IMUAxis:       "x",
		IMUSampleRate: 100,

		GaitMinStride:      0.8,
		GaitWindowSeconds:  30,
		GaitFilterOrder:    4,
		GaitSegmentLength:  2048,
		GaitFFTLength:      4096,
		GaitMinStrideFreq:  0.5,
		GaitHighPassCutoff: 10,
		GaitStepPeakHeight: 1,
		GaitStepPeakDist:   100,
		GaitICThreshold:    1,
		GaitICMinDelay:     25,

		OrientationMaxTilt: 45,

		ConsoleLogInterval:    1000,
		WebServerPort:         8080,
		DisplayUpdateInterval: 500,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines on top of Defaults. Blank lines and lines
// starting with # are skipped.
func Parse(r io.Reader) (*Config, error) {
	cfg := Defaults()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value
	case "MQTT_CLIENT_ID_SERVER":
		c.MQTTClientIDServer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_ACCEL":
		c.TopicAccel = value
	case "TOPIC_GPS":
		c.TopicGPS = value
	case "TOPIC_GAIT":
		c.TopicGait = value

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_ACCEL_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", rangeVal)
		}
		c.IMUAccelRange = byte(rangeVal)
	case "IMU_AXIS":
		axis := strings.ToLower(value)
		if axis != "x" && axis != "y" && axis != "z" {
			return fmt.Errorf("IMU_AXIS must be x, y or z, got %q", value)
		}
		c.IMUAxis = axis
	case "IMU_SAMPLE_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_SAMPLE_RATE %q: %w", value, err)
		}
		if rate < 1 || rate > 1000 {
			return fmt.Errorf("IMU_SAMPLE_RATE must be 1-1000 Hz, got %d", rate)
		}
		c.IMUSampleRate = rate
	case "IMU_MOCK":
		mock, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_MOCK %q: %w", value, err)
		}
		c.IMUMock = mock

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		c.GPSBaudRate = rate

	// Gait detection
	case "GAIT_MIN_STRIDE":
		return parsePositiveFloat(key, value, &c.GaitMinStride)
	case "GAIT_WINDOW_SECONDS":
		return parsePositiveInt(key, value, &c.GaitWindowSeconds)
	case "GAIT_FILTER_ORDER":
		return parsePositiveInt(key, value, &c.GaitFilterOrder)
	case "GAIT_SEGMENT_LENGTH":
		return parsePositiveInt(key, value, &c.GaitSegmentLength)
	case "GAIT_FFT_LENGTH":
		return parsePositiveInt(key, value, &c.GaitFFTLength)
	case "GAIT_MIN_STRIDE_FREQ":
		return parsePositiveFloat(key, value, &c.GaitMinStrideFreq)
	case "GAIT_HIGHPASS_CUTOFF":
		return parsePositiveFloat(key, value, &c.GaitHighPassCutoff)
	case "GAIT_STEP_PEAK_HEIGHT":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		c.GaitStepPeakHeight = v
	case "GAIT_STEP_PEAK_DISTANCE":
		return parsePositiveInt(key, value, &c.GaitStepPeakDist)
	case "GAIT_IC_THRESHOLD":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		c.GaitICThreshold = v
	case "GAIT_IC_MIN_DELAY":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		if v < 0 {
			return fmt.Errorf("%s must be >= 0, got %d", key, v)
		}
		c.GaitICMinDelay = v

	// Posture gate
	case "ORIENTATION_MAX_TILT":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid ORIENTATION_MAX_TILT %q: %w", value, err)
		}
		if v <= 0 || v > 180 {
			return fmt.Errorf("ORIENTATION_MAX_TILT must be in (0, 180], got %g", v)
		}
		c.OrientationMaxTilt = v

	// Storage
	case "STORE_PATH":
		c.StorePath = value

	// Timing
	case "CONSOLE_LOG_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CONSOLE_LOG_INTERVAL %q: %w", value, err)
		}
		c.ConsoleLogInterval = interval

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func parsePositiveInt(key, value string, dst *int) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v <= 0 {
		return fmt.Errorf("%s must be > 0, got %d", key, v)
	}
	*dst = v
	return nil
}

func parsePositiveFloat(key, value string, dst *float64) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if !(v > 0) {
		return fmt.Errorf("%s must be > 0, got %g", key, v)
	}
	*dst = v
	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if !c.IMUMock && c.IMUSPIDevice == "" {
		return fmt.Errorf("IMU_SPI_DEVICE is required unless IMU_MOCK=true")
	}
	if c.GPSSerialPort != "" && c.GPSBaudRate == 0 {
		return fmt.Errorf("GPS_BAUD_RATE is required with GPS_SERIAL_PORT")
	}
	if c.GaitFFTLength < c.GaitSegmentLength {
		return fmt.Errorf("GAIT_FFT_LENGTH (%d) must be >= GAIT_SEGMENT_LENGTH (%d)", c.GaitFFTLength, c.GaitSegmentLength)
	}
	if c.ConsoleLogInterval <= 0 {
		return fmt.Errorf("CONSOLE_LOG_INTERVAL must be > 0")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}

package dio

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/pkg/errors"

	"github.com/rsenegor-bpc/DIO/drivers"
	"github.com/rsenegor-bpc/DIO/mqtt"
	"github.com/rsenegor-bpc/DIO/recorder"
)

const DefaultConfigFile = "singledio.yml"

type Config struct {
	Board    int           `koanf:"board" yaml:"board"`
	Ports    []int         `koanf:"ports" yaml:"ports"`
	OutPorts int           `koanf:"out_ports" yaml:"out_ports"`
	Samples  int           `koanf:"samples" yaml:"samples"`
	ScanRate float64       `koanf:"scan_rate" yaml:"scan_rate"`
	Settle   time.Duration `koanf:"settle" yaml:"settle"`
	Pattern  string        `koanf:"pattern" yaml:"pattern"`
	Driver   string        `koanf:"driver" yaml:"driver"`
	LogLevel string        `koanf:"log_level" yaml:"log_level"`
	Quiet    bool          `koanf:"quiet" yaml:"quiet"`

	Mock     MockConfig     `koanf:"mock" yaml:"mock"`
	Mcp23017 Mcp23017Config `koanf:"mcp23017" yaml:"mcp23017"`
	Gpio     GpioConfig     `koanf:"gpio" yaml:"gpio"`
	Mqtt     MqttConfig     `koanf:"mqtt" yaml:"mqtt"`
	Influx   InfluxConfig   `koanf:"influx" yaml:"influx"`
}

type MockConfig struct {
	Ports int `koanf:"ports" yaml:"ports"`
	// Inputs maps a port number to the value its input lines read.
	Inputs map[string]int `koanf:"inputs" yaml:"inputs"`
}

type Mcp23017Config struct {
	Bus           int   `koanf:"bus" yaml:"bus"`
	Devices       []int `koanf:"devices" yaml:"devices"`
	InvertInputs  bool  `koanf:"invert_inputs" yaml:"invert_inputs"`
	InvertOutputs bool  `koanf:"invert_outputs" yaml:"invert_outputs"`
}

type GpioConfig struct {
	Ports         [][]int `koanf:"ports" yaml:"ports"`
	InvertInputs  bool    `koanf:"invert_inputs" yaml:"invert_inputs"`
	InvertOutputs bool    `koanf:"invert_outputs" yaml:"invert_outputs"`
}

type MqttConfig struct {
	Broker   string `koanf:"broker" yaml:"broker"`
	ClientId string `koanf:"client_id" yaml:"client_id"`
	Topic    string `koanf:"topic" yaml:"topic"`
}

type InfluxConfig struct {
	Host        string `koanf:"host" yaml:"host"`
	Token       string `koanf:"token" yaml:"token"`
	Org         string `koanf:"org" yaml:"org"`
	Bucket      string `koanf:"bucket" yaml:"bucket"`
	Measurement string `koanf:"measurement" yaml:"measurement"`
}

func DefaultConfig() Config {
	return Config{
		Board:    0,
		Ports:    []int{0, 1, 2, 3, 4, 5, 6, 7},
		OutPorts: defaultOutPorts,
		Samples:  defaultSamplesPerPort,
		ScanRate: defaultScanRate,
		Settle:   defaultSettleDelay,
		Pattern:  "counter",
		Driver:   "powerdaq",
		LogLevel: "info",
		Mock:     MockConfig{Ports: 8},
		Mqtt:     MqttConfig{ClientId: "singledio", Topic: "singledio"},
		Influx:   InfluxConfig{Measurement: "dio"},
	}
}

// LoadConfig layers the defaults, the yaml file at path and the overrides
// (flat koanf keys such as "scan_rate" or "mqtt.broker"). A missing file is
// only an error when required is set.
func LoadConfig(path string, required bool, overrides map[string]interface{}) (cfg Config, err error) {
	k := koanf.New(".")

	err = k.Load(structs.Provider(DefaultConfig(), "koanf"), nil)
	if err != nil {
		err = errors.Wrap(err, "failed to load default config")
		return
	}

	if len(path) > 0 {
		_, statErr := os.Stat(path)
		switch {
		case statErr == nil:
			err = k.Load(file.Provider(path), yaml.Parser())
			if err != nil {
				err = errors.Wrapf(err, "failed to load config file %s", path)
				return
			}
		case required || !os.IsNotExist(statErr):
			err = errors.Wrapf(statErr, "can't open config file %s", path)
			return
		}
	}

	if len(overrides) > 0 {
		err = k.Load(confmap.Provider(overrides, "."), nil)
		if err != nil {
			err = errors.Wrap(err, "failed to load command line overrides")
			return
		}
	}

	err = k.Unmarshal("", &cfg)
	if err != nil {
		err = errors.Wrap(err, "failed to decode config")
	}
	return
}

func (c Config) Validate() error {
	if _, found := drivers.MapAllDioDrivers()[strings.ToLower(c.Driver)]; !found {
		return errors.Errorf("unknown driver %q", c.Driver)
	}
	if c.OutPorts < 0 || c.OutPorts > 0xff {
		return errors.Errorf("out_ports mask 0x%x does not fit 8 ports", c.OutPorts)
	}
	seen := make(map[int]bool)
	for _, port := range c.Ports {
		if port < 0 || port >= MaxPorts {
			return errors.Errorf("port %d out of range (0-%d)", port, MaxPorts-1)
		}
		if seen[port] {
			return errors.Errorf("port %d listed twice", port)
		}
		seen[port] = true
	}
	if _, err := ParsePattern(c.Pattern); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(err, "invalid log_level %q", c.LogLevel)
	}
	return nil
}

func (c Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

func (c Config) NewDriver() (drivers.DioDriver, error) {
	switch strings.ToLower(c.Driver) {
	case "powerdaq":
		return &drivers.PowerDaq{}, nil

	case "mock":
		md := &drivers.MockDio{Ports: uint16(c.Mock.Ports), Inputs: make(map[uint16]uint16)}
		for portStr, value := range c.Mock.Inputs {
			port, err := strconv.ParseUint(portStr, 0, 16)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid mock input port %q", portStr)
			}
			md.Inputs[uint16(port)] = uint16(value)
		}
		return md, nil

	case "mcp23017":
		mcp := &drivers.McpDio{
			BusNo:         uint8(c.Mcp23017.Bus),
			InvertInputs:  c.Mcp23017.InvertInputs,
			InvertOutputs: c.Mcp23017.InvertOutputs,
		}
		for _, devNo := range c.Mcp23017.Devices {
			if devNo < 0 || devNo > 7 {
				return nil, errors.Errorf("mcp23017 device number %d out of range (0-7)", devNo)
			}
			mcp.Devices = append(mcp.Devices, uint8(devNo))
		}
		return mcp, nil

	case "gpio":
		gp := &drivers.GpioDio{
			InvertInputs:  c.Gpio.InvertInputs,
			InvertOutputs: c.Gpio.InvertOutputs,
		}
		for _, pins := range c.Gpio.Ports {
			port := []uint8{}
			for _, pin := range pins {
				if pin < 0 || pin > 0xff {
					return nil, errors.Errorf("gpio pin %d out of range", pin)
				}
				port = append(port, uint8(pin))
			}
			gp.Ports = append(gp.Ports, port)
		}
		return gp, nil
	}

	return nil, errors.Errorf("unknown driver %q", c.Driver)
}

// NewRecorders builds the sample sinks: the console (unless quiet), then
// MQTT and InfluxDB when configured.
func (c Config) NewRecorders(ctx context.Context, stdout io.Writer) (recs []recorder.Recorder, err error) {
	if !c.Quiet {
		recs = append(recs, &recorder.Console{W: stdout})
	}

	if len(c.Mqtt.Broker) > 0 {
		mc, mqttErr := mqtt.NewMqttClient(c.Mqtt.Broker, c.Mqtt.ClientId)
		if mqttErr != nil {
			recorder.Multi(recs).Close()
			return nil, errors.Wrap(mqttErr, "failed to create mqtt client")
		}
		mqttErr = mc.Connect(ctx)
		if mqttErr != nil {
			recorder.Multi(recs).Close()
			return nil, errors.Wrap(mqttErr, "failed to connect to mqtt broker")
		}
		recs = append(recs, &recorder.Mqtt{Publisher: mc, Topic: c.Mqtt.Topic})
	}

	if len(c.Influx.Host) > 0 {
		in := &recorder.Influx{
			Host:         c.Influx.Host,
			Token:        c.Influx.Token,
			Organization: c.Influx.Org,
			Bucket:       c.Influx.Bucket,
			Measurement:  c.Influx.Measurement,
		}
		err = in.Open()
		if err != nil {
			recorder.Multi(recs).Close()
			return nil, err
		}
		recs = append(recs, in)
	}

	return
}

func (c Config) NewSession(driver drivers.DioDriver) (*Session, error) {
	err := c.Validate()
	if err != nil {
		return nil, err
	}
	pattern, err := ParsePattern(c.Pattern)
	if err != nil {
		return nil, err
	}

	s := DefaultSession(driver)
	s.Board = c.Board
	s.Ports = make([]uint16, 0, len(c.Ports))
	for _, port := range c.Ports {
		s.Ports = append(s.Ports, uint16(port))
	}
	s.OutPorts = uint8(c.OutPorts)
	s.SamplesPerPort = c.Samples
	s.ScanRate = c.ScanRate
	s.SettleDelay = c.Settle
	s.Pattern = pattern
	return s, nil
}

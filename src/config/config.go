package config

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// See: https://medium.com/@bnprashanth256/reading-configuration-files-and-environment-variables-in-go-golang-c2607f912b63

type Configurations struct {
	Inspector InspectorConfigurations
}

type InspectorConfigurations struct {
	SoftwareName      string
	LogLevel          string
	MaskKeysOnConsole bool
	MaskIpOnConsole   bool
	Capture           CaptureConfigurations
	Monitor           MonitorConfigurations
	Defaults          DefaultsConfigurations
	Streams           []StreamConfigurations
}

// CaptureConfigurations selects the packet source. A non-empty PcapFile wins
// over the UDP mirror port.
type CaptureConfigurations struct {
	PcapFile string
	UdpIp    string
	UdpPort  int
}

type MonitorConfigurations struct {
	WsPort               int
	StatsIntervalSeconds int
}

type DefaultsConfigurations struct {
	Mode  string
	Suite string
}

type StreamConfigurations struct {
	Name    string
	Address string
	Port    int
	Suite   string
	SdesKey string
	Mode    string
}

var Val Configurations

func setDefaults(v *viper.Viper) {
	v.SetDefault("inspector.softwarename", "SRTP Sniffer")
	v.SetDefault("inspector.loglevel", "desc")
	v.SetDefault("inspector.maskkeysonconsole", true)
	v.SetDefault("inspector.capture.udpip", "0.0.0.0")
	v.SetDefault("inspector.monitor.statsintervalseconds", 5)
	v.SetDefault("inspector.defaults.mode", "native")
	v.SetDefault("inspector.defaults.suite", "AES_CM_128_HMAC_SHA1_80")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("SNIFFER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// Enable VIPER to read Environment Variables
	v.AutomaticEnv()
	v.SetConfigType("yml")
	setDefaults(v)
	return v
}

// Load reads config.yml from the working directory or its parent.
func Load() error {
	v := newViper()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("../")
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrap(err, "read config file")
	}
	return decode(v)
}

// LoadFile reads the configuration from an explicit path.
func LoadFile(path string) error {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "read config file %s", path)
	}
	return decode(v)
}

func decode(v *viper.Viper) error {
	var val Configurations
	if err := v.Unmarshal(&val); err != nil {
		return errors.Wrap(err, "decode config")
	}
	for i := range val.Inspector.Streams {
		stream := &val.Inspector.Streams[i]
		if stream.Name == "" {
			stream.Name = fmt.Sprintf("stream-%d", i+1)
		}
		if stream.Suite == "" {
			stream.Suite = val.Inspector.Defaults.Suite
		}
		if stream.Mode == "" {
			stream.Mode = val.Inspector.Defaults.Mode
		}
		if stream.SdesKey == "" {
			return errors.Errorf("stream %s has no sdesKey", stream.Name)
		}
		if stream.Port <= 0 || stream.Port > 65535 {
			return errors.Errorf("stream %s has invalid port %d", stream.Name, stream.Port)
		}
	}
	Val = val
	return nil
}

func ToString() string {
	result, err := yaml.Marshal(Val)
	if err != nil {
		return fmt.Sprintf("Error: %s", err)
	}
	return string(result)
}

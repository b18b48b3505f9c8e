// Package config holds all the code that directly uses the viper package.
//
// Configuration is read from a TOML-formatted file called 'surfmap.toml'.
// It is looked for in the /opt folder and then in the current directory,
// for convenience.  Missing settings take the defaults set in
// setDefaults.  A typical file:
//
//	[bus]
//	kind = "devmem"
//	base = "0x80000000"
//	size = "0x01000000"
//
//	[[device]]
//	name = "adc0"
//	type = "Adc32Rf45"
//	offset = "0x00100000"
//	config = "adc0.yml"
//
//	[redis]
//	addr = "localhost:6379"
//	interval = "1s"
package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jbrzusto/surfmap/fpga"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
)

const CONFIG_NAME = "surfmap" // name of config file (without extension)

// Bus selects the register transport.
type Bus struct {
	Kind    string // "mem" for an in-memory register file, "devmem" for mmap()
	Memfile string // file to map for "devmem"
	Base    uint64 // physical address of the window
	Size    uint64 // size of the window in bytes
}

// Device places one register map on the bus.
type Device struct {
	Name   string // instance name, used as the redis key prefix
	Type   string // surf device type
	Offset uint64 // byte offset of the map on the bus
	Config string // YAML configuration applied at startup, if set
	Image  string // Intel HEX register image applied at startup, if set
}

// Redis configures publishing.
type Redis struct {
	Addr     string
	DB       int
	Hash     string
	Interval time.Duration
}

// Log configures logging.
type Log struct {
	Level string
}

// Config is the whole configuration.
type Config struct {
	Bus     Bus
	Devices []Device `mapstructure:"device"`
	Redis   Redis
	Log     Log
}

// New returns a viper instance that reads CONFIG_NAME from fs, with the
// defaults set.
func New(fs afero.Fs) *viper.Viper {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigName(CONFIG_NAME)
	v.SetConfigType("toml")
	v.AddConfigPath("/opt") // path to look for the config file in
	v.AddConfigPath(".")    // optionally look for config in the working directory
	setDefaults(v)
	return v
}

// setDefaults sets values that let the tools run off target: an
// in-memory bus, a local redis server and informational logging.
func setDefaults(v *viper.Viper) {
	v.SetDefault("bus.kind", "mem")
	v.SetDefault("bus.memfile", fpga.DEV_MEM)
	v.SetDefault("bus.base", uint64(fpga.BASE_ADDR))
	v.SetDefault("bus.size", uint64(fpga.BASE_SIZE))
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.hash", "surfmap")
	v.SetDefault("redis.interval", time.Second)
	v.SetDefault("log.level", "info")
}

// Load reads the configuration file, if there is one, and decodes it.
// The returned bool reports whether a file was read.
func Load(v *viper.Viper) (*Config, bool, error) {
	found := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, false, err
		}
		jww.WARN.Printf("no %s.toml found; using defaults", CONFIG_NAME)
		found = false
	}
	c, err := Decode(v)
	return c, found, err
}

// Decode decodes the settings of v.  Integers may be given as strings in
// any Go literal form, e.g. "0x1C000".
func Decode(v *viper.Viper) (*Config, error) {
	var c Config
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		numberHook,
	)
	if err := v.Unmarshal(&c, viper.DecodeHook(hook)); err != nil {
		return nil, err
	}
	if err := c.check(); err != nil {
		return nil, err
	}
	return &c, nil
}

// numberHook converts strings to unsigned integers with cast, which
// accepts hexadecimal, octal and binary prefixes.
func numberHook(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
	if f.Kind() != reflect.String {
		return data, nil
	}
	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return cast.ToUint64E(strings.Replace(data.(string), "_", "", -1))
	case reflect.Int:
		return cast.ToIntE(data)
	}
	return data, nil
}

func (c *Config) check() error {
	switch c.Bus.Kind {
	case "mem", "devmem":
	default:
		return fmt.Errorf("config: bus.kind must be \"mem\" or \"devmem\", not %q", c.Bus.Kind)
	}
	if c.Redis.Interval <= 0 {
		return fmt.Errorf("config: redis.interval must be positive, not %v", c.Redis.Interval)
	}
	seen := make(map[string]bool, len(c.Devices))
	for i, d := range c.Devices {
		if d.Name == "" {
			return fmt.Errorf("config: device %d has no name", i)
		}
		if seen[d.Name] {
			return fmt.Errorf("config: duplicate device name %q", d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}

// Watch calls reload with the new configuration whenever the file read
// by v changes.  Configurations that fail to decode are logged and
// ignored.
func Watch(v *viper.Viper, reload func(*Config)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		jww.INFO.Printf("config: %s changed (%s)", e.Name, e.Op)
		c, err := Decode(v)
		if err != nil {
			jww.ERROR.Printf("config: %v", err)
			return
		}
		reload(c)
	})
	v.WatchConfig()
}

// SetupLogging sets the stdout threshold of the logger to the named
// level: trace, debug, info, warn, error, critical or fatal.
func SetupLogging(level string) error {
	levels := map[string]jww.Threshold{
		"trace":    jww.LevelTrace,
		"debug":    jww.LevelDebug,
		"info":     jww.LevelInfo,
		"warn":     jww.LevelWarn,
		"error":    jww.LevelError,
		"critical": jww.LevelCritical,
		"fatal":    jww.LevelFatal,
	}
	t, ok := levels[strings.ToLower(level)]
	if !ok {
		return fmt.Errorf("unknown log level %q", level)
	}
	jww.SetStdoutThreshold(t)
	return nil
}

// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"time"

	"github.com/flynn/json5"
	"github.com/vison-lu/rf-module-test/internal/board"
)

// Config is the gateway configuration. It is read from a JSON5 file, flags given on the command
// line override the file.
type Config struct {
	Radio    board.Config  `json:"radio"`
	Band     int           `json:"band"`     // frequency band in Mhz
	Power    int           `json:"power"`    // output power in dBm
	Poll     time.Duration `json:"poll"`     // receive polling interval in ns
	TxHold   time.Duration `json:"tx_hold"`  // time given a frame to go out before re-arming RX, in ns
	Realtime bool          `json:"realtime"` // poll from a realtime thread
	Debug    bool          `json:"debug"`
	MQTT     MqttConfig    `json:"mqtt"`
	Redis    RedisConfig   `json:"redis"`
}

// MqttConfig describes the broker connection.
type MqttConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Prefix   string `json:"prefix"` // frames are published to <prefix>/rx and read from <prefix>/tx
}

// RedisConfig describes where received frames are recorded, an empty Addr disables recording.
type RedisConfig struct {
	Addr string `json:"addr"`
	DB   int    `json:"db"`
	Key  string `json:"key"`  // key prefix
	Keep int    `json:"keep"` // number of frames kept in the log list
}

func defaultConfig() Config {
	return Config{
		Radio:  board.Default,
		Band:   868,
		Power:  17,
		Poll:   time.Millisecond,
		TxHold: 150 * time.Millisecond,
		MQTT:   MqttConfig{Host: "localhost", Port: 1883, Prefix: "rfm26"},
		Redis:  RedisConfig{Key: "rfm26", Keep: 100},
	}
}

// flags returns a flag set that stores into c, and the config file flag.
func flags(c *Config) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet("rfm26-gateway", flag.ContinueOnError)
	file := fs.String("config", "", "JSON5 configuration file")
	c.Radio.Flags(fs)
	fs.IntVar(&c.Band, "band", c.Band, "frequency band in Mhz: 315, 434, 868, or 915")
	fs.IntVar(&c.Power, "power", c.Power, "output power in dBm: 11, 14, 17, or 20")
	fs.DurationVar(&c.Poll, "poll", c.Poll, "receive polling interval")
	fs.DurationVar(&c.TxHold, "txhold", c.TxHold, "time to wait after a transmission before receiving")
	fs.BoolVar(&c.Realtime, "rt", c.Realtime, "poll from a realtime thread")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "enable debug output")
	fs.StringVar(&c.MQTT.Host, "mqtt", c.MQTT.Host, "MQTT broker host")
	fs.IntVar(&c.MQTT.Port, "mqttport", c.MQTT.Port, "MQTT broker port")
	fs.StringVar(&c.MQTT.User, "mqttuser", c.MQTT.User, "MQTT user")
	fs.StringVar(&c.MQTT.Password, "mqttpass", c.MQTT.Password, "MQTT password")
	fs.StringVar(&c.MQTT.Prefix, "prefix", c.MQTT.Prefix, "MQTT topic prefix")
	fs.StringVar(&c.Redis.Addr, "redis", c.Redis.Addr, "host:port of redis server, empty to disable")
	fs.IntVar(&c.Redis.DB, "redisdb", c.Redis.DB, "redis database")
	fs.StringVar(&c.Redis.Key, "rediskey", c.Redis.Key, "redis key prefix")
	fs.IntVar(&c.Redis.Keep, "keep", c.Redis.Keep, "number of frames kept in redis")
	return fs, file
}

// loadConfig parses the command line, reads the config file if one is given, and applies the
// flags that were set on top of it.
func loadConfig(args []string) (Config, error) {
	conf := defaultConfig()
	fs, file := flags(&conf)
	if err := fs.Parse(args); err != nil {
		return conf, err
	}
	if *file == "" {
		return conf, nil
	}

	data, err := ioutil.ReadFile(*file)
	if err != nil {
		return conf, err
	}
	fileConf := defaultConfig()
	if err := json5.Unmarshal(data, &fileConf); err != nil {
		return conf, fmt.Errorf("cannot parse %s: %s", *file, err)
	}
	override, _ := flags(&fileConf)
	fs.Visit(func(f *flag.Flag) {
		if f.Name != "config" {
			override.Set(f.Name, f.Value.String())
		}
	})
	return fileConf, nil
}

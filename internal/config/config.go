// Package config loads the server's YAML configuration (spec.md §6),
// following the teacher's gopkg.in/yaml.v3 decode-then-default pattern.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the server's tunables. The listen address is one host:port
// key; there are no keys for worker count, I/O queue depth, switching
// per-IP limiting off, accept timeout, or shutdown timeout.
type Config struct {
	ListenAddr           string        `yaml:"listen_addr"`
	ProtocolVersion      int32         `yaml:"protocol_version"`
	VersionName          string        `yaml:"version_name"`
	Motd                 string        `yaml:"motd"`
	MaxPlayers           int           `yaml:"max_players"`
	OnlineMode           bool          `yaml:"online_mode"`
	CompressionThreshold int32         `yaml:"compression_threshold"`
	MaxPacketSize        int32         `yaml:"max_packet_size"`
	MaxQueuedPackets     int           `yaml:"max_queued_packets"`
	IdleTimeout          time.Duration `yaml:"idle_timeout"`
	MaxSessions          int           `yaml:"max_sessions"`
	MaxPerIP             int           `yaml:"max_per_ip"`
	TCPNoDelay           bool          `yaml:"tcp_nodelay"`
	TCPKeepAlive         bool          `yaml:"tcp_keepalive"`
	MetricsAddr          string        `yaml:"metrics_addr"`
}

// Default returns spec.md §6's default values.
func Default() Config {
	return Config{
		ListenAddr:           "0.0.0.0:25565",
		ProtocolVersion:      765,
		VersionName:          "1.20.4",
		Motd:                 "A Minecraft Server",
		MaxPlayers:           100,
		OnlineMode:           false,
		CompressionThreshold: 256,
		MaxPacketSize:        2097151,
		MaxQueuedPackets:     256,
		IdleTimeout:          30 * time.Second,
		MaxSessions:          1000,
		MaxPerIP:             5,
		TCPNoDelay:           true,
		TCPKeepAlive:         true,
		MetricsAddr:          "127.0.0.1:9100",
	}
}

// Load reads and merges a YAML file at path over Default(); a missing file
// is not an error, matching the teacher's lenient startup behavior.
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
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills in zero-valued fields a partial YAML document left
// unset, mirroring the teacher's post-decode defaulting pass.
func (c *Config) applyDefaults() {
	d := Default()
	if c.ListenAddr == "" {
		c.ListenAddr = d.ListenAddr
	}
	if c.ProtocolVersion == 0 {
		c.ProtocolVersion = d.ProtocolVersion
	}
	if c.VersionName == "" {
		c.VersionName = d.VersionName
	}
	if c.Motd == "" {
		c.Motd = d.Motd
	}
	if c.MaxPlayers == 0 {
		c.MaxPlayers = d.MaxPlayers
	}
	if c.CompressionThreshold == 0 {
		c.CompressionThreshold = d.CompressionThreshold
	}
	if c.MaxPacketSize == 0 {
		c.MaxPacketSize = d.MaxPacketSize
	}
	if c.MaxQueuedPackets == 0 {
		c.MaxQueuedPackets = d.MaxQueuedPackets
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = d.IdleTimeout
	}
	if c.MaxSessions == 0 {
		c.MaxSessions = d.MaxSessions
	}
	if c.MaxPerIP == 0 {
		c.MaxPerIP = d.MaxPerIP
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = d.MetricsAddr
	}
}

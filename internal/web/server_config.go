package web

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	EnvListenAddr = "BEAMFIELD_LISTEN"
	EnvDevMode    = "BEAMFIELD_DEV"
)

// ServerConfig contains settings for running the preview server.
//
// The intended defaults differ per binary:
// - beamfield: disabled ("")
// - simulator: :8080
type ServerConfig struct {
	ListenAddr string
	DevMode    bool
}

// Enabled reports whether a listen address is configured.
func (c ServerConfig) Enabled() bool { return c.ListenAddr != "" }

func DefaultServerConfigFromEnv(defaultListenAddr string) (ServerConfig, error) {
	listenAddr, ok := os.LookupEnv(EnvListenAddr)
	if !ok {
		listenAddr = defaultListenAddr
	}
	listenAddr = strings.TrimSpace(listenAddr)

	devMode := false
	if raw := os.Getenv(EnvDevMode); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("%s must be a boolean (got %q): %w", EnvDevMode, raw, err)
		}
		devMode = parsed
	}

	return ServerConfig{ListenAddr: listenAddr, DevMode: devMode}, nil
}

// PreviewURL turns a listen address into a URL a phone on the same network
// could open. Wildcard hosts are replaced with advertiseHost when given,
// otherwise with 127.0.0.1.
func PreviewURL(listenAddr, advertiseHost string) string {
	if listenAddr == "" {
		return ""
	}
	host, port := listenAddr, ""
	if i := strings.LastIndex(listenAddr, ":"); i >= 0 {
		host, port = listenAddr[:i], listenAddr[i+1:]
	}
	if host == "" || host == "0.0.0.0" || host == "[::]" {
		host = advertiseHost
		if host == "" {
			host = "127.0.0.1"
		}
	}
	if port == "" {
		return "http://" + host + "/"
	}
	return "http://" + host + ":" + port + "/"
}

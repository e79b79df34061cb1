// config/config.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package config holds the process settings of the metpanel command. Each
// setting is a command-line flag whose default may be overridden with a
// METPRODUCTS_* environment variable.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/hdwx/metproducts/math"
	"github.com/hdwx/metproducts/util"
)

const envPrefix = "METPRODUCTS_"

type Config struct {
	// Rendering options file; if empty, the built-in defaults are used.
	OptionsPath string
	// Where products are stored: a directory, file://dir, gs://bucket or
	// s3://bucket.
	Output string
	DryRun bool

	FigWidth, FigHeight float64 // inches
	DPI                 float64
	AxesBounds          math.Bounds

	Projection string
	CentralLon float64
	CentralLat float64
	Parallels  [2]float64

	// Directory of Natural Earth GeoJSON files; if empty, the built-in
	// basemap is used.
	BasemapDir string

	LogLevel string
	LogDir   string

	Workers int

	KafkaBrokers []string
	KafkaTopic   string

	HTTPAddr        string
	MetricsTextfile string
	ShutdownTimeout time.Duration
}

// EnvOrDefault returns the value of the METPRODUCTS_-prefixed environment
// variable key, or def if it is unset.
func EnvOrDefault(key, def string) string {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		return v
	}
	return def
}

// Default returns the configuration before flags and environment variables
// are applied.
func Default() *Config {
	return &Config{
		Output:          "products",
		FigWidth:        8,
		FigHeight:       6,
		DPI:             100,
		AxesBounds:      math.Bounds{X0: 0.05, Y0: 0.15, W: 0.9, H: 0.8},
		Projection:      "lambertconformal",
		CentralLon:      -96,
		CentralLat:      39,
		Parallels:       [2]float64{33, 45},
		LogLevel:        "info",
		LogDir:          "-",
		Workers:         runtime.NumCPU(),
		KafkaTopic:      "metproducts",
		HTTPAddr:        ":8080",
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load parses args with the flags of a configuration whose defaults come
// from the environment. Malformed environment values and invalid settings
// are all reported together.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	var e util.ErrorLogger
	c := Default()
	c.registerFlags(fs, &e)
	if e.HaveErrors() {
		return nil, e.Err()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) registerFlags(fs *flag.FlagSet, e *util.ErrorLogger) {
	str := func(p *string, name, env, usage string) {
		*p = EnvOrDefault(env, *p)
		fs.StringVar(p, name, *p, usage+" (env "+envPrefix+env+")")
	}
	float := func(p *float64, name, env, usage string) {
		if v, ok := os.LookupEnv(envPrefix + env); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				e.ErrorString("%s%s: %q: invalid number", envPrefix, env, v)
			}
			*p = f
		}
		fs.Float64Var(p, name, *p, usage+" (env "+envPrefix+env+")")
	}
	boolean := func(p *bool, name, env, usage string) {
		if v, ok := os.LookupEnv(envPrefix + env); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				e.ErrorString("%s%s: %q: invalid boolean", envPrefix, env, v)
			}
			*p = b
		}
		fs.BoolVar(p, name, *p, usage+" (env "+envPrefix+env+")")
	}
	fn := func(name, env, def, usage string, set func(string) error) {
		if v, ok := os.LookupEnv(envPrefix + env); ok {
			if err := set(v); err != nil {
				e.ErrorString("%s%s: %v", envPrefix, env, err)
			}
		}
		fs.Func(name, usage+" (default "+def+"; env "+envPrefix+env+")", set)
	}

	str(&c.OptionsPath, "options", "OPTIONS", "JSON file of plotting options")
	str(&c.Output, "output", "OUTPUT", "product storage: directory, gs://bucket or s3://bucket")
	boolean(&c.DryRun, "dryrun", "DRYRUN", "render but do not store products")
	float(&c.FigWidth, "width", "FIG_WIDTH", "figure width in inches")
	float(&c.FigHeight, "height", "FIG_HEIGHT", "figure height in inches")
	float(&c.DPI, "dpi", "DPI", "figure resolution in dots per inch")
	fn("axes", "AXES", c.AxesBounds.String(), "map axes position as x0,y0,w,h figure fractions",
		func(s string) error {
			b, err := ParseBounds(s)
			if err == nil {
				c.AxesBounds = b
			}
			return err
		})
	str(&c.Projection, "projection", "PROJECTION", "map projection: lambertconformal, mercator or platecarree")
	float(&c.CentralLon, "central-lon", "CENTRAL_LON", "central longitude of the map projection")
	float(&c.CentralLat, "central-lat", "CENTRAL_LAT", "central latitude of the Lambert conformal projection")
	fn("parallels", "PARALLELS", fmt.Sprintf("%g,%g", c.Parallels[0], c.Parallels[1]),
		"standard parallels of the Lambert conformal projection",
		func(s string) error {
			v, err := parseFloats(s, 2)
			if err == nil {
				c.Parallels = [2]float64{v[0], v[1]}
			}
			return err
		})
	str(&c.BasemapDir, "basemap", "BASEMAP_DIR", "directory of Natural Earth GeoJSON files")
	str(&c.LogLevel, "loglevel", "LOG_LEVEL", "logging level: debug, info, warn or error")
	str(&c.LogDir, "logdir", "LOG_DIR", `directory for log files; "-" logs to stderr`)
	fn("nworkers", "WORKERS", strconv.Itoa(c.Workers), "number of panels rendered concurrently",
		func(s string) error {
			n, err := strconv.Atoi(s)
			if err == nil {
				c.Workers = n
			}
			return err
		})
	fn("brokers", "KAFKA_BROKERS", `""`, "comma-separated Kafka brokers for product notifications",
		func(s string) error {
			c.KafkaBrokers = ParseBrokers(s)
			return nil
		})
	str(&c.KafkaTopic, "topic", "KAFKA_TOPIC", "Kafka topic for product notifications")
	str(&c.HTTPAddr, "http", "HTTP_ADDR", "listen address of the product server")
	str(&c.MetricsTextfile, "metrics-textfile", "METRICS_TEXTFILE", "write metrics to this file after rendering")
	fn("shutdown-timeout", "SHUTDOWN_TIMEOUT", c.ShutdownTimeout.String(), "time allowed for the server to drain",
		func(s string) error {
			d, err := time.ParseDuration(s)
			if err == nil {
				c.ShutdownTimeout = d
			}
			return err
		})
}

// ParseBrokers splits a comma-separated broker list, dropping empty
// entries.
func ParseBrokers(s string) []string {
	var b []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			b = append(b, f)
		}
	}
	return b
}

// ParseBounds parses "x0,y0,w,h".
func ParseBounds(s string) (math.Bounds, error) {
	v, err := parseFloats(s, 4)
	if err != nil {
		return math.Bounds{}, err
	}
	return math.Bounds{X0: v[0], Y0: v[1], W: v[2], H: v[3]}, nil
}

func parseFloats(s string, n int) ([]float64, error) {
	fields := strings.Split(s, ",")
	if len(fields) != n {
		return nil, fmt.Errorf("%q: expected %d comma-separated numbers", s, n)
	}
	v := make([]float64, n)
	for i, f := range fields {
		var err error
		if v[i], err = strconv.ParseFloat(strings.TrimSpace(f), 64); err != nil {
			return nil, fmt.Errorf("%q: %w", s, err)
		}
	}
	return v, nil
}

// Validate reports all invalid settings.
func (c *Config) Validate() error {
	var e util.ErrorLogger

	if c.FigWidth <= 0 || c.FigHeight <= 0 {
		e.ErrorString("figure size %gx%g must be positive", c.FigWidth, c.FigHeight)
	}
	if c.DPI <= 0 {
		e.ErrorString("dpi %g must be positive", c.DPI)
	}
	if b := c.AxesBounds; b.W <= 0 || b.H <= 0 || b.X0 < 0 || b.X0+b.W > 1 || b.Y0+b.H > 1 {
		e.ErrorString("axes %s must lie inside the figure", b)
	}
	if _, err := c.MapProjection(); err != nil {
		e.Error(err)
	}
	if c.Workers < 1 {
		e.ErrorString("nworkers %d must be at least 1", c.Workers)
	}
	if c.Output == "" {
		e.ErrorString("no output location given")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		e.ErrorString("Kafka brokers given without a topic")
	}
	if c.ShutdownTimeout <= 0 {
		e.ErrorString("shutdown timeout %s must be positive", c.ShutdownTimeout)
	}

	if e.HaveErrors() {
		return e.Err()
	}
	return nil
}

// MapProjection returns the configured map projection.
func (c *Config) MapProjection() (math.Projection, error) {
	switch strings.ToLower(c.Projection) {
	case "lambertconformal", "lcc":
		lc, err := math.NewLambertConformal(c.CentralLon, c.CentralLat, c.Parallels)
		if err != nil {
			return nil, err
		}
		return lc, nil
	case "mercator", "merc":
		return math.Mercator{CentralLongitude: c.CentralLon}, nil
	case "platecarree", "latlon":
		return math.PlateCarree{CentralLongitude: c.CentralLon}, nil
	default:
		return nil, errors.New(c.Projection + ": unknown projection")
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	yml "gopkg.in/yaml.v2"

	dio "github.com/rsenegor-bpc/DIO"
	"github.com/rsenegor-bpc/DIO/drivers"
)

var (
	// Version is injected via ldflags
	Version = "dev"
	Build   string

	configFile = flag.String("config", dio.DefaultConfigFile, "path of the yaml configuration file")
	_          = flag.Int("board", 0, "board number")
	_          = flag.String("ports", "0,1,2,3,4,5,6,7", "comma separated ports to scan")
	_          = flag.String("outports", "0x04", "output enable mask, bit n enables port n")
	_          = flag.Int("samples", 50, "samples per port")
	_          = flag.Float64("rate", 10, "scan rate (cycles per second)")
	_          = flag.String("settle", "100ms", "delay between write and read (time.Duration)")
	_          = flag.String("pattern", "counter", "write pattern: counter or walking")
	_          = flag.String("driver", "powerdaq", "io driver: powerdaq, mock, mcp23017 or gpio")
	_          = flag.String("log-level", "info", "log level: debug, info, warn or error")
	_          = flag.Bool("quiet", false, "do not print samples to stdout")
)

// flagKeys maps flag names to config keys where they differ.
var flagKeys = map[string]string{
	"rate":      "scan_rate",
	"outports":  "out_ports",
	"log-level": "log_level",
}

func usage() {
	str := `singledio runs a software timed digital io test on a PowerDAQ PD2-DIO board:
it writes a pattern to every port, waits, reads it back and prints both values.

Usage:
	singledio [flags] <command>

Commands:
	run (default)
	conf
	mkconf
	version
	help

Flags:`
	fmt.Fprintln(flag.CommandLine.Output(), str)
	flag.PrintDefaults()
}

// overrides returns the explicitly set flags as koanf keys, the config file
// wins over flag defaults.
func overrides() map[string]interface{} {
	values := make(map[string]interface{})
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			return
		}
		key, found := flagKeys[f.Name]
		if !found {
			key = f.Name
		}
		value := f.Value.String()
		if key == "out_ports" {
			mask, err := parseMask(value)
			if err != nil {
				log.Fatal("invalid -outports", "value", value, "err", err)
			}
			values[key] = mask
			return
		}
		values[key] = value
	})
	return values
}

func loadConfig() dio.Config {
	_, explicit := lookupFlag("config")
	cfg, err := dio.LoadConfig(*configFile, explicit, overrides())
	if err != nil {
		log.Fatal("failed to load config", "err", err)
	}
	return cfg
}

func lookupFlag(name string) (f *flag.Flag, set bool) {
	flag.Visit(func(visited *flag.Flag) {
		if visited.Name == name {
			f = visited
			set = true
		}
	})
	return
}

func printConf(cfg dio.Config) {
	err := yml.NewEncoder(os.Stdout).Encode(cfg)
	if err != nil {
		log.Fatal(err)
	}
}

func mkconf(cfg dio.Config) {
	f, err := os.Create(*configFile)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	err = yml.NewEncoder(f).Encode(cfg)
	if err != nil {
		log.Fatal(err)
	}
	log.Info("config written", "path", *configFile)
}

func run(cfg dio.Config) (err error) {
	err = cfg.Validate()
	if err != nil {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver, err := cfg.NewDriver()
	if err != nil {
		return
	}
	if md, isMock := driver.(*drivers.MockDio); isMock && cfg.Level() == log.DebugLevel {
		md.MonitorStateChanges(os.Stderr)
	}

	s, err := cfg.NewSession(driver)
	if err != nil {
		return
	}
	s.Recorders, err = cfg.NewRecorders(ctx, os.Stdout)
	if err != nil {
		return
	}
	defer func() {
		closeErr := s.Close()
		if closeErr != nil {
			log.Error("cleanup failed", "err", closeErr)
			if err == nil {
				err = closeErr
			}
		}
	}()

	log.Info("starting", "driver", driver, "board", cfg.Board, "ports", cfg.Ports, "samples", cfg.Samples, "rate", cfg.ScanRate)
	err = s.Init(ctx)
	if err != nil {
		return
	}
	info := s.AdapterInfo()
	log.Debug("adapter open", "model", info.Model, "serial", info.SerialNumber)

	return s.Run(ctx)
}

func main() {
	flag.Usage = usage
	flag.Parse()

	cfg := loadConfig()
	log.SetLevel(cfg.Level())

	cmd := "run"
	if flag.NArg() > 0 {
		cmd = strings.ToLower(flag.Arg(0))
	}

	switch cmd {
	case "help":
		usage()
	case "conf":
		printConf(cfg)
	case "mkconf":
		mkconf(cfg)
	case "version":
		fmt.Printf("singledio version %s %s\n", Version, Build)
	case "run":
		err := run(cfg)
		if err != nil {
			log.Error("singledio failed", "err", err)
			os.Exit(1)
		}
		log.Info("done")
	default:
		log.Fatal("unknown command", "cmd", cmd)
	}
}

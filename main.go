package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type CLIArgs struct {
	PrintDelays    bool
	JSONOutput     bool
	PrintCurrent   bool
	AutoSelect     bool
	Monitor        bool
	CheckEndpoints bool
	DryRun         bool
}

func parseArgs() (CLIArgs, error) {
	return parseArgsFrom(os.Args[1:])
}

func parseArgsFrom(argv []string) (CLIArgs, error) {
	var args CLIArgs
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVar(&args.PrintDelays, "print-delays", false, "Print proxy delays for group and exit")
	fs.BoolVar(&args.JSONOutput, "json", false, "Use JSON output")
	fs.BoolVar(&args.PrintCurrent, "print-current", false, "Print current proxy delay and exit")
	fs.BoolVar(&args.AutoSelect, "auto-select", false, "Auto select faster proxy and exit")
	fs.BoolVar(&args.Monitor, "monitor", false, "Run monitor loop with auto selection")
	fs.BoolVar(&args.CheckEndpoints, "check-endpoints", false, "Test ENDPOINT_URLS via current proxy and exit")
	fs.BoolVar(&args.DryRun, "dry-run", false, "Evaluate switching decision without applying proxy change")
	if err := fs.Parse(argv); err != nil {
		return CLIArgs{}, err
	}

	actionCount := 0
	for _, selected := range []bool{args.PrintDelays, args.PrintCurrent, args.AutoSelect, args.Monitor, args.CheckEndpoints} {
		if selected {
			actionCount++
		}
	}
	if actionCount != 1 {
		return CLIArgs{}, errors.New("exactly one of --print-delays, --print-current, --auto-select, --monitor, --check-endpoints is required")
	}
	if args.DryRun && !(args.AutoSelect || args.Monitor) {
		return CLIArgs{}, errors.New("--dry-run can only be used with --auto-select or --monitor")
	}
	return args, nil
}

func usageText() string {
	return strings.TrimSpace(`
Usage:
  mihomo-autopilot [--json] [--dry-run] (--print-delays | --print-current | --auto-select | --monitor | --check-endpoints)

Flags:
  --print-delays     Print top 10 proxy delays for group and exit
  --print-current    Print current proxy delay and exit
  --auto-select      Evaluate and switch proxy once
  --monitor          Run monitor loop with auto selection
  --check-endpoints  Test ENDPOINT_URLS via current proxy and exit
  --json             Use JSON output
  --dry-run          Only with --auto-select/--monitor; never apply switch
`)
}

func setupLogging() {
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
}

func main() {
	setupLogging()

	args, err := parseArgs()
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err.Error())
			fmt.Fprintln(os.Stderr, usageText())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stdout, usageText())
		os.Exit(0)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	baseTransport, err := buildBaseTransportNoEnvProxy()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	client := &http.Client{Transport: baseTransport}

	switch {
	case args.PrintDelays:
		printDelaysOnce(client, cfg, args.JSONOutput)
	case args.PrintCurrent:
		if err := printCurrentDelayOnce(client, cfg, args.JSONOutput); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	case args.AutoSelect:
		if err := autoSelectOnce(client, cfg, args.JSONOutput, args.DryRun); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	case args.Monitor:
		monitorLoop(client, cfg, args.JSONOutput, args.DryRun)
	case args.CheckEndpoints:
		checkEndpointsCurrentOnce(client, cfg, args.JSONOutput)
	}
}

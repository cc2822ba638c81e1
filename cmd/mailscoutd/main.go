// Command mailscoutd runs the mailbox analysis daemon in the foreground.
// The mailscout CLI launches this same bootstrap through its hidden
// `daemon run` subcommand; this binary exists for service managers that
// want a dedicated daemon executable.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"mailscout/internal/config"
	"mailscout/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	logLevel := flag.String("log-level", "", "Override the configured log level")
	diagnostic := flag.Bool("diagnostic", false, "Enable diagnostic logging for this run")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		fatalf("prepare directories: %v", err)
	}

	level := cfg.Logging.Level
	if *logLevel != "" {
		level = *logLevel
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{
		LogLevel:   level,
		Diagnostic: *diagnostic,
	}); err != nil {
		fatalf("%v", err)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "mailscoutd: "+format+"\n", args...)
	os.Exit(1)
}

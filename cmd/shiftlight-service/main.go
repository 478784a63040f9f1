package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"shiftlight-service/internal/config"
	"shiftlight-service/internal/core"
	"shiftlight-service/internal/logger"
)

func main() {
	var serviceLogLevel int
	var configPath string
	flag.IntVar(&serviceLogLevel, "log", 3, "Service log level (0=NONE, 1=ERROR, 2=WARN, 3=INFO, 4=DEBUG)")
	flag.StringVar(&configPath, "config", "", "Path to YAML configuration file")

	flag.Parse()

	// Create standard logger with appropriate format
	var stdLogger *log.Logger
	if os.Getenv("INVOCATION_ID") != "" {
		// Running under systemd, use minimal format
		stdLogger = log.New(os.Stdout, "", 0)
	} else {
		// Running interactively, use timestamps
		stdLogger = log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds|log.Lmsgprefix)
	}

	l := logger.NewLogger(stdLogger, logger.LogLevel(serviceLogLevel))

	l.Infof("Starting shift light service...")

	cfg, err := config.Load(configPath)
	if err != nil {
		l.Fatalf("Failed to load configuration: %v", err)
	}

	system, err := core.NewShiftLightSystem(cfg, l)
	if err != nil {
		l.Fatalf("Failed to create system: %v", err)
	}
	if err := system.Start(); err != nil {
		l.Fatalf("Failed to start system: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	l.Infof("Received signal %v, shutting down...", sig)
	system.Shutdown()
	l.Infof("Shutdown complete")
}

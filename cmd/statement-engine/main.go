package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/finmodeler/statement-engine/internal/cashflow"
	"github.com/finmodeler/statement-engine/internal/config"
	"github.com/finmodeler/statement-engine/internal/report"
	"github.com/finmodeler/statement-engine/internal/server"
	"github.com/finmodeler/statement-engine/internal/store"
	"github.com/finmodeler/statement-engine/pkg/constants"
	"github.com/finmodeler/statement-engine/pkg/export"
	"github.com/finmodeler/statement-engine/pkg/output"
	"github.com/finmodeler/statement-engine/pkg/validation"
)

var version = "dev"

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := loggingConfig.Format
	if format == "" {
		format = "json"
	}

	var zapConfig zap.Config
	switch format {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		if file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		} else {
			_ = file.Close()
		}

		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig.Build()
}

func main() {
	modelLocation := flag.String("model", constants.DefaultModelFile, "path to model definition file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	xlsxPath := flag.String("xlsx", "", "write the computed model to an xlsx workbook at this path")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	serve := flag.Bool("serve", false, "run the HTTP API instead of computing a model file")
	serverConfigLocation := flag.String("server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	flag.Parse()

	if *serve {
		runServer(*serverConfigLocation, *logLevel)
		return
	}

	conf, err := config.LoadConfiguration(*modelLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load model at %s\", \"error\": \"%v\"}\n", *modelLocation, err)
		return
	}

	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	warnings := conf.Validate()
	for _, warning := range warnings {
		logger.Warn("Model warning: "+warning,
			zap.String("op", "main"),
		)
	}

	m, projCfg, err := conf.Build()
	if err != nil {
		logger.Fatal("failed to build statement model",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	for _, warning := range config.ValidateModel(m) {
		logger.Warn("Model warning: "+warning,
			zap.String("op", "main"),
		)
	}

	m = cashflow.NewClassifier(logger).Apply(m)
	rep := report.Build(logger, m, projCfg)

	if *xlsxPath != "" {
		if err := export.Save(rep, *xlsxPath); err != nil {
			logger.Fatal("failed to write workbook",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		logger.Info("workbook written",
			zap.String("op", "main"),
			zap.String("path", *xlsxPath),
		)
		return
	}

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(rep)
	case constants.OutputFormatCSV:
		output.CsvFormat(rep)
	}
}

func runServer(configLocation, logLevelOverride string) {
	serverConfig, err := server.LoadConfig(configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server config\", \"error\": \"%v\"}\n", err)
		return
	}

	logger, err := initializeLogger(serverConfig.Logging, logLevelOverride)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	projects, err := store.Open(serverConfig.Database)
	if err != nil {
		logger.Fatal("failed to open project store",
			zap.String("op", "main"),
			zap.String("database", serverConfig.Database),
			zap.Error(err),
		)
	}
	defer func() {
		_ = projects.Close()
	}()

	handler := server.NewHandler(logger, projects, serverConfig.UploadSizeBytes(), version)

	logger.Info("starting HTTP server",
		zap.String("op", "main"),
		zap.String("address", serverConfig.Address),
	)
	if err := http.ListenAndServe(serverConfig.Address, handler); err != nil {
		logger.Fatal("server exited",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}

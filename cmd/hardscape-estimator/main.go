package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/iwvelando/hardscape-estimator/internal/config"
	"github.com/iwvelando/hardscape-estimator/internal/logging"
	"github.com/iwvelando/hardscape-estimator/internal/quote"
	"github.com/iwvelando/hardscape-estimator/internal/recorder"
	"github.com/iwvelando/hardscape-estimator/pkg/constants"
	"github.com/iwvelando/hardscape-estimator/pkg/output"
	"github.com/iwvelando/hardscape-estimator/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	historyPath := flag.String("history", "", "optional sqlite database recording every pricing run")
	flag.Parse()

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
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

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	results, err := quote.GetQuotes(logger, *conf)
	if err != nil {
		logger.Fatal("failed to price estimates",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	dbPath := conf.History.SQLitePath
	if *historyPath != "" {
		dbPath = *historyPath
	}
	rec, err := recorder.Open(logger, dbPath)
	if err != nil {
		logger.Fatal("failed to open quote history",
			zap.String("op", "main"),
			zap.String("path", dbPath),
			zap.Error(err),
		)
	}
	defer func() {
		_ = rec.Close()
	}()

	runID, err := rec.RecordRun(context.Background(), "cli", results)
	if err != nil {
		logger.Error("failed to record quote history",
			zap.String("op", "main"),
			zap.Error(err),
		)
	} else {
		logger.Debug("pricing run complete",
			zap.String("op", "main"),
			zap.String("runID", runID),
			zap.Int("quotes", len(results)),
		)
	}

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(os.Stdout, results)
	case constants.OutputFormatCSV:
		if err := output.CsvFormat(os.Stdout, results); err != nil {
			logger.Error("failed to write CSV output",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}
}

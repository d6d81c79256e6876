package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zpix/proxyscore/internal/analytics"
	"github.com/zpix/proxyscore/internal/keystore"
	"github.com/zpix/proxyscore/internal/logging"
	"github.com/zpix/proxyscore/internal/output"
	"github.com/zpix/proxyscore/internal/parser"
	"github.com/zpix/proxyscore/internal/probe"
	"github.com/zpix/proxyscore/internal/reputation"
	"github.com/zpix/proxyscore/internal/verify"
)

const envAPIKey = "IPQS_API_KEY"

func main() {
	var (
		inputFile   string
		apiKey      string
		keyFile     string
		saveKey     bool
		proxyType   string
		timeoutSec  int
		concurrency int
		strictness  int
		geoipDB     string
		outputFile  string
		format      string
		template    string
		verbose     bool
	)

	flag.StringVar(&inputFile, "input", "", "path to file with proxy list (host:port[:user:pass], one per line)")
	flag.StringVar(&apiKey, "key", "", "fraud-score service API key (overrides env and key file)")
	flag.StringVar(&keyFile, "key-file", keystore.DefaultPath, "path to the stored API key file")
	flag.BoolVar(&saveKey, "save-key", false, "persist the API key to the key file after the run")
	flag.StringVar(&proxyType, "type", "http", "proxy type: http | socks5")
	flag.IntVar(&timeoutSec, "timeout", 10, "timeout in seconds for each proxy check")
	flag.IntVar(&concurrency, "concurrency", 10, "number of concurrent checks")
	flag.IntVar(&strictness, "strictness", 1, "fraud-score service strictness (0-3)")
	flag.StringVar(&geoipDB, "geoip-db", "", "optional GeoLite2 City mmdb path for offline geolocation")
	flag.StringVar(&outputFile, "output", "", "optional path to write results")
	flag.StringVar(&format, "format", "json", "output format: json | csv | txt")
	flag.StringVar(&template, "template", output.DefaultTemplate, "line template for txt format")
	flag.BoolVar(&verbose, "verbose", false, "enable debug logs")

	flag.Parse()

	log := logging.NewLogger(verbose)

	if inputFile == "" {
		fmt.Fprintln(os.Stderr, "--input is required")
		os.Exit(1)
	}

	// Optional .env; missing file is fine.
	_ = godotenv.Load()

	apiKey, err := resolveAPIKey(apiKey, keyFile)
	if err != nil {
		log.Error("failed to load stored API key", "err", err, "path", keyFile)
		os.Exit(1)
	}
	if apiKey == "" {
		log.Warn("no API key configured, attempting anonymous access to the score service")
	}

	descriptors, malformed, err := parser.LoadFromFile(inputFile)
	if err != nil {
		log.Error("failed to load proxies", "err", err)
		os.Exit(1)
	}
	for _, m := range malformed {
		log.Warn("skipping malformed line", "line", m.Line, "reason", m.Reason)
	}
	if len(descriptors) == 0 {
		log.Error("no valid proxies parsed", "path", inputFile, "skipped", len(malformed))
		os.Exit(1)
	}

	log.Info("starting proxyscore",
		"proxies", len(descriptors),
		"type", proxyType,
		"timeout_seconds", timeoutSec,
		"concurrency", concurrency,
	)

	perProxyTimeout := time.Duration(timeoutSec) * time.Second

	client := reputation.NewClient(perProxyTimeout, strictness)
	if geoipDB != "" {
		geo, err := reputation.OpenGeoLite(geoipDB)
		if err != nil {
			log.Error("failed to open GeoLite database", "err", err, "path", geoipDB)
			os.Exit(1)
		}
		defer geo.Close()
		client.Geo = geo
		log.Info("using local GeoLite database", "path", geoipDB)
	}

	v := &verify.Verifier{
		Prober:          probe.New(proxyType, perProxyTimeout),
		Reputation:      client,
		Concurrency:     concurrency,
		PerProxyTimeout: perProxyTimeout,
		Log:             log,
	}

	// Ctrl-C stops dispatching new checks; in-flight ones finish or time out.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	results, failures := v.Run(ctx, descriptors, apiKey)
	stats := analytics.Compute(results, failures, time.Since(start))

	output.PrintResultsTable(os.Stdout, results)
	output.PrintFailures(os.Stdout, failures)
	output.PrintSummary(os.Stdout, stats)

	if outputFile != "" {
		if err := output.WriteFile(outputFile, format, template, results, failures, stats); err != nil {
			log.Error("failed to write output file", "err", err, "path", outputFile)
		} else {
			log.Info("results written", "path", outputFile, "format", format)
		}
	}

	if saveKey && apiKey != "" {
		if err := keystore.Save(keyFile, keystore.Config{APIKey: apiKey}); err != nil {
			log.Error("failed to save API key", "err", err, "path", keyFile)
		} else {
			log.Info("API key saved", "path", keyFile)
		}
	}
}

// resolveAPIKey picks the key by precedence: flag, environment, key file.
func resolveAPIKey(flagKey, keyFile string) (string, error) {
	if flagKey != "" {
		return flagKey, nil
	}
	if env := os.Getenv(envAPIKey); env != "" {
		return env, nil
	}
	cfg, err := keystore.Load(keyFile)
	if err != nil {
		return "", err
	}
	return cfg.APIKey, nil
}

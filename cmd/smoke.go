package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/envconf"
	"github.com/jackc/login-smoke/driver/pwdriver"
	"github.com/jackc/login-smoke/driver/roddriver"
	"github.com/jackc/login-smoke/fixture"
	"github.com/jackc/login-smoke/scenario"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var smokeEnvconf = envconf.New()

// smokePage is what the smoke command needs from a page of either driver.
type smokePage interface {
	scenario.Driver
	Describe() string
	Close() error
}

type smokeBrowser interface {
	NewPage(ctx context.Context) (smokePage, error)
	Close() error
}

type rodBrowser struct{ *roddriver.Browser }

func (b rodBrowser) NewPage(ctx context.Context) (smokePage, error) {
	return b.Browser.NewPage(ctx)
}

type playwrightBrowser struct{ *pwdriver.Browser }

func (b playwrightBrowser) NewPage(ctx context.Context) (smokePage, error) {
	return b.Browser.NewPage(ctx)
}

type smokeConfig struct {
	driver   string
	bin      string
	headless bool
	timeout  time.Duration
}

func launchBrowser(config smokeConfig, logger *zerolog.Logger) (smokeBrowser, error) {
	switch config.driver {
	case "rod":
		b, err := roddriver.Launch(roddriver.LaunchConfig{
			Bin:       config.bin,
			Headless:  config.headless,
			NoSandbox: os.Geteuid() == 0,
			Timeout:   config.timeout,
			Logger:    logger,
		})
		if err != nil {
			return nil, err
		}
		return rodBrowser{b}, nil
	case "playwright":
		b, err := pwdriver.Launch(pwdriver.LaunchConfig{
			Bin:      config.bin,
			Headless: config.headless,
			Timeout:  config.timeout,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		return playwrightBrowser{b}, nil
	default:
		return nil, fmt.Errorf("unknown driver %q (want rod or playwright)", config.driver)
	}
}

// smokeCmd represents the smoke command.
var smokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "Run the login journeys in a real browser",

	Run: func(cmd *cobra.Command, args []string) {
		logFormat, _ := cmd.Flags().GetString("log-format")
		suitePath, _ := cmd.Flags().GetString("suite")
		baseURLFlag, _ := cmd.Flags().GetString("base-url")

		logger := setupLogger(logFormat)

		config, err := smokeConfigFrom(smokeEnvconf.Value)
		if err != nil {
			logger.Fatal().Err(err).Msg("Invalid configuration")
		}
		if cmd.Flags().Changed("driver") {
			config.driver, _ = cmd.Flags().GetString("driver")
		}
		if cmd.Flags().Changed("headless") {
			config.headless, _ = cmd.Flags().GetBool("headless")
		}
		if cmd.Flags().Changed("timeout") {
			config.timeout, _ = cmd.Flags().GetDuration("timeout")
		}

		suite := scenario.LoginSuite()
		if suitePath != "" {
			suite, err = scenario.LoadFile(suitePath)
			if err != nil {
				logger.Fatal().Err(err).Msg("Failed to load suite")
			}
		}

		runID := uuid.Must(uuid.NewV7())
		runLogger := logger.With().Str("run_id", runID.String()).Str("driver", config.driver).Logger()

		ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
		defer stop()
		ctx = runLogger.WithContext(ctx)

		base, cleanup, err := smokeBaseURL(baseURLFlag)
		if err != nil {
			runLogger.Fatal().Err(err).Msg("Failed to prepare fixtures")
		}

		failed, err := launchAndRunSmoke(ctx, config, suite, base)
		cleanup()
		if err != nil {
			runLogger.Error().Err(err).Msg("Smoke run failed")
			os.Exit(1)
		}
		if failed > 0 {
			runLogger.Error().Int("failed", failed).Int("scenarios", len(suite)).Msg("Smoke run failed")
			os.Exit(1)
		}

		runLogger.Info().Int("scenarios", len(suite)).Msg("Smoke run passed")
	},
}

// smokeBaseURL returns the URL fixture names resolve against. Without baseURLFlag the embedded fixtures are written to
// a temporary directory which cleanup removes.
func smokeBaseURL(baseURLFlag string) (base *url.URL, cleanup func(), err error) {
	if baseURLFlag != "" {
		base, err = url.Parse(baseURLFlag)
		if err != nil {
			return nil, nil, fmt.Errorf("parse base URL: %w", err)
		}
		return base, func() {}, nil
	}

	dir, err := os.MkdirTemp("", "login-smoke-fixtures-")
	if err != nil {
		return nil, nil, fmt.Errorf("create fixture dir: %w", err)
	}
	cleanup = func() { os.RemoveAll(dir) }

	err = fixture.Materialize(dir)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	base, err = fixture.DirURL(dir)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return base, cleanup, nil
}

func launchAndRunSmoke(ctx context.Context, config smokeConfig, suite scenario.Suite, base *url.URL) (int, error) {
	logger := zerolog.Ctx(ctx)

	browser, err := launchBrowser(config, logger)
	if err != nil {
		return 0, err
	}
	defer func() {
		err := browser.Close()
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to close browser")
		}
	}()

	return runSmoke(ctx, browser, suite, base)
}

// runSmoke runs every scenario in suite on a fresh page and returns the number that failed. The returned error is for
// failures that prevent running the remaining scenarios.
func runSmoke(ctx context.Context, browser smokeBrowser, suite scenario.Suite, base *url.URL) (int, error) {
	logger := zerolog.Ctx(ctx)

	failed := 0
	for _, s := range suite {
		err := ctx.Err()
		if err != nil {
			return failed, err
		}

		page, err := browser.NewPage(ctx)
		if err != nil {
			return failed, err
		}

		result := scenario.RunTimed(ctx, page, base, s)
		event := logger.Info()
		if !result.Passed() {
			failed++
			event = logger.Error().Err(result.Err).Str("page", page.Describe())
		}
		event.Str("scenario", s.Name).Dur("duration", result.Duration).Bool("passed", result.Passed()).Msg("Scenario finished")

		err = page.Close()
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to close page")
		}
	}

	return failed, nil
}

// smokeConfigFrom builds the configuration from the registered environment items. value is smokeEnvconf.Value outside
// of tests.
func smokeConfigFrom(value func(name string) string) (smokeConfig, error) {
	headless, err := strconv.ParseBool(value("BROWSER_HEADLESS"))
	if err != nil {
		return smokeConfig{}, fmt.Errorf("BROWSER_HEADLESS: %w", err)
	}

	timeout, err := time.ParseDuration(value("BROWSER_TIMEOUT"))
	if err != nil {
		return smokeConfig{}, fmt.Errorf("BROWSER_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return smokeConfig{}, fmt.Errorf("BROWSER_TIMEOUT must be positive, got %s", timeout)
	}

	return smokeConfig{
		driver:   value("BROWSER_DRIVER"),
		bin:      value("BROWSER_BIN"),
		headless: headless,
		timeout:  timeout,
	}, nil
}

func init() {
	smokeEnvconf.Register(envconf.Item{Name: "BROWSER_DRIVER", Default: "rod", Description: "Browser automation library (rod or playwright)"})
	smokeEnvconf.Register(envconf.Item{Name: "BROWSER_BIN", Default: "", Description: "Browser executable. Empty uses the driver's own Chromium"})
	smokeEnvconf.Register(envconf.Item{Name: "BROWSER_HEADLESS", Default: "true", Description: "Run the browser without a window"})
	smokeEnvconf.Register(envconf.Item{Name: "BROWSER_TIMEOUT", Default: roddriver.DefaultTimeout.String(), Description: "How long each step may wait for the page"})

	long := &strings.Builder{}
	long.WriteString("Run the login journeys in a real browser. Exits non-zero if any journey fails.\n\nConfigure with the following environment variables:\n\n")
	for _, item := range smokeEnvconf.Items() {
		long.WriteString(fmt.Sprintf("  %s\n    Default: %s\n    %s\n\n", item.Name, item.Default, item.Description))
	}
	smokeCmd.Long = long.String()

	rootCmd.AddCommand(smokeCmd)

	smokeCmd.Flags().String("driver", "rod", "Browser automation library (rod or playwright). Overrides BROWSER_DRIVER.")
	smokeCmd.Flags().Bool("headless", true, "Run the browser without a window. Overrides BROWSER_HEADLESS.")
	smokeCmd.Flags().Duration("timeout", roddriver.DefaultTimeout, "How long each step may wait for the page. Overrides BROWSER_TIMEOUT.")
	smokeCmd.Flags().String("suite", "", "YAML suite to run instead of the built-in login suite.")
	smokeCmd.Flags().String("base-url", "", "URL that fixture names resolve against. Defaults to a temporary copy of the embedded fixtures.")
	smokeCmd.Flags().String("log-format", "console", "Log format (json or console)")
}

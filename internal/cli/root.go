package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rohmanhakim/chartstats/internal/build"
	"github.com/rohmanhakim/chartstats/internal/config"
	"github.com/rohmanhakim/chartstats/internal/metadata"
	"github.com/rohmanhakim/chartstats/internal/pipeline"
	"github.com/rohmanhakim/chartstats/pkg/hashutil"
)

var (
	cfgFile      string
	cacheBackend string
	cacheFile    string
	noPersist    bool
	redisAddr    string
	redisKey     string
	dbPath       string
	outputDir    string
	apiKey       string
	chartsURL    string
	searchURL    string
	videosURL    string
	chartIndex   int
	rankIndex    int
	rankLimit    int
	maxResults   int
	userAgent    string
	timeout      time.Duration
	maxAttempt   int
	baseDelay    time.Duration
	jitter       time.Duration
	randomSeed   int64
	hashAlgo     string
	includeViews bool
	logLevel     string
	logFormat    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chartstats",
	Short: "Compare YouTube engagement of a Billboard chart entry.",
	Long: `chartstats reads a Billboard chart, picks one of its entries, looks the
entry up on YouTube and renders a bar chart comparing the likes and dislikes
of the matching videos.

Every page and API response is cached by request, so repeated runs are
served from the cache without touching the network.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}

		recorder, syncLogger, err := newRecorder(cfg)
		if err != nil {
			return err
		}
		defer syncLogger()

		p, err := pipeline.NewPipeline(cfg, recorder, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer p.Close()

		_, err = p.Run(cmd.Context())
		return err
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// RootCommand exposes the command tree so tests can drive it with SetArgs.
func RootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.Version = build.FullVersion()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config-file", "", "config file path, JSON or YAML (e.g., /home/myuser/chartstats.yaml)")
	flags.StringVar(&cacheBackend, "cache-backend", "", "where responses are cached: file, redis or memory (default file)")
	flags.StringVar(&cacheFile, "cache-file", "", "cache file used by the file backend (default final_proj_cache.json)")
	flags.BoolVar(&noPersist, "no-persist", false, "keep the cache in memory for this run only")
	flags.StringVar(&redisAddr, "redis-addr", "", "redis address used by the redis backend (default localhost:6379)")
	flags.StringVar(&redisKey, "redis-key", "", "redis hash holding the cache (default chartstats:cache)")
	flags.StringVar(&dbPath, "db-path", "", "SQLite database for video statistics (default videos.sqlite)")
	flags.StringVar(&outputDir, "output-dir", "", "directory receiving rendered charts (default output)")
	flags.StringVar(&apiKey, "api-key", "", "YouTube Data API key (defaults to $"+config.EnvAPIKey+")")
	flags.StringVar(&chartsURL, "charts-url", "", "Billboard charts index page")
	flags.StringVar(&searchURL, "search-url", "", "YouTube search endpoint")
	flags.StringVar(&videosURL, "videos-url", "", "YouTube videos endpoint")
	flags.IntVar(&chartIndex, "chart-index", 0, "1-based chart to read from the popular charts (default 1)")
	flags.IntVar(&rankIndex, "rank-index", 0, "1-based chart entry to look up (default 1)")
	flags.IntVar(&rankLimit, "rank-limit", 0, "number of chart entries read (default 20)")
	flags.IntVar(&maxResults, "max-results", 0, "number of videos requested from YouTube (default 20)")
	flags.StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	flags.DurationVar(&timeout, "timeout", 0, "timeout for HTTP requests")
	flags.IntVar(&maxAttempt, "max-attempt", 0, "attempts per live request, 1 disables retries (default 1)")
	flags.DurationVar(&baseDelay, "base-delay", 0, "base delay between live requests to the same host")
	flags.DurationVar(&jitter, "jitter", 0, "random jitter added to delays")
	flags.Int64Var(&randomSeed, "random-seed", 0, "seed for random number generation (0 for current time)")
	flags.StringVar(&hashAlgo, "hash-algo", "", "hash used for chart filenames: sha256 or blake3")
	flags.BoolVar(&includeViews, "include-views", false, "add a views series to the chart")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&logFormat, "log-format", "", "log format: console or json")

	rootCmd.AddCommand(chartsCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(videosCmd)
}

// InitConfigWithError reads in config file and flags, returning any errors.
// A config file, when given, takes precedence over every other flag.
func InitConfigWithError() (config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		return cfg, nil
	}

	configBuilder := config.WithDefault()

	if noPersist {
		configBuilder = configBuilder.WithCacheBackend(config.CacheBackendMemory)
	} else if cacheBackend != "" {
		configBuilder = configBuilder.WithCacheBackend(config.CacheBackend(cacheBackend))
	}
	if cacheFile != "" {
		configBuilder = configBuilder.WithCacheFile(cacheFile)
	}
	if redisAddr != "" {
		configBuilder = configBuilder.WithRedisAddr(redisAddr)
	}
	if redisKey != "" {
		configBuilder = configBuilder.WithRedisKey(redisKey)
	}
	if dbPath != "" {
		configBuilder = configBuilder.WithDBPath(dbPath)
	}
	if outputDir != "" {
		configBuilder = configBuilder.WithOutputDir(outputDir)
	}
	if apiKey != "" {
		configBuilder = configBuilder.WithAPIKey(apiKey)
	}

	for _, u := range []struct {
		flag  string
		raw   string
		apply func(url.URL) *config.Config
	}{
		{flag: "charts-url", raw: chartsURL, apply: configBuilder.WithChartsURL},
		{flag: "search-url", raw: searchURL, apply: configBuilder.WithSearchURL},
		{flag: "videos-url", raw: videosURL, apply: configBuilder.WithVideosURL},
	} {
		if u.raw == "" {
			continue
		}
		parsed, err := url.Parse(u.raw)
		if err != nil {
			return config.Config{}, fmt.Errorf("%w: --%s: %s", config.ErrInvalidConfig, u.flag, err.Error())
		}
		u.apply(*parsed)
	}

	if chartIndex != 0 {
		configBuilder = configBuilder.WithChartIndex(chartIndex)
	}
	if rankIndex != 0 {
		configBuilder = configBuilder.WithRankIndex(rankIndex)
	}
	if rankLimit != 0 {
		configBuilder = configBuilder.WithRankLimit(rankLimit)
	}
	if maxResults != 0 {
		configBuilder = configBuilder.WithMaxResults(maxResults)
	}
	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}
	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}
	if maxAttempt != 0 {
		configBuilder = configBuilder.WithMaxAttempt(maxAttempt)
	}
	if baseDelay > 0 {
		configBuilder = configBuilder.WithBaseDelay(baseDelay)
	}
	if jitter > 0 {
		configBuilder = configBuilder.WithJitter(jitter)
	}
	if randomSeed != 0 {
		configBuilder = configBuilder.WithRandomSeed(randomSeed)
	}
	if hashAlgo != "" {
		configBuilder = configBuilder.WithHashAlgo(hashutil.HashAlgo(hashAlgo))
	}
	if includeViews {
		configBuilder = configBuilder.WithIncludeViews(includeViews)
	}
	if logLevel != "" {
		configBuilder = configBuilder.WithLogLevel(logLevel)
	}
	if logFormat != "" {
		configBuilder = configBuilder.WithLogFormat(logFormat)
	}

	return configBuilder.Build()
}

// newRecorder builds the zap-backed recorder for cfg. The returned function
// flushes the logger.
func newRecorder(cfg config.Config) (*metadata.Recorder, func(), error) {
	logger, err := metadata.NewLogger(cfg.LogLevel(), cfg.LogFormat())
	if err != nil {
		return nil, nil, err
	}
	recorder := metadata.NewRecorder(logger)
	logger.Debug("config loaded",
		zap.String("run_id", recorder.RunID()),
		zap.String("cache_backend", string(cfg.CacheBackend())),
		zap.Int("chart_index", cfg.ChartIndex()),
		zap.Int("rank_index", cfg.RankIndex()),
	)
	return recorder, func() { _ = logger.Sync() }, nil
}

func ResetFlags() {
	cfgFile = ""
	cacheBackend = ""
	cacheFile = ""
	noPersist = false
	redisAddr = ""
	redisKey = ""
	dbPath = ""
	outputDir = ""
	apiKey = ""
	chartsURL = ""
	searchURL = ""
	videosURL = ""
	chartIndex = 0
	rankIndex = 0
	rankLimit = 0
	maxResults = 0
	userAgent = ""
	timeout = 0
	maxAttempt = 0
	baseDelay = 0
	jitter = 0
	randomSeed = 0
	hashAlgo = ""
	includeViews = false
	logLevel = ""
	logFormat = ""
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetCacheBackendForTest(backend string) {
	cacheBackend = backend
}

func SetCacheFileForTest(path string) {
	cacheFile = path
}

func SetNoPersistForTest(value bool) {
	noPersist = value
}

func SetAPIKeyForTest(key string) {
	apiKey = key
}

func SetChartsURLForTest(raw string) {
	chartsURL = raw
}

func SetChartIndexForTest(index int) {
	chartIndex = index
}

func SetRankIndexForTest(index int) {
	rankIndex = index
}

func SetRankLimitForTest(limit int) {
	rankLimit = limit
}

func SetMaxAttemptForTest(attempts int) {
	maxAttempt = attempts
}

func SetTimeoutForTest(t time.Duration) {
	timeout = t
}

func SetBaseDelayForTest(delay time.Duration) {
	baseDelay = delay
}

func SetHashAlgoForTest(algo string) {
	hashAlgo = algo
}

func SetIncludeViewsForTest(value bool) {
	includeViews = value
}

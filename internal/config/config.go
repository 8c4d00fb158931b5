package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rohmanhakim/chartstats/internal/build"
	"github.com/rohmanhakim/chartstats/pkg/fileutil"
	"github.com/rohmanhakim/chartstats/pkg/hashutil"
)

// EnvAPIKey is read when no API key is configured explicitly.
const EnvAPIKey = "YOUTUBE_API_KEY"

type CacheBackend string

const (
	CacheBackendFile   CacheBackend = "file"
	CacheBackendRedis  CacheBackend = "redis"
	CacheBackendMemory CacheBackend = "memory"
)

type Config struct {
	//===============
	// Cache
	//===============
	// Where raw responses are persisted between runs
	cacheBackend CacheBackend
	// JSON file used by the file backend
	cacheFile string
	// Redis address and hash key used by the redis backend
	redisAddr string
	redisKey  string

	//===============
	// Sources
	//===============
	chartsURL url.URL
	searchURL url.URL
	videosURL url.URL
	// YouTube Data API key
	apiKey string

	//===============
	// Selection
	//===============
	// 1-based position of the chart in the popular charts list
	chartIndex int
	// 1-based position of the item in the chosen chart
	rankIndex int
	// Number of ranking rows read from a chart page
	rankLimit int
	// Number of search results requested from YouTube
	maxResults int

	//===============
	// Fetch
	//===============
	timeout   time.Duration
	userAgent string

	//===============
	// Politeness
	//===============
	// Minimum waiting time between two live requests to the same host
	baseDelay time.Duration
	// Randomized variation added on top of the delays
	jitter time.Duration
	// Controls the random number generator
	randomSeed int64
	// Maximum attempts per live request; 1 disables retries
	maxAttempt             int
	backoffInitialDuration time.Duration
	backoffMultiplier      float64
	backoffMaxDuration     time.Duration

	//===============
	// Output
	//===============
	// SQLite database holding derived video statistics
	dbPath string
	// Directory receiving rendered charts
	outputDir    string
	hashAlgo     hashutil.HashAlgo
	includeViews bool

	//===============
	// Logging
	//===============
	logLevel  string
	logFormat string
}

type configDTO struct {
	CacheBackend           string        `json:"cacheBackend,omitempty" yaml:"cacheBackend,omitempty"`
	CacheFile              string        `json:"cacheFile,omitempty" yaml:"cacheFile,omitempty"`
	RedisAddr              string        `json:"redisAddr,omitempty" yaml:"redisAddr,omitempty"`
	RedisKey               string        `json:"redisKey,omitempty" yaml:"redisKey,omitempty"`
	ChartsURL              string        `json:"chartsUrl,omitempty" yaml:"chartsUrl,omitempty"`
	SearchURL              string        `json:"searchUrl,omitempty" yaml:"searchUrl,omitempty"`
	VideosURL              string        `json:"videosUrl,omitempty" yaml:"videosUrl,omitempty"`
	APIKey                 string        `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	ChartIndex             int           `json:"chartIndex,omitempty" yaml:"chartIndex,omitempty"`
	RankIndex              int           `json:"rankIndex,omitempty" yaml:"rankIndex,omitempty"`
	RankLimit              int           `json:"rankLimit,omitempty" yaml:"rankLimit,omitempty"`
	MaxResults             int           `json:"maxResults,omitempty" yaml:"maxResults,omitempty"`
	Timeout                time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	UserAgent              string        `json:"userAgent,omitempty" yaml:"userAgent,omitempty"`
	BaseDelay              time.Duration `json:"baseDelay,omitempty" yaml:"baseDelay,omitempty"`
	Jitter                 time.Duration `json:"jitter,omitempty" yaml:"jitter,omitempty"`
	RandomSeed             int64         `json:"randomSeed,omitempty" yaml:"randomSeed,omitempty"`
	MaxAttempt             int           `json:"maxAttempt,omitempty" yaml:"maxAttempt,omitempty"`
	BackoffInitialDuration time.Duration `json:"backoffInitialDuration,omitempty" yaml:"backoffInitialDuration,omitempty"`
	BackoffMultiplier      float64       `json:"backoffMultiplier,omitempty" yaml:"backoffMultiplier,omitempty"`
	BackoffMaxDuration     time.Duration `json:"backoffMaxDuration,omitempty" yaml:"backoffMaxDuration,omitempty"`
	DBPath                 string        `json:"dbPath,omitempty" yaml:"dbPath,omitempty"`
	OutputDir              string        `json:"outputDir,omitempty" yaml:"outputDir,omitempty"`
	HashAlgo               string        `json:"hashAlgo,omitempty" yaml:"hashAlgo,omitempty"`
	IncludeViews           bool          `json:"includeViews,omitempty" yaml:"includeViews,omitempty"`
	LogLevel               string        `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
	LogFormat              string        `json:"logFormat,omitempty" yaml:"logFormat,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	cfg := WithDefault()

	// only override if non-zero value is provided
	if dto.CacheBackend != "" {
		cfg.cacheBackend = CacheBackend(dto.CacheBackend)
	}
	if dto.CacheFile != "" {
		cfg.cacheFile = dto.CacheFile
	}
	if dto.RedisAddr != "" {
		cfg.redisAddr = dto.RedisAddr
	}
	if dto.RedisKey != "" {
		cfg.redisKey = dto.RedisKey
	}
	for _, u := range []struct {
		raw    string
		target *url.URL
		field  string
	}{
		{raw: dto.ChartsURL, target: &cfg.chartsURL, field: "chartsUrl"},
		{raw: dto.SearchURL, target: &cfg.searchURL, field: "searchUrl"},
		{raw: dto.VideosURL, target: &cfg.videosURL, field: "videosUrl"},
	} {
		if u.raw == "" {
			continue
		}
		parsed, err := parseAbsoluteURL(u.raw)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %s", ErrInvalidConfig, u.field, err.Error())
		}
		*u.target = parsed
	}
	if dto.APIKey != "" {
		cfg.apiKey = dto.APIKey
	}
	if dto.ChartIndex != 0 {
		cfg.chartIndex = dto.ChartIndex
	}
	if dto.RankIndex != 0 {
		cfg.rankIndex = dto.RankIndex
	}
	if dto.RankLimit != 0 {
		cfg.rankLimit = dto.RankLimit
	}
	if dto.MaxResults != 0 {
		cfg.maxResults = dto.MaxResults
	}
	if dto.Timeout != 0 {
		cfg.timeout = dto.Timeout
	}
	if dto.UserAgent != "" {
		cfg.userAgent = dto.UserAgent
	}
	if dto.BaseDelay != 0 {
		cfg.baseDelay = dto.BaseDelay
	}
	if dto.Jitter != 0 {
		cfg.jitter = dto.Jitter
	}
	if dto.RandomSeed != 0 {
		cfg.randomSeed = dto.RandomSeed
	}
	if dto.MaxAttempt != 0 {
		cfg.maxAttempt = dto.MaxAttempt
	}
	if dto.BackoffInitialDuration != 0 {
		cfg.backoffInitialDuration = dto.BackoffInitialDuration
	}
	if dto.BackoffMultiplier != 0 {
		cfg.backoffMultiplier = dto.BackoffMultiplier
	}
	if dto.BackoffMaxDuration != 0 {
		cfg.backoffMaxDuration = dto.BackoffMaxDuration
	}
	if dto.DBPath != "" {
		cfg.dbPath = dto.DBPath
	}
	if dto.OutputDir != "" {
		cfg.outputDir = dto.OutputDir
	}
	if dto.HashAlgo != "" {
		cfg.hashAlgo = hashutil.HashAlgo(dto.HashAlgo)
	}
	cfg.includeViews = dto.IncludeViews
	if dto.LogLevel != "" {
		cfg.logLevel = dto.LogLevel
	}
	if dto.LogFormat != "" {
		cfg.logFormat = dto.LogFormat
	}

	return cfg.Build()
}

// WithConfigFile loads a JSON or YAML (.yaml, .yml) config file on top of
// the defaults.
func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}

	cfgDTO := configDTO{}
	switch fileutil.GetFileExtension(path) {
	case "yaml", "yml":
		err = yaml.Unmarshal(configContent, &cfgDTO)
	default:
		err = json.Unmarshal(configContent, &cfgDTO)
	}
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(cfgDTO)
}

func WithDefault() *Config {
	defaultConfig := Config{
		cacheBackend:           CacheBackendFile,
		cacheFile:              "final_proj_cache.json",
		redisAddr:              "localhost:6379",
		redisKey:               "chartstats:cache",
		chartsURL:              mustParseURL("https://www.billboard.com/charts"),
		searchURL:              mustParseURL("https://www.googleapis.com/youtube/v3/search"),
		videosURL:              mustParseURL("https://www.googleapis.com/youtube/v3/videos"),
		chartIndex:             1,
		rankIndex:              1,
		rankLimit:              20,
		maxResults:             20,
		timeout:                10 * time.Second,
		userAgent:              build.UserAgent(),
		baseDelay:              0,
		jitter:                 0,
		randomSeed:             time.Now().UnixNano(),
		maxAttempt:             1,
		backoffInitialDuration: 500 * time.Millisecond,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     10 * time.Second,
		dbPath:                 "videos.sqlite",
		outputDir:              "output",
		hashAlgo:               hashutil.HashAlgoSHA256,
		includeViews:           false,
		logLevel:               "info",
		logFormat:              "console",
	}
	return &defaultConfig
}

func (c *Config) WithCacheBackend(backend CacheBackend) *Config {
	c.cacheBackend = backend
	return c
}

func (c *Config) WithCacheFile(path string) *Config {
	c.cacheFile = path
	return c
}

func (c *Config) WithRedisAddr(addr string) *Config {
	c.redisAddr = addr
	return c
}

func (c *Config) WithRedisKey(key string) *Config {
	c.redisKey = key
	return c
}

func (c *Config) WithChartsURL(u url.URL) *Config {
	c.chartsURL = u
	return c
}

func (c *Config) WithSearchURL(u url.URL) *Config {
	c.searchURL = u
	return c
}

func (c *Config) WithVideosURL(u url.URL) *Config {
	c.videosURL = u
	return c
}

func (c *Config) WithAPIKey(key string) *Config {
	c.apiKey = key
	return c
}

func (c *Config) WithChartIndex(index int) *Config {
	c.chartIndex = index
	return c
}

func (c *Config) WithRankIndex(index int) *Config {
	c.rankIndex = index
	return c
}

func (c *Config) WithRankLimit(limit int) *Config {
	c.rankLimit = limit
	return c
}

func (c *Config) WithMaxResults(n int) *Config {
	c.maxResults = n
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithBaseDelay(delay time.Duration) *Config {
	c.baseDelay = delay
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithDBPath(path string) *Config {
	c.dbPath = path
	return c
}

func (c *Config) WithOutputDir(outputDir string) *Config {
	c.outputDir = outputDir
	return c
}

func (c *Config) WithHashAlgo(algo hashutil.HashAlgo) *Config {
	c.hashAlgo = algo
	return c
}

func (c *Config) WithIncludeViews(include bool) *Config {
	c.includeViews = include
	return c
}

func (c *Config) WithLogLevel(level string) *Config {
	c.logLevel = level
	return c
}

func (c *Config) WithLogFormat(format string) *Config {
	c.logFormat = format
	return c
}

// Build validates the configuration. An empty API key falls back to the
// YOUTUBE_API_KEY environment variable; a still-empty key is accepted here
// and rejected by the steps that call the API.
func (c *Config) Build() (Config, error) {
	if c.apiKey == "" {
		c.apiKey = os.Getenv(EnvAPIKey)
	}

	switch c.cacheBackend {
	case CacheBackendFile:
		if c.cacheFile == "" {
			return Config{}, fmt.Errorf("%w: cacheFile cannot be empty", ErrInvalidConfig)
		}
	case CacheBackendRedis:
		if c.redisAddr == "" {
			return Config{}, fmt.Errorf("%w: redisAddr cannot be empty", ErrInvalidConfig)
		}
	case CacheBackendMemory:
	default:
		return Config{}, fmt.Errorf("%w: unknown cacheBackend %q", ErrInvalidConfig, c.cacheBackend)
	}

	if c.chartIndex < 1 {
		return Config{}, fmt.Errorf("%w: chartIndex must be >= 1", ErrInvalidConfig)
	}
	if c.rankLimit < 1 {
		return Config{}, fmt.Errorf("%w: rankLimit must be >= 1", ErrInvalidConfig)
	}
	if c.rankIndex < 1 || c.rankIndex > c.rankLimit {
		return Config{}, fmt.Errorf("%w: rankIndex must be between 1 and rankLimit (%d)", ErrInvalidConfig, c.rankLimit)
	}
	if c.maxResults < 1 || c.maxResults > 50 {
		return Config{}, fmt.Errorf("%w: maxResults must be between 1 and 50", ErrInvalidConfig)
	}
	if c.maxAttempt < 1 {
		return Config{}, fmt.Errorf("%w: maxAttempt must be >= 1", ErrInvalidConfig)
	}
	if c.timeout < 0 || c.baseDelay < 0 || c.jitter < 0 {
		return Config{}, fmt.Errorf("%w: durations cannot be negative", ErrInvalidConfig)
	}
	if c.backoffMultiplier < 1 {
		return Config{}, fmt.Errorf("%w: backoffMultiplier must be >= 1", ErrInvalidConfig)
	}
	if _, err := hashutil.HashBytes(nil, c.hashAlgo); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}
	if c.outputDir == "" || c.dbPath == "" {
		return Config{}, fmt.Errorf("%w: outputDir and dbPath cannot be empty", ErrInvalidConfig)
	}
	for name, u := range map[string]url.URL{"chartsUrl": c.chartsURL, "searchUrl": c.searchURL, "videosUrl": c.videosURL} {
		if !u.IsAbs() || u.Host == "" {
			return Config{}, fmt.Errorf("%w: %s must be an absolute url", ErrInvalidConfig, name)
		}
	}

	return *c, nil
}

func (c Config) CacheBackend() CacheBackend {
	return c.cacheBackend
}

func (c Config) CacheFile() string {
	return c.cacheFile
}

func (c Config) RedisAddr() string {
	return c.redisAddr
}

func (c Config) RedisKey() string {
	return c.redisKey
}

func (c Config) ChartsURL() url.URL {
	return c.chartsURL
}

func (c Config) SearchURL() url.URL {
	return c.searchURL
}

func (c Config) VideosURL() url.URL {
	return c.videosURL
}

func (c Config) APIKey() string {
	return c.apiKey
}

func (c Config) ChartIndex() int {
	return c.chartIndex
}

func (c Config) RankIndex() int {
	return c.rankIndex
}

func (c Config) RankLimit() int {
	return c.rankLimit
}

func (c Config) MaxResults() int {
	return c.maxResults
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) BaseDelay() time.Duration {
	return c.baseDelay
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c Config) DBPath() string {
	return c.dbPath
}

func (c Config) OutputDir() string {
	return c.outputDir
}

func (c Config) HashAlgo() hashutil.HashAlgo {
	return c.hashAlgo
}

func (c Config) IncludeViews() bool {
	return c.includeViews
}

func (c Config) LogLevel() string {
	return c.logLevel
}

func (c Config) LogFormat() string {
	return c.logFormat
}

func parseAbsoluteURL(raw string) (url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return url.URL{}, err
	}
	if !u.IsAbs() || u.Host == "" {
		return url.URL{}, fmt.Errorf("%q is not an absolute url", raw)
	}
	return *u, nil
}

func mustParseURL(raw string) url.URL {
	u, err := parseAbsoluteURL(raw)
	if err != nil {
		panic(err)
	}
	return u
}

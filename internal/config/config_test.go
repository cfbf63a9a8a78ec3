package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/ratings-cli/internal/model"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Temp dir so no config.yaml or .env is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "ratings.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "https://tabiturient.ru/globalrating/", cfg.Tabiturient.URL)
	assert.InDelta(t, 10.0, cfg.Tabiturient.MinRating, 0.001)
	assert.InDelta(t, 200.0, cfg.Tabiturient.MaxRating, 0.001)
	assert.Equal(t, 30*time.Second, cfg.Tabiturient.Timeout())
	assert.InDelta(t, 0.7, cfg.Matching.Threshold, 0.001)
	assert.Equal(t, "ratio", cfg.Matching.Metric)
	assert.Equal(t, time.Second, cfg.Reconcile.Delay(model.SourceGoogle))
	assert.Equal(t, time.Second, cfg.Reconcile.Delay(model.SourceYandex))
	assert.Equal(t, 500*time.Millisecond, cfg.Reconcile.Delay(model.SourceTabiturient))
	assert.Empty(t, cfg.Google.Key)
	assert.Empty(t, cfg.Yandex.Key)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/ratings
log:
  level: debug
  format: console
matching:
  threshold: 0.85
  metric: jaro-winkler
reconcile:
  google_delay: 2.5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/ratings", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.InDelta(t, 0.85, cfg.Matching.Threshold, 0.001)
	assert.Equal(t, "jaro-winkler", cfg.Matching.Metric)
	assert.Equal(t, 2500*time.Millisecond, cfg.Reconcile.Delay(model.SourceGoogle))
	// Defaults still apply for unset values
	assert.Equal(t, time.Second, cfg.Reconcile.Delay(model.SourceYandex))
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))
	t.Setenv("RATINGS_STORE_DRIVER", "postgres")
	t.Setenv("RATINGS_MATCHING_THRESHOLD", "0.9")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.InDelta(t, 0.9, cfg.Matching.Threshold, 0.001)
}

func TestLoadLegacyKeyNames(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GOOGLE_PLACES_API_KEY", "g-legacy")
	t.Setenv("YANDEX_MAPS_API_KEY", "y-legacy")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "g-legacy", cfg.Google.Key)
	assert.Equal(t, "y-legacy", cfg.Yandex.Key)
}

func TestLoadPrefixedKeyWinsOverLegacy(t *testing.T) {
	chdirTemp(t)
	t.Setenv("RATINGS_GOOGLE_KEY", "g-new")
	t.Setenv("GOOGLE_PLACES_API_KEY", "g-legacy")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "g-new", cfg.Google.Key)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("YANDEX_MAPS_API_KEY=from-dotenv\n"), 0644))
	// godotenv sets process env; make sure it is unset again after the test.
	t.Setenv("YANDEX_MAPS_API_KEY", "")
	require.NoError(t, os.Unsetenv("YANDEX_MAPS_API_KEY"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.Yandex.Key)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unterminated"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLogger_JSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLogger_Console(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))
}

func TestInitLogger_InvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

func validDefaults() *Config {
	return &Config{
		Store: StoreConfig{Driver: "sqlite", DatabaseURL: "ratings.db"},
		Tabiturient: TabiturientConfig{
			URL:         "https://tabiturient.ru/globalrating/",
			MinRating:   10,
			MaxRating:   200,
			TimeoutSecs: 30,
		},
		Matching:  MatchingConfig{Threshold: 0.7, Metric: "ratio"},
		Reconcile: ReconcileConfig{GoogleDelay: 1, YandexDelay: 1, TabiturientDelay: 0.5},
	}
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validDefaults()
	for _, src := range append(model.AllSources(), "") {
		assert.NoError(t, cfg.Validate(src), "source %q", src)
	}
}

func TestValidate_MissingKeysAreNotErrors(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate(model.SourceGoogle))
	assert.NoError(t, cfg.Validate(model.SourceYandex))
}

func TestValidate_Threshold(t *testing.T) {
	for _, threshold := range []float64{0, 1, -0.1, 1.5} {
		cfg := validDefaults()
		cfg.Matching.Threshold = threshold
		err := cfg.Validate("")
		require.Error(t, err, "threshold %v", threshold)
		assert.Contains(t, err.Error(), "matching.threshold must be between 0 and 1")
	}
}

func TestValidate_UnknownMetric(t *testing.T) {
	cfg := validDefaults()
	cfg.Matching.Metric = "levenshtein-ish"
	err := cfg.Validate("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matching.metric is unknown")
}

func TestValidate_StoreDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	err := cfg.Validate("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")

	cfg = validDefaults()
	cfg.Store = StoreConfig{Driver: "postgres"}
	err = cfg.Validate("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required for postgres")
}

func TestValidate_RatingRange(t *testing.T) {
	cfg := validDefaults()
	cfg.Tabiturient.MinRating = 200
	cfg.Tabiturient.MaxRating = 10
	err := cfg.Validate(model.SourceTabiturient)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tabiturient.min_rating must be below tabiturient.max_rating")

	// Range only matters for the leaderboard source.
	assert.NoError(t, cfg.Validate(model.SourceGoogle))
}

func TestValidate_NegativeDelay(t *testing.T) {
	cfg := validDefaults()
	cfg.Reconcile.YandexDelay = -1
	err := cfg.Validate(model.SourceYandex)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reconcile.yandex_delay must not be negative")
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := validDefaults()
	cfg.Matching.Threshold = 2
	cfg.Tabiturient.URL = ""
	cfg.Tabiturient.TimeoutSecs = 0

	err := cfg.Validate(model.SourceTabiturient)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matching.threshold")
	assert.Contains(t, err.Error(), "tabiturient.url is required")
	assert.Contains(t, err.Error(), "tabiturient.timeout_secs must be positive")
}

func TestValidate_UnknownSource(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate(model.Source("bing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source bing")
}

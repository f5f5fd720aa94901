package racer

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"

	"github.com/zeebo/racer/internal/log"
	"github.com/zeebo/racer/internal/thread"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvPoolWidth = "RACER_POOL_WIDTH"
	EnvMaxKeys   = "RACER_MAX_KEYS"
	EnvLogLevel  = "RACER_LOG_LEVEL"
	EnvLogFormat = "RACER_LOG_FORMAT"
)

// Config controls the process-wide state of the package.
type Config struct {
	// PoolWidth bounds how many tasks of the Global queue run at once. Zero
	// means unbounded.
	PoolWidth int
	// MaxKeys bounds how many ThreadLocal instances may be live at once.
	// Zero means the default of 4096.
	MaxKeys int
	// Logger receives the package's log output. Nil keeps the current one.
	Logger *slog.Logger
}

// DefaultConfig returns the configuration used when Init is never called.
func DefaultConfig() Config {
	return Config{MaxKeys: thread.DefaultMaxKeys}
}

// ConfigFromEnv returns DefaultConfig overridden by the RACER_* environment
// variables. Every malformed variable is reported in the returned error, and
// the returned Config holds the values that did parse.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	var merr error

	if v := os.Getenv(EnvPoolWidth); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			merr = multierror.Append(merr, fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvPoolWidth, v))
		} else {
			cfg.PoolWidth = n
		}
	}

	if v := os.Getenv(EnvMaxKeys); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			merr = multierror.Append(merr, fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvMaxKeys, v))
		} else {
			cfg.MaxKeys = n
		}
	}

	level, format := os.Getenv(EnvLogLevel), os.Getenv(EnvLogFormat)
	if level != "" || format != "" {
		h, err := log.CreateHandler(os.Stderr, level, format)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
		} else {
			cfg.Logger = slog.New(h)
		}
	}

	return cfg, merr
}

func (c Config) validate() error {
	if c.PoolWidth < 0 {
		return fmt.Errorf("%w: negative pool width %d", ErrInvalidConfig, c.PoolWidth)
	}
	if c.MaxKeys < 0 {
		return fmt.Errorf("%w: negative max keys %d", ErrInvalidConfig, c.MaxKeys)
	}
	return nil
}

var rt struct {
	once   sync.Once
	global *Queue
	main   *Queue
}

// Init applies cfg to the process. It must be called before any queue or
// thread-local is used, and only once. Later calls return
// ErrAlreadyInitialized.
func Init(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	applied := false
	rt.once.Do(func() {
		setup(cfg)
		applied = true
	})
	if !applied {
		return ErrAlreadyInitialized
	}
	return nil
}

// ensure applies the default configuration if Init was not called.
func ensure() { rt.once.Do(func() { setup(DefaultConfig()) }) }

func setup(cfg Config) {
	if cfg.Logger != nil {
		SetLogger(cfg.Logger)
	}
	thread.SetMaxKeys(cfg.MaxKeys)

	rt.global = NewQueue(WithLabel("racer.global"), WithWidth(cfg.PoolWidth))
	rt.main = newMainQueue()

	logger().Debug("racer initialized",
		"pool_width", cfg.PoolWidth,
		"max_keys", cfg.MaxKeys,
	)
}

var pkgLogger atomic.Pointer[slog.Logger]

// SetLogger sets the logger used by the package. A nil logger restores
// slog.Default.
func SetLogger(l *slog.Logger) {
	pkgLogger.Store(l)
	thread.SetLogger(l)
}

func logger() *slog.Logger {
	if l := pkgLogger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

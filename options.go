package largearray

import (
	"log/slog"

	"github.com/hupe1980/largearray/codec"
	"github.com/hupe1980/largearray/internal/addressing"
)

// DefaultMaxResidentUnits is the default budget of resident pages per manager.
const DefaultMaxResidentUnits = 1024

// DefaultUnitBytes is the default page size hint in bytes.
const DefaultUnitBytes = addressing.DefaultUnitBytes

// MaxUnitPower is the largest accepted unit power.
const MaxUnitPower = addressing.MaxUnitPower

type managerOptions struct {
	maxResidentUnits  int
	memoryLimit       int64
	ioLimit           int64
	backgroundWorkers int
	tempDir           string
	logger            *Logger
	metricsCollector  MetricsCollector
}

// ManagerOption configures a Manager.
type ManagerOption func(*managerOptions)

// WithMaxResidentUnits bounds the number of pages resident across all arrays
// of the manager. Values below one are ignored.
func WithMaxResidentUnits(n int) ManagerOption {
	return func(o *managerOptions) {
		if n >= 1 {
			o.maxResidentUnits = n
		}
	}
}

// WithMemoryLimit bounds the bytes held by resident pages. 0 means unlimited.
func WithMemoryLimit(bytes int64) ManagerOption {
	return func(o *managerOptions) {
		o.memoryLimit = bytes
	}
}

// WithIOLimit throttles backing-file IO to the given bytes per second.
// 0 means unthrottled.
func WithIOLimit(bytesPerSec int64) ManagerOption {
	return func(o *managerOptions) {
		o.ioLimit = bytesPerSec
	}
}

// WithBackgroundWorkers bounds the number of arrays FlushAll writes
// concurrently. Defaults to GOMAXPROCS.
func WithBackgroundWorkers(n int) ManagerOption {
	return func(o *managerOptions) {
		o.backgroundWorkers = n
	}
}

// WithTempDir sets the directory backing files are created in.
// Defaults to os.TempDir().
func WithTempDir(dir string) ManagerOption {
	return func(o *managerOptions) {
		o.tempDir = dir
	}
}

// WithLogger configures structured logging.
//
// If nil is passed, logging is disabled.
//
// Example:
//
//	logger := largearray.NewJSONLogger(slog.LevelInfo)
//	m, err := largearray.NewManager(largearray.WithLogger(logger))
func WithLogger(logger *Logger) ManagerOption {
	return func(o *managerOptions) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel is a convenience option that creates a text logger at the
// given level.
func WithLogLevel(level slog.Level) ManagerOption {
	return func(o *managerOptions) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures metrics collection.
//
// If nil is passed, NoopMetricsCollector is used.
func WithMetricsCollector(mc MetricsCollector) ManagerOption {
	return func(o *managerOptions) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

type arrayOptions struct {
	unitBytes   int64
	unitPower   uint
	powerSet    bool
	fill        float64
	compression codec.Compression
}

// Option configures a single array.
type Option func(*arrayOptions)

// WithUnitBytes sets the page size hint. The number of elements per unit is
// the hint divided by the element width, rounded up to a power of two and
// capped to the array length.
func WithUnitBytes(bytes int64) Option {
	return func(o *arrayOptions) {
		o.unitBytes = bytes
	}
}

// WithUnitPowerSize fixes log2 of the number of elements per unit, overriding
// WithUnitBytes.
func WithUnitPowerSize(power uint) Option {
	return func(o *arrayOptions) {
		o.unitPower = power
		o.powerSet = true
	}
}

// WithFillValue sets the value of pixels never written. The value is given
// in the double domain and converted to the element type.
func WithFillValue(v float64) Option {
	return func(o *arrayOptions) {
		o.fill = v
	}
}

// WithCompression selects the page compression used when the array is
// serialized with WriteTo or Save.
func WithCompression(c codec.Compression) Option {
	return func(o *arrayOptions) {
		o.compression = c
	}
}

func newArrayOptions(opts []Option) arrayOptions {
	o := arrayOptions{
		unitBytes:   DefaultUnitBytes,
		compression: codec.Default,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

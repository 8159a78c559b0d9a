package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"blackjack-casino/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	mu     sync.RWMutex
	writer io.Writer = os.Stdout
	file   *fileSink
)

// Init configures the global zerolog logger. When cfg.File is set, output is
// mirrored into a file rolled at cfg.MaxMB.
func Init(cfg config.LogConfig) {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	var raw io.Writer = os.Stdout
	var fileErr error
	mu.Lock()
	if file != nil {
		_ = file.Close()
		file = nil
	}
	if cfg.File != "" {
		f, err := openFileSink(cfg.File, int64(cfg.MaxMB)<<20, cfg.Keep)
		if err != nil {
			fileErr = err
		} else {
			file = f
			raw = io.MultiWriter(os.Stdout, f)
		}
	}
	writer = raw
	mu.Unlock()

	var output io.Writer = raw
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: raw}
	}

	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
	if fileErr != nil {
		log.Warn().Err(fileErr).Str("path", cfg.File).Msg("log file disabled")
	}
}

// Writer is the raw sink used by non-zerolog loggers such as the request log.
func Writer() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return writer
}

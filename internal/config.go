package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Host     string `env:"HOST,required=true"`
	Port     int    `env:"PORT,required=true"`
	LogLevel string `env:"LOG_LEVEL,required=true"`

	JWTSecret string `env:"JWT_SECRET,required=true"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`

	BufferSize           int           `env:"BUFFER_SIZE,required=true"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,required=true"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,required=true"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,required=true"`

	HistoryLimit     int  `env:"HISTORY_LIMIT,required=true"`
	LimitMessages    *int `env:"LIMIT_MESSAGES"`
	MaxContentLength int  `env:"MAX_CONTENT_LENGTH,required=true"`
	SearchLimit      int  `env:"SEARCH_LIMIT,required=true"`

	RateQuota  int           `env:"RATE_QUOTA,required=true"`
	RateWindow time.Duration `env:"RATE_WINDOW,required=true"`

	CharReplacement string `env:"CHARACTER_REPLACEMENT,required=true"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}

// Package config loads the broker configuration.
//
// Configuration is YAML, validated against the embedded CUE definition
// #Config, which supplies defaults, enumerations and ranges and rejects
// unknown fields.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaSource string

// Focus modes.
const (
	FocusPerCategory = "per_category"
	FocusShared      = "shared"
)

// Config is the effective broker configuration.
type Config struct {
	LogLevel    string  `json:"log_level"`
	LogFormat   string  `json:"log_format"`
	Focus       Focus   `json:"focus"`
	Journal     Journal `json:"journal"`
	WatchBuffer int     `json:"watch_buffer"`
}

// Focus configures focus coordination.
type Focus struct {
	Mode      string `json:"mode"`
	TimeoutMS int    `json:"timeout_ms"`
}

// Journal configures the decision journal.
type Journal struct {
	// Path is the SQLite database path. Empty disables the journal.
	Path string `json:"path"`
}

// Timeout returns the focus call timeout. Zero means no timeout.
func (f Focus) Timeout() time.Duration {
	return time.Duration(f.TimeoutMS) * time.Millisecond
}

// Level returns the slog level for LogLevel.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Error reports an invalid configuration file.
type Error struct {
	File    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.File != "" {
		return fmt.Sprintf("config %s: %s", e.File, e.Message)
	}
	return "config: " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Default returns the configuration used when no file is given.
func Default() Config {
	cfg, err := Parse("", nil)
	if err != nil {
		// The embedded schema is fixed; a failure here is a build defect.
		panic(fmt.Sprintf("config: default configuration invalid: %v", err))
	}
	return cfg
}

// Load reads and validates the YAML file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &Error{File: path, Message: err.Error(), Err: err}
	}
	return Parse(path, data)
}

// Parse validates YAML data against #Config and decodes the result.
// filename is used in error messages only.
func Parse(filename string, data []byte) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, &Error{Message: "compiling schema: " + err.Error(), Err: err}
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := def
	if strings.TrimSpace(string(data)) != "" {
		file, err := cueyaml.Extract(filename, data)
		if err != nil {
			return Config{}, &Error{File: filename, Message: formatCUEError(err), Err: err}
		}
		doc := ctx.BuildFile(file)
		if err := doc.Err(); err != nil {
			return Config{}, &Error{File: filename, Message: formatCUEError(err), Err: err}
		}
		v = def.Unify(doc)
	}

	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, &Error{File: filename, Message: formatCUEError(err), Err: err}
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return Config{}, &Error{File: filename, Message: formatCUEError(err), Err: err}
	}
	return cfg, nil
}

// formatCUEError joins every CUE error on one line each.
func formatCUEError(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := e.Error()
		if path := e.Path(); len(path) > 0 {
			prefix := strings.Join(path, ".") + ": "
			if !strings.HasPrefix(msg, prefix) {
				msg = prefix + msg
			}
		}
		msgs = append(msgs, msg)
	}
	return strings.Join(msgs, "; ")
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	rtdebug "runtime/debug"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"

	"stylo/misc"
)

type LoggerConfig struct {
	Level       string `yaml:"level" validate:"required,oneof=none debug normal"`
	Destination string `yaml:"destination,omitempty" sanitize:"path_clean,assure_dir_exists_for_file" validate:"omitempty,filepath"`
	Mode        string `yaml:"mode,omitempty" validate:"omitempty,oneof=append overwrite"`
}

type LoggingConfig struct {
	FileLogger    LoggerConfig `yaml:"file"`
	ConsoleLogger LoggerConfig `yaml:"console"`
}

// minLevel maps configured level name to lowest enabled zap level.
func minLevel(name string) (zapcore.Level, bool) {
	switch name {
	case "debug":
		return zapcore.DebugLevel, true
	case "normal":
		return zapcore.InfoLevel, true
	}
	return zapcore.InvalidLevel, false
}

// Prepare returns program logger. Console output is split: errors go to
// stderr, everything else to stdout. When debug is set file logger (if it has
// destination) is forced to debug level and overwrite mode.
func (conf *LoggingConfig) Prepare(debug bool) (*zap.Logger, error) {
	file := conf.FileLogger
	if debug && len(file.Destination) > 0 {
		file.Level, file.Mode = "debug", "overwrite"
	}

	fileCore, redirected, err := file.fileCore()
	if err != nil {
		return nil, err
	}

	log := zap.New(zapcore.NewTee(append(conf.ConsoleLogger.consoleCores(), fileCore)...), zap.AddCaller())
	if len(redirected) != 0 {
		log.Warn("Log file was redirected to new location", zap.String("location", redirected))
	}
	return log.Named(misc.GetAppName()), nil
}

func consoleEncoderConfig(stream *os.File) zapcore.EncoderConfig {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	if EnableColorOutput(stream) {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.TimeKey = zapcore.OmitKey
	}
	return ec
}

func (conf LoggerConfig) consoleCores() []zapcore.Core {
	lowest, ok := minLevel(conf.Level)
	if !ok {
		return []zapcore.Core{zapcore.NewNopCore()}
	}
	return []zapcore.Core{
		zapcore.NewCore(newEncoder(consoleEncoderConfig(os.Stderr)), zapcore.Lock(os.Stderr),
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
				return lvl >= zapcore.ErrorLevel
			})),
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig(os.Stdout)), zapcore.Lock(os.Stdout),
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
				return lowest <= lvl && lvl < zapcore.ErrorLevel
			})),
	}
}

func openLog(fname, mode string) (*os.File, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if mode == "append" {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	return os.OpenFile(fname, flags, 0644)
}

// fileCore opens file log, falling back to a temporary file whose name is
// returned when destination is not accessible. Panic output is captured next
// to the log.
func (conf LoggerConfig) fileCore() (zapcore.Core, string, error) {
	lowest, ok := minLevel(conf.Level)
	if !ok {
		return zapcore.NewNopCore(), "", nil
	}

	panicLog := filepath.Join(filepath.Dir(conf.Destination), misc.GetAppName()+"-panic.log")
	if ef, err := openLog(panicLog, conf.Mode); err == nil {
		rtdebug.SetCrashOutput(ef, rtdebug.CrashOptions{})
		ef.Close()
	} else if ef, err := os.CreateTemp("", misc.GetAppName()+"-panic.*.log"); err == nil {
		rtdebug.SetCrashOutput(ef, rtdebug.CrashOptions{})
		ef.Close()
	}

	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	level := zap.NewAtomicLevelAt(lowest)

	f, err := openLog(conf.Destination, conf.Mode)
	if err == nil {
		return zapcore.NewCore(enc, zapcore.Lock(f), level), "", nil
	}
	if f, err = os.CreateTemp("", misc.GetAppName()+".*.log"); err != nil {
		return nil, "", fmt.Errorf("unable to access file log destination (%s): %w", conf.Destination, err)
	}
	return zapcore.NewCore(enc, zapcore.Lock(f), level), f.Name(), nil
}

// consoleEnc prints only error message for error fields, without verbose
// details.
type consoleEnc struct {
	zapcore.Encoder
}

func newEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return consoleEnc{zapcore.NewConsoleEncoder(cfg)}
}

func (c consoleEnc) Clone() zapcore.Encoder {
	return consoleEnc{c.Encoder.Clone()}
}

func (c consoleEnc) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	out := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		if e, ok := f.Interface.(error); ok && f.Type == zapcore.ErrorType {
			f.Interface = errors.New(e.Error())
		}
		out = append(out, f)
	}
	return c.Encoder.EncodeEntry(ent, out)
}

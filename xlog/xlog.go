package xlog

import (
	"os"
	"path/filepath"
	rsync "sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	timeKey         = "time"
	EncodingJson    = "json"
	EncodingConsole = "console"
	FileMode        = "file"
	ConsoleMode     = "console"
)

var (
	levels = map[string]zapcore.Level{
		"debug": zap.DebugLevel,
		"info":  zap.InfoLevel,
		"warn":  zap.WarnLevel,
		"error": zap.ErrorLevel,
	}

	current *zap.Logger
	mutex   rsync.RWMutex
)

type XLogConf struct {
	ServiceName string `json:",optional"`
	// log directory, defaults to ./logs
	Path     string `json:",optional"`
	Filename string `json:",default=aquinas.log"`
	// file or console
	Mode string `json:",default=console,options=file|console"`
	// json or console
	Encoding   string `json:",default=console,options=json|console"`
	TimeFormat string `json:",optional"`
	// debug, info, warn, error
	Level    string `json:",default=info"`
	Compress bool   `json:",optional"`
	KeepDays int    `json:",default=7"`
	// megabytes per file before rotation
	MaxSize int `json:",default=100"`
}

func init() {
	conf := &XLogConf{}
	defaultConf(conf)
	conf.Level = "debug"
	current = New(conf)
}

// Load replaces the process logger with one built from conf.
func Load(conf *XLogConf) {
	defaultConf(conf)
	Use(New(conf))
}

// Use installs l as the process logger.
func Use(l *zap.Logger) {
	mutex.Lock()
	defer mutex.Unlock()

	current = l
}

func Write() *zap.Logger {
	mutex.RLock()
	defer mutex.RUnlock()

	return current
}

// New builds a logger without installing it.
func New(conf *XLogConf) *zap.Logger {
	opts := []zap.Option{
		zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel),
	}
	if len(conf.ServiceName) > 0 {
		opts = append(opts, zap.Fields(zap.String("service", conf.ServiceName)))
	}

	var write zapcore.WriteSyncer
	switch conf.Mode {
	case FileMode:
		write = rotate(conf)
	default:
		write = zapcore.Lock(os.Stdout)
	}

	level, ok := levels[conf.Level]
	if !ok {
		level = zap.InfoLevel
	}
	return zap.New(zapcore.NewCore(encoder(conf), write, level), opts...)
}

func rotate(conf *XLogConf) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename: filepath.Join(conf.Path, conf.Filename),
		Compress: conf.Compress,
		MaxAge:   conf.KeepDays,
		MaxSize:  conf.MaxSize,
	})
}

func encoder(conf *XLogConf) zapcore.Encoder {
	econf := zap.NewProductionEncoderConfig()
	econf.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format(conf.TimeFormat))
	}
	if conf.Level == "debug" && conf.Mode != FileMode {
		econf.EncodeLevel = zapcore.LowercaseColorLevelEncoder
	} else {
		econf.EncodeLevel = zapcore.LowercaseLevelEncoder
	}
	econf.TimeKey = timeKey

	if conf.Encoding == EncodingJson {
		return zapcore.NewJSONEncoder(econf)
	}
	return zapcore.NewConsoleEncoder(econf)
}

func defaultConf(conf *XLogConf) {
	if len(conf.Path) == 0 {
		path, _ := os.Getwd()
		conf.Path = filepath.Join(path, "logs")
	}
	if len(conf.Level) == 0 {
		conf.Level = "info"
	}
	if len(conf.Filename) == 0 {
		conf.Filename = "aquinas.log"
	}
	if len(conf.Encoding) == 0 {
		conf.Encoding = EncodingConsole
	}
	if len(conf.TimeFormat) == 0 {
		conf.TimeFormat = "2006-01-02 15:04:05"
	}
}

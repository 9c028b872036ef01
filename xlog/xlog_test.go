package xlog

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLog(t *testing.T) {
	t.Run("LogTest", func(t *testing.T) {
		prev := Write()
		defer Use(prev)

		Write().Info("test log info.")
		Write().Debug("test log debug.")

		Load(&XLogConf{
			ServiceName: "test",
			Path:        t.TempDir(),
			Mode:        FileMode,
			Encoding:    EncodingJson,
			Level:       "info",
		})

		Write().Error("test file log error.")
	})

	t.Run("Significance", func(t *testing.T) {
		prev := Write()
		defer Use(prev)

		core, logs := observer.New(zap.InfoLevel)
		Use(zap.New(core))

		Log(Low, "dropped")
		Log(Important, "disconnected", zap.String("url", "tcp://localhost:1"))
		Log(ClientFatal, "protocol error")

		entries := logs.All()
		if len(entries) != 2 {
			t.Fatalf("got %d entries, want 2", len(entries))
		}
		if entries[0].Level != zapcore.WarnLevel || entries[0].ContextMap()["significance"] != "important" {
			t.Errorf("entry 0 = %v %v", entries[0].Level, entries[0].ContextMap())
		}
		if entries[1].Level != zapcore.ErrorLevel || entries[1].ContextMap()["significance"] != "client_fatal" {
			t.Errorf("entry 1 = %v %v", entries[1].Level, entries[1].ContextMap())
		}
	})

	t.Run("Path", func(t *testing.T) {
		conf := &XLogConf{}
		defaultConf(conf)
		if filepath.Base(conf.Path) != "logs" || conf.Level != "info" {
			t.Fatalf("defaults = %+v", conf)
		}
	})
}

func TestDefaultTimeFormat(t *testing.T) {
	conf := &XLogConf{TimeFormat: ""}
	defaultConf(conf)
	if conf.TimeFormat != "2006-01-02 15:04:05" {
		t.Fatalf("TimeFormat = %q", conf.TimeFormat)
	}

	field, _ := reflect.TypeOf(XLogConf{}).FieldByName("TimeFormat")
	if tag := field.Tag.Get("json"); strings.Contains(tag, " ") {
		t.Fatalf("json tag %q contains a space", tag)
	}
}

package xlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Significance grades an event by how much attention it deserves.
type Significance uint8

const (
	Low Significance = iota
	Common
	Unusual
	Important
	// ClientFatal ends one connection
	ClientFatal
	// ProgramFatal ends the process
	ProgramFatal
)

var significances = [...]struct {
	name  string
	level zapcore.Level
}{
	Low:          {"low", zap.DebugLevel},
	Common:       {"common", zap.InfoLevel},
	Unusual:      {"unusual", zap.WarnLevel},
	Important:    {"important", zap.WarnLevel},
	ClientFatal:  {"client_fatal", zap.ErrorLevel},
	ProgramFatal: {"program_fatal", zap.ErrorLevel},
}

func (s Significance) String() string {
	if int(s) < len(significances) {
		return significances[s].name
	}
	return "unknown"
}

// Level returns the zap level events of this significance are written at.
func (s Significance) Level() zapcore.Level {
	if int(s) < len(significances) {
		return significances[s].level
	}
	return zap.ErrorLevel
}

// Log writes msg at the level of s and tags it with the significance.
func Log(s Significance, msg string, fields ...zap.Field) {
	l := Write()
	if ce := l.Check(s.Level(), msg); ce != nil {
		ce.Write(append(fields, zap.Stringer("significance", s))...)
	}
}

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// decode parses the single JSON record in buf.
func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v (raw: %s)", err, buf.String())
	}
	return rec
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"text", "json"} {
		if f, err := ParseFormat(s); err != nil || string(f) != s {
			t.Errorf("ParseFormat(%q) = %q, %v", s, f, err)
		}
	}
	for _, s := range []string{"", "JSON", "xml"} {
		if _, err := ParseFormat(s); err == nil {
			t.Errorf("ParseFormat(%q) accepted", s)
		}
	}
}

func TestLogger_ModuleAndWith(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, FormatJSON, slog.LevelInfo).Module("loader").With("path", "prog.elf").
		Info("Program loaded", "segments", 2)

	rec := decode(t, &buf)
	want := map[string]any{"module": "loader", "path": "prog.elf", "msg": "Program loaded", "segments": 2.0}
	for k, v := range want {
		if rec[k] != v {
			t.Errorf("%s = %v, want %v", k, rec[k], v)
		}
	}
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, FormatText, slog.LevelInfo).Module("hart").Info("Run finished", "instructions", 34)

	out := buf.String()
	for _, want := range []string{`msg="Run finished"`, "module=hart", "instructions=34"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output %q missing %q", out, want)
		}
	}
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		level slog.Level
		emit  func(*Logger)
		want  bool
	}{
		{slog.LevelInfo, func(l *Logger) { l.Debug("m") }, false},
		{slog.LevelInfo, func(l *Logger) { l.Info("m") }, true},
		{slog.LevelInfo, func(l *Logger) { l.Error("m") }, true},
		{slog.LevelWarn, func(l *Logger) { l.Info("m") }, false},
		{slog.LevelWarn, func(l *Logger) { l.Warn("m") }, true},
		{slog.LevelDebug, func(l *Logger) { l.Debug("m") }, true},
		{LevelSilent, func(l *Logger) { l.Error("m") }, false},
	}
	for i, tt := range tests {
		var buf bytes.Buffer
		tt.emit(New(&buf, FormatJSON, tt.level))
		if got := buf.Len() > 0; got != tt.want {
			t.Errorf("case %d: wrote %v, want %v (%s)", i, got, tt.want, buf.String())
		}
	}
}

func TestLogger_Enabled(t *testing.T) {
	l := New(&bytes.Buffer{}, FormatText, slog.LevelInfo)
	if l.Enabled(slog.LevelDebug) {
		t.Error("debug enabled at info level")
	}
	if !l.Enabled(slog.LevelWarn) {
		t.Error("warn disabled at info level")
	}
	if Discard().Enabled(slog.LevelError) {
		t.Error("discard logger enabled at error level")
	}
}

func TestFromHandler(t *testing.T) {
	var buf bytes.Buffer
	l := FromHandler(slog.NewJSONHandler(&buf, nil))
	l.Warn("CSR write", "csr", "0xc02")
	if rec := decode(t, &buf); rec["csr"] != "0xc02" || rec["level"] != "WARN" {
		t.Errorf("record = %v", rec)
	}
}

func TestSetDefault(t *testing.T) {
	orig := Default()
	if orig == nil {
		t.Fatal("Default() returned nil")
	}
	defer SetDefault(orig)

	l := Discard()
	SetDefault(l)
	if Default() != l {
		t.Fatal("SetDefault did not replace the logger")
	}
	SetDefault(nil)
	if Default() != l {
		t.Fatal("SetDefault(nil) replaced the logger")
	}
}

func TestVerbosityToLevel(t *testing.T) {
	tests := []struct {
		v    int
		want slog.Level
	}{
		{-3, LevelSilent},
		{0, LevelSilent},
		{1, slog.LevelError},
		{2, slog.LevelWarn},
		{3, slog.LevelInfo},
		{4, slog.LevelDebug},
		{9, slog.LevelDebug},
	}
	for _, tt := range tests {
		if got := VerbosityToLevel(tt.v); got != tt.want {
			t.Errorf("VerbosityToLevel(%d) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

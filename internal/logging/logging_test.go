package logging_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petasbytes/aichat/internal/logging"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := logging.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q)=%v want %v", in, got, want)
		}
	}
}

func TestNew_FileSink(t *testing.T) {
	p := filepath.Join(t.TempDir(), "aichat.log")
	l, c := logging.New("info", "file:"+p)
	l.Info("group_saved", "group", "g1")
	l.Debug("hidden_at_info")
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(b)
	if !strings.Contains(out, "group_saved") || !strings.Contains(out, "group=g1") {
		t.Fatalf("missing record: %q", out)
	}
	if strings.Contains(out, "hidden_at_info") {
		t.Fatalf("debug record written at info level: %q", out)
	}
}

func TestOrDiscard(t *testing.T) {
	if logging.OrDiscard(nil) == nil {
		t.Fatal("expected non-nil logger")
	}
}

package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitLoggerWritesReport(t *testing.T) {
	saved := zapLog
	t.Cleanup(func() { zapLog = saved })

	report := filepath.Join(t.TempDir(), "report.txt")
	if err := InitLogger(zapcore.InfoLevel, report); err != nil {
		t.Fatal(err)
	}
	With(zap.String("run_id", "run-1"))
	Info("Clustering strains", zap.Int("strains", 3))
	Debug("hidden at info level")
	Sync()

	b, err := os.ReadFile(report)
	if err != nil {
		t.Fatal(err)
	}
	got := string(b)
	for _, want := range []string{"Clustering strains", `"run_id": "run-1"`, `"strains": 3`} {
		if !strings.Contains(got, want) {
			t.Errorf("report lacks %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "hidden") {
		t.Errorf("debug entry written at info level")
	}
}

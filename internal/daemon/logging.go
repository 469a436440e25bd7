package daemon

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/manav03panchal/waketime/internal/config"
	"github.com/manav03panchal/waketime/internal/logging"
)

const (
	// LogMaxSizeMB is the size at which the daemon log rotates.
	LogMaxSizeMB = 5
	// LogMaxBackups is the number of rotated files kept.
	LogMaxBackups = 3
)

// GetLogPath returns the path to the daemon log file.
func GetLogPath() string {
	return filepath.Join(StateDir(), "daemon.log")
}

// OpenLog returns a size-rotated writer for the daemon log.
func OpenLog(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    LogMaxSizeMB,
		MaxBackups: LogMaxBackups,
		LocalTime:  true,
	}
}

// InitLogging points the global structured logger at w using the
// configured level and format. Debug forces debug level.
func InitLogging(w io.Writer, cfg config.LogConfig, debug bool) {
	lc := logging.Config{
		Level:  logging.ParseLevel(cfg.Level),
		JSON:   cfg.JSON,
		Output: w,
	}
	if debug {
		lc.Level = slog.LevelDebug
		lc.AddSource = true
	}
	logging.Init(lc)
}

// TailLog returns the last n lines of the log file at path.
func TailLog(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if n > 0 && len(lines) > n {
			lines = lines[1:]
		}
	}
	return lines, scanner.Err()
}

// lastLogError finds the newest error line among the last ten log lines.
func lastLogError(path string) string {
	lines, err := TailLog(path, 10)
	if err != nil {
		return ""
	}
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		lower := strings.ToLower(line)
		if strings.Contains(lower, "level=error") ||
			strings.Contains(lower, `"level":"error"`) ||
			strings.Contains(lower, "failed to") {
			return line
		}
	}
	return ""
}

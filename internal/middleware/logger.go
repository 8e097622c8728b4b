package middleware

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// Logger logs only slow or failed requests. The websocket endpoint is a
// single long request per client and is skipped.
func Logger() fiber.Handler {
	return logger.New(logger.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/ws"
		},
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
		Output:     newFilteredWriter(os.Stdout, 500*time.Millisecond, 400),
	})
}

// filteredWriter drops access-log lines of fast, successful requests.
// Lines look like "15:04:05 | 200 | 1.23ms | GET /path\n".
type filteredWriter struct {
	dest          io.Writer
	slowThreshold time.Duration
	statusFloor   int
}

func newFilteredWriter(dest io.Writer, slow time.Duration, statusFloor int) *filteredWriter {
	return &filteredWriter{dest: dest, slowThreshold: slow, statusFloor: statusFloor}
}

func (w *filteredWriter) Write(p []byte) (int, error) {
	parts := strings.Split(strings.TrimSpace(string(p)), " | ")
	if len(parts) < 3 {
		return w.dest.Write(p)
	}

	if status, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil && status >= w.statusFloor {
		return w.dest.Write(p)
	}
	if dur, err := time.ParseDuration(strings.TrimSpace(parts[2])); err == nil && dur >= w.slowThreshold {
		return w.dest.Write(p)
	}

	return len(p), nil
}

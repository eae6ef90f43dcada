package httpx

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Logger provides structured logging for REST API calls.
type Logger interface {
	// LogRequest logs an outgoing API request (token redacted)
	LogRequest(ctx context.Context, req RequestLog)

	// LogResponse logs an API response with timing and rate-limit info
	LogResponse(ctx context.Context, resp ResponseLog)

	// LogError logs an API error
	LogError(ctx context.Context, err ErrorLog)

	// LogWarning logs a warning message with structured fields.
	LogWarning(ctx context.Context, message string, fields map[string]interface{})

	// LogInfo logs an informational message with structured fields.
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
}

// RequestLog contains request information for logging.
type RequestLog struct {
	Service   string
	Method    string
	URL       string
	Timestamp time.Time
	Token     string // Will be redacted to last 4 chars
}

// ResponseLog contains response information for logging.
type ResponseLog struct {
	Service       string
	Method        string
	URL           string
	Timestamp     time.Time
	Duration      time.Duration
	StatusCode    int
	RateRemaining int // -1 when the header was absent
}

// ErrorLog contains error information for logging.
type ErrorLog struct {
	Service    string
	Method     string
	URL        string
	Timestamp  time.Time
	Duration   time.Duration
	Error      error
	StatusCode int
	Retryable  bool
}

// LogLevel defines the logging verbosity level.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelError
)

// LogFormat defines the output format for logs.
type LogFormat int

const (
	LogFormatHuman LogFormat = iota
	LogFormatJSON
)

// DefaultLogger writes logs in structured format to stderr.
type DefaultLogger struct {
	level        LogLevel
	redactTokens bool
	format       LogFormat
}

// NewDefaultLogger creates a logger with the specified config.
func NewDefaultLogger(level LogLevel, format LogFormat, redactTokens bool) *DefaultLogger {
	return &DefaultLogger{
		level:        level,
		redactTokens: redactTokens,
		format:       format,
	}
}

// LogRequest logs an API request.
func (l *DefaultLogger) LogRequest(ctx context.Context, req RequestLog) {
	if l.level > LogLevelDebug {
		return
	}

	redacted := l.RedactToken(req.Token)

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"debug","type":"request","service":"%s","method":"%s","url":"%s","timestamp":"%s","token":"%s"}`,
			req.Service, req.Method, req.URL, req.Timestamp.Format(time.RFC3339), redacted)
	} else {
		log.Printf("[DEBUG] %s: %s %s (token=%s)", req.Service, req.Method, req.URL, redacted)
	}
}

// LogResponse logs an API response.
func (l *DefaultLogger) LogResponse(ctx context.Context, resp ResponseLog) {
	if l.level > LogLevelInfo {
		return
	}

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"info","type":"response","service":"%s","method":"%s","url":"%s","timestamp":"%s","duration_ms":%d,"status_code":%d,"rate_remaining":%d}`,
			resp.Service, resp.Method, resp.URL, resp.Timestamp.Format(time.RFC3339),
			resp.Duration.Milliseconds(), resp.StatusCode, resp.RateRemaining)
	} else {
		log.Printf("[INFO] %s: %s %s -> %d (duration=%.1fs, rate-remaining=%d)",
			resp.Service, resp.Method, resp.URL, resp.StatusCode,
			resp.Duration.Seconds(), resp.RateRemaining)
	}
}

// LogError logs an API error.
func (l *DefaultLogger) LogError(ctx context.Context, errLog ErrorLog) {
	if l.level > LogLevelError {
		return
	}

	retryableStr := "non-retryable"
	if errLog.Retryable {
		retryableStr = "retryable"
	}

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"error","type":"error","service":"%s","method":"%s","url":"%s","timestamp":"%s","duration_ms":%d,"error":"%s","status_code":%d,"retryable":%t}`,
			errLog.Service, errLog.Method, errLog.URL, errLog.Timestamp.Format(time.RFC3339),
			errLog.Duration.Milliseconds(), errLog.Error.Error(), errLog.StatusCode, errLog.Retryable)
	} else {
		log.Printf("[ERROR] %s: %s %s failed (status=%d, %s): %v",
			errLog.Service, errLog.Method, errLog.URL, errLog.StatusCode, retryableStr, errLog.Error)
	}
}

// LogWarning logs a warning message with structured fields.
func (l *DefaultLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelInfo {
		return
	}
	if l.format == LogFormatJSON {
		log.Printf(`{"level":"warning","message":"%s","fields":%s}`, message, formatFields(fields))
	} else {
		log.Printf("[WARN] %s %s", message, formatFields(fields))
	}
}

// LogInfo logs an informational message with structured fields.
func (l *DefaultLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelInfo {
		return
	}
	if l.format == LogFormatJSON {
		log.Printf(`{"level":"info","message":"%s","fields":%s}`, message, formatFields(fields))
	} else {
		log.Printf("[INFO] %s %s", message, formatFields(fields))
	}
}

// RedactToken shows only the last 4 characters of an access token with
// explicit redaction markers.
func (l *DefaultLogger) RedactToken(token string) string {
	if !l.redactTokens {
		return token
	}
	if len(token) <= 4 {
		return "[REDACTED]"
	}
	return fmt.Sprintf("[REDACTED-%s]", token[len(token)-4:])
}

func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return "{}"
	}
	return fmt.Sprintf("%v", fields)
}

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"
)

const ingesterURL = "https://ingester.logging.yandexcloud.net/write"

// CloudConfig содержит настройки отправки логов в Yandex Cloud Logging.
type CloudConfig struct {
	GroupName     string        // лог-группа по имени (например, "default")
	GroupID       string        // лог-группа по ID (альтернатива group_name)
	IAMToken      string        // IAM токен (обычно через YC_IAM_TOKEN env)
	FolderID      string        // ID каталога (или YC_FOLDER_ID env)
	Level         string        // минимальный уровень: DEBUG, INFO, WARN, ERROR
	BatchSize     int           // размер батча (по умолчанию 10)
	FlushInterval time.Duration // интервал отправки батча (по умолчанию 5s)
	ProjectLabel  string
	ServiceLabel  string
}

// CloudHandler is a slog.Handler that batches records and ships them to the
// Yandex Cloud Logging ingester over its plain HTTP write API.
type CloudHandler struct {
	config      CloudConfig
	client      *http.Client
	buffer      []logEntry
	bufferMutex sync.Mutex
	ticker      *time.Ticker
	done        chan struct{}
	wg          sync.WaitGroup
	level       slog.Level
}

type logEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

func NewCloudHandler(config CloudConfig) (*CloudHandler, error) {
	if config.IAMToken == "" {
		config.IAMToken = os.Getenv("YC_IAM_TOKEN")
	}
	if config.IAMToken == "" {
		return nil, fmt.Errorf("IAM token is required (set YC_IAM_TOKEN env var or in config)")
	}

	if config.FolderID == "" {
		config.FolderID = os.Getenv("YC_FOLDER_ID")
	}
	if config.GroupName == "" {
		config.GroupName = os.Getenv("YC_LOG_GROUP_NAME")
	}
	if config.GroupID == "" {
		config.GroupID = os.Getenv("YC_LOG_GROUP_ID")
	}

	if config.BatchSize <= 0 {
		config.BatchSize = 10
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 5 * time.Second
	}

	var level slog.Level
	switch config.Level {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := &CloudHandler{
		config: config,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		buffer: make([]logEntry, 0, config.BatchSize),
		ticker: time.NewTicker(config.FlushInterval),
		done:   make(chan struct{}),
		level:  level,
	}

	handler.wg.Add(1)
	go handler.flushLoop()

	return handler, nil
}

func (h *CloudHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *CloudHandler) Handle(ctx context.Context, record slog.Record) error {
	if !h.Enabled(ctx, record.Level) {
		return nil
	}

	entry := logEntry{
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
		Payload:   make(map[string]interface{}),
	}
	if h.config.ProjectLabel != "" {
		entry.Payload["project"] = h.config.ProjectLabel
	}
	if h.config.ServiceLabel != "" {
		entry.Payload["service"] = h.config.ServiceLabel
	}

	record.Attrs(func(a slog.Attr) bool {
		entry.Payload[a.Key] = a.Value.Any()
		return true
	})

	h.bufferMutex.Lock()
	h.buffer = append(h.buffer, entry)
	shouldFlush := len(h.buffer) >= h.config.BatchSize
	h.bufferMutex.Unlock()

	if shouldFlush {
		go h.flush()
	}

	return nil
}

// WithAttrs/WithGroup return the same handler; attrs already reach Handle
// through the record.
func (h *CloudHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }
func (h *CloudHandler) WithGroup(name string) slog.Handler       { return h }

func (h *CloudHandler) flushLoop() {
	defer h.wg.Done()
	for {
		select {
		case <-h.ticker.C:
			h.flush()
		case <-h.done:
			return
		}
	}
}

func (h *CloudHandler) flush() {
	h.bufferMutex.Lock()
	if len(h.buffer) == 0 {
		h.bufferMutex.Unlock()
		return
	}

	entries := make([]logEntry, len(h.buffer))
	copy(entries, h.buffer)
	h.buffer = h.buffer[:0]
	h.bufferMutex.Unlock()

	if err := h.sendLogs(entries); err != nil {
		// stderr, not slog: logging a logging failure must not loop
		fmt.Fprintf(os.Stderr, "Failed to send logs to Yandex Cloud Logging: %v\n", err)
	}
}

// sendLogs ships entries through the REST API compatible with
// `yc logging write` (form-data, one record per request).
func (h *CloudHandler) sendLogs(entries []logEntry) error {
	for _, entry := range entries {
		reqURL, err := url.Parse(ingesterURL)
		if err != nil {
			continue
		}

		q := reqURL.Query()
		if h.config.GroupID != "" {
			q.Set("groupId", h.config.GroupID)
		} else if h.config.GroupName != "" {
			q.Set("groupName", h.config.GroupName)
		} else {
			q.Set("groupName", "default")
		}
		if h.config.FolderID != "" {
			q.Set("folderId", h.config.FolderID)
		}
		reqURL.RawQuery = q.Encode()

		formData := url.Values{}
		formData.Set("message", entry.Message)
		formData.Set("level", entry.Level)
		if len(entry.Payload) > 0 {
			if jsonPayload, err := json.Marshal(entry.Payload); err == nil {
				formData.Set("json_payload", string(jsonPayload))
			}
		}

		req, err := http.NewRequest("POST", reqURL.String(), bytes.NewBufferString(formData.Encode()))
		if err != nil {
			continue
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Bearer "+h.config.IAMToken)

		resp, err := h.client.Do(req)
		if err != nil {
			// Keep sending the rest of the batch
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			fmt.Fprintf(os.Stderr, "Yandex Cloud Logging error: status %d, body: %s, url: %s\n",
				resp.StatusCode, string(body), reqURL.String())
		}
	}

	return nil
}

// Close flushes whatever is buffered and stops the background loop.
func (h *CloudHandler) Close() error {
	close(h.done)
	h.ticker.Stop()
	h.wg.Wait()
	h.flush()
	return nil
}

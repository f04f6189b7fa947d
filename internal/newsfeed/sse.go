package newsfeed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SSEConfig holds transport settings for the SSE news source.
type SSEConfig struct {
	BaseURL            string
	ReconnectInitialMs int
	ReconnectMaxMs     int
	ReconnectJitterMs  int
	ChannelBuffer      int
}

// SSESource consumes the news wire over Server-Sent Events. It owns one
// HTTP streaming connection and reconnects with exponential backoff.
type SSESource struct {
	cfg    SSEConfig
	url    string
	log    *zap.Logger
	client *http.Client

	items       chan Item
	lastEventID string
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
}

func NewSSESource(cfg SSEConfig, log *zap.Logger) *SSESource {
	if cfg.ChannelBuffer <= 0 {
		cfg.ChannelBuffer = 1024
	}
	if cfg.ReconnectInitialMs <= 0 {
		cfg.ReconnectInitialMs = 500
	}
	if cfg.ReconnectMaxMs <= 0 {
		cfg.ReconnectMaxMs = 30000
	}
	if cfg.ReconnectJitterMs <= 0 {
		cfg.ReconnectJitterMs = 250
	}
	return &SSESource{
		cfg:    cfg,
		url:    cfg.BaseURL + "/news/stream",
		log:    log,
		client: &http.Client{Timeout: 0}, // streaming; lifetime bound by ctx
		items:  make(chan Item, cfg.ChannelBuffer),
	}
}

func (s *SSESource) Start(ctx context.Context) (<-chan Item, error) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.consumeLoop(ctx)
	return s.items, nil
}

func (s *SSESource) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	close(s.items)
	return nil
}

func (s *SSESource) consumeLoop(ctx context.Context) {
	defer s.wg.Done()

	backoff := s.cfg.ReconnectInitialMs
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := s.connectAndConsume(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			jitter := rand.Intn(s.cfg.ReconnectJitterMs)
			delay := time.Duration(backoff+jitter) * time.Millisecond
			s.log.Warn("news stream disconnected",
				zap.Error(err), zap.Duration("retry_in", delay))

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
			backoff *= 2
			if backoff > s.cfg.ReconnectMaxMs {
				backoff = s.cfg.ReconnectMaxMs
			}
		} else {
			backoff = s.cfg.ReconnectInitialMs
		}
	}
}

func (s *SSESource) connectAndConsume(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	s.mu.Lock()
	lastID := s.lastEventID
	s.mu.Unlock()
	if lastID != "" {
		req.Header.Set("Last-Event-ID", lastID)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	s.log.Info("news stream connected", zap.String("url", s.url))
	return s.processStream(ctx, resp.Body)
}

func (s *SSESource) processStream(ctx context.Context, body io.Reader) error {
	scanner := bufio.NewScanner(body)

	var eventType, eventID, eventData string
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Text()
		if strings.HasPrefix(line, ":") {
			continue // heartbeat comment
		}

		if line == "" {
			if eventType == "news" && eventData != "" {
				s.deliver(eventID, eventData)
			}
			eventType, eventID, eventData = "", "", ""
			continue
		}

		if colonPos := strings.Index(line, ":"); colonPos > 0 {
			field := line[:colonPos]
			value := strings.TrimSpace(line[colonPos+1:])
			switch field {
			case "event":
				eventType = value
			case "id":
				eventID = value
			case "data":
				eventData = value
			}
		}
	}
	return scanner.Err()
}

func (s *SSESource) deliver(eventID, data string) {
	var item Item
	if err := json.Unmarshal([]byte(data), &item); err != nil {
		s.log.Warn("unparseable news payload",
			zap.String("event_id", eventID), zap.Error(err))
		return
	}
	item = Normalize(item)

	select {
	case s.items <- item:
		s.mu.Lock()
		s.lastEventID = eventID
		s.mu.Unlock()
	default:
		// Feed consumer is behind; dropping news beats stalling the wire.
		s.log.Warn("news channel full, dropping item",
			zap.String("article_id", item.ArticleID))
	}
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/catalystlab/autotrader/internal/autotrade"
	"github.com/catalystlab/autotrader/internal/broker"
	"github.com/catalystlab/autotrader/internal/catalyst"
	"github.com/catalystlab/autotrader/internal/config"
	"github.com/catalystlab/autotrader/internal/journal"
	"github.com/catalystlab/autotrader/internal/newsfeed"
	"github.com/catalystlab/autotrader/internal/observ"
	"github.com/catalystlab/autotrader/internal/orders"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	paper := flag.Bool("paper", false, "use simulated quotes and order placement")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := observ.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jnl, err := journal.New(cfg.Journal.Path)
	if err != nil {
		log.Fatal("open journal", zap.Error(err))
	}

	var quotes broker.QuoteService
	var placer broker.OrderPlacer
	if *paper {
		quotes = broker.NewSimQuoteService()
		placer = broker.NewSimPlacer()
		log.Info("paper mode: simulated quotes and placement")
	} else {
		gw := broker.NewGateway(broker.GatewayConfig{
			BaseURL:            cfg.Gateway.BaseURL,
			TimeoutMs:          cfg.Gateway.TimeoutMs,
			RateLimitPerMinute: cfg.Gateway.RateLimitPerMin,
		})
		quotes = gw
		placer = gw
	}

	// The bus is the process's only subscription to the brokerage event
	// stream; everything downstream shares this one handle.
	bus := orders.NewBus(orders.BusConfig{
		URL:              cfg.Gateway.WebsocketURL,
		ReconnectDelayMs: cfg.Gateway.ReconnectDelayMs,
	}, log)
	if !*paper {
		if err := bus.Start(ctx); err != nil {
			log.Warn("order event bus not started; will retry on demand", zap.Error(err))
		}
		if recs, err := fetchOpenOrders(ctx, cfg.Gateway.BaseURL, cfg.Gateway.TimeoutMs); err != nil {
			log.Warn("open orders fetch failed", zap.Error(err))
		} else {
			bus.Seed(recs)
		}
	}
	defer bus.Stop()

	source := buildSource(cfg.Feed, log)
	items, err := source.Start(ctx)
	if err != nil {
		log.Fatal("start news source", zap.Error(err))
	}
	defer source.Close()

	orch := autotrade.New(
		autotrade.NewSettings(cfg.Trading),
		catalyst.NewClassifier(catalyst.DefaultRules()),
		catalyst.DefaultPlaybook(),
		quotes,
		placer,
		jnl,
		log,
	)

	go serveStatus(cfg.MetricsAddr, bus, log)
	go orch.Run(ctx, items)

	log.Info("autotrader running",
		zap.String("feed", cfg.Feed.Transport),
		zap.Bool("paper", *paper),
		zap.Strings("watchlist", cfg.Trading.Watchlist))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")
	cancel()
}

func buildSource(cfg config.Feed, log *zap.Logger) newsfeed.Source {
	if cfg.Transport == "kafka" {
		return newsfeed.NewKafkaSource(newsfeed.KafkaConfig{
			Brokers:       cfg.Kafka.Brokers,
			Topic:         cfg.Kafka.Topic,
			GroupID:       cfg.Kafka.GroupID,
			ChannelBuffer: cfg.ChannelBuffer,
		}, log)
	}
	return newsfeed.NewSSESource(newsfeed.SSEConfig{
		BaseURL:            cfg.BaseURL,
		ReconnectInitialMs: cfg.ReconnectInitialMs,
		ReconnectMaxMs:     cfg.ReconnectMaxMs,
		ReconnectJitterMs:  cfg.ReconnectJitterMs,
		ChannelBuffer:      cfg.ChannelBuffer,
	}, log)
}

// fetchOpenOrders seeds the reconciled table so orders placed before
// this process started still show up.
func fetchOpenOrders(ctx context.Context, baseURL string, timeoutMs int) ([]orders.OrderRecord, error) {
	client := &http.Client{Timeout: time.Duration(timeoutMs) * time.Millisecond}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/orders/open", nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("open orders returned %d", resp.StatusCode)
	}

	var out struct {
		Orders []orders.OrderRecord `json:"orders"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// serveStatus exposes metrics and the reconciled order-table snapshot
// for the presentation layer.
func serveStatus(addr string, bus *orders.Bus, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observ.Handler())
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(bus.Snapshot())
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn("status server stopped", zap.Error(err))
	}
}

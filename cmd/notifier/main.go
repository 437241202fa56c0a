// SmartChill Notifier - the Notification Router and Interaction Engine,
// run together since both talk to the same external chat platform.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AlexDuchaine19/SmartChill-sub001/internal/bus"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/config"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/control"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/interaction"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/logging"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/notifier"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/supervisor"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/telegram"
)

const serviceID = "notifier"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	fmt.Printf("SmartChill Notifier %s (%s) built %s\n", version, commit, date)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := os.Getenv("SMARTCHILL_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("notifier: loading config: %w", err)
	}
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("notifier: telegram token is required")
	}

	logger := logging.New(cfg.Logging, serviceID)

	bot, err := telegram.New(cfg.Telegram.Token, logger)
	if err != nil {
		return fmt.Errorf("notifier: starting telegram client: %w", err)
	}
	if cfg.Telegram.SetDescriptionsOnStart {
		if err := bot.SetDescriptions(
			"SmartChill keeps you on top of your fridges: door alarms, spoilage warnings, and status checks.",
			"Your SmartChill fleet assistant",
		); err != nil {
			logger.Warn("setting bot descriptions failed", "error", err)
		}
	}

	resolver := notifier.NewRegistryResolver(cfg.Catalog.URL)
	cooldown := time.Duration(cfg.Defaults.AlertCooldownMinutes) * time.Minute
	router := notifier.New(resolver, bot, cooldown, logger)

	alertPattern := fmt.Sprintf("%s/%s/+/Alerts/+", cfg.ProjectOwner, cfg.ProjectName)
	configReplyPattern := fmt.Sprintf("%s/%s/+/+/+", cfg.ProjectOwner, cfg.ProjectName)

	engine := interaction.New(bot, nil, cfg.Catalog.URL, cfg.ProjectOwner, cfg.ProjectName, logger)

	client := bus.New(bus.Config{
		BrokerIP:   cfg.Broker.IP,
		BrokerPort: cfg.Broker.Port,
		ClientID:   cfg.MQTT.ClientIDPrefix + "-" + serviceID,
	}, func(topic string, payload []byte) {
		switch {
		case topicMatches(topic, alertPattern):
			router.HandleAlert(topic, payload)
		case isConfigReply(topic):
			engine.HandleConfigReply(topic, payload)
		}
	}, logger)
	engine.SetBus(client)

	if err := client.Start(); err != nil {
		return fmt.Errorf("notifier: connecting to bus: %w", err)
	}
	defer client.Stop()

	if _, err := client.Subscribe(alertPattern, 2); err != nil {
		return fmt.Errorf("notifier: subscribing to alerts: %w", err)
	}
	if _, err := client.Subscribe(configReplyPattern, 2); err != nil {
		return fmt.Errorf("notifier: subscribing to config replies: %w", err)
	}

	registryClient := control.NewRegistryClient(cfg.Catalog.URL)
	interval := time.Duration(cfg.Catalog.RegistrationIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 60 * time.Second
	}

	updates := bot.Updates(0)

	group, groupCtx := supervisor.New(ctx)
	group.Go(func() error {
		runRegistrationLoop(groupCtx, registryClient, interval, logger)
		return nil
	})
	group.Go(func() error {
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case update, ok := <-updates:
				if !ok {
					return nil
				}
				engine.HandleUpdate(update)
			}
		}
	})

	logger.Info("notifier ready")
	<-ctx.Done()
	logger.Info("shutdown signal received")
	bot.StopReceivingUpdates()
	return group.Wait()
}

func runRegistrationLoop(ctx context.Context, client *control.RegistryClient, interval time.Duration, logger logging.Interface) {
	desc := control.ServiceDescriptor{
		ServiceID:                serviceID,
		Name:                     "Notifier",
		Type:                     "notifier",
		RegistrationIntervalSecs: int(interval.Seconds()),
	}
	register := func() {
		if err := client.RegisterWithBackoff(ctx, desc); err != nil {
			logger.Error("service registration failed", "service_id", serviceID, "error", err)
		}
	}
	register()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			register()
		}
	}
}

func isConfigReply(topic string) bool {
	return strings.HasSuffix(topic, "/config_data") ||
		strings.HasSuffix(topic, "/config_ack") ||
		strings.HasSuffix(topic, "/config_error")
}

func topicMatches(topic, pattern string) bool {
	topicParts := strings.Split(topic, "/")
	patternParts := strings.Split(pattern, "/")
	if len(topicParts) != len(patternParts) {
		return false
	}
	for i, p := range patternParts {
		if p != "+" && p != topicParts[i] {
			return false
		}
	}
	return true
}

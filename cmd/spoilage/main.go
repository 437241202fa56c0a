// SmartChill Spoilage - control service that alerts when a fridge's gas
// sensor reports levels consistent with spoiling food.
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
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/control/spoilage"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/logging"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/supervisor"
)

const serviceID = "spoilage"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	fmt.Printf("SmartChill Spoilage %s (%s) built %s\n", version, commit, date)

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
		return fmt.Errorf("spoilage: loading config: %w", err)
	}

	logger := logging.New(cfg.Logging, serviceID)

	settings, err := control.NewSettingsStore(cfg.StatePath, toControlDefaults(cfg.Defaults))
	if err != nil {
		return fmt.Errorf("spoilage: opening settings store: %w", err)
	}

	skeleton := &control.Skeleton{
		ServiceID:    serviceID,
		ProjectOwner: cfg.ProjectOwner,
		ProjectName:  cfg.ProjectName,
		Registry:     control.NewRegistryClient(cfg.Catalog.URL),
		Settings:     settings,
		Logger:       logger,
	}
	monitor := spoilage.New(skeleton)

	configPattern := skeleton.ConfigSubscriptionPattern()
	gasSuffix := "/gas"

	client := bus.New(bus.Config{
		BrokerIP:   cfg.Broker.IP,
		BrokerPort: cfg.Broker.Port,
		ClientID:   cfg.MQTT.ClientIDPrefix + "-" + serviceID,
	}, func(topic string, payload []byte) {
		switch {
		case topicMatches(topic, configPattern):
			skeleton.HandleConfigMessage(topic, payload)
		case strings.HasSuffix(topic, gasSuffix):
			deviceID := deviceIDFromDeviceTopic(topic)
			if deviceID == "" {
				return
			}
			if !skeleton.EnsureKnownDevice(ctx, deviceID) {
				return
			}
			monitor.HandleGasReading(deviceID, payload, time.Now().UTC())
		}
	}, logger)
	skeleton.Bus = client

	if err := client.Start(); err != nil {
		return fmt.Errorf("spoilage: connecting to bus: %w", err)
	}
	defer client.Stop()

	if _, err := client.Subscribe(configPattern, 2); err != nil {
		return fmt.Errorf("spoilage: subscribing to config topic: %w", err)
	}
	gasPattern := fmt.Sprintf("%s/%s/Devices/+/+%s", cfg.ProjectOwner, cfg.ProjectName, gasSuffix)
	if _, err := client.Subscribe(gasPattern, 2); err != nil {
		return fmt.Errorf("spoilage: subscribing to gas readings: %w", err)
	}

	interval := time.Duration(cfg.Catalog.RegistrationIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 60 * time.Second
	}

	group, groupCtx := supervisor.New(ctx)
	group.Go(func() error {
		skeleton.RunRegistrationLoop(groupCtx, control.ServiceDescriptor{
			ServiceID:                serviceID,
			Name:                     "Spoilage",
			Endpoints:                []string{configPattern},
			Type:                     "control",
			RegistrationIntervalSecs: int(interval.Seconds()),
		}, interval)
		return nil
	})

	logger.Info("spoilage ready")
	<-ctx.Done()
	logger.Info("shutdown signal received")
	return group.Wait()
}

func toControlDefaults(d config.Defaults) control.Defaults {
	return control.Defaults{
		MaxDoorOpenSeconds:      d.MaxDoorOpenSeconds,
		CheckInterval:           d.CheckIntervalSeconds,
		EnableDoorClosedAlerts:  d.EnableDoorClosedAlerts,
		GasThresholdPPM:         d.GasThresholdPPM,
		AlertCooldownMinutes:    d.AlertCooldownMinutes,
		EnableContinuousAlerts:  d.EnableContinuousAlerts,
		TempMinCelsius:          d.TempMinCelsius,
		TempMaxCelsius:          d.TempMaxCelsius,
		HumidityMaxPercent:      d.HumidityMaxPercent,
		EnableMalfunctionAlerts: d.EnableMalfunctionAlerts,
	}
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

func deviceIDFromDeviceTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}

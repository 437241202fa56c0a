// SmartChill Status Check - control service that alerts when a fridge's
// temperature or humidity drifts outside its configured band.
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
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/control/status"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/logging"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/supervisor"
)

const serviceID = "status-check"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	fmt.Printf("SmartChill Status Check %s (%s) built %s\n", version, commit, date)

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
		return fmt.Errorf("statuscheck: loading config: %w", err)
	}

	logger := logging.New(cfg.Logging, serviceID)

	settings, err := control.NewSettingsStore(cfg.StatePath, toControlDefaults(cfg.Defaults))
	if err != nil {
		return fmt.Errorf("statuscheck: opening settings store: %w", err)
	}

	skeleton := &control.Skeleton{
		ServiceID:    serviceID,
		ProjectOwner: cfg.ProjectOwner,
		ProjectName:  cfg.ProjectName,
		Registry:     control.NewRegistryClient(cfg.Catalog.URL),
		Settings:     settings,
		Logger:       logger,
	}
	monitor := status.New(skeleton)

	configPattern := skeleton.ConfigSubscriptionPattern()
	readingSuffixes := []string{"/temperature", "/humidity"}

	client := bus.New(bus.Config{
		BrokerIP:   cfg.Broker.IP,
		BrokerPort: cfg.Broker.Port,
		ClientID:   cfg.MQTT.ClientIDPrefix + "-" + serviceID,
	}, func(topic string, payload []byte) {
		if topicMatches(topic, configPattern) {
			skeleton.HandleConfigMessage(topic, payload)
			return
		}
		for _, suffix := range readingSuffixes {
			if !strings.HasSuffix(topic, suffix) {
				continue
			}
			deviceID := deviceIDFromDeviceTopic(topic)
			if deviceID == "" {
				return
			}
			if !skeleton.EnsureKnownDevice(ctx, deviceID) {
				return
			}
			monitor.HandleTemperatureReading(deviceID, payload, time.Now().UTC())
			return
		}
	}, logger)
	skeleton.Bus = client

	if err := client.Start(); err != nil {
		return fmt.Errorf("statuscheck: connecting to bus: %w", err)
	}
	defer client.Stop()

	if _, err := client.Subscribe(configPattern, 2); err != nil {
		return fmt.Errorf("statuscheck: subscribing to config topic: %w", err)
	}
	for _, suffix := range readingSuffixes {
		pattern := fmt.Sprintf("%s/%s/Devices/+/+%s", cfg.ProjectOwner, cfg.ProjectName, suffix)
		if _, err := client.Subscribe(pattern, 2); err != nil {
			return fmt.Errorf("statuscheck: subscribing to %s: %w", suffix, err)
		}
	}

	interval := time.Duration(cfg.Catalog.RegistrationIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 60 * time.Second
	}

	group, groupCtx := supervisor.New(ctx)
	group.Go(func() error {
		skeleton.RunRegistrationLoop(groupCtx, control.ServiceDescriptor{
			ServiceID:                serviceID,
			Name:                     "Status Check",
			Endpoints:                []string{configPattern},
			Type:                     "control",
			RegistrationIntervalSecs: int(interval.Seconds()),
		}, interval)
		return nil
	})

	logger.Info("status check ready")
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

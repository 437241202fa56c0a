// SmartChill Door Timer - control service that alerts when a fridge door
// has been left open past its configured threshold.
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
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/control/doortimer"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/logging"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/supervisor"
)

const serviceID = "door-timer"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	fmt.Printf("SmartChill Door Timer %s (%s) built %s\n", version, commit, date)

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
		return fmt.Errorf("doortimer: loading config: %w", err)
	}

	logger := logging.New(cfg.Logging, serviceID)

	settings, err := control.NewSettingsStore(cfg.StatePath, toControlDefaults(cfg.Defaults))
	if err != nil {
		return fmt.Errorf("doortimer: opening settings store: %w", err)
	}

	skeleton := &control.Skeleton{
		ServiceID:    serviceID,
		ProjectOwner: cfg.ProjectOwner,
		ProjectName:  cfg.ProjectName,
		Registry:     control.NewRegistryClient(cfg.Catalog.URL),
		Settings:     settings,
		Logger:       logger,
	}
	monitor := doortimer.New(skeleton)

	configPattern := skeleton.ConfigSubscriptionPattern()
	doorEventSuffix := "/door_event"

	client := bus.New(bus.Config{
		BrokerIP:   cfg.Broker.IP,
		BrokerPort: cfg.Broker.Port,
		ClientID:   cfg.MQTT.ClientIDPrefix + "-" + serviceID,
	}, func(topic string, payload []byte) {
		switch {
		case topicMatches(topic, configPattern):
			skeleton.HandleConfigMessage(topic, payload)
		case strings.HasSuffix(topic, doorEventSuffix):
			deviceID := deviceIDFromDeviceTopic(topic)
			if deviceID == "" {
				return
			}
			if !skeleton.EnsureKnownDevice(ctx, deviceID) {
				return
			}
			monitor.HandleDoorEvent(deviceID, payload, time.Now().UTC())
		}
	}, logger)
	skeleton.Bus = client

	if err := client.Start(); err != nil {
		return fmt.Errorf("doortimer: connecting to bus: %w", err)
	}
	defer client.Stop()

	if _, err := client.Subscribe(configPattern, 2); err != nil {
		return fmt.Errorf("doortimer: subscribing to config topic: %w", err)
	}
	doorEventPattern := fmt.Sprintf("%s/%s/Devices/+/+%s", cfg.ProjectOwner, cfg.ProjectName, doorEventSuffix)
	if _, err := client.Subscribe(doorEventPattern, 2); err != nil {
		return fmt.Errorf("doortimer: subscribing to door events: %w", err)
	}

	interval := time.Duration(cfg.Catalog.RegistrationIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 60 * time.Second
	}

	group, groupCtx := supervisor.New(ctx)
	group.Go(func() error {
		skeleton.RunRegistrationLoop(groupCtx, control.ServiceDescriptor{
			ServiceID:                serviceID,
			Name:                     "Door Timer",
			Endpoints:                []string{configPattern},
			Type:                     "control",
			RegistrationIntervalSecs: int(interval.Seconds()),
		}, interval)
		return nil
	})
	group.Go(func() error {
		runTickLoop(groupCtx, monitor)
		return nil
	})

	logger.Info("door timer ready")
	<-ctx.Done()
	logger.Info("shutdown signal received")
	return group.Wait()
}

// runTickLoop drives Monitor.Tick at the fleet's tightest check_interval,
// re-evaluating the interval on every tick since devices may join or leave.
func runTickLoop(ctx context.Context, monitor *doortimer.Monitor) {
	const defaultInterval = 5 * time.Second
	timer := time.NewTimer(defaultInterval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-timer.C:
			monitor.Tick(now.UTC())
			timer.Reset(monitor.MinCheckInterval(defaultInterval))
		}
	}
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

// topicMatches checks a received topic against a single-level MQTT
// subscription pattern containing "+" wildcards.
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

// deviceIDFromDeviceTopic extracts {deviceID} from
// `{owner}/{name}/Devices/{model}/{deviceID}/{sensor}`.
func deviceIDFromDeviceTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}

// Command pulsemaker emulates a Geiger counter pulse train on GPIO and
// reports per-minute counts over serial, MQTT, and HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/louisbertrand/pulsemaker/internal/gpio"
	"github.com/louisbertrand/pulsemaker/internal/logic"
	"github.com/louisbertrand/pulsemaker/internal/mqtt"
	"github.com/louisbertrand/pulsemaker/internal/report"
	"github.com/louisbertrand/pulsemaker/internal/rng"
	"github.com/louisbertrand/pulsemaker/internal/status"
	"github.com/louisbertrand/pulsemaker/internal/web"
)

// DefaultSeed is the firmware's fixed generator seed ("C137" in ASCII).
// Every run with this seed produces the same pulse train.
const DefaultSeed = 0x43313337

func main() {
	poll := flag.Duration("poll", time.Millisecond, "GPIO polling interval")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address (empty to disable)")
	pinButton := flag.Int("pin-button", gpio.DefaultPinButton, "BCM pin number for the rate button")
	pinPulse := flag.Int("pin-pulse", gpio.DefaultPinPulse, "BCM pin number for the pulse output")
	pinLED := flag.Int("pin-led", gpio.DefaultPinLED, "BCM pin number for the indicator LED")
	serialDev := flag.String("serial", "", "serial device for the CSV stream (empty to disable)")
	httpAddr := flag.String("http", ":8080", "HTTP status address (empty to disable)")
	seed := flag.Uint64("seed", DefaultSeed, "generator seed")
	dryRun := flag.Bool("dry-run", false, "run without GPIO hardware or a broker")

	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		With().Timestamp().Logger()

	seedVal, err := parseSeed(*seed)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid -seed")
	}

	if err := run(*poll, *broker, *pinButton, *pinPulse, *pinLED, *serialDev, *httpAddr, seedVal, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}

// parseSeed rejects seed values that do not fit the generator's 32-bit
// seeding word instead of silently truncating them.
func parseSeed(v uint64) (uint32, error) {
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("seed %d exceeds 32 bits (max %d)", v, uint64(math.MaxUint32))
	}
	return uint32(v), nil
}

func run(poll time.Duration, broker string, pinButton, pinPulse, pinLED int, serialDev, httpAddr string, seed uint32, dryRun bool) error {
	cfg := logic.DefaultConfig()

	// Initialize GPIO
	var io gpio.IO
	if dryRun {
		io = gpio.NewFakeIO([]bool{false})
		log.Info().Msg("dry run: using fake gpio")
	} else {
		real, err := gpio.NewRealIO(pinButton, pinPulse, pinLED)
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		io = real
	}
	defer io.Close()

	// Initialize MQTT
	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if dryRun || broker == "" {
		fake := mqtt.NewFakePublisher()
		publisher, mqttStatus = fake, fake
	} else {
		real, err := mqtt.NewRealPublisher(broker, "pulsemaker")
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		publisher, mqttStatus = real, real
	}
	defer publisher.Close()

	// Build the output stream: stdout always, serial when configured
	sinks := report.MultiSink{report.NewWriter(os.Stdout)}
	if serialDev != "" {
		ss, err := report.OpenSerial(serialDev, report.DefaultBaudRate)
		if err != nil {
			if ports, perr := report.Ports(); perr == nil {
				log.Info().Strs("available", ports).Msg("serial ports on this host")
			}
			return fmt.Errorf("init serial: %w", err)
		}
		sinks = append(sinks, ss)
	}
	defer sinks.Close()

	// Seed the generator and print the reproducibility fingerprint before
	// the engine takes over the sequence.
	src := rng.New(seed)
	if err := report.WriteStartup(sinks, src); err != nil {
		return fmt.Errorf("write startup diagnostics: %w", err)
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:         poll.Milliseconds(),
		DebounceMs:     cfg.Debounce.Milliseconds(),
		ReportWindowMs: cfg.ReportWindow.Milliseconds(),
		Broker:         broker,
		HTTPPort:       httpAddr,
		SerialDevice:   serialDev,
		PinButton:      pinButton,
		PinPulse:       pinPulse,
		PinLED:         pinLED,
	})

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Warn().Err(err).Msg("failed to publish startup event")
	}

	// Start HTTP status server
	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("http server error")
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info().Str("addr", httpAddr).Msg("http status server listening")
	}

	log.Info().
		Dur("poll", poll).
		Dur("trial", cfg.TrialPeriod).
		Dur("window", cfg.ReportWindow).
		Str("broker", broker).
		Uint32("seed", seed).
		Msg("started")

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warn().Err(err).Msg("systemd notify failed")
	}
	defer daemon.SdNotify(false, daemon.SdNotifyStopping)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(io, src, cfg, sinks, publisher, mqttStatus, tracker, time.Now, ticker.C, sigCh)
}

func runLoop(io gpio.IO, src logic.Source, cfg logic.Config, sink report.Sink, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	engine, err := logic.NewEngine(src, cfg, startTime)
	if err != nil {
		return fmt.Errorf("init engine: %w", err)
	}

	for {
		select {
		case s := <-sig:
			log.Info().Str("signal", s.String()).Msg("shutting down")
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Warn().Err(err).Msg("failed to publish shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			pressed, err := io.Pressed()
			if err != nil {
				log.Error().Err(err).Msg("gpio read error")
				continue
			}

			out := engine.Step(logic.Input{RawPressed: pressed, Time: t})

			if out.Toggled {
				log.Info().Str("setting", string(out.Setting)).Msg("rate setting toggled")
				evt := mqtt.SystemEvent{
					Timestamp: t,
					Event:     "RATE_CHANGE",
					Reason:    string(out.Setting),
				}
				if err := publisher.PublishSystem(evt); err != nil {
					log.Warn().Err(err).Msg("rate change publish error")
				}
			}

			// End the previous hold before a new assert. When both land on
			// the same tick the line stays asserted and the stale deassert
			// is dropped, so the new pulse is not wiped.
			if out.PulseEnd && !out.Pulse {
				if err := io.SetPulse(false); err != nil {
					log.Error().Err(err).Msg("pulse write error")
				}
			}
			if out.Pulse {
				if err := io.SetPulse(true); err != nil {
					log.Error().Err(err).Msg("pulse write error")
				}
				if err := io.SetIndicator(true); err != nil {
					log.Error().Err(err).Msg("indicator write error")
				}
			}
			if out.IndicatorOff {
				if err := io.SetIndicator(false); err != nil {
					log.Error().Err(err).Msg("indicator write error")
				}
			}

			if out.Report != nil {
				log.Info().
					Int64("millis", out.Report.Millis()).
					Uint32("cpm", out.Report.Count).
					Str("setting", string(out.Report.Setting)).
					Msg("window report")
				if err := sink.WriteRecord(*out.Report); err != nil {
					log.Error().Err(err).Msg("report write error")
				}
				if err := publisher.Publish(mqtt.ReportEvent{Timestamp: t, Record: *out.Report}); err != nil {
					log.Warn().Err(err).Msg("report publish error")
					// Don't crash on publish failure
				}
				if tracker != nil {
					tracker.RecordReport(*out.Report)
				}
			}

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(engine.Setting(), engine.TargetCPM(), engine.Threshold(), engine.Baselined(), engine.WindowCount(), engine.Totals())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}
		}
	}
}

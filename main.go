package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"checkup-kiosk/internal/advisory"
	"checkup-kiosk/internal/api"
	"checkup-kiosk/internal/camera"
	"checkup-kiosk/internal/config"
	"checkup-kiosk/internal/contacts"
	"checkup-kiosk/internal/kiosk"
	"checkup-kiosk/internal/publish"
	"checkup-kiosk/internal/relay"
	"checkup-kiosk/internal/stage"

	"github.com/dominikbraun/graph/draw"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setupSignalHandling(cancel)

	app := createCliApp(ctx)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupSignalHandling(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()
}

func createCliApp(ctx context.Context) *cli.App {
	serveCmd := createServeCommand(ctx)
	return &cli.App{
		Name:  "checkup-kiosk",
		Usage: "Self-service health checkup kiosk backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load settings from this file instead of .env",
			},
		},
		Commands: []*cli.Command{
			serveCmd,
			createSimulateCommand(ctx),
			createStagesCommand(),
		},
		Action: serveCmd.Action,
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	if f := c.String("env-file"); f != "" {
		return config.Load(f)
	}
	return config.Load()
}

func newLogger(name string) *log.Logger {
	return log.New(os.Stdout, "["+name+"] ", log.LstdFlags)
}

func newCameraDevice(cfg config.Config) camera.Device {
	return &camera.SimulatedDevice{
		Delay: cfg.CameraDelay,
		Deny:  cfg.CameraMode == config.CameraUnavailable,
	}
}

func newAdvisor(cfg config.Config) *advisory.Client {
	logger := newLogger("advisory")
	return advisory.NewClient(cfg.AdvisoryEndpoint,
		advisory.WithLogger(logger),
		advisory.WithSpeaker(advisory.DetectSpeaker(cfg.TTSCommand, logger)),
	)
}

func createServeCommand(ctx context.Context) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the kiosk HTTP service (default)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Usage:   "Listen port, overrides PORT",
				Aliases: []string{"p"},
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if p := c.String("port"); p != "" {
				cfg.Port = p
				if os.Getenv("ADVISORY_ENDPOINT") == "" {
					cfg.AdvisoryEndpoint = "http://127.0.0.1:" + p + "/api/chat"
				}
			}
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	if err := stage.Validate(); err != nil {
		return err
	}

	opts := kiosk.Options{
		Camera:  camera.NewAdapter(newCameraDevice(cfg), newLogger("camera")),
		Advisor: newAdvisor(cfg),
		Logger:  newLogger("session"),
	}
	if cfg.RabbitMQAddr != "" {
		pub := publish.NewPublisher(cfg.RabbitMQQueue, cfg.RabbitMQAddr, newLogger("publisher"))
		defer pub.Close()
		opts.Recorder = pub
	}
	session := kiosk.NewSession(opts)
	defer session.Close()

	handler := api.NewHandler(api.Deps{
		Session:  session,
		Contacts: contacts.NewRegistry(contacts.Seed()...),
		Chat: relay.NewHandler(relay.Config{
			APIKey:      cfg.DeepSeekAPIKey,
			UpstreamURL: cfg.DeepSeekAPIURL,
			Model:       cfg.DeepSeekModel,
		}, nil, newLogger("relay")),
		Logger:         newLogger("http"),
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: handler}
	errs := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func createSimulateCommand(ctx context.Context) *cli.Command {
	var (
		withAdvice bool
		denyCamera bool
		tick       time.Duration
	)

	return &cli.Command{
		Name:  "simulate",
		Usage: "Run one checkup in the terminal with the simulated camera",
		Description: `Walk through breath, face, tongue and gait scans to the summary,
printing progress as it goes.

Examples:
  checkup-kiosk simulate                  # Real-time pacing
  checkup-kiosk simulate --tick 5ms       # Fast run
  checkup-kiosk simulate --advice         # Ask the relay for advice at the end`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "advice",
				Usage:       "Request advisory text once the summary is reached",
				Destination: &withAdvice,
			},
			&cli.BoolFlag{
				Name:        "deny-camera",
				Usage:       "Simulate a denied camera permission",
				Destination: &denyCamera,
			},
			&cli.DurationFlag{
				Name:        "tick",
				Usage:       "Progress tick period",
				Value:       stage.TickPeriod,
				Destination: &tick,
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if denyCamera {
				cfg.CameraMode = config.CameraUnavailable
			}
			return simulate(ctx, cfg, tick, withAdvice)
		},
	}
}

func simulate(ctx context.Context, cfg config.Config, tick time.Duration, withAdvice bool) error {
	updates := make(chan kiosk.State, 16)
	quit := make(chan struct{})
	opts := kiosk.Options{
		TickPeriod: tick,
		Camera:     camera.NewAdapter(newCameraDevice(cfg), newLogger("camera")),
		Advisor:    newAdvisor(cfg),
		Logger:     newLogger("session"),
		OnChange: func(st kiosk.State) {
			select {
			case updates <- st:
			case <-quit:
			}
		},
	}
	session := kiosk.NewSession(opts)
	defer session.Close()
	defer close(quit)

	if err := session.Navigate(stage.Breath); err != nil {
		return err
	}

	var (
		last      kiosk.State
		requested bool
		loading   bool
	)
	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return ctx.Err()
		case st := <-updates:
			printProgress(last, st)
			last = st
		}

		if last.Stage != stage.Summary {
			continue
		}
		if !withAdvice {
			return nil
		}
		// Ask exactly once; an empty answer is still an answer.
		if !requested {
			if err := session.RequestAdvice(); err != nil {
				return err
			}
			requested = true
			continue
		}
		if last.AdviceLoading {
			loading = true
			continue
		}
		if loading {
			fmt.Printf("建议: %s\n", last.Advice)
			return nil
		}
	}
}

func printProgress(prev, st kiosk.State) {
	if st.Stage != prev.Stage {
		if prev.Stage != "" {
			fmt.Println()
		}
		fmt.Printf("== %s\n", st.Stage)
		if st.Stage == stage.Summary {
			fmt.Printf("健康分: %d  %s\n", st.HealthScore, st.Profile.Name)
			return
		}
	}
	if st.Stage.Scanning() {
		bar := int(st.Progress) / 5
		fmt.Printf("\r[%-20s] %3.0f%%  %s", strings.Repeat("#", bar), st.Progress, st.ScanStatus)
	}
}

func createStagesCommand() *cli.Command {
	var format string

	return &cli.Command{
		Name:  "stages",
		Usage: "Print the scan path",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "Output format: list (default), dot",
				Aliases:     []string{"f"},
				Value:       "list",
				Destination: &format,
			},
		},
		Action: func(c *cli.Context) error {
			switch format {
			case "list":
				path, err := stage.ScanPath()
				if err != nil {
					return err
				}
				for i, s := range path {
					fmt.Printf("%d. %s\n", i+1, s)
				}
				return nil
			case "dot":
				g, err := stage.Graph()
				if err != nil {
					return err
				}
				return draw.DOT(g, os.Stdout)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}
}

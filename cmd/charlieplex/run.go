package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-charlieplex/internal/config"
	"github.com/coreman2200/funtimes-charlieplex/internal/driver/preview"
	"github.com/coreman2200/funtimes-charlieplex/internal/events"
	"github.com/coreman2200/funtimes-charlieplex/internal/metrics"
	"github.com/coreman2200/funtimes-charlieplex/internal/ws"
	"github.com/coreman2200/funtimes-charlieplex/matrix"
)

type runOpts struct {
	backend   string
	animation string
	text      string
	scroll    string
	frames    string
	listen    string
	preview   bool
	watch     bool
}

func newRunCmd(root *rootOpts) *cobra.Command {
	opts := &runOpts{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive the matrix and serve the preview",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root.configPath)
			if err != nil {
				return err
			}
			opts.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			if root.logLevel == "" {
				zerolog.SetGlobalLevel(cfg.Level())
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, root.configPath, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.backend, "backend", "", "pin backend: periph | cdev | sim")
	f.StringVar(&opts.animation, "animation", "", "gallery animation to play")
	f.StringVar(&opts.text, "text", "", "scroll this message instead of an animation")
	f.StringVar(&opts.scroll, "scroll", "", "text scroll direction: none | left | right | up | down")
	f.StringVar(&opts.frames, "frames", "", "play raw frame data written by capture")
	f.StringVar(&opts.listen, "listen", "", "HTTP listen address")
	f.BoolVar(&opts.preview, "preview", false, "print frames at the console")
	f.BoolVar(&opts.watch, "watch", true, "reload the config file when it changes")
	return cmd
}

// apply overrides config fields with the flags that were set.
func (o *runOpts) apply(cmd *cobra.Command, c *config.Config) {
	f := cmd.Flags()
	if f.Changed("backend") {
		c.Backend = o.backend
	}
	if f.Changed("animation") {
		c.Animation = o.animation
	}
	if f.Changed("text") {
		c.Text.Message = o.text
	}
	if f.Changed("scroll") {
		c.Text.Scroll = o.scroll
	}
	if f.Changed("listen") {
		c.Listen = o.listen
	}
}

// player keeps the engine playing whatever the config asks for and reports
// changes on the bus.
type player struct {
	engine *matrix.Engine
	bus    *events.Bus
	frames string

	current atomic.Pointer[config.Config]
}

func (p *player) load(c *config.Config) error {
	prog, err := selectProgram(c, p.frames)
	if err != nil {
		return err
	}
	p.engine.Surface().SetScrollSpeed(c.ScrollSpeed())
	p.engine.LoadSequence(prog.frames)
	interval := c.Autoscroll()
	if prog.name == "text" {
		interval = c.ScrollSpeed()
	}
	p.engine.Autoscroll(interval)
	p.engine.Play(c.Loop)
	p.current.Store(c)

	log.Info().Str("animation", prog.name).Int("frames", len(prog.frames)).
		Dur("interval", interval).Bool("loop", c.Loop).Msg("animation loaded")
	events.Publish(p.bus, events.AnimationChanged{Name: prog.name, Frames: len(prog.frames), Loop: c.Loop})
	return nil
}

// reload applies a changed config file. Backend, pins and listen address
// need a restart.
func (p *player) reload(path string) func(*config.Config) {
	return func(c *config.Config) {
		prev := p.current.Load()
		if prev != nil && (c.Backend != prev.Backend || c.Listen != prev.Listen ||
			!slices.Equal(c.Pins, prev.Pins) || c.Cdev.Chip != prev.Cdev.Chip ||
			!slices.Equal(c.Cdev.Offsets, prev.Cdev.Offsets)) {
			log.Warn().Msg("backend, pin and listen changes take effect on restart")
			c.Backend, c.Pins, c.Cdev, c.Listen = prev.Backend, prev.Pins, prev.Cdev, prev.Listen
		}
		if err := p.load(c); err != nil {
			log.Error().Err(err).Msg("apply reloaded config")
			return
		}
		events.Publish(p.bus, events.ConfigReloaded{Path: path})
	}
}

func run(ctx context.Context, cfg *config.Config, cfgPath string, opts *runOpts) error {
	bank, err := openBank(cfg)
	if err != nil {
		return err
	}

	engine := matrix.New(bank,
		matrix.WithLogger(log.Logger),
		matrix.WithRefresh(physic.Frequency(cfg.RefreshHz)*physic.Hertz),
	)
	bus := events.New()

	// The callback runs on the refresh handler; publishing only queues.
	var passes atomic.Uint64
	engine.SetCallback(func() {
		events.Publish(bus, events.SequenceCompleted{Completions: passes.Add(1), At: time.Now()})
	})

	p := &player{engine: engine, bus: bus, frames: opts.frames}
	if err := p.load(cfg); err != nil {
		engine.Close()
		return err
	}
	if err := engine.Begin(); err != nil {
		engine.Close()
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			log.Error().Err(err).Msg("close engine")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		metrics.NewCollector(engine),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	hub := ws.NewHub(engine, log.Logger)
	unsub := events.SubscribeAll(bus, hub.Notify)
	defer unsub()
	go hub.Run(ctx, 20)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleFrames)
	mux.HandleFunc("/health", hub.HandleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      withCORS(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.Listen).Str("backend", cfg.Backend).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server")
		}
	}()

	if opts.preview {
		go func() {
			if err := preview.NewConsole().Run(ctx, engine, 20); err != nil {
				log.Warn().Err(err).Msg("console preview")
			}
		}()
	}

	if opts.watch {
		if _, err := os.Stat(cfgPath); err == nil {
			w := config.NewWatcher(cfgPath, log.Logger)
			w.OnReload(p.reload(cfgPath))
			if err := w.Start(); err != nil {
				log.Warn().Err(err).Msg("config watcher disabled")
			} else {
				defer w.Stop()
			}
		}
	}

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warn().Err(err).Msg("sd_notify")
	} else if ok {
		log.Debug().Msg("notified systemd")
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}

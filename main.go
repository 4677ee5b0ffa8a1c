package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cobra"

	"github.com/matt-g-everett/ledahead/api"
	"github.com/matt-g-everett/ledahead/config"
	"github.com/matt-g-everett/ledahead/prerender"
	"github.com/matt-g-everett/ledahead/preview"
	"github.com/matt-g-everett/ledahead/scene"
	"github.com/matt-g-everett/ledahead/stream"
)

type app struct {
	Config     *config.Config
	Client     mqtt.Client
	Registry   *prerender.Registry
	Controller *stream.Controller
	Streamer   *stream.Streamer
	publisher  *stream.MQTTClient
}

func newApp(cfg *config.Config) *app {
	a := new(app)
	a.Config = cfg
	return a
}

func (a *app) handleOnConnect(client mqtt.Client) {
	log.Println("Connected")
	if a.Config.Mqtt.Topics.Control == "" {
		return
	}
	if err := a.Controller.Subscribe(a.publisher, a.Config.Mqtt.Topics.Control); err != nil {
		log.Printf("Subscribing to %s: %v", a.Config.Mqtt.Topics.Control, err)
	}
}

func (a *app) setup() error {
	r, err := prerender.NewRegistry(a.Config.PrerenderOptions())
	if err != nil {
		return err
	}
	a.Registry = r

	blueprints, err := loadScenes(a.Config.Playback.Animations)
	if err != nil {
		return err
	}

	pb := a.Config.Playback
	a.Controller, err = stream.NewController(r, blueprints, pb.FrameRate, pb.Transition, pb.Cycle, pb.Loop)
	if err != nil {
		return err
	}

	options := mqtt.NewClientOptions().
		AddBroker(a.Config.Mqtt.URL).
		SetClientID(a.Config.Mqtt.ClientID).
		SetUsername(a.Config.Mqtt.Username).
		SetPassword(a.Config.Mqtt.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetOnConnectHandler(a.handleOnConnect)
	a.Client = mqtt.NewClient(options)
	a.publisher = stream.NewMQTTClient(a.Client, 0)

	if a.Config.Mqtt.Topics.Status != "" {
		a.Controller.SetStatusPublisher(a.publisher, a.Config.Mqtt.Topics.Status)
	}
	a.Streamer = stream.NewStreamer(a.publisher, a.Config.Mqtt.Topics.Stream, a.Controller, a.Config.FrameInterval())
	a.Streamer.WatchFrames(r.Events())
	return nil
}

func (a *app) run(ctx context.Context) error {
	if token := a.Client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer a.Client.Disconnect(250)
	defer a.Controller.Close()

	scheduler := prerender.NewScheduler(a.Registry)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	if a.Config.API.Listen != "" {
		server := api.NewServer(a.Config.API.Listen, a.Config.API.Static, a.Registry, a.Controller)
		go func() {
			if err := server.ListenAndServe(ctx); err != nil {
				log.Printf("API server: %v", err)
			}
		}()
	}

	go a.Controller.Run(ctx)

	if err := a.Streamer.Run(ctx); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func loadScenes(paths []string) ([]*scene.Blueprint, error) {
	blueprints := make([]*scene.Blueprint, 0, len(paths))
	for _, p := range paths {
		bp, err := scene.ParseFile(p)
		if err != nil {
			return nil, err
		}
		blueprints = append(blueprints, bp)
	}
	return blueprints, nil
}

var (
	configPath string
	capacity   int
	frameRate  float64
	frameCount int
	loop       bool
)

func main() {
	// mqtt.DEBUG = log.New(os.Stdout, "", 0)
	mqtt.ERROR = log.New(os.Stdout, "", 0)
	mqtt.CRITICAL = log.New(os.Stdout, "", 0)

	rootCmd := &cobra.Command{
		Use:          "ledahead",
		Short:        "prerendering LED animation streamer",
		SilenceUsage: true,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "stream animations to an LED device over MQTT",
		Args:  cobra.NoArgs,
		RunE:  runStream,
	}
	runCmd.Flags().StringVar(&configPath, "config", "config.yaml", "YAML config file")

	previewCmd := &cobra.Command{
		Use:   "preview [scene.yaml]",
		Short: "play a scene in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  runPreview,
	}
	previewCmd.Flags().IntVar(&capacity, "capacity", prerender.DefaultCapacity, "frames to render ahead")
	previewCmd.Flags().Float64Var(&frameRate, "fps", 30, "frames per second")
	previewCmd.Flags().IntVar(&frameCount, "frames", 0, "stop after this many frames (0 plays the whole scene)")
	previewCmd.Flags().BoolVar(&loop, "loop", false, "loop the scene")

	validateCmd := &cobra.Command{
		Use:   "validate [scene.yaml...]",
		Short: "check scene files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runValidate,
	}

	rootCmd.AddCommand(runCmd, previewCmd, validateCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runStream(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log.Printf("Config: %+v", cfg.Playback)

	a := newApp(cfg)
	if err := a.setup(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.run(ctx)
}

func runPreview(cmd *cobra.Command, args []string) error {
	if frameRate <= 0 {
		return fmt.Errorf("--fps must be positive, got %v", frameRate)
	}
	bp, err := scene.ParseFile(args[0])
	if err != nil {
		return err
	}

	opts := prerender.DefaultOptions()
	opts.Capacity = capacity
	r, err := prerender.NewRegistry(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := prerender.NewScheduler(r)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	p, err := stream.NewPlayer(r, bp, loop)
	if err != nil {
		return err
	}
	defer p.Close()

	if preview.IsTerminal(os.Stdout) {
		interval := time.Duration(float64(time.Second) / frameRate)
		m := preview.NewModel(p, r.Events(), interval, frameCount)
		_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
		return err
	}

	count := frameCount
	if count <= 0 {
		start, end := bp.Window()
		count = int(end - start + 1)
	}
	frames, err := preview.Collect(ctx, p, r.Events(), count)
	if err != nil {
		return err
	}
	return preview.Report(cmd.OutOrStdout(), bp.Name(), frames)
}

func runValidate(cmd *cobra.Command, args []string) error {
	var failed int
	for _, path := range args {
		bp, err := scene.ParseFile(path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
			failed++
			continue
		}
		start, end := bp.Window()
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, %d pixels, frames %d-%d\n", path, bp.Name(), bp.Pixels(), start, end)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenes invalid", failed, len(args))
	}
	return nil
}

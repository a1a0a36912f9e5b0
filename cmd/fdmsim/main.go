package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/fdmsim/internal/analysis"
	"github.com/san-kum/fdmsim/internal/config"
	"github.com/san-kum/fdmsim/internal/fdm"
	"github.com/san-kum/fdmsim/internal/log"
	"github.com/san-kum/fdmsim/internal/session"
	"github.com/san-kum/fdmsim/internal/storage"
	"github.com/san-kum/fdmsim/internal/viz"
)

var (
	dataDir string

	configFile string
	preset     string
	aircraft   string
	integrator string
	dt         float64
	duration   float64
	latitude   float64
	longitude  float64
	heading    float64
	airspeed   float64
	altitude   float64
	elevation  float64
	offset     float64
	throttle   float64
	engineOn   bool
	recordFile string
	replayFile string
	logLevel   string
	logDir     string

	plotColumns    []string
	exportFile     string
	analyzeColumns []string
	batchPresets   []string
	workers        int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "fdmsim",
		Short:        "flight dynamics session runner",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fdmsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "trim and fly a session, then store it",
		Args:  cobra.NoArgs,
		RunE:  runSession,
	}
	sessionFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "fly a session interactively in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	sessionFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&plotColumns, "columns",
		[]string{"altitude_agl", "ias", "pitch", "roll", "climb_rate"}, "track columns to plot")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(args[0], exportFile)
		},
	}
	exportJSONCmd.Flags().StringVarP(&exportFile, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available start presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tAGL\tAIRSPEED\tHEADING\tDURATION")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%.0fm\t%.0fm/s\t%.0f°\t%.0fs\n",
					name, p.Initial.AltitudeAGL, p.Initial.Airspeed, p.Initial.Heading, p.Duration)
			}
			return w.Flush()
		},
	}

	aircraftCmd := &cobra.Command{
		Use:   "aircraft",
		Short: "list aircraft models and integrators",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := session.NewRegistry()
			fmt.Println("aircraft:")
			for _, name := range reg.ListAircraft() {
				fmt.Printf("  %s\n", name)
			}
			fmt.Println("integrators:")
			for _, name := range reg.ListIntegrators() {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}

	signalsCmd := &cobra.Command{
		Use:   "signals",
		Short: "list the input signals models can bind to",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PATH\tKIND")
			for _, s := range fdm.Signals() {
				fmt.Fprintf(w, "%s\t%s\n", s.Path, s.Kind)
			}
			return w.Flush()
		},
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "find the dominant oscillation of track columns",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringSliceVar(&analyzeColumns, "columns",
		[]string{"pitch", "altitude_agl", "ias", "roll"}, "track columns to analyze")

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "fly several presets concurrently and store each run",
		RunE:  runBatch,
	}
	batchCmd.Flags().StringSliceVar(&batchPresets, "presets", nil, "presets to fly (default all)")
	batchCmd.Flags().IntVar(&workers, "workers", 0, "concurrent sessions (0 = one per preset)")
	batchCmd.Flags().Float64Var(&duration, "time", 0, "override each preset duration")
	batchCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")

	configCmd := &cobra.Command{
		Use:   "config [file]",
		Short: "write the effective configuration as yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return config.Save(args[0], cfg)
		},
	}
	sessionFlags(configCmd)

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, exportJSONCmd,
		presetsCmd, aircraftCmd, signalsCmd, analyzeCmd, batchCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func sessionFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.StringVar(&aircraft, "aircraft", def.Aircraft, "aircraft model")
	f.StringVar(&integrator, "integrator", def.Integrator, "integrator")
	f.Float64Var(&dt, "dt", def.Dt, "timestep")
	f.Float64Var(&duration, "time", def.Duration, "duration")
	f.Float64Var(&latitude, "lat", def.Initial.Latitude, "start latitude (deg)")
	f.Float64Var(&longitude, "lon", def.Initial.Longitude, "start longitude (deg)")
	f.Float64Var(&heading, "heading", def.Initial.Heading, "start heading (deg)")
	f.Float64Var(&airspeed, "airspeed", def.Initial.Airspeed, "start airspeed (m/s)")
	f.Float64Var(&altitude, "altitude", def.Initial.AltitudeAGL, "start altitude above ground (m)")
	f.Float64Var(&elevation, "elevation", def.GroundElevation, "ground elevation (m)")
	f.Float64Var(&offset, "offset", def.Initial.Offset, "spawn offset along heading (m)")
	f.Float64Var(&throttle, "throttle", def.Throttle, "throttle [0, 1]")
	f.BoolVar(&engineOn, "engine-on", def.Initial.EngineOn, "start with engines running")
	f.StringVar(&recordFile, "record", "", "record the session to file")
	f.StringVar(&replayFile, "replay", "", "replay a recorded session from file")
	f.StringVar(&logLevel, "log-level", def.Log.Level, "log level")
	f.StringVar(&logDir, "log-dir", def.Log.Dir, "log directory")
}

// loadConfig resolves the session configuration. A preset is the base, a
// config file replaces it and flags set on the command line win.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("aircraft") {
		cfg.Aircraft = aircraft
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("lat") {
		cfg.Initial.Latitude = latitude
	}
	if flags.Changed("lon") {
		cfg.Initial.Longitude = longitude
	}
	if flags.Changed("heading") {
		cfg.Initial.Heading = heading
	}
	if flags.Changed("airspeed") {
		cfg.Initial.Airspeed = airspeed
	}
	if flags.Changed("altitude") {
		cfg.Initial.AltitudeAGL = altitude
	}
	if flags.Changed("elevation") {
		cfg.GroundElevation = elevation
	}
	if flags.Changed("offset") {
		cfg.Initial.Offset = offset
	}
	if flags.Changed("throttle") {
		cfg.Throttle = throttle
	}
	if flags.Changed("engine-on") {
		cfg.Initial.EngineOn = engineOn
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-dir") {
		cfg.Log.Dir = logDir
	}

	switch {
	case recordFile != "" && replayFile != "":
		return nil, fmt.Errorf("--record and --replay are exclusive")
	case recordFile != "":
		cfg.Recording.Mode, cfg.Recording.File = "record", recordFile
	case replayFile != "":
		cfg.Recording.Mode, cfg.Recording.File = "replay", replayFile
	}

	return cfg, cfg.Validate()
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := log.New(cfg.Log.Level, cfg.Log.Dir)
	sess, err := session.Build(cfg, session.NewRegistry(), logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("session start", "aircraft", cfg.Aircraft, "integrator", cfg.Integrator,
		"dt", cfg.Dt, "duration", cfg.Duration)
	result, err := sess.Run(ctx)
	if err != nil {
		logger.Error("session failed", "error", err)
		if result == nil || len(result.Outputs) == 0 {
			return err
		}
		fmt.Fprintf(os.Stderr, "session ended early: %v\n", err)
	}

	name := preset
	if name == "" {
		name = cfg.Aircraft
	}
	meta := storage.RunMetadata{
		Name:       name,
		Aircraft:   cfg.Aircraft,
		Integrator: cfg.Integrator,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
	}
	if cfg.Recording.Mode == "record" || cfg.Recording.Mode == "replay" {
		meta.Recording = cfg.Recording.File
	}
	runID, err := st.Save(meta, result)
	if err != nil {
		return err
	}

	f := result.Final.Flight
	fmt.Printf("run: %s\n", runID)
	fmt.Printf("init calls: %d (ground=%v converged=%v trim_failed=%v)\n",
		result.InitCalls, result.GroundStart, result.Converged, result.TrimFailed)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("final: agl=%.1fm ias=%.1fm/s on_ground=%v crash=%v\n",
		f.AltitudeAGL, f.IAS, f.OnGround, result.Final.Crash)
	if logger.LogFile != "" {
		fmt.Printf("log: %s\n", logger.LogFile)
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	names := batchPresets
	if len(names) == 0 {
		names = config.ListPresets()
	}

	cfgs := make([]*config.Config, len(names))
	for i, name := range names {
		cfg := config.GetPreset(name)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
		if cmd.Flags().Changed("time") {
			cfg.Duration = duration
		}
		cfgs[i] = cfg
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := log.New(logLevel, "")
	e := session.NewEnsemble(session.NewRegistry(), logger)
	e.Workers = workers
	results, err := e.Run(ctx, cfgs)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tRUN\tINIT\tSTEPS\tFINAL AGL\tCRASH")
	for i, res := range results {
		cfg := cfgs[i]
		runID, err := st.Save(storage.RunMetadata{
			Name:       names[i],
			Aircraft:   cfg.Aircraft,
			Integrator: cfg.Integrator,
			Dt:         cfg.Dt,
			Duration:   cfg.Duration,
		}, res)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.1fm\t%v\n",
			names[i], runID, res.InitCalls, res.StepsTaken,
			res.Final.Flight.AltitudeAGL, res.Final.Crash)
	}
	return w.Flush()
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	track, err := st.LoadTrack(runID)
	if err != nil {
		return err
	}
	if len(track.Times) < 2 {
		return fmt.Errorf("not enough samples to analyze")
	}
	dt := track.Times[1] - track.Times[0]

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COLUMN\tFREQUENCY\tPERIOD\tAMPLITUDE")
	for _, name := range analyzeColumns {
		series := track.Column(name)
		if series == nil {
			return fmt.Errorf("unknown column %q (available: %v)", name, track.Columns)
		}
		m := analysis.DominantMode(series, dt)
		fmt.Fprintf(w, "%s\t%.4fHz\t%.1fs\t%.3f\n", name, m.Frequency, m.Period(), m.Amplitude)
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := log.New(cfg.Log.Level, cfg.Log.Dir)
	sess, err := session.Build(cfg, session.NewRegistry(), logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	p := tea.NewProgram(viz.NewModel(sess, cfg.Aircraft), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(viz.Model); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tAIRCRAFT\tTIME\tDURATION\tDT\tINTEG\tSTART\tMAX AGL")

	for _, run := range runs {
		start := "air"
		if run.GroundStart {
			start = "ground"
			if run.TrimFailed {
				start = "ground (trim failed)"
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%s\t%.1fm\n",
			run.ID,
			run.Aircraft,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			start,
			run.Metrics["max_altitude_agl"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	track, err := st.LoadTrack(runID)
	if err != nil {
		return err
	}

	if len(track.Rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("aircraft: %s\n", meta.Aircraft)
	fmt.Printf("samples: %d\n\n", len(track.Rows))

	for _, name := range plotColumns {
		series := track.Column(name)
		if series == nil {
			return fmt.Errorf("unknown column %q (available: %v)", name, track.Columns)
		}
		graph := asciigraph.Plot(series,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

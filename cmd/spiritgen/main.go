package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/spiritgen/internal/bundle"
	"github.com/san-kum/spiritgen/internal/config"
	"github.com/san-kum/spiritgen/internal/job"
	"github.com/san-kum/spiritgen/internal/logging"
	"github.com/san-kum/spiritgen/internal/outparse"
	"github.com/san-kum/spiritgen/internal/results"
	"github.com/san-kum/spiritgen/internal/schema"
	"github.com/san-kum/spiritgen/internal/storage"
	"github.com/san-kum/spiritgen/internal/tui"
)

var (
	configFile string
	dataDir    string
	logLevel   string

	// parse
	jobFile   string
	runName   string
	expectMC  bool
	expectPin bool
	expectDef bool
	noSave    bool

	// keys
	showForbidden bool

	// export
	outFile string

	cfg *config.Config
	log *logrus.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "spiritgen",
		Short:             "input generation and output parsing for the Spirit spin simulator",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "run store directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level")

	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "list parameter keys",
		RunE:  listKeys,
	}
	keysCmd.Flags().BoolVar(&showForbidden, "forbidden", false, "list the keys spiritgen sets itself")

	validateCmd := &cobra.Command{
		Use:   "validate [job]",
		Short: "check a job file without writing anything",
		Args:  cobra.ExactArgs(1),
		RunE:  validateJob,
	}

	prepareCmd := &cobra.Command{
		Use:   "prepare [job] [dir]",
		Short: "write the spirit input files for a job",
		Args:  cobra.ExactArgs(2),
		RunE:  prepareJob,
	}

	scriptCmd := &cobra.Command{
		Use:   "script [job]",
		Short: "print the run script for a job",
		Args:  cobra.ExactArgs(1),
		RunE:  printScript,
	}

	parseCmd := &cobra.Command{
		Use:   "parse [dir]",
		Short: "parse a finished run and store it",
		Args:  cobra.ExactArgs(1),
		RunE:  parseRun,
	}
	parseCmd.Flags().StringVar(&jobFile, "job", "", "job file the run was prepared from")
	parseCmd.Flags().StringVar(&runName, "name", "", "name for the stored run (default: directory name)")
	parseCmd.Flags().BoolVar(&expectMC, "mc", false, "expect monte carlo output")
	parseCmd.Flags().BoolVar(&expectPin, "pinning", false, "run used pinning")
	parseCmd.Flags().BoolVar(&expectDef, "defects", false, "run used defects")
	parseCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the parsed run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot energy convergence or the monte carlo sweep",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [method/name]",
		Short: "list presets or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	editCmd := &cobra.Command{
		Use:   "edit [job]",
		Short: "edit the parameters of a job interactively",
		Args:  cobra.ExactArgs(1),
		RunE:  editJob,
	}

	rootCmd.AddCommand(keysCmd, validateCmd, prepareCmd, scriptCmd, parseCmd,
		listCmd, showCmd, plotCmd, exportCmd, presetsCmd, editCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	cfg = config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	var err error
	log, err = logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Out: os.Stderr})
	return err
}

func listKeys(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if showForbidden {
		fmt.Fprintln(w, "KEY")
		for _, k := range schema.ForbiddenKeys() {
			fmt.Fprintln(w, k)
		}
		return w.Flush()
	}

	fmt.Fprintln(w, "KEY\tTYPE")
	for _, k := range schema.Keys() {
		r, _ := schema.Lookup(k)
		fmt.Fprintf(w, "%s\t%s\n", k, r.Describe())
	}
	return w.Flush()
}

func loadRequest(path string) (*job.Job, bundle.Request, error) {
	j, err := job.Load(path)
	if err != nil {
		return nil, bundle.Request{}, err
	}
	req, err := j.ToRequest(cfg.CutoffRadius)
	if err != nil {
		return nil, bundle.Request{}, err
	}
	return j, req, nil
}

func generate(path string) (*bundle.Bundle, error) {
	_, req, err := loadRequest(path)
	if err != nil {
		return nil, err
	}
	return build(req)
}

func build(req bundle.Request) (*bundle.Bundle, error) {
	tmpl, err := cfg.TemplateLines()
	if err != nil {
		return nil, err
	}
	return bundle.Generate(req, bundle.Options{Template: tmpl, Log: log})
}

func validateJob(cmd *cobra.Command, args []string) error {
	_, req, err := loadRequest(args[0])
	if err != nil {
		return err
	}

	if _, err := schema.ValidateAll(req.Parameters); err != nil {
		errs := flatten(err)
		for _, e := range errs {
			fmt.Println("  " + e.Error())
		}
		return fmt.Errorf("%s: %d invalid parameters", args[0], len(errs))
	}

	b, err := build(req)
	if err != nil {
		return err
	}
	for _, k := range b.Unused {
		fmt.Printf("  warning: %s has no line in the template\n", k)
	}
	fmt.Printf("%s: ok (%s parameters, %s couplings, %d files)\n", args[0],
		humanize.Comma(int64(len(req.Parameters))),
		humanize.Comma(int64(len(req.Couplings))),
		len(b.Files))
	return nil
}

func flatten(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

func prepareJob(cmd *cobra.Command, args []string) error {
	b, err := generate(args[0])
	if err != nil {
		return err
	}
	if err := b.WriteDir(args[1]); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tSIZE")
	for _, name := range b.Names() {
		fmt.Fprintf(w, "%s\t%s\n", name, humanize.Bytes(uint64(len(b.Files[name]))))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	log.WithField("dir", args[1]).Info("bundle written")
	return nil
}

func printScript(cmd *cobra.Command, args []string) error {
	b, err := generate(args[0])
	if err != nil {
		return err
	}
	fmt.Print(b.Files[bundle.ScriptFile])
	return nil
}

func parseRun(cmd *cobra.Command, args []string) error {
	dir := args[0]
	expect := results.Expect{MC: expectMC, Pinning: expectPin, Defects: expectDef}
	if jobFile != "" {
		j, err := job.Load(jobFile)
		if err != nil {
			return err
		}
		expect = j.Expect()
	}

	res, err := results.Retrieve(dir, expect, log)
	var incompatible *outparse.IncompatibleError
	switch {
	case errors.As(err, &incompatible):
		log.WithField("feature", incompatible.Feature).Warn("results kept for inspection only")
	case err != nil:
		return err
	}

	printRecord(res.Record)

	if !noSave {
		name := runName
		if name == "" {
			abs, _ := filepath.Abs(dir)
			name = filepath.Base(abs)
		}
		st := storage.New(cfg.DataDir)
		if serr := st.Init(); serr != nil {
			return serr
		}
		runID, serr := st.Save(name, dir, res)
		if serr != nil {
			return serr
		}
		fmt.Printf("\nstored as %s\n", runID)
	}
	return err
}

func printRecord(rec *outparse.Record) {
	fields := rec.Fields()
	info, _ := fields["spirit_version_info"].(map[string]string)
	delete(fields, "spirit_version_info")

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%v\n", k, fields[k])
	}
	for _, k := range outparse.VersionKeys {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "%s\t%s\n", k, v)
		}
	}
	w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(cfg.DataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTORED\tSOLVER\tRUNTIME\tERRORS\tSPINS")

	for _, run := range runs {
		solver, runtime, errs := "-", "-", "-"
		if rec := run.Record; rec != nil {
			if rec.Solver != nil {
				solver = *rec.Solver
			}
			if rec.RuntimeSec != nil {
				runtime = fmt.Sprintf("%.1fs", *rec.RuntimeSec)
			}
			if rec.NumErrors != nil {
				errs = humanize.Comma(int64(*rec.NumErrors))
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			run.ID,
			run.Name,
			humanize.Time(run.Timestamp),
			solver,
			runtime,
			errs,
			humanize.Comma(int64(run.Spins)),
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(cfg.DataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(meta)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(cfg.DataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("stored: %s\n\n", humanize.Time(meta.Timestamp))

	mc, err := st.LoadMC(runID)
	if err != nil {
		return err
	}
	if len(mc) > 0 {
		return plotMC(mc)
	}

	energies, err := st.LoadEnergies(runID)
	if err != nil {
		return err
	}
	data := results.Column(energies, 1)
	if len(data) == 0 {
		return fmt.Errorf("no data to plot")
	}

	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("total energy vs iteration"),
	)
	fmt.Println(graph)
	return nil
}

func plotMC(samples []results.MCSample) error {
	series := []struct {
		caption string
		value   func(results.MCSample) float64
	}{
		{"energy per spin vs temperature", func(s results.MCSample) float64 { return s.E }},
		{"magnetization vs temperature", func(s results.MCSample) float64 { return s.M }},
		{"susceptibility vs temperature", func(s results.MCSample) float64 { return s.Chi }},
		{"specific heat vs temperature", func(s results.MCSample) float64 { return s.Cv }},
		{"binder cumulant vs temperature", func(s results.MCSample) float64 { return s.U4 }},
	}
	fmt.Printf("temperatures: %.3g .. %.3g (%d points)\n\n", samples[0].T, samples[len(samples)-1].T, len(samples))

	for _, s := range series {
		data := make([]float64, len(samples))
		for i, sample := range samples {
			data[i] = s.value(sample)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(cfg.DataDir)
	data, err := st.Export(args[0])
	if err != nil {
		return err
	}

	if outFile == "" {
		return storage.ExportJSON(os.Stdout, data)
	}
	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := storage.ExportJSON(f, data); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", args[0], outFile)
	return nil
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		method, name, _ := strings.Cut(args[0], "/")
		p := config.GetPreset(method, name)
		if p == nil {
			return fmt.Errorf("unknown preset: %s", args[0])
		}
		out, err := yaml.Marshal(p)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tDESCRIPTION")
	for _, method := range config.Methods() {
		for _, name := range config.ListPresets(method) {
			p := config.GetPreset(method, name)
			fmt.Fprintf(w, "%s/%s\t%s\n", method, name, p.Description)
		}
	}
	return w.Flush()
}

func editJob(cmd *cobra.Command, args []string) error {
	path := args[0]
	if err := job.CheckSavable(path); err != nil {
		return err
	}
	j, err := job.Load(path)
	if err != nil {
		return err
	}

	params, err := tui.RunEditor(j.Parameters)
	if errors.Is(err, tui.ErrCancelled) {
		fmt.Println("no changes written")
		return nil
	}
	if err != nil {
		return err
	}

	j.Parameters = params
	if err := job.Save(path, j); err != nil {
		return err
	}
	if _, verr := schema.ValidateAll(params); verr != nil {
		for _, e := range flatten(verr) {
			log.WithError(e).Warn("saved parameter is still invalid")
		}
	}
	fmt.Printf("%s: %d parameters saved\n", path, len(params))
	return nil
}

// Package main provides the ckd command line tool.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"github.com/born-ml/ckd/ckd"
	"github.com/born-ml/ckd/internal/dataset"
	"github.com/born-ml/ckd/internal/logging"
)

const version = "v0.3.0"

const usage = `ckd - chronic kidney disease classifier

Commands:
  train      Prepare data, train, save and evaluate a model
  evaluate   Score saved models on the test partition
  predict    Score the rows of a CSV with a saved model
  version    Show version

Run 'ckd <command> -h' for the flags of a command.
`

// errUsage signals a usage error already reported to the user.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "train":
		err = runTrain(ctx, args[1:], stdout, stderr)
	case "evaluate":
		err = runEvaluate(ctx, args[1:], stdout, stderr)
	case "predict":
		err = runPredict(args[1:], stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "ckd %s\n", version)
		return 0
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return 2
	default:
		return 1
	}
}

// options holds the flags shared by train and evaluate.
type options struct {
	config    string
	data      string
	model     string
	epochs    int
	initSeed  uint64
	splitSeed uint64
	scalerFit string
	history   string
	plot      string
	logLevel  string
	logFormat string
	compress  bool
	workers   int
}

func newFlagSet(name string, stderr io.Writer, opts *options) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.config, "config", "", "YAML configuration file")
	fs.StringVar(&opts.data, "data", "", "input CSV file")
	fs.StringVar(&opts.model, "model", "", "model file to write")
	fs.IntVar(&opts.epochs, "epochs", 0, "number of training epochs")
	fs.Uint64Var(&opts.initSeed, "init-seed", 0, "seed of the weight initializer")
	fs.Uint64Var(&opts.splitSeed, "split-seed", 0, "seed of the train/test shuffle")
	fs.StringVar(&opts.scalerFit, "scaler-fit", "", "rows the scaler is fitted on: all or train")
	fs.StringVar(&opts.history, "history", "", "SQLite training-history database")
	fs.StringVar(&opts.plot, "plot", "", "write the training-curve plot document to this file")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&opts.logFormat, "log-format", "", "log format: text or json")
	fs.BoolVar(&opts.compress, "compress", false, "xz-compress the model data section")
	fs.IntVar(&opts.workers, "workers", 0, "activation goroutines: 0 = one per core, 1 = sequential")
	return fs
}

// resolve loads the configuration file and applies every flag that was
// set on the command line.
func resolve(fs *flag.FlagSet, opts *options) (ckd.Config, error) {
	cfg := ckd.DefaultConfig()
	if opts.config != "" {
		loaded, err := ckd.LoadConfig(opts.config)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			cfg.Data.Path = opts.data
		case "model":
			cfg.Output.ModelPath = opts.model
		case "epochs":
			cfg.Train.Epochs = opts.epochs
		case "init-seed":
			cfg.Model.InitSeed = opts.initSeed
		case "split-seed":
			cfg.Split.Seed = opts.splitSeed
		case "scaler-fit":
			cfg.Split.ScalerFit = opts.scalerFit
		case "history":
			cfg.Output.HistoryPath = opts.history
		case "plot":
			cfg.Output.PlotPath = opts.plot
		case "log-level":
			cfg.Logging.Level = opts.logLevel
		case "log-format":
			cfg.Logging.Format = opts.logFormat
		case "compress":
			cfg.Output.Compress = opts.compress
		case "workers":
			cfg.Train.Workers = opts.workers
		}
	})
	return cfg, nil
}

func setup(name string, args []string, stderr io.Writer) (*flag.FlagSet, ckd.Config, *slog.Logger, error) {
	var opts options
	fs := newFlagSet(name, stderr, &opts)
	if err := fs.Parse(args); err != nil {
		return nil, ckd.Config{}, nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	cfg, err := resolve(fs, &opts)
	if err != nil {
		fallbackLogger(stderr).Error("failed to load config", "error", err)
		return nil, cfg, nil, err
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, stderr)
	if err != nil {
		fallbackLogger(stderr).Error("invalid logging config", "error", err)
		return nil, cfg, nil, err
	}
	return fs, cfg, logger, nil
}

// fallbackLogger is used before the configured logger exists.
func fallbackLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, nil))
}

func runTrain(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, cfg, logger, err := setup("train", args, stderr)
	if err != nil {
		return err
	}
	if fs.NArg() > 0 {
		logger.Error("train takes no arguments", "args", fs.Args())
		return errUsage
	}

	report, err := ckd.Train(ctx, cfg, stdout, logger)
	if err != nil {
		logger.Error("training failed", "error", err)
		return err
	}
	logger.Info("done",
		"run_id", report.Trained.RunID,
		"model", cfg.Output.ModelPath,
		"evaluated", len(report.Evaluations))
	return nil
}

func runEvaluate(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, cfg, logger, err := setup("evaluate", args, stderr)
	if err != nil {
		return err
	}
	paths := fs.Args()
	if len(paths) == 0 {
		paths = cfg.ModelsToEvaluate()
	}

	if _, err := ckd.Evaluate(ctx, cfg, paths, stdout, logger); err != nil {
		logger.Error("evaluation failed", "error", err)
		return err
	}
	return nil
}

func runPredict(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	fs.SetOutput(stderr)
	model := fs.String("model", ckd.DefaultConfig().Output.ModelPath, "model file to load")
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	logger, err := logging.New(*logLevel, "text", stderr)
	if err != nil {
		fallbackLogger(stderr).Error("invalid log level", "error", err)
		return err
	}
	if fs.NArg() != 1 {
		logger.Error("predict takes exactly one CSV file", "args", fs.Args())
		return errUsage
	}

	if err := predict(*model, fs.Arg(0), stdout); err != nil {
		logger.Error("prediction failed", "error", err)
		return err
	}
	return nil
}

// predict scores every row of a CSV and prints one line per row.
func predict(modelPath, csvPath string, w io.Writer) error {
	p, err := ckd.LoadPredictor(modelPath)
	if err != nil {
		return err
	}
	table, err := dataset.LoadCSV(csvPath)
	if err != nil {
		return err
	}

	records := make([]map[string]string, table.Len())
	for i := range records {
		rec := make(map[string]string, len(p.Features()))
		for _, name := range p.Features() {
			if table.Has(name) {
				rec[name] = table.Cell(i, name)
			}
		}
		records[i] = rec
	}

	preds, err := p.PredictRecords(records)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "row,probability,label,class")
	for i, pr := range preds {
		fmt.Fprintf(w, "%d,%s,%d,%s\n", i, strconv.FormatFloat(pr.Probability, 'f', 6, 64), pr.Label, pr.Class)
	}
	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/marshal"
	"github.com/wippyai/marshal/config"
	"github.com/wippyai/marshal/inspect"
)

const version = "v0.1.0"

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "Path to a TOML configuration file",
	}
	logLevelFlag = cli.StringFlag{
		Name:  "log-level",
		Usage: "Overrides the configured log level (debug, info, warn, error)",
	}
	statsFlag = cli.BoolFlag{
		Name:  "stats",
		Usage: "Print node statistics after the tree",
	}
	countFlag = cli.IntFlag{
		Name:  "count",
		Usage: "Number of Z2 objects in the exercised graph",
		Value: 1000,
	}
	roundsFlag = cli.IntFlag{
		Name:  "rounds",
		Usage: "Number of timed dump and load cycles",
		Value: 100,
	}
	outFlag = cli.StringFlag{
		Name:  "out",
		Usage: "Write the dumped stream to this file",
	}
	seedFlag = cli.Uint64Flag{
		Name:  "seed",
		Usage: "Random seed; 0 picks one from the clock",
	}
)

// settings is built once by the app's Before hook.
type settings struct {
	cfg *config.Config
	log *zap.Logger
}

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	s := &settings{}

	app := cli.NewApp()
	app.Name = "marshal"
	app.Version = version
	app.Usage = "Inspect and exercise graph marshal streams"
	app.Flags = []cli.Flag{configFlag, logLevelFlag}
	app.Before = func(c *cli.Context) error {
		return s.load(c)
	}
	app.After = func(c *cli.Context) error {
		if s.log != nil {
			_ = s.log.Sync()
		}
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:      "inspect",
			Usage:     "Print the structure of a stream",
			ArgsUsage: "FILE",
			Flags:     []cli.Flag{statsFlag},
			Action: func(c *cli.Context) error {
				return s.inspect(c)
			},
		},
		{
			Name:      "browse",
			Usage:     "Browse the structure of a stream interactively",
			ArgsUsage: "FILE",
			Action: func(c *cli.Context) error {
				return s.browse(c)
			},
		},
		{
			Name:  "exercise",
			Usage: "Dump and load a random object graph and report timing",
			Flags: []cli.Flag{countFlag, roundsFlag, outFlag, seedFlag},
			Action: func(c *cli.Context) error {
				return s.exercise(c)
			},
		},
		{
			Name:  "version",
			Usage: "Print the version",
			Action: func(c *cli.Context) error {
				_, err := fmt.Fprintln(c.App.Writer, c.App.Name, c.App.Version)
				return err
			},
		},
	}
	return app
}

func (s *settings) load(c *cli.Context) error {
	cfg := config.Default()
	if path := c.GlobalString(configFlag.Name); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if level := c.GlobalString(logLevelFlag.Name); level != "" {
		cfg.Log.Level = level
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	log, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	marshal.SetLogger(log)

	s.cfg = cfg
	s.log = log
	return nil
}

func (s *settings) readStream(c *cli.Context) (*inspect.Node, error) {
	path := c.Args().First()
	if path == "" {
		return nil, fmt.Errorf("%s: missing FILE argument", c.Command.Name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	root, err := inspect.DisassembleWith(data, s.cfg.CodecOptions())
	if err != nil {
		return nil, fmt.Errorf("disassemble %s: %w", path, err)
	}
	return root, nil
}

func (s *settings) inspect(c *cli.Context) error {
	root, err := s.readStream(c)
	if err != nil {
		return err
	}

	w := c.App.Writer
	styled := w == os.Stdout && term.IsTerminal(int(os.Stdout.Fd()))
	if err := renderTree(w, root, styled); err != nil {
		return err
	}
	if c.Bool(statsFlag.Name) {
		_, err = fmt.Fprint(w, "\n", inspect.Stats(root).String())
	}
	return err
}

func (s *settings) browse(c *cli.Context) error {
	root, err := s.readStream(c)
	if err != nil {
		return err
	}
	return runBrowser(c.Args().First(), root)
}

func (s *settings) exercise(c *cli.Context) error {
	opts := exerciseOptions{
		Count:  c.Int(countFlag.Name),
		Rounds: c.Int(roundsFlag.Name),
		Out:    c.String(outFlag.Name),
		Seed:   c.Uint64(seedFlag.Name),
	}
	return runExercise(c.App.Writer, s.cfg.CodecOptions(), opts)
}

// Package cli implements the datamosh command line
package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"datamosh/config"
	"datamosh/container"
	"datamosh/fsio"
	"datamosh/logging"
	"datamosh/models"
	"datamosh/mosh"
	"datamosh/quality"
)

var (
	ErrUsage             = errors.New("usage")
	ErrExtensionMismatch = errors.New("file extension does not match format")
)

const positionalArgs = 3

type options struct {
	input   string
	output  string
	format  container.Format
	seed    string
	profile string
	verify  bool
}

// Run is the main entry point. args[0] is the program name. Returns exit code.
func Run(out io.Writer, errOut io.Writer, args []string, env map[string]string) int {
	fs := newFlagSet()
	fs.SetOutput(&strings.Builder{}) // discard pflag output

	var rest []string
	if len(args) > 1 {
		rest = args[1:]
	}
	if err := fs.Parse(rest); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(out, fs)
			return 0
		}
		fprintln(errOut, "error:", err)
		printUsage(errOut, fs)
		return 1
	}
	if help, _ := fs.GetBool("help"); help {
		printUsage(out, fs)
		return 0
	}

	logger := newLogger(fs, errOut, env)

	opts, err := parseOptions(fs)
	if err != nil {
		fprintln(errOut, "error:", err)
		if errors.Is(err, ErrUsage) {
			printUsage(errOut, fs)
		}
		return 1
	}

	if err := execute(out, logger, opts); err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}
	return 0
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("datamosh", flag.ContinueOnError)
	fs.String("seed", "", "Seed for a reproducible run (integer, or any string to hash)")
	fs.String("profile", "", "Custom stage profile (.toml, .json or .jsonc)")
	fs.String("log-level", "", "Log level: trace, debug, info, warn, error, off")
	fs.Bool("no-color", false, "Disable colored log output")
	fs.Bool("verify", false, "Re-walk the output's top-level structure after writing")
	fs.BoolP("help", "h", false, "Show help")
	return fs
}

func newLogger(fs *flag.FlagSet, errOut io.Writer, env map[string]string) zerolog.Logger {
	cfg := logging.DefaultConfig(errOut)
	logging.ApplyEnv(&cfg, func(key string) string { return env[key] })

	if raw, _ := fs.GetString("log-level"); raw != "" {
		if lvl, ok := logging.ParseLevel(raw); ok {
			cfg.Level = lvl
		}
	}
	if fs.Changed("no-color") {
		cfg.NoColor, _ = fs.GetBool("no-color")
	}
	return logging.New("datamosh", cfg)
}

func parseOptions(fs *flag.FlagSet) (options, error) {
	positional := fs.Args()
	if len(positional) != positionalArgs {
		return options{}, fmt.Errorf("%w: expected <input> <output> <format>, got %d arguments",
			ErrUsage, len(positional))
	}

	format, err := container.ParseFormat(positional[2])
	if err != nil {
		return options{}, fmt.Errorf("%w: %w", ErrUsage, err)
	}

	opts := options{input: positional[0], output: positional[1], format: format}
	opts.seed, _ = fs.GetString("seed")
	opts.profile, _ = fs.GetString("profile")
	opts.verify, _ = fs.GetBool("verify")

	if !format.MatchesExtension(opts.input) {
		return options{}, fmt.Errorf("%w: %s is not a .%s file", ErrExtensionMismatch, opts.input, format)
	}
	return opts, nil
}

func execute(out io.Writer, logger zerolog.Logger, opts options) error {
	family, err := container.ForFormat(opts.format)
	if err != nil {
		return err
	}

	var stages []models.Stage
	if opts.profile != "" {
		profile, err := config.LoadProfile(opts.profile)
		if err != nil {
			return err
		}
		if profile.Format != "" && profile.Format != string(opts.format) {
			return fmt.Errorf("%w: %s is a %s profile", config.ErrInvalidProfile, opts.profile, profile.Format)
		}
		stages = profile.Stages
	}

	data, err := fsio.Load(opts.input)
	if err != nil {
		return err
	}
	original := bytes.Clone(data)

	if detected, ok := container.Sniff(opts.format, data); !ok {
		logger.Warn().Str("detected", detected).Str("format", string(opts.format)).
			Msg("content does not look like the declared format")
	}
	if nodes, err := container.Describe(opts.format, data); err != nil {
		logger.Warn().Err(err).Msg("top-level walk failed")
	} else {
		for _, n := range nodes {
			logger.Debug().Str("type", n.Type).Int64("offset", n.Offset).Int64("size", n.Size).Msg("node")
		}
	}

	seed := resolveSeed(opts.seed)
	session := mosh.NewSession(data, family, mosh.NewSource(seed),
		mosh.WithSeed(seed),
		mosh.WithStages(stages),
		mosh.WithLogger(logger),
	)
	printFileInfo(out, opts, session, seed)

	report, err := session.Run()
	if err != nil {
		if !errors.Is(err, container.ErrMalformedContainer) {
			return err
		}
		logger.Warn().Err(err).Msg("writing input unchanged")
	}

	if err := fsio.Save(opts.output, data); err != nil {
		return err
	}

	if opts.verify {
		if err := container.Verify(opts.format, original, data); err != nil {
			return err
		}
		logger.Info().Msg("top-level structure verified")
	}

	q := quality.Measure(original, data)
	fprintf(out, "Glitches: %d\n", report.TotalGlitches)
	fprintf(out, "Changed:  %d bytes (%.4f%%)\n", q.ChangedBytes, q.ChangedRatio*100)
	fprintf(out, "PSNR:     %s dB\n", quality.FormatPSNR(q.PSNR))
	fprintf(out, "Output:   %s\n", opts.output)
	return nil
}

// resolveSeed falls back to the wall clock only when no seed was given
func resolveSeed(raw string) int64 {
	if strings.TrimSpace(raw) == "" {
		return time.Now().UnixNano()
	}
	return mosh.ResolveSeed(raw)
}

func printFileInfo(out io.Writer, opts options, s *mosh.Session, seed int64) {
	anchors := s.Anchors()
	fprintf(out, "Input:     %s\n", opts.input)
	fprintf(out, "Format:    %s\n", opts.format)
	fprintf(out, "Size:      %d bytes\n", len(s.Mask()))
	fprintf(out, "Seed:      %d\n", seed)
	fprintf(out, "Stages:    %d\n", len(s.Stages()))
	fprintf(out, "Protected: %d bytes\n", s.Mask().Count())
	fprintf(out, "Anchors:   %d signatures, %d video, %d audio, %d payloads\n",
		anchors.SignatureCount(), len(anchors.Video), len(anchors.Audio), len(anchors.Payloads))
	fprintf(out, "Frames:    %d\n", s.FrameCount())
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fprintln(w, "datamosh - structure-aware video corruptor")
	fprintln(w)
	fprintln(w, "Usage: datamosh [flags] <input-path> <output-path> <avi|mp4>")
	fprintln(w)
	fprintln(w, "Flags:")

	var buf strings.Builder
	fs.SetOutput(&buf)
	fs.PrintDefaults()
	fs.SetOutput(&strings.Builder{})
	fprintf(w, "%s", buf.String())
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func fprintf(w io.Writer, format string, a ...any) {
	_, _ = fmt.Fprintf(w, format, a...)
}

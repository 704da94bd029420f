// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

// protots compiles proto IDL files into wire-format encoders.
package main

import (
	"context"
	stdflag "flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type command interface {
	help() *commandHelp
	flags(flags *pflag.FlagSet)
	run(ctx context.Context, argv []string) int
}

type commandHelp struct {
	usage   string
	summary string
}

// globals holds the state shared by every command: global flags, the
// loaded config file, and the output streams.
type globals struct {
	configPath  string
	verbose     bool
	trace       bool
	importPaths []string
	parallelism int

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	logger *slog.Logger
	config *config
}

func (g *globals) init(flags *pflag.FlagSet) error {
	level := slog.LevelInfo
	if g.verbose {
		level = slog.LevelDebug
	}
	g.logger = slog.New(slog.NewTextHandler(g.stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig(g.configPath)
	if err != nil {
		return err
	}
	if flags.Changed("import-path") || len(cfg.ImportPaths) == 0 {
		cfg.ImportPaths = g.importPaths
	}
	if flags.Changed("parallelism") || cfg.Parallelism == 0 {
		cfg.Parallelism = g.parallelism
	}
	g.config = cfg
	g.logger.Debug("loaded config", "path", cfg.path, "import_paths", cfg.ImportPaths)
	return nil
}

func main() {
	ctx := context.Background()
	os.Exit(execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func execute(ctx context.Context, argv []string, stdin io.Reader, stdout, stderr io.Writer) int {
	g := &globals{stdin: stdin, stdout: stdout, stderr: stderr}
	exitCode := 0

	prototsCmd := &cobra.Command{
		Use: "protots [options] COMMAND",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	prototsCmd.RunE = func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(stderr, prototsCmd.UsageString())
		exitCode = 1
		return nil
	}

	globalFlags := prototsCmd.PersistentFlags()
	globalFlags.StringVar(&g.configPath, "config", "", "Config file (default: ./protots.yaml if present)")
	globalFlags.BoolVarP(&g.verbose, "verbose", "v", false, "Log debug messages to stderr")
	globalFlags.BoolVar(&g.trace, "trace", false, "Log every parser step (with --verbose)")
	globalFlags.StringSliceVarP(&g.importPaths, "import-path", "I", []string{"."}, "Directories searched for imported files")
	globalFlags.IntVar(&g.parallelism, "parallelism", 0, "Files parsed and messages compiled concurrently (default: GOMAXPROCS)")

	commands := []command{
		&cmdCompile{g: g},
		&cmdCodegen{g: g},
		&cmdEncode{g: g},
		&cmdFormat{g: g},
	}
	for _, cmd := range commands {
		help := cmd.help()
		cobraCmd := &cobra.Command{
			Use:   help.usage,
			Short: help.summary,
			RunE: func(cobraCmd *cobra.Command, args []string) error {
				if err := g.init(cobraCmd.Flags()); err != nil {
					fmt.Fprintln(stderr, err)
					exitCode = 1
					return nil
				}
				exitCode = cmd.run(ctx, args)
				return nil
			},
		}
		prototsCmd.AddCommand(cobraCmd)
		cmd.flags(cobraCmd.Flags())
	}

	prototsCmd.PersistentFlags().AddGoFlagSet(stdflag.CommandLine)
	prototsCmd.SetArgs(argv)
	prototsCmd.SetOut(stdout)
	prototsCmd.SetErr(stderr)
	if _, err := prototsCmd.ExecuteC(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return exitCode
}

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

// Command plugin_build compiles a codegen plugin into a wasip1 reactor
// module that protots can load with --plugin.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/pflag"
)

const defaultPlugin = "./bin/protots-codegen-ts"

type buildFlags struct {
	goBin  string
	output string
	chdir  string
	goRoot string
}

func main() {
	var flags buildFlags
	pflag.StringVar(&flags.goBin, "go", "go", "Go toolchain binary")
	pflag.StringVar(&flags.output, "output", "", "Path of the .wasm module to write")
	pflag.StringVar(&flags.chdir, "chdir", "", "Directory of the main module")
	pflag.StringVar(&flags.goRoot, "goroot", "", "GOROOT of the toolchain, if not the default")
	pflag.Parse()

	if flags.output == "" {
		fmt.Fprintln(os.Stderr, "No output path specified (set --output=)")
		os.Exit(1)
	}
	pwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	cmd := buildCommand(pwd, flags, pflag.Args())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// buildCommand runs "go build" for wasip1 in c-shared mode, so that the
// module exports _initialize instead of running main.
func buildCommand(pwd string, flags buildFlags, pkgs []string) *exec.Cmd {
	if len(pkgs) == 0 {
		pkgs = []string{defaultPlugin}
	}
	output := flags.output
	if !filepath.IsAbs(output) {
		output = filepath.Join(pwd, output)
	}
	args := []string{"build", "-buildmode=c-shared", "-trimpath", "-o=" + output}
	args = append(args, pkgs...)

	cmd := exec.Command(flags.goBin, args...)
	cmd.Env = append(os.Environ(), "GOOS=wasip1", "GOARCH=wasm", "CGO_ENABLED=0")
	if flags.goRoot != "" {
		cmd.Env = append(cmd.Env, "GOROOT="+flags.goRoot)
	}
	cmd.Dir = filepath.Join(pwd, flags.chdir)
	return cmd
}

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

package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildCommand(t *testing.T) {
	pwd := filepath.Join("/", "work")
	cmd := buildCommand(pwd, buildFlags{
		goBin:  "go",
		output: "out/protots-codegen-ts.wasm",
		chdir:  "src",
	}, nil)

	assert.Equal(t, []string{
		"go", "build", "-buildmode=c-shared", "-trimpath",
		"-o=" + filepath.Join(pwd, "out", "protots-codegen-ts.wasm"),
		defaultPlugin,
	}, cmd.Args)
	assert.Equal(t, filepath.Join(pwd, "src"), cmd.Dir)
	assert.Contains(t, cmd.Env, "GOOS=wasip1")
	assert.Contains(t, cmd.Env, "GOARCH=wasm")

	cmd = buildCommand(pwd, buildFlags{
		goBin:  "/opt/go/bin/go",
		output: "/tmp/x.wasm",
		goRoot: "/opt/go",
	}, []string{"./plugins/other"})
	assert.Equal(t, "/tmp/x.wasm", cmd.Args[4][len("-o="):])
	assert.Equal(t, "./plugins/other", cmd.Args[5])
	assert.Contains(t, cmd.Env, "GOROOT=/opt/go")
}

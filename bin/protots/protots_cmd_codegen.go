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
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	wasm "github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/pluginpb"

	"go.protots.org/protots/codegen/tscodegen"
)

const (
	pluginPathEnv = "PROTOTS_CODEGEN_PLUGIN_PATH"

	pluginAllocate = "protots_codegen_allocate"
	pluginGenerate = "protots_codegen_generate"
)

type cmdCodegen struct {
	g *globals

	outDir     string
	plugin     string
	pluginPath string
	runtime    string
}

func (*cmdCodegen) help() *commandHelp {
	return &commandHelp{
		usage:   "codegen [FILE...]",
		summary: "Generate encoders, in TypeScript or through a plugin",
	}
}

func (cmd *cmdCodegen) flags(flags *pflag.FlagSet) {
	flags.StringVarP(&cmd.outDir, "output", "o", "", "Output directory")
	flags.StringVar(&cmd.plugin, "plugin", "", "Run the wasm plugin protots-codegen-NAME.wasm instead of the built-in TypeScript generator")
	flags.StringVar(&cmd.pluginPath, "plugin-path", "", "Directories searched for plugins (default: $"+pluginPathEnv+")")
	flags.StringVar(&cmd.runtime, "runtime", "", "Module providing Writer (default: "+tscodegen.DefaultRuntime+")")
}

func (cmd *cmdCodegen) run(ctx context.Context, argv []string) int {
	g := cmd.g
	if cmd.outDir == "" {
		cmd.outDir = g.config.Output
	}
	if cmd.outDir == "" {
		fmt.Fprintln(g.stderr, "No output directory specified (set --output= or 'output' in protots.yaml)")
		return 1
	}
	if cmd.plugin == "" {
		cmd.plugin = g.config.Plugin
	}
	if cmd.pluginPath == "" {
		cmd.pluginPath = g.config.PluginPath
	}
	if cmd.runtime == "" {
		cmd.runtime = g.config.Runtime
	}

	ws, ok := g.load(ctx, argv)
	if !ok {
		return 1
	}
	if _, ok := ws.compile(); !ok {
		return 1
	}

	request := &pluginpb.CodeGeneratorRequest{
		ProtoFile: ws.descriptors(true),
	}
	for _, file := range ws.inputs {
		request.FileToGenerate = append(request.FileToGenerate, file.name)
	}
	if cmd.runtime != "" {
		request.Parameter = proto.String("runtime=" + cmd.runtime)
	}

	var response *pluginpb.CodeGeneratorResponse
	if cmd.plugin == "" {
		response = tscodegen.GenerateResponse(request)
	} else {
		pluginPath, err := cmd.locatePlugin(cmd.plugin)
		if err != nil {
			fmt.Fprintln(g.stderr, err)
			return 1
		}
		g.logger.Debug("running plugin", "path", pluginPath)
		if response, err = cmd.runPlugin(ctx, pluginPath, request); err != nil {
			fmt.Fprintln(g.stderr, err)
			return 1
		}
	}

	if response.Error != nil {
		// TODO: Replace any control characters with U+FFFD.
		fmt.Fprintln(g.stderr, strings.TrimRight(response.GetError(), "\n"))
		return 1
	}
	outputFiles := response.GetFile()
	if len(outputFiles) == 0 {
		fmt.Fprintln(g.stderr, "Plugin did not generate any output files")
		return 1
	}
	if err := os.MkdirAll(cmd.outDir, 0o755); err != nil {
		fmt.Fprintln(g.stderr, err)
		return 1
	}
	for _, outputFile := range outputFiles {
		outPath, err := cmd.outPath(outputFile)
		if err != nil {
			fmt.Fprintln(g.stderr, err)
			return 1
		}

		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			fmt.Fprintln(g.stderr, err)
			return 1
		}
		if err := os.WriteFile(outPath, []byte(outputFile.GetContent()), 0o644); err != nil {
			fmt.Fprintln(g.stderr, err)
			return 1
		}
		g.logger.Debug("wrote file", "path", outPath)
	}
	return 0
}

// runPlugin runs a wasip1 reactor module exporting the plugin entry points.
func (cmd *cmdCodegen) runPlugin(
	ctx context.Context,
	pluginPath string,
	request *pluginpb.CodeGeneratorRequest,
) (*pluginpb.CodeGeneratorResponse, error) {
	requestBuf, err := proto.Marshal(request)
	if err != nil {
		return nil, err
	}

	runtimeConfig := wasm.NewRuntimeConfigInterpreter()
	runtimeConfig = runtimeConfig.WithMemoryLimitPages(16384)
	runtime := wasm.NewRuntimeWithConfig(ctx, runtimeConfig)
	defer runtime.Close(ctx)
	wasi_snapshot_preview1.MustInstantiate(ctx, runtime)

	pluginBin, err := os.ReadFile(pluginPath)
	if err != nil {
		return nil, err
	}
	pluginExe, err := runtime.CompileModule(ctx, pluginBin)
	if err != nil {
		return nil, err
	}

	moduleConfig := wasm.NewModuleConfig().
		WithStartFunctions("_initialize").
		WithStderr(cmd.g.stderr)
	plugin, err := runtime.InstantiateModule(ctx, pluginExe, moduleConfig)
	if err != nil {
		return nil, err
	}
	mem := plugin.Memory()

	wasmAlloc := plugin.ExportedFunction(pluginAllocate)
	wasmGenerate := plugin.ExportedFunction(pluginGenerate)
	if wasmAlloc == nil || wasmGenerate == nil || mem == nil {
		return nil, fmt.Errorf("Plugin %s does not export %s and %s", pluginPath, pluginAllocate, pluginGenerate)
	}

	results, err := wasmAlloc.Call(ctx, uint64(len(requestBuf)))
	if err != nil {
		return nil, err
	}
	requestPtr := uint32(results[0])
	if requestPtr == 0 || !mem.Write(requestPtr, requestBuf) {
		return nil, errors.New("Failed to write plugin request")
	}

	results, err = wasmAlloc.Call(ctx, 4)
	if err != nil {
		return nil, err
	}
	responsePtrPtr := uint32(results[0])

	results, err = wasmGenerate.Call(ctx, uint64(requestPtr), uint64(len(requestBuf)), uint64(responsePtrPtr))
	if err != nil {
		return nil, err
	}
	responseLen := uint32(results[0])

	responsePtr, ok := mem.ReadUint32Le(responsePtrPtr)
	if !ok || responsePtr == 0 {
		return nil, errors.New("Failed to read plugin response location")
	}
	responseBuf, ok := mem.Read(responsePtr, responseLen)
	if !ok {
		return nil, errors.New("Failed to read plugin response")
	}
	response := &pluginpb.CodeGeneratorResponse{}
	if err := proto.Unmarshal(responseBuf, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (cmd *cmdCodegen) locatePlugin(name string) (string, error) {
	path := cmd.pluginPath
	if path == "" {
		path = os.Getenv(pluginPathEnv)
	}
	if path == "" {
		return "", fmt.Errorf("No plugin path set, use --plugin-path= or $%s", pluginPathEnv)
	}
	basename := fmt.Sprintf("protots-codegen-%s.wasm", name)
	for _, dir := range filepath.SplitList(path) {
		pluginPath := filepath.Join(dir, basename)
		if _, err := os.Stat(pluginPath); err == nil {
			return pluginPath, nil
		}
	}
	return "", fmt.Errorf("Codegen plugin %s not found in plugin path", basename)
}

func (cmd *cmdCodegen) outPath(file *pluginpb.CodeGeneratorResponse_File) (string, error) {
	name := file.GetName()
	if name == "" {
		return "", fmt.Errorf("Invalid output path %q: empty", name)
	}
	if file.GetInsertionPoint() != "" {
		return "", fmt.Errorf("Output file %q: insertion points are not supported", name)
	}
	if strings.HasPrefix(name, "/") || filepath.IsAbs(name) {
		return "", fmt.Errorf("Invalid output path %q: absolute path", name)
	}
	parts := strings.Split(name, "/")
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("Invalid output path %q: bad path component %q", name, part)
		}
		if strings.ContainsRune(part, '\\') {
			return "", fmt.Errorf("Invalid output path %q: component %q contains '\\'", name, part)
		}
	}
	return filepath.Join(append([]string{cmd.outDir}, parts...)...), nil
}

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

package tscodegen

import (
	"fmt"
	"slices"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/pluginpb"

	"go.protots.org/protots/compiler"
	"go.protots.org/protots/emit"
	"go.protots.org/protots/syntax"
)

// GenerateResponse answers a protoc plugin request. Failures are reported in
// the response, as the plugin protocol requires.
//
// The parameter is a comma-separated list of options:
//
//	runtime=MODULE  import Writer from MODULE instead of DefaultRuntime
func GenerateResponse(req *pluginpb.CodeGeneratorRequest) *pluginpb.CodeGeneratorResponse {
	resp := &pluginpb.CodeGeneratorResponse{
		SupportedFeatures: proto.Uint64(uint64(pluginpb.CodeGeneratorResponse_FEATURE_PROTO3_OPTIONAL)),
	}
	files, err := generateRequest(req)
	if err != nil {
		resp.Error = proto.String(err.Error())
		return resp
	}
	for _, file := range files {
		resp.File = append(resp.File, &pluginpb.CodeGeneratorResponse_File{
			Name:    proto.String(file.Path),
			Content: proto.String(string(file.Content)),
		})
	}
	return resp
}

func generateRequest(req *pluginpb.CodeGeneratorRequest) ([]File, error) {
	opts, err := parseParameter(req.GetParameter())
	if err != nil {
		return nil, err
	}

	pkgs := make(map[string]*syntax.Package, len(req.GetProtoFile()))
	for _, fdp := range req.GetProtoFile() {
		pkg, err := compiler.PackageFromDescriptor(fdp)
		if err != nil {
			return nil, err
		}
		pkgs[fdp.GetName()] = pkg
	}

	funcs := make(map[string][]*emit.Func, len(pkgs))
	var all []*emit.Func
	for _, fdp := range req.GetProtoFile() {
		name := fdp.GetName()
		result := compiler.Compile(pkgs[name], compiler.WithDependencies(pkgs))
		if len(result.Errors) > 0 {
			return nil, fmt.Errorf("%s: %v", name, result.Errors[0])
		}
		funcs[name] = result.Funcs
		all = append(all, result.Funcs...)
	}

	var files []File
	for _, name := range req.GetFileToGenerate() {
		fileFuncs, ok := funcs[name]
		if !ok {
			return nil, fmt.Errorf("file to generate %q is missing from the request", name)
		}
		fileOpts := append(slices.Clone(opts), WithDependencies(all), WithSource(name))
		generated, err := Generate(fileFuncs, fileOpts...)
		if err != nil {
			return nil, err
		}
		files = append(files, generated...)
	}
	return files, nil
}

func parseParameter(param string) ([]GenerateOption, error) {
	var opts []GenerateOption
	for _, kv := range strings.Split(param, ",") {
		if kv == "" {
			continue
		}
		key, value, _ := strings.Cut(kv, "=")
		switch key {
		case "runtime":
			if value == "" {
				return nil, fmt.Errorf("plugin parameter %q requires a value", key)
			}
			opts = append(opts, WithRuntime(value))
		default:
			return nil, fmt.Errorf("unknown plugin parameter %q", key)
		}
	}
	return opts, nil
}

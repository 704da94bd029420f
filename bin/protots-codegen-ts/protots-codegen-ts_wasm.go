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

//go:build wasip1

package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/pluginpb"
)

// Buffers handed to the host stay reachable until it deallocates them.
var buffers = make(map[uint32][]uint8)

func keep(buf []uint8) uint32 {
	if len(buf) == 0 {
		buf = make([]uint8, 1)
	}
	ptr := uint32(uintptr(unsafe.Pointer(unsafe.SliceData(buf))))
	buffers[ptr] = buf
	return ptr
}

//go:wasmexport protots_codegen_allocate
func prototsCodegenAllocate(size uint32) uint32 {
	if size > math.MaxInt32 {
		return 0
	}
	return keep(make([]uint8, int(size)))
}

//go:wasmexport protots_codegen_deallocate
func prototsCodegenDeallocate(ptr uint32) {
	delete(buffers, ptr)
}

// protots_codegen_generate reads a CodeGeneratorRequest from the buffer at
// requestPtr, stores the address of the encoded CodeGeneratorResponse at
// responsePtrPtr, and returns its length.
//
//go:wasmexport protots_codegen_generate
func prototsCodegenGenerate(requestPtr, requestLen, responsePtrPtr uint32) uint32 {
	var response []byte
	request, ok := buffers[requestPtr]
	if !ok || int(requestLen) > len(request) {
		response = errorResponse(fmt.Errorf("request buffer %#x is not allocated", requestPtr))
	} else {
		var err error
		if response, err = generate(request[:requestLen]); err != nil {
			response = errorResponse(err)
		}
	}

	slot, ok := buffers[responsePtrPtr]
	if !ok || len(slot) < 4 {
		return 0
	}
	binary.LittleEndian.PutUint32(slot, keep(response))
	return uint32(len(response))
}

func errorResponse(err error) []byte {
	response, _ := proto.Marshal(&pluginpb.CodeGeneratorResponse{
		Error: proto.String(err.Error()),
	})
	return response
}

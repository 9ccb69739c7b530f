// Package main provides C API bindings for the mjpeg codec library,
// enabling cross-language interoperability with C applications and other
// language bindings.
//
// # Overview
//
// The capi package exposes encoder and decoder sessions behind opaque
// handles, fixed-layout caller-allocated structs, and an integer status
// enumeration. Every function returns its status directly; no error is
// thrown across the boundary and no caller pointer is retained beyond the
// duration of a single call.
//
// # Build Instructions
//
// To build as a C shared library:
//
//	go build -buildmode=c-shared -o libmjpeg.so ./capi/
//
// This generates:
//   - libmjpeg.so: The shared library
//   - libmjpeg.h: Auto-generated C header file with function declarations
//
// # C API Usage
//
//	#include "libmjpeg.h"
//
//	MjpegEncoderConfig cfg = {
//	    .width = 640, .height = 480, .fps = 30, .quality = 80,
//	};
//	void *enc = mjpeg_encoder_create(&cfg);
//	if (enc == NULL) {
//	    fprintf(stderr, "encoder create failed\n");
//	}
//
//	uint32_t jpeg_len = 0;
//	int32_t st = mjpeg_encoder_encode(enc, nv12, nv12_size,
//	                                  jpeg, jpeg_cap, &jpeg_len);
//	if (st != 0) {
//	    fprintf(stderr, "%s\n", mjpeg_error_string(st));
//	}
//
//	mjpeg_encoder_destroy(enc);
//
// Handles are not usable after destroy; a second destroy on the same
// handle reports an invalid parameter rather than corrupting state.
package main

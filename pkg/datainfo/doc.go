/*
 * MIT License
 *
 * Copyright (c) 2026 the secop contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package datainfo implements the SECoP typed-value layer: immutable
// descriptors that know how to describe themselves as JSON schema and how
// to validate a value moving between wire JSON and its internal Go
// representation.
//
// Every Descriptor is built once, at module-registration time, and never
// mutated afterwards — the concurrency model in internal/module relies on
// descriptors being safe to share across the module's worker goroutine and
// any goroutine formatting a reply.
//
// Wire values follow encoding/json's decoder in UseNumber mode: JSON numbers
// arrive as json.Number so Int/Scaled/Enum can tell "3" from "3.0" apart
// instead of silently truncating a float. pkg/proto is responsible for
// decoding with UseNumber; callers that build wire values directly (tests,
// internal callers) may also pass float64/int64/json.Number interchangeably
// — numeric() normalizes all three.
package datainfo

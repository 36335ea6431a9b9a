// Copyright 2025 floss-core Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package floss

import (
	"context"
	"log/slog"
)

const (
	tightstringMaxHit = 256
	tightstringMaxRep = 256
)

// stackstringCapture is the context-capture helper the tightstring monitor
// contains (not extends, per the §9 design note). It knows how to turn a
// live emulator into a CallContext.
type stackstringCapture struct {
	scanner StringScanner
	logger  *slog.Logger
}

// capture snapshots the stack from the emulator's current sp up to its
// initial sp. A read failure is logged at debug and reported via ok=false;
// callers treat that as "no context for this hit", never as fatal.
func (c stackstringCapture) capture(emu Emulator, pc uint64) (CallContext, bool) {
	sp := emu.StackPointer()
	initSP := emu.InitialStackPointer()
	mem, err := emu.ReadStackMemory(sp, initSP)
	if err != nil {
		c.logger.Debug("tightstrings: stack read failed", "pc", pc, "error", err)
		return CallContext{}, false
	}
	return CallContext{ProgramCounter: pc, StackPointer: sp, InitialStackPtr: initSP, StackMemory: mem}, true
}

// tightstringMonitor drives one function's worth of tight-loop capture. It
// materializes a pre-loop CallContext (for exclusion) the first time each
// loop's startva is hit, and a post-loop CallContext (for extraction) the
// first time each loop's endva is hit — only one capture per loop, per the
// §9 open question.
type tightstringMonitor struct {
	capture stackstringCapture

	preStartVAs   map[uint64]bool
	pendingEndVAs map[uint64]bool

	preCtxStrings map[string]bool
	postContexts  []CallContext
}

func newTightstringMonitor(scanner StringScanner, logger *slog.Logger, loops []TightLoopRange) *tightstringMonitor {
	pre := make(map[uint64]bool, len(loops))
	end := make(map[uint64]bool, len(loops))
	for _, l := range loops {
		pre[l.StartVA] = true
		end[l.EndVA] = true
	}
	return &tightstringMonitor{
		capture:       stackstringCapture{scanner: scanner, logger: logger},
		preStartVAs:   pre,
		pendingEndVAs: end,
		preCtxStrings: make(map[string]bool),
	}
}

func (m *tightstringMonitor) PreHook(emu Emulator, pc uint64) {
	if !m.preStartVAs[pc] {
		return
	}
	delete(m.preStartVAs, pc) // one capture per loop, regardless of outcome
	ctx, ok := m.capture.capture(emu, pc)
	if !ok {
		return
	}
	for _, s := range m.capture.scanner.ASCII(ctx.StackMemory) {
		m.preCtxStrings[s] = true
	}
	for _, s := range m.capture.scanner.UTF16(ctx.StackMemory) {
		m.preCtxStrings[s] = true
	}
}

func (m *tightstringMonitor) PostHook(emu Emulator, pc uint64) {
	if !m.pendingEndVAs[pc] {
		return
	}
	delete(m.pendingEndVAs, pc) // one capture per loop
	ctx, ok := m.capture.capture(emu, pc)
	if !ok {
		return
	}
	m.postContexts = append(m.postContexts, ctx)
}

func (m *tightstringMonitor) ApiCall(Emulator, uint64, string, []uint64) {}

// TightstringEngine drives an emulator through pre-identified tight loops
// and extracts the strings they assemble on the stack (component E).
type TightstringEngine struct {
	Scanner StringScanner
	Logger  *slog.Logger
}

// NewTightstringEngine constructs a TightstringEngine, defaulting scanner
// and logger as BlobEngine does.
func NewTightstringEngine(scanner StringScanner, logger *slog.Logger) *TightstringEngine {
	if scanner == nil {
		scanner = NewDefaultScanner()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TightstringEngine{Scanner: scanner, Logger: logger}
}

// DriverFactory constructs a fresh Driver+Emulator pair for one function.
// ExtractTightStrings takes it as a parameter so tests can substitute fakes
// without a real workspace/emulator.
type DriverFactory func(ws Workspace, fva uint64) (Driver, error)

// ExtractTightStrings runs the engine over every function named in loops
// and returns all TightStrings found, collected into one slice. ctx is
// checked once per function boundary only: no mid-function
// cancellation, matching the spec's "no internal cancellation" model.
func (e *TightstringEngine) ExtractTightStrings(ctx context.Context, ws Workspace, newDriver DriverFactory, loops map[uint64][]TightLoopRange, minLength int) []TightString {
	var out []TightString
	ptrSize := ws.PointerSize()

	for fva, tloops := range loops {
		select {
		case <-ctx.Done():
			return out
		default:
		}

		postContexts, preCtxStrings, err := e.runFunction(ws, newDriver, fva, tloops)
		if err != nil {
			e.Logger.Debug("tightstrings: function could not be emulated", "fva", fva, "error", err)
			continue
		}

		exclude := make(map[string]bool, len(preCtxStrings))
		for s := range preCtxStrings {
			exclude[s] = true
		}

		for _, c := range postContexts {
			out = append(out, e.extractFromContext(fva, c, exclude, ptrSize, minLength)...)
		}
	}
	return out
}

func (e *TightstringEngine) runFunction(ws Workspace, newDriver DriverFactory, fva uint64, tloops []TightLoopRange) ([]CallContext, map[string]bool, error) {
	driver, err := newDriver(ws, fva)
	if err != nil {
		return nil, nil, err
	}

	monitor := newTightstringMonitor(e.Scanner, e.Logger, tloops)
	driver.AddMonitor(monitor)

	if err := driver.RunFunction(fva, RunOptions{MaxHit: tightstringMaxHit, MaxRep: tightstringMaxRep, FuncOnly: true}); err != nil {
		return nil, nil, err
	}
	return monitor.postContexts, monitor.preCtxStrings, nil
}

// extractFromContext diffs one post-loop context against the running
// exclude set (pre-loop strings plus anything already emitted for this
// function), applies the FP filter, and yields surviving TightStrings.
// exclude is mutated in place: both the raw scanned text and the stripped
// string of every yielded candidate are added, so later contexts in the
// same function skip candidates whose raw text matches either.
func (e *TightstringEngine) extractFromContext(fva uint64, c CallContext, exclude map[string]bool, pointerSize, minLength int) []TightString {
	var out []TightString

	candidates := extractStrings(e.Scanner, c.StackMemory, minLength, exclude)
	for _, cand := range candidates {
		stripped, ok := FilterFP(cand.text, minLength)
		if !ok {
			continue
		}
		ts := NewTightString(fva, stripped, cand.encoding, c.ProgramCounter, c.StackPointer, c.InitialStackPtr, int64(cand.offset), pointerSize)
		out = append(out, ts)
		exclude[cand.text] = true
		exclude[stripped] = true
	}
	return out
}

type extractedCandidate struct {
	text     string
	encoding StringEncoding
	offset   int
}

// extractStrings scans buf for ASCII and UTF16LE runs at least minLength
// long, skipping anything present in exclude.
func extractStrings(scanner StringScanner, buf []byte, minLength int, exclude map[string]bool) []extractedCandidate {
	var out []extractedCandidate
	for _, s := range scanner.Scan(buf, minLength) {
		if exclude[s.Text] {
			continue
		}
		out = append(out, extractedCandidate{text: s.Text, encoding: s.Kind, offset: s.Start})
	}
	return out
}

package isp

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"lautenbacher.net/avrisp/simulator"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newProgrammer creates a Programmer on a fresh simulated target.
func newProgrammer(t *testing.T, simOpts []simulator.Option, opts ...Option) (*Programmer, *simulator.Target) {
	t.Helper()
	target := simulator.New(simOpts...)
	prog, err := New(target, append([]Option{WithLogger(discardLogger())}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { prog.Close() })
	return prog, target
}

// newEngaged returns a Programmer already in programming mode with an empty
// target trace.
func newEngaged(t *testing.T, simOpts []simulator.Option, opts ...Option) (*Programmer, *simulator.Target) {
	t.Helper()
	prog, target := newProgrammer(t, simOpts, opts...)
	require.NoError(t, prog.Begin(context.Background()))
	target.ClearTrace()
	return prog, target
}

// instructions drops the RDY/BSY polls from a trace.
func instructions(trace []simulator.Record) [][4]byte {
	var ret [][4]byte
	for _, r := range trace {
		if r.Instruction[0] != opPollReady {
			ret = append(ret, r.Instruction)
		}
	}
	return ret
}

func lastInstruction(t *testing.T, target *simulator.Target) [4]byte {
	t.Helper()
	trace := target.Trace()
	require.NotEmpty(t, trace)
	return trace[len(trace)-1].Instruction
}

package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/wippyai/marshal"
	"github.com/wippyai/marshal/codec"
	"github.com/wippyai/marshal/errors"
	"github.com/wippyai/marshal/reftable"
	"github.com/wippyai/marshal/registry"
	"github.com/wippyai/marshal/value"
)

// Z is a plain object type. The exercised graph only refers to the type.
type Z struct {
	A, B, C any
}

// Blotto is a field-less type used as a type reference.
type Blotto struct{}

// Z2 dumps itself as the sequence of its three fields.
type Z2 struct {
	A, B, C any
}

func (z *Z2) MarshalGraph() (any, error) {
	return []any{z.A, z.B, z.C}, nil
}

func (z *Z2) UnmarshalGraph(rep any) error {
	parts, ok := rep.([]any)
	if !ok || len(parts) != 3 {
		return fmt.Errorf("z2: want a 3-element sequence, got %T", rep)
	}
	z.A, z.B, z.C = parts[0], parts[1], parts[2]
	return nil
}

var symbols = []value.Symbol{"a", "b", "cc"}

type exerciseOptions struct {
	Out    string
	Count  int
	Rounds int
	Seed   uint64
}

// eventCounter tallies reference table activity across a run.
type eventCounter struct {
	assigned int
	linked   int
}

func (c *eventCounter) OnReferenceEvent(ev reftable.Event) {
	switch ev.Type {
	case reftable.EventAssigned:
		c.assigned++
	case reftable.EventLinked:
		c.linked++
	}
}

func exerciseRegistry() (*registry.Registry, error) {
	reg := registry.New()
	if err := registry.RegisterType[Z](reg, "Z"); err != nil {
		return nil, err
	}
	if err := registry.RegisterType[Blotto](reg, "BLOTTO"); err != nil {
		return nil, err
	}
	if err := registry.RegisterType[Z2](reg, "Z2"); err != nil {
		return nil, err
	}
	return reg, nil
}

// exerciseGraph maps 0..count-1 to Z2 objects holding random scalars and
// references to the Z and BLOTTO types.
func exerciseGraph(rng *rand.Rand, count int) *value.Map {
	m := value.NewMap(count)
	for i := range count {
		m.Set(int64(i), &Z2{
			A: []any{
				strings.Repeat("z", 1+rng.IntN(10)),
				rng.Float64(),
				int64(rng.IntN(10000)),
				symbols[rng.IntN(len(symbols))],
				nil,
			},
			B: value.TypeRef{Name: "Z"},
			C: value.TypeRef{Name: "BLOTTO"},
		})
	}
	return m
}

func runExercise(w io.Writer, copts codec.Options, opts exerciseOptions) error {
	if opts.Count < 0 || opts.Rounds < 0 {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("count and rounds must not be negative").
			Build()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	reg, err := exerciseRegistry()
	if err != nil {
		return err
	}
	m := marshal.New(reg, copts)
	graph := exerciseGraph(rand.New(rand.NewPCG(seed, seed>>1)), opts.Count)

	counter := &eventCounter{}
	observed := copts
	observed.Observer = counter
	data, err := codec.NewEncoder(reg, observed).Encode(graph)
	if err != nil {
		return fmt.Errorf("dump: %w", err)
	}
	loaded, err := m.Load(data)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	if !value.Equal(graph, loaded) {
		return fmt.Errorf("loaded graph differs from the dumped one (seed %d)", seed)
	}
	fmt.Fprintf(w, "%d objects, %d bytes, %d indices, %d back-references (seed %d)\n",
		opts.Count, len(data), counter.assigned, counter.linked, seed)

	if opts.Out != "" {
		if err := os.WriteFile(opts.Out, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.Out, err)
		}
		fmt.Fprintf(w, "stream written to %s\n", opts.Out)
	}

	if opts.Rounds == 0 {
		return nil
	}
	start := time.Now()
	for range opts.Rounds {
		data, err := m.Dump(graph)
		if err != nil {
			return fmt.Errorf("dump: %w", err)
		}
		if _, err := m.Load(data); err != nil {
			return fmt.Errorf("load: %w", err)
		}
	}
	mean := time.Since(start) / time.Duration(opts.Rounds)
	_, err = fmt.Fprintf(w, "each dump/load cycle lasted %s over %d rounds\n", mean, opts.Rounds)
	return err
}

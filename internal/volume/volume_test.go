package volume

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeMixer clamps writes to its range like a real control does.
type fakeMixer struct {
	mu      sync.Mutex
	levels  Levels
	readErr error
	sets    []float64
}

func (f *fakeMixer) Levels(ctx context.Context) (Levels, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return Levels{}, f.readErr
	}
	return f.levels, nil
}

func (f *fakeMixer) SetDB(ctx context.Context, db float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets = append(f.sets, db)
	f.levels.CurrentDB = math.Max(f.levels.MinDB, math.Min(f.levels.MaxDB, db))
	return nil
}

type fakeEvents struct {
	ch  chan string
	err error
}

func (f *fakeEvents) Events(ctx context.Context) (<-chan string, error) {
	return f.ch, f.err
}

func newTestController(t *testing.T, levels Levels) (*Controller, *fakeMixer) {
	t.Helper()
	mixer := &fakeMixer{levels: levels}
	c, err := NewController(context.Background(), mixer, nil, "", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c, mixer
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestController_Percentage(t *testing.T) {
	c, _ := newTestController(t, Levels{MinDB: -60, MaxDB: 0, CurrentDB: -15})
	if got := c.Percentage(); !approx(got, 0.75) {
		t.Fatalf("Percentage = %v, want 0.75", got)
	}
}

func TestController_IncrementDecrementTargets(t *testing.T) {
	tests := []struct {
		name   string
		start  float64
		steps  int
		up     bool
		target float64
	}{
		{"up 5", -30, 5, true, -27},
		{"down 5", -30, 5, false, -33},
		{"up 1 floors", -30.004, 1, true, -29.41},
		{"down from max", 0, 10, false, -6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mixer := newTestController(t, Levels{MinDB: -60, MaxDB: 0, CurrentDB: tt.start})
			var err error
			if tt.up {
				err = c.Increment(context.Background(), tt.steps)
			} else {
				err = c.Decrement(context.Background(), tt.steps)
			}
			if err != nil {
				t.Fatalf("step: %v", err)
			}
			if len(mixer.sets) != 1 || !approx(mixer.sets[0], tt.target) {
				t.Fatalf("SetDB calls = %v, want [%v]", mixer.sets, tt.target)
			}
			if !approx(c.Levels().CurrentDB, tt.target) {
				t.Fatalf("cached CurrentDB = %v, want re-read %v", c.Levels().CurrentDB, tt.target)
			}
		})
	}
}

func TestController_BoundsSkipWrites(t *testing.T) {
	c, mixer := newTestController(t, Levels{MinDB: -60, MaxDB: 0, CurrentDB: 0})
	if err := c.Increment(context.Background(), 5); err != nil {
		t.Fatalf("Increment: %v", err)
	}
	c2, mixer2 := newTestController(t, Levels{MinDB: -60, MaxDB: 0, CurrentDB: -60})
	if err := c2.Decrement(context.Background(), 5); err != nil {
		t.Fatalf("Decrement: %v", err)
	}
	if len(mixer.sets) != 0 || len(mixer2.sets) != 0 {
		t.Fatalf("writes at bounds: %v %v", mixer.sets, mixer2.sets)
	}
}

func TestController_DegenerateRange(t *testing.T) {
	c, mixer := newTestController(t, Levels{MinDB: 0, MaxDB: 10, CurrentDB: 5})
	if c.Percentage() != 0 {
		t.Fatalf("Percentage = %v, want 0 for min >= 0", c.Percentage())
	}
	if err := c.Increment(context.Background(), 1); !errors.Is(err, ErrDegenerateRange) {
		t.Fatalf("Increment error = %v, want ErrDegenerateRange", err)
	}
	if len(mixer.sets) != 0 {
		t.Fatalf("unexpected writes %v", mixer.sets)
	}
}

func TestController_LoudnessStaysInRangeAfterSteps(t *testing.T) {
	ranges := []Levels{
		{MinDB: -65.25, MaxDB: 0},
		{MinDB: -100, MaxDB: -5},
		{MinDB: -20, MaxDB: 0},
		{MinDB: -40, MaxDB: 6},
	}
	for _, r := range ranges {
		for frac := 0.05; frac <= 1.0; frac += 0.1 {
			for _, steps := range []int{1, 5, 50, 200} {
				for _, up := range []bool{true, false} {
					start := r
					start.CurrentDB = r.MinDB + frac*(r.MaxDB-r.MinDB)
					c, _ := newTestController(t, start)
					var err error
					if up {
						err = c.Increment(context.Background(), steps)
					} else {
						err = c.Decrement(context.Background(), steps)
					}
					if err != nil {
						t.Fatalf("step %+v: %v", start, err)
					}
					if v := c.NormalizedLoudness(); v < 0 || v > 1 {
						t.Fatalf("NormalizedLoudness = %v out of [0,1] for %+v steps=%d up=%t", v, start, steps, up)
					}
				}
			}
		}
	}
}

func TestNormalizedLoudness_Boundaries(t *testing.T) {
	tests := []struct {
		name   string
		levels Levels
		want   float64
	}{
		{"min", Levels{MinDB: -65.25, MaxDB: 0, CurrentDB: -65.25}, 0},
		{"max", Levels{MinDB: -65.25, MaxDB: 0, CurrentDB: 0}, 1},
		{"linear midpoint", Levels{MinDB: -20, MaxDB: 0, CurrentDB: -10}, 0.5},
		{"linear at widest range", Levels{MinDB: -24, MaxDB: 0, CurrentDB: -6}, 0.75},
		{"below min clamps", Levels{MinDB: -60, MaxDB: 0, CurrentDB: -80}, 0},
		{"empty range at max", Levels{MinDB: 0, MaxDB: 0, CurrentDB: 0}, 1},
		{"inverted range", Levels{MinDB: 0, MaxDB: -5, CurrentDB: -10}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizedLoudness(tt.levels); !approx(got, tt.want) {
				t.Fatalf("NormalizedLoudness = %v, want %v", got, tt.want)
			}
		})
	}

	// The perceptual curve is monotonic and above linear in the middle.
	mid := NormalizedLoudness(Levels{MinDB: -60, MaxDB: 0, CurrentDB: -30})
	lower := NormalizedLoudness(Levels{MinDB: -60, MaxDB: 0, CurrentDB: -31})
	if !(lower < mid && mid < 0.5) {
		t.Fatalf("curve not monotonic or not perceptual: -31 -> %v, -30 -> %v", lower, mid)
	}
}

func TestController_EventsFilteredAndCoalesced(t *testing.T) {
	ch := make(chan string, 4)
	events := &fakeEvents{ch: ch}
	c, err := NewController(context.Background(), &fakeMixer{levels: Levels{MinDB: -60}}, events, "", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	ch <- "Capture Volume"
	ch <- "Headphone Playback Switch"
	close(ch)
	time.Sleep(20 * time.Millisecond)
	if c.PollEvent() {
		t.Fatal("PollEvent = true for unrelated elements")
	}

	ch2 := make(chan string, 4)
	c2, err := NewController(context.Background(), &fakeMixer{levels: Levels{MinDB: -60}}, &fakeEvents{ch: ch2}, "", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	ch2 <- DefaultControl
	select {
	case <-c2.Changed():
	case <-time.After(time.Second):
		t.Fatal("no change signal for matching element")
	}
	if c2.PollEvent() {
		t.Fatal("PollEvent = true after the signal was consumed")
	}
	close(ch2)
}

func TestController_Unavailable(t *testing.T) {
	_, err := NewController(context.Background(), &fakeMixer{readErr: errors.New("no card")}, nil, "", zerolog.Nop())
	var unavailable *MixerUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("error = %v, want *MixerUnavailableError", err)
	}

	_, err = NewController(context.Background(), &fakeMixer{levels: Levels{MinDB: -1}}, &fakeEvents{err: errors.New("alsactl missing")}, "", zerolog.Nop())
	if !errors.As(err, &unavailable) || unavailable.Op != "subscribe" {
		t.Fatalf("error = %v, want subscribe *MixerUnavailableError", err)
	}

	mixer := &fakeMixer{levels: Levels{MinDB: -60, CurrentDB: -30}}
	c, err := NewController(context.Background(), mixer, nil, "", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	mixer.readErr = errors.New("card removed")
	if err := c.Increment(context.Background(), 1); !errors.As(err, &unavailable) {
		t.Fatalf("Increment error = %v, want *MixerUnavailableError", err)
	}
}

func TestDescribe(t *testing.T) {
	got := Describe(Levels{MinDB: -65.25, MaxDB: 0, CurrentDB: -20})
	if got != "-65.25 / -20.00 / 0.00 dB" {
		t.Fatalf("Describe = %q", got)
	}
}

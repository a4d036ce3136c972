package volume

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/five82/smqueue/internal/state"
)

// DefaultControl is the element whose change events are forwarded.
const DefaultControl = "Master Playback Volume"

// linearRangeDB is the widest range shown on a linear scale.
const linearRangeDB = 24.0

// ErrDegenerateRange is returned when the mixer range cannot be stepped.
var ErrDegenerateRange = errors.New("mixer range has no negative minimum")

// Levels is a mixer reading in dB.
type Levels struct {
	MinDB     float64
	MaxDB     float64
	CurrentDB float64
}

// Mixer reads and writes one volume control.
type Mixer interface {
	Levels(ctx context.Context) (Levels, error)
	SetDB(ctx context.Context, db float64) error
}

// EventSource streams the names of mixer elements that changed. The channel
// closes when ctx is done or the source fails.
type EventSource interface {
	Events(ctx context.Context) (<-chan string, error)
}

// MixerUnavailableError reports that the mixer could not be reached.
type MixerUnavailableError struct {
	Op  string
	Err error
}

func (e *MixerUnavailableError) Error() string {
	return fmt.Sprintf("mixer %s: %v", e.Op, e.Err)
}

func (e *MixerUnavailableError) Unwrap() error {
	return e.Err
}

// Controller holds the cached volume model for the UI.
type Controller struct {
	mixer   Mixer
	control string
	log     zerolog.Logger

	mu      sync.Mutex
	levels  Levels
	percent float64

	changed state.Notifier
}

// NewController reads the mixer once and, when events is non-nil, subscribes
// to its change stream until ctx is done. Any failure is returned as a
// *MixerUnavailableError.
func NewController(ctx context.Context, mixer Mixer, events EventSource, control string, log zerolog.Logger) (*Controller, error) {
	if control == "" {
		control = DefaultControl
	}
	c := &Controller{
		mixer:   mixer,
		control: control,
		log:     log.With().Str("component", "volume").Logger(),
	}
	if _, err := c.Read(ctx); err != nil {
		return nil, err
	}
	if events != nil {
		ch, err := events.Events(ctx)
		if err != nil {
			return nil, &MixerUnavailableError{Op: "subscribe", Err: err}
		}
		go c.forward(ch)
	}
	return c, nil
}

func (c *Controller) forward(ch <-chan string) {
	for name := range ch {
		if name != c.control {
			continue
		}
		c.log.Trace().Str("element", name).Msg("mixer event")
		c.changed.Notify()
	}
	c.log.Debug().Msg("mixer event stream closed")
}

// Read refreshes the cached levels from the mixer.
func (c *Controller) Read(ctx context.Context) (Levels, error) {
	levels, err := c.mixer.Levels(ctx)
	if err != nil {
		var unavailable *MixerUnavailableError
		if errors.As(err, &unavailable) {
			return Levels{}, err
		}
		return Levels{}, &MixerUnavailableError{Op: "read", Err: err}
	}
	c.mu.Lock()
	c.levels = levels
	c.percent = percentage(levels)
	c.mu.Unlock()
	return levels, nil
}

// Increment raises the volume by steps percent of the range below zero.
func (c *Controller) Increment(ctx context.Context, steps int) error {
	return c.step(ctx, steps, true)
}

// Decrement lowers the volume by steps percent of the range below zero.
func (c *Controller) Decrement(ctx context.Context, steps int) error {
	return c.step(ctx, steps, false)
}

func (c *Controller) step(ctx context.Context, steps int, up bool) error {
	levels, err := c.Read(ctx)
	if err != nil {
		return err
	}
	if levels.MinDB >= 0 {
		return ErrDegenerateRange
	}
	p := percentage(levels)
	target, ok := stepTarget(levels.MinDB, p, steps, up)
	if !ok {
		return nil
	}
	if err := c.mixer.SetDB(ctx, target); err != nil {
		return &MixerUnavailableError{Op: "write", Err: err}
	}
	_, err = c.Read(ctx)
	return err
}

func stepTarget(minDB, p float64, steps int, up bool) (float64, bool) {
	delta := 0.01 * float64(steps)
	var target float64
	switch {
	case up && p < 1:
		target = ((1 - p) - delta) * minDB
	case !up && p > 0:
		target = ((1 - p) + delta) * minDB
	default:
		return 0, false
	}
	return math.Floor(target*100) / 100, true
}

func percentage(l Levels) float64 {
	if l.MinDB >= 0 {
		return 0
	}
	return 1 - l.CurrentDB/l.MinDB
}

// Levels returns the last read levels.
func (c *Controller) Levels() Levels {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.levels
}

// Percentage returns the cached 1 - current/min value.
func (c *Controller) Percentage() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.percent
}

// NormalizedLoudness maps the cached levels onto [0,1].
func (c *Controller) NormalizedLoudness() float64 {
	return NormalizedLoudness(c.Levels())
}

// NormalizedLoudness maps l onto a perceptual [0,1] scale.
func NormalizedLoudness(l Levels) float64 {
	if l.MaxDB <= l.MinDB {
		if l.CurrentDB >= l.MaxDB {
			return 1
		}
		return 0
	}
	var v float64
	if l.MaxDB-l.MinDB <= linearRangeDB {
		v = (l.CurrentDB - l.MinDB) / (l.MaxDB - l.MinDB)
	} else {
		curve := func(db float64) float64 { return math.Pow(10, (db-l.MaxDB)/60) }
		floor := curve(l.MinDB)
		v = (curve(l.CurrentDB) - floor) / (1 - floor)
	}
	return math.Max(0, math.Min(1, v))
}

// PollEvent reports whether a matching mixer event arrived since the last call.
func (c *Controller) PollEvent() bool {
	return c.changed.Pending()
}

// Changed receives a value while a matching mixer event is pending.
func (c *Controller) Changed() <-chan struct{} {
	return c.changed.C()
}

// Description formats the cached levels as "min / current / max dB".
func (c *Controller) Description() string {
	return Describe(c.Levels())
}

// Describe formats l as "min / current / max dB".
func Describe(l Levels) string {
	return fmt.Sprintf("%.2f / %.2f / %.2f dB", l.MinDB, l.CurrentDB, l.MaxDB)
}

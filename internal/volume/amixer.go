package volume

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// AMixer drives an ALSA control through `amixer cget` and `amixer cset`.
type AMixer struct {
	Device  string // -D argument, e.g. "default" or "hw:0"
	Control string // full control name, e.g. "Master Playback Volume"
	Run     Runner
}

var _ Mixer = (*AMixer)(nil)

// NewAMixer returns a mixer for control on device.
func NewAMixer(device, control string) *AMixer {
	if device == "" {
		device = "default"
	}
	if control == "" {
		control = DefaultControl
	}
	return &AMixer{Device: device, Control: control, Run: runCommand}
}

// controlInfo is the integer range and dB scale of one control.
type controlInfo struct {
	RawMin, RawMax int
	Value          int
	DBMin, DBStep  float64
}

func (i controlInfo) levels() Levels {
	return Levels{
		MinDB:     i.DBMin,
		MaxDB:     i.DBMin + i.DBStep*float64(i.RawMax-i.RawMin),
		CurrentDB: i.DBMin + i.DBStep*float64(i.Value-i.RawMin),
	}
}

// raw converts db to the closest control value at or below it.
func (i controlInfo) raw(db float64) int {
	if i.DBStep <= 0 {
		return i.RawMin
	}
	v := i.RawMin + int(math.Floor((db-i.DBMin)/i.DBStep+1e-9))
	return max(i.RawMin, min(i.RawMax, v))
}

func (a *AMixer) cget(ctx context.Context) (controlInfo, error) {
	out, err := a.run(ctx, "-D", a.Device, "cget", "name="+a.Control)
	if err != nil {
		return controlInfo{}, &MixerUnavailableError{Op: "read", Err: err}
	}
	info, err := parseCget(out)
	if err != nil {
		return controlInfo{}, &MixerUnavailableError{Op: "read", Err: err}
	}
	return info, nil
}

// Levels reads the control's dB range and current value.
func (a *AMixer) Levels(ctx context.Context) (Levels, error) {
	info, err := a.cget(ctx)
	if err != nil {
		return Levels{}, err
	}
	return info.levels(), nil
}

// SetDB writes the control value closest to db without exceeding it.
func (a *AMixer) SetDB(ctx context.Context, db float64) error {
	info, err := a.cget(ctx)
	if err != nil {
		return err
	}
	raw := strconv.Itoa(info.raw(db))
	if _, err := a.run(ctx, "-D", a.Device, "-q", "cset", "name="+a.Control, raw); err != nil {
		return &MixerUnavailableError{Op: "write", Err: err}
	}
	return nil
}

func (a *AMixer) run(ctx context.Context, args ...string) ([]byte, error) {
	run := a.Run
	if run == nil {
		run = runCommand
	}
	return run(ctx, "amixer", args...)
}

// parseCget reads output such as:
//
//	numid=3,iface=MIXER,name='Master Playback Volume'
//	  ; type=INTEGER,access=rw---R--,values=2,min=0,max=87,step=0
//	  : values=60,60
//	  | dBscale-min=-65.25dB,step=0.75dB,mute=0
func parseCget(out []byte) (controlInfo, error) {
	var (
		info                 controlInfo
		haveRange, haveValue bool
		haveScale            bool
	)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, ";"):
			fields := keyValues(strings.TrimPrefix(line, ";"))
			lo, errLo := strconv.Atoi(fields["min"])
			hi, errHi := strconv.Atoi(fields["max"])
			if errLo == nil && errHi == nil {
				info.RawMin, info.RawMax = lo, hi
				haveRange = true
			}
		case strings.HasPrefix(line, ":"):
			fields := keyValues(strings.TrimPrefix(line, ":"))
			first, _, _ := strings.Cut(fields["values"], ",")
			if v, err := strconv.Atoi(first); err == nil {
				info.Value = v
				haveValue = true
			}
		case strings.HasPrefix(line, "|"):
			fields := keyValues(strings.TrimPrefix(line, "|"))
			dbMin, errMin := parseDB(fields["dBscale-min"])
			step, errStep := parseDB(fields["step"])
			if errMin == nil && errStep == nil {
				info.DBMin, info.DBStep = dbMin, step
				haveScale = true
			}
		}
	}
	if !haveRange || !haveValue || !haveScale {
		return controlInfo{}, fmt.Errorf("unexpected amixer output: range=%t value=%t dBscale=%t", haveRange, haveValue, haveScale)
	}
	return info, nil
}

func keyValues(s string) map[string]string {
	fields := make(map[string]string)
	// values=60,60 contains commas, so split on the known keys instead of ','.
	parts := strings.Split(strings.TrimSpace(s), ",")
	var lastKey string
	for _, part := range parts {
		key, value, ok := strings.Cut(part, "=")
		if !ok && lastKey != "" {
			fields[lastKey] += "," + part
			continue
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
		lastKey = strings.TrimSpace(key)
	}
	return fields
}

func parseDB(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "dB"), 64)
}

// ALSAMonitor streams element names from `alsactl monitor`.
type ALSAMonitor struct {
	Card string
}

var _ EventSource = (*ALSAMonitor)(nil)

// Events starts alsactl and forwards the element name of every event line.
func (m *ALSAMonitor) Events(ctx context.Context) (<-chan string, error) {
	args := []string{"monitor"}
	if m.Card != "" {
		args = append(args, m.Card)
	}
	cmd := exec.CommandContext(ctx, "alsactl", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	ch := make(chan string, 16)
	go func() {
		defer close(ch)
		defer func() { _ = cmd.Wait() }()
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			name, ok := parseMonitorLine(scanner.Text())
			if !ok {
				continue
			}
			select {
			case ch <- name:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// parseMonitorLine extracts the element name from a line such as
// "node hw:0, #3 (2,0,0,Master Playback Volume,0) VALUE".
func parseMonitorLine(line string) (string, bool) {
	open := strings.Index(line, "(")
	end := strings.LastIndex(line, ")")
	if open < 0 || end <= open {
		return "", false
	}
	fields := strings.Split(line[open+1:end], ",")
	if len(fields) < 5 {
		return "", false
	}
	return strings.Join(fields[3:len(fields)-1], ","), true
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

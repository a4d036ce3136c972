package volume

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

const cgetOutput = `numid=3,iface=MIXER,name='Master Playback Volume'
  ; type=INTEGER,access=rw---R--,values=2,min=0,max=87,step=0
  : values=60,58
  | dBscale-min=-65.25dB,step=0.75dB,mute=0
`

func TestParseCget(t *testing.T) {
	info, err := parseCget([]byte(cgetOutput))
	if err != nil {
		t.Fatalf("parseCget: %v", err)
	}
	want := controlInfo{RawMin: 0, RawMax: 87, Value: 60, DBMin: -65.25, DBStep: 0.75}
	if info != want {
		t.Fatalf("parseCget = %+v, want %+v", info, want)
	}
	levels := info.levels()
	if levels.MinDB != -65.25 || levels.MaxDB != 0 || levels.CurrentDB != -20.25 {
		t.Fatalf("levels = %+v", levels)
	}
}

func TestParseCget_Incomplete(t *testing.T) {
	if _, err := parseCget([]byte("numid=3,iface=MIXER,name='Master Playback Switch'\n  : values=on\n")); err == nil {
		t.Fatal("expected error for a control without dB scale")
	}
}

func TestControlInfo_RawFloors(t *testing.T) {
	info := controlInfo{RawMin: 0, RawMax: 87, DBMin: -65.25, DBStep: 0.75}
	tests := []struct {
		db   float64
		want int
	}{
		{-65.25, 0},
		{-20.25, 60},
		{-20.5, 59},
		{0, 87},
		{5, 87},
		{-100, 0},
	}
	for _, tt := range tests {
		if got := info.raw(tt.db); got != tt.want {
			t.Fatalf("raw(%v) = %d, want %d", tt.db, got, tt.want)
		}
	}
}

func TestAMixer_SetDBIssuesCset(t *testing.T) {
	var calls [][]string
	m := NewAMixer("hw:0", "")
	m.Run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		calls = append(calls, append([]string{name}, args...))
		return []byte(cgetOutput), nil
	}
	if err := m.SetDB(context.Background(), -20.25); err != nil {
		t.Fatalf("SetDB: %v", err)
	}
	want := []string{"amixer", "-D", "hw:0", "-q", "cset", "name=Master Playback Volume", "60"}
	if len(calls) != 2 || !reflect.DeepEqual(calls[1], want) {
		t.Fatalf("calls = %q, want second call %q", calls, want)
	}
}

func TestAMixer_ReadFailure(t *testing.T) {
	m := NewAMixer("", "")
	m.Run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("amixer: Mixer attach default error")
	}
	_, err := m.Levels(context.Background())
	var unavailable *MixerUnavailableError
	if !errors.As(err, &unavailable) || !strings.Contains(err.Error(), "attach") {
		t.Fatalf("Levels error = %v", err)
	}
}

func TestParseMonitorLine(t *testing.T) {
	tests := []struct {
		line string
		name string
		ok   bool
	}{
		{"node hw:0, #3 (2,0,0,Master Playback Volume,0) VALUE", "Master Playback Volume", true},
		{"node hw:0, #9 (2,0,0,Weird, Name,0) VALUE", "Weird, Name", true},
		{"card 0: removed", "", false},
		{"node hw:0 (1,2)", "", false},
	}
	for _, tt := range tests {
		name, ok := parseMonitorLine(tt.line)
		if name != tt.name || ok != tt.ok {
			t.Fatalf("parseMonitorLine(%q) = %q %t, want %q %t", tt.line, name, ok, tt.name, tt.ok)
		}
	}
}

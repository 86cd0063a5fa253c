package window

import (
	"errors"
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/tunogya/ecgprep/pkg/model"
)

const beatSpacing = 10

// buildRecord creates a record with one beat every beatSpacing samples.
// symbols[i] is the label of beat i. ch1 holds the sample index, ch2 its negation.
func buildRecord(name string, symbols []string) *model.Record {
	length := beatSpacing * (len(symbols) + 1)
	ch1 := make([]float64, length)
	ch2 := make([]float64, length)
	for i := range ch1 {
		ch1[i] = float64(i)
		ch2[i] = -float64(i)
	}

	annotations := make([]model.Annotation, len(symbols))
	for i, s := range symbols {
		annotations[i] = model.Annotation{Sample: model.SamplePos(beatSpacing * i), Symbol: s}
	}

	return &model.Record{
		Name:   name,
		Fs:     360,
		Length: length,
		Signal: [2]model.Channel{
			{Name: "MLII", Units: "mV", Values: ch1},
			{Name: "V5", Units: "mV", Values: ch2},
		},
		Annotations: annotations,
	}
}

// symbolsWith returns n normal beats with "V" at the given beat positions
func symbolsWith(n int, bad ...int) []string {
	symbols := make([]string, n)
	for i := range symbols {
		symbols[i] = "N"
	}
	for _, b := range bad {
		symbols[b] = "V"
	}
	return symbols
}

func newTestExtractor(t *testing.T, f, l, c int, seed uint64) *Extractor {
	t.Helper()
	e, err := NewExtractor(Config{FeatureNBeats: f, LeadNBeats: l, ForecastNBeats: c}, "run", rand.New(rand.NewPCG(seed, seed)))
	if err != nil {
		t.Fatalf("NewExtractor failed: %v", err)
	}
	return e
}

func countLabels(windows []model.WindowPair) (normal, arrhythmic int) {
	for _, w := range windows {
		switch w.Label {
		case model.LabelNormal:
			normal++
		case model.LabelArrhythmic:
			arrhythmic++
		}
	}
	return normal, arrhythmic
}

func TestExtractSingleBadBeat(t *testing.T) {
	// F=2, L=1, C=2 -> offL=4, offR=29; bad beat 12
	rec := buildRecord("100", symbolsWith(30, 12))
	e := newTestExtractor(t, 2, 1, 2, 1)

	windows, err := e.Extract(rec)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	normal, arrhythmic := countLabels(windows)
	if arrhythmic != 2 || normal != 2 {
		t.Fatalf("got %d normal / %d arrhythmic, want 2 / 2", normal, arrhythmic)
	}

	// pos=0: forecast [12,13], feature [9,10]; pos=1: forecast [11,12], feature [8,9]
	if windows[0].Start != 90 || windows[0].End != 100 {
		t.Errorf("first arrhythmic window = [%d,%d), want [90,100)", windows[0].Start, windows[0].End)
	}
	if windows[1].Start != 80 || windows[1].End != 90 {
		t.Errorf("second arrhythmic window = [%d,%d), want [80,90)", windows[1].Start, windows[1].End)
	}

	used := map[int]bool{11: true, 12: true, 13: true}
	for _, w := range windows[2:] {
		if w.Label != model.LabelNormal {
			t.Fatalf("expected normal windows after arrhythmic ones, got %s", w.Label)
		}
		// feature window starts at w1L-L-F = w1L-3
		w1L := int(w.Start)/beatSpacing + 3
		if w1L < 4 || w1L+1 > 28 {
			t.Errorf("normal forecast window [%d,%d] outside valid offsets", w1L, w1L+1)
		}
		if used[w1L] || used[w1L+1] {
			t.Errorf("normal forecast window [%d,%d] overlaps a used endpoint", w1L, w1L+1)
		}
	}
}

func TestExtractWindowShape(t *testing.T) {
	rec := buildRecord("101", symbolsWith(60, 20, 35, 41))
	e := newTestExtractor(t, 4, 2, 3, 3)

	windows, err := e.Extract(rec)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(windows) == 0 {
		t.Fatalf("expected windows")
	}

	for _, w := range windows {
		rows, cols := w.Signal.Dims()
		if cols != 2 {
			t.Errorf("window %s has %d columns, want 2", w.ID, cols)
		}
		// F beats span F-1 inter-beat intervals
		if rows != beatSpacing*(4-1) || w.Length != rows {
			t.Errorf("window %s: rows=%d length=%d, want %d", w.ID, rows, w.Length, beatSpacing*3)
		}
		if int(w.End-w.Start) != rows {
			t.Errorf("window %s: sample span %d != rows %d", w.ID, w.End-w.Start, rows)
		}
		// ch1 holds the sample index, ch2 its negation
		if w.Signal.At(0, 0) != float64(w.Start) || w.Signal.At(0, 1) != -float64(w.Start) {
			t.Errorf("window %s does not start at sample %d", w.ID, w.Start)
		}
	}
}

func TestExtractBalance(t *testing.T) {
	tests := []struct {
		name    string
		symbols []string
		f, l, c int
		want    int // windows per class
	}{
		// F=2,L=0,C=1: bad 3..8 give 6 arrhythmic, pool {2,9} gives 2 normal
		{"normal scarce", symbolsWith(10, 3, 4, 5, 6, 7, 8), 2, 0, 1, 2},
		// every beat bad: pool is fully used
		{"no normal pool", symbolsWith(12, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11), 2, 0, 2, 0},
		{"no bad beats", symbolsWith(40), 3, 1, 2, 0},
		// bad beat before offL is ignored
		{"bad beat too early", symbolsWith(40, 2), 3, 1, 2, 0},
		// bad beat at offR is ignored
		{"bad beat too late", symbolsWith(40, 39), 3, 1, 2, 0},
		{"too few beats", symbolsWith(5, 4), 3, 1, 2, 0},
		{"many candidates", symbolsWith(80, 30, 50), 5, 2, 3, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExtractor(t, tt.f, tt.l, tt.c, 11)
			windows, err := e.Extract(buildRecord("r", tt.symbols))
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			normal, arrhythmic := countLabels(windows)
			if normal != arrhythmic {
				t.Errorf("unbalanced: %d normal vs %d arrhythmic", normal, arrhythmic)
			}
			if normal != tt.want {
				t.Errorf("got %d windows per class, want %d", normal, tt.want)
			}
		})
	}
}

func TestExtractDownsamplesArrhythmic(t *testing.T) {
	rec := buildRecord("102", symbolsWith(10, 3, 4, 5, 6, 7, 8))
	e := newTestExtractor(t, 2, 0, 1, 5)

	windows, err := e.Extract(rec)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	// feature window of bad beat b is [b-2, b-1]
	valid := map[model.SamplePos]bool{10: true, 20: true, 30: true, 40: true, 50: true, 60: true}
	seen := map[model.SamplePos]bool{}
	for _, w := range windows {
		if w.Label != model.LabelArrhythmic {
			continue
		}
		if !valid[w.Start] {
			t.Errorf("unexpected arrhythmic window start %d", w.Start)
		}
		if seen[w.Start] {
			t.Errorf("arrhythmic window %d sampled twice", w.Start)
		}
		seen[w.Start] = true
	}

	// normal forecast beats are 2 and 9 -> feature windows start at beats 0 and 7
	var normals []model.SamplePos
	for _, w := range windows {
		if w.Label == model.LabelNormal {
			normals = append(normals, w.Start)
		}
	}
	if len(normals) != 2 || !(normals[0] == 0 && normals[1] == 70 || normals[0] == 70 && normals[1] == 0) {
		t.Errorf("normal windows start at %v, want 0 and 70", normals)
	}
}

func TestExtractDeterministic(t *testing.T) {
	symbols := symbolsWith(200, 20, 45, 46, 90, 150, 151, 152)

	run := func() []model.WindowPair {
		e := newTestExtractor(t, 10, 5, 5, 42)
		windows, err := e.Extract(buildRecord("103", symbols))
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		return windows
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Start != b[i].Start || a[i].Label != b[i].Label {
			t.Fatalf("window %d differs: %+v vs %+v", i, a[i], b[i])
		}
		if !reflect.DeepEqual(a[i].Column(model.Ch1), b[i].Column(model.Ch1)) {
			t.Fatalf("window %d content differs", i)
		}
	}
}

func TestExtractFeatureWindowOfOneBeat(t *testing.T) {
	// a single-beat feature window spans no samples
	rec := buildRecord("104", symbolsWith(20, 10))
	e := newTestExtractor(t, 1, 0, 1, 2)

	windows, err := e.Extract(rec)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(windows) != 2 {
		t.Fatalf("got %d windows, want 2", len(windows))
	}
	for _, w := range windows {
		if w.Length != 0 || !w.Signal.IsEmpty() {
			t.Errorf("window %s: length %d, want empty", w.ID, w.Length)
		}
	}
}

func TestExtractCustomExclude(t *testing.T) {
	symbols := symbolsWith(40, 20)
	symbols[25] = "A"

	e, err := NewExtractor(Config{FeatureNBeats: 3, LeadNBeats: 1, ForecastNBeats: 1, ExcludeOnly: []string{"N", "V"}},
		"run", rand.New(rand.NewPCG(1, 1)))
	if err != nil {
		t.Fatalf("NewExtractor failed: %v", err)
	}

	windows, err := e.Extract(buildRecord("105", symbols))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	for _, w := range windows {
		// only beat 25 is bad: feature window [21,23] -> samples [210,230)
		if w.IsArrhythmic() && w.Start != 210 {
			t.Errorf("arrhythmic window starts at %d, want 210", w.Start)
		}
	}
	if _, arrhythmic := countLabels(windows); arrhythmic != 1 {
		t.Errorf("got %d arrhythmic windows, want 1", arrhythmic)
	}
}

func TestNewExtractorRejectsInvalidConfig(t *testing.T) {
	configs := []Config{
		{FeatureNBeats: 0, LeadNBeats: 0, ForecastNBeats: 1},
		{FeatureNBeats: 1, LeadNBeats: -1, ForecastNBeats: 1},
		{FeatureNBeats: 1, LeadNBeats: 0, ForecastNBeats: 0},
	}
	for _, cfg := range configs {
		if _, err := NewExtractor(cfg, "run", rand.New(rand.NewPCG(1, 1))); !errors.Is(err, ErrInvalidWindow) {
			t.Errorf("config %+v: expected ErrInvalidWindow, got %v", cfg, err)
		}
	}
}

func TestExtractRejectsBeatsOutsideSignal(t *testing.T) {
	rec := buildRecord("106", symbolsWith(20, 10))
	rec.Annotations = append(rec.Annotations, model.Annotation{Sample: model.SamplePos(rec.Length + 5), Symbol: "N"})

	e := newTestExtractor(t, 2, 1, 1, 1)
	if _, err := e.Extract(rec); err == nil {
		t.Errorf("expected error for beat past the end of the signal")
	}
}

func TestBeatMap(t *testing.T) {
	m := NewBeatMap([]model.SamplePos{5, 17, 30, 44})

	if m.Len() != 4 {
		t.Fatalf("Len = %d, want 4", m.Len())
	}
	got := m.Positions([]model.SamplePos{17, 44, 99})
	if !reflect.DeepEqual(got, []model.BeatPos{1, 3}) {
		t.Errorf("Positions = %v, want [1 3]", got)
	}
	start, end := m.Samples(Span{Left: 1, Right: 3})
	if start != 17 || end != 44 {
		t.Errorf("Samples = [%d,%d), want [17,44)", start, end)
	}
}

func TestExtractRejectsUnorderedBeats(t *testing.T) {
	rec := buildRecord("107", symbolsWith(30, 12))
	rec.Annotations[9].Sample, rec.Annotations[10].Sample = rec.Annotations[10].Sample, rec.Annotations[9].Sample

	e := newTestExtractor(t, 2, 1, 2, 1)
	if _, err := e.Extract(rec); err == nil {
		t.Errorf("expected error for annotations out of sample order")
	}
}

func TestExtractWindowIDsDependOnRun(t *testing.T) {
	rec := buildRecord("108", symbolsWith(30, 12))
	cfg := Config{FeatureNBeats: 2, LeadNBeats: 1, ForecastNBeats: 2}

	ids := make(map[string]bool)
	for _, runID := range []string{"run-a", "run-b"} {
		e, err := NewExtractor(cfg, runID, rand.New(rand.NewPCG(1, 1)))
		if err != nil {
			t.Fatalf("NewExtractor failed: %v", err)
		}
		windows, err := e.Extract(rec)
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		for _, w := range windows {
			if ids[w.ID] {
				t.Fatalf("window ID %s reused across runs", w.ID)
			}
			ids[w.ID] = true
		}
	}
}

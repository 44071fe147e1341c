package schedule

import (
	"errors"
	"math"
	"testing"
)

func mustDecode(t *testing.T, seg Segment) Signature {
	t.Helper()
	sig, err := Decode(seg)
	if err != nil {
		t.Fatalf("Decode(%+v): %v", seg, err)
	}
	return sig
}

func kinds(t *testing.T, sig Signature) []BeatKind {
	t.Helper()
	out := make([]BeatKind, 0, sig.BeatsInMeasure)
	for i := 0; i < sig.BeatsInMeasure; i++ {
		kind, err := sig.BeatKind(i)
		if err != nil {
			t.Fatalf("BeatKind(%d): %v", i, err)
		}
		out = append(out, kind)
	}
	return out
}

func equalKinds(a, b []BeatKind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDecodeCommonTime(t *testing.T) {
	sig := mustDecode(t, Segment{Numerator: 4, Denominator: 4, BPM: 120, Measures: 1})
	if sig.BeatDurationMs != 500 {
		t.Fatalf("beat duration = %v, want 500", sig.BeatDurationMs)
	}
	if sig.MeasureDurationMs != 2000 {
		t.Fatalf("measure duration = %v, want 2000", sig.MeasureDurationMs)
	}
	if sig.BeatsInMeasure != 4 {
		t.Fatalf("beats in measure = %d, want 4", sig.BeatsInMeasure)
	}
	if sig.OffsetMs != 0 {
		t.Fatalf("offset = %d, want 0", sig.OffsetMs)
	}
	want := []BeatKind{BeatDown, BeatUp, BeatUp, BeatUp}
	if got := kinds(t, sig); !equalKinds(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	if got := sig.BeatDurationMs * float64(sig.BeatsInMeasure); got != sig.MeasureDurationMs {
		t.Fatalf("unpromoted beat*beats = %v, want measure duration %v", got, sig.MeasureDurationMs)
	}
	if sig.Label() != "4/4" {
		t.Fatalf("label = %q", sig.Label())
	}
}

func TestDecodeSubdivisionWithoutPromotion(t *testing.T) {
	sig := mustDecode(t, Segment{Numerator: 6, Denominator: 8, BPM: 120, Measures: 1, SubBeatMultiplier: 3})
	if sig.BeatsInMeasure != 6 {
		t.Fatalf("beats in measure = %d, want 6", sig.BeatsInMeasure)
	}
	want := []BeatKind{BeatDown, BeatUp, BeatUp, BeatSub, BeatUp, BeatUp}
	if got := kinds(t, sig); !equalKinds(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	if sig.Promoted() {
		t.Fatal("expected no promotion")
	}
}

func TestDecodeSubdivisionPromoted(t *testing.T) {
	sig := mustDecode(t, Segment{Numerator: 6, Denominator: 8, BPM: 120, Measures: 1, SubBeatMultiplier: 3, SubBeatsAsUpbeats: true})
	if sig.BeatsInMeasure != 2 {
		t.Fatalf("beats in measure = %d, want 2", sig.BeatsInMeasure)
	}
	if sig.BPM != 40 {
		t.Fatalf("effective bpm = %v, want 40", sig.BPM)
	}
	if sig.BeatDurationMs != 1500 {
		t.Fatalf("effective beat duration = %v, want 1500", sig.BeatDurationMs)
	}
	if sig.MeasureDurationMs != 3000 {
		t.Fatalf("measure duration = %v, want nominal 3000", sig.MeasureDurationMs)
	}
	if got := sig.NominalBeatDurationMs * float64(sig.BeatsInMeasure); got == sig.MeasureDurationMs {
		t.Fatalf("nominal beat * promoted beats should not equal nominal measure duration, got %v", got)
	}
	want := []BeatKind{BeatDown, BeatUp}
	if got := kinds(t, sig); !equalKinds(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	if sig.Label() != "6/8 (in 2)" {
		t.Fatalf("label = %q", sig.Label())
	}
}

func TestDecodePromotionIgnoredWithoutMultiplier(t *testing.T) {
	sig := mustDecode(t, Segment{Numerator: 3, Denominator: 4, BPM: 90, Measures: 2, SubBeatsAsUpbeats: true})
	if sig.SubBeatsAsUpbeats || sig.Promoted() {
		t.Fatal("promotion must be forced off without a multiplier")
	}
	if sig.BeatsInMeasure != 3 || sig.BPM != 90 {
		t.Fatalf("unexpected rescale: beats=%d bpm=%v", sig.BeatsInMeasure, sig.BPM)
	}
}

func TestDecodeSubdivisionMismatch(t *testing.T) {
	pairs := []struct{ numerator, multiplier int }{
		{7, 3}, {5, 2}, {4, 3}, {9, 2}, {3, 6},
	}
	for _, p := range pairs {
		for _, promote := range []bool{false, true} {
			_, err := Decode(Segment{Numerator: p.numerator, Denominator: 8, BPM: 100, Measures: 1, SubBeatMultiplier: p.multiplier, SubBeatsAsUpbeats: promote})
			if !errors.Is(err, ErrSubdivisionMismatch) {
				t.Fatalf("numerator=%d multiplier=%d promote=%v: err = %v, want ErrSubdivisionMismatch", p.numerator, p.multiplier, promote, err)
			}
		}
	}
}

func TestDecodeRejectsInvalidSegments(t *testing.T) {
	cases := map[string]Segment{
		"zero numerator":      {Numerator: 0, Denominator: 4, BPM: 120, Measures: 1},
		"zero denominator":    {Numerator: 4, Denominator: 0, BPM: 120, Measures: 1},
		"negative bpm":        {Numerator: 4, Denominator: 4, BPM: -1, Measures: 1},
		"nan bpm":             {Numerator: 4, Denominator: 4, BPM: math.NaN(), Measures: 1},
		"zero measures":       {Numerator: 4, Denominator: 4, BPM: 120, Measures: 0},
		"negative multiplier": {Numerator: 4, Denominator: 4, BPM: 120, Measures: 1, SubBeatMultiplier: -2},
	}
	for name, seg := range cases {
		if _, err := Decode(seg); !errors.Is(err, ErrInvalidSegment) {
			t.Fatalf("%s: err = %v, want ErrInvalidSegment", name, err)
		}
	}
}

func TestFirstBeatAlwaysDown(t *testing.T) {
	for numerator := 1; numerator <= 12; numerator++ {
		for multiplier := 0; multiplier <= numerator; multiplier++ {
			if multiplier != 0 && numerator%multiplier != 0 {
				continue
			}
			for _, promote := range []bool{false, true} {
				sig := mustDecode(t, Segment{Numerator: numerator, Denominator: 4, BPM: 100, Measures: 1, SubBeatMultiplier: multiplier, SubBeatsAsUpbeats: promote})
				if sig.BeatsInMeasure <= 0 {
					t.Fatalf("beats in measure must be positive, got %d", sig.BeatsInMeasure)
				}
				kind, err := sig.BeatKind(0)
				if err != nil || kind != BeatDown {
					t.Fatalf("numerator=%d multiplier=%d promote=%v: beat 0 = %q, %v", numerator, multiplier, promote, kind, err)
				}
			}
		}
	}
}

func TestBeatKindIsStable(t *testing.T) {
	sig := mustDecode(t, Segment{Numerator: 9, Denominator: 8, BPM: 132, Measures: 1, SubBeatMultiplier: 3})
	for i := 0; i < sig.BeatsInMeasure; i++ {
		first, err1 := sig.BeatKind(i)
		second, err2 := sig.BeatKind(i)
		if err1 != nil || err2 != nil || first != second {
			t.Fatalf("beat %d: %q/%v then %q/%v", i, first, err1, second, err2)
		}
	}
}

func TestBeatKindOutOfRange(t *testing.T) {
	sig := mustDecode(t, Segment{Numerator: 6, Denominator: 8, BPM: 120, Measures: 1, SubBeatMultiplier: 3, SubBeatsAsUpbeats: true})
	for _, idx := range []int{2, 6, -1} {
		if _, err := sig.BeatKind(idx); !errors.Is(err, ErrBeatIndexOutOfRange) {
			t.Fatalf("BeatKind(%d) err = %v, want ErrBeatIndexOutOfRange", idx, err)
		}
	}
}

func TestClassifyBeatPlainFunction(t *testing.T) {
	got, err := ClassifyBeat(8, 4, false, 4)
	if err != nil || got != BeatSub {
		t.Fatalf("ClassifyBeat(8,4,false,4) = %q, %v", got, err)
	}
	got, err = ClassifyBeat(8, 4, false, 5)
	if err != nil || got != BeatUp {
		t.Fatalf("ClassifyBeat(8,4,false,5) = %q, %v", got, err)
	}
}

package vitals

import (
	"reflect"
	"testing"
)

func TestMerge_Appends(t *testing.T) {
	existing := &Vitals{HeartRate: []float64{70}, SpO2: []float64{98}}
	incoming := &Vitals{HeartRate: []float64{72}, ECG: []float64{0.1, 0.2}}

	merged := Merge(existing, incoming)

	if !reflect.DeepEqual(merged.HeartRate, []float64{70, 72}) {
		t.Errorf("expected heart rate [70 72], got %v", merged.HeartRate)
	}
	if !reflect.DeepEqual(merged.SpO2, []float64{98}) {
		t.Errorf("expected spo2 [98], got %v", merged.SpO2)
	}
	if !reflect.DeepEqual(merged.ECG, []float64{0.1, 0.2}) {
		t.Errorf("expected ecg [0.1 0.2], got %v", merged.ECG)
	}
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	existing := &Vitals{HeartRate: []float64{70}}
	incoming := &Vitals{HeartRate: []float64{72}}

	Merge(existing, incoming)

	if len(existing.HeartRate) != 1 || len(incoming.HeartRate) != 1 {
		t.Error("expected inputs to be left untouched")
	}
}

func TestMerge_NilInputs(t *testing.T) {
	merged := Merge(nil, &Vitals{HeartRate: []float64{60}})
	if !reflect.DeepEqual(merged.HeartRate, []float64{60}) {
		t.Errorf("expected [60], got %v", merged.HeartRate)
	}

	merged = Merge(&Vitals{HeartRate: []float64{60}}, nil)
	if !reflect.DeepEqual(merged.HeartRate, []float64{60}) {
		t.Errorf("expected [60], got %v", merged.HeartRate)
	}

	if got := Merge(nil, nil); !got.IsEmpty() {
		t.Errorf("expected empty vitals, got %+v", got)
	}
}

// Serial merges must equal the concatenation of all appended series in call
// order.
func TestMerge_SerialConcatenation(t *testing.T) {
	state := &Vitals{}
	for i := 0; i < 5; i++ {
		state = Merge(state, &Vitals{HeartRate: []float64{float64(60 + i)}})
	}

	want := []float64{60, 61, 62, 63, 64}
	if !reflect.DeepEqual(state.HeartRate, want) {
		t.Errorf("expected %v, got %v", want, state.HeartRate)
	}
}

func TestIsEmpty(t *testing.T) {
	if !(&Vitals{}).IsEmpty() {
		t.Error("expected empty vitals to report empty")
	}
	if (&Vitals{SpO2: []float64{97}}).IsEmpty() {
		t.Error("expected non-empty vitals to report non-empty")
	}
}

package vitals

// Vitals holds the three independent sample series recorded for a user.
// Each series is ordered by recording time; updates only ever append.
type Vitals struct {
	ECG       []float64 `json:"ecg"`
	HeartRate []float64 `json:"heartRate"`
	SpO2      []float64 `json:"spo2"`
}

// Merge returns existing with incoming's samples appended to each series.
// Order within each series is preserved and nothing is removed, so applying
// a sequence of merges concatenates the series in call order. Nil receivers
// are treated as empty.
func Merge(existing, incoming *Vitals) *Vitals {
	merged := &Vitals{}
	if existing != nil {
		merged.ECG = append(merged.ECG, existing.ECG...)
		merged.HeartRate = append(merged.HeartRate, existing.HeartRate...)
		merged.SpO2 = append(merged.SpO2, existing.SpO2...)
	}
	if incoming != nil {
		merged.ECG = append(merged.ECG, incoming.ECG...)
		merged.HeartRate = append(merged.HeartRate, incoming.HeartRate...)
		merged.SpO2 = append(merged.SpO2, incoming.SpO2...)
	}
	return merged
}

// IsEmpty reports whether no series has any sample.
func (v *Vitals) IsEmpty() bool {
	return v == nil || len(v.ECG) == 0 && len(v.HeartRate) == 0 && len(v.SpO2) == 0
}

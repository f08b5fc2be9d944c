package timer

// Keys written into a Sink on exit
const (
	KeyElapsed          = "elapsed"
	KeyElapsedFormatted = "elapsed_formatted"
	KeyUnit             = "unit"
)

// Sink is a caller-owned result slot. The timer writes the three Key*
// entries on exit and never reads or removes anything.
type Sink map[string]any

// Elapsed returns the "elapsed" entry
func (s Sink) Elapsed() (float64, bool) {
	v, ok := s[KeyElapsed].(float64)
	return v, ok
}

// Formatted returns the "elapsed_formatted" entry, a float64 or a string
func (s Sink) Formatted() any {
	return s[KeyElapsedFormatted]
}

// Unit returns the "unit" entry
func (s Sink) Unit() string {
	v, _ := s[KeyUnit].(string)
	return v
}

func (s Sink) write(m Measurement) {
	s[KeyElapsed] = m.Elapsed
	s[KeyElapsedFormatted] = m.Formatted()
	s[KeyUnit] = m.Unit
}

// asSink validates a caller-supplied sink value
func asSink(v any) (Sink, error) {
	switch s := v.(type) {
	case Sink:
		if s == nil {
			return nil, &ConfigurationError{Reason: "sink argument should be a non-nil map"}
		}
		return s, nil
	case map[string]any:
		if s == nil {
			return nil, &ConfigurationError{Reason: "sink argument should be a non-nil map"}
		}
		return Sink(s), nil
	default:
		return nil, &ConfigurationError{Reason: "sink argument should be a map[string]any"}
	}
}

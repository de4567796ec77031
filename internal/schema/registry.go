package schema

import "fmt"

// FeeRate is a fee fraction expressed in basis points of notional.
// Negative values are rebates.
type FeeRate int32

// InstrumentSpec describes one tradable instrument on the venue.
type InstrumentSpec struct {
	Instrument Instrument
	Name       string
	TickSize   Price
	LotSize    Volume
	MakerFee   FeeRate
	TakerFee   FeeRate
}

// Registry stores the instrument set for a session in a compact form.
type Registry struct {
	specs  []InstrumentSpec
	byName map[string]Instrument
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Instrument)}
}

// Add registers an instrument spec.
func (r *Registry) Add(spec InstrumentSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("instrument name is empty")
	}
	if spec.TickSize <= 0 {
		return fmt.Errorf("instrument %s: tick size must be positive", spec.Name)
	}
	if spec.LotSize <= 0 {
		return fmt.Errorf("instrument %s: lot size must be positive", spec.Name)
	}
	if _, ok := r.byName[spec.Name]; ok {
		return fmt.Errorf("instrument already exists: %s", spec.Name)
	}
	for _, existing := range r.specs {
		if existing.Instrument == spec.Instrument {
			return fmt.Errorf("instrument id already exists: %d", spec.Instrument)
		}
	}
	r.specs = append(r.specs, spec)
	r.byName[spec.Name] = spec.Instrument
	return nil
}

// Spec returns the spec for an instrument.
func (r *Registry) Spec(inst Instrument) (InstrumentSpec, bool) {
	for _, spec := range r.specs {
		if spec.Instrument == inst {
			return spec, true
		}
	}
	return InstrumentSpec{}, false
}

// ByName returns the instrument for a name.
func (r *Registry) ByName(name string) (Instrument, bool) {
	inst, ok := r.byName[name]
	return inst, ok
}

// Count returns the number of registered instruments.
func (r *Registry) Count() int {
	return len(r.specs)
}

// At returns the spec by zero-based index.
func (r *Registry) At(index int) (InstrumentSpec, bool) {
	if index < 0 || index >= len(r.specs) {
		return InstrumentSpec{}, false
	}
	return r.specs[index], true
}

package session

import (
	"fmt"
	"sort"

	"github.com/san-kum/fdmsim/internal/aircraft"
	"github.com/san-kum/fdmsim/internal/integrators"
)

// Registry maps aircraft and integrator names to constructors.
type Registry struct {
	aircraft map[string]func(integrators.Integrator) aircraft.Model
}

func NewRegistry() *Registry {
	r := &Registry{
		aircraft: make(map[string]func(integrators.Integrator) aircraft.Model),
	}

	r.aircraft["generic"] = func(in integrators.Integrator) aircraft.Model {
		return aircraft.NewGeneric(aircraft.DefaultParams(), in)
	}
	r.aircraft["generic_twin"] = func(in integrators.Integrator) aircraft.Model {
		p := aircraft.DefaultParams()
		p.EmptyMass = 1400
		p.Engines = 2
		p.MaxThrust = 2000
		for i := range p.Gear {
			p.Gear[i].Stiffness *= 1.4
		}
		return aircraft.NewGeneric(p, in)
	}

	return r
}

// Factory returns a constructor for the named aircraft. Every model gets
// its own integrator instance.
func (r *Registry) Factory(name, integrator string) (aircraft.Factory, error) {
	fn, ok := r.aircraft[name]
	if !ok {
		return nil, fmt.Errorf("unknown aircraft: %s", name)
	}
	if _, err := integrators.New(integrator); err != nil {
		return nil, err
	}
	return func() aircraft.Model {
		in, _ := integrators.New(integrator)
		return fn(in)
	}, nil
}

func (r *Registry) ListAircraft() []string {
	names := make([]string, 0, len(r.aircraft))
	for name := range r.aircraft {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListIntegrators() []string {
	return integrators.Names()
}

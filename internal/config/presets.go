package config

import "sort"

func base(name string, bodies ...BodyConfig) *Scenario {
	sc := DefaultScenario()
	sc.Name = name
	sc.Bodies = bodies
	return sc
}

var Presets = map[string]*Scenario{
	// A planet on a circular orbit around a fixed sun.
	"circular": base("circular",
		BodyConfig{Name: "sun", Mass: 333, Fixed: true},
		BodyConfig{Name: "planet", Mass: 1, Parent: "sun", Orbit: &OrbitConfig{Radius: 20}},
	),
	// The same planet with no parent: it orbits the origin.
	"rootless": base("rootless",
		BodyConfig{Name: "planet", Mass: 1, Mu: 333.0 / 334.0, Position: [3]float64{20, 0, 0}, Velocity: [3]float64{0, 0.22327, 0}},
	),
	"solar": base("solar",
		BodyConfig{Name: "sun", Mass: 999, Fixed: true},
		BodyConfig{Name: "mercury", Mass: 0.05, Parent: "sun", Orbit: &OrbitConfig{Radius: 8}},
		BodyConfig{Name: "venus", Mass: 0.8, Parent: "sun", Orbit: &OrbitConfig{Radius: 14, Phase: 2.1}},
		BodyConfig{Name: "earth", Mass: 1, Parent: "sun", Orbit: &OrbitConfig{Radius: 20, Phase: 4.0}},
		BodyConfig{Name: "mars", Mass: 0.1, Parent: "sun", Orbit: &OrbitConfig{Radius: 30, Phase: 1.0}},
	),
	"moons": base("moons",
		BodyConfig{Name: "sun", Mass: 333, Fixed: true},
		BodyConfig{Name: "earth", Mass: 1, Parent: "sun", Orbit: &OrbitConfig{Radius: 20}},
		BodyConfig{Name: "moon", Mass: 0.0123, Parent: "earth", Mu: 0.05, Orbit: &OrbitConfig{Radius: 1.5}},
		BodyConfig{Name: "jupiter", Mass: 10, Parent: "sun", Orbit: &OrbitConfig{Radius: 40, Phase: 3.14}},
		BodyConfig{Name: "io", Mass: 0.01, Parent: "jupiter", Mu: 0.4, Orbit: &OrbitConfig{Radius: 2}},
		BodyConfig{Name: "europa", Mass: 0.008, Parent: "jupiter", Mu: 0.4, Orbit: &OrbitConfig{Radius: 3, Phase: 1.57}},
	),
}

// GetPreset returns a copy of a built-in scenario, or nil.
func GetPreset(name string) *Scenario {
	sc, ok := Presets[name]
	if !ok {
		return nil
	}
	cp := *sc
	cp.Bodies = make([]BodyConfig, len(sc.Bodies))
	for i, b := range sc.Bodies {
		if b.Orbit != nil {
			o := *b.Orbit
			b.Orbit = &o
		}
		cp.Bodies[i] = b
	}
	return &cp
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package scene

// AmbientLight lights every surface equally.
type AmbientLight struct {
	Object3D
	Color     Color
	Intensity float64
}

// NewAmbientLight creates an ambient light.
func NewAmbientLight(c Color, intensity float64) *AmbientLight {
	l := &AmbientLight{Color: c, Intensity: intensity}
	l.init(l, "AmbientLight")
	return l
}

// PointLight emits from its world position in all directions.
type PointLight struct {
	Object3D
	Color     Color
	Intensity float64
	// Distance is the cutoff range; 0 means unlimited.
	Distance float64
	// Decay is the exponent of the distance falloff; 0 disables falloff.
	Decay float64
}

// NewPointLight creates a point light with no falloff.
func NewPointLight(c Color, intensity float64) *PointLight {
	l := &PointLight{Color: c, Intensity: intensity}
	l.init(l, "PointLight")
	return l
}

// Attenuation returns the falloff factor at distance d.
func (l *PointLight) Attenuation(d float64) float64 {
	if l.Distance > 0 && d >= l.Distance {
		return 0
	}
	if l.Decay == 0 || d <= 0 {
		return 1
	}
	f := 1.0
	if l.Distance > 0 {
		r := d / l.Distance
		f = 1 - r*r*r*r
		f *= f
	}
	return f / max(1, pow(d, l.Decay))
}

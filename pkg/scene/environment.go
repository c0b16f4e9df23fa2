package scene

import (
	"math"

	"github.com/taigrr/orbitview/pkg/math3d"
)

// Panel is a bright emitter on the inside of a RoomEnvironment, seen from
// the room center as a disc of angular Radius (radians) around Direction.
type Panel struct {
	Direction math3d.Vec3
	Radius    float64
	Radiance  Color
}

// RoomEnvironment is a procedural studio room: neutral walls, a darker
// floor and a few light panels. It stands in for an HDR environment map.
type RoomEnvironment struct {
	Wall   Color
	Floor  Color
	Panels []Panel
}

// NewRoomEnvironment returns the default room: one ceiling light and three
// softer panels around the walls.
func NewRoomEnvironment() *RoomEnvironment {
	return &RoomEnvironment{
		Wall:  Color{0.22, 0.22, 0.22},
		Floor: Color{0.12, 0.12, 0.12},
		Panels: []Panel{
			{Direction: math3d.V3(0, 1, 0), Radius: 0.55, Radiance: Color{1.6, 1.6, 1.6}},
			{Direction: math3d.V3(-1, 0.6, 0.3).Normalize(), Radius: 0.35, Radiance: Color{1.1, 1.1, 1.1}},
			{Direction: math3d.V3(1, 0.5, -0.4).Normalize(), Radius: 0.35, Radiance: Color{1.1, 1.1, 1.1}},
			{Direction: math3d.V3(0.2, 0.4, 1).Normalize(), Radius: 0.3, Radiance: Color{0.9, 0.9, 0.9}},
		},
	}
}

// Radiance returns the light arriving at the room center from direction d.
// blur widens every panel by that many radians.
func (r *RoomEnvironment) Radiance(d math3d.Vec3, blur float64) Color {
	d = d.Normalize()
	c := r.Wall
	if d.Y < -0.2 {
		c = r.Floor
	}
	for _, p := range r.Panels {
		angle := math.Acos(math3d.Clamp(d.Dot(p.Direction), -1, 1))
		radius := p.Radius + blur
		if angle < radius {
			// Soft edge over the outer fifth of the disc.
			edge := math3d.Clamp((radius-angle)/(0.2*radius), 0, 1)
			c = c.Add(p.Radiance.Scale(edge))
		}
	}
	return c
}

const (
	envThetaSteps = 16
	envPhiSteps   = 9
	envSamples    = 512
)

// Environment is diffuse irradiance pre-integrated from a RoomEnvironment,
// stored as a latitude/longitude table.
type Environment struct {
	table [envPhiSteps][envThetaSteps]Color
}

// NewEnvironment pre-filters a room into cosine-weighted irradiance.
// sigma blurs the room's panels before integration.
func NewEnvironment(room *RoomEnvironment, sigma float64) *Environment {
	samples := fibonacciSphere(envSamples)
	radiance := make([]Color, len(samples))
	for i, d := range samples {
		radiance[i] = room.Radiance(d, sigma)
	}

	env := &Environment{}
	// Each sample covers 4π/N steradians; dividing by π gives irradiance
	// normalized so a uniform white room yields 1.
	weight := 4.0 / float64(len(samples))
	for pi := range envPhiSteps {
		for ti := range envThetaSteps {
			n := cellNormal(pi, ti)
			var sum Color
			for i, d := range samples {
				if cos := n.Dot(d); cos > 0 {
					sum = sum.Add(radiance[i].Scale(cos))
				}
			}
			env.table[pi][ti] = sum.Scale(weight)
		}
	}
	return env
}

// Irradiance returns the diffuse light reaching a surface with normal n.
func (e *Environment) Irradiance(n math3d.Vec3) Color {
	s := math3d.SphericalFromVec3(n)
	if s.Radius == 0 {
		return Color{}
	}

	fp := s.Phi / math.Pi * float64(envPhiSteps-1)
	ft := (s.Theta + math.Pi) / (2 * math.Pi) * float64(envThetaSteps)

	p0 := int(math.Floor(fp))
	p1 := min(p0+1, envPhiSteps-1)
	t0 := int(math.Floor(ft))
	tp, tt := fp-float64(p0), ft-float64(t0)
	t0 = ((t0 % envThetaSteps) + envThetaSteps) % envThetaSteps
	t1 := (t0 + 1) % envThetaSteps

	top := lerpColor(e.table[p0][t0], e.table[p0][t1], tt)
	bot := lerpColor(e.table[p1][t0], e.table[p1][t1], tt)
	return lerpColor(top, bot, tp)
}

func cellNormal(pi, ti int) math3d.Vec3 {
	return math3d.Spherical{
		Radius: 1,
		Phi:    float64(pi) / float64(envPhiSteps-1) * math.Pi,
		Theta:  float64(ti)/float64(envThetaSteps)*2*math.Pi - math.Pi,
	}.Vec3()
}

// fibonacciSphere spreads n nearly uniform unit vectors over the sphere.
func fibonacciSphere(n int) []math3d.Vec3 {
	golden := math.Pi * (3 - math.Sqrt(5))
	out := make([]math3d.Vec3, n)
	for i := range n {
		y := 1 - (float64(i)+0.5)/float64(n)*2
		r := math.Sqrt(1 - y*y)
		s, c := math.Sincos(golden * float64(i))
		out[i] = math3d.V3(c*r, y, s*r)
	}
	return out
}

func lerpColor(a, b Color, t float64) Color {
	return a.Add(b.Sub(a).Scale(t))
}

package impulse

import "github.com/go-gl/mathgl/mgl64"

// Environment holds the physical properties of the medium the bodies move in
type Environment struct {
	// Gravity is the surface gravity magnitude (m/s²)
	Gravity float64
	// AirDensity is the density of the atmosphere (kg/m³), 0 disables the drag
	AirDensity float64
}

func Earth() Environment {
	return Environment{Gravity: 9.81, AirDensity: 1.225}
}

func Moon() Environment {
	return Environment{Gravity: 1.62, AirDensity: 0}
}

func Mars() Environment {
	return Environment{Gravity: 3.71, AirDensity: 0.020}
}

func Jupiter() Environment {
	return Environment{Gravity: 24.79, AirDensity: 1.326}
}

// Vacuum has neither gravity nor air
func Vacuum() Environment {
	return Environment{}
}

// GravityVector returns the acceleration pointing against up
func (e Environment) GravityVector(up mgl64.Vec3) mgl64.Vec3 {
	if up.LenSqr() == 0 {
		return mgl64.Vec3{}
	}
	return up.Normalize().Mul(-e.Gravity)
}

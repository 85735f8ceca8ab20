package gates

import (
	"fmt"
	"math"
	"math/cmplx"

	"qcirc"
	"qcirc/backend"
)

func expi(x float64) complex128 { return cmplx.Exp(complex(0, x)) }

func (r *Registry) single(name string, m [2][2]complex128) Gate {
	return build(name, backend.FromRows(r.be, [][]complex128{m[0][:], m[1][:]}))
}

// Phase is diag(1, e^{iφ}).
func (r *Registry) Phase(phi float64) Gate {
	return r.single(fmt.Sprintf("p(%.4g)", phi), [2][2]complex128{{1, 0}, {0, expi(phi)}})
}

// RX rotates by theta about the X axis.
func (r *Registry) RX(theta float64) Gate {
	c, s := complex(math.Cos(theta/2), 0), complex(0, -math.Sin(theta/2))
	return r.single(fmt.Sprintf("rx(%.4g)", theta), [2][2]complex128{{c, s}, {s, c}})
}

// RY rotates by theta about the Y axis.
func (r *Registry) RY(theta float64) Gate {
	c, s := complex(math.Cos(theta/2), 0), complex(math.Sin(theta/2), 0)
	return r.single(fmt.Sprintf("ry(%.4g)", theta), [2][2]complex128{{c, -s}, {s, c}})
}

// RZ rotates by theta about the Z axis.
func (r *Registry) RZ(theta float64) Gate {
	return r.single(fmt.Sprintf("rz(%.4g)", theta), [2][2]complex128{{expi(-theta / 2), 0}, {0, expi(theta / 2)}})
}

// U3 is the general single-qubit rotation of OpenQASM.
func (r *Registry) U3(theta, phi, lambda float64) Gate {
	c, s := math.Cos(theta/2), math.Sin(theta/2)
	return r.single(fmt.Sprintf("u3(%.4g,%.4g,%.4g)", theta, phi, lambda), [2][2]complex128{
		{complex(c, 0), -expi(lambda) * complex(s, 0)},
		{expi(phi) * complex(s, 0), expi(phi+lambda) * complex(c, 0)},
	})
}

// Parametric resolves a rotation by name: rx, ry, rz, p (alias u1) and u3.
func (r *Registry) Parametric(name string, params ...float64) (Gate, error) {
	want := 1
	if name == "u3" {
		want = 3
	}
	switch name {
	case "rx", "ry", "rz", "p", "u1", "u3":
	default:
		return Gate{}, fmt.Errorf("%w: unknown parameterised gate %q", qcirc.ErrInvalidOperand, name)
	}
	if len(params) != want {
		return Gate{}, fmt.Errorf("%w: %s takes %d parameters, got %d", qcirc.ErrInvalidOperand, name, want, len(params))
	}
	switch name {
	case "rx":
		return r.RX(params[0]), nil
	case "ry":
		return r.RY(params[0]), nil
	case "rz":
		return r.RZ(params[0]), nil
	case "p", "u1":
		return r.Phase(params[0]), nil
	}
	return r.U3(params[0], params[1], params[2]), nil
}

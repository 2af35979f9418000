package eos

import (
	"math"

	"eoscalc/quantity"
)

// Raw SI property helpers used by the solvers. NaN propagates here and
// is converted into DomainError at the public accessors.

func (s *State) pressureSI(c Contributions) float64 { return -s.aV(c) }

func (s *State) dpdvSI(c Contributions) float64 { return -s.aVV(c) }

func (s *State) dpdtSI(c Contributions) float64 { return -s.aTV(c) }

func (s *State) dpdnSI(c Contributions, i int) float64 { return -s.aVN(c, i) }

func (s *State) muSI(c Contributions, i int) float64 { return s.aN(c, i) }

func (s *State) entropySI(c Contributions) float64 { return -s.aT(c) }

func (s *State) internalEnergySI(c Contributions) float64 { return s.a0(c) - s.t*s.aT(c) }

func (s *State) enthalpySI(c Contributions) float64 {
	return s.a0(c) - s.t*s.aT(c) - s.v*s.aV(c)
}

func (s *State) gibbsSI(c Contributions) float64 { return s.a0(c) - s.v*s.aV(c) }

func (s *State) cvSI(c Contributions) float64 { return -s.t * s.aTT(c) }

func (s *State) cpSI(c Contributions) float64 {
	atv := s.aTV(c)
	return s.cvSI(c) + s.t*atv*atv/s.aVV(c)
}

// partialMolarVolumeSI is (dV/dn_i) at fixed T, p.
func (s *State) partialMolarVolumeSI(i int) float64 {
	return -s.aVN(Total, i) / s.aVV(Total)
}

// lnPhiSI is the log fugacity coefficient of every component,
// mu_i^res/(RT) - ln Z.
func (s *State) lnPhiSI() []float64 {
	z := s.compressibilitySI()
	out := make([]float64, len(s.moles))
	for i := range out {
		out[i] = s.muSI(Residual, i)/(RGas*s.t) - math.Log(z)
	}
	return out
}

func (s *State) compressibilitySI() float64 {
	return s.pressureSI(Total) * s.v / (s.n * RGas * s.t)
}

// dLnPhiDpSI is the pressure derivative of ln phi_i at fixed T, x.
func (s *State) dLnPhiDpSI(i int) float64 {
	return s.partialMolarVolumeSI(i)/(RGas*s.t) - 1/s.pressureSI(Total)
}

// dLnPhiDtSI is the temperature derivative of ln phi_i at fixed p, x.
func (s *State) dLnPhiDtSI(i int) float64 {
	rt := RGas * s.t
	dvdt := -s.aTV(Total) / s.aVV(Total)
	return (s.aTN(Residual, i)+s.aVN(Residual, i)*dvdt)/rt -
		s.muSI(Residual, i)/(rt*s.t) - dvdt/s.v + 1/s.t
}

// dLnPhiDnSI is the mole-number derivative of ln phi_i at fixed T, p.
func (s *State) dLnPhiDnSI(i, j int) float64 {
	rt := RGas * s.t
	vj := s.partialMolarVolumeSI(j)
	return (s.aNN(Residual, i, j)+s.aVN(Residual, i)*vj)/rt - vj/s.v + 1/s.n
}

// checkSI converts a possibly-NaN evaluation into a DomainError.
func checkSI(v float64, property string, unit quantity.Scalar) (quantity.Scalar, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return quantity.Scalar{}, &DomainError{Property: property}
	}
	return quantity.New(v, unit), nil
}

// Pressure is -dA/dV at fixed T, n.
func (s *State) Pressure(c Contributions) (quantity.Scalar, error) {
	return checkSI(s.pressureSI(c), "pressure", quantity.Pascal)
}

// DpDV is the volume derivative of the pressure at fixed T, n.
func (s *State) DpDV(c Contributions) (quantity.Scalar, error) {
	return checkSI(s.dpdvSI(c), "dp/dV", quantity.Pascal.Div(quantity.CubicMeter))
}

// DpDT is the temperature derivative of the pressure at fixed V, n.
func (s *State) DpDT(c Contributions) (quantity.Scalar, error) {
	return checkSI(s.dpdtSI(c), "dp/dT", quantity.Pascal.Div(quantity.Kelvin))
}

// ChemicalPotential is dA/dn_i at fixed T, V and the other mole
// numbers.
func (s *State) ChemicalPotential(c Contributions) (quantity.Vector, error) {
	mu := make([]float64, len(s.moles))
	for i := range mu {
		mu[i] = s.muSI(c, i)
		if math.IsNaN(mu[i]) {
			return quantity.Vector{}, &DomainError{Property: "chemical potential"}
		}
	}
	return quantity.NewVector(mu, quantity.JoulePerMole), nil
}

// LnPhi is the log fugacity coefficient of every component.
func (s *State) LnPhi() ([]float64, error) {
	lnphi := s.lnPhiSI()
	for _, v := range lnphi {
		if math.IsNaN(v) {
			return nil, &DomainError{Property: "ln phi"}
		}
	}
	return lnphi, nil
}

func (s *State) Entropy(c Contributions) (quantity.Scalar, error) {
	return checkSI(s.entropySI(c), "entropy", quantity.JoulePerKelvin)
}

func (s *State) MolarEntropy(c Contributions) (quantity.Scalar, error) {
	return checkSI(s.entropySI(c)/s.n, "molar entropy", quantity.JoulePerMoleKelvin)
}

func (s *State) Enthalpy(c Contributions) (quantity.Scalar, error) {
	return checkSI(s.enthalpySI(c), "enthalpy", quantity.Joule)
}

func (s *State) MolarEnthalpy(c Contributions) (quantity.Scalar, error) {
	return checkSI(s.enthalpySI(c)/s.n, "molar enthalpy", quantity.JoulePerMole)
}

func (s *State) InternalEnergy(c Contributions) (quantity.Scalar, error) {
	return checkSI(s.internalEnergySI(c), "internal energy", quantity.Joule)
}

func (s *State) GibbsEnergy(c Contributions) (quantity.Scalar, error) {
	return checkSI(s.gibbsSI(c), "Gibbs energy", quantity.Joule)
}

// HelmholtzEnergy is the Helmholtz energy itself.
func (s *State) HelmholtzEnergy(c Contributions) (quantity.Scalar, error) {
	return checkSI(s.a0(c), "Helmholtz energy", quantity.Joule)
}

// IsochoricHeatCapacity is cv = -T d2A/dT2.
func (s *State) IsochoricHeatCapacity(c Contributions) (quantity.Scalar, error) {
	return checkSI(s.cvSI(c), "isochoric heat capacity", quantity.JoulePerKelvin)
}

// IsobaricHeatCapacity is cp = cv + T (d2A/dTdV)^2 / (d2A/dV2).
func (s *State) IsobaricHeatCapacity(c Contributions) (quantity.Scalar, error) {
	return checkSI(s.cpSI(c), "isobaric heat capacity", quantity.JoulePerKelvin)
}

func (s *State) MolarIsochoricHeatCapacity(c Contributions) (quantity.Scalar, error) {
	return checkSI(s.cvSI(c)/s.n, "molar cv", quantity.JoulePerMoleKelvin)
}

func (s *State) MolarIsobaricHeatCapacity(c Contributions) (quantity.Scalar, error) {
	return checkSI(s.cpSI(c)/s.n, "molar cp", quantity.JoulePerMoleKelvin)
}

// totalMassSI in kg.
func (s *State) totalMassSI() float64 {
	mw := s.eos.MolarWeight()
	m := 0.0
	for i, mi := range s.moles {
		m += mi * mw[i]
	}
	return m
}

// MassDensity is the mass density of the mixture.
func (s *State) MassDensity() quantity.Scalar {
	return quantity.New(s.totalMassSI()/s.v, quantity.KilogramPerCubicMeter)
}

// SpeedOfSound is w = sqrt((cp/cv) (dp/drho_m)_T) with the mass
// density rho_m, using (dp/drho_m)_T = V^2 (d2A/dV2) / m.
func (s *State) SpeedOfSound() (quantity.Scalar, error) {
	cv := s.cvSI(Total)
	cp := s.cpSI(Total)
	w2 := cp / cv * s.aVV(Total) * s.v * s.v / s.totalMassSI()
	if w2 < 0 {
		return quantity.Scalar{}, &DomainError{Property: "speed of sound"}
	}
	return checkSI(math.Sqrt(w2), "speed of sound", quantity.MeterPerSecond)
}

// IsothermalCompressibility is -(1/V)(dV/dp)_T,n computed from dp/dV as
// 1/(V d2A/dV2).
func (s *State) IsothermalCompressibility() (quantity.Scalar, error) {
	return checkSI(1/(s.v*s.aVV(Total)), "isothermal compressibility", quantity.PerPascal)
}

// IsentropicCompressibility is kappa_T cv/cp.
func (s *State) IsentropicCompressibility() (quantity.Scalar, error) {
	k := s.cvSI(Total) / (s.cpSI(Total) * s.v * s.aVV(Total))
	return checkSI(k, "isentropic compressibility", quantity.PerPascal)
}

// JouleThomsonCoefficient is (dT/dp)_H = -(V + T (dp/dT)/(dp/dV))/cp.
func (s *State) JouleThomsonCoefficient() (quantity.Scalar, error) {
	mu := -(s.v + s.t*s.aTV(Total)/s.aVV(Total)) / s.cpSI(Total)
	return checkSI(mu, "Joule-Thomson coefficient", quantity.KelvinPerPascal)
}

// CompressibilityFactor is pV/(nRT).
func (s *State) CompressibilityFactor() (float64, error) {
	z := s.compressibilitySI()
	if math.IsNaN(z) {
		return 0, &DomainError{Property: "compressibility factor"}
	}
	return z, nil
}

// Package components provides the physical models of an EV powertrain.
//
// Each model is a small stateful value owned by exactly one powertrain
// engine:
//
//   - [Battery]: energy reservoir with state of charge, temperature and health
//   - [Motor]: torque/speed to electrical power through an [EfficiencyModel]
//   - [Inverter]: DC/AC conversion with a load-dependent efficiency curve
//   - [Transmission]: per-gear ratio chain between wheel and motor shaft
//
// Runtime operations never fail. Out-of-range inputs are clamped and
// degenerate cases resolve to zero-valued results. Only the constructors
// return errors, all of which wrap [ErrInvalidParameter].
//
// # Heuristics
//
// The thermal, health and efficiency formulas are approximations. Their
// coefficients and clamp thresholds are part of the model's contract and
// are kept exactly as documented on each method.
package components

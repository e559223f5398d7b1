// Package powertrain implements the per-tick energy balance of an electric
// vehicle.
//
// An [Engine] owns one battery, motor, inverter and transmission and
// advances them together. Each call to [Engine.Step]:
//
//  1. Kinematics - limit the requested acceleration to [-3, +2] m/s² and
//     integrate speed and distance (trapezoidal).
//  2. Force balance - aerodynamic drag, rolling resistance and inertia.
//  3. Power flow - positive mechanical power is drawn from the battery
//     through motor and inverter; negative power is partly recovered
//     through the inverter into the battery.
//  4. Housekeeping - battery health and thermal relaxation, every tick.
//
// A tick never fails. An energy shortfall de-rates the vehicle speed after
// the position has already been advanced, so the reduction becomes visible
// one tick late.
//
// # Thread Safety
//
// Engine instances are NOT thread-safe and must be stepped from a single
// goroutine. Independent engines share nothing and may run in parallel.
package powertrain

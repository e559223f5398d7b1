package powertrain_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/evtwin/internal/components"
	"github.com/san-kum/evtwin/internal/powertrain"
)

var _ = Describe("Engine", func() {
	var eng *powertrain.Engine

	BeforeEach(func() {
		var err error
		eng, err = powertrain.New(powertrain.DefaultParams())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("construction", func() {
		It("starts at rest with a full battery", func() {
			Expect(eng.SpeedKmph()).To(BeZero())
			Expect(eng.DistanceKm()).To(BeZero())
			Expect(eng.TimeMinutes()).To(BeZero())
			Expect(eng.Battery().SOCPercent()).To(BeNumerically("~", 100, 1e-9))
			Expect(eng.Motor().Variant()).To(Equal(powertrain.MotorPMSM))
		})

		DescribeTable("rejects invalid parameters",
			func(mutate func(*powertrain.Params)) {
				p := powertrain.DefaultParams()
				mutate(&p)
				_, err := powertrain.New(p)
				Expect(err).To(HaveOccurred())
				Expect(errors.Is(err, components.ErrInvalidParameter)).To(BeTrue())
			},
			Entry("zero capacity", func(p *powertrain.Params) { p.CapacityKWh = 0 }),
			Entry("negative voltage", func(p *powertrain.Params) { p.NominalVoltage = -400 }),
			Entry("zero motor power", func(p *powertrain.Params) { p.MaxPowerKW = 0 }),
			Entry("inverter above one", func(p *powertrain.Params) { p.PeakEfficiency = 1.2 }),
			Entry("empty gearbox", func(p *powertrain.Params) { p.GearRatios = nil }),
			Entry("zero mass", func(p *powertrain.Params) { p.MassKg = 0 }),
			Entry("negative drag area", func(p *powertrain.Params) { p.DragArea = -0.7 }),
			Entry("regen fraction above one", func(p *powertrain.Params) { p.RegenFraction = 1.5 }),
			Entry("unknown motor variant", func(p *powertrain.Params) { p.MotorVariant = "diesel" }),
		)

		It("names the failing component", func() {
			p := powertrain.DefaultParams()
			p.CapacityKWh = 0
			_, err := powertrain.New(p)
			Expect(err).To(MatchError(ContainSubstring("battery:")))

			var pe *components.ParamError
			Expect(errors.As(err, &pe)).To(BeTrue())
			Expect(pe.Field).To(Equal("capacity_kwh"))
		})

		It("builds a generic motor on request", func() {
			p := powertrain.DefaultParams()
			p.MotorVariant = powertrain.MotorGeneric
			e, err := powertrain.New(p)
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Motor().Variant()).To(Equal(powertrain.MotorGeneric))
		})
	})

	Describe("Step", func() {
		It("accelerates from rest toward the target", func() {
			rec := eng.Step(50, 0.1)

			Expect(rec.SpeedKmph).To(BeNumerically(">", 0))
			Expect(rec.SpeedKmph).To(BeNumerically("<", 50))
			// acceleration clamps at 2 m/s² for 6 s
			Expect(rec.SpeedKmph).To(BeNumerically("~", 43.2, 1e-9))
			Expect(rec.DistanceKm).To(BeNumerically("~", 0.036, 1e-9))
			Expect(rec.TimeMinutes).To(BeNumerically("~", 0.1, 1e-12))
			Expect(rec.MechanicalPowerKW).To(BeNumerically(">", 0))
			Expect(rec.Regen).To(BeFalse())
			Expect(rec.EnergyDrawnKWh).To(BeNumerically(">", 0))
			Expect(rec.BatteryEnergyKWh).To(BeNumerically("<", 50))
			Expect(rec.Gear).To(Equal(1))
		})

		It("recovers energy while decelerating", func() {
			eng.Battery().SetEnergyKWh(25)
			eng.SetSpeedKmph(80)
			before := eng.Battery().EnergyKWh()

			rec := eng.Step(0, 0.1)

			Expect(rec.Regen).To(BeTrue())
			Expect(rec.MechanicalPowerKW).To(BeNumerically("<", 0))
			Expect(rec.ShaftPowerKW).To(BeZero())
			Expect(rec.ElectricalPowerKW).To(BeNumerically("<", 0))
			Expect(rec.DCPowerKW).To(BeNumerically("<", 0))
			Expect(rec.EnergyRegenKWh).To(BeNumerically(">", 0))
			Expect(rec.BatteryEnergyKWh).To(BeNumerically(">", before))
			Expect(rec.SpeedKmph).To(BeNumerically("<", 80))
		})

		DescribeTable("coasts to a stop recovering energy on every braking tick",
			func(dt float64) {
				eng.Battery().SetEnergyKWh(25)
				eng.SetSpeedKmph(80)

				energy := eng.Battery().EnergyKWh()
				speed := eng.SpeedKmph()
				maxDrop := -powertrain.MaxDecelMPS2 * dt * 60 * 3.6
				regenTicks := 0
				for i := 0; i < 10000 && eng.SpeedKmph() > 0; i++ {
					rec := eng.Step(0, dt)
					Expect(speed - rec.SpeedKmph).To(BeNumerically("<=", maxDrop+1e-9))
					speed = rec.SpeedKmph
					if rec.Regen {
						regenTicks++
						Expect(rec.BatteryEnergyKWh).To(BeNumerically(">=", energy))
						Expect(rec.EnergyRegenKWh).To(BeNumerically(">=", 0))
					}
					Expect(rec.EnergyDrawnKWh).To(BeZero())
					energy = rec.BatteryEnergyKWh
				}

				Expect(eng.SpeedKmph()).To(BeZero())
				Expect(regenTicks).To(BeNumerically(">", 0))
				Expect(eng.Battery().EnergyKWh()).To(BeNumerically(">", 25))
			},
			Entry("dt 0.01 min", 0.01),
			Entry("dt 0.05 min", 0.05),
			Entry("dt 0.1 min", 0.1),
		)

		It("never overfills a full battery on regen", func() {
			eng.SetSpeedKmph(80)
			rec := eng.Step(0, 0.1)

			Expect(rec.Regen).To(BeTrue())
			Expect(rec.EnergyRegenKWh).To(BeZero())
			Expect(rec.BatteryEnergyKWh).To(BeNumerically("~", 50, 1e-9))
		})

		It("keeps distance and time monotonic", func() {
			targets := []float64{0, 20, 60, 90, 90, 40, 0, 0, 30, 110, 0}
			var last powertrain.Record
			for _, v := range targets {
				rec := eng.Step(v, 0.5)
				Expect(rec.DistanceKm).To(BeNumerically(">=", last.DistanceKm))
				Expect(rec.TimeMinutes).To(BeNumerically(">", last.TimeMinutes))
				Expect(rec.SpeedKmph).To(BeNumerically(">=", 0))
				Expect(rec.BatterySOCPercent).To(BeNumerically(">=", 0))
				Expect(rec.BatterySOCPercent).To(BeNumerically("<=", 100))
				last = rec
			}
		})

		It("de-rates speed when the battery is starved", func() {
			eng.Battery().SetEnergyKWh(0)

			rec := eng.Step(50, 0.1)

			Expect(rec.ShortfallFraction).To(BeNumerically("~", 1, 1e-12))
			Expect(rec.Starved()).To(BeTrue())
			Expect(rec.EnergyDrawnKWh).To(BeZero())
			// distance integrates the un-derated speed
			Expect(rec.DistanceKm).To(BeNumerically("~", 0.036, 1e-9))
			Expect(rec.SpeedKmph).To(BeNumerically("~", 43.2*0.5, 1e-9))
		})

		It("tolerates a zero time step", func() {
			rec := eng.Step(50, 0)

			Expect(rec.SpeedKmph).To(BeZero())
			Expect(rec.DistanceKm).To(BeZero())
			Expect(rec.TimeMinutes).To(BeZero())
			Expect(math.IsNaN(rec.DCPowerKW)).To(BeFalse())
			Expect(math.IsNaN(rec.MotorTorqueNm)).To(BeFalse())
			Expect(rec.BatteryEnergyKWh).To(BeNumerically("~", 50, 1e-9))
		})

		It("holds still with a zero target", func() {
			rec := eng.Step(0, 0.5)

			Expect(rec.SpeedKmph).To(BeZero())
			Expect(rec.DistanceKm).To(BeZero())
			Expect(rec.MechanicalPowerKW).To(BeZero())
			Expect(rec.BatteryEnergyKWh).To(BeNumerically("~", 50, 1e-9))
			Expect(rec.BatteryTempC).To(BeNumerically("~", 25, 1e-9))
		})

		It("follows the transmission's current gear", func() {
			eng.Transmission().SetGear(3)
			rec := eng.Step(50, 0.1)
			Expect(rec.Gear).To(Equal(3))
		})
	})

	Describe("Info", func() {
		It("snapshots every component", func() {
			s := eng.Info()
			Expect(s.MassKg).To(Equal(powertrain.DefaultMassKg))
			Expect(s.Battery).To(HaveKey("soc_percent"))
			Expect(s.Motor).To(HaveKeyWithValue("variant", "pmsm"))
			Expect(s.Inverter).NotTo(BeEmpty())
			Expect(s.Transmission).NotTo(BeEmpty())

			names := []string{}
			for _, c := range s.Components() {
				names = append(names, c.Name)
			}
			Expect(names).To(Equal([]string{"battery", "motor", "inverter", "transmission"}))
		})
	})
})

package measurements_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"stockgraph/src/domain/entities"
	"stockgraph/src/domain/measurements"
)

var _ = Describe("Normalize", func() {
	Context("measurement resolution", func() {
		When("the input declares a valid measurement", func() {
			It("keeps the declared measurement", func() {
				block := measurements.Normalize(entities.Document{"measurement": "weight", "amount": 3.0}, entities.MeasurementQuantity)

				Expect(block.Measurement).To(Equal(entities.MeasurementWeight))
				Expect(block.Amount).To(Equal(3.0))
			})
		})

		When("the input declares an invalid measurement", func() {
			It("falls back to the default", func() {
				block := measurements.Normalize(entities.Document{"measurement": "bananas"}, entities.MeasurementVolume)

				Expect(block.Measurement).To(Equal(entities.MeasurementVolume))
			})
		})

		When("both input and default are invalid", func() {
			It("falls back to quantity", func() {
				block := measurements.Normalize(entities.Document{}, entities.Measurement("nope"))

				Expect(block.Measurement).To(Equal(entities.MeasurementQuantity))
			})
		})
	})

	Context("amount resolution", func() {
		It("prefers amount over quantity", func() {
			block := measurements.Normalize(entities.Document{"amount": 7.0, "quantity": 2.0}, entities.MeasurementQuantity)

			Expect(block.Amount).To(Equal(7.0))
		})

		It("falls back to quantity", func() {
			block := measurements.Normalize(entities.Document{"quantity": 2.0}, entities.MeasurementQuantity)

			Expect(block.Amount).To(Equal(2.0))
		})

		It("defaults to zero when neither is numeric", func() {
			block := measurements.Normalize(entities.Document{"amount": "muito"}, entities.MeasurementQuantity)

			Expect(block.Amount).To(BeZero())
		})

		It("accepts integer values from documents built in Go", func() {
			block := measurements.Normalize(entities.Document{"quantity": 2}, entities.MeasurementQuantity)

			Expect(block.Amount).To(Equal(2.0))
		})
	})

	Context("unit and parallel axes", func() {
		It("copies unit and axis fields through", func() {
			block := measurements.Normalize(entities.Document{
				"measurement": "weight",
				"amount":      1.5,
				"unit":        "kg",
				"weight":      1.5,
				"weightUnit":  "kg",
				"length":      10.0,
			}, entities.MeasurementQuantity)

			Expect(block.Unit).To(Equal("kg"))
			Expect(block.Weight).To(HaveValue(Equal(1.5)))
			Expect(block.WeightUnit).To(HaveValue(Equal("kg")))
			Expect(block.Length).To(HaveValue(Equal(10.0)))
			Expect(block.Volume).To(BeNil())
		})

		It("treats a non-string unit as empty", func() {
			block := measurements.Normalize(entities.Document{"unit": 12}, entities.MeasurementQuantity)

			Expect(block.Unit).To(Equal(""))
		})
	})

	Context("idempotence", func() {
		It("yields the same block when normalized twice", func() {
			input := entities.Document{
				"measurement":     "volume",
				"amount":          4.0,
				"unit":            "l",
				"volume":          4.0,
				"volumeUnit":      "l",
				"conversionRatio": 0.5,
			}

			once := measurements.Normalize(input, entities.MeasurementQuantity)
			twice := measurements.Normalize(measurements.BlockToDocument(once), entities.MeasurementQuantity)

			Expect(twice).To(Equal(once))
		})
	})
})

var _ = Describe("CreateConfig", func() {
	When("the input declares a measurement", func() {
		It("does not infer from axes", func() {
			block := measurements.CreateConfig(entities.Document{
				"measurement": "quantity",
				"amount":      2.0,
				"weight":      9.0,
			}, entities.MeasurementQuantity)

			Expect(block.Measurement).To(Equal(entities.MeasurementQuantity))
			Expect(block.Amount).To(Equal(2.0))
		})
	})

	When("no measurement is declared", func() {
		It("infers the first strictly positive axis in priority order", func() {
			block := measurements.CreateConfig(entities.Document{
				"weight": 3.0,
				"length": 5.0,
			}, entities.MeasurementQuantity)

			// volume vem antes, mas está ausente; weight vence length.
			Expect(block.Measurement).To(Equal(entities.MeasurementWeight))
			Expect(block.Amount).To(Equal(3.0))
		})

		It("ignores zero-valued axes", func() {
			block := measurements.CreateConfig(entities.Document{
				"volume": 0.0,
				"area":   2.5,
			}, entities.MeasurementQuantity)

			Expect(block.Measurement).To(Equal(entities.MeasurementArea))
		})

		It("keeps the default when every axis is zero", func() {
			block := measurements.CreateConfig(entities.Document{
				"volume": 0.0,
				"weight": 0.0,
			}, entities.MeasurementLength)

			Expect(block.Measurement).To(Equal(entities.MeasurementLength))
			Expect(block.Amount).To(BeZero())
		})

		It("does not override an explicit amount with the axis value", func() {
			block := measurements.CreateConfig(entities.Document{
				"amount": 10.0,
				"weight": 3.0,
			}, entities.MeasurementQuantity)

			Expect(block.Measurement).To(Equal(entities.MeasurementWeight))
			Expect(block.Amount).To(Equal(10.0))
		})
	})
})

var _ = Describe("InferPositiveAxis", func() {
	It("reports the winning axis", func() {
		m, ok := measurements.InferPositiveAxis(entities.Document{"volume": 1.0, "weight": 2.0})

		Expect(ok).To(BeTrue())
		Expect(m).To(Equal(entities.MeasurementVolume))
	})

	It("reports no axis when nothing is positive", func() {
		_, ok := measurements.InferPositiveAxis(entities.Document{"quantity": 0.0})

		Expect(ok).To(BeFalse())
	})
})

// Package measurements normaliza payloads de medição de formas livres
// (legados, HTTP, migração) para o bloco canônico. Funções puras, sem efeito
// colateral; Normalize é idempotente.
package measurements

import (
	"stockgraph/src/domain/entities"
)

// Normalize maps a free-form measurement input to the canonical block.
//
// Rule order:
//  1. measurement <- input.measurement when present and valid, else def when
//     valid, else "quantity".
//  2. amount <- first numeric of input.amount, input.quantity, else 0.
//  3. unit <- input.unit when string, else "".
//  4. Parallel axis fields are copied through when present.
func Normalize(input entities.Document, def entities.Measurement) entities.MeasurementBlock {
	block := entities.MeasurementBlock{
		Measurement: resolveMeasurement(input, def),
	}

	if amount, ok := numberField(input, "amount"); ok {
		block.Amount = amount
	} else if qty, ok := numberField(input, "quantity"); ok {
		block.Amount = qty
	}

	if unit, ok := input["unit"].(string); ok {
		block.Unit = unit
	}

	copyAxes(input, &block)
	return block
}

// CreateConfig é o Normalize usado na migração: quando o input não declara o
// discriminador, infere pelo primeiro eixo estritamente positivo na ordem
// volume, weight, area, length, quantity. Sem eixo positivo, vale o default.
func CreateConfig(input entities.Document, def entities.Measurement) entities.MeasurementBlock {
	block := Normalize(input, def)

	if declared, ok := input["measurement"].(string); ok && entities.IsValidMeasurement(declared) {
		return block
	}

	inferred, value, ok := inferAxis(input)
	if !ok {
		return block
	}

	block.Measurement = inferred
	if block.Amount == 0 {
		block.Amount = value
	}
	return block
}

// InferPositiveAxis expõe a regra de inferência para quem precisa escolher um
// default antes de normalizar (conversão de embutidos na migração).
func InferPositiveAxis(input entities.Document) (entities.Measurement, bool) {
	m, _, ok := inferAxis(input)
	return m, ok
}

func resolveMeasurement(input entities.Document, def entities.Measurement) entities.Measurement {
	if raw, ok := input["measurement"].(string); ok && entities.IsValidMeasurement(raw) {
		return entities.Measurement(raw)
	}
	if entities.IsValidMeasurement(string(def)) {
		return def
	}
	return entities.MeasurementQuantity
}

// inferAxis returns the first strictly positive axis, in fixed priority order.
func inferAxis(input entities.Document) (entities.Measurement, float64, bool) {
	order := []struct {
		key string
		m   entities.Measurement
	}{
		{"volume", entities.MeasurementVolume},
		{"weight", entities.MeasurementWeight},
		{"area", entities.MeasurementArea},
		{"length", entities.MeasurementLength},
		{"quantity", entities.MeasurementQuantity},
	}

	for _, axis := range order {
		if v, ok := numberField(input, axis.key); ok && v > 0 {
			return axis.m, v, true
		}
	}
	return "", 0, false
}

func copyAxes(input entities.Document, block *entities.MeasurementBlock) {
	block.Quantity = floatPtrField(input, "quantity")
	block.Weight = floatPtrField(input, "weight")
	block.Length = floatPtrField(input, "length")
	block.Area = floatPtrField(input, "area")
	block.Volume = floatPtrField(input, "volume")
	block.ConversionRatio = floatPtrField(input, "conversionRatio")

	block.WeightUnit = stringPtrField(input, "weightUnit")
	block.LengthUnit = stringPtrField(input, "lengthUnit")
	block.AreaUnit = stringPtrField(input, "areaUnit")
	block.VolumeUnit = stringPtrField(input, "volumeUnit")
}

func numberField(input entities.Document, key string) (float64, bool) {
	v, ok := input[key]
	if !ok {
		return 0, false
	}
	return entities.AsFloat(v)
}

func floatPtrField(input entities.Document, key string) *float64 {
	if v, ok := numberField(input, key); ok {
		return &v
	}
	return nil
}

func stringPtrField(input entities.Document, key string) *string {
	if s, ok := input[key].(string); ok {
		return &s
	}
	return nil
}

// BlockToDocument re-projects a canonical block into the loose form, so a
// second Normalize round-trips (idempotence checks and phase B rewrites).
func BlockToDocument(b entities.MeasurementBlock) entities.Document {
	doc := entities.Document{
		"measurement": string(b.Measurement),
		"amount":      b.Amount,
		"unit":        b.Unit,
	}

	setFloat := func(key string, v *float64) {
		if v != nil {
			doc[key] = *v
		}
	}
	setString := func(key string, v *string) {
		if v != nil {
			doc[key] = *v
		}
	}

	setFloat("quantity", b.Quantity)
	setFloat("weight", b.Weight)
	setFloat("length", b.Length)
	setFloat("area", b.Area)
	setFloat("volume", b.Volume)
	setFloat("conversionRatio", b.ConversionRatio)
	setString("weightUnit", b.WeightUnit)
	setString("lengthUnit", b.LengthUnit)
	setString("areaUnit", b.AreaUnit)
	setString("volumeUnit", b.VolumeUnit)

	return doc
}

package entities

// Document é o payload aberto de uma entidade. Usamos um mapa genérico em vez
// de structs por campo porque os dados legados têm formas heterogêneas.
type Document map[string]any

// MeasurementBlock is the canonical sub-record describing the physical
// quantity carried by a relationship or an item field. The discriminator
// names the primary axis; the parallel axes are kept when the source knew
// them.
type MeasurementBlock struct {
	Measurement Measurement `json:"measurement"`
	Amount      float64     `json:"amount"`
	Unit        string      `json:"unit"`

	Quantity *float64 `json:"quantity,omitempty"`
	Weight   *float64 `json:"weight,omitempty"`
	Length   *float64 `json:"length,omitempty"`
	Area     *float64 `json:"area,omitempty"`
	Volume   *float64 `json:"volume,omitempty"`

	WeightUnit *string `json:"weightUnit,omitempty"`
	LengthUnit *string `json:"lengthUnit,omitempty"`
	AreaUnit   *string `json:"areaUnit,omitempty"`
	VolumeUnit *string `json:"volumeUnit,omitempty"`

	// Only meaningful on derived relationships.
	ConversionRatio *float64 `json:"conversionRatio,omitempty"`
}

// HasNonZeroValue reports whether any numeric field of the block is non-zero.
// Relationship kinds that carry a physical quantity require this.
func (m MeasurementBlock) HasNonZeroValue() bool {
	if m.Amount != 0 {
		return true
	}
	for _, v := range []*float64{m.Quantity, m.Weight, m.Length, m.Area, m.Volume, m.ConversionRatio} {
		if v != nil && *v != 0 {
			return true
		}
	}
	return false
}

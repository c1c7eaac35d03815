package migration

import (
	"context"
	"fmt"
)

// RunComplete roda as fases em ordem: normalização de itens, normalização de
// relacionamentos, conversão de embutidos e, quando o chamador pedir, a
// limpeza dos campos legados. Falha de fase interrompe as seguintes.
func (s *MigrationService) RunComplete(ctx context.Context, cleanup bool) (*CompleteReport, error) {
	return s.runComplete(ctx, cleanup, func(phase string, percent int) {})
}

// runComplete é o RunComplete instrumentado: o callback recebe a fase
// concluída e o percentual acumulado, e alimenta o progresso dos jobs.
func (s *MigrationService) runComplete(ctx context.Context, cleanup bool, progress func(phase string, percent int)) (*CompleteReport, error) {
	report := &CompleteReport{}

	items, err := s.NormalizeAllItems(ctx)
	if err != nil {
		return report, fmt.Errorf("item normalization: %w", err)
	}
	report.ItemNormalization = items
	progress(PhaseItemNormalization, 25)

	rels, err := s.NormalizeAllRelationships(ctx)
	if err != nil {
		return report, fmt.Errorf("relationship normalization: %w", err)
	}
	report.RelationshipNormalization = rels
	progress(PhaseRelationshipNormalization, 50)

	conversion, err := s.ConvertAll(ctx)
	if err != nil {
		return report, fmt.Errorf("embedded conversion: %w", err)
	}
	report.EmbeddedConversion = conversion
	progress(PhaseEmbeddedConversion, 90)

	if cleanup {
		cleaned, err := s.CleanupAll(ctx)
		if err != nil {
			return report, fmt.Errorf("cleanup: %w", err)
		}
		report.Cleanup = cleaned
	}
	progress(PhaseDone, 100)

	s.events.Publish("migration.completed", "", "", report)
	return report, nil
}

// Package migration implementa as quatro fases da migração do modelo embutido
// para o relacional: normalização de itens (A), normalização de
// relacionamentos (B), conversão dos arrays legados em registros de
// relacionamento (C) e limpeza dos campos embutidos (D). Cada fase é
// invocável isoladamente e idempotente; a execução completa pode rodar como
// job em background com progresso no cache externo.
package migration

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"stockgraph/src/domain/entities"
	"stockgraph/src/repositories"
	"stockgraph/src/services/events"
	"stockgraph/src/services/relationships"
)

type MigrationService struct {
	logger        *slog.Logger
	factory       *repositories.Factory
	relationships *relationships.RelationshipService
	runner        repositories.TransactionRunner
	cache         StatusCache
	events        *events.Publisher
}

func NewMigrationService(
	logger *slog.Logger,
	factory *repositories.Factory,
	relationshipService *relationships.RelationshipService,
	cache StatusCache,
	publisher *events.Publisher,
) *MigrationService {
	return &MigrationService{
		logger:        logger,
		factory:       factory,
		relationships: relationshipService,
		runner:        factory.Runner(),
		cache:         cache,
		events:        publisher,
	}
}

// PhaseReport resume uma fase de normalização (A ou B).
type PhaseReport struct {
	Processed int      `json:"processed"`
	Updated   int      `json:"updated"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors"`
}

// ConversionReport resume a conversão de embutidos de uma entidade ou de um
// tipo inteiro (fase C).
type ConversionReport struct {
	Created        int      `json:"created"`
	Skipped        int      `json:"skipped"`
	Errors         []string `json:"errors"`
	ProcessedItems int      `json:"processedItems"`
}

func (r *ConversionReport) merge(other *ConversionReport) {
	r.Created += other.Created
	r.Skipped += other.Skipped
	r.Errors = append(r.Errors, other.Errors...)
	r.ProcessedItems += other.ProcessedItems
}

// ConvertAllReport agrega a fase C por tipo de entidade.
type ConvertAllReport struct {
	Items     ConversionReport `json:"items"`
	Purchases ConversionReport `json:"purchases"`
	Sales     ConversionReport `json:"sales"`

	TotalRelationshipsCreated int `json:"totalRelationshipsCreated"`
	TotalErrors               int `json:"totalErrors"`
}

func (r *ConvertAllReport) computeTotals() {
	r.TotalRelationshipsCreated = r.Items.Created + r.Purchases.Created + r.Sales.Created
	r.TotalErrors = len(r.Items.Errors) + len(r.Purchases.Errors) + len(r.Sales.Errors)
}

// CleanupReport resume a fase D.
type CleanupReport struct {
	Processed int      `json:"processed"`
	Success   int      `json:"success"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors"`
}

func (r *CleanupReport) merge(other *CleanupReport) {
	r.Processed += other.Processed
	r.Success += other.Success
	r.Skipped += other.Skipped
	r.Errors = append(r.Errors, other.Errors...)
}

// CompleteReport é o retorno da migração completa A→B→C(→D).
type CompleteReport struct {
	ItemNormalization         *PhaseReport      `json:"itemNormalization"`
	RelationshipNormalization *PhaseReport      `json:"relationshipNormalization"`
	EmbeddedConversion        *ConvertAllReport `json:"embeddedConversion"`
	Cleanup                   *CleanupReport    `json:"cleanup,omitempty"`
}

// normalizeRef extrai o id de uma referência legada, que aparece como string
// crua, como objeto com _id ou como objeto com o campo de id do domínio.
func normalizeRef(v any) string {
	switch ref := v.(type) {
	case string:
		return ref
	case map[string]any:
		for _, key := range []string{"_id", "itemId", "materialId", "id"} {
			if s, ok := ref[key].(string); ok && s != "" {
				return s
			}
		}
	case entities.Document:
		return normalizeRef(map[string]any(ref))
	}
	return ""
}

// ensureAmount garante que o documento de medição carrega um valor: linhas
// legadas sem amount nem quantity contam como 1 unidade.
func ensureAmount(doc entities.Document) entities.Document {
	if _, ok := entities.AsFloat(doc["amount"]); ok {
		return doc
	}
	if _, ok := entities.AsFloat(doc["quantity"]); ok {
		return doc
	}

	out := entities.Document{"quantity": 1}
	for k, v := range doc {
		out[k] = v
	}
	return out
}

// stringifyOriginal serializa o sub-documento legado para o rastro de
// auditoria nos metadados.
func stringifyOriginal(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}

func migrationMetadata(original any) entities.Document {
	return entities.Document{
		"migratedFrom": "embedded",
		"migratedAt":   nowUTC(),
		"original":     stringifyOriginal(original),
	}
}

// docMeasurement lê o discriminador declarado num sub-documento, quando
// válido.
func docMeasurement(doc entities.Document) (entities.Measurement, bool) {
	if doc == nil {
		return "", false
	}
	if raw, ok := doc["measurement"].(string); ok && entities.IsValidMeasurement(raw) {
		return entities.Measurement(raw), true
	}
	return "", false
}

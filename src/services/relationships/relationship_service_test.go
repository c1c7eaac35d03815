package relationships_test

import (
	"context"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"stockgraph/src/domain"
	"stockgraph/src/domain/entities"
	"stockgraph/src/repositories"
	"stockgraph/src/repositories/memory"
	"stockgraph/src/services/relationships"
)

var _ = Describe("RelationshipService", func() {
	var (
		ctx     context.Context
		factory *repositories.Factory
		service *relationships.RelationshipService
	)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	seedEntity := func(entityType entities.EntityType, id string) {
		repo, err := factory.EntityRepository(entityType)
		Expect(err).NotTo(HaveOccurred())
		_, err = repo.Create(ctx, entities.Document{"id": id, "name": "seed " + id})
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		ctx = context.Background()

		factory = repositories.NewFactory(memory.NewStore())
		service = relationships.NewRelationshipService(logger, factory.RelationshipRepository(), factory.Runner(), nil)
	})

	Describe("Create", func() {
		Context("allowed combinations", func() {
			It("accepts every combination of the table", func() {
				seedEntity(entities.EntityTypeItem, "i1")
				seedEntity(entities.EntityTypeItem, "i2")
				seedEntity(entities.EntityTypePurchase, "p1")
				seedEntity(entities.EntityTypeSale, "s1")
				seedEntity(entities.EntityTypeAsset, "a1")

				cases := []domain.CreateRelationshipRequest{
					{PrimaryID: "i1", PrimaryType: "Item", SecondaryID: "i2", SecondaryType: "Item", RelationshipType: "product_material", Measurements: entities.Document{"quantity": 1}},
					{PrimaryID: "i1", PrimaryType: "Item", SecondaryID: "i2", SecondaryType: "Item", RelationshipType: "derived", Measurements: entities.Document{"quantity": 1}},
					{PrimaryID: "p1", PrimaryType: "Purchase", SecondaryID: "i1", SecondaryType: "Item", RelationshipType: "purchase_item", Measurements: entities.Document{"quantity": 1}},
					{PrimaryID: "p1", PrimaryType: "Purchase", SecondaryID: "a1", SecondaryType: "Asset", RelationshipType: "purchase_asset"},
					{PrimaryID: "s1", PrimaryType: "Sale", SecondaryID: "i1", SecondaryType: "Item", RelationshipType: "sale_item", Measurements: entities.Document{"quantity": 1}},
				}

				for _, req := range cases {
					rel, err := service.Create(ctx, req)
					Expect(err).NotTo(HaveOccurred(), "combination %s", req.RelationshipType)
					Expect(rel.ID).NotTo(BeEmpty())
				}
			})

			It("rejects a combination outside the table with Validation", func() {
				seedEntity(entities.EntityTypeSale, "s1")
				seedEntity(entities.EntityTypeAsset, "a1")

				_, err := service.Create(ctx, domain.CreateRelationshipRequest{
					PrimaryID: "s1", PrimaryType: "Sale",
					SecondaryID: "a1", SecondaryType: "Asset",
					RelationshipType: "sale_item",
					Measurements:     entities.Document{"quantity": 1},
				})

				Expect(err).To(MatchError(domain.ErrValidation))
			})
		})

		Context("input validation", func() {
			It("rejects missing ids with Validation", func() {
				_, err := service.Create(ctx, domain.CreateRelationshipRequest{
					PrimaryType: "Item", SecondaryID: "i2", SecondaryType: "Item",
					RelationshipType: "product_material",
				})

				Expect(err).To(MatchError(domain.ErrValidation))
			})

			It("rejects an unknown relationship type with Validation", func() {
				_, err := service.Create(ctx, domain.CreateRelationshipRequest{
					PrimaryID: "i1", PrimaryType: "Item",
					SecondaryID: "i2", SecondaryType: "Item",
					RelationshipType: "friendship",
				})

				Expect(err).To(MatchError(domain.ErrValidation))
			})

			It("rejects a zero measurement where one is required", func() {
				seedEntity(entities.EntityTypeItem, "i1")
				seedEntity(entities.EntityTypeItem, "i2")

				_, err := service.Create(ctx, domain.CreateRelationshipRequest{
					PrimaryID: "i1", PrimaryType: "Item",
					SecondaryID: "i2", SecondaryType: "Item",
					RelationshipType: "product_material",
				})

				Expect(err).To(MatchError(domain.ErrValidation))
			})
		})

		Context("endpoint existence", func() {
			It("fails with NotFound when an endpoint is missing", func() {
				seedEntity(entities.EntityTypeItem, "i1")

				_, err := service.Create(ctx, domain.CreateRelationshipRequest{
					PrimaryID: "i1", PrimaryType: "Item",
					SecondaryID: "ghost", SecondaryType: "Item",
					RelationshipType: "product_material",
					Measurements:     entities.Document{"quantity": 2},
				})

				Expect(err).To(MatchError(domain.ErrNotFound))
			})
		})

		Context("measurement normalization", func() {
			It("persists the canonical block", func() {
				seedEntity(entities.EntityTypeItem, "p1")
				seedEntity(entities.EntityTypeItem, "m1")

				rel, err := service.CreateProductMaterial(ctx, "p1", "m1", entities.Document{"quantity": 2}, nil)

				Expect(err).NotTo(HaveOccurred())
				Expect(rel.Measurements.Measurement).To(Equal(entities.MeasurementQuantity))
				Expect(rel.Measurements.Amount).To(Equal(2.0))
				Expect(rel.Measurements.Unit).To(Equal(""))
			})
		})

		Context("uniqueness", func() {
			It("returns Conflict on a second identical create", func() {
				seedEntity(entities.EntityTypeItem, "p1")
				seedEntity(entities.EntityTypeItem, "m1")

				_, err := service.CreateProductMaterial(ctx, "p1", "m1", entities.Document{"quantity": 2}, nil)
				Expect(err).NotTo(HaveOccurred())

				_, err = service.CreateProductMaterial(ctx, "p1", "m1", entities.Document{"quantity": 2}, nil)
				Expect(err).To(MatchError(domain.ErrConflict))
			})
		})

		Context("attribute routing", func() {
			It("stores attributes in the slot of the relationship kind", func() {
				seedEntity(entities.EntityTypeSale, "s1")
				seedEntity(entities.EntityTypeItem, "i1")

				rel, err := service.CreateSaleItem(ctx, "s1", "i1",
					entities.Document{"quantity": 3},
					entities.Document{"unitPrice": 10.0})

				Expect(err).NotTo(HaveOccurred())
				Expect(rel.SaleItemAttributes).To(HaveKeyWithValue("unitPrice", 10.0))
				Expect(rel.PurchaseItemAttributes).To(BeEmpty())
			})
		})
	})

	Describe("Update", func() {
		It("merges the patch shallowly", func() {
			seedEntity(entities.EntityTypeItem, "p1")
			seedEntity(entities.EntityTypeItem, "m1")

			rel, err := service.CreateProductMaterial(ctx, "p1", "m1", entities.Document{"quantity": 2}, nil)
			Expect(err).NotTo(HaveOccurred())

			updated, err := service.Update(ctx, rel.ID, domain.RelationshipPatch{
				Measurements: entities.Document{"quantity": 5},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Measurements.Amount).To(Equal(5.0))
			Expect(updated.PrimaryID).To(Equal("p1"))
		})

		It("re-validates the combination when the tuple changes", func() {
			seedEntity(entities.EntityTypeItem, "p1")
			seedEntity(entities.EntityTypeItem, "m1")
			seedEntity(entities.EntityTypeAsset, "a1")

			rel, err := service.CreateProductMaterial(ctx, "p1", "m1", entities.Document{"quantity": 2}, nil)
			Expect(err).NotTo(HaveOccurred())

			newType := "Asset"
			_, err = service.Update(ctx, rel.ID, domain.RelationshipPatch{
				SecondaryID:   ptr("a1"),
				SecondaryType: &newType,
			})

			Expect(err).To(MatchError(domain.ErrValidation))
		})

		It("returns NotFound for a missing relationship", func() {
			_, err := service.Update(ctx, "nope", domain.RelationshipPatch{})

			Expect(err).To(MatchError(domain.ErrNotFound))
		})
	})

	Describe("Delete", func() {
		It("returns NotFound when the relationship is absent", func() {
			err := service.Delete(ctx, "nope")

			Expect(err).To(MatchError(domain.ErrNotFound))
		})
	})

	Describe("BulkDelete", func() {
		It("refuses an empty filter", func() {
			_, err := service.BulkDelete(ctx, domain.RelationshipFilter{})

			Expect(err).To(MatchError(domain.ErrValidation))
		})

		It("removes by filter and returns the count", func() {
			seedEntity(entities.EntityTypePurchase, "pr1")
			seedEntity(entities.EntityTypeItem, "i1")
			seedEntity(entities.EntityTypeItem, "i2")

			_, err := service.CreatePurchaseItem(ctx, "pr1", "i1", entities.Document{"quantity": 1}, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CreatePurchaseItem(ctx, "pr1", "i2", entities.Document{"quantity": 1}, nil)
			Expect(err).NotTo(HaveOccurred())

			deleted, err := service.BulkDelete(ctx, domain.RelationshipFilter{PrimaryID: "pr1"})

			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(Equal(2))
		})

		It("treats zero removals as success", func() {
			deleted, err := service.BulkDelete(ctx, domain.RelationshipFilter{PrimaryID: "ghost"})

			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(BeZero())
		})
	})

	Describe("Replace", func() {
		It("swaps the relationship set atomically", func() {
			seedEntity(entities.EntityTypePurchase, "pr1")
			seedEntity(entities.EntityTypeItem, "i1")
			seedEntity(entities.EntityTypeItem, "i2")
			seedEntity(entities.EntityTypeItem, "i3")

			for _, itemID := range []string{"i1", "i2", "i3"} {
				_, err := service.CreatePurchaseItem(ctx, "pr1", itemID, entities.Document{"quantity": 1}, nil)
				Expect(err).NotTo(HaveOccurred())
			}

			result, err := service.Replace(ctx, "pr1", entities.EntityTypePurchase, entities.RelPurchaseItem,
				nil, domain.SidePrimary)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Deleted).To(Equal(3))
			Expect(result.Created).To(BeZero())

			remaining, err := service.GetPurchaseItems(ctx, "pr1")
			Expect(err).NotTo(HaveOccurred())
			Expect(remaining).To(BeEmpty())
		})

		It("rolls everything back when a new relationship fails", func() {
			seedEntity(entities.EntityTypePurchase, "pr1")
			seedEntity(entities.EntityTypeItem, "i1")

			_, err := service.CreatePurchaseItem(ctx, "pr1", "i1", entities.Document{"quantity": 1}, nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Replace(ctx, "pr1", entities.EntityTypePurchase, entities.RelPurchaseItem,
				[]domain.CreateRelationshipRequest{{
					PrimaryID: "pr1", PrimaryType: "Purchase",
					SecondaryID: "ghost", SecondaryType: "Item",
					RelationshipType: "purchase_item",
					Measurements:     entities.Document{"quantity": 1},
				}}, domain.SidePrimary)
			Expect(err).To(MatchError(domain.ErrNotFound))

			// O conjunto original sobrevive intacto.
			remaining, err := service.GetPurchaseItems(ctx, "pr1")
			Expect(err).NotTo(HaveOccurred())
			Expect(remaining).To(HaveLen(1))
		})
	})

	Describe("BulkCreate", func() {
		It("is all-or-nothing", func() {
			seedEntity(entities.EntityTypeItem, "i1")
			seedEntity(entities.EntityTypeItem, "i2")

			_, err := service.BulkCreate(ctx, []domain.CreateRelationshipRequest{
				{PrimaryID: "i1", PrimaryType: "Item", SecondaryID: "i2", SecondaryType: "Item",
					RelationshipType: "product_material", Measurements: entities.Document{"quantity": 1}},
				{PrimaryID: "i1", PrimaryType: "Item", SecondaryID: "ghost", SecondaryType: "Item",
					RelationshipType: "product_material", Measurements: entities.Document{"quantity": 1}},
			})
			Expect(err).To(MatchError(domain.ErrNotFound))

			all, err := service.Query(ctx, domain.RelationshipFilter{PrimaryID: "i1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(BeEmpty())
		})
	})

	Describe("Query helpers", func() {
		It("fixes sides and kinds", func() {
			seedEntity(entities.EntityTypeItem, "product")
			seedEntity(entities.EntityTypeItem, "material")
			seedEntity(entities.EntityTypeItem, "child")

			_, err := service.CreateProductMaterial(ctx, "product", "material", entities.Document{"quantity": 2}, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CreateDerivedItem(ctx, "child", "product", entities.Document{"quantity": 1}, nil)
			Expect(err).NotTo(HaveOccurred())

			components, err := service.GetProductComponents(ctx, "product")
			Expect(err).NotTo(HaveOccurred())
			Expect(components).To(HaveLen(1))
			Expect(components[0].SecondaryID).To(Equal("material"))

			users, err := service.GetProductsUsingMaterial(ctx, "material")
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(1))
			Expect(users[0].PrimaryID).To(Equal("product"))

			source, err := service.GetDerivedSource(ctx, "child")
			Expect(err).NotTo(HaveOccurred())
			Expect(source).NotTo(BeNil())
			Expect(source.SecondaryID).To(Equal("product"))

			derived, err := service.GetDerivedItems(ctx, "product")
			Expect(err).NotTo(HaveOccurred())
			Expect(derived).To(HaveLen(1))
			Expect(derived[0].PrimaryID).To(Equal("child"))
		})
	})

	Describe("GetStatistics", func() {
		It("counts per kind", func() {
			seedEntity(entities.EntityTypeItem, "i1")
			seedEntity(entities.EntityTypeItem, "i2")
			seedEntity(entities.EntityTypeSale, "s1")

			_, err := service.CreateProductMaterial(ctx, "i1", "i2", entities.Document{"quantity": 1}, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CreateSaleItem(ctx, "s1", "i1", entities.Document{"quantity": 1}, nil)
			Expect(err).NotTo(HaveOccurred())

			stats, err := service.GetStatistics(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Total).To(Equal(2))
			Expect(stats.ByType[entities.RelProductMaterial]).To(Equal(1))
			Expect(stats.ByType[entities.RelSaleItem]).To(Equal(1))
		})
	})
})

func ptr(s string) *string {
	return &s
}

package repositories_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"stockgraph/src/domain"
	"stockgraph/src/domain/entities"
	"stockgraph/src/repositories"
	"stockgraph/src/repositories/memory"
)

var _ = Describe("Factory", func() {
	var (
		ctx     context.Context
		factory *repositories.Factory
	)

	BeforeEach(func() {
		ctx = context.Background()
		factory = repositories.NewFactory(memory.NewStore())
	})

	It("caches repository instances per entity type", func() {
		first, err := factory.EntityRepository(entities.EntityTypeItem)
		Expect(err).NotTo(HaveOccurred())
		second, err := factory.EntityRepository(entities.EntityTypeItem)
		Expect(err).NotTo(HaveOccurred())

		Expect(first).To(BeIdenticalTo(second))
	})

	It("rejects unsupported entity types", func() {
		_, err := factory.EntityRepository(entities.EntityType("Spaceship"))

		Expect(err).To(HaveOccurred())
	})

	It("rebuilds instances after ClearCache", func() {
		first, err := factory.EntityRepository(entities.EntityTypeItem)
		Expect(err).NotTo(HaveOccurred())

		factory.ClearCache()

		second, err := factory.EntityRepository(entities.EntityTypeItem)
		Expect(err).NotTo(HaveOccurred())
		Expect(first).NotTo(BeIdenticalTo(second))
	})

	It("registers the entity repositories for existence checks", func() {
		relRepo := factory.RelationshipRepository()

		itemRepo, err := factory.EntityRepository(entities.EntityTypeItem)
		Expect(err).NotTo(HaveOccurred())
		_, err = itemRepo.Create(ctx, entities.Document{"id": "i1"})
		Expect(err).NotTo(HaveOccurred())

		exists, err := relRepo.EntityExists(ctx, "i1", entities.EntityTypeItem)
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeTrue())

		exists, err = relRepo.EntityExists(ctx, "ghost", entities.EntityTypeItem)
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeFalse())
	})

	Describe("filter containment", func() {
		It("matches nested fields through dotted paths", func() {
			itemRepo, err := factory.EntityRepository(entities.EntityTypeItem)
			Expect(err).NotTo(HaveOccurred())

			_, err = itemRepo.Create(ctx, entities.Document{
				"id":       "i1",
				"tracking": map[string]any{"measurement": "weight"},
			})
			Expect(err).NotTo(HaveOccurred())
			_, err = itemRepo.Create(ctx, entities.Document{
				"id":       "i2",
				"tracking": map[string]any{"measurement": "quantity"},
			})
			Expect(err).NotTo(HaveOccurred())

			found, err := itemRepo.FindByFilter(ctx, entities.Document{"tracking.measurement": "weight"})

			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(1))
			Expect(found[0].ID).To(Equal("i1"))
		})

		It("misses when the path crosses a scalar", func() {
			itemRepo, err := factory.EntityRepository(entities.EntityTypeItem)
			Expect(err).NotTo(HaveOccurred())

			_, err = itemRepo.Create(ctx, entities.Document{"id": "i1", "tracking": "loose"})
			Expect(err).NotTo(HaveOccurred())

			found, err := itemRepo.FindByFilter(ctx, entities.Document{"tracking.measurement": "weight"})

			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeEmpty())
		})
	})

	Describe("error normalization decorator", func() {
		It("maps a duplicate key to Conflict", func() {
			relRepo := factory.RelationshipRepository()

			rel := &entities.Relationship{
				PrimaryID: "a", PrimaryType: entities.EntityTypeItem,
				SecondaryID: "b", SecondaryType: entities.EntityTypeItem,
				RelationshipType: entities.RelProductMaterial,
			}

			_, err := relRepo.Create(ctx, rel)
			Expect(err).NotTo(HaveOccurred())

			_, err = relRepo.Create(ctx, &entities.Relationship{
				PrimaryID: "a", PrimaryType: entities.EntityTypeItem,
				SecondaryID: "b", SecondaryType: entities.EntityTypeItem,
				RelationshipType: entities.RelProductMaterial,
			})
			Expect(err).To(MatchError(domain.ErrConflict))
		})

		It("maps a missing row to NotFound", func() {
			itemRepo, err := factory.EntityRepository(entities.EntityTypeItem)
			Expect(err).NotTo(HaveOccurred())

			err = itemRepo.Delete(ctx, "ghost")
			Expect(err).To(MatchError(domain.ErrNotFound))
		})

		It("leaves taxonomy errors untouched", func() {
			err := repositories.MapStoreError(domain.Validationf("bad input"))

			Expect(err).To(MatchError(domain.ErrValidation))
		})

		It("maps unknown errors to Internal", func() {
			err := repositories.MapStoreError(errors.New("boom"))

			Expect(err).To(MatchError(domain.ErrInternal))
		})
	})

	Describe("transactions", func() {
		It("rolls back every write when the callback fails", func() {
			itemRepo, err := factory.EntityRepository(entities.EntityTypeItem)
			Expect(err).NotTo(HaveOccurred())

			boom := errors.New("boom")
			err = factory.Runner().RunInTransaction(ctx, func(txCtx context.Context) error {
				if _, err := itemRepo.Create(txCtx, entities.Document{"id": "i1"}); err != nil {
					return err
				}
				return boom
			})
			Expect(err).To(MatchError(boom))

			entity, err := itemRepo.FindByID(ctx, "i1")
			Expect(err).NotTo(HaveOccurred())
			Expect(entity).To(BeNil())
		})

		It("reuses the active handle on nested calls", func() {
			itemRepo, err := factory.EntityRepository(entities.EntityTypeItem)
			Expect(err).NotTo(HaveOccurred())

			err = factory.Runner().RunInTransaction(ctx, func(outerCtx context.Context) error {
				Expect(factory.Runner().InTransaction(outerCtx)).To(BeTrue())

				return factory.Runner().RunInTransaction(outerCtx, func(innerCtx context.Context) error {
					_, err := itemRepo.Create(innerCtx, entities.Document{"id": "i1"})
					return err
				})
			})
			Expect(err).NotTo(HaveOccurred())

			entity, err := itemRepo.FindByID(ctx, "i1")
			Expect(err).NotTo(HaveOccurred())
			Expect(entity).NotTo(BeNil())
		})
	})
})

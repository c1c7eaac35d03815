package repositories_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockgraph/src/domain"
	"stockgraph/src/domain/entities"
	"stockgraph/src/helper/env"
	"stockgraph/src/infra/postgres"
	"stockgraph/src/repositories"
	"stockgraph/src/test_artefacts/comparer"
	"stockgraph/src/test_artefacts/stubs"
	"stockgraph/src/test_artefacts/test_seeder"
)

// Specs de integração contra um Postgres real. Rodam só quando TEST_DB_HOST
// estiver configurado; sem ele a suite segue com os specs em memória.
var _ = Describe("Postgres repositories", func() {
	var (
		ctx     context.Context
		pool    *pgxpool.Pool
		factory *repositories.Factory
		seeder  test_seeder.TestSeeder
		err     error
	)

	BeforeEach(func() {
		dbHost := env.GetString("TEST_DB_HOST", "")
		if dbHost == "" {
			Skip("TEST_DB_HOST not set")
		}

		dbPort := env.GetString("TEST_DB_PORT", "5432")
		dbname := env.MustGetString("TEST_DB_NAME")
		dbUser := env.MustGetString("TEST_DB_USER")
		dbPassword := env.MustGetString("TEST_DB_PASSWORD")
		maxConnections := env.GetInt("TEST_DB_MAX_POOL_CONNECTIONS", 25)

		ctx = context.Background()

		pool, err = postgres.NewPostgresClient(dbHost, dbPort, dbname, dbUser, dbPassword, maxConnections)
		Expect(err).NotTo(HaveOccurred())

		factory = repositories.NewFactory(repositories.NewPostgresBackend(pool))
		seeder = test_seeder.New(pool)

		seeder.TruncateTables(ctx)
	})

	AfterEach(func() {
		if pool != nil {
			pool.Close()
		}
	})

	Describe("entity repository", func() {
		It("round-trips an item through the entities table", func() {
			// ARRANGE
			stub := stubs.NewItemStub()

			repo, err := factory.EntityRepository(entities.EntityTypeItem)
			Expect(err).NotTo(HaveOccurred())

			// ACT
			created, err := repo.Create(ctx, stub.Document())
			Expect(err).NotTo(HaveOccurred())

			found, err := repo.FindByID(ctx, stub.Get().ID)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(found).NotTo(BeNil())
			Expect(found.ID).To(Equal(stub.Get().ID))
			Expect(found.Type).To(Equal(entities.EntityTypeItem))
			Expect(cmp.Diff(*created, *found,
				comparer.Documents(),
				comparer.IgnoreFieldsFor[entities.Entity]("CreatedAt", "UpdatedAt"),
			)).To(BeEmpty())
			Expect(cmp.Diff(created.CreatedAt, found.CreatedAt, comparer.TimeWithinTolerance(1000))).To(BeEmpty())
		})

		It("translates a duplicate id into Conflict", func() {
			// ARRANGE
			stub := stubs.NewPurchaseStub()
			entity := stub.Get()
			seeder.InsertEntity(ctx, &entity)

			repo, err := factory.EntityRepository(entities.EntityTypePurchase)
			Expect(err).NotTo(HaveOccurred())

			// ACT
			_, err = repo.Create(ctx, stub.Document())

			// ASSERT
			Expect(err).To(MatchError(domain.ErrConflict))
		})

		It("removes fields through UpdateRaw so they come back absent", func() {
			// ARRANGE
			stub := stubs.NewPurchaseStub().WithProperty("items", []any{map[string]any{"itemId": "i1"}})
			entity := stub.Get()
			seeder.InsertEntity(ctx, &entity)

			repo, err := factory.EntityRepository(entities.EntityTypePurchase)
			Expect(err).NotTo(HaveOccurred())

			// ACT
			updated, err := repo.UpdateRaw(ctx, entity.ID, repositories.RawUpdate{Unset: []string{"items"}})

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			_, hasItems := updated.Prop("items")
			Expect(hasItems).To(BeFalse())
			Expect(updated.StringProp("supplier")).To(Equal(entity.StringProp("supplier")))
		})

		It("filters by JSONB containment", func() {
			// ARRANGE
			active := stubs.NewAssetStub().Get()
			retired := stubs.NewAssetStub().WithProperty("status", "retired").Get()
			seeder.InsertEntity(ctx, &active)
			seeder.InsertEntity(ctx, &retired)

			repo, err := factory.EntityRepository(entities.EntityTypeAsset)
			Expect(err).NotTo(HaveOccurred())

			// ACT
			found, err := repo.FindByFilter(ctx, entities.Document{"status": "retired"})

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(1))
			Expect(found[0].ID).To(Equal(retired.ID))
		})

		It("filters nested fields through dotted paths", func() {
			// ARRANGE
			weighted := stubs.NewItemStub().
				WithProperty("tracking", entities.Document{"measurement": "weight", "amount": 2.0, "unit": "kg"}).
				Get()
			counted := stubs.NewItemStub().Get()
			seeder.InsertEntity(ctx, &weighted)
			seeder.InsertEntity(ctx, &counted)

			repo, err := factory.EntityRepository(entities.EntityTypeItem)
			Expect(err).NotTo(HaveOccurred())

			// ACT
			found, err := repo.FindByFilter(ctx, entities.Document{"tracking.measurement": "weight"})

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(1))
			Expect(found[0].ID).To(Equal(weighted.ID))
		})
	})

	Describe("relationship repository", func() {
		It("round-trips a relationship with its measurement block", func() {
			// ARRANGE
			primary := stubs.NewItemStub().Get()
			secondary := stubs.NewItemStub().Get()
			seeder.InsertEntity(ctx, &primary)
			seeder.InsertEntity(ctx, &secondary)

			rel := stubs.NewRelationshipStub().
				WithPrimary(primary.ID, entities.EntityTypeItem).
				WithSecondary(secondary.ID, entities.EntityTypeItem).
				Get()
			seeder.InsertRelationship(ctx, &rel)

			// ACT
			found, err := factory.RelationshipRepository().FindByID(ctx, rel.ID)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(found).NotTo(BeNil())
			Expect(cmp.Diff(rel, *found,
				comparer.Documents(),
				comparer.TimeWithinTolerance(1000),
			)).To(BeEmpty())
		})

		It("rejects a second relationship with the same tuple", func() {
			// ARRANGE
			primary := stubs.NewItemStub().Get()
			secondary := stubs.NewItemStub().Get()
			seeder.InsertEntity(ctx, &primary)
			seeder.InsertEntity(ctx, &secondary)

			first := stubs.NewRelationshipStub().
				WithPrimary(primary.ID, entities.EntityTypeItem).
				WithSecondary(secondary.ID, entities.EntityTypeItem).
				Get()
			seeder.InsertRelationship(ctx, &first)

			duplicate := stubs.NewRelationshipStub().
				WithPrimary(primary.ID, entities.EntityTypeItem).
				WithSecondary(secondary.ID, entities.EntityTypeItem).
				Get()

			// ACT
			_, err := factory.RelationshipRepository().Create(ctx, &duplicate)

			// ASSERT
			Expect(err).To(MatchError(domain.ErrConflict))
		})

		It("finds relationships by primary side and kind", func() {
			// ARRANGE
			purchase := stubs.NewPurchaseStub().Get()
			item := stubs.NewItemStub().Get()
			asset := stubs.NewAssetStub().Get()
			seeder.InsertEntity(ctx, &purchase)
			seeder.InsertEntity(ctx, &item)
			seeder.InsertEntity(ctx, &asset)

			itemRel := stubs.NewRelationshipStub().
				WithPrimary(purchase.ID, entities.EntityTypePurchase).
				WithSecondary(item.ID, entities.EntityTypeItem).
				WithType(entities.RelPurchaseItem).
				Get()
			assetRel := stubs.NewRelationshipStub().
				WithPrimary(purchase.ID, entities.EntityTypePurchase).
				WithSecondary(asset.ID, entities.EntityTypeAsset).
				WithType(entities.RelPurchaseAsset).
				WithMeasurements(entities.MeasurementBlock{}).
				Get()
			seeder.InsertRelationship(ctx, &itemRel)
			seeder.InsertRelationship(ctx, &assetRel)

			// ACT
			found, err := factory.RelationshipRepository().FindByPrimary(ctx, purchase.ID, entities.EntityTypePurchase, entities.RelPurchaseItem)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(1))
			Expect(found[0].SecondaryID).To(Equal(item.ID))

			all, err := factory.RelationshipRepository().FindByPrimary(ctx, purchase.ID, entities.EntityTypePurchase, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
		})

		It("deletes by filter and reports the count", func() {
			// ARRANGE
			sale := stubs.NewSaleStub().Get()
			item1 := stubs.NewItemStub().Get()
			item2 := stubs.NewItemStub().Get()
			seeder.InsertEntity(ctx, &sale)
			seeder.InsertEntity(ctx, &item1)
			seeder.InsertEntity(ctx, &item2)

			for _, itemID := range []string{item1.ID, item2.ID} {
				rel := stubs.NewRelationshipStub().
					WithPrimary(sale.ID, entities.EntityTypeSale).
					WithSecondary(itemID, entities.EntityTypeItem).
					WithType(entities.RelSaleItem).
					Get()
				seeder.InsertRelationship(ctx, &rel)
			}

			// ACT
			deleted, err := factory.RelationshipRepository().DeleteMany(ctx, domain.RelationshipFilter{PrimaryID: sale.ID})

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(Equal(2))

			remaining, err := seeder.SelectRelationshipsByEntityID(ctx, sale.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(remaining).To(BeEmpty())
		})

		It("rolls back seeded writes together under a failing transaction", func() {
			// ARRANGE
			item := stubs.NewItemStub().Get()
			seeder.InsertEntity(ctx, &item)

			repo, err := factory.EntityRepository(entities.EntityTypeItem)
			Expect(err).NotTo(HaveOccurred())

			// ACT
			txErr := factory.Runner().RunInTransaction(ctx, func(txCtx context.Context) error {
				if _, err := repo.Update(txCtx, item.ID, entities.Document{"name": "renamed"}); err != nil {
					return err
				}
				return domain.Validationf("forced rollback")
			})

			// ASSERT
			Expect(txErr).To(MatchError(domain.ErrValidation))

			found, err := repo.FindByID(ctx, item.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(found.StringProp("name")).To(Equal(item.StringProp("name")))
		})
	})
})

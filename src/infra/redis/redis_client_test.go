package redis_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"stockgraph/src/helper/env"
	"stockgraph/src/infra/redis"
)

// Specs de integração contra um cluster redis real. Rodam só quando
// TEST_REDIS_ADDRS estiver configurado; o estado de job em si é coberto em
// memória pela suite de migração.
var _ = Describe("RedisClient", func() {
	var (
		ctx    context.Context
		base   *redis.RedisClient
		client *redis.RedisClient
	)

	BeforeEach(func() {
		addrs := env.GetString("TEST_REDIS_ADDRS", "")
		if addrs == "" {
			Skip("TEST_REDIS_ADDRS not set")
		}
		poolSize := env.GetInt("TEST_REDIS_POOL_SIZE", 10)

		ctx = context.Background()
		base = redis.NewRedisClient(addrs, poolSize, time.Minute)
		client = base.WithPrefix("spec:")

		Expect(client.FlushByPrefix(ctx)).To(Succeed())
	})

	It("round-trips a job status value", func() {
		Expect(client.SetKey(ctx, "job:j1", `{"status":"running"}`)).To(Succeed())

		value, found, err := client.GetKey(ctx, "job:j1")

		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(value).To(Equal(`{"status":"running"}`))
	})

	It("reports a miss for an unknown key", func() {
		_, found, err := client.GetKey(ctx, "job:ghost")

		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeFalse())
	})

	It("isolates clients under different prefixes", func() {
		other := base.WithPrefix("spec-other:")
		defer func() {
			Expect(other.FlushByPrefix(ctx)).To(Succeed())
		}()

		Expect(client.SetKey(ctx, "job:j1", "alpha")).To(Succeed())
		Expect(other.SetKey(ctx, "job:j1", "beta")).To(Succeed())

		value, found, err := client.GetKey(ctx, "job:j1")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(value).To(Equal("alpha"))

		value, found, err = other.GetKey(ctx, "job:j1")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(value).To(Equal("beta"))
	})

	It("deletes keys explicitly", func() {
		Expect(client.SetKey(ctx, "job:j1", "alpha")).To(Succeed())
		Expect(client.SetKey(ctx, "job:j2", "beta")).To(Succeed())

		Expect(client.DeleteKeys(ctx, []string{"job:j1", "job:j2"})).To(Succeed())

		_, found, err := client.GetKey(ctx, "job:j1")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeFalse())
	})

	It("flushes only the current prefix", func() {
		other := base.WithPrefix("spec-other:")
		defer func() {
			Expect(other.FlushByPrefix(ctx)).To(Succeed())
		}()

		Expect(client.SetKey(ctx, "job:j1", "alpha")).To(Succeed())
		Expect(other.SetKey(ctx, "job:j1", "beta")).To(Succeed())

		Expect(client.FlushByPrefix(ctx)).To(Succeed())

		_, found, err := client.GetKey(ctx, "job:j1")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeFalse())

		_, found, err = other.GetKey(ctx, "job:j1")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
	})

	It("refuses to flush without a prefix", func() {
		Expect(base.FlushByPrefix(ctx)).To(HaveOccurred())
	})
})

package postgres_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"stockgraph/src/infra/postgres"
)

var _ = Describe("BuildSearchJSON", func() {
	It("wraps a single key into a flat payload", func() {
		payload, err := postgres.BuildSearchJSON("status", "retired")

		Expect(err).NotTo(HaveOccurred())
		Expect(payload).To(MatchJSON(`{"status": "retired"}`))
	})

	It("nests a dotted path from the outside in", func() {
		payload, err := postgres.BuildSearchJSON("tracking.measurement", "weight")

		Expect(err).NotTo(HaveOccurred())
		Expect(payload).To(MatchJSON(`{"tracking": {"measurement": "weight"}}`))
	})

	It("carries non-string values through", func() {
		payload, err := postgres.BuildSearchJSON("price.amount", 12.5)

		Expect(err).NotTo(HaveOccurred())
		Expect(payload).To(MatchJSON(`{"price": {"amount": 12.5}}`))
	})
})

package relational_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lexfindco/lexfind/pkg/document"
	"github.com/lexfindco/lexfind/pkg/logger"
	"github.com/lexfindco/lexfind/pkg/metastore/relational"
	"github.com/lexfindco/lexfind/pkg/vector"
)

var _ = Describe("Store", func() {
	var (
		store *relational.Store
		ctx   context.Context
	)

	docs := []document.Document{
		{ID: "art-1", Title: "Theft", Content: "Whoever takes...", Book: "Book I", TitleGroup: "Crimes against property"},
		{ID: "art-2", Title: "Robbery", Content: "Whoever by violence...", Book: "Book I", TitleGroup: "Crimes against property"},
		{ID: "art-3", Title: "Fraud", Content: "Whoever deceives...", Book: "Book II", TitleGroup: "Crimes against property", Chapter: "Chapter 2"},
	}

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		store, err = relational.New(ctx, relational.Config{
			Driver: "sqlite3",
			DSN:    ":memory:",
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		n, err := store.Seed(ctx, docs)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(3))
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	Describe("New", func() {
		It("rejects an unsupported driver", func() {
			_, err := relational.New(ctx, relational.Config{Driver: "oracle", DSN: "x"}, logger.Nop())
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unsupported metadata store driver"))
		})

		It("requires a DSN", func() {
			_, err := relational.New(ctx, relational.Config{Driver: "sqlite3"}, logger.Nop())
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Seed", func() {
		It("is idempotent", func() {
			n, err := store.Seed(ctx, docs)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(0))

			count, err := store.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(3))
		})
	})

	Describe("Resolve", func() {
		It("returns documents in the hits' rank order, not lookup order", func() {
			// Rank order deliberately differs from insertion order.
			hits := []vector.Neighbor{
				{Position: 2, ID: "art-3", Distance: 0.1},
				{Position: 0, ID: "art-1", Distance: 0.5},
				{Position: 1, ID: "art-2", Distance: 0.9},
			}

			got, err := store.Resolve(ctx, hits)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(3))
			Expect(got[0].ID).To(Equal("art-3"))
			Expect(got[1].ID).To(Equal("art-1"))
			Expect(got[2].ID).To(Equal("art-2"))
		})

		It("omits ids with no matching row and preserves rank order of the rest", func() {
			hits := []vector.Neighbor{
				{Position: 1, ID: "art-2", Distance: 0.1},
				{Position: 7, ID: "art-missing", Distance: 0.4},
				{Position: 0, ID: "art-1", Distance: 0.8},
			}

			got, err := store.Resolve(ctx, hits)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(2))
			Expect(got[0].ID).To(Equal("art-2"))
			Expect(got[1].ID).To(Equal("art-1"))
		})

		It("returns nil for zero hits", func() {
			got, err := store.Resolve(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeNil())
		})

		It("round-trips all metadata columns", func() {
			got, err := store.Resolve(ctx, []vector.Neighbor{{Position: 2, ID: "art-3"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[0].Title).To(Equal("Fraud"))
			Expect(got[0].Content).To(Equal("Whoever deceives..."))
			Expect(got[0].Book).To(Equal("Book II"))
			Expect(got[0].TitleGroup).To(Equal("Crimes against property"))
			Expect(got[0].Chapter).To(Equal("Chapter 2"))
			Expect(got[0].CreatedAt).NotTo(BeZero())
		})
	})
})

package sqlitevec_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lexfindco/lexfind/pkg/logger"
	"github.com/lexfindco/lexfind/pkg/vector"
	"github.com/lexfindco/lexfind/pkg/vector/sqlitevec"
)

var _ = Describe("Searcher", func() {
	var (
		searcher *sqlitevec.Searcher
		ctx      context.Context
	)

	corpusIDs := []string{"art-1", "art-2", "art-3"}
	corpusVecs := [][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
	}

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		searcher, err = sqlitevec.New(sqlitevec.Config{
			DBPath:     ":memory:",
			Dimensions: 4,
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(searcher.Close()).To(Succeed())
	})

	Describe("New", func() {
		It("requires a database path", func() {
			_, err := sqlitevec.New(sqlitevec.Config{Dimensions: 4}, logger.Nop())
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("database path is required"))
		})

		It("requires positive dimensions", func() {
			_, err := sqlitevec.New(sqlitevec.Config{DBPath: ":memory:"}, logger.Nop())
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
		})
	})

	Describe("Build", func() {
		It("rejects an empty corpus", func() {
			Expect(searcher.Build(ctx, nil, nil)).To(MatchError(vector.ErrEmptyCorpus))
		})

		It("rejects vectors of the wrong dimension", func() {
			err := searcher.Build(ctx, []string{"a"}, [][]float32{{1, 0}})
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
		})

		It("replaces the previous corpus on rebuild", func() {
			Expect(searcher.Build(ctx, corpusIDs, corpusVecs)).To(Succeed())
			Expect(searcher.Size()).To(Equal(3))

			Expect(searcher.Build(ctx, []string{"only"}, [][]float32{{0, 0, 0, 1}})).To(Succeed())
			Expect(searcher.Size()).To(Equal(1))
		})
	})

	Describe("Search", func() {
		BeforeEach(func() {
			Expect(searcher.Build(ctx, corpusIDs, corpusVecs)).To(Succeed())
		})

		It("returns neighbors in ascending distance order with positions and ids", func() {
			hits, err := searcher.Search(ctx, []float32{0.9, 0.4, 0.1, 0}, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(3))
			Expect(hits[0].ID).To(Equal("art-1"))
			Expect(hits[0].Position).To(Equal(0))
			Expect(hits[1].ID).To(Equal("art-2"))
			Expect(hits[2].ID).To(Equal("art-3"))
			Expect(hits[0].Distance).To(BeNumerically("<=", hits[1].Distance))
		})

		It("returns all entries when k exceeds the corpus size", func() {
			hits, err := searcher.Search(ctx, []float32{1, 0, 0, 0}, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(3))
		})

		It("rejects a query of the wrong dimension", func() {
			_, err := searcher.Search(ctx, []float32{1, 0}, 1)
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
		})

		It("rejects non-positive k", func() {
			_, err := searcher.Search(ctx, []float32{1, 0, 0, 0}, 0)
			Expect(err).To(MatchError(vector.ErrInvalidK))
		})
	})

	Describe("Interface compliance", func() {
		It("implements vector.Searcher", func() {
			var _ vector.Searcher = (*sqlitevec.Searcher)(nil)
		})
	})
})

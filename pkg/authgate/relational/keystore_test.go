package relational_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lexfindco/lexfind/pkg/authgate"
	"github.com/lexfindco/lexfind/pkg/authgate/relational"
	"github.com/lexfindco/lexfind/pkg/logger"
)

var _ = Describe("Keystore", func() {
	var (
		ks  *relational.Keystore
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		ks, err = relational.Open(ctx, "sqlite3", ":memory:", logger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(ks.Close()).To(Succeed())
	})

	Describe("CreateKey and Validate", func() {
		It("mints a 32-hex-char key that validates", func() {
			key, err := ks.CreateKey(ctx, "legal-frontend")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(HaveLen(32))

			rec, err := ks.Validate(ctx, key)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Owner).To(Equal("legal-frontend"))
			Expect(rec.Active).To(BeTrue())
			Expect(rec.CreatedAt).NotTo(BeZero())
		})

		It("requires an owner", func() {
			_, err := ks.CreateKey(ctx, "")
			Expect(err).To(HaveOccurred())
		})

		It("rejects unknown keys", func() {
			_, err := ks.Validate(ctx, "deadbeef")
			Expect(err).To(MatchError(authgate.ErrInvalidKey))
		})
	})

	Describe("DeactivateKey", func() {
		It("makes a key invalid", func() {
			key, err := ks.CreateKey(ctx, "owner")
			Expect(err).NotTo(HaveOccurred())

			Expect(ks.DeactivateKey(ctx, key)).To(Succeed())

			_, err = ks.Validate(ctx, key)
			Expect(err).To(MatchError(authgate.ErrInvalidKey))
		})

		It("fails for unknown keys", func() {
			Expect(ks.DeactivateKey(ctx, "deadbeef")).To(MatchError(authgate.ErrInvalidKey))
		})
	})

	Describe("RecordUsage and Usage", func() {
		It("records one entry per access", func() {
			key, err := ks.CreateKey(ctx, "owner")
			Expect(err).NotTo(HaveOccurred())
			rec, err := ks.Validate(ctx, key)
			Expect(err).NotTo(HaveOccurred())

			Expect(ks.RecordUsage(ctx, rec.ID, "/api/chat/completions")).To(Succeed())
			Expect(ks.RecordUsage(ctx, rec.ID, "/api/chat/completions")).To(Succeed())

			entries, err := ks.Usage(ctx, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].APIKeyID).To(Equal(rec.ID))
			Expect(entries[0].Endpoint).To(Equal("/api/chat/completions"))
		})

		It("honors the limit", func() {
			key, err := ks.CreateKey(ctx, "owner")
			Expect(err).NotTo(HaveOccurred())
			rec, err := ks.Validate(ctx, key)
			Expect(err).NotTo(HaveOccurred())

			for range 5 {
				Expect(ks.RecordUsage(ctx, rec.ID, "/api/chat/completions")).To(Succeed())
			}

			entries, err := ks.Usage(ctx, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(3))
		})
	})

	Describe("ListKeys", func() {
		It("returns all keys", func() {
			_, err := ks.CreateKey(ctx, "alpha")
			Expect(err).NotTo(HaveOccurred())
			_, err = ks.CreateKey(ctx, "beta")
			Expect(err).NotTo(HaveOccurred())

			keys, err := ks.ListKeys(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(keys).To(HaveLen(2))
		})
	})
})

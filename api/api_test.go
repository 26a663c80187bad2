package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lexfindco/lexfind/pkg/authgate"
	"github.com/lexfindco/lexfind/pkg/document"
	"github.com/lexfindco/lexfind/pkg/engine"
	"github.com/lexfindco/lexfind/pkg/logger"
	testutils "github.com/lexfindco/lexfind/pkg/utils/test"
	"github.com/lexfindco/lexfind/pkg/vector"
)

func completionRequest(body CompletionRequest, apiKey string) *http.Request {
	payload, err := json.Marshal(body)
	Expect(err).NotTo(HaveOccurred())

	target := "/api/chat/completions"
	if apiKey != "" {
		target += "?api_key=" + apiKey
	}

	req, err := http.NewRequest(http.MethodPost, target, bytes.NewReader(payload))
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(resp *http.Response) string {
	respBody, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())

	var payload ErrorResponse
	Expect(json.Unmarshal(respBody, &payload)).To(Succeed())
	return payload.Error
}

var _ = Describe("Completions API", func() {
	var (
		server *Server
		gate   *testutils.MockGate
	)

	BeforeEach(func() {
		searcher := testutils.NewMockSearcher(
			vector.Neighbor{Position: 0, ID: "doc-a", Distance: 0.1},
			vector.Neighbor{Position: 1, ID: "doc-b", Distance: 0.5},
			vector.Neighbor{Position: 2, ID: "doc-c", Distance: 0.9},
		)
		store := testutils.NewMockMetaStore(
			document.Document{ID: "doc-a", Title: "Article 1"},
			document.Document{ID: "doc-b", Title: "Article 2"},
			document.Document{ID: "doc-c", Title: "Article 3"},
		)

		eng, err := engine.New(engine.Config{
			Embedder: testutils.NewMockEmbedder(),
			Searcher: searcher,
			Store:    store,
		})
		Expect(err).NotTo(HaveOccurred())

		gate = testutils.NewMockGate(authgate.APIKey{
			ID:     1,
			Key:    "valid-key",
			Owner:  "alice",
			Active: true,
		})

		server, err = NewServer(Config{
			ListenAddr: ":0",
			Engine:     eng,
			Gate:       gate,
			Recorder:   gate,
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("POST /api/chat/completions", func() {
		It("returns ranked results for a valid request", func() {
			req := completionRequest(CompletionRequest{Prompt: "habeas corpus", TopK: 2}, "valid-key")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			respBody, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())

			var result CompletionResponse
			Expect(json.Unmarshal(respBody, &result)).To(Succeed())
			Expect(result.Results).To(HaveLen(2))
			Expect(result.Results[0].Title).To(Equal("Article 1"))
			Expect(result.Results[1].Title).To(Equal("Article 2"))
		})

		It("defaults top_k when the request omits it", func() {
			req := completionRequest(CompletionRequest{Prompt: "habeas corpus"}, "valid-key")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			respBody, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())

			var result CompletionResponse
			Expect(json.Unmarshal(respBody, &result)).To(Succeed())
			Expect(result.Results).To(HaveLen(DefaultTopK))
		})

		It("records usage for the validated key", func() {
			req := completionRequest(CompletionRequest{Prompt: "habeas corpus", TopK: 1}, "valid-key")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			Expect(gate.Recorded).To(HaveLen(1))
			Expect(gate.Recorded[0].KeyID).To(Equal(int64(1)))
			Expect(gate.Recorded[0].Endpoint).To(Equal("/api/chat/completions"))
		})

		It("rejects a missing api_key", func() {
			req := completionRequest(CompletionRequest{Prompt: "habeas corpus", TopK: 1}, "")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusUnauthorized))
		})

		It("rejects an unknown api_key", func() {
			req := completionRequest(CompletionRequest{Prompt: "habeas corpus", TopK: 1}, "bogus")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusUnauthorized))
			Expect(decodeError(resp)).To(ContainSubstring("invalid"))
		})

		It("rejects a deactivated api_key", func() {
			gate.Keys["stale-key"] = authgate.APIKey{ID: 2, Key: "stale-key", Owner: "bob", Active: false}
			req := completionRequest(CompletionRequest{Prompt: "habeas corpus", TopK: 1}, "stale-key")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusUnauthorized))
		})

		It("rejects a top_k above the ceiling", func() {
			req := completionRequest(CompletionRequest{Prompt: "habeas corpus", TopK: engine.DefaultMaxTopK + 1}, "valid-key")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
			Expect(decodeError(resp)).To(ContainSubstring("top_k"))
		})

		It("rejects a negative top_k", func() {
			req := completionRequest(CompletionRequest{Prompt: "habeas corpus", TopK: -1}, "valid-key")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("rejects an empty prompt", func() {
			req := completionRequest(CompletionRequest{Prompt: "   ", TopK: 2}, "valid-key")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
			Expect(decodeError(resp)).To(ContainSubstring("prompt"))
		})

		It("rejects a malformed body", func() {
			req, err := http.NewRequest(http.MethodPost, "/api/chat/completions?api_key=valid-key", bytes.NewReader([]byte("{not json")))
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("GET /ping", func() {
		It("answers without authentication", func() {
			req, err := http.NewRequest(http.MethodGet, "/ping", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		})
	})

	Describe("without a gate", func() {
		It("serves queries unauthenticated", func() {
			eng, err := engine.New(engine.Config{
				Embedder: testutils.NewMockEmbedder(),
				Searcher: testutils.NewMockSearcher(vector.Neighbor{Position: 0, ID: "doc-a", Distance: 0.1}),
				Store:    testutils.NewMockMetaStore(document.Document{ID: "doc-a", Title: "Article 1"}),
			})
			Expect(err).NotTo(HaveOccurred())

			open, err := NewServer(Config{ListenAddr: ":0", Engine: eng}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())

			req := completionRequest(CompletionRequest{Prompt: "habeas corpus", TopK: 1}, "")

			resp, err := open.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		})
	})

	Describe("NewServer", func() {
		It("requires an engine", func() {
			_, err := NewServer(Config{ListenAddr: ":0"}, logger.Nop())
			Expect(err).To(HaveOccurred())
		})
	})
})

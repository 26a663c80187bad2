package eventstream_test

import (
	"context"
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lexfindco/lexfind/pkg/eventstream"
	"github.com/lexfindco/lexfind/pkg/eventstream/nop"
)

var _ = Describe("QueryServedEvent", func() {
	It("fills the envelope fields", func() {
		event := eventstream.NewQueryServedEvent("alice", "/api/chat/completions", 3, 3, 42*time.Millisecond)

		Expect(event.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(event.EventType).To(Equal(eventstream.EventTypeQueryServed))
		Expect(event.EventID).NotTo(BeEmpty())
		Expect(event.EmittedAt).To(BeTemporally("~", time.Now(), time.Second))
		Expect(event.DurationMs).To(Equal(int64(42)))
	})

	It("assigns a distinct id to each event", func() {
		first := eventstream.NewQueryServedEvent("alice", "/api/chat/completions", 3, 3, 0)
		second := eventstream.NewQueryServedEvent("alice", "/api/chat/completions", 3, 3, 0)

		Expect(first.EventID).NotTo(Equal(second.EventID))
	})

	It("serializes with the v1 wire keys", func() {
		event := eventstream.NewQueryServedEvent("bob", "/api/chat/completions", 5, 2, 7*time.Millisecond)

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var decoded map[string]any
		Expect(json.Unmarshal(payload, &decoded)).To(Succeed())
		Expect(decoded).To(HaveKey("schema_version"))
		Expect(decoded).To(HaveKey("event_type"))
		Expect(decoded).To(HaveKey("event_id"))
		Expect(decoded).To(HaveKey("emitted_at"))
		Expect(decoded).To(HaveKeyWithValue("owner", "bob"))
		Expect(decoded).To(HaveKeyWithValue("endpoint", "/api/chat/completions"))
		Expect(decoded).To(HaveKeyWithValue("top_k", float64(5)))
		Expect(decoded).To(HaveKeyWithValue("result_count", float64(2)))
		Expect(decoded).To(HaveKeyWithValue("duration_ms", float64(7)))
	})
})

var _ = Describe("Nop publisher", func() {
	It("accepts events without error", func() {
		publisher := nop.New()
		defer publisher.Close()

		event := eventstream.NewQueryServedEvent("alice", "/api/chat/completions", 3, 1, 0)
		Expect(publisher.PublishQuery(context.Background(), event)).To(Succeed())
	})

	It("rejects a nil event", func() {
		publisher := nop.New()
		defer publisher.Close()

		err := publisher.PublishQuery(context.Background(), nil)
		Expect(err).To(MatchError(eventstream.ErrNilEvent))
	})
})

package conversation_test

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tubescribe.app/bot/common/llm"
	"tubescribe.app/bot/internal/conversation"
	"tubescribe.app/bot/internal/model"
	"tubescribe.app/bot/internal/store"
	"tubescribe.app/bot/internal/summarize"
)

type mockChain struct {
	completeFn func(ctx context.Context, msgs []llm.Message) (string, error)
	calls      int
	lastMsgs   []llm.Message
}

func (m *mockChain) Complete(ctx context.Context, msgs []llm.Message) (string, error) {
	m.calls++
	m.lastMsgs = msgs
	if m.completeFn != nil {
		return m.completeFn(ctx, msgs)
	}
	return "chain reply", nil
}

type mockSummarizer struct {
	summarizeFn func(ctx context.Context, transcript string) (string, error)
	calls       int
}

func (m *mockSummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	m.calls++
	if m.summarizeFn != nil {
		return m.summarizeFn(ctx, transcript)
	}
	return "a summary", nil
}

var _ = Describe("Manager", func() {
	var (
		ctx        context.Context
		st         *store.Memory
		chain      *mockChain
		summarizer *mockSummarizer
		mgr        *conversation.Manager
	)

	BeforeEach(func() {
		ctx = context.Background()
		st = store.NewMemory()
		chain = &mockChain{}
		summarizer = &mockSummarizer{}
		mgr = conversation.NewManager(st, chain, summarizer, 0)
	})

	Describe("SubmitVideo", func() {
		It("seeds the transcript as the first system turn and the summary as an assistant turn", func() {
			summary, err := mgr.SubmitVideo(ctx, "42", "people said things")

			Expect(err).NotTo(HaveOccurred())
			Expect(summary).To(Equal("a summary"))

			history := st.History(ctx, "42")
			Expect(history).To(HaveLen(2))
			Expect(history[0].Role).To(Equal(model.RoleSystem))
			Expect(history[0].Content).To(Equal("Video Transcript:\npeople said things"))
			Expect(history[1].Role).To(Equal(model.RoleAssistant))
			Expect(history[1].Content).To(Equal("Video Summary:\na summary"))
		})

		It("discards the previous video's context atomically", func() {
			_, err := mgr.SubmitVideo(ctx, "42", "first video")
			Expect(err).NotTo(HaveOccurred())
			_, err = mgr.Ask(ctx, "42", "what was that?")
			Expect(err).NotTo(HaveOccurred())

			_, err = mgr.SubmitVideo(ctx, "42", "second video")
			Expect(err).NotTo(HaveOccurred())

			history := st.History(ctx, "42")
			Expect(history).To(HaveLen(2), "only the new video's seed turns may remain")
			for _, turn := range history {
				Expect(turn.Content).NotTo(ContainSubstring("first video"))
				Expect(turn.Content).NotTo(ContainSubstring("what was that?"))
			}
			Expect(history[0].Content).To(Equal("Video Transcript:\nsecond video"))
		})

		It("leaves the prior context untouched when composition fails", func() {
			_, err := mgr.SubmitVideo(ctx, "42", "first video")
			Expect(err).NotTo(HaveOccurred())

			summarizer.summarizeFn = func(context.Context, string) (string, error) {
				return "", errors.New("all providers exhausted")
			}
			_, err = mgr.SubmitVideo(ctx, "42", "second video")

			Expect(err).To(HaveOccurred())
			history := st.History(ctx, "42")
			Expect(history).To(HaveLen(2))
			Expect(history[0].Content).To(ContainSubstring("first video"))
		})

		It("keeps different users independent", func() {
			_, err := mgr.SubmitVideo(ctx, "1", "video for one")
			Expect(err).NotTo(HaveOccurred())
			_, err = mgr.SubmitVideo(ctx, "2", "video for two")
			Expect(err).NotTo(HaveOccurred())

			Expect(st.History(ctx, "1")[0].Content).To(ContainSubstring("video for one"))
			Expect(st.History(ctx, "2")[0].Content).To(ContainSubstring("video for two"))
		})
	})

	Describe("Ask", func() {
		Context("without an active video context", func() {
			It("returns the fixed advisory and performs zero LLM calls", func() {
				reply, err := mgr.Ask(ctx, "42", "what is this about?")

				Expect(err).NotTo(HaveOccurred())
				Expect(reply).To(Equal(conversation.NoContextReply))
				Expect(chain.calls).To(BeZero())
				Expect(st.History(ctx, "42")).To(BeEmpty())
			})
		})

		Context("with an active video context", func() {
			BeforeEach(func() {
				_, err := mgr.SubmitVideo(ctx, "42", "the transcript")
				Expect(err).NotTo(HaveOccurred())
			})

			It("replays the persona, the full history in order, and the grounded question", func() {
				_, err := mgr.Ask(ctx, "42", "who spoke first?")
				Expect(err).NotTo(HaveOccurred())

				msgs := chain.lastMsgs
				Expect(msgs).To(HaveLen(4))
				Expect(msgs[0].Role).To(Equal(model.RoleSystem))
				Expect(msgs[0].Content).To(Equal(summarize.PersonaPrompt))
				Expect(msgs[1].Content).To(Equal("Video Transcript:\nthe transcript"))
				Expect(msgs[2].Content).To(Equal("Video Summary:\na summary"))
				Expect(msgs[3].Role).To(Equal(model.RoleUser))
				Expect(msgs[3].Content).To(ContainSubstring("who spoke first?"))
				Expect(msgs[3].Content).To(ContainSubstring("Only use information from the video transcript/summary"))
			})

			It("appends the raw question and the reply as turns", func() {
				reply, err := mgr.Ask(ctx, "42", "who spoke first?")
				Expect(err).NotTo(HaveOccurred())
				Expect(reply).To(Equal("chain reply"))

				history := st.History(ctx, "42")
				Expect(history).To(HaveLen(4))
				Expect(history[2]).To(Equal(model.UserTurn("who spoke first?")))
				Expect(history[3]).To(Equal(model.AssistantTurn("chain reply")))
			})

			It("does not record a turn when the chain fails", func() {
				chain.completeFn = func(context.Context, []llm.Message) (string, error) {
					return "", errors.New("provider unreachable")
				}

				_, err := mgr.Ask(ctx, "42", "anything?")

				Expect(err).To(HaveOccurred())
				Expect(st.History(ctx, "42")).To(HaveLen(2))
			})
		})
	})

	Describe("history bounding", func() {
		BeforeEach(func() {
			mgr = conversation.NewManager(st, chain, summarizer, 6)
			_, err := mgr.SubmitVideo(ctx, "42", "the transcript")
			Expect(err).NotTo(HaveOccurred())
		})

		It("drops the oldest non-seed turns beyond the cap", func() {
			for i := 0; i < 5; i++ {
				_, err := mgr.Ask(ctx, "42", fmt.Sprintf("question %d", i))
				Expect(err).NotTo(HaveOccurred())
			}

			history := st.History(ctx, "42")
			Expect(len(history)).To(BeNumerically("<=", 6))
			Expect(history[0].Content).To(Equal("Video Transcript:\nthe transcript"), "seed survives trimming")
			Expect(history[1].Content).To(Equal("Video Summary:\na summary"))
			Expect(history[len(history)-2].Content).To(Equal("question 4"))
		})
	})

	Describe("HasContext", func() {
		It("reflects the presence of seeded history", func() {
			Expect(mgr.HasContext(ctx, "42")).To(BeFalse())

			_, err := mgr.SubmitVideo(ctx, "42", "the transcript")
			Expect(err).NotTo(HaveOccurred())

			Expect(mgr.HasContext(ctx, "42")).To(BeTrue())
		})
	})
})

package bot_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tubescribe.app/bot/internal/bot"
	"tubescribe.app/bot/internal/store"
	"tubescribe.app/bot/internal/transcript"
)

const adminID = int64(99)

type fakeSender struct {
	mu     sync.Mutex
	sent   []tgbotapi.Chattable
	sendFn func(c tgbotapi.Chattable) (tgbotapi.Message, error)
	nextID int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	if f.sendFn != nil {
		return f.sendFn(c)
	}
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeSender) all() []tgbotapi.Chattable {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.Chattable{}, f.sent...)
}

func (f *fakeSender) texts() []string {
	var out []string
	for _, c := range f.all() {
		out = append(out, textOf(c))
	}
	return out
}

func textOf(c tgbotapi.Chattable) string {
	switch v := c.(type) {
	case tgbotapi.MessageConfig:
		return v.Text
	case tgbotapi.EditMessageTextConfig:
		return v.Text
	default:
		return ""
	}
}

type fakeAcquirer struct {
	result transcript.Result
	err    error
	calls  int
	lastIn string
}

func (f *fakeAcquirer) Acquire(_ context.Context, rawURL string) (transcript.Result, error) {
	f.calls++
	f.lastIn = rawURL
	return f.result, f.err
}

type fakeConversations struct {
	submitFn func(ctx context.Context, userID, transcript string) (string, error)
	askFn    func(ctx context.Context, userID, question string) (string, error)

	mu          sync.Mutex
	submitCalls int
	askCalls    int
}

func (f *fakeConversations) SubmitVideo(ctx context.Context, userID, transcript string) (string, error) {
	f.mu.Lock()
	f.submitCalls++
	f.mu.Unlock()
	if f.submitFn != nil {
		return f.submitFn(ctx, userID, transcript)
	}
	return "the summary", nil
}

func (f *fakeConversations) Ask(ctx context.Context, userID, question string) (string, error) {
	f.mu.Lock()
	f.askCalls++
	f.mu.Unlock()
	if f.askFn != nil {
		return f.askFn(ctx, userID, question)
	}
	return "the answer", nil
}

func textMessage(userID, chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
	}}
}

func commandMessage(userID, chatID int64, text string) tgbotapi.Update {
	cmdLen := len(text)
	if i := strings.IndexByte(text, ' '); i > 0 {
		cmdLen = i
	}
	u := textMessage(userID, chatID, text)
	u.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}}
	return u
}

var _ = Describe("Gateway", func() {
	var (
		sender   *fakeSender
		st       *store.Memory
		acquirer *fakeAcquirer
		conv     *fakeConversations
		gw       *bot.Gateway
	)

	BeforeEach(func() {
		sender = &fakeSender{}
		st = store.NewMemory()
		acquirer = &fakeAcquirer{result: transcript.Result{
			VideoID: "abc",
			Text:    "transcript text",
			Source:  transcript.SourceCaptions,
		}}
		conv = &fakeConversations{}
		gw = bot.NewGateway(sender, st, acquirer, conv, adminID)
	})

	// dispatch feeds one update through the loop and waits for the handler
	// goroutine to produce at least n outbound messages.
	dispatch := func(u tgbotapi.Update, atLeast int) {
		updates := make(chan tgbotapi.Update, 1)
		updates <- u
		close(updates)
		gw.Run(context.Background(), updates)
		Eventually(func() int { return len(sender.all()) }).Should(BeNumerically(">=", atLeast))
	}

	Describe("video submissions", func() {
		It("sends a status message, then edits it with the summary", func() {
			dispatch(textMessage(7, 7, "https://youtu.be/abc please"), 2)

			texts := sender.texts()
			Expect(texts[0]).To(Equal("Watching video for you..."))
			Expect(texts[1]).To(Equal("the summary"))
			Expect(sender.all()[1]).To(BeAssignableToTypeOf(tgbotapi.EditMessageTextConfig{}))
			Expect(acquirer.lastIn).To(ContainSubstring("youtu.be/abc"))
			Expect(conv.submitCalls).To(Equal(1))
		})

		It("surfaces the acquisition failure class, not a stack trace", func() {
			acquirer.err = &transcript.AcquireError{
				Reason: transcript.ReasonDisabled,
				Err:    errors.New("0 caption tracks"),
			}

			dispatch(textMessage(7, 7, "https://youtube.com/watch?v=abc"), 2)

			texts := sender.texts()
			Expect(texts[1]).To(Equal(transcript.ReasonDisabled.UserMessage()))
			Expect(texts[1]).NotTo(ContainSubstring("caption tracks"))
			Expect(conv.submitCalls).To(BeZero())
		})

		It("reports a composition failure without dropping the update loop", func() {
			conv.submitFn = func(context.Context, string, string) (string, error) {
				return "", errors.New("all providers exhausted")
			}

			dispatch(textMessage(7, 7, "https://youtu.be/abc"), 2)

			Expect(sender.texts()[1]).To(ContainSubstring("couldn't generate a summary"))
		})
	})

	Describe("questions", func() {
		It("routes non-link text to the conversation manager", func() {
			conv.askFn = func(_ context.Context, userID, question string) (string, error) {
				Expect(userID).To(Equal("7"))
				Expect(question).To(Equal("what was the point?"))
				return "the point was X", nil
			}

			dispatch(textMessage(7, 7, "what was the point?"), 1)

			Expect(sender.texts()[0]).To(Equal("the point was X"))
		})
	})

	Describe("commands", func() {
		It("registers the user and welcomes them on /start", func() {
			dispatch(commandMessage(7, 7, "/start"), 1)

			Expect(st.IsMember(context.Background(), store.UserSetKey, "7")).To(BeTrue())
			Expect(sender.texts()[0]).To(ContainSubstring("YouTube link"))
		})

		It("reports the user count to the admin on /users", func() {
			st.AddMember(context.Background(), store.UserSetKey, "1")
			st.AddMember(context.Background(), store.UserSetKey, "2")

			dispatch(commandMessage(adminID, adminID, "/users"), 1)

			Expect(sender.texts()[0]).To(Equal("Registered users: 2"))
		})

		It("ignores /users from non-admins", func() {
			updates := make(chan tgbotapi.Update, 1)
			updates <- commandMessage(7, 7, "/users")
			close(updates)
			gw.Run(context.Background(), updates)

			Consistently(func() int { return len(sender.all()) }).Should(BeZero())
		})
	})

	Describe("Broadcast", func() {
		BeforeEach(func() {
			for _, id := range []string{"1", "2", "3"} {
				st.AddMember(context.Background(), store.UserSetKey, id)
			}
		})

		It("attempts every user and tallies individual failures", func() {
			sender.sendFn = func(c tgbotapi.Chattable) (tgbotapi.Message, error) {
				if mc, ok := c.(tgbotapi.MessageConfig); ok && mc.ChatID == 2 {
					return tgbotapi.Message{}, errors.New("blocked by user")
				}
				return tgbotapi.Message{}, nil
			}

			delivered, failed := gw.Broadcast(context.Background(), "maintenance tonight")

			Expect(delivered).To(Equal(2))
			Expect(failed).To(Equal(1))
			Expect(sender.all()).To(HaveLen(3), "a failed send must not abort the walk")
		})

		It("reports the tally back to the admin on /bcast", func() {
			dispatch(commandMessage(adminID, adminID, "/bcast hello everyone"), 4)

			texts := sender.texts()
			Expect(texts[len(texts)-1]).To(Equal("Broadcast complete: 3 delivered, 0 failed."))
		})

		It("takes the payload from the replied-to message", func() {
			u := commandMessage(adminID, adminID, "/bcast")
			u.Message.ReplyToMessage = &tgbotapi.Message{Text: "release notes"}

			dispatch(u, 4)

			Expect(sender.texts()[0]).To(Equal("release notes"))
		})
	})
})

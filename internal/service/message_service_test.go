package service

import (
	"murmur/internal/api/dto"
	"murmur/internal/model"
	"murmur/internal/pkg/consts"
	"murmur/internal/pkg/linkpreview"
	"context"
	"errors"
	"testing"
	"time"
)

func setupMessageTest(t *testing.T) (MessageService, *fakeMsgRepo, *fakePublisher, []uint64, uint64) {
	t.Helper()
	convSvc, msgSvc, _, msgRepo, pub, ids := setupConversationTest(t, "alice", "bob", "carol")
	res, err := convSvc.CreateConversation(context.Background(), ids[0], &dto.CreateConversationReq{
		UserIDs: []uint64{ids[1]},
	})
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	pub.mu.Lock()
	pub.events = nil
	pub.mu.Unlock()
	return msgSvc, msgRepo, pub, ids, res.ConversationID
}

func TestSendMessageEmptyTextRejected(t *testing.T) {
	msgSvc, msgRepo, _, ids, convID := setupMessageTest(t)

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := msgSvc.SendMessage(context.Background(), ids[0], &dto.SendMessageReq{
			ConversationID: convID,
			Content:        content,
		})
		if !errors.Is(err, ErrMessageEmpty) {
			t.Errorf("content %q: expected ErrMessageEmpty, got %v", content, err)
		}
	}
	if msgRepo.createCalls != 0 {
		t.Errorf("empty message must be rejected before hitting the store, got %d creates", msgRepo.createCalls)
	}
}

func TestSendMessageRequiresMembership(t *testing.T) {
	msgSvc, _, _, ids, convID := setupMessageTest(t)

	_, err := msgSvc.SendMessage(context.Background(), ids[2], &dto.SendMessageReq{
		ConversationID: convID,
		Content:        "hi",
	})
	if !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}

func TestSendMessageUnknownContentType(t *testing.T) {
	msgSvc, _, _, ids, convID := setupMessageTest(t)

	_, err := msgSvc.SendMessage(context.Background(), ids[0], &dto.SendMessageReq{
		ConversationID: convID,
		Content:        "hi",
		ContentType:    "sticker",
	})
	if !errors.Is(err, ErrContentType) {
		t.Fatalf("expected ErrContentType, got %v", err)
	}
}

func TestSendAttachmentRequiresFileURL(t *testing.T) {
	msgSvc, _, _, ids, convID := setupMessageTest(t)

	_, err := msgSvc.SendMessage(context.Background(), ids[0], &dto.SendMessageReq{
		ConversationID: convID,
		ContentType:    model.ContentTypeImage,
	})
	if !errors.Is(err, ErrParamInvalid) {
		t.Fatalf("expected ErrParamInvalid, got %v", err)
	}
}

func TestListMessagesInsertionOrder(t *testing.T) {
	msgSvc, _, _, ids, convID := setupMessageTest(t)

	contents := []string{"one", "two", "three"}
	for _, c := range contents {
		if _, err := msgSvc.SendMessage(context.Background(), ids[0], &dto.SendMessageReq{
			ConversationID: convID,
			Content:        c,
		}); err != nil {
			t.Fatalf("send %q: %v", c, err)
		}
	}

	msgs, err := msgSvc.ListMessages(context.Background(), ids[1], convID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != len(contents) {
		t.Fatalf("expected %d messages, got %d", len(contents), len(msgs))
	}
	for i, c := range contents {
		if msgs[i].Content == nil || *msgs[i].Content != c {
			t.Errorf("position %d: expected %q", i, c)
		}
	}
}

func TestListMessagesRequiresMembership(t *testing.T) {
	msgSvc, _, _, ids, convID := setupMessageTest(t)

	if _, err := msgSvc.ListMessages(context.Background(), ids[2], convID); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}

func TestSendMessageReplyMustStayInConversation(t *testing.T) {
	convSvc, msgSvc, _, _, _, ids := setupConversationTest(t, "alice", "bob", "carol")
	first, _ := convSvc.CreateConversation(context.Background(), ids[0], &dto.CreateConversationReq{UserIDs: []uint64{ids[1]}})
	second, _ := convSvc.CreateConversation(context.Background(), ids[0], &dto.CreateConversationReq{UserIDs: []uint64{ids[2]}})

	origin, err := msgSvc.SendMessage(context.Background(), ids[0], &dto.SendMessageReq{
		ConversationID: first.ConversationID,
		Content:        "origin",
	})
	if err != nil {
		t.Fatalf("send origin: %v", err)
	}

	_, err = msgSvc.SendMessage(context.Background(), ids[0], &dto.SendMessageReq{
		ConversationID: second.ConversationID,
		Content:        "reply",
		RepliedToID:    &origin.ID,
	})
	if !errors.Is(err, ErrReplyCrossConv) {
		t.Fatalf("expected ErrReplyCrossConv, got %v", err)
	}

	reply, err := msgSvc.SendMessage(context.Background(), ids[1], &dto.SendMessageReq{
		ConversationID: first.ConversationID,
		Content:        "reply",
		RepliedToID:    &origin.ID,
	})
	if err != nil {
		t.Fatalf("same-conversation reply: %v", err)
	}
	if reply.RepliedToID == nil || *reply.RepliedToID != origin.ID {
		t.Errorf("reply should reference origin message")
	}
}

func TestSendMessageDispatchesLinkPreview(t *testing.T) {
	convSvc, _, convRepo, msgRepo, pub, ids := setupConversationTest(t, "alice", "bob")
	res, err := convSvc.CreateConversation(context.Background(), ids[0], &dto.CreateConversationReq{
		UserIDs: []uint64{ids[1]},
	})
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	fetcher := &fakeFetcher{
		preview: &linkpreview.Preview{URL: "https://example.com", Title: "Example"},
		fetched: make(chan string, 1),
	}
	msgSvc := NewMessageService(msgRepo, convRepo, pub, fetcher)

	msg, err := msgSvc.SendMessage(context.Background(), ids[0], &dto.SendMessageReq{
		ConversationID: res.ConversationID,
		Content:        "看看这个 https://example.com",
	})
	if err != nil {
		t.Fatalf("send message: %v", err)
	}

	select {
	case link := <-fetcher.fetched:
		if link != "https://example.com" {
			t.Errorf("fetched wrong link %q", link)
		}
	case <-time.After(time.Second):
		t.Fatal("link preview fetch was not dispatched")
	}

	// 异步落库，轮询等待预览字段写入
	deadline := time.Now().Add(time.Second)
	for {
		stored, _ := msgRepo.GetMessage(context.Background(), msg.ID)
		if stored.PreviewTitle != nil {
			if *stored.PreviewTitle != "Example" {
				t.Errorf("unexpected preview title %q", *stored.PreviewTitle)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("preview was never saved")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSendMessageLinkPreviewDisabled(t *testing.T) {
	convSvc, _, convRepo, msgRepo, pub, ids := setupConversationTest(t, "alice", "bob")
	res, err := convSvc.CreateConversation(context.Background(), ids[0], &dto.CreateConversationReq{
		UserIDs: []uint64{ids[1]},
	})
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	// nil fetcher 即配置里关闭了链接预览
	msgSvc := NewMessageService(msgRepo, convRepo, pub, nil)

	msg, err := msgSvc.SendMessage(context.Background(), ids[0], &dto.SendMessageReq{
		ConversationID: res.ConversationID,
		Content:        "看看这个 https://example.com",
	})
	if err != nil {
		t.Fatalf("send message: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	stored, _ := msgRepo.GetMessage(context.Background(), msg.ID)
	if stored.PreviewURL != nil || stored.PreviewTitle != nil {
		t.Errorf("preview must not be fetched when disabled, got %+v", stored)
	}
}

func TestToggleReactionTwiceCancels(t *testing.T) {
	msgSvc, msgRepo, pub, ids, convID := setupMessageTest(t)

	msg, err := msgSvc.SendMessage(context.Background(), ids[0], &dto.SendMessageReq{
		ConversationID: convID,
		Content:        "hi",
	})
	if err != nil {
		t.Fatalf("send message: %v", err)
	}

	req := &dto.ToggleReactionReq{MessageID: msg.ID, Reaction: "👍"}
	if err = msgSvc.ToggleReaction(context.Background(), ids[1], req); err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if got := msgRepo.reactionCount(msg.ID); got != 1 {
		t.Fatalf("expected 1 reaction after first toggle, got %d", got)
	}
	if err = msgSvc.ToggleReaction(context.Background(), ids[1], req); err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if got := msgRepo.reactionCount(msg.ID); got != 0 {
		t.Fatalf("expected 0 reactions after second toggle, got %d", got)
	}

	events := pub.all()
	if len(events) != 3 {
		t.Fatalf("expected 3 events (message + 2 toggles), got %d", len(events))
	}
	first, second := events[1], events[2]
	if first.Table != consts.TableReactions || first.Event != consts.EventInsert {
		t.Fatalf("unexpected first toggle event: %s/%s", first.Table, first.Event)
	}
	if second.Table != consts.TableReactions || second.Event != consts.EventDelete {
		t.Fatalf("unexpected second toggle event: %s/%s", second.Table, second.Event)
	}
	if first.ConversationID != convID || second.ConversationID != convID {
		t.Fatalf("toggle events should target conversation %d", convID)
	}
}

func TestToggleReactionIndependentPerEmojiAndUser(t *testing.T) {
	msgSvc, msgRepo, _, ids, convID := setupMessageTest(t)

	msg, err := msgSvc.SendMessage(context.Background(), ids[0], &dto.SendMessageReq{
		ConversationID: convID,
		Content:        "hi",
	})
	if err != nil {
		t.Fatalf("send message: %v", err)
	}

	if err = msgSvc.ToggleReaction(context.Background(), ids[0], &dto.ToggleReactionReq{MessageID: msg.ID, Reaction: "👍"}); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err = msgSvc.ToggleReaction(context.Background(), ids[0], &dto.ToggleReactionReq{MessageID: msg.ID, Reaction: "❤️"}); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err = msgSvc.ToggleReaction(context.Background(), ids[1], &dto.ToggleReactionReq{MessageID: msg.ID, Reaction: "👍"}); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if got := msgRepo.reactionCount(msg.ID); got != 3 {
		t.Fatalf("expected 3 independent reactions, got %d", got)
	}
}

func TestToggleReactionRequiresMembership(t *testing.T) {
	msgSvc, _, _, ids, convID := setupMessageTest(t)

	msg, _ := msgSvc.SendMessage(context.Background(), ids[0], &dto.SendMessageReq{
		ConversationID: convID,
		Content:        "hi",
	})
	err := msgSvc.ToggleReaction(context.Background(), ids[2], &dto.ToggleReactionReq{MessageID: msg.ID, Reaction: "👍"})
	if !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}

func TestDeleteMessageSenderOnly(t *testing.T) {
	msgSvc, _, _, ids, convID := setupMessageTest(t)

	msg, err := msgSvc.SendMessage(context.Background(), ids[0], &dto.SendMessageReq{
		ConversationID: convID,
		Content:        "hi",
	})
	if err != nil {
		t.Fatalf("send message: %v", err)
	}

	if err = msgSvc.DeleteMessage(context.Background(), ids[1], msg.ID); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant for non-sender, got %v", err)
	}
	if err = msgSvc.DeleteMessage(context.Background(), ids[0], msg.ID); err != nil {
		t.Fatalf("sender delete: %v", err)
	}
	if err = msgSvc.DeleteMessage(context.Background(), ids[0], msg.ID); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound after delete, got %v", err)
	}
}

func TestSendMessagePublishesChange(t *testing.T) {
	msgSvc, _, pub, ids, convID := setupMessageTest(t)

	if _, err := msgSvc.SendMessage(context.Background(), ids[0], &dto.SendMessageReq{
		ConversationID: convID,
		Content:        "hi",
	}); err != nil {
		t.Fatalf("send message: %v", err)
	}

	events := pub.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Table != consts.TableMessages || e.Event != consts.EventInsert || e.ConversationID != convID {
		t.Errorf("unexpected event %+v", e)
	}
}

func TestSendMessageDisappearsAt(t *testing.T) {
	msgSvc, _, _, ids, convID := setupMessageTest(t)

	msg, err := msgSvc.SendMessage(context.Background(), ids[0], &dto.SendMessageReq{
		ConversationID:    convID,
		Content:           "secret",
		DisappearAfterSec: 60,
	})
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if msg.DisappearsAt == nil {
		t.Fatalf("expected disappears_at to be set")
	}

	plain, err := msgSvc.SendMessage(context.Background(), ids[0], &dto.SendMessageReq{
		ConversationID: convID,
		Content:        "keep",
	})
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if plain.DisappearsAt != nil {
		t.Errorf("expected no disappears_at for plain message")
	}
}

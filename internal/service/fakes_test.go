package service

import (
	"murmur/internal/api/dto"
	"murmur/internal/model"
	"murmur/internal/pkg/linkpreview"
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
)

// 内存版仓储，行为对齐 MySQL 实现里约定的排序与空值语义

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[uint64]*model.User
	nextID uint64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uint64]*model.User{}}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id uint64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id], nil
}

func (f *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetUsersByIDs(_ context.Context, ids []uint64) ([]*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			res = append(res, u)
		}
	}
	return res, nil
}

func (f *fakeUserRepo) UpdateAvatar(_ context.Context, id uint64, avatarURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.AvatarURL = &avatarURL
	}
	return nil
}

type fakeConvRepo struct {
	mu           sync.Mutex
	convs        map[uint64]*model.Conversation
	participants []*model.ConversationParticipant
	nextID       uint64
}

func newFakeConvRepo() *fakeConvRepo {
	return &fakeConvRepo{convs: map[uint64]*model.Conversation{}}
}

func (f *fakeConvRepo) CreateConversation(_ context.Context, conv *model.Conversation, participants []*model.ConversationParticipant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	conv.ID = f.nextID
	now := time.Now()
	conv.CreatedAt = now
	conv.UpdatedAt = now
	f.convs[conv.ID] = conv
	for _, p := range participants {
		p.ConversationID = conv.ID
		p.JoinedAt = now
		f.participants = append(f.participants, p)
	}
	return nil
}

func (f *fakeConvRepo) GetConversationIDsByUser(_ context.Context, userID uint64) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uint64
	for _, p := range f.participants {
		if p.UserID == userID {
			ids = append(ids, p.ConversationID)
		}
	}
	return ids, nil
}

func (f *fakeConvRepo) GetConversationsWithParticipants(_ context.Context, convIDs []uint64) ([]*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := make([]*model.Conversation, 0, len(convIDs))
	for _, id := range convIDs {
		conv, ok := f.convs[id]
		if !ok {
			continue
		}
		copied := *conv
		copied.Participants = nil
		for _, p := range f.participants {
			if p.ConversationID == id {
				copied.Participants = append(copied.Participants, *p)
			}
		}
		res = append(res, &copied)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].UpdatedAt.After(res[j].UpdatedAt)
	})
	return res, nil
}

func (f *fakeConvRepo) FindDirectConversation(_ context.Context, userID, otherID uint64) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, conv := range f.convs {
		if conv.IsGroup {
			continue
		}
		var hasA, hasB bool
		for _, p := range f.participants {
			if p.ConversationID != id {
				continue
			}
			if p.UserID == userID {
				hasA = true
			}
			if p.UserID == otherID {
				hasB = true
			}
		}
		if hasA && hasB {
			return id, nil
		}
	}
	return 0, nil
}

func (f *fakeConvRepo) IsParticipant(_ context.Context, convID uint64, userID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.participants {
		if p.ConversationID == convID && p.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeConvRepo) GetParticipants(_ context.Context, convID uint64) ([]*model.ConversationParticipant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []*model.ConversationParticipant
	for _, p := range f.participants {
		if p.ConversationID == convID {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].JoinedAt.Before(res[j].JoinedAt) })
	return res, nil
}

func (f *fakeConvRepo) bumpUpdatedAt(convID uint64, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if conv, ok := f.convs[convID]; ok {
		conv.UpdatedAt = at
	}
}

type fakeMsgRepo struct {
	mu        sync.Mutex
	msgs      map[uint64]*model.Message
	reactions []*model.MessageReaction
	nextID    uint64
	lastTick  time.Time

	convRepo    *fakeConvRepo
	createCalls int
}

func newFakeMsgRepo(convRepo *fakeConvRepo) *fakeMsgRepo {
	return &fakeMsgRepo{msgs: map[uint64]*model.Message{}, convRepo: convRepo}
}

// tick 严格递增，同一瞬间写入的两条消息也能区分先后
func (f *fakeMsgRepo) tick() time.Time {
	now := time.Now()
	if !now.After(f.lastTick) {
		now = f.lastTick.Add(time.Millisecond)
	}
	f.lastTick = now
	return now
}

func (f *fakeMsgRepo) CreateMessage(_ context.Context, msg *model.Message) error {
	f.mu.Lock()
	f.createCalls++
	f.nextID++
	msg.ID = f.nextID
	msg.CreatedAt = f.tick()
	msg.UpdatedAt = msg.CreatedAt
	f.msgs[msg.ID] = msg
	f.mu.Unlock()
	if f.convRepo != nil {
		f.convRepo.bumpUpdatedAt(msg.ConversationID, msg.CreatedAt)
	}
	return nil
}

func (f *fakeMsgRepo) GetMessage(_ context.Context, msgID uint64) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.msgs[msgID]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMsgRepo) ListByConversation(_ context.Context, convID uint64) ([]*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []*model.Message
	for _, m := range f.msgs {
		if m.ConversationID != convID {
			continue
		}
		copied := *m
		copied.Reactions = nil
		for _, r := range f.reactions {
			if r.MessageID == m.ID {
				copied.Reactions = append(copied.Reactions, *r)
			}
		}
		res = append(res, &copied)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID < res[j].ID
		}
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

func (f *fakeMsgRepo) GetLastMessage(_ context.Context, convID uint64) (*model.Message, error) {
	msgs, _ := f.ListByConversation(context.Background(), convID)
	if len(msgs) == 0 {
		return nil, nil
	}
	return msgs[len(msgs)-1], nil
}

func (f *fakeMsgRepo) DeleteMessage(_ context.Context, msgID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.msgs, msgID)
	kept := f.reactions[:0]
	for _, r := range f.reactions {
		if r.MessageID != msgID {
			kept = append(kept, r)
		}
	}
	f.reactions = kept
	for _, m := range f.msgs {
		if m.RepliedToID != nil && *m.RepliedToID == msgID {
			m.RepliedToID = nil
		}
	}
	return nil
}

func (f *fakeMsgRepo) SetLinkPreview(_ context.Context, msgID uint64, url, title, image string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.msgs[msgID]; ok {
		m.PreviewURL = &url
		m.PreviewTitle = &title
		m.PreviewImage = &image
	}
	return nil
}

func (f *fakeMsgRepo) AddReaction(_ context.Context, reaction *model.MessageReaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reactions {
		if r.MessageID == reaction.MessageID && r.UserID == reaction.UserID && r.Reaction == reaction.Reaction {
			return gorm.ErrDuplicatedKey
		}
	}
	f.nextID++
	reaction.ID = f.nextID
	reaction.CreatedAt = f.tick()
	f.reactions = append(f.reactions, reaction)
	return nil
}

func (f *fakeMsgRepo) DeleteReaction(_ context.Context, msgID, userID uint64, reaction string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.reactions[:0]
	for _, r := range f.reactions {
		if r.MessageID == msgID && r.UserID == userID && r.Reaction == reaction {
			continue
		}
		kept = append(kept, r)
	}
	f.reactions = kept
	return nil
}

func (f *fakeMsgRepo) ListExpired(_ context.Context, now time.Time, limit int) ([]*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []*model.Message
	for _, m := range f.msgs {
		if m.DisappearsAt != nil && !m.DisappearsAt.After(now) {
			res = append(res, m)
			if len(res) == limit {
				break
			}
		}
	}
	return res, nil
}

func (f *fakeMsgRepo) reactionCount(msgID uint64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.reactions {
		if r.MessageID == msgID {
			n++
		}
	}
	return n
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*dto.ChangeEventDTO
}

func (f *fakePublisher) PublishChange(_ context.Context, event *dto.ChangeEventDTO) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) all() []*dto.ChangeEventDTO {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*dto.ChangeEventDTO{}, f.events...)
}

type fakeFetcher struct {
	preview *linkpreview.Preview
	fetched chan string
}

func (f *fakeFetcher) Fetch(_ context.Context, link string) (*linkpreview.Preview, error) {
	if f.fetched != nil {
		f.fetched <- link
	}
	if f.preview == nil {
		return nil, errors.New("no preview")
	}
	return f.preview, nil
}

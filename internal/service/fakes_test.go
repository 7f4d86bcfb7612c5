package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/contract"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// In-memory store shared by the fake repositories. Specifications are
// interpreted structurally instead of being applied to a query builder.
type fakeStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*entity.User
	otps     map[uuid.UUID]*entity.EmailVerificationToken
	provs    map[uuid.UUID]*entity.UserProvider
	refresh  map[uuid.UUID]*entity.UserRefreshToken
	chats    map[uuid.UUID]*entity.Chat
	messages map[uuid.UUID]*entity.Message
	shares   map[uuid.UUID]*entity.ChatShare
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[uuid.UUID]*entity.User),
		otps:     make(map[uuid.UUID]*entity.EmailVerificationToken),
		provs:    make(map[uuid.UUID]*entity.UserProvider),
		refresh:  make(map[uuid.UUID]*entity.UserRefreshToken),
		chats:    make(map[uuid.UUID]*entity.Chat),
		messages: make(map[uuid.UUID]*entity.Message),
		shares:   make(map[uuid.UUID]*entity.ChatShare),
	}
}

type fakeFactory struct {
	store *fakeStore
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{store: newFakeStore()}
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: f.store}
}

type fakeUow struct {
	store *fakeStore
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) UserRepository() contract.UserRepository {
	return &fakeUserRepo{store: u.store}
}
func (u *fakeUow) ChatRepository() contract.ChatRepository {
	return &fakeChatRepo{store: u.store}
}
func (u *fakeUow) MessageRepository() contract.MessageRepository {
	return &fakeMessageRepo{store: u.store}
}
func (u *fakeUow) ChatShareRepository() contract.ChatShareRepository {
	return &fakeShareRepo{store: u.store}
}

// --- users ---

type fakeUserRepo struct {
	store *fakeStore
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *user
	r.store.users[user.Id] = &cp
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	return r.Create(ctx, user)
}

func (r *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if userMatches(u, specs) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for _, u := range r.store.users {
		if userMatches(u, specs) {
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) ActivateUser(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if u, ok := r.store.users[id]; ok {
		u.Status = entity.UserStatusActive
		u.EmailVerified = true
		now := time.Now()
		u.EmailVerifiedAt = &now
	}
	return nil
}

func (r *fakeUserRepo) CreateEmailVerificationToken(ctx context.Context, token *entity.EmailVerificationToken) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *token
	r.store.otps[token.Id] = &cp
	return nil
}

func (r *fakeUserRepo) FindEmailVerificationToken(ctx context.Context, specs ...specification.Specification) (*entity.EmailVerificationToken, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, tok := range r.store.otps {
		matched := true
		for _, spec := range specs {
			switch s := spec.(type) {
			case specification.ByToken:
				if tok.Token != s.Token {
					matched = false
				}
			case specification.FilterBy:
				if s.Field == "user_id" && tok.UserId != s.Value.(uuid.UUID) {
					matched = false
				}
			}
		}
		if matched {
			cp := *tok
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) DeleteEmailVerificationToken(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.otps, id)
	return nil
}

func (r *fakeUserRepo) CreateProvider(ctx context.Context, provider *entity.UserProvider) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *provider
	r.store.provs[provider.Id] = &cp
	return nil
}

func (r *fakeUserRepo) FindProvider(ctx context.Context, specs ...specification.Specification) (*entity.UserProvider, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.provs {
		matched := true
		for _, spec := range specs {
			if s, ok := spec.(specification.ByProvider); ok {
				if p.ProviderName != s.Name || p.ProviderUserId != s.UserId {
					matched = false
				}
			}
		}
		if matched {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) CreateRefreshToken(ctx context.Context, token *entity.UserRefreshToken) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *token
	r.store.refresh[token.Id] = &cp
	return nil
}

func (r *fakeUserRepo) FindRefreshToken(ctx context.Context, specs ...specification.Specification) (*entity.UserRefreshToken, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, tok := range r.store.refresh {
		matched := true
		for _, spec := range specs {
			if s, ok := spec.(specification.FilterBy); ok {
				if s.Field == "token_hash" && tok.TokenHash != s.Value.(string) {
					matched = false
				}
			}
		}
		if matched {
			cp := *tok
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) RevokeRefreshToken(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if tok, ok := r.store.refresh[id]; ok {
		tok.Revoked = true
	}
	return nil
}

func userMatches(u *entity.User, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByEmail:
			if u.Email != s.Email {
				return false
			}
		case specification.ByID:
			if u.Id != s.ID {
				return false
			}
		}
	}
	return true
}

// --- chats ---

type fakeChatRepo struct {
	store *fakeStore
}

func (r *fakeChatRepo) Create(ctx context.Context, chat *entity.Chat) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *chat
	r.store.chats[chat.Id] = &cp
	return nil
}

func (r *fakeChatRepo) Update(ctx context.Context, chat *entity.Chat) error {
	return r.Create(ctx, chat)
}

func (r *fakeChatRepo) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if chat, ok := r.store.chats[id]; ok {
		chat.UpdatedAt = at
	}
	return nil
}

func (r *fakeChatRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.chats, id)
	// FK cascades take shares with the chat.
	for sid, share := range r.store.shares {
		if share.ChatId == id {
			delete(r.store.shares, sid)
		}
	}
	return nil
}

func (r *fakeChatRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chat, error) {
	chats, err := r.FindAll(ctx, specs...)
	if err != nil || len(chats) == 0 {
		return nil, err
	}
	return chats[0], nil
}

func (r *fakeChatRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chat, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*entity.Chat
	var order *specification.OrderBy
	for _, c := range r.store.chats {
		matched := true
		for _, spec := range specs {
			switch s := spec.(type) {
			case specification.ByID:
				if c.Id != s.ID {
					matched = false
				}
			case specification.OwnedBy:
				if c.UserId == nil || *c.UserId != s.UserID {
					matched = false
				}
			case specification.OrderBy:
				o := s
				order = &o
			}
		}
		if matched {
			cp := *c
			out = append(out, &cp)
		}
	}

	if order != nil && order.Field == "updated_at" {
		sort.Slice(out, func(i, j int) bool {
			if order.Desc {
				return out[i].UpdatedAt.After(out[j].UpdatedAt)
			}
			return out[i].UpdatedAt.Before(out[j].UpdatedAt)
		})
	}
	return out, nil
}

func (r *fakeChatRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	chats, err := r.FindAll(ctx, specs...)
	return int64(len(chats)), err
}

// --- messages ---

type fakeMessageRepo struct {
	store *fakeStore
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *entity.Message) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *message
	r.store.messages[message.Id] = &cp
	return nil
}

func (r *fakeMessageRepo) CreateBatch(ctx context.Context, messages []*entity.Message) error {
	for _, m := range messages {
		if err := r.Create(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeMessageRepo) DeleteAllByChatId(ctx context.Context, chatId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, m := range r.store.messages {
		if m.ChatId == chatId {
			delete(r.store.messages, id)
		}
	}
	return nil
}

func (r *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*entity.Message
	for _, m := range r.store.messages {
		matched := true
		for _, spec := range specs {
			if s, ok := spec.(specification.ByChatID); ok {
				if m.ChatId != s.ChatID {
					matched = false
				}
			}
		}
		if matched {
			cp := *m
			out = append(out, &cp)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	msgs, err := r.FindAll(ctx, specs...)
	return int64(len(msgs)), err
}

// --- shares ---

type fakeShareRepo struct {
	store *fakeStore
}

func (r *fakeShareRepo) Create(ctx context.Context, share *entity.ChatShare) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *share
	r.store.shares[share.Id] = &cp
	return nil
}

func (r *fakeShareRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.shares, id)
	return nil
}

func (r *fakeShareRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatShare, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, sh := range r.store.shares {
		matched := true
		for _, spec := range specs {
			switch s := spec.(type) {
			case specification.ByShareToken:
				if sh.ShareToken != s.Token {
					matched = false
				}
			case specification.ByID:
				if sh.Id != s.ID {
					matched = false
				}
			}
		}
		if matched {
			cp := *sh
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeShareRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.shares)), nil
}

// --- activity capture ---

type capturingPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *capturingPublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *capturingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

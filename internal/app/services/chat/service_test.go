package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"hireme/internal/app/dto"
	"hireme/internal/app/uow"
	domainchat "hireme/internal/domain/chat"
	domainuser "hireme/internal/domain/user"
	"hireme/internal/infra/storage/gormdb"
)

type notifierRecorder struct {
	events []dto.ChatMessage
}

func (n *notifierRecorder) MessageCreated(_ context.Context, msg dto.ChatMessage) {
	n.events = append(n.events, msg)
}

type fixture struct {
	svc      *Service
	notifier *notifierRecorder
	factory  gormdb.Factory
	clock    *fakeClock
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gormdb.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = gormdb.Close(db) })
	if err := gormdb.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	notifier := &notifierRecorder{}
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	factory := gormdb.Factory{DB: db}
	svc := &Service{
		UoWFactory: factory,
		Notifier:   notifier,
		Now:        clock.Now,
	}
	return &fixture{svc: svc, notifier: notifier, factory: factory, clock: clock}
}

// seedUsers creates n accounts and returns their ids in creation order.
func (f *fixture) seedUsers(t *testing.T, n int) []domainuser.ID {
	t.Helper()
	ctx := context.Background()
	unit, err := f.factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	ids := make([]domainuser.ID, 0, n)
	for i := 0; i < n; i++ {
		u, err := domainuser.NewUser(domainuser.CreateParams{
			FullName:     fmt.Sprintf("User %d", i+1),
			Email:        fmt.Sprintf("user%d@example.com", i+1),
			PasswordHash: "irrelevant",
		})
		if err != nil {
			t.Fatalf("new user: %v", err)
		}
		if err := unit.Users().Save(ctx, u); err != nil {
			t.Fatalf("save user: %v", err)
		}
		ids = append(ids, u.ID)
	}
	if err := unit.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return ids
}

func (f *fixture) directConversation(t *testing.T, a, b domainuser.ID) uint {
	t.Helper()
	result, err := f.svc.CreateConversation(context.Background(), CreateConversationParams{
		CreatorID:      a,
		ParticipantIDs: []domainuser.ID{b},
	})
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	return result.ConversationID
}

func TestCreateConversation_DirectDedupe(t *testing.T) {
	f := newFixture(t)
	ids := f.seedUsers(t, 2)
	ctx := context.Background()

	first, err := f.svc.CreateConversation(ctx, CreateConversationParams{
		CreatorID:      ids[0],
		ParticipantIDs: []domainuser.ID{ids[1]},
	})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if !first.Created {
		t.Fatalf("first create should report a new conversation")
	}

	// Same pair from the other side must reuse the thread.
	second, err := f.svc.CreateConversation(ctx, CreateConversationParams{
		CreatorID:      ids[1],
		ParticipantIDs: []domainuser.ID{ids[0]},
	})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if second.Created {
		t.Fatalf("second create should reuse the existing conversation")
	}
	if second.ConversationID != first.ConversationID {
		t.Fatalf("expected conversation %d, got %d", first.ConversationID, second.ConversationID)
	}
}

func TestCreateConversation_GroupsNeverDeduped(t *testing.T) {
	f := newFixture(t)
	ids := f.seedUsers(t, 3)
	ctx := context.Background()

	params := CreateConversationParams{
		CreatorID:      ids[0],
		ParticipantIDs: []domainuser.ID{ids[1], ids[2]},
		IsGroup:        true,
		Title:          "hiring round",
	}
	first, err := f.svc.CreateConversation(ctx, params)
	if err != nil {
		t.Fatalf("first group: %v", err)
	}
	second, err := f.svc.CreateConversation(ctx, params)
	if err != nil {
		t.Fatalf("second group: %v", err)
	}
	if !second.Created || second.ConversationID == first.ConversationID {
		t.Fatalf("identical group params must still create a distinct conversation")
	}
}

func TestCreateConversation_Validation(t *testing.T) {
	f := newFixture(t)
	ids := f.seedUsers(t, 3)
	ctx := context.Background()

	cases := []struct {
		name    string
		params  CreateConversationParams
		wantErr error
	}{
		{
			name:    "no participants",
			params:  CreateConversationParams{CreatorID: ids[0]},
			wantErr: domainchat.ErrParticipantsRequired,
		},
		{
			name: "self only",
			params: CreateConversationParams{
				CreatorID:      ids[0],
				ParticipantIDs: []domainuser.ID{ids[0]},
			},
			wantErr: domainchat.ErrSelfConversation,
		},
		{
			name: "direct with two others",
			params: CreateConversationParams{
				CreatorID:      ids[0],
				ParticipantIDs: []domainuser.ID{ids[1], ids[2]},
			},
			wantErr: domainchat.ErrDirectParticipants,
		},
		{
			name: "group without title",
			params: CreateConversationParams{
				CreatorID:      ids[0],
				ParticipantIDs: []domainuser.ID{ids[1], ids[2]},
				IsGroup:        true,
			},
			wantErr: domainchat.ErrTitleRequired,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateConversation(ctx, tc.params)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if !domainchat.IsValidation(err) {
				t.Fatalf("%v should classify as validation", err)
			}
		})
	}
}

func TestCreateConversation_UnknownInvitee(t *testing.T) {
	f := newFixture(t)
	ids := f.seedUsers(t, 1)
	ctx := context.Background()

	_, err := f.svc.CreateConversation(ctx, CreateConversationParams{
		CreatorID:      ids[0],
		ParticipantIDs: []domainuser.ID{9999},
	})
	var missing *domainchat.UsersNotFoundError
	if !errors.As(err, &missing) {
		t.Fatalf("expected UsersNotFoundError, got %v", err)
	}
	if len(missing.IDs) != 1 || missing.IDs[0] != 9999 {
		t.Fatalf("expected missing id 9999, got %v", missing.IDs)
	}

	// Nothing may have been written.
	summaries, err := f.svc.ListConversations(ctx, ids[0])
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 0 {
		t.Fatalf("rejected creation left %d conversations behind", len(summaries))
	}
}

func TestSendMessage_MembershipGuard(t *testing.T) {
	f := newFixture(t)
	ids := f.seedUsers(t, 3)
	ctx := context.Background()
	convID := f.directConversation(t, ids[0], ids[1])

	_, err := f.svc.SendMessage(ctx, SendMessageParams{
		ConversationID: convID,
		SenderID:       ids[2],
		Content:        "let me in",
	})
	if !errors.Is(err, domainchat.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}

	_, err = f.svc.SendMessage(ctx, SendMessageParams{
		ConversationID: 4242,
		SenderID:       ids[0],
		Content:        "anyone here",
	})
	if !errors.Is(err, domainchat.ErrConversationNotFound) {
		t.Fatalf("missing conversation must be not-found, got %v", err)
	}

	if len(f.notifier.events) != 0 {
		t.Fatalf("rejected sends must not reach the notifier")
	}
}

func TestSendMessage_PersistsAndNotifies(t *testing.T) {
	f := newFixture(t)
	ids := f.seedUsers(t, 2)
	ctx := context.Background()
	convID := f.directConversation(t, ids[0], ids[1])

	sent, err := f.svc.SendMessage(ctx, SendMessageParams{
		ConversationID: convID,
		SenderID:       ids[0],
		Content:        "  hello there  ",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if sent.Content != "hello there" {
		t.Fatalf("content not trimmed: %q", sent.Content)
	}
	if sent.ID == 0 {
		t.Fatalf("stored message must carry its id")
	}
	if len(f.notifier.events) != 1 || f.notifier.events[0].ID != sent.ID {
		t.Fatalf("notifier should receive exactly the stored message")
	}

	page, err := f.svc.FetchMessages(ctx, FetchMessagesParams{
		ConversationID: convID,
		RequesterID:    ids[1],
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].Content != "hello there" {
		t.Fatalf("recipient cannot see the stored message: %+v", page)
	}
}

func TestSendMessage_EmptyContent(t *testing.T) {
	f := newFixture(t)
	ids := f.seedUsers(t, 2)
	convID := f.directConversation(t, ids[0], ids[1])

	_, err := f.svc.SendMessage(context.Background(), SendMessageParams{
		ConversationID: convID,
		SenderID:       ids[0],
		Content:        "   ",
	})
	if !errors.Is(err, domainchat.ErrContentRequired) {
		t.Fatalf("expected ErrContentRequired, got %v", err)
	}
}

func TestFetchMessages_Pagination(t *testing.T) {
	f := newFixture(t)
	ids := f.seedUsers(t, 2)
	ctx := context.Background()
	convID := f.directConversation(t, ids[0], ids[1])

	for i := 1; i <= 5; i++ {
		if _, err := f.svc.SendMessage(ctx, SendMessageParams{
			ConversationID: convID,
			SenderID:       ids[i%2],
			Content:        fmt.Sprintf("message %d", i),
		}); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}

	first, err := f.svc.FetchMessages(ctx, FetchMessagesParams{
		ConversationID: convID,
		RequesterID:    ids[0],
		Page:           1,
		PageSize:       2,
	})
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if first.Total != 5 || len(first.Items) != 2 {
		t.Fatalf("page 1: total=%d items=%d", first.Total, len(first.Items))
	}
	if first.Items[0].Content != "message 1" || first.Items[1].Content != "message 2" {
		t.Fatalf("page 1 must be the oldest messages ascending, got %q %q",
			first.Items[0].Content, first.Items[1].Content)
	}

	last, err := f.svc.FetchMessages(ctx, FetchMessagesParams{
		ConversationID: convID,
		RequesterID:    ids[0],
		Page:           3,
		PageSize:       2,
	})
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if len(last.Items) != 1 || last.Items[0].Content != "message 5" {
		t.Fatalf("page 3 should hold the single newest message, got %+v", last.Items)
	}

	beyond, err := f.svc.FetchMessages(ctx, FetchMessagesParams{
		ConversationID: convID,
		RequesterID:    ids[0],
		Page:           9,
		PageSize:       2,
	})
	if err != nil {
		t.Fatalf("page 9: %v", err)
	}
	if len(beyond.Items) != 0 || beyond.Total != 5 {
		t.Fatalf("past-the-end page must be empty with the true total, got %+v", beyond)
	}
}

func TestFetchMessages_ClampsPageSize(t *testing.T) {
	f := newFixture(t)
	ids := f.seedUsers(t, 2)
	convID := f.directConversation(t, ids[0], ids[1])

	page, err := f.svc.FetchMessages(context.Background(), FetchMessagesParams{
		ConversationID: convID,
		RequesterID:    ids[0],
		Page:           -3,
		PageSize:       100000,
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if page.Page != 1 || page.PageSize != MaxPageSize {
		t.Fatalf("expected page 1 size %d, got page %d size %d", MaxPageSize, page.Page, page.PageSize)
	}
}

func TestFetchMessages_NonParticipant(t *testing.T) {
	f := newFixture(t)
	ids := f.seedUsers(t, 3)
	convID := f.directConversation(t, ids[0], ids[1])

	_, err := f.svc.FetchMessages(context.Background(), FetchMessagesParams{
		ConversationID: convID,
		RequesterID:    ids[2],
	})
	if !errors.Is(err, domainchat.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}

func TestDeleteMessage_SenderOnly(t *testing.T) {
	f := newFixture(t)
	ids := f.seedUsers(t, 2)
	ctx := context.Background()
	convID := f.directConversation(t, ids[0], ids[1])

	sent, err := f.svc.SendMessage(ctx, SendMessageParams{
		ConversationID: convID,
		SenderID:       ids[0],
		Content:        "to be removed",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := f.svc.DeleteMessage(ctx, sent.ID, ids[1]); !errors.Is(err, domainchat.ErrNotSender) {
		t.Fatalf("recipient delete must fail with ErrNotSender, got %v", err)
	}
	if err := f.svc.DeleteMessage(ctx, sent.ID, ids[0]); err != nil {
		t.Fatalf("sender delete: %v", err)
	}
	if err := f.svc.DeleteMessage(ctx, sent.ID, ids[0]); !errors.Is(err, domainchat.ErrMessageNotFound) {
		t.Fatalf("second delete must be not-found, got %v", err)
	}

	page, err := f.svc.FetchMessages(ctx, FetchMessagesParams{ConversationID: convID, RequesterID: ids[1]})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if page.Total != 0 {
		t.Fatalf("deleted message still listed, total=%d", page.Total)
	}
}

func TestListConversations_OrderAndSummary(t *testing.T) {
	f := newFixture(t)
	ids := f.seedUsers(t, 3)
	ctx := context.Background()

	withB := f.directConversation(t, ids[0], ids[1])
	withC := f.directConversation(t, ids[0], ids[2])

	if _, err := f.svc.SendMessage(ctx, SendMessageParams{
		ConversationID: withB, SenderID: ids[1], Content: "older thread",
	}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := f.svc.SendMessage(ctx, SendMessageParams{
		ConversationID: withC, SenderID: ids[2], Content: "newest thread",
	}); err != nil {
		t.Fatalf("send: %v", err)
	}

	summaries, err := f.svc.ListConversations(ctx, ids[0])
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(summaries))
	}
	if summaries[0].ConversationID != withC {
		t.Fatalf("most recent activity must sort first, got conversation %d", summaries[0].ConversationID)
	}
	if summaries[0].LastMessage == nil || *summaries[0].LastMessage != "newest thread" {
		t.Fatalf("summary missing the latest message: %+v", summaries[0])
	}
	if len(summaries[0].Participants) != 1 || summaries[0].Participants[0].ID != ids[2] {
		t.Fatalf("participants must exclude the caller: %+v", summaries[0].Participants)
	}

	// The other user's inbox only holds their own thread.
	theirSummaries, err := f.svc.ListConversations(ctx, ids[1])
	if err != nil {
		t.Fatalf("list other: %v", err)
	}
	if len(theirSummaries) != 1 || theirSummaries[0].ConversationID != withB {
		t.Fatalf("membership filter broken: %+v", theirSummaries)
	}
}

func TestListConversations_SummaryAfterDelete(t *testing.T) {
	f := newFixture(t)
	ids := f.seedUsers(t, 2)
	ctx := context.Background()
	convID := f.directConversation(t, ids[0], ids[1])

	if _, err := f.svc.SendMessage(ctx, SendMessageParams{
		ConversationID: convID, SenderID: ids[0], Content: "first",
	}); err != nil {
		t.Fatalf("send: %v", err)
	}
	latest, err := f.svc.SendMessage(ctx, SendMessageParams{
		ConversationID: convID, SenderID: ids[0], Content: "second",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := f.svc.DeleteMessage(ctx, latest.ID, ids[0]); err != nil {
		t.Fatalf("delete: %v", err)
	}

	summaries, err := f.svc.ListConversations(ctx, ids[1])
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 1 || summaries[0].LastMessage == nil || *summaries[0].LastMessage != "first" {
		t.Fatalf("summary must fall back to the surviving latest message: %+v", summaries)
	}
}

func TestMarkConversationRead(t *testing.T) {
	f := newFixture(t)
	ids := f.seedUsers(t, 2)
	ctx := context.Background()
	convID := f.directConversation(t, ids[0], ids[1])

	for i := 0; i < 3; i++ {
		if _, err := f.svc.SendMessage(ctx, SendMessageParams{
			ConversationID: convID, SenderID: ids[0], Content: fmt.Sprintf("ping %d", i),
		}); err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	if _, err := f.svc.SendMessage(ctx, SendMessageParams{
		ConversationID: convID, SenderID: ids[1], Content: "pong",
	}); err != nil {
		t.Fatalf("send: %v", err)
	}

	updated, err := f.svc.MarkConversationRead(ctx, convID, ids[1])
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if updated != 3 {
		t.Fatalf("expected 3 messages marked, got %d", updated)
	}

	// Second pass finds nothing unread; the reader's own message stays untouched.
	updated, err = f.svc.MarkConversationRead(ctx, convID, ids[1])
	if err != nil {
		t.Fatalf("mark read again: %v", err)
	}
	if updated != 0 {
		t.Fatalf("expected idempotent mark read, got %d", updated)
	}

	page, err := f.svc.FetchMessages(ctx, FetchMessagesParams{ConversationID: convID, RequesterID: ids[0]})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	for _, item := range page.Items {
		read := item.SenderID == ids[0]
		if item.IsRead != read {
			t.Fatalf("message %d read state wrong: %+v", item.ID, item)
		}
	}
}

func TestAuthorize(t *testing.T) {
	f := newFixture(t)
	ids := f.seedUsers(t, 3)
	ctx := context.Background()
	convID := f.directConversation(t, ids[0], ids[1])

	if err := f.svc.Authorize(ctx, convID, ids[0]); err != nil {
		t.Fatalf("participant should pass: %v", err)
	}
	if err := f.svc.Authorize(ctx, convID, ids[2]); !errors.Is(err, domainchat.ErrNotParticipant) {
		t.Fatalf("outsider should be denied, got %v", err)
	}
	if err := f.svc.Authorize(ctx, 777, ids[0]); !errors.Is(err, domainchat.ErrConversationNotFound) {
		t.Fatalf("missing conversation should be not-found, got %v", err)
	}
}

func TestService_MissingDependencies(t *testing.T) {
	svc := &Service{}
	if _, err := svc.ListConversations(context.Background(), 1); !errors.Is(err, ErrServiceNotConfigured) {
		t.Fatalf("expected ErrServiceNotConfigured, got %v", err)
	}
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"testing"
	"time"

	"regintel/internal/db/dbtest"
	"regintel/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type commentFixture struct {
	db      *gorm.DB
	svc     *CommentService
	company *models.Company
	author  *models.User
	admin   *models.User
}

func setupCommentFixture(t *testing.T) *commentFixture {
	t.Helper()
	gdb := dbtest.New(t)
	return &commentFixture{
		db:      gdb,
		svc:     NewCommentService(gdb, time.Second),
		company: dbtest.CreateCompany(t, gdb, "medtronic"),
		author:  dbtest.CreateUser(t, gdb, "alice", models.RoleUser),
		admin:   dbtest.CreateUser(t, gdb, "root", models.RoleAdmin),
	}
}

// seedTopLevel inserts n approved top-level comments one minute apart, oldest
// first, and returns them in insertion order.
func (f *commentFixture) seedTopLevel(t *testing.T, n int) []models.Comment {
	t.Helper()
	base := time.Now().Add(-time.Duration(n) * time.Minute)
	out := make([]models.Comment, 0, n)
	for i := 0; i < n; i++ {
		c := models.Comment{
			CompanyID:  f.company.ID,
			UserID:     f.author.ID,
			Content:    fmt.Sprintf("comment %d", i),
			IsApproved: true,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, f.db.Create(&c).Error)
		out = append(out, c)
	}
	return out
}

func TestListCommentsEmpty(t *testing.T) {
	f := setupCommentFixture(t)
	dbtest.CreateComment(t, f.db, f.company.ID, f.author.ID, "pending", nil, false)

	page, err := f.svc.ListComments(context.Background(), f.company.ID, 1, 10, 0)
	require.NoError(t, err)

	assert.NotNil(t, page.Comments)
	assert.Empty(t, page.Comments)
	assert.Empty(t, page.UserVotes)
	assert.Equal(t, Pagination{Page: 1, Limit: 10, Total: 0, TotalPages: 0}, page.Pagination)

	raw, err := json.Marshal(page)
	require.NoError(t, err)
	assert.JSONEq(t, `{"comments":[],"userVotes":{},"pagination":{"page":1,"limit":10,"total":0,"totalPages":0}}`, string(raw))
}

func TestListCommentsPagination(t *testing.T) {
	f := setupCommentFixture(t)
	seeded := f.seedTopLevel(t, 15)
	ctx := context.Background()

	first, err := f.svc.ListComments(ctx, f.company.ID, 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, first.Comments, 10)
	assert.Equal(t, seeded[14].ID, first.Comments[0].ID, "newest first")

	second, err := f.svc.ListComments(ctx, f.company.ID, 2, 10, 0)
	require.NoError(t, err)
	assert.Len(t, second.Comments, 5)
	assert.EqualValues(t, 15, second.Pagination.Total)
	assert.Equal(t, 2, second.Pagination.TotalPages)
	assert.Equal(t, 2, second.Pagination.Page)
	assert.Equal(t, seeded[0].ID, second.Comments[4].ID, "oldest last")

	beyond, err := f.svc.ListComments(ctx, f.company.ID, 3, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, beyond.Comments)
	assert.EqualValues(t, 15, beyond.Pagination.Total)
}

func TestListCommentsHugePage(t *testing.T) {
	f := setupCommentFixture(t)
	f.seedTopLevel(t, 3)

	for _, page := range []int{2, math.MaxInt / 10, math.MaxInt} {
		got, err := f.svc.ListComments(context.Background(), f.company.ID, page, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, got.Comments, "page %d", page)
		assert.Equal(t, page, got.Pagination.Page)
		assert.EqualValues(t, 3, got.Pagination.Total)
		assert.Equal(t, 1, got.Pagination.TotalPages)
	}
}

func TestListCommentsDefaultsAndCap(t *testing.T) {
	f := setupCommentFixture(t)
	f.seedTopLevel(t, 3)

	page, err := f.svc.ListComments(context.Background(), f.company.ID, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Pagination.Page)
	assert.Equal(t, DefaultPageSize, page.Pagination.Limit)

	page, err = f.svc.ListComments(context.Background(), f.company.ID, 1, 5000, 0)
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.Pagination.Limit)
	assert.Equal(t, 1, page.Pagination.TotalPages)
}

func TestListCommentsVisibility(t *testing.T) {
	f := setupCommentFixture(t)
	other := dbtest.CreateCompany(t, f.db, "stryker")

	visibleTop := dbtest.CreateComment(t, f.db, f.company.ID, f.author.ID, "visible", nil, true)
	dbtest.CreateComment(t, f.db, f.company.ID, f.author.ID, "unapproved", nil, false)
	deleted := dbtest.CreateComment(t, f.db, f.company.ID, f.author.ID, "deleted", nil, true)
	require.NoError(t, f.db.Model(deleted).Update("is_deleted", true).Error)
	dbtest.CreateComment(t, f.db, other.ID, f.author.ID, "elsewhere", nil, true)
	dbtest.CreateComment(t, f.db, f.company.ID, f.author.ID, "a reply", &visibleTop.ID, true)

	page, err := f.svc.ListComments(context.Background(), f.company.ID, 1, 10, 0)
	require.NoError(t, err)

	require.Len(t, page.Comments, 1)
	assert.Equal(t, "visible", page.Comments[0].Content)
	assert.EqualValues(t, 1, page.Pagination.Total, "replies never count as top-level")
}

func TestListCommentsAttachesOneLevelOfReplies(t *testing.T) {
	f := setupCommentFixture(t)
	bob := dbtest.CreateUser(t, f.db, "bob", models.RoleVIP)

	top := dbtest.CreateComment(t, f.db, f.company.ID, f.author.ID, "top", nil, true)
	r1 := models.Comment{CompanyID: f.company.ID, UserID: bob.ID, ParentID: &top.ID, Content: "**first** reply", IsApproved: true, CreatedAt: time.Now().Add(-2 * time.Minute)}
	r2 := models.Comment{CompanyID: f.company.ID, UserID: f.author.ID, ParentID: &top.ID, Content: "second reply", IsApproved: true, CreatedAt: time.Now().Add(-time.Minute)}
	require.NoError(t, f.db.Create(&r1).Error)
	require.NoError(t, f.db.Create(&r2).Error)
	dbtest.CreateComment(t, f.db, f.company.ID, bob.ID, "hidden reply", &top.ID, false)
	dbtest.CreateComment(t, f.db, f.company.ID, bob.ID, "nested reply", &r1.ID, true)

	page, err := f.svc.ListComments(context.Background(), f.company.ID, 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Comments, 1)

	got := page.Comments[0]
	assert.Equal(t, "alice", got.Author.DisplayName)
	require.Len(t, got.Replies, 2)
	assert.Equal(t, r1.ID, got.Replies[0].ID, "replies oldest first")
	assert.Equal(t, "bob", got.Replies[0].Author.DisplayName)
	assert.Contains(t, string(got.Replies[0].ContentHTML), "<strong>first</strong>")
	assert.Equal(t, r2.ID, got.Replies[1].ID)
	assert.Empty(t, got.Replies[0].Replies, "replies of replies are not expanded")
}

func TestListCommentsUserVotes(t *testing.T) {
	f := setupCommentFixture(t)
	votes := NewVoteService(f.db, time.Second)
	voter := dbtest.CreateUser(t, f.db, "voter", models.RoleUser)
	ctx := context.Background()

	top := dbtest.CreateComment(t, f.db, f.company.ID, f.author.ID, "top", nil, true)
	reply := dbtest.CreateComment(t, f.db, f.company.ID, f.author.ID, "reply", &top.ID, true)
	unvoted := dbtest.CreateComment(t, f.db, f.company.ID, f.author.ID, "unvoted", nil, true)
	offPage := dbtest.CreateComment(t, f.db, dbtest.CreateCompany(t, f.db, "elsewhere").ID, f.author.ID, "off page", nil, true)

	for id, dir := range map[uint]int{top.ID: 1, reply.ID: -1, offPage.ID: 1} {
		_, err := votes.ApplyVote(ctx, id, voter.ID, dir)
		require.NoError(t, err)
	}
	_, err := votes.ApplyVote(ctx, unvoted.ID, f.author.ID, 1)
	require.NoError(t, err)

	page, err := f.svc.ListComments(ctx, f.company.ID, 1, 10, voter.ID)
	require.NoError(t, err)
	assert.Equal(t, map[uint]int{top.ID: 1, reply.ID: -1}, page.UserVotes)

	anon, err := f.svc.ListComments(ctx, f.company.ID, 1, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, anon.UserVotes)
}

func TestCreateComment(t *testing.T) {
	ctx := context.Background()

	t.Run("GuestIsRejected", func(t *testing.T) {
		f := setupCommentFixture(t)
		guest := dbtest.CreateUser(t, f.db, "guest", models.RoleGuest)

		_, err := f.svc.CreateComment(ctx, f.company.ID, guest.ID, "hello", nil)
		assert.ErrorIs(t, err, ErrPermissionDenied)

		var n int64
		require.NoError(t, f.db.Model(&models.Comment{}).Count(&n).Error)
		assert.Zero(t, n, "no row may be inserted for a guest")
	})

	t.Run("AnonymousOrUnknownAuthor", func(t *testing.T) {
		f := setupCommentFixture(t)

		_, err := f.svc.CreateComment(ctx, f.company.ID, 0, "hello", nil)
		assert.ErrorIs(t, err, ErrUnauthenticated)

		_, err = f.svc.CreateComment(ctx, f.company.ID, 9999, "hello", nil)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("TrimsAndStoresUnapproved", func(t *testing.T) {
		f := setupCommentFixture(t)

		view, err := f.svc.CreateComment(ctx, f.company.ID, f.author.ID, "  510(k) cleared  \n", nil)
		require.NoError(t, err)
		assert.Equal(t, "510(k) cleared", view.Content)
		assert.False(t, view.IsApproved)
		assert.False(t, view.IsDeleted)
		assert.Equal(t, f.author.ID, view.Author.ID)

		var stored models.Comment
		require.NoError(t, f.db.First(&stored, view.ID).Error)
		assert.Equal(t, "510(k) cleared", stored.Content)
		assert.False(t, stored.IsApproved)
	})

	t.Run("WhitespaceOnlyContentIsAccepted", func(t *testing.T) {
		f := setupCommentFixture(t)

		view, err := f.svc.CreateComment(ctx, f.company.ID, f.author.ID, "   ", nil)
		require.NoError(t, err)
		assert.Equal(t, "", view.Content)
	})

	t.Run("ParentMustBelongToSameCompany", func(t *testing.T) {
		f := setupCommentFixture(t)
		other := dbtest.CreateCompany(t, f.db, "philips")
		foreign := dbtest.CreateComment(t, f.db, other.ID, f.author.ID, "foreign", nil, true)
		missing := uint(4242)

		_, err := f.svc.CreateComment(ctx, f.company.ID, f.author.ID, "reply", &foreign.ID)
		assert.ErrorIs(t, err, ErrInvalidArgument)

		_, err = f.svc.CreateComment(ctx, f.company.ID, f.author.ID, "reply", &missing)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestCreateThenListRoundTrip(t *testing.T) {
	f := setupCommentFixture(t)
	ctx := context.Background()

	parent, err := f.svc.CreateComment(ctx, f.company.ID, f.author.ID, "Is the recall closed?", nil)
	require.NoError(t, err)
	reply, err := f.svc.CreateComment(ctx, f.company.ID, f.author.ID, "Yes, as of Q3.", &parent.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.ApproveComment(ctx, parent.ID, f.admin.ID))
	require.NoError(t, f.svc.ApproveComment(ctx, reply.ID, f.admin.ID))

	page, err := f.svc.ListComments(ctx, f.company.ID, 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Comments, 1)

	got := page.Comments[0]
	assert.Equal(t, parent.Content, got.Content)
	assert.Nil(t, got.ParentID)
	assert.Equal(t, parent.Author.ID, got.Author.ID)
	assert.Equal(t, parent.Author.DisplayName, got.Author.DisplayName)

	require.Len(t, got.Replies, 1)
	assert.Equal(t, reply.Content, got.Replies[0].Content)
	require.NotNil(t, got.Replies[0].ParentID)
	assert.Equal(t, parent.ID, *got.Replies[0].ParentID)
	assert.Equal(t, reply.Author.ID, got.Replies[0].Author.ID)
}

func TestDeleteComment(t *testing.T) {
	ctx := context.Background()

	t.Run("OwnerSoftDeletes", func(t *testing.T) {
		f := setupCommentFixture(t)
		c := dbtest.CreateComment(t, f.db, f.company.ID, f.author.ID, "mine", nil, true)

		outcome, err := f.svc.DeleteComment(ctx, c.ID, f.author.ID)
		require.NoError(t, err)
		assert.Equal(t, Deleted, outcome)

		var stored models.Comment
		require.NoError(t, f.db.First(&stored, c.ID).Error, "row is retained")
		assert.True(t, stored.IsDeleted)

		outcome, err = f.svc.DeleteComment(ctx, c.ID, f.author.ID)
		require.NoError(t, err, "deleting twice is idempotent")
		assert.Equal(t, Deleted, outcome)
	})

	t.Run("NonOwnerTouchesNothing", func(t *testing.T) {
		f := setupCommentFixture(t)
		mallory := dbtest.CreateUser(t, f.db, "mallory", models.RoleUser)
		c := dbtest.CreateComment(t, f.db, f.company.ID, f.author.ID, "not yours", nil, true)

		outcome, err := f.svc.DeleteComment(ctx, c.ID, mallory.ID)
		require.NoError(t, err)
		assert.Equal(t, NotOwnedOrMissing, outcome)

		var stored models.Comment
		require.NoError(t, f.db.First(&stored, c.ID).Error)
		assert.False(t, stored.IsDeleted)
	})

	t.Run("MissingComment", func(t *testing.T) {
		f := setupCommentFixture(t)

		outcome, err := f.svc.DeleteComment(ctx, 777, f.author.ID)
		require.NoError(t, err)
		assert.Equal(t, NotOwnedOrMissing, outcome)
	})

	t.Run("Anonymous", func(t *testing.T) {
		f := setupCommentFixture(t)

		_, err := f.svc.DeleteComment(ctx, 1, 0)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestApproveComment(t *testing.T) {
	f := setupCommentFixture(t)
	ctx := context.Background()
	c := dbtest.CreateComment(t, f.db, f.company.ID, f.author.ID, "pending", nil, false)

	assert.ErrorIs(t, f.svc.ApproveComment(ctx, c.ID, f.author.ID), ErrPermissionDenied)
	assert.ErrorIs(t, f.svc.ApproveComment(ctx, c.ID, 0), ErrUnauthenticated)
	assert.ErrorIs(t, f.svc.ApproveComment(ctx, 31337, f.admin.ID), ErrNotFound)

	require.NoError(t, f.svc.ApproveComment(ctx, c.ID, f.admin.ID))
	var stored models.Comment
	require.NoError(t, f.db.First(&stored, c.ID).Error)
	assert.True(t, stored.IsApproved)
}

func TestListCommentsStorageFailure(t *testing.T) {
	f := setupCommentFixture(t)
	sqlDB, err := f.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = f.svc.ListComments(context.Background(), f.company.ID, 1, 10, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)

	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "count comments", se.Op)
}

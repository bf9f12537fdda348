package bugs

import (
	"context"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/bugtrack/internal/models"
	"github.com/joescharf/bugtrack/internal/store"
	"github.com/joescharf/bugtrack/internal/validation"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(store.NewMemoryStore(), nil)
}

func payload(t *testing.T, body string) *models.Payload {
	t.Helper()
	p, err := validation.ParsePayload([]byte(body))
	require.NoError(t, err)
	return p
}

func TestCreate_Defaults(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	bug, err := svc.Create(ctx, payload(t, `{"title":"Crash on save"}`))
	require.NoError(t, err)

	assert.NotEmpty(t, bug.ID)
	assert.Equal(t, "Crash on save", bug.Title)
	assert.Equal(t, "", bug.Description)
	assert.Equal(t, models.BugStatusOpen, bug.Status)
	assert.False(t, bug.CreatedAt.IsZero())
}

func TestCreate_RejectsInvalid(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, body := range []string{`{}`, `{"title":""}`, `{"title":"   "}`, `{"title":"x","status":"done"}`, `{"title":"x","status":""}`} {
		_, err := svc.Create(ctx, payload(t, body))
		assert.ErrorIs(t, err, models.ErrInvalidPayload, body)
	}

	_, err := svc.Create(ctx, nil)
	assert.ErrorIs(t, err, models.ErrInvalidPayload)

	bugs, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, bugs)
}

func TestTitleIsTrimmed(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	bug, err := svc.Create(ctx, payload(t, `{"title":"  Test bug  ","description":"  kept  "}`))
	require.NoError(t, err)
	assert.Equal(t, "Test bug", bug.Title)
	assert.Equal(t, "  kept  ", bug.Description)

	got, err := svc.Get(ctx, bug.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test bug", got.Title)

	updated, err := svc.Update(ctx, bug.ID, payload(t, `{"title":"\tUpdated\n"}`))
	require.NoError(t, err)
	assert.Equal(t, "Updated", updated.Title)

	got, err = svc.Get(ctx, bug.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated", got.Title)
}

func TestCreate_AcceptsWithOrWithoutDescription(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, payload(t, `{"title":"a"}`))
	require.NoError(t, err)
	_, err = svc.Create(ctx, payload(t, `{"title":"b","description":"details"}`))
	require.NoError(t, err)
	_, err = svc.Create(ctx, payload(t, `{"title":"c","description":42}`))
	require.NoError(t, err)

	bugs, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, bugs, 3)
}

func TestCreateThenGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, payload(t, `{"title":"Login fails","description":"500 on submit","status":"in-progress"}`))
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, created.Description, got.Description)
	assert.Equal(t, created.Status, got.Status)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
}

func TestList_NewestFirstAndNeverNil(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	bugs, err := svc.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, bugs)

	for _, title := range []string{"first", "second", "third"} {
		_, err := svc.Create(ctx, payload(t, `{"title":"`+title+`"}`))
		require.NoError(t, err)
	}

	bugs, err = svc.List(ctx)
	require.NoError(t, err)
	titles := lo.Map(bugs, func(b *models.Bug, _ int) string { return b.Title })
	assert.Equal(t, []string{"third", "second", "first"}, titles)
}

func TestUpdate_StatusOnlyKeepsOtherFields(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, payload(t, `{"title":"Slow query","description":"report page"}`))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, payload(t, `{"status":"closed"}`))
	require.NoError(t, err)
	assert.Equal(t, models.BugStatusClosed, updated.Status)
	assert.Equal(t, "Slow query", updated.Title)
	assert.Equal(t, "report page", updated.Description)
	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BugStatusClosed, got.Status)
}

func TestUpdate_IgnoresImmutableFields(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, payload(t, `{"title":"x"}`))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, payload(t, `{"id":"other","createdAt":"2001-01-01T00:00:00Z","title":"y"}`))
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	assert.Equal(t, "y", updated.Title)
}

func TestUpdate_Errors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, payload(t, `{"title":"x"}`))
	require.NoError(t, err)

	tests := []struct {
		name string
		id   models.BugID
		body string
		want error
	}{
		{"blank title", created.ID, `{"title":" "}`, models.ErrInvalidPayload},
		{"unknown status", created.ID, `{"status":"wontfix"}`, models.ErrInvalidPayload},
		{"unknown id", "01ZZZZZZZZZZZZZZZZZZZZZZZZ", `{"status":"closed"}`, models.ErrNotFound},
		{"invalid wins over unknown id", "01ZZZZZZZZZZZZZZZZZZZZZZZZ", `{"status":"wontfix"}`, models.ErrInvalidPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(ctx, tt.id, payload(t, tt.body))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Title)
	assert.Equal(t, models.BugStatusOpen, got.Status)
}

func TestDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, payload(t, `{"title":"x"}`))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), models.ErrNotFound)

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestLifecycleScenario(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, payload(t, `{"title":"Test bug","description":"desc"}`))
	require.NoError(t, err)
	assert.Equal(t, models.BugStatusOpen, created.Status)

	updated, err := svc.Update(ctx, created.ID, payload(t, `{"title":"Updated","description":"new","status":"in-progress"}`))
	require.NoError(t, err)
	assert.Equal(t, "Updated", updated.Title)
	assert.Equal(t, "new", updated.Description)
	assert.Equal(t, models.BugStatusInProgress, updated.Status)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestFind(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, payload(t, `{"title":"x"}`))
	require.NoError(t, err)

	got, err := svc.Find(ctx, string(created.ID))
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	got, err = svc.Find(ctx, strings.ToLower(string(created.ID)[:20]))
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.Find(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"folio/internal/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestCollection_CreateThenGet(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newTestDB(t))

	exp := &database.Experience{Role: "Engineer", Company: "Acme", Period: "2021 - 2023"}
	require.NoError(t, store.Experiences.Create(ctx, exp))
	require.NotEmpty(t, exp.ID)

	got, err := store.Experiences.Get(ctx, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Engineer", got.Role)
	assert.Equal(t, "Acme", got.Company)
	assert.Equal(t, "2021 - 2023", got.Period)
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestCollection_DeleteThenGet(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newTestDB(t))

	cert := &database.Certificate{Title: "CKA", Issuer: "CNCF"}
	require.NoError(t, store.Certificates.Create(ctx, cert))
	require.NoError(t, store.Certificates.Delete(ctx, cert.ID))

	_, err := store.Certificates.Get(ctx, cert.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Certificates.Delete(ctx, cert.ID), ErrNotFound)
}

func TestCollection_GetUnknownID(t *testing.T) {
	store := NewStore(newTestDB(t))
	_, err := store.Projects.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCollection_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newTestDB(t))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"first", "second", "third"} {
		p := &database.Project{Title: title}
		p.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.Projects.Create(ctx, p))
	}

	items, err := store.Projects.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "third", items[0].Title)
	assert.Equal(t, "first", items[2].Title)
	for i := 1; i < len(items); i++ {
		assert.False(t, items[i].CreatedAt.After(items[i-1].CreatedAt))
	}
}

func TestCollection_ListEmptyIsNotNil(t *testing.T) {
	store := NewStore(newTestDB(t))
	items, err := store.Educations.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestCollection_ReplaceClearsOmittedFields(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newTestDB(t))

	edu := &database.Education{Institution: "MIT", Degree: "BSc", Field: "CS", Description: "notes"}
	require.NoError(t, store.Educations.Create(ctx, edu))
	created := edu.CreatedAt

	replacement := &database.Education{Institution: "MIT", Degree: "MSc"}
	require.NoError(t, store.Educations.Replace(ctx, edu.ID, replacement))

	got, err := store.Educations.Get(ctx, edu.ID)
	require.NoError(t, err)
	assert.Equal(t, "MSc", got.Degree)
	assert.Empty(t, got.Field)
	assert.Empty(t, got.Description)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, edu.ID, replacement.ID)
}

func TestCollection_ReplaceUnknown(t *testing.T) {
	store := NewStore(newTestDB(t))
	err := store.Experiences.Replace(context.Background(), uuid.NewString(), &database.Experience{Role: "r", Company: "c"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSkills_DefaultsAndOrder(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newTestDB(t))

	require.NoError(t, store.Skills.Create(ctx, &database.Skill{Name: "Rust", Category: "Languages"}))
	require.NoError(t, store.Skills.Create(ctx, &database.Skill{Name: "Go", Category: "Languages"}))
	require.NoError(t, store.Skills.Create(ctx, &database.Skill{Name: "Docker", Category: "DevOps", Visibility: database.VisibilityPrivate}))
	require.NoError(t, store.Skills.Create(ctx, &database.Skill{Name: "Leadership", Type: database.SkillTypeSoftSkill, Level: database.SkillLevelExpert}))

	items, err := store.Skills.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 4)
	names := []string{items[0].Name, items[1].Name, items[2].Name, items[3].Name}
	assert.Equal(t, []string{"Leadership", "Docker", "Go", "Rust"}, names)
	assert.Equal(t, database.SkillTypeTech, items[2].Type)
	assert.Equal(t, database.SkillLevelIntermediate, items[2].Level)

	public, err := store.Skills.List(ctx, PublicSkillsOnly())
	require.NoError(t, err)
	assert.Len(t, public, 3)

	soft, err := store.Skills.List(ctx, SkillsOfType(database.SkillTypeSoftSkill))
	require.NoError(t, err)
	require.Len(t, soft, 1)
	assert.Equal(t, database.SkillLevelExpert, soft[0].Level)
}

func TestAchievements_OrderedByDate(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newTestDB(t))

	older := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Achievements.Create(ctx, &database.Achievement{Title: "older", Date: &older}))
	require.NoError(t, store.Achievements.Create(ctx, &database.Achievement{Title: "undated"}))
	require.NoError(t, store.Achievements.Create(ctx, &database.Achievement{Title: "newer", Date: &newer}))

	items, err := store.Achievements.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "newer", items[0].Title)
	assert.Equal(t, "older", items[1].Title)
	assert.Equal(t, "undated", items[2].Title)
}

func TestProjects_LinksRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newTestDB(t))

	p := &database.Project{
		Title: "Portfolio",
		Links: datatypes.JSONSlice[database.Link]{{Label: "Live Demo", URL: "https://x.test"}},
	}
	require.NoError(t, store.Projects.Create(ctx, p))

	got, err := store.Projects.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Links, 1)
	assert.Equal(t, "Live Demo", got.Links[0].Label)
	assert.Equal(t, "https://x.test", got.Links[0].URL)
	assert.NotNil(t, got.TechStack)
}

func TestBlogs_ViewCountIncrementsPerRead(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newTestDB(t))

	blog := &database.Blog{Title: "Hello World", Content: "body"}
	require.NoError(t, store.Blogs.Create(ctx, blog))
	assert.Equal(t, "hello-world", blog.Slug)

	first, err := store.Blogs.GetAndCountView(ctx, blog.ID)
	require.NoError(t, err)
	second, err := store.Blogs.GetAndCountView(ctx, "hello-world")
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Views)
	assert.Equal(t, first.Views+1, second.Views)

	_, err = store.Blogs.GetAndCountView(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBlogs_ConcurrentReadsAreCounted(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newTestDB(t))

	blog := &database.Blog{Title: "Busy", Content: "body"}
	require.NoError(t, store.Blogs.Create(ctx, blog))

	sqlDB, err := store.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Blogs.GetAndCountView(ctx, blog.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.Blogs.Get(ctx, blog.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Views)
}

func TestBlogs_ReplaceKeepsViews(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newTestDB(t))

	blog := &database.Blog{Title: "Draft", Content: "body"}
	require.NoError(t, store.Blogs.Create(ctx, blog))
	_, err := store.Blogs.GetAndCountView(ctx, blog.ID)
	require.NoError(t, err)

	replacement := &database.Blog{Title: "Final Title", Content: "new body"}
	require.NoError(t, store.Blogs.Replace(ctx, blog.ID, replacement))
	assert.Equal(t, int64(1), replacement.Views)
	assert.Equal(t, "final-title", replacement.Slug)
}

func TestProfile_UpsertReplacesHeadline(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newTestDB(t))

	empty, err := store.Profile.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, empty)

	first := &database.Profile{Name: "  Ada  ", Headline: datatypes.JSONSlice[string]{"A", "B"}}
	require.NoError(t, store.Profile.Upsert(ctx, first))
	assert.Equal(t, "Ada", first.Name)
	assert.Equal(t, database.DefaultProfileStatus, first.Status)

	second := &database.Profile{Name: "Ada", Headline: datatypes.JSONSlice[string]{"C"}}
	require.NoError(t, store.Profile.Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	got, err := store.Profile.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"C"}, []string(got.Headline))

	var count int64
	require.NoError(t, store.DB.Model(&database.Profile{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestProfile_DefaultHeadline(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newTestDB(t))

	p := &database.Profile{Name: "Ada"}
	require.NoError(t, store.Profile.Upsert(ctx, p))
	assert.Equal(t, []string{database.DefaultHeadline}, []string(p.Headline))
}

func TestUsers_CreateAndDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newTestDB(t))

	user, err := store.Users.Create(ctx, "admin", "hash")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)

	_, err = store.Users.Create(ctx, "admin", "other")
	assert.ErrorIs(t, err, ErrUserExists)

	found, err := store.Users.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = store.Users.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := store.Users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

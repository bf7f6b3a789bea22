package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/database"
)

func TestResource_CreateGetDelete(t *testing.T) {
	srv := newTestServer(t)

	w, resp := srv.do(t, http.MethodPost, "/api/experiences", map[string]any{
		"role":    "Backend Engineer",
		"company": "Acme",
		"period":  "2022 - now",
	}, srv.token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.True(t, resp.Success)
	created := decodeData[database.Experience](t, resp)
	require.NotEmpty(t, created.ID)

	w, resp = srv.do(t, http.MethodGet, "/api/experiences/"+created.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeData[database.Experience](t, resp)
	assert.Equal(t, "Backend Engineer", got.Role)
	assert.Equal(t, "Acme", got.Company)
	assert.Equal(t, "2022 - now", got.Period)

	w, resp = srv.do(t, http.MethodDelete, "/api/experiences/"+created.ID, nil, srv.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Experience deleted successfully", resp.Message)

	w, resp = srv.do(t, http.MethodGet, "/api/experiences/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "Experience not found", resp.Message)

	assert.Equal(t, []string{"content.created:experiences", "content.deleted:experiences"}, srv.publisher.types())
}

func TestResource_ListNewestFirst(t *testing.T) {
	srv := newTestServer(t)

	for _, title := range []string{"first", "second", "third"} {
		w, _ := srv.do(t, http.MethodPost, "/api/certificates", map[string]any{"title": title, "issuer": "CNCF"}, srv.token)
		require.Equal(t, http.StatusCreated, w.Code)
		time.Sleep(5 * time.Millisecond)
	}

	w, resp := srv.do(t, http.MethodGet, "/api/certificates", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resp.Count)
	assert.Equal(t, 3, *resp.Count)

	list := decodeData[[]database.Certificate](t, resp)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Title)
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].CreatedAt.After(list[i-1].CreatedAt))
	}
}

func TestResource_EmptyListIsArray(t *testing.T) {
	srv := newTestServer(t)

	w, resp := srv.do(t, http.MethodGet, "/api/educations", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resp.Count)
	assert.Equal(t, 0, *resp.Count)
	assert.JSONEq(t, "[]", string(resp.Data))
}

func TestResource_ReplaceIsFullDocument(t *testing.T) {
	srv := newTestServer(t)

	w, resp := srv.do(t, http.MethodPost, "/api/educations", map[string]any{
		"institution": "MIT",
		"degree":      "BSc",
		"field":       "Computer Science",
		"description": "Thesis on compilers",
	}, srv.token)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeData[database.Education](t, resp)

	w, resp = srv.do(t, http.MethodPut, "/api/educations/"+created.ID, map[string]any{
		"institution": "MIT",
		"degree":      "MSc",
	}, srv.token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	replaced := decodeData[database.Education](t, resp)

	assert.Equal(t, created.ID, replaced.ID)
	assert.Equal(t, "MSc", replaced.Degree)
	assert.Empty(t, replaced.Field)
	assert.Empty(t, replaced.Description)
	assert.WithinDuration(t, created.CreatedAt, replaced.CreatedAt, time.Millisecond)

	w, resp = srv.do(t, http.MethodPut, "/api/educations/missing", map[string]any{
		"institution": "MIT",
		"degree":      "PhD",
	}, srv.token)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Education not found", resp.Message)
}

func TestResource_GetIsIdempotent(t *testing.T) {
	srv := newTestServer(t)

	w, resp := srv.do(t, http.MethodPost, "/api/projects", map[string]any{"title": "Folio"}, srv.token)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeData[database.Project](t, resp)

	_, first := srv.do(t, http.MethodGet, "/api/projects/"+created.ID, nil, "")
	_, second := srv.do(t, http.MethodGet, "/api/projects/"+created.ID, nil, "")
	assert.JSONEq(t, string(first.Data), string(second.Data))
}

func TestResource_WritesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/projects"},
		{http.MethodPut, "/api/projects/abc"},
		{http.MethodDelete, "/api/projects/abc"},
		{http.MethodPut, "/api/profile"},
		{http.MethodPost, "/api/upload"},
		{http.MethodDelete, "/api/upload"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w, resp := srv.do(t, tc.method, tc.path, map[string]any{"title": "x"}, "")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, "Not authorized", resp.Message)

			w, resp = srv.do(t, tc.method, tc.path, map[string]any{"title": "x"}, "not-a-token")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Not authorized", resp.Message)
		})
	}
	assert.Empty(t, srv.publisher.types())
}

func TestResource_ValidationReportsAllFields(t *testing.T) {
	srv := newTestServer(t)

	w, resp := srv.do(t, http.MethodPost, "/api/experiences", map[string]any{"period": "2020"}, srv.token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Validation failed", resp.Message)

	fields := map[string]string{}
	for _, fe := range resp.Errors {
		fields[fe.Field] = fe.Message
	}
	assert.Equal(t, "role is required", fields["role"])
	assert.Equal(t, "company is required", fields["company"])

	w, resp = srv.do(t, http.MethodPost, "/api/experiences", `{"role":`, srv.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Malformed JSON", resp.Message)

	w, resp = srv.do(t, http.MethodPost, "/api/achievements", map[string]any{"title": "Winner", "date": "yesterday"}, srv.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "date", resp.Errors[0].Field)

	w, _ = srv.do(t, http.MethodGet, "/api/projects", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSkills_TypeAndLevelScenario(t *testing.T) {
	srv := newTestServer(t)

	w, resp := srv.do(t, http.MethodPost, "/api/skills", map[string]any{"name": "Go", "type": "tech", "level": "Expert"}, srv.token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	skill := decodeData[database.Skill](t, resp)
	assert.Equal(t, "tech", skill.Type)
	assert.Equal(t, "Expert", skill.Level)
	assert.Equal(t, "public", skill.Visibility)

	w, resp = srv.do(t, http.MethodPost, "/api/skills", map[string]any{"name": "Go", "level": "Guru"}, srv.token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "level", resp.Errors[0].Field)
	assert.Contains(t, resp.Errors[0].Message, "Beginner, Intermediate, Advanced, Expert")

	w, resp = srv.do(t, http.MethodPost, "/api/skills", map[string]any{"name": "Patience"}, srv.token)
	require.Equal(t, http.StatusCreated, w.Code)
	defaults := decodeData[database.Skill](t, resp)
	assert.Equal(t, database.SkillTypeTech, defaults.Type)
	assert.Equal(t, database.SkillLevelIntermediate, defaults.Level)
}

func TestSkills_VisibilityAndTypeFilter(t *testing.T) {
	srv := newTestServer(t)

	for _, body := range []map[string]any{
		{"name": "Go", "type": "tech", "category": "Backend"},
		{"name": "Negotiation", "type": "softskill", "category": "People"},
		{"name": "Secret sauce", "type": "tech", "category": "Backend", "visibility": "private"},
	} {
		w, _ := srv.do(t, http.MethodPost, "/api/skills", body, srv.token)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	_, resp := srv.do(t, http.MethodGet, "/api/skills", nil, "")
	assert.Equal(t, 2, *resp.Count)

	_, resp = srv.do(t, http.MethodGet, "/api/skills", nil, srv.token)
	assert.Equal(t, 3, *resp.Count)

	_, resp = srv.do(t, http.MethodGet, "/api/skills?type=softskill", nil, srv.token)
	list := decodeData[[]database.Skill](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "Negotiation", list[0].Name)

	_, resp = srv.do(t, http.MethodGet, "/api/skills?type=tech", nil, "")
	list = decodeData[[]database.Skill](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "Go", list[0].Name)
}

func TestProjects_LinksScenario(t *testing.T) {
	srv := newTestServer(t)

	w, resp := srv.do(t, http.MethodPost, "/api/projects", map[string]any{
		"title":     "Folio",
		"techStack": "Go, Gin ,  ,PostgreSQL",
		"links": []map[string]any{
			{"label": "GitHub", "url": "https://github.com/example/folio", "icon": "github"},
			{"label": "Demo", "url": "https://folio.example.com"},
		},
	}, srv.token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeData[database.Project](t, resp)

	_, resp = srv.do(t, http.MethodGet, "/api/projects/"+created.ID, nil, "")
	got := decodeData[database.Project](t, resp)
	require.Len(t, got.Links, 2)
	assert.Equal(t, "GitHub", got.Links[0].Label)
	assert.Equal(t, "https://github.com/example/folio", got.Links[0].URL)
	assert.Equal(t, "github", got.Links[0].Icon)
	assert.Equal(t, "Demo", got.Links[1].Label)
	assert.Equal(t, []string{"Go", "Gin", "PostgreSQL"}, []string(got.TechStack))
	assert.NotNil(t, got.Category)
}

func TestBlogs_ViewsAndSlug(t *testing.T) {
	srv := newTestServer(t)

	w, resp := srv.do(t, http.MethodPost, "/api/blogs", map[string]any{
		"title":   "Hello World",
		"content": "First post",
		"tags":    []string{"intro"},
	}, srv.token)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeData[database.Blog](t, resp)
	assert.Equal(t, "hello-world", created.Slug)
	assert.Zero(t, created.Views)

	_, resp = srv.do(t, http.MethodGet, "/api/blogs/"+created.ID, nil, "")
	assert.EqualValues(t, 1, decodeData[database.Blog](t, resp).Views)

	_, resp = srv.do(t, http.MethodGet, "/api/blogs/hello-world", nil, "")
	assert.EqualValues(t, 2, decodeData[database.Blog](t, resp).Views)

	w, resp = srv.do(t, http.MethodPut, "/api/blogs/"+created.ID, map[string]any{
		"title":   "Hello again",
		"content": "Edited",
	}, srv.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decodeData[database.Blog](t, resp).Views)

	w, resp = srv.do(t, http.MethodGet, "/api/blogs/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Blog not found", resp.Message)
}

func TestProfile_UpsertTwiceReplacesHeadline(t *testing.T) {
	srv := newTestServer(t)

	w, resp := srv.do(t, http.MethodGet, "/api/profile", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "null", string(resp.Data))

	w, resp = srv.do(t, http.MethodPut, "/api/profile", map[string]any{
		"name":     "  Jane Doe ",
		"headline": []string{"Engineer", "Writer"},
	}, srv.token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decodeData[database.Profile](t, resp)
	assert.Equal(t, "Jane Doe", first.Name)
	assert.Equal(t, database.DefaultProfileStatus, first.Status)

	w, resp = srv.do(t, http.MethodPut, "/api/profile", map[string]any{
		"name":     "Jane Doe",
		"headline": "Architect",
		"socialLinks": map[string]any{
			"github": "https://github.com/jane",
		},
	}, srv.token)
	require.Equal(t, http.StatusOK, w.Code)
	second := decodeData[database.Profile](t, resp)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, []string{"Architect"}, []string(second.Headline))
	assert.Equal(t, "https://github.com/jane", second.SocialLinks.Data().Github)

	_, resp = srv.do(t, http.MethodGet, "/api/profile", nil, "")
	stored := decodeData[database.Profile](t, resp)
	assert.Equal(t, []string{"Architect"}, []string(stored.Headline))

	w, resp = srv.do(t, http.MethodPut, "/api/profile", map[string]any{"name": "Jane"}, srv.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{database.DefaultHeadline}, []string(decodeData[database.Profile](t, resp).Headline))
}

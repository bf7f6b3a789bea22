package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForm_Parse(t *testing.T) {
	form, ok := FormFor("projects")
	require.True(t, ok)

	doc, err := form.Parse([]string{
		"title=Folio",
		"techStack=Go, Gin,,PostgreSQL",
		"links=GitHub|https://github.com/example/folio|github; Demo|https://folio.example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Folio", doc["title"])
	assert.Equal(t, []string{"Go", "Gin", "PostgreSQL"}, doc["techStack"])

	links, ok := doc["links"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, links, 2)
	assert.Equal(t, "github", links[0]["icon"])
	assert.Equal(t, "https://folio.example.com", links[1]["url"])
	_, hasIcon := links[1]["icon"]
	assert.False(t, hasIcon)
}

func TestForm_ParseErrors(t *testing.T) {
	form, _ := FormFor("skills")

	_, err := form.Parse([]string{"nonsense", "colour=red", "year=soon"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 3)
	assert.Equal(t, "expected name=value", verr.Fields[0].Message)
	assert.Equal(t, "unknown field", verr.Fields[1].Message)
	assert.Equal(t, "year", verr.Fields[2].Field)
}

func TestForm_Validate(t *testing.T) {
	form, _ := FormFor("skills")

	err := form.Validate(Document{"level": "Guru"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 2)
	assert.Equal(t, "name", verr.Fields[0].Field)
	assert.Equal(t, "level", verr.Fields[1].Field)

	assert.NoError(t, form.Validate(Document{"name": "Go", "level": "Expert", "type": ""}))
}

func TestMerge_KeepsUneditedFieldsAndDropsServerFields(t *testing.T) {
	current := Document{
		"_id":         "abc",
		"createdAt":   "2024-01-01T00:00:00Z",
		"views":       float64(7),
		"slug":        "hello",
		"title":       "Hello",
		"content":     "Body",
		"description": "Short",
	}
	merged := Merge(current, Document{"title": "Hello again"})

	assert.Equal(t, Document{"title": "Hello again", "content": "Body", "description": "Short"}, merged)
	assert.Equal(t, "Hello", current["title"])
}

type stubUploader struct {
	images, documents []string
	err               error
}

func (s *stubUploader) UploadImage(_ context.Context, path string) (Asset, error) {
	s.images = append(s.images, path)
	return Asset{URL: "https://cdn.example.com/" + path, PublicID: path}, s.err
}

func (s *stubUploader) UploadDocument(_ context.Context, path string) (Asset, error) {
	s.documents = append(s.documents, path)
	return Asset{URL: "https://cdn.example.com/" + path, PublicID: path}, s.err
}

func TestForm_ResolveUploads(t *testing.T) {
	form, _ := FormFor("profile")
	up := &stubUploader{}
	doc := Document{"name": "Jane", "avatar": "@me.png", "resumeLink": "@cv.pdf", "bio": "@not-a-file"}

	require.NoError(t, form.ResolveUploads(context.Background(), doc, up))
	assert.Equal(t, "https://cdn.example.com/me.png", doc["avatar"])
	assert.Equal(t, "https://cdn.example.com/cv.pdf", doc["resumeLink"])
	assert.Equal(t, "@not-a-file", doc["bio"])
	assert.Equal(t, []string{"me.png"}, up.images)
	assert.Equal(t, []string{"cv.pdf"}, up.documents)

	up.err = errors.New("too large")
	err := form.ResolveUploads(context.Background(), Document{"avatar": "@big.png"}, up)
	assert.ErrorContains(t, err, "upload avatar")
}

func TestResources(t *testing.T) {
	assert.Equal(t, []string{"achievements", "blogs", "certificates", "educations", "experiences", "projects", "skills"}, Resources())
}

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	"folio/internal/database"
)

// Input is a validated request record that converts into a storable model.
type Input[M any] interface {
	Model() *M
}

// stringList 接受 JSON 数组，或逗号分隔的单个字符串。
// 空白项会被丢弃，每项两端空白会被裁剪。
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*s = splitList(strings.Split(raw, ","))
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = splitList(items)
	return nil
}

func splitList(parts []string) stringList {
	out := make(stringList, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s stringList) slice() datatypes.JSONSlice[string] {
	return datatypes.JSONSlice[string](append([]string{}, s...))
}

// dateValue 接受 RFC 3339 时间戳或 YYYY-MM-DD 日期，空字符串表示未设置。
type dateValue struct {
	value *time.Time
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

func (d *dateValue) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		d.value = nil
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		d.value = nil
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			utc := t.UTC()
			d.value = &utc
			return nil
		}
	}
	return &formatError{field: "date", message: fmt.Sprintf("date %q must be YYYY-MM-DD or an RFC 3339 timestamp", raw)}
}

// formatError 由自定义 JSON 类型返回，bindJSON 会把它转换为字段错误。
type formatError struct {
	field   string
	message string
}

func (e *formatError) Error() string { return e.message }

type linkInput struct {
	Label string `json:"label" binding:"max=100"`
	URL   string `json:"url" binding:"max=2048"`
	Icon  string `json:"icon" binding:"max=100"`
}

type projectRequest struct {
	Title       string      `json:"title" binding:"required,max=200"`
	Description string      `json:"description" binding:"max=2000"`
	Content     string      `json:"content"`
	Image       string      `json:"image" binding:"max=2048"`
	Category    stringList  `json:"category" binding:"max=20"`
	TechStack   stringList  `json:"techStack" binding:"max=50"`
	HardSkills  stringList  `json:"hardSkills" binding:"max=50"`
	SoftSkills  stringList  `json:"softSkills" binding:"max=50"`
	RelatedTo   string      `json:"relatedTo" binding:"max=200"`
	Links       []linkInput `json:"links" binding:"max=20,dive"`
}

func (r projectRequest) Model() *database.Project {
	links := make(datatypes.JSONSlice[database.Link], 0, len(r.Links))
	for _, l := range r.Links {
		links = append(links, database.Link{
			Label: strings.TrimSpace(l.Label),
			URL:   strings.TrimSpace(l.URL),
			Icon:  strings.TrimSpace(l.Icon),
		})
	}
	return &database.Project{
		Title:       r.Title,
		Description: r.Description,
		Content:     r.Content,
		Image:       r.Image,
		Category:    r.Category.slice(),
		TechStack:   r.TechStack.slice(),
		HardSkills:  r.HardSkills.slice(),
		SoftSkills:  r.SoftSkills.slice(),
		RelatedTo:   r.RelatedTo,
		Links:       links,
	}
}

type skillRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Icon        string `json:"icon" binding:"max=2048"`
	Type        string `json:"type" binding:"omitempty,oneof=tech hardskill softskill"`
	Category    string `json:"category" binding:"max=100"`
	Level       string `json:"level" binding:"omitempty,oneof=Beginner Intermediate Advanced Expert"`
	Description string `json:"description" binding:"max=2000"`
	Year        *int   `json:"year" binding:"omitempty,gte=1900,lte=2100"`
	Visibility  string `json:"visibility" binding:"omitempty,oneof=public private"`
}

func (r skillRequest) Model() *database.Skill {
	return &database.Skill{
		Name:        r.Name,
		Icon:        r.Icon,
		Type:        r.Type,
		Category:    r.Category,
		Level:       r.Level,
		Description: r.Description,
		Year:        r.Year,
		Visibility:  r.Visibility,
	}
}

type experienceRequest struct {
	Role        string `json:"role" binding:"required,max=200"`
	Company     string `json:"company" binding:"required,max=200"`
	Period      string `json:"period" binding:"max=100"`
	Description string `json:"description"`
	Image       string `json:"image" binding:"max=2048"`
}

func (r experienceRequest) Model() *database.Experience {
	return &database.Experience{
		Role:        r.Role,
		Company:     r.Company,
		Period:      r.Period,
		Description: r.Description,
		Image:       r.Image,
	}
}

type educationRequest struct {
	Institution string `json:"institution" binding:"required,max=200"`
	Degree      string `json:"degree" binding:"required,max=200"`
	Field       string `json:"field" binding:"max=200"`
	Period      string `json:"period" binding:"max=100"`
	Description string `json:"description"`
	Image       string `json:"image" binding:"max=2048"`
}

func (r educationRequest) Model() *database.Education {
	return &database.Education{
		Institution: r.Institution,
		Degree:      r.Degree,
		Field:       r.Field,
		Period:      r.Period,
		Description: r.Description,
		Image:       r.Image,
	}
}

type blogRequest struct {
	Title       string     `json:"title" binding:"required,max=200"`
	Description string     `json:"description" binding:"max=2000"`
	Content     string     `json:"content" binding:"required"`
	Image       string     `json:"image" binding:"max=2048"`
	Tags        stringList `json:"tags" binding:"max=30"`
}

func (r blogRequest) Model() *database.Blog {
	return &database.Blog{
		Title:       r.Title,
		Description: r.Description,
		Content:     r.Content,
		Image:       r.Image,
		Tags:        r.Tags.slice(),
	}
}

type certificateRequest struct {
	Title         string `json:"title" binding:"required,max=200"`
	Issuer        string `json:"issuer" binding:"required,max=200"`
	Date          string `json:"date" binding:"max=64"`
	CredentialURL string `json:"credentialUrl" binding:"max=2048"`
	Description   string `json:"description"`
	Image         string `json:"image" binding:"max=2048"`
}

func (r certificateRequest) Model() *database.Certificate {
	return &database.Certificate{
		Title:         r.Title,
		Issuer:        r.Issuer,
		Date:          r.Date,
		CredentialURL: r.CredentialURL,
		Description:   r.Description,
		Image:         r.Image,
	}
}

type achievementRequest struct {
	Title     string    `json:"title" binding:"max=200"`
	Issuer    string    `json:"issuer" binding:"max=200"`
	Date      dateValue `json:"date"`
	ProofLink string    `json:"proofLink" binding:"max=2048"`
	Image     string    `json:"image" binding:"max=2048"`
}

func (r achievementRequest) Model() *database.Achievement {
	return &database.Achievement{
		Title:     r.Title,
		Issuer:    r.Issuer,
		Date:      r.Date.value,
		ProofLink: r.ProofLink,
		Image:     r.Image,
	}
}

type socialLinksInput struct {
	Github    string `json:"github" binding:"max=2048"`
	Linkedin  string `json:"linkedin" binding:"max=2048"`
	Instagram string `json:"instagram" binding:"max=2048"`
	Behance   string `json:"behance" binding:"max=2048"`
	Email     string `json:"email" binding:"max=320"`
}

type profileRequest struct {
	Name        string           `json:"name" binding:"required,max=200"`
	Headline    stringList       `json:"headline" binding:"max=10"`
	Bio         string           `json:"bio"`
	Location    string           `json:"location" binding:"max=200"`
	Status      string           `json:"status" binding:"max=100"`
	SocialLinks socialLinksInput `json:"socialLinks"`
	Avatar      string           `json:"avatar" binding:"max=2048"`
	ResumeLink  string           `json:"resumeLink" binding:"max=2048"`
}

func (r profileRequest) Model() *database.Profile {
	return &database.Profile{
		Name:     r.Name,
		Headline: r.Headline.slice(),
		Bio:      r.Bio,
		Location: r.Location,
		Status:   r.Status,
		SocialLinks: datatypes.NewJSONType(database.SocialLinks{
			Github:    r.SocialLinks.Github,
			Linkedin:  r.SocialLinks.Linkedin,
			Instagram: r.SocialLinks.Instagram,
			Behance:   r.SocialLinks.Behance,
			Email:     r.SocialLinks.Email,
		}),
		Avatar:     r.Avatar,
		ResumeLink: r.ResumeLink,
	}
}

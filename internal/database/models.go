package database

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Base 为所有文档提供字符串主键与时间戳。
type Base struct {
	ID        string    `gorm:"primaryKey;size:36" json:"_id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate 在插入前生成 UUID。
func (b *Base) BeforeCreate(_ *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Meta exposes the shared columns to generic repositories.
func (b *Base) Meta() *Base { return b }

// User 表示后台管理员账号。
type User struct {
	Base
	Username     string `gorm:"uniqueIndex;size:64" json:"username"`
	PasswordHash string `gorm:"size:255" json:"-"`
}

// Link is a labelled outbound link attached to a project.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
	Icon  string `json:"icon,omitempty"`
}

// SocialLinks 为个人资料中固定的社交平台地址。
type SocialLinks struct {
	Github    string `json:"github,omitempty"`
	Linkedin  string `json:"linkedin,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Behance   string `json:"behance,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Profile 是站点所有者的单例资料。
type Profile struct {
	Base
	Name        string                          `gorm:"size:255" json:"name"`
	Headline    datatypes.JSONSlice[string]     `json:"headline"`
	Bio         string                          `gorm:"type:text" json:"bio"`
	Location    string                          `gorm:"size:255" json:"location"`
	Status      string                          `gorm:"size:128" json:"status"`
	SocialLinks datatypes.JSONType[SocialLinks] `json:"socialLinks"`
	Avatar      string                          `gorm:"size:1024" json:"avatar"`
	ResumeLink  string                          `gorm:"size:1024" json:"resumeLink"`
}

const (
	DefaultHeadline      = "Full-Stack Developer"
	DefaultProfileStatus = "Open to Work"
)

// BeforeSave 补齐默认值并裁剪文本字段。
func (p *Profile) BeforeSave(_ *gorm.DB) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Bio = strings.TrimSpace(p.Bio)
	p.Location = strings.TrimSpace(p.Location)
	p.Status = strings.TrimSpace(p.Status)
	p.Avatar = strings.TrimSpace(p.Avatar)
	p.ResumeLink = strings.TrimSpace(p.ResumeLink)
	if p.Status == "" {
		p.Status = DefaultProfileStatus
	}
	if len(p.Headline) == 0 {
		p.Headline = datatypes.JSONSlice[string]{DefaultHeadline}
	}
	links := p.SocialLinks.Data()
	links.Github = strings.TrimSpace(links.Github)
	links.Linkedin = strings.TrimSpace(links.Linkedin)
	links.Instagram = strings.TrimSpace(links.Instagram)
	links.Behance = strings.TrimSpace(links.Behance)
	links.Email = strings.TrimSpace(links.Email)
	p.SocialLinks = datatypes.NewJSONType(links)
	return nil
}

// Project 作品集项目。
type Project struct {
	Base
	Title       string                      `gorm:"size:255" json:"title"`
	Description string                      `gorm:"type:text" json:"description"`
	Content     string                      `gorm:"type:text" json:"content"`
	Image       string                      `gorm:"size:1024" json:"image"`
	Category    datatypes.JSONSlice[string] `json:"category"`
	TechStack   datatypes.JSONSlice[string] `json:"techStack"`
	HardSkills  datatypes.JSONSlice[string] `json:"hardSkills"`
	SoftSkills  datatypes.JSONSlice[string] `json:"softSkills"`
	RelatedTo   string                      `gorm:"size:255" json:"relatedTo"`
	Links       datatypes.JSONSlice[Link]   `json:"links"`
}

// BeforeSave keeps list columns non-null.
func (p *Project) BeforeSave(_ *gorm.DB) error {
	p.Category = nonNil(p.Category)
	p.TechStack = nonNil(p.TechStack)
	p.HardSkills = nonNil(p.HardSkills)
	p.SoftSkills = nonNil(p.SoftSkills)
	if p.Links == nil {
		p.Links = datatypes.JSONSlice[Link]{}
	}
	return nil
}

// Skill types and levels.
const (
	SkillTypeTech      = "tech"
	SkillTypeHardSkill = "hardskill"
	SkillTypeSoftSkill = "softskill"

	SkillLevelBeginner     = "Beginner"
	SkillLevelIntermediate = "Intermediate"
	SkillLevelAdvanced     = "Advanced"
	SkillLevelExpert       = "Expert"

	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Skill 技能条目。
type Skill struct {
	Base
	Name        string `gorm:"size:255;index:idx_skill_order,priority:2" json:"name"`
	Icon        string `gorm:"size:1024" json:"icon"`
	Type        string `gorm:"size:32;index" json:"type"`
	Category    string `gorm:"size:255;index:idx_skill_order,priority:1" json:"category"`
	Level       string `gorm:"size:32" json:"level"`
	Description string `gorm:"type:text" json:"description"`
	Year        *int   `json:"year,omitempty"`
	Visibility  string `gorm:"size:16" json:"visibility"`
}

// BeforeSave 填充枚举默认值。
func (s *Skill) BeforeSave(_ *gorm.DB) error {
	if s.Type == "" {
		s.Type = SkillTypeTech
	}
	if s.Level == "" {
		s.Level = SkillLevelIntermediate
	}
	if s.Visibility == "" {
		s.Visibility = VisibilityPublic
	}
	return nil
}

// Experience 工作经历。
type Experience struct {
	Base
	Role        string `gorm:"size:255" json:"role"`
	Company     string `gorm:"size:255" json:"company"`
	Period      string `gorm:"size:128" json:"period"`
	Description string `gorm:"type:text" json:"description"`
	Image       string `gorm:"size:1024" json:"image"`
}

// Education 教育经历。
type Education struct {
	Base
	Institution string `gorm:"size:255" json:"institution"`
	Degree      string `gorm:"size:255" json:"degree"`
	Field       string `gorm:"size:255" json:"field"`
	Period      string `gorm:"size:128" json:"period"`
	Description string `gorm:"type:text" json:"description"`
	Image       string `gorm:"size:1024" json:"image"`
}

// Blog 博客文章，Views 由读取接口原子递增。
type Blog struct {
	Base
	Title       string                      `gorm:"size:255" json:"title"`
	Slug        string                      `gorm:"size:255;index" json:"slug"`
	Description string                      `gorm:"type:text" json:"description"`
	Content     string                      `gorm:"type:text" json:"content"`
	Image       string                      `gorm:"size:1024" json:"image"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	Views       int64                       `gorm:"not null;default:0" json:"views"`
}

// BeforeSave derives the slug from the title.
func (b *Blog) BeforeSave(_ *gorm.DB) error {
	b.Slug = slug.Make(b.Title)
	b.Tags = nonNil(b.Tags)
	return nil
}

// Certificate 证书，Date 为自由文本（如 "Mar 2024"）。
type Certificate struct {
	Base
	Title         string `gorm:"size:255" json:"title"`
	Issuer        string `gorm:"size:255" json:"issuer"`
	Date          string `gorm:"size:64" json:"date"`
	CredentialURL string `gorm:"size:1024" json:"credentialUrl"`
	Description   string `gorm:"type:text" json:"description"`
	Image         string `gorm:"size:1024" json:"image"`
}

// Achievement 成就，按 Date 倒序展示。
type Achievement struct {
	Base
	Title     string     `gorm:"size:255" json:"title"`
	Issuer    string     `gorm:"size:255" json:"issuer"`
	Date      *time.Time `gorm:"index" json:"date,omitempty"`
	ProofLink string     `gorm:"size:1024" json:"proofLink"`
	Image     string     `gorm:"size:1024" json:"image"`
}

// AllModels lists every table managed by Migrate.
func AllModels() []any {
	return []any{
		&User{},
		&Profile{},
		&Project{},
		&Skill{},
		&Experience{},
		&Education{},
		&Blog{},
		&Certificate{},
		&Achievement{},
	}
}

func nonNil(values datatypes.JSONSlice[string]) datatypes.JSONSlice[string] {
	if values == nil {
		return datatypes.JSONSlice[string]{}
	}
	return values
}

package main

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"folio/internal/database"
	"folio/internal/repository"
)

// seedSampleContent 为空集合写入一条示例内容，已有数据的集合保持不动。
// 返回实际写入的条数。
func seedSampleContent(ctx context.Context, store *repository.Store) (int, error) {
	awarded := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

	steps := []struct {
		name string
		run  func() (bool, error)
	}{
		{"projects", func() (bool, error) {
			return seedOne(ctx, store.Projects, &database.Project{
				Title:       "Portfolio Website",
				Description: "A personal portfolio website to showcase my projects, skills, and experiences.",
				Image:       "https://via.placeholder.com/600x400",
				TechStack:   datatypes.JSONSlice[string]{"Go", "Gin", "PostgreSQL", "React", "Tailwind CSS"},
				Links: datatypes.JSONSlice[database.Link]{
					{Label: "Demo", URL: "https://myportfolio.com"},
					{Label: "Repository", URL: "https://github.com/example/portfolio", Icon: "github"},
				},
			})
		}},
		{"skills", func() (bool, error) {
			return seedOne(ctx, store.Skills, &database.Skill{
				Name:     "React.js",
				Icon:     "https://cdn.jsdelivr.net/gh/devicons/devicon/icons/react/react-original.svg",
				Category: "Development",
			})
		}},
		{"experiences", func() (bool, error) {
			return seedOne(ctx, store.Experiences, &database.Experience{
				Role:        "Frontend Developer",
				Company:     "Tech Startup Inc.",
				Period:      "Jan 2025 - Present",
				Description: "Developing responsive web applications and integrating RESTful APIs with the backend team.",
			})
		}},
		{"blogs", func() (bool, error) {
			return seedOne(ctx, store.Blogs.Collection, &database.Blog{
				Title:   "Getting Started with Full-Stack Development",
				Content: "Building a full-stack application means owning the data model, the API and the interface at once...",
				Image:   "https://via.placeholder.com/600x400",
				Tags:    datatypes.JSONSlice[string]{"Go", "JavaScript", "Web Development"},
			})
		}},
		{"achievements", func() (bool, error) {
			return seedOne(ctx, store.Achievements, &database.Achievement{
				Title:     "AWS Certified Cloud Practitioner",
				Issuer:    "Amazon Web Services",
				Date:      &awarded,
				ProofLink: "https://www.credly.com/badges/example",
			})
		}},
		{"educations", func() (bool, error) {
			return seedOne(ctx, store.Educations, &database.Education{
				Institution: "Universitas Indonesia",
				Degree:      "Bachelor of Computer Science",
				Field:       "Computer Science",
				Period:      "2021 - 2025",
				Description: "Focused on software engineering, web development, and database systems.",
			})
		}},
	}

	created := 0
	for _, step := range steps {
		ok, err := step.run()
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", step.name, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// seedOne 仅在集合为空时写入 item。
func seedOne[T any, P repository.Document[T]](ctx context.Context, c *repository.Collection[T, P], item P) (bool, error) {
	existing, err := c.List(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}
	if err := c.Create(ctx, item); err != nil {
		return false, err
	}
	return true, nil
}

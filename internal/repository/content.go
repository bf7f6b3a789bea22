package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"folio/internal/database"
)

const (
	orderNewestFirst = "created_at DESC"
	orderSkills      = "category ASC, name ASC"
	orderAchievement = "date DESC NULLS LAST, created_at DESC"
)

// Store 聚合全部内容集合，进程内共享同一个 *gorm.DB。
type Store struct {
	DB           *gorm.DB
	Projects     *Collection[database.Project, *database.Project]
	Skills       *Collection[database.Skill, *database.Skill]
	Experiences  *Collection[database.Experience, *database.Experience]
	Educations   *Collection[database.Education, *database.Education]
	Blogs        *BlogRepository
	Certificates *Collection[database.Certificate, *database.Certificate]
	Achievements *Collection[database.Achievement, *database.Achievement]
	Profile      *ProfileRepository
	Users        *UserRepository
}

// NewStore wires every repository over db.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		DB:           db,
		Projects:     NewCollection[database.Project](db, orderNewestFirst),
		Skills:       NewCollection[database.Skill](db, orderSkills),
		Experiences:  NewCollection[database.Experience](db, orderNewestFirst),
		Educations:   NewCollection[database.Education](db, orderNewestFirst),
		Blogs:        NewBlogRepository(db),
		Certificates: NewCollection[database.Certificate](db, orderNewestFirst),
		Achievements: NewCollection[database.Achievement](db, orderAchievement),
		Profile:      NewProfileRepository(db),
		Users:        NewUserRepository(db),
	}
}

// SkillsOfType limits a skill listing to one type.
func SkillsOfType(skillType string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("type = ?", skillType)
	}
}

// PublicSkillsOnly hides private skills from anonymous visitors.
func PublicSkillsOnly() Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("visibility = ? OR visibility = '' OR visibility IS NULL", database.VisibilityPublic)
	}
}

// BlogRepository 在通用集合之上增加浏览计数。
type BlogRepository struct {
	*Collection[database.Blog, *database.Blog]
	db *gorm.DB
}

// NewBlogRepository constructs a blog repository whose replacements keep the view counter.
func NewBlogRepository(db *gorm.DB) *BlogRepository {
	return &BlogRepository{
		Collection: NewCollection[database.Blog](db, orderNewestFirst,
			WithCarryOver[database.Blog](func(prev, next *database.Blog) { next.Views = prev.Views }),
		),
		db: db,
	}
}

// GetAndCountView 原子地将浏览数加一并返回更新后的文章。
// key 可以是 ID，也可以是 slug；ID 优先。
func (r *BlogRepository) GetAndCountView(ctx context.Context, key string) (*database.Blog, error) {
	var blog database.Blog
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id := key
		res := tx.Model(&database.Blog{}).Where("id = ?", id).
			UpdateColumn("views", gorm.Expr("views + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("increment views: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var bySlug database.Blog
			if err := tx.Select("id").Where("slug = ?", key).Order(orderNewestFirst).First(&bySlug).Error; err != nil {
				return mapNotFound(err)
			}
			id = bySlug.ID
			if err := tx.Model(&database.Blog{}).Where("id = ?", id).
				UpdateColumn("views", gorm.Expr("views + ?", 1)).Error; err != nil {
				return fmt.Errorf("increment views: %w", err)
			}
		}
		if err := tx.Where("id = ?", id).First(&blog).Error; err != nil {
			return mapNotFound(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &blog, nil
}

// ProfileRepository 管理单例资料文档。
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository constructs a ProfileRepository.
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get 返回第一份资料；不存在时返回 nil, nil。
func (r *ProfileRepository) Get(ctx context.Context) (*database.Profile, error) {
	var profile database.Profile
	err := r.db.WithContext(ctx).Order("created_at ASC").First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}
	return &profile, nil
}

// Upsert 整体替换已有资料，或在没有资料时创建。
func (r *ProfileRepository) Upsert(ctx context.Context, profile *database.Profile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing database.Profile
		err := tx.Order("created_at ASC").First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			profile.ID = ""
			if err := tx.Create(profile).Error; err != nil {
				return fmt.Errorf("create profile: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("query profile: %w", err)
		}

		profile.ID = existing.ID
		profile.CreatedAt = existing.CreatedAt
		if err := tx.Save(profile).Error; err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		if err := tx.Where("id = ?", existing.ID).First(profile).Error; err != nil {
			return fmt.Errorf("reload profile: %w", err)
		}
		return nil
	})
}

// UserRepository 是凭据存储。
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByUsername 按用户名查找账号。
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*database.User, error) {
	var user database.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &user, nil
}

// FindByID 按 ID 查找账号。
func (r *UserRepository) FindByID(ctx context.Context, id string) (*database.User, error) {
	var user database.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &user, nil
}

// Create 保存新账号；用户名已存在时返回 ErrUserExists。
func (r *UserRepository) Create(ctx context.Context, username, passwordHash string) (*database.User, error) {
	if _, err := r.FindByUsername(ctx, username); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user := database.User{Username: username, PasswordHash: passwordHash}
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Count returns the number of accounts.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&database.User{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

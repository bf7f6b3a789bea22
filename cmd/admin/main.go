package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	_ "github.com/joho/godotenv/autoload"

	"folio/internal/auth"
	"folio/internal/config"
	"folio/internal/database"
	"folio/internal/repository"
)

// dbFlags 覆盖环境变量中的数据库配置，留空的项沿用环境变量。
type dbFlags struct {
	url      string
	host     string
	port     int
	name     string
	user     string
	password string
	sslmode  string
}

func main() {
	var (
		username = flag.String("username", "", "管理员用户名")
		seed     = flag.Bool("seed", false, "为空的内容集合写入示例数据（不会清空已有数据）")
		db       dbFlags
	)
	flag.StringVar(&db.url, "db-url", "", "数据库连接串，优先于其余数据库参数（默认读 DATABASE_URL）")
	flag.StringVar(&db.host, "db-host", "", "数据库 Host（默认读 DATABASE_HOST）")
	flag.IntVar(&db.port, "db-port", 0, "数据库 Port（默认读 DATABASE_PORT）")
	flag.StringVar(&db.name, "db-name", "", "数据库名（默认读 POSTGRES_DB）")
	flag.StringVar(&db.user, "db-user", "", "数据库用户（默认读 POSTGRES_USER）")
	flag.StringVar(&db.password, "db-password", "", "数据库密码（默认读 POSTGRES_PASSWORD）")
	flag.StringVar(&db.sslmode, "db-sslmode", "", "数据库 SSLMODE（默认读 DATABASE_SSLMODE）")
	flag.Parse()

	u := strings.TrimSpace(*username)
	if u == "" && !*seed {
		log.Fatal("missing required flag: --username (or --seed)")
	}

	base, err := config.LoadDatabase()
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}
	dbCfg := db.apply(base)
	if err := dbCfg.Validate(); err != nil {
		log.Fatalf("database config: %v", err)
	}

	conn, err := database.InitDatabase(dbCfg, nil)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(conn); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
	store := repository.NewStore(conn)
	ctx := context.Background()

	if *seed {
		created, err := seedSampleContent(ctx, store)
		if err != nil {
			log.Fatalf("seed sample content: %v", err)
		}
		fmt.Printf("已写入示例内容：%d 条\n", created)
	}
	if u == "" {
		return
	}

	password, err := generateRandomPassword(24)
	if err != nil {
		log.Fatalf("generate password: %v", err)
	}
	hashed, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	user, err := store.Users.Create(ctx, u, hashed)
	switch {
	case errors.Is(err, repository.ErrUserExists):
		log.Fatalf("user %q already exists", u)
	case err != nil:
		log.Fatalf("create user: %v", err)
	}

	fmt.Printf("已创建管理员账号：\n")
	fmt.Printf("ID: %s\n", user.ID)
	fmt.Printf("用户名: %s\n", user.Username)
	fmt.Printf("初始密码: %s\n", password)
	fmt.Printf("提示：该密码仅显示一次，请妥善保存。\n")
}

// apply 用非空的命令行参数覆盖 base。
func (f dbFlags) apply(base config.DatabaseConfig) config.DatabaseConfig {
	if v := strings.TrimSpace(f.url); v != "" {
		return config.DatabaseConfig{URL: v}
	}
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&base.Host, f.host)
	set(&base.Name, f.name)
	set(&base.User, f.user)
	set(&base.Password, f.password)
	set(&base.SSLMode, f.sslmode)
	if f.port > 0 {
		base.Port = f.port
	}
	return base
}

func generateRandomPassword(bytesLen int) (string, error) {
	if bytesLen <= 0 {
		bytesLen = 24
	}
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"movie-social/internal/auth"
	"movie-social/internal/config"
	"movie-social/internal/models"
	appRedis "movie-social/internal/redis"
	"movie-social/internal/storage"
)

func usage() {
	fmt.Println("使用方法:")
	fmt.Println("  ./admin show-relationships <user>          - 列出用户的好友与待处理请求")
	fmt.Println("  ./admin list-notifications <user> [n]      - 列出用户最近 n 条通知 (默认 20)")
	fmt.Println("  ./admin unread-count <user>                - 从存储重新计算未读数")
	fmt.Println("  ./admin mint-token <user> [role...]        - 为开发环境签发访问令牌 (如 catalog:publish)")
	fmt.Println("  ./admin revoke-token <token>               - 吊销令牌")
	fmt.Println("<user> 可以是用户ID或用户名")
}

func main() {
	if len(os.Args) < 3 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}
	ctx := context.Background()

	switch os.Args[1] {
	case "revoke-token":
		revokeToken(ctx, cfg, os.Args[2])
		return
	}

	db := openDB(cfg.Database)
	user := resolveUser(ctx, db, os.Args[2])
	userID := user.ID
	switch os.Args[1] {
	case "show-relationships":
		showRelationships(ctx, db, userID)
	case "list-notifications":
		limit := 20
		if len(os.Args) > 3 {
			if n, err := strconv.Atoi(os.Args[3]); err == nil && n > 0 {
				limit = n
			}
		}
		listNotifications(ctx, db, userID, limit)
	case "unread-count":
		count, err := storage.NewGormNotificationRepository(db).CountUnread(ctx, userID)
		if err != nil {
			log.Fatalf("统计未读数失败: %v", err)
		}
		fmt.Printf("用户 %d 未读通知: %d\n", userID, count)
	case "mint-token":
		mintToken(user, cfg.Auth, os.Args[3:])
	default:
		usage()
		log.Fatalf("未知命令: %s", os.Args[1])
	}
}

func openDB(cfg config.DatabaseConfig) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%d user=%s dbname=%s password=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.DBName, cfg.Password, cfg.SSLMode)
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqlDB,
	}), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  true,
			},
		),
	})
	if err != nil {
		log.Fatalf("Failed to create GORM instance: %v", err)
	}
	return db
}

func showRelationships(ctx context.Context, db *gorm.DB, userID uint) {
	rels, err := storage.NewGormRelationshipRepository(db).ListForUser(ctx, userID)
	if err != nil {
		log.Fatalf("获取关系失败: %v", err)
	}

	fmt.Printf("用户 %d 的关系 (%d 条):\n", userID, len(rels))
	fmt.Println("--------------------------------------")
	for _, rel := range rels {
		direction := "-"
		if rel.Status != models.RelationshipAccepted {
			if rel.RequesterID == userID {
				direction = "outgoing"
			} else {
				direction = "incoming"
			}
		}
		fmt.Printf("#%d 对方: %d, 状态: %s, 方向: %s, 创建: %s, 更新: %s\n",
			rel.ID, rel.OtherParty(userID), rel.Status, direction,
			rel.CreatedAt.Format("2006-01-02 15:04:05"), rel.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
}

func listNotifications(ctx context.Context, db *gorm.DB, userID uint, limit int) {
	items, total, err := storage.NewGormNotificationRepository(db).ListByRecipient(ctx, userID, false, limit, 0)
	if err != nil {
		log.Fatalf("获取通知失败: %v", err)
	}

	fmt.Printf("用户 %d 的通知 (显示 %d / 共 %d):\n", userID, len(items), total)
	fmt.Println("--------------------------------------")
	for _, n := range items {
		read := " "
		if n.IsRead {
			read = "x"
		}
		fmt.Printf("[%s] #%d %s %s %q -> %s\n",
			read, n.ID, n.CreatedAt.Format("2006-01-02 15:04:05"), n.Kind, n.Message, n.Link)
	}
}

// resolveUser accepts a numeric id or a username.
func resolveUser(ctx context.Context, db *gorm.DB, arg string) *models.User {
	users := storage.NewGormUserRepository(db)
	var (
		user *models.User
		err  error
	)
	if id, parseErr := storage.ParseID(arg); parseErr == nil {
		user, err = users.GetByID(ctx, id)
	} else {
		user, err = users.GetByUsername(ctx, arg)
	}
	if err != nil {
		log.Fatalf("查找用户 %s 失败: %v", arg, err)
	}
	return user
}

func mintToken(user *models.User, authCfg config.AuthConfig, roles []string) {
	token, err := auth.GenerateToken(user.ID, user.Username, authCfg, roles...)
	if err != nil {
		log.Fatalf("签发令牌失败: %v", err)
	}
	fmt.Println(token)
}

func revokeToken(ctx context.Context, cfg config.Config, token string) {
	claims, err := auth.ValidateToken(ctx, token, cfg.Auth.JWTSecretKey, nil)
	if err != nil {
		log.Fatalf("令牌无效: %v", err)
	}
	client, err := appRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("无法连接到 Redis: %v", err)
	}
	defer client.Close()

	if err := auth.RevokeToken(ctx, claims, appRedis.NewRedisTokenBlacklist(client)); err != nil {
		log.Fatalf("吊销令牌失败: %v", err)
	}
	fmt.Printf("已吊销用户 %d 的令牌 %s\n", claims.UserID, claims.ID)
}

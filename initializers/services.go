package initializers

import (
	"context"
	"time"

	"github.com/Kariqs/campus-store-api/cache"
	"github.com/Kariqs/campus-store-api/storage"
	"github.com/Kariqs/campus-store-api/utils"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

var (
	Cache    *cache.Cache
	Uploader storage.Uploader
	Mailer   *utils.Mailer
)

// ConnectToRedis enables the catalog cache when REDIS_ADDR is set. An
// unreachable Redis leaves the cache disabled rather than stopping the server.
func ConnectToRedis() {
	if Cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set, catalog cache disabled")
		return
	}

	client := redis.NewClient(&redis.Options{Addr: Cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).WithField("addr", Cfg.RedisAddr).Warn("Redis unreachable, catalog cache disabled")
		client.Close()
		return
	}

	Cache = cache.New(client, cache.DefaultPrefix, Cfg.CacheTTL)
	log.WithField("addr", Cfg.RedisAddr).Info("Connected to Redis")
}

func InitUploader() {
	switch Cfg.UploadBackend {
	case "s3":
		u, err := storage.NewS3Uploader(context.Background(), Cfg.S3Bucket)
		if err != nil {
			log.WithError(err).Fatal("Failed to configure S3 uploads")
		}
		Uploader = u
	default:
		u, err := storage.NewLocalUploader(Cfg.UploadDir, "/uploads")
		if err != nil {
			log.WithError(err).Fatal("Failed to configure local uploads")
		}
		Uploader = u
	}
	log.WithField("backend", Cfg.UploadBackend).Info("Upload storage ready")
}

func InitMailer() {
	Mailer = utils.NewMailer(utils.MailConfig{
		SMTPAddress: Cfg.SMTPAddress,
		SMTPHost:    Cfg.FromEmailSMTP,
		From:        Cfg.FromEmail,
		Password:    Cfg.FromEmailPassword,
	})
	if !Mailer.Enabled() {
		log.Info("SMTP not configured, order confirmation emails disabled")
	}
}

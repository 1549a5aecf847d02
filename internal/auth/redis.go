package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"
	"golang.org/x/crypto/bcrypt"
)

const (
	timeFormat     = "2006-01-02 15:04:05"
	credKeyTpl     = "cred:%s"    // cred:${email}
	sessionKeyTpl  = "session:%s" // session:${token}
	tokenPrefix    = "sk-guru-"
	DefaultSession = 7 * 24 * time.Hour
)

// RedisProvider keeps bcrypt password hashes in cred:{email} hashes and
// sessions in session:{token} hashes that expire after the session TTL.
type RedisProvider struct {
	redis      *redis.Client
	sessionTTL time.Duration
	now        func() time.Time
}

func NewRedisProvider(client *redis.Client, sessionTTL time.Duration) *RedisProvider {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSession
	}
	return &RedisProvider{redis: client, sessionTTL: sessionTTL, now: time.Now}
}

// Connect parses redisURL, pings the server and returns a provider on top of
// the connection.
func Connect(ctx context.Context, redisURL string, sessionTTL time.Duration) (*RedisProvider, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisProvider(client, sessionTTL), nil
}

func generateToken() (string, error) {
	randomBytes := make([]byte, 12)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return tokenPrefix + hex.EncodeToString(randomBytes), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *RedisProvider) SignUp(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	key := fmt.Sprintf(credKeyTpl, email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	id := uuid.NewString()
	// HSETNX on the id field is the only guard against concurrent sign-ups
	claimed, err := p.redis.HSetNX(ctx, key, "id", id).Result()
	if err != nil {
		return "", fmt.Errorf("failed to register %s: %w", email, err)
	}
	if !claimed {
		return "", ErrEmailTaken
	}

	err = p.redis.HSet(ctx, key, map[string]interface{}{
		"password_hash":    string(hash),
		"created_dttm_utc": p.now().UTC().Format(timeFormat),
	}).Err()
	if err != nil {
		// release the claim, otherwise the email stays taken without a password
		if derr := p.redis.Del(context.WithoutCancel(ctx), key).Err(); derr != nil {
			logger.Error.Printf("Failed to release %s after a failed sign-up: %v", key, derr)
		}
		return "", fmt.Errorf("failed to store credentials for %s: %w", email, err)
	}

	logger.Debug.Printf("Registered credentials for %s as %s", email, id)
	return id, nil
}

func (p *RedisProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	key := fmt.Sprintf(credKeyTpl, email)

	values, err := p.redis.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch credentials: %w", err)
	}
	if len(values) == 0 || values["password_hash"] == "" {
		logger.Debug.Printf("No credentials for %s", email)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(values["password_hash"]), []byte(password)); err != nil {
		logger.Debug.Printf("Password mismatch for %s", email)
		return nil, ErrInvalidCredentials
	}

	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	expiresAt := p.now().UTC().Add(p.sessionTTL)
	key = fmt.Sprintf(sessionKeyTpl, token)

	pipe := p.redis.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"user_id":          values["id"],
		"email":            email,
		"expires_dttm_utc": expiresAt.Format(timeFormat),
	})
	pipe.Expire(ctx, key, p.sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &Session{
		Token:     token,
		UserID:    values["id"],
		Email:     email,
		ExpiresAt: expiresAt,
	}, nil
}

func (p *RedisProvider) Authenticate(ctx context.Context, token string) (*Session, error) {
	if !strings.HasPrefix(token, tokenPrefix) {
		return nil, ErrSessionNotFound
	}

	values, err := p.redis.HGetAll(ctx, fmt.Sprintf(sessionKeyTpl, token)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}
	if len(values) == 0 || values["user_id"] == "" {
		return nil, ErrSessionNotFound
	}

	expiresAt, _ := time.Parse(timeFormat, values["expires_dttm_utc"])
	return &Session{
		Token:     token,
		UserID:    values["user_id"],
		Email:     values["email"],
		ExpiresAt: expiresAt,
	}, nil
}

func (p *RedisProvider) SignOut(ctx context.Context, token string) error {
	return p.redis.Del(ctx, fmt.Sprintf(sessionKeyTpl, token)).Err()
}

func (p *RedisProvider) Close() error {
	if p.redis != nil {
		return p.redis.Close()
	}
	return nil
}

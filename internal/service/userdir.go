package service

import (
	"context"
	"fmt"
	"time"

	"phenoqc/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Actor labels used when the user directory cannot resolve an id.
const (
	crawlerLabel = "crawler"
	unknownLabel = "unknown"
)

// UserDirectory resolves user ids to display records. Backed by the
// centre-shared user directory service in production.
type UserDirectory interface {
	FindUser(ctx context.Context, uid int) (*domain.User, error)
}

// RestyUserDirectory is the HTTP client for the user directory.
type RestyUserDirectory struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewRestyUserDirectory(baseURL string, timeout time.Duration, logger *zap.Logger) *RestyUserDirectory {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(1 * time.Second).
		SetHeader("Accept", "application/json")

	return &RestyUserDirectory{httpClient: client, logger: logger}
}

var _ UserDirectory = (*RestyUserDirectory)(nil)

func (d *RestyUserDirectory) FindUser(ctx context.Context, uid int) (*domain.User, error) {
	var user domain.User
	resp, err := d.httpClient.R().
		SetContext(ctx).
		SetResult(&user).
		SetPathParam("uid", fmt.Sprintf("%d", uid)).
		Get("/users/{uid}")
	if err != nil {
		d.logger.Warn("user directory call failed", zap.Int("uid", uid), zap.Error(err))
		return nil, fmt.Errorf("failed to call user directory: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("user directory returned %d for uid %d", resp.StatusCode(), uid)
	}
	return &user, nil
}

// userLabel resolves the display label for an actor id. The crawler's
// reserved id is labelled distinctly; any directory failure degrades to
// "unknown" rather than failing the request.
func userLabel(ctx context.Context, dir UserDirectory, uid int) string {
	if uid == domain.CrawlerUserID {
		return crawlerLabel
	}
	user, err := dir.FindUser(ctx, uid)
	if err != nil || user == nil {
		return unknownLabel
	}
	if label := user.Label(); label != "" {
		return label
	}
	return unknownLabel
}

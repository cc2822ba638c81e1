package mail

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"mailscout/internal/config"
	"mailscout/internal/logging"
	"mailscout/internal/services"
)

// GmailSource fetches threads through the Gmail API.
type GmailSource struct {
	svc    *gmailv1.Service
	user   string
	cache  *ThreadCache
	logger *slog.Logger
}

var _ Source = (*GmailSource)(nil)

// NewGmailSource authenticates with the cached OAuth token and verifies
// it with a profile lookup. A missing or rejected token is a
// configuration error pointing the operator at the auth flow.
func NewGmailSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*GmailSource, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	oauthCfg, err := loadOAuthConfig(cfg.GmailCredentialsPath())
	if err != nil {
		return nil, err
	}
	token, err := tokenFromFile(cfg.GmailTokenPath())
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "gmail", "token",
			"no cached token; run 'mailscout auth' first", err)
	}
	svc, err := gmailv1.NewService(ctx, option.WithHTTPClient(oauthCfg.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	user := strings.TrimSpace(cfg.Gmail.User)
	if user == "" {
		user = "me"
	}
	if _, err := svc.Users.GetProfile(user).Context(ctx).Do(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "gmail", "token",
			"cached token rejected; run 'mailscout auth' again", err)
	}
	var cache *ThreadCache
	if cfg.Gmail.CacheEnabled {
		cache, err = OpenThreadCache(cfg.ThreadCachePath())
		if err != nil {
			logger.Warn("thread cache unavailable, fetching without cache", logging.Error(err))
			cache = nil
		}
	}
	return NewGmailSourceWithService(svc, user, cache, logger), nil
}

// NewGmailSourceWithService wires an already-authenticated Gmail service.
func NewGmailSourceWithService(svc *gmailv1.Service, user string, cache *ThreadCache, logger *slog.Logger) *GmailSource {
	if logger == nil {
		logger = logging.NewNop()
	}
	if strings.TrimSpace(user) == "" {
		user = "me"
	}
	return &GmailSource{
		svc:    svc,
		user:   user,
		cache:  cache,
		logger: logging.NewComponentLogger(logger, "gmail"),
	}
}

// FetchThreads lists threads from the sender and resolves each through
// the cache or a full fetch. Threads that fail to fetch are skipped so
// one bad thread cannot sink the task.
func (s *GmailSource) FetchThreads(ctx context.Context, address string, limit int) ([]Thread, error) {
	query := fmt.Sprintf("from:%s", address)
	log := logging.WithContext(ctx, s.logger)
	log.Info("listing threads", logging.String("query", query), logging.Int("limit", limit))

	list, err := s.svc.Users.Threads.List(s.user).Q(query).MaxResults(int64(limit)).Context(ctx).Do()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "gmail", "list threads", query, err)
	}

	threads := make([]Thread, 0, len(list.Threads))
	for _, ref := range list.Threads {
		if ref == nil || ref.Id == "" {
			continue
		}
		thread, err := s.resolveThread(ctx, ref)
		if err != nil {
			logging.WarnWithContext(log, "thread fetch failed, skipping", "thread_fetch_failed",
				logging.String("thread_id", ref.Id), logging.Error(err))
			continue
		}
		threads = append(threads, thread)
	}
	log.Info("threads fetched",
		logging.Int("listed", len(list.Threads)),
		logging.Int("fetched", len(threads)))
	return threads, nil
}

func (s *GmailSource) resolveThread(ctx context.Context, ref *gmailv1.Thread) (Thread, error) {
	historyID := strconv.FormatUint(ref.HistoryId, 10)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, ref.Id, historyID)
		if err != nil {
			s.logger.Warn("thread cache read failed", logging.String("thread_id", ref.Id), logging.Error(err))
		} else if ok {
			return cached, nil
		}
	}
	full, err := s.svc.Users.Threads.Get(s.user, ref.Id).Format("full").Context(ctx).Do()
	if err != nil {
		return Thread{}, err
	}
	thread := parseThread(full)
	if s.cache != nil {
		if err := s.cache.Put(ctx, thread, historyID); err != nil {
			s.logger.Warn("thread cache write failed", logging.String("thread_id", ref.Id), logging.Error(err))
		}
	}
	return thread, nil
}

// HealthCheck verifies the mailbox is reachable with the current token.
func (s *GmailSource) HealthCheck(ctx context.Context) services.Health {
	if _, err := s.svc.Users.GetProfile(s.user).Context(ctx).Do(); err != nil {
		return services.Unhealthy("gmail", err.Error())
	}
	return services.Healthy("gmail")
}

// Close releases the thread cache, if one is open.
func (s *GmailSource) Close() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Close()
}

// parseThread flattens a full thread. Subject and date come from the
// first message; every message body lands under a numbered separator
// carrying its own date.
func parseThread(thread *gmailv1.Thread) Thread {
	if thread == nil {
		return Thread{}
	}
	messages := thread.Messages
	if len(messages) == 0 {
		return Thread{
			ID:      thread.Id,
			Subject: "No Subject",
			Date:    "Unknown Date",
		}
	}

	subject := "No Subject"
	date := "Unknown Date"
	if first := messages[0]; first.Payload != nil {
		if value := headerValue(first.Payload.Headers, "Subject"); value != "" {
			subject = value
		}
		if value := headerValue(first.Payload.Headers, "Date"); value != "" {
			date = value
		}
	}

	parts := make([]string, 0, len(messages)*3)
	for i, message := range messages {
		msgDate := "Unknown"
		var body string
		if message.Payload != nil {
			if value := headerValue(message.Payload.Headers, "Date"); value != "" {
				msgDate = value
			}
			body = extractBody(message.Payload)
		}
		parts = append(parts,
			fmt.Sprintf("--- Message %d of %d (Date: %s) ---", i+1, len(messages), msgDate),
			body,
			"",
		)
	}

	return Thread{
		ID:           thread.Id,
		Subject:      subject,
		Date:         date,
		Body:         strings.Join(parts, "\n"),
		MessageCount: len(messages),
	}
}

package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bluesumk/mjjf/internal/apperr"
	"github.com/bluesumk/mjjf/internal/invite"
	"github.com/bluesumk/mjjf/internal/model"
	"github.com/bluesumk/mjjf/internal/repository"
)

// AssetGenerator produces a scannable image for an invite scene. Implemented
// by the QR collaborator; failures degrade to the textual scene.
type AssetGenerator interface {
	Generate(ctx context.Context, scene string) (url string, err error)
}

// InviteService maintains the short-code side table and produces shareable
// invites.
type InviteService struct {
	invites  repository.InviteRepo
	sessions repository.SessionRepo
	assets   AssetGenerator
	log      *zap.Logger
}

// NewInviteService creates a new invite service.
func NewInviteService(
	invites repository.InviteRepo,
	sessions repository.SessionRepo,
	assets AssetGenerator,
	log *zap.Logger,
) *InviteService {
	return &InviteService{
		invites:  invites,
		sessions: sessions,
		assets:   assets,
		log:      log.Named("invite"),
	}
}

// Register records the session's short-code pair in the side table so scenes
// can be resolved back to the full (sessionId, token) pair later.
func (s *InviteService) Register(ctx context.Context, session *model.Session) error {
	lookup := &model.InviteLookup{
		ShortSid:   invite.ShortCode(session.ID),
		ShortToken: invite.ShortCode(session.InviteToken),
		SessionID:  session.ID,
		Token:      session.InviteToken,
		CreatedAt:  session.CreatedAt,
	}
	if err := s.invites.Put(ctx, lookup); err != nil {
		return fmt.Errorf("failed to register invite codes: %w", err)
	}
	return nil
}

// Unregister drops the session's side-table entry.
func (s *InviteService) Unregister(ctx context.Context, sessionID string) error {
	return s.invites.DeleteBySession(ctx, sessionID)
}

// Resolve maps a scene string back to the full (sessionId, token) pair. The
// short codes are only lookup keys: every candidate from the side table is
// re-verified against its stored full values before being trusted, so hash
// collisions cannot hand out the wrong session.
func (s *InviteService) Resolve(ctx context.Context, scene string) (sid, token string, err error) {
	shortSid, shortToken, err := invite.ParseScene(scene)
	if err != nil {
		return "", "", apperr.New(apperr.CodeBadParam, "unparseable scene string")
	}

	candidates, err := s.invites.FindByShortCodes(ctx, shortSid, shortToken)
	if err != nil {
		return "", "", fmt.Errorf("failed to look up invite codes: %w", err)
	}

	for _, c := range candidates {
		if invite.ShortCode(c.SessionID) != shortSid || invite.ShortCode(c.Token) != shortToken {
			continue
		}
		session, err := s.sessions.GetByID(ctx, c.SessionID)
		if err != nil {
			return "", "", fmt.Errorf("failed to verify session: %w", err)
		}
		if session == nil || session.InviteToken != c.Token {
			continue // stale entry, pruner will collect it
		}
		return c.SessionID, c.Token, nil
	}
	return "", "", apperr.New(apperr.CodeNotFound, "no session matches this invite")
}

// Asset produces the shareable invite for a session. When the image
// collaborator fails the textual scene is returned as a fallback; invite
// sharing never blocks on the QR service.
func (s *InviteService) Asset(ctx context.Context, sessionID, identity string) (*model.InviteAsset, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, apperr.New(apperr.CodeNotFound, "session not found")
	}
	if !session.IsMember(identity) {
		return nil, apperr.New(apperr.CodeForbidden, "only members may share invites")
	}

	asset := &model.InviteAsset{
		SessionID: sessionID,
		Scene:     invite.BuildScene(session.ID, session.InviteToken),
	}

	// The scannable channel rejects '&' and '=', so the image payload uses
	// the dot-joined form.
	start := time.Now()
	url, err := s.assets.Generate(ctx, invite.BuildCompactScene(session.ID, session.InviteToken))
	if err != nil {
		s.log.Warn("asset generation failed, falling back to text code",
			zap.String("sid", sessionID), zap.Duration("took", time.Since(start)), zap.Error(err))
		asset.Fallback = true
		return asset, nil
	}

	asset.URL = url
	return asset, nil
}

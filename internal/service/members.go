package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"projectflow/internal/auth"
	"projectflow/internal/models"
	"projectflow/internal/repository"

	"go.uber.org/zap"
)

const (
	minPasswordLength = 6
	// bcrypt ignores input beyond this many bytes and refuses to hash it
	maxPasswordBytes = 72
)

type SignupInput struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

type MemberService struct {
	members repository.MemberRepository
	audit   repository.AuditRepository
	tokens  *auth.Tokens
	logger  *zap.Logger
}

func NewMemberService(members repository.MemberRepository, audit repository.AuditRepository, tokens *auth.Tokens, logger *zap.Logger) *MemberService {
	return &MemberService{members: members, audit: audit, tokens: tokens, logger: logger}
}

// Signup registers a regular member and returns it with a fresh token.
func (s *MemberService) Signup(ctx context.Context, in SignupInput) (*models.Member, string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Position = strings.TrimSpace(in.Position)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if in.Name == "" {
		return nil, "", invalid("name is required")
	}
	addr, err := mail.ParseAddress(in.Email)
	if err != nil || addr.Name != "" || addr.Address != in.Email {
		return nil, "", invalid("invalid email")
	}
	in.Email = addr.Address
	if len(in.Password) < minPasswordLength {
		return nil, "", invalid("password must be at least %d characters", minPasswordLength)
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, "", invalid("password must be at most %d bytes", maxPasswordBytes)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	m := &models.Member{
		Name:         in.Name,
		Position:     in.Position,
		Email:        in.Email,
		Avatar:       strings.TrimSpace(in.Avatar),
		PasswordHash: hash,
		Role:         models.RoleMember,
	}
	if err := s.members.Put(ctx, m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("create member: %w", err)
	}

	token, err := s.tokens.Issue(*m)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	audit(ctx, s.audit, s.logger, *m, "member", m.ID, "signup", m.Email)
	s.logger.Info("Member signed up", zap.Uint("id", m.ID), zap.String("email", m.Email))
	return m, token, nil
}

func (s *MemberService) Login(ctx context.Context, email, password string) (*models.Member, string, error) {
	m, err := s.members.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !auth.CheckPassword(password, m.PasswordHash) {
		s.logger.Info("Login failed", zap.Uint("id", m.ID))
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(*m)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return m, token, nil
}

func (s *MemberService) Get(ctx context.Context, id uint) (*models.Member, error) {
	return s.members.Get(ctx, id)
}

func (s *MemberService) List(ctx context.Context) ([]models.Member, error) {
	return s.members.List(ctx)
}

// Delete removes a member account. Only admins may delete, and never their
// own account.
func (s *MemberService) Delete(ctx context.Context, actor models.Member, id uint) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if actor.ID == id {
		return invalid("cannot delete your own account")
	}
	if err := s.members.Delete(ctx, id); err != nil {
		return err
	}

	audit(ctx, s.audit, s.logger, actor, "member", id, "delete", "")
	s.logger.Info("Member deleted", zap.Uint("id", id), zap.String("by", actor.Name))
	return nil
}

package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/zimsave/zimsave_plus/internal/store"
)

// KeyProfile is where the signed-in profile lives.
const KeyProfile = "zimsave_plus_auth_status"

var (
	ErrNameRequired    = errors.New("name is required")
	ErrContactRequired = errors.New("email or phone is required")
	ErrNoProfile       = errors.New("no signed-in profile")
)

// Service manages the local profile.
type Service struct {
	mu     sync.Mutex
	store  store.Store
	logger *slog.Logger
}

// NewService creates a new identity service.
func NewService(st store.Store, logger *slog.Logger) *Service {
	return &Service{store: st, logger: logger}
}

// Signup stores a new profile, replacing any previous one.
func (s *Service) Signup(ctx context.Context, in SignupInput) (Profile, error) {
	p := Profile{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
		Phone: strings.TrimSpace(in.Phone),
	}
	if p.Name == "" {
		return Profile{}, ErrNameRequired
	}
	if p.Email == "" && p.Phone == "" {
		return Profile{}, ErrContactRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.save(ctx, p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Login returns the stored profile when the email or phone matches it.
// Otherwise a fresh profile is created, named after the email local part or
// the phone number, falling back to "User".
func (s *Service) Login(ctx context.Context, creds Credentials) (Profile, error) {
	email := strings.TrimSpace(creds.Email)
	phone := strings.TrimSpace(creds.Phone)
	if email == "" && phone == "" {
		return Profile{}, ErrContactRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok, err := s.current(ctx)
	if err != nil {
		return Profile{}, err
	}
	if ok && ((email != "" && stored.Email == email) || (phone != "" && stored.Phone == phone)) {
		return stored, nil
	}

	p := Profile{Name: "User", Email: email, Phone: phone}
	local, _, _ := strings.Cut(email, "@")
	switch {
	case strings.TrimSpace(local) != "":
		p.Name = strings.TrimSpace(local)
	case phone != "":
		p.Name = phone
	}
	if err := s.save(ctx, p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Logout forgets the profile.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Remove(ctx, KeyProfile); err != nil {
		return fmt.Errorf("remove profile: %w", err)
	}
	return nil
}

// Current returns the signed-in profile, or ErrNoProfile.
func (s *Service) Current(ctx context.Context) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok, err := s.current(ctx)
	if err != nil {
		return Profile{}, err
	}
	if !ok {
		return Profile{}, ErrNoProfile
	}
	return p, nil
}

func (s *Service) current(ctx context.Context) (Profile, bool, error) {
	raw, ok, err := s.store.Get(ctx, KeyProfile)
	if err != nil {
		return Profile{}, false, fmt.Errorf("read profile: %w", err)
	}
	if !ok {
		return Profile{}, false, nil
	}
	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil || p.Name == "" {
		s.logger.Warn("discarding malformed profile", "error", err)
		if err := s.store.Remove(ctx, KeyProfile); err != nil {
			return Profile{}, false, fmt.Errorf("remove profile: %w", err)
		}
		return Profile{}, false, nil
	}
	return p, true, nil
}

func (s *Service) save(ctx context.Context, p Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, KeyProfile, string(raw)); err != nil {
		return fmt.Errorf("store profile: %w", err)
	}
	return nil
}

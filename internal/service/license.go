package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"license-auth-api/internal/model"
	"license-auth-api/internal/repository"
	"license-auth-api/internal/util"
)

// The closed set of outcomes an engine operation can report. Handlers
// match these with errors.Is; anything else is a storage failure.
var (
	ErrNotFound     = errors.New("license key not found")
	ErrExpired      = errors.New("license expired")
	ErrHwidMismatch = errors.New("hwid mismatch")
	ErrConflict     = errors.New("license key already exists")
	ErrInvalidDate  = errors.New("invalid expiry date")
)

const dateLayout = "2006-01-02"

// CountryResolver maps a caller address to a country code, best effort.
type CountryResolver interface {
	Country(ip string) string
}

// LicenseService is the license lifecycle engine: it validates, binds,
// expires and revokes keys. Safe for concurrent use; the one shared-state
// transition (first-verify binding) is pushed down to the repository as a
// conditional update.
type LicenseService struct {
	repo repository.LicenseRepository
	geo  CountryResolver
}

func NewLicenseService(repo repository.LicenseRepository, geo CountryResolver) *LicenseService {
	return &LicenseService{repo: repo, geo: geo}
}

// VerifyContext carries the caller details recorded on a successful
// verification.
type VerifyContext struct {
	IPAddress string
	UserAgent string
}

type VerifyResult struct {
	ExpiresAt string
	Plan      string
}

// Issue creates a new license. expiresAt must be a YYYY-MM-DD date; plan
// defaults to "basic". A non-empty hwid pre-binds the license to that
// device, an empty one leaves it unbound (stored NULL, so the first
// verification can claim it).
func (s *LicenseService) Issue(expiresAt, hwid, plan string) (*model.License, error) {
	if _, err := time.Parse(dateLayout, expiresAt); err != nil {
		return nil, ErrInvalidDate
	}
	if plan == "" {
		plan = "basic"
	}

	key, err := util.GenerateLicenseKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	license := &model.License{
		Key:       key,
		ExpiresAt: expiresAt,
		Plan:      plan,
		CreatedAt: time.Now(),
	}
	if hwid != "" {
		license.Hwid = &hwid
	}

	ok, err := s.repo.Insert(license)
	if err != nil {
		return nil, fmt.Errorf("insert license: %w", err)
	}
	if !ok {
		return nil, ErrConflict
	}
	return license, nil
}

// Verify checks a key against the caller's hardware id. The first
// successful verification of an unbound key binds it to that device; the
// bind is a conditional update at the repository, so two concurrent first
// calls can never both claim the key with different ids.
func (s *LicenseService) Verify(key, hwid string, vctx VerifyContext) (*VerifyResult, error) {
	license, err := s.repo.GetByKey(key)
	if err != nil {
		return nil, fmt.Errorf("load license: %w", err)
	}
	if license == nil {
		return nil, ErrNotFound
	}
	if isExpired(license.ExpiresAt) {
		return nil, ErrExpired
	}

	if !license.Bound() {
		rows, err := s.repo.BindHwidIfUnbound(key, hwid)
		if err != nil {
			return nil, fmt.Errorf("bind hwid: %w", err)
		}
		if rows == 0 {
			// Lost the first-bind race. Reload and judge against the
			// winner's id.
			license, err = s.repo.GetByKey(key)
			if err != nil {
				return nil, fmt.Errorf("reload license: %w", err)
			}
			if license == nil {
				return nil, ErrNotFound
			}
			if license.Hwid == nil || *license.Hwid != hwid {
				return nil, ErrHwidMismatch
			}
		}
	} else if *license.Hwid != hwid {
		return nil, ErrHwidMismatch
	}

	usage := &model.UsageLog{
		LicenseKey: key,
		IPAddress:  vctx.IPAddress,
		UserAgent:  vctx.UserAgent,
		Hwid:       hwid,
		GeoCountry: s.geo.Country(vctx.IPAddress),
		Timestamp:  time.Now(),
	}
	if err := s.repo.AppendUsage(usage); err != nil {
		// Best effort: a failed usage write must not fail an otherwise
		// valid verification.
		log.Printf("usage log write failed for %s: %v", key, err)
	}

	return &VerifyResult{ExpiresAt: license.ExpiresAt, Plan: license.Plan}, nil
}

// ResetBinding clears the hardware binding so the next verification can
// claim the key again.
func (s *LicenseService) ResetBinding(key string) error {
	ok, err := s.repo.ResetHwid(key)
	if err != nil {
		return fmt.Errorf("reset hwid: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Delete removes a license and its entire usage history.
func (s *LicenseService) Delete(key string) error {
	ok, err := s.repo.Delete(key)
	if err != nil {
		return fmt.Errorf("delete license: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Inspect returns the usage summary for a key, or (nil, nil) when the key
// has never been verified. An existing-but-unused key is not an error.
func (s *LicenseService) Inspect(key string) (*model.UsageSummary, error) {
	return s.repo.UsageSummary(key)
}

// isExpired compares date-only. An unparseable stored date counts as
// expired: malformed data must deny access, never grant it.
func isExpired(expiresAt string) bool {
	expiry, err := time.Parse(dateLayout, expiresAt)
	if err != nil {
		return true
	}
	return time.Now().After(expiry)
}

package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"golang.org/x/crypto/bcrypt"

	"github.com/Shivanand-hulikatti/eventpass/internal/metrics"
	"github.com/Shivanand-hulikatti/eventpass/lib/sl"
)

const defaultPinLength = 6

// Gate guards scanner activation with a per-event numeric PIN. Only the
// bcrypt hash of a PIN is stored.
type Gate struct {
	pins      PinStore
	limiter   AttemptLimiter
	pinLength int
	cost      int
	log       *slog.Logger
}

type GateOption func(*Gate)

// WithLimiter bounds failed PIN attempts per event and operator.
func WithLimiter(l AttemptLimiter) GateOption {
	return func(g *Gate) { g.limiter = l }
}

func WithPinLength(n int) GateOption {
	return func(g *Gate) { g.pinLength = n }
}

// WithBcryptCost overrides bcrypt.DefaultCost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) GateOption {
	return func(g *Gate) { g.cost = cost }
}

func NewGate(pins PinStore, log *slog.Logger, opts ...GateOption) *Gate {
	g := &Gate{
		pins:      pins,
		pinLength: defaultPinLength,
		cost:      bcrypt.DefaultCost,
		log:       log.With(sl.Module("service.gate")),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetPin generates a fresh PIN for the event, stores its hash and returns
// the plaintext. The previous PIN stops working immediately.
func (g *Gate) SetPin(ctx context.Context, eventID string) (string, error) {
	if err := checkID("event id", eventID); err != nil {
		return "", err
	}
	pin, err := randomDigits(g.pinLength)
	if err != nil {
		return "", fmt.Errorf("generate pin: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), g.cost)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	if err := g.pins.SetHash(ctx, eventID, string(hash)); err != nil {
		return "", err
	}
	g.log.Info("scanner pin set", slog.String("event_id", eventID))
	return pin, nil
}

// Verify reports whether candidate matches the event's PIN. It is false
// when no PIN is set.
func (g *Gate) Verify(ctx context.Context, eventID, candidate string) (bool, error) {
	if err := checkID("event id", eventID); err != nil {
		return false, err
	}
	hash, ok, err := g.pins.Hash(ctx, eventID)
	if err != nil {
		return false, err
	}
	if !ok || candidate == "" {
		return false, nil
	}
	err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("compare pin: %w", err)
}

// VerifyAttempt is Verify behind the attempt limiter. When the limiter is
// unreachable the attempt is allowed and a warning is logged.
func (g *Gate) VerifyAttempt(ctx context.Context, eventID, operator, candidate string) (bool, error) {
	if err := checkID("event id", eventID); err != nil {
		return false, err
	}
	key := "pin:" + eventID + ":" + operator
	if g.limiter != nil {
		allowed, err := g.limiter.Allow(ctx, key)
		switch {
		case err != nil:
			g.log.Warn("attempt limiter unavailable", slog.String("event_id", eventID), sl.Err(err))
		case !allowed:
			metrics.PinCheck("throttled")
			return false, ErrTooManyAttempts
		}
	}

	ok, err := g.Verify(ctx, eventID, candidate)
	if err != nil {
		metrics.PinCheck("error")
		return false, err
	}
	if !ok {
		metrics.PinCheck("mismatch")
		g.log.Warn("scanner pin mismatch",
			slog.String("event_id", eventID),
			slog.String("operator", operator))
		return false, nil
	}
	metrics.PinCheck("ok")
	if g.limiter != nil {
		if err := g.limiter.Reset(ctx, key); err != nil {
			g.log.Warn("reset attempts", slog.String("event_id", eventID), sl.Err(err))
		}
	}
	return true, nil
}

func (g *Gate) HasPin(ctx context.Context, eventID string) (bool, error) {
	if err := checkID("event id", eventID); err != nil {
		return false, err
	}
	_, ok, err := g.pins.Hash(ctx, eventID)
	return ok, err
}

// RemovePin opens the gate again.
func (g *Gate) RemovePin(ctx context.Context, eventID string) error {
	if err := checkID("event id", eventID); err != nil {
		return err
	}
	if err := g.pins.Delete(ctx, eventID); err != nil {
		return err
	}
	g.log.Info("scanner pin removed", slog.String("event_id", eventID))
	return nil
}

// randomDigits draws n decimal digits uniformly from crypto/rand.
func randomDigits(n int) (string, error) {
	ten := big.NewInt(10)
	buf := make([]byte, n)
	for i := range buf {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + d.Int64())
	}
	return string(buf), nil
}

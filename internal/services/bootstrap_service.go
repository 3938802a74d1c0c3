package services

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/benmeehan/device-locator/pkg/account"
	"github.com/benmeehan/device-locator/pkg/session"
)

// BootstrapService performs the interactive login that produces a reusable session.
type BootstrapService struct {
	client   account.Client
	sessions session.SessionManagerInterface
	in       *bufio.Reader
	out      io.Writer
	logger   zerolog.Logger
}

// NewBootstrapService creates a BootstrapService that prompts on out and reads answers from in.
func NewBootstrapService(client account.Client, sessions session.SessionManagerInterface,
	in io.Reader, out io.Writer, logger zerolog.Logger) *BootstrapService {
	return &BootstrapService{
		client:   client,
		sessions: sessions,
		in:       bufio.NewReader(in),
		out:      out,
		logger:   logger,
	}
}

// Run logs in, resolves any multi-factor challenge with the operator and persists the session.
func (b *BootstrapService) Run(ctx context.Context) error {
	if err := b.sessions.Load(); err != nil {
		return fmt.Errorf("failed to load stored session: %w", err)
	}

	b.say("Beginning account login…")
	status, err := b.client.Login(ctx)
	if err != nil {
		return &UpstreamError{Op: "login", Err: err}
	}

	switch {
	case status.Requires2FA:
		if err := b.verify2FA(ctx); err != nil {
			return err
		}
	case status.Requires2SA:
		if err := b.verify2SA(ctx); err != nil {
			return err
		}
	default:
		b.say("No 2FA/2SA required. Login succeeded.")
	}

	if err := b.sessions.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	b.say(fmt.Sprintf("Authentication successful. Session saved to '%s'.", b.sessions.Path()))
	return nil
}

func (b *BootstrapService) verify2FA(ctx context.Context) error {
	b.say("Two-factor authentication required.")
	code, err := b.prompt("Enter the 6-digit code sent to a trusted device: ")
	if err != nil {
		return err
	}

	valid, err := b.client.Validate2FACode(ctx, code)
	if err != nil {
		return &UpstreamError{Op: "validate 2FA code", Err: err}
	}
	if !valid {
		return fmt.Errorf("%w: failed to verify 2FA code", ErrVerificationFailed)
	}

	// Trust is judged on the session state after validation, not the login that raised the challenge.
	refreshed, err := b.client.Login(ctx)
	if err != nil {
		b.logger.Warn().Err(err).Msg("Failed to refresh session state after 2FA validation")
	}
	if err != nil || !refreshed.TrustedSession {
		b.say("Marking session as trusted…")
		trusted, err := b.client.TrustSession(ctx)
		if err != nil || !trusted {
			// Only later logins are affected, this run still succeeds.
			b.logger.Warn().Err(err).Msg("Session trust request failed")
			b.say("Failed to trust this session. You may be prompted again soon.")
		}
	}
	return nil
}

func (b *BootstrapService) verify2SA(ctx context.Context) error {
	b.say("Two-step authentication required.")
	devices, err := b.client.TrustedDevices(ctx)
	if err != nil {
		return &UpstreamError{Op: "list trusted devices", Err: err}
	}
	if len(devices) == 0 {
		return fmt.Errorf("%w: account has no trusted devices", ErrVerificationFailed)
	}

	for i, device := range devices {
		b.say(fmt.Sprintf("  [%d] %s", i, device.DisplayName()))
	}

	choice, err := b.prompt(fmt.Sprintf("Select a device (0–%d): ", len(devices)-1))
	if err != nil {
		return err
	}
	idx, err := strconv.Atoi(choice)
	if err != nil || idx < 0 || idx >= len(devices) {
		return fmt.Errorf("%w: %q", ErrInvalidSelection, choice)
	}
	selected := devices[idx]

	if err := b.client.SendVerificationCode(ctx, selected); err != nil {
		return fmt.Errorf("%w: failed to send verification code to the selected device: %v", ErrVerificationFailed, err)
	}

	code, err := b.prompt("Enter the verification code you received: ")
	if err != nil {
		return err
	}
	valid, err := b.client.ValidateVerificationCode(ctx, selected, code)
	if err != nil {
		return &UpstreamError{Op: "validate 2SA code", Err: err}
	}
	if !valid {
		return fmt.Errorf("%w: failed to verify the 2SA code", ErrVerificationFailed)
	}

	b.say("Two-step authentication complete.")
	return nil
}

func (b *BootstrapService) prompt(label string) (string, error) {
	fmt.Fprint(b.out, label)
	line, err := b.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read operator input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (b *BootstrapService) say(msg string) {
	fmt.Fprintln(b.out, msg)
}

package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caquick/caquick-api/internal/bootstrap"
	"github.com/caquick/caquick-api/internal/data"
	domainauth "github.com/caquick/caquick-api/internal/domain/auth"
	"github.com/caquick/caquick-api/internal/ports"
	"github.com/caquick/caquick-api/internal/service"
)

type sellerCreateOptions struct {
	Username      string
	Email         string
	Name          string
	Status        domainauth.AccountStatus
	PasswordStdin bool
}

func parseSellerCreateFlags(args []string) (sellerCreateOptions, error) {
	fs := flag.NewFlagSet("seller-create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts sellerCreateOptions
	var status string
	fs.StringVar(&opts.Username, "username", "", "Seller login name (required)")
	fs.StringVar(&opts.Email, "email", "", "Contact email")
	fs.StringVar(&opts.Name, "name", "", "Display name")
	fs.StringVar(&status, "status", string(domainauth.AccountStatusPending), "Initial account status: PENDING or ACTIVE")
	fs.BoolVar(&opts.PasswordStdin, "password-stdin", false, "Read the password from the first line of stdin")

	if err := fs.Parse(args); err != nil {
		return sellerCreateOptions{}, err
	}

	opts.Username = strings.TrimSpace(opts.Username)
	if opts.Username == "" {
		return sellerCreateOptions{}, errors.New("--username is required")
	}
	switch s := domainauth.AccountStatus(strings.ToUpper(strings.TrimSpace(status))); s {
	case domainauth.AccountStatusPending, domainauth.AccountStatusActive:
		opts.Status = s
	default:
		return sellerCreateOptions{}, fmt.Errorf("--status must be PENDING or ACTIVE, got %q", status)
	}
	return opts, nil
}

type sellerCreator interface {
	CreateSeller(ctx context.Context, in data.CreateSellerInput) (*domainauth.SellerCredential, error)
}

type createSellerRequest struct {
	Store    sellerCreator
	Hasher   ports.PasswordHasher
	Options  sellerCreateOptions
	Password string
	Out      io.Writer
}

func createSeller(ctx context.Context, req createSellerRequest) error {
	if len(req.Password) < service.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", service.MinPasswordLength)
	}
	hash, err := req.Hasher.Hash(req.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	cred, err := req.Store.CreateSeller(ctx, data.CreateSellerInput{
		Username:     req.Options.Username,
		PasswordHash: hash,
		Email:        req.Options.Email,
		Name:         req.Options.Name,
		Status:       req.Options.Status,
	})
	if err != nil {
		return err
	}
	return writef(req.Out, "Created seller %q (account %d, status %s)\n",
		cred.Username, cred.SellerAccountID, cred.Account.Status)
}

func readPassword(in io.Reader, w io.Writer, fromStdin bool) (string, error) {
	if !fromStdin {
		if err := writef(w, "Password: "); err != nil {
			return "", err
		}
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runSellerCreate(cmdCtx *commandContext, args []string) error {
	opts, err := parseSellerCreateFlags(args)
	if err != nil {
		return err
	}
	password, err := readPassword(cmdCtx.Stdin, cmdCtx.Stdout, opts.PasswordStdin)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		return createSeller(ctx, createSellerRequest{
			Store:    data.NewAuthRepo(db),
			Hasher:   bootstrap.NewPasswordHasher(cmdCtx.Config.Auth.PasswordHash),
			Options:  opts,
			Password: password,
			Out:      cmdCtx.Stdout,
		})
	})
}

type revokeOptions struct {
	AccountID int64
	Yes       bool
}

func parseRevokeFlags(args []string) (revokeOptions, error) {
	fs := flag.NewFlagSet("revoke-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts revokeOptions
	fs.Int64Var(&opts.AccountID, "account", 0, "Account id whose sessions are revoked (required)")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return revokeOptions{}, err
	}
	if opts.AccountID <= 0 {
		return revokeOptions{}, errors.New("--account must be a positive account id")
	}
	return opts, nil
}

type sessionRevoker interface {
	RevokeAllRefreshSessions(ctx context.Context, accountID int64, at time.Time) (int64, error)
}

func revokeSessions(ctx context.Context, store sessionRevoker, accountID int64, now time.Time, w io.Writer) error {
	n, err := store.RevokeAllRefreshSessions(ctx, accountID, now)
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return writef(w, "Revoked %d active session(s) for account %d\n", n, accountID)
}

func confirm(in io.Reader, w io.Writer, prompt string) error {
	if err := writef(w, "%s Continue? [y/N]: ", prompt); err != nil {
		return fmt.Errorf("print confirmation prompt: %w", err)
	}
	resp, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return errors.New("aborted by user")
	}
	resp = strings.ToLower(strings.TrimSpace(resp))
	if resp == "y" || resp == "yes" {
		return nil
	}
	return errors.New("aborted by user")
}

func runRevokeSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseRevokeFlags(args)
	if err != nil {
		return err
	}
	if !opts.Yes {
		prompt := fmt.Sprintf("About to revoke every refresh session of account %d.", opts.AccountID)
		if confirmErr := confirm(cmdCtx.Stdin, cmdCtx.Stdout, prompt); confirmErr != nil {
			return confirmErr
		}
	}

	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		return revokeSessions(ctx, data.NewAuthRepo(db), opts.AccountID, time.Now(), cmdCtx.Stdout)
	})
}

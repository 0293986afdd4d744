package onepassword

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os/exec"
	"strings"

	"pykit/internal/logging"
)

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()-_=+[]{}|;:,.<>?"

// LoginItem describes the credential to store.
type LoginItem struct {
	Title    string
	Vault    string
	Username string
	// Password is stored verbatim when set; when empty the CLI generates
	// one instead.
	Password string
	URL      string
	Notes    string
	Tags     []string
}

// Item is the CLI's view of a created item.
type Item struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Vault struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"vault"`
	Category string `json:"category"`
}

// Client shells out to the op CLI.
type Client struct {
	binary string
	dryRun bool
	logger *slog.Logger
}

// NewClient builds a client around the op binary. binary may be empty to use
// "op" from PATH.
func NewClient(binary string, dryRun bool, logger *slog.Logger) *Client {
	if strings.TrimSpace(binary) == "" {
		binary = "op"
	}
	return &Client{
		binary: binary,
		dryRun: dryRun,
		logger: logging.NewComponentLogger(logger, "onepassword"),
	}
}

// CheckInstalled verifies the op binary is present and runnable.
func (c *Client) CheckInstalled(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, c.binary, "--version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("1Password CLI (op) not available: %w", err)
	}
	return nil
}

// IsSignedIn reports whether an op session exists.
func (c *Client) IsSignedIn(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, c.binary, "account", "list")
	return cmd.Run() == nil
}

// CreateLoginItem stores a login item and returns the CLI's JSON description
// of it.
func (c *Client) CreateLoginItem(ctx context.Context, item LoginItem) (*Item, error) {
	if strings.TrimSpace(item.Title) == "" {
		return nil, fmt.Errorf("item title is required")
	}
	if strings.TrimSpace(item.Vault) == "" {
		return nil, fmt.Errorf("vault is required")
	}

	args := []string{"item", "create", "--category", "login", "--title", item.Title, "--vault", item.Vault, "--format", "json"}
	if item.URL != "" {
		args = append(args, "--url", item.URL)
	}
	if len(item.Tags) > 0 {
		args = append(args, "--tags", strings.Join(item.Tags, ","))
	}
	if item.Username != "" {
		args = append(args, "username="+item.Username)
	}
	if item.Password != "" {
		args = append(args, "password="+item.Password)
	} else {
		args = append(args, "--generate-password")
	}
	if item.Notes != "" {
		args = append(args, "notesPlain="+item.Notes)
	}

	if c.dryRun {
		c.logger.Info("dry run", logging.String("command", c.binary+" "+strings.Join(maskPassword(args), " ")))
		mock := &Item{ID: "dry-run-item-id", Title: item.Title, Category: "LOGIN"}
		mock.Vault.ID = "dry-run-vault-id"
		mock.Vault.Name = item.Vault
		return mock, nil
	}

	cmd := exec.CommandContext(ctx, c.binary, args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("op item create failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("op item create failed: %w", err)
	}

	var created Item
	if err := json.Unmarshal(output, &created); err != nil {
		return nil, fmt.Errorf("decode op output: %w", err)
	}
	return &created, nil
}

// maskPassword replaces the password assignment value in a printable copy of
// the argument list.
func maskPassword(args []string) []string {
	safe := make([]string, len(args))
	for i, arg := range args {
		if strings.HasPrefix(arg, "password=") {
			safe[i] = "password=********"
			continue
		}
		safe[i] = arg
	}
	return safe
}

// GeneratePassword returns a random password drawn from a mixed alphabet.
func GeneratePassword(length int) (string, error) {
	if length <= 0 {
		length = 24
	}
	out := make([]byte, length)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		out[i] = passwordAlphabet[n.Int64()]
	}
	return string(out), nil
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pykit/internal/fastmail"
	"pykit/internal/history"
	"pykit/internal/onepassword"
)

func newAliasCommand(ctx *commandContext) *cobra.Command {
	var title string
	var vault string
	var description string
	var prefix string
	var itemURL string
	var notes string
	var tags []string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "alias <domain>",
		Short: "Mint a Fastmail masked email and store it in 1Password",
		Long: `Create a Fastmail masked email address scoped to a domain and store it as a
1Password login item with a generated password.

Requires a Fastmail API token (config fastmail.api_token or the
PYKIT_FASTMAIL_TOKEN environment variable) and a signed-in op CLI session.
With --dry-run both steps are simulated and nothing is created.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			domain := strings.TrimSpace(args[0])
			out := cmd.OutOrStdout()

			itemTitle := strings.TrimSpace(title)
			if itemTitle == "" {
				itemTitle = domain
			}
			itemVault := strings.TrimSpace(vault)
			if itemVault == "" {
				itemVault = cfg.OnePassword.Vault
			}
			if itemVault == "" && !dryRun {
				return fmt.Errorf("1Password vault not configured; use --vault or set onepassword.vault")
			}
			allTags := mergeTags(cfg.OnePassword.Tags, tags)

			opClient := onepassword.NewClient("", dryRun, ctx.log())
			if !dryRun {
				if err := opClient.CheckInstalled(cmd.Context()); err != nil {
					return err
				}
				if !opClient.IsSignedIn(cmd.Context()) {
					return fmt.Errorf("not signed in to 1Password; run `op signin` first")
				}
			}

			fmClient, err := fastmail.NewClient(cfg.Fastmail.APIToken, cfg.Fastmail.AccountID,
				fastmail.WithDryRun(dryRun))
			if err != nil {
				return err
			}

			if dryRun {
				fmt.Fprintln(out, "Dry run: nothing will be created")
			}

			masked, err := fmClient.CreateMaskedEmail(cmd.Context(), fastmail.CreateRequest{
				ForDomain:   domain,
				Description: description,
				EmailPrefix: prefix,
			})
			if err != nil {
				ctx.recordRun(cmd.Context(), "alias", domain, "", history.StatusFailed, err.Error())
				return err
			}
			fmt.Fprintf(out, "Masked email: %s\n", masked.Email)

			password, err := onepassword.GeneratePassword(24)
			if err != nil {
				return err
			}

			itemNotes := buildAliasNotes(notes, masked)
			item, err := opClient.CreateLoginItem(cmd.Context(), onepassword.LoginItem{
				Title:    itemTitle,
				Vault:    itemVault,
				Username: masked.Email,
				Password: password,
				URL:      itemURL,
				Notes:    itemNotes,
				Tags:     allTags,
			})
			if err != nil {
				ctx.recordRun(cmd.Context(), "alias", domain, "", history.StatusFailed, err.Error())
				return err
			}

			if !dryRun {
				ctx.recordRun(cmd.Context(), "alias", domain, "", history.StatusOK, masked.Email)
			}
			fmt.Fprintf(out, "Stored 1Password item %q (id %s) in vault %s\n", item.Title, item.ID, itemVault)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Title for the 1Password item (default: the domain)")
	cmd.Flags().StringVar(&vault, "vault", "", "1Password vault (default: from config)")
	cmd.Flags().StringVar(&description, "description", "", "Description for the masked email")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Prefix for the masked email address")
	cmd.Flags().StringVar(&itemURL, "url", "", "URL stored on the 1Password item")
	cmd.Flags().StringVar(&notes, "notes", "", "Extra notes stored on the 1Password item")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Tags for the 1Password item (merged with config defaults)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Simulate without creating anything")
	return cmd
}

func buildAliasNotes(extra string, masked *fastmail.MaskedEmail) string {
	var b strings.Builder
	if extra != "" {
		b.WriteString(extra)
		b.WriteString("\n")
	}
	b.WriteString("Masked Email Details:\n")
	b.WriteString("Email: " + masked.Email + "\n")
	forDomain := masked.ForDomain
	if forDomain == "" {
		forDomain = "Any"
	}
	b.WriteString("For domain: " + forDomain + "\n")
	if masked.Description != "" {
		b.WriteString("Description: " + masked.Description + "\n")
	}
	if masked.CreatedAt != "" {
		b.WriteString("Created: " + masked.CreatedAt + "\n")
	}
	return b.String()
}

func mergeTags(defaults, extra []string) []string {
	seen := make(map[string]struct{}, len(defaults)+len(extra))
	var merged []string
	for _, tag := range append(append([]string{}, defaults...), extra...) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		merged = append(merged, tag)
	}
	return merged
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"recipefinder/internal/credentials"
	"recipefinder/internal/storage"
	"recipefinder/internal/utils"
	"recipefinder/internal/views"
)

type favoritesResponse struct {
	Favorites []views.Card `json:"favorites"`
	Count     int          `json:"count"`
	Result    string       `json:"result"`
}

type favoriteActionResponse struct {
	Action   string `json:"action"`
	ID       string `json:"id"`
	Favorite bool   `json:"favorite"`
	Result   string `json:"result"`
}

type themeResponse struct {
	Theme  string `json:"theme"`
	Result string `json:"result"`
}

// newFavCmd creates the 'fav' subcommand for favorites management
func newFavCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	favCmd := &cobra.Command{
		Use:     "fav",
		Aliases: []string{"favorites"},
		Short:   "Manage favorite recipes",
		Long:    "List favorites, or toggle, remove and clear them with subcommands.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFavList(cmd, stdout, stderr, cfg)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	favCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List favorite recipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFavList(cmd, stdout, stderr, cfg)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})
	favCmd.AddCommand(newFavToggleCmd(stdout, cfg))
	favCmd.AddCommand(newFavRemoveCmd(stdout, cfg))
	favCmd.AddCommand(newFavClearCmd(stdout, cfg))

	return favCmd
}

// runFavList looks favorites up in insertion order. Ids that no longer
// resolve are skipped with a warning; only a failure that is not a missing
// recipe aborts when nothing could be loaded.
func runFavList(cmd *cobra.Command, stdout, stderr io.Writer, cfg *Config) error {
	return withApp(cfg, func(ctx context.Context, a *app) error {
		ids := a.favs.IDs()
		cards := []views.Card{}
		if len(ids) > 0 {
			recipes, err := a.client.LookupAll(ctx, ids)
			if err != nil {
				if len(recipes) == 0 && !allNotFound(err) {
					return upstreamError(err)
				}
				_, _ = fmt.Fprintf(stderr, "Warning: %d of %d favorites could not be loaded\n", len(multierr.Errors(err)), len(ids))
			}
			cards = views.BuildCards(recipes, a.favs.Contains)
		}

		if a.wantJSON(cmd) {
			return views.WriteJSON(stdout, favoritesResponse{Favorites: cards, Count: len(cards), Result: ResultInfoOnly})
		}
		a.renderer(ctx, stdout).Favorites(cards)
		infoOnly(cfg, stdout)
		return nil
	})
}

// allNotFound reports whether every error aggregated in err is a missing recipe.
func allNotFound(err error) bool {
	for _, e := range multierr.Errors(err) {
		if !utils.IsNotFound(e) {
			return false
		}
	}
	return true
}

// newFavToggleCmd creates the 'fav toggle' subcommand
func newFavToggleCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle [id]",
		Short: "Save a recipe to favorites, or remove it if already saved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(ctx context.Context, a *app) error {
				id := strings.TrimSpace(args[0])
				name := id
				if !a.favs.Contains(id) {
					// Only known recipes can be saved.
					r, err := a.client.Lookup(ctx, id)
					if err != nil {
						return upstreamError(err)
					}
					name = r.Name
				}

				now, err := a.favs.Toggle(ctx, id)
				if err != nil {
					return fmt.Errorf("could not save favorites: %w", err)
				}

				action, msg := "removed", "Removed from favorites"
				if now {
					action, msg = "saved", "Saved to favorites"
				}
				if a.wantJSON(cmd) {
					return views.WriteJSON(stdout, favoriteActionResponse{Action: action, ID: id, Favorite: now, Result: ResultActionCompleted})
				}
				_, _ = fmt.Fprintf(stdout, "%s: %s\n", msg, name)
				actionCompleted(cfg, stdout)
				return nil
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newFavRemoveCmd creates the 'fav remove' subcommand
func newFavRemoveCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:     "remove [id]",
		Aliases: []string{"rm"},
		Short:   "Remove a recipe from favorites",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(ctx context.Context, a *app) error {
				id := strings.TrimSpace(args[0])
				if !a.favs.Contains(id) {
					return utils.WrapWithSuggestion(
						fmt.Errorf("recipe %s is not a favorite", id),
						"Run 'recipefinder fav list' to see saved recipes")
				}
				if err := a.favs.Remove(ctx, id); err != nil {
					return fmt.Errorf("could not save favorites: %w", err)
				}

				if a.wantJSON(cmd) {
					return views.WriteJSON(stdout, favoriteActionResponse{Action: "removed", ID: id, Result: ResultActionCompleted})
				}
				_, _ = fmt.Fprintf(stdout, "Removed from favorites: %s\n", id)
				actionCompleted(cfg, stdout)
				return nil
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newFavClearCmd creates the 'fav clear' subcommand
func newFavClearCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all favorites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(ctx context.Context, a *app) error {
				jsonOutput := a.wantJSON(cmd)
				if a.favs.Len() == 0 {
					if jsonOutput {
						return views.WriteJSON(stdout, favoriteActionResponse{Action: "none", Result: ResultInfoOnly})
					}
					_, _ = fmt.Fprintln(stdout, "No favorites to clear")
					infoOnly(cfg, stdout)
					return nil
				}

				if !cfg.NoPrompt && !utils.Confirm(fmt.Sprintf("Clear all %d favorites?", a.favs.Len()), stdinOf(cfg), stdout) {
					_, _ = fmt.Fprintln(stdout, "Cancelled")
					return nil
				}

				if _, err := a.favs.Clear(ctx); err != nil {
					return fmt.Errorf("could not save favorites: %w", err)
				}
				if jsonOutput {
					return views.WriteJSON(stdout, favoriteActionResponse{Action: "cleared", Result: ResultActionCompleted})
				}
				_, _ = fmt.Fprintln(stdout, "Favorites cleared")
				actionCompleted(cfg, stdout)
				return nil
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newThemeCmd creates the 'theme' subcommand
func newThemeCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark]",
		Short:     "Show or set the color theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{storage.ThemeLight, storage.ThemeDark},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(ctx context.Context, a *app) error {
				jsonOutput := a.wantJSON(cmd)

				if len(args) == 0 {
					theme, err := a.store.Theme(ctx)
					if err != nil {
						return err
					}
					if jsonOutput {
						return views.WriteJSON(stdout, themeResponse{Theme: theme, Result: ResultInfoOnly})
					}
					_, _ = fmt.Fprintf(stdout, "Theme: %s\n", theme)
					infoOnly(cfg, stdout)
					return nil
				}

				theme := strings.ToLower(strings.TrimSpace(args[0]))
				if theme != storage.ThemeLight && theme != storage.ThemeDark {
					return utils.ErrInvalidTheme(args[0])
				}
				if err := a.store.SetTheme(ctx, theme); err != nil {
					return fmt.Errorf("could not save theme: %w", err)
				}
				if jsonOutput {
					return views.WriteJSON(stdout, themeResponse{Theme: theme, Result: ResultActionCompleted})
				}
				_, _ = fmt.Fprintf(stdout, "Theme set to %s\n", theme)
				actionCompleted(cfg, stdout)
				return nil
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newAPIKeyCmd creates the 'apikey' subcommand for API key management
func newAPIKeyCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	apikeyCmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage the TheMealDB API key",
		Long:  "Store the API key in the system keyring (macOS Keychain, Windows Credential Manager, or Linux Secret Service), or fall back to $" + credentials.EnvAPIKey + ".",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	apikeyCmd.AddCommand(&cobra.Command{
		Use:   "set [key]",
		Short: "Store the API key in the system keyring",
		Long:  "Store the API key in the system keyring. Without an argument the key is read from the terminal without echo.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = strings.TrimSpace(args[0])
			}
			handler := credentials.NewCLIHandler(newCredentialManager(cfg), stdinOf(cfg), stdout, stderr)
			if err := handler.Set(key); err != nil {
				return err
			}
			actionCompleted(cfg, stdout)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	apikeyCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show which API key is in use and where it comes from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOutput, _ := cmd.Flags().GetBool("json")
			handler := credentials.NewCLIHandler(newCredentialManager(cfg), nil, stdout, stderr)
			if err := handler.Status(jsonOutput); err != nil {
				return err
			}
			if !jsonOutput {
				infoOnly(cfg, stdout)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	apikeyCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the API key from the system keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			handler := credentials.NewCLIHandler(newCredentialManager(cfg), nil, stdout, stderr)
			if err := handler.Clear(); err != nil {
				return err
			}
			actionCompleted(cfg, stdout)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	return apikeyCmd
}

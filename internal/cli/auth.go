package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/tessro/artwall/internal/spotify/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Spotify authentication",
	Long:  `Commands for managing Spotify OAuth authentication.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with Spotify",
	Long: `Opens a browser to authorize artwall with Spotify and stores the token.

'artwall run' also starts this flow when no token is stored.`,
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:         "logout",
	Short:       "Remove stored Spotify credentials",
	Long:        `Removes the stored Spotify OAuth token from the local machine.`,
	Annotations: map[string]string{annotationConfig: configOptional},
	RunE:        runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:         "status",
	Short:       "Show authentication status",
	Long:        `Shows the current Spotify authentication status.`,
	Annotations: map[string]string{annotationConfig: configOptional},
	RunE:        runAuthStatus,
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	storage, err := tokenStorage()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	authenticator := auth.NewAuthenticator(authConfig(), os.Stdout)
	token, err := authenticator.Login(ctx)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	if err := storage.Save(token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	user, err := authenticator.Client(ctx, token).CurrentUser(ctx)
	if err != nil {
		fmt.Println("Authentication successful! Token stored.")
		return nil
	}

	if JSONOutput() {
		return printJSON(map[string]interface{}{
			"status":       "authenticated",
			"user_id":      user.ID,
			"display_name": user.DisplayName,
			"product":      user.Product,
		})
	}
	fmt.Printf("Successfully authenticated as %s\n", user.DisplayName)
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	storage, err := tokenStorage()
	if err != nil {
		return err
	}

	if !storage.Exists() {
		if JSONOutput() {
			return printJSON(map[string]string{"status": "not_authenticated"})
		}
		fmt.Println("Not authenticated with Spotify.")
		return nil
	}

	if err := storage.Delete(); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	if JSONOutput() {
		return printJSON(map[string]string{"status": "logged_out"})
	}
	fmt.Println("Logged out of Spotify.")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	storage, err := tokenStorage()
	if err != nil {
		return err
	}

	token, err := storage.Load()
	if err != nil {
		return fmt.Errorf("failed to load token: %w", err)
	}

	if token == nil {
		if JSONOutput() {
			return printJSON(map[string]interface{}{"authenticated": false})
		}
		fmt.Println("Not authenticated with Spotify.")
		fmt.Println("Run 'artwall auth login' to authenticate.")
		return nil
	}

	status := map[string]interface{}{
		"authenticated": true,
		"expired":       !token.Valid(),
		"expires_at":    token.Expiry,
		"token_file":    storage.Path(),
	}

	// Without credentials the token cannot be refreshed or checked.
	if cfg.Spotify.ClientID == "" || cfg.Spotify.ClientSecret == "" {
		return printStatus(status, storage, token)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	authenticator := auth.NewAuthenticator(authConfig(), os.Stdout)
	client := authenticator.Client(ctx, token)
	user, err := client.CurrentUser(ctx)
	if err != nil {
		status["error"] = err.Error()
		if JSONOutput() {
			return printJSON(status)
		}
		fmt.Printf("Token may be expired or invalid: %v\n", err)
		fmt.Println("Run 'artwall auth login' to re-authenticate.")
		return nil
	}

	// The transport may have refreshed the token while checking.
	if latest, err := client.Token(); err == nil && latest.AccessToken != token.AccessToken {
		if err := storage.Save(latest); err == nil {
			token = latest
			status["expired"] = false
			status["expires_at"] = latest.Expiry
		}
	}

	status["user_id"] = user.ID
	status["display_name"] = user.DisplayName
	status["product"] = user.Product
	if JSONOutput() {
		return printJSON(status)
	}
	fmt.Printf("Authenticated as: %s\n", user.DisplayName)
	fmt.Printf("Account type: %s\n", user.Product)
	return printStatus(nil, storage, token)
}

// printStatus prints the token details, or status as JSON when requested.
func printStatus(status map[string]interface{}, storage *auth.TokenStorage, token *oauth2.Token) error {
	if status != nil && JSONOutput() {
		return printJSON(status)
	}
	if status != nil {
		fmt.Println("Authenticated with Spotify.")
	}

	expires := "expired, refreshed on the next request"
	if token.Valid() {
		expires = fmt.Sprintf("%s (%s)", token.Expiry.Format(time.RFC3339), humanize.Time(token.Expiry))
	}

	t := NewTableWriter(os.Stdout)
	t.Row(StatusIcon(token.Valid()), "Token expires:", expires)
	t.Row(StatusIcon(token.RefreshToken != ""), "Refresh token:", strconv.FormatBool(token.RefreshToken != ""))
	t.Row(" ", "Token file:", storage.Path())
	t.Flush()
	return nil
}

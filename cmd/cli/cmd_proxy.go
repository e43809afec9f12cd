package main

import (
	"fmt"
	"os"

	"github.com/sguter90/soilmaestro/pkg/proxy"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var proxyClient string

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Narrative proxy access commands",
	Long: `Commands for managing access to the narrative proxy. The proxy keeps the
provider API key on the server; clients exchange a passphrase or use a
token issued here.`,
}

var hashPassphraseCmd = &cobra.Command{
	Use:   "hash-passphrase",
	Short: "Hash a passphrase for proxy.passphrase_hash",
	RunE:  runHashPassphrase,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a proxy token signed with proxy.jwt_secret",
	RunE:  runToken,
}

func init() {
	rootCmd.AddCommand(proxyCmd)
	proxyCmd.AddCommand(hashPassphraseCmd)
	proxyCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().StringVar(&proxyClient, "client", "cli", "client name recorded in the token")
}

func runHashPassphrase(cmd *cobra.Command, args []string) error {
	fd := int(os.Stdin.Fd())

	// Get passphrase
	fmt.Fprint(os.Stderr, "Enter passphrase: ")
	passphraseBytes, err := term.ReadPassword(fd)
	if err != nil {
		return fmt.Errorf("failed to read passphrase: %w", err)
	}
	fmt.Fprintln(os.Stderr)

	passphrase := string(passphraseBytes)
	if passphrase == "" {
		return fmt.Errorf("passphrase cannot be empty")
	}

	// Confirm passphrase
	fmt.Fprint(os.Stderr, "Confirm passphrase: ")
	confirmBytes, err := term.ReadPassword(fd)
	if err != nil {
		return fmt.Errorf("failed to read passphrase confirmation: %w", err)
	}
	fmt.Fprintln(os.Stderr)

	if passphrase != string(confirmBytes) {
		return fmt.Errorf("passphrases do not match")
	}

	hash, err := proxy.HashPassphrase(passphrase)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

func runToken(cmd *cobra.Command, args []string) error {
	issuer, err := proxy.NewIssuer(appConfig.Proxy.JWTSecret, appConfig.Proxy.TokenTTL)
	if err != nil {
		return fmt.Errorf("proxy.jwt_secret must be configured: %w", err)
	}

	token, expiresAt, err := issuer.GenerateToken(proxyClient)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	fmt.Fprintf(os.Stderr, "Expires: %s\n", expiresAt.Format("2006-01-02 15:04:05"))
	return nil
}

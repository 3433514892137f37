package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"filippo.io/age"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sekia-ai/actionkit/internal/secrets"
)

func newSecretsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage age-encrypted values",
	}

	cmd.AddCommand(newSecretsKeygenCmd())
	cmd.AddCommand(newSecretsEncryptCmd())
	cmd.AddCommand(newSecretsMaskCmd())

	return cmd
}

// resolveIdentity finds the identity via env vars, the secrets.identity
// config key and the default key file.
func resolveIdentity() ([]age.Identity, error) {
	v := viper.New()
	v.Set("secrets.identity", cfg.Secrets.Identity)
	ids, err := secrets.ResolveIdentity(v)
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	return ids, nil
}

func newSecretsKeygenCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new age keypair",
		Long: `Generates a new X25519 age keypair and writes the identity (private key) to a
file. The public key (recipient) is printed to stdout for use with
'actionkit secrets encrypt --recipient'. Store the identity in a repository
secret and expose it to steps as ACTIONKIT_AGE_KEY.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := secrets.GenerateKeyPair()
			if err != nil {
				return fmt.Errorf("generate keypair: %w", err)
			}

			if output == "" {
				homeDir, _ := os.UserHomeDir()
				output = filepath.Join(homeDir, ".config", "actionkit", secrets.DefaultKeyFilename)
			}

			if err := os.MkdirAll(filepath.Dir(output), 0700); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}

			if _, err := os.Stat(output); err == nil {
				return fmt.Errorf("key file already exists: %s (remove it first to regenerate)", output)
			}

			content := fmt.Sprintf("# created: %s\n# public key: %s\n%s\n",
				time.Now().Format(time.RFC3339),
				identity.Recipient().String(),
				identity.String(),
			)
			if err := os.WriteFile(output, []byte(content), 0600); err != nil {
				return fmt.Errorf("write key file: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Key file written to: %s\n", output)
			fmt.Fprintf(out, "Public key: %s\n", identity.Recipient().String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: ~/.config/actionkit/age.key)")
	return cmd
}

func newSecretsEncryptCmd() *cobra.Command {
	var recipientKey string

	cmd := &cobra.Command{
		Use:   "encrypt <value>",
		Short: "Encrypt a value for use in config files or workflow inputs",
		Long: `Encrypts a plaintext value and outputs the ENC[...] string. If --recipient
is not provided, the public key is derived from the configured identity.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var recipient age.Recipient

			if recipientKey != "" {
				r, err := age.ParseX25519Recipient(recipientKey)
				if err != nil {
					return fmt.Errorf("parse recipient: %w", err)
				}
				recipient = r
			} else {
				ids, err := resolveIdentity()
				if err != nil {
					return err
				}
				if ids == nil {
					return fmt.Errorf("no age key found; run 'actionkit secrets keygen' first or use --recipient")
				}
				x25519, ok := ids[0].(*age.X25519Identity)
				if !ok {
					return fmt.Errorf("configured key is not an X25519 identity; use --recipient to specify a public key")
				}
				recipient = x25519.Recipient()
			}

			encrypted, err := secrets.Encrypt(args[0], recipient)
			if err != nil {
				return fmt.Errorf("encrypt: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), encrypted)
			return err
		},
	}

	cmd.Flags().StringVar(&recipientKey, "recipient", "", "age public key (default: derived from the configured identity)")
	return cmd
}

func newSecretsMaskCmd() *cobra.Command {
	var (
		exportName string
		outputName string
	)

	cmd := &cobra.Command{
		Use:   "mask <ENC[...]>",
		Short: "Decrypt a value and register it as a mask",
		Long: `Decrypts an ENC[...] value and registers the plaintext with the runner so
it is masked in the job log. With --export the plaintext is exported as an
environment variable for later steps, with --output it becomes a step
output. Without either it is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := resolveIdentity()
			if err != nil {
				return err
			}
			a := actionFor(cmd)

			if exportName != "" {
				return secrets.Export(a, exportName, args[0], ids...)
			}

			plaintext, err := secrets.Unseal(a, args[0], ids...)
			if err != nil {
				return err
			}
			if outputName != "" {
				return a.SetOutput(outputName, plaintext)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), plaintext)
			return err
		},
	}

	cmd.Flags().StringVar(&exportName, "export", "", "export the plaintext as this environment variable")
	cmd.Flags().StringVar(&outputName, "output", "", "store the plaintext in this step output")
	cmd.MarkFlagsMutuallyExclusive("export", "output")
	return cmd
}

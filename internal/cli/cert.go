package cli

import (
	"fmt"
	"os"

	"github.com/howeyc/gopass"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/reisxd/tizensign/internal/certs"
	"github.com/reisxd/tizensign/internal/models"
	"github.com/reisxd/tizensign/internal/utils"
)

// NewCertCmd creates the cert command
func NewCertCmd() *cobra.Command {
	var config models.CertConfig

	cmd := &cobra.Command{
		Use:   "cert",
		Short: "Generate an author certificate bundle",
		Long: `Generates a self-signed RSA author certificate and stores it as a
password-protected PKCS#12 bundle usable with the sign and pack commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.CommonName == "" {
				return &models.SignError{
					Type: models.ErrInvalidConfig,
					Err:  fmt.Errorf("name is required"),
				}
			}
			return runCert(&config)
		},
	}

	cmd.Flags().StringVarP(&config.CommonName, "name", "n", "", "Author name (certificate common name)")
	cmd.Flags().StringVar(&config.Organization, "org", "", "Organization")
	cmd.Flags().StringVar(&config.Country, "country", "", "Two-letter country code")
	cmd.Flags().StringVar(&config.Email, "email", "", "Contact email")
	cmd.Flags().StringVarP(&config.Output, "out", "o", "author.p12", "Output bundle path")
	cmd.Flags().StringVarP(&config.Password, "password", "p", "", "Bundle password (prompted when omitted)")
	cmd.Flags().IntVar(&config.ValidYears, "years", 10, "Certificate validity in years")

	return cmd
}

func runCert(config *models.CertConfig) error {
	if config.Password == "" {
		pw, err := gopass.GetPasswdPrompt("Password for new bundle: ", true, os.Stdin, os.Stdout)
		if err != nil {
			return &models.SignError{Type: models.ErrInvalidConfig, Err: err}
		}
		config.Password = string(pw)
	}

	logrus.Infof("Generating author certificate for %q", config.CommonName)
	cert, err := certs.GenerateAuthorCertificate(certs.Request{
		CommonName:   config.CommonName,
		Organization: config.Organization,
		Country:      config.Country,
		Email:        config.Email,
		ValidYears:   config.ValidYears,
	})
	if err != nil {
		return err
	}

	blob, err := cert.EncodePKCS12(config.Password)
	if err != nil {
		return err
	}

	if err := utils.WriteFile(config.Output, blob, 0600); err != nil {
		return &models.SignError{Type: models.ErrFileOp, Package: config.Output, Err: err}
	}

	logrus.Info("Author certificate created successfully!")
	logrus.Infof("Output: %s", config.Output)
	return nil
}

package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/reisxd/tizensign/internal/archive"
	"github.com/reisxd/tizensign/internal/certs"
	"github.com/reisxd/tizensign/internal/models"
	"github.com/reisxd/tizensign/internal/packager"
	"github.com/reisxd/tizensign/internal/packager/tpk"
	"github.com/reisxd/tizensign/internal/packager/wgt"
	"github.com/reisxd/tizensign/internal/scanner"
	"github.com/reisxd/tizensign/internal/signature"
)

// NewSignCmd creates the sign command
func NewSignCmd() *cobra.Command {
	var config models.SignConfig

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Re-sign an existing package",
		Long: `Unpacks a .wgt or .tpk package, replaces its signatures with a
fresh author signature (and distributor signature when a distributor key is
given), and repacks it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateSignConfig(&config); err != nil {
				return err
			}

			logrus.Infof("Signing package: %s", config.Input)
			return runSign(&config)
		},
	}

	cmd.Flags().StringVarP(&config.Input, "input", "i", "", "Package file to sign")
	cmd.Flags().StringVarP(&config.Output, "output", "o", "", "Output package file (default: <input>-signed.<ext>)")

	addKeyFlags(cmd, &config.AuthorKeyPath, &config.AuthorPassword, &config.DistKeyPath,
		&config.DistPassword, &config.ProfilesPath, &config.ProfileName)

	return cmd
}

func addKeyFlags(cmd *cobra.Command, authorKey, authorPass, distKey, distPass, profiles, profileName *string) {
	cmd.Flags().StringVar(authorKey, "author-key", "", "Path to author PKCS#12 bundle")
	cmd.Flags().StringVar(authorPass, "author-password", "", "Author bundle password")
	cmd.Flags().StringVar(distKey, "dist-key", "", "Path to distributor PKCS#12 bundle")
	cmd.Flags().StringVar(distPass, "dist-password", "", "Distributor bundle password")
	cmd.Flags().StringVar(profiles, "profiles", "", "Path to a Tizen Studio profiles.xml")
	cmd.Flags().StringVar(profileName, "profile", "", "Profile name inside profiles.xml (default: active profile)")
}

func validateSignConfig(config *models.SignConfig) error {
	if config.Input == "" {
		return &models.SignError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("input is required"),
		}
	}

	if config.Output == "" {
		ext := filepath.Ext(config.Input)
		config.Output = strings.TrimSuffix(config.Input, ext) + "-signed" + ext
	}

	return nil
}

func runSign(config *models.SignConfig) error {
	pkgType, err := scanner.DetectPackageType(config.Input)
	if err != nil {
		return &models.SignError{Type: models.ErrPackageParse, Package: config.Input, Err: err}
	}
	logrus.Debugf("Detected package type: %s", pkgType)

	entries, err := archive.ReadPackage(config.Input)
	if err != nil {
		return err
	}
	logrus.Infof("Found %d content files", len(entries))

	pkgr, err := packagerFor(pkgType)
	if err != nil {
		return err
	}
	if err := pkgr.Validate(entries); err != nil {
		return err
	}
	if info, err := pkgr.Metadata(entries); err == nil {
		logrus.Infof("Application: %s %s", info.ID, info.Version)
	}

	author, dist, err := signingKeys(config)
	if err != nil {
		return err
	}

	signed, err := signEntries(entries, author, dist)
	if err != nil {
		return err
	}

	if err := archive.WritePackage(config.Output, signed); err != nil {
		return err
	}

	logrus.Info("Package signed successfully!")
	logrus.Infof("Output: %s", config.Output)
	return nil
}

// signEntries applies the author signature over the content entries, then
// the distributor signature over the content plus the author signature, in
// widget-digsig order.
func signEntries(entries []models.FileEntry, author, dist *certs.Certificate) ([]models.FileEntry, error) {
	logrus.Debug("Building author signature")
	signed, err := signature.New(signature.RoleAuthor, entries).Sign(author)
	if err != nil {
		return nil, err
	}

	if dist == nil {
		logrus.Warn("No distributor key given, skipping distributor signature")
		return signed, nil
	}

	logrus.Debug("Building distributor signature")
	signed, err = signature.New(signature.RoleDistributor, signed).Sign(dist)
	if err != nil {
		return nil, err
	}
	return signed, nil
}

func packagerFor(pkgType scanner.PackageType) (packager.Packager, error) {
	switch pkgType {
	case scanner.TypeWidget:
		return wgt.NewPackager(), nil
	case scanner.TypeNative:
		return tpk.NewPackager(), nil
	default:
		return nil, &models.SignError{Type: models.ErrPackageParse, Err: fmt.Errorf("unknown package type")}
	}
}

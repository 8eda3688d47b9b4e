package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/howeyc/gopass"
	"github.com/sirupsen/logrus"

	"github.com/reisxd/tizensign/internal/certs"
	"github.com/reisxd/tizensign/internal/models"
	"github.com/reisxd/tizensign/internal/profile"
)

// signingKeys resolves the author and distributor bundles, either from a
// security profile or from explicit key flags. The author bundle is
// required; a missing distributor bundle is allowed (development signing).
func signingKeys(cfg *models.SignConfig) (author, dist *certs.Certificate, err error) {
	authorPath, authorPass := cfg.AuthorKeyPath, cfg.AuthorPassword
	distPath, distPass := cfg.DistKeyPath, cfg.DistPassword

	if cfg.ProfilesPath != "" {
		profiles, err := profile.Load(cfg.ProfilesPath)
		if err != nil {
			return nil, nil, err
		}
		p, err := profiles.Get(cfg.ProfileName)
		if err != nil {
			return nil, nil, err
		}
		logrus.Debugf("Using security profile: %s", p.Name)
		if p.Author == nil {
			return nil, nil, &models.SignError{Type: models.ErrInvalidConfig, Err: fmt.Errorf("profile %q has no author key", p.Name)}
		}
		authorPath, authorPass = p.Author.KeyPath, p.Author.Password
		if d := p.Distributor(); d != nil {
			distPath, distPass = d.KeyPath, d.Password
		}
	}

	if authorPath == "" {
		return nil, nil, &models.SignError{Type: models.ErrInvalidConfig, Err: fmt.Errorf("an author key is required (--author-key or --profiles)")}
	}
	author, err = loadKey(authorPath, authorPass)
	if err != nil {
		return nil, nil, err
	}
	if distPath != "" {
		dist, err = loadKey(distPath, distPass)
		if err != nil {
			return nil, nil, err
		}
	}
	return author, dist, nil
}

// loadKey decodes a PKCS#12 bundle, prompting for the password when none
// was supplied and the empty password is rejected.
func loadKey(path, password string) (*certs.Certificate, error) {
	if password != "" {
		return certs.ParsePKCS12File(path, password)
	}
	cert, err := certs.ParsePKCS12File(path, "")
	if err == nil || !certs.IsIncorrectPassword(err) {
		return cert, err
	}
	for {
		pw, err := gopass.GetPasswdPrompt(fmt.Sprintf("Password for %s: ", filepath.Base(path)), true, os.Stdin, os.Stdout)
		if err != nil {
			return nil, &models.SignError{Type: models.ErrInvalidConfig, Package: path, Err: err}
		}
		cert, err = certs.ParsePKCS12File(path, string(pw))
		if certs.IsIncorrectPassword(err) {
			logrus.Warn("Incorrect password, try again")
			continue
		}
		return cert, err
	}
}

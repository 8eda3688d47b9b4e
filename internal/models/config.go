package models

// SignConfig contains configuration for signing an existing package
type SignConfig struct {
	// Input/Output
	Input  string
	Output string

	// Author key material
	AuthorKeyPath  string
	AuthorPassword string

	// Distributor key material
	DistKeyPath  string
	DistPassword string

	// Security profile (alternative to explicit key paths)
	ProfilesPath string
	ProfileName  string
}

// PackConfig contains configuration for packing a directory into a package
type PackConfig struct {
	InputDir string
	Output   string

	AuthorKeyPath  string
	AuthorPassword string
	DistKeyPath    string
	DistPassword   string

	ProfilesPath string
	ProfileName  string
}

// CertConfig contains configuration for author certificate generation
type CertConfig struct {
	CommonName   string
	Organization string
	Country      string
	Email        string

	Output     string
	Password   string
	ValidYears int
}

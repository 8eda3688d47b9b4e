package profile

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"github.com/reisxd/tizensign/internal/models"
)

// Item is one profileitem entry: a PKCS#12 key path with its password.
// Distributor 0 is the author key; 1 and 2 are distributor keys.
type Item struct {
	Distributor int
	KeyPath     string
	Password    string
	CA          string
}

// Profile is one named signing profile from profiles.xml
type Profile struct {
	Name         string
	Author       *Item
	Distributors []*Item
}

// Profiles is a parsed Tizen Studio profiles.xml
type Profiles struct {
	Active   string
	Profiles map[string]*Profile
}

// Load parses a Tizen Studio profiles.xml file. Passwords are taken as
// plain text; Tizen Studio's obfuscated form is not supported.
func Load(path string) (*Profiles, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, &models.SignError{Type: models.ErrInvalidConfig, Package: path, Err: err}
	}
	root := doc.Root()
	if root == nil || root.Tag != "profiles" {
		return nil, &models.SignError{Type: models.ErrInvalidConfig, Package: path, Err: fmt.Errorf("root element is not profiles")}
	}

	out := &Profiles{
		Active:   root.SelectAttrValue("active", ""),
		Profiles: make(map[string]*Profile),
	}
	for _, pe := range root.ChildElements() {
		if pe.Tag != "profile" {
			continue
		}
		p := &Profile{Name: pe.SelectAttrValue("name", "")}
		for _, ie := range pe.ChildElements() {
			if ie.Tag != "profileitem" {
				continue
			}
			item := &Item{
				KeyPath:  ie.SelectAttrValue("key", ""),
				Password: ie.SelectAttrValue("password", ""),
				CA:       ie.SelectAttrValue("ca", ""),
			}
			item.Distributor, _ = strconv.Atoi(ie.SelectAttrValue("distributor", "0"))
			if item.KeyPath == "" {
				continue
			}
			if item.Distributor == 0 {
				p.Author = item
			} else {
				p.Distributors = append(p.Distributors, item)
			}
		}
		out.Profiles[p.Name] = p
	}
	return out, nil
}

// Get returns the named profile, or the active one when name is empty.
func (ps *Profiles) Get(name string) (*Profile, error) {
	if name == "" {
		name = ps.Active
	}
	if name == "" {
		return nil, &models.SignError{Type: models.ErrInvalidConfig, Err: fmt.Errorf("no profile name given and none active")}
	}
	p, ok := ps.Profiles[name]
	if !ok {
		return nil, &models.SignError{Type: models.ErrInvalidConfig, Err: fmt.Errorf("profile %q not found", name)}
	}
	return p, nil
}

// Distributor returns the first distributor item of the profile, or nil.
func (p *Profile) Distributor() *Item {
	if len(p.Distributors) == 0 {
		return nil
	}
	return p.Distributors[0]
}

package signature

import (
	"sort"
	"strings"

	"github.com/beevik/etree"
)

// Implements exclusive XML canonicalization (xml-exc-c14n, without comments)
// over etree element subtrees. The output is a deterministic UTF-8
// serialization: digests computed over it are stable no matter which parser
// produced the tree. Only the markup and whitespace special characters are
// escaped; non-ASCII characters are emitted as they are.

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// C14NOptions controls canonicalization of a subtree.
type C14NOptions struct {
	// InclusiveNamespacePrefixes lists prefixes that are force-declared
	// (the InclusiveNamespaces PrefixList of the transform).
	InclusiveNamespacePrefixes []string

	// DefaultNamespace is the default namespace in effect in the enclosing
	// context of the subtree.
	DefaultNamespace string

	// DefaultNamespaceForPrefix maps a prefix to the namespace URI to use
	// when the parser did not attach one to an element carrying that prefix.
	DefaultNamespaceForPrefix map[string]string
}

// scope is the per-element canonicalization frame. Each recursion works on a
// copy so child declarations never leak back into sibling emission.
type scope struct {
	prefixes  map[string]bool
	defaultNS string
}

func (s scope) clone() scope {
	prefixes := make(map[string]bool, len(s.prefixes))
	for p := range s.prefixes {
		prefixes[p] = true
	}
	return scope{prefixes: prefixes, defaultNS: s.defaultNS}
}

// Canonicalize serializes the subtree rooted at el into its exclusive
// canonical form. It is total over well-formed element trees.
func Canonicalize(el *etree.Element, opts C14NOptions) string {
	var b strings.Builder
	sc := scope{prefixes: make(map[string]bool), defaultNS: opts.DefaultNamespace}
	renderElement(&b, el, sc, opts)
	return b.String()
}

type nsDecl struct {
	prefix string
	uri    string
}

func renderElement(b *strings.Builder, el *etree.Element, sc scope, opts C14NOptions) {
	name := el.Tag
	if el.Space != "" {
		name = el.Space + ":" + el.Tag
	}
	b.WriteByte('<')
	b.WriteString(name)

	// Namespace axis. The default namespace declaration is emitted
	// immediately; prefixed declarations are collected and sorted by prefix.
	var decls []nsDecl
	if el.Space != "" {
		if !sc.prefixes[el.Space] {
			uri := el.NamespaceURI()
			if uri == "" {
				uri = opts.DefaultNamespaceForPrefix[el.Space]
			}
			decls = append(decls, nsDecl{prefix: el.Space, uri: uri})
			sc.prefixes[el.Space] = true
		}
	} else if ns := el.NamespaceURI(); ns != sc.defaultNS {
		b.WriteString(` xmlns="`)
		b.WriteString(normalizeAttrValue(ns))
		b.WriteByte('"')
		sc.defaultNS = ns
	}
	for _, attr := range el.Attr {
		if prefixListed(opts.InclusiveNamespacePrefixes, attr.Key) && !sc.prefixes[attr.Key] {
			decls = append(decls, nsDecl{prefix: attr.Key, uri: attr.Value})
			sc.prefixes[attr.Key] = true
		}
		if attr.Space != "" && attr.Space != "xmlns" && attr.Space != "xml" && !sc.prefixes[attr.Space] {
			decls = append(decls, nsDecl{prefix: attr.Space, uri: attr.NamespaceURI()})
			sc.prefixes[attr.Space] = true
		}
	}
	sort.Slice(decls, func(i, j int) bool {
		return decls[i].prefix < decls[j].prefix
	})
	for _, d := range decls {
		b.WriteString(" xmlns:")
		b.WriteString(d.prefix)
		b.WriteString(`="`)
		b.WriteString(normalizeAttrValue(d.uri))
		b.WriteByte('"')
	}

	// Attribute axis: namespace declarations are excluded, the rest sorted
	// with unqualified attributes first, then by namespace URI and local name.
	attrs := make([]etree.Attr, 0, len(el.Attr))
	for _, attr := range el.Attr {
		if attr.Space == "xmlns" || (attr.Space == "" && attr.Key == "xmlns") {
			continue
		}
		attrs = append(attrs, attr)
	}
	sort.Slice(attrs, func(i, j int) bool {
		x, y := attrs[i], attrs[j]
		xns, yns := attrNamespace(x), attrNamespace(y)
		if (xns == "") != (yns == "") {
			return xns == ""
		}
		return xns+x.Key < yns+y.Key
	})
	for _, attr := range attrs {
		b.WriteByte(' ')
		if attr.Space != "" {
			b.WriteString(attr.Space)
			b.WriteByte(':')
		}
		b.WriteString(attr.Key)
		b.WriteString(`="`)
		b.WriteString(normalizeAttrValue(attr.Value))
		b.WriteByte('"')
	}
	b.WriteByte('>')

	for _, child := range el.Child {
		switch t := child.(type) {
		case *etree.Element:
			renderElement(b, t, sc.clone(), opts)
		case *etree.CharData:
			b.WriteString(normalizeText(t.Data))
		}
	}

	b.WriteString("</")
	b.WriteString(name)
	b.WriteByte('>')
}

func prefixListed(prefixes []string, prefix string) bool {
	for _, p := range prefixes {
		if p == prefix {
			return true
		}
	}
	return false
}

func attrNamespace(attr etree.Attr) string {
	if attr.Space == "xml" {
		return xmlNamespace
	}
	return attr.NamespaceURI()
}

var textReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\r", "&#xD;",
)

// normalizeText canonicalizes character data: line endings first, then the
// markup special characters.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return textReplacer.Replace(s)
}

var attrReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	`"`, "&quot;",
	"\r", "&#xD;",
	"\n", "&#xA;",
	"\t", "&#x9;",
)

// normalizeAttrValue canonicalizes an attribute value. Control characters
// come back out as character references, so values survive a round trip
// through any conforming parser.
func normalizeAttrValue(s string) string {
	return attrReplacer.Replace(s)
}

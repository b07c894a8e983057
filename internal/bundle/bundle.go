package bundle

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"
)

// ManifestName is the manifest file at the root of every bundle
const ManifestName = "anybalance-manifest.xml"

var (
	// ErrNoScript is returned when the manifest lists no js files
	ErrNoScript = errors.New("manifest lists no script files")
	// ErrBadManifest is returned for manifests without a provider id
	ErrBadManifest = errors.New("invalid provider manifest")
)

type manifest struct {
	XMLName xml.Name `xml:"provider"`
	ID      struct {
		Version string `xml:"version,attr"`
		Value   string `xml:",chardata"`
	} `xml:"id"`
	Name        string `xml:"name"`
	Description string `xml:"description"`
	Files       struct {
		JS          []string `xml:"js"`
		Preferences string   `xml:"preferences"`
		Icon        string   `xml:"icon"`
	} `xml:"files"`
	Counters struct {
		Inner string `xml:",innerxml"`
	} `xml:"counters"`
}

// Bundle is a provider package: a directory or zip archive holding the
// manifest, the scripts and their resources.
type Bundle struct {
	ID          string
	Version     int
	Name        string
	Description string

	files    fs.FS
	closer   io.Closer
	manifest manifest
	script   string
}

// Open loads the bundle at path, which is either a directory or a zip
// archive
func Open(p string) (*Bundle, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return load(os.DirFS(p), nil)
	}

	rc, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("open bundle archive: %w", err)
	}
	b, err := load(rc, rc)
	if err != nil {
		rc.Close()
		return nil, err
	}
	return b, nil
}

// FromBytes loads a bundle from zip archive contents
func FromBytes(data []byte) (*Bundle, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read bundle archive: %w", err)
	}
	return load(zr, nil)
}

// FromFS loads a bundle from any file system
func FromFS(files fs.FS) (*Bundle, error) {
	return load(files, nil)
}

func load(files fs.FS, closer io.Closer) (*Bundle, error) {
	raw, err := fs.ReadFile(files, ManifestName)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m manifest
	if err := xml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadManifest, err)
	}

	b := &Bundle{
		ID:          strings.TrimSpace(m.ID.Value),
		Name:        strings.TrimSpace(m.Name),
		Description: strings.TrimSpace(m.Description),
		files:       files,
		closer:      closer,
		manifest:    m,
	}
	if b.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrBadManifest)
	}
	if v := strings.TrimSpace(m.ID.Version); v != "" {
		b.Version, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: version %q", ErrBadManifest, v)
		}
	}
	return b, nil
}

// Close releases the archive behind the bundle
func (b *Bundle) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// File returns the raw contents of a bundle file
func (b *Bundle) File(name string) ([]byte, error) {
	return fs.ReadFile(b.files, path.Clean(strings.TrimPrefix(name, "/")))
}

// Script returns the provider program: every js file of the manifest in
// order, joined by newlines.
func (b *Bundle) Script() (string, error) {
	if b.script != "" {
		return b.script, nil
	}

	var parts []string
	for _, name := range b.manifest.Files.JS {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		data, err := b.File(name)
		if err != nil {
			return "", fmt.Errorf("read script %s: %w", name, err)
		}
		parts = append(parts, string(data))
	}
	if len(parts) == 0 {
		return "", ErrNoScript
	}

	b.script = strings.Join(parts, "\n")
	return b.script, nil
}

// Preferences returns the preferences screen XML, or "" when the bundle
// has none
func (b *Bundle) Preferences() (string, error) {
	name := strings.TrimSpace(b.manifest.Files.Preferences)
	if name == "" {
		return "", nil
	}
	data, err := b.File(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Counters returns the counter declarations of the manifest as XML
func (b *Bundle) Counters() string {
	return strings.TrimSpace(b.manifest.Counters.Inner)
}

// Icon returns the icon image, or nil when the bundle has none
func (b *Bundle) Icon() ([]byte, error) {
	name := strings.TrimSpace(b.manifest.Files.Icon)
	if name == "" {
		return nil, nil
	}
	return b.File(name)
}

var passwordType = regexp.MustCompile(`(?i)password`)

// MaskedPreferences returns the keys of preferences entered as passwords.
// Their values must not appear in logs.
func (b *Bundle) MaskedPreferences() ([]string, error) {
	prefs, err := b.Preferences()
	if err != nil || prefs == "" {
		return nil, err
	}

	var keys []string
	dec := xml.NewDecoder(strings.NewReader(prefs))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return keys, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse preferences: %w", err)
		}
		el, ok := tok.(xml.StartElement)
		if !ok || el.Name.Local != "EditTextPreference" {
			continue
		}
		var key, inputType string
		for _, attr := range el.Attr {
			switch attr.Name.Local {
			case "key":
				key = attr.Value
			case "inputType":
				inputType = attr.Value
			}
		}
		if passwordType.MatchString(inputType) {
			keys = append(keys, key)
		}
	}
}

// Mask returns a copy of prefs with the values of keys replaced
func Mask(prefs map[string]interface{}, keys []string) map[string]interface{} {
	out := make(map[string]interface{}, len(prefs))
	for k, v := range prefs {
		out[k] = v
	}
	for _, k := range keys {
		if _, ok := out[k]; ok {
			out[k] = "***"
		}
	}
	return out
}

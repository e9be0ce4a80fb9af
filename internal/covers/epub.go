package covers

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

const (
	containerPath = "META-INF/container.xml"

	opfMediaType = "application/oebps-package+xml"

	// Upper bounds on what is read out of an archive
	maxCoverSize    = 20 << 20
	maxDocumentSize = 4 << 20
)

// ErrNoCover means the package document declares no usable cover image.
var ErrNoCover = errors.New("no cover declared")

type container struct {
	Rootfiles []rootfile `xml:"rootfiles>rootfile"`
}

type rootfile struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

// packageDocument is the part of the OPF needed to find the cover.
type packageDocument struct {
	Metas      []opfMeta      `xml:"metadata>meta"`
	Items      []manifestItem `xml:"manifest>item"`
	References []guideRef     `xml:"guide>reference"`
}

type opfMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type manifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

type guideRef struct {
	Type string `xml:"type,attr"`
	Href string `xml:"href,attr"`
}

// coverImage is a located cover inside the archive.
type coverImage struct {
	file      *zip.File
	mediaType string
}

var imageExtensions = map[string]string{
	".jpg":  ".jpg",
	".jpeg": ".jpg",
	".png":  ".png",
	".gif":  ".gif",
	".webp": ".webp",
	".svg":  ".svg",
}

var imageMediaTypes = map[string]string{
	"image/jpeg":    ".jpg",
	"image/jpg":     ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// extension picks the cache file extension from the entry name, falling back
// to the declared media type.
func (c coverImage) extension() string {
	if ext, ok := imageExtensions[strings.ToLower(path.Ext(c.file.Name))]; ok {
		return ext
	}
	if ext, ok := imageMediaTypes[strings.ToLower(c.mediaType)]; ok {
		return ext
	}
	return ".img"
}

// archive wraps a zip reader with name lookups.
type archive struct {
	files map[string]*zip.File
	lower map[string]*zip.File
}

func newArchive(zr *zip.Reader) *archive {
	a := &archive{
		files: make(map[string]*zip.File, len(zr.File)),
		lower: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		a.files[f.Name] = f
		if _, ok := a.lower[strings.ToLower(f.Name)]; !ok {
			a.lower[strings.ToLower(f.Name)] = f
		}
	}
	return a
}

// lookup finds an entry by exact name, then case-insensitively.
func (a *archive) lookup(name string) *zip.File {
	if f, ok := a.files[name]; ok {
		return f
	}
	return a.lower[strings.ToLower(name)]
}

func (a *archive) readXML(name string, v any) error {
	f := a.lookup(name)
	if f == nil {
		return fmt.Errorf("%s not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	decoder := xml.NewDecoder(io.LimitReader(rc, maxDocumentSize))
	decoder.Strict = false
	decoder.CharsetReader = charset.NewReaderLabel
	return decoder.Decode(v)
}

// packagePath returns the OPF named by container.xml.
func (a *archive) packagePath() (string, error) {
	var c container
	if err := a.readXML(containerPath, &c); err != nil {
		return "", fmt.Errorf("failed to read container: %w", err)
	}
	var fallback string
	for _, rf := range c.Rootfiles {
		if rf.FullPath == "" {
			continue
		}
		if rf.MediaType == opfMediaType {
			return rf.FullPath, nil
		}
		if fallback == "" {
			fallback = rf.FullPath
		}
	}
	if fallback == "" {
		return "", errors.New("container lists no package document")
	}
	return fallback, nil
}

// locateCover finds the cover image declared by the package document.
func locateCover(zr *zip.Reader) (coverImage, error) {
	a := newArchive(zr)

	opfPath, err := a.packagePath()
	if err != nil {
		return coverImage{}, err
	}
	var pkg packageDocument
	if err := a.readXML(opfPath, &pkg); err != nil {
		return coverImage{}, fmt.Errorf("failed to parse %s: %w", opfPath, err)
	}

	opfDir := path.Dir(opfPath)
	strategies := []func(*archive, *packageDocument, string) (coverImage, bool){
		coverFromProperties,
		coverFromMeta,
		coverFromGuide,
		coverFromManifestNames,
	}
	for _, strategy := range strategies {
		if img, ok := strategy(a, &pkg, opfDir); ok {
			return img, nil
		}
	}
	return coverImage{}, ErrNoCover
}

// coverFromProperties handles EPUB 3 properties="cover-image".
func coverFromProperties(a *archive, pkg *packageDocument, opfDir string) (coverImage, bool) {
	for _, item := range pkg.Items {
		for _, prop := range strings.Fields(item.Properties) {
			if prop == "cover-image" {
				return a.imageItem(item, opfDir)
			}
		}
	}
	return coverImage{}, false
}

// coverFromMeta handles EPUB 2 <meta name="cover" content="item-id"/>.
func coverFromMeta(a *archive, pkg *packageDocument, opfDir string) (coverImage, bool) {
	for _, meta := range pkg.Metas {
		if !strings.EqualFold(meta.Name, "cover") || meta.Content == "" {
			continue
		}
		if item, ok := pkg.itemByID(meta.Content); ok {
			if isImage(item.MediaType, item.Href) {
				return a.imageItem(item, opfDir)
			}
			if isPage(item.MediaType, item.Href) {
				return a.imageFromPage(pkg, opfDir, resolveHref(opfDir, item.Href))
			}
		}
		// Some tools put the image path in content instead of an id
		if isImage("", meta.Content) {
			if f := a.lookup(resolveHref(opfDir, meta.Content)); f != nil {
				return coverImage{file: f}, true
			}
		}
	}
	return coverImage{}, false
}

// coverFromGuide handles <guide><reference type="cover"/>, which points at
// either the image or an XHTML page showing it.
func coverFromGuide(a *archive, pkg *packageDocument, opfDir string) (coverImage, bool) {
	for _, ref := range pkg.References {
		if !strings.EqualFold(ref.Type, "cover") || ref.Href == "" {
			continue
		}
		name := resolveHref(opfDir, ref.Href)
		mediaType := pkg.mediaTypeOf(name, opfDir)
		if isImage(mediaType, name) {
			if f := a.lookup(name); f != nil {
				return coverImage{file: f, mediaType: mediaType}, true
			}
			continue
		}
		if img, ok := a.imageFromPage(pkg, opfDir, name); ok {
			return img, true
		}
	}
	return coverImage{}, false
}

// coverFromManifestNames picks the shallowest image item whose id or href
// mentions "cover".
func coverFromManifestNames(a *archive, pkg *packageDocument, opfDir string) (coverImage, bool) {
	var (
		best      coverImage
		bestDepth = -1
	)
	for _, item := range pkg.Items {
		if !isImage(item.MediaType, item.Href) {
			continue
		}
		if !strings.Contains(strings.ToLower(item.ID), "cover") &&
			!strings.Contains(strings.ToLower(path.Base(item.Href)), "cover") {
			continue
		}
		img, ok := a.imageItem(item, opfDir)
		if !ok {
			continue
		}
		depth := strings.Count(img.file.Name, "/")
		if bestDepth == -1 || depth < bestDepth {
			best, bestDepth = img, depth
		}
	}
	return best, bestDepth != -1
}

func (a *archive) imageItem(item manifestItem, opfDir string) (coverImage, bool) {
	f := a.lookup(resolveHref(opfDir, item.Href))
	if f == nil {
		return coverImage{}, false
	}
	return coverImage{file: f, mediaType: item.MediaType}, true
}

// imageFromPage returns the first image referenced by an XHTML cover page.
func (a *archive) imageFromPage(pkg *packageDocument, opfDir, pageName string) (coverImage, bool) {
	f := a.lookup(pageName)
	if f == nil {
		return coverImage{}, false
	}
	rc, err := f.Open()
	if err != nil {
		return coverImage{}, false
	}
	defer rc.Close()

	src := firstImageSource(io.LimitReader(rc, maxDocumentSize))
	if src == "" {
		return coverImage{}, false
	}
	name := resolveHref(path.Dir(f.Name), src)
	img := a.lookup(name)
	if img == nil {
		return coverImage{}, false
	}
	return coverImage{file: img, mediaType: pkg.mediaTypeOf(img.Name, opfDir)}, true
}

// firstImageSource scans an (X)HTML document for <img src> or SVG
// <image href|xlink:href>.
func firstImageSource(r io.Reader) string {
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			if (tag != "img" && tag != "image") || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				k := string(key)
				if (tag == "img" && k == "src") || (tag == "image" && (k == "href" || k == "xlink:href")) {
					if v := strings.TrimSpace(string(val)); v != "" {
						return v
					}
				}
				if !more {
					break
				}
			}
		}
	}
}

func (pkg *packageDocument) itemByID(id string) (manifestItem, bool) {
	for _, item := range pkg.Items {
		if item.ID == id {
			return item, true
		}
	}
	return manifestItem{}, false
}

// mediaTypeOf returns the manifest media type of an archive entry, if listed.
func (pkg *packageDocument) mediaTypeOf(name, opfDir string) string {
	for _, item := range pkg.Items {
		if strings.EqualFold(resolveHref(opfDir, item.Href), name) {
			return item.MediaType
		}
	}
	return ""
}

// resolveHref resolves a manifest href against a directory inside the archive.
func resolveHref(dir, href string) string {
	href = strings.TrimSpace(href)
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	if unescaped, err := url.PathUnescape(href); err == nil {
		href = unescaped
	}
	if strings.HasPrefix(href, "/") || dir == "." {
		dir = ""
	}
	return strings.TrimPrefix(path.Join(dir, href), "/")
}

func isImage(mediaType, name string) bool {
	if strings.HasPrefix(strings.ToLower(mediaType), "image/") {
		return true
	}
	_, ok := imageExtensions[strings.ToLower(path.Ext(name))]
	return ok
}

func isPage(mediaType, name string) bool {
	switch strings.ToLower(mediaType) {
	case "application/xhtml+xml", "text/html":
		return true
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".xhtml", ".html", ".htm":
		return true
	}
	return false
}
